// Package storage is the Pebble key-value store under the block, state and
// bridge queue repositories. Single writes are synced by a background loop.
// Blocks and chain state go through synced batches, so both are on disk when
// the repository call returns.
package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"XyoCore/internal/fault"
)

const (
	// defaultSyncInterval is the default interval between WAL syncs.
	defaultSyncInterval = 100 * time.Millisecond
)

// Op is one write in a batch. A nil Value deletes Key.
type Op struct {
	Key   []byte // Key is the key to write
	Value []byte // Value is the value to store, nil to delete
}

// Storage provides a key-value store backed by Pebble.
type Storage struct {
	db       *pebble.DB    // db is the underlying Pebble database
	stopSync chan struct{} // stopSync signals the sync goroutine to stop
	wg       sync.WaitGroup
}

// New opens or creates a store at path.
func New(path string) (*Storage, error) {
	opts := &pebble.Options{
		Cache:                       pebble.NewCache(8 << 20), // 8 MB cache
		MemTableSize:                4 << 20,                  // 4 MB memtable
		MemTableStopWritesThreshold: 2,
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fault.Storage(fmt.Errorf("open %s:\n%w", path, err))
	}

	s := &Storage{
		db:       db,
		stopSync: make(chan struct{}),
	}

	s.startSyncLoop()

	return s, nil
}

// Get retrieves the value for key, nil when absent.
func (s *Storage) Get(key []byte) ([]byte, error) {
	value, closer, err := s.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fault.Storage(fmt.Errorf("get:\n%w", err))
	}
	defer closer.Close()

	// Copy the value since it's invalid after closer.Close()
	result := make([]byte, len(value))
	copy(result, value)

	return result, nil
}

// Has reports whether key exists.
func (s *Storage) Has(key []byte) (bool, error) {
	_, closer, err := s.db.Get(key)
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fault.Storage(fmt.Errorf("has:\n%w", err))
	}

	closer.Close()

	return true, nil
}

// Set stores a key-value pair. The write is synced by the background loop.
func (s *Storage) Set(key, value []byte) error {
	if err := s.db.Set(key, value, pebble.NoSync); err != nil {
		return fault.Storage(fmt.Errorf("set:\n%w", err))
	}
	return nil
}

// Delete removes key. The write is synced by the background loop.
func (s *Storage) Delete(key []byte) error {
	if err := s.db.Delete(key, pebble.NoSync); err != nil {
		return fault.Storage(fmt.Errorf("delete:\n%w", err))
	}
	return nil
}

// Apply writes ops atomically. With durable set the call returns only after
// the batch reached disk.
func (s *Storage) Apply(ops []Op, durable bool) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	for _, op := range ops {
		var err error
		if op.Value == nil {
			err = batch.Delete(op.Key, nil)
		} else {
			err = batch.Set(op.Key, op.Value, nil)
		}

		if err != nil {
			return fault.Storage(fmt.Errorf("batch:\n%w", err))
		}
	}

	opt := pebble.NoSync
	if durable {
		opt = pebble.Sync
	}

	if err := batch.Commit(opt); err != nil {
		return fault.Storage(fmt.Errorf("commit batch:\n%w", err))
	}

	return nil
}

// IteratePrefix calls fn for each key-value pair with the given prefix, in
// key order. If fn returns an error, iteration stops and the error is returned.
func (s *Storage) IteratePrefix(prefix []byte, fn func(key, value []byte) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return fault.Storage(fmt.Errorf("iterate:\n%w", err))
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		value, err := iter.ValueAndErr()
		if err != nil {
			return fault.Storage(fmt.Errorf("iterate value:\n%w", err))
		}

		if err := fn(iter.Key(), value); err != nil {
			return err
		}
	}

	if err := iter.Error(); err != nil {
		return fault.Storage(err)
	}

	return nil
}

// prefixUpperBound computes the exclusive upper bound for a prefix scan.
// Increments the last byte; returns nil if prefix is all 0xFF (full range).
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)

	for i := len(upper) - 1; i >= 0; i-- {
		upper[i]++
		if upper[i] != 0 {
			return upper[:i+1]
		}
	}

	return nil // all 0xFF, unbounded
}

// Close stops the sync goroutine, syncs once more and closes the database.
func (s *Storage) Close() error {
	close(s.stopSync)
	s.wg.Wait()

	if err := s.sync(); err != nil {
		return fault.Storage(err)
	}

	return s.db.Close()
}

// startSyncLoop starts the background goroutine that periodically syncs the WAL.
func (s *Storage) startSyncLoop() {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(defaultSyncInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				_ = s.sync()
			case <-s.stopSync:
				return
			}
		}
	}()
}

// sync forces a WAL sync to disk.
func (s *Storage) sync() error {
	return s.db.LogData(nil, pebble.Sync)
}
