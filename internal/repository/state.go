package repository

import (
	"context"
	"fmt"
	"sync"

	flatbuffers "github.com/google/flatbuffers/go"

	"XyoCore/internal/fault"
	"XyoCore/internal/hashing"
	"XyoCore/internal/object"
	"XyoCore/internal/signing"
	"XyoCore/internal/storage"
	"XyoCore/internal/types"
)

// chainState is the staged origin chain state.
type chainState struct {
	mu       sync.RWMutex
	index    uint64
	previous *hashing.Hash
	signers  []signing.Signer

	committed chainSnapshot // committed is the state at the last Commit
}

type chainSnapshot struct {
	index    uint64
	previous *hashing.Hash
	signers  []signing.Signer
}

// markCommitted records the current state as the rollback point.
func (c *chainState) markCommitted() {
	c.mu.Lock()
	c.committed = chainSnapshot{
		index:    c.index,
		previous: c.previous,
		signers:  append([]signing.Signer(nil), c.signers...),
	}
	c.mu.Unlock()
}

// Rollback restores the state of the last Commit.
func (c *chainState) Rollback() {
	c.mu.Lock()
	c.index = c.committed.index
	c.previous = c.committed.previous
	c.signers = append([]signing.Signer(nil), c.committed.signers...)
	c.mu.Unlock()
}

func (c *chainState) Index() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index
}

func (c *chainState) PutIndex(index uint64) {
	c.mu.Lock()
	c.index = index
	c.mu.Unlock()
}

func (c *chainState) PreviousHash() (hashing.Hash, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.previous == nil {
		return hashing.Hash{}, false
	}
	return *c.previous, true
}

func (c *chainState) PutPreviousHash(hash hashing.Hash) {
	c.mu.Lock()
	c.previous = &hash
	c.mu.Unlock()
}

func (c *chainState) Signers() []signing.Signer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]signing.Signer(nil), c.signers...)
}

func (c *chainState) PutSigner(signer signing.Signer) {
	c.mu.Lock()
	c.signers = append(c.signers, signer)
	c.mu.Unlock()
}

func (c *chainState) RemoveOldestSigner() {
	c.mu.Lock()
	if len(c.signers) > 0 {
		c.signers = c.signers[1:]
	}
	c.mu.Unlock()
}

// StateStore stages chain state in memory and writes it to Pebble as a
// ChainState FlatBuffer on Commit. Signer private keys are stored in the
// record, so the data directory must be protected like a key file.
type StateStore struct {
	chainState

	db    *storage.Storage
	codec Codec
}

// NewStateStore loads the committed state from db, if any.
func NewStateStore(db *storage.Storage, codec Codec) (*StateStore, error) {
	if err := codec.validate(); err != nil {
		return nil, err
	}

	s := &StateStore{db: db, codec: codec}

	raw, err := db.Get(keyState)
	if err != nil {
		return nil, err
	}
	if raw != nil {
		if err := s.load(raw); err != nil {
			return nil, fault.Storage(fmt.Errorf("load chain state:\n%w", err))
		}
	}

	s.markCommitted()

	return s, nil
}

func (s *StateStore) load(raw []byte) error {
	rec := types.GetRootAsChainState(raw, 0)

	s.index = rec.Index()

	if prev := rec.PreviousHashBytes(); len(prev) > 0 {
		h, err := s.codec.decodeHash(prev)
		if err != nil {
			return err
		}
		s.previous = &h
	}

	if keys := rec.SignersBytes(); len(keys) > 0 {
		list, err := object.DecodeAs(s.codec.Objects, object.ArrayTyped, keys)
		if err != nil {
			return fmt.Errorf("decode signers:\n%w", err)
		}

		for i, key := range list.Items() {
			signer, err := s.codec.Verifier.Restore(key)
			if err != nil {
				return fmt.Errorf("restore signer %d:\n%w", i, err)
			}
			s.signers = append(s.signers, signer)
		}
	}

	return nil
}

// Commit writes the staged state with a synced batch.
func (s *StateStore) Commit(_ context.Context) error {
	data, err := s.encode()
	if err != nil {
		return err
	}

	if err := s.db.Apply([]storage.Op{{Key: keyState, Value: data}}, true); err != nil {
		return err
	}

	s.markCommitted()
	return nil
}

func (s *StateStore) encode() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]object.Object, len(s.signers))
	for i, signer := range s.signers {
		keys[i] = signer.PrivateKey()
	}

	list, err := object.NewArray(object.ArrayTyped, keys...)
	if err != nil {
		return nil, fmt.Errorf("encode signers:\n%w", err)
	}

	builder := flatbuffers.NewBuilder(256)

	var prevOffset flatbuffers.UOffsetT
	if s.previous != nil {
		prevOffset = builder.CreateByteVector(s.previous.Bytes())
	}
	signersOffset := builder.CreateByteVector(list.Bytes())

	types.ChainStateStart(builder)
	types.ChainStateAddIndex(builder, s.index)
	if s.previous != nil {
		types.ChainStateAddPreviousHash(builder, prevOffset)
	}
	types.ChainStateAddSigners(builder, signersOffset)
	types.FinishChainStateBuffer(builder, types.ChainStateEnd(builder))

	return builder.FinishedBytes(), nil
}

// MemoryState is a StateRepository that keeps everything in memory.
type MemoryState struct {
	chainState

	commits int
}

// NewMemoryState creates a state at genesis holding signers as already
// committed.
func NewMemoryState(signers ...signing.Signer) *MemoryState {
	m := &MemoryState{}
	m.signers = append(m.signers, signers...)
	m.markCommitted()
	return m
}

// Commit counts the commit.
func (m *MemoryState) Commit(_ context.Context) error {
	m.mu.Lock()
	m.commits++
	m.mu.Unlock()

	m.markCommitted()
	return nil
}

// Commits returns how many times Commit was called.
func (m *MemoryState) Commits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commits
}
