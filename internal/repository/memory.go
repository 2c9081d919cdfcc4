package repository

import (
	"context"
	"fmt"
	"sync"

	"XyoCore/internal/boundwitness"
	"XyoCore/internal/hashing"
	"XyoCore/internal/object"
)

// MemoryBlocks is a BlockRepository held in a map.
type MemoryBlocks struct {
	hasher hashing.Provider

	mu     sync.RWMutex
	blocks map[string]*boundwitness.BoundWitness
	byKey  map[string][]hashing.Hash
}

// NewMemoryBlocks creates an empty repository keyed with hasher.
func NewMemoryBlocks(hasher hashing.Provider) *MemoryBlocks {
	return &MemoryBlocks{
		hasher: hasher,
		blocks: make(map[string]*boundwitness.BoundWitness),
		byKey:  make(map[string][]hashing.Hash),
	}
}

// ContainsOriginBlock reports whether hash is stored.
func (m *MemoryBlocks) ContainsOriginBlock(_ context.Context, hash hashing.Hash) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.blocks[string(hash.Bytes())]
	return ok, nil
}

// AddBoundWitness stores bw.
func (m *MemoryBlocks) AddBoundWitness(_ context.Context, bw *boundwitness.BoundWitness) error {
	hash, err := bw.Hash(m.hasher)
	if err != nil {
		return fmt.Errorf("hash block:\n%w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blocks[string(hash.Bytes())]; ok {
		return nil
	}

	m.blocks[string(hash.Bytes())] = bw
	for _, key := range publicKeys(bw) {
		k := string(key.Bytes())
		m.byKey[k] = append(m.byKey[k], hash)
	}

	return nil
}

// GetOriginBlock returns the block with hash, nil when absent.
func (m *MemoryBlocks) GetOriginBlock(_ context.Context, hash hashing.Hash) (*boundwitness.BoundWitness, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.blocks[string(hash.Bytes())], nil
}

// OriginBlocksByPublicKey returns the hashes of blocks signed by key.
func (m *MemoryBlocks) OriginBlocksByPublicKey(_ context.Context, key object.Object) ([]hashing.Hash, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]hashing.Hash(nil), m.byKey[string(key.Bytes())]...), nil
}

// RemoveOriginBlock deletes a block.
func (m *MemoryBlocks) RemoveOriginBlock(_ context.Context, hash hashing.Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bw, ok := m.blocks[string(hash.Bytes())]
	if !ok {
		return nil
	}
	delete(m.blocks, string(hash.Bytes()))

	for _, key := range publicKeys(bw) {
		k := string(key.Bytes())
		kept := m.byKey[k][:0]
		for _, h := range m.byKey[k] {
			if !h.Equal(hash) {
				kept = append(kept, h)
			}
		}
		m.byKey[k] = kept
	}

	return nil
}

// Count returns the number of stored blocks.
func (m *MemoryBlocks) Count() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blocks), nil
}
