package origin

import (
	"context"
	"fmt"
	"sync"

	"XyoCore/internal/hashing"
	"XyoCore/internal/object"
	"XyoCore/internal/signing"
)

// StateManager tracks the chain position of this device: index, previous
// hash, signers and a pending signer rotation.
type StateManager struct {
	repo StateRepository

	mu      sync.RWMutex
	waiting signing.Signer  // waiting is the signer announced for the next block
	rotated signing.Signer  // rotated is the waiting signer staged by NewOriginBlock
	statics []object.Object // statics are signed into every block
}

// NewStateManager wraps a state repository.
func NewStateManager(repo StateRepository) *StateManager {
	return &StateManager{repo: repo}
}

// Index returns the INDEX object for the next block.
func (m *StateManager) Index() object.Object {
	return object.NewUint64(object.Index, m.IndexValue())
}

// IndexValue returns the index the next block will carry.
func (m *StateManager) IndexValue() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.repo.Index()
}

// PreviousHash returns the PREVIOUS_HASH object, absent at genesis.
func (m *StateManager) PreviousHash() (object.Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.repo.PreviousHash()
	if !ok {
		return object.Object{}, false
	}

	return object.MustArray(object.PreviousHash, h.Object()), true
}

// LastHash returns the hash of the last committed block.
func (m *StateManager) LastHash() (hashing.Hash, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.repo.PreviousHash()
}

// NextPublicKey returns the NEXT_PUBLIC_KEY object while a rotation is pending.
func (m *StateManager) NextPublicKey() (object.Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.waiting == nil {
		return object.Object{}, false
	}

	return object.MustArray(object.NextPublicKey, m.waiting.PublicKey()), true
}

// Signers returns the signers used for the next block, oldest first.
func (m *StateManager) Signers() []signing.Signer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.repo.Signers()
}

// AddSigner announces signer as the next key. It is signed into the next
// block as NEXT_PUBLIC_KEY and takes over once that block is committed.
func (m *StateManager) AddSigner(signer signing.Signer) {
	m.mu.Lock()
	m.waiting = signer
	m.mu.Unlock()
}

// SetStatics sets items signed into every block.
func (m *StateManager) SetStatics(items ...object.Object) {
	m.mu.Lock()
	m.statics = append([]object.Object(nil), items...)
	m.mu.Unlock()
}

// Statics returns the static items.
func (m *StateManager) Statics() []object.Object {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]object.Object(nil), m.statics...)
}

// NewOriginBlock advances the chain past a block with the given hash: the
// index grows by one, the hash becomes the previous hash, and a waiting
// signer replaces the oldest one.
func (m *StateManager) NewOriginBlock(hash hashing.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rotated = m.waiting

	if m.waiting != nil {
		m.repo.PutSigner(m.waiting)
		m.waiting = nil

		if len(m.repo.Signers()) > 1 {
			m.repo.RemoveOldestSigner()
		}
	}

	m.repo.PutPreviousHash(hash)
	m.repo.PutIndex(m.repo.Index() + 1)
}

// Commit persists the staged state. When the repository fails, the staged
// state is rolled back and a rotated signer goes back to waiting, so the
// chain stays at the last committed block.
func (m *StateManager) Commit(ctx context.Context) error {
	err := m.repo.Commit(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.repo.Rollback()
		if m.waiting == nil {
			m.waiting = m.rotated
		}
		m.rotated = nil

		return fmt.Errorf("commit origin state:\n%w", err)
	}

	m.rotated = nil
	return nil
}
