// Package origin keeps this device's origin chain: it runs bound witness
// sessions, chains the resulting blocks and stores them.
package origin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"XyoCore/internal/boundwitness"
	"XyoCore/internal/fault"
	"XyoCore/internal/hashing"
	"XyoCore/internal/logger"
	"XyoCore/internal/object"
	"XyoCore/internal/signing"
)

// ErrSessionActive is returned when a bound witness is requested while
// another one is running.
var ErrSessionActive = errors.New("bound witness session already active")

// ErrNoSigners is returned when the chain has no signer to sign with.
var ErrNoSigners = errors.New("origin chain has no signers")

// Config holds the collaborators of a Manager.
type Config struct {
	Blocks   BlockRepository  // Blocks stores created and bridged blocks
	State    StateRepository  // State holds the chain position
	Hasher   hashing.Provider // Hasher hashes blocks for chaining
	Objects  *object.Registry // Objects decodes transfers
	Verifier *signing.Registry
}

// Manager creates origin blocks. It runs at most one session at a time.
type Manager struct {
	blocks   BlockRepository
	state    *StateManager
	hasher   hashing.Provider
	objects  *object.Registry
	verifier *signing.Registry

	mu         sync.RWMutex
	heuristics map[string]HeuristicGetter
	options    map[string]Option
	listeners  map[string]Listener

	active atomic.Bool // active is set while a session runs
	log    *slog.Logger
}

// NewManager creates a manager. Every Config field is required.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Blocks == nil || cfg.State == nil || cfg.Hasher == nil || cfg.Objects == nil || cfg.Verifier == nil {
		return nil, fmt.Errorf("origin manager: incomplete config")
	}

	return &Manager{
		blocks:     cfg.Blocks,
		state:      NewStateManager(cfg.State),
		hasher:     cfg.Hasher,
		objects:    cfg.Objects,
		verifier:   cfg.Verifier,
		heuristics: make(map[string]HeuristicGetter),
		options:    make(map[string]Option),
		listeners:  make(map[string]Listener),
		log:        logger.Component("node"),
	}, nil
}

// State returns the chain state manager.
func (m *Manager) State() *StateManager {
	return m.state
}

// Blocks returns the block repository.
func (m *Manager) Blocks() BlockRepository {
	return m.blocks
}

// Hasher returns the chain hash provider.
func (m *Manager) Hasher() hashing.Provider {
	return m.hasher
}

// Active reports whether a session is running.
func (m *Manager) Active() bool {
	return m.active.Load()
}

// AddHeuristic registers a heuristic under key, replacing any previous one.
func (m *Manager) AddHeuristic(key string, h HeuristicGetter) {
	m.mu.Lock()
	m.heuristics[key] = h
	m.mu.Unlock()
}

// RemoveHeuristic removes the heuristic under key.
func (m *Manager) RemoveHeuristic(key string) {
	m.mu.Lock()
	delete(m.heuristics, key)
	m.mu.Unlock()
}

// AddOption registers an option under key.
func (m *Manager) AddOption(key string, o Option) {
	m.mu.Lock()
	m.options[key] = o
	m.mu.Unlock()
}

// RemoveOption removes the option under key.
func (m *Manager) RemoveOption(key string) {
	m.mu.Lock()
	delete(m.options, key)
	m.mu.Unlock()
}

// AddListener registers a listener under key.
func (m *Manager) AddListener(key string, l Listener) {
	m.mu.Lock()
	m.listeners[key] = l
	m.mu.Unlock()
}

// RemoveListener removes the listener under key.
func (m *Manager) RemoveListener(key string) {
	m.mu.Lock()
	delete(m.listeners, key)
	m.mu.Unlock()
}

// BoundWitness runs one session over pipe. The pipe is closed before this
// returns, except when the call is rejected because a session is active.
func (m *Manager) BoundWitness(ctx context.Context, pipe boundwitness.Pipe, catalogue []byte) (*boundwitness.BoundWitness, error) {
	if !m.active.CompareAndSwap(false, true) {
		err := fault.Creation(ErrSessionActive)
		m.notifyFailure(err)
		return nil, err
	}
	defer m.active.Store(false)

	start := time.Now()
	m.notifyStart()

	closed := false
	closePipe := func() {
		if closed {
			return
		}
		closed = true

		if err := pipe.Close(); err != nil {
			m.log.Debug("close pipe", "error", err)
		}
	}
	defer closePipe()

	choice, transfer, err := boundwitness.Negotiate(ctx, pipe, catalogue)
	if err != nil {
		return nil, m.fail(fmt.Errorf("negotiate:\n%w", err))
	}

	options := m.optionsFor(choice)

	payload, err := m.makePayload(ctx, options, pipe)
	if err != nil {
		closePipe()
		m.completeOptions(options, nil)
		return nil, m.fail(err)
	}

	signers := m.state.Signers()
	if len(signers) == 0 {
		closePipe()
		m.completeOptions(options, nil)
		return nil, m.fail(fault.Creation(ErrNoSigners))
	}

	zz := boundwitness.NewZigZag(m.objects, m.verifier, signers, payload)
	session := boundwitness.NewSession(pipe, zz, choice)
	runErr := session.Run(ctx, transfer)

	closePipe()

	if runErr != nil {
		m.completeOptions(options, nil)
		return nil, m.fail(runErr)
	}

	bw := session.BoundWitness()
	m.completeOptions(options, bw)

	if err := m.commit(ctx, bw); err != nil {
		return nil, m.fail(err)
	}

	m.log.Info("bound witness created",
		"session", session.ID().String(),
		"parties", bw.Parties(),
		"index", m.state.IndexValue()-1,
		logger.Timed(start))

	m.notifySuccess(bw)
	return bw, nil
}

// SelfSign creates a block signed by this device alone.
func (m *Manager) SelfSign(ctx context.Context) (*boundwitness.BoundWitness, error) {
	if !m.active.CompareAndSwap(false, true) {
		err := fault.Creation(ErrSessionActive)
		m.notifyFailure(err)
		return nil, err
	}
	defer m.active.Store(false)

	m.notifyStart()

	payload, err := m.makePayload(ctx, nil, nil)
	if err != nil {
		return nil, m.fail(err)
	}

	signers := m.state.Signers()
	if len(signers) == 0 {
		return nil, m.fail(fault.Creation(ErrNoSigners))
	}

	zz := boundwitness.NewZigZag(m.objects, m.verifier, signers, payload)
	if _, err := zz.IncomingData(nil, true); err != nil {
		return nil, m.fail(fmt.Errorf("self sign:\n%w", err))
	}

	if !zz.Completed() {
		return nil, m.fail(fault.Creationf("self signed bound witness is incomplete"))
	}

	bw := zz.BoundWitness()
	if err := m.commit(ctx, bw); err != nil {
		return nil, m.fail(err)
	}

	m.log.Info("self signed block created", "index", m.state.IndexValue()-1)

	m.notifySuccess(bw)
	return bw, nil
}

// commit chains bw onto the origin chain and stores it.
func (m *Manager) commit(ctx context.Context, bw *boundwitness.BoundWitness) error {
	hash, err := bw.Hash(m.hasher)
	if err != nil {
		return fault.Creation(fmt.Errorf("hash bound witness:\n%w", err))
	}

	m.state.NewOriginBlock(hash)

	if err := m.state.Commit(ctx); err != nil {
		return fault.Storage(err)
	}

	if err := m.load(ctx, bw); err != nil {
		return err
	}

	return nil
}

// load stores bw without its bridged blocks, then loads each bridged block.
// Blocks already stored are skipped along with their sub-blocks.
func (m *Manager) load(ctx context.Context, bw *boundwitness.BoundWitness) error {
	hash, err := bw.Hash(m.hasher)
	if err != nil {
		return fault.Creation(fmt.Errorf("hash block:\n%w", err))
	}

	exists, err := m.blocks.ContainsOriginBlock(ctx, hash)
	if err != nil {
		return fault.Storage(fmt.Errorf("lookup block %s:\n%w", hash, err))
	}
	if exists {
		return nil
	}

	subBlocks := m.bridgedBlocks(bw)
	stripped := bw.WithoutUnsigned(object.BridgeBlockSet)

	if err := m.blocks.AddBoundWitness(ctx, stripped); err != nil {
		return fault.Storage(fmt.Errorf("store block %s:\n%w", hash, err))
	}

	m.notifyDiscovered(stripped)

	for _, sub := range subBlocks {
		if err := m.load(ctx, sub); err != nil {
			return err
		}
	}

	return nil
}

// bridgedBlocks extracts the blocks carried in BRIDGE_BLOCK_SET items.
// Invalid blocks are logged and skipped.
func (m *Manager) bridgedBlocks(bw *boundwitness.BoundWitness) []*boundwitness.BoundWitness {
	var out []*boundwitness.BoundWitness

	for i, p := range bw.Payloads() {
		set, ok := p.FindUnsigned(object.BridgeBlockSet)
		if !ok {
			continue
		}

		for _, item := range set.Items() {
			sub, err := boundwitness.FromObject(item, m.verifier)
			if err != nil {
				m.log.Warn("skip bridged block", "party", i, "error", err)
				continue
			}

			if !sub.Completed() {
				m.log.Warn("skip incomplete bridged block", "party", i)
				continue
			}

			out = append(out, sub)
		}
	}

	return out
}

// makePayload assembles this party's payload. pipe may be nil.
func (m *Manager) makePayload(ctx context.Context, options []Option, pipe boundwitness.Pipe) (boundwitness.Payload, error) {
	var p boundwitness.Payload

	for _, h := range m.heuristicSnapshot() {
		if item, ok := h.Heuristic(ctx); ok {
			p.Signed = append(p.Signed, item)
		}
	}

	if prev, ok := m.state.PreviousHash(); ok {
		p.Signed = append(p.Signed, prev)
	}

	if next, ok := m.state.NextPublicKey(); ok {
		p.Signed = append(p.Signed, next)
	}

	p.Signed = append(p.Signed, m.state.Index())
	p.Signed = append(p.Signed, m.state.Statics()...)

	for _, o := range options {
		op, err := o.Payload(ctx)
		if err != nil {
			return boundwitness.Payload{}, fault.Creation(fmt.Errorf("option payload:\n%w", err))
		}

		p.Signed = append(p.Signed, op.Signed...)
		p.Unsigned = append(p.Unsigned, op.Unsigned...)
	}

	if hp, ok := pipe.(HeuristicPipe); ok {
		p.Signed = append(p.Signed, hp.NetworkHeuristics()...)
	}

	return p, nil
}

// optionsFor returns the registered options selected by choice, in key order.
func (m *Manager) optionsFor(choice []byte) []Option {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Option
	for _, key := range sortedKeys(m.options) {
		o := m.options[key]
		if boundwitness.Matches(o.Flag(), choice) {
			out = append(out, o)
		}
	}

	return out
}

func (m *Manager) heuristicSnapshot() []HeuristicGetter {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]HeuristicGetter, 0, len(m.heuristics))
	for _, key := range sortedKeys(m.heuristics) {
		out = append(out, m.heuristics[key])
	}

	return out
}

func (m *Manager) listenerSnapshot() []Listener {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Listener, 0, len(m.listeners))
	for _, key := range sortedKeys(m.listeners) {
		out = append(out, m.listeners[key])
	}

	return out
}

func (m *Manager) completeOptions(options []Option, bw *boundwitness.BoundWitness) {
	for _, o := range options {
		o.OnCompleted(bw)
	}
}

func (m *Manager) fail(err error) error {
	m.log.Warn("bound witness failed", "kind", fault.Kind(err), "error", err)
	m.notifyFailure(err)
	return err
}

func (m *Manager) notifyStart() {
	for _, l := range m.listenerSnapshot() {
		l.OnBoundWitnessStart()
	}
}

func (m *Manager) notifySuccess(bw *boundwitness.BoundWitness) {
	for _, l := range m.listenerSnapshot() {
		l.OnBoundWitnessEndSuccess(bw)
	}
}

func (m *Manager) notifyFailure(err error) {
	for _, l := range m.listenerSnapshot() {
		l.OnBoundWitnessEndFailure(err)
	}
}

func (m *Manager) notifyDiscovered(bw *boundwitness.BoundWitness) {
	for _, l := range m.listenerSnapshot() {
		l.OnBoundWitnessDiscovered(bw)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
