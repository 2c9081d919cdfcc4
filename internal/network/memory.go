package network

import (
	"context"
	"fmt"
	"sync"

	"XyoCore/internal/object"
)

// memoryBuffer is the frame buffer of each direction.
const memoryBuffer = 4

// MemoryPipe is one end of an in-process pipe pair. It follows the same
// framing rules as the QUIC pipe and can report network heuristics.
type MemoryPipe struct {
	in         <-chan []byte
	out        chan<- []byte
	initiation []byte

	done     chan struct{} // done is closed by Close
	peerDone chan struct{} // peerDone is the peer's done channel
	once     sync.Once

	mu         sync.RWMutex
	heuristics []object.Object
}

// NewMemoryPair creates two connected pipes. The first initiates; the
// second must call Accept before running its session.
func NewMemoryPair() (*MemoryPipe, *MemoryPipe) {
	ab := make(chan []byte, memoryBuffer)
	ba := make(chan []byte, memoryBuffer)
	doneA := make(chan struct{})
	doneB := make(chan struct{})

	a := &MemoryPipe{in: ba, out: ab, done: doneA, peerDone: doneB}
	b := &MemoryPipe{in: ab, out: ba, done: doneB, peerDone: doneA}

	return a, b
}

// Accept waits for the peer's opening packet and keeps it as initiation data.
func (p *MemoryPipe) Accept(ctx context.Context) error {
	data, err := p.receive(ctx)
	if err != nil {
		return err
	}

	if data == nil {
		return fmt.Errorf("peer closed before opening")
	}

	p.initiation = data

	return nil
}

// InitiationData returns the packet received by Accept.
func (p *MemoryPipe) InitiationData() []byte {
	return p.initiation
}

// Send delivers data and optionally waits for the reply.
func (p *MemoryPipe) Send(ctx context.Context, data []byte, expectResponse bool) ([]byte, error) {
	if p.Closed() {
		return nil, fmt.Errorf("pipe is closed")
	}

	frame := append([]byte(nil), data...)

	select {
	case p.out <- frame:
	default:
		select {
		case p.out <- frame:
		case <-p.peerDone:
			return nil, fmt.Errorf("peer closed")
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if !expectResponse {
		return nil, nil
	}

	return p.receive(ctx)
}

// receive returns the next frame, or nil once the peer closed.
func (p *MemoryPipe) receive(ctx context.Context) ([]byte, error) {
	select {
	case data := <-p.in:
		return data, nil
	default:
	}

	select {
	case data := <-p.in:
		return data, nil
	case <-p.peerDone:
		select {
		case data := <-p.in:
			return data, nil
		default:
			return nil, nil
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close closes this end. It is safe to call more than once.
func (p *MemoryPipe) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

// Closed reports whether Close was called.
func (p *MemoryPipe) Closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// SetHeuristics sets the heuristics this pipe reports about the link.
func (p *MemoryPipe) SetHeuristics(items ...object.Object) {
	p.mu.Lock()
	p.heuristics = items
	p.mu.Unlock()
}

// NetworkHeuristics returns the heuristics set with SetHeuristics.
func (p *MemoryPipe) NetworkHeuristics() []object.Object {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return append([]object.Object(nil), p.heuristics...)
}
