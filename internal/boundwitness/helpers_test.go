package boundwitness

import (
	"context"
	"sync/atomic"
	"testing"

	"XyoCore/internal/object"
	"XyoCore/internal/signing"
)

// chanPipe is one end of a buffered in-process pipe.
type chanPipe struct {
	in         chan []byte
	out        chan []byte
	initiation []byte
	closed     atomic.Bool
}

func newChanPair() (*chanPipe, *chanPipe) {
	ab := make(chan []byte, 1)
	ba := make(chan []byte, 1)

	return &chanPipe{in: ba, out: ab}, &chanPipe{in: ab, out: ba}
}

func (p *chanPipe) Send(ctx context.Context, data []byte, expectResponse bool) ([]byte, error) {
	select {
	case p.out <- data:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if !expectResponse {
		return nil, nil
	}

	select {
	case resp := <-p.in:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *chanPipe) Close() error {
	p.closed.Store(true)
	return nil
}

func (p *chanPipe) InitiationData() []byte {
	return p.initiation
}

// stubPipe answers every send with a fixed response.
type stubPipe struct {
	initiation []byte
	resp       []byte
	sent       [][]byte
}

func (p *stubPipe) Send(_ context.Context, data []byte, _ bool) ([]byte, error) {
	p.sent = append(p.sent, data)
	return p.resp, nil
}

func (p *stubPipe) Close() error           { return nil }
func (p *stubPipe) InitiationData() []byte { return p.initiation }

func newSigners(t *testing.T, n int) []signing.Signer {
	t.Helper()

	signers := make([]signing.Signer, n)
	for i := range signers {
		s, err := signing.GenerateSecp256k1()
		if err != nil {
			t.Fatalf("generate signer: %v", err)
		}
		signers[i] = s
	}

	return signers
}

func heuristicsPayload(rssi int8, unix uint64) Payload {
	return Payload{
		Signed: []object.Object{
			object.NewInt8(object.Rssi, rssi),
			object.NewUint64(object.UnixTime, unix),
		},
		Unsigned: []object.Object{object.NewInt8(object.Rssi, rssi)},
	}
}
