package boundwitness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"XyoCore/internal/fault"
	"XyoCore/internal/object"
	"XyoCore/internal/signing"
)

type sessionResult struct {
	session *Session
	err     error
}

func TestTwoPartyHandshake(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objects := object.NewXyoRegistry()
	verifier := signing.NewRegistry()

	a, b := newChanPair()

	zzA := NewZigZag(objects, verifier, newSigners(t, 1), heuristicsPayload(-34, 1000))
	zzB := NewZigZag(objects, verifier, newSigners(t, 2), heuristicsPayload(-60, 2000))

	done := make(chan sessionResult, 1)

	go func() {
		b.initiation = <-b.in

		choice, transfer, err := Negotiate(ctx, b, []byte{FlagBoundWitness | FlagTakeOriginChain})
		if err != nil {
			done <- sessionResult{err: err}
			return
		}

		s := NewSession(b, zzB, choice)
		done <- sessionResult{session: s, err: s.Run(ctx, transfer)}
	}()

	choice, transfer, err := Negotiate(ctx, a, []byte{FlagBoundWitness | FlagGiveOriginChain})
	require.NoError(t, err)
	require.Equal(t, []byte{FlagBoundWitness}, choice)

	sA := NewSession(a, zzA, choice)
	require.NoError(t, sA.Run(ctx, transfer))

	res := <-done
	require.NoError(t, res.err)
	sB := res.session

	require.Equal(t, StateCompleted, sA.State())
	require.Equal(t, StateCompleted, sB.State())

	bwA, bwB := sA.BoundWitness(), sB.BoundWitness()
	require.True(t, bwA.Completed())
	require.True(t, bwB.Completed())
	require.Equal(t, 2, bwA.Parties())
	require.Equal(t, bwA.Bytes(), bwB.Bytes())

	// Responder is party 0, initiator party 1.
	require.Len(t, bwA.KeySet(0), 2)
	require.Len(t, bwA.KeySet(1), 1)
	require.Len(t, bwA.Payload(1).Signed, 2)

	rssi, err := bwB.Payload(1).Signed[0].Int8()
	require.NoError(t, err)
	require.Equal(t, int8(-34), rssi)

	parsed, err := Parse(objects, verifier, bwA.Bytes())
	require.NoError(t, err)
	require.True(t, parsed.Completed())
}

func TestResponderNilResponse(t *testing.T) {
	packet, err := CataloguePacket([]byte{FlagBoundWitness})
	require.NoError(t, err)

	pipe := &stubPipe{initiation: packet}
	zz := NewZigZag(object.NewXyoRegistry(), signing.NewRegistry(), newSigners(t, 1), heuristicsPayload(1, 1))

	choice, transfer, err := Negotiate(context.Background(), pipe, []byte{FlagBoundWitness})
	require.NoError(t, err)
	require.Nil(t, transfer)

	s := NewSession(pipe, zz, choice)
	err = s.Run(context.Background(), nil)

	require.Error(t, err)
	require.True(t, fault.Is(err, fault.ErrCreation), "got %v", err)
	require.Equal(t, StateFailed, s.State())
	require.False(t, zz.Completed())

	// The choice packet went out before the missing answer.
	require.Len(t, pipe.sent, 1)
	require.Equal(t, byte(1), pipe.sent[0][0])
	require.Equal(t, FlagBoundWitness, pipe.sent[0][1])
}

func TestInitiatorNilResponse(t *testing.T) {
	_, _, err := Negotiate(context.Background(), &stubPipe{}, []byte{FlagBoundWitness})
	require.True(t, fault.Is(err, fault.ErrCreation), "got %v", err)
}

func TestInitiatorGarbageResponse(t *testing.T) {
	pipe := &stubPipe{resp: []byte{0x01, FlagBoundWitness, 0xFF, 0xEE}}

	choice, transfer, err := Negotiate(context.Background(), pipe, []byte{FlagBoundWitness})
	require.NoError(t, err)

	zz := NewZigZag(object.NewXyoRegistry(), signing.NewRegistry(), newSigners(t, 1), heuristicsPayload(1, 1))
	err = NewSession(pipe, zz, choice).Run(context.Background(), transfer)

	require.True(t, fault.Is(err, fault.ErrProtocol), "got %v", err)
}

func TestDisjointCataloguesRejected(t *testing.T) {
	packet, err := CataloguePacket([]byte{FlagGiveOriginChain})
	require.NoError(t, err)

	responder := &stubPipe{initiation: packet}
	_, _, err = Negotiate(context.Background(), responder, []byte{FlagTakeOriginChain})
	require.True(t, fault.Is(err, fault.ErrCreation), "got %v", err)
	require.Empty(t, responder.sent)

	initiator := &stubPipe{resp: []byte{0x01, 0x00, 0xFF, 0xEE}}
	_, _, err = Negotiate(context.Background(), initiator, []byte{FlagBoundWitness})
	require.True(t, fault.Is(err, fault.ErrCreation), "got %v", err)
}

func TestSessionRunsOnce(t *testing.T) {
	zz := NewZigZag(object.NewXyoRegistry(), signing.NewRegistry(), newSigners(t, 1), heuristicsPayload(1, 1))
	s := NewSession(&stubPipe{initiation: []byte{0}}, zz, nil)

	require.Error(t, s.Run(context.Background(), nil))
	require.Error(t, s.Run(context.Background(), nil))
}

func TestSessionCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a, _ := newChanPair()
	a.out = make(chan []byte)

	zz := NewZigZag(object.NewXyoRegistry(), signing.NewRegistry(), newSigners(t, 1), heuristicsPayload(1, 1))
	err := NewSession(a, zz, []byte{FlagBoundWitness}).Run(ctx, nil)

	require.True(t, fault.Is(err, fault.ErrCreation), "got %v", err)
}
