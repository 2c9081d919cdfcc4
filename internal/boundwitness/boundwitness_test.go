package boundwitness

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"XyoCore/internal/fault"
	"XyoCore/internal/hashing"
	"XyoCore/internal/object"
	"XyoCore/internal/signing"
)

// buildSigned creates a completed witness with one party per payload, each
// signed by its own signer. Parties sign from the last to the first.
func buildSigned(t *testing.T, signers []signing.Signer, payloads []Payload) *BoundWitness {
	t.Helper()

	b := New()
	for i, p := range payloads {
		require.NoError(t, b.AddParty([]object.Object{signers[i].PublicKey()}, p))
	}

	for i := len(payloads) - 1; i >= 0; i-- {
		slot, err := b.Sign(signers[i : i+1])
		require.NoError(t, err)
		require.Equal(t, i, slot)
	}

	ok, err := b.Verify(signing.NewRegistry())
	require.NoError(t, err)
	require.True(t, ok)

	return b
}

func TestSelfSignedWitness(t *testing.T) {
	zz := NewZigZag(object.NewXyoRegistry(), signing.NewRegistry(), newSigners(t, 1), heuristicsPayload(-10, 5))

	_, err := zz.IncomingData(nil, true)
	require.NoError(t, err)
	require.True(t, zz.Completed())
	require.Equal(t, 1, zz.BoundWitness().Parties())
}

func TestCompletedWitnessIsFrozen(t *testing.T) {
	signers := newSigners(t, 1)
	b := buildSigned(t, signers, []Payload{heuristicsPayload(1, 1)})

	err := b.AddParty([]object.Object{signers[0].PublicKey()}, Payload{})
	require.ErrorIs(t, err, ErrCompleted)

	_, err = b.AddSignatureSet(object.MustArray(object.SignatureSet))
	require.ErrorIs(t, err, ErrCompleted)
}

func TestTamperedSignatureRejected(t *testing.T) {
	objects := object.NewXyoRegistry()
	verifier := signing.NewRegistry()
	signers := newSigners(t, 2)

	b := buildSigned(t, signers, []Payload{heuristicsPayload(1, 1), heuristicsPayload(2, 2)})

	// Re-sign party 0 over a different message.
	forged, err := signers[0].Sign([]byte("something else"))
	require.NoError(t, err)

	tampered := New()
	for i := 0; i < 2; i++ {
		require.NoError(t, tampered.AddParty(b.KeySet(i), b.Payload(i)))
	}
	_, err = tampered.AddSignatureSet(object.MustArray(object.SignatureSet, b.SignatureSet(1)...))
	require.NoError(t, err)
	_, err = tampered.AddSignatureSet(object.MustArray(object.SignatureSet, forged))
	require.NoError(t, err)

	_, err = Parse(objects, verifier, tampered.Bytes())
	require.ErrorIs(t, err, signing.ErrInvalidSignature)
	require.True(t, fault.Is(err, fault.ErrCrypto))
}

func TestSignatureCountMismatch(t *testing.T) {
	signers := newSigners(t, 2)

	b := New()
	require.NoError(t, b.AddParty([]object.Object{signers[0].PublicKey(), signers[1].PublicKey()}, Payload{}))

	_, err := b.Sign(signers[:1])
	require.True(t, fault.Is(err, fault.ErrProtocol), "got %v", err)
}

func TestPartyWithoutKeysRejected(t *testing.T) {
	objects := object.NewXyoRegistry()
	index := object.NewUint64(object.Index, 42)

	forged := object.MustArray(object.BoundWitness,
		object.MustArray(object.KeySetList, object.MustArray(object.KeySet)),
		object.MustArray(object.PayloadList, Payload{Signed: []object.Object{index}}.Object()),
		object.MustArray(object.SignatureSetList, object.MustArray(object.SignatureSet)),
	)

	_, err := Parse(objects, signing.NewRegistry(), forged.Bytes())
	require.True(t, fault.Is(err, fault.ErrProtocol), "got %v", err)

	// The same party arriving in a transfer.
	tr := Transfer{
		KeySets:  []object.Object{object.MustArray(object.KeySet)},
		Payloads: []Payload{{Signed: []object.Object{index}}},
	}

	zz := NewZigZag(objects, signing.NewRegistry(), newSigners(t, 1), heuristicsPayload(1, 1))
	_, err = zz.IncomingData(tr.Bytes(), false)
	require.True(t, fault.Is(err, fault.ErrProtocol), "got %v", err)
	require.Zero(t, zz.BoundWitness().Parties())
}

func TestHashIgnoresUnsignedData(t *testing.T) {
	signers := newSigners(t, 1)

	p := heuristicsPayload(3, 3)
	p.Unsigned = append(p.Unsigned, object.MustArray(object.BridgeBlockSet))

	b := buildSigned(t, signers, []Payload{p})
	stripped := b.WithoutUnsigned(object.BridgeBlockSet)

	require.True(t, stripped.Completed())
	require.Len(t, stripped.Payload(0).Unsigned, 1)
	require.Len(t, b.Payload(0).Unsigned, 2)

	h1, err := b.Hash(hashing.SHA256())
	require.NoError(t, err)
	h2, err := stripped.Hash(hashing.SHA256())
	require.NoError(t, err)
	require.True(t, h1.Equal(h2))

	_, err = Parse(object.NewXyoRegistry(), signing.NewRegistry(), stripped.Bytes())
	require.NoError(t, err)
}

func TestIncompleteWitnessRoundTrip(t *testing.T) {
	signers := newSigners(t, 2)

	b := New()
	require.NoError(t, b.AddParty([]object.Object{signers[0].PublicKey()}, heuristicsPayload(1, 1)))
	require.NoError(t, b.AddParty([]object.Object{signers[1].PublicKey()}, heuristicsPayload(2, 2)))

	_, err := b.Sign(signers[1:])
	require.NoError(t, err)

	parsed, err := Parse(object.NewXyoRegistry(), signing.NewRegistry(), b.Bytes())
	require.NoError(t, err)
	require.False(t, parsed.Completed())
	require.False(t, parsed.Signed(0))
	require.True(t, parsed.Signed(1))
	require.Equal(t, b.Bytes(), parsed.Bytes())
}

func TestTransferRoundTrip(t *testing.T) {
	signers := newSigners(t, 2)
	keys := object.MustArray(object.KeySet, signers[0].PublicKey(), signers[1].PublicKey())
	sig, err := signers[0].Sign([]byte{0x00})
	require.NoError(t, err)

	tr := Transfer{
		KeySets:       []object.Object{keys},
		Payloads:      []Payload{heuristicsPayload(-34, 7)},
		SignatureSets: []object.Object{object.MustArray(object.SignatureSet, sig)},
	}

	parsed, err := ParseTransfer(object.NewXyoRegistry(), tr.Bytes())
	require.NoError(t, err)
	require.Equal(t, tr.Bytes(), parsed.Bytes())
	require.Len(t, parsed.KeySets, 1)
	require.Len(t, parsed.SignatureSets, 1)
}

func TestBoundWitnessRoundTripProperty(t *testing.T) {
	objects := object.NewXyoRegistry()
	verifier := signing.NewRegistry()
	signers := newSigners(t, 3)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	properties := gopter.NewProperties(parameters)

	properties.Property("parse(bytes(bw)) keeps parties, payloads and signatures", prop.ForAll(
		func(rssi []int8, times []uint64) bool {
			parties := min(len(rssi), len(times), len(signers))
			if parties == 0 {
				return true
			}

			payloads := make([]Payload, parties)
			for i := range payloads {
				payloads[i] = heuristicsPayload(rssi[i], times[i])
			}

			b := buildSigned(t, signers, payloads)

			parsed, err := Parse(objects, verifier, b.Bytes())
			if err != nil || !parsed.Completed() || parsed.Parties() != parties {
				return false
			}

			for i := 0; i < parties; i++ {
				if !parsed.Payload(i).Object().Equal(payloads[i].Object()) {
					return false
				}
				if !parsed.KeySet(i)[0].Equal(signers[i].PublicKey()) {
					return false
				}
				if len(parsed.SignatureSet(i)) != 1 {
					return false
				}
			}

			return string(parsed.Bytes()) == string(b.Bytes())
		},
		gen.SliceOfN(3, gen.Int8()),
		gen.SliceOf(gen.UInt64()),
	))

	properties.TestingRun(t)
}
