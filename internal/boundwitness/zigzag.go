package boundwitness

import (
	"fmt"

	"XyoCore/internal/fault"
	"XyoCore/internal/object"
	"XyoCore/internal/signing"
)

// ZigZag drives one party's side of a bound witness. Each call to
// IncomingData folds the peer's transfer into the witness, adds this party
// when it has not been added yet, signs when the signing chain reached this
// party, and returns the transfer the peer still needs.
type ZigZag struct {
	witness  *BoundWitness
	objects  *object.Registry
	verifier *signing.Registry
	signers  []signing.Signer
	payload  Payload

	self      int  // self is this party's index, -1 until added
	sentSelf  bool // sentSelf is set once keys and payload went out
	sentSigns bool // sentSigns is set once this party's signatures went out
}

// NewZigZag creates the local side of a bound witness.
func NewZigZag(objects *object.Registry, verifier *signing.Registry, signers []signing.Signer, payload Payload) *ZigZag {
	return &ZigZag{
		witness:  New(),
		objects:  objects,
		verifier: verifier,
		signers:  signers,
		payload:  payload,
		self:     -1,
	}
}

// BoundWitness returns the witness under construction.
func (z *ZigZag) BoundWitness() *BoundWitness {
	return z.witness
}

// Completed reports whether the witness is complete.
func (z *ZigZag) Completed() bool {
	return z.witness.Completed()
}

// IncomingData handles one round. transfer may be nil when this party opens
// the exchange. endpoint is set on the party that closes the key chain: it
// signs as soon as it has added itself.
func (z *ZigZag) IncomingData(transfer []byte, endpoint bool) ([]byte, error) {
	incomingSigs := 0

	if len(transfer) > 0 {
		t, err := ParseTransfer(z.objects, transfer)
		if err != nil {
			return nil, err
		}

		if err := z.apply(t); err != nil {
			return nil, err
		}

		incomingSigs = len(t.SignatureSets)
	}

	if z.self < 0 {
		keys := make([]object.Object, len(z.signers))
		for i, s := range z.signers {
			keys[i] = s.PublicKey()
		}

		if err := z.witness.AddParty(keys, z.payload); err != nil {
			return nil, fmt.Errorf("add own party:\n%w", err)
		}

		z.self = z.witness.Parties() - 1
	}

	if !z.witness.Signed(z.self) && (endpoint || incomingSigs > 0) {
		slot, err := z.witness.Sign(z.signers)
		if err != nil {
			return nil, fmt.Errorf("sign bound witness:\n%w", err)
		}

		if slot != z.self {
			return nil, fault.Protocolf("signed slot %d, own party is %d", slot, z.self)
		}
	}

	if _, err := z.witness.Verify(z.verifier); err != nil {
		return nil, err
	}

	return z.outgoing(), nil
}

func (z *ZigZag) apply(t Transfer) error {
	if z.witness.Completed() {
		if t.Empty() {
			return nil
		}
		return fault.Protocolf("transfer for a completed bound witness")
	}

	for i := range t.KeySets {
		if err := z.witness.addParty(t.KeySets[i], t.Payloads[i]); err != nil {
			return fmt.Errorf("add peer party %d:\n%w", i, err)
		}
	}

	for i, set := range t.SignatureSets {
		slot, err := z.witness.AddSignatureSet(set)
		if err != nil {
			return fmt.Errorf("add peer signature set %d:\n%w", i, err)
		}

		if slot == z.self {
			return fault.Protocolf("peer signature set landed in own slot %d", slot)
		}
	}

	return nil
}

// outgoing builds what the peer lacks: this party's keys and payload the
// first time, and this party's signatures once signed.
func (z *ZigZag) outgoing() []byte {
	var t Transfer

	if !z.sentSelf {
		t.KeySets = append(t.KeySets, z.witness.keySets[z.self])
		t.Payloads = append(t.Payloads, z.witness.payloads[z.self])
		z.sentSelf = true
	}

	if z.witness.Signed(z.self) && !z.sentSigns {
		t.SignatureSets = append(t.SignatureSets, z.witness.signatures[z.self])
		z.sentSigns = true
	}

	if t.Empty() {
		return nil
	}

	return t.Bytes()
}
