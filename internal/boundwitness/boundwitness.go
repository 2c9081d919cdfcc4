// Package boundwitness builds bound witnesses: joint attestations in which
// every party contributes a key set and a payload and signs the signed
// payloads of all parties.
package boundwitness

import (
	"bytes"
	"errors"
	"fmt"

	"XyoCore/internal/fault"
	"XyoCore/internal/hashing"
	"XyoCore/internal/object"
	"XyoCore/internal/signing"
)

// ErrCompleted is returned when a completed witness is modified.
var ErrCompleted = errors.New("bound witness already completed")

// BoundWitness holds one key set, payload and signature set per party, in
// party order. It is mutable while under construction and frozen once
// completed.
type BoundWitness struct {
	keySets    []object.Object // keySets holds a KEY_SET per party
	payloads   []Payload       // payloads holds each party's payload
	signatures []object.Object // signatures holds a SIGNATURE_SET per party, zero until signed
	completed  bool            // completed is set once every signature verified
}

// New creates an empty bound witness.
func New() *BoundWitness {
	return &BoundWitness{}
}

// Parties returns the number of parties added so far.
func (b *BoundWitness) Parties() int {
	return len(b.keySets)
}

// Completed reports whether every party signed and every signature verified.
func (b *BoundWitness) Completed() bool {
	return b.completed
}

// KeySet returns the public keys of party i.
func (b *BoundWitness) KeySet(i int) []object.Object {
	return b.keySets[i].Items()
}

// Payload returns the payload of party i.
func (b *BoundWitness) Payload(i int) Payload {
	return b.payloads[i]
}

// Payloads returns every party's payload.
func (b *BoundWitness) Payloads() []Payload {
	return append([]Payload(nil), b.payloads...)
}

// SignatureSet returns the signatures of party i, nil when unsigned.
func (b *BoundWitness) SignatureSet(i int) []object.Object {
	if b.signatures[i].IsZero() {
		return nil
	}
	return b.signatures[i].Items()
}

// Signed reports whether party i has a signature set.
func (b *BoundWitness) Signed(i int) bool {
	return !b.signatures[i].IsZero()
}

// AddParty appends a party with the given public keys and payload.
func (b *BoundWitness) AddParty(keys []object.Object, payload Payload) error {
	if b.completed {
		return ErrCompleted
	}

	if len(keys) == 0 {
		return fault.Creationf("party has no public keys")
	}

	return b.addParty(object.MustArray(object.KeySet, keys...), payload)
}

func (b *BoundWitness) addParty(keySet object.Object, payload Payload) error {
	if keySet.Schema() != object.KeySet {
		return fault.Protocolf("expected key set, got %s", keySet.Schema())
	}

	if keySet.Len() == 0 {
		return fault.Protocolf("party %d has no public keys", len(b.keySets))
	}

	b.keySets = append(b.keySets, keySet)
	b.payloads = append(b.payloads, payload)
	b.signatures = append(b.signatures, object.Object{})

	return nil
}

// lastUnsigned returns the highest party index without a signature set.
func (b *BoundWitness) lastUnsigned() int {
	for i := len(b.signatures) - 1; i >= 0; i-- {
		if b.signatures[i].IsZero() {
			return i
		}
	}
	return -1
}

// AddSignatureSet fills the last unsigned party slot. Parties sign from the
// last party towards the first.
func (b *BoundWitness) AddSignatureSet(set object.Object) (int, error) {
	if b.completed {
		return -1, ErrCompleted
	}

	if set.Schema() != object.SignatureSet {
		return -1, fault.Protocolf("expected signature set, got %s", set.Schema())
	}

	slot := b.lastUnsigned()
	if slot < 0 {
		return -1, fault.Protocolf("signature set for a witness with no unsigned party")
	}

	if set.Len() != b.keySets[slot].Len() {
		return -1, fault.Protocolf("party %d: %d signatures for %d keys", slot, set.Len(), b.keySets[slot].Len())
	}

	b.signatures[slot] = set

	return slot, nil
}

// SigningMessage returns the bytes every party signs: the encoded signed
// payload of each party, in party order.
func (b *BoundWitness) SigningMessage() []byte {
	var buf bytes.Buffer
	for _, p := range b.payloads {
		buf.Write(p.SignedObject().Bytes())
	}
	return buf.Bytes()
}

// Sign signs the signing message with every signer and fills the last
// unsigned slot. The signers must match that party's key set.
func (b *BoundWitness) Sign(signers []signing.Signer) (int, error) {
	message := b.SigningMessage()
	sigs := make([]object.Object, len(signers))

	for i, s := range signers {
		sig, err := s.Sign(message)
		if err != nil {
			return -1, fmt.Errorf("sign with key %d:\n%w", i, err)
		}
		sigs[i] = sig
	}

	return b.AddSignatureSet(object.MustArray(object.SignatureSet, sigs...))
}

// Verify checks every signature against its party's keys. It marks the
// witness completed when all parties signed and everything verified.
func (b *BoundWitness) Verify(reg *signing.Registry) (bool, error) {
	if b.completed {
		return true, nil
	}

	if len(b.keySets) == 0 || b.lastUnsigned() >= 0 {
		return false, nil
	}

	message := b.SigningMessage()

	for i := range b.keySets {
		keys, sigs := b.keySets[i], b.signatures[i]

		if keys.Len() == 0 {
			return false, fault.Protocolf("party %d has no public keys", i)
		}

		if keys.Len() != sigs.Len() {
			return false, fault.Protocolf("party %d: %d signatures for %d keys", i, sigs.Len(), keys.Len())
		}

		for j := 0; j < keys.Len(); j++ {
			if err := reg.Check(sigs.Item(j), message, keys.Item(j)); err != nil {
				return false, fmt.Errorf("party %d key %d:\n%w", i, j, err)
			}
		}
	}

	b.completed = true

	return true, nil
}

// Object returns the canonical BW container
// [KEY_SET_LIST, PAYLOAD_LIST, SIGNATURE_SET_LIST]. Only signed parties
// contribute to the signature list; they always form a suffix of the parties.
func (b *BoundWitness) Object() object.Object {
	payloads := make([]object.Object, len(b.payloads))
	for i, p := range b.payloads {
		payloads[i] = p.Object()
	}

	var sigs []object.Object
	for _, s := range b.signatures {
		if !s.IsZero() {
			sigs = append(sigs, s)
		}
	}

	return object.MustArray(object.BoundWitness,
		object.MustArray(object.KeySetList, b.keySets...),
		object.MustArray(object.PayloadList, payloads...),
		object.MustArray(object.SignatureSetList, sigs...),
	)
}

// Bytes returns the canonical encoding.
func (b *BoundWitness) Bytes() []byte {
	return b.Object().Bytes()
}

// hashData covers every key set and every signed payload. Unsigned payloads
// and signatures are excluded so a block keeps its hash when bridged data is
// stripped before storage.
func (b *BoundWitness) hashData() []byte {
	var buf bytes.Buffer
	buf.Write(object.MustArray(object.KeySetList, b.keySets...).Bytes())
	buf.Write(b.SigningMessage())
	return buf.Bytes()
}

// Hash hashes the witness with provider.
func (b *BoundWitness) Hash(provider hashing.Provider) (hashing.Hash, error) {
	return provider.CreateHash(b.hashData())
}

// WithoutUnsigned returns a copy with every unsigned item of schema s
// removed from every party. Completion is kept since signatures do not cover
// unsigned data.
func (b *BoundWitness) WithoutUnsigned(s object.Schema) *BoundWitness {
	out := &BoundWitness{
		keySets:    append([]object.Object(nil), b.keySets...),
		payloads:   make([]Payload, len(b.payloads)),
		signatures: append([]object.Object(nil), b.signatures...),
		completed:  b.completed,
	}

	for i, p := range b.payloads {
		out.payloads[i] = p.WithoutUnsigned(s)
	}

	return out
}

// FromObject rebuilds a witness from a decoded BW object and verifies it
// when every party signed.
func FromObject(o object.Object, reg *signing.Registry) (*BoundWitness, error) {
	if o.Schema() != object.BoundWitness || o.Len() != 3 {
		return nil, fault.Protocolf("bound witness: unexpected %s with %d items", o.Schema(), o.Len())
	}

	keys, payloads, sigs := o.Item(0), o.Item(1), o.Item(2)
	if keys.Schema() != object.KeySetList || payloads.Schema() != object.PayloadList || sigs.Schema() != object.SignatureSetList {
		return nil, fault.Protocolf("bound witness: malformed lists")
	}

	if keys.Len() != payloads.Len() || sigs.Len() > keys.Len() {
		return nil, fault.Protocolf("bound witness: %d key sets, %d payloads, %d signature sets", keys.Len(), payloads.Len(), sigs.Len())
	}

	b := New()

	for i := 0; i < keys.Len(); i++ {
		p, err := PayloadFromObject(payloads.Item(i))
		if err != nil {
			return nil, fmt.Errorf("party %d:\n%w", i, err)
		}

		if err := b.addParty(keys.Item(i), p); err != nil {
			return nil, fmt.Errorf("party %d:\n%w", i, err)
		}
	}

	// Stored signature sets are in party order; fill from the last one back.
	for i := sigs.Len() - 1; i >= 0; i-- {
		if _, err := b.AddSignatureSet(sigs.Item(i)); err != nil {
			return nil, fmt.Errorf("signature set %d:\n%w", i, err)
		}
	}

	if sigs.Len() == keys.Len() && keys.Len() > 0 {
		ok, err := b.Verify(reg)
		if err != nil {
			return nil, fmt.Errorf("verify bound witness:\n%w", err)
		}
		if !ok {
			return nil, fault.Crypto(signing.ErrInvalidSignature)
		}
	}

	return b, nil
}

// Parse decodes and rebuilds a witness from its canonical encoding.
func Parse(reg *object.Registry, sreg *signing.Registry, data []byte) (*BoundWitness, error) {
	o, err := object.DecodeAs(reg, object.BoundWitness, data)
	if err != nil {
		return nil, fmt.Errorf("decode bound witness:\n%w", err)
	}

	return FromObject(o, sreg)
}
