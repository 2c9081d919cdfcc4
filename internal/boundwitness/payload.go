package boundwitness

import (
	"fmt"

	"XyoCore/internal/fault"
	"XyoCore/internal/object"
)

// Payload is one party's contribution to a bound witness.
type Payload struct {
	Signed   []object.Object // Signed is covered by every party's signature
	Unsigned []object.Object // Unsigned travels with the block but is not signed
}

// SignedObject returns the SIGNED_PAYLOAD typed array.
func (p Payload) SignedObject() object.Object {
	return object.MustArray(object.SignedPayload, p.Signed...)
}

// UnsignedObject returns the UNSIGNED_PAYLOAD typed array.
func (p Payload) UnsignedObject() object.Object {
	return object.MustArray(object.UnsignedPayload, p.Unsigned...)
}

// Object returns the PAYLOAD container [SIGNED_PAYLOAD, UNSIGNED_PAYLOAD].
func (p Payload) Object() object.Object {
	return object.MustArray(object.Payload, p.SignedObject(), p.UnsignedObject())
}

// FindSigned returns the first signed item with schema s.
func (p Payload) FindSigned(s object.Schema) (object.Object, bool) {
	return find(p.Signed, s)
}

// FindUnsigned returns the first unsigned item with schema s.
func (p Payload) FindUnsigned(s object.Schema) (object.Object, bool) {
	return find(p.Unsigned, s)
}

// WithoutUnsigned returns a copy of p with every unsigned item of schema s removed.
func (p Payload) WithoutUnsigned(s object.Schema) Payload {
	out := Payload{Signed: append([]object.Object(nil), p.Signed...)}

	for _, item := range p.Unsigned {
		if item.Schema() != s {
			out.Unsigned = append(out.Unsigned, item)
		}
	}

	return out
}

// PayloadFromObject rebuilds a payload from a decoded PAYLOAD object.
func PayloadFromObject(o object.Object) (Payload, error) {
	if o.Schema() != object.Payload || o.Len() != 2 {
		return Payload{}, fault.Protocolf("payload: unexpected %s with %d items", o.Schema(), o.Len())
	}

	signed, unsigned := o.Item(0), o.Item(1)
	if signed.Schema() != object.SignedPayload || unsigned.Schema() != object.UnsignedPayload {
		return Payload{}, fault.Protocol(fmt.Errorf("payload: got %s and %s", signed.Schema(), unsigned.Schema()))
	}

	return Payload{Signed: signed.Items(), Unsigned: unsigned.Items()}, nil
}

func find(items []object.Object, s object.Schema) (object.Object, bool) {
	for _, item := range items {
		if item.Schema() == s {
			return item, true
		}
	}
	return object.Object{}, false
}
