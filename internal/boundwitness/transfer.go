package boundwitness

import (
	"fmt"

	"XyoCore/internal/fault"
	"XyoCore/internal/object"
)

// Transfer is the data one side sends the other during a round: the parties
// the peer lacks and the signature sets the peer lacks. Signature sets are
// kept in signing order (last party first).
type Transfer struct {
	KeySets       []object.Object // KeySets holds KEY_SET objects in party order
	Payloads      []Payload       // Payloads holds one payload per key set
	SignatureSets []object.Object // SignatureSets holds SIGNATURE_SET objects in signing order
}

// Empty reports whether the transfer carries nothing.
func (t Transfer) Empty() bool {
	return len(t.KeySets) == 0 && len(t.SignatureSets) == 0
}

// Object returns the TRANSFER container [KEY_SET_LIST, PAYLOAD_LIST, SIGNATURE_SET_LIST].
func (t Transfer) Object() object.Object {
	payloads := make([]object.Object, len(t.Payloads))
	for i, p := range t.Payloads {
		payloads[i] = p.Object()
	}

	return object.MustArray(object.Transfer,
		object.MustArray(object.KeySetList, t.KeySets...),
		object.MustArray(object.PayloadList, payloads...),
		object.MustArray(object.SignatureSetList, t.SignatureSets...),
	)
}

// Bytes returns the encoded transfer.
func (t Transfer) Bytes() []byte {
	return t.Object().Bytes()
}

// ParseTransfer decodes a transfer.
func ParseTransfer(reg *object.Registry, data []byte) (Transfer, error) {
	o, err := object.DecodeAs(reg, object.Transfer, data)
	if err != nil {
		return Transfer{}, fmt.Errorf("decode transfer:\n%w", err)
	}

	if o.Len() != 3 {
		return Transfer{}, fault.Protocolf("transfer: %d items, want 3", o.Len())
	}

	keys, payloads, sigs := o.Item(0), o.Item(1), o.Item(2)
	if keys.Schema() != object.KeySetList || payloads.Schema() != object.PayloadList || sigs.Schema() != object.SignatureSetList {
		return Transfer{}, fault.Protocolf("transfer: malformed lists")
	}

	if keys.Len() != payloads.Len() {
		return Transfer{}, fault.Protocolf("transfer: %d key sets for %d payloads", keys.Len(), payloads.Len())
	}

	t := Transfer{KeySets: keys.Items(), SignatureSets: sigs.Items()}

	for i, item := range payloads.Items() {
		p, err := PayloadFromObject(item)
		if err != nil {
			return Transfer{}, fmt.Errorf("transfer payload %d:\n%w", i, err)
		}
		t.Payloads = append(t.Payloads, p)
	}

	return t, nil
}
