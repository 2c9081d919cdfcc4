// Package object implements the self-describing binary object model.
//
// Every object is encoded as
//
//	[encoding][id][size][value]
//
// where size is a big-endian integer whose width (1, 2, 4 or 8 bytes) is
// chosen by the encoding byte and which counts its own width plus the value.
// Containers either repeat a full header per element (typed) or write the
// shared element header once at the start of the value (untyped).
package object

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Kind distinguishes the three object shapes.
type Kind uint8

const (
	KindLeaf Kind = iota
	KindTypedArray
	KindUntypedArray
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindTypedArray:
		return "typed-array"
	case KindUntypedArray:
		return "untyped-array"
	}
	return "invalid"
}

// Object is an immutable encoded object. The zero value is invalid.
type Object struct {
	schema  Schema
	items   []Object // items holds decoded children of containers
	encoded []byte   // encoded is the full canonical encoding
}

// NewLeaf builds a leaf object from raw value bytes.
func NewLeaf(s Schema, value []byte) (Object, error) {
	if s.Iterable() {
		return Object{}, fmt.Errorf("schema %s is iterable, not a leaf", s)
	}

	encoded, err := encode(s, value)
	if err != nil {
		return Object{}, err
	}

	return Object{schema: s, encoded: encoded}, nil
}

// NewArray builds a container. Untyped containers require every item to
// share one schema.
func NewArray(s Schema, items ...Object) (Object, error) {
	if !s.Iterable() {
		return Object{}, fmt.Errorf("schema %s is not iterable", s)
	}

	var value bytes.Buffer

	if s.Typed() {
		for _, item := range items {
			value.Write(item.encoded)
		}
	} else if len(items) > 0 {
		shared := items[0].schema
		header := shared.Header()
		value.Write(header[:])

		for i, item := range items {
			if item.schema != shared {
				return Object{}, fmt.Errorf("untyped %s: item %d is %s, want %s", s, i, item.schema, shared)
			}
			value.Write(item.encoded[HeaderSize:])
		}
	}

	encoded, err := encode(s, value.Bytes())
	if err != nil {
		return Object{}, err
	}

	kept := make([]Object, len(items))
	copy(kept, items)

	return Object{schema: s, items: kept, encoded: encoded}, nil
}

// MustLeaf is NewLeaf for values known to fit, such as fixed-size digests.
func MustLeaf(s Schema, value []byte) Object {
	o, err := NewLeaf(s, value)
	if err != nil {
		panic(err)
	}
	return o
}

// MustArray is NewArray for items known to be valid.
func MustArray(s Schema, items ...Object) Object {
	o, err := NewArray(s, items...)
	if err != nil {
		panic(err)
	}
	return o
}

// IsZero reports whether o is the zero Object.
func (o Object) IsZero() bool {
	return o.encoded == nil
}

// Schema returns the object's header.
func (o Object) Schema() Schema {
	return o.schema
}

// Kind returns the object's shape.
func (o Object) Kind() Kind {
	switch {
	case !o.schema.Iterable():
		return KindLeaf
	case o.schema.Typed():
		return KindTypedArray
	default:
		return KindUntypedArray
	}
}

// Value returns a copy of the value bytes (everything after the size prefix).
func (o Object) Value() []byte {
	return bytes.Clone(o.value())
}

// Bytes returns a copy of the full encoding.
func (o Object) Bytes() []byte {
	return bytes.Clone(o.encoded)
}

// Size returns the length of the full encoding.
func (o Object) Size() int {
	return len(o.encoded)
}

// Len returns the number of container items, zero for leaves.
func (o Object) Len() int {
	return len(o.items)
}

// Item returns the i-th container item.
func (o Object) Item(i int) Object {
	return o.items[i]
}

// Items returns a copy of the container items.
func (o Object) Items() []Object {
	items := make([]Object, len(o.items))
	copy(items, o.items)
	return items
}

// Find returns the first item with schema s.
func (o Object) Find(s Schema) (Object, bool) {
	for _, item := range o.items {
		if item.schema == s {
			return item, true
		}
	}
	return Object{}, false
}

// Equal reports whether both objects have identical encodings.
func (o Object) Equal(other Object) bool {
	return bytes.Equal(o.encoded, other.encoded)
}

func (o Object) value() []byte {
	if o.encoded == nil {
		return nil
	}
	return o.encoded[HeaderSize+o.schema.SizeWidth():]
}

// encode writes header, size prefix and value.
func encode(s Schema, value []byte) ([]byte, error) {
	width := s.SizeWidth()
	size := uint64(width) + uint64(len(value))

	if size > maxSize(width) {
		return nil, fmt.Errorf("schema %s: %d value bytes exceed %d-byte size prefix", s, len(value), width)
	}

	out := make([]byte, HeaderSize+width, HeaderSize+width+len(value))
	out[0], out[1] = s.Encoding, s.ID
	putSize(out[HeaderSize:], width, size)

	return append(out, value...), nil
}

func maxSize(width int) uint64 {
	switch width {
	case 1:
		return math.MaxUint8
	case 2:
		return math.MaxUint16
	case 4:
		return math.MaxUint32
	}
	return math.MaxUint64
}

func putSize(b []byte, width int, size uint64) {
	switch width {
	case 1:
		b[0] = byte(size)
	case 2:
		binary.BigEndian.PutUint16(b, uint16(size))
	case 4:
		binary.BigEndian.PutUint32(b, uint32(size))
	default:
		binary.BigEndian.PutUint64(b, size)
	}
}

func readSize(b []byte, width int) uint64 {
	switch width {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.BigEndian.Uint16(b))
	case 4:
		return uint64(binary.BigEndian.Uint32(b))
	}
	return binary.BigEndian.Uint64(b)
}
