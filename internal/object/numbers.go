package object

import (
	"encoding/binary"
	"fmt"
	"math"
)

// NewUint64 encodes v as an 8-byte big-endian leaf.
func NewUint64(s Schema, v uint64) Object {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return MustLeaf(s, b[:])
}

// Uint64 decodes an 8-byte big-endian leaf.
func (o Object) Uint64() (uint64, error) {
	v := o.value()
	if o.schema.Iterable() || len(v) != 8 {
		return 0, fmt.Errorf("%s is not an 8-byte integer", o.schema)
	}
	return binary.BigEndian.Uint64(v), nil
}

// NewInt8 encodes v as a one-byte signed leaf.
func NewInt8(s Schema, v int8) Object {
	return MustLeaf(s, []byte{byte(v)})
}

// Int8 decodes a one-byte signed leaf.
func (o Object) Int8() (int8, error) {
	v := o.value()
	if o.schema.Iterable() || len(v) != 1 {
		return 0, fmt.Errorf("%s is not a one-byte integer", o.schema)
	}
	return int8(v[0]), nil
}

// NewFloat64 encodes v as an IEEE-754 big-endian leaf.
func NewFloat64(s Schema, v float64) Object {
	return NewUint64(s, math.Float64bits(v))
}

// Float64 decodes an IEEE-754 big-endian leaf.
func (o Object) Float64() (float64, error) {
	bits, err := o.Uint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}
