package object

import (
	"fmt"

	"XyoCore/internal/fault"
)

// maxDepth bounds container nesting accepted from the wire.
const maxDepth = 32

// Decode parses exactly one object spanning all of b.
func Decode(reg *Registry, b []byte) (Object, error) {
	o, n, err := ReadObject(reg, b)
	if err != nil {
		return Object{}, err
	}

	if n != len(b) {
		return Object{}, fault.Protocolf("object %s: %d trailing bytes", o.schema, len(b)-n)
	}

	return o, nil
}

// ReadObject parses the object at the start of b and returns it with the
// number of bytes consumed.
func ReadObject(reg *Registry, b []byte) (Object, int, error) {
	return readObject(reg, b, 0)
}

// DecodeAs decodes b and checks that the result has schema want.
func DecodeAs(reg *Registry, want Schema, b []byte) (Object, error) {
	o, err := Decode(reg, b)
	if err != nil {
		return Object{}, err
	}

	if o.schema != want {
		return Object{}, fault.Protocolf("expected %s, got %s", reg.Name(want), reg.Name(o.schema))
	}

	return o, nil
}

func readObject(reg *Registry, b []byte, depth int) (Object, int, error) {
	if len(b) < HeaderSize {
		return Object{}, 0, truncated(Schema{}, HeaderSize, len(b))
	}

	s := SchemaFromHeader(b)

	value, n, err := readSized(s, b[HeaderSize:])
	if err != nil {
		return Object{}, 0, err
	}

	o, err := fromValue(reg, s, value, depth)
	if err != nil {
		return Object{}, 0, err
	}

	return o, HeaderSize + n, nil
}

// readSized reads a size prefix of s's width followed by the value it
// announces. It returns the value and the bytes consumed including the prefix.
func readSized(s Schema, b []byte) ([]byte, int, error) {
	width := s.SizeWidth()
	if len(b) < width {
		return nil, 0, truncated(s, uint64(width), len(b))
	}

	size := readSize(b, width)
	if size < uint64(width) {
		return nil, 0, fault.Protocolf("schema %s: size %d smaller than its %d-byte prefix", s, size, width)
	}

	if size > uint64(len(b)) {
		return nil, 0, truncated(s, size, len(b))
	}

	return b[width:size], int(size), nil
}

// fromValue builds the object for schema s from its value bytes, decoding
// container children recursively.
func fromValue(reg *Registry, s Schema, value []byte, depth int) (Object, error) {
	e, ok := reg.lookup(s)
	if !ok {
		return Object{}, unknownSchema(s)
	}

	if !s.Iterable() {
		if e.fixedSize >= 0 && len(value) != e.fixedSize {
			return Object{}, fault.Protocolf("%s: value is %d bytes, want %d", e.name, len(value), e.fixedSize)
		}
		return NewLeaf(s, value)
	}

	if depth >= maxDepth {
		return Object{}, fault.Protocolf("%s: nesting deeper than %d", e.name, maxDepth)
	}

	var items []Object

	if s.Typed() {
		for off := 0; off < len(value); {
			item, n, err := readObject(reg, value[off:], depth+1)
			if err != nil {
				return Object{}, fmt.Errorf("%s item %d:\n%w", e.name, len(items), err)
			}

			items = append(items, item)
			off += n
		}
	} else if len(value) > 0 {
		if len(value) < HeaderSize {
			return Object{}, truncated(s, HeaderSize, len(value))
		}
		if len(value) == HeaderSize {
			return Object{}, fault.Protocolf("%s: element header without items", e.name)
		}

		shared := SchemaFromHeader(value)

		for off := HeaderSize; off < len(value); {
			itemValue, n, err := readSized(shared, value[off:])
			if err != nil {
				return Object{}, fmt.Errorf("%s item %d:\n%w", e.name, len(items), err)
			}

			item, err := fromValue(reg, shared, itemValue, depth+1)
			if err != nil {
				return Object{}, fmt.Errorf("%s item %d:\n%w", e.name, len(items), err)
			}

			items = append(items, item)
			off += n
		}
	}

	return NewArray(s, items...)
}
