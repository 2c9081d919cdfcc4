package object

import "fmt"

// Encoding byte layout.
const (
	sizeMask     = 0xC0 // sizeMask selects the size-prefix width bits
	flagIterable = 0x20 // flagIterable marks containers
	flagTyped    = 0x10 // flagTyped marks containers whose elements carry their own header
)

// Size-prefix widths as encoded in the top two bits of the encoding byte.
const (
	Width1 byte = 0x00
	Width2 byte = 0x40
	Width4 byte = 0x80
	Width8 byte = 0xC0
)

// HeaderSize is the size of the schema header in bytes.
const HeaderSize = 2

// Schema is the two-byte header that starts every encoded object.
// Encoding carries the size width and container flags, ID names the type.
type Schema struct {
	Encoding byte
	ID       byte
}

// SchemaFromHeader reads a schema from the first two bytes of b.
func SchemaFromHeader(b []byte) Schema {
	return Schema{Encoding: b[0], ID: b[1]}
}

// SizeWidth returns the number of bytes used by the size prefix.
func (s Schema) SizeWidth() int {
	switch s.Encoding & sizeMask {
	case Width1:
		return 1
	case Width2:
		return 2
	case Width4:
		return 4
	default:
		return 8
	}
}

// Iterable reports whether the object is a container.
func (s Schema) Iterable() bool {
	return s.Encoding&flagIterable != 0
}

// Typed reports whether each element of a container carries its own header.
// Untyped containers share one element header written once.
func (s Schema) Typed() bool {
	return s.Encoding&flagTyped != 0
}

// Header returns the encoded two-byte header.
func (s Schema) Header() [HeaderSize]byte {
	return [HeaderSize]byte{s.Encoding, s.ID}
}

// String returns the header as four hex digits.
func (s Schema) String() string {
	return fmt.Sprintf("%02x%02x", s.Encoding, s.ID)
}
