package object

import (
	"bytes"
	"errors"
	"testing"

	"XyoCore/internal/fault"
)

func TestLeafEncoding(t *testing.T) {
	o := MustLeaf(Sha256, bytes.Repeat([]byte{0xAB}, 32))

	got := o.Bytes()
	if !bytes.Equal(got[:6], []byte{0x80, 0x10, 0x00, 0x00, 0x00, 0x24}) {
		t.Fatalf("header/size = %x, want 8010 00000024", got[:6])
	}

	if o.Size() != 2+4+32 {
		t.Errorf("Size() = %d, want 38", o.Size())
	}

	if o.Kind() != KindLeaf {
		t.Errorf("Kind() = %v, want leaf", o.Kind())
	}
}

func TestOneByteWidth(t *testing.T) {
	o := NewInt8(Rssi, -34)

	want := []byte{0x00, 0x13, 0x02, 0xDE}
	if !bytes.Equal(o.Bytes(), want) {
		t.Fatalf("Bytes() = %x, want %x", o.Bytes(), want)
	}

	v, err := o.Int8()
	if err != nil || v != -34 {
		t.Errorf("Int8() = %d, %v", v, err)
	}
}

func TestWidthOverflow(t *testing.T) {
	s := Schema{Width1, 0x13}
	if _, err := NewLeaf(s, make([]byte, 255)); err == nil {
		t.Error("expected overflow for 255 value bytes behind a 1-byte size")
	}

	if _, err := NewLeaf(s, make([]byte, 254)); err != nil {
		t.Errorf("254 bytes should fit: %v", err)
	}
}

func TestTypedArrayRoundTrip(t *testing.T) {
	reg := NewXyoRegistry()

	arr := MustArray(SignedPayload,
		NewInt8(Rssi, -10),
		NewUint64(UnixTime, 1700000000000),
		MustArray(Gps, NewFloat64(Latitude, 52.5), NewFloat64(Longitude, 13.4)),
	)

	decoded, err := Decode(reg, arr.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if !decoded.Equal(arr) {
		t.Fatal("round trip changed encoding")
	}

	if decoded.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", decoded.Len())
	}

	gps, ok := decoded.Find(Gps)
	if !ok {
		t.Fatal("gps not found")
	}

	lat, err := gps.Item(0).Float64()
	if err != nil || lat != 52.5 {
		t.Errorf("lat = %v, %v", lat, err)
	}
}

func TestUntypedArrayWritesHeaderOnce(t *testing.T) {
	a := NewUint64(UnixTime, 1)
	b := NewUint64(UnixTime, 2)
	arr := MustArray(ArrayUntyped, a, b)

	value := arr.Value()
	// shared header + two (4-byte size + 8-byte value) elements
	if len(value) != 2+2*12 {
		t.Fatalf("value length = %d, want 26", len(value))
	}

	if value[0] != UnixTime.Encoding || value[1] != UnixTime.ID {
		t.Errorf("shared header = %x, want %s", value[:2], UnixTime)
	}

	decoded, err := Decode(NewXyoRegistry(), arr.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if decoded.Kind() != KindUntypedArray || decoded.Len() != 2 {
		t.Fatalf("decoded %v with %d items", decoded.Kind(), decoded.Len())
	}

	v, _ := decoded.Item(1).Uint64()
	if v != 2 {
		t.Errorf("item 1 = %d, want 2", v)
	}
}

func TestUntypedArrayHeaderWithoutItems(t *testing.T) {
	// Untyped array whose value is only a UNIX_TIME element header.
	data := []byte{0xA0, 0x01, 0x00, 0x00, 0x00, 0x06, 0x80, 0x14}

	_, err := Decode(NewXyoRegistry(), data)
	if !fault.Is(err, fault.ErrProtocol) {
		t.Fatalf("error = %v, want protocol error", err)
	}
}

func TestUntypedArrayRejectsMixedItems(t *testing.T) {
	_, err := NewArray(ArrayUntyped, NewUint64(UnixTime, 1), NewInt8(Rssi, 1))
	if err == nil {
		t.Fatal("expected error for heterogeneous untyped array")
	}
}

func TestNestedUntypedOfTyped(t *testing.T) {
	inner1 := MustArray(Payload, MustArray(SignedPayload), MustArray(UnsignedPayload))
	inner2 := MustArray(Payload, MustArray(SignedPayload, NewInt8(Rssi, 3)), MustArray(UnsignedPayload))
	outer := MustArray(ArrayUntyped, inner1, inner2)

	decoded, err := Decode(NewXyoRegistry(), outer.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if !decoded.Item(1).Equal(inner2) {
		t.Error("nested item changed")
	}
}

func TestEmptyArrays(t *testing.T) {
	reg := NewXyoRegistry()

	for _, s := range []Schema{ArrayTyped, ArrayUntyped} {
		arr := MustArray(s)

		decoded, err := Decode(reg, arr.Bytes())
		if err != nil {
			t.Fatalf("Decode empty %s: %v", s, err)
		}

		if decoded.Len() != 0 {
			t.Errorf("empty %s decoded with %d items", s, decoded.Len())
		}
	}
}

func TestUnknownSchema(t *testing.T) {
	data := []byte{0x80, 0x7E, 0x00, 0x00, 0x00, 0x05, 0x01}

	_, err := Decode(NewXyoRegistry(), data)

	var unknown *UnknownSchemaError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want UnknownSchemaError", err)
	}

	if unknown.Schema != (Schema{0x80, 0x7E}) {
		t.Errorf("schema = %s", unknown.Schema)
	}

	if !fault.Is(err, fault.ErrProtocol) {
		t.Error("unknown schema not classified as protocol error")
	}
}

func TestUnknownSchemaInsideArray(t *testing.T) {
	reg := NewRegistry()
	reg.Register(ArrayTyped, "ARRAY_TYPED")

	arr := MustArray(ArrayTyped, NewUint64(UnixTime, 1))

	_, err := Decode(reg, arr.Bytes())

	var unknown *UnknownSchemaError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want UnknownSchemaError", err)
	}
}

func TestTruncatedData(t *testing.T) {
	full := NewUint64(UnixTime, 42).Bytes()

	tests := map[string][]byte{
		"header only":  full[:1],
		"partial size": full[:4],
		"short value":  full[:len(full)-1],
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(NewXyoRegistry(), data)

			var trunc *TruncatedDataError
			if !errors.As(err, &trunc) {
				t.Fatalf("error = %v, want TruncatedDataError", err)
			}
		})
	}
}

func TestSizeSmallerThanPrefix(t *testing.T) {
	data := []byte{0x80, 0x14, 0x00, 0x00, 0x00, 0x02}

	if _, err := Decode(NewXyoRegistry(), data); !fault.Is(err, fault.ErrProtocol) {
		t.Fatalf("error = %v, want protocol error", err)
	}
}

func TestFixedSizeValidated(t *testing.T) {
	bad := MustLeaf(Sha256, make([]byte, 31))

	if _, err := Decode(NewXyoRegistry(), bad.Bytes()); err == nil {
		t.Fatal("expected error for 31-byte sha256 digest")
	}
}

func TestTrailingBytes(t *testing.T) {
	data := append(NewUint64(Index, 1).Bytes(), 0x00)

	if _, err := Decode(NewXyoRegistry(), data); err == nil {
		t.Fatal("expected error for trailing bytes")
	}

	o, n, err := ReadObject(NewXyoRegistry(), data)
	if err != nil {
		t.Fatalf("ReadObject: %v", err)
	}

	if n != o.Size() {
		t.Errorf("consumed %d, want %d", n, o.Size())
	}
}

func TestDecodeAs(t *testing.T) {
	reg := NewXyoRegistry()
	data := NewUint64(Index, 7).Bytes()

	if _, err := DecodeAs(reg, Index, data); err != nil {
		t.Fatalf("DecodeAs: %v", err)
	}

	if _, err := DecodeAs(reg, UnixTime, data); err == nil {
		t.Fatal("expected schema mismatch error")
	}
}

func TestNestingLimit(t *testing.T) {
	o := MustArray(ArrayTyped)
	for i := 0; i < maxDepth+1; i++ {
		o = MustArray(ArrayTyped, o)
	}

	if _, err := Decode(NewXyoRegistry(), o.Bytes()); err == nil {
		t.Fatal("expected nesting error")
	}
}

func TestSchemaFlags(t *testing.T) {
	tests := []struct {
		s        Schema
		width    int
		iterable bool
		typed    bool
	}{
		{Rssi, 1, false, false},
		{Schema{Width2, 1}, 2, false, false},
		{Sha256, 4, false, false},
		{Schema{Width8, 1}, 8, false, false},
		{ArrayUntyped, 4, true, false},
		{ArrayTyped, 4, true, true},
	}

	for _, tt := range tests {
		if tt.s.SizeWidth() != tt.width || tt.s.Iterable() != tt.iterable || tt.s.Typed() != tt.typed {
			t.Errorf("%s: width=%d iterable=%v typed=%v", tt.s, tt.s.SizeWidth(), tt.s.Iterable(), tt.s.Typed())
		}
	}
}
