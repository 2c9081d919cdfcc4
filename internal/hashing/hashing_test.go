package hashing

import (
	"encoding/hex"
	"testing"

	"XyoCore/internal/object"
)

func TestKnownDigests(t *testing.T) {
	tests := []struct {
		p    Provider
		want string
	}{
		{SHA256(), "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{SHA1(), "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{SHA3(), "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532"},
	}

	for _, tt := range tests {
		h, err := tt.p.CreateHash([]byte("abc"))
		if err != nil {
			t.Fatalf("%s: %v", tt.p.Schema(), err)
		}

		if got := hex.EncodeToString(h.Digest); got != tt.want {
			t.Errorf("%s digest = %s, want %s", tt.p.Schema(), got, tt.want)
		}

		if h.Schema != tt.p.Schema() {
			t.Errorf("hash schema = %s, want %s", h.Schema, tt.p.Schema())
		}
	}
}

func TestDigestSizes(t *testing.T) {
	for _, p := range []Provider{SHA256(), SHA1(), SHA384(), SHA3(), Blake3()} {
		h, err := p.CreateHash([]byte{0x00})
		if err != nil {
			t.Fatalf("%s: %v", p.Schema(), err)
		}

		if len(h.Digest) != p.Size() {
			t.Errorf("%s: digest %d bytes, Size() %d", p.Schema(), len(h.Digest), p.Size())
		}
	}
}

func TestHashObjectRoundTrip(t *testing.T) {
	reg := NewRegistry()
	objects := object.NewXyoRegistry()

	for _, p := range []Provider{SHA256(), SHA1(), SHA384(), SHA3(), Blake3()} {
		h, _ := p.CreateHash([]byte("block"))

		decoded, err := object.Decode(objects, h.Bytes())
		if err != nil {
			t.Fatalf("%s: decode: %v", p.Schema(), err)
		}

		back, err := reg.FromObject(decoded)
		if err != nil {
			t.Fatalf("%s: FromObject: %v", p.Schema(), err)
		}

		if !back.Equal(h) {
			t.Errorf("%s: round trip mismatch", p.Schema())
		}
	}
}

func TestFromObjectRejectsUnknown(t *testing.T) {
	reg := NewRegistry()

	if _, err := reg.FromObject(object.NewUint64(object.Index, 1)); err == nil {
		t.Fatal("expected error for non-hash object")
	}
}

func TestFromObjectRejectsWrongLength(t *testing.T) {
	reg := NewRegistry()
	short := object.MustLeaf(object.Sha256, make([]byte, 16))

	if _, err := reg.FromObject(short); err == nil {
		t.Fatal("expected error for short digest")
	}
}

func TestByName(t *testing.T) {
	reg := NewRegistry()

	p, err := reg.ByName("blake3")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}

	if p.Schema() != object.Blake3 {
		t.Errorf("schema = %s, want %s", p.Schema(), object.Blake3)
	}

	if _, err := reg.ByName("md5"); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

func TestEqualComparesAlgorithm(t *testing.T) {
	a := Hash{Schema: object.Sha256, Digest: make([]byte, 32)}
	b := Hash{Schema: object.Blake3, Digest: make([]byte, 32)}

	if a.Equal(b) {
		t.Error("hashes of different algorithms compared equal")
	}
}
