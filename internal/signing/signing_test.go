package signing

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"XyoCore/internal/fault"
	"XyoCore/internal/object"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()

	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("decode hex: %v", err)
	}

	return b
}

// TestSecp256k1KnownKey restores a fixed key and checks its public key.
func TestSecp256k1KnownKey(t *testing.T) {
	priv := mustHex(t, "00DECCC9FA76EF2D0D90D5C5C9807C25E5429C5202D35A8F5D5C9A3CD7DE0B26EF")
	want := mustHex(t, "DC26168A6630A280E7152FD2749F60BC59EDAC0544276B7F55C91FC57141E4E510D55149DEB84941BC68EC863A9288A65EB485B631F08BD9DC0AA65F5F5E2D12")

	s, err := RestoreSecp256k1(priv)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	if !bytes.Equal(s.PublicKey().Value(), want) {
		t.Fatalf("public key: got %X", s.PublicKey().Value())
	}

	sig, err := s.Sign([]byte{0x00})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	reg := NewRegistry()
	ok, err := reg.Verify(sig, []byte{0x00}, s.PublicKey())
	if err != nil || !ok {
		t.Fatalf("verify: ok=%v err=%v", ok, err)
	}
}

// TestSecp256k1RejectsBadKeys checks length and range validation.
func TestSecp256k1RejectsBadKeys(t *testing.T) {
	cases := map[string][]byte{
		"empty":    nil,
		"zero":     make([]byte, 32),
		"too long": bytes.Repeat([]byte{0x01}, 33),
		"order":    mustHex(t, "FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141"),
	}

	for name, raw := range cases {
		if _, err := RestoreSecp256k1(raw); !fault.Is(err, fault.ErrCrypto) {
			t.Errorf("%s: expected crypto fault, got %v", name, err)
		}
	}
}

// TestSignVerifyAllAlgorithms signs with every registered algorithm.
func TestSignVerifyAllAlgorithms(t *testing.T) {
	reg := NewRegistry()
	message := []byte("bound witness signing message")

	for _, id := range []byte{Secp256k1ID, BLSID} {
		s, err := reg.Generate(id)
		if err != nil {
			t.Fatalf("generate %#02x: %v", id, err)
		}

		checkSigner(t, reg, s, message)
	}

	r, err := GenerateRSA(1024)
	if err != nil {
		t.Fatalf("generate rsa: %v", err)
	}

	checkSigner(t, reg, r, message)
}

func checkSigner(t *testing.T, reg *Registry, s Signer, message []byte) {
	t.Helper()

	sig, err := s.Sign(message)
	if err != nil {
		t.Fatalf("sign %#02x: %v", s.Algorithm(), err)
	}

	if sig.Schema().ID != s.Algorithm() {
		t.Errorf("signature schema %s does not carry algorithm %#02x", sig.Schema(), s.Algorithm())
	}

	if err := reg.Check(sig, message, s.PublicKey()); err != nil {
		t.Errorf("check %#02x: %v", s.Algorithm(), err)
	}

	tampered := append([]byte{}, message...)
	tampered[0] ^= 0xFF

	err = reg.Check(sig, tampered, s.PublicKey())
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("tampered %#02x: expected ErrInvalidSignature, got %v", s.Algorithm(), err)
	}

	restored, err := reg.Restore(s.PrivateKey())
	if err != nil {
		t.Fatalf("restore %#02x: %v", s.Algorithm(), err)
	}

	if !restored.PublicKey().Equal(s.PublicKey()) {
		t.Errorf("restore %#02x: public key changed", s.Algorithm())
	}
}

// TestWrongKeyFails checks a valid signature under another key.
func TestWrongKeyFails(t *testing.T) {
	reg := NewRegistry()

	a, _ := GenerateBLS()
	b, _ := GenerateBLS()

	sig, _ := a.Sign([]byte("msg"))

	ok, err := reg.Verify(sig, []byte("msg"), b.PublicKey())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if ok {
		t.Fatal("signature verified under the wrong key")
	}
}

// TestUnsupportedAlgorithm distinguishes unknown algorithms from bad signatures.
func TestUnsupportedAlgorithm(t *testing.T) {
	reg := NewRegistry()
	s, _ := GenerateSecp256k1()

	unknown := object.MustLeaf(object.Schema{Encoding: 0x80, ID: 0x42}, []byte{1, 2, 3})

	ok, err := reg.Verify(unknown, []byte("msg"), s.PublicKey())
	if ok {
		t.Fatal("unknown algorithm verified")
	}

	if !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Fatalf("expected ErrUnsupportedAlgorithm, got %v", err)
	}

	if errors.Is(err, ErrInvalidSignature) {
		t.Fatal("unsupported algorithm reported as invalid signature")
	}

	if fault.Kind(err) != "crypto" {
		t.Fatalf("kind: got %q", fault.Kind(err))
	}

	if _, err := reg.Generate(0x42); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Fatalf("generate: expected ErrUnsupportedAlgorithm, got %v", err)
	}
}

// TestKeyTypeMismatch rejects an EC signature checked against a BLS key.
func TestKeyTypeMismatch(t *testing.T) {
	reg := NewRegistry()

	ec, _ := GenerateSecp256k1()
	bls, _ := GenerateBLS()

	sig, _ := ec.Sign([]byte("msg"))

	if _, err := reg.Verify(sig, []byte("msg"), bls.PublicKey()); err == nil {
		t.Fatal("expected error for mismatched key type")
	}
}

// TestBLSDeterministicKey tests that a seed produces deterministic keys.
func TestBLSDeterministicKey(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}

	key1, _ := BLSFromSeed(seed)
	key2, _ := BLSFromSeed(seed)

	if !key1.PublicKey().Equal(key2.PublicKey()) {
		t.Error("same seed should produce same key")
	}

	if _, err := BLSFromSeed(seed[:16]); err == nil {
		t.Error("short seed should fail")
	}
}

// TestRegistryNames lists algorithms in id order.
func TestRegistryNames(t *testing.T) {
	names := NewRegistry().Names()
	want := []string{"secp256k1", "rsa", "bls"}

	if len(names) != len(want) {
		t.Fatalf("names: got %v", names)
	}

	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names: got %v, want %v", names, want)
		}
	}

	if _, err := NewRegistry().ByName("bls"); err != nil {
		t.Fatalf("by name: %v", err)
	}
}
