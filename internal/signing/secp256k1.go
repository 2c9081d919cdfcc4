package signing

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"XyoCore/internal/fault"
	"XyoCore/internal/object"
)

const (
	// Secp256k1ID is the algorithm id of ECDSA over secp256k1 with SHA-256.
	Secp256k1ID = 0x09

	// Secp256k1PublicKeySize is the size of a raw uncompressed public key
	// (X || Y) without the 0x04 prefix.
	Secp256k1PublicKeySize = 64

	secp256k1PrivateKeySize = 32
)

// Secp256k1Algorithm describes ECDSA over secp256k1. Public keys travel as the
// 64-byte X || Y coordinates, signatures as DER over the SHA-256 of the message.
func Secp256k1Algorithm() Algorithm {
	return Algorithm{
		ID:         Secp256k1ID,
		Name:       "secp256k1",
		PublicKey:  object.EcPublicKey,
		Signature:  object.EcSignature,
		PrivateKey: object.EcPrivateKey,
		Generate:   func() (Signer, error) { return GenerateSecp256k1() },
		Restore: func(privateKey object.Object) (Signer, error) {
			return RestoreSecp256k1(privateKey.Value())
		},
		Verify: verifySecp256k1,
	}
}

// Secp256k1Signer signs with a secp256k1 private key.
type Secp256k1Signer struct {
	private *secp256k1.PrivateKey // private is the signing key
	public  object.Object         // public is the encoded 64-byte public key
}

// GenerateSecp256k1 creates a signer with a random key.
func GenerateSecp256k1() (*Secp256k1Signer, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fault.Crypto(fmt.Errorf("generate secp256k1 key:\n%w", err))
	}

	return newSecp256k1Signer(priv), nil
}

// RestoreSecp256k1 rebuilds a signer from a raw private scalar. Leading zero
// bytes are tolerated, so 33-byte two's complement encodings are accepted.
func RestoreSecp256k1(raw []byte) (*Secp256k1Signer, error) {
	trimmed := bytes.TrimLeft(raw, "\x00")
	if len(trimmed) == 0 || len(trimmed) > secp256k1PrivateKeySize {
		return nil, fault.Crypto(fmt.Errorf("secp256k1 private key: bad length %d", len(raw)))
	}

	var scalar [secp256k1PrivateKeySize]byte
	copy(scalar[secp256k1PrivateKeySize-len(trimmed):], trimmed)

	var k secp256k1.ModNScalar
	if overflow := k.SetBytes(&scalar); overflow != 0 || k.IsZero() {
		return nil, fault.Crypto(fmt.Errorf("secp256k1 private key out of range"))
	}

	return newSecp256k1Signer(secp256k1.NewPrivateKey(&k)), nil
}

func newSecp256k1Signer(priv *secp256k1.PrivateKey) *Secp256k1Signer {
	raw := priv.PubKey().SerializeUncompressed()[1:]

	return &Secp256k1Signer{
		private: priv,
		public:  object.MustLeaf(object.EcPublicKey, raw),
	}
}

// Algorithm returns Secp256k1ID.
func (s *Secp256k1Signer) Algorithm() byte { return Secp256k1ID }

// PublicKey returns the EC_PUBLIC_KEY object.
func (s *Secp256k1Signer) PublicKey() object.Object { return s.public }

// PrivateKey returns the EC_PRIVATE_KEY object holding the 32-byte scalar.
func (s *Secp256k1Signer) PrivateKey() object.Object {
	return object.MustLeaf(object.EcPrivateKey, s.private.Serialize())
}

// Sign returns an EC_SIGNATURE over SHA-256(message).
func (s *Secp256k1Signer) Sign(message []byte) (object.Object, error) {
	digest := sha256.Sum256(message)
	sig := ecdsa.Sign(s.private, digest[:])

	return object.NewLeaf(object.EcSignature, sig.Serialize())
}

func verifySecp256k1(publicKey, message, signature []byte) bool {
	if len(publicKey) != Secp256k1PublicKeySize {
		return false
	}

	pub, err := secp256k1.ParsePubKey(append([]byte{0x04}, publicKey...))
	if err != nil {
		return false
	}

	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}

	digest := sha256.Sum256(message)
	return sig.Verify(digest[:], pub)
}
