package signing

import (
	"crypto/rand"
	"fmt"

	blst "github.com/supranational/blst/bindings/go"
	"github.com/zeebo/blake3"

	"XyoCore/internal/fault"
	"XyoCore/internal/object"
)

const (
	// BLSID is the algorithm id of BLS12-381 signatures (min-pk).
	BLSID = 0x17

	// BLSPublicKeySize is the size of a compressed BLS public key in bytes.
	BLSPublicKeySize = 48

	// BLSSignatureSize is the size of a compressed BLS signature in bytes.
	BLSSignatureSize = 96
)

// blsDST is the domain separation tag for BLS signatures.
var blsDST = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_")

// BLSAlgorithm describes BLS12-381 with public keys in G1 and signatures in G2.
func BLSAlgorithm() Algorithm {
	return Algorithm{
		ID:         BLSID,
		Name:       "bls",
		PublicKey:  object.BlsPublicKey,
		Signature:  object.BlsSignature,
		PrivateKey: object.BlsPrivateKey,
		Generate:   func() (Signer, error) { return GenerateBLS() },
		Restore: func(privateKey object.Object) (Signer, error) {
			return RestoreBLS(privateKey.Value())
		},
		Verify: verifyBLS,
	}
}

// BLSSigner holds a BLS private/public key pair.
type BLSSigner struct {
	secret *blst.SecretKey // secret is the private key
	public object.Object   // public is the compressed public key object
}

// GenerateBLS creates a signer from a random seed.
func GenerateBLS() (*BLSSigner, error) {
	var ikm [32]byte
	if _, err := rand.Read(ikm[:]); err != nil {
		return nil, fault.Crypto(fmt.Errorf("generate random seed:\n%w", err))
	}

	return BLSFromSeed(ikm[:])
}

// BLSFromSeed creates a signer from a deterministic seed of at least 32 bytes.
// The seed is hashed with BLAKE3 under a fixed context first.
func BLSFromSeed(seed []byte) (*BLSSigner, error) {
	if len(seed) < 32 {
		return nil, fault.Crypto(fmt.Errorf("seed must be at least 32 bytes"))
	}

	h := blake3.New()
	h.Write([]byte("xyo-bls-keygen"))
	h.Write(seed)

	var derived [32]byte
	h.Sum(derived[:0])

	secret := blst.KeyGen(derived[:])
	if secret == nil {
		return nil, fault.Crypto(fmt.Errorf("failed to generate BLS key"))
	}

	return newBLSSigner(secret), nil
}

// RestoreBLS rebuilds a signer from a serialized 32-byte secret key.
func RestoreBLS(raw []byte) (*BLSSigner, error) {
	secret := new(blst.SecretKey).Deserialize(raw)
	if secret == nil {
		return nil, fault.Crypto(fmt.Errorf("invalid BLS secret key"))
	}

	return newBLSSigner(secret), nil
}

func newBLSSigner(secret *blst.SecretKey) *BLSSigner {
	pub := new(blst.P1Affine).From(secret)

	return &BLSSigner{
		secret: secret,
		public: object.MustLeaf(object.BlsPublicKey, pub.Compress()),
	}
}

// Algorithm returns BLSID.
func (s *BLSSigner) Algorithm() byte { return BLSID }

// PublicKey returns the BLS_PUBLIC_KEY object.
func (s *BLSSigner) PublicKey() object.Object { return s.public }

// PrivateKey returns the BLS_PRIVATE_KEY object.
func (s *BLSSigner) PrivateKey() object.Object {
	return object.MustLeaf(object.BlsPrivateKey, s.secret.Serialize())
}

// Sign creates a BLS signature over the message.
func (s *BLSSigner) Sign(message []byte) (object.Object, error) {
	sig := new(blst.P2Affine).Sign(s.secret, message, blsDST)
	return object.NewLeaf(object.BlsSignature, sig.Compress())
}

func verifyBLS(publicKey, message, signature []byte) bool {
	if len(signature) != BLSSignatureSize || len(publicKey) != BLSPublicKeySize {
		return false
	}

	sig := new(blst.P2Affine).Uncompress(signature)
	if sig == nil {
		return false
	}

	pk := new(blst.P1Affine).Uncompress(publicKey)
	if pk == nil {
		return false
	}

	return sig.Verify(true, pk, true, message, blsDST)
}
