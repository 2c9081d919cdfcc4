package signing

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"math/big"

	"XyoCore/internal/fault"
	"XyoCore/internal/object"
)

const (
	// RSAID is the algorithm id of RSA PKCS#1 v1.5 with SHA-256.
	RSAID = 0x0A

	// RSAKeyBits is the modulus size of generated keys.
	RSAKeyBits = 2048

	// rsaExponent is the fixed public exponent; public keys carry only the modulus.
	rsaExponent = 65537
)

// RSAAlgorithm describes RSA PKCS#1 v1.5 signatures over SHA-256. The public
// key object carries the big-endian modulus; the exponent is always 65537.
func RSAAlgorithm() Algorithm {
	return Algorithm{
		ID:         RSAID,
		Name:       "rsa",
		PublicKey:  object.RsaPublicKey,
		Signature:  object.RsaSignature,
		PrivateKey: object.RsaPrivateKey,
		Generate:   func() (Signer, error) { return GenerateRSA(RSAKeyBits) },
		Restore: func(privateKey object.Object) (Signer, error) {
			return RestoreRSA(privateKey.Value())
		},
		Verify: verifyRSA,
	}
}

// RSASigner signs with an RSA private key.
type RSASigner struct {
	private *rsa.PrivateKey // private is the signing key
	public  object.Object   // public is the encoded modulus
}

// GenerateRSA creates a signer with a fresh key of the given modulus size.
func GenerateRSA(bits int) (*RSASigner, error) {
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fault.Crypto(fmt.Errorf("generate rsa key:\n%w", err))
	}

	return newRSASigner(priv)
}

// RestoreRSA rebuilds a signer from a PKCS#1 DER private key.
func RestoreRSA(der []byte) (*RSASigner, error) {
	priv, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, fault.Crypto(fmt.Errorf("parse rsa private key:\n%w", err))
	}

	return newRSASigner(priv)
}

func newRSASigner(priv *rsa.PrivateKey) (*RSASigner, error) {
	if priv.E != rsaExponent {
		return nil, fault.Crypto(fmt.Errorf("rsa exponent %d not supported", priv.E))
	}

	pub, err := object.NewLeaf(object.RsaPublicKey, priv.N.Bytes())
	if err != nil {
		return nil, err
	}

	return &RSASigner{private: priv, public: pub}, nil
}

// Algorithm returns RSAID.
func (s *RSASigner) Algorithm() byte { return RSAID }

// PublicKey returns the RSA_PUBLIC_KEY object.
func (s *RSASigner) PublicKey() object.Object { return s.public }

// PrivateKey returns the RSA_PRIVATE_KEY object holding PKCS#1 DER.
func (s *RSASigner) PrivateKey() object.Object {
	return object.MustLeaf(object.RsaPrivateKey, x509.MarshalPKCS1PrivateKey(s.private))
}

// Sign returns an RSA_SIGNATURE over SHA-256(message).
func (s *RSASigner) Sign(message []byte) (object.Object, error) {
	digest := sha256.Sum256(message)

	sig, err := rsa.SignPKCS1v15(rand.Reader, s.private, crypto.SHA256, digest[:])
	if err != nil {
		return object.Object{}, fault.Crypto(fmt.Errorf("rsa sign:\n%w", err))
	}

	return object.NewLeaf(object.RsaSignature, sig)
}

func verifyRSA(publicKey, message, signature []byte) bool {
	if len(publicKey) == 0 || len(signature) == 0 {
		return false
	}

	pub := &rsa.PublicKey{N: new(big.Int).SetBytes(publicKey), E: rsaExponent}
	digest := sha256.Sum256(message)

	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], signature) == nil
}
