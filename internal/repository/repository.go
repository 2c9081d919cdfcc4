// Package repository persists origin blocks, chain state and the bridge
// queue in Pebble, with in-memory variants for tests and light nodes.
package repository

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"XyoCore/internal/hashing"
	"XyoCore/internal/object"
	"XyoCore/internal/signing"
)

// Key prefixes.
var (
	prefixBlock = []byte("b/") // prefixBlock maps hash to compressed block
	prefixKey   = []byte("k/") // prefixKey indexes blocks by signer key
	keyState    = []byte("s/chain")
	keyQueue    = []byte("q/bridge")
)

// keyDigestSize is the length of the public key digest in index keys.
const keyDigestSize = 16

// Codec holds what a repository needs to rebuild stored values.
type Codec struct {
	Objects  *object.Registry
	Hashes   *hashing.Registry
	Verifier *signing.Registry
	Hasher   hashing.Provider // Hasher computes block keys
}

// DefaultCodec returns a codec over the XYO schema table with hasher.
func DefaultCodec(hasher hashing.Provider) Codec {
	return Codec{
		Objects:  object.NewXyoRegistry(),
		Hashes:   hashing.NewRegistry(),
		Verifier: signing.NewRegistry(),
		Hasher:   hasher,
	}
}

func (c Codec) validate() error {
	if c.Objects == nil || c.Hashes == nil || c.Verifier == nil || c.Hasher == nil {
		return fmt.Errorf("repository codec is incomplete")
	}
	return nil
}

// decodeHash parses an encoded hash object.
func (c Codec) decodeHash(b []byte) (hashing.Hash, error) {
	o, err := object.Decode(c.Objects, b)
	if err != nil {
		return hashing.Hash{}, fmt.Errorf("decode hash:\n%w", err)
	}
	return c.Hashes.FromObject(o)
}

func blockKey(h hashing.Hash) []byte {
	return append(append([]byte{}, prefixBlock...), h.Bytes()...)
}

// keyPrefix returns the index prefix of a public key.
func keyPrefix(publicKey object.Object) []byte {
	digest := blake3.Sum256(publicKey.Bytes())

	out := append([]byte{}, prefixKey...)
	return append(out, digest[:keyDigestSize]...)
}

func indexKey(publicKey object.Object, h hashing.Hash) []byte {
	return append(keyPrefix(publicKey), h.Bytes()...)
}

// compressor wraps a shared zstd encoder and decoder. Both are safe for
// concurrent EncodeAll and DecodeAll calls.
type compressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newCompressor() (*compressor, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create encoder:\n%w", err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create decoder:\n%w", err)
	}

	return &compressor{enc: enc, dec: dec}, nil
}

func (c *compressor) compress(data []byte) []byte {
	return c.enc.EncodeAll(data, nil)
}

func (c *compressor) decompress(data []byte) ([]byte, error) {
	return c.dec.DecodeAll(data, nil)
}

func (c *compressor) close() {
	c.enc.Close()
	c.dec.Close()
}
