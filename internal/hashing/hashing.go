// Package hashing provides the pluggable digest algorithms used to chain
// origin blocks. A hash is compared by byte equality only; it is never
// "verified".
package hashing

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"sync"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"

	"XyoCore/internal/fault"
	"XyoCore/internal/object"
)

// Hash is a digest tagged with the schema of the algorithm that produced it.
type Hash struct {
	Schema object.Schema
	Digest []byte
}

// Object returns the hash as an encoded leaf.
func (h Hash) Object() object.Object {
	return object.MustLeaf(h.Schema, h.Digest)
}

// Bytes returns the full encoding of the hash object.
func (h Hash) Bytes() []byte {
	return h.Object().Bytes()
}

// Equal reports whether both hashes use the same algorithm and digest.
func (h Hash) Equal(other Hash) bool {
	return h.Schema == other.Schema && bytes.Equal(h.Digest, other.Digest)
}

// String returns the digest in hex.
func (h Hash) String() string {
	return hex.EncodeToString(h.Digest)
}

// Provider produces hashes with one algorithm.
type Provider interface {
	Schema() object.Schema
	Size() int
	CreateHash(data []byte) (Hash, error)
}

// digestProvider adapts a hash.Hash constructor to Provider.
type digestProvider struct {
	schema object.Schema
	size   int
	newFn  func() hash.Hash
}

func (p *digestProvider) Schema() object.Schema { return p.schema }

func (p *digestProvider) Size() int { return p.size }

// CreateHash digests data.
func (p *digestProvider) CreateHash(data []byte) (Hash, error) {
	h := p.newFn()
	if _, err := h.Write(data); err != nil {
		return Hash{}, fmt.Errorf("hash %s:\n%w", p.schema, err)
	}

	return Hash{Schema: p.schema, Digest: h.Sum(nil)}, nil
}

// SHA256 returns the SHA-256 provider.
func SHA256() Provider {
	return &digestProvider{schema: object.Sha256, size: sha256.Size, newFn: sha256.New}
}

// SHA1 returns the SHA-1 provider.
func SHA1() Provider {
	return &digestProvider{schema: object.Sha1, size: sha1.Size, newFn: sha1.New}
}

// SHA384 returns the SHA-384 provider.
func SHA384() Provider {
	return &digestProvider{schema: object.Sha384, size: sha512.Size384, newFn: sha512.New384}
}

// SHA3 returns the SHA3-256 provider.
func SHA3() Provider {
	return &digestProvider{schema: object.Sha3, size: 32, newFn: sha3.New256}
}

// Blake3 returns the BLAKE3-256 provider.
func Blake3() Provider {
	return &digestProvider{schema: object.Blake3, size: 32, newFn: func() hash.Hash { return blake3.New() }}
}

// Registry maps hash schema ids to providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[byte]Provider
}

// NewRegistry creates a registry holding every built-in provider.
func NewRegistry() *Registry {
	r := &Registry{providers: make(map[byte]Provider)}

	for _, p := range []Provider{SHA256(), SHA1(), SHA384(), SHA3(), Blake3()} {
		r.Register(p)
	}

	return r
}

// Register adds or replaces a provider.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[p.Schema().ID] = p
}

// Lookup returns the provider for a schema id.
func (r *Registry) Lookup(id byte) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[id]
	return p, ok
}

// ByName returns a provider by its configuration name.
func (r *Registry) ByName(name string) (Provider, error) {
	ids := map[string]object.Schema{
		"sha256": object.Sha256,
		"sha1":   object.Sha1,
		"sha384": object.Sha384,
		"sha3":   object.Sha3,
		"blake3": object.Blake3,
	}

	s, ok := ids[name]
	if !ok {
		return nil, fmt.Errorf("unknown hash algorithm %q", name)
	}

	p, ok := r.Lookup(s.ID)
	if !ok {
		return nil, fmt.Errorf("hash algorithm %q not registered", name)
	}

	return p, nil
}

// FromObject converts a decoded hash leaf into a Hash, checking that the
// algorithm is known and the digest has its fixed length.
func (r *Registry) FromObject(o object.Object) (Hash, error) {
	p, ok := r.Lookup(o.Schema().ID)
	if !ok || p.Schema() != o.Schema() {
		return Hash{}, fault.Protocolf("unknown hash algorithm %s", o.Schema())
	}

	digest := o.Value()
	if len(digest) != p.Size() {
		return Hash{}, fault.Protocolf("hash %s: digest is %d bytes, want %d", o.Schema(), len(digest), p.Size())
	}

	return Hash{Schema: o.Schema(), Digest: digest}, nil
}
