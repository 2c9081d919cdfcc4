// Package signing holds the signature algorithms a party may sign a bound
// witness with. Algorithms are looked up by a one-byte id (the ID of the
// algorithm's signature schema). Verifying a signature whose algorithm is not
// registered is a hard error, distinct from a signature that is present but
// does not verify.
package signing

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"XyoCore/internal/fault"
	"XyoCore/internal/object"
)

var (
	// ErrUnsupportedAlgorithm is returned for algorithm ids with no registration.
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

	// ErrInvalidSignature is returned when a signature does not verify.
	ErrInvalidSignature = errors.New("invalid signature")
)

// Signer owns a key pair for one algorithm.
type Signer interface {
	// Algorithm returns the algorithm id.
	Algorithm() byte

	// PublicKey returns the encoded public key object.
	PublicKey() object.Object

	// PrivateKey returns the encoded private key object, for persistence.
	PrivateKey() object.Object

	// Sign signs message and returns the encoded signature object.
	Sign(message []byte) (object.Object, error)
}

// Algorithm describes one signing scheme.
type Algorithm struct {
	ID         byte
	Name       string
	PublicKey  object.Schema
	Signature  object.Schema
	PrivateKey object.Schema

	// Generate creates a signer with a fresh key pair.
	Generate func() (Signer, error)

	// Restore rebuilds a signer from its encoded private key.
	Restore func(privateKey object.Object) (Signer, error)

	// Verify checks raw signature bytes over message against raw key bytes.
	Verify func(publicKey, message, signature []byte) bool
}

// Registry maps algorithm ids to algorithms.
type Registry struct {
	mu         sync.RWMutex
	algorithms map[byte]Algorithm
}

// NewRegistry creates a registry with secp256k1, RSA and BLS registered.
func NewRegistry() *Registry {
	r := &Registry{algorithms: make(map[byte]Algorithm)}

	r.Register(Secp256k1Algorithm())
	r.Register(RSAAlgorithm())
	r.Register(BLSAlgorithm())

	return r
}

// Register adds or replaces an algorithm.
func (r *Registry) Register(a Algorithm) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.algorithms[a.ID] = a
}

// Lookup returns the algorithm registered under id.
func (r *Registry) Lookup(id byte) (Algorithm, error) {
	r.mu.RLock()
	a, ok := r.algorithms[id]
	r.mu.RUnlock()

	if !ok {
		return Algorithm{}, fault.Crypto(fmt.Errorf("algorithm %#02x:\n%w", id, ErrUnsupportedAlgorithm))
	}

	return a, nil
}

// ByName returns the algorithm with the given name.
func (r *Registry) ByName(name string) (Algorithm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.algorithms {
		if a.Name == name {
			return a, nil
		}
	}

	return Algorithm{}, fault.Crypto(fmt.Errorf("algorithm %q:\n%w", name, ErrUnsupportedAlgorithm))
}

// Names lists registered algorithm names in id order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int, 0, len(r.algorithms))
	for id := range r.algorithms {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = r.algorithms[byte(id)].Name
	}

	return names
}

// Generate creates a fresh signer for algorithm id.
func (r *Registry) Generate(id byte) (Signer, error) {
	a, err := r.Lookup(id)
	if err != nil {
		return nil, err
	}

	return a.Generate()
}

// Restore rebuilds a signer from an encoded private key of any registered
// algorithm.
func (r *Registry) Restore(privateKey object.Object) (Signer, error) {
	r.mu.RLock()
	var found *Algorithm
	for _, a := range r.algorithms {
		if a.PrivateKey == privateKey.Schema() {
			found = &a
			break
		}
	}
	r.mu.RUnlock()

	if found == nil {
		return nil, fault.Crypto(fmt.Errorf("private key %s:\n%w", privateKey.Schema(), ErrUnsupportedAlgorithm))
	}

	return found.Restore(privateKey)
}

// Verify reports whether the signature object is valid for message under
// publicKey. An unregistered algorithm or a key of the wrong type is an error,
// not false.
func (r *Registry) Verify(signature object.Object, message []byte, publicKey object.Object) (bool, error) {
	a, err := r.Lookup(signature.Schema().ID)
	if err != nil {
		return false, err
	}

	if signature.Schema() != a.Signature {
		return false, fault.Crypto(fmt.Errorf("signature schema %s:\n%w", signature.Schema(), ErrUnsupportedAlgorithm))
	}

	if publicKey.Schema() != a.PublicKey {
		return false, fault.Crypto(fmt.Errorf("%s signature with %s key", a.Name, publicKey.Schema()))
	}

	return a.Verify(publicKey.Value(), message, signature.Value()), nil
}

// Check is Verify that turns an invalid signature into ErrInvalidSignature.
func (r *Registry) Check(signature object.Object, message []byte, publicKey object.Object) error {
	ok, err := r.Verify(signature, message, publicKey)
	if err != nil {
		return err
	}

	if !ok {
		return fault.Crypto(fmt.Errorf("%s:\n%w", signature.Schema(), ErrInvalidSignature))
	}

	return nil
}
