package object

import "sync"

// Registry records the schemas a node understands. Decoding rejects any
// header that was not registered. A registry belongs to the component that
// created it; there is no process-wide instance.
type Registry struct {
	mu      sync.RWMutex
	entries map[Schema]entry
}

type entry struct {
	name      string
	fixedSize int // fixedSize is the required value length, or -1
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Schema]entry)}
}

// Register adds a schema with a human readable name.
func (r *Registry) Register(s Schema, name string) {
	r.register(s, entry{name: name, fixedSize: -1})
}

// RegisterFixed adds a leaf schema whose value must be exactly size bytes.
func (r *Registry) RegisterFixed(s Schema, name string, size int) {
	r.register(s, entry{name: name, fixedSize: size})
}

func (r *Registry) register(s Schema, e entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[s] = e
}

// Known reports whether s is registered.
func (r *Registry) Known(s Schema) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[s]
	return ok
}

// Name returns the registered name of s, or its hex header if unknown.
func (r *Registry) Name(s Schema) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.entries[s]; ok {
		return e.name
	}
	return s.String()
}

func (r *Registry) lookup(s Schema) (entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[s]
	return e, ok
}
