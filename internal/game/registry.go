package game

import (
	"fmt"
	"sync"

	"numbers-lottery/internal/model"
)

// Registry manages variant registration and lookup.
// It provides a thread-safe way to register and retrieve variants by key.
type Registry struct {
	variants map[model.GameVariant]Variant
	mu       sync.RWMutex
}

// NewRegistry creates a new variant registry.
func NewRegistry() *Registry {
	return &Registry{
		variants: make(map[model.GameVariant]Variant),
	}
}

// Register adds a variant to the registry.
// If a variant with the same key already exists, it will be replaced.
func (r *Registry) Register(v Variant) error {
	if v == nil {
		return fmt.Errorf("cannot register nil variant")
	}
	if v.Key() == "" {
		return fmt.Errorf("variant key cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.variants[v.Key()] = v
	return nil
}

// Get retrieves a variant by its key.
// Returns the variant and true if found, nil and false otherwise.
func (r *Registry) Get(key model.GameVariant) (Variant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variants[key]
	return v, ok
}

// List returns all registered variants.
// The returned slice is a copy, so modifications won't affect the registry.
func (r *Registry) List() []Variant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	variants := make([]Variant, 0, len(r.variants))
	for _, v := range r.variants {
		variants = append(variants, v)
	}
	return variants
}

// Keys returns all registered variant keys.
func (r *Registry) Keys() []model.GameVariant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]model.GameVariant, 0, len(r.variants))
	for k := range r.variants {
		keys = append(keys, k)
	}
	return keys
}

// Count returns the number of registered variants.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.variants)
}
