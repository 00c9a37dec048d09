// Package plugin discovers tweaks: a static table of built-in factories plus
// declarative YAML definitions dropped into a plugin directory.
package plugin

import (
	"errors"
	"fmt"
	"sync"

	"asxhub/internal/tweak"
)

// ErrDuplicate is returned when a key is registered twice.
var ErrDuplicate = errors.New("duplicate tweak key")

// Factory builds one tweak against an environment.
type Factory func(env *tweak.Env) (tweak.Tweak, error)

// Registry is an ordered factory table.
type Registry struct {
	mu        sync.RWMutex
	keys      []string
	factories map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under key.
func (r *Registry) Register(key string, f Factory) error {
	if key == "" {
		return errors.New("register tweak: empty key")
	}
	if f == nil {
		return fmt.Errorf("register tweak %s: nil factory", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[key]; ok {
		return fmt.Errorf("register tweak %s: %w", key, ErrDuplicate)
	}
	r.keys = append(r.keys, key)
	r.factories[key] = f
	return nil
}

// Keys returns the registered keys in registration order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.keys...)
}

// Lookup returns the factory for key.
func (r *Registry) Lookup(key string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[key]
	return f, ok
}

// Has reports whether key is registered.
func (r *Registry) Has(key string) bool {
	_, ok := r.Lookup(key)
	return ok
}

// Len returns the number of registered factories.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}
