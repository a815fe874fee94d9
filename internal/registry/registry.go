// Package registry provides the named, thread-safe lookup tables used at
// startup to resolve middleware, binders and controller types by name.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps names to values. Names are unique and never empty.
type Registry[V any] struct {
	mu    sync.RWMutex
	items map[string]V
	kind  string // e.g. "middleware", "binder"
}

// New creates an empty registry. kind names the values in error messages.
func New[V any](kind string) *Registry[V] {
	return &Registry[V]{
		items: make(map[string]V),
		kind:  kind,
	}
}

// Register adds a value under name.
func (r *Registry[V]) Register(name string, value V) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%s name cannot be empty", r.kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[name]; exists {
		return fmt.Errorf("%s '%s' is already registered", r.kind, name)
	}
	r.items[name] = value
	return nil
}

// Get retrieves a value by name.
func (r *Registry[V]) Get(name string) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, exists := r.items[name]
	return value, exists
}

// Has checks if a name is registered.
func (r *Registry[V]) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Validate checks that all names exist in the registry. Empty names are ignored.
func (r *Registry[V]) Validate(names []string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var missing []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, exists := r.items[name]; !exists {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("unknown %s(s): %s", r.kind, strings.Join(missing, ", "))
	}
	return nil
}

// Names returns the registered names in sorted order.
func (r *Registry[V]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Size returns the number of registered values.
func (r *Registry[V]) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}
