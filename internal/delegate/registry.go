package delegate

import (
	"fmt"
	"sort"
	"sync"

	"github.com/caskhq/cask/internal/object"
)

// Registry maps object types to their delegates.
type Registry struct {
	mu        sync.RWMutex
	delegates map[object.Type]Delegate
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{delegates: make(map[object.Type]Delegate)}
}

// Register adds a delegate. Registering a second delegate for the same type
// is a programming error and is rejected.
func (r *Registry) Register(d Delegate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := d.Type()
	if !t.Valid() {
		return fmt.Errorf("register delegate: unknown object type %q", t)
	}
	if _, exists := r.delegates[t]; exists {
		return fmt.Errorf("register delegate: type %q already registered", t)
	}
	r.delegates[t] = d
	return nil
}

// Resolve returns the delegate for an object type, if one is registered.
func (r *Registry) Resolve(t object.Type) (Delegate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.delegates[t]
	return d, ok
}

// Types returns the registered object types in stable order.
func (r *Registry) Types() []object.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]object.Type, 0, len(r.delegates))
	for t := range r.delegates {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
