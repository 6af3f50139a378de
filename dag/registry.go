package dag

import (
	"sort"
	"sync"
)

// ActionFactory builds an Action from a manifest step's params.
type ActionFactory func(params map[string]any) (Action, error)

// Registry maps action names used in manifests to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ActionFactory
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ActionFactory)}
}

// Register adds a factory. A later registration under the same name wins.
func (r *Registry) Register(name string, factory ActionFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// RegisterAction registers a factory that ignores params.
func (r *Registry) RegisterAction(name string, action Action) {
	r.Register(name, func(map[string]any) (Action, error) { return action, nil })
}

// Get retrieves a factory by name.
func (r *Registry) Get(name string) (ActionFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// List returns sorted names of all registered actions.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
