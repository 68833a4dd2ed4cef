package adapters

import (
	"fmt"
	"sync"
)

// Registry maps adapter ids to factories and caches built instances so
// switching back to a mode reuses the same adapter.
//
// Resolving an unknown id falls back to the default adapter with a
// warning rather than failing: a stale persisted mode must never brick
// startup. Only a missing default is an error.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	instances map[string]Adapter
	defaultID string
}

func NewRegistry(defaultID string) *Registry {
	return &Registry{
		factories: map[string]Factory{},
		instances: map[string]Adapter{},
		defaultID: defaultID,
	}
}

func (r *Registry) DefaultID() string {
	return r.defaultID
}

// Register adds a factory under an id, replacing any previous
// registration and dropping its cached instance.
func (r *Registry) Register(id string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = factory
	delete(r.instances, id)
}

// IDs lists every registered adapter id.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	return ids
}

// Resolve returns the adapter for an id, building and caching it on
// first use. Unknown ids resolve to the default adapter.
func (r *Registry) Resolve(id string) (Adapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, known := r.factories[id]; !known {
		if id != "" {
			logger.Warn("unknown adapter id, falling back to default",
				"adapter", id, "default", r.defaultID)
		}
		id = r.defaultID
		if _, known := r.factories[id]; !known {
			return nil, fmt.Errorf("default adapter %q is not registered", id)
		}
	}

	if instance, ok := r.instances[id]; ok {
		return instance, nil
	}

	instance := r.factories[id]()
	r.instances[id] = instance
	return instance, nil
}

// Evict drops the cached instance for an id so the next Resolve builds
// a fresh one. Used after Destroy.
func (r *Registry) Evict(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, id)
}
