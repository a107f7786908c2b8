// Package services lets modules expose typed services to each other without
// importing one another.
package services

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps service names to implementations. Modules register their
// public service during Init; consumers look them up when they need them,
// so registration order between modules does not matter.
type Registry struct {
	mu       sync.RWMutex
	services map[string]interface{}
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{services: make(map[string]interface{})}
}

// Register stores service under name, replacing any earlier entry
func Register[T any](r *Registry, name string, service T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.services[name] = service
}

// Get retrieves a service by name with type safety
func Get[T any](r *Registry, name string) (T, error) {
	var zero T
	if r == nil {
		return zero, fmt.Errorf("service '%s' not found: no registry", name)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	service, exists := r.services[name]
	if !exists {
		return zero, fmt.Errorf("service '%s' not found", name)
	}

	typed, ok := service.(T)
	if !ok {
		return zero, fmt.Errorf("service '%s' has wrong type", name)
	}
	return typed, nil
}

// Names returns all registered service names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
