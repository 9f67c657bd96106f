package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/seenimoa/newspulse/pkg/models"
)

// Registry is a thread-safe registry of news sources keyed by provider name.
type Registry struct {
	mu      sync.RWMutex
	sources map[models.ProviderName]Source
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[models.ProviderName]Source)}
}

// Register adds a source. Duplicate registrations overwrite the previous entry.
func (r *Registry) Register(s Source) error {
	name := s.Info().Name
	if name == "" {
		return fmt.Errorf("provider name cannot be empty")
	}
	r.mu.Lock()
	r.sources[name] = s
	r.mu.Unlock()
	return nil
}

// Unregister removes a source.
func (r *Registry) Unregister(name models.ProviderName) {
	r.mu.Lock()
	delete(r.sources, name)
	r.mu.Unlock()
}

// Get returns a source by name, or *ErrProviderNotFound.
func (r *Registry) Get(name models.ProviderName) (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sources[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}
	return s, nil
}

// List returns info about all registered sources, sorted by name.
func (r *Registry) List() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ProviderInfo, 0, len(r.sources))
	for _, s := range r.sources {
		infos = append(infos, s.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []models.ProviderName {
	infos := r.List()
	names := make([]models.ProviderName, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names
}
