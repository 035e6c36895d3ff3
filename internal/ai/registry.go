package ai

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ProviderFactory builds a provider bound to one model.
type ProviderFactory func(ctx context.Context, model string) (Provider, error)

// Registry maps backend names ("ollama", "openai") to provider factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ProviderFactory)}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *Registry) Register(name string, f ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[normalize(name)] = f
}

func (r *Registry) Get(ctx context.Context, name string, model string) (Provider, error) {
	name = normalize(name)
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown ai provider %q (registered: %s)", name, strings.Join(r.Names(), ", "))
	}
	return f(ctx, model)
}

// Names returns the registered backend names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
