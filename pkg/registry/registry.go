// Package registry holds the fake-data providers a recipe can call by name.
package registry

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/aretw0/seedbed/pkg/ports"
)

// Provider produces one value. It must draw randomness only from rnd so that
// a recipe plus a seed stays reproducible.
type Provider func(ctx context.Context, rnd ports.RandomSource, params map[string]any) (any, error)

// Registry manages the available providers.
// Lookups ignore case, underscores, and dashes: "FirstName", "first_name"
// and "first-name" name the same provider.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	names     map[string]string
}

var _ ports.ProviderRegistry = (*Registry)(nil)

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		names:     make(map[string]string),
	}
}

// Register adds a provider to the registry.
// If a provider with the same normalized name exists, it is overwritten.
func (r *Registry) Register(name string, fn Provider) {
	key := Normalize(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[key] = fn
	r.names[key] = name
}

// Has reports whether a provider is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[Normalize(name)]
	return ok
}

// Call looks up a provider by name and executes it.
// Returns *domain.UnknownProviderError if the provider is not found.
func (r *Registry) Call(ctx context.Context, name string, rnd ports.RandomSource, params map[string]any) (any, error) {
	r.mu.RLock()
	fn, ok := r.providers[Normalize(name)]
	r.mu.RUnlock()

	if !ok {
		return nil, &domain.UnknownProviderError{Name: name}
	}
	return fn(ctx, rnd, params)
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Normalize folds a provider name to its lookup key.
func Normalize(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r == '_' || r == '-' || r == ' ' {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
