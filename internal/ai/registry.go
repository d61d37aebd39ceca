package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ProviderFactory builds a provider for a model selector; an empty model means
// the provider's configured default.
type ProviderFactory func(ctx context.Context, model string) (Provider, error)

// UnknownProviderError is returned for a provider name nobody registered.
type UnknownProviderError struct {
	Name  string
	Known []string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown ai provider %q (registered: %s)", e.Name, strings.Join(e.Known, ", "))
}

// Registry maps provider names (case-insensitive) to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ProviderFactory)}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *Registry) Register(name string, f ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[normalizeName(name)] = f
}

// Names lists registered providers, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for n := range r.factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Check reports an *UnknownProviderError when name is not registered.
func (r *Registry) Check(name string) error {
	r.mu.RLock()
	_, ok := r.factories[normalizeName(name)]
	r.mu.RUnlock()
	if !ok {
		return &UnknownProviderError{Name: name, Known: r.Names()}
	}
	return nil
}

// Get builds the named provider for model.
func (r *Registry) Get(ctx context.Context, name string, model string) (Provider, error) {
	r.mu.RLock()
	f, ok := r.factories[normalizeName(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownProviderError{Name: name, Known: r.Names()}
	}
	p, err := f(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("build %s provider: %w", normalizeName(name), err)
	}
	return p, nil
}
