package ports

import "context"

// ProviderRegistry resolves fake provider calls.
// Implementations return *domain.UnknownProviderError for unregistered names.
type ProviderRegistry interface {
	Call(ctx context.Context, name string, rnd RandomSource, params map[string]any) (any, error)
	Names() []string
}
