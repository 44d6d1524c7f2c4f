package orchestrator

import (
	"context"
	"sort"

	engerrors "github.com/browzer-labs/browzer-agent/internal/errors"
	"github.com/browzer-labs/browzer-agent/internal/llm"
	"github.com/browzer-labs/browzer-agent/internal/observability"
)

// ProviderRegistry holds every configured LLM adapter by name and selects
// one by a simple rule: an explicit model name wins if registered,
// otherwise the orchestrator falls back to the first available provider
// (in deterministic, name-sorted order) and logs a warning.
type ProviderRegistry struct {
	providers map[string]llm.Provider
	log       *observability.Logger
}

// NewProviderRegistry builds a registry from the given adapters, keyed by
// their own Name().
func NewProviderRegistry(log *observability.Logger, providers ...llm.Provider) *ProviderRegistry {
	reg := &ProviderRegistry{providers: make(map[string]llm.Provider, len(providers)), log: log}
	for _, p := range providers {
		reg.providers[p.Name()] = p
	}
	return reg
}

// Select returns the provider registered under model, falling back to the
// first available provider (by name) if model is unregistered or empty.
func (r *ProviderRegistry) Select(ctx context.Context, model string) (llm.Provider, error) {
	if p, ok := r.providers[model]; ok {
		return p, nil
	}

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, engerrors.ErrNoProvider
	}
	sort.Strings(names)

	if model != "" && r.log != nil {
		r.log.Warn(ctx, "requested model not registered, falling back to first available provider", "requested_model", model, "fallback_provider", names[0])
	}
	return r.providers[names[0]], nil
}

// SelectWithFallback tries model, then fallbackModel, then (via Select)
// the first available provider.
func (r *ProviderRegistry) SelectWithFallback(ctx context.Context, model, fallbackModel string) (llm.Provider, error) {
	if p, ok := r.providers[model]; ok {
		return p, nil
	}
	if fallbackModel != "" {
		if p, ok := r.providers[fallbackModel]; ok {
			if r.log != nil {
				r.log.Warn(ctx, "requested model not registered, using configured fallback model", "requested_model", model, "fallback_model", fallbackModel)
			}
			return p, nil
		}
	}
	return r.Select(ctx, model)
}
