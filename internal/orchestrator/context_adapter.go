package orchestrator

import (
	"context"

	"github.com/browzer-labs/browzer-agent/internal/browsercontext"
	"github.com/browzer-labs/browzer-agent/internal/react"
	"github.com/browzer-labs/browzer-agent/pkg/models"
)

// contextProviderAdapter satisfies react.ContextProvider over a concrete
// *browsercontext.Provider. The two packages declare structurally similar
// but distinct option types (react.ContextOptions avoids importing
// browsercontext to keep the dependency graph acyclic), so a thin adapter
// translates between them rather than one package importing the other's
// full Options shape.
type contextProviderAdapter struct {
	prov *browsercontext.Provider
}

func newContextProviderAdapter(prov *browsercontext.Provider) react.ContextProvider {
	return contextProviderAdapter{prov: prov}
}

func (a contextProviderAdapter) GetContext(ctx context.Context, opts react.ContextOptions) *models.BrowserContext {
	return a.prov.GetContext(ctx, browsercontext.Options{
		IncludePrunedDOM:   opts.IncludePrunedDOM,
		IncludeConsoleLogs: opts.IncludeConsoleLogs,
		MaxElements:        opts.MaxElements,
		MaxConsoleEntries:  opts.MaxConsoleEntries,
	})
}

// lightweightContext builds a lightweight browser context (pruned DOM only,
// up to 20 elements) used only to estimate tokens before compression, never
// passed to the ReAct Engine itself.
func lightweightContext(ctx context.Context, prov *browsercontext.Provider) *models.BrowserContext {
	if prov == nil {
		return nil
	}
	return prov.GetContext(ctx, browsercontext.Options{
		IncludePrunedDOM: true,
		MaxElements:      20,
	})
}
