package provider

import (
	"context"

	"github.com/omniquote-labs/omniquote/types"
)

// Provider computes trade candidates for swap and bridge requests.
type Provider interface {
	Type() types.ProviderType
	// General reports whether the provider offers broad route coverage.
	// When a specialized provider supports a route, general providers that
	// also support it are left out of the calculation for that request.
	General() bool
	// IsSupportedRoute reports, without network access, whether the
	// provider can in principle serve the given token pair.
	IsSupportedRoute(from, to types.Token) bool
	// Calculate computes one trade candidate. A nil trade with a nil error
	// means the provider found no viable route; that is an ordinary
	// outcome, not a failure.
	Calculate(ctx context.Context, req *types.QuoteRequest) (*types.Trade, error)
}

// Registry holds all constructed providers. It is populated once during
// startup and read-only afterwards, so lookups need no locking.
type Registry struct {
	providers map[types.ProviderType]Provider
	order     []types.ProviderType
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[types.ProviderType]Provider)}
}

// Register adds a provider. Registering the same type twice replaces the
// earlier instance but keeps its position.
func (r *Registry) Register(p Provider) {
	if _, exists := r.providers[p.Type()]; !exists {
		r.order = append(r.order, p.Type())
	}
	r.providers[p.Type()] = p
}

func (r *Registry) Get(t types.ProviderType) (Provider, bool) {
	p, ok := r.providers[t]
	return p, ok
}

// All returns providers in registration order. The slice is freshly
// allocated; callers may filter it in place.
func (r *Registry) All() []Provider {
	out := make([]Provider, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.providers[t])
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.providers)
}
