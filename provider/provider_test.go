package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omniquote-labs/omniquote/types"
)

type stubProvider struct {
	typ types.ProviderType
}

func (s stubProvider) Type() types.ProviderType                          { return s.typ }
func (s stubProvider) General() bool                                     { return false }
func (s stubProvider) IsSupportedRoute(from, to types.Token) bool        { return true }
func (s stubProvider) Calculate(context.Context, *types.QuoteRequest) (*types.Trade, error) {
	return nil, nil
}

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(stubProvider{typ: types.ProviderSquid})
	r.Register(stubProvider{typ: types.ProviderUniswap})
	r.Register(stubProvider{typ: types.ProviderLiFi})

	all := r.All()
	require.Len(t, all, 3)
	require.Equal(t, types.ProviderSquid, all[0].Type())
	require.Equal(t, types.ProviderUniswap, all[1].Type())
	require.Equal(t, types.ProviderLiFi, all[2].Type())
}

func TestRegistryReplaceKeepsPosition(t *testing.T) {
	r := NewRegistry()
	first := stubProvider{typ: types.ProviderLiFi}
	r.Register(first)
	r.Register(stubProvider{typ: types.ProviderSquid})

	replacement := stubProvider{typ: types.ProviderLiFi}
	r.Register(replacement)

	all := r.All()
	require.Len(t, all, 2)
	require.Equal(t, types.ProviderLiFi, all[0].Type())
	require.Equal(t, 2, r.Len())
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()
	r.Register(stubProvider{typ: types.ProviderUniswap})

	_, ok := r.Get(types.ProviderUniswap)
	require.True(t, ok)
	_, ok = r.Get(types.ProviderSquid)
	require.False(t, ok)
}
