package types

import (
	"math/big"
)

// ProviderType tags a quote provider integration.
type ProviderType string

const (
	ProviderUniswap   ProviderType = "uniswap"
	ProviderOpenOcean ProviderType = "openocean"
	ProviderLiFi      ProviderType = "lifi"
	ProviderSquid     ProviderType = "squid"
)

// QuoteRequest describes one swap or bridge calculation. Amount is given in
// the source token's smallest unit.
type QuoteRequest struct {
	FromToken Token
	ToToken   Token
	Amount    *big.Int
	// DisabledProviders are excluded from selection for this request only.
	DisabledProviders []ProviderType
	// SlippageBps is forwarded to providers that accept a slippage tolerance.
	SlippageBps uint16
}

// Fee is a fixed cost a provider charges on top of the swapped amount,
// possibly denominated in a third asset (typically the native coin).
type Fee struct {
	Token  Token
	Amount *big.Int
	// TokenPrice is the price of one whole fee token in the provider's
	// reference unit, when the provider reports one.
	TokenPrice *big.Rat
}

// Trade is a computed candidate route, not yet signed or submitted.
type Trade struct {
	Provider   ProviderType
	FromToken  Token
	ToToken    Token
	FromAmount *big.Int
	ToAmount   *big.Int
	Fee        *Fee
	// FromTokenPrice is the price of one whole source token in the
	// provider's reference unit, when the provider reports one.
	FromTokenPrice *big.Rat
	EstimatedGas   uint64
}

// Quote is the outcome of one provider's calculation. Trade is nil when the
// provider found no viable route or failed; Err carries the reason in the
// failure case and is nil for a plain "no route" outcome.
type Quote struct {
	Provider ProviderType
	Trade    *Trade
	Err      error
}

// Succeeded reports whether the quote carries a usable trade.
func (q Quote) Succeeded() bool {
	return q.Trade != nil && q.Err == nil
}
