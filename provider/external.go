package provider

import (
	"fmt"
	"math/big"
)

// parseBigInt reads a decimal integer amount from an external API, which
// providers serialize as strings to avoid JSON number precision loss.
func parseBigInt(raw string) (*big.Int, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty amount")
	}
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("malformed amount %q", raw)
	}
	return value, nil
}

// parseRat reads a decimal price from an external API. Returns nil for
// empty or malformed input; prices are advisory and never hard-fail a quote.
func parseRat(raw string) *big.Rat {
	if raw == "" {
		return nil
	}
	value, ok := new(big.Rat).SetString(raw)
	if !ok {
		return nil
	}
	return value
}

// formatSlippage renders basis points as the percentage string external
// quoting APIs expect, e.g. 50 bps -> "0.5".
func formatSlippage(bps uint16) string {
	return new(big.Rat).SetFrac64(int64(bps), 100).FloatString(2)
}
