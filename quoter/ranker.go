package quoter

import (
	"log/slog"
	"math/big"
	"sort"

	"github.com/omniquote-labs/omniquote/types"
)

// Rank orders quotes from best to worst deal. Successful quotes are compared
// by effective cost per unit of output, cheapest first, with a stable sort so
// equally priced quotes keep their incoming order. Failed and no-route quotes
// sort after every success; their relative order among themselves carries no
// meaning and callers must not depend on it.
func Rank(quotes []types.Quote, logger *slog.Logger) []types.Quote {
	type entry struct {
		quote types.Quote
		cost  *big.Rat
	}

	ref := referencePrice(quotes)
	entries := make([]entry, len(quotes))
	for i, q := range quotes {
		entries[i] = entry{quote: q}
		if q.Succeeded() {
			entries[i].cost = effectiveCostPerUnit(q.Trade, ref, logger)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		iOK, jOK := entries[i].quote.Succeeded(), entries[j].quote.Succeeded()
		if iOK != jOK {
			return iOK
		}
		if !iOK {
			return false
		}
		if entries[i].cost == nil || entries[j].cost == nil {
			// An uncostable success sorts after costable ones.
			return entries[i].cost != nil && entries[j].cost == nil
		}
		return entries[i].cost.Cmp(entries[j].cost) < 0
	})

	ranked := make([]types.Quote, len(entries))
	for i, e := range entries {
		ranked[i] = e.quote
	}
	return ranked
}

// referencePrice picks the source token price used to express every quote's
// cost in one unit. The first success reporting a price wins; when no quote
// carries one, a unit price still yields a correct relative ordering because
// all quotes spend the identical input amount.
func referencePrice(quotes []types.Quote) *big.Rat {
	for _, q := range quotes {
		if q.Succeeded() && q.Trade.FromTokenPrice != nil {
			return q.Trade.FromTokenPrice
		}
	}
	return big.NewRat(1, 1)
}

// effectiveCostPerUnit values the trade's total spend, input plus any fixed
// fee, and divides by the output amount. All amounts are normalized to whole
// tokens so decimals never skew the comparison. Returns nil when the trade
// cannot be costed.
func effectiveCostPerUnit(t *types.Trade, ref *big.Rat, logger *slog.Logger) *big.Rat {
	toWhole := wholeAmount(t.ToAmount, t.ToToken.Decimals)
	if toWhole == nil || toWhole.Sign() <= 0 {
		return nil
	}

	fromWhole := wholeAmount(t.FromAmount, t.FromToken.Decimals)
	if fromWhole == nil {
		return nil
	}
	cost := new(big.Rat).Mul(fromWhole, ref)

	if t.Fee != nil && t.Fee.Amount != nil && t.Fee.Amount.Sign() > 0 {
		price := t.Fee.TokenPrice
		if price == nil && t.Fee.Token.Equal(t.FromToken) {
			price = ref
		}
		if price == nil {
			logger.Debug("fee token has no price, fee excluded from ranking",
				slog.String("provider", string(t.Provider)),
				slog.String("fee_token", t.Fee.Token.Symbol))
		} else {
			feeWhole := wholeAmount(t.Fee.Amount, t.Fee.Token.Decimals)
			if feeWhole != nil {
				cost.Add(cost, new(big.Rat).Mul(feeWhole, price))
			}
		}
	}

	return cost.Quo(cost, toWhole)
}

// wholeAmount converts a smallest-unit integer amount to whole tokens.
func wholeAmount(amount *big.Int, decimals uint8) *big.Rat {
	if amount == nil {
		return nil
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Rat).SetFrac(amount, scale)
}
