package gas

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/sync/singleflight"

	"github.com/omniquote-labs/omniquote/cache"
	"github.com/omniquote-labs/omniquote/rpc"
	"github.com/omniquote-labs/omniquote/types"
)

// Oracle serves current gas prices per chain. Prices are read via
// eth_gasPrice and held in a short-lived cache so concurrent quote
// calculations on the same chain share one node round trip.
type Oracle struct {
	batchers map[types.ChainID]*rpc.Batcher
	cache    *cache.TTLCache[types.ChainID, *big.Int]
	group    singleflight.Group
	logger   *slog.Logger
}

func NewOracle(batchers map[types.ChainID]*rpc.Batcher, ttl time.Duration, logger *slog.Logger) *Oracle {
	return &Oracle{
		batchers: batchers,
		cache:    cache.NewTTL[types.ChainID, *big.Int](len(batchers)+1, ttl),
		logger:   logger.With("module", "gas"),
	}
}

// GasPrice returns the chain's current gas price in wei.
func (o *Oracle) GasPrice(ctx context.Context, chain types.ChainID) (*big.Int, error) {
	if price, ok := o.cache.Get(chain); ok {
		return price, nil
	}

	result, err, _ := o.group.Do(chain.String(), func() (any, error) {
		if price, ok := o.cache.Get(chain); ok {
			return price, nil
		}
		price, err := o.fetch(ctx, chain)
		if err != nil {
			return nil, err
		}
		o.cache.Set(chain, price)
		return price, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*big.Int), nil
}

func (o *Oracle) fetch(ctx context.Context, chain types.ChainID) (*big.Int, error) {
	batcher, ok := o.batchers[chain]
	if !ok {
		return nil, types.NewValidationError("chain_id", "no rpc endpoints for chain "+chain.String())
	}
	raw, err := batcher.Call(ctx, "eth_gasPrice")
	if err != nil {
		return nil, err
	}
	price, err := hexutil.DecodeBig(raw)
	if err != nil {
		return nil, types.NewInternalError("node returned malformed gas price", err)
	}
	o.logger.Debug("fetched gas price",
		slog.String("chain", chain.String()),
		slog.String("price", price.String()))
	return price, nil
}
