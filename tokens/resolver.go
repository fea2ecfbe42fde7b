package tokens

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/singleflight"

	"github.com/omniquote-labs/omniquote/cache"
	"github.com/omniquote-labs/omniquote/config"
	"github.com/omniquote-labs/omniquote/multicall"
	"github.com/omniquote-labs/omniquote/types"
)

const erc20MetadataABI = `[{"inputs":[],"name":"symbol","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},{"inputs":[],"name":"name","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"}]`

var (
	erc20ABI     abi.ABI
	erc20ABIOnce sync.Once
)

func metadataABI() abi.ABI {
	erc20ABIOnce.Do(func() {
		parsed, err := abi.JSON(strings.NewReader(erc20MetadataABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse ERC-20 ABI: %s", err.Error()))
		}
		erc20ABI = parsed
	})
	return erc20ABI
}

// Resolver turns (chain, address) pairs into Token metadata. Contract reads
// go through one multicall per token and are cached without expiry; token
// metadata is immutable in practice. Concurrent lookups of the same token
// share a single in-flight read.
type Resolver struct {
	aggregators map[types.ChainID]*multicall.Aggregator
	chains      map[types.ChainID]*config.ChainConfig
	cache       *cache.Cache[string, types.Token]
	group       singleflight.Group
	logger      *slog.Logger
}

func NewResolver(
	aggregators map[types.ChainID]*multicall.Aggregator,
	chains map[types.ChainID]*config.ChainConfig,
	cacheSize int,
	logger *slog.Logger,
) *Resolver {
	return &Resolver{
		aggregators: aggregators,
		chains:      chains,
		cache:       cache.New[string, types.Token](cacheSize),
		logger:      logger.With("module", "tokens"),
	}
}

// Resolve returns full metadata for the token at the given address. The
// native token placeholder address resolves from static chain configuration
// and never touches the network.
func (r *Resolver) Resolve(ctx context.Context, chain types.ChainID, address common.Address) (types.Token, error) {
	cc, ok := r.chains[chain]
	if !ok {
		return types.Token{}, types.NewValidationError("chain_id", fmt.Sprintf("unsupported chain %d", chain))
	}
	if address == types.NativeTokenAddress || address == (common.Address{}) {
		return cc.NativeToken(), nil
	}

	key := fmt.Sprintf("%d:%s", chain, strings.ToLower(address.Hex()))
	if token, ok := r.cache.Get(key); ok {
		return token, nil
	}

	resolved, err, _ := r.group.Do(key, func() (any, error) {
		// Re-check under the flight: a concurrent caller may have filled
		// the cache between our miss and this closure running.
		if token, ok := r.cache.Get(key); ok {
			return token, nil
		}
		token, err := r.fetch(ctx, chain, address)
		if err != nil {
			return types.Token{}, err
		}
		r.cache.Set(key, token)
		return token, nil
	})
	if err != nil {
		return types.Token{}, err
	}
	return resolved.(types.Token), nil
}

func (r *Resolver) fetch(ctx context.Context, chain types.ChainID, address common.Address) (types.Token, error) {
	aggregator, ok := r.aggregators[chain]
	if !ok {
		return types.Token{}, types.NewValidationError("chain_id", fmt.Sprintf("no rpc endpoints for chain %d", chain))
	}

	erc20 := metadataABI()
	symbolData, _ := erc20.Pack("symbol")
	decimalsData, _ := erc20.Pack("decimals")
	nameData, _ := erc20.Pack("name")

	results, err := aggregator.Read(ctx, []multicall.Call{
		multicall.NewCall(address, symbolData),
		multicall.NewCall(address, decimalsData),
		multicall.NewCall(address, nameData),
	})
	if err != nil {
		return types.Token{}, err
	}

	// decimals is the one field amounts cannot be interpreted without.
	if !results[1].Success || len(results[1].ReturnData) == 0 {
		return types.Token{}, types.NewValidationError("token",
			fmt.Sprintf("%s on %s is not a readable ERC-20 contract", address.Hex(), chain.String()))
	}
	decoded, err := erc20.Unpack("decimals", results[1].ReturnData)
	if err != nil {
		return types.Token{}, types.NewValidationError("token",
			fmt.Sprintf("%s on %s returned malformed decimals", address.Hex(), chain.String()))
	}
	decimals := decoded[0].(uint8)

	token := types.Token{
		ChainID:  chain,
		Address:  address,
		Symbol:   decodeString(erc20, "symbol", results[0]),
		Name:     decodeString(erc20, "name", results[2]),
		Decimals: decimals,
	}
	if token.Symbol == "" {
		r.logger.Debug("token has no readable symbol", slog.String("address", address.Hex()))
		token.Symbol = "UNKNOWN"
	}
	r.logger.Debug("resolved token",
		slog.String("address", address.Hex()),
		slog.String("symbol", token.Symbol),
		slog.Int("decimals", int(decimals)))
	return token, nil
}

// decodeString unpacks a string return, tolerating the pre-standard tokens
// that declare symbol and name as bytes32.
func decodeString(erc20 abi.ABI, method string, res multicall.Result) string {
	if !res.Success || len(res.ReturnData) == 0 {
		return ""
	}
	decoded, err := erc20.Unpack(method, res.ReturnData)
	if err == nil {
		return decoded[0].(string)
	}
	if len(res.ReturnData) == 32 {
		return string(bytes.TrimRight(res.ReturnData, "\x00"))
	}
	return ""
}
