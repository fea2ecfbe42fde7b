package provider

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omniquote-labs/omniquote/config"
	"github.com/omniquote-labs/omniquote/gas"
	"github.com/omniquote-labs/omniquote/multicall"
	"github.com/omniquote-labs/omniquote/types"
)

const routerABI = `[{"inputs":[{"internalType":"uint256","name":"amountIn","type":"uint256"},{"internalType":"address[]","name":"path","type":"address[]"}],"name":"getAmountsOut","outputs":[{"internalType":"uint256[]","name":"amounts","type":"uint256[]"}],"stateMutability":"view","type":"function"}]`

// swapGasUnits approximates a two-hop router swap; exact usage depends on
// pool state and token transfer hooks.
const swapGasUnits = 150_000

var (
	swapRouterABI abi.ABI
	routerABIOnce sync.Once
)

func getRouterABI() abi.ABI {
	routerABIOnce.Do(func() {
		parsed, err := abi.JSON(strings.NewReader(routerABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse router ABI: %s", err.Error()))
		}
		swapRouterABI = parsed
	})
	return swapRouterABI
}

// Uniswap prices same-chain swaps directly against the on-chain router, so
// it works on any configured chain with a router address and never depends
// on an external quoting API.
type Uniswap struct {
	aggregators map[types.ChainID]*multicall.Aggregator
	chains      map[types.ChainID]*config.ChainConfig
	gasOracle   *gas.Oracle
	logger      *slog.Logger
}

func NewUniswap(
	aggregators map[types.ChainID]*multicall.Aggregator,
	chains map[types.ChainID]*config.ChainConfig,
	gasOracle *gas.Oracle,
	logger *slog.Logger,
) *Uniswap {
	return &Uniswap{
		aggregators: aggregators,
		chains:      chains,
		gasOracle:   gasOracle,
		logger:      logger.With("provider", string(types.ProviderUniswap)),
	}
}

func (u *Uniswap) Type() types.ProviderType { return types.ProviderUniswap }

func (u *Uniswap) General() bool { return true }

func (u *Uniswap) IsSupportedRoute(from, to types.Token) bool {
	if from.ChainID != to.ChainID {
		return false
	}
	cc, ok := u.chains[from.ChainID]
	if !ok || cc.SwapRouter == "" {
		return false
	}
	_, hasRPC := u.aggregators[from.ChainID]
	return hasRPC
}

func (u *Uniswap) Calculate(ctx context.Context, req *types.QuoteRequest) (*types.Trade, error) {
	chain := req.FromToken.ChainID
	cc := u.chains[chain]
	aggregator := u.aggregators[chain]

	path := swapPath(cc, req.FromToken, req.ToToken)
	if len(path) < 2 {
		// Native-to-wrapped and wrapped-to-native collapse to a
		// zero-hop path; the router has nothing to quote there.
		return nil, nil
	}

	input, err := getRouterABI().Pack("getAmountsOut", req.Amount, path)
	if err != nil {
		return nil, types.NewInternalError("failed to pack getAmountsOut", err)
	}

	results, err := aggregator.Read(ctx, []multicall.Call{
		multicall.NewCall(cc.SwapRouterAddress(), input),
	})
	if err != nil {
		return nil, err
	}
	if !results[0].Success || len(results[0].ReturnData) == 0 {
		// The router reverts when no pool exists for a hop.
		return nil, nil
	}

	unpacked, err := getRouterABI().Unpack("getAmountsOut", results[0].ReturnData)
	if err != nil {
		return nil, types.NewInternalError("failed to unpack getAmountsOut", err)
	}
	amounts := unpacked[0].([]*big.Int)
	outAmount := amounts[len(amounts)-1]
	if outAmount.Sign() <= 0 {
		return nil, nil
	}

	fee, err := u.networkFee(ctx, cc, chain)
	if err != nil {
		u.logger.Debug("gas price unavailable, omitting network fee",
			slog.String("chain", chain.String()), slog.Any("error", err))
		fee = nil
	}

	return &types.Trade{
		Provider:     types.ProviderUniswap,
		FromToken:    req.FromToken,
		ToToken:      req.ToToken,
		FromAmount:   new(big.Int).Set(req.Amount),
		ToAmount:     outAmount,
		Fee:          fee,
		EstimatedGas: swapGasUnits,
	}, nil
}

func (u *Uniswap) networkFee(ctx context.Context, cc *config.ChainConfig, chain types.ChainID) (*types.Fee, error) {
	gasPrice, err := u.gasOracle.GasPrice(ctx, chain)
	if err != nil {
		return nil, err
	}
	return &types.Fee{
		Token:  cc.NativeToken(),
		Amount: new(big.Int).Mul(gasPrice, big.NewInt(swapGasUnits)),
	}, nil
}

// swapPath maps the request pair onto router hop addresses. The native coin
// trades through its wrapped representation; an intermediate wrapped-native
// hop covers pairs without a direct pool.
func swapPath(cc *config.ChainConfig, from, to types.Token) []common.Address {
	wrapped := cc.WrappedNativeAddress()
	src := from.Address
	if from.IsNative() {
		src = wrapped
	}
	dst := to.Address
	if to.IsNative() {
		dst = wrapped
	}
	if src == dst {
		return nil
	}
	if src == wrapped || dst == wrapped {
		return []common.Address{src, dst}
	}
	return []common.Address{src, wrapped, dst}
}
