package provider

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/omniquote-labs/omniquote/config"
	"github.com/omniquote-labs/omniquote/types"
)

var testChainCfg = &config.ChainConfig{
	ChainID:       types.ChainEthereum,
	WrappedNative: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
	SwapRouter:    "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D",
}

func token(addr string) types.Token {
	return types.Token{ChainID: types.ChainEthereum, Address: common.HexToAddress(addr)}
}

func TestSwapPathRoutesThroughWrappedNative(t *testing.T) {
	usdc := token("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	dai := token("0x6B175474E89094C44Da98b954EedeAC495271d0F")

	path := swapPath(testChainCfg, usdc, dai)
	require.Len(t, path, 3)
	require.Equal(t, usdc.Address, path[0])
	require.Equal(t, testChainCfg.WrappedNativeAddress(), path[1])
	require.Equal(t, dai.Address, path[2])
}

func TestSwapPathNativeUsesWrapped(t *testing.T) {
	native := types.Token{ChainID: types.ChainEthereum, Address: types.NativeTokenAddress}
	usdc := token("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")

	path := swapPath(testChainCfg, native, usdc)
	require.Len(t, path, 2)
	require.Equal(t, testChainCfg.WrappedNativeAddress(), path[0])
	require.Equal(t, usdc.Address, path[1])
}

func TestSwapPathNativeToWrappedIsEmpty(t *testing.T) {
	native := types.Token{ChainID: types.ChainEthereum, Address: types.NativeTokenAddress}
	weth := token(testChainCfg.WrappedNative)

	require.Empty(t, swapPath(testChainCfg, native, weth))
}

func TestUniswapRouteSupport(t *testing.T) {
	chains := map[types.ChainID]*config.ChainConfig{types.ChainEthereum: testChainCfg}
	u := NewUniswap(nil, chains, nil, discardLogger())

	usdc := token("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	dai := token("0x6B175474E89094C44Da98b954EedeAC495271d0F")

	// No aggregator registered for the chain.
	require.False(t, u.IsSupportedRoute(usdc, dai))

	crossChain := dai
	crossChain.ChainID = types.ChainBSC
	require.False(t, u.IsSupportedRoute(usdc, crossChain))
}
