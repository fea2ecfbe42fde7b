package config

import (
	"fmt"
	"net/url"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omniquote-labs/omniquote/types"
)

// multicall3Address is identical on every chain in the built-in table.
const multicall3Address = "0xcA11bde05977b3631167028862bE2a173976CA11"

type ChainConfig struct {
	ChainID        types.ChainID `json:"chain_id"`
	Name           string        `json:"name"`
	JsonRpcUrls    []string      `json:"json_rpc_urls"`
	Multicall      string        `json:"multicall"`
	NativeSymbol   string        `json:"native_symbol"`
	NativeDecimals uint8         `json:"native_decimals"`
	WrappedNative  string        `json:"wrapped_native"`
	// SwapRouter is the UniswapV2-compatible router used by the on-chain
	// quote provider; empty disables that provider for the chain.
	SwapRouter string `json:"swap_router"`
}

// defaultChains is the built-in chain table; entries can be overridden or
// extended through the CHAINS environment variable.
var defaultChains = map[types.ChainID]*ChainConfig{
	types.ChainEthereum: {
		ChainID:        types.ChainEthereum,
		Name:           "ethereum",
		JsonRpcUrls:    []string{"https://eth.llamarpc.com", "https://rpc.ankr.com/eth"},
		Multicall:      multicall3Address,
		NativeSymbol:   "ETH",
		NativeDecimals: 18,
		WrappedNative:  "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		SwapRouter:     "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D",
	},
	types.ChainBSC: {
		ChainID:        types.ChainBSC,
		Name:           "bsc",
		JsonRpcUrls:    []string{"https://binance.llamarpc.com", "https://rpc.ankr.com/bsc"},
		Multicall:      multicall3Address,
		NativeSymbol:   "BNB",
		NativeDecimals: 18,
		WrappedNative:  "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c",
		SwapRouter:     "0x10ED43C718714eb63d5aA57B78B54704E256024E",
	},
	types.ChainPolygon: {
		ChainID:        types.ChainPolygon,
		Name:           "polygon",
		JsonRpcUrls:    []string{"https://polygon-rpc.com", "https://rpc.ankr.com/polygon"},
		Multicall:      multicall3Address,
		NativeSymbol:   "POL",
		NativeDecimals: 18,
		WrappedNative:  "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270",
		SwapRouter:     "0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff",
	},
	types.ChainArbitrum: {
		ChainID:        types.ChainArbitrum,
		Name:           "arbitrum",
		JsonRpcUrls:    []string{"https://arb1.arbitrum.io/rpc", "https://rpc.ankr.com/arbitrum"},
		Multicall:      multicall3Address,
		NativeSymbol:   "ETH",
		NativeDecimals: 18,
		WrappedNative:  "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1",
	},
	types.ChainAvalanche: {
		ChainID:        types.ChainAvalanche,
		Name:           "avalanche",
		JsonRpcUrls:    []string{"https://api.avax.network/ext/bc/C/rpc", "https://rpc.ankr.com/avalanche"},
		Multicall:      multicall3Address,
		NativeSymbol:   "AVAX",
		NativeDecimals: 18,
		WrappedNative:  "0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7",
		SwapRouter:     "0x60aE616a2155Ee3d9A68541Ba4544862310933d4",
	},
}

// Merge overlays the non-empty fields of other onto cc.
func (cc *ChainConfig) Merge(other *ChainConfig) {
	if other.Name != "" {
		cc.Name = other.Name
	}
	if len(other.JsonRpcUrls) > 0 {
		cc.JsonRpcUrls = other.JsonRpcUrls
	}
	if other.Multicall != "" {
		cc.Multicall = other.Multicall
	}
	if other.NativeSymbol != "" {
		cc.NativeSymbol = other.NativeSymbol
	}
	if other.NativeDecimals != 0 {
		cc.NativeDecimals = other.NativeDecimals
	}
	if other.WrappedNative != "" {
		cc.WrappedNative = other.WrappedNative
	}
	if other.SwapRouter != "" {
		cc.SwapRouter = other.SwapRouter
	}
}

func (cc ChainConfig) Validate() error {
	if cc.ChainID == 0 {
		return types.NewValidationError("CHAIN_ID", "required field is missing")
	}
	if len(cc.JsonRpcUrls) == 0 {
		return types.NewValidationError("JSON_RPC_URLS", fmt.Sprintf("required for chain %s", cc.Name))
	}
	for _, raw := range cc.JsonRpcUrls {
		u, err := url.Parse(raw)
		if err != nil {
			return types.NewInvalidValueError("JSON_RPC_URLS", raw, fmt.Sprintf("invalid URL: %v", err))
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return types.NewInvalidValueError("JSON_RPC_URLS", raw, fmt.Sprintf("must use http or https scheme, got: %s", u.Scheme))
		}
	}
	if !common.IsHexAddress(cc.Multicall) {
		return types.NewInvalidValueError("MULTICALL", cc.Multicall, "must be a hex contract address")
	}
	if cc.WrappedNative != "" && !common.IsHexAddress(cc.WrappedNative) {
		return types.NewInvalidValueError("WRAPPED_NATIVE", cc.WrappedNative, "must be a hex contract address")
	}
	if cc.SwapRouter != "" && !common.IsHexAddress(cc.SwapRouter) {
		return types.NewInvalidValueError("SWAP_ROUTER", cc.SwapRouter, "must be a hex contract address")
	}
	if cc.NativeDecimals == 0 {
		return types.NewValidationError("NATIVE_DECIMALS", fmt.Sprintf("required for chain %s", cc.Name))
	}
	return nil
}

// MulticallAddress returns the parsed Multicall3 contract address.
func (cc ChainConfig) MulticallAddress() common.Address {
	return common.HexToAddress(cc.Multicall)
}

// WrappedNativeAddress returns the parsed wrapped-native token address.
func (cc ChainConfig) WrappedNativeAddress() common.Address {
	return common.HexToAddress(cc.WrappedNative)
}

// SwapRouterAddress returns the parsed router address.
func (cc ChainConfig) SwapRouterAddress() common.Address {
	return common.HexToAddress(cc.SwapRouter)
}

// NativeToken returns the chain's native coin as a Token value.
func (cc ChainConfig) NativeToken() types.Token {
	return types.Token{
		ChainID:  cc.ChainID,
		Address:  types.NativeTokenAddress,
		Symbol:   cc.NativeSymbol,
		Decimals: cc.NativeDecimals,
	}
}
