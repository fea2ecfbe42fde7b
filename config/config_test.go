package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omniquote-labs/omniquote/types"
)

func TestLoadChainsBuiltInTable(t *testing.T) {
	chains, err := loadChains("")
	require.NoError(t, err)
	require.Contains(t, chains, types.ChainEthereum)
	require.Contains(t, chains, types.ChainPolygon)

	eth := chains[types.ChainEthereum]
	require.Equal(t, "ethereum", eth.Name)
	require.NotEmpty(t, eth.JsonRpcUrls)
	require.Equal(t, uint8(18), eth.NativeDecimals)
}

func TestLoadChainsOverrideMergesFields(t *testing.T) {
	raw := `[{"chain_id": 1, "json_rpc_urls": ["https://eth.internal.example"]}]`
	chains, err := loadChains(raw)
	require.NoError(t, err)

	eth := chains[types.ChainEthereum]
	require.Equal(t, []string{"https://eth.internal.example"}, eth.JsonRpcUrls)
	// untouched fields survive the merge
	require.Equal(t, "ETH", eth.NativeSymbol)
	require.NotEmpty(t, eth.WrappedNative)
}

func TestLoadChainsAddsUnknownChain(t *testing.T) {
	raw := `[{
		"chain_id": 59144,
		"name": "linea",
		"json_rpc_urls": ["https://rpc.linea.build"],
		"multicall": "0xcA11bde05977b3631167028862bE2a173976CA11",
		"native_symbol": "ETH",
		"native_decimals": 18
	}]`
	chains, err := loadChains(raw)
	require.NoError(t, err)
	require.Contains(t, chains, types.ChainID(59144))
	require.Equal(t, "linea", chains[types.ChainID(59144)].Name)
}

func TestLoadChainsRejectsBadJSON(t *testing.T) {
	_, err := loadChains(`{"not": "an array"}`)
	require.Error(t, err)
}

func TestChainConfigValidate(t *testing.T) {
	valid := ChainConfig{
		ChainID:        types.ChainEthereum,
		Name:           "ethereum",
		JsonRpcUrls:    []string{"https://eth.llamarpc.com"},
		Multicall:      multicall3Address,
		NativeSymbol:   "ETH",
		NativeDecimals: 18,
	}
	require.NoError(t, valid.Validate())

	noURLs := valid
	noURLs.JsonRpcUrls = nil
	require.Error(t, noURLs.Validate())

	badScheme := valid
	badScheme.JsonRpcUrls = []string{"ftp://eth.example"}
	require.Error(t, badScheme.Validate())

	badMulticall := valid
	badMulticall.Multicall = "not-an-address"
	require.Error(t, badMulticall.Validate())
}

func TestProviderConfigValidate(t *testing.T) {
	valid := ProviderConfig{
		Enabled:      []string{"uniswap", "lifi"},
		OpenOceanURL: DefaultOpenOceanURL,
		LiFiURL:      DefaultLiFiURL,
		SquidURL:     DefaultSquidURL,
	}
	require.NoError(t, valid.Validate())
	require.True(t, valid.IsEnabled(types.ProviderUniswap))
	require.False(t, valid.IsEnabled(types.ProviderSquid))

	unknown := valid
	unknown.Enabled = []string{"uniswap", "mystery"}
	require.Error(t, unknown.Validate())

	empty := valid
	empty.Enabled = nil
	require.Error(t, empty.Validate())

	badURL := valid
	badURL.LiFiURL = "ftp://li.quest"
	require.Error(t, badURL.Validate())
}

func TestGetLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
	}
	for raw, want := range cases {
		cfg := Config{logLevel: raw}
		require.Equal(t, want, cfg.GetLogLevel())
	}
}

func TestSplitList(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, splitList("a, b"))
	require.Equal(t, []string{"a"}, splitList("a,,"))
	require.Empty(t, splitList(""))
}
