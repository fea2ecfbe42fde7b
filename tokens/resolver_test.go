package tokens

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/omniquote-labs/omniquote/config"
	"github.com/omniquote-labs/omniquote/multicall"
	"github.com/omniquote-labs/omniquote/rpc"
	"github.com/omniquote-labs/omniquote/types"
	"github.com/omniquote-labs/omniquote/util"
)

func init() {
	cfg := &cfgpkg.Config{}
	cfg.SetMaxConcurrentRequests(16)
	util.InitLimiter(cfg)
}

const tryAggregateABI = `[{"inputs":[{"internalType":"bool","name":"requireSuccess","type":"bool"},{"components":[{"internalType":"address","name":"target","type":"address"},{"internalType":"bytes","name":"callData","type":"bytes"}],"internalType":"struct Multicall3.Call[]","name":"calls","type":"tuple[]"}],"name":"tryAggregate","outputs":[{"components":[{"internalType":"bool","name":"success","type":"bool"},{"internalType":"bytes","name":"returnData","type":"bytes"}],"internalType":"struct Multicall3.Result[]","name":"returnData","type":"tuple[]"}],"stateMutability":"payable","type":"function"}]`

type callResult struct {
	Success    bool
	ReturnData []byte
}

var usdcAddr = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")

// erc20Node serves tryAggregate answers describing a USDC-like token and
// counts how many eth_call round trips it saw.
func erc20Node(t *testing.T, callCount *atomic.Int32) *httptest.Server {
	t.Helper()
	mcABI, err := abi.JSON(strings.NewReader(tryAggregateABI))
	require.NoError(t, err)

	erc20 := metadataABI()
	symbolData, err := erc20.Methods["symbol"].Outputs.Pack("USDC")
	require.NoError(t, err)
	decimalsData, err := erc20.Methods["decimals"].Outputs.Pack(uint8(6))
	require.NoError(t, err)
	nameData, err := erc20.Methods["name"].Outputs.Pack("USD Coin")
	require.NoError(t, err)

	packed, err := mcABI.Methods["tryAggregate"].Outputs.Pack([]callResult{
		{Success: true, ReturnData: symbolData},
		{Success: true, ReturnData: decimalsData},
		{Success: true, ReturnData: nameData},
	})
	require.NoError(t, err)
	resultHex := util.BytesToHexWithPrefix(packed)

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var requests []types.JSONRPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&requests))

		responses := make([]types.JSONRPCResponse, 0, len(requests))
		for _, req := range requests {
			callCount.Add(1)
			responses = append(responses, types.JSONRPCResponse{
				JSONRPC: "2.0",
				ID:      req.ID,
				Result:  resultHex,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(responses))
	}))
}

func newTestResolver(url string) *Resolver {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	batcher := rpc.NewBatcher(types.ChainEthereum, []string{url}, &fiber.Client{}, 5*time.Second, logger)
	aggregator := multicall.NewAggregator(batcher, common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11"), logger)

	chains := map[types.ChainID]*cfgpkg.ChainConfig{
		types.ChainEthereum: {
			ChainID:        types.ChainEthereum,
			Name:           "Ethereum",
			NativeSymbol:   "ETH",
			NativeDecimals: 18,
		},
	}
	return NewResolver(
		map[types.ChainID]*multicall.Aggregator{types.ChainEthereum: aggregator},
		chains, 128, logger)
}

func TestResolveReadsContractMetadata(t *testing.T) {
	var calls atomic.Int32
	server := erc20Node(t, &calls)
	defer server.Close()

	r := newTestResolver(server.URL)
	token, err := r.Resolve(context.Background(), types.ChainEthereum, usdcAddr)
	require.NoError(t, err)
	require.Equal(t, "USDC", token.Symbol)
	require.Equal(t, "USD Coin", token.Name)
	require.Equal(t, uint8(6), token.Decimals)
	require.Equal(t, types.ChainEthereum, token.ChainID)
}

func TestResolveCachesMetadata(t *testing.T) {
	var calls atomic.Int32
	server := erc20Node(t, &calls)
	defer server.Close()

	r := newTestResolver(server.URL)
	_, err := r.Resolve(context.Background(), types.ChainEthereum, usdcAddr)
	require.NoError(t, err)
	first := calls.Load()

	_, err = r.Resolve(context.Background(), types.ChainEthereum, usdcAddr)
	require.NoError(t, err)
	require.Equal(t, first, calls.Load())
}

func TestResolveDeduplicatesConcurrentLookups(t *testing.T) {
	var calls atomic.Int32
	server := erc20Node(t, &calls)
	defer server.Close()

	r := newTestResolver(server.URL)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := r.Resolve(context.Background(), types.ChainEthereum, usdcAddr)
			require.NoError(t, err)
			require.Equal(t, "USDC", token.Symbol)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
}

func TestResolveNativeTokenNeedsNoNetwork(t *testing.T) {
	r := newTestResolver("http://unreachable")
	token, err := r.Resolve(context.Background(), types.ChainEthereum, types.NativeTokenAddress)
	require.NoError(t, err)
	require.Equal(t, "ETH", token.Symbol)
	require.Equal(t, uint8(18), token.Decimals)
	require.True(t, token.IsNative())
}

func TestResolveUnknownChain(t *testing.T) {
	r := newTestResolver("http://unreachable")
	_, err := r.Resolve(context.Background(), types.ChainID(999999), usdcAddr)
	require.True(t, types.IsErrorType(err, types.ErrTypeValidation))
}
