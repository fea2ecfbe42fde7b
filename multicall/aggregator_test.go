package multicall

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/omniquote-labs/omniquote/config"
	"github.com/omniquote-labs/omniquote/rpc"
	"github.com/omniquote-labs/omniquote/types"
	"github.com/omniquote-labs/omniquote/util"
)

func init() {
	cfg := &config.Config{}
	cfg.SetMaxConcurrentRequests(16)
	util.InitLimiter(cfg)
}

var (
	contractAddr = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")
	holderA      = common.HexToAddress("0x1111111111111111111111111111111111111111")
	holderB      = common.HexToAddress("0x2222222222222222222222222222222222222222")
	targetX      = common.HexToAddress("0x3333333333333333333333333333333333333333")
	targetY      = common.HexToAddress("0x4444444444444444444444444444444444444444")
)

func newTestAggregator(url string) *Aggregator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	batcher := rpc.NewBatcher(types.ChainEthereum, []string{url}, &fiber.Client{}, 5*time.Second, logger)
	return NewAggregator(batcher, contractAddr, logger)
}

// packAggregateOutput encodes a tryAggregate return value the way a node
// would report it.
func packAggregateOutput(t *testing.T, results []aggregateResult) string {
	t.Helper()
	packed, err := contractABI().Methods["tryAggregate"].Outputs.Pack(results)
	require.NoError(t, err)
	return util.BytesToHexWithPrefix(packed)
}

// serveNode answers eth_call with the given aggregate output and
// eth_getBalance with a per-holder balance.
func serveNode(t *testing.T, aggregateHex string, balances map[common.Address]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var requests []types.JSONRPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&requests))

		responses := make([]types.JSONRPCResponse, 0, len(requests))
		for _, req := range requests {
			resp := types.JSONRPCResponse{JSONRPC: "2.0", ID: req.ID}
			switch req.Method {
			case "eth_call":
				resp.Result = aggregateHex
			case "eth_getBalance":
				holder := common.HexToAddress(req.Params[0].(string))
				resp.Result = balances[holder]
			default:
				resp.Error = &types.JSONRPCError{Code: -32601, Message: "method not found"}
			}
			responses = append(responses, resp)
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(responses))
	}))
}

func TestReadSplicesBalancesAtOriginalIndices(t *testing.T) {
	aggregateHex := packAggregateOutput(t, []aggregateResult{
		{Success: true, ReturnData: []byte{0xaa}},
		{Success: false},
	})
	server := serveNode(t, aggregateHex, map[common.Address]string{
		holderA: "0x5",
		holderB: "0x7",
	})
	defer server.Close()

	a := newTestAggregator(server.URL)
	results, err := a.Read(context.Background(), []Call{
		NewBalanceCall(holderA),
		NewCall(targetX, []byte{0x01}),
		NewBalanceCall(holderB),
		NewCall(targetY, []byte{0x02}),
	})
	require.NoError(t, err)
	require.Len(t, results, 4)

	require.True(t, results[0].Success)
	require.Equal(t, big.NewInt(5), new(big.Int).SetBytes(results[0].ReturnData))
	require.Len(t, results[0].ReturnData, 32)

	require.True(t, results[1].Success)
	require.Equal(t, []byte{0xaa}, results[1].ReturnData)

	require.True(t, results[2].Success)
	require.Equal(t, big.NewInt(7), new(big.Int).SetBytes(results[2].ReturnData))

	require.False(t, results[3].Success)
}

func TestReadContractCallsOnly(t *testing.T) {
	aggregateHex := packAggregateOutput(t, []aggregateResult{
		{Success: true, ReturnData: common.LeftPadBytes(big.NewInt(42).Bytes(), 32)},
	})
	server := serveNode(t, aggregateHex, nil)
	defer server.Close()

	a := newTestAggregator(server.URL)
	results, err := a.Read(context.Background(), []Call{
		NewCall(targetX, []byte{0x01}),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].Success)
	require.Equal(t, int64(42), new(big.Int).SetBytes(results[0].ReturnData).Int64())
}

func TestReadEmptyInput(t *testing.T) {
	a := newTestAggregator("http://unused")
	results, err := a.Read(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, results)
}

func TestReadEnvelopeRejectionFailsWholeRead(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body) //nolint:errcheck
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(types.JSONRPCErrorResponse{
			JSONRPC: "2.0",
			Error:   &types.JSONRPCError{Code: -32600, Message: "invalid request"},
		})
	}))
	defer server.Close()

	a := newTestAggregator(server.URL)
	_, err := a.Read(context.Background(), []Call{NewCall(targetX, []byte{0x01})})
	require.Error(t, err)
	require.True(t, types.IsErrorType(err, types.ErrTypeTransport))
}
