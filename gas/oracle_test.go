package gas

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

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

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// gasNode answers every eth_gasPrice batch with the given hex price and
// counts round trips.
func gasNode(t *testing.T, price string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var requests []types.JSONRPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&requests))
		responses := make([]types.JSONRPCResponse, 0, len(requests))
		for _, req := range requests {
			responses = append(responses, types.JSONRPCResponse{
				JSONRPC: "2.0",
				ID:      req.ID,
				Result:  price,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(responses))
	}))
}

func newTestOracle(url string, ttl time.Duration) *Oracle {
	batchers := map[types.ChainID]*rpc.Batcher{
		types.ChainEthereum: rpc.NewBatcher(types.ChainEthereum, []string{url}, &fiber.Client{}, 5*time.Second, testLogger()),
	}
	return NewOracle(batchers, ttl, testLogger())
}

func TestGasPriceFetchesAndCaches(t *testing.T) {
	var calls atomic.Int32
	server := gasNode(t, "0x3b9aca00", &calls) // 1 gwei
	defer server.Close()

	oracle := newTestOracle(server.URL, time.Minute)

	price, err := oracle.GasPrice(context.Background(), types.ChainEthereum)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1_000_000_000), price)

	price, err = oracle.GasPrice(context.Background(), types.ChainEthereum)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1_000_000_000), price)
	require.Equal(t, int32(1), calls.Load())
}

func TestGasPriceExpiresWithTTL(t *testing.T) {
	var calls atomic.Int32
	server := gasNode(t, "0x5", &calls)
	defer server.Close()

	oracle := newTestOracle(server.URL, 50*time.Millisecond)

	_, err := oracle.GasPrice(context.Background(), types.ChainEthereum)
	require.NoError(t, err)
	time.Sleep(120 * time.Millisecond)
	_, err = oracle.GasPrice(context.Background(), types.ChainEthereum)
	require.NoError(t, err)
	require.Equal(t, int32(2), calls.Load())
}

func TestGasPriceDeduplicatesConcurrentReads(t *testing.T) {
	var calls atomic.Int32
	server := gasNode(t, "0x5", &calls)
	defer server.Close()

	oracle := newTestOracle(server.URL, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			price, err := oracle.GasPrice(context.Background(), types.ChainEthereum)
			require.NoError(t, err)
			require.Equal(t, big.NewInt(5), price)
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), calls.Load())
}

func TestGasPriceUnknownChain(t *testing.T) {
	oracle := NewOracle(map[types.ChainID]*rpc.Batcher{}, time.Minute, testLogger())

	_, err := oracle.GasPrice(context.Background(), types.ChainPolygon)
	require.Error(t, err)
	require.True(t, types.IsErrorType(err, types.ErrTypeValidation))
}
