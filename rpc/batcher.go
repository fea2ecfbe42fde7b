package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/omniquote-labs/omniquote/metrics"
	"github.com/omniquote-labs/omniquote/types"
	"github.com/omniquote-labs/omniquote/util"
)

// correlationSeed hands out JSON-RPC ids. A process-wide monotonic counter
// keeps ids unique across batches so a stale response can never be confused
// with a live one.
var correlationSeed atomic.Int64

// BatchCall is one method invocation inside a batch envelope.
type BatchCall struct {
	Method string
	Params []any
}

// BatchResult is the outcome of one batched call, positionally aligned with
// the submitted calls. Err is a node-side failure scoped to this call only.
type BatchResult struct {
	Result string
	Err    *types.JSONRPCError
}

// Failed reports whether the node rejected this individual call.
func (r BatchResult) Failed() bool {
	return r.Err != nil
}

// readOnlyMethods may be retried against another endpoint; anything else is
// sent exactly once.
var readOnlyMethods = map[string]struct{}{
	"eth_call":        {},
	"eth_getBalance":  {},
	"eth_getCode":     {},
	"eth_gasPrice":    {},
	"eth_blockNumber": {},
	"eth_chainId":     {},
}

// Batcher folds many independent JSON-RPC calls into one HTTP round trip
// against a chain's node endpoints.
type Batcher struct {
	chain   types.ChainID
	urls    []string
	client  *fiber.Client
	timeout time.Duration
	logger  *slog.Logger
}

func NewBatcher(chain types.ChainID, urls []string, client *fiber.Client, timeout time.Duration, logger *slog.Logger) *Batcher {
	return &Batcher{
		chain:   chain,
		urls:    urls,
		client:  client,
		timeout: timeout,
		logger:  logger.With("module", "rpc", "chain", chain.String()),
	}
}

func (b *Batcher) Chain() types.ChainID {
	return b.chain
}

// Submit sends all calls as one JSON-RPC batch and returns results in the
// input order, regardless of the order the node answered in. A node-side
// error on one call surfaces in that call's BatchResult and never disturbs
// its siblings; a transport-level failure is returned as a whole-batch error
// because "every call failed" and "the batch never reached the node" require
// different handling by the caller.
func (b *Batcher) Submit(ctx context.Context, calls []BatchCall) ([]BatchResult, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	firstID := correlationSeed.Add(int64(len(calls))) - int64(len(calls)) + 1
	requests := make([]types.JSONRPCRequest, len(calls))
	retryable := true
	for i, call := range calls {
		params := call.Params
		if params == nil {
			params = []any{}
		}
		requests[i] = types.JSONRPCRequest{
			JSONRPC: "2.0",
			Method:  call.Method,
			Params:  params,
			ID:      firstID + int64(i),
		}
		if _, ok := readOnlyMethods[call.Method]; !ok {
			retryable = false
		}
	}

	metrics.RPCBatchSize().Observe(float64(len(calls)))

	body, url, err := b.post(ctx, requests, retryable)
	if err != nil {
		metrics.RPCBatchesTotal().WithLabelValues(b.chain.String(), "transport_error").Inc()
		return nil, types.NewTransportError(url, err)
	}

	results, err := b.demux(body, calls, firstID)
	if err != nil {
		metrics.RPCBatchesTotal().WithLabelValues(b.chain.String(), "transport_error").Inc()
		return nil, types.NewTransportError(url, err)
	}

	metrics.RPCBatchesTotal().WithLabelValues(b.chain.String(), "ok").Inc()
	return results, nil
}

// Call is a convenience wrapper for a single-method batch.
func (b *Batcher) Call(ctx context.Context, method string, params ...any) (string, error) {
	results, err := b.Submit(ctx, []BatchCall{{Method: method, Params: params}})
	if err != nil {
		return "", err
	}
	if results[0].Failed() {
		return "", results[0].Err
	}
	return results[0].Result, nil
}

// post tries each configured endpoint once, starting from the first healthy
// one. Only read-only batches rotate; anything else gets a single attempt.
func (b *Batcher) post(ctx context.Context, requests []types.JSONRPCRequest, retryable bool) ([]byte, string, error) {
	headers := map[string]string{"Content-Type": "application/json"}

	start := util.FindHealthyEndpoint(b.urls)
	attempts := len(b.urls)
	if !retryable {
		attempts = 1
	}

	var lastErr error
	url := b.urls[start]
	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			return nil, url, ctx.Err()
		default:
		}

		url = b.urls[(start+i)%len(b.urls)]
		var body []byte
		var err error
		if retryable {
			body, err = util.Post(ctx, b.client, b.timeout, url, "", requests, headers)
		} else {
			body, err = util.PostOnce(ctx, b.client, b.timeout, url, "", requests, headers)
		}
		if err == nil {
			return body, url, nil
		}

		lastErr = err
		b.logger.Debug("batch request failed",
			slog.String("url", url),
			slog.Int("calls", len(requests)),
			slog.Any("error", err))
	}

	return nil, url, lastErr
}

// demux restores submission order: responses are correlated strictly by id
// and written back into the position their call was submitted at. A missing
// response entry counts as a node-side error for that call.
func (b *Batcher) demux(body []byte, calls []BatchCall, firstID int64) ([]BatchResult, error) {
	var responses []types.JSONRPCResponse
	if err := json.Unmarshal(body, &responses); err != nil {
		// A node that rejects the whole envelope answers with a single
		// error object instead of an array.
		var errResp types.JSONRPCErrorResponse
		if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && errResp.Error != nil {
			return nil, fmt.Errorf("batch rejected: code=%d, message=%s", errResp.Error.Code, errResp.Error.Message)
		}
		return nil, fmt.Errorf("malformed batch response: %w", err)
	}

	if len(responses) > len(calls) {
		return nil, fmt.Errorf("batch response count mismatch: expected at most %d, got %d", len(calls), len(responses))
	}

	results := make([]BatchResult, len(calls))
	seen := make([]bool, len(calls))
	for _, resp := range responses {
		idx := resp.ID - firstID
		if idx < 0 || idx >= int64(len(calls)) {
			return nil, fmt.Errorf("unknown correlation id %d in batch response", resp.ID)
		}
		if seen[idx] {
			return nil, fmt.Errorf("duplicate correlation id %d in batch response", resp.ID)
		}
		seen[idx] = true

		if resp.Error != nil {
			metrics.RPCCallErrorsTotal().WithLabelValues(b.chain.String(), calls[idx].Method).Inc()
			results[idx] = BatchResult{Err: resp.Error}
			continue
		}
		results[idx] = BatchResult{Result: resp.Result}
	}

	for i := range seen {
		if !seen[i] {
			results[i] = BatchResult{Err: &types.JSONRPCError{
				Code:    -32603,
				Message: "no response for call",
			}}
		}
	}

	return results, nil
}
