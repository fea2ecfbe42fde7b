package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/omniquote-labs/omniquote/types"
)

type stubQuoteService struct {
	quotes []types.Quote
	err    error
	gotReq *types.QuoteRequest
}

func (s *stubQuoteService) GetQuotes(ctx context.Context, req *types.QuoteRequest) ([]types.Quote, error) {
	s.gotReq = req
	return s.quotes, s.err
}

type stubTokenService struct {
	err error
}

func (s *stubTokenService) Resolve(ctx context.Context, chain types.ChainID, address common.Address) (types.Token, error) {
	if s.err != nil {
		return types.Token{}, s.err
	}
	return types.Token{ChainID: chain, Address: address, Symbol: "TOK", Decimals: 18}, nil
}

func newTestApp(quotes QuoteService, tokens TokenService) *fiber.App {
	app := fiber.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	Register(app.Group("/v1"), quotes, tokens, logger)
	return app
}

func postQuote(t *testing.T, app *fiber.App, payload string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(),
		http.MethodPost, "/v1/quote", bytes.NewBufferString(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

const validPayload = `{
	"from_chain_id": 1,
	"from_token": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
	"to_chain_id": 137,
	"to_token": "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
	"amount": "5000000000",
	"slippage_bps": 50
}`

func TestQuoteEndpoint(t *testing.T) {
	quotes := &stubQuoteService{quotes: []types.Quote{{
		Provider: types.ProviderLiFi,
		Trade: &types.Trade{
			Provider:   types.ProviderLiFi,
			FromAmount: big.NewInt(5_000_000_000),
			ToAmount:   big.NewInt(4_987_000_000),
		},
	}}}
	app := newTestApp(quotes, &stubTokenService{})

	resp := postQuote(t, app, validPayload)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body quoteResponseDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Quotes, 1)
	require.Equal(t, "lifi", body.Quotes[0].Provider)
	require.Equal(t, "4987000000", body.Quotes[0].ToAmount)

	require.NotNil(t, quotes.gotReq)
	require.Equal(t, uint16(50), quotes.gotReq.SlippageBps)
	require.Equal(t, "5000000000", quotes.gotReq.Amount.String())
}

func TestQuoteEndpointRejectsBadInput(t *testing.T) {
	app := newTestApp(&stubQuoteService{}, &stubTokenService{})

	cases := map[string]string{
		"malformed body":   `{`,
		"bad from address": `{"from_chain_id":1,"from_token":"nope","to_chain_id":1,"to_token":"0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174","amount":"1"}`,
		"zero amount":      `{"from_chain_id":1,"from_token":"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48","to_chain_id":1,"to_token":"0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174","amount":"0"}`,
		"missing amount":   `{"from_chain_id":1,"from_token":"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48","to_chain_id":1,"to_token":"0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			resp := postQuote(t, app, payload)
			defer resp.Body.Close() //nolint:errcheck
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestQuoteEndpointErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", types.NewValidationError("amount", "must be positive"), http.StatusBadRequest},
		{"no providers", types.NewNoProvidersError(1, 137), http.StatusUnprocessableEntity},
		{"aggregate failure", types.NewAggregateFailureError(3), http.StatusServiceUnavailable},
		{"transport", types.NewTransportError("https://rpc.test", nil), http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(&stubQuoteService{err: tc.err}, &stubTokenService{})
			resp := postQuote(t, app, validPayload)
			defer resp.Body.Close() //nolint:errcheck
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestTokenEndpoint(t *testing.T) {
	app := newTestApp(&stubQuoteService{}, &stubTokenService{})

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet,
		"/v1/tokens/1/0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", nil)
	require.NoError(t, err)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body tokenDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "TOK", body.Symbol)
	require.Equal(t, uint64(1), body.ChainID)
}

func TestTokenEndpointBadParams(t *testing.T) {
	app := newTestApp(&stubQuoteService{}, &stubTokenService{})

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet,
		"/v1/tokens/not-a-chain/0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", nil)
	require.NoError(t, err)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
