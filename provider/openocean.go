package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/omniquote-labs/omniquote/types"
	"github.com/omniquote-labs/omniquote/util"
)

type openOceanToken struct {
	Symbol string `json:"symbol"`
	USD    string `json:"usd"`
}

type openOceanQuote struct {
	InToken      openOceanToken `json:"inToken"`
	OutToken     openOceanToken `json:"outToken"`
	InAmount     string         `json:"inAmount"`
	OutAmount    string         `json:"outAmount"`
	EstimatedGas json.Number    `json:"estimatedGas"`
}

type openOceanResponse struct {
	Code  int            `json:"code"`
	Error string         `json:"error,omitempty"`
	Data  openOceanQuote `json:"data"`
}

// OpenOcean serves same-chain swap quotes from the OpenOcean aggregation
// API. It is specialized: on a route it supports, it stands in for the
// general providers.
type OpenOcean struct {
	baseURL string
	client  *fiber.Client
	timeout time.Duration
	chains  map[types.ChainID]struct{}
	logger  *slog.Logger
}

func NewOpenOcean(baseURL string, client *fiber.Client, timeout time.Duration, chains []types.ChainID, logger *slog.Logger) *OpenOcean {
	supported := make(map[types.ChainID]struct{}, len(chains))
	for _, c := range chains {
		supported[c] = struct{}{}
	}
	return &OpenOcean{
		baseURL: baseURL,
		client:  client,
		timeout: timeout,
		chains:  supported,
		logger:  logger.With("provider", string(types.ProviderOpenOcean)),
	}
}

func (o *OpenOcean) Type() types.ProviderType { return types.ProviderOpenOcean }

func (o *OpenOcean) General() bool { return false }

func (o *OpenOcean) IsSupportedRoute(from, to types.Token) bool {
	if from.ChainID != to.ChainID {
		return false
	}
	_, ok := o.chains[from.ChainID]
	return ok
}

func (o *OpenOcean) Calculate(ctx context.Context, req *types.QuoteRequest) (*types.Trade, error) {
	params := map[string]string{
		"inTokenAddress":  req.FromToken.Address.Hex(),
		"outTokenAddress": req.ToToken.Address.Hex(),
		"amountDecimals":  req.Amount.String(),
		"slippage":        formatSlippage(req.SlippageBps),
	}
	path := fmt.Sprintf("/v4/%d/quote", req.FromToken.ChainID)

	body, err := util.Get(ctx, o.client, o.timeout, o.baseURL, path, params, nil)
	if err != nil {
		return nil, err
	}

	var resp openOceanResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("malformed quote response: %w", err)
	}
	if resp.Code != 200 {
		return nil, fmt.Errorf("quote rejected (code %d): %s", resp.Code, resp.Error)
	}

	outAmount, err := parseBigInt(resp.Data.OutAmount)
	if err != nil || outAmount.Sign() <= 0 {
		// The API answers code 200 with a zero outAmount when no path
		// exists for the pair.
		return nil, nil
	}

	estimatedGas, _ := resp.Data.EstimatedGas.Int64()
	return &types.Trade{
		Provider:       types.ProviderOpenOcean,
		FromToken:      req.FromToken,
		ToToken:        req.ToToken,
		FromAmount:     new(big.Int).Set(req.Amount),
		ToAmount:       outAmount,
		FromTokenPrice: parseRat(resp.Data.InToken.USD),
		EstimatedGas:   uint64(estimatedGas),
	}, nil
}
