package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/omniquote-labs/omniquote/types"
	"github.com/omniquote-labs/omniquote/util"
)

type squidRouteRequest struct {
	FromChain   string `json:"fromChain"`
	ToChain     string `json:"toChain"`
	FromToken   string `json:"fromToken"`
	ToToken     string `json:"toToken"`
	FromAmount  string `json:"fromAmount"`
	SlippageBps uint16 `json:"slippage,omitempty"`
}

type squidFeeCost struct {
	Amount string `json:"amount"`
	Token  struct {
		Address  string `json:"address"`
		Symbol   string `json:"symbol"`
		Decimals uint8  `json:"decimals"`
		USDPrice string `json:"usdPrice"`
	} `json:"token"`
}

type squidRouteResponse struct {
	Route struct {
		Estimate struct {
			ToAmount       string         `json:"toAmount"`
			FeeCosts       []squidFeeCost `json:"feeCosts"`
			FromTokenPrice string         `json:"fromAmountUSDPrice"`
		} `json:"estimate"`
	} `json:"route"`
}

// Squid serves cross-chain bridge routes through the Squid router API. It
// is specialized for bridging: it never quotes same-chain swaps, and on a
// bridge route it supports it stands in for the general providers.
type Squid struct {
	baseURL string
	client  *fiber.Client
	timeout time.Duration
	logger  *slog.Logger
}

func NewSquid(baseURL string, client *fiber.Client, timeout time.Duration, logger *slog.Logger) *Squid {
	return &Squid{
		baseURL: baseURL,
		client:  client,
		timeout: timeout,
		logger:  logger.With("provider", string(types.ProviderSquid)),
	}
}

func (s *Squid) Type() types.ProviderType { return types.ProviderSquid }

func (s *Squid) General() bool { return false }

func (s *Squid) IsSupportedRoute(from, to types.Token) bool {
	return from.ChainID != to.ChainID
}

func (s *Squid) Calculate(ctx context.Context, req *types.QuoteRequest) (*types.Trade, error) {
	payload := squidRouteRequest{
		FromChain:   strconv.FormatUint(uint64(req.FromToken.ChainID), 10),
		ToChain:     strconv.FormatUint(uint64(req.ToToken.ChainID), 10),
		FromToken:   req.FromToken.Address.Hex(),
		ToToken:     req.ToToken.Address.Hex(),
		FromAmount:  req.Amount.String(),
		SlippageBps: req.SlippageBps,
	}

	body, err := util.Post(ctx, s.client, s.timeout, s.baseURL, "/v1/route", payload, nil)
	if err != nil {
		// A 404 route answer means no bridge path connects the pair.
		if util.IsHTTPStatus(err, fiber.StatusNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var resp squidRouteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("malformed route response: %w", err)
	}

	toAmount, err := parseBigInt(resp.Route.Estimate.ToAmount)
	if err != nil || toAmount.Sign() <= 0 {
		return nil, nil
	}

	return &types.Trade{
		Provider:       types.ProviderSquid,
		FromToken:      req.FromToken,
		ToToken:        req.ToToken,
		FromAmount:     new(big.Int).Set(req.Amount),
		ToAmount:       toAmount,
		Fee:            s.bridgeFee(req.FromToken.ChainID, resp.Route.Estimate.FeeCosts),
		FromTokenPrice: parseRat(resp.Route.Estimate.FromTokenPrice),
	}, nil
}

// bridgeFee folds the route's fee cost entries into one fee. Squid reports
// relayer and gas costs in the source chain's native coin.
func (s *Squid) bridgeFee(chain types.ChainID, costs []squidFeeCost) *types.Fee {
	if len(costs) == 0 {
		return nil
	}
	total := new(big.Int)
	for _, cost := range costs {
		amount, err := parseBigInt(cost.Amount)
		if err != nil {
			s.logger.Debug("skipping malformed fee cost entry", slog.String("amount", cost.Amount))
			continue
		}
		total.Add(total, amount)
	}
	if total.Sign() == 0 {
		return nil
	}
	first := costs[0]
	return &types.Fee{
		Token: types.Token{
			ChainID:  chain,
			Address:  types.NativeTokenAddress,
			Symbol:   first.Token.Symbol,
			Decimals: first.Token.Decimals,
		},
		Amount:     total,
		TokenPrice: parseRat(first.Token.USDPrice),
	}
}
