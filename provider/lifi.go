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

type lifiGasCost struct {
	Amount string `json:"amount"`
	Token  struct {
		Address  string `json:"address"`
		Symbol   string `json:"symbol"`
		Decimals uint8  `json:"decimals"`
		PriceUSD string `json:"priceUSD"`
	} `json:"token"`
}

type lifiEstimate struct {
	FromAmount string        `json:"fromAmount"`
	ToAmount   string        `json:"toAmount"`
	GasCosts   []lifiGasCost `json:"gasCosts"`
}

type lifiQuoteResponse struct {
	Estimate lifiEstimate `json:"estimate"`
	Action   struct {
		FromToken struct {
			PriceUSD string `json:"priceUSD"`
		} `json:"fromToken"`
	} `json:"action"`
	Message string `json:"message,omitempty"`
}

// LiFi serves both same-chain swaps and cross-chain bridges through the
// LI.FI routing API. It is the general fallback for any route.
type LiFi struct {
	baseURL string
	client  *fiber.Client
	timeout time.Duration
	logger  *slog.Logger
}

func NewLiFi(baseURL string, client *fiber.Client, timeout time.Duration, logger *slog.Logger) *LiFi {
	return &LiFi{
		baseURL: baseURL,
		client:  client,
		timeout: timeout,
		logger:  logger.With("provider", string(types.ProviderLiFi)),
	}
}

func (l *LiFi) Type() types.ProviderType { return types.ProviderLiFi }

func (l *LiFi) General() bool { return true }

func (l *LiFi) IsSupportedRoute(from, to types.Token) bool {
	return true
}

func (l *LiFi) Calculate(ctx context.Context, req *types.QuoteRequest) (*types.Trade, error) {
	params := map[string]string{
		"fromChain":  strconv.FormatUint(uint64(req.FromToken.ChainID), 10),
		"toChain":    strconv.FormatUint(uint64(req.ToToken.ChainID), 10),
		"fromToken":  req.FromToken.Address.Hex(),
		"toToken":    req.ToToken.Address.Hex(),
		"fromAmount": req.Amount.String(),
		"slippage":   formatSlippage(req.SlippageBps),
	}

	body, err := util.Get(ctx, l.client, l.timeout, l.baseURL, "/v1/quote", params, nil)
	if err != nil {
		// The API answers 404 when no route connects the pair.
		if util.IsHTTPStatus(err, fiber.StatusNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var resp lifiQuoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("malformed quote response: %w", err)
	}

	toAmount, err := parseBigInt(resp.Estimate.ToAmount)
	if err != nil || toAmount.Sign() <= 0 {
		return nil, nil
	}

	return &types.Trade{
		Provider:       types.ProviderLiFi,
		FromToken:      req.FromToken,
		ToToken:        req.ToToken,
		FromAmount:     new(big.Int).Set(req.Amount),
		ToAmount:       toAmount,
		Fee:            l.gasFee(req.FromToken.ChainID, resp.Estimate.GasCosts),
		FromTokenPrice: parseRat(resp.Action.FromToken.PriceUSD),
	}, nil
}

// gasFee folds the reported gas cost entries into one fee. Entries are
// denominated in the source chain's native coin.
func (l *LiFi) gasFee(chain types.ChainID, costs []lifiGasCost) *types.Fee {
	if len(costs) == 0 {
		return nil
	}
	total := new(big.Int)
	for _, cost := range costs {
		amount, err := parseBigInt(cost.Amount)
		if err != nil {
			l.logger.Debug("skipping malformed gas cost entry", slog.String("amount", cost.Amount))
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
		TokenPrice: parseRat(first.Token.PriceUSD),
	}
}
