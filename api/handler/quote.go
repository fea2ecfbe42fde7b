package handler

import (
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"github.com/omniquote-labs/omniquote/types"
)

type QuoteHandler struct {
	quotes QuoteService
	tokens TokenService
	logger *slog.Logger
}

type quoteRequestDTO struct {
	FromChainID       uint64   `json:"from_chain_id"`
	FromToken         string   `json:"from_token"`
	ToChainID         uint64   `json:"to_chain_id"`
	ToToken           string   `json:"to_token"`
	Amount            string   `json:"amount"`
	SlippageBps       uint16   `json:"slippage_bps"`
	DisabledProviders []string `json:"disabled_providers,omitempty"`
}

type feeDTO struct {
	Symbol string `json:"symbol"`
	Amount string `json:"amount"`
}

type quoteDTO struct {
	Provider     string  `json:"provider"`
	FromAmount   string  `json:"from_amount"`
	ToAmount     string  `json:"to_amount"`
	Fee          *feeDTO `json:"fee,omitempty"`
	EstimatedGas uint64  `json:"estimated_gas,omitempty"`
}

type quoteResponseDTO struct {
	Quotes []quoteDTO `json:"quotes"`
}

// Quote handles POST /v1/quote.
func (h *QuoteHandler) Quote(c *fiber.Ctx) error {
	var dto quoteRequestDTO
	if err := c.BodyParser(&dto); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}
	if !common.IsHexAddress(dto.FromToken) {
		return fiber.NewError(fiber.StatusBadRequest, "from_token is not a valid address")
	}
	if !common.IsHexAddress(dto.ToToken) {
		return fiber.NewError(fiber.StatusBadRequest, "to_token is not a valid address")
	}
	amount, ok := new(big.Int).SetString(dto.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "amount must be a positive integer string")
	}

	ctx := c.UserContext()
	var fromToken, toToken types.Token
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		fromToken, err = h.tokens.Resolve(gctx, types.ChainID(dto.FromChainID), common.HexToAddress(dto.FromToken))
		return err
	})
	g.Go(func() (err error) {
		toToken, err = h.tokens.Resolve(gctx, types.ChainID(dto.ToChainID), common.HexToAddress(dto.ToToken))
		return err
	})
	if err := g.Wait(); err != nil {
		return httpError(err)
	}

	disabled := make([]types.ProviderType, 0, len(dto.DisabledProviders))
	for _, name := range dto.DisabledProviders {
		disabled = append(disabled, types.ProviderType(name))
	}

	quotes, err := h.quotes.GetQuotes(ctx, &types.QuoteRequest{
		FromToken:         fromToken,
		ToToken:           toToken,
		Amount:            amount,
		SlippageBps:       dto.SlippageBps,
		DisabledProviders: disabled,
	})
	if err != nil {
		return httpError(err)
	}

	resp := quoteResponseDTO{Quotes: make([]quoteDTO, 0, len(quotes))}
	for _, q := range quotes {
		resp.Quotes = append(resp.Quotes, toQuoteDTO(q))
	}
	return c.JSON(resp)
}

func toQuoteDTO(q types.Quote) quoteDTO {
	dto := quoteDTO{
		Provider:     string(q.Provider),
		FromAmount:   q.Trade.FromAmount.String(),
		ToAmount:     q.Trade.ToAmount.String(),
		EstimatedGas: q.Trade.EstimatedGas,
	}
	if q.Trade.Fee != nil {
		dto.Fee = &feeDTO{
			Symbol: q.Trade.Fee.Token.Symbol,
			Amount: q.Trade.Fee.Amount.String(),
		}
	}
	return dto
}
