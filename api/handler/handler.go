package handler

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"

	"github.com/omniquote-labs/omniquote/types"
)

// QuoteService computes ranked quotes for a request.
type QuoteService interface {
	GetQuotes(ctx context.Context, req *types.QuoteRequest) ([]types.Quote, error)
}

// TokenService resolves token metadata by chain and address.
type TokenService interface {
	Resolve(ctx context.Context, chain types.ChainID, address common.Address) (types.Token, error)
}

func Register(router fiber.Router, quotes QuoteService, tokens TokenService, logger *slog.Logger) {
	qh := &QuoteHandler{quotes: quotes, tokens: tokens, logger: logger}
	router.Post("/quote", qh.Quote)

	th := &TokenHandler{tokens: tokens, logger: logger}
	router.Get("/tokens/:chain/:address", th.Token)
}
