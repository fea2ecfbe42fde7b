package handler

import (
	"log/slog"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"

	"github.com/omniquote-labs/omniquote/types"
)

type TokenHandler struct {
	tokens TokenService
	logger *slog.Logger
}

type tokenDTO struct {
	ChainID  uint64 `json:"chain_id"`
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name,omitempty"`
	Decimals uint8  `json:"decimals"`
}

// Token handles GET /v1/tokens/:chain/:address.
func (h *TokenHandler) Token(c *fiber.Ctx) error {
	chainID, err := strconv.ParseUint(c.Params("chain"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "chain must be a numeric chain id")
	}
	address := c.Params("address")
	if !common.IsHexAddress(address) {
		return fiber.NewError(fiber.StatusBadRequest, "address is not a valid address")
	}

	token, err := h.tokens.Resolve(c.UserContext(), types.ChainID(chainID), common.HexToAddress(address))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(tokenDTO{
		ChainID:  uint64(token.ChainID),
		Address:  token.Address.Hex(),
		Symbol:   token.Symbol,
		Name:     token.Name,
		Decimals: token.Decimals,
	})
}
