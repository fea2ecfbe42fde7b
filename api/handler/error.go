package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/omniquote-labs/omniquote/types"
)

// httpError maps the error taxonomy onto HTTP statuses. Caller mistakes are
// 4xx, upstream trouble is 502, a fully failed aggregation is 503 since
// retrying may succeed once providers recover.
func httpError(err error) error {
	var se *types.StandardError
	if !errors.As(err, &se) {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	switch se.Type {
	case types.ErrTypeValidation, types.ErrTypeInvalidValue:
		return fiber.NewError(fiber.StatusBadRequest, se.Message)
	case types.ErrTypeNoProviders:
		return fiber.NewError(fiber.StatusUnprocessableEntity, se.Message)
	case types.ErrTypeAggregate:
		return fiber.NewError(fiber.StatusServiceUnavailable, se.Message)
	case types.ErrTypeTransport, types.ErrTypeNetwork, types.ErrTypeProvider, types.ErrTypeProviderTimeout:
		return fiber.NewError(fiber.StatusBadGateway, se.Message)
	default:
		return fiber.NewError(fiber.StatusInternalServerError, se.Message)
	}
}
