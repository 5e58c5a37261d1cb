package serverutils

import (
	"errors"

	"shopnest-be/internal/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps workflow errors onto HTTP status codes:
//
//	not found                -> 404
//	illegal transition       -> 409
//	concurrency conflict     -> 409
//	validation failure       -> 422
//	inventory failure        -> 422
//	carrier failure          -> 502
//	payment gateway failure  -> 502
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(err.Error()))
		case errors.Is(err, apperrors.ErrConcurrencyConflict):
			return ctx.Status(fiber.StatusConflict).JSON(ErrorResponse(err.Error()))
		case apperrors.IsTransition(err):
			return ctx.Status(fiber.StatusConflict).JSON(ErrorResponse(err.Error()))
		case apperrors.IsValidation(err):
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse(err.Error()))
		case apperrors.IsInventory(err):
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse(err.Error()))
		case apperrors.IsCarrier(err), apperrors.IsPaymentGateway(err):
			return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(err.Error()))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("internal server error"))
	}
}
