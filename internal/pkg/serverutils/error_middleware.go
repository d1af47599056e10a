package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"planner-notebook-be/internal/apperror"
)

// ErrorHandlerMiddleware converts classified errors into JSON responses.
// Duplicate grants are reported as an informational success so retried
// share requests stay idempotent from the client's point of view.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			switch appErr.Kind {
			case apperror.KindValidation:
				return ctx.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse(fiber.StatusUnprocessableEntity, appErr.Message))
			case apperror.KindPermission:
				return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(fiber.StatusForbidden, appErr.Message))
			case apperror.KindDuplicate:
				return ctx.JSON(SuccessResponse[any](appErr.Message, nil))
			case apperror.KindNotFound:
				return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(fiber.StatusNotFound, appErr.Message))
			case apperror.KindStore:
				return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(fiber.StatusBadGateway, appErr.Message))
			}
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, "Internal server error"))
	}
}
