package serverutils

import (
	"errors"

	"ai-tutoring-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts service errors into JSON responses with
// the matching HTTP status. Unrecognized errors become a 500 without
// leaking internals.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var serr *apperror.StorageError
		if errors.As(err, &serr) {
			status := statusForKind(serr.Kind)
			return ctx.Status(status).JSON(ErrorResponse(status, serr.Message))
		}

		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			return ctx.Status(ferr.Code).JSON(ErrorResponse(ferr.Code, ferr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).
			JSON(ErrorResponse(500, "internal server error"))
	}
}

func statusForKind(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindAccessDenied:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}
