package api

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/ai"
	"go.uber.org/zap"
)

const internalErrorMessage = "Internal Server Error"

func Ok(c *fiber.Ctx, body any) error {
	return c.Status(http.StatusOK).JSON(body)
}

func Text(c *fiber.Ctx, body string) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(http.StatusOK).SendString(body)
}

func BadRequest(c *fiber.Ctx, message string) error {
	return plain(c, http.StatusBadRequest, message)
}

func Forbidden(c *fiber.Ctx) error {
	return plain(c, http.StatusForbidden, "Forbidden")
}

func InternalError(c *fiber.Ctx, message string) error {
	return plain(c, http.StatusInternalServerError, message)
}

// Error writes err as a response. Client errors echo their message, anything
// else is logged and answered with a generic 500.
func Error(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var aiErr *ai.Error
	if errors.As(err, &aiErr) && aiErr.IsClientError() {
		logger.Info("rejected request", zap.String("kind", aiErr.Kind.String()), zap.String("reason", aiErr.Message))
		return BadRequest(c, aiErr.Message)
	}

	fields := []zap.Field{zap.Error(err)}
	if aiErr != nil {
		fields = append(fields, zap.String("kind", aiErr.Kind.String()))
	}
	logger.Error("request failed", fields...)
	return InternalError(c, internalErrorMessage)
}

func plain(c *fiber.Ctx, status int, message string) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(status).SendString(message)
}
