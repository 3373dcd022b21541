package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/logz"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const HeaderRequestID = "requestId"

func AuditLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		ctx := c.UserContext()
		reqID := c.Get(HeaderRequestID)

		logger := logz.WithTrace(ctx, logz.NewLogger(), reqID)

		span := trace.SpanFromContext(ctx)
		reqBody := c.Body()
		span.AddEvent("http.request", trace.WithAttributes(
			attribute.String("request.id", reqID),
			attribute.Int("body.bytes", len(reqBody)),
		))

		logger.Info("http_request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("origin", c.Get(fiber.HeaderOrigin)),
			zap.Time("start", start),
			zap.Int("req_body_bytes", len(reqBody)),
		)

		err := c.Next()

		status := c.Response().StatusCode()
		durationMs := time.Since(start).Milliseconds()
		// Body() would drain a streamed response into memory
		streamed := c.Response().IsBodyStream()
		resBytes := -1
		if !streamed {
			resBytes = len(c.Response().Body())
		}

		span.AddEvent("http.response", trace.WithAttributes(
			attribute.Int("status", status),
			attribute.Int64("duration_ms", durationMs),
			attribute.Int("body.bytes", resBytes),
			attribute.Bool("body.streamed", streamed),
		))

		logger.Info("http_response",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Int64("duration_ms", durationMs),
			zap.Int("res_body_bytes", resBytes),
			zap.Bool("streamed", streamed),
		)

		return err
	}
}
