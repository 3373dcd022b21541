package summarizer

import (
	"github.com/gofiber/fiber/v2"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/api"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/ai"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/ai/summarizer"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/logz"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/middleware"
	"go.uber.org/zap"
)

type PromptRequest struct {
	Input   string             `json:"input"`
	Options summarizer.Options `json:"options"`
}

func NewPromptHandler(newModel ai.NewLanguageModelFunc) fiber.Handler {
	caps := newModel(ai.CreateOptions{}).Capabilities()
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		reqID := c.Get(middleware.HeaderRequestID)
		logger := logz.WithTrace(ctx, logz.NewLogger(), reqID)

		var req PromptRequest
		if err := c.BodyParser(&req); err != nil {
			logger.Info("invalid summarizer request", zap.Error(err))
			return api.BadRequest(c, "invalid summarizer request")
		}
		if req.Input == "" {
			return api.BadRequest(c, "input is required")
		}

		logger.Debug("summarize",
			zap.String("type", string(req.Options.Type)),
			zap.String("length", string(req.Options.Length)),
			zap.Int("input_bytes", len(req.Input)),
		)
		res, err := summarizer.Summarize(ctx, newModel, caps, req.Input, req.Options)
		if err != nil {
			return api.Error(c, logger, err)
		}
		return api.Text(c, res)
	}
}
