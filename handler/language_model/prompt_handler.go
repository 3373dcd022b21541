package language_model

import (
	"github.com/gofiber/fiber/v2"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/api"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/ai"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/logz"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/middleware"
	"go.uber.org/zap"
)

func NewPromptHandler(newModel ai.NewLanguageModelFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		reqID := c.Get(middleware.HeaderRequestID)
		logger := logz.WithTrace(ctx, logz.NewLogger(), reqID)

		model := newModel(ai.CreateOptions{})
		req, err := parsePromptRequest(c, model.Capabilities())
		if err != nil {
			logger.Info("invalid prompt request", zap.Error(err))
			return api.BadRequest(c, "invalid prompt request")
		}
		if err := req.CreateOptions.ValidateSampling(model.Capabilities()); err != nil {
			return api.Error(c, logger, err)
		}
		model.SetCreateOptions(req.CreateOptions)

		logger.Debug("prompt", zap.Int("inputs", len(req.Inputs)), zap.Int("initialPrompts", len(req.CreateOptions.InitialPrompts)))
		res, err := model.Prompt(ctx, req.Inputs)
		if err != nil {
			return api.Error(c, logger, err)
		}
		return api.Text(c, res)
	}
}
