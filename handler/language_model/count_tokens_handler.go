package language_model

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/api"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/ai"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/logz"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/middleware"
	"go.uber.org/zap"
)

func NewCountTokensHandler(newModel ai.NewLanguageModelFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(middleware.HeaderRequestID)
		logger := logz.WithTrace(c.UserContext(), logz.NewLogger(), reqID)

		model := newModel(ai.CreateOptions{})
		req, err := parsePromptRequest(c, model.Capabilities())
		if err != nil {
			logger.Info("invalid count tokens request", zap.Error(err))
			return api.BadRequest(c, "invalid count tokens request")
		}
		model.SetCreateOptions(req.CreateOptions)

		n, err := model.CountTokens(req.Inputs)
		if err != nil {
			return api.Error(c, logger, err)
		}
		return api.Text(c, strconv.Itoa(n))
	}
}

func NewCapabilitiesHandler(newModel ai.NewLanguageModelFunc) fiber.Handler {
	caps := newModel(ai.CreateOptions{}).Capabilities()
	return func(c *fiber.Ctx) error {
		return api.Ok(c, caps)
	}
}
