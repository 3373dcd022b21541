package language_model

import (
	"github.com/gofiber/fiber/v2"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/ai"
)

type PromptRequest struct {
	CreateOptions ai.CreateOptions `json:"createOptions"`
	Inputs        []ai.Prompt      `json:"inputs"`
}

// parsePromptRequest decodes the body on top of the capability defaults so
// absent createOptions fields keep them.
func parsePromptRequest(c *fiber.Ctx, caps *ai.Capabilities) (PromptRequest, error) {
	req := PromptRequest{CreateOptions: ai.DefaultCreateOptions(caps)}
	if err := c.BodyParser(&req); err != nil {
		return PromptRequest{}, err
	}
	return req, nil
}
