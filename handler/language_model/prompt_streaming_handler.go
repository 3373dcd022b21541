package language_model

import (
	"bufio"
	"context"

	"github.com/gofiber/fiber/v2"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/api"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/ai"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/logz"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/middleware"
	"go.uber.org/zap"
)

// NewPromptStreamingHandler answers with a chunked text/plain body, one write
// per text fragment. Failures before the first chunk are reported with a
// status code; later ones end the body.
func NewPromptStreamingHandler(newModel ai.NewLanguageModelFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(middleware.HeaderRequestID)
		logger := logz.WithTrace(c.UserContext(), logz.NewLogger(), reqID)

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

		// outlives the handler, the body is written after it returns
		ctx, cancel := context.WithCancel(c.UserContext())
		stream, err := model.PromptStreaming(ctx, req.Inputs)
		if err != nil {
			cancel()
			return api.Error(c, logger, err)
		}

		results := ai.Forward(ctx, stream, ai.DefaultStreamBuffer)
		first, ok := <-results
		if ok && first.Err != nil {
			cancel()
			return api.Error(c, logger, first.Err)
		}

		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
		c.Status(fiber.StatusOK)
		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer cancel()
			if !ok {
				return
			}
			writeChunks(w, logger, first, results)
		})
		return nil
	}
}

func writeChunks(w *bufio.Writer, logger *zap.Logger, first ai.ChunkResult, results <-chan ai.ChunkResult) {
	written := 0
	for r, ok := first, true; ok; r, ok = <-results {
		if r.Err != nil {
			logger.Error("prompt stream failed", zap.Error(r.Err), zap.Int("chunks", written))
			return
		}
		if r.Chunk.Text != nil && *r.Chunk.Text != "" {
			if _, err := w.WriteString(*r.Chunk.Text); err != nil {
				logger.Info("client went away", zap.Error(err))
				return
			}
			if err := w.Flush(); err != nil {
				logger.Info("client went away", zap.Error(err))
				return
			}
			written++
		}
		if r.Chunk.Finished {
			return
		}
	}
}
