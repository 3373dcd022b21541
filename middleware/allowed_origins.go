package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/api"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/logz"
	"go.uber.org/zap"
)

// AllowedOrigins rejects requests under prefixes whose Origin header is not
// in origins. An empty origins list disables the check.
func AllowedOrigins(origins []string, prefixes ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed[o] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		if len(allowed) == 0 || !hasPrefix(c.Path(), prefixes) {
			return c.Next()
		}

		origin := c.Get(fiber.HeaderOrigin)
		if _, ok := allowed[origin]; ok {
			return c.Next()
		}

		logz.WithTrace(c.UserContext(), logz.NewLogger(), c.Get(HeaderRequestID)).
			Info("forbidden origin for request", zap.String("origin", origin), zap.String("path", c.Path()))
		return api.Forbidden(c)
	}
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
