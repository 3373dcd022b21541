package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/api"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/config"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/handler/language_model"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/handler/summarizer"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/ai"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/ai/gemini"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/ai/gpt"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/ai/openrouter"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/logz"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/tokenizer"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/tracing"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/middleware"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "builtin-ai",
		Short:        "HTTP backend for the built-in AI LanguageModel and Summarizer APIs",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	})
	root.AddCommand(newCountTokensCmd())
	return root
}

func newCountTokensCmd() *cobra.Command {
	var system string
	cmd := &cobra.Command{
		Use:   "count-tokens [text]",
		Short: "Count the Gemma tokens of text rendered as a single user turn, reads stdin without arguments",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.InitConfig()
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			if len(args) == 0 {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return errors.Wrap(err, "read stdin")
				}
				text = string(b)
			}

			var options ai.CreateOptions
			if cmd.Flags().Changed("system") {
				options.SystemPrompt = &system
			}
			tk := tokenizer.New(cfg.TokenizerConfig.Path)
			n, err := ai.CountTemplateTokens(options, []ai.Prompt{ai.TextPrompt(ai.RoleUser, text)}, tk.CountTokens)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}
	cmd.Flags().StringVar(&system, "system", "", "system prompt to prepend")
	return cmd
}

func serve(ctx context.Context) error {
	versionDeploy := time.Now().Unix()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.InitConfig()
	if err != nil {
		return errors.Wrap(err, "unable to initial config")
	}

	logz.Init(cfg.LogConfig.Level, cfg.Server.Name)
	defer logz.Drop()

	logger := zap.L()
	logger.Info("version " + strconv.FormatInt(versionDeploy, 10))
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", zap.Error(err))
		return err
	}

	shutdown, err := tracing.Init(ctx, *cfg)
	if err != nil {
		logger.Error("otel init", zap.Error(err))
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()
	logger.Info("Otel connected", zap.String("endpoint", cfg.OtelConfig.Endpoint))

	tk := tokenizer.New(cfg.TokenizerConfig.Path)
	newModel, err := newLanguageModel(ctx, cfg, tk.CountTokens)
	if err != nil {
		logger.Error("language model init", zap.Error(err))
		return err
	}
	logger.Info("language model ready", zap.String("provider", cfg.LanguageModel.Provider))

	app := newServer(cfg, newModel, versionDeploy)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	logger.Info("listening", zap.String("addr", cfg.Server.Addr()))
	if err = app.Listen(cfg.Server.Addr()); err != nil {
		logger.Error("listen", zap.Error(err))
		return err
	}
	return nil
}

func newLanguageModel(ctx context.Context, cfg *config.Config, countTokens ai.CountTextTokensFunc) (ai.NewLanguageModelFunc, error) {
	switch cfg.LanguageModel.Provider {
	case config.ProviderOpenAI:
		return gpt.NewLanguageModel(gpt.Open(cfg.OpenAiConfig), cfg.OpenAiConfig.Model, countTokens), nil
	case config.ProviderOpenRouter:
		return openrouter.NewLanguageModel(openrouter.Open(cfg.OpenRouterConfig), cfg.OpenRouterConfig.Model, countTokens), nil
	case config.ProviderGemini:
		client, err := gemini.Open(ctx, cfg.GeminiConfig)
		if err != nil {
			return nil, err
		}
		return gemini.NewLanguageModel(client.Models, cfg.GeminiConfig.Model, countTokens), nil
	default:
		return nil, errors.Errorf("unknown provider %q", cfg.LanguageModel.Provider)
	}
}

func newServer(cfg *config.Config, newModel ai.NewLanguageModelFunc, versionDeploy int64) *fiber.App {
	app := initFiber(cfg)
	app.Use(middleware.OTelFiberMiddleware(cfg.Server.Name))
	app.Use(middleware.AuditLogger())
	app.Use(middleware.AllowedOrigins(cfg.Server.AllowedOrigins, "/language-model", "/summarizer"))

	app.Get("/health", func(c *fiber.Ctx) error {
		return api.Ok(c, fiber.Map{"status": "ok", "version": versionDeploy})
	})

	lm := app.Group("/language-model")
	lm.Get("/capabilities", language_model.NewCapabilitiesHandler(newModel))
	lm.Post("/prompt", language_model.NewPromptHandler(newModel))
	lm.Post("/prompt-streaming", language_model.NewPromptStreamingHandler(newModel))
	lm.Post("/count-tokens", language_model.NewCountTokensHandler(newModel))

	app.Post("/summarizer/prompt", summarizer.NewPromptHandler(newModel))

	if dir := cfg.Server.StaticDir; dir != "" {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			app.Static("/", dir)
		}
	}
	return app
}

func initFiber(cfg *config.Config) *fiber.App {
	app := fiber.New(
		fiber.Config{
			ReadTimeout:           cfg.Server.ReadTimeout,
			WriteTimeout:          cfg.Server.WriteTimeout,
			IdleTimeout:           cfg.Server.IdleTimeout,
			DisableStartupMessage: true,
			CaseSensitive:         true,
			StrictRouting:         true,
		},
	)
	app.Use(recover.New())

	corsConfig := cors.ConfigDefault
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = strings.Join(cfg.Server.AllowedOrigins, ",")
	}
	corsConfig.AllowHeaders = "Origin, Content-Type, Accept, " + middleware.HeaderRequestID
	corsConfig.ExposeHeaders = middleware.HeaderRequestID + ", traceparent"
	app.Use(cors.New(corsConfig))

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasSuffix(c.Path(), "/prompt-streaming")
		},
	}))
	app.Use(SetHeaderID())
	return app
}

// SetHeaderID makes sure every request carries a requestId and echoes it.
func SetHeaderID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(middleware.HeaderRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
			c.Request().Header.Set(middleware.HeaderRequestID, reqID)
		}
		c.Set(middleware.HeaderRequestID, reqID)
		return c.Next()
	}
}
