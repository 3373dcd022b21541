package openrouter

import (
	"context"

	"github.com/revrost/go-openrouter"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/config"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/ai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultModel = "google/gemma-3-27b-it"

var capabilities = ai.Capabilities{
	DefaultTemperature: 1.0,
	DefaultTopK:        3,
	DefaultTopP:        0.95,
	MaxTemperature:     2.0,
	MaxTopK:            40,
	MaxTokens:          131_072,
}

func Capabilities() *ai.Capabilities {
	return &capabilities
}

var tracer = otel.Tracer("internal/ai/openrouter")

// Client is the chat completion call of *openrouter.Client reduced to the
// first choice's text. The client has no server-sent event API.
type Client interface {
	Complete(ctx context.Context, req openrouter.ChatCompletionRequest) (string, error)
}

type client struct {
	c *openrouter.Client
}

func Open(cfg config.OpenRouterConfig) Client {
	return &client{c: openrouter.NewClient(cfg.ApiKey)}
}

func (c *client) Complete(ctx context.Context, req openrouter.ChatCompletionRequest) (string, error) {
	resp, err := c.c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ai.ErrNoCandidates
	}
	return resp.Choices[0].Message.Content.Text, nil
}

type Provider struct {
	client      Client
	model       string
	countTokens ai.CountTextTokensFunc
	options     ai.CreateOptions
}

func NewLanguageModel(client Client, model string, countTokens ai.CountTextTokensFunc) ai.NewLanguageModelFunc {
	if model == "" {
		model = DefaultModel
	}
	return func(options ai.CreateOptions) ai.LanguageModel {
		return &Provider{client: client, model: model, countTokens: countTokens, options: options}
	}
}

func (p *Provider) SetCreateOptions(options ai.CreateOptions) {
	p.options = options
}

func (p *Provider) Capabilities() *ai.Capabilities {
	return Capabilities()
}

func (p *Provider) buildRequest(inputs []ai.Prompt) (openrouter.ChatCompletionRequest, error) {
	system, hasSystem, err := p.options.SystemPromptText()
	if err != nil {
		return openrouter.ChatCompletionRequest{}, err
	}

	turns := p.options.Turns(inputs)
	messages := make([]openrouter.ChatCompletionMessage, 0, len(turns)+1)
	if hasSystem {
		messages = append(messages, message(openrouter.ChatMessageRoleSystem, system))
	}
	for _, turn := range turns {
		if !turn.IsText() {
			return openrouter.ChatCompletionRequest{}, ai.ErrUnsupportedInput
		}
		switch turn.Role {
		case ai.RoleUser:
			messages = append(messages, message(openrouter.ChatMessageRoleUser, turn.Text))
		case ai.RoleAssistant:
			messages = append(messages, message(openrouter.ChatMessageRoleAssistant, turn.Text))
		}
	}

	return openrouter.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: p.options.Temperature,
	}, nil
}

func message(role, text string) openrouter.ChatCompletionMessage {
	return openrouter.ChatCompletionMessage{
		Role:    role,
		Content: openrouter.Content{Text: text},
	}
}

func (p *Provider) Prompt(ctx context.Context, inputs []ai.Prompt) (string, error) {
	req, err := p.buildRequest(inputs)
	if err != nil {
		return "", err
	}

	ctx, span := p.startSpan(ctx, "openrouter.CreateChatCompletion", len(req.Messages))
	defer span.End()

	text, err := p.client.Complete(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat completion failed")
		return "", ai.ProviderError(err, "OpenRouter chat completion failed")
	}
	return text, nil
}

func (p *Provider) PromptStreaming(ctx context.Context, inputs []ai.Prompt) (ai.ChunkStream, error) {
	req, err := p.buildRequest(inputs)
	if err != nil {
		return nil, err
	}

	// one completion call delivered as a single text chunk
	return func(yield func(ai.ResponseChunk, error) bool) {
		ctx, span := p.startSpan(ctx, "openrouter.CreateChatCompletion", len(req.Messages))
		defer span.End()
		span.SetAttributes(attribute.Bool("gen_ai.request.streaming", true))

		text, err := p.client.Complete(ctx, req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "chat completion failed")
			yield(ai.ResponseChunk{}, ai.ProviderError(err, "OpenRouter chat completion failed"))
			return
		}
		if text != "" && !yield(ai.TextChunk(text, false), nil) {
			return
		}
		yield(ai.FinishedChunk(), nil)
	}, nil
}

func (p *Provider) CountTokens(inputs []ai.Prompt) (int, error) {
	return ai.CountTemplateTokens(p.options, inputs, p.countTokens)
}

func (p *Provider) startSpan(ctx context.Context, name string, messages int) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gen_ai.system", "openrouter"),
			attribute.String("gen_ai.request.model", p.model),
			attribute.Float64("gen_ai.request.temperature", float64(p.options.Temperature)),
			attribute.Int("gen_ai.request.messages", messages),
		),
	)
}
