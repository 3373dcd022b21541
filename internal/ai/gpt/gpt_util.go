package gpt

import (
	"context"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/pkg/errors"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/config"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/ai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultModel = openai.ChatModelGPT4oMini

// Chat Completions has no top-k; TopK is accepted and not forwarded.
var capabilities = ai.Capabilities{
	DefaultTemperature: 1.0,
	DefaultTopK:        3,
	DefaultTopP:        1.0,
	MaxTemperature:     2.0,
	MaxTopK:            40,
	MaxTokens:          128_000,
}

func Capabilities() *ai.Capabilities {
	return &capabilities
}

var tracer = otel.Tracer("internal/ai/gpt")

// Client is implemented by *openai.ChatCompletionService.
type Client interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
	NewStreaming(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) *ssestream.Stream[openai.ChatCompletionChunk]
}

func Open(cfg config.OpenAiConfig) Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.ApiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	return &client.Chat.Completions
}

type Provider struct {
	client      Client
	model       openai.ChatModel
	countTokens ai.CountTextTokensFunc
	options     ai.CreateOptions
}

func NewLanguageModel(client Client, model string, countTokens ai.CountTextTokensFunc) ai.NewLanguageModelFunc {
	m := openai.ChatModel(model)
	if m == "" {
		m = DefaultModel
	}
	return func(options ai.CreateOptions) ai.LanguageModel {
		return &Provider{client: client, model: m, countTokens: countTokens, options: options}
	}
}

func (p *Provider) SetCreateOptions(options ai.CreateOptions) {
	p.options = options
}

func (p *Provider) Capabilities() *ai.Capabilities {
	return Capabilities()
}

func (p *Provider) buildParams(inputs []ai.Prompt) (openai.ChatCompletionNewParams, error) {
	system, hasSystem, err := p.options.SystemPromptText()
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}

	turns := p.options.Turns(inputs)
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	if hasSystem {
		msgs = append(msgs, openai.SystemMessage(system))
	}
	for _, turn := range turns {
		if !turn.IsText() {
			return openai.ChatCompletionNewParams{}, ai.ErrUnsupportedInput
		}
		switch turn.Role {
		case ai.RoleUser:
			msgs = append(msgs, openai.UserMessage(turn.Text))
		case ai.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(turn.Text))
		}
	}

	return openai.ChatCompletionNewParams{
		Messages:    msgs,
		Model:       p.model,
		Temperature: openai.Float(float64(p.options.Temperature)),
	}, nil
}

func (p *Provider) Prompt(ctx context.Context, inputs []ai.Prompt) (string, error) {
	params, err := p.buildParams(inputs)
	if err != nil {
		return "", err
	}

	ctx, span := p.startSpan(ctx, "openai.ChatCompletions.New", len(params.Messages))
	defer span.End()

	chatCompletion, err := p.client.New(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat completion failed")
		return "", ai.ProviderError(err, "chat completion failed")
	}
	if len(chatCompletion.Choices) == 0 {
		span.SetStatus(codes.Error, "no choices")
		return "", ai.ProviderError(ai.ErrNoCandidates, "chat completion failed")
	}

	return chatCompletion.Choices[0].Message.Content, nil
}

func (p *Provider) PromptStreaming(ctx context.Context, inputs []ai.Prompt) (ai.ChunkStream, error) {
	params, err := p.buildParams(inputs)
	if err != nil {
		return nil, err
	}

	return func(yield func(ai.ResponseChunk, error) bool) {
		ctx, span := p.startSpan(ctx, "openai.ChatCompletions.NewStreaming", len(params.Messages))
		defer span.End()

		stream := p.client.NewStreaming(ctx, params)
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			// usage-only chunks carry no choices
			if len(chunk.Choices) == 0 {
				continue
			}
			choice := chunk.Choices[0]
			out := ai.ResponseChunk{Finished: choice.FinishReason != ""}
			if choice.Delta.Content != "" {
				text := choice.Delta.Content
				out.Text = &text
			}
			if !yield(out, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil && !errors.Is(err, io.EOF) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "stream failed")
			yield(ai.ResponseChunk{}, ai.ProviderError(err, "chat completion stream failed"))
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
			attribute.String("gen_ai.system", "openai"),
			attribute.String("gen_ai.request.model", p.model),
			attribute.Float64("gen_ai.request.temperature", float64(p.options.Temperature)),
			attribute.Int("gen_ai.request.messages", messages),
		),
	)
}
