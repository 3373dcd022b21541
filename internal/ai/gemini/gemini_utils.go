package gemini

import (
	"context"
	"io"
	"iter"
	"strings"

	"github.com/pkg/errors"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/config"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/ai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.0-flash-lite-001"

// defaults of Gemini 2.0 Flash Lite
var capabilities = ai.Capabilities{
	DefaultTemperature: 1.0,
	DefaultTopK:        3,
	DefaultTopP:        0.95,
	MaxTemperature:     1.0,
	MaxTopK:            40,
	MaxTokens:          1_048_576,
}

func Capabilities() *ai.Capabilities {
	return &capabilities
}

var tracer = otel.Tracer("internal/ai/gemini")

// Client is the part of genai.Models used by Provider.
type Client interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

func Open(ctx context.Context, cfg config.GeminiConfig) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.ApiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Backend == config.GeminiBackendVertex {
		cc.APIKey = ""
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.Project
		cc.Location = cfg.Location
	}
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		if !strings.Contains(endpoint, "://") {
			endpoint = "https://" + endpoint
		}
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: endpoint}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Gemini client")
	}
	return client, nil
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
		return &Provider{
			client:      client,
			model:       model,
			countTokens: countTokens,
			options:     options,
		}
	}
}

func (p *Provider) SetCreateOptions(options ai.CreateOptions) {
	p.options = options
}

func (p *Provider) Capabilities() *ai.Capabilities {
	return Capabilities()
}

type request struct {
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (p *Provider) buildRequest(inputs []ai.Prompt) (*request, error) {
	system, hasSystem, err := p.options.SystemPromptText()
	if err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(p.options.Temperature),
		TopK:        genai.Ptr(float32(p.options.TopK)),
	}
	if hasSystem {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	turns := p.options.Turns(inputs)
	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		if !turn.IsText() {
			return nil, ai.ErrUnsupportedInput
		}
		var role genai.Role
		switch turn.Role {
		case ai.RoleUser:
			role = genai.RoleUser
		case ai.RoleAssistant:
			role = genai.RoleModel
		default:
			// system turns only feed SystemInstruction
			continue
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}

	return &request{contents: contents, config: cfg}, nil
}

func (p *Provider) Prompt(ctx context.Context, inputs []ai.Prompt) (string, error) {
	req, err := p.buildRequest(inputs)
	if err != nil {
		return "", err
	}

	ctx, span := p.startSpan(ctx, "gemini.GenerateContent", len(req.contents))
	defer span.End()

	resp, err := p.client.GenerateContent(ctx, p.model, req.contents, req.config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate content failed")
		return "", ai.ProviderError(err, "Gemini GenerateContent failed")
	}
	if len(resp.Candidates) == 0 {
		span.SetStatus(codes.Error, "no candidates")
		return "", ai.ProviderError(ai.ErrNoCandidates, "Gemini GenerateContent failed")
	}

	text, _ := candidateText(resp.Candidates[0])
	return text, nil
}

// PromptStreaming opens a new backend stream. Events without candidates are
// dropped, the end of the stream yields a single finished chunk without text.
func (p *Provider) PromptStreaming(ctx context.Context, inputs []ai.Prompt) (ai.ChunkStream, error) {
	req, err := p.buildRequest(inputs)
	if err != nil {
		return nil, err
	}

	return func(yield func(ai.ResponseChunk, error) bool) {
		ctx, span := p.startSpan(ctx, "gemini.GenerateContentStream", len(req.contents))
		defer span.End()

		events := 0
		for resp, err := range p.client.GenerateContentStream(ctx, p.model, req.contents, req.config) {
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				span.RecordError(err)
				span.SetStatus(codes.Error, "stream failed")
				yield(ai.ResponseChunk{}, ai.ProviderError(err, "Gemini stream failed"))
				return
			}
			events++
			chunk, ok := translate(resp)
			if !ok {
				continue
			}
			if !yield(chunk, nil) {
				return
			}
		}
		span.SetAttributes(attribute.Int("gemini.stream.events", events))
		yield(ai.FinishedChunk(), nil)
	}, nil
}

// translate maps one stream event. ok is false for events without candidates.
func translate(resp *genai.GenerateContentResponse) (chunk ai.ResponseChunk, ok bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return ai.ResponseChunk{}, false
	}
	candidate := resp.Candidates[0]
	if text, has := candidateText(candidate); has {
		chunk.Text = &text
	}
	chunk.Finished = candidate.FinishReason != ""
	return chunk, true
}

// candidateText joins the non-thought text parts of c.
func candidateText(c *genai.Candidate) (string, bool) {
	if c == nil || c.Content == nil {
		return "", false
	}
	var sb strings.Builder
	has := false
	for _, part := range c.Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		sb.WriteString(part.Text)
		has = true
	}
	return sb.String(), has
}

func (p *Provider) CountTokens(inputs []ai.Prompt) (int, error) {
	return ai.CountTemplateTokens(p.options, inputs, p.countTokens)
}

func (p *Provider) startSpan(ctx context.Context, name string, turns int) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gen_ai.system", "gemini"),
			attribute.String("gen_ai.request.model", p.model),
			attribute.Float64("gen_ai.request.temperature", float64(p.options.Temperature)),
			attribute.Int("gen_ai.request.top_k", int(p.options.TopK)),
			attribute.Int("gen_ai.request.turns", turns),
		),
	)
}
