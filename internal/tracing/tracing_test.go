package tracing

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestInitWithoutEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), config.Config{})
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	h := http.Header{}
	h.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), propagation.HeaderCarrier(h))

	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() || sc.TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("traceparent not extracted: %v", sc)
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{ratio: 0, want: "AlwaysOnSampler"},
		{ratio: 1, want: "AlwaysOnSampler"},
		{ratio: 0.25, want: "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		if got := Sampler(tt.ratio).Description(); !strings.Contains(got, "root:"+tt.want) {
			t.Errorf("Sampler(%v) = %s, want root %s", tt.ratio, got, tt.want)
		}
	}
}

func TestAttributes(t *testing.T) {
	cfg := config.Config{
		Env:           "prod",
		Server:        config.Server{Name: "builtin-ai"},
		LanguageModel: config.LanguageModel{Provider: config.ProviderGemini},
		GeminiConfig:  config.GeminiConfig{Backend: config.GeminiBackendVertex},
	}
	got := map[string]string{}
	for _, kv := range Attributes(cfg) {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	if got["service.name"] != "builtin-ai" || got["gen_ai.system"] != "gemini" || got["gen_ai.gemini.backend"] != "vertex" {
		t.Errorf("attributes = %v", got)
	}

	cfg.LanguageModel.Provider = config.ProviderOpenRouter
	for _, kv := range Attributes(cfg) {
		if kv.Key == "gen_ai.gemini.backend" {
			t.Error("gemini backend attribute set for openrouter")
		}
	}
}
