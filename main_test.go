package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/config"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/ai"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/middleware"
)

type echoModel struct {
	options ai.CreateOptions
}

func (m *echoModel) SetCreateOptions(options ai.CreateOptions) { m.options = options }
func (m *echoModel) Capabilities() *ai.Capabilities            { return &ai.Capabilities{DefaultTopK: 3, MaxTopK: 40} }

func (m *echoModel) Prompt(_ context.Context, inputs []ai.Prompt) (string, error) {
	return inputs[len(inputs)-1].Text, nil
}

func (m *echoModel) PromptStreaming(_ context.Context, inputs []ai.Prompt) (ai.ChunkStream, error) {
	return func(yield func(ai.ResponseChunk, error) bool) {
		for _, w := range strings.Fields(inputs[0].Text) {
			if !yield(ai.TextChunk(w, false), nil) {
				return
			}
		}
		yield(ai.FinishedChunk(), nil)
	}, nil
}

func (m *echoModel) CountTokens(inputs []ai.Prompt) (int, error) { return len(inputs), nil }

func testConfig(t *testing.T) *config.Config {
	static := t.TempDir()
	if err := os.WriteFile(filepath.Join(static, "index.html"), []byte("<h1>demo</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &config.Config{Server: config.Server{
		Name:           "builtin-ai",
		StaticDir:      static,
		AllowedOrigins: []string{"https://app.example.com"},
	}}
}

func TestServerRoutes(t *testing.T) {
	app := newServer(testConfig(t), func(ai.CreateOptions) ai.LanguageModel { return &echoModel{} }, 1)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		origin     string
		wantStatus int
		wantBody   string
	}{
		{name: "health", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK, wantBody: `{"status":"ok","version":1}`},
		{name: "prompt", method: http.MethodPost, path: "/language-model/prompt", origin: "https://app.example.com",
			body: `{"inputs":[{"content":"echo me"}]}`, wantStatus: http.StatusOK, wantBody: "echo me"},
		{name: "streaming", method: http.MethodPost, path: "/language-model/prompt-streaming", origin: "https://app.example.com",
			body: `{"inputs":[{"content":"a b c"}]}`, wantStatus: http.StatusOK, wantBody: "abc"},
		{name: "count tokens", method: http.MethodPost, path: "/language-model/count-tokens", origin: "https://app.example.com",
			body: `{"inputs":[{"content":"x"},{"content":"y"}]}`, wantStatus: http.StatusOK, wantBody: "2"},
		{name: "foreign origin", method: http.MethodPost, path: "/language-model/prompt", origin: "https://evil.example.com",
			body: `{"inputs":[{"content":"x"}]}`, wantStatus: http.StatusForbidden, wantBody: "Forbidden"},
		{name: "summarizer", method: http.MethodPost, path: "/summarizer/prompt", origin: "https://app.example.com",
			body: `{"input":"x","options":{}}`, wantStatus: http.StatusOK, wantBody: "TEXT:\nx"},
		{name: "static fallback", method: http.MethodGet, path: "/index.html", wantStatus: http.StatusOK, wantBody: "<h1>demo</h1>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatal(err)
			}
			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != tt.wantStatus || string(body) != tt.wantBody {
				t.Errorf("got %d %q, want %d %q", resp.StatusCode, body, tt.wantStatus, tt.wantBody)
			}
			if resp.Header.Get(middleware.HeaderRequestID) == "" {
				t.Error("response has no request id")
			}
		})
	}
}

func TestCapabilitiesRoute(t *testing.T) {
	app := newServer(testConfig(t), func(ai.CreateOptions) ai.LanguageModel { return &echoModel{} }, 1)

	req := httptest.NewRequest(http.MethodGet, "/language-model/capabilities", nil)
	req.Header.Set("Origin", "https://app.example.com")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	var caps ai.Capabilities
	if err := json.NewDecoder(resp.Body).Decode(&caps); err != nil {
		t.Fatal(err)
	}
	if caps.MaxTopK != 40 {
		t.Errorf("capabilities = %+v", caps)
	}
}

func TestSetHeaderIDKeepsIncomingID(t *testing.T) {
	app := newServer(testConfig(t), func(ai.CreateOptions) ai.LanguageModel { return &echoModel{} }, 1)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.HeaderRequestID, "abc-123")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if got := resp.Header.Get(middleware.HeaderRequestID); got != "abc-123" {
		t.Errorf("requestId = %q, want abc-123", got)
	}
}

func TestCountTokensCmdMissingModel(t *testing.T) {
	t.Setenv("API_CONFIG_PATH", t.TempDir())
	t.Setenv("TOKENIZERCONFIG_PATH", filepath.Join(t.TempDir(), "missing.model"))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"count-tokens", "--system", "S", "hello"})

	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error without a tokenizer model, output %q", out.String())
	}
}
