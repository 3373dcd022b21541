package summarizer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/ai"
)

type fakeModel struct {
	ai.LanguageModel
	options ai.CreateOptions
	inputs  []ai.Prompt
}

func (m *fakeModel) Capabilities() *ai.Capabilities {
	return &ai.Capabilities{DefaultTemperature: 1, DefaultTopK: 3}
}

func (m *fakeModel) Prompt(_ context.Context, inputs []ai.Prompt) (string, error) {
	m.inputs = inputs
	return "A short summary.", nil
}

func TestPromptHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "defaults",
			body:       `{"input":"Some long text.","options":{}}`,
			wantStatus: http.StatusOK,
			wantBody:   "A short summary.",
		},
		{
			name:       "key points",
			body:       `{"input":"Some long text.","options":{"type":"key-points","format":"markdown","length":"short","sharedContext":"news"}}`,
			wantStatus: http.StatusOK,
			wantBody:   "A short summary.",
		},
		{
			name:       "unknown type",
			body:       `{"input":"Some long text.","options":{"type":"poem"}}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `invalid summary type "poem" (allowed: tl;dr/key-points/teaser/headline)`,
		},
		{
			name:       "missing input",
			body:       `{"options":{}}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "input is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeModel{}
			app := fiber.New()
			app.Post("/summarizer/prompt", NewPromptHandler(func(options ai.CreateOptions) ai.LanguageModel {
				m.options = options
				return m
			}))

			req := httptest.NewRequest(http.MethodPost, "/summarizer/prompt", strings.NewReader(tt.body))
			req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != tt.wantStatus || string(body) != tt.wantBody {
				t.Errorf("got %d %q, want %d %q", resp.StatusCode, body, tt.wantStatus, tt.wantBody)
			}
			if tt.wantStatus == http.StatusOK {
				if m.options.SystemPrompt == nil || len(m.inputs) != 1 || !strings.HasPrefix(m.inputs[0].Text, "TEXT:\n") {
					t.Errorf("model called with %+v / %+v", m.options, m.inputs)
				}
			}
		})
	}
}
