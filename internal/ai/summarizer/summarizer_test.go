package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/ai"
)

func TestBuildSystemPrompt(t *testing.T) {
	tests := []struct {
		name    string
		options Options
		want    []string
		notWant []string
	}{
		{
			name:    "defaults",
			options: Options{},
			want: []string{
				"You are a skilled assistant",
				"very short attention span",
				"The summary must fit within one short paragraph.",
				"must not contain any formatting",
			},
			notWant: []string{"context"},
		},
		{
			name:    "short headline",
			options: Options{Type: TypeHeadline, Length: LengthShort},
			want: []string{
				"You are a skilled copy editor",
				"Generate a headline",
				"maximum of 12 words",
			},
		},
		{
			name:    "long key points in markdown",
			options: Options{Type: TypeKeyPoints, Length: LengthLong, Format: FormatMarkdown},
			want: []string{
				"bulleted list",
				"no more than 7 bullet points",
				"valid Markdown syntax",
			},
		},
		{
			name:    "shared context",
			options: Options{Type: TypeTeaser, SharedContext: "  A tech blog.  "},
			want: []string{
				"Craft an enticing summary",
				"inform the summary: A tech blog.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSystemPrompt(tt.options)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("prompt missing %q:\n%s", w, got)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("prompt contains %q:\n%s", w, got)
				}
			}
		})
	}
}

func TestBuildSystemPromptLayout(t *testing.T) {
	got := BuildSystemPrompt(Options{SharedContext: "Release notes."})
	want := "You are a skilled assistant that accurately summarizes content provided in the 'TEXT' section.\n" +
		"Summarize the text as if explaining it to someone with a very short attention span.\n" +
		"The summary must fit within one short paragraph.\n" +
		"The summary must not contain any formatting or markup language.\n" +
		"Use the following context to inform the summary: Release notes."
	if got != want {
		t.Errorf("BuildSystemPrompt() =\n%q\nwant\n%q", got, want)
	}
	if strings.Contains(got, "TEXT:\n") {
		t.Error("input section belongs to the user turn")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		options Options
		wantErr bool
	}{
		{name: "zero value", options: Options{}},
		{name: "all set", options: Options{Type: TypeHeadline, Format: FormatMarkdown, Length: LengthLong}},
		{name: "bad type", options: Options{Type: "poem"}, wantErr: true},
		{name: "bad format", options: Options{Format: "html"}, wantErr: true},
		{name: "bad length", options: Options{Length: "huge"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.options.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

type recordingModel struct {
	ai.LanguageModel
	options ai.CreateOptions
	inputs  []ai.Prompt
}

func (m *recordingModel) Prompt(_ context.Context, inputs []ai.Prompt) (string, error) {
	m.inputs = inputs
	return "summary", nil
}

func TestSummarize(t *testing.T) {
	caps := &ai.Capabilities{DefaultTemperature: 0.8, DefaultTopK: 3}
	model := &recordingModel{}
	newModel := func(options ai.CreateOptions) ai.LanguageModel {
		model.options = options
		return model
	}

	got, err := Summarize(context.Background(), newModel, caps, "Long article.", Options{Type: TypeHeadline})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "summary" {
		t.Errorf("Summarize() = %q", got)
	}
	if model.options.SystemPrompt == nil || !strings.Contains(*model.options.SystemPrompt, "headline") {
		t.Errorf("system prompt = %v", model.options.SystemPrompt)
	}
	if model.options.Temperature != 0.8 || model.options.TopK != 3 {
		t.Errorf("sampling = %v/%v, want capability defaults", model.options.Temperature, model.options.TopK)
	}
	if len(model.inputs) != 1 || model.inputs[0].Text != "TEXT:\nLong article." || model.inputs[0].Role != ai.RoleUser {
		t.Errorf("inputs = %+v", model.inputs)
	}
}

func TestSummarizeInvalidOptions(t *testing.T) {
	called := false
	newModel := func(ai.CreateOptions) ai.LanguageModel {
		called = true
		return &recordingModel{}
	}

	_, err := Summarize(context.Background(), newModel, &ai.Capabilities{}, "x", Options{Length: "endless"})
	var aiErr *ai.Error
	if !errors.As(err, &aiErr) || !aiErr.IsClientError() {
		t.Fatalf("error = %v, want client error", err)
	}
	if called {
		t.Error("model created for invalid options")
	}
}
