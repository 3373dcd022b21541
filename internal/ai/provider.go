package ai

import "context"

type Prompter interface {
	Prompt(ctx context.Context, inputs []Prompt) (string, error)
}

type StreamingPrompter interface {
	PromptStreaming(ctx context.Context, inputs []Prompt) (ChunkStream, error)
}

type TokenCounter interface {
	CountTokens(inputs []Prompt) (int, error)
}

// LanguageModel is implemented once per backend. Instances are created per
// request and configured with the request's CreateOptions.
type LanguageModel interface {
	SetCreateOptions(options CreateOptions)
	Capabilities() *Capabilities
	Prompter
	StreamingPrompter
	TokenCounter
}

type NewLanguageModelFunc func(options CreateOptions) LanguageModel

type CountTextTokensFunc func(text string) (int, error)

// CountTemplateTokens renders the initial prompts and inputs with the Gemma
// template and counts the tokens of the result locally.
func CountTemplateTokens(options CreateOptions, inputs []Prompt, count CountTextTokensFunc) (int, error) {
	prompt, err := RenderGemmaPrompt(options, options.Turns(inputs))
	if err != nil {
		return 0, err
	}
	n, err := count(prompt)
	if err != nil {
		return 0, TokenizerError(err)
	}
	return n, nil
}
