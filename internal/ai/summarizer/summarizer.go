package summarizer

import (
	"context"
	"fmt"
	"strings"

	"gitlab.com/home-server7795544/home-server/gateway/builtin-ai/internal/ai"
)

type Type string

const (
	TypeTLDR      Type = "tl;dr"
	TypeKeyPoints Type = "key-points"
	TypeTeaser    Type = "teaser"
	TypeHeadline  Type = "headline"
)

type Format string

const (
	FormatPlainText Format = "plain-text"
	FormatMarkdown  Format = "markdown"
)

type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// Options mirrors the browser Summarizer.create() options. Empty fields take
// the defaults tl;dr, plain-text and medium.
type Options struct {
	SharedContext string `json:"sharedContext"`
	Type          Type   `json:"type"`
	Format        Format `json:"format"`
	Length        Length `json:"length"`
}

func (o Options) withDefaults() Options {
	if o.Type == "" {
		o.Type = TypeTLDR
	}
	if o.Format == "" {
		o.Format = FormatPlainText
	}
	if o.Length == "" {
		o.Length = LengthMedium
	}
	return o
}

func (o Options) Validate() error {
	o = o.withDefaults()
	switch o.Type {
	case TypeTLDR, TypeKeyPoints, TypeTeaser, TypeHeadline:
	default:
		return fmt.Errorf("invalid summary type %q (allowed: tl;dr/key-points/teaser/headline)", o.Type)
	}
	switch o.Format {
	case FormatPlainText, FormatMarkdown:
	default:
		return fmt.Errorf("invalid summary format %q (allowed: plain-text/markdown)", o.Format)
	}
	switch o.Length {
	case LengthShort, LengthMedium, LengthLong:
	default:
		return fmt.Errorf("invalid summary length %q (allowed: short/medium/long)", o.Length)
	}
	return nil
}

var lengthRules = map[Type]map[Length]string{
	TypeTLDR: {
		LengthShort:  "The summary must fit within one sentence.",
		LengthMedium: "The summary must fit within one short paragraph.",
		LengthLong:   "The summary must fit within one paragraph.",
	},
	TypeKeyPoints: {
		LengthShort:  "The summary must consist of no more than 3 bullet points.",
		LengthMedium: "The summary must consist of no more than 5 bullet points.",
		LengthLong:   "The summary must consist of no more than 7 bullet points.",
	},
	TypeTeaser: {
		LengthShort:  "The summary must fit within one sentence.",
		LengthMedium: "The summary must fit within one short paragraph.",
		LengthLong:   "The summary must fit within one paragraph.",
	},
	TypeHeadline: {
		LengthShort:  "The headline must be concise, using a maximum of 12 words, and capture the essence of the text.",
		LengthMedium: "The headline must be concise, using a maximum of 17 words, and capture the essence of the text.",
		LengthLong:   "The headline must be detailed, using a maximum of 22 words, and comprehensively capture the key themes of the text.",
	},
}

var typeTasks = map[Type]string{
	TypeTLDR:      "Summarize the text as if explaining it to someone with a very short attention span.",
	TypeKeyPoints: "Extract the main points of the text and present them as a bulleted list.",
	TypeTeaser:    "Craft an enticing summary that encourages the user to read the full text.",
	TypeHeadline:  "Generate a headline that effectively summarizes the main point of the text.",
}

// BuildSystemPrompt returns the summarization instructions for options.
// Options must be valid.
func BuildSystemPrompt(options Options) string {
	o := options.withDefaults()

	var sb strings.Builder
	if o.Type == TypeHeadline {
		sb.WriteString("You are a skilled copy editor crafting headlines to capture attention and convey the essence of the content provided in the 'TEXT' section.\n")
	} else {
		sb.WriteString("You are a skilled assistant that accurately summarizes content provided in the 'TEXT' section.\n")
	}
	sb.WriteString(typeTasks[o.Type])
	sb.WriteString("\n")
	sb.WriteString(lengthRules[o.Type][o.Length])
	sb.WriteString("\n")
	if o.Format == FormatMarkdown {
		sb.WriteString("The summary must be in valid Markdown syntax.")
	} else {
		sb.WriteString("The summary must not contain any formatting or markup language.")
	}
	if ctx := strings.TrimSpace(o.SharedContext); ctx != "" {
		sb.WriteString("\nUse the following context to inform the summary: ")
		sb.WriteString(ctx)
	}
	return sb.String()
}

// UserPrompt wraps input in the 'TEXT' section referenced by the system prompt.
func UserPrompt(input string) string {
	return "TEXT:\n" + input
}

// Summarize runs one summarization through a language model built by newModel.
func Summarize(ctx context.Context, newModel ai.NewLanguageModelFunc, caps *ai.Capabilities, input string, options Options) (string, error) {
	if err := options.Validate(); err != nil {
		return "", &ai.Error{Kind: ai.KindPromptInput, Message: err.Error()}
	}

	system := BuildSystemPrompt(options)
	createOptions := ai.DefaultCreateOptions(caps)
	createOptions.SystemPrompt = &system

	model := newModel(createOptions)
	return model.Prompt(ctx, []ai.Prompt{ai.TextPrompt(ai.RoleUser, UserPrompt(input))})
}
