package ai

import (
	"fmt"

	"github.com/pkg/errors"
)

type ErrorKind int

const (
	KindSystemPrompt ErrorKind = iota + 1
	KindPromptInput
	KindProvider
	KindTokenizer
)

func (k ErrorKind) String() string {
	switch k {
	case KindSystemPrompt:
		return "SystemPromptError"
	case KindPromptInput:
		return "PromptInputError"
	case KindProvider:
		return "ProviderError"
	case KindTokenizer:
		return "TokenizerError"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is returned by every LanguageModel operation. Message is safe to show
// to the caller; Err keeps the underlying cause for logging.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsClientError reports whether the failure was caused by the request itself.
func (e *Error) IsClientError() bool {
	return e.Kind == KindSystemPrompt || e.Kind == KindPromptInput
}

var (
	ErrSystemPromptAlreadySet = &Error{Kind: KindSystemPrompt, Message: "System prompt is already set."}
	ErrTooManySystemPrompts   = &Error{Kind: KindSystemPrompt, Message: "Only one system prompt is allowed."}
	ErrSystemPromptNotText    = &Error{Kind: KindSystemPrompt, Message: "System prompt is not a text prompt."}

	ErrUnsupportedInput = &Error{Kind: KindPromptInput, Message: "Unsupported input type"}

	ErrNoCandidates = errors.New("no candidates returned")
)

func ProviderError(err error, message string) error {
	return &Error{Kind: KindProvider, Message: message, Err: errors.WithStack(err)}
}

func TokenizerError(err error) error {
	return &Error{Kind: KindTokenizer, Message: "failed to count tokens", Err: errors.WithStack(err)}
}
