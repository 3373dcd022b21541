package ai

import (
	"encoding/json"
	"fmt"
)

type PromptRole int

const (
	RoleUser PromptRole = iota
	RoleSystem
	RoleAssistant
)

func (r PromptRole) String() string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleAssistant:
		return "assistant"
	default:
		return "user"
	}
}

func (r PromptRole) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *PromptRole) UnmarshalText(b []byte) error {
	switch string(b) {
	case "user", "":
		*r = RoleUser
	case "system":
		*r = RoleSystem
	case "assistant":
		*r = RoleAssistant
	default:
		return fmt.Errorf("invalid prompt role %q (allowed: system/user/assistant)", string(b))
	}
	return nil
}

type PromptType int

const (
	TypeText PromptType = iota
	TypeImage
	TypeAudio
)

func (t PromptType) String() string {
	switch t {
	case TypeImage:
		return "image"
	case TypeAudio:
		return "audio"
	default:
		return "text"
	}
}

func (t PromptType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *PromptType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "text", "":
		*t = TypeText
	case "image":
		*t = TypeImage
	case "audio":
		*t = TypeAudio
	default:
		return fmt.Errorf("invalid prompt type %q (allowed: text/image/audio)", string(b))
	}
	return nil
}

// Prompt is a single conversation turn. Text holds the content of TypeText
// prompts, Data the raw bytes of image and audio prompts.
type Prompt struct {
	Type PromptType
	Role PromptRole
	Text string
	Data []byte
}

func TextPrompt(role PromptRole, text string) Prompt {
	return Prompt{Type: TypeText, Role: role, Text: text}
}

func ImagePrompt(role PromptRole, data []byte) Prompt {
	return Prompt{Type: TypeImage, Role: role, Data: data}
}

func AudioPrompt(role PromptRole, data []byte) Prompt {
	return Prompt{Type: TypeAudio, Role: role, Data: data}
}

func (p Prompt) IsText() bool {
	return p.Type == TypeText
}

func (p Prompt) IsSystemPrompt() bool {
	return p.Role == RoleSystem
}

type textPromptJSON struct {
	Type    PromptType `json:"type"`
	Role    PromptRole `json:"role"`
	Content string     `json:"content"`
}

// binary content is base64 encoded by encoding/json
type binaryPromptJSON struct {
	Type    PromptType `json:"type"`
	Role    PromptRole `json:"role"`
	Content []byte     `json:"content"`
}

func (p Prompt) MarshalJSON() ([]byte, error) {
	if p.Type == TypeText {
		return json.Marshal(textPromptJSON{Type: p.Type, Role: p.Role, Content: p.Text})
	}
	return json.Marshal(binaryPromptJSON{Type: p.Type, Role: p.Role, Content: p.Data})
}

func (p *Prompt) UnmarshalJSON(b []byte) error {
	var head struct {
		Type PromptType      `json:"type"`
		Role PromptRole      `json:"role"`
		Raw  json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	out := Prompt{Type: head.Type, Role: head.Role}
	if len(head.Raw) > 0 {
		var err error
		if head.Type == TypeText {
			err = json.Unmarshal(head.Raw, &out.Text)
		} else {
			err = json.Unmarshal(head.Raw, &out.Data)
		}
		if err != nil {
			return fmt.Errorf("invalid %s prompt content: %w", head.Type, err)
		}
	}
	*p = out
	return nil
}

type ExpectedInput struct {
	Type      PromptType `json:"type"`
	Languages []string   `json:"languages"`
}

// CreateOptions mirrors the browser LanguageModel.create() options.
type CreateOptions struct {
	Temperature    float32         `json:"temperature"`
	TopK           uint32          `json:"topK"`
	ExpectedInputs []ExpectedInput `json:"expectedInputs"`
	SystemPrompt   *string         `json:"systemPrompt"`
	InitialPrompts []Prompt        `json:"initialPrompts"`
}

// DefaultCreateOptions returns options carrying the sampling defaults of caps.
// Request bodies are decoded on top of it so absent fields keep the defaults.
func DefaultCreateOptions(caps *Capabilities) CreateOptions {
	return CreateOptions{
		Temperature: caps.DefaultTemperature,
		TopK:        caps.DefaultTopK,
	}
}

// ValidateSampling checks temperature and topK against the ranges of caps.
func (o CreateOptions) ValidateSampling(caps *Capabilities) error {
	if o.Temperature < 0 || o.Temperature > caps.MaxTemperature {
		return &Error{Kind: KindPromptInput, Message: fmt.Sprintf("temperature must be between 0 and %g", caps.MaxTemperature)}
	}
	if o.TopK < 1 || o.TopK > caps.MaxTopK {
		return &Error{Kind: KindPromptInput, Message: fmt.Sprintf("topK must be between 1 and %d", caps.MaxTopK)}
	}
	return nil
}

// Turns returns the initial prompts followed by the call-time inputs.
func (o CreateOptions) Turns(inputs []Prompt) []Prompt {
	turns := make([]Prompt, 0, len(o.InitialPrompts)+len(inputs))
	turns = append(turns, o.InitialPrompts...)
	return append(turns, inputs...)
}

type Capabilities struct {
	MaxTemperature     float32 `json:"maxTemperature"`
	MaxTopK            uint32  `json:"maxTopK"`
	DefaultTemperature float32 `json:"defaultTemperature"`
	DefaultTopK        uint32  `json:"defaultTopK"`
	DefaultTopP        float32 `json:"defaultTopP"`
	MaxTokens          uint32  `json:"maxTokens"`
}

type ResponseChunk struct {
	Text     *string `json:"text"`
	Finished bool    `json:"finished"`
}
