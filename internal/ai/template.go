package ai

import "strings"

// Gemma turn markers, see https://ai.google.dev/gemma/docs/core/prompt-structure
const (
	startOfTurn = "<start_of_turn>"
	endOfTurn   = "<end_of_turn>"
	gemmaUser   = "user"
	gemmaModel  = "model"
)

// GemmaTemplate renders a conversation in the Gemma chat format.
//
// The system prompt is inlined before the content of the first rendered turn.
// When no turn is rendered the system prompt is dropped and the result is
// empty, unless KeepOrphanSystemPrompt is set, in which case it is rendered
// as a lone user turn.
type GemmaTemplate struct {
	KeepOrphanSystemPrompt bool
}

// RenderGemmaPrompt renders turns with the legacy GemmaTemplate behavior.
func RenderGemmaPrompt(options CreateOptions, turns []Prompt) (string, error) {
	return GemmaTemplate{}.Render(options, turns)
}

func (t GemmaTemplate) Render(options CreateOptions, turns []Prompt) (string, error) {
	system, hasSystem, err := ResolveSystemPrompt(options)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	rendered := 0
	for _, turn := range turns {
		if !turn.IsText() {
			continue
		}
		var role string
		switch turn.Role {
		case RoleUser:
			role = gemmaUser
		case RoleAssistant:
			role = gemmaModel
		default:
			continue
		}

		sb.WriteString(startOfTurn)
		sb.WriteString(role)
		sb.WriteString("\n")
		if hasSystem {
			sb.WriteString(system)
			sb.WriteString("\n\n")
			hasSystem = false
		}
		sb.WriteString(turn.Text)
		sb.WriteString(endOfTurn)
		sb.WriteString("\n")
		rendered++
	}

	if rendered == 0 && hasSystem && t.KeepOrphanSystemPrompt {
		sb.WriteString(startOfTurn + gemmaUser + "\n")
		sb.WriteString(system)
		sb.WriteString(endOfTurn + "\n")
	}
	return sb.String(), nil
}
