package ai

// ResolveSystemPrompt derives the single effective system prompt from the
// explicit SystemPrompt field and the System-role entries of InitialPrompts.
// ok is false when neither source provides one.
func ResolveSystemPrompt(options CreateOptions) (text string, ok bool, err error) {
	var initial []Prompt
	for _, p := range options.InitialPrompts {
		if p.IsSystemPrompt() {
			initial = append(initial, p)
		}
	}

	if options.SystemPrompt != nil {
		if len(initial) > 0 {
			return "", false, ErrSystemPromptAlreadySet
		}
		return *options.SystemPrompt, true, nil
	}

	switch {
	case len(initial) > 1:
		return "", false, ErrTooManySystemPrompts
	case len(initial) == 0:
		return "", false, nil
	}

	if !initial[0].IsText() {
		return "", false, ErrSystemPromptNotText
	}
	return initial[0].Text, true, nil
}

func (o CreateOptions) SystemPromptText() (string, bool, error) {
	return ResolveSystemPrompt(o)
}
