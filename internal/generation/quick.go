package generation

import "studio/internal/domain"

// QuickAction is a preset prompt offered next to the editor.
type QuickAction struct {
	Label  string      `json:"label"`
	Mode   domain.Mode `json:"mode"`
	Prompt string      `json:"prompt"`
	// AutoSubmit is false for presets that only prefill the editor.
	AutoSubmit bool `json:"auto_submit"`
}

var quickActions = []QuickAction{
	{Label: "Generate Blog Outline", Mode: domain.ModeGenerate, Prompt: "Create a compelling outline for a blog post about the top 5 MERN stack projects of 2024."},
	{Label: "Summarize Report", Mode: domain.ModeSummarize, Prompt: "Paste a long paragraph here and click Summarize Report to see the magic!"},
	{Label: "Create Product Description", Mode: domain.ModeGenerate, Prompt: "Write an exciting product description for a new AI-powered coffee maker."},
}

// QuickActions returns the presets with AutoSubmit derived from the prompt.
func QuickActions() []QuickAction {
	out := make([]QuickAction, len(quickActions))
	for i, a := range quickActions {
		a.AutoSubmit = !IsPlaceholder(a.Prompt)
		out[i] = a
	}
	return out
}
