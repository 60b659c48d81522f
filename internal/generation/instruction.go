package generation

import (
	"fmt"
	"strings"

	"studio/internal/domain"
)

const (
	generateInstruction  = "You are a professional content creator. Generate a compelling, well-structured, and plagiarism-free text based on the user's prompt."
	summarizeInstruction = "You are an expert document summarizer. Take the user's text and provide a concise, high-quality summary in three key bullet points, followed by a one-paragraph analysis."
)

// PlaceholderMarker marks template text that stands in for real user input.
const PlaceholderMarker = "Paste a long paragraph here"

// InstructionFor returns the system instruction for mode. There is no fallback.
func InstructionFor(mode domain.Mode) (string, error) {
	switch mode {
	case domain.ModeGenerate:
		return generateInstruction, nil
	case domain.ModeSummarize:
		return summarizeInstruction, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, string(mode))
	}
}

// IsPlaceholder reports whether prompt still carries the placeholder text.
func IsPlaceholder(prompt string) bool {
	return strings.Contains(prompt, PlaceholderMarker)
}

// ValidatePrompt rejects blank and placeholder prompts.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("%w: prompt is empty", domain.ErrInvalidInput)
	}
	if IsPlaceholder(prompt) {
		return fmt.Errorf("%w: prompt is a placeholder", domain.ErrInvalidInput)
	}
	return nil
}
