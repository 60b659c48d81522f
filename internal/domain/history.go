package domain

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects how a prompt is processed.
type Mode string

const (
	ModeGenerate  Mode = "generate"
	ModeSummarize Mode = "summarize"
)

// ParseMode validates a client supplied mode.
func ParseMode(raw string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case ModeGenerate, ModeSummarize:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, raw)
	}
}

// EntryType classifies a recorded generation.
type EntryType string

const (
	EntryGeneration EntryType = "generation"
	EntrySummary    EntryType = "summary"
)

// EntryTypeFor maps a mode onto the history type it produces.
func EntryTypeFor(m Mode) EntryType {
	if m == ModeSummarize {
		return EntrySummary
	}
	return EntryGeneration
}

// Label is the human readable name shown next to history entries.
func (t EntryType) Label() string {
	switch t {
	case EntrySummary:
		return "Document Summary"
	case EntryGeneration:
		return "Content Generation"
	default:
		return string(t)
	}
}

// HistoryEntry records one completed generation. Entries are never mutated.
type HistoryEntry struct {
	ID            string
	UserID        string
	Prompt        string
	GeneratedText string
	Type          EntryType
	Date          time.Time
	Plan          PlanID
}

// GenerationRequest is the transient input of one submission.
type GenerationRequest struct {
	Prompt string
	Mode   Mode
}
