package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"studio/internal/domain"
	"studio/internal/generation"
	"studio/internal/quota"
)

type generationRequest struct {
	Prompt string `json:"prompt"`
	Mode   string `json:"mode"`
}

type generationResponse struct {
	Entry entryDTO    `json:"entry"`
	Usage quota.Usage `json:"usage"`
}

type quickActionDTO struct {
	Label      string `json:"label"`
	Mode       string `json:"mode"`
	Prompt     string `json:"prompt"`
	AutoSubmit bool   `json:"auto_submit"`
}

// CreateGeneration runs one quota-gated generation for the caller.
func (a *App) CreateGeneration(w http.ResponseWriter, r *http.Request) {
	s, err := a.session(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req generationRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
		return
	}
	mode := domain.Mode(strings.ToLower(strings.TrimSpace(req.Mode)))
	if mode == "" {
		mode = domain.ModeGenerate
	}
	entry, err := s.Submit(r.Context(), domain.GenerationRequest{Prompt: req.Prompt, Mode: mode})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, generationResponse{Entry: toEntryDTO(*entry), Usage: s.Usage()})
}

func (a *App) QuickActions(w http.ResponseWriter, r *http.Request) {
	actions := generation.QuickActions()
	out := make([]quickActionDTO, 0, len(actions))
	for _, qa := range actions {
		out = append(out, quickActionDTO{
			Label:      qa.Label,
			Mode:       string(qa.Mode),
			Prompt:     qa.Prompt,
			AutoSubmit: qa.AutoSubmit,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"actions": out})
}
