package handlers

import (
	"time"

	"studio/internal/billing"
	"studio/internal/domain"
	"studio/internal/quota"
	"studio/internal/session"
)

type profileDTO struct {
	UserID              string      `json:"user_id"`
	Email               string      `json:"email,omitempty"`
	Plan                string      `json:"plan"`
	PlanName            string      `json:"plan_name"`
	TokensUsedThisMonth int         `json:"tokens_used_this_month"`
	TokensLimit         int         `json:"tokens_limit"`
	Usage               quota.Usage `json:"usage"`
	CreatedAt           *time.Time  `json:"created_at,omitempty"`
}

func toProfileDTO(s *session.Session) profileDTO {
	p := s.Profile()
	dto := profileDTO{
		UserID:              p.UserID,
		Email:               s.Identity().Email,
		Plan:                string(p.Plan),
		PlanName:            string(p.Plan),
		TokensUsedThisMonth: p.TokensUsedThisMonth,
		TokensLimit:         p.TokensLimit,
		Usage:               s.Usage(),
	}
	if plan, err := domain.LookupPlan(p.Plan); err == nil {
		dto.PlanName = plan.Name
	}
	if !p.CreatedAt.IsZero() {
		created := p.CreatedAt
		dto.CreatedAt = &created
	}
	return dto
}

type entryDTO struct {
	ID            string    `json:"id"`
	Prompt        string    `json:"prompt"`
	GeneratedText string    `json:"generated_text"`
	Type          string    `json:"type"`
	TypeLabel     string    `json:"type_label"`
	Date          time.Time `json:"date"`
	Plan          string    `json:"plan"`
}

func toEntryDTO(e domain.HistoryEntry) entryDTO {
	return entryDTO{
		ID:            e.ID,
		Prompt:        e.Prompt,
		GeneratedText: e.GeneratedText,
		Type:          string(e.Type),
		TypeLabel:     e.Type.Label(),
		Date:          e.Date,
		Plan:          string(e.Plan),
	}
}

func toEntryDTOs(entries []domain.HistoryEntry) []entryDTO {
	out := make([]entryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryDTO(e))
	}
	return out
}

type quoteDTO struct {
	SubtotalCents int64  `json:"subtotal_cents"`
	TaxCents      int64  `json:"tax_cents"`
	TotalCents    int64  `json:"total_cents"`
	TotalDisplay  string `json:"total_display"`
	TotalINRPaise int64  `json:"total_inr_paise"`
}

func toQuoteDTO(q billing.Quote) quoteDTO {
	return quoteDTO{
		SubtotalCents: q.SubtotalCents,
		TaxCents:      q.TaxCents,
		TotalCents:    q.TotalCents,
		TotalDisplay:  billing.FormatUSD(q.TotalCents),
		TotalINRPaise: q.TotalINRPaise,
	}
}

type offerDTO struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	PriceLabel   string   `json:"price_label"`
	OneTime      bool     `json:"one_time"`
	LimitDisplay string   `json:"limit_display"`
	ActionLabel  string   `json:"action_label"`
	Current      bool     `json:"current"`
	Benefits     []string `json:"benefits"`
	Quote        quoteDTO `json:"quote"`
}
