package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"studio/internal/billing"
	"studio/internal/domain"
	"studio/internal/i18n"
	"studio/internal/middleware"
)

type checkoutRequest struct {
	Plan       string `json:"plan"`
	Method     string `json:"method"`
	CardNumber string `json:"card_number"`
	CardName   string `json:"card_name"`
	UPIID      string `json:"upi_id"`
}

type checkoutResponse struct {
	Message   string     `json:"message"`
	Plan      string     `json:"plan"`
	Reference string     `json:"reference,omitempty"`
	Quote     quoteDTO   `json:"quote"`
	Profile   profileDTO `json:"profile"`
}

// Plans lists the plan offers relative to the caller's plan.
func (a *App) Plans(w http.ResponseWriter, r *http.Request) {
	s, err := a.session(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	offers := billing.Offers(s.Plan())
	out := make([]offerDTO, 0, len(offers))
	for _, o := range offers {
		out = append(out, offerDTO{
			ID:           string(o.Plan.ID),
			Name:         o.Plan.Name,
			PriceLabel:   o.Plan.PriceLabel,
			OneTime:      o.Plan.OneTime,
			LimitDisplay: o.LimitDisplay,
			ActionLabel:  o.ActionLabel,
			Current:      o.Current,
			Benefits:     o.Plan.Benefits,
			Quote:        toQuoteDTO(a.Billing.Quote(o.Plan)),
		})
	}
	a.json(w, http.StatusOK, map[string]any{"plans": out})
}

// Checkout pays for a plan and switches the caller onto it.
func (a *App) Checkout(w http.ResponseWriter, r *http.Request) {
	s, err := a.session(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req checkoutRequest
	if err := a.decode(w, r, &req); err != nil {
		a.fail(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
		return
	}
	planID, err := domain.ParsePlanID(req.Plan)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	receipt, err := a.Billing.Checkout(r.Context(), billing.CheckoutRequest{
		UserID:      s.UserID(),
		CurrentPlan: s.Plan(),
		Plan:        planID,
		Payment: billing.PaymentDetails{
			Method:     billing.Method(strings.ToLower(strings.TrimSpace(req.Method))),
			CardNumber: req.CardNumber,
			CardName:   req.CardName,
			UPIID:      req.UPIID,
		},
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if s, err = a.Sessions.Refresh(r.Context(), s.UserID()); err != nil {
		a.fail(w, r, err)
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	a.json(w, http.StatusOK, checkoutResponse{
		Message:   i18n.T(locale, i18n.PaymentSuccess, receipt.Plan.Name),
		Plan:      string(receipt.Plan.ID),
		Reference: receipt.Reference,
		Quote:     toQuoteDTO(receipt.Quote),
		Profile:   toProfileDTO(s),
	})
}
