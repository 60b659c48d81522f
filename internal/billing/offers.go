// Package billing presents plan offers and runs the simulated checkout.
package billing

import (
	"fmt"
	"math"

	"studio/internal/domain"
)

const (
	DefaultTaxPercent = 5
	// inrPerUSD is the display-only conversion shown next to UPI payments.
	inrPerUSD = 83.33
)

// Offer is one plan card on the billing page.
type Offer struct {
	Plan         domain.Plan
	LimitDisplay string
	ActionLabel  string
	Current      bool
}

// Offers lists every plan relative to the user's current plan.
func Offers(current domain.PlanID) []Offer {
	plans := domain.Plans()
	out := make([]Offer, 0, len(plans))
	for _, p := range plans {
		isCurrent := p.ID == current
		out = append(out, Offer{
			Plan:         p,
			LimitDisplay: LimitDisplay(p.TokenLimit),
			ActionLabel:  actionLabel(p, isCurrent),
			Current:      isCurrent,
		})
	}
	return out
}

func LimitDisplay(limit int) string {
	if limit >= domain.UnlimitedTokenLimit {
		return "Unlimited"
	}
	return fmt.Sprintf("%d Tokens/Month", limit)
}

func actionLabel(p domain.Plan, current bool) string {
	switch {
	case current:
		return "Current Plan Active"
	case p.ID == domain.PlanLifetime:
		return "Purchase Lifetime Access"
	default:
		return "Upgrade Now"
	}
}

// Quote is the order summary for a plan purchase, in cents.
type Quote struct {
	Plan          domain.PlanID
	SubtotalCents int64
	TaxCents      int64
	TotalCents    int64
	TotalINRPaise int64
}

// QuoteFor prices plan with taxPercent added on top.
func QuoteFor(plan domain.Plan, taxPercent int) Quote {
	subtotal := plan.PriceCents
	total := int64(math.Round(float64(subtotal) * float64(100+taxPercent) / 100))
	return Quote{
		Plan:          plan.ID,
		SubtotalCents: subtotal,
		TaxCents:      total - subtotal,
		TotalCents:    total,
		TotalINRPaise: int64(math.Round(float64(total) * inrPerUSD)),
	}
}

// FormatUSD renders cents as a dollar amount.
func FormatUSD(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
