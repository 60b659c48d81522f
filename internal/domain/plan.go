package domain

import (
	"fmt"
	"strings"
)

// PlanID enumerates subscription plans.
type PlanID string

const (
	PlanFree     PlanID = "FREE"
	PlanPro      PlanID = "PRO"
	PlanAdvanced PlanID = "ADVANCED"
	PlanLifetime PlanID = "LIFETIME"
)

// UnlimitedTokenLimit is the limit value rendered as unlimited access.
const UnlimitedTokenLimit = 99999

// Plan is immutable reference data describing one subscription tier.
type Plan struct {
	ID         PlanID
	Name       string
	TokenLimit int
	PriceLabel string
	PriceCents int64
	OneTime    bool
	Benefits   []string
}

// Unlimited reports whether the plan renders as unlimited access.
func (p Plan) Unlimited() bool {
	return p.TokenLimit >= UnlimitedTokenLimit
}

// Paid reports whether switching to the plan requires a payment.
func (p Plan) Paid() bool {
	return p.PriceCents > 0
}

var planOrder = []PlanID{PlanFree, PlanPro, PlanAdvanced, PlanLifetime}

var plans = map[PlanID]Plan{
	PlanFree: {
		ID:         PlanFree,
		Name:       "Free Tier",
		TokenLimit: 5,
		PriceLabel: "Free",
		Benefits:   []string{"5 Tokens/Month", "Basic Content Generation", "History limited to 1 week"},
	},
	PlanPro: {
		ID:         PlanPro,
		Name:       "Pro",
		TokenLimit: 50,
		PriceLabel: "$9.99/mo",
		PriceCents: 999,
		Benefits:   []string{"50 Tokens/Month", "Document Summarization", "Full History Access"},
	},
	PlanAdvanced: {
		ID:         PlanAdvanced,
		Name:       "Advanced",
		TokenLimit: 500,
		PriceLabel: "$29.99/mo",
		PriceCents: 2999,
		Benefits:   []string{"500 Tokens/Month", "Priority AI Models", "Advanced Tone Controls"},
	},
	PlanLifetime: {
		ID:         PlanLifetime,
		Name:       "Lifetime",
		TokenLimit: UnlimitedTokenLimit,
		PriceLabel: "$499.00 (One-Time)",
		PriceCents: 49900,
		OneTime:    true,
		Benefits:   []string{"Unlimited Tokens (Forever)", "All Advanced Features", "Future Feature Access"},
	},
}

// Plans returns the catalog in display order.
func Plans() []Plan {
	out := make([]Plan, 0, len(planOrder))
	for _, id := range planOrder {
		out = append(out, plans[id])
	}
	return out
}

// LookupPlan returns the catalog entry for id.
func LookupPlan(id PlanID) (Plan, error) {
	p, ok := plans[id]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnsupportedPlan, string(id))
	}
	return p, nil
}

// ParsePlanID accepts plan identifiers in any letter case.
func ParsePlanID(raw string) (PlanID, error) {
	id := PlanID(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := plans[id]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPlan, raw)
	}
	return id, nil
}
