package domain

import "time"

// UserProfile is the durable record of a user's plan and monthly consumption.
type UserProfile struct {
	UserID              string
	Plan                PlanID
	TokensUsedThisMonth int
	TokensLimit         int
	PeriodStartedAt     time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ProfilePatch is a partial update. Nil fields are left untouched by the store.
type ProfilePatch struct {
	Plan                *PlanID
	TokensUsedThisMonth *int
	TokensLimit         *int
	PeriodStartedAt     *time.Time
	CreatedAt           *time.Time
}

// NewProfile returns the profile assigned to a user seen for the first time.
func NewProfile(userID string, now time.Time) UserProfile {
	free := plans[PlanFree]
	return UserProfile{
		UserID:          userID,
		Plan:            PlanFree,
		TokensLimit:     free.TokenLimit,
		PeriodStartedAt: now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// PatchFromProfile builds a patch that writes every field of p.
func PatchFromProfile(p UserProfile) ProfilePatch {
	plan := p.Plan
	used := p.TokensUsedThisMonth
	limit := p.TokensLimit
	period := p.PeriodStartedAt
	created := p.CreatedAt
	return ProfilePatch{
		Plan:                &plan,
		TokensUsedThisMonth: &used,
		TokensLimit:         &limit,
		PeriodStartedAt:     &period,
		CreatedAt:           &created,
	}
}

// PlanChangePatch assigns plan and resets consumption for the new period.
func PlanChangePatch(plan Plan, now time.Time) ProfilePatch {
	id := plan.ID
	limit := plan.TokenLimit
	used := 0
	return ProfilePatch{
		Plan:                &id,
		TokensLimit:         &limit,
		TokensUsedThisMonth: &used,
		PeriodStartedAt:     &now,
	}
}

// Normalize fills zero values left by partially written records.
func (p *UserProfile) Normalize() {
	if p.Plan == "" {
		p.Plan = PlanFree
	}
	if p.TokensLimit <= 0 {
		if plan, ok := plans[p.Plan]; ok {
			p.TokensLimit = plan.TokenLimit
		} else {
			p.TokensLimit = plans[PlanFree].TokenLimit
		}
	}
	if p.TokensUsedThisMonth < 0 {
		p.TokensUsedThisMonth = 0
	}
}
