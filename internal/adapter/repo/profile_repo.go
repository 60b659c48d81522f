package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/sqlinline"
)

// ProfileRepositoryPG implements domain.ProfileRepository on PostgreSQL.
type ProfileRepositoryPG struct {
	sql   infra.SQLExecutor
	appID string
}

// NewProfileRepository scopes every query to appID.
func NewProfileRepository(sql infra.SQLExecutor, appID string) *ProfileRepositoryPG {
	return &ProfileRepositoryPG{sql: sql, appID: appID}
}

// Get returns domain.ErrNotFound when the user has no profile yet.
func (r *ProfileRepositoryPG) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectProfile, r.appID, userID)
	return scanProfile(row)
}

// Merge writes only the fields set in patch, creating the profile if needed.
func (r *ProfileRepositoryPG) Merge(ctx context.Context, userID string, patch domain.ProfilePatch) error {
	var plan *string
	if patch.Plan != nil {
		p := string(*patch.Plan)
		plan = &p
	}
	_, err := r.sql.Exec(ctx, sqlinline.QMergeProfile,
		r.appID,
		userID,
		plan,
		patch.TokensUsedThisMonth,
		patch.TokensLimit,
		patch.PeriodStartedAt,
		patch.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("merge profile: %w", err)
	}
	return nil
}

// AddTokensUsed moves the stored counter by delta without reading it first,
// so concurrent writers cannot overwrite each other's units.
func (r *ProfileRepositoryPG) AddTokensUsed(ctx context.Context, userID string, delta int) (int, int, error) {
	var used, limit int
	err := r.sql.QueryRow(ctx, sqlinline.QAddTokensUsed, r.appID, userID, delta).Scan(&used, &limit)
	if err != nil {
		if infra.IsNoRows(err) {
			// The profile exists for every signed-in user, so a missing row on an
			// increment means the limit guard rejected it.
			if delta > 0 {
				return 0, 0, domain.ErrQuotaExceeded
			}
			return 0, 0, domain.ErrNotFound
		}
		return 0, 0, fmt.Errorf("add tokens used: %w", err)
	}
	return used, limit, nil
}

func scanProfile(row pgx.Row) (*domain.UserProfile, error) {
	var (
		p    domain.UserProfile
		plan string
	)
	if err := row.Scan(&p.UserID, &plan, &p.TokensUsedThisMonth, &p.TokensLimit, &p.PeriodStartedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	p.Plan = domain.PlanID(plan)
	p.Normalize()
	return &p, nil
}

var (
	_ domain.ProfileRepository = (*ProfileRepositoryPG)(nil)
	_ domain.UsageCounter      = (*ProfileRepositoryPG)(nil)
)
