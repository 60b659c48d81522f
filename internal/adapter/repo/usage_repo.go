package repo

import (
	"context"
	"fmt"
	"time"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/sqlinline"
)

// UsageRepositoryPG performs bulk maintenance on monthly counters.
type UsageRepositoryPG struct {
	sql   infra.SQLExecutor
	appID string
}

func NewUsageRepository(sql infra.SQLExecutor, appID string) *UsageRepositoryPG {
	return &UsageRepositoryPG{sql: sql, appID: appID}
}

// ResetUsageBefore zeroes counters of profiles whose period started before periodStart.
func (r *UsageRepositoryPG) ResetUsageBefore(ctx context.Context, periodStart time.Time) (int64, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QResetMonthlyUsage, r.appID, periodStart)
	if err != nil {
		return 0, fmt.Errorf("reset usage: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ domain.UsageResetter = (*UsageRepositoryPG)(nil)
