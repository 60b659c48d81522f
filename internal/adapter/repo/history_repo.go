package repo

import (
	"context"
	"fmt"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/sqlinline"
)

// HistoryRepositoryPG stores content history rows.
type HistoryRepositoryPG struct {
	sql   infra.SQLExecutor
	appID string
}

func NewHistoryRepository(sql infra.SQLExecutor, appID string) *HistoryRepositoryPG {
	return &HistoryRepositoryPG{sql: sql, appID: appID}
}

func (r *HistoryRepositoryPG) Append(ctx context.Context, entry domain.HistoryEntry) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertHistoryEntry,
		entry.ID,
		r.appID,
		entry.UserID,
		entry.Prompt,
		entry.GeneratedText,
		string(entry.Type),
		string(entry.Plan),
		entry.Date,
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first.
func (r *HistoryRepositoryPG) List(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListHistory, r.appID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []domain.HistoryEntry
	for rows.Next() {
		var (
			e         domain.HistoryEntry
			entryType string
			plan      string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Prompt, &e.GeneratedText, &entryType, &plan, &e.Date); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Type = domain.EntryType(entryType)
		e.Plan = domain.PlanID(plan)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

var _ domain.HistoryRepository = (*HistoryRepositoryPG)(nil)
