package repo

import (
	"context"
	"fmt"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/sqlinline"
)

// PaymentRepositoryPG keeps an audit trail of checkouts.
type PaymentRepositoryPG struct {
	sql   infra.SQLExecutor
	appID string
}

func NewPaymentRepository(sql infra.SQLExecutor, appID string) *PaymentRepositoryPG {
	return &PaymentRepositoryPG{sql: sql, appID: appID}
}

func (r *PaymentRepositoryPG) Record(ctx context.Context, p domain.Payment) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertPayment,
		p.ID,
		r.appID,
		p.UserID,
		string(p.Plan),
		p.Method,
		p.SubtotalCents,
		p.TaxCents,
		p.TotalCents,
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

var _ domain.PaymentRepository = (*PaymentRepositoryPG)(nil)
