package domain

import (
	"context"
	"time"
)

// Payment is the receipt of a completed checkout.
type Payment struct {
	ID            string
	UserID        string
	Plan          PlanID
	Method        string
	SubtotalCents int64
	TaxCents      int64
	TotalCents    int64
	CreatedAt     time.Time
}

// PaymentRepository records receipts.
type PaymentRepository interface {
	Record(ctx context.Context, p Payment) error
}
