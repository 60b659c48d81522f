package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"studio/internal/domain"
)

type Method string

const (
	MethodCard Method = "card"
	MethodUPI  Method = "upi"
)

var (
	ErrCardDetails = errors.New("Please fill out mock card details.")
	ErrUPIID       = errors.New("Please enter a mock UPI ID.")
	ErrMethod      = errors.New("Unsupported payment method.")
	ErrCurrentPlan = errors.New("You are already on this plan.")
)

// PaymentDetails are the mock payment fields collected at checkout.
type PaymentDetails struct {
	Method     Method
	CardNumber string
	CardName   string
	UPIID      string
}

// Validate checks the fields required by the selected method.
func (d PaymentDetails) Validate() error {
	switch d.Method {
	case MethodCard:
		if strings.TrimSpace(d.CardNumber) == "" || strings.TrimSpace(d.CardName) == "" {
			return fmt.Errorf("%w: %w", domain.ErrInvalidPayment, ErrCardDetails)
		}
	case MethodUPI:
		if strings.TrimSpace(d.UPIID) == "" {
			return fmt.Errorf("%w: %w", domain.ErrInvalidPayment, ErrUPIID)
		}
	default:
		return fmt.Errorf("%w: %w", domain.ErrInvalidPayment, ErrMethod)
	}
	return nil
}

// Processor charges a validated payment and returns a processor reference.
type Processor interface {
	Charge(ctx context.Context, details PaymentDetails, quote Quote) (string, error)
}

// SimulatedProcessor approves every charge after Delay.
type SimulatedProcessor struct {
	Delay time.Duration
}

func (p SimulatedProcessor) Charge(ctx context.Context, details PaymentDetails, quote Quote) (string, error) {
	if p.Delay > 0 {
		timer := time.NewTimer(p.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return uuid.NewString(), nil
}
