package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/infra"
)

// Options configures a Service. Payments is optional.
type Options struct {
	Profiles   domain.ProfileWriter
	Payments   domain.PaymentRepository
	Processor  Processor
	TaxPercent int
	Now        func() time.Time
	Logger     *infra.Logger
}

type Service struct {
	profiles   domain.ProfileWriter
	payments   domain.PaymentRepository
	processor  Processor
	taxPercent int
	now        func() time.Time
	logger     *infra.Logger
}

// CheckoutRequest moves UserID from CurrentPlan to Plan.
type CheckoutRequest struct {
	UserID      string
	CurrentPlan domain.PlanID
	Plan        domain.PlanID
	Payment     PaymentDetails
}

// Receipt describes a completed checkout.
type Receipt struct {
	Plan      domain.Plan
	Quote     Quote
	Reference string
	Message   string
	PaidAt    time.Time
}

func NewService(opts Options) (*Service, error) {
	if opts.Profiles == nil {
		return nil, errors.New("billing: profile store is required")
	}
	processor := opts.Processor
	if processor == nil {
		processor = SimulatedProcessor{}
	}
	tax := opts.TaxPercent
	if tax < 0 {
		tax = DefaultTaxPercent
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{
		profiles:   opts.Profiles,
		payments:   opts.Payments,
		processor:  processor,
		taxPercent: tax,
		now:        now,
		logger:     logger,
	}, nil
}

// Quote prices plan with the service tax rate.
func (s *Service) Quote(plan domain.Plan) Quote {
	return QuoteFor(plan, s.taxPercent)
}

// Checkout validates payment, charges it, records the receipt and switches the plan.
// Free plans skip payment entirely.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*Receipt, error) {
	if req.UserID == "" {
		return nil, domain.ErrNoSession
	}
	plan, err := domain.LookupPlan(req.Plan)
	if err != nil {
		return nil, err
	}
	if plan.ID == req.CurrentPlan {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, ErrCurrentPlan)
	}
	quote := s.Quote(plan)

	var reference string
	if plan.Paid() {
		if err := req.Payment.Validate(); err != nil {
			return nil, err
		}
		s.logger.Info().Str("user_id", req.UserID).Str("plan", string(plan.ID)).Str("total", FormatUSD(quote.TotalCents)).Msg("processing payment")
		reference, err = s.processor.Charge(ctx, req.Payment, quote)
		if err != nil {
			return nil, fmt.Errorf("%w: Payment processing failed. Try again.: %w", domain.ErrInvalidPayment, err)
		}
	}

	paidAt := s.now()
	if plan.Paid() && s.payments != nil {
		if err := s.payments.Record(ctx, domain.Payment{
			ID:            reference,
			UserID:        req.UserID,
			Plan:          plan.ID,
			Method:        string(req.Payment.Method),
			SubtotalCents: quote.SubtotalCents,
			TaxCents:      quote.TaxCents,
			TotalCents:    quote.TotalCents,
			CreatedAt:     paidAt,
		}); err != nil {
			return nil, fmt.Errorf("%w: record payment: %w", domain.ErrPersistence, err)
		}
	}

	if err := ChangePlan(ctx, s.profiles, req.UserID, plan, paidAt); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", req.UserID).Str("plan", string(plan.ID)).Str("reference", reference).Msg("plan changed")

	return &Receipt{
		Plan:      plan,
		Quote:     quote,
		Reference: reference,
		Message:   SuccessMessage(plan),
		PaidAt:    paidAt,
	}, nil
}

// ChangePlan assigns plan to userID and resets the month's consumption.
func ChangePlan(ctx context.Context, profiles domain.ProfileWriter, userID string, plan domain.Plan, now time.Time) error {
	if err := profiles.Merge(ctx, userID, domain.PlanChangePatch(plan, now)); err != nil {
		return fmt.Errorf("%w: change plan: %w", domain.ErrPersistence, err)
	}
	return nil
}

func SuccessMessage(plan domain.Plan) string {
	return fmt.Sprintf("Payment successful! You are now on the %s plan.", plan.Name)
}
