package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"studio/internal/domain"
)

type stubProfiles struct {
	merged []domain.ProfilePatch
	err    error
}

func (s *stubProfiles) Merge(ctx context.Context, userID string, patch domain.ProfilePatch) error {
	if s.err != nil {
		return s.err
	}
	s.merged = append(s.merged, patch)
	return nil
}

type stubPayments struct {
	recorded []domain.Payment
}

func (s *stubPayments) Record(ctx context.Context, p domain.Payment) error {
	s.recorded = append(s.recorded, p)
	return nil
}

type stubProcessor struct {
	calls int
	err   error
}

func (p *stubProcessor) Charge(ctx context.Context, details PaymentDetails, quote Quote) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return "ref-1", nil
}

func TestOffers(t *testing.T) {
	offers := Offers(domain.PlanPro)
	if len(offers) != 4 {
		t.Fatalf("expected 4 offers, got %d", len(offers))
	}
	want := []struct {
		limit, action string
	}{
		{"5 Tokens/Month", "Upgrade Now"},
		{"50 Tokens/Month", "Current Plan Active"},
		{"500 Tokens/Month", "Upgrade Now"},
		{"Unlimited", "Purchase Lifetime Access"},
	}
	for i, w := range want {
		if offers[i].LimitDisplay != w.limit || offers[i].ActionLabel != w.action {
			t.Fatalf("offer %d = %+v, want %+v", i, offers[i], w)
		}
	}
	if !offers[1].Current || offers[0].Current {
		t.Fatal("only PRO should be current")
	}
}

func TestQuoteFor(t *testing.T) {
	cases := []struct {
		plan                 domain.PlanID
		subtotal, tax, total int64
	}{
		{domain.PlanFree, 0, 0, 0},
		{domain.PlanPro, 999, 50, 1049},
		{domain.PlanAdvanced, 2999, 150, 3149},
		{domain.PlanLifetime, 49900, 2495, 52395},
	}
	for _, tc := range cases {
		plan, _ := domain.LookupPlan(tc.plan)
		q := QuoteFor(plan, DefaultTaxPercent)
		if q.SubtotalCents != tc.subtotal || q.TaxCents != tc.tax || q.TotalCents != tc.total {
			t.Fatalf("%s quote = %+v", tc.plan, q)
		}
	}
	if got := FormatUSD(1049); got != "$10.49" {
		t.Fatalf("FormatUSD = %s", got)
	}
}

func TestPaymentDetailsValidate(t *testing.T) {
	cases := []struct {
		name    string
		details PaymentDetails
		want    error
	}{
		{"card ok", PaymentDetails{Method: MethodCard, CardNumber: "4242", CardName: "A"}, nil},
		{"card missing name", PaymentDetails{Method: MethodCard, CardNumber: "4242"}, ErrCardDetails},
		{"upi ok", PaymentDetails{Method: MethodUPI, UPIID: "a@upi"}, nil},
		{"upi missing", PaymentDetails{Method: MethodUPI}, ErrUPIID},
		{"unknown", PaymentDetails{Method: "cash"}, ErrMethod},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.details.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) || !errors.Is(err, domain.ErrInvalidPayment) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCheckoutPaidPlan(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	profiles := &stubProfiles{}
	payments := &stubPayments{}
	processor := &stubProcessor{}
	svc, err := NewService(Options{Profiles: profiles, Payments: payments, Processor: processor, TaxPercent: 5, Now: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	receipt, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:      "u1",
		CurrentPlan: domain.PlanFree,
		Plan:        domain.PlanPro,
		Payment:     PaymentDetails{Method: MethodCard, CardNumber: "4242", CardName: "A"},
	})
	if err != nil {
		t.Fatalf("Checkout error: %v", err)
	}
	if receipt.Message != "Payment successful! You are now on the Pro plan." {
		t.Fatalf("unexpected message %q", receipt.Message)
	}
	if processor.calls != 1 || len(payments.recorded) != 1 || payments.recorded[0].TotalCents != 1049 {
		t.Fatalf("expected one charge and receipt, got calls=%d payments=%+v", processor.calls, payments.recorded)
	}
	if len(profiles.merged) != 1 {
		t.Fatalf("expected one profile merge, got %d", len(profiles.merged))
	}
	patch := profiles.merged[0]
	if *patch.Plan != domain.PlanPro || *patch.TokensLimit != 50 || *patch.TokensUsedThisMonth != 0 || !patch.PeriodStartedAt.Equal(now) {
		t.Fatalf("unexpected patch %+v", patch)
	}
}

func TestCheckoutRejectsInvalidPaymentWithoutSideEffects(t *testing.T) {
	profiles := &stubProfiles{}
	processor := &stubProcessor{}
	svc, _ := NewService(Options{Profiles: profiles, Processor: processor})
	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  "u1",
		Plan:    domain.PlanAdvanced,
		Payment: PaymentDetails{Method: MethodUPI},
	})
	if !errors.Is(err, ErrUPIID) {
		t.Fatalf("expected ErrUPIID, got %v", err)
	}
	if processor.calls != 0 || len(profiles.merged) != 0 {
		t.Fatal("invalid payment must not charge or change the plan")
	}
}

func TestCheckoutFreePlanSkipsPayment(t *testing.T) {
	profiles := &stubProfiles{}
	processor := &stubProcessor{}
	svc, _ := NewService(Options{Profiles: profiles, Processor: processor})
	receipt, err := svc.Checkout(context.Background(), CheckoutRequest{UserID: "u1", CurrentPlan: domain.PlanPro, Plan: domain.PlanFree})
	if err != nil {
		t.Fatalf("Checkout error: %v", err)
	}
	if processor.calls != 0 || receipt.Reference != "" {
		t.Fatalf("free plan should not be charged, receipt=%+v", receipt)
	}
	if len(profiles.merged) != 1 || *profiles.merged[0].TokensLimit != 5 {
		t.Fatalf("unexpected merges %+v", profiles.merged)
	}
}

func TestCheckoutRejections(t *testing.T) {
	svc, _ := NewService(Options{Profiles: &stubProfiles{}, Processor: &stubProcessor{}})
	ctx := context.Background()

	if _, err := svc.Checkout(ctx, CheckoutRequest{UserID: "u1", CurrentPlan: domain.PlanPro, Plan: domain.PlanPro}); !errors.Is(err, ErrCurrentPlan) {
		t.Fatalf("expected ErrCurrentPlan, got %v", err)
	}
	if _, err := svc.Checkout(ctx, CheckoutRequest{UserID: "u1", Plan: "GOLD"}); !errors.Is(err, domain.ErrUnsupportedPlan) {
		t.Fatalf("expected ErrUnsupportedPlan, got %v", err)
	}
	if _, err := svc.Checkout(ctx, CheckoutRequest{Plan: domain.PlanPro}); !errors.Is(err, domain.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestCheckoutProcessorAndStoreFailures(t *testing.T) {
	card := PaymentDetails{Method: MethodCard, CardNumber: "1", CardName: "A"}
	profiles := &stubProfiles{}
	svc, _ := NewService(Options{Profiles: profiles, Processor: &stubProcessor{err: errors.New("declined")}})
	if _, err := svc.Checkout(context.Background(), CheckoutRequest{UserID: "u1", Plan: domain.PlanPro, Payment: card}); !errors.Is(err, domain.ErrInvalidPayment) {
		t.Fatalf("expected ErrInvalidPayment, got %v", err)
	}
	if len(profiles.merged) != 0 {
		t.Fatal("declined payment must not change the plan")
	}

	svc, _ = NewService(Options{Profiles: &stubProfiles{err: errors.New("down")}, Processor: &stubProcessor{}})
	if _, err := svc.Checkout(context.Background(), CheckoutRequest{UserID: "u1", Plan: domain.PlanPro, Payment: card}); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestSimulatedProcessorHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (SimulatedProcessor{Delay: time.Minute}).Charge(ctx, PaymentDetails{}, Quote{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	ref, err := (SimulatedProcessor{}).Charge(context.Background(), PaymentDetails{}, Quote{})
	if err != nil || ref == "" {
		t.Fatalf("expected reference, got %q %v", ref, err)
	}
}
