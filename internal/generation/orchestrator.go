// Package generation runs the quota-gated generate-then-persist workflow.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/quota"
)

// ReleasePolicy decides what happens to a reservation when generation fails.
type ReleasePolicy int

const (
	// KeepOnServiceError leaves the unit consumed when the service call fails.
	KeepOnServiceError ReleasePolicy = iota
	// ReleaseOnServiceError returns the unit when the service call fails.
	ReleaseOnServiceError
)

const (
	defaultGenerateTimeout = 60 * time.Second
	defaultPersistTimeout  = 10 * time.Second
)

// Options configures an Orchestrator.
type Options struct {
	Generator       domain.Generator
	Profiles        domain.ProfileWriter
	History         domain.HistoryAppender
	// Counter, when set, replaces the absolute counter merge with an in-place
	// increment so sessions on other instances cannot overwrite each other.
	Counter         domain.UsageCounter
	Policy          ReleasePolicy
	GenerateTimeout time.Duration
	PersistTimeout  time.Duration
	Now             func() time.Time
	NewID           func() string
	Logger          *infra.Logger
}

// Account is the per-session state a submission runs against.
type Account struct {
	UserID string
	Plan   domain.PlanID
	Quota  *quota.Tracker
}

type Orchestrator struct {
	generator       domain.Generator
	profiles        domain.ProfileWriter
	history         domain.HistoryAppender
	counter         domain.UsageCounter
	policy          ReleasePolicy
	generateTimeout time.Duration
	persistTimeout  time.Duration
	now             func() time.Time
	newID           func() string
	logger          *infra.Logger
}

func New(opts Options) (*Orchestrator, error) {
	if opts.Generator == nil {
		return nil, errors.New("generation: generator is required")
	}
	if opts.Profiles == nil || opts.History == nil {
		return nil, errors.New("generation: profile and history stores are required")
	}
	o := &Orchestrator{
		generator:       opts.Generator,
		profiles:        opts.Profiles,
		history:         opts.History,
		counter:         opts.Counter,
		policy:          opts.Policy,
		generateTimeout: opts.GenerateTimeout,
		persistTimeout:  opts.PersistTimeout,
		now:             opts.Now,
		newID:           opts.NewID,
		logger:          opts.Logger,
	}
	if o.generateTimeout <= 0 {
		o.generateTimeout = defaultGenerateTimeout
	}
	if o.persistTimeout <= 0 {
		o.persistTimeout = defaultPersistTimeout
	}
	if o.now == nil {
		o.now = func() time.Time { return time.Now().UTC() }
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}
	if o.logger == nil {
		nop := zerolog.Nop()
		o.logger = &nop
	}
	return o, nil
}

// Submit consumes one unit of acct's quota and records the generated text.
//
// Checks run in order: quota, prompt, mode. A service failure keeps the
// reservation unless the policy says otherwise, and a kept unit is written to
// the store. A persistence failure always returns the reservation and
// discards the generated text.
func (o *Orchestrator) Submit(ctx context.Context, acct Account, req domain.GenerationRequest) (*domain.HistoryEntry, error) {
	if acct.Quota == nil {
		return nil, errors.New("generation: account has no quota tracker")
	}
	if acct.Quota.IsExceeded() {
		return nil, domain.ErrQuotaExceeded
	}
	if err := ValidatePrompt(req.Prompt); err != nil {
		return nil, err
	}
	instruction, err := InstructionFor(req.Mode)
	if err != nil {
		return nil, err
	}

	used := acct.Quota.Reserve()
	log := o.logger.With().Str("user_id", acct.UserID).Str("mode", string(req.Mode)).Int("tokens_used", used).Logger()

	text, err := o.generate(ctx, req.Prompt, instruction)
	if err != nil {
		if o.policy == ReleaseOnServiceError {
			acct.Quota.Release()
		} else {
			o.recordSpent(ctx, acct, used, log)
		}
		log.Warn().Err(err).Msg("generation failed")
		return nil, err
	}

	entry := domain.HistoryEntry{
		ID:            o.newID(),
		UserID:        acct.UserID,
		Prompt:        req.Prompt,
		GeneratedText: text,
		Type:          domain.EntryTypeFor(req.Mode),
		Date:          o.now(),
		Plan:          acct.Plan,
	}
	if err := o.persist(ctx, acct, used, entry); err != nil {
		acct.Quota.Release()
		if errors.Is(err, domain.ErrQuotaExceeded) {
			log.Warn().Msg("stored quota already spent")
			return nil, domain.ErrQuotaExceeded
		}
		log.Error().Err(err).Msg("persist generation failed")
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	log.Info().Str("entry_id", entry.ID).Msg("generation recorded")
	return &entry, nil
}

func (o *Orchestrator) generate(ctx context.Context, prompt, instruction string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.generateTimeout)
	defer cancel()
	text, err := o.generator.Generate(ctx, prompt, instruction)
	if err != nil {
		if errors.Is(err, domain.ErrServiceFailure) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.ErrServiceFailure, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty response", domain.ErrServiceFailure)
	}
	return text, nil
}

func (o *Orchestrator) persist(ctx context.Context, acct Account, used int, entry domain.HistoryEntry) error {
	ctx, cancel := context.WithTimeout(ctx, o.persistTimeout)
	defer cancel()
	undo, err := o.commitUsage(ctx, acct, used)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if err := o.history.Append(ctx, entry); err != nil {
		// The counter is already written; restore it before reporting.
		rbCtx, rbCancel := context.WithTimeout(context.WithoutCancel(ctx), o.persistTimeout)
		defer rbCancel()
		if rbErr := undo(rbCtx); rbErr != nil {
			o.logger.Error().Err(rbErr).Str("user_id", acct.UserID).Msg("restore token count failed")
		}
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// commitUsage writes the reserved unit and returns the write that takes it back.
func (o *Orchestrator) commitUsage(ctx context.Context, acct Account, used int) (func(context.Context) error, error) {
	if o.counter == nil {
		if err := o.profiles.Merge(ctx, acct.UserID, domain.ProfilePatch{TokensUsedThisMonth: &used}); err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			previous := used - 1
			return o.profiles.Merge(ctx, acct.UserID, domain.ProfilePatch{TokensUsedThisMonth: &previous})
		}, nil
	}

	stored, limit, err := o.counter.AddTokensUsed(ctx, acct.UserID, 1)
	if err != nil {
		return nil, err
	}
	acct.Quota.Reset(stored, limit)
	return func(ctx context.Context) error {
		_, _, err := o.counter.AddTokensUsed(ctx, acct.UserID, -1)
		return err
	}, nil
}

// recordSpent persists a unit kept after a failed generation. The caller's
// error is the one reported, so a failed write is only logged.
func (o *Orchestrator) recordSpent(ctx context.Context, acct Account, used int, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.persistTimeout)
	defer cancel()
	if _, err := o.commitUsage(ctx, acct, used); err != nil {
		log.Warn().Err(err).Msg("record spent token failed")
	}
}
