package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"studio/internal/adapter/repo"
	"studio/internal/auth"
	"studio/internal/billing"
	"studio/internal/domain"
	"studio/internal/infra"
)

func main() {
	var (
		idFlag        string
		emailFlag     string
		planFlag      string
		appIDFlag     string
		keepUsageFlag bool
	)

	flag.StringVar(&idFlag, "id", "", "user ID to update")
	flag.StringVar(&emailFlag, "email", "", "user email to update (the ID is derived from it)")
	flag.StringVar(&planFlag, "plan", "pro", "plan to assign (free, pro, advanced, lifetime)")
	flag.StringVar(&appIDFlag, "app", "", "application id (fallbacks to APP_ID)")
	flag.BoolVar(&keepUsageFlag, "keep-usage", false, "preserve tokens used this month instead of resetting to 0")
	flag.Parse()

	_ = godotenv.Load()

	userID := strings.TrimSpace(idFlag)
	if email := strings.TrimSpace(emailFlag); userID == "" && email != "" {
		userID = auth.UserIDForEmail(email)
	}
	if userID == "" {
		exitWithError(errors.New("either -id or -email must be provided"))
	}
	planID, err := domain.ParsePlanID(planFlag)
	if err != nil {
		exitWithError(err)
	}
	plan, err := domain.LookupPlan(planID)
	if err != nil {
		exitWithError(err)
	}

	appID := strings.TrimSpace(appIDFlag)
	if appID == "" {
		appID = strings.TrimSpace(os.Getenv("APP_ID"))
	}
	if appID == "" {
		appID = "default-ai-studio-pro-app"
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli", "").With().Str("cmd", "userplan").Logger()
	profiles := repo.NewProfileRepository(infra.NewSQLRunner(pool, logger), appID)

	now := time.Now().UTC()
	if keepUsageFlag {
		patch := domain.PlanChangePatch(plan, now)
		patch.TokensUsedThisMonth = nil
		patch.PeriodStartedAt = nil
		err = profiles.Merge(ctx, userID, patch)
	} else {
		err = billing.ChangePlan(ctx, profiles, userID, plan, now)
	}
	if err != nil {
		exitWithError(fmt.Errorf("failed to update user plan: %w", err))
	}

	updated, err := profiles.Get(ctx, userID)
	if err != nil {
		exitWithError(fmt.Errorf("failed to reload user: %w", err))
	}
	fmt.Printf("User %s updated to plan %s\n", updated.UserID, updated.Plan)
	fmt.Printf("tokens_limit=%s\n", billing.LimitDisplay(updated.TokensLimit))
	fmt.Printf("tokens_used_this_month=%d\n", updated.TokensUsedThisMonth)
	fmt.Printf("period_started_at=%s\n", updated.PeriodStartedAt.Format(time.RFC3339))
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
