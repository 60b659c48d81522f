package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"studio/internal/adapter/repo"
	"studio/internal/auth"
	"studio/internal/billing"
	"studio/internal/generation"
	"studio/internal/history"
	"studio/internal/http/handlers"
	httpapi "studio/internal/http/httpapi"
	"studio/internal/infra"
	"studio/internal/infra/cache"
	"studio/internal/infra/credentials"
	"studio/internal/infra/geoip"
	"studio/internal/infra/google"
	"studio/internal/middleware"
	"studio/internal/providers/gemini"
	"studio/internal/session"
)

func main() {
	// .env is optional outside development.
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	runner := infra.NewSQLRunner(dbpool, logger)
	profiles := repo.NewProfileRepository(runner, cfg.AppID)
	payments := repo.NewPaymentRepository(runner, cfg.AppID)

	// Redis is optional; without it history changes only reach this instance.
	var notifier history.Notifier = history.NewLocalNotifier()
	redisClient, err := cache.NewRedisFromURL(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
		notifier = history.NewRedisNotifier(redisClient, cfg.AppID)
		logger.Info().Msg("history notifications via redis")
	}
	feed := history.NewFeed(repo.NewHistoryRepository(runner, cfg.AppID), notifier, history.FeedOptions{
		Limit:       cfg.HistoryLimit,
		LoadTimeout: cfg.PersistenceTimeout,
		Logger:      &logger,
	})

	keyCtx, cancelKey := context.WithTimeout(ctx, 5*time.Second)
	apiKey, err := credentials.NewStore(runner, cfg.AppID).ResolveGeminiAPIKey(keyCtx, cfg.GeminiAPIKey)
	cancelKey()
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load gemini api key from store")
	}
	geminiClient := gemini.NewClient(gemini.Options{
		APIKey:            apiKey,
		Model:             cfg.GeminiModel,
		BaseURL:           cfg.GeminiBaseURL,
		RequestsPerSecond: cfg.GeminiRequestsPerSecond,
		Logger:            &logger,
	})
	if !geminiClient.Configured() {
		logger.Warn().Str("model", geminiClient.Model()).Msg("gemini api key missing, generations will fail")
	}

	policy := generation.KeepOnServiceError
	if cfg.ReleaseOnServiceError {
		policy = generation.ReleaseOnServiceError
	}
	orchestrator, err := generation.New(generation.Options{
		Generator:       geminiClient,
		Profiles:        profiles,
		History:         feed,
		Counter:         profiles,
		Policy:          policy,
		GenerateTimeout: cfg.GenerationTimeout,
		PersistTimeout:  cfg.PersistenceTimeout,
		Logger:          &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure generation")
	}

	sessions, err := session.NewManager(session.Options{
		Profiles:    profiles,
		Feed:        feed,
		Submitter:   orchestrator,
		LoadTimeout: cfg.PersistenceTimeout,
		Logger:      &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure sessions")
	}
	defer sessions.Close()

	billingSvc, err := billing.NewService(billing.Options{
		Profiles:   profiles,
		Payments:   payments,
		Processor:  billing.SimulatedProcessor{Delay: cfg.PaymentDelay},
		TaxPercent: cfg.TaxRatePercent,
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure billing")
	}

	deps := handlers.Deps{
		Sessions:       sessions,
		JWT:            auth.NewJWTService(cfg.JWTSecret, cfg.JWTTTL),
		Billing:        billingSvc,
		DB:             dbpool,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         &logger,
	}
	if cfg.GoogleClientID != "" {
		deps.Google = google.NewVerifier(cfg.GoogleIssuer, cfg.GoogleClientID, &http.Client{Timeout: 10 * time.Second})
	}
	app := handlers.NewApp(deps)

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		defer resolver.Close()
		countryLookup = resolver.CountryCode
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   countryLookup,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router, logger)
	if err := server.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("http server failed")
	}
}
