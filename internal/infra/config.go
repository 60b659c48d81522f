package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	LogLevel           string
	AppID              string
	Port               string
	DatabaseURL        string
	DBMaxConns         int
	DBMinConns         int
	RedisURL           string
	JWTSecret          string
	JWTTTL             time.Duration
	GeoIPDBPath        string
	DefaultLocale      string
	CORSAllowedOrigins []string
	GoogleClientID     string
	GoogleIssuer       string

	GeminiAPIKey            string
	GeminiModel             string
	GeminiBaseURL           string
	GeminiRequestsPerSecond float64

	GenerationTimeout     time.Duration
	PersistenceTimeout    time.Duration
	ReleaseOnServiceError bool
	HistoryLimit          int

	PaymentDelay   time.Duration
	TaxRatePercent int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	ShutdownTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		LogLevel:           os.Getenv("LOG_LEVEL"),
		AppID:              getEnv("APP_ID", "default-ai-studio-pro-app"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 10),
		DBMinConns:         getEnvInt("DB_MIN_CONNS", 1),
		RedisURL:           os.Getenv("REDIS_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTTTL:             time.Hour * time.Duration(getEnvInt("JWT_TTL_HOURS", 24)),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "en"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleIssuer:       getEnv("GOOGLE_ISSUER", "https://accounts.google.com"),

		GeminiAPIKey:            os.Getenv("GEMINI_API_KEY"),
		GeminiModel:             getEnv("GEMINI_MODEL", "gemini-2.5-flash-preview-05-20"),
		GeminiBaseURL:           getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiRequestsPerSecond: getEnvFloat("GEMINI_REQUESTS_PER_SECOND", 5),

		GenerationTimeout:     time.Second * time.Duration(getEnvInt("GENERATION_TIMEOUT_SECONDS", 60)),
		PersistenceTimeout:    time.Second * time.Duration(getEnvInt("PERSISTENCE_TIMEOUT_SECONDS", 10)),
		ReleaseOnServiceError: getEnvBool("RELEASE_ON_SERVICE_ERROR", false),
		HistoryLimit:          getEnvInt("HISTORY_LIMIT", 100),

		PaymentDelay:   time.Millisecond * time.Duration(getEnvInt("PAYMENT_DELAY_MS", 3000)),
		TaxRatePercent: getEnvInt("TAX_RATE_PERCENT", 5),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 90)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		ShutdownTimeout:  time.Second * time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 15)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.DBMinConns > cfg.DBMaxConns {
		return nil, fmt.Errorf("DB_MIN_CONNS must not exceed DB_MAX_CONNS")
	}

	if cfg.TaxRatePercent < 0 {
		return nil, fmt.Errorf("TAX_RATE_PERCENT must not be negative")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
