package infra

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger aliases zerolog.Logger so packages can accept a logger without
// importing zerolog directly.
type Logger = zerolog.Logger

// NewLogger builds the process logger. Development writes colored console
// lines at debug; other environments write JSON at info. A non-empty level
// (LOG_LEVEL) overrides either default.
func NewLogger(appEnv, level string) zerolog.Logger {
	return newLogger(os.Stdout, appEnv, level)
}

func newLogger(w io.Writer, appEnv, level string) zerolog.Logger {
	dev := appEnv == "development"
	lvl := zerolog.InfoLevel
	if dev {
		lvl = zerolog.DebugLevel
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	if level = strings.ToLower(strings.TrimSpace(level)); level != "" {
		if parsed, err := zerolog.ParseLevel(level); err == nil {
			lvl = parsed
		}
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "studio").
		Logger()
}
