package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"studio/internal/auth"
	"studio/internal/billing"
	"studio/internal/infra"
	"studio/internal/infra/google"
	"studio/internal/middleware"
	"studio/internal/session"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// GoogleVerifier checks Google ID tokens.
type GoogleVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (*google.IDTokenClaims, error)
}

// Deps are the collaborators the handlers need. Google and DB are optional.
type Deps struct {
	Sessions       *session.Manager
	JWT            *auth.JWTService
	Billing        *billing.Service
	Google         GoogleVerifier
	DB             Pinger
	AllowedOrigins []string
	Logger         *infra.Logger
}

type App struct {
	Sessions *session.Manager
	JWT      *auth.JWTService
	Billing  *billing.Service
	Google   GoogleVerifier
	DB       Pinger
	Logger   *infra.Logger

	upgrader websocket.Upgrader
}

func NewApp(d Deps) *App {
	logger := d.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	a := &App{
		Sessions: d.Sessions,
		JWT:      d.JWT,
		Billing:  d.Billing,
		Google:   d.Google,
		DB:       d.DB,
		Logger:   logger,
	}
	a.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      originChecker(d.AllowedOrigins),
	}
	return a
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

const maxBodyBytes = 1 << 20

// session resumes the caller's live session from the token claims.
func (a *App) session(r *http.Request) (*session.Session, error) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return nil, errNoClaims
	}
	return a.Sessions.SignIn(r.Context(), claims.Identity())
}

// log returns the request scoped logger when one is attached.
func (a *App) log(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return a.Logger
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	wildcard := false
	for _, o := range allowed {
		if o == "*" {
			wildcard = true
		}
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || wildcard {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}
