package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"studio/internal/http/handlers"
	"studio/internal/middleware"
)

// Options configures the middleware stack around the handlers.
type Options struct {
	Logger          zerolog.Logger
	AllowedOrigins  []string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	r.Get("/v1/quick-actions", app.QuickActions)

	r.Group(func(r chi.Router) {
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		}
		r.Post("/v1/auth/signin", app.SignIn)
		r.Post("/v1/auth/google", app.SignInGoogle)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(app.JWT))

		r.Post("/v1/auth/signout", app.SignOut)
		r.Get("/v1/me", app.Me)
		r.Get("/v1/history", app.History)
		r.Get("/v1/history/export", app.HistoryExport)
		r.Get("/v1/history/ws", app.HistoryStream)
		r.Get("/v1/plans", app.Plans)

		r.Group(func(r chi.Router) {
			if opts.RateLimitPerMin > 0 {
				r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
			}
			r.Post("/v1/generations", app.CreateGeneration)
			r.Post("/v1/checkout", app.Checkout)
		})
	})

	return r
}
