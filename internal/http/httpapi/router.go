package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"socialgen/internal/http/handlers"
	"socialgen/internal/middleware"
)

// Options holds the cross-cutting pieces the router wires in front of handlers.
type Options struct {
	Logger          zerolog.Logger
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
	CORSOrigins     []string
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(opts.Logger))
	r.Use(middleware.CORS(opts.CORSOrigins))
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}
	r.Use(middleware.Locale(opts.DefaultLocale, opts.CountryLookup))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", app.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", app.Register)
			r.Post("/login", app.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(app.JWTSecret))

			r.Route("/campaigns", func(r chi.Router) {
				r.Post("/", app.CampaignsCreate)
				r.Get("/", app.CampaignsList)
				r.Post("/{id}/generate-batch", app.GenerateBatch)
			})

			r.Route("/batch-jobs", func(r chi.Router) {
				r.Get("/{id}/status", app.BatchStatus)
				r.Get("/{id}/results", app.BatchResults)
			})
		})
	})

	return r
}
