package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"clipforge/internal/http/handlers"
	"clipforge/internal/infra"
	"clipforge/internal/middleware"
)

// Options tunes router behavior beyond the handler set.
type Options struct {
	Logger          infra.Logger
	AllowedOrigins  []string
	RateLimitPerMin int
}

// NewRouter assembles the service's HTTP surface.
func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
	)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(opts.AllowedOrigins))
	}
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/platforms", app.Platforms)

	r.Route("/v1/jobs", func(r chi.Router) {
		r.Post("/", app.JobsCreate)
		r.Get("/", app.JobsList)
		r.Get("/{job_id}", app.JobStatus)
		r.Post("/{job_id}/cancel", app.JobCancel)
		r.Post("/{job_id}/retry", app.JobRetry)
		r.Delete("/{job_id}", app.JobDelete)
		r.Get("/{job_id}/bundle", app.JobBundle)
	})

	return r
}
