package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"promptpix/internal/http/handlers"
	"promptpix/internal/infra"
	"promptpix/internal/middleware"
)

type Options struct {
	Logger          infra.Logger
	CORSOrigins     []string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
	Metrics         http.Handler
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	// Health
	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	r.Route("/v1/images", func(r chi.Router) {
		r.Get("/", app.ImagesList)
		r.Get("/archive", app.ImagesArchive)
		r.Group(func(r chi.Router) {
			if opts.RateLimitPerMin > 0 {
				r.Use(middleware.RateLimit(opts.Logger, opts.RateLimitPerMin, time.Minute))
			}
			r.Post("/generate", app.ImagesGenerate)
			r.Post("/retry", app.ImagesRetry)
		})
	})

	r.Route("/v1/prompts", func(r chi.Router) {
		r.Get("/history", app.PromptHistory)
		r.Post("/enhance", app.PromptEnhance)
	})

	r.Get("/v1/status", app.Status)
	r.Get("/v1/stats", app.Stats)
	r.Get("/v1/blobs/{id}", app.BlobGet)

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	return r
}
