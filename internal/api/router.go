package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scouthub/internal/middleware"
	"scouthub/internal/ui"
)

// RouterConfig holds the cross-cutting settings of the HTTP surface.
type RouterConfig struct {
	AllowedOrigins []string
	// AskLimiter wraps POST /v1/ask; nil leaves it unlimited.
	AskLimiter func(http.Handler) http.Handler
	// Gatherer backs GET /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// AccessLog enables chi's request logger.
	AccessLog bool
	// UI serves the HTML pages under /ui; nil disables them.
	UI *ui.Handler
}

// NewRouter mounts h on a chi router.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	if cfg.AccessLog {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/submit", h.Submit)
		r.Post("/submit/form", h.SubmitForm)
		r.Post("/scan", h.Scan)
		r.Post("/scan/image", h.ScanImage)
		r.Group(func(r chi.Router) {
			if cfg.AskLimiter != nil {
				r.Use(cfg.AskLimiter)
			}
			r.Post("/ask", h.Ask)
		})
		r.Get("/records", h.Records)
		r.Get("/schema", h.Schema)
		r.Post("/export", h.Export)
	})

	if cfg.UI != nil {
		r.Get("/", ui.RedirectHome)
		r.Route("/ui", func(r chi.Router) {
			ui.MountRoutes(r, cfg.UI, cfg.AskLimiter)
		})
	}
	return r
}
