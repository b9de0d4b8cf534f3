// Package http provides the HTTP delivery layer for the link shortener service.
// It contains the router, the handlers for the links API, redirects, QR codes
// and health checks, and the mapping of domain errors to responses.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/link-shortener/docs"
	"github.com/vadimbarashkov/link-shortener/pkg/middleware/recoverer"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Options holds the settings of the router that do not come from its dependencies.
type Options struct {
	BaseURL        string   // BaseURL prefixes the short URLs encoded in QR codes.
	Version        string   // Version is reported by the health endpoint.
	AllowedOrigins []string // AllowedOrigins is the CORS allow list.
}

// NewRouter initializes and returns a new Chi router configured with middleware and routes for the link shortener API.
func NewRouter(logger *httplog.Logger, linkUseCase linkUseCase, store pinger, opts Options) *chi.Mux {
	r := chi.NewRouter()

	allowedOrigins := opts.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer.New(logger.Logger, errorResponse{Error: msgInternalError}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(docs.Swagger)
	})

	hh := newHealthHandler(store, opts.Version)
	r.Get("/healthz", hh.health)

	validate := validator.New()
	lh := newLinkHandler(linkUseCase, validate, opts.BaseURL)

	r.Route("/api/links", func(r chi.Router) {
		r.With(requireJSON).Post("/", lh.createLink)
		r.Get("/", lh.listLinks)

		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", lh.getLink)
			r.Delete("/", lh.deleteLink)
			r.Get("/qr", lh.getQRCode)
		})
	})

	r.Get("/{code}", lh.redirect)

	return r
}
