package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultMaxBodyBytes applies when RouterOptions.MaxBodyBytes is not positive.
const DefaultMaxBodyBytes = 100 << 10

type RouterOptions struct {
	FrontendURL  string
	MaxBodyBytes int64
}

func NewRouter(apiHandler *APIHandler, opts RouterOptions) http.Handler {
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(apiHandler.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.RequestSize(maxBody))
	r.Use(CORS(opts.FrontendURL, apiHandler.production, apiHandler.log))

	r.NotFound(apiHandler.NotFoundHandler)
	r.MethodNotAllowed(apiHandler.NotFoundHandler)

	r.Get("/", apiHandler.RootHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", apiHandler.HealthHandler)

		r.Route("/chat", func(r chi.Router) {
			r.Post("/message", apiHandler.SendMessageHandler)
			r.Get("/history", apiHandler.ChatHistoryHandler)
		})

		r.Route("/code", func(r chi.Router) {
			r.Post("/analyze", apiHandler.AnalyzeCodeHandler)
			r.Get("/history", apiHandler.CodeHistoryHandler)
			r.Get("/{id}", apiHandler.GetAnalysisHandler)
		})
	})

	return r
}
