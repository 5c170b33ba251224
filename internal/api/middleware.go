package api

import (
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/codementor-ai/codementor-backend/internal/metrics"
)

var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

// RequestLogger attaches a request-scoped logger to the context and logs one line per
// request. It also feeds the request metrics, labelled by route pattern.
func RequestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(reqLog.WithContext(r.Context())))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			elapsed := time.Since(start)
			metrics.RecordRequest(r.Method, route, strconv.Itoa(status), elapsed.Seconds())

			event := reqLog.Info()
			if status >= http.StatusInternalServerError {
				event = reqLog.Error()
			}
			event.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", elapsed).
				Msg("request completed")
		})
	}
}

// CORS allows the known frontends. Unknown origins are let through as well but logged,
// quietly in development and as a warning elsewhere.
func CORS(frontendURL string, production bool, log zerolog.Logger) func(http.Handler) http.Handler {
	allowed := append([]string(nil), defaultAllowedOrigins...)
	if frontendURL != "" {
		allowed = append(allowed, frontendURL)
	}
	log.Info().Strs("origins", allowed).Msg("CORS enabled")

	return cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if slices.Contains(allowed, origin) {
				return true
			}
			if production {
				log.Warn().Str("origin", origin).Msg("CORS: origin not in allowed list")
			} else {
				log.Debug().Str("origin", origin).Msg("CORS: allowing origin in development")
			}
			return true
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           86400,
	})
}
