// Package httptransport exposes the core over HTTP. Handlers are thin: decode,
// resolve the acting identity, call the service, encode. All policy lives in
// the services.
package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"workbridge/internal/connection"
	"workbridge/internal/job"
	"workbridge/internal/match"
	"workbridge/internal/profile"
)

// actorHeader carries the acting identity. Authentication itself is handled
// upstream of this service.
const actorHeader = "X-Actor-ID"

type Services struct {
	Profiles    *profile.Service
	Jobs        *job.Service
	Matches     *match.Service
	Connections *connection.Service
}

func NewRouter(svc Services, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	ph := &profileHandler{svc: svc.Profiles}
	jh := &jobHandler{svc: svc.Jobs}
	mh := &matchHandler{svc: svc.Matches}
	ch := &connectionHandler{svc: svc.Connections}

	r.Route("/v1", func(r chi.Router) {
		ph.register(r)
		jh.register(r)
		mh.register(r)
		ch.register(r)
	})
	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
