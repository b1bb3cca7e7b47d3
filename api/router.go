// Package api assembles the HTTP surface: routing, rate limiting, and the
// metrics endpoint.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/fairway-collective/scorekeeper/api/handlers"
	"github.com/fairway-collective/scorekeeper/config"
)

// NewRouter wires the round endpoints behind the standard middleware stack.
func NewRouter(rh *handlers.RoundHandlers, cfg config.HTTPConfig) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(rateLimit(rate.Limit(cfg.RateLimit), cfg.Burst))

	r.Route("/rounds", func(r chi.Router) {
		r.Post("/", rh.CreateRound)
		r.Route("/{roundID}", func(r chi.Router) {
			r.Get("/", rh.GetRound)
			r.Post("/scores", rh.SaveScores)
			r.Post("/complete", rh.CompleteRound)
			r.Post("/abandon", rh.AbandonRound)
			r.Post("/edits", rh.EditScore)
			r.Get("/edits", rh.EditHistory)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}

// NewMetricsHandler serves the Prometheus registry.
func NewMetricsHandler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

// rateLimit applies a single token bucket across the API. Score batches are
// already debounced client-side, so a shared bucket is enough to shed abuse.
func rateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
