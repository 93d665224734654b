package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Kindred/internal/config"
	"github.com/MikeSquared-Agency/Kindred/internal/hermes"
	"github.com/MikeSquared-Agency/Kindred/internal/quiz"
	"github.com/MikeSquared-Agency/Kindred/internal/scoring"
)

func NewRouter(e *scoring.Engine, bank *quiz.Bank, h hermes.Client, m *Metrics, cfg config.ServerConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateBurst, m))

	questions := NewQuestionsHandler(bank)
	profiles := NewProfilesHandler(e.Roster())
	match := NewMatchHandler(e, bank, h, m, logger)
	explain := NewExplainHandler(match)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/questions", questions.List)

		r.Get("/profiles", profiles.List)
		r.Get("/profiles/{id}", profiles.Get)

		r.Post("/match", match.Match)
		r.Post("/tier", match.Tier)
		r.Post("/scoring/explain", explain.Explain)
	})

	return r
}

// NewMetricsRouter serves health and Prometheus metrics on the internal port.
func NewMetricsRouter(g prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return r
}
