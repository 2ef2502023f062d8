// Package api provides the local HTTP server for Cadencio.
// It exposes the ledger, obligation and dashboard operations as JSON over
// loopback, a live dashboard feed over SSE, and Prometheus metrics.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cadencio-app/cadencio/internal/app/insights"
	"github.com/cadencio-app/cadencio/internal/app/ledger"
	"github.com/cadencio-app/cadencio/internal/domain"
	"github.com/cadencio-app/cadencio/internal/infra/observability"
	"github.com/cadencio-app/cadencio/internal/logger"
)

// Version is reported by /api/version.
const Version = "0.1.0"

// Server is the Cadencio HTTP API server.
type Server struct {
	ledger         *ledger.Service
	tracer         *observability.Tracer // nil when tracing is off
	hub            *DashboardHub         // nil disables /api/dashboard/live
	dashboard      insights.Options
	metricsEnabled bool
	log            *zap.SugaredLogger
}

// NewServer creates a new API server over svc.
func NewServer(svc *ledger.Service) *Server {
	opt := insights.DefaultOptions(time.Time{})
	opt.Timezone = svc.DefaultTimezone()
	return &Server{
		ledger:    svc,
		dashboard: opt,
		log:       logger.GetLogger().Named("api"),
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetTracer exposes recorded spans on /api/debug/spans.
func (s *Server) SetTracer(t *observability.Tracer) { s.tracer = t }

// SetDashboardHub sets the live dashboard SSE hub.
func (s *Server) SetDashboardHub(h *DashboardHub) { s.hub = h }

// SetDashboardDefaults sets the windows used when a request does not
// choose its own. Now is ignored.
func (s *Server) SetDashboardDefaults(o insights.Options) { s.dashboard = o }

// DashboardOptions returns the default dashboard options at the current time.
func (s *Server) DashboardOptions() insights.Options {
	o := s.dashboard
	o.Now = s.ledger.Now()
	return o
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": Version,
		})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// The SSE stream must outlive the request timeout below.
	if s.hub != nil {
		r.Get("/api/dashboard/live", s.hub.HandleDashboardSSE)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/dashboard", s.handleDashboard)

		r.Get("/settings", s.handleGetSettings)
		r.Patch("/settings", s.handlePatchSettings)

		r.Get("/transactions", s.handleListTransactions)
		r.Post("/transactions", s.handleCreateTransaction)
		r.Post("/transfers", s.handleCreateTransfer)

		r.Get("/zones", s.handleListZones)
		r.Post("/zones", s.handleCreateZone)

		r.Route("/obligations", func(r chi.Router) {
			r.Get("/", s.handleListObligations)
			r.Post("/", s.handleCreateObligation)
			r.Post("/refresh", s.handleRefreshMissed)
			r.Get("/{id}/suggestion", s.handleSuggestPlan)
			r.Post("/{id}/schedule", s.handleSchedule)
			r.Post("/{id}/cycles/{cycleID}/confirm", s.handleConfirmPaid)
		})
		r.Post("/borrows", s.handleBorrow)

		r.Get("/activities", s.handleListActivities)
		r.Post("/activities/undo", s.handleUndo)
		r.Post("/activities/undo-latest", s.handleUndoLatest)

		r.Get("/quests/options", s.handleQuestOptions)
		r.Post("/onboarding", s.handleOnboarding)

		if s.tracer != nil {
			r.Get("/debug/spans", s.handleSpans)
		}
	})

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeErr maps a service error onto its HTTP status.
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrStaleUndo):
		writeError(w, http.StatusConflict, domain.StaleUndoMessage)
	case errors.Is(err, domain.ErrNoActivity):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.log.Errorw("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
