// Package api exposes the chat dialog over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	apperrors "lead-consultant/internal/common/errors"
	"lead-consultant/internal/common/logger"
	"lead-consultant/internal/common/observability"
	"lead-consultant/internal/common/validation"
	"lead-consultant/internal/dialog/coordinator"
	"lead-consultant/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dialog is the coordinator as seen by the HTTP layer.
type Dialog interface {
	ProcessMessage(ctx context.Context, sessionID, text string) (*coordinator.Response, error)
	Reset(ctx context.Context, sessionID string) (string, error)
	State(ctx context.Context, sessionID string) (*models.Session, error)
	QuickStart(ctx context.Context, category string) (*coordinator.Response, error)
}

// NotificationStats reports the delivery history.
type NotificationStats interface {
	Stats() models.NotificationStats
}

type Config struct {
	ServiceName      string
	Version          string
	MaxMessageLength int
}

// Handler provides the chat, state and service endpoints.
type Handler struct {
	dialog      Dialog
	stats       NotificationStats
	errors      *apperrors.ErrorHandler
	obs         *observability.Observability
	chatRequest *validation.Schema
	logger      logger.Logger
	cfg         Config
}

// NewHandler compiles the request schema for the configured message limit.
func NewHandler(cfg Config, dialog Dialog, stats NotificationStats, obs *observability.Observability, log logger.Logger) (*Handler, error) {
	schema, err := validation.Compile(chatRequestSchema(cfg.MaxMessageLength))
	if err != nil {
		return nil, err
	}
	log = log.WithFields(map[string]interface{}{"component": "api"})
	return &Handler{
		dialog:      dialog,
		stats:       stats,
		errors:      apperrors.NewErrorHandler(log),
		obs:         obs,
		chatRequest: schema,
		logger:      log,
		cfg:         cfg,
	}, nil
}

// RegisterRoutes registers every route on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RequestMetrics(h.obs))

		r.Post("/chat", h.Chat)
		r.Get("/chat/state/{sessionID}", h.State)
		r.Post("/chat/reset/{sessionID}", h.Reset)
		r.Post("/chat/quick-start", h.QuickStart)
		r.Get("/notifications/stats", h.NotificationStats)
	})
}

// Root describes the service.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": h.cfg.ServiceName,
		"version": h.cfg.Version,
		"endpoints": map[string]string{
			"chat":        "/api/v1/chat (POST)",
			"state":       "/api/v1/chat/state/{session_id} (GET)",
			"reset":       "/api/v1/chat/reset/{session_id} (POST)",
			"quick_start": "/api/v1/chat/quick-start?option=individual|business|investor (POST)",
			"stats":       "/api/v1/notifications/stats (GET)",
			"health":      "/health (GET)",
			"metrics":     "/metrics (GET)",
		},
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes err as a JSON error with the status mapped from its code.
func (h *Handler) Error(w http.ResponseWriter, r *http.Request, err error) {
	h.errors.Respond(w, r, err)
}
