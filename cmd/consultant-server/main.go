// cmd/consultant-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"lead-consultant/internal/api"
	"lead-consultant/internal/common/config"
	"lead-consultant/internal/common/logger"
	"lead-consultant/internal/common/observability"
	"lead-consultant/internal/dialog/coordinator"
	"lead-consultant/internal/dialog/scenario"
	"lead-consultant/internal/dialog/session"
	"lead-consultant/internal/dialog/validators"
	"lead-consultant/internal/notification"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer func() { _ = zapLog.Sync() }()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting consultant server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("lead-consultant")
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Notification channels ---
	timeout := config.GetDuration(cfg.Notifications.Timeout)
	telegram := notification.NewTelegramChannelFromConfig(cfg.Notifications.Telegram, timeout, log)
	email := notification.NewEmailChannelFromConfig(ctx, cfg.Notifications.Email, log)

	dispatcher := notification.NewDispatcher(notification.Config{
		Timeout:      timeout,
		HistoryLimit: cfg.Notifications.HistoryLimit,
	}, telegram, email, log)

	if !telegram.Enabled() && !email.Enabled() {
		zapLog.Warn("No notification channel is enabled, completed applications will only be logged")
	}

	// --- Dialog ---
	store := session.NewMemoryStore(cfg.Dialog.SessionTimeout())
	engine := scenario.NewEngine(validators.AmountRange{
		Min: cfg.Dialog.AmountMin,
		Max: cfg.Dialog.AmountMax,
	})
	dialog := coordinator.New(store, engine, dispatcher, log)

	handler, err := api.NewHandler(api.Config{
		ServiceName:      cfg.App.Name,
		Version:          cfg.App.Version,
		MaxMessageLength: cfg.Dialog.MaxMessageLength,
	}, dialog, dispatcher, obs, log)
	if err != nil {
		zapLog.Fatal("api handler init failed", zap.Error(err))
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(api.CORS(cfg.Server.CORSOrigins))
	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		zapLog.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	stop()
	zapLog.Info("Shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	stats := dispatcher.Stats()
	zapLog.Info("Server stopped",
		zap.Int("notificationsTotal", stats.Total),
		zap.Int("notificationsFailed", stats.Failed),
		zap.Int("activeSessions", store.Len()),
	)
}
