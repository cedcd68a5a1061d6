// Package notification delivers completed applications to the sales team:
// Telegram first, email when Telegram is unavailable.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "lead-consultant/internal/common/errors"
	"lead-consultant/internal/common/logger"
	"lead-consultant/internal/common/metrics"
	"lead-consultant/internal/models"
)

const (
	ChannelTelegram = "telegram"
	ChannelEmail    = "email"

	DefaultTimeout = 10 * time.Second
)

// Channel is one outbound delivery route.
type Channel interface {
	Name() string
	Enabled() bool
	Send(ctx context.Context, app models.Application, sessionID string) error
	// Check verifies connectivity without delivering an application.
	Check(ctx context.Context) error
}

// Dispatcher sends an application through the primary channel and falls back
// to the secondary one only when the primary is disabled or fails.
type Dispatcher struct {
	primary  Channel
	fallback Channel
	timeout  time.Duration
	history  *History
	logger   logger.Logger
	now      func() time.Time
}

type Config struct {
	Timeout      time.Duration
	HistoryLimit int
}

// NewDispatcher accepts nil channels; a nil channel counts as disabled.
func NewDispatcher(cfg Config, primary, fallback Channel, log logger.Logger) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Dispatcher{
		primary:  primary,
		fallback: fallback,
		timeout:  cfg.Timeout,
		history:  NewHistory(cfg.HistoryLimit),
		logger:   log.WithFields(map[string]interface{}{"component": "notification"}),
		now:      time.Now,
	}
}

// Send reports whether at least one channel delivered the application.
// Every attempt is recorded in the history.
func (d *Dispatcher) Send(ctx context.Context, app models.Application, sessionID string) bool {
	category := models.CategoryNone
	if app != nil {
		category = app.Category()
	}
	log := d.logger.WithFields(map[string]interface{}{
		"sessionId": sessionID,
		"category":  string(category),
	})

	var failures []error
	for _, ch := range []Channel{d.primary, d.fallback} {
		if ch == nil || !ch.Enabled() {
			continue
		}

		err := d.attempt(ctx, ch, app, sessionID)
		d.record(ch.Name(), category, sessionID, app, err == nil)

		if err == nil {
			metrics.NotificationAttempts.WithLabelValues(ch.Name(), "success").Inc()
			log.Info("application delivered", map[string]interface{}{"channel": ch.Name()})
			return true
		}

		metrics.NotificationAttempts.WithLabelValues(ch.Name(), "failed").Inc()
		log.Warn("delivery attempt failed", map[string]interface{}{
			"channel": ch.Name(),
			"error":   err.Error(),
		})
		failures = append(failures, err)
	}

	metrics.NotificationsUndelivered.WithLabelValues(string(category)).Inc()
	log.Error("application was not delivered", map[string]interface{}{
		"attempts": len(failures),
		"error":    errors.Join(failures...),
	})
	return false
}

// attempt runs one channel send under its own deadline. A channel that
// ignores the context is abandoned once the deadline passes.
func (d *Dispatcher) attempt(ctx context.Context, ch Channel, app models.Application, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- apperrors.NewNotificationSendFailedError(ch.Name(), fmt.Errorf("panic: %v", r))
			}
		}()
		var payload models.Application
		if app != nil {
			payload = app.Clone()
		}
		if err := ch.Send(ctx, payload, sessionID); err != nil {
			done <- apperrors.NewNotificationSendFailedError(ch.Name(), err)
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return apperrors.NewChannelTimeoutError(ch.Name(), ctx.Err())
	}
}

func (d *Dispatcher) record(channel string, category models.Category, sessionID string, app models.Application, ok bool) {
	summary := models.Summary{Name: "unknown", PhoneLast4: "unknown"}
	if app != nil {
		summary = app.Summary()
	}
	if sessionID == "" {
		sessionID = "unknown"
	}
	d.history.Add(models.NotificationRecord{
		Timestamp: d.now(),
		Channel:   channel,
		Category:  category,
		SessionID: sessionID,
		Success:   ok,
		Summary:   summary,
	})
}

// History returns the recorded attempts oldest first.
func (d *Dispatcher) History() []models.NotificationRecord {
	return d.history.Records()
}

func (d *Dispatcher) Stats() models.NotificationStats {
	return d.history.Stats()
}

// CheckConnections probes every configured channel. Disabled channels
// report false without being contacted.
func (d *Dispatcher) CheckConnections(ctx context.Context) map[string]bool {
	results := map[string]bool{}
	for _, ch := range []Channel{d.primary, d.fallback} {
		if ch == nil {
			continue
		}
		if !ch.Enabled() {
			results[ch.Name()] = false
			d.logger.Info("channel disabled", map[string]interface{}{"channel": ch.Name()})
			continue
		}

		checkCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := ch.Check(checkCtx)
		cancel()

		results[ch.Name()] = err == nil
		if err != nil {
			d.logger.Error("channel check failed", map[string]interface{}{
				"channel": ch.Name(),
				"error":   err.Error(),
			})
			continue
		}
		d.logger.Info("channel reachable", map[string]interface{}{"channel": ch.Name()})
	}
	return results
}
