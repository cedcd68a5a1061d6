// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DialogMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialog_messages_total",
			Help: "Total number of processed chat messages by resulting step",
		},
		[]string{"step"},
	)

	DialogRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialog_rejections_total",
			Help: "Total number of rejected inputs by step and error code",
		},
		[]string{"step", "error_code"},
	)

	DialogSessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dialog_sessions_created_total",
			Help: "Total number of dialog sessions created",
		},
	)

	DialogSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dialog_sessions_active",
			Help: "Number of sessions currently held in the store",
		},
	)

	ApplicationsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "applications_completed_total",
			Help: "Total number of confirmed applications by category",
		},
		[]string{"category"},
	)

	DialogMessageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dialog_message_duration_seconds",
			Help: "Duration of one message exchange including dispatch",
		},
		[]string{"step"},
	)

	NotificationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_attempts_total",
			Help: "Total number of notification attempts by channel and status",
		},
		[]string{"channel", "status"},
	)

	NotificationsUndelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_undelivered_total",
			Help: "Applications that no channel managed to deliver",
		},
		[]string{"category"},
	)
)
