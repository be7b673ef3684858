package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics for the courier webhook pipeline
var (
	WebhooksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_webhooks_total",
			Help: "Total number of courier webhooks by courier and outcome",
		},
		[]string{"courier", "outcome"},
	)

	WebhookDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courier_webhook_duration_seconds",
			Help:    "Duration of courier webhook processing",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"courier"},
	)

	SideEffectFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_side_effect_failures_total",
			Help: "Total number of failed best-effort side effects",
		},
		[]string{"effect"},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_notifications_total",
			Help: "Total number of status-change notifications by result",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// Register registers all Prometheus metrics with the default registry.
// Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(WebhooksTotal)
		prometheus.MustRegister(WebhookDuration)
		prometheus.MustRegister(SideEffectFailuresTotal)
		prometheus.MustRegister(NotificationsTotal)
	})
}

// Side effect labels.
const (
	EffectCache        = "cache"
	EffectPerformance  = "performance"
	EffectAggregates   = "aggregates"
	EffectAudit        = "audit"
	EffectArchive      = "archive"
	EffectRecipients   = "recipients"
	EffectNotification = "notification"
)
