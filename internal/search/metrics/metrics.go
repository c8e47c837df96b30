// Package metrics exposes Prometheus instrumentation for the search core.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for admission, result sourcing, usage
// accounting and notifications.
type Metrics struct {
	SearchesTotal        *prometheus.CounterVec
	RejectionsTotal      *prometheus.CounterVec
	SearchDuration       prometheus.Histogram
	UsageGuardRejections prometheus.Counter
	UsageFailures        *prometheus.CounterVec
	NotificationsSent    *prometheus.CounterVec
	NotificationFailures prometheus.Counter
}

// New registers the search metrics with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SearchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fraudintel_searches_total",
			Help: "Granted searches by result source",
		}, []string{"source"}),
		RejectionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fraudintel_search_rejections_total",
			Help: "Searches refused by the entitlement resolver, by reason",
		}, []string{"reason"}),
		SearchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fraudintel_search_duration_seconds",
			Help:    "Duration of granted searches from resolution to response",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		UsageGuardRejections: f.NewCounter(prometheus.CounterOpts{
			Name: "fraudintel_usage_guard_rejections_total",
			Help: "Increments refused by the limit guard after a result was served",
		}),
		UsageFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fraudintel_usage_failures_total",
			Help: "Usage accounting failures by step",
		}, []string{"step"}),
		NotificationsSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fraudintel_low_quota_notifications_total",
			Help: "Low-quota notifications requested, by template",
		}, []string{"template"}),
		NotificationFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "fraudintel_low_quota_notification_failures_total",
			Help: "Low-quota notifications that could not be requested",
		}),
	}
}

func (m *Metrics) IncrementSearch(source string) {
	m.SearchesTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) IncrementRejection(reason string) {
	m.RejectionsTotal.WithLabelValues(reason).Inc()
}

// ObserveSearch records the duration of a granted search.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSearch(start time.Time) {
	m.SearchDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementGuardRejection() {
	m.UsageGuardRejections.Inc()
}

func (m *Metrics) IncrementUsageFailure(step string) {
	m.UsageFailures.WithLabelValues(step).Inc()
}

func (m *Metrics) IncrementNotification(template string) {
	m.NotificationsSent.WithLabelValues(template).Inc()
}

func (m *Metrics) IncrementNotificationFailure() {
	m.NotificationFailures.Inc()
}
