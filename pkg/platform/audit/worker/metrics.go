package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for audit persistence.
type Metrics struct {
	Persisted    prometheus.Counter
	Failed       prometheus.Counter
	Shed         prometheus.Counter
	BreakerState prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Persisted: f.NewCounter(prometheus.CounterOpts{
			Name: "fraudintel_audit_persisted_total",
			Help: "Total number of search audit entries persisted",
		}),
		Failed: f.NewCounter(prometheus.CounterOpts{
			Name: "fraudintel_audit_persist_failures_total",
			Help: "Total number of search audit entries lost to store errors",
		}),
		Shed: f.NewCounter(prometheus.CounterOpts{
			Name: "fraudintel_audit_shed_total",
			Help: "Total number of search audit entries dropped while the circuit breaker was open",
		}),
		BreakerState: f.NewGauge(prometheus.GaugeOpts{
			Name: "fraudintel_audit_circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed/healthy, 1=open/unhealthy)",
		}),
	}
}

// SetBreakerState sets the circuit breaker state gauge.
func (m *Metrics) SetBreakerState(open bool) {
	if open {
		m.BreakerState.Set(1)
	} else {
		m.BreakerState.Set(0)
	}
}
