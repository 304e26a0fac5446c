package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds the client's Prometheus metrics.
type Metrics struct {
	// Registry owns these metrics; the debug server exposes it on /metrics.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	rollbacks       prometheus.Counter
}

// NewMetrics registers all metrics in a private registry, so it can be called
// more than once (e.g. in tests) without duplicate-collector panics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chatbot_api_request_duration_seconds",
				Help:    "Duration of chat API calls by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatbot_api_requests_total",
				Help: "Chat API calls by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		rollbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "chatbot_optimistic_rollbacks_total",
				Help: "Optimistic messages removed after a failed send.",
			},
		),
	}
}

// ObserveRequest records the duration and outcome of one API call.
func (m *Metrics) ObserveRequest(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
	m.requestsTotal.WithLabelValues(operation, outcome).Inc()
}

// IncrRollback counts an optimistic message being rolled back.
func (m *Metrics) IncrRollback() {
	if m == nil {
		return
	}
	m.rollbacks.Inc()
}

// RequestCount returns the current counter value for an operation and outcome.
func (m *Metrics) RequestCount(operation, outcome string) float64 {
	return counterValue(m.requestsTotal.WithLabelValues(operation, outcome))
}

// Rollbacks returns how many optimistic messages were rolled back so far.
func (m *Metrics) Rollbacks() float64 {
	return counterValue(m.rollbacks)
}

func counterValue(c prometheus.Counter) float64 {
	out := &dto.Metric{}
	if err := c.Write(out); err != nil {
		return 0
	}
	if out.Counter != nil && out.Counter.Value != nil {
		return *out.Counter.Value
	}
	return 0
}
