package loader

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts trace loads on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	loads    *prometheus.CounterVec
	failures *prometheus.CounterVec
	records  prometheus.Counter
	duration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		loads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jets",
			Name:      "trace_loads_total",
			Help:      "Traces loaded, by format.",
		}, []string{"format"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jets",
			Name:      "trace_load_failures_total",
			Help:      "Trace loads that failed, by format.",
		}, []string{"format"}),
		records: f.NewCounter(prometheus.CounterOpts{
			Namespace: "jets",
			Name:      "records_loaded_total",
			Help:      "Records across all loaded traces.",
		}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "jets",
			Name:      "trace_load_seconds",
			Help:      "Wall time to load one trace.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}, []string{"format"}),
	}
}

func (m *Metrics) observe(format string, seconds float64, records int, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(format).Observe(seconds)
	if err != nil {
		m.failures.WithLabelValues(format).Inc()
		return
	}
	m.loads.WithLabelValues(format).Inc()
	m.records.Add(float64(records))
}

// WriteTextfile writes the registry in the Prometheus text format, for the
// node exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return errors.Wrapf(err, "write metrics to %s", path)
	}
	return nil
}
