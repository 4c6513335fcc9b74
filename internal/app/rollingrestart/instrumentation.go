package rollingrestart

import (
	"github.com/prometheus/client_golang/prometheus" // Prometheus metrics.

	"github.com/mintel/elasticsearch-rolling/internal/pkg/metrics" // Prometheus instrumentation.
)

// Instrumentation holds Prometheus metrics specific to
// the rolling restart App.
// A nil *Instrumentation is valid and records nothing.
type Instrumentation struct {
	// Time taken to process each node, by mode, role and outcome.
	NodeDuration *prometheus.HistogramVec

	// Time taken by each step of node maintenance.
	StepDuration *prometheus.HistogramVec

	// Count of retried attempts, by operation.
	Retries *prometheus.CounterVec

	// Last cluster health status seen. Set to 1 for the current status
	// and 0 for the others.
	HealthStatus *prometheus.GaugeVec

	// Number of nodes left to process in the current run.
	NodesRemaining prometheus.Gauge
}

var healthStatuses = []string{"green", "yellow", "red"}

// NewInstrumentation returns a new Instrumentation.
func NewInstrumentation(namespace string) *Instrumentation {
	return &Instrumentation{
		NodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_duration_seconds",
			Help:      "Time taken to process each node.",
			Buckets:   prometheus.ExponentialBuckets(30, 2, 8), // 30s to ~1h
		}, []string{metrics.LabelMode, metrics.LabelRole, metrics.LabelStatus}),
		StepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Time taken by each step of node maintenance.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 3, 10),
		}, []string{metrics.LabelStep, metrics.LabelStatus}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Count of retried attempts, by operation.",
		}, []string{metrics.LabelOperation}),
		HealthStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cluster_health_status",
			Help:      "Set to 1 for the last cluster health status seen.",
		}, []string{metrics.LabelStatus}),
		NodesRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nodes_remaining",
			Help:      "Number of nodes left to process in the current run.",
		}),
	}
}

// Describe implements the prometheus.Collector interface.
func (m *Instrumentation) Describe(c chan<- *prometheus.Desc) {
	m.NodeDuration.Describe(c)
	m.StepDuration.Describe(c)
	m.Retries.Describe(c)
	m.HealthStatus.Describe(c)
	m.NodesRemaining.Describe(c)
}

// Collect implements the prometheus.Collector interface.
func (m *Instrumentation) Collect(c chan<- prometheus.Metric) {
	m.NodeDuration.Collect(c)
	m.StepDuration.Collect(c)
	m.Retries.Collect(c)
	m.HealthStatus.Collect(c)
	m.NodesRemaining.Collect(c)
}

func (m *Instrumentation) retried(operation string) {
	if m == nil {
		return
	}
	m.Retries.With(prometheus.Labels{metrics.LabelOperation: operation}).Inc()
}

func (m *Instrumentation) observeHealth(status string) {
	if m == nil {
		return
	}
	for _, s := range healthStatuses {
		v := 0.0
		if s == status {
			v = 1
		}
		m.HealthStatus.With(prometheus.Labels{metrics.LabelStatus: s}).Set(v)
	}
}

func (m *Instrumentation) nodeTimer() *metrics.VecTimer {
	if m == nil {
		return metrics.NewVecTimer(nil)
	}
	return metrics.NewVecTimer(m.NodeDuration)
}

func (m *Instrumentation) stepTimer() *metrics.VecTimer {
	if m == nil {
		return metrics.NewVecTimer(nil)
	}
	return metrics.NewVecTimer(m.StepDuration)
}

func (m *Instrumentation) setRemaining(n int) {
	if m == nil {
		return
	}
	m.NodesRemaining.Set(float64(n))
}
