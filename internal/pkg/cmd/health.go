package cmd

import (
	"github.com/heptiolabs/healthcheck"              // Healthchecks framework.
	"github.com/prometheus/client_golang/prometheus" // Prometheus metrics.

	"github.com/mintel/elasticsearch-rolling/internal/pkg/metrics" // Metric naming.
)

// NewHealthchecksHandler returns a new healthcheck.Handler, configured
// with a basic liveness check, that exports the status of every check
// as a Prometheus gauge.
func NewHealthchecksHandler(r prometheus.Registerer) healthcheck.Handler {
	h := healthcheck.NewMetricsHandler(r, metrics.Namespace)
	h.AddLivenessCheck("alive", func() error { return nil })
	return h
}
