// Package metrics holds constants and utilities for instrumenting
// rolling restarts with Prometheus metrics.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus" // Prometheus metrics.
)

// Namespace is the Prometheus namespace of every metric exported by
// the rolling restart tool.
const Namespace = "elasticsearch_rolling"

// StatusOf returns the LabelStatus value for err.
func StatusOf(err error) string {
	if err == nil {
		return StatusSuccess
	}
	return StatusError
}

// FQName joins the namespace, an optional subsystem, and name into
// a fully qualified metric name.
func FQName(subsystem, name string) string {
	return prometheus.BuildFQName(Namespace, strings.Replace(subsystem, "-", "_", -1), name)
}
