package rollingrestart

import (
	"github.com/heptiolabs/healthcheck"              // Healthchecks framework.
	"github.com/pkg/errors"                          // Wrap errors with stacktrace.
	"github.com/prometheus/client_golang/prometheus" // Prometheus metrics.
	"go.uber.org/atomic"                             // Atomic flags read by HTTP handlers.

	"github.com/mintel/elasticsearch-rolling/internal/pkg/cmd" // Common command line app tools.
)

// Healthchecks holds the healthchecks served while a run is in progress.
// The flags are set by the run and read by the monitoring server.
type Healthchecks struct {
	Handler healthcheck.Handler

	// Flag to be set true once the list of hosts is loaded.
	InventoryLoaded atomic.Bool

	// Flag to be set true if the command doesn't use SSH,
	// or once the SSH executor is ready.
	ExecutorCreated atomic.Bool

	// Flag to be set true if the command doesn't use Elasticsearch,
	// or once the Elasticsearch client is created.
	ElasticsearchReady atomic.Bool
}

// NewHealthchecks returns a new Healthchecks.
func NewHealthchecks(r prometheus.Registerer) *Healthchecks {
	h := &Healthchecks{
		Handler: cmd.NewHealthchecksHandler(r),
	}

	h.Handler.AddReadinessCheck("inventory", func() error {
		if !h.InventoryLoaded.Load() {
			return errors.New("hosts not yet loaded")
		}
		return nil
	})

	h.Handler.AddReadinessCheck("ssh-executor", func() error {
		if !h.ExecutorCreated.Load() {
			return errors.New("SSH executor not yet ready")
		}
		return nil
	})

	h.Handler.AddReadinessCheck("elasticsearch-client", func() error {
		if !h.ElasticsearchReady.Load() {
			return errors.New("Elasticsearch client not yet ready")
		}
		return nil
	})

	return h
}
