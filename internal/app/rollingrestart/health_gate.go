package rollingrestart

import (
	"context"
	"time"

	"github.com/pkg/errors" // Wrap errors with stacktrace.
	"go.uber.org/zap"       // Logging.

	"github.com/mintel/elasticsearch-rolling/pkg/ctxlog" // Logger from context.
	"github.com/mintel/elasticsearch-rolling/pkg/es"     // Extensions to the Elasticsearch client.
	"github.com/mintel/elasticsearch-rolling/pkg/retry"  // Fixed interval retries.
)

// ClusterHealthGate blocks until the cluster reaches a state that's safe
// to continue from. Request errors are logged and retried, never returned.
// The only errors returned come from the Context, or from Timing.WaitTimeout
// running out.
type ClusterHealthGate struct {
	es     ElasticsearchFacadeIface
	timing Timing
	inst   *Instrumentation
}

// NewClusterHealthGate returns a new ClusterHealthGate.
// inst may be nil.
func NewClusterHealthGate(c ElasticsearchFacadeIface, timing Timing, inst *Instrumentation) *ClusterHealthGate {
	return &ClusterHealthGate{
		es:     c,
		timing: timing,
		inst:   inst,
	}
}

// logRetry returns a retry.Notify that logs failed attempts of operation
// and counts them.
func logRetry(ctx context.Context, inst *Instrumentation, operation string) retry.Notify {
	logger := ctxlog.L(ctx)
	return func(err error, attempt uint64, next time.Duration) {
		inst.retried(operation)
		if cause := errors.Cause(err); cause == ErrNotGreen || cause == ErrNodeAbsent ||
			cause == ErrServiceNotRunning || cause == ErrUnreachable {
			logger.Debug("not ready yet",
				zap.String("operation", operation),
				zap.Uint64("attempt", attempt),
				zap.Duration("retry_in", next))
			return
		}
		logger.Warn("attempt failed, retrying",
			zap.String("operation", operation),
			zap.Uint64("attempt", attempt),
			zap.Duration("retry_in", next),
			zap.Error(err))
	}
}

// FetchHealth returns the cluster health, retrying every
// Timing.ErrorRetry until a request succeeds.
func (g *ClusterHealthGate) FetchHealth(ctx context.Context) (*ClusterHealth, error) {
	var health *ClusterHealth
	err := retry.Do(ctx, retry.Every(g.timing.ErrorRetry), func(ctx context.Context) error {
		var err error
		health, err = g.es.Health(ctx)
		return err
	}, logRetry(ctx, g.inst, "fetch-health"))
	if err != nil {
		return nil, err
	}
	g.inst.observeHealth(health.Status)
	return health, nil
}

// WaitForGreen blocks until cluster health is green. The health is
// fetched fresh every Timing.GreenPoll.
func (g *ClusterHealthGate) WaitForGreen(ctx context.Context) error {
	ctx, cancel := retry.WithTimeout(ctx, g.timing.WaitTimeout)
	defer cancel()
	logger := ctxlog.L(ctx)
	err := retry.Do(ctx, retry.Every(g.timing.GreenPoll), func(ctx context.Context) error {
		health, err := g.FetchHealth(ctx)
		if err != nil {
			return retry.Permanent(err)
		}
		logger.Info("cluster health",
			zap.String("status", health.Status),
			zap.Int("unassigned_shards", health.UnassignedShards))
		if !health.Green() {
			return ErrNotGreen
		}
		return nil
	}, logRetry(ctx, g.inst, "wait-green"))
	return errors.Wrap(err, "error waiting for cluster health green")
}

// WaitForNodePresent blocks until the node listing contains name.
// The listing is checked every Timing.NodePoll. Failed requests are
// retried every Timing.ErrorRetry.
func (g *ClusterHealthGate) WaitForNodePresent(ctx context.Context, name string) error {
	ctx, cancel := retry.WithTimeout(ctx, g.timing.WaitTimeout)
	defer cancel()
	logger := ctxlog.L(ctx).With(zap.String("node", name))
	err := retry.Do(ctx, retry.Every(g.timing.NodePoll), func(ctx context.Context) error {
		var present bool
		err := retry.Do(ctx, retry.Every(g.timing.ErrorRetry), func(ctx context.Context) error {
			var err error
			present, err = g.es.NodePresent(ctx, name)
			return err
		}, logRetry(ctx, g.inst, "list-nodes"))
		if err != nil {
			return retry.Permanent(err)
		}
		if !present {
			return ErrNodeAbsent
		}
		return nil
	}, logRetry(ctx, g.inst, "wait-node"))
	if err != nil {
		return errors.Wrapf(err, "error waiting for node %s to join", name)
	}
	logger.Info("node joined cluster")
	return nil
}

// FetchAllocationSetting returns the current shard allocation setting.
// It's a single attempt: on error, or if the setting isn't set, ok is
// false and the failure is logged.
func (g *ClusterHealthGate) FetchAllocationSetting(ctx context.Context) (setting es.AllocationSetting, ok bool) {
	return readAllocation(ctx, g.es)
}
