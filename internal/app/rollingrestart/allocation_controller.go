package rollingrestart

import (
	"context"

	"github.com/pkg/errors" // Wrap errors with stacktrace.
	"go.uber.org/zap"       // Logging.

	"github.com/mintel/elasticsearch-rolling/pkg/ctxlog" // Logger from context.
	"github.com/mintel/elasticsearch-rolling/pkg/es"     // Extensions to the Elasticsearch client.
	"github.com/mintel/elasticsearch-rolling/pkg/retry"  // Fixed interval retries.
)

// flushRounds is how many synced flushes are requested before
// a data node is stopped. The second round picks up shards that were
// still receiving writes during the first.
const flushRounds = 2

// AllocationController changes the cluster's shard allocation setting
// and requests synced flushes.
type AllocationController struct {
	es     ElasticsearchFacadeIface
	timing Timing
	inst   *Instrumentation
}

// NewAllocationController returns a new AllocationController.
// inst may be nil.
func NewAllocationController(c ElasticsearchFacadeIface, timing Timing, inst *Instrumentation) *AllocationController {
	return &AllocationController{
		es:     c,
		timing: timing,
		inst:   inst,
	}
}

// SetAllocation sets the transient allocation setting to mode, retrying
// every Timing.AllocationRetry until the master acknowledges the change.
// It returns the setting echoed back by the cluster; ok is false if the
// response didn't include it.
func (a *AllocationController) SetAllocation(ctx context.Context, mode es.AllocationMode) (setting es.AllocationSetting, ok bool, err error) {
	logger := ctxlog.L(ctx).With(zap.String("allocation", string(mode)))
	err = retry.Do(ctx, retry.Every(a.timing.AllocationRetry), func(ctx context.Context) error {
		change, err := a.es.PutAllocation(ctx, mode)
		if err != nil {
			return err
		}
		if !change.Acknowledged {
			return ErrNotAcknowledged
		}
		setting, ok = change.Setting, change.Reported
		return nil
	}, logRetry(ctx, a.inst, "set-allocation"))
	if err != nil {
		return es.AllocationSetting{}, false, errors.Wrapf(err, "error setting allocation to %s", mode)
	}
	switch {
	case !ok:
		logger.Warn("allocation change acknowledged but not echoed back")
	case setting.Mode != mode:
		logger.Warn("allocation change acknowledged with a different value", zap.Stringer("setting", setting))
	default:
		logger.Info("allocation change acknowledged", zap.Stringer("setting", setting))
	}
	return setting, ok, nil
}

// GetAllocation returns the current allocation setting. It's a single
// attempt, used to confirm a change: ok is false on error or if unset.
func (a *AllocationController) GetAllocation(ctx context.Context) (setting es.AllocationSetting, ok bool) {
	return readAllocation(ctx, a.es)
}

func readAllocation(ctx context.Context, c ElasticsearchFacadeIface) (es.AllocationSetting, bool) {
	logger := ctxlog.L(ctx)
	setting, ok, err := c.GetAllocation(ctx)
	switch {
	case err != nil:
		logger.Warn("couldn't get allocation setting", zap.Error(err))
		return es.AllocationSetting{}, false
	case !ok:
		logger.Info("allocation setting not set, cluster default applies")
	default:
		logger.Info("allocation setting", zap.Stringer("setting", setting))
	}
	return setting, ok
}

// FlushSynced requests flushRounds synced flushes. Failed shards and
// failed requests are logged. Neither stops the maintenance: a failed
// synced flush only makes the node's recovery slower.
// It returns the number of rounds that got a response.
func (a *AllocationController) FlushSynced(ctx context.Context) int {
	logger := ctxlog.L(ctx)
	completed := 0
	for round := 1; round <= flushRounds; round++ {
		if ctx.Err() != nil {
			break
		}
		resp, err := a.es.FlushSynced(ctx)
		if err != nil {
			logger.Warn("synced flush failed", zap.Int("round", round), zap.Error(err))
			continue
		}
		completed++
		fields := []zap.Field{
			zap.Int("round", round),
			zap.Int("total", resp.Total),
			zap.Int("successful", resp.Successful),
			zap.Int("failed", resp.Failed),
		}
		if resp.Failed > 0 {
			logger.Warn("synced flush failed on some shards", fields...)
		} else {
			logger.Info("synced flush done", fields...)
		}
	}
	return completed
}
