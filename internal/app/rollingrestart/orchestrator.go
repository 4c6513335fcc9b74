package rollingrestart

import (
	"context"

	"go.uber.org/zap" // Logging.

	"github.com/mintel/elasticsearch-rolling/pkg/ctxlog" // Logger from context.
)

// RollingOrchestrator takes nodes through maintenance one at a time.
type RollingOrchestrator struct {
	Config MaintenanceConfig

	// Cluster, Gate and Allocation are only used by modes that
	// touch the cluster and may be nil otherwise.
	Cluster    ElasticsearchFacadeIface
	Gate       *ClusterHealthGate
	Allocation *AllocationController

	Executor NodeExecutor

	// Inst may be nil.
	Inst *Instrumentation
}

// NewRollingOrchestrator returns a new RollingOrchestrator. If cluster
// is not nil, the health gate and allocation controller are built on it.
func NewRollingOrchestrator(config MaintenanceConfig, cluster ElasticsearchFacadeIface, executor NodeExecutor, inst *Instrumentation) *RollingOrchestrator {
	o := &RollingOrchestrator{
		Config:   config,
		Executor: executor,
		Inst:     inst,
	}
	if cluster != nil {
		o.Cluster = cluster
		o.Gate = NewClusterHealthGate(cluster, config.Timing, inst)
		o.Allocation = NewAllocationController(cluster, config.Timing, inst)
	}
	return o
}

// Run takes nodes through maintenance in the order given. A node is only
// started after the previous one is done, which for cluster modes means
// after the cluster was seen green. Run stops at the first node that fails
// and returns the reports of the nodes processed so far, including the
// failed one.
func (o *RollingOrchestrator) Run(ctx context.Context, nodes []Node, mode MaintenanceMode) ([]NodeReport, error) {
	if len(nodes) == 0 {
		return nil, ErrNoNodes
	}
	logger := ctxlog.L(ctx)
	logger.Info("starting rolling run",
		zap.String("mode", mode.String()),
		zap.Int("nodes", len(nodes)))

	reports := make([]NodeReport, 0, len(nodes))
	for i, node := range nodes {
		o.Inst.setRemaining(len(nodes) - i)
		m := NewNodeMaintenance(node, mode, o.Config, o.Cluster, o.Gate, o.Allocation, o.Executor, o.Inst)
		err := m.Run(ctx)
		reports = append(reports, m.Report())
		if err != nil {
			logger.Error("stopping rolling run",
				zap.String("failed_host", node.Host),
				zap.Int("remaining", len(nodes)-i-1))
			return reports, err
		}
	}
	o.Inst.setRemaining(0)
	logger.Info("rolling run done", zap.Int("nodes", len(nodes)))
	return reports, nil
}
