package rollingrestart

import (
	"context"
	"time"

	"github.com/looplab/fsm"                         // Finite state machines.
	"github.com/pkg/errors"                          // Wrap errors with stacktrace.
	"github.com/prometheus/client_golang/prometheus" // Prometheus metrics.
	"go.uber.org/zap"                                // Logging.

	"github.com/mintel/elasticsearch-rolling/internal/pkg/metrics" // Prometheus instrumentation.
	"github.com/mintel/elasticsearch-rolling/pkg/ctxlog"           // Logger from context.
	"github.com/mintel/elasticsearch-rolling/pkg/es"               // Extensions to the Elasticsearch client.
	"github.com/mintel/elasticsearch-rolling/pkg/retry"            // Fixed interval retries.
)

// States of NodeMaintenance.
const (
	StateIdle                 = "idle"
	StatePreflightChecked     = "preflight-checked"
	StateAllocationDisabled   = "allocation-disabled"
	StateFlushed              = "flushed"
	StateServiceStopped       = "service-stopped"
	StateActionIssued         = "action-issued"
	StateAwaitingConnectivity = "awaiting-connectivity"
	StateAwaitingServiceUp    = "awaiting-service-up"
	StateAllocationRestored   = "allocation-restored"
	StateAwaitingClusterGreen = "awaiting-cluster-green"
	StateDone                 = "done"
)

// Events of NodeMaintenance.
const (
	eventPreflight         = "preflight"
	eventDisableAllocation = "disable-allocation"
	eventFlush             = "flush"
	eventStopService       = "stop-service"
	eventIssueAction       = "issue-action"
	eventAwaitConnectivity = "await-connectivity"
	eventAwaitService      = "await-service"
	eventRestoreAllocation = "restore-allocation"
	eventAwaitGreen        = "await-green"
	eventFinish            = "finish"
)

var maintenanceEvents = []fsm.EventDesc{
	{Name: eventPreflight, Src: []string{StateIdle}, Dst: StatePreflightChecked},
	{Name: eventDisableAllocation, Src: []string{StatePreflightChecked}, Dst: StateAllocationDisabled},
	{Name: eventFlush, Src: []string{StateAllocationDisabled}, Dst: StateFlushed},
	{Name: eventStopService, Src: []string{StatePreflightChecked, StateFlushed}, Dst: StateServiceStopped},
	{Name: eventIssueAction, Src: []string{StatePreflightChecked, StateFlushed, StateServiceStopped}, Dst: StateActionIssued},
	{Name: eventAwaitConnectivity, Src: []string{StateActionIssued}, Dst: StateAwaitingConnectivity},
	{Name: eventAwaitService, Src: []string{StateActionIssued, StateAwaitingConnectivity}, Dst: StateAwaitingServiceUp},
	{Name: eventRestoreAllocation, Src: []string{StateAwaitingServiceUp}, Dst: StateAllocationRestored},
	{Name: eventAwaitGreen, Src: []string{StateAwaitingServiceUp, StateAllocationRestored}, Dst: StateAwaitingClusterGreen},
	{Name: eventFinish, Src: []string{StateAwaitingServiceUp, StateAwaitingClusterGreen}, Dst: StateDone},
}

// MaintenanceConfig is the configuration shared by every node of a run.
type MaintenanceConfig struct {
	// Service is the systemd unit restarted or stopped on each host.
	Service string

	// GuardService must be running on a host before it's rebooted
	// as part of the cluster. Empty disables the check.
	GuardService string

	Timing Timing
}

// step is an fsm event, optionally followed by a wait in the new state.
type step struct {
	event string
	wait  func(context.Context) error
}

// NodeMaintenance takes one node through a maintenance cycle.
// The work of each transition is done in the transition's before callback,
// so a failed step leaves the machine in the last state it completed.
type NodeMaintenance struct {
	node   Node
	mode   MaintenanceMode
	config MaintenanceConfig

	cluster    ElasticsearchFacadeIface
	gate       *ClusterHealthGate
	allocation *AllocationController
	executor   NodeExecutor
	inst       *Instrumentation

	report NodeReport
	state  *fsm.FSM
}

// NewNodeMaintenance returns a new NodeMaintenance in the idle state.
// cluster, gate and allocation may be nil if mode doesn't touch the
// cluster. inst may be nil.
func NewNodeMaintenance(
	node Node,
	mode MaintenanceMode,
	config MaintenanceConfig,
	cluster ElasticsearchFacadeIface,
	gate *ClusterHealthGate,
	allocation *AllocationController,
	executor NodeExecutor,
	inst *Instrumentation,
) *NodeMaintenance {
	m := &NodeMaintenance{
		node:       node,
		mode:       mode,
		config:     config,
		cluster:    cluster,
		gate:       gate,
		allocation: allocation,
		executor:   executor,
		inst:       inst,
		report:     NodeReport{Node: node, Mode: mode, State: StateIdle},
	}
	m.state = fsm.NewFSM(
		StateIdle,
		maintenanceEvents,
		map[string]fsm.Callback{
			"before_" + eventPreflight:         m.beforePreflight,
			"before_" + eventDisableAllocation: m.beforeDisableAllocation,
			"before_" + eventFlush:             m.beforeFlush,
			"before_" + eventStopService:       m.beforeStopService,
			"before_" + eventIssueAction:       m.beforeIssueAction,
			"before_" + eventRestoreAllocation: m.beforeRestoreAllocation,
			"enter_state":                      m.enterState,
		},
	)
	return m
}

// State returns the current state.
func (m *NodeMaintenance) State() string {
	return m.state.Current()
}

// Report returns what has happened to the node so far.
func (m *NodeMaintenance) Report() NodeReport {
	return m.report
}

// steps returns the sequence of steps for the node's mode and role.
func (m *NodeMaintenance) steps() []step {
	steps := []step{{event: eventPreflight}}
	if m.mode.TouchesCluster() && m.node.IsData() {
		steps = append(steps, step{event: eventDisableAllocation}, step{event: eventFlush})
	}
	if m.mode.Reboots() {
		steps = append(steps,
			step{event: eventStopService},
			step{event: eventIssueAction},
			step{event: eventAwaitConnectivity, wait: m.waitForConnectivity},
		)
	} else {
		steps = append(steps, step{event: eventIssueAction})
	}
	if !m.mode.TouchesCluster() {
		return append(steps,
			step{event: eventAwaitService, wait: m.waitForService},
			step{event: eventFinish},
		)
	}
	steps = append(steps, step{event: eventAwaitService, wait: m.waitForNodePresent})
	if m.node.IsData() {
		steps = append(steps, step{event: eventRestoreAllocation})
	}
	return append(steps,
		step{event: eventAwaitGreen, wait: m.gate.WaitForGreen},
		step{event: eventFinish},
	)
}

// Run takes the node through every step of its maintenance cycle.
// It returns the first fatal error. Errors that the cycle tolerates,
// like a failed restart command, are only logged.
func (m *NodeMaintenance) Run(ctx context.Context) error {
	ctx = ctxlog.WithHost(ctx, m.node.Host)
	ctx = ctxlog.WithFields(ctx, zap.String("role", string(m.node.Role)))
	logger := ctxlog.L(ctx)
	logger.Info("starting node maintenance", zap.String("mode", m.mode.String()))

	m.report.Started = time.Now()
	timer := m.inst.nodeTimer()
	err := m.run(ctx)
	m.report.Duration = timer.ObserveErr(err, prometheus.Labels{
		metrics.LabelMode: m.mode.String(),
		metrics.LabelRole: string(m.node.Role),
	})
	m.report.Err = err

	if err != nil {
		logger.Error("node maintenance failed",
			zap.String("state", m.State()),
			zap.Duration("duration", m.report.Duration),
			zap.Error(err))
		return err
	}
	if !m.report.AllocationRoundTrip() {
		logger.Warn("allocation setting changed during maintenance",
			zap.Stringer("before", m.report.AllocationBefore),
			zap.Stringer("after", m.report.AllocationAfter))
	}
	logger.Info("node maintenance done", zap.Duration("duration", m.report.Duration))
	return nil
}

func (m *NodeMaintenance) run(ctx context.Context) error {
	for _, s := range m.steps() {
		sctx := ctxlog.WithFields(ctx, zap.String(ctxlog.StepField, s.event))
		timer := m.inst.stepTimer()
		err := rationalizeFSMError(m.state.Event(s.event, sctx))
		if err == nil && s.wait != nil {
			err = s.wait(sctx)
		}
		timer.ObserveErr(err, prometheus.Labels{metrics.LabelStep: s.event})
		if err != nil {
			return errors.Wrapf(err, "%s: %s", m.node.Host, s.event)
		}
	}
	return nil
}

// eventContext returns the Context passed to fsm.FSM.Event.
func eventContext(e *fsm.Event) context.Context {
	if len(e.Args) > 0 {
		if ctx, ok := e.Args[0].(context.Context); ok {
			return ctx
		}
	}
	return context.Background()
}

func (m *NodeMaintenance) enterState(e *fsm.Event) {
	m.report.State = e.Dst
	ctxlog.L(eventContext(e)).Debug("entered state", zap.String("state", e.Dst))
}

func (m *NodeMaintenance) beforePreflight(e *fsm.Event) {
	ctx := eventContext(e)
	if m.mode == ModeRebootClusterService && m.config.GuardService != "" {
		running, err := m.executor.IsServiceRunning(ctx, m.node.Host, m.config.GuardService)
		if err != nil {
			e.Cancel(errors.Wrapf(err, "error checking guard service %s", m.config.GuardService))
			return
		}
		if !running {
			e.Cancel(errors.Wrap(ErrGuardServiceInactive, m.config.GuardService))
			return
		}
		ctxlog.L(ctx).Info("guard service is active", zap.String("service", m.config.GuardService))
	}
	if m.mode.TouchesCluster() {
		m.logClusterInfo(ctx)
		m.report.AllocationBefore, m.report.HasAllocationBefore = m.gate.FetchAllocationSetting(ctx)
		if m.report.HasAllocationBefore && !m.report.AllocationBefore.Enabled() && m.node.IsData() {
			ctxlog.L(ctx).Warn("shard allocation is already restricted, it will be set to all after this node",
				zap.Stringer("setting", m.report.AllocationBefore))
		}
	}
}

// logClusterInfo logs the identity of the cluster. It's diagnostic only.
func (m *NodeMaintenance) logClusterInfo(ctx context.Context) {
	logger := ctxlog.L(ctx)
	info, err := m.cluster.Info(ctx)
	if err != nil {
		logger.Warn("couldn't get cluster info", zap.Error(err))
		return
	}
	logger.Info("cluster info",
		zap.String("cluster_name", info.ClusterName),
		zap.String("cluster_uuid", info.ClusterUUID),
		zap.String("version", info.Version),
		zap.String("answered_by", info.Name))
}

func (m *NodeMaintenance) beforeDisableAllocation(e *fsm.Event) {
	ctx := eventContext(e)
	if _, _, err := m.allocation.SetAllocation(ctx, es.AllocationNone); err != nil {
		e.Cancel(err)
		return
	}
	setting, ok := m.allocation.GetAllocation(ctx)
	if ok && setting.Mode != es.AllocationNone {
		ctxlog.L(ctx).Warn("allocation setting doesn't show the change yet", zap.Stringer("setting", setting))
	}
}

func (m *NodeMaintenance) beforeFlush(e *fsm.Event) {
	ctx := eventContext(e)
	m.allocation.FlushSynced(ctx)
	if err := ctx.Err(); err != nil {
		e.Cancel(err)
	}
}

func (m *NodeMaintenance) beforeStopService(e *fsm.Event) {
	ctx := eventContext(e)
	if m.mode == ModeRebootGenericService {
		running, err := m.executor.IsServiceRunning(ctx, m.node.Host, m.config.Service)
		if err != nil {
			ctxlog.L(ctx).Warn("couldn't check service, stopping it anyway", zap.Error(err))
			running = true
		}
		if !running {
			ctxlog.L(ctx).Info("service isn't running", zap.String("service", m.config.Service))
			return
		}
	}
	m.logCommand(ctx, "stop", m.config.Service)(m.executor.StopService(ctx, m.node.Host, m.config.Service))
	if m.mode == ModeRebootGenericService {
		if err := retry.Sleep(ctx, m.config.Timing.StopSettle); err != nil {
			e.Cancel(err)
		}
	}
}

func (m *NodeMaintenance) beforeIssueAction(e *fsm.Event) {
	ctx := eventContext(e)
	logger := ctxlog.L(ctx)
	switch m.mode {
	case ModeRestartClusterService:
		m.logCommand(ctx, "restart", m.config.Service)(m.executor.RestartService(ctx, m.node.Host, m.config.Service))

	case ModeRebootClusterService:
		m.reboot(ctx)

	case ModeRebootGenericService:
		running, err := m.executor.IsServiceRunning(ctx, m.node.Host, m.config.Service)
		if err != nil {
			logger.Warn("couldn't check service, not rebooting", zap.Error(err))
			return
		}
		if running {
			logger.Warn("service is still running, not rebooting", zap.String("service", m.config.Service))
			return
		}
		m.reboot(ctx)
	}
	if err := ctx.Err(); err != nil {
		e.Cancel(err)
	}
}

func (m *NodeMaintenance) reboot(ctx context.Context) {
	logger := ctxlog.L(ctx)
	logger.Info("rebooting")
	if err := m.executor.Reboot(ctx, m.node.Host); err != nil {
		// The reboot closes the connection the result would arrive on.
		logger.Debug("reboot command returned an error", zap.Error(err))
	}
}

// logCommand returns a func that logs the outcome of a service command.
// Failures aren't fatal: the following waits catch a service that
// really didn't come back.
func (m *NodeMaintenance) logCommand(ctx context.Context, command, service string) func(CommandResult, error) {
	logger := ctxlog.L(ctx).With(zap.String("command", command), zap.String("service", service))
	return func(res CommandResult, err error) {
		switch {
		case err != nil:
			logger.Warn("service command failed", zap.Error(err))
		case res.Failed:
			logger.Warn("service command failed",
				zap.Int("exit_status", res.ExitStatus),
				zap.String("output", res.Output))
		default:
			logger.Info("service command succeeded")
		}
	}
}

// waitForConnectivity waits for a rebooting host to come back.
func (m *NodeMaintenance) waitForConnectivity(ctx context.Context) error {
	t := m.config.Timing
	if err := retry.Sleep(ctx, t.RebootSettle); err != nil {
		return err
	}
	wctx, cancel := retry.WithTimeout(ctx, t.WaitTimeout)
	defer cancel()
	err := retry.Do(wctx, retry.Every(t.ProbeInterval), func(ctx context.Context) error {
		if !m.executor.Probe(ctx, m.node.Host) {
			return ErrUnreachable
		}
		return nil
	}, logRetry(ctx, m.inst, "probe"))
	if err != nil {
		return errors.Wrap(err, "error waiting for host to come back")
	}
	ctxlog.L(ctx).Info("host is reachable")
	return retry.Sleep(ctx, t.RebootSettle)
}

// waitForService waits for the service to be running again.
func (m *NodeMaintenance) waitForService(ctx context.Context) error {
	t := m.config.Timing
	wctx, cancel := retry.WithTimeout(ctx, t.WaitTimeout)
	defer cancel()
	err := retry.Do(wctx, retry.Every(t.ServicePoll), func(ctx context.Context) error {
		running, err := m.executor.IsServiceRunning(ctx, m.node.Host, m.config.Service)
		if err != nil {
			return err
		}
		if !running {
			return ErrServiceNotRunning
		}
		return nil
	}, logRetry(ctx, m.inst, "wait-service"))
	if err != nil {
		return errors.Wrapf(err, "error waiting for %s to start", m.config.Service)
	}
	ctxlog.L(ctx).Info("service is running", zap.String("service", m.config.Service))
	return nil
}

func (m *NodeMaintenance) waitForNodePresent(ctx context.Context) error {
	return m.gate.WaitForNodePresent(ctx, m.node.ShortName())
}

func (m *NodeMaintenance) beforeRestoreAllocation(e *fsm.Event) {
	ctx := eventContext(e)
	setting, ok, err := m.allocation.SetAllocation(ctx, es.AllocationAll)
	if err != nil {
		e.Cancel(err)
		return
	}
	if !ok {
		setting = es.AllocationSetting{Mode: es.AllocationAll}
	}
	m.report.AllocationAfter, m.report.HasAllocationAfter = setting, true
}

// rationalizeFSMError unwraps the error of a canceled transition.
// Unlike idempotent toggles, a transition that isn't allowed from the
// current state is a bug in the step sequence, so it's returned.
func rationalizeFSMError(err error) error {
	switch e := err.(type) {
	case fsm.NoTransitionError, *fsm.NoTransitionError:
		err = nil
	case fsm.CanceledError:
		err = rationalizeFSMError(e.Err)
	case *fsm.CanceledError:
		err = rationalizeFSMError(e.Err)
	}
	return err
}
