package rollingrestart

import (
	"time"

	kingpin "gopkg.in/alecthomas/kingpin.v2" // Command line flag parsing.

	"github.com/mintel/elasticsearch-rolling/internal/pkg/cmd" // Common command line app tools.
)

const (
	_defaultPort         = 0 // Monitoring server disabled.
	_defaultLogLevel     = "INFO"
	_defaultService      = "elasticsearch-es-01"
	_defaultGuardService = "iptables"
)

// Commands.
const (
	CommandRebootGenericService  = string(ModeRebootGenericService)
	CommandRebootClusterService  = string(ModeRebootClusterService)
	CommandRestartClusterService = string(ModeRestartClusterService)
	CommandCheckConnectivity     = "check-connectivity"
	CommandTestService           = "test-service"
)

// Flags holds command line flags for the
// rolling restart App.
type Flags struct {
	// Command is the selected command.
	Command string

	// Elasticsearch systemd unit.
	Service string

	// Unit that must be running before a cluster host is rebooted.
	GuardService string

	// Hostname substring of data nodes.
	DataMarker string

	// Unit named on the command line by reboot-generic-service
	// and test-service.
	TargetService string

	Timing Timing

	*cmd.ElasticsearchFlags
	*cmd.SSHFlags
	*cmd.InventoryFlags
	*cmd.LoggingFlags
	*cmd.ServerFlags
}

// NewFlags returns a new Flags.
func NewFlags(app *kingpin.Application) *Flags {
	var f Flags

	app.Flag("service", "Name of the Elasticsearch systemd unit.").
		Default(_defaultService).
		StringVar(&f.Service)

	app.Flag("guard-service", "Systemd unit that must be active before a cluster node is rebooted. Empty disables the check.").
		Default(_defaultGuardService).
		StringVar(&f.GuardService)

	app.Flag("data-marker", "Hosts whose name contains this are treated as data nodes.").
		Default(DefaultDataMarker).
		StringVar(&f.DataMarker)

	app.Flag("wait.timeout", "Give up a node if any single wait takes longer than this. 0 waits forever.").
		Default("0s").
		DurationVar(&f.Timing.WaitTimeout)

	d := DefaultTiming()
	timingFlag(app, "timing.node-poll", "Interval between cluster membership checks.", d.NodePoll, &f.Timing.NodePoll)
	timingFlag(app, "timing.error-retry", "Delay after a failed Elasticsearch request.", d.ErrorRetry, &f.Timing.ErrorRetry)
	timingFlag(app, "timing.green-poll", "Interval between cluster health checks.", d.GreenPoll, &f.Timing.GreenPoll)
	timingFlag(app, "timing.allocation-retry", "Delay between attempts to change shard allocation.", d.AllocationRetry, &f.Timing.AllocationRetry)
	timingFlag(app, "timing.service-poll", "Interval between service checks.", d.ServicePoll, &f.Timing.ServicePoll)
	timingFlag(app, "timing.probe-interval", "Interval between connectivity probes of a rebooting host.", d.ProbeInterval, &f.Timing.ProbeInterval)
	timingFlag(app, "timing.stop-settle", "Pause after stopping a service.", d.StopSettle, &f.Timing.StopSettle)
	timingFlag(app, "timing.reboot-settle", "Pause after a reboot, and again after the host answers.", d.RebootSettle, &f.Timing.RebootSettle)

	f.ElasticsearchFlags = cmd.NewElasticsearchFlags(app)
	f.SSHFlags = cmd.NewSSHFlags(app)
	f.InventoryFlags = cmd.NewInventoryFlags(app)
	f.LoggingFlags = cmd.NewLoggingFlags(app, _defaultLogLevel)
	f.ServerFlags = cmd.NewServerFlags(app, _defaultPort)

	generic := f.command(app, CommandRebootGenericService, "Reboot hosts running SERVICE one at a time, waiting for SERVICE to come back on each.")
	generic.Arg("service", "Systemd unit to stop before each reboot.").
		Required().
		StringVar(&f.TargetService)
	f.HostArgs(generic)

	f.HostArgs(f.command(app, CommandRebootClusterService, "Reboot Elasticsearch nodes one at a time, waiting for green between nodes."))
	f.HostArgs(f.command(app, CommandRestartClusterService, "Restart Elasticsearch on nodes one at a time, waiting for green between nodes."))
	f.HostArgs(f.command(app, CommandCheckConnectivity, "Check the Elasticsearch API of every host answers."))

	test := f.command(app, CommandTestService, "Check SERVICE is running on every host.")
	test.Arg("service", "Systemd unit to check.").
		Required().
		StringVar(&f.TargetService)
	f.HostArgs(test)

	return &f
}

// command adds a command that records itself as the selected one.
func (f *Flags) command(app *kingpin.Application, name, help string) *kingpin.CmdClause {
	return app.Command(name, help).Action(func(*kingpin.ParseContext) error {
		f.Command = name
		return nil
	})
}

func timingFlag(app *kingpin.Application, name, help string, def time.Duration, target *time.Duration) {
	app.Flag(name, help).
		Hidden().
		Default(def.String()).
		DurationVar(target)
}

// MaintenanceConfig returns the configuration of a rolling run.
func (f *Flags) MaintenanceConfig(mode MaintenanceMode) MaintenanceConfig {
	c := MaintenanceConfig{
		Service:      f.Service,
		GuardService: f.GuardService,
		Timing:       f.Timing,
	}
	if mode == ModeRebootGenericService {
		c.Service = f.TargetService
		c.GuardService = ""
	}
	return c
}
