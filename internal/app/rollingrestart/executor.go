package rollingrestart

import (
	"context"

	"github.com/mintel/elasticsearch-rolling/internal/pkg/remote" // Remote command execution.
)

// CommandResult is the outcome of a service management command.
type CommandResult = remote.Result

// NodeExecutor runs the disruptive commands on a host.
type NodeExecutor interface {
	IsServiceRunning(ctx context.Context, host, service string) (bool, error)
	StopService(ctx context.Context, host, service string) (CommandResult, error)
	RestartService(ctx context.Context, host, service string) (CommandResult, error)

	// Reboot errors are expected since the reboot drops the connection.
	Reboot(ctx context.Context, host string) error

	// Probe reports whether the host runs a trivial command.
	Probe(ctx context.Context, host string) bool
}

var _ NodeExecutor = (*remote.Systemd)(nil)
