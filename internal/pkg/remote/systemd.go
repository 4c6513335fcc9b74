package remote

import (
	"context"
	"regexp"

	"github.com/pkg/errors" // Wrap errors with stacktrace.
	"go.uber.org/zap"       // Logging.

	"github.com/mintel/elasticsearch-rolling/pkg/ctxlog" // Logger from context.
)

// Runner runs a shell command on a host.
type Runner interface {
	Run(ctx context.Context, host, command string) (Result, error)
}

var _ Runner = (*Executor)(nil)

// validUnit matches systemd unit names.
var validUnit = regexp.MustCompile(`^[A-Za-z0-9:_.@\-]+$`)

// ErrInvalidUnit is returned for service names that aren't valid systemd unit names.
var ErrInvalidUnit = errors.New("invalid systemd unit name")

// Systemd manages services on hosts that use systemd.
type Systemd struct {
	Runner Runner
}

// NewSystemd returns a new Systemd using r to run commands.
func NewSystemd(r Runner) *Systemd {
	return &Systemd{Runner: r}
}

func checkUnit(name string) error {
	if !validUnit.MatchString(name) {
		return errors.Wrapf(ErrInvalidUnit, "%q", name)
	}
	return nil
}

// IsServiceRunning reports whether the service is active.
func (s *Systemd) IsServiceRunning(ctx context.Context, host, service string) (bool, error) {
	if err := checkUnit(service); err != nil {
		return false, err
	}
	res, err := s.Runner.Run(ctx, host, "systemctl is-active --quiet "+service)
	if err != nil {
		return false, err
	}
	return res.Succeeded, nil
}

// StopService stops the service.
func (s *Systemd) StopService(ctx context.Context, host, service string) (Result, error) {
	if err := checkUnit(service); err != nil {
		return Result{}, err
	}
	return s.Runner.Run(ctx, host, "systemctl stop "+service)
}

// RestartService restarts the service.
func (s *Systemd) RestartService(ctx context.Context, host, service string) (Result, error) {
	if err := checkUnit(service); err != nil {
		return Result{}, err
	}
	return s.Runner.Run(ctx, host, "systemctl restart "+service)
}

// Reboot reboots the host. The reboot usually drops the connection before
// the command's exit status arrives, so the error is returned for
// logging but is expected.
func (s *Systemd) Reboot(ctx context.Context, host string) error {
	res, err := s.Runner.Run(ctx, host, "reboot")
	if err == nil && res.Failed {
		err = errors.Errorf("reboot exited with status %d: %s", res.ExitStatus, res.Output)
	}
	return err
}

// Probe reports whether host accepts and runs a trivial command.
func (s *Systemd) Probe(ctx context.Context, host string) bool {
	res, err := s.Runner.Run(ctx, host, "ls")
	if err != nil {
		ctxlog.L(ctx).Debug("connectivity probe failed", zap.Error(err))
		return false
	}
	return res.Succeeded
}
