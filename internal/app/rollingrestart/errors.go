package rollingrestart

import (
	"github.com/pkg/errors" // Wrap errors with stacktrace.
)

var (
	// ErrGuardServiceInactive is returned when the guard service on a
	// host isn't running before a reboot. It stops the run.
	ErrGuardServiceInactive = errors.New("guard service is not active")

	// ErrNotAcknowledged is the retry condition of a settings change
	// that the master didn't acknowledge.
	ErrNotAcknowledged = errors.New("settings change not acknowledged")

	// ErrNotGreen is the retry condition while cluster health isn't green.
	ErrNotGreen = errors.New("cluster status is not green")

	// ErrNodeAbsent is the retry condition while a node isn't listed
	// as a cluster member.
	ErrNodeAbsent = errors.New("node is not a cluster member")

	// ErrServiceNotRunning is the retry condition while a service
	// isn't running on a host.
	ErrServiceNotRunning = errors.New("service is not running")

	// ErrUnreachable is the retry condition while a host doesn't
	// accept commands.
	ErrUnreachable = errors.New("host is unreachable")

	// ErrNoNodes is returned when a run is given no hosts.
	ErrNoNodes = errors.New("no nodes to process")
)
