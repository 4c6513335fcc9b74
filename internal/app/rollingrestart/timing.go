package rollingrestart

import (
	"time"
)

// Timing holds the intervals of every wait in a run.
type Timing struct {
	// NodePoll is how often cluster membership is checked while
	// waiting for a node to rejoin.
	NodePoll time.Duration

	// ErrorRetry is the delay after a failed Elasticsearch request.
	ErrorRetry time.Duration

	// GreenPoll is how often cluster health is checked while waiting for green.
	GreenPoll time.Duration

	// AllocationRetry is the delay between attempts to change the
	// allocation setting.
	AllocationRetry time.Duration

	// ServicePoll is how often a service is checked while waiting for it to start.
	ServicePoll time.Duration

	// ProbeInterval is how often a rebooting host is probed.
	ProbeInterval time.Duration

	// StopSettle is the pause between stopping a service and checking
	// that it stopped.
	StopSettle time.Duration

	// RebootSettle is the pause after issuing a reboot, and again
	// after the host first answers.
	RebootSettle time.Duration

	// WaitTimeout bounds each blocking wait. Zero means wait forever.
	WaitTimeout time.Duration
}

// DefaultTiming returns the production intervals.
func DefaultTiming() Timing {
	return Timing{
		NodePoll:        5 * time.Second,
		ErrorRetry:      10 * time.Second,
		GreenPoll:       10 * time.Second,
		AllocationRetry: 10 * time.Second,
		ServicePoll:     10 * time.Second,
		ProbeInterval:   10 * time.Second,
		StopSettle:      10 * time.Second,
		RebootSettle:    30 * time.Second,
	}
}
