// Package retry implements the blocking "attempt, sleep a fixed interval,
// attempt again" loop used by every wait in a rolling restart.
//
// A Policy retries forever by default. Callers opt into bounded behavior
// either with an attempt cap (Policy.MaxAttempts) or by passing a Context
// with a deadline; call sites don't change either way.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff" // Backoff/retry utils.
)

// Policy describes how an operation is retried.
type Policy struct {
	// Interval to sleep between attempts.
	Interval time.Duration

	// MaxAttempts caps the total number of attempts.
	// Zero means no cap.
	MaxAttempts uint64
}

// Every returns an unbounded Policy that sleeps d between attempts.
func Every(d time.Duration) Policy {
	return Policy{Interval: d}
}

// WithMaxAttempts returns a copy of p capped at n attempts.
func (p Policy) WithMaxAttempts(n uint64) Policy {
	p.MaxAttempts = n
	return p
}

func (p Policy) backOff(ctx context.Context) backoff.BackOffContext {
	var b backoff.BackOff = backoff.NewConstantBackOff(p.Interval)
	if p.MaxAttempts > 0 {
		// WithMaxRetries counts retries, not attempts.
		b = backoff.WithMaxRetries(b, p.MaxAttempts-1)
	}
	return &deadlineBackOff{BackOff: b, ctx: ctx}
}

// deadlineBackOff shortens the last sleep before ctx's deadline so that
// attempts continue until the deadline itself. backoff.WithContext gives
// up as soon as the next interval would cross the deadline.
type deadlineBackOff struct {
	backoff.BackOff
	ctx context.Context
}

func (b *deadlineBackOff) Context() context.Context {
	return b.ctx
}

func (b *deadlineBackOff) NextBackOff() time.Duration {
	if b.ctx.Err() != nil {
		return backoff.Stop
	}
	next := b.BackOff.NextBackOff()
	if next == backoff.Stop {
		return next
	}
	if deadline, ok := b.ctx.Deadline(); ok {
		left := time.Until(deadline)
		if left < 0 {
			left = 0
		}
		if left < next {
			next = left
		}
	}
	return next
}

// Notify is called after every failed attempt with the error it returned,
// the 1-based attempt number, and the delay before the next attempt.
type Notify func(err error, attempt uint64, next time.Duration)

// Operation is a single attempt.
type Operation func(ctx context.Context) error

// Do calls op until it returns nil. It stops early if op returns an error
// wrapped with Permanent, if the Policy's attempt cap is reached, or if
// ctx is done. In the last case the context's error is returned.
func Do(ctx context.Context, p Policy, op Operation, notify Notify) error {
	var attempt uint64
	err := backoff.RetryNotify(
		func() error {
			attempt++
			return op(ctx)
		},
		p.backOff(ctx),
		func(err error, next time.Duration) {
			if notify != nil {
				notify(err, attempt, next)
			}
		},
	)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Permanent wraps err so that Do returns it immediately instead of retrying.
// Do unwraps it before returning.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Sleep pauses for d, returning early with the context's error if
// ctx is done first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// WithTimeout returns ctx bounded by d, or ctx unchanged with a no-op
// cancel func if d <= 0.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
