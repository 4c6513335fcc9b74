package remote

import (
	"bytes"
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache" // Connection cache with expiry.
	"github.com/pkg/errors"         // Wrap errors with stacktrace.
	"go.uber.org/zap"               // Logging.
	"golang.org/x/crypto/ssh"       // SSH client.

	"github.com/mintel/elasticsearch-rolling/pkg/ctxlog" // Logger from context.
)

// DefaultIdleTimeout is how long an unused connection is kept open
// if Config.IdleTimeout isn't set.
const DefaultIdleTimeout = 5 * time.Minute

// Result is the outcome of a command that ran to completion.
type Result struct {
	// Succeeded is true if the command exited with status 0.
	Succeeded bool

	// Failed is true if the command exited with a non-zero status.
	Failed bool

	// ExitStatus of the command.
	ExitStatus int

	// Output is the combined stdout and stderr.
	Output string
}

// Executor runs commands on hosts over SSH, keeping one connection
// per host open between commands.
//
// Connections that break are dropped from the cache, so the next
// command to that host reconnects. That's what happens to every
// connection to a host that reboots.
type Executor struct {
	cfg     Config
	client  *ssh.ClientConfig
	cleanup func()

	mu    sync.Mutex
	conns *cache.Cache

	// dial is overridden in tests.
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewExecutor returns a new Executor.
func NewExecutor(cfg Config) (*Executor, error) {
	cc, cleanup, err := cfg.clientConfig()
	if err != nil {
		return nil, err
	}
	return newExecutor(cfg, cc, cleanup), nil
}

func newExecutor(cfg Config, cc *ssh.ClientConfig, cleanup func()) *Executor {
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	conns := cache.New(idle, idle/2)
	conns.OnEvicted(func(host string, v interface{}) {
		_ = v.(*ssh.Client).Close()
	})
	d := &net.Dialer{Timeout: cfg.DialTimeout}
	return &Executor{
		cfg:     cfg,
		client:  cc,
		cleanup: cleanup,
		conns:   conns,
		dial:    d.DialContext,
	}
}

// Close closes every cached connection.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for host := range e.conns.Items() {
		e.conns.Delete(host) // OnEvicted closes the connection.
	}
	e.cleanup()
	return nil
}

func (e *Executor) connect(ctx context.Context, host string) (*ssh.Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if v, ok := e.conns.Get(host); ok {
		c := v.(*ssh.Client)
		e.conns.Set(host, c, cache.DefaultExpiration) // Reset idle expiry.
		return c, nil
	}

	addr := net.JoinHostPort(host, strconv.Itoa(e.cfg.port()))
	conn, err := e.dial(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "error connecting to %s", addr)
	}

	// The handshake doesn't take a Context, so bound it with a deadline.
	deadline, ok := ctx.Deadline()
	if e.cfg.DialTimeout > 0 {
		if d := time.Now().Add(e.cfg.DialTimeout); !ok || d.Before(deadline) {
			deadline, ok = d, true
		}
	}
	if ok {
		_ = conn.SetDeadline(deadline)
	}
	sc, chans, reqs, err := ssh.NewClientConn(conn, addr, e.client)
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "error during ssh handshake with %s", addr)
	}
	_ = conn.SetDeadline(time.Time{})

	c := ssh.NewClient(sc, chans, reqs)
	e.conns.Set(host, c, cache.DefaultExpiration)
	ctxlog.L(ctx).Debug("opened ssh connection", zap.String("addr", addr))
	return c, nil
}

// forget drops and closes the cached connection to host.
func (e *Executor) forget(host string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conns.Delete(host)
}

type sessionResult struct {
	opened bool
	err    error
}

// Run runs command on host.
//
// An error is returned only if the command couldn't be run or its exit status
// couldn't be read, for example because the connection dropped. A command
// that exits non-zero is reported through Result.Failed.
// If ctx is done first, the connection to host is closed.
func (e *Executor) Run(ctx context.Context, host, command string) (Result, error) {
	if e.cfg.Sudo {
		command = "sudo -n " + command
	}
	logger := ctxlog.L(ctx).With(zap.String("command", command))

	c, err := e.connect(ctx, host)
	if err != nil {
		return Result{}, err
	}

	// Opening the session waits on the server too, so it's done in the
	// goroutine: a connection that went half-open while cached (the host
	// rebooted) must not outlive ctx.
	var out bytes.Buffer
	done := make(chan sessionResult, 1)
	go func() {
		sess, err := c.NewSession()
		if err != nil {
			done <- sessionResult{err: errors.Wrap(err, "error opening ssh session")}
			return
		}
		defer sess.Close()
		sess.Stdout = &out
		sess.Stderr = &out
		done <- sessionResult{opened: true, err: sess.Run(command)}
	}()

	var sr sessionResult
	select {
	case <-ctx.Done():
		e.forget(host)
		return Result{}, ctx.Err()
	case sr = <-done:
	}
	if !sr.opened {
		e.forget(host)
		return Result{}, sr.err
	}
	err = sr.err

	res := Result{Output: out.String()}
	if err == nil {
		res.Succeeded = true
		logger.Debug("command succeeded")
		return res, nil
	}
	if exitErr, ok := err.(*ssh.ExitError); ok {
		res.Failed = true
		res.ExitStatus = exitErr.ExitStatus()
		logger.Debug("command failed", zap.Int("exit_status", res.ExitStatus))
		return res, nil
	}
	e.forget(host)
	return res, errors.Wrapf(err, "error running %q on %s", command, host)
}
