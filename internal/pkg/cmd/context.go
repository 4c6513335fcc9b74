package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap" // Logging.
)

// WithInterrupt returns a Context that is canceled when SIGINT or SIGTERM
// is received. The signal is logged with the global logger.
func WithInterrupt(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		signalCh := make(chan os.Signal, 1)
		signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(signalCh)
		select {
		case sig := <-signalCh:
			zap.L().Warn("received signal, stopping", zap.Stringer("signal", sig))
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
