package cmd

import (
	"go.uber.org/zap" // Logging.
)

// SetGlobalLogger sets the zap global logger and redirects the
// standard library's logger to it at debug level.
// It returns a func that restores the previous global loggers.
func SetGlobalLogger(logger *zap.Logger) func() {
	undoGlobals := zap.ReplaceGlobals(logger)
	undoStdLog, err := zap.RedirectStdLogAt(logger, zap.DebugLevel)
	if err != nil {
		panic(err)
	}
	return func() {
		undoStdLog()
		undoGlobals()
	}
}
