package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty" // Check if running in a terminal.
	"go.uber.org/zap"            // Logging.
	"go.uber.org/zap/zapcore"
)

// LoggingFlags represents a set of flags for setting up logging.
type LoggingFlags struct {
	Level zapcore.Level
}

// NewLoggingFlags returns a new LoggingFlags.
func NewLoggingFlags(app Flagger, level string) *LoggingFlags {
	var f LoggingFlags

	levels := []zapcore.Level{zap.DebugLevel, zap.InfoLevel, zap.WarnLevel, zap.ErrorLevel}
	hints := make([]string, 0, len(levels))
	for _, l := range levels {
		hints = append(hints, l.String())
	}

	app.Flag("log.level", "Set logging level.").
		HintOptions(hints...).
		Default(level).
		SetValue(&f.Level)

	return &f
}

// NewLogger returns a new logger at the configured level.
// Output is human friendly when stdout is a terminal and JSON otherwise.
func (f *LoggingFlags) NewLogger() *zap.Logger {
	var conf zap.Config
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		conf = zap.NewDevelopmentConfig()
	} else {
		conf = zap.NewProductionConfig()
	}
	conf.Level.SetLevel(f.Level)

	logger, err := conf.Build()
	if err != nil {
		panic(fmt.Sprintf("error building logger: %s", err))
	}
	return logger
}
