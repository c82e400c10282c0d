package main

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"worktimer/internal/config"
)

func main() {
	Execute()
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Set output format
	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, NoColor: out != os.Stdout}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(out).With().Timestamp().Logger()
}

// openLogFile opens the configured log file for appending. The returned
// closer is never nil.
func openLogFile(cfg config.LoggingConfig) (io.Writer, func()) {
	if cfg.File == "" {
		return os.Stderr, func() {}
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return io.Discard, func() {}
	}
	return f, func() { f.Close() }
}
