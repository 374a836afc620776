package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options controls logger construction
type Options struct {
	Writer  io.Writer // Defaults to stderr so stdout stays clean for exported data
	Verbose bool      // Forces debug level
}

// Init configures the global slog logger. JSON if INTELBENCH_JSON_LOG=1/true/json else text.
func Init(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	level := levelFromEnv()
	if opts.Verbose {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{AddSource: false, Level: level}

	var handler slog.Handler
	if jsonMode() {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	logger := slog.New(handler).With("app", "intelbench")
	slog.SetDefault(logger)
	logger.Debug("logging initialized", "json", jsonMode(), "level", level.String())
	return logger
}

// Discard returns a logger that drops everything, for tests and library callers
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func jsonMode() bool {
	mode := strings.ToLower(os.Getenv("INTELBENCH_JSON_LOG"))
	return mode == "1" || mode == "true" || mode == "json"
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("INTELBENCH_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
