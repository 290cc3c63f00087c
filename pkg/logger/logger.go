// Package logger owns the process-wide slog logger for the payment gateway
// and carries request-scoped loggers through context. Every component logs
// key-value pairs through slog; this package only decides handler, level and
// the service attribute.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// Init builds the process logger. Production deployments emit JSON; anything
// else gets a text handler for development. LOG_LEVEL overrides the default
// level (info in production, debug otherwise).
func Init(env string) {
	production := env == "production"

	opts := &slog.HandlerOptions{Level: level(production)}
	var handler slog.Handler
	if production {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	defaultLogger = slog.New(handler).With("service", "payment-gateway")
	slog.SetDefault(defaultLogger)
}

func level(production bool) slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if production {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// LoggerWrapper returns the process logger, initializing a development one
// when Init has not run (library embedding, specs).
func LoggerWrapper() *slog.Logger {
	if defaultLogger == nil {
		Init("development")
	}
	return defaultLogger
}
