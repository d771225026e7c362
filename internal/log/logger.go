package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	once   sync.Once
	logger *slog.Logger

	// output is where Setup points the handler. Delivery children inherit a
	// /dev/null stdout, and the broker's stdout may be a client pipe, so logs
	// go to stderr.
	output io.Writer = os.Stderr
)

// Setup initializes the global logger.
// logic: default to INFO. If level is invalid, fallback to INFO.
// format "text" selects the text handler; anything else is JSON.
func Setup(level, format string) {
	once.Do(func() {
		opts := &slog.HandlerOptions{
			Level: ParseLevel(level),
		}
		var handler slog.Handler
		if strings.EqualFold(format, "text") {
			handler = slog.NewTextHandler(output, opts)
		} else {
			handler = slog.NewJSONHandler(output, opts)
		}
		logger = slog.New(handler)
		slog.SetDefault(logger)
	})
}

// ParseLevel maps a level name to a slog level, defaulting to INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Get returns the configured logger, or a default one if Setup hasn't been called.
func Get() *slog.Logger {
	if logger == nil {
		Setup("INFO", "json")
	}
	return logger
}

// WithComponent returns a logger with the component field set.
func WithComponent(name string) *slog.Logger {
	return Get().With(slog.String("component", name))
}

// WithDelivery returns a logger with the delivery_id field set.
func WithDelivery(id string) *slog.Logger {
	return Get().With(slog.String("delivery_id", id))
}

// Info logs at INFO level.
func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

// Warn logs at WARN level.
func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

// Error logs at ERROR level.
func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}
