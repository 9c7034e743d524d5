package logging

import (
	"log/slog"
	"os"
)

// New returns a JSON slog logger tagged with the service name. Level is
// controlled by LOG_LEVEL (debug|info|warn|error), defaulting to info.
func New(service string) *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(h).With("service", service)
}
