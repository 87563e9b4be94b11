package logging

import (
	"log/slog"
	"os"
)

// Setup installs a JSON logger on stdout as the slog default. Debug records
// are kept in development.
func Setup(dev bool) *slog.Logger {
	level := slog.LevelInfo
	if dev {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// Attach fans the current default handler out to extra handlers and installs
// the result as the default.
func Attach(base slog.Handler, extra ...slog.Handler) *slog.Logger {
	logger := slog.New(NewMultiHandler(append([]slog.Handler{base}, extra...)...))
	slog.SetDefault(logger)
	return logger
}
