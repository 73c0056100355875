// Package util holds small ambient helpers shared across commands and
// packages, starting with slog configuration.
package util

import (
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-colorable"
)

// InitSlog configures the default slog logger from the LOG_LEVEL
// environment variable (debug, info, warn, error; default warn). Output
// goes through a colorable stderr wrapper so ANSI-aware handlers behave
// correctly on Windows consoles as well as real terminals.
func InitSlog() {
	level := slog.LevelWarn
	if raw, ok := os.LookupEnv("LOG_LEVEL"); ok {
		switch strings.ToLower(raw) {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	handler := slog.NewTextHandler(colorable.NewColorableStderr(), opts)
	slog.SetDefault(slog.New(handler))
}
