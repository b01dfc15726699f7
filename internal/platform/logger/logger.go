package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON structured logger writing to stdout. Services receive
// it through their WithLogger option so log shape stays uniform.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
