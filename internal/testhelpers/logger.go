package testhelpers

import (
	"io"
	"log/slog"

	"github.com/dubovds/workout-tracker/internal/logging"
)

// NewLogger creates a debug level text logger writing to logSink, usually a [Writer] from [NewWriter].
func NewLogger(logSink io.Writer) *slog.Logger {
	return slog.New(logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
}
