// Command workoutctl inspects and fills the workout database from the command line.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dubovds/workout-tracker/internal/errors"
	"github.com/dubovds/workout-tracker/internal/logging"
)

func main() {
	ctx := context.Background()
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelWarn,
		ReplaceAttr: nil,
	})))
	cmd := newRootCmd(logger, os.LookupEnv)
	if err := cmd.ExecuteContext(ctx); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "command failed", errors.SlogError(err))
		os.Exit(1)
	}
}
