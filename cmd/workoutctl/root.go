package main

import (
	"log/slog"

	"github.com/dubovds/workout-tracker/internal/errors"
	"github.com/dubovds/workout-tracker/internal/sqlite"
	"github.com/dubovds/workout-tracker/internal/workout"
	"github.com/spf13/cobra"
)

const defaultDatabaseURL = "./workout.sqlite3"

// cli holds what the subcommands share. db and svc are set in PersistentPreRunE, the database itself opens on
// first use.
type cli struct {
	logger   *slog.Logger
	dbURL    string
	saveMode string
	db       *sqlite.Provider
	svc      *workout.Service
}

func newRootCmd(logger *slog.Logger, lookupEnv func(string) (string, bool)) *cobra.Command {
	c := &cli{logger: logger}

	defaultURL := defaultDatabaseURL
	if v, ok := lookupEnv("WORKOUT_SQLITE_URL"); ok && v != "" {
		defaultURL = v
	}
	defaultMode := string(workout.SaveAtomic)
	if v, ok := lookupEnv("WORKOUT_SAVE_MODE"); ok && v != "" {
		defaultMode = v
	}

	root := &cobra.Command{
		Use:   "workoutctl",
		Short: "Inspect templates and weight history, validate and save workouts",
		Long: `workoutctl works directly on the workout tracker SQLite database.

EXAMPLES:

  $ workoutctl templates                          # List workout templates
  $ workoutctl exercises <template-id>            # List the exercises of a template
  $ workoutctl weights "Dumbbell Squat"           # Last working weight, max weight and reps
  $ workoutctl weights --like squat               # Match names containing "squat"
  $ workoutctl validate workout.yaml              # Check a workout file
  $ workoutctl save workout.yaml                  # Store a workout file
  $ workoutctl backup backup.sqlite3              # Copy the database

The database defaults to $WORKOUT_SQLITE_URL or ./workout.sqlite3.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			mode, err := workout.ParseSaveMode(c.saveMode)
			if err != nil {
				return errors.Wrap(err, "parse save mode")
			}
			c.db = sqlite.NewProvider(c.dbURL, c.logger)
			c.svc = workout.NewService(workout.NewSQLiteRepository(c.db, c.logger, mode), c.logger)
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if c.db == nil {
				return nil
			}
			if err := c.db.Close(); err != nil {
				return errors.Wrap(err, "close database")
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.dbURL, "db", defaultURL, "SQLite database path or :memory:")
	root.PersistentFlags().StringVar(&c.saveMode, "save-mode", defaultMode, "atomic or sequential")

	root.AddCommand(
		c.templatesCmd(),
		c.exercisesCmd(),
		c.weightsCmd(),
		c.validateCmd(),
		c.saveCmd(),
		c.backupCmd(),
	)
	return root
}

