package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dubovds/workout-tracker/internal/errors"
	"github.com/dubovds/workout-tracker/internal/workout"
	"github.com/spf13/cobra"
)

var errInvalidWorkout = errors.NewSentinel("workout is invalid")

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0) //nolint:mnd // column layout
}

func (c *cli) templatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List workout templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			options, err := c.svc.LoadWorkoutTemplateOptions(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(options) == 0 {
				_, _ = fmt.Fprintln(out, "No workout templates found.")
				return nil
			}
			tw := newTabWriter(out)
			for _, o := range options {
				_, _ = fmt.Fprintf(tw, "%s\t%s\n", o.ID, o.Label)
			}
			return tw.Flush()
		},
	}
}

func (c *cli) exercisesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exercises <template-id>",
		Short: "List the exercises of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := c.svc.LoadTemplateExercises(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := newTabWriter(cmd.OutOrStdout())
			for i, e := range loaded.Exercises {
				_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, e.Name, loaded.TemplateExerciseIDs[e.ID])
			}
			return tw.Flush()
		},
	}
}

func (c *cli) weightsCmd() *cobra.Command {
	var single, like bool
	cmd := &cobra.Command{
		Use:   "weights <name>...",
		Short: "Show the last working weight, max weight and reps of exercises",
		Long: `Show the last working weight, max weight and reps of exercises.

All names are looked up with one query by default. --single looks up every name on its own, and --like
matches names containing the given text. --like implies --single.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tw := newTabWriter(cmd.OutOrStdout())
			_, _ = fmt.Fprintln(tw, "EXERCISE\tWORKING\tMAX\tREPS")
			if single || like {
				match := workout.MatchExact
				if like {
					match = workout.MatchPattern
				}
				for _, name := range args {
					w, err := c.svc.LastWeights(ctx, name, match)
					if err != nil {
						return err
					}
					printWeights(tw, workout.NormalizeExerciseName(name), w)
				}
				return tw.Flush()
			}
			byName, err := c.svc.LastWeightsBatch(ctx, args)
			if err != nil {
				return err
			}
			for _, name := range args {
				normalized := workout.NormalizeExerciseName(name)
				if normalized == "" {
					continue
				}
				printWeights(tw, normalized, byName[normalized])
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&single, "single", false, "look up every name on its own")
	cmd.Flags().BoolVar(&like, "like", false, "match names containing the given text")
	return cmd
}

func printWeights(w io.Writer, name string, weights workout.ExerciseWeights) {
	_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name,
		formatOptional(weights.WorkingWeight), formatOptional(weights.MaxWeight), formatOptional(weights.LastReps))
}

func formatOptional(v *float64) string {
	if v == nil {
		return "--"
	}
	return fmt.Sprintf("%g", *v)
}

func (c *cli) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file.yaml>",
		Short: "Validate a workout file without saving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := readWorkoutFile(args[0])
			if err != nil {
				return err
			}
			exercises, _ := f.draft()
			out := cmd.OutOrStdout()
			if errs := c.svc.ValidateWorkout(exercises); len(errs) > 0 {
				_, _ = fmt.Fprintln(out, workout.FormatValidationErrors(errs))
				return errInvalidWorkout
			}
			_, _ = fmt.Fprintln(out, "Workout is valid.")
			return nil
		},
	}
}

func (c *cli) saveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <file.yaml>",
		Short: "Validate and store a workout file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := readWorkoutFile(args[0])
			if err != nil {
				return err
			}
			exercises, templateExerciseIDs := f.draft()
			id, err := c.svc.SaveWorkout(cmd.Context(), f.TemplateID, exercises, templateExerciseIDs, f.Date)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", workout.SavedMessage(id), id)
			return nil
		},
	}
}

func (c *cli) backupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <path>",
		Short: "Write a consistent copy of the database to a new file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.db.Database(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "open database")
			}
			if err = db.Backup(cmd.Context(), args[0]); err != nil {
				return errors.Wrap(err, "backup database")
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Backed up to %s\n", args[0])
			return nil
		},
	}
}
