package workout

import (
	"context"
	"fmt"
	"log/slog"
)

type sqliteWorkoutRepository struct {
	baseRepository
	mode SaveMode
}

func (r *sqliteWorkoutRepository) CreateWorkout(ctx context.Context, workout WorkoutPayload) (string, error) {
	db, err := r.db(ctx)
	if err != nil {
		return "", err
	}
	workoutID := NewUUID().String()

	if r.mode == SaveSequential {
		inserted, writeErr := writeWorkout(ctx, db.ReadWrite, workoutID, workout)
		if writeErr != nil {
			if inserted {
				r.logger.LogAttrs(ctx, slog.LevelWarn, "workout partially saved",
					slog.String("workout_id", workoutID), slog.Any("error", writeErr))
			}
			return "", fmt.Errorf("write workout sequentially: %w", writeErr)
		}
		return workoutID, nil
	}

	tx, err := db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer db.Rollback(ctx, tx)()
	if _, err = writeWorkout(ctx, tx, workoutID, workout); err != nil {
		return "", fmt.Errorf("write workout: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}
	return workoutID, nil
}

// writeWorkout inserts the workout row followed by each exercise that has sets and its sets. inserted reports
// whether the workout row was written before a failure.
func writeWorkout(ctx context.Context, db execer, workoutID string, workout WorkoutPayload) (inserted bool, _ error) {
	var templateID *string
	if workout.TemplateID != nil {
		templateID = (*string)(workout.TemplateID)
	}
	if _, err := db.ExecContext(ctx, `
		INSERT INTO workouts (id, date, template_id)
		VALUES (?, ?, ?)`, workoutID, workout.Date.String(), templateID); err != nil {
		return false, fmt.Errorf("insert workout: %w", err)
	}

	position := 0
	for _, exercise := range workout.Exercises {
		if len(exercise.Sets) == 0 {
			continue
		}
		position++
		exerciseID := NewUUID().String()
		var templateExerciseID *string
		if exercise.TemplateExerciseID != nil {
			templateExerciseID = (*string)(exercise.TemplateExerciseID)
		}
		if _, err := db.ExecContext(ctx, `
			INSERT INTO exercises (id, workout_id, template_exercise_id, name, position)
			VALUES (?, ?, ?, ?, ?)`, exerciseID, workoutID, templateExerciseID, exercise.Name, position); err != nil {
			return true, fmt.Errorf("insert exercise %s: %w", exercise.Name, err)
		}
		for i, set := range exercise.Sets {
			if _, err := db.ExecContext(ctx, `
				INSERT INTO sets (id, exercise_id, position, weight, reps)
				VALUES (?, ?, ?, ?, ?)`, NewUUID().String(), exerciseID, i+1, set.Weight, set.Reps); err != nil {
				return true, fmt.Errorf("insert set %d of %s: %w", i+1, exercise.Name, err)
			}
		}
	}
	return true, nil
}
