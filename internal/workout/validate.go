package workout

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

const (
	MaxExercises          = 100
	MaxSetsPerExercise    = 50
	MaxReps               = 1000
	MaxWeightKg           = 10000
	ExerciseNameMaxLength = 100
)

// Field names the set field a [ValidationError] refers to. Errors that are not about a single field use
// FieldWeight as a placeholder.
type Field string

const (
	FieldWeight Field = "weight"
	FieldReps   Field = "reps"
)

// ValidationError is one violation found by [Validate]. SetIndex is 1-based, 0 when not about a set.
type ValidationError struct {
	ExerciseName string `json:"exerciseName"`
	SetIndex     int    `json:"setIndex"`
	Field        Field  `json:"field"`
	Message      string `json:"message"`
}

// Validate checks exercise count, name length, set count and the numeric bounds of every set. A too long
// exercise list is reported alone, everything else is accumulated. No errors means the workout is valid.
func Validate(exercises []Exercise) []ValidationError {
	if len(exercises) > MaxExercises {
		return []ValidationError{{
			ExerciseName: "Workout",
			SetIndex:     0,
			Field:        FieldWeight,
			Message:      fmt.Sprintf("Too many exercises in workout (max %d)", MaxExercises),
		}}
	}

	var errs []ValidationError
	for _, exercise := range exercises {
		if utf8.RuneCountInString(exercise.Name) > ExerciseNameMaxLength {
			errs = append(errs, ValidationError{
				ExerciseName: exercise.Name,
				Field:        FieldWeight,
				Message:      fmt.Sprintf("Exercise name too long (max %d characters)", ExerciseNameMaxLength),
			})
		}
		if len(exercise.Sets) > MaxSetsPerExercise {
			errs = append(errs, ValidationError{
				ExerciseName: exercise.Name,
				Field:        FieldWeight,
				Message:      fmt.Sprintf("Too many sets in exercise (max %d)", MaxSetsPerExercise),
			})
		}
		for i, set := range exercise.Sets {
			if !isValidNumber(set.Reps, 1, MaxReps) || set.Reps != math.Trunc(set.Reps) {
				errs = append(errs, ValidationError{
					ExerciseName: exercise.Name,
					SetIndex:     i + 1,
					Field:        FieldReps,
					Message:      fmt.Sprintf("reps must be between 1 and %d", MaxReps),
				})
			}
			if !isValidNumber(set.Weight, 0, MaxWeightKg) {
				errs = append(errs, ValidationError{
					ExerciseName: exercise.Name,
					SetIndex:     i + 1,
					Field:        FieldWeight,
					Message:      fmt.Sprintf("weight must be between 0 and %d", MaxWeightKg),
				})
			}
		}
	}
	return errs
}

func isValidNumber(v, lo, hi float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= lo && v <= hi
}

// FormatValidationErrors renders errs one per line as "<exercise> — Set <n>: <message>".
func FormatValidationErrors(errs []ValidationError) string {
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = fmt.Sprintf("%s — Set %d: %s", e.ExerciseName, e.SetIndex, e.Message)
	}
	return strings.Join(lines, "\n")
}
