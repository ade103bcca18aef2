package workout

import "time"

// Set is one weight × reps entry of an exercise being logged. ID and Done only live in the draft.
type Set struct {
	ID     string  `json:"id"`
	Weight float64 `json:"weight"`
	Reps   float64 `json:"reps"`
	Done   bool    `json:"done,omitempty"`
}

// Exercise is an exercise being logged. ID is scoped to the draft and never stored.
type Exercise struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Sets []Set  `json:"sets"`
}

// Template is a named starting point for a workout.
type Template struct {
	ID        UUID
	Name      string
	CreatedAt time.Time
}

// TemplateExercise is an exercise of a template in display order.
type TemplateExercise struct {
	ID         UUID
	TemplateID UUID
	Name       string
	SortOrder  int
	CreatedAt  time.Time
}

// TemplateOption is a template formatted for a select input.
type TemplateOption struct {
	ID    UUID   `json:"id"`
	Label string `json:"label"`
}

// TemplateExercises is a template expanded into draft exercises with empty sets. TemplateExerciseIDs maps the
// draft exercise ID to the template exercise it came from.
type TemplateExercises struct {
	TemplateID          string            `json:"templateId"`
	Exercises           []Exercise        `json:"exercises"`
	TemplateExerciseIDs map[string]string `json:"templateExerciseMap"`
}

// ExerciseWeights summarises the most recent session of an exercise. Nil fields mean no history.
type ExerciseWeights struct {
	WorkingWeight *float64 `json:"workingWeight"`
	MaxWeight     *float64 `json:"maxWeight"`
	LastReps      *float64 `json:"lastReps"`
}

// SetPayload is a set as it is written to storage.
type SetPayload struct {
	Weight float64
	Reps   int
}

// ExercisePayload is an exercise as it is written to storage. Name is normalized.
type ExercisePayload struct {
	Name               string
	TemplateExerciseID *UUID
	Sets               []SetPayload
}

// WorkoutPayload is the validated input of [Repository.CreateWorkout].
type WorkoutPayload struct {
	Date       DateString
	TemplateID *UUID
	Exercises  []ExercisePayload
}

// HistoricalSet is a stored set joined with its exercise. ExerciseSeq orders exercises created within the same
// timestamp.
type HistoricalSet struct {
	ExerciseID        string
	ExerciseName      string
	ExerciseCreatedAt time.Time
	ExerciseSeq       int64
	Position          int
	Weight            float64
	Reps              int
	CreatedAt         time.Time
}

// WeightsRow is an untyped row of [Repository.LastWeightsBatch]. The values are whatever the storage driver
// produced and get shape-checked before use.
type WeightsRow struct {
	ExerciseName  any
	WorkingWeight any
	MaxWeight     any
	LastReps      any
}

// MatchMode selects how exercise names are compared in history lookups.
type MatchMode int

const (
	// MatchExact compares names case-insensitively.
	MatchExact MatchMode = iota
	// MatchPattern finds names containing the given text, case-insensitively.
	MatchPattern
)
