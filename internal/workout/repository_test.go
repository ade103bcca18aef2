package workout_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dubovds/workout-tracker/internal/sqlite"
	"github.com/dubovds/workout-tracker/internal/testhelpers"
	"github.com/dubovds/workout-tracker/internal/workout"
	"github.com/google/go-cmp/cmp"
)

func newTestDatabase(t *testing.T) *sqlite.Database {
	t.Helper()
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
	db, err := sqlite.NewDatabase(t.Context(), ":memory:", logger)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newSQLiteService(t *testing.T, mode workout.SaveMode) (*workout.Service, *sqlite.Database) {
	t.Helper()
	db := newTestDatabase(t)
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
	return workout.NewService(workout.NewSQLiteRepository(db, logger, mode), logger), db
}

func countRows(t *testing.T, db *sqlite.Database, table string) int {
	t.Helper()
	var n int
	if err := db.ReadOnly.QueryRowContext(t.Context(), "SELECT count(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}

func TestSQLite_templates(t *testing.T) {
	svc, _ := newSQLiteService(t, workout.SaveAtomic)

	options, err := svc.LoadWorkoutTemplateOptions(t.Context())
	if err != nil {
		t.Fatalf("Failed to load templates: %v", err)
	}
	want := []workout.TemplateOption{
		{ID: templateID, Label: "Dumbbell Full Body"},
		{ID: "0b6a3f52-8a61-4c3e-9d55-3f1f0c7e9a02", Label: "Dumbbell Upper Body"},
	}
	if diff := cmp.Diff(want, options); diff != "" {
		t.Errorf("LoadWorkoutTemplateOptions() mismatch (-want +got):\n%s", diff)
	}

	// Template ids are matched regardless of letter case.
	loaded, err := svc.LoadTemplateExercises(t.Context(), "0B6A3F52-8A61-4C3E-9D55-3F1F0C7E9A01")
	if err != nil {
		t.Fatalf("Failed to load template exercises: %v", err)
	}
	var names []string
	for _, e := range loaded.Exercises {
		names = append(names, e.Name)
	}
	wantNames := []string{
		"Dumbbell Squat",
		"Dumbbell Romanian Deadlift",
		"Bent-Over Dumbbell Row",
		"Dumbbell Bench Press",
		"Dumbbell Lateral Raise",
	}
	if diff := cmp.Diff(wantNames, names); diff != "" {
		t.Errorf("template exercise names mismatch (-want +got):\n%s", diff)
	}
	if got := loaded.TemplateExerciseIDs["exercise-"+templateExerciseID]; got != templateExerciseID {
		t.Errorf("template exercise mapping = %q, want %q", got, templateExerciseID)
	}
}

func TestSQLite_SaveWorkout(t *testing.T) {
	for _, mode := range []workout.SaveMode{workout.SaveAtomic, workout.SaveSequential} {
		t.Run(string(mode), func(t *testing.T) {
			svc, db := newSQLiteService(t, mode)
			exercises := []workout.Exercise{
				{ID: "exercise-" + templateExerciseID, Name: "Dumbbell  Squat", Sets: []workout.Set{
					{Weight: 20, Reps: 10}, {Weight: 22.5, Reps: 8}, {Weight: 22.5, Reps: 8},
				}},
				{ID: "exercise-skipped", Name: "Dumbbell Lateral Raise", Sets: []workout.Set{}},
			}
			id, err := svc.SaveWorkout(t.Context(), templateID, exercises,
				map[string]string{"exercise-" + templateExerciseID: templateExerciseID}, "2024-05-01")
			if err != nil {
				t.Fatalf("Failed to save workout: %v", err)
			}

			var date, storedTemplateID string
			if err = db.ReadOnly.QueryRowContext(t.Context(),
				"SELECT date, template_id FROM workouts WHERE id = ?", id.String()).Scan(&date, &storedTemplateID); err != nil {
				t.Fatalf("Failed to query workout: %v", err)
			}
			if date != "2024-05-01" || storedTemplateID != templateID {
				t.Errorf("stored workout = %s/%s", date, storedTemplateID)
			}
			if got := countRows(t, db, "exercises"); got != 1 {
				t.Errorf("stored %d exercises, want 1 since empty exercises are skipped", got)
			}
			if got := countRows(t, db, "sets"); got != 3 {
				t.Errorf("stored %d sets, want 3", got)
			}
			var name string
			if err = db.ReadOnly.QueryRowContext(t.Context(), "SELECT name FROM exercises").Scan(&name); err != nil {
				t.Fatalf("Failed to query exercise: %v", err)
			}
			if name != "Dumbbell Squat" {
				t.Errorf("stored name = %q, want the normalized name", name)
			}
		})
	}
}

func TestSQLite_CreateWorkout_failure(t *testing.T) {
	brokenWorkout := workout.WorkoutPayload{
		Date: "2024-05-01",
		Exercises: []workout.ExercisePayload{
			{Name: "Dumbbell Squat", Sets: []workout.SetPayload{{Weight: 20, Reps: 10}, {Weight: 20, Reps: 0}}},
		},
	}
	tests := []struct {
		mode          workout.SaveMode
		wantWorkouts  int
		wantExercises int
		wantSets      int
	}{
		{mode: workout.SaveAtomic, wantWorkouts: 0, wantExercises: 0, wantSets: 0},
		// No compensation: the rows written before the failure stay.
		{mode: workout.SaveSequential, wantWorkouts: 1, wantExercises: 1, wantSets: 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			db := newTestDatabase(t)
			repo := workout.NewSQLiteRepository(db, testhelpers.NewLogger(testhelpers.NewWriter(t)), tt.mode)

			_, err := repo.CreateWorkout(t.Context(), brokenWorkout)
			if err == nil {
				t.Fatalf("CreateWorkout() succeeded with an invalid set")
			}
			var se *workout.StorageError
			if !errors.As(workout.ClassifyStorageError(err, "Failed to save workout."), &se) ||
				se.Kind != workout.StorageErrorConstraint {
				t.Errorf("classified %v as %v, want constraint", err, se)
			}
			got := []int{countRows(t, db, "workouts"), countRows(t, db, "exercises"), countRows(t, db, "sets")}
			want := []int{tt.wantWorkouts, tt.wantExercises, tt.wantSets}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("row counts [workouts exercises sets] mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSQLite_CreateWorkout_unknownTemplate(t *testing.T) {
	db := newTestDatabase(t)
	repo := workout.NewSQLiteRepository(db, testhelpers.NewLogger(testhelpers.NewWriter(t)), workout.SaveAtomic)
	unknown := workout.NewUUID()
	_, err := repo.CreateWorkout(t.Context(), workout.WorkoutPayload{
		Date:       "2024-05-01",
		TemplateID: &unknown,
		Exercises:  []workout.ExercisePayload{{Name: "Row", Sets: []workout.SetPayload{{Weight: 10, Reps: 10}}}},
	})
	if got := workout.UserMessage(workout.ClassifyStorageError(err, "Failed to save workout."), "", false); got != "Invalid reference." {
		t.Errorf("UserMessage() = %q, want Invalid reference.", got)
	}
}

func TestSQLite_LastWeights_batchAgreesWithSingle(t *testing.T) {
	svc, _ := newSQLiteService(t, workout.SaveAtomic)
	ctx := t.Context()

	sessions := []struct {
		date      string
		exercises []workout.Exercise
	}{
		{date: "2024-05-01", exercises: []workout.Exercise{
			{Name: "Dumbbell Squat", Sets: []workout.Set{{Weight: 30, Reps: 10}, {Weight: 30, Reps: 10}}},
			{Name: "Dumbbell Bicep Curl", Sets: []workout.Set{{Weight: 10, Reps: 12}}},
		}},
		{date: "2024-05-03", exercises: []workout.Exercise{
			{Name: "dumbbell squat", Sets: []workout.Set{
				{Weight: 20, Reps: 10}, {Weight: 25, Reps: 8}, {Weight: 25, Reps: 7}, {Weight: 20, Reps: 6},
			}},
		}},
	}
	for _, s := range sessions {
		if _, err := svc.SaveWorkout(ctx, "", s.exercises, nil, s.date); err != nil {
			t.Fatalf("Failed to save workout: %v", err)
		}
	}

	names := []string{"Dumbbell Squat", "Dumbbell Bicep Curl", "Dumbbell Chest Fly"}
	batch, err := svc.LastWeightsBatch(ctx, names)
	if err != nil {
		t.Fatalf("Failed to look up weights in batch: %v", err)
	}
	if _, ok := batch["Dumbbell Chest Fly"]; ok {
		t.Errorf("batch has an entry for an exercise without history")
	}
	for _, name := range names {
		single, err := svc.LastWeights(ctx, name, workout.MatchExact)
		if err != nil {
			t.Fatalf("Failed to look up weights of %s: %v", name, err)
		}
		if diff := cmp.Diff(single, batch[name]); diff != "" {
			t.Errorf("%s: batch and single lookups disagree (-single +batch):\n%s", name, diff)
		}
	}

	squat := batch["Dumbbell Squat"]
	if *squat.WorkingWeight != 25 || *squat.MaxWeight != 25 || *squat.LastReps != 6 {
		t.Errorf("squat weights = %v / %v / %v, want 25 / 25 / 6",
			*squat.WorkingWeight, *squat.MaxWeight, *squat.LastReps)
	}
}

func TestSQLite_ExerciseHistory_pattern(t *testing.T) {
	svc, db := newSQLiteService(t, workout.SaveAtomic)
	ctx := t.Context()
	exercises := []workout.Exercise{
		{Name: "Dumbbell Bench Press", Sets: []workout.Set{{Weight: 20, Reps: 10}}},
		{Name: "100% Effort Row", Sets: []workout.Set{{Weight: 15, Reps: 12}}},
	}
	if _, err := svc.SaveWorkout(ctx, "", exercises, nil, "2024-05-01"); err != nil {
		t.Fatalf("Failed to save workout: %v", err)
	}
	repo := workout.NewSQLiteRepository(db, testhelpers.NewLogger(testhelpers.NewWriter(t)), workout.SaveAtomic)

	tests := []struct {
		pattern string
		want    int
	}{
		{pattern: "bench", want: 1},
		{pattern: "DUMBBELL", want: 1},
		{pattern: "%", want: 1},
		{pattern: "_", want: 0},
		{pattern: "squat", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			history, err := repo.ExerciseHistory(ctx, tt.pattern, workout.MatchPattern)
			if err != nil {
				t.Fatalf("Failed to query history: %v", err)
			}
			if len(history) != tt.want {
				t.Errorf("ExerciseHistory(%q) returned %d sets, want %d", tt.pattern, len(history), tt.want)
			}
		})
	}
}

func TestSQLite_LastWeightsBatch_saveUnderAnotherSpelling(t *testing.T) {
	svc, _ := newSQLiteService(t, workout.SaveAtomic)
	ctx := t.Context()
	save := func(weight float64) {
		t.Helper()
		exercises := []workout.Exercise{{Name: "bench press", Sets: []workout.Set{{Weight: weight, Reps: 5}}}}
		if _, err := svc.SaveWorkout(ctx, "", exercises, nil, "2024-05-01"); err != nil {
			t.Fatalf("Failed to save workout: %v", err)
		}
	}
	workingWeight := func() float64 {
		t.Helper()
		batch, err := svc.LastWeightsBatch(ctx, []string{"Bench Press"})
		if err != nil {
			t.Fatalf("Failed to look up weights: %v", err)
		}
		w, ok := batch["Bench Press"]
		if !ok || w.WorkingWeight == nil {
			t.Fatalf("LastWeightsBatch() = %+v, want an entry under the requested spelling", batch)
		}
		return *w.WorkingWeight
	}

	save(60)
	if got := workingWeight(); got != 60 {
		t.Fatalf("working weight = %v, want 60", got)
	}
	save(80)
	if got := workingWeight(); got != 80 {
		t.Errorf("working weight = %v after saving under another spelling, want 80", got)
	}
}

func TestSQLite_LastWeightsBatch_seesWritesOfOtherServices(t *testing.T) {
	db := newTestDatabase(t)
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
	ctx := t.Context()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	reader := workout.NewService(workout.NewSQLiteRepository(db, logger, workout.SaveAtomic), logger,
		workout.WithClock(func() time.Time { return now }), workout.WithWeightsCacheTTL(time.Minute))
	writer := workout.NewService(workout.NewSQLiteRepository(db, logger, workout.SaveAtomic), logger)
	save := func(weight float64) {
		t.Helper()
		exercises := []workout.Exercise{{Name: "Row", Sets: []workout.Set{{Weight: weight, Reps: 10}}}}
		if _, err := writer.SaveWorkout(ctx, "", exercises, nil, "2024-05-01"); err != nil {
			t.Fatalf("Failed to save workout: %v", err)
		}
	}
	maxWeight := func() float64 {
		t.Helper()
		batch, err := reader.LastWeightsBatch(ctx, []string{"Row"})
		if err != nil {
			t.Fatalf("Failed to look up weights: %v", err)
		}
		if batch["Row"].MaxWeight == nil {
			t.Fatalf("LastWeightsBatch() = %+v, want history for Row", batch)
		}
		return *batch["Row"].MaxWeight
	}

	save(40)
	if got := maxWeight(); got != 40 {
		t.Fatalf("max weight = %v, want 40", got)
	}
	save(45)
	if got := maxWeight(); got != 40 {
		t.Errorf("max weight = %v, want the cached 40 within the TTL", got)
	}
	now = now.Add(time.Minute)
	if got := maxWeight(); got != 45 {
		t.Errorf("max weight = %v after the TTL, want 45", got)
	}
}
