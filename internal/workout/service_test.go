package workout_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dubovds/workout-tracker/internal/testhelpers"
	"github.com/dubovds/workout-tracker/internal/workout"
	"github.com/google/go-cmp/cmp"
)

const (
	templateID         = "0b6a3f52-8a61-4c3e-9d55-3f1f0c7e9a01"
	templateExerciseID = "6f2d1c3e-4b5a-4d8e-8f70-1a2b3c4d5e01"
)

// fakeRepository records calls and returns canned results.
type fakeRepository struct {
	mu sync.Mutex

	templates         []workout.Template
	templateExercises []workout.TemplateExercise
	history           []workout.HistoricalSet
	weightsRows       []workout.WeightsRow
	createdID         string
	err               error

	createCalls  []workout.WorkoutPayload
	batchCalls   [][]string
	historyCalls []string
}

func (f *fakeRepository) ListTemplates(context.Context) ([]workout.Template, error) {
	return f.templates, f.err
}

func (f *fakeRepository) ListTemplateExercises(context.Context, workout.UUID) ([]workout.TemplateExercise, error) {
	return f.templateExercises, f.err
}

func (f *fakeRepository) ExerciseHistory(_ context.Context, name string, _ workout.MatchMode) ([]workout.HistoricalSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls = append(f.historyCalls, name)
	return f.history, f.err
}

func (f *fakeRepository) LastWeightsBatch(_ context.Context, names []string) ([]workout.WeightsRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls = append(f.batchCalls, slices.Clone(names))
	return f.weightsRows, f.err
}

func (f *fakeRepository) CreateWorkout(_ context.Context, payload workout.WorkoutPayload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, payload)
	if f.err != nil {
		return "", f.err
	}
	if f.createdID != "" {
		return f.createdID, nil
	}
	return workout.NewUUID().String(), nil
}

func newTestService(t *testing.T, repo workout.Repository, opts ...workout.Option) *workout.Service {
	t.Helper()
	return workout.NewService(repo, testhelpers.NewLogger(testhelpers.NewWriter(t)), opts...)
}

func fixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}

func validExercises() []workout.Exercise {
	return []workout.Exercise{
		{ID: "exercise-" + templateExerciseID, Name: "  Goblet   Squat ", Sets: []workout.Set{{Weight: 24, Reps: 10}, {Weight: 24, Reps: 8}}},
		{ID: "exercise-custom", Name: "Plank", Sets: nil},
	}
}

func TestService_LoadWorkoutTemplateOptions(t *testing.T) {
	repo := &fakeRepository{templates: []workout.Template{
		{ID: templateID, Name: "Dumbbell Full Body"},
		{ID: "0b6a3f52-8a61-4c3e-9d55-3f1f0c7e9a02", Name: "Dumbbell Upper Body"},
	}}
	got, err := newTestService(t, repo).LoadWorkoutTemplateOptions(t.Context())
	if err != nil {
		t.Fatalf("Failed to load template options: %v", err)
	}
	want := []workout.TemplateOption{
		{ID: templateID, Label: "Dumbbell Full Body"},
		{ID: "0b6a3f52-8a61-4c3e-9d55-3f1f0c7e9a02", Label: "Dumbbell Upper Body"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadWorkoutTemplateOptions() mismatch (-want +got):\n%s", diff)
	}
}

func TestService_LoadWorkoutTemplateOptions_storageError(t *testing.T) {
	repo := &fakeRepository{err: errors.New("disk I/O error")}
	_, err := newTestService(t, repo).LoadWorkoutTemplateOptions(t.Context())
	if got := workout.UserMessage(err, "", false); got != "Failed to load workout templates." {
		t.Errorf("UserMessage() = %q, want the template default", got)
	}
}

func TestService_LoadTemplateExercises(t *testing.T) {
	repo := &fakeRepository{templateExercises: []workout.TemplateExercise{
		{ID: templateExerciseID, TemplateID: templateID, Name: "Squat", SortOrder: 1},
		{ID: "6f2d1c3e-4b5a-4d8e-8f70-1a2b3c4d5e02", TemplateID: templateID, Name: "RDL", SortOrder: 2},
	}}
	svc := newTestService(t, repo)

	got, err := svc.LoadTemplateExercises(t.Context(), templateID)
	if err != nil {
		t.Fatalf("Failed to load template exercises: %v", err)
	}
	want := workout.TemplateExercises{
		TemplateID: templateID,
		Exercises: []workout.Exercise{
			{ID: "exercise-" + templateExerciseID, Name: "Squat", Sets: []workout.Set{}},
			{ID: "exercise-6f2d1c3e-4b5a-4d8e-8f70-1a2b3c4d5e02", Name: "RDL", Sets: []workout.Set{}},
		},
		TemplateExerciseIDs: map[string]string{
			"exercise-" + templateExerciseID:               templateExerciseID,
			"exercise-6f2d1c3e-4b5a-4d8e-8f70-1a2b3c4d5e02": "6f2d1c3e-4b5a-4d8e-8f70-1a2b3c4d5e02",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadTemplateExercises() mismatch (-want +got):\n%s", diff)
	}

	_, err = svc.LoadTemplateExercises(t.Context(), "nope")
	if !errors.Is(err, workout.ErrInvalidInput) || err.Error() != "Invalid template ID format." {
		t.Errorf("LoadTemplateExercises(nope) error = %v, want invalid template ID", err)
	}
}

func TestService_Today(t *testing.T) {
	now := time.Date(2024, 2, 29, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*60*60))
	svc := newTestService(t, &fakeRepository{}, workout.WithClock(fixedClock(now)))
	if got := svc.Today(); got != "2024-03-01" {
		t.Errorf("Today() = %s, want the UTC date of the service clock 2024-03-01", got)
	}
}

func TestService_SaveWorkout(t *testing.T) {
	repo := &fakeRepository{createdID: "0C3D9B6E-1111-4D8E-8F70-1A2B3C4D5E99"}
	now := time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC)
	svc := newTestService(t, repo, workout.WithClock(fixedClock(now)))

	id, err := svc.SaveWorkout(t.Context(), templateID, validExercises(),
		map[string]string{"exercise-" + templateExerciseID: templateExerciseID}, "")
	if err != nil {
		t.Fatalf("Failed to save workout: %v", err)
	}
	if id != "0c3d9b6e-1111-4d8e-8f70-1a2b3c4d5e99" {
		t.Errorf("SaveWorkout() id = %q", id)
	}
	if len(repo.createCalls) != 1 {
		t.Fatalf("CreateWorkout called %d times, want 1", len(repo.createCalls))
	}
	tid, teid := workout.UUID(templateID), workout.UUID(templateExerciseID)
	want := workout.WorkoutPayload{
		Date:       "2024-05-01",
		TemplateID: &tid,
		Exercises: []workout.ExercisePayload{
			{Name: "Goblet Squat", TemplateExerciseID: &teid, Sets: []workout.SetPayload{{Weight: 24, Reps: 10}, {Weight: 24, Reps: 8}}},
			{Name: "Plank", Sets: []workout.SetPayload{}},
		},
	}
	if diff := cmp.Diff(want, repo.createCalls[0]); diff != "" {
		t.Errorf("CreateWorkout() payload mismatch (-want +got):\n%s", diff)
	}
}

func TestService_SaveWorkout_rejected(t *testing.T) {
	tooHeavy := []workout.Exercise{{Name: "Squat", Sets: []workout.Set{{Weight: 20000, Reps: 5}}}}
	tests := []struct {
		name                string
		templateID          string
		exercises           []workout.Exercise
		templateExerciseIDs map[string]string
		date                string
		wantMessage         string
	}{
		{
			name:        "no exercises",
			exercises:   nil,
			wantMessage: "Cannot save workout: at least one exercise is required.",
		},
		{
			name:        "no sets",
			exercises:   []workout.Exercise{{Name: "Squat"}, {Name: "Row", Sets: []workout.Set{}}},
			wantMessage: "Cannot save workout: at least one set is required.",
		},
		{
			name:        "bad template id",
			templateID:  "template-1",
			exercises:   validExercises(),
			wantMessage: "Invalid template ID format.",
		},
		{
			name:                "bad template exercise id",
			exercises:           validExercises(),
			templateExerciseIDs: map[string]string{"exercise-1": "1"},
			wantMessage:         "Invalid template exercise ID format.",
		},
		{
			name:        "validation errors",
			exercises:   tooHeavy,
			wantMessage: "Cannot save workout:\nSquat — Set 1: weight must be between 0 and 10000",
		},
		{
			name:        "bad date",
			exercises:   validExercises(),
			date:        "2024-02-30",
			wantMessage: "Invalid date string: 2024-02-30",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepository{}
			_, err := newTestService(t, repo).SaveWorkout(t.Context(), tt.templateID, tt.exercises,
				tt.templateExerciseIDs, tt.date)
			var inputErr *workout.InputError
			if !errors.As(err, &inputErr) {
				t.Fatalf("SaveWorkout() error = %v, want *workout.InputError", err)
			}
			if inputErr.Message != tt.wantMessage {
				t.Errorf("SaveWorkout() message = %q, want %q", inputErr.Message, tt.wantMessage)
			}
			if len(repo.createCalls) != 0 {
				t.Errorf("CreateWorkout called %d times for rejected input", len(repo.createCalls))
			}
		})
	}
}

func TestService_SaveWorkout_storageError(t *testing.T) {
	repo := &fakeRepository{err: errors.New("FOREIGN KEY constraint failed")}
	_, err := newTestService(t, repo).SaveWorkout(t.Context(), "", validExercises(), nil, "2024-05-01")
	var se *workout.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("SaveWorkout() error = %v, want *workout.StorageError", err)
	}
	if se.Kind != workout.StorageErrorForeignKey {
		t.Errorf("Kind = %v, want foreign key", se.Kind)
	}
	if got := workout.UserMessage(err, "", false); got != "Invalid reference." {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestService_LastWeightsBatch(t *testing.T) {
	repo := &fakeRepository{weightsRows: []workout.WeightsRow{
		{ExerciseName: "Squat", WorkingWeight: 60.0, MaxWeight: 70.0, LastReps: int64(5)},
	}}
	svc := newTestService(t, repo)

	got, err := svc.LastWeightsBatch(t.Context(), []string{" Squat", "Squat ", "", "Curl"})
	if err != nil {
		t.Fatalf("Failed to look up weights: %v", err)
	}
	if diff := cmp.Diff([][]string{{"Squat", "Curl"}}, repo.batchCalls); diff != "" {
		t.Errorf("LastWeightsBatch() storage calls mismatch (-want +got):\n%s", diff)
	}
	if len(got) != 1 || *got["Squat"].WorkingWeight != 60 || *got["Squat"].LastReps != 5 {
		t.Errorf("LastWeightsBatch() = %+v", got)
	}

	// Both names are cached now, including the one without history.
	if _, err = svc.LastWeightsBatch(t.Context(), []string{"Curl", "Squat"}); err != nil {
		t.Fatalf("Failed to look up weights: %v", err)
	}
	if len(repo.batchCalls) != 1 {
		t.Errorf("cached lookup reached storage, calls = %v", repo.batchCalls)
	}
}

func TestService_LastWeightsBatch_empty(t *testing.T) {
	repo := &fakeRepository{}
	got, err := newTestService(t, repo).LastWeightsBatch(t.Context(), []string{"", "  "})
	if err != nil {
		t.Fatalf("LastWeightsBatch() unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("LastWeightsBatch() = %v, want empty", got)
	}
	if len(repo.batchCalls) != 0 {
		t.Errorf("storage called for blank names: %v", repo.batchCalls)
	}
}

func TestService_LastWeightsBatch_malformedRow(t *testing.T) {
	repo := &fakeRepository{weightsRows: []workout.WeightsRow{{ExerciseName: "Squat", WorkingWeight: struct{}{}}}}
	_, err := newTestService(t, repo).LastWeightsBatch(t.Context(), []string{"Squat"})
	if got := workout.UserMessage(err, "", false); got != "Unexpected row format while loading exercise weights." {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestService_LastWeightsBatch_invalidatedBySave(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo)
	if _, err := svc.LastWeightsBatch(t.Context(), []string{"Goblet Squat"}); err != nil {
		t.Fatalf("Failed to look up weights: %v", err)
	}
	if _, err := svc.SaveWorkout(t.Context(), "", validExercises(), nil, "2024-05-01"); err != nil {
		t.Fatalf("Failed to save workout: %v", err)
	}
	if _, err := svc.LastWeightsBatch(t.Context(), []string{"Goblet Squat"}); err != nil {
		t.Fatalf("Failed to look up weights: %v", err)
	}
	if len(repo.batchCalls) != 2 {
		t.Errorf("storage calls = %d, want 2 after the save invalidated the cache", len(repo.batchCalls))
	}
}

func TestService_LastWeights(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	repo := &fakeRepository{history: []workout.HistoricalSet{
		{ExerciseID: "e1", ExerciseName: "Curl", ExerciseCreatedAt: at, Position: 1, Weight: 12, Reps: 10, CreatedAt: at},
		{ExerciseID: "e1", ExerciseName: "Curl", ExerciseCreatedAt: at, Position: 2, Weight: 14, Reps: 8, CreatedAt: at},
	}}
	svc := newTestService(t, repo)

	got, err := svc.LastWeights(t.Context(), "  curl ", workout.MatchExact)
	if err != nil {
		t.Fatalf("Failed to look up weights: %v", err)
	}
	if *got.WorkingWeight != 14 || *got.MaxWeight != 14 || *got.LastReps != 8 {
		t.Errorf("LastWeights() = %v/%v/%v, want 14/14/8", *got.WorkingWeight, *got.MaxWeight, *got.LastReps)
	}
	if diff := cmp.Diff([]string{"curl"}, repo.historyCalls); diff != "" {
		t.Errorf("ExerciseHistory() calls mismatch (-want +got):\n%s", diff)
	}

	empty, err := newTestService(t, &fakeRepository{}).LastWeights(t.Context(), "Row", workout.MatchExact)
	if err != nil {
		t.Fatalf("Failed to look up weights: %v", err)
	}
	if diff := cmp.Diff(workout.ExerciseWeights{}, empty); diff != "" {
		t.Errorf("LastWeights() without history mismatch (-want +got):\n%s", diff)
	}
}

func TestService_ValidateWorkout_recordsFailures(t *testing.T) {
	rec := &countingRecorder{}
	svc := newTestService(t, &fakeRepository{}, workout.WithRecorder(rec))
	errs := svc.ValidateWorkout([]workout.Exercise{{Name: "Row", Sets: []workout.Set{{Weight: -1, Reps: 0}}}})
	if len(errs) != 2 || rec.violations != 2 {
		t.Errorf("ValidateWorkout() = %v, recorded %d violations", errs, rec.violations)
	}
	if !strings.Contains(workout.FormatValidationErrors(errs), "Row — Set 1") {
		t.Errorf("FormatValidationErrors() = %q", workout.FormatValidationErrors(errs))
	}
}

type countingRecorder struct {
	mu         sync.Mutex
	outcomes   []string
	violations int
}

func (r *countingRecorder) WorkoutSaved(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *countingRecorder) ValidationFailed(violations int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.violations += violations
}

func (r *countingRecorder) WeightsLookedUp(string, int) {}
func (r *countingRecorder) WeightsCacheLookup(int, int) {}
