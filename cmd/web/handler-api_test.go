package main

import (
	"net/http"
	"strings"
	"testing"

	"github.com/dubovds/workout-tracker/internal/ptr"
	"github.com/dubovds/workout-tracker/internal/workout"
	"github.com/google/go-cmp/cmp"
)

const (
	fullBodyID           = "0b6a3f52-8a61-4c3e-9d55-3f1f0c7e9a01"
	squatTemplateExercID = "6f2d1c3e-4b5a-4d8e-8f70-1a2b3c4d5e01"
)

func Test_application_api(t *testing.T) {
	ctx := t.Context()
	server := startTestServer(t, testLookupEnv)
	client := server.Client()

	t.Run("templates", func(t *testing.T) {
		var options []workout.TemplateOption
		status, err := client.GetJSON(ctx, "/api/templates", &options)
		if err != nil {
			t.Fatalf("Failed to get templates: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", status)
		}
		want := []workout.TemplateOption{
			{ID: fullBodyID, Label: "Dumbbell Full Body"},
			{ID: upperBodyID, Label: "Dumbbell Upper Body"},
		}
		if diff := cmp.Diff(want, options); diff != "" {
			t.Errorf("templates mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("template exercises", func(t *testing.T) {
		var loaded workout.TemplateExercises
		status, err := client.GetJSON(ctx, "/api/templates/"+strings.ToUpper(fullBodyID)+"/exercises", &loaded)
		if err != nil {
			t.Fatalf("Failed to get template exercises: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", status)
		}
		if len(loaded.Exercises) != 5 {
			t.Fatalf("Expected 5 exercises, got %d", len(loaded.Exercises))
		}
		if loaded.TemplateID != fullBodyID {
			t.Errorf("Expected canonical template id %s, got %s", fullBodyID, loaded.TemplateID)
		}
		if got := loaded.TemplateExerciseIDs[squatExerciseID]; got != squatTemplateExercID {
			t.Errorf("Expected squat to map to %s, got %s", squatTemplateExercID, got)
		}
	})

	t.Run("invalid template id", func(t *testing.T) {
		var resp errorResponse
		status, err := client.GetJSON(ctx, "/api/templates/not-a-uuid/exercises", &resp)
		if err != nil {
			t.Fatalf("Failed to get template exercises: %v", err)
		}
		if status != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", status)
		}
		if resp.Error != "Invalid template ID format." {
			t.Errorf("Expected invalid template message, got %q", resp.Error)
		}
	})

	t.Run("validate", func(t *testing.T) {
		body := workoutRequest{
			Exercises: []workout.Exercise{{
				ID:   "e1",
				Name: "Goblet Squat",
				Sets: []workout.Set{{ID: "s1", Weight: -1, Reps: 8}},
			}},
		}
		var resp validateResponse
		status, err := client.PostJSON(ctx, "/api/workouts/validate", body, &resp)
		if err != nil {
			t.Fatalf("Failed to validate: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", status)
		}
		if resp.Valid || len(resp.Errors) != 1 {
			t.Fatalf("Expected one validation error, got %+v", resp)
		}
		if resp.Errors[0].Field != workout.FieldWeight || resp.Errors[0].SetIndex != 1 {
			t.Errorf("Expected weight error on set 1, got %+v", resp.Errors[0])
		}
	})

	t.Run("save and look up weights", func(t *testing.T) {
		body := workoutRequest{
			TemplateID: fullBodyID,
			Exercises: []workout.Exercise{{
				ID:   squatExerciseID,
				Name: "  dumbbell   squat ",
				Sets: []workout.Set{
					{ID: "s1", Weight: 20, Reps: 10},
					{ID: "s2", Weight: 25, Reps: 8},
					{ID: "s3", Weight: 25, Reps: 6},
				},
			}},
			TemplateExerciseIDs: map[string]string{squatExerciseID: squatTemplateExercID},
			Date:                "2025-03-02",
		}
		var saved savedResponse
		status, err := client.PostJSON(ctx, "/api/workouts", body, &saved)
		if err != nil {
			t.Fatalf("Failed to save workout: %v", err)
		}
		if status != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d", status)
		}
		if !strings.HasPrefix(saved.Message, "Workout saved (") {
			t.Errorf("Expected saved message, got %q", saved.Message)
		}

		var batch map[string]workout.ExerciseWeights
		if status, err = client.GetJSON(ctx, "/api/weights?name=Dumbbell+Squat&name=Unknown", &batch); err != nil {
			t.Fatalf("Failed to get weights: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", status)
		}
		want := map[string]workout.ExerciseWeights{
			"Dumbbell Squat": {WorkingWeight: ptr.Ref(25.0), MaxWeight: ptr.Ref(25.0), LastReps: ptr.Ref(6.0)},
		}
		if diff := cmp.Diff(want, batch); diff != "" {
			t.Errorf("batch weights mismatch (-want +got):\n%s", diff)
		}

		var single workout.ExerciseWeights
		if status, err = client.GetJSON(ctx, "/api/weights/squat?match=like", &single); err != nil {
			t.Fatalf("Failed to get weights: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", status)
		}
		if diff := cmp.Diff(want["Dumbbell Squat"], single); diff != "" {
			t.Errorf("single weights mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("save within the cooldown", func(t *testing.T) {
		body := workoutRequest{
			Exercises: []workout.Exercise{{ID: "e1", Name: "Plank", Sets: []workout.Set{{ID: "s1", Weight: 0, Reps: 1}}}},
		}
		var resp errorResponse
		status, err := client.PostJSON(ctx, "/api/workouts", body, &resp)
		if err != nil {
			t.Fatalf("Failed to post workout: %v", err)
		}
		if status != http.StatusTooManyRequests {
			t.Errorf("Expected status 429, got %d", status)
		}
		if resp.Error != "Please wait before saving again." {
			t.Errorf("Expected cooldown message, got %q", resp.Error)
		}
	})
}

func Test_application_apiRejectsInvalidWorkout(t *testing.T) {
	server := startTestServer(t, testLookupEnv)
	var resp errorResponse
	status, err := server.Client().PostJSON(t.Context(), "/api/workouts", workoutRequest{}, &resp)
	if err != nil {
		t.Fatalf("Failed to post workout: %v", err)
	}
	if status != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", status)
	}
	if resp.Error != "Cannot save workout: at least one exercise is required." {
		t.Errorf("Unexpected error message %q", resp.Error)
	}
}
