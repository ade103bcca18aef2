package main

import (
	"encoding/json"
	"net/http"

	"github.com/dubovds/workout-tracker/internal/workout"
)

const maxRequestBodyBytes = 1 << 20

func (app *application) apiTemplatesGET(w http.ResponseWriter, r *http.Request) {
	options, err := app.workoutService.LoadWorkoutTemplateOptions(r.Context())
	if err != nil {
		app.writeJSONError(w, r, err, msgLoadFailed)
		return
	}
	app.writeJSON(w, r, http.StatusOK, options)
}

func (app *application) apiTemplateExercisesGET(w http.ResponseWriter, r *http.Request) {
	loaded, err := app.workoutService.LoadTemplateExercises(r.Context(), r.PathValue("templateID"))
	if err != nil {
		app.writeJSONError(w, r, err, msgLoadFailed)
		return
	}
	app.writeJSON(w, r, http.StatusOK, loaded)
}

type workoutRequest struct {
	TemplateID          string             `json:"templateId"`
	Exercises           []workout.Exercise `json:"exercises"`
	TemplateExerciseIDs map[string]string  `json:"templateExerciseMap"`
	Date                string             `json:"date"`
}

type validateResponse struct {
	Valid  bool                      `json:"valid"`
	Errors []workout.ValidationError `json:"errors"`
}

type savedResponse struct {
	ID      workout.UUID `json:"id"`
	Message string       `json:"message"`
}

func (app *application) decodeWorkoutRequest(w http.ResponseWriter, r *http.Request) (workoutRequest, bool) {
	var req workoutRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := dec.Decode(&req); err != nil {
		app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body."})
		return workoutRequest{}, false
	}
	return req, true
}

func (app *application) apiValidatePOST(w http.ResponseWriter, r *http.Request) {
	req, ok := app.decodeWorkoutRequest(w, r)
	if !ok {
		return
	}
	errs := app.workoutService.ValidateWorkout(req.Exercises)
	if errs == nil {
		errs = []workout.ValidationError{}
	}
	app.writeJSON(w, r, http.StatusOK, validateResponse{Valid: len(errs) == 0, Errors: errs})
}

func (app *application) apiWorkoutsPOST(w http.ResponseWriter, r *http.Request) {
	req, ok := app.decodeWorkoutRequest(w, r)
	if !ok {
		return
	}
	id, err := app.apiSaves.Save(r.Context(), req.TemplateID, req.Exercises, req.TemplateExerciseIDs, req.Date)
	if err != nil {
		app.writeJSONError(w, r, err, msgSaveFailed)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, savedResponse{ID: id, Message: workout.SavedMessage(id)})
}

// apiWeightsBatchGET looks up the weights of every name query parameter with the batch query.
func (app *application) apiWeightsBatchGET(w http.ResponseWriter, r *http.Request) {
	weights, err := app.workoutService.LastWeightsBatch(r.Context(), r.URL.Query()["name"])
	if err != nil {
		app.writeJSONError(w, r, err, msgUnexpectedFailed)
		return
	}
	app.writeJSON(w, r, http.StatusOK, weights)
}

// apiWeightsGET looks up a single exercise. With match=like the name is matched as a substring.
func (app *application) apiWeightsGET(w http.ResponseWriter, r *http.Request) {
	match := workout.MatchExact
	if r.URL.Query().Get("match") == "like" {
		match = workout.MatchPattern
	}
	weights, err := app.workoutService.LastWeights(r.Context(), r.PathValue("name"), match)
	if err != nil {
		app.writeJSONError(w, r, err, msgUnexpectedFailed)
		return
	}
	app.writeJSON(w, r, http.StatusOK, weights)
}
