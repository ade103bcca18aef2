package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dubovds/workout-tracker/internal/errors"
	"github.com/dubovds/workout-tracker/internal/workout"
)

const msgNoTemplates = "No workout templates found. Please ensure database migrations are applied."

type exerciseTemplateData struct {
	workout.Exercise
	Weights    workout.ExerciseWeights
	Open       bool
	FocusSetID string
}

type homeTemplateData struct {
	BaseTemplateData
	Templates          []workout.TemplateOption
	SelectedTemplateID string
	Exercises          []exerciseTemplateData
	FocusSetID         string
	Today              string
	Message            string
	Flash              flash
}

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := homeTemplateData{
		BaseTemplateData:   newBaseTemplateData(r),
		Templates:          nil,
		SelectedTemplateID: "",
		Exercises:          nil,
		FocusSetID:         "",
		Today:              app.workoutService.Today().String(),
		Message:            "",
		Flash:              flash{Message: "", Variant: ""},
	}

	options, err := app.workoutService.LoadWorkoutTemplateOptions(ctx)
	if err != nil {
		data.Message = app.userMessage(err, msgLoadFailed)
		data.Flash = app.popFlash(ctx)
		app.render(w, r, http.StatusOK, "home", data)
		return
	}
	data.Templates = options
	if len(options) == 0 {
		data.Message = msgNoTemplates
	}

	d := app.draft(ctx)
	if d.TemplateID == "" && len(options) > 0 && app.loadTemplate(ctx, &d, options[0].ID.String()) {
		app.putDraft(ctx, d)
	}
	data.SelectedTemplateID = d.TemplateID
	data.FocusSetID = d.FocusSetID

	weights := app.lastWeights(ctx, d.ExerciseNames())
	data.Exercises = make([]exerciseTemplateData, len(d.Exercises))
	for i, e := range d.Exercises {
		data.Exercises[i] = exerciseTemplateData{
			Exercise:   e,
			Weights:    weights[workout.NormalizeExerciseName(e.Name)],
			Open:       e.ID == d.OpenExerciseID,
			FocusSetID: d.FocusSetID,
		}
	}
	data.Flash = app.popFlash(ctx)

	app.render(w, r, http.StatusOK, "home", data)
}

// loadTemplate replaces the draft exercises with the ones of templateID and reports whether it did. A load
// superseded by a newer load of the same session is dropped without touching the session, so that the session
// of the newer load is the one stored. Other failures leave the draft as it was and are reported as a flash.
func (app *application) loadTemplate(ctx context.Context, d *workout.Draft, templateID string) bool {
	owner := app.sessionManager.Token(ctx)
	ticket := app.templateLoads.Begin(owner)
	loaded, err := app.workoutService.LoadTemplateExercises(ctx, templateID)
	if !app.templateLoads.Finish(owner, ticket) {
		app.logger.LogAttrs(ctx, slog.LevelDebug, "discarded stale template load",
			slog.String("template_id", templateID))
		return false
	}
	if err != nil {
		app.putFlash(ctx, flashError, app.userMessage(err, msgLoadFailed))
		return false
	}
	d.ApplyLoad(loaded)
	return true
}

// lastWeights looks up the weights of names. Lookup failures only cost the hints, so they are logged and
// treated as no history.
func (app *application) lastWeights(ctx context.Context, names []string) map[string]workout.ExerciseWeights {
	weights, err := app.workoutService.LastWeightsBatch(ctx, names)
	if err != nil {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "failed to load last weights", errors.SlogError(err))
		return map[string]workout.ExerciseWeights{}
	}
	return weights
}

// lastWeightsOf returns the weights of a single exercise, see lastWeights.
func (app *application) lastWeightsOf(ctx context.Context, name string) workout.ExerciseWeights {
	return app.lastWeights(ctx, []string{name})[workout.NormalizeExerciseName(name)]
}
