package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dubovds/workout-tracker/internal/workout"
)

// draftAction loads the draft, applies change and stores the draft again before redirecting home. A failing
// change is shown as a flash and leaves the stored draft untouched.
func (app *application) draftAction(
	w http.ResponseWriter,
	r *http.Request,
	change func(d *workout.Draft) error,
) {
	ctx := r.Context()
	d := app.draft(ctx)
	if err := change(&d); err != nil {
		app.putFlash(ctx, flashError, app.userMessage(err, msgUnexpectedFailed))
		redirect(w, r, "/")
		return
	}
	app.putDraft(ctx, d)
	redirect(w, r, "/")
}

func (app *application) draftTemplatePOST(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.putFlash(r.Context(), flashError, msgInvalidForm)
		redirect(w, r, "/")
		return
	}
	ctx := r.Context()
	d := app.draft(ctx)
	if app.loadTemplate(ctx, &d, r.PostForm.Get("template_id")) {
		app.putDraft(ctx, d)
	}
	redirect(w, r, "/")
}

func (app *application) draftOpenExercisePOST(w http.ResponseWriter, r *http.Request) {
	exerciseID := r.PathValue("exerciseID")
	app.draftAction(w, r, func(d *workout.Draft) error {
		return d.OpenExercise(exerciseID, app.lastWeightsOf(r.Context(), exerciseName(d, exerciseID)))
	})
}

func (app *application) draftAddSetPOST(w http.ResponseWriter, r *http.Request) {
	exerciseID := r.PathValue("exerciseID")
	app.draftAction(w, r, func(d *workout.Draft) error {
		if _, err := d.AddSet(exerciseID, app.lastWeightsOf(r.Context(), exerciseName(d, exerciseID))); err != nil {
			return err
		}
		d.OpenExerciseID = exerciseID
		return nil
	})
}

func (app *application) draftUpdateSetPOST(w http.ResponseWriter, r *http.Request) {
	exerciseID, setID := r.PathValue("exerciseID"), r.PathValue("setID")
	weight, reps, err := parseSetForm(r)
	if err != nil {
		app.putFlash(r.Context(), flashError, msgInvalidForm)
		redirect(w, r, "/")
		return
	}
	app.draftAction(w, r, func(d *workout.Draft) error {
		return d.UpdateSet(exerciseID, setID, weight, reps)
	})
}

func (app *application) draftRemoveSetPOST(w http.ResponseWriter, r *http.Request) {
	exerciseID, setID := r.PathValue("exerciseID"), r.PathValue("setID")
	app.draftAction(w, r, func(d *workout.Draft) error {
		return d.RemoveSet(exerciseID, setID)
	})
}

func (app *application) draftSetDonePOST(w http.ResponseWriter, r *http.Request) {
	exerciseID, setID := r.PathValue("exerciseID"), r.PathValue("setID")
	if err := r.ParseForm(); err != nil {
		app.putFlash(r.Context(), flashError, msgInvalidForm)
		redirect(w, r, "/")
		return
	}
	done := r.PostForm.Get("done") == "true"
	app.draftAction(w, r, func(d *workout.Draft) error {
		return d.SetDone(exerciseID, setID, done)
	})
}

// workoutsPOST saves the draft. The draft stays in place after saving so that the next workout can start from it.
func (app *application) workoutsPOST(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		app.putFlash(ctx, flashError, msgInvalidForm)
		redirect(w, r, "/")
		return
	}
	d := app.draft(ctx)
	id, err := app.formSaves.Save(ctx, d.TemplateID, d.Exercises, d.TemplateExerciseIDs,
		strings.TrimSpace(r.PostForm.Get("date")))
	if err != nil {
		app.putFlash(ctx, flashError, app.userMessage(err, msgSaveFailed))
		redirect(w, r, "/")
		return
	}
	d.ClearFocus()
	app.putDraft(ctx, d)
	app.putFlash(ctx, flashSuccess, workout.SavedMessage(id))
	redirect(w, r, "/")
}

// parseSetForm reads the weight and reps fields. An empty field counts as zero.
func parseSetForm(r *http.Request) (weight, reps float64, err error) {
	if err = r.ParseForm(); err != nil {
		return 0, 0, err
	}
	parse := func(field string) (float64, error) {
		v := strings.TrimSpace(r.PostForm.Get(field))
		if v == "" {
			return 0, nil
		}
		return strconv.ParseFloat(v, 64)
	}
	if weight, err = parse("weight"); err != nil {
		return 0, 0, err
	}
	if reps, err = parse("reps"); err != nil {
		return 0, 0, err
	}
	return weight, reps, nil
}

// exerciseName returns the name of the draft exercise, empty when there is none.
func exerciseName(d *workout.Draft, exerciseID string) string {
	for _, e := range d.Exercises {
		if e.ID == exerciseID {
			return e.Name
		}
	}
	return ""
}
