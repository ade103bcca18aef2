package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dubovds/workout-tracker/internal/errors"
	"github.com/dubovds/workout-tracker/internal/workout"
)

const (
	msgSaveFailed       = "Failed to save workout. Please try again."
	msgLoadFailed       = "Failed to load exercises."
	msgInvalidForm      = "Invalid form submission."
	msgUnexpectedFailed = "Something went wrong. Please try again."
)

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", errors.SlogError(err))
	app.render(w, r, http.StatusInternalServerError, "error", newBaseTemplateData(r))
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.render(w, r, http.StatusNotFound, "not-found", newBaseTemplateData(r))
}

// redirect detects if the request is originating from a fetch API call or a top-level navigation and points the user
// to the correct URL.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	if r.Header.Get("Sec-Fetch-Dest") == "empty" {
		w.Header().Set("Content-Location", path)
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, path, http.StatusSeeOther)
}

// userMessage is what the user may see for err.
func (app *application) userMessage(err error, fallback string) string {
	return workout.UserMessage(err, fallback, app.debugErrors)
}

// statusFor maps an error of the workout core to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, workout.ErrCooldown), errors.Is(err, workout.ErrSaveInProgress):
		return http.StatusTooManyRequests
	case errors.Is(err, workout.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes v as the JSON response body.
func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "failed to encode response", errors.SlogError(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeJSONError responds with {"error": message} using the status matching err.
func (app *application) writeJSONError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "api request failed", errors.SlogError(err))
	}
	app.writeJSON(w, r, status, errorResponse{Error: app.userMessage(err, fallback)})
}
