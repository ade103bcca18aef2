package main

import (
	"fmt"
	"net/http"
)

func (app *application) routes() (*http.ServeMux, error) {
	mux := http.NewServeMux()

	var (
		shared = func(next http.Handler) http.Handler {
			return app.logAndTraceRequest(secureHeaders(app.crossOriginProtection(
				commonContext(app.timeout(next)))))
		}
		noAuth = func(next http.Handler) http.Handler {
			return app.recoverPanic(shared(next))
		}
		mustAuth = func(next http.Handler) http.Handler {
			return app.recoverPanic(noCache(app.logAndTraceRequest(app.basicAuth(secureHeaders(
				app.crossOriginProtection(commonContext(app.timeout(next))))))))
		}
		session = func(next http.Handler) http.Handler {
			return mustAuth(app.sessionManager.LoadAndSave(next))
		}
	)

	mux.Handle("GET /api/healthy", noAuth(http.HandlerFunc(app.healthy)))
	mux.Handle("GET /metrics", mustAuth(app.metrics.Handler()))

	mux.Handle("GET /api/templates", mustAuth(http.HandlerFunc(app.apiTemplatesGET)))
	mux.Handle("GET /api/templates/{templateID}/exercises", mustAuth(http.HandlerFunc(app.apiTemplateExercisesGET)))
	mux.Handle("POST /api/workouts/validate", mustAuth(http.HandlerFunc(app.apiValidatePOST)))
	mux.Handle("POST /api/workouts", mustAuth(http.HandlerFunc(app.apiWorkoutsPOST)))
	mux.Handle("GET /api/weights", mustAuth(http.HandlerFunc(app.apiWeightsBatchGET)))
	mux.Handle("GET /api/weights/{name}", mustAuth(http.HandlerFunc(app.apiWeightsGET)))

	mux.Handle("POST /draft/template", session(http.HandlerFunc(app.draftTemplatePOST)))
	mux.Handle("POST /draft/exercises/{exerciseID}/open", session(http.HandlerFunc(app.draftOpenExercisePOST)))
	mux.Handle("POST /draft/exercises/{exerciseID}/sets", session(http.HandlerFunc(app.draftAddSetPOST)))
	mux.Handle("POST /draft/exercises/{exerciseID}/sets/{setID}", session(http.HandlerFunc(app.draftUpdateSetPOST)))
	mux.Handle("POST /draft/exercises/{exerciseID}/sets/{setID}/remove",
		session(http.HandlerFunc(app.draftRemoveSetPOST)))
	mux.Handle("POST /draft/exercises/{exerciseID}/sets/{setID}/done", session(http.HandlerFunc(app.draftSetDonePOST)))
	mux.Handle("POST /workouts", session(http.HandlerFunc(app.workoutsPOST)))

	mux.Handle("GET /{$}", session(http.HandlerFunc(app.home)))

	fileServerHandler, err := app.fileServerHandler()
	if err != nil {
		return nil, fmt.Errorf("fileServerHandler: %w", err)
	}
	mux.Handle("/", fileServerHandler)

	return mux, nil
}
