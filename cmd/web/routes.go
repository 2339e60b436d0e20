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
		page = func(next http.Handler) http.Handler {
			return app.recoverPanic(noCache(shared(next)))
		}
		api = func(next http.Handler) http.Handler {
			return app.recoverPanic(noCache(shared(limitRequestBody(maxRequestBytes, next))))
		}
		bulk = func(next http.Handler) http.Handler {
			return app.recoverPanic(noCache(shared(limitRequestBody(maxImportBytes, next))))
		}
	)

	mux.Handle("GET /api/healthy", api(http.HandlerFunc(app.healthy)))
	mux.Handle("GET /api/test/timeout", api(http.HandlerFunc(app.testTimeout)))

	mux.Handle("GET /api/workouts/next", api(http.HandlerFunc(app.nextSessionGET)))
	mux.Handle("POST /api/workouts/next/decline", api(http.HandlerFunc(app.declineOfferPOST)))
	mux.Handle("GET /api/workouts/templates/{templateID}/plan", api(http.HandlerFunc(app.sessionPlanGET)))
	mux.Handle("GET /api/workouts/sessions", api(http.HandlerFunc(app.sessionsGET)))
	mux.Handle("POST /api/workouts/sessions", api(http.HandlerFunc(app.sessionsPOST)))
	mux.Handle("GET /api/exercises/{exerciseID}/target", api(http.HandlerFunc(app.exerciseTargetGET)))
	mux.Handle("GET /api/patterns/{patternID}/variants", api(http.HandlerFunc(app.patternVariantsGET)))

	mux.Handle("GET /api/collections/{name}", api(http.HandlerFunc(app.collectionGET)))
	mux.Handle("PUT /api/collections/{name}/{id}", api(http.HandlerFunc(app.collectionRecordPUT)))
	mux.Handle("DELETE /api/collections/{name}/{id}", api(http.HandlerFunc(app.collectionRecordDELETE)))
	mux.Handle("GET /api/export", api(http.HandlerFunc(app.exportGET)))
	mux.Handle("POST /api/import", bulk(http.HandlerFunc(app.importPOST)))

	mux.Handle("POST /workouts/next/decline", page(http.HandlerFunc(app.homeDeclinePOST)))

	// Home route (most specific)
	mux.Handle("GET /{$}", page(http.HandlerFunc(app.home)))

	// File server with custom 404 handling
	fileServerHandler, err := app.fileServerHandler()
	if err != nil {
		return nil, fmt.Errorf("fileServerHandler: %w", err)
	}
	mux.Handle("/", fileServerHandler)

	return mux, nil
}
