package main

import (
	"fmt"
	"net/http"
	"time"
)

type healthResponse struct {
	Status        string `json:"status"`
	SchemaVersion int    `json:"schemaVersion"`
}

// healthy reports ok once the database answers, together with the applied schema version.
func (app *application) healthy(w http.ResponseWriter, r *http.Request) {
	version, err := app.db.SchemaVersion(r.Context())
	if err != nil {
		app.apiError(w, r, fmt.Errorf("health check: %w", err))
		return
	}
	app.writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok", SchemaVersion: version})
}

// testTimeout sleeps for the duration given in the sleep query parameter, e.g. ?sleep=1500ms.
func (app *application) testTimeout(w http.ResponseWriter, r *http.Request) {
	sleep := time.Duration(0)
	if raw := r.URL.Query().Get("sleep"); raw != "" {
		var err error
		if sleep, err = time.ParseDuration(raw); err != nil {
			app.apiError(w, r, fmt.Errorf("%w: parse sleep: %w", errInvalidRequest, err))
			return
		}
	}
	time.Sleep(sleep)
	app.writeJSON(w, r, http.StatusOK, map[string]string{"status": "completed", "slept": sleep.String()})
}
