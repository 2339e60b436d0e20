package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/myrjola/lifelog/internal/records"
)

func (app *application) collectionGET(w http.ResponseWriter, r *http.Request) {
	recs, err := app.store.GetCollection(r.Context(), r.PathValue("name"))
	if err != nil {
		app.apiError(w, r, err)
		return
	}
	writeRawJSON(w, http.StatusOK, rawJSONArray(recs))
}

func (app *application) collectionRecordPUT(w http.ResponseWriter, r *http.Request) {
	var record json.RawMessage
	if err := decodeJSON(r, &record); err != nil {
		app.apiError(w, r, err)
		return
	}
	id, err := records.RecordID(record)
	if err != nil {
		app.apiError(w, r, err)
		return
	}
	if id != r.PathValue("id") {
		app.apiError(w, r, fmt.Errorf("%w: record id %q does not match path id %q",
			errInvalidRequest, id, r.PathValue("id")))
		return
	}
	stored, err := app.store.Upsert(r.Context(), r.PathValue("name"), record)
	if err != nil {
		app.apiError(w, r, err)
		return
	}
	writeRawJSON(w, http.StatusOK, stored)
}

func (app *application) collectionRecordDELETE(w http.ResponseWriter, r *http.Request) {
	removed, err := app.store.Remove(r.Context(), r.PathValue("name"), r.PathValue("id"))
	if err != nil {
		app.apiError(w, r, err)
		return
	}
	if !removed {
		app.writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "record not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) exportGET(w http.ResponseWriter, r *http.Request) {
	export, err := app.store.ExportAll(r.Context())
	if err != nil {
		app.apiError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="lifelog-export.json"`)
	app.writeJSON(w, r, http.StatusOK, export)
}

type importResponse struct {
	Imported int `json:"imported"`
}

func (app *application) importPOST(w http.ResponseWriter, r *http.Request) {
	var (
		opts records.ImportOptions
		err  error
	)
	if raw := r.URL.Query().Get("overwrite"); raw != "" {
		if opts.Overwrite, err = strconv.ParseBool(raw); err != nil {
			app.apiError(w, r, fmt.Errorf("%w: parse overwrite: %w", errInvalidRequest, err))
			return
		}
	}

	var payload records.Export
	if err = decodeJSON(r, &payload); err != nil {
		app.apiError(w, r, err)
		return
	}
	imported, err := app.store.ImportAll(r.Context(), payload, opts)
	if err != nil {
		app.apiError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, importResponse{Imported: imported})
}
