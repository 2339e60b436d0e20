package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/myrjola/lifelog/internal/errors"
	"github.com/myrjola/lifelog/internal/records"
	"github.com/myrjola/lifelog/internal/workout"
)

var errInvalidRequest = errors.NewSentinel("invalid request")

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", errors.SlogError(err))
	buf, renderErr := app.renderToBuf(r.Context(), "error", newBaseTemplateData(r))
	if renderErr != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "failed to render error page", errors.SlogError(renderErr))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = buf.WriteTo(w)
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

type errorResponse struct {
	Error string `json:"error"`
}

// errorStatus maps domain errors to HTTP status codes. Unknown errors are server errors.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, workout.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workout.ErrNoPendingOffer):
		return http.StatusConflict
	case errors.Is(err, workout.ErrInvalidRecord),
		errors.Is(err, records.ErrInvalidRecord),
		errors.Is(err, records.ErrInvalidCollection),
		errors.Is(err, records.ErrUnsupportedSchema),
		errors.Is(err, errInvalidRequest):
		return http.StatusBadRequest
	default:
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusInternalServerError
	}
}

// apiError writes err as a JSON error response. Server errors hide their details from the client.
func (app *application) apiError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", errors.SlogError(err))
		app.writeJSON(w, r, status, errorResponse{Error: http.StatusText(status)})
		return
	}
	app.logger.LogAttrs(r.Context(), slog.LevelInfo, "client error",
		slog.Int("status_code", status), errors.SlogError(err))
	app.writeJSON(w, r, status, errorResponse{Error: err.Error()})
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "failed to encode response", errors.SlogError(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeRawJSON(w, status, body)
}

// rawJSONArray joins already encoded values into a JSON array without re-encoding them.
func rawJSONArray(values []json.RawMessage) []byte {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range values {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(v)
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

// writeRawJSON writes already encoded JSON as is.
func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// decodeJSON decodes the request body into v. Malformed bodies wrap errInvalidRequest.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("decode request body: %w", err)
		}
		return fmt.Errorf("%w: decode request body: %w", errInvalidRequest, err)
	}
	return nil
}
