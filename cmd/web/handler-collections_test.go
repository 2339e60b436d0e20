package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/lifelog/internal/records"
	"github.com/myrjola/lifelog/internal/workout"
)

func Test_application_collectionsAPI(t *testing.T) {
	var (
		ctx    = t.Context()
		client = startTestServer(t).Client()
	)

	put := func(t *testing.T, path string, body string) (int, string) {
		t.Helper()
		resp, err := client.Do(ctx, http.MethodPut, path, "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("Failed to put %s: %v", path, err)
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		got, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("Failed to read response: %v", err)
		}
		return resp.StatusCode, string(got)
	}

	t.Run("Upsert returns the stored bytes", func(t *testing.T) {
		body := `{"id":"w1","date":"2026-03-01","kg":80.25,"note":"morning"}`
		status, got := put(t, "/api/collections/bodyWeight/w1", body)
		if status != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", status, got)
		}
		if got != body {
			t.Errorf("Expected stored bytes %s, got %s", body, got)
		}
		if status, _ = put(t, "/api/collections/bodyWeight/w2", `{"id":"w2","kg":80}`); status != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", status)
		}
	})

	t.Run("Upsert rejects mismatching ids", func(t *testing.T) {
		status, _ := put(t, "/api/collections/bodyWeight/w1", `{"id":"other"}`)
		if status != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", status)
		}
		status, _ = put(t, "/api/collections/bodyWeight/w1", `{"kg":1}`)
		if status != http.StatusBadRequest {
			t.Errorf("Expected status 400 for a record without id, got %d", status)
		}
	})

	t.Run("Collection reads back the stored bytes", func(t *testing.T) {
		body := `{ "id": "n1",  "text": "a < b & c" }`
		status, stored := put(t, "/api/collections/notes/n1", body)
		if status != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", status, stored)
		}
		resp, err := client.Get(ctx, "/api/collections/notes")
		if err != nil {
			t.Fatalf("Failed to get collection: %v", err)
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		got, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("Failed to read response: %v", err)
		}
		if want := "[" + stored + "]"; string(got) != want {
			t.Errorf("Expected collection %s, got %s", want, got)
		}
	})

	t.Run("Collection keeps insertion order on replace", func(t *testing.T) {
		if status, _ := put(t, "/api/collections/bodyWeight/w1", `{"id":"w1","kg":79}`); status != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", status)
		}
		var got []json.RawMessage
		if _, err := client.GetJSON(ctx, "/api/collections/bodyWeight", &got); err != nil {
			t.Fatalf("Failed to get collection: %v", err)
		}
		want := []string{`{"id":"w1","kg":79}`, `{"id":"w2","kg":80}`}
		gotStrings := make([]string, 0, len(got))
		for _, rec := range got {
			gotStrings = append(gotStrings, string(rec))
		}
		if diff := cmp.Diff(want, gotStrings); diff != "" {
			t.Errorf("Collection mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Missing collection is empty", func(t *testing.T) {
		var got []json.RawMessage
		status, err := client.GetJSON(ctx, "/api/collections/nothingHere", &got)
		if err != nil {
			t.Fatalf("Failed to get collection: %v", err)
		}
		if status != http.StatusOK || got == nil || len(got) != 0 {
			t.Errorf("Expected 200 with an empty array, got %d %v", status, got)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		status, err := client.SendJSON(ctx, http.MethodDelete, "/api/collections/bodyWeight/w2", nil, nil)
		if err != nil {
			t.Fatalf("Failed to delete: %v", err)
		}
		if status != http.StatusNoContent {
			t.Errorf("Expected status 204, got %d", status)
		}
		if status, err = client.SendJSON(ctx, http.MethodDelete, "/api/collections/bodyWeight/w2", nil, nil); err != nil {
			t.Fatalf("Failed to delete again: %v", err)
		}
		if status != http.StatusNotFound {
			t.Errorf("Expected status 404 for a missing record, got %d", status)
		}
	})

	var export records.Export
	t.Run("Export includes workout sessions", func(t *testing.T) {
		completeCycle(t, client)
		status, err := client.GetJSON(ctx, "/api/export", &export)
		if err != nil {
			t.Fatalf("Failed to export: %v", err)
		}
		if status != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", status)
		}
		if export.SchemaVersion != records.ExportSchemaVersion {
			t.Errorf("Expected schema version %d, got %d", records.ExportSchemaVersion, export.SchemaVersion)
		}
		if n := len(export.Collections[workout.SessionsCollection]); n != 4 {
			t.Errorf("Expected 4 sessions in export, got %d", n)
		}
		if n := len(export.Collections["bodyWeight"]); n != 1 {
			t.Errorf("Expected 1 body weight record in export, got %d", n)
		}
	})

	t.Run("Import with overwrite replaces everything", func(t *testing.T) {
		payload := records.Export{
			SchemaVersion: records.ExportSchemaVersion,
			Collections: map[string][]json.RawMessage{
				workout.SessionsCollection: export.Collections[workout.SessionsCollection][:1],
			},
		}
		var got importResponse
		status, err := client.SendJSON(ctx, http.MethodPost, "/api/import?overwrite=true", payload, &got)
		if err != nil {
			t.Fatalf("Failed to import: %v", err)
		}
		if status != http.StatusOK || got.Imported != 1 {
			t.Fatalf("Expected 200 with 1 imported record, got %d %+v", status, got)
		}

		var schedule workout.Schedule
		if _, err = client.GetJSON(ctx, "/api/workouts/next", &schedule); err != nil {
			t.Fatalf("Failed to get next session: %v", err)
		}
		if schedule.TemplateID != "lower_a" {
			t.Errorf("Expected lower_a after restoring only upper_a, got %s", schedule.TemplateID)
		}

		var bodyWeight []json.RawMessage
		if _, err = client.GetJSON(ctx, "/api/collections/bodyWeight", &bodyWeight); err != nil {
			t.Fatalf("Failed to get collection: %v", err)
		}
		if len(bodyWeight) != 0 {
			t.Errorf("Expected overwrite to drop body weight records, got %d", len(bodyWeight))
		}
	})

	t.Run("Import rejects bad payloads", func(t *testing.T) {
		tests := []struct {
			name string
			path string
			body string
			want int
		}{
			{
				name: "newer schema",
				path: "/api/import",
				body: `{"schemaVersion":99,"collections":{}}`,
				want: http.StatusBadRequest,
			},
			{
				name: "record without id",
				path: "/api/import",
				body: `{"schemaVersion":1,"collections":{"bodyWeight":[{"kg":1}]}}`,
				want: http.StatusBadRequest,
			},
			{
				name: "invalid overwrite flag",
				path: "/api/import?overwrite=maybe",
				body: `{"schemaVersion":1,"collections":{}}`,
				want: http.StatusBadRequest,
			},
			{
				name: "malformed json",
				path: "/api/import",
				body: `{"schemaVersion":`,
				want: http.StatusBadRequest,
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				resp, err := client.Do(ctx, http.MethodPost, tt.path, "application/json", bytes.NewBufferString(tt.body))
				if err != nil {
					t.Fatalf("Failed to import: %v", err)
				}
				_ = resp.Body.Close()
				if resp.StatusCode != tt.want {
					t.Errorf("Expected status %d, got %d", tt.want, resp.StatusCode)
				}
			})
		}
	})
}
