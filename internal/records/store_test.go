package records_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/lifelog/internal/errors"
	"github.com/myrjola/lifelog/internal/records"
	"github.com/myrjola/lifelog/internal/sqlite"
	"github.com/myrjola/lifelog/internal/testhelpers"
)

func newTestStore(t *testing.T) *records.Store {
	t.Helper()
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
	db, err := sqlite.NewDatabase(t.Context(), ":memory:", logger)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() {
		if err = db.Close(); err != nil {
			t.Errorf("Failed to close database: %v", err)
		}
	})
	return records.NewStore(db, logger)
}

func raw(s string) json.RawMessage {
	return json.RawMessage(s)
}

func toStrings(collection []json.RawMessage) []string {
	out := make([]string, 0, len(collection))
	for _, r := range collection {
		out = append(out, string(r))
	}
	return out
}

func Test_Store_UpsertRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store := newTestStore(t)

	// Whitespace and key order are preserved.
	record := raw(`{"id":"s1",  "date":"2025-01-02", "templateId":"upper_a","exercises":[{"exerciseId":"x","setsPerformed":[{"weight":40,"reps":10}]}]}`)
	if _, err := store.Upsert(ctx, "workoutSessions", record); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := store.GetCollection(ctx, "workoutSessions")
	if err != nil {
		t.Fatalf("GetCollection: %v", err)
	}
	if diff := cmp.Diff([]string{string(record)}, toStrings(got)); diff != "" {
		t.Errorf("GetCollection() mismatch (-want +got):\n%s", diff)
	}
}

func Test_Store_UpsertReplacesByID(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store := newTestStore(t)

	for _, r := range []string{`{"id":"a","v":1}`, `{"id":"b","v":1}`, `{"id":"a","v":2}`} {
		if _, err := store.Upsert(ctx, "metrics", raw(r)); err != nil {
			t.Fatalf("Upsert(%s): %v", r, err)
		}
	}

	got, err := store.GetCollection(ctx, "metrics")
	if err != nil {
		t.Fatalf("GetCollection: %v", err)
	}
	want := []string{`{"id":"a","v":2}`, `{"id":"b","v":1}`}
	if diff := cmp.Diff(want, toStrings(got)); diff != "" {
		t.Errorf("GetCollection() mismatch (-want +got):\n%s", diff)
	}
}

func Test_Store_UpsertRejectsInvalidRecords(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	tests := []struct {
		name       string
		collection string
		record     string
		wantErr    error
	}{
		{name: "missing id", collection: "c", record: `{"v":1}`, wantErr: records.ErrInvalidRecord},
		{name: "numeric id", collection: "c", record: `{"id":1}`, wantErr: records.ErrInvalidRecord},
		{name: "array", collection: "c", record: `[{"id":"a"}]`, wantErr: records.ErrInvalidRecord},
		{name: "malformed", collection: "c", record: `{"id":"a"`, wantErr: records.ErrInvalidRecord},
		{name: "empty collection name", collection: "", record: `{"id":"a"}`, wantErr: records.ErrInvalidCollection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := store.Upsert(t.Context(), tt.collection, raw(tt.record))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Upsert() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func Test_Store_Remove(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store := newTestStore(t)

	if _, err := store.Upsert(ctx, "goals", raw(`{"id":"g1"}`)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	removed, err := store.Remove(ctx, "goals", "g1")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Error("Remove() = false, want true for existing record")
	}

	if removed, err = store.Remove(ctx, "goals", "g1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed {
		t.Error("Remove() = true, want false for missing record")
	}

	got, err := store.GetCollection(ctx, "goals")
	if err != nil {
		t.Fatalf("GetCollection: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("GetCollection() = %v, want empty", toStrings(got))
	}
}

func Test_Store_ExportAll(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store := newTestStore(t)

	upserts := []struct{ collection, record string }{
		{"workoutSessions", `{"id":"s1"}`},
		{"workoutSessions", `{"id":"s2"}`},
		{"goals", `{"id":"g1"}`},
		{"finance", `{"id":"f1"}`},
	}
	for _, u := range upserts {
		if _, err := store.Upsert(ctx, u.collection, raw(u.record)); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	if _, err := store.Remove(ctx, "finance", "f1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	export, err := store.ExportAll(ctx)
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if export.SchemaVersion != records.ExportSchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", export.SchemaVersion, records.ExportSchemaVersion)
	}
	got := make(map[string][]string)
	for name, collection := range export.Collections {
		got[name] = toStrings(collection)
	}
	want := map[string][]string{
		"finance":         {},
		"goals":           {`{"id":"g1"}`},
		"workoutSessions": {`{"id":"s1"}`, `{"id":"s2"}`},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExportAll() mismatch (-want +got):\n%s", diff)
	}
}

func Test_Store_ImportAll(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		payload     records.Export
		opts        records.ImportOptions
		want        map[string][]string
		wantWritten int
	}{
		{
			name: "merge keeps untouched records and last duplicate wins",
			payload: records.Export{
				SchemaVersion: 1,
				Collections: map[string][]json.RawMessage{
					"goals": {raw(`{"id":"g1","v":"import1"}`), raw(`{"id":"g2"}`), raw(`{"id":"g1","v":"import2"}`)},
				},
			},
			opts: records.ImportOptions{Overwrite: false},
			want: map[string][]string{
				"goals":   {`{"id":"g1","v":"import2"}`, `{"id":"g0"}`, `{"id":"g2"}`},
				"metrics": {`{"id":"m1"}`},
			},
			wantWritten: 3,
		},
		{
			name: "overwrite drops existing collections",
			payload: records.Export{
				SchemaVersion: 1,
				Collections: map[string][]json.RawMessage{
					"goals": {raw(`{"id":"g2"}`)},
					"plan":  {},
				},
			},
			opts: records.ImportOptions{Overwrite: true},
			want: map[string][]string{
				"goals": {`{"id":"g2"}`},
				"plan":  {},
			},
			wantWritten: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := t.Context()
			store := newTestStore(t)
			for _, u := range []struct{ collection, record string }{
				{"goals", `{"id":"g1","v":"existing"}`},
				{"goals", `{"id":"g0"}`},
				{"metrics", `{"id":"m1"}`},
			} {
				if _, err := store.Upsert(ctx, u.collection, raw(u.record)); err != nil {
					t.Fatalf("Upsert: %v", err)
				}
			}

			written, err := store.ImportAll(ctx, tt.payload, tt.opts)
			if err != nil {
				t.Fatalf("ImportAll: %v", err)
			}
			if written != tt.wantWritten {
				t.Errorf("ImportAll() = %d, want %d", written, tt.wantWritten)
			}

			export, err := store.ExportAll(ctx)
			if err != nil {
				t.Fatalf("ExportAll: %v", err)
			}
			got := make(map[string][]string)
			for name, collection := range export.Collections {
				got[name] = toStrings(collection)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("collections mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_Store_ImportAllRejects(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store := newTestStore(t)
	if _, err := store.Upsert(ctx, "goals", raw(`{"id":"g1"}`)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	_, err := store.ImportAll(ctx, records.Export{SchemaVersion: records.ExportSchemaVersion + 1}, records.ImportOptions{})
	if !errors.Is(err, records.ErrUnsupportedSchema) {
		t.Errorf("ImportAll() error = %v, want %v", err, records.ErrUnsupportedSchema)
	}

	// A bad record aborts the whole import, including the overwrite.
	_, err = store.ImportAll(ctx, records.Export{
		SchemaVersion: records.ExportSchemaVersion,
		Collections:   map[string][]json.RawMessage{"goals": {raw(`{"id":"g2"}`), raw(`{"no":"id"}`)}},
	}, records.ImportOptions{Overwrite: true})
	if !errors.Is(err, records.ErrInvalidRecord) {
		t.Errorf("ImportAll() error = %v, want %v", err, records.ErrInvalidRecord)
	}

	got, err := store.GetCollection(ctx, "goals")
	if err != nil {
		t.Fatalf("GetCollection: %v", err)
	}
	if diff := cmp.Diff([]string{`{"id":"g1"}`}, toStrings(got)); diff != "" {
		t.Errorf("GetCollection() mismatch (-want +got):\n%s", diff)
	}
}
