// Package records stores named collections of JSON records keyed by their "id" field.
//
// The store knows nothing about the records it keeps. Bodies are persisted verbatim, so a record reads back
// byte-for-byte as it was written.
package records

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/myrjola/lifelog/internal/errors"
	"github.com/myrjola/lifelog/internal/sqlite"
	"golang.org/x/sync/errgroup"
)

// ExportSchemaVersion is the version of the export payload produced by ExportAll.
const ExportSchemaVersion = 1

const (
	maxCollectionNameLength = 64
	maxRecordIDLength       = 128
	exportConcurrency       = 4
)

var (
	ErrInvalidCollection = errors.NewSentinel("invalid collection name")
	ErrInvalidRecord     = errors.NewSentinel("invalid record")
	ErrUnsupportedSchema = errors.NewSentinel("unsupported schema version")
)

// Export is the payload of a full backup.
type Export struct {
	SchemaVersion int                          `json:"schemaVersion"`
	Collections   map[string][]json.RawMessage `json:"collections"`
}

// ImportOptions controls how ImportAll treats existing data.
type ImportOptions struct {
	// Overwrite removes every existing collection before importing. Otherwise records are merged by id.
	Overwrite bool
}

// Store is the SQLite backed collection store.
type Store struct {
	db     *sqlite.Database
	logger *slog.Logger
}

// NewStore creates a Store on top of an already migrated database.
func NewStore(db *sqlite.Database, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

// GetCollection returns the records of a collection in insertion order. Unknown collections are empty.
func (s *Store) GetCollection(ctx context.Context, name string) ([]json.RawMessage, error) {
	if err := validateCollectionName(name); err != nil {
		return nil, err
	}
	return readCollection(ctx, s.db.ReadOnly, name)
}

// Upsert inserts the record or replaces the record with the same id. The record keeps its original position
// in the collection when replaced.
func (s *Store) Upsert(ctx context.Context, name string, record json.RawMessage) (_ json.RawMessage, err error) {
	if err = validateCollectionName(name); err != nil {
		return nil, err
	}
	var id string
	if id, err = RecordID(record); err != nil {
		return nil, err
	}

	var tx *sql.Tx
	if tx, err = s.db.ReadWrite.BeginTx(ctx, nil); err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer s.db.Rollback(ctx, tx)()

	if err = upsertRecord(ctx, tx, name, id, record); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.LogAttrs(ctx, slog.LevelDebug, "upserted record",
		slog.String("collection", name), slog.String("record_id", id))
	return record, nil
}

// Remove deletes a record and reports whether it existed.
func (s *Store) Remove(ctx context.Context, name string, id string) (bool, error) {
	if err := validateCollectionName(name); err != nil {
		return false, err
	}
	result, err := s.db.ReadWrite.ExecContext(ctx,
		`DELETE FROM records WHERE collection = ? AND id = ?`, name, id)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	var affected int64
	if affected, err = result.RowsAffected(); err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ExportAll returns every collection, including empty ones.
func (s *Store) ExportAll(ctx context.Context) (Export, error) {
	names, err := s.collectionNames(ctx)
	if err != nil {
		return Export{}, err
	}

	results := make([][]json.RawMessage, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exportConcurrency)
	for i, name := range names {
		g.Go(func() error {
			collection, readErr := readCollection(gctx, s.db.ReadOnly, name)
			if readErr != nil {
				return errors.Wrap(readErr, "export collection", slog.String("collection", name))
			}
			results[i] = collection
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return Export{}, err //nolint:wrapcheck // already annotated
	}

	export := Export{
		SchemaVersion: ExportSchemaVersion,
		Collections:   make(map[string][]json.RawMessage, len(names)),
	}
	for i, name := range names {
		export.Collections[name] = results[i]
	}
	return export, nil
}

// ImportAll writes the payload in a single transaction and returns the number of records written.
//
// With Overwrite every existing collection is dropped first. Otherwise records are merged by id and when the
// payload repeats an id the last occurrence wins.
func (s *Store) ImportAll(ctx context.Context, payload Export, opts ImportOptions) (_ int, err error) {
	if payload.SchemaVersion > ExportSchemaVersion {
		return 0, errors.Wrap(ErrUnsupportedSchema, "import",
			slog.Int("schema_version", payload.SchemaVersion),
			slog.Int("supported_version", ExportSchemaVersion))
	}

	// Map iteration order is random; sort so that imports are deterministic.
	names := make([]string, 0, len(payload.Collections))
	for name := range payload.Collections {
		if err = validateCollectionName(name); err != nil {
			return 0, err
		}
		names = append(names, name)
	}
	slices.Sort(names)

	var tx *sql.Tx
	if tx, err = s.db.ReadWrite.BeginTx(ctx, nil); err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer s.db.Rollback(ctx, tx)()

	if opts.Overwrite {
		if _, err = tx.ExecContext(ctx, `DELETE FROM records; DELETE FROM collections;`); err != nil {
			return 0, fmt.Errorf("clear collections: %w", err)
		}
	}

	written := 0
	for _, name := range names {
		if err = ensureCollection(ctx, tx, name); err != nil {
			return 0, err
		}
		for i, record := range payload.Collections[name] {
			var id string
			if id, err = RecordID(record); err != nil {
				return 0, errors.Wrap(err, "import record",
					slog.String("collection", name), slog.Int("index", i))
			}
			if err = upsertRecord(ctx, tx, name, id, record); err != nil {
				return 0, err
			}
			written++
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "imported records",
		slog.Int("collections", len(names)),
		slog.Int("records", written),
		slog.Bool("overwrite", opts.Overwrite))
	return written, nil
}

// RecordID extracts the "id" field of a JSON object record.
func RecordID(record json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(record)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return "", errors.Wrap(ErrInvalidRecord, "record must be a JSON object")
	}
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(trimmed, &head); err != nil {
		return "", errors.Wrap(ErrInvalidRecord, "decode record id", slog.String("cause", err.Error()))
	}
	if head.ID == "" || len(head.ID) > maxRecordIDLength {
		return "", errors.Wrap(ErrInvalidRecord, "record id must be a non-empty string",
			slog.Int("max_length", maxRecordIDLength))
	}
	return head.ID, nil
}

func validateCollectionName(name string) error {
	if name == "" || len(name) > maxCollectionNameLength {
		return errors.Wrap(ErrInvalidCollection, "validate collection name", slog.String("collection", name))
	}
	return nil
}

func (s *Store) collectionNames(ctx context.Context) (_ []string, err error) {
	rows, err := s.db.ReadOnly.QueryContext(ctx, `SELECT name FROM collections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var names []string
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		names = append(names, name)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return names, nil
}

func readCollection(ctx context.Context, db *sql.DB, name string) (_ []json.RawMessage, err error) {
	rows, err := db.QueryContext(ctx,
		`SELECT body FROM records WHERE collection = ? ORDER BY seq`, name)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	collection := []json.RawMessage{}
	for rows.Next() {
		var body string
		if err = rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		collection = append(collection, json.RawMessage(body))
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return collection, nil
}

func ensureCollection(ctx context.Context, tx *sql.Tx, name string) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO collections (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name); err != nil {
		return fmt.Errorf("insert collection: %w", err)
	}
	return nil
}

func upsertRecord(ctx context.Context, tx *sql.Tx, name string, id string, record json.RawMessage) error {
	if err := ensureCollection(ctx, tx, name); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO records (collection, id, body)
		VALUES (?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET body       = excluded.body,
		                                          updated_at = STRFTIME('%Y-%m-%dT%H:%M:%fZ')`,
		name, id, string(record)); err != nil {
		return fmt.Errorf("upsert record %s/%s: %w", name, id, err)
	}
	return nil
}
