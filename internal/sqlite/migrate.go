package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"time"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// loadMigrations returns the embedded migration scripts ordered by file name.
func loadMigrations() ([]string, error) {
	names, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("glob migrations: %w", err)
	}
	slices.Sort(names)

	migrations := make([]string, 0, len(names))
	for _, name := range names {
		var script []byte
		if script, err = migrationFS.ReadFile(name); err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		migrations = append(migrations, string(script))
	}
	return migrations, nil
}

// SchemaVersion reports the number of migrations applied to the database.
func (db *Database) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := db.ReadOnly.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("query user_version: %w", err)
	}
	return version, nil
}

// migrateTo applies the migrations that have not been applied yet.
//
// PRAGMA user_version tracks how many migrations have been applied. Each migration runs in its own transaction
// together with the user_version bump so that a failed migration leaves the database at the previous version.
// A database with a higher version than we know about is refused.
func (db *Database) migrateTo(ctx context.Context, migrations []string) error {
	start := time.Now()

	var current int
	if err := db.ReadWrite.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("query user_version: %w", err)
	}
	if current > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than supported version %d", current, len(migrations))
	}

	for version := current; version < len(migrations); version++ {
		if err := db.applyMigration(ctx, version+1, migrations[version]); err != nil {
			return fmt.Errorf("apply migration %d: %w", version+1, err)
		}
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database",
		slog.Int("from_version", current),
		slog.Int("to_version", len(migrations)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (db *Database) applyMigration(ctx context.Context, version int, script string) error {
	var (
		tx  *sql.Tx
		err error
	)
	if tx, err = db.ReadWrite.BeginTx(ctx, nil); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer db.Rollback(ctx, tx)()

	if _, err = tx.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("exec script: %w", err)
	}
	// PRAGMA does not support bound parameters.
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	db.logger.LogAttrs(ctx, slog.LevelInfo, "applied migration", slog.Int("version", version))
	return nil
}
