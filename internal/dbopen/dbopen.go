// Package dbopen opens SQLite connections for merge sources and the merge
// destination, and manages the PRAGMAs the merge needs while it runs.
package dbopen

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// OpenSource opens a read-only connection to an input database. Sources are
// never written by the merge engine.
func OpenSource(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", path, err)
	}
	// SQLite is single-writer and database/sql's connection pool would
	// otherwise hand out multiple independent connections to the same
	// file; pin to one to keep cursor state and PRAGMAs consistent.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping source %s: %w", path, err)
	}
	return db, nil
}

// OpenDestination opens a read-write connection to the output database,
// creating the file if it does not already exist.
func OpenDestination(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open destination %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping destination %s: %w", path, err)
	}
	return db, nil
}

// fastPragmas relaxes durability on the destination for the duration of the
// merge (spec.md §4.7 step 3). Re-enabling them is ApplySafePragmas's job.
var fastPragmas = []string{
	"PRAGMA synchronous = OFF",
	"PRAGMA journal_mode = OFF",
	"PRAGMA temp_store = MEMORY",
	"PRAGMA cache_size = -16000",
	"PRAGMA foreign_keys = OFF",
}

// safePragmas restores durability and FK enforcement after the merge
// completes (spec.md §4.7 step 6).
var safePragmas = []string{
	"PRAGMA synchronous = ON",
	"PRAGMA journal_mode = DELETE",
	"PRAGMA foreign_keys = ON",
}

// ApplyFastPragmas configures dest for high-throughput bulk loading.
func ApplyFastPragmas(ctx context.Context, dest *sql.DB) error {
	return execAll(ctx, dest, fastPragmas)
}

// ApplySafePragmas restores dest's normal durability and FK enforcement.
func ApplySafePragmas(ctx context.Context, dest *sql.DB) error {
	return execAll(ctx, dest, safePragmas)
}

func execAll(ctx context.Context, db *sql.DB, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}
