package merge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/camertron/prismerge/internal/config"
	"github.com/camertron/prismerge/internal/dbopen"
	"github.com/camertron/prismerge/internal/idmap"
	"github.com/camertron/prismerge/internal/progress"
	"github.com/camertron/prismerge/internal/schema"
	"github.com/camertron/prismerge/internal/topo"
)

// cloneSchemaDDL copies every non-null CREATE statement out of src's
// sqlite_master catalog into dest (spec.md §4.7 step 1, §9: the
// destination schema is cloned verbatim from source #1's catalog).
func cloneSchemaDDL(ctx context.Context, dest, src *sql.DB) error {
	rows, err := src.QueryContext(ctx, `SELECT sql FROM sqlite_master WHERE sql IS NOT NULL AND type IN ('table', 'index', 'view', 'trigger')`)
	if err != nil {
		return fmt.Errorf("read source schema: %w", err)
	}
	defer rows.Close()

	var stmts []string
	for rows.Next() {
		var ddl sql.NullString
		if err := rows.Scan(&ddl); err != nil {
			return fmt.Errorf("scan source schema row: %w", err)
		}
		if ddl.Valid {
			stmts = append(stmts, ddl.String)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read source schema: %w", err)
	}

	for _, stmt := range stmts {
		if _, err := dest.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply destination schema: %w", err)
		}
	}
	return nil
}

// foreignKeyCheck runs SQLite's foreign_key_check pragma against table and
// returns the number of violations it reports.
func foreignKeyCheck(ctx context.Context, dest *sql.DB, table string) (int, error) {
	rows, err := dest.QueryContext(ctx, fmt.Sprintf(`PRAGMA foreign_key_check(%q)`, table))
	if err != nil {
		return 0, fmt.Errorf("foreign key check %s: %w", table, err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("foreign key check %s: %w", table, err)
	}
	return n, nil
}

// Run performs the full merge described by spec.md §4.7: it opens every
// source and the destination, clones the destination schema from the first
// source, merges every model in dependency order, verifies referential
// integrity, and restores the destination to its normal operating
// configuration.
func Run(ctx context.Context, cfg config.Config, s schema.Schema, sourcePaths []string, reporter progress.Reporter) (err error) {
	if len(sourcePaths) == 0 {
		return fmt.Errorf("merge: at least one source database is required")
	}

	if cfg.Remove {
		if err := os.Remove(cfg.OutputPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove existing output %s: %w", cfg.OutputPath, err)
		}
	}

	sources := make([]*sql.DB, 0, len(sourcePaths))
	defer func() {
		for _, src := range sources {
			src.Close()
		}
	}()
	for _, path := range sourcePaths {
		src, openErr := dbopen.OpenSource(path)
		if openErr != nil {
			return openErr
		}
		sources = append(sources, src)
	}

	dest, err := dbopen.OpenDestination(cfg.OutputPath)
	if err != nil {
		return err
	}
	defer dest.Close()

	if err := dbopen.ApplyFastPragmas(ctx, dest); err != nil {
		return err
	}

	if err := cloneSchemaDDL(ctx, dest, sources[0]); err != nil {
		return err
	}

	order := topo.Schedule(s)
	for _, name := range order {
		m := s[name]
		if err := MergeModel(ctx, dest, sources, s, m, cfg.MinInserts, reporter); err != nil {
			return fmt.Errorf("merge model %s: %w", name, err)
		}
	}

	if err := dbopen.ApplySafePragmas(ctx, dest); err != nil {
		return err
	}

	for _, name := range order {
		n, err := foreignKeyCheck(ctx, dest, name)
		if err != nil {
			return err
		}
		if n > 0 {
			reporter.Warn("Table %s has %d foreign key integrity problems", name, n)
		}
	}

	if !cfg.KeepIDMaps {
		for _, name := range order {
			if err := idmap.Drop(ctx, dest, name); err != nil {
				return err
			}
		}
	}

	if _, err := dest.ExecContext(ctx, `VACUUM`); err != nil {
		return fmt.Errorf("vacuum destination: %w", err)
	}

	return nil
}
