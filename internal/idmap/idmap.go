// Package idmap creates, indexes, and drops the per-model old_id -> new_id
// mapping tables in the destination database (spec.md §3, §4.2).
package idmap

import (
	"context"
	"database/sql"
	"fmt"
)

// TableName returns the identity-map table name for model.
func TableName(model string) string {
	return model + "_id_map"
}

// Create creates model's identity-map table in dest. No indices are
// created yet; CreateIndices must be called after the model's bulk inserts
// complete (spec.md §4.2).
func Create(ctx context.Context, dest *sql.DB, model string) error {
	stmt := fmt.Sprintf(
		`CREATE TABLE %s (old_id TEXT NOT NULL, new_id TEXT NOT NULL)`,
		TableName(model),
	)
	if _, err := dest.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create id map table for %s: %w", model, err)
	}
	return nil
}

// CreateIndices builds the three indices spec.md §3 lists, on the now
// populated table: (old_id), (new_id), (new_id, old_id).
func CreateIndices(ctx context.Context, dest *sql.DB, model string) error {
	table := TableName(model)
	stmts := []string{
		fmt.Sprintf(`CREATE INDEX %s_old_id ON %s (old_id)`, table, table),
		fmt.Sprintf(`CREATE INDEX %s_new_id ON %s (new_id)`, table, table),
		fmt.Sprintf(`CREATE INDEX %s_new_old ON %s (new_id, old_id)`, table, table),
	}
	for _, stmt := range stmts {
		if _, err := dest.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index for %s: %w", model, err)
		}
	}
	return nil
}

// Drop removes model's identity-map indices (if present) and table (if
// present).
func Drop(ctx context.Context, dest *sql.DB, model string) error {
	table := TableName(model)
	stmts := []string{
		fmt.Sprintf(`DROP INDEX IF EXISTS %s_old_id`, table),
		fmt.Sprintf(`DROP INDEX IF EXISTS %s_new_id`, table),
		fmt.Sprintf(`DROP INDEX IF EXISTS %s_new_old`, table),
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table),
	}
	for _, stmt := range stmts {
		if _, err := dest.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("drop id map for %s: %w", model, err)
		}
	}
	return nil
}
