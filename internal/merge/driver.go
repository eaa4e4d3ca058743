// Package merge drives a single model's merge across sources (spec.md
// §4.6) and, in orchestrator.go, the top-level merge across all models
// (spec.md §4.7).
package merge

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/camertron/prismerge/internal/batch"
	"github.com/camertron/prismerge/internal/idgen"
	"github.com/camertron/prismerge/internal/idmap"
	"github.com/camertron/prismerge/internal/probe"
	"github.com/camertron/prismerge/internal/progress"
	"github.com/camertron/prismerge/internal/quote"
	"github.com/camertron/prismerge/internal/schema"
)

// valueColumns returns the columns MergeModel needs a quoted source value
// for: m's regular columns plus its relation (foreign key) columns.
// Collection columns have no flat SQL representation and are excluded.
func valueColumns(s schema.Schema, m *schema.Model) []schema.Column {
	var out []schema.Column
	for _, c := range m.Columns {
		if c.IsPrimaryKey || c.Type.IsCollection {
			continue
		}
		out = append(out, c)
	}
	return out
}

// countRows returns the number of rows model m has in db.
func countRows(ctx context.Context, db *sql.DB, m *schema.Model) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %q`, m.Name)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s rows: %w", m.Name, err)
	}
	return n, nil
}

// pickPrimary returns the index of the source with the most rows of model
// m (ties broken in favor of the earlier source) and the total row count
// across all sources (spec.md §4.6 phase B).
func pickPrimary(ctx context.Context, sources []*sql.DB, m *schema.Model) (primaryIdx, total int, err error) {
	best := -1
	for i, src := range sources {
		n, err := countRows(ctx, src, m)
		if err != nil {
			return 0, 0, err
		}
		total += n
		if best < 0 || n > best {
			best = n
			primaryIdx = i
		}
	}
	return primaryIdx, total, nil
}

// sourceOrder returns source indices in merge order: primaryIdx first,
// then every other index in its original input order.
func sourceOrder(n, primaryIdx int) []int {
	order := make([]int, 0, n)
	order = append(order, primaryIdx)
	for i := 0; i < n; i++ {
		if i != primaryIdx {
			order = append(order, i)
		}
	}
	return order
}

// buildInsert constructs the insert-and-remap statement from spec.md §4.6
// step 3 for one source row, inserting it under newPK.
func buildInsert(s schema.Schema, m *schema.Model, row quote.Row, newPK string) string {
	colNames := []string{m.PrimaryKey().Name}
	selectExprs := []string{quote.Literal(newPK)}
	var joins []string

	for _, c := range m.Columns {
		switch target, isFK := m.RelatedModelFor(c.Name); {
		case c.IsPrimaryKey, c.Type.IsCollection:
			continue
		case isFK:
			mapTable := idmap.TableName(target)
			colNames = append(colNames, c.Name)
			selectExprs = append(selectExprs, mapTable+".new_id")
			joins = append(joins, fmt.Sprintf("LEFT JOIN %s ON %s.old_id = %s", mapTable, mapTable, row.Quoted[c.Name]))
		case c.IsRegular(s):
			colNames = append(colNames, c.Name)
			selectExprs = append(selectExprs, row.Quoted[c.Name])
		}
	}

	stmt := fmt.Sprintf("INSERT INTO %q (%s) SELECT %s FROM (SELECT 1) AS dummy",
		m.Name, quotedIdentList(colNames), joinList(selectExprs))
	for _, j := range joins {
		stmt += "\n" + j
	}
	stmt += "\nLIMIT 1"
	return stmt
}

func quotedIdentList(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%q", n)
	}
	return out
}

func joinList(exprs []string) string {
	out := ""
	for i, e := range exprs {
		if i > 0 {
			out += ", "
		}
		out += e
	}
	return out
}

// MergeModel merges model m from sources into dest, per spec.md §4.6. It
// assumes every model m depends on (per the relation graph) has already
// been fully merged, including its identity-map indices (spec.md §5
// ordering guarantee); callers are expected to drive models in topo.
// Schedule order.
func MergeModel(ctx context.Context, dest *sql.DB, sources []*sql.DB, s schema.Schema, m *schema.Model, threshold int, reporter progress.Reporter) error {
	if err := idmap.Create(ctx, dest, m.Name); err != nil {
		return err
	}

	cols := valueColumns(s, m)
	p, hasProbe := probe.Compile(m)

	primaryIdx, total, err := pickPrimary(ctx, sources, m)
	if err != nil {
		return err
	}

	reporter.StartModel(m.Name, total)

	b := batch.New(dest, threshold)
	mapTable := idmap.TableName(m.Name)

	for _, srcIdx := range sourceOrder(len(sources), primaryIdx) {
		isPrimary := srcIdx == primaryIdx
		src := sources[srcIdx]

		err := quote.Each(ctx, src, m, cols, func(row quote.Row) error {
			oldPK := row.UnquotedPK

			var newPK string
			matched := false
			if !isPrimary && hasProbe {
				existingPK, found, err := p.Run(ctx, dest, row.Quoted)
				if err != nil {
					return err
				}
				if found {
					matched = true
					newPK = existingPK
				}
			}

			if !matched {
				if isPrimary {
					newPK = oldPK
				} else {
					newPK = idgen.New()
				}
				n, err := b.Insert(ctx, buildInsert(s, m, row, newPK))
				if err != nil {
					return err
				}
				reporter.Advance(m.Name, n)
			}

			mapStmt := fmt.Sprintf("INSERT INTO %s (old_id, new_id) VALUES (%s, %s)",
				mapTable, quote.Literal(oldPK), quote.Literal(newPK))

			if matched {
				// The matched row represents a processed source row that
				// hasn't been counted yet (step 3 was skipped for it).
				n, err := b.Insert(ctx, mapStmt)
				if err != nil {
					return err
				}
				reporter.Advance(m.Name, n)
			} else {
				n, err := b.InsertSupporting(ctx, mapStmt)
				if err != nil {
					return err
				}
				reporter.Advance(m.Name, n)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("merge %s from source %d: %w", m.Name, srcIdx, err)
		}

		// Flush before moving to the next source: a later source's probe
		// queries this source's rows directly in dest, so they must be
		// committed, not sitting unflushed in the batch buffer.
		n, err := b.Flush(ctx)
		if err != nil {
			return err
		}
		reporter.Advance(m.Name, n)
	}

	if err := idmap.CreateIndices(ctx, dest, m.Name); err != nil {
		return err
	}

	reporter.FinishModel(m.Name)
	return nil
}
