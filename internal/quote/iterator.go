// Package quote streams rows out of a source database with every column
// value already quoted by the source's own SQL quote() function, so the
// merge driver can splice them into destination SQL without knowing their
// types (spec.md §4.4, §9 "textual value interpolation").
package quote

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/camertron/prismerge/internal/schema"
)

// Row is one source row, already shaped for the merge driver: the raw
// (unquoted) primary key, and a quoted SQL literal for every other selected
// column, keyed by column name.
type Row struct {
	// UnquotedPK is the raw primary key value, used to key identity-map
	// lookups.
	UnquotedPK string
	// Quoted holds the already-quoted SQL literal for the primary key and
	// every column passed as valueColumns, keyed by column name. The primary key is
	// present under its own column name in addition to UnquotedPK.
	Quoted map[string]string
}

// Literal renders s as a single-quoted SQL string literal, doubling any
// embedded single quotes. Used for primary keys the engine mints or
// unquotes itself (UUIDs, identity-map values) rather than values that
// already went through the source database's own quote() function.
func Literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Unquote reverses SQLite's quote() wrapping on a string value: strips the
// surrounding single quotes and un-doubles embedded ones, e.g. 'it''s' ->
// it's. Non-string quote() results (NULL, numbers, BLOB literals) are
// returned unchanged since the merge engine only ever unquotes primary
// keys, which are TEXT by invariant (spec.md §3).
func Unquote(s string) string {
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return s
	}
	return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
}

// BuildSelect returns the SELECT statement spec.md §4.4 describes for
// model m: the raw primary key, the quoted primary key, and the quoted
// form of every column in valueColumns.
//
// valueColumns must cover every column the merge driver will need a quoted
// source value for: both m's regular columns (spliced verbatim into insert
// statements) and its relation (foreign key) columns (used to join through
// identity-map tables, per spec.md §4.6 step 3 and §4.5). Collection
// columns have no flat SQL representation and must be excluded by the
// caller.
func BuildSelect(m *schema.Model, valueColumns []schema.Column) string {
	pk := m.PrimaryKey().Name
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %q AS unquotedPk,\n", pk)
	fmt.Fprintf(&b, "       quote(%q) AS %q", pk, pk)
	for _, c := range valueColumns {
		fmt.Fprintf(&b, ",\n       quote(%q) AS %q", c.Name, c.Name)
	}
	fmt.Fprintf(&b, "\nFROM %q", m.Name)
	return b.String()
}

// Each streams every row of the compiled select from src, invoking fn once
// per row without buffering the full result set (spec.md §4.4: "must
// tolerate arbitrary row counts without buffering the full result").
// Iteration stops and returns fn's error the first time fn returns one.
// See BuildSelect for what valueColumns must contain.
func Each(ctx context.Context, src *sql.DB, m *schema.Model, valueColumns []schema.Column, fn func(Row) error) error {
	pk := m.PrimaryKey().Name
	stmt := BuildSelect(m, valueColumns)

	rows, err := src.QueryContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("select %s rows: %w", m.Name, err)
	}
	defer rows.Close()

	// Scan destinations: unquotedPk, then one quoted string per selected
	// column (pk first, then valueColumns), matching BuildSelect's column
	// order.
	cols := append([]schema.Column{{Name: pk}}, valueColumns...)
	dest := make([]any, 1+len(cols))
	vals := make([]string, 1+len(cols))
	for i := range dest {
		dest[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scan %s row: %w", m.Name, err)
		}
		r := Row{
			UnquotedPK: vals[0],
			Quoted:     make(map[string]string, len(cols)),
		}
		for i, c := range cols {
			r.Quoted[c.Name] = vals[1+i]
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return rows.Err()
}
