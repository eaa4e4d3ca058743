// Package probe builds and runs the unique-index existence check a merge
// uses to decide whether a secondary-source row duplicates a row already
// materialized in the destination (spec.md §4.5).
package probe

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/camertron/prismerge/internal/idmap"
	"github.com/camertron/prismerge/internal/quote"
	"github.com/camertron/prismerge/internal/schema"
)

// Probe is compiled once per model that declares a unique constraint.
type Probe struct {
	model string
	pk    string
	// columns are the unique constraint's member columns in order; Run
	// substitutes the quoted value stored under each entry's column name
	// into the matching placeholder. Each entry also records whether it is a
	// foreign key and, if so, which model it targets.
	columns []member
	// template has one %s placeholder per member, filled in textually (not
	// via parameter binding — spec.md §4.5 requires textual substitution
	// because values already arrive safely quoted).
	template string
}

type member struct {
	column       string
	relatedModel string
	isForeignKey bool
}

// Compile builds a Probe for m using its effective unique constraint. ok is
// false if m has no unique constraint (nothing to probe).
func Compile(m *schema.Model) (p *Probe, ok bool) {
	fields, has := m.UniqueConstraint()
	if !has {
		return nil, false
	}

	members := make([]member, len(fields))
	var joins []string
	var wheres []string
	for i, f := range fields {
		if target, isFK := m.RelatedModelFor(f); isFK {
			members[i] = member{column: f, relatedModel: target, isForeignKey: true}
			mapTable := idmap.TableName(target)
			joins = append(joins, fmt.Sprintf("JOIN %s ON %q.%q = %s.new_id", mapTable, m.Name, f, mapTable))
			wheres = append(wheres, fmt.Sprintf("%s.old_id = %%s", mapTable))
		} else {
			members[i] = member{column: f}
			wheres = append(wheres, fmt.Sprintf("%q = %%s", f))
		}
	}

	pk := m.PrimaryKey().Name
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT quote(%q) AS %q FROM %q\n", pk, pk, m.Name)
	for _, j := range joins {
		b.WriteString(j)
		b.WriteString("\n")
	}
	b.WriteString("WHERE ")
	b.WriteString(strings.Join(wheres, " AND "))
	b.WriteString("\nLIMIT 1;")

	return &Probe{model: m.Name, pk: pk, columns: members, template: b.String()}, true
}

// Run substitutes each unique-member column's already-quoted source value
// (keyed by column name, as produced by the quote package) into the
// template and executes it against dest. It returns the matched
// destination primary key (already unquoted — the literal stored, stripped
// of its SQL quoting) and true if a match was found.
//
// For a foreign-key member, the source's quoted foreign-key literal is
// matched against the referenced model's map table old_id; the JOIN itself
// aligns the destination row's column with that map table's new_id and
// takes no substituted value. The map tables store the raw key text, which
// is what the quoted literal evaluates to.
func (p *Probe) Run(ctx context.Context, dest *sql.DB, quotedValues map[string]string) (newPK string, found bool, err error) {
	vals := make([]any, 0, len(p.columns))
	for _, m := range p.columns {
		v, ok := quotedValues[m.column]
		if !ok {
			return "", false, fmt.Errorf("probe %s: missing quoted value for column %s", p.model, m.column)
		}
		vals = append(vals, v)
	}
	query := fmt.Sprintf(p.template, vals...)

	var quotedPK string
	row := dest.QueryRowContext(ctx, query)
	if err := row.Scan(&quotedPK); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("probe %s: %w", p.model, err)
	}
	return quote.Unquote(quotedPK), true, nil
}
