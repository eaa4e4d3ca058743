// Package schema defines the declarative model the merge engine consumes.
//
// The shapes here mirror what a Prisma-style schema compiler produces as its
// last step: a flat map of named models, each with an ordered column list.
// Parsing the actual .prisma grammar is out of scope for this package — see
// Load, which reads the already-compiled JSON form.
package schema

import (
	"errors"
	"fmt"
)

// ErrViolation marks the fatal, reported-before-any-merging class of
// schema error spec.md §7 calls "Schema violation": a model without a
// primary key, or a declared unique column that isn't on the model.
var ErrViolation = errors.New("schema violation")

// Schema maps a model name to its definition. Models carry no declared
// order; callers that need one (the merge engine) impose it themselves.
type Schema map[string]*Model

// Model is a logical table: a name, an ordered column list, an optional
// composite unique constraint, and the index of its single primary key
// column.
type Model struct {
	Name string
	// Columns preserves declaration order; PrimaryKeyIndex refers to a
	// position in it, while Relation.LocalFields/ReferencedFields refer to
	// columns by name.
	Columns []Column
	// UniqueFields is the model's declared composite unique constraint, in
	// column-name form. May be empty.
	UniqueFields []string
	// PrimaryKeyIndex is the index into Columns of the single primary key
	// column. Always valid after Load succeeds.
	PrimaryKeyIndex int
}

// PrimaryKey returns the model's primary key column.
func (m *Model) PrimaryKey() Column {
	return m.Columns[m.PrimaryKeyIndex]
}

// Column describes one field on a Model.
type Column struct {
	Name         string
	Type         ColumnType
	Relation     *Relation
	IsUnique     bool
	IsPrimaryKey bool
}

// ColumnType names the column's scalar or model type and whether it is a
// list or nullable.
type ColumnType struct {
	Name         string
	IsCollection bool
	IsNullable   bool
}

// Relation describes a foreign key: the local columns that carry it and the
// columns it references on the target model (named by Column.Type.Name).
type Relation struct {
	LocalFields      []string
	ReferencedFields []string
}

// IsRegular reports whether c is a plain scalar column: not the primary
// key, not a collection, carries no relation, and its type does not name
// another model.
//
// s is the Schema the column's Model belongs to; a column whose type
// name matches another model in the schema is never regular even if it
// carries no explicit Relation (defensive: malformed schema documents).
func (c Column) IsRegular(s Schema) bool {
	if c.IsPrimaryKey || c.Type.IsCollection || c.Relation != nil {
		return false
	}
	_, isModelType := s[c.Type.Name]
	return !isModelType
}

// RegularColumns returns m's regular columns (see Column.IsRegular), in
// declaration order.
func (m *Model) RegularColumns(s Schema) []Column {
	var out []Column
	for _, c := range m.Columns {
		if c.IsRegular(s) {
			out = append(out, c)
		}
	}
	return out
}

// RelationColumns returns m's columns that carry a Relation, in declaration
// order.
func (m *Model) RelationColumns() []Column {
	var out []Column
	for _, c := range m.Columns {
		if c.Relation != nil {
			out = append(out, c)
		}
	}
	return out
}

// RelatedModelFor returns the target model name for the column named
// fieldName if some column on m carries a Relation whose LocalFields
// contains fieldName. The second return is false if no such relation
// exists (fieldName is a plain column, not part of any foreign key).
func (m *Model) RelatedModelFor(fieldName string) (targetModel string, ok bool) {
	for _, c := range m.Columns {
		if c.Relation == nil {
			continue
		}
		for _, lf := range c.Relation.LocalFields {
			if lf == fieldName {
				return c.Type.Name, true
			}
		}
	}
	return "", false
}

// Validate checks the invariants spec-required of every model in s:
// exactly one primary key column, and a declared unique constraint that
// names only columns that actually exist on the model. It does not check
// for cycles in the relation graph (a documented non-goal).
func (s Schema) Validate() error {
	for name, m := range s {
		pkCount := 0
		colNames := make(map[string]bool, len(m.Columns))
		for i, c := range m.Columns {
			colNames[c.Name] = true
			if c.IsPrimaryKey {
				pkCount++
				m.PrimaryKeyIndex = i
			}
		}
		if pkCount != 1 {
			return fmt.Errorf("%w: model %q has %d primary key columns, want exactly 1", ErrViolation, name, pkCount)
		}
		for _, uf := range m.UniqueFields {
			if !colNames[uf] {
				return fmt.Errorf("%w: model %q declares unique field %q which is not a column on the model", ErrViolation, name, uf)
			}
		}
	}
	return nil
}

// UniqueConstraint returns the model's effective unique constraint: its
// declared composite UniqueFields if present, otherwise the name of the
// first column individually marked IsUnique. The second return is false
// if the model has neither.
func (m *Model) UniqueConstraint() ([]string, bool) {
	if len(m.UniqueFields) > 0 {
		return m.UniqueFields, true
	}
	for _, c := range m.Columns {
		if c.IsUnique {
			return []string{c.Name}, true
		}
	}
	return nil, false
}
