package probe

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/camertron/prismerge/internal/idmap"
	"github.com/camertron/prismerge/internal/schema"
)

func openMem(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func todoListModel() *schema.Model {
	return &schema.Model{
		Name: "TodoList",
		Columns: []schema.Column{
			{Name: "id", IsPrimaryKey: true},
			{Name: "name"},
			{
				Name:     "ownerId",
				Type:     schema.ColumnType{Name: "Owner"},
				Relation: &schema.Relation{LocalFields: []string{"ownerId"}, ReferencedFields: []string{"id"}},
			},
		},
		UniqueFields: []string{"name", "ownerId"},
	}
}

func TestCompileReturnsFalseWithoutUniqueConstraint(t *testing.T) {
	m := &schema.Model{Name: "X", Columns: []schema.Column{{Name: "id", IsPrimaryKey: true}}}
	_, ok := Compile(m)
	require.False(t, ok)
}

func TestProbeFindsExistingRowThroughForeignKeyJoin(t *testing.T) {
	db := openMem(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `CREATE TABLE TodoList (id TEXT PRIMARY KEY, name TEXT, ownerId TEXT)`)
	require.NoError(t, err)
	require.NoError(t, idmap.Create(ctx, db, "Owner"))
	_, err = db.ExecContext(ctx, `INSERT INTO Owner_id_map (old_id, new_id) VALUES ('owner-old', 'owner-new')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO TodoList (id, name, ownerId) VALUES ('todo-1', 'Chores', 'owner-new')`)
	require.NoError(t, err)

	p, ok := Compile(todoListModel())
	require.True(t, ok)

	newPK, found, err := p.Run(ctx, db, map[string]string{
		"name":    "'Chores'",
		"ownerId": "'owner-old'",
	})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "todo-1", newPK)
}

func TestProbeMissesWhenNoMatch(t *testing.T) {
	db := openMem(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `CREATE TABLE TodoList (id TEXT PRIMARY KEY, name TEXT, ownerId TEXT)`)
	require.NoError(t, err)
	require.NoError(t, idmap.Create(ctx, db, "Owner"))

	p, ok := Compile(todoListModel())
	require.True(t, ok)

	_, found, err := p.Run(ctx, db, map[string]string{
		"name":    "'Errands'",
		"ownerId": "'owner-old'",
	})
	require.NoError(t, err)
	require.False(t, found)
}

func TestProbePlainColumnWithoutJoin(t *testing.T) {
	db := openMem(t)
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `CREATE TABLE Owner (id TEXT PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO Owner (id, name) VALUES ('id-1', 'Woody')`)
	require.NoError(t, err)

	m := &schema.Model{
		Name: "Owner",
		Columns: []schema.Column{
			{Name: "id", IsPrimaryKey: true},
			{Name: "name", IsUnique: true},
		},
	}
	p, ok := Compile(m)
	require.True(t, ok)

	newPK, found, err := p.Run(ctx, db, map[string]string{"name": "'Woody'"})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "id-1", newPK)
}
