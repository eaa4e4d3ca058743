package quote

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

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

func TestBuildSelectShape(t *testing.T) {
	m := &schema.Model{
		Name: "Owner",
		Columns: []schema.Column{
			{Name: "id", IsPrimaryKey: true},
			{Name: "name"},
		},
		PrimaryKeyIndex: 0,
	}
	stmt := BuildSelect(m, []schema.Column{m.Columns[1]})
	require.Contains(t, stmt, `"id" AS unquotedPk`)
	require.Contains(t, stmt, `quote("id") AS "id"`)
	require.Contains(t, stmt, `quote("name") AS "name"`)
	require.Contains(t, stmt, `FROM "Owner"`)
}

func TestEachStreamsAllRowsWithQuotedValues(t *testing.T) {
	db := openMem(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `CREATE TABLE Owner (id TEXT PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO Owner (id, name) VALUES ('id-1', 'Woody'), ('id-2', 'Jessie''s')`)
	require.NoError(t, err)

	m := &schema.Model{
		Name: "Owner",
		Columns: []schema.Column{
			{Name: "id", IsPrimaryKey: true},
			{Name: "name"},
		},
	}

	var rows []Row
	err = Each(ctx, db, m, []schema.Column{m.Columns[1]}, func(r Row) error {
		rows = append(rows, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, "id-1", rows[0].UnquotedPK)
	require.Equal(t, "'id-1'", rows[0].Quoted["id"])
	require.Equal(t, "'Woody'", rows[0].Quoted["name"])

	// SQLite's quote() doubles embedded single quotes.
	require.Equal(t, "'Jessie''s'", rows[1].Quoted["name"])
}

func TestEachPropagatesCallbackError(t *testing.T) {
	db := openMem(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `CREATE TABLE Owner (id TEXT PRIMARY KEY)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO Owner (id) VALUES ('a'), ('b')`)
	require.NoError(t, err)

	m := &schema.Model{Name: "Owner", Columns: []schema.Column{{Name: "id", IsPrimaryKey: true}}}

	boom := require.New(t)
	calls := 0
	err = Each(ctx, db, m, nil, func(Row) error {
		calls++
		return sql.ErrNoRows
	})
	boom.ErrorIs(err, sql.ErrNoRows)
	boom.Equal(1, calls)
}
