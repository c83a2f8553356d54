package sqldb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/planreport/internal/tabledb"
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Exec(context.Background(),
		`CREATE TABLE items (id TEXT PRIMARY KEY, owner TEXT, amount DOUBLE PRECISION, qty INTEGER, created_at TEXT)`))
	return db
}

func TestCRUD(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.Insert(ctx, "items", tabledb.Row{"id": "a", "owner": "u1", "amount": 10.5, "qty": 2, "created_at": created}))
	require.NoError(t, db.Insert(ctx, "items", tabledb.Row{"id": "b", "owner": "u1", "amount": 3.0, "qty": 1, "created_at": created}))
	require.NoError(t, db.Insert(ctx, "items", tabledb.Row{"id": "c", "owner": "u2", "amount": 7.0, "qty": 5, "created_at": created}))

	rows, err := db.Select(ctx, "items", tabledb.Filter{"owner": "u1"}, "-amount")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].String("id"))
	assert.Equal(t, 10.5, rows[0].Float("amount"))
	assert.Equal(t, 2, rows[0].Int("qty"))
	assert.True(t, created.Equal(rows[0].Time("created_at")))

	n, err := db.Update(ctx, "items", tabledb.Row{"amount": 4.0}, tabledb.Filter{"id": "b", "owner": "u1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err = db.Select(ctx, "items", tabledb.Filter{"id": "b"}, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 4.0, rows[0].Float("amount"))

	n, err = db.Delete(ctx, "items", tabledb.Filter{"owner": "u1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rows, err = db.Select(ctx, "items", nil, "id")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "c", rows[0].String("id"))
}

func TestHasTable(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	ok, err := db.HasTable(ctx, "items")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.HasTable(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRejectsBadIdentifiers(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	assert.Error(t, db.Insert(ctx, "items; DROP TABLE items", tabledb.Row{"id": "x"}))
	assert.Error(t, db.Insert(ctx, "items", tabledb.Row{"id\"": "x"}))
	_, err := db.Select(ctx, "items", tabledb.Filter{"1bad": "x"}, "")
	assert.Error(t, err)
	_, err = db.Select(ctx, "items", nil, "-amount desc")
	assert.Error(t, err)
	_, err = db.Update(ctx, "items", nil, tabledb.Filter{"id": "x"})
	assert.Error(t, err)

	ok, err := db.HasTable(ctx, "items")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPlaceholders(t *testing.T) {
	pg := New(nil, "postgres")
	lite := New(nil, "sqlite3")

	clause, args, err := pg.where(tabledb.Filter{"b": 2, "a": 1}, 3)
	require.NoError(t, err)
	assert.Equal(t, ` WHERE "a" = $3 AND "b" = $4`, clause)
	assert.Equal(t, []any{1, 2}, args)

	clause, _, err = lite.where(tabledb.Filter{"a": 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, ` WHERE "a" = ?`, clause)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("mysql", "dsn")
	assert.Error(t, err)
}
