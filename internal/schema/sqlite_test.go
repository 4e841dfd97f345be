package schema

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/db2xlsx/internal/config"

	_ "modernc.org/sqlite"
)

// openTestDB creates a SQLite file in a temp dir and runs the statements.
func openTestDB(t *testing.T, stmts ...string) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return db
}

func newSQLite(t *testing.T, db *sql.DB) Introspector {
	t.Helper()
	in, err := New(config.DriverSQLite, db, "", 5*time.Second)
	require.NoError(t, err)
	return in
}

func TestSQLiteListTables(t *testing.T) {
	db := openTestDB(t,
		`CREATE TABLE zeta (id INTEGER PRIMARY KEY AUTOINCREMENT)`,
		`CREATE TABLE alpha (id INTEGER PRIMARY KEY, name TEXT UNIQUE)`,
		`CREATE INDEX alpha_name ON alpha(name)`,
		`CREATE VIEW alpha_names AS SELECT name FROM alpha`,
	)
	in := newSQLite(t, db)

	tables, err := in.ListTables(context.Background())
	require.NoError(t, err)

	// Creation order; sqlite_sequence and indexes are not listed.
	assert.Equal(t, []string{"zeta", "alpha", "alpha_names"}, tables)
}

func TestSQLiteListColumns(t *testing.T) {
	db := openTestDB(t,
		`CREATE TABLE item (id INTEGER PRIMARY KEY, label VARCHAR(40), price REAL, raw BLOB, note)`,
	)
	in := newSQLite(t, db)

	cols, err := in.ListColumns(context.Background(), "item")
	require.NoError(t, err)

	assert.Equal(t, []ColumnInfo{
		{Name: "id", Type: "INTEGER"},
		{Name: "label", Type: "VARCHAR(40)"},
		{Name: "price", Type: "REAL"},
		{Name: "raw", Type: "BLOB"},
		{Name: "note", Type: ""},
	}, cols)
}

func TestSQLiteListImportedKeys(t *testing.T) {
	db := openTestDB(t,
		`CREATE TABLE x (a INTEGER PRIMARY KEY, b TEXT, c TEXT)`,
		`CREATE TABLE y (d INTEGER, e TEXT, f INTEGER REFERENCES x(a), PRIMARY KEY (d, e))`,
		`CREATE TABLE z (g INTEGER, h TEXT, i TEXT, FOREIGN KEY (g, h) REFERENCES y(d, e))`,
	)
	in := newSQLite(t, db)
	ctx := context.Background()

	keys, err := in.ListImportedKeys(ctx, "y")
	require.NoError(t, err)
	assert.Equal(t, []ImportedKey{{ReferencedTable: "x", ReferencedColumn: "a", Column: "f"}}, keys)

	keys, err = in.ListImportedKeys(ctx, "z")
	require.NoError(t, err)
	assert.Equal(t, []ImportedKey{
		{ReferencedTable: "y", ReferencedColumn: "d", Column: "g"},
		{ReferencedTable: "y", ReferencedColumn: "e", Column: "h"},
	}, keys)

	keys, err = in.ListImportedKeys(ctx, "x")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSQLiteImplicitForeignKeyTarget(t *testing.T) {
	db := openTestDB(t,
		`CREATE TABLE parent (a INTEGER, b TEXT, PRIMARY KEY (b, a))`,
		`CREATE TABLE child (x INTEGER, y TEXT, FOREIGN KEY (y, x) REFERENCES parent)`,
	)
	in := newSQLite(t, db)

	keys, err := in.ListImportedKeys(context.Background(), "child")
	require.NoError(t, err)

	// Implicit target columns follow the parent's primary key order.
	assert.Equal(t, []ImportedKey{
		{ReferencedTable: "parent", ReferencedColumn: "b", Column: "y"},
		{ReferencedTable: "parent", ReferencedColumn: "a", Column: "x"},
	}, keys)
}

func TestSQLiteImplicitTargetWithoutPrimaryKey(t *testing.T) {
	db := openTestDB(t,
		`CREATE TABLE parent (a INTEGER)`,
		`CREATE TABLE child (x INTEGER REFERENCES parent)`,
	)
	in := newSQLite(t, db)

	_, err := in.ListImportedKeys(context.Background(), "child")
	assert.Error(t, err)
}

func TestTableExists(t *testing.T) {
	db := openTestDB(t, `CREATE TABLE orders (id INTEGER)`)
	in := newSQLite(t, db)
	ctx := context.Background()

	ok, err := TableExists(ctx, in, "orders")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = TableExists(ctx, in, "Orders")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteForeignKeyTargetCase(t *testing.T) {
	db := openTestDB(t,
		`CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT)`,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER REFERENCES Customers(ID))`,
		`CREATE TABLE notes (order_id INTEGER, FOREIGN KEY (order_id) REFERENCES ORDERS)`,
	)
	in := newSQLite(t, db)
	ctx := context.Background()

	// References use the declared spelling, not the one in the DDL.
	keys, err := in.ListImportedKeys(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, []ImportedKey{{ReferencedTable: "customers", ReferencedColumn: "id", Column: "customer_id"}}, keys)

	keys, err = in.ListImportedKeys(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, []ImportedKey{{ReferencedTable: "orders", ReferencedColumn: "id", Column: "order_id"}}, keys)
}

func TestSQLiteDanglingForeignKeyKeepsName(t *testing.T) {
	db := openTestDB(t,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER REFERENCES Missing(id))`,
	)
	in := newSQLite(t, db)

	keys, err := in.ListImportedKeys(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, []ImportedKey{{ReferencedTable: "Missing", ReferencedColumn: "id", Column: "customer_id"}}, keys)
}
