package graph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/db2xlsx/internal/schema"
)

// fakeSchema is an in-memory introspector.
type fakeSchema struct {
	tables  []string
	columns map[string][]schema.ColumnInfo
	keys    map[string][]schema.ImportedKey
	errs    map[string]error

	keyCalls map[string]int
}

func newFakeSchema() *fakeSchema {
	return &fakeSchema{
		columns:  make(map[string][]schema.ColumnInfo),
		keys:     make(map[string][]schema.ImportedKey),
		errs:     make(map[string]error),
		keyCalls: make(map[string]int),
	}
}

// table declares a table with untyped columns.
func (f *fakeSchema) table(name string, cols ...string) *fakeSchema {
	f.tables = append(f.tables, name)
	for _, c := range cols {
		f.columns[name] = append(f.columns[name], schema.ColumnInfo{Name: c})
	}
	return f
}

// fk declares table.column -> parent.parentColumn.
func (f *fakeSchema) fk(table, column, parent, parentColumn string) *fakeSchema {
	f.keys[table] = append(f.keys[table], schema.ImportedKey{
		ReferencedTable:  parent,
		ReferencedColumn: parentColumn,
		Column:           column,
	})
	return f
}

func (f *fakeSchema) ListTables(ctx context.Context) ([]string, error) {
	return f.tables, nil
}

func (f *fakeSchema) ListColumns(ctx context.Context, table string) ([]schema.ColumnInfo, error) {
	if err := f.errs[table]; err != nil {
		return nil, err
	}
	return f.columns[table], nil
}

func (f *fakeSchema) ListImportedKeys(ctx context.Context, table string) ([]schema.ImportedKey, error) {
	f.keyCalls[table]++
	return f.keys[table], nil
}

func resolve(t *testing.T, s *fakeSchema, root string) *TableColumnMap {
	t.Helper()
	m, err := NewResolver(s, nil).Resolve(context.Background(), root)
	require.NoError(t, err)
	return m
}

func columnNames(cols []*Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func TestResolve_NoForeignKeys(t *testing.T) {
	s := newFakeSchema().table("t", "a", "b")

	m := resolve(t, s, "t")

	if m.Len() != 1 {
		t.Fatalf("Expected 1 table, got %d", m.Len())
	}
	assert.Equal(t, []string{"t"}, m.Tables())
	assert.Equal(t, []string{"a", "b"}, columnNames(m.Columns("t")))
	assert.Empty(t, m.Parents("t"))
}

func TestResolve_SingleForeignKey(t *testing.T) {
	s := newFakeSchema().
		table("orders", "id", "customer_id").
		table("customers", "id", "name").
		fk("orders", "customer_id", "customers", "id")

	m := resolve(t, s, "orders")

	assert.Equal(t, []string{"orders", "customers"}, m.Tables())

	col, ok := m.Column("orders", "customer_id")
	require.True(t, ok)
	require.True(t, col.IsForeignKey())
	assert.Equal(t, "customers", col.Imported.Table)
	assert.Equal(t, "id", col.Imported.Name)
	assert.True(t, m.Has(col.Imported.Table), "imported column must point into the map")

	id, ok := m.Column("orders", "id")
	require.True(t, ok)
	assert.False(t, id.IsForeignKey())
}

func TestResolve_Diamond(t *testing.T) {
	s := newFakeSchema().
		table("t", "id", "a_id", "b_id").
		table("a", "id", "p_id").
		table("b", "id", "p_id").
		table("p", "id", "name").
		fk("t", "a_id", "a", "id").
		fk("t", "b_id", "b", "id").
		fk("a", "p_id", "p", "id").
		fk("b", "p_id", "p", "id")

	m := resolve(t, s, "t")

	assert.Equal(t, []string{"t", "a", "p", "b"}, m.Tables())
	assert.Equal(t, []string{"id", "name"}, columnNames(m.Columns("p")))
	if s.keyCalls["p"] != 1 {
		t.Errorf("Expected p to be introspected once, got %d", s.keyCalls["p"])
	}
}

func TestResolve_CycleTerminates(t *testing.T) {
	s := newFakeSchema().
		table("t", "id", "a_id").
		table("a", "id", "t_id").
		fk("t", "a_id", "a", "id").
		fk("a", "t_id", "t", "id")

	m := resolve(t, s, "t")

	assert.Equal(t, []string{"t", "a"}, m.Tables())
	assert.Equal(t, 1, s.keyCalls["t"])
	assert.Equal(t, 1, s.keyCalls["a"])
}

func TestResolve_SelfReferenceStaysPlain(t *testing.T) {
	s := newFakeSchema().
		table("employee", "id", "manager_id", "name").
		fk("employee", "manager_id", "employee", "id")

	m := resolve(t, s, "employee")

	assert.Equal(t, []string{"employee"}, m.Tables())
	assert.Equal(t, []string{"id", "manager_id", "name"}, columnNames(m.Columns("employee")))
	for _, c := range m.Columns("employee") {
		if c.IsForeignKey() {
			t.Errorf("Column %s should not be a foreign key", c.Name)
		}
	}
}

func TestResolve_CompositeKey(t *testing.T) {
	s := newFakeSchema().
		table("x", "a", "b", "c").
		table("y", "d", "e", "f").
		table("z", "g", "h", "i").
		fk("y", "f", "x", "a").
		fk("z", "g", "y", "d").
		fk("z", "h", "y", "e")

	m := resolve(t, s, "z")

	assert.Equal(t, []string{"z", "y", "x"}, m.Tables())
	// Foreign key columns are recorded first, then the remaining columns.
	assert.Equal(t, []string{"g", "h", "i"}, columnNames(m.Columns("z")))
	assert.Equal(t, []string{"y"}, m.Parents("z"))
}

func TestResolve_ColumnWithTwoForeignKeys(t *testing.T) {
	s := newFakeSchema().
		table("t", "id", "ref").
		table("p", "id").
		table("q", "id").
		fk("t", "ref", "p", "id").
		fk("t", "ref", "q", "id")

	m := resolve(t, s, "t")

	assert.Equal(t, []string{"t", "p"}, m.Tables())
	col, _ := m.Column("t", "ref")
	assert.Equal(t, "p", col.Imported.Table)
}

func TestResolve_SchemaAccessFailure(t *testing.T) {
	boom := errors.New("no such table: p")
	s := newFakeSchema().
		table("t", "id", "p_id").
		fk("t", "p_id", "p", "id")
	s.errs["p"] = boom

	m, err := NewResolver(s, nil).Resolve(context.Background(), "t")

	require.Error(t, err)
	assert.Nil(t, m)
	assert.True(t, errors.Is(err, ErrSchemaAccess))
	assert.True(t, errors.Is(err, boom))
	if !strings.Contains(err.Error(), `"p"`) {
		t.Errorf("Error should name the failing table, got: %v", err)
	}
}

func TestResolve_NilIntrospector(t *testing.T) {
	_, err := NewResolver(nil, nil).Resolve(context.Background(), "t")
	assert.Error(t, err)
}
