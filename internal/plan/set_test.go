package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/mimicsql/internal/expression"
	"github.com/tuannm99/mimicsql/internal/indexrefs"
	"github.com/tuannm99/mimicsql/internal/schema"
	"github.com/tuannm99/mimicsql/internal/sqlerr"
	"github.com/tuannm99/mimicsql/internal/sqltypes"
)

func usersSchema() *schema.TableSchema {
	return &schema.TableSchema{
		Name: "users",
		Fields: []schema.Column{
			{Name: "id", Type: schema.ColInt64},
			{Name: "email", Type: schema.ColText},
			{Name: "name", Type: schema.ColText},
			{Name: "count", Type: schema.ColInt64},
		},
		Indexes: []schema.Index{
			{Name: "PRIMARY", Kind: schema.IndexPrimary, Fields: []string{"id"}},
			{Name: "email", Kind: schema.IndexUnique, Fields: []string{"email"}},
			{Name: "by_name", Kind: schema.IndexPlain, Fields: []string{"name"}},
		},
	}
}

// usersTable seeds a table and fully populated index refs.
func usersTable(rows ...sqltypes.Row) (*sqltypes.Dataset, indexrefs.Refs) {
	data := sqltypes.NewDataset()
	refs := indexrefs.Refs{}
	ts := usersSchema()
	for _, r := range rows {
		id := r.GetOrNull("id")
		data.Put(id, r)
		for _, k := range indexrefs.ComputeKeys(ts.Indexes, r) {
			indexrefs.Add(refs.Root(k.Index), k.Path, k.StoreUnique, id)
		}
	}
	return data, refs
}

func assign(c string, e expression.Expr) Assignment {
	return Assignment{Column: col(c), Expr: e}
}

func applySet(
	t *testing.T,
	conn *fakeConn,
	data *sqltypes.Dataset,
	refs indexrefs.Refs,
	filtered []sqltypes.RowID,
	set []Assignment,
	values *sqltypes.Row,
	ignoreDupes bool,
) (int, error) {
	t.Helper()
	q := &Query{IgnoreDupes: ignoreDupes}
	n, _, _, err := q.ApplySet(
		conn, "testdb", "users",
		data.Reorder(filtered), data, refs,
		set, usersSchema(), values)
	return n, err
}

func TestApplySet_UnknownColumnIsRuntimeError(t *testing.T) {
	data, refs := usersTable(sqltypes.RowOf("id", 1, "email", "a@b", "name", "ann", "count", 0))
	conn := newFakeConn(&fakeServer{})

	_, err := applySet(t, conn, data, refs,
		[]sqltypes.RowID{sqltypes.NewInt(1)},
		[]Assignment{assign("nope", lit(1))}, nil, false)
	require.Error(t, err)
	require.True(t, sqlerr.ErrRuntime.Is(err))
}

// Property: assigning every column its current value is a no-op.
func TestApplySet_SelfAssignmentIsNoOp(t *testing.T) {
	data, refs := usersTable(sqltypes.RowOf("id", 1, "email", "a@b", "name", "ann", "count", 0))
	before := refs.Clone()
	srv := &fakeServer{}
	conn := newFakeConn(srv)
	conn.qc.InRequest = true

	n, err := applySet(t, conn, data, refs,
		[]sqltypes.RowID{sqltypes.NewInt(1)},
		[]Assignment{assign("name", col("name"))}, nil, false)
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.Equal(t, before, refs)
	require.Empty(t, conn.qc.DirtyPKs)
	require.Equal(t, 1, srv.saveCalls)
}

func TestApplySet_UpdatesRowAndIndexes(t *testing.T) {
	data, refs := usersTable(
		sqltypes.RowOf("id", 1, "email", "a@b", "name", "ann", "count", 0),
		sqltypes.RowOf("id", 2, "email", "c@d", "name", "bob", "count", 0),
	)
	conn := newFakeConn(&fakeServer{})
	conn.qc.InRequest = true

	n, err := applySet(t, conn, data, refs,
		[]sqltypes.RowID{sqltypes.NewInt(1)},
		[]Assignment{assign("name", lit("anna"))}, nil, false)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	row, _ := data.Get(sqltypes.NewInt(1))
	require.Equal(t, sqltypes.NewString("anna"), row.GetOrNull("name"))

	// Old index position gone, new one present.
	require.Empty(t, indexrefs.Collect(refs.Root("by_name"),
		[]sqltypes.Value{sqltypes.NewString("ann")}))
	require.Equal(t, []sqltypes.RowID{sqltypes.NewInt(1)},
		indexrefs.Collect(refs.Root("by_name"),
			[]sqltypes.Value{sqltypes.NewString("anna")}))

	require.True(t, conn.qc.IsDirty(sqltypes.NewInt(1)))
}

// Scenario: rekeying the primary key keeps the row's position.
func TestApplySet_PKRekeyPreservesPosition(t *testing.T) {
	data, refs := usersTable(
		sqltypes.RowOf("id", 10, "email", "a@b", "name", "a", "count", 0),
		sqltypes.RowOf("id", 20, "email", "c@d", "name", "b", "count", 0),
		sqltypes.RowOf("id", 30, "email", "e@f", "name", "c", "count", 0),
	)
	conn := newFakeConn(&fakeServer{})

	n, err := applySet(t, conn, data, refs,
		[]sqltypes.RowID{sqltypes.NewInt(20)},
		[]Assignment{assign("id", lit(25))}, nil, false)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, []any{int64(10), int64(25), int64(30)}, ids(data))

	row, ok := data.Get(sqltypes.NewInt(25))
	require.True(t, ok)
	require.Equal(t, sqltypes.NewInt(25), row.GetOrNull("id"))
}

// Property: reassigning the PK to an existing value either fails or, with
// IGNORE, skips the row as a no-op.
func TestApplySet_PKCollision(t *testing.T) {
	seed := func() (*sqltypes.Dataset, indexrefs.Refs) {
		return usersTable(
			sqltypes.RowOf("id", 1, "email", "a@b", "name", "a", "count", 0),
			sqltypes.RowOf("id", 2, "email", "c@d", "name", "b", "count", 0),
		)
	}

	data, refs := seed()
	conn := newFakeConn(&fakeServer{})
	_, err := applySet(t, conn, data, refs,
		[]sqltypes.RowID{sqltypes.NewInt(2)},
		[]Assignment{assign("id", lit(1))}, nil, false)
	require.Error(t, err)
	require.True(t, sqlerr.ErrUniqueKeyViolation.Is(err))
	require.Contains(t, err.Error(), "PRIMARY")

	data, refs = seed()
	n, err := applySet(t, conn, data, refs,
		[]sqltypes.RowID{sqltypes.NewInt(2)},
		[]Assignment{assign("id", lit(1))}, nil, true)
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.Equal(t, []any{int64(1), int64(2)}, ids(data))
}

func TestApplySet_UniqueSecondaryCollision(t *testing.T) {
	data, refs := usersTable(
		sqltypes.RowOf("id", 1, "email", "a@b", "name", "a", "count", 0),
		sqltypes.RowOf("id", 2, "email", "c@d", "name", "b", "count", 0),
	)
	conn := newFakeConn(&fakeServer{})

	_, err := applySet(t, conn, data, refs,
		[]sqltypes.RowID{sqltypes.NewInt(2)},
		[]Assignment{assign("email", lit("a@b"))}, nil, false)
	require.Error(t, err)
	require.True(t, sqlerr.ErrUniqueKeyViolation.Is(err))
	require.Contains(t, err.Error(), "email")
}

func TestApplySet_RelaxedUniqueConstraintsProceed(t *testing.T) {
	data, refs := usersTable(
		sqltypes.RowOf("id", 1, "email", "a@b", "name", "a", "count", 0),
		sqltypes.RowOf("id", 2, "email", "c@d", "name", "b", "count", 0),
	)
	conn := newFakeConn(&fakeServer{})
	conn.qc.RelaxUniqueConstraints = true

	n, err := applySet(t, conn, data, refs,
		[]sqltypes.RowID{sqltypes.NewInt(2)},
		[]Assignment{assign("email", lit("a@b"))}, nil, false)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	row, _ := data.Get(sqltypes.NewInt(2))
	require.Equal(t, sqltypes.NewString("a@b"), row.GetOrNull("email"))
}

// Scenario: ON DUPLICATE KEY UPDATE reading VALUES(count).
func TestApplySet_InsertValuesChannel(t *testing.T) {
	data, refs := usersTable(
		sqltypes.RowOf("id", 1, "email", "a@b", "name", "a", "count", 4),
	)
	srv := &fakeServer{}
	conn := newFakeConn(srv)

	values := sqltypes.RowOf("id", 1, "email", "a@b", "name", "a", "count", 3)
	sum := &expression.BinaryOp{Op: "+",
		Left:  col("count"),
		Right: &expression.ValuesRef{Column: "count"},
	}

	n, err := applySet(t, conn, data, refs,
		[]sqltypes.RowID{sqltypes.NewInt(1)},
		[]Assignment{assign("count", sum)}, &values, false)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	row, _ := srv.savedData.Get(sqltypes.NewInt(1))
	require.Equal(t, sqltypes.NewInt(7), row.GetOrNull("count"))
	for _, c := range row.Columns() {
		require.NotContains(t, c, expression.InsertValuesPrefix)
	}
}

func TestApplySet_StrictCoercionError(t *testing.T) {
	data, refs := usersTable(
		sqltypes.RowOf("id", 1, "email", "a@b", "name", "a", "count", 0),
	)
	conn := newFakeConn(&fakeServer{})
	conn.qc.StrictSQLMode = true

	_, err := applySet(t, conn, data, refs,
		[]sqltypes.RowID{sqltypes.NewInt(1)},
		[]Assignment{assign("count", lit("oops"))}, nil, false)
	require.Error(t, err)
	require.True(t, sqlerr.ErrSchemaCoercion.Is(err))
}

// Property: every row stays reachable through every applicable index
// after a sequence of updates.
func TestApplySet_IndexesStayConsistent(t *testing.T) {
	data, refs := usersTable(
		sqltypes.RowOf("id", 1, "email", "a@b", "name", "x", "count", 0),
		sqltypes.RowOf("id", 2, "email", "c@d", "name", "x", "count", 0),
		sqltypes.RowOf("id", 3, "email", "e@f", "name", "y", "count", 0),
	)
	conn := newFakeConn(&fakeServer{})
	ts := usersSchema()

	steps := [][]Assignment{
		{assign("name", lit("z"))},
		{assign("email", col("name"))},
		{assign("id", lit(9))},
	}
	targets := []sqltypes.RowID{sqltypes.NewInt(1), sqltypes.NewInt(2), sqltypes.NewInt(3)}

	for i, set := range steps {
		conn.qc.RelaxUniqueConstraints = true
		_, err := applySet(t, conn, data, refs, []sqltypes.RowID{targets[i]}, set, nil, false)
		require.NoError(t, err)

		data.Each(func(id sqltypes.RowID, row sqltypes.Row) bool {
			for _, k := range indexrefs.ComputeKeys(ts.Indexes, row) {
				found := indexrefs.Collect(refs.Root(k.Index), k.Path)
				require.Contains(t, found, id,
					"row %v missing from index %s after step %d", id, k.Index, i)
			}
			return true
		})
	}
}
