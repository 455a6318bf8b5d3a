package sqltypes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func keysOf(d *Dataset) []any {
	out := []any{}
	for _, id := range d.Keys() {
		out = append(out, id.Any())
	}
	return out
}

func TestDataset_PutPreservesInsertionOrder(t *testing.T) {
	d := NewDataset()
	d.Put(NewInt(10), RowOf("id", 10))
	d.Put(NewInt(20), RowOf("id", 20))
	d.Put(NewInt(30), RowOf("id", 30))

	require.Equal(t, []any{int64(10), int64(20), int64(30)}, keysOf(d))

	// Overwrite keeps position.
	d.Put(NewInt(20), RowOf("id", 20, "x", "y"))
	require.Equal(t, []any{int64(10), int64(20), int64(30)}, keysOf(d))
	r, ok := d.Get(NewInt(20))
	require.True(t, ok)
	require.Equal(t, NewString("y"), r.GetOrNull("x"))
}

func TestDataset_RekeyKeepsPosition(t *testing.T) {
	d := NewDataset()
	d.Put(NewInt(10), RowOf("id", 10))
	d.Put(NewInt(20), RowOf("id", 20))
	d.Put(NewInt(30), RowOf("id", 30))

	d.Rekey(NewInt(20), NewInt(25), RowOf("id", 25))

	require.Equal(t, []any{int64(10), int64(25), int64(30)}, keysOf(d))
	require.False(t, d.Has(NewInt(20)))
	r, ok := d.Get(NewInt(25))
	require.True(t, ok)
	require.Equal(t, NewInt(25), r.GetOrNull("id"))
}

func TestDataset_Reorder(t *testing.T) {
	d := NewDataset()
	d.Put(NewInt(1), RowOf("id", 1))
	d.Put(NewInt(2), RowOf("id", 2))
	d.Put(NewInt(3), RowOf("id", 3))

	out := d.Reorder([]RowID{NewInt(3), NewInt(1), NewInt(9)})
	require.Equal(t, []any{int64(3), int64(1)}, keysOf(out))
}

func TestDataset_CloneIsDeep(t *testing.T) {
	d := NewDataset()
	d.Put(NewInt(1), RowOf("id", 1, "name", "a"))

	cp := d.Clone()
	r, _ := cp.Get(NewInt(1))
	r.Set("name", NewString("b"))
	cp.Put(NewInt(1), r)

	orig, _ := d.Get(NewInt(1))
	require.Equal(t, NewString("a"), orig.GetOrNull("name"))
}

func TestRow_InsertionOrderAndDelete(t *testing.T) {
	r := NewRow()
	r.Set("a", NewInt(1))
	r.Set("b", NewInt(2))
	r.Set("c", NewInt(3))
	require.Equal(t, []string{"a", "b", "c"}, r.Columns())

	r.Set("b", NewInt(9))
	require.Equal(t, []string{"a", "b", "c"}, r.Columns())

	r.Delete("b")
	require.Equal(t, []string{"a", "c"}, r.Columns())
	require.False(t, r.Has("b"))
}
