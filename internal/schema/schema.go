// Package schema models table definitions: columns, secondary indexes and
// the optional vitess sharding hint.
package schema

// ColumnType informs the planner of filter capability and drives coercion.
type ColumnType int

const (
	ColInt64 ColumnType = iota
	ColFloat64
	ColText
	ColBool
)

func (t ColumnType) String() string {
	switch t {
	case ColInt64:
		return "INT64"
	case ColFloat64:
		return "FLOAT64"
	case ColText:
		return "TEXT"
	case ColBool:
		return "BOOL"
	default:
		return "UNKNOWN"
	}
}

type Column struct {
	Name string
	Type ColumnType
}

type IndexKind string

const (
	IndexPrimary IndexKind = "PRIMARY"
	IndexUnique  IndexKind = "UNIQUE"
	IndexPlain   IndexKind = "INDEX"
)

// Index describes one table index. ForceUnique marks an index that stores
// single row-id leaves regardless of kind; it is set only on the synthetic
// sharding-key index.
type Index struct {
	Name        string
	Kind        IndexKind
	Fields      []string
	ForceUnique bool
}

// PrimarySingle reports whether this is a single-column PRIMARY index.
// Such an index is never materialized in index refs: the dataset key is
// that column's value.
func (ix Index) PrimarySingle() bool {
	return ix.Kind == IndexPrimary && len(ix.Fields) == 1
}

// VitessSharding marks a table sharded by one column. The executor keeps
// a synthetic index over the sharding key under the keyspace name.
type VitessSharding struct {
	Keyspace    string
	ShardingKey string
}

type TableSchema struct {
	Name     string
	Fields   []Column
	Indexes  []Index
	Sharding *VitessSharding
}

func (ts *TableSchema) Field(name string) (Column, bool) {
	for _, f := range ts.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Column{}, false
}

func (ts *TableSchema) HasField(name string) bool {
	_, ok := ts.Field(name)
	return ok
}

// FieldNames returns the declared column names in order.
func (ts *TableSchema) FieldNames() []string {
	out := make([]string, len(ts.Fields))
	for i, f := range ts.Fields {
		out[i] = f.Name
	}
	return out
}

// PrimaryIndex returns the PRIMARY index, if declared.
func (ts *TableSchema) PrimaryIndex() (Index, bool) {
	for _, ix := range ts.Indexes {
		if ix.Kind == IndexPrimary {
			return ix, true
		}
	}
	return Index{}, false
}

// PrimaryKeyFields returns the PK column set, empty without a PRIMARY index.
func (ts *TableSchema) PrimaryKeyFields() []string {
	if pk, ok := ts.PrimaryIndex(); ok {
		return pk.Fields
	}
	return nil
}

// ShardingIndex synthesizes the index entry for the sharding key, nil when
// the table is not sharded.
func (ts *TableSchema) ShardingIndex() *Index {
	if ts.Sharding == nil {
		return nil
	}
	return &Index{
		Name:        ts.Sharding.Keyspace,
		Kind:        IndexPlain,
		Fields:      []string{ts.Sharding.ShardingKey},
		ForceUnique: true,
	}
}
