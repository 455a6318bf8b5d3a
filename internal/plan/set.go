package plan

import (
	"strings"

	"github.com/tuannm99/mimicsql/internal/expression"
	"github.com/tuannm99/mimicsql/internal/indexrefs"
	"github.com/tuannm99/mimicsql/internal/integrity"
	"github.com/tuannm99/mimicsql/internal/schema"
	"github.com/tuannm99/mimicsql/internal/sqlerr"
	"github.com/tuannm99/mimicsql/internal/sqltypes"
)

// Assignment is one SET term: column = expression.
type Assignment struct {
	Column *expression.ColumnRef
	Expr   expression.Expr
}

// ApplySet runs the shared mutation path of UPDATE and INSERT ... ON
// DUPLICATE KEY UPDATE: it rewrites each filtered row, reconciles index
// refs, enforces uniqueness, records dirty primary keys and publishes the
// new snapshot via SaveTable.
//
// values, when non-nil, is the row an INSERT would have written; its
// columns are exposed to the SET expressions under a transient prefix so
// VALUES(col) can read them. The prefix never reaches persisted data.
func (q *Query) ApplySet(
	conn Connection,
	db, table string,
	filtered *sqltypes.Dataset,
	original *sqltypes.Dataset,
	refs indexrefs.Refs,
	set []Assignment,
	ts *schema.TableSchema,
	values *sqltypes.Row,
) (int, *sqltypes.Dataset, indexrefs.Refs, error) {
	qc := conn.QueryContext()

	assigned := make([]string, 0, len(set))
	for _, a := range set {
		col := a.Column.ColumnName()
		if ts != nil && !ts.HasField(col) {
			return 0, nil, nil, sqlerr.ErrRuntime.New("unknown column '" + col + "' in SET clause")
		}
		assigned = append(assigned, col)
	}

	var (
		pkFields []string
		pkSingle bool
		pkField  string
	)
	if ts != nil {
		pkFields = ts.PrimaryKeyFields()
		if pk, ok := ts.PrimaryIndex(); ok && pk.PrimarySingle() {
			pkSingle = true
			pkField = pk.Fields[0]
		}
	}
	pkChanged := overlaps(assigned, pkFields)

	var applicable []schema.Index
	if ts != nil {
		for _, ix := range ts.Indexes {
			if pkChanged || overlaps(assigned, ix.Fields) {
				applicable = append(applicable, ix)
			}
		}
		if sh := ts.ShardingIndex(); sh != nil {
			applicable = append(applicable, *sh)
		}
	}

	count := 0
	for _, id := range filtered.Keys() {
		row, ok := filtered.Get(id)
		if !ok {
			continue
		}

		updateRow := row.Clone()
		if values != nil {
			for _, col := range values.Columns() {
				updateRow.Set(expression.InsertValuesPrefix+col, values.GetOrNull(col))
			}
		}

		oldKeys := indexrefs.ComputeKeys(applicable, row)

		changed := false
		for _, a := range set {
			v, err := a.Expr.Evaluate(updateRow, conn)
			if err != nil {
				return count, nil, nil, err
			}
			if !updateRow.GetOrNull(a.Column.ColumnName()).StrictEqual(v) {
				changed = true
			}
			updateRow.Set(a.Column.ColumnName(), v)
		}
		if !changed {
			continue
		}

		newRow := updateRow.Clone()
		for _, col := range newRow.Columns() {
			if strings.HasPrefix(col, expression.InsertValuesPrefix) {
				newRow.Delete(col)
			}
		}

		if ts != nil {
			var err error
			newRow, err = integrity.CoerceToSchema(newRow, ts, qc.StrictSQLMode)
			if err != nil {
				return count, nil, nil, err
			}
		}

		newID := id
		if pkSingle {
			newID = newRow.GetOrNull(pkField)
		}

		newKeys := indexrefs.ComputeKeys(applicable, newRow)

		if ts != nil {
			if skip, err := q.checkUnique(qc, original, refs, ts, id, newID, newRow, newKeys); err != nil {
				return count, nil, nil, err
			} else if skip {
				continue
			}
		}

		// Delete-then-add so the uniqueness pre-check above saw the
		// pre-update state.
		for _, k := range oldKeys {
			indexrefs.Remove(refs.Root(k.Index), k.Path, k.StoreUnique, id)
		}
		for _, k := range newKeys {
			indexrefs.Add(refs.Root(k.Index), k.Path, k.StoreUnique, newID)
		}

		if qc.InRequest {
			qc.MarkDirty(newID)
		}

		if newID != id {
			original.Rekey(id, newID, newRow)
		} else {
			original.Put(id, newRow)
		}
		count++
	}

	if err := conn.Server().SaveTable(db, table, original, refs, qc.DirtyPKs); err != nil {
		return count, nil, nil, err
	}
	return count, original, refs, nil
}

// checkUnique runs the cheap pre-check, then the full constraint scan
// only when the pre-check flags a candidate collision. Returns skip=true
// when the row should be silently dropped from the statement.
func (q *Query) checkUnique(
	qc *QueryContext,
	original *sqltypes.Dataset,
	refs indexrefs.Refs,
	ts *schema.TableSchema,
	id, newID sqltypes.RowID,
	newRow sqltypes.Row,
	newKeys []indexrefs.Key,
) (bool, error) {
	keyViolation := newID != id && original.Has(newID)
	if !keyViolation {
		for _, k := range newKeys {
			if !k.StoreUnique {
				continue
			}
			root, ok := refs[k.Index]
			if !ok {
				continue
			}
			if other, found := indexrefs.WalkUnique(root, k.Path); found && other != id {
				keyViolation = true
				break
			}
		}
	}
	if !keyViolation {
		return false, nil
	}

	v := integrity.CheckUniqueConstraints(original, newRow, ts, &id)
	if v == nil {
		return false, nil
	}
	if q.IgnoreDupes {
		return true, nil
	}
	if qc.RelaxUniqueConstraints {
		return false, nil
	}
	return false, sqlerr.ErrUniqueKeyViolation.New(v.Constraint)
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
