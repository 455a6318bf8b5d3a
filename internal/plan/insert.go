package plan

import (
	"fmt"
	"strings"

	"github.com/tuannm99/mimicsql/internal/expression"
	"github.com/tuannm99/mimicsql/internal/indexrefs"
	"github.com/tuannm99/mimicsql/internal/integrity"
	"github.com/tuannm99/mimicsql/internal/schema"
	"github.com/tuannm99/mimicsql/internal/sqlerr"
	"github.com/tuannm99/mimicsql/internal/sqltypes"
)

// InsertQuery appends rows. A unique collision either fails, is skipped
// (INSERT IGNORE), or turns into an update of the conflicting row
// (ON DUPLICATE KEY UPDATE, routed through ApplySet).
type InsertQuery struct {
	Query

	Table   string
	Columns []string
	Values  [][]expression.Expr

	// Update holds the ON DUPLICATE KEY UPDATE assignments, empty when
	// the clause is absent.
	Update []Assignment
}

func (q *InsertQuery) Execute(conn Connection) (*Result, error) {
	db, table, err := q.ParseTableName(conn, q.Table)
	if err != nil {
		return nil, err
	}
	data, refs, ts, err := conn.Server().Table(db, table)
	if err != nil {
		return nil, err
	}
	qc := conn.QueryContext()
	indexes := allIndexes(ts)

	cols := q.Columns
	if len(cols) == 0 {
		if ts == nil {
			return nil, sqlerr.ErrRuntime.New(
				fmt.Sprintf("INSERT into %q requires a column list without a schema", table))
		}
		cols = ts.FieldNames()
	}

	var affected int64
	for _, exprs := range q.Values {
		if len(exprs) != len(cols) {
			return nil, sqlerr.ErrRuntime.New(fmt.Sprintf(
				"INSERT value count %d does not match column count %d",
				len(exprs), len(cols)))
		}

		row := sqltypes.NewRow()
		for i, e := range exprs {
			v, err := e.Evaluate(sqltypes.NewRow(), conn)
			if err != nil {
				return nil, err
			}
			row.Set(cols[i], v)
		}
		if ts != nil {
			row, err = integrity.CoerceToSchema(row, ts, qc.StrictSQLMode)
			if err != nil {
				return nil, err
			}
		}

		rowID := deriveRowID(ts, row, data)

		constraint := ""
		var conflictID *sqltypes.RowID
		if data.Has(rowID) {
			constraint = "PRIMARY"
			id := rowID
			conflictID = &id
		} else if ts != nil {
			if v := integrity.CheckUniqueConstraints(data, row, ts, nil); v != nil {
				constraint = v.Constraint
				id := v.ConflictID
				conflictID = &id
			}
		}

		if conflictID != nil {
			switch {
			case len(q.Update) > 0:
				target := data.Reorder([]sqltypes.RowID{*conflictID})
				n, _, _, err := q.ApplySet(
					conn, db, table, target, data, refs, q.Update, ts, &row)
				if err != nil {
					return nil, err
				}
				affected += int64(n)
			case q.IgnoreDupes:
				// dropped row, not counted
			default:
				return nil, sqlerr.ErrUniqueKeyViolation.New(constraint)
			}
			continue
		}

		data.Put(rowID, row)
		for _, k := range indexrefs.ComputeKeys(indexes, row) {
			indexrefs.Add(refs.Root(k.Index), k.Path, k.StoreUnique, rowID)
		}
		if qc.InRequest {
			qc.MarkDirty(rowID)
		}
		affected++
	}

	if err := conn.Server().SaveTable(db, table, data, refs, qc.DirtyPKs); err != nil {
		return nil, err
	}
	return &Result{AffectedRows: affected}, nil
}

// deriveRowID picks the dataset key for a fresh row: the single-column
// primary key value when one exists, the joined key values for a
// composite primary key, and a synthetic increasing integer otherwise.
func deriveRowID(ts *schema.TableSchema, row sqltypes.Row, data *sqltypes.Dataset) sqltypes.RowID {
	if ts != nil {
		if pk, ok := ts.PrimaryIndex(); ok {
			if pk.PrimarySingle() {
				return row.GetOrNull(pk.Fields[0])
			}
			parts := make([]string, len(pk.Fields))
			for i, f := range pk.Fields {
				parts[i] = row.GetOrNull(f).String()
			}
			return sqltypes.NewString(strings.Join(parts, "::"))
		}
	}

	var max int64
	for _, id := range data.Keys() {
		if id.Kind() == sqltypes.KindInt && id.Int() > max {
			max = id.Int()
		}
	}
	return sqltypes.NewInt(max + 1)
}
