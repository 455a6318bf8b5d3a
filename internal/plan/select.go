package plan

import (
	"github.com/tuannm99/mimicsql/internal/expression"
	"github.com/tuannm99/mimicsql/internal/sqltypes"
)

// SelectQuery reads rows: WHERE, then ORDER BY, then LIMIT, then
// projection.
type SelectQuery struct {
	Query

	Table string

	// Projection lists the selected columns; empty means "*".
	Projection []string

	Where   expression.Expr
	OrderBy []OrderByRule
	Limit   *Limit
}

func (s *SelectQuery) Execute(conn Connection) (*Result, error) {
	db, table, err := s.ParseTableName(conn, s.Table)
	if err != nil {
		return nil, err
	}
	data, refs, ts, err := conn.Server().Table(db, table)
	if err != nil {
		return nil, err
	}

	// Capture the projectable column set before sort keys are
	// materialized onto rows.
	baseCols := s.Projection
	if len(baseCols) == 0 {
		if ts != nil {
			baseCols = ts.FieldNames()
		} else {
			data.Each(func(_ sqltypes.RowID, row sqltypes.Row) bool {
				baseCols = row.Columns()
				return false
			})
		}
	}

	filtered, err := s.ApplyWhere(conn, s.Where, data, refs, hintsFor(ts))
	if err != nil {
		return nil, err
	}

	if err := s.materializeSortKeys(conn, filtered); err != nil {
		return nil, err
	}
	filtered, err = s.ApplyOrderBy(conn, filtered, s.OrderBy)
	if err != nil {
		return nil, err
	}
	filtered = s.ApplyLimit(filtered, s.Limit)

	res := &Result{Columns: baseCols}
	filtered.Each(func(_ sqltypes.RowID, row sqltypes.Row) bool {
		out := make([]any, len(baseCols))
		for i, col := range baseCols {
			out[i] = row.GetOrNull(col).Any()
		}
		res.Rows = append(res.Rows, out)
		return true
	})
	res.AffectedRows = int64(len(res.Rows))
	return res, nil
}

// materializeSortKeys pre-evaluates each ORDER BY expression onto its
// row under the expression's name; ApplyOrderBy then reads those names
// instead of re-evaluating. Bare column references are marked so a miss
// across joined tables resolves to NULL rather than failing.
func (s *SelectQuery) materializeSortKeys(conn Connection, dataset *sqltypes.Dataset) error {
	for _, rule := range s.OrderBy {
		if cr, ok := rule.Expr.(*expression.ColumnRef); ok && cr.TableName() == "" {
			cr.MarkFallthrough()
		}
		name := rule.Expr.Name()
		for _, id := range dataset.Keys() {
			row, _ := dataset.Get(id)
			v, err := rule.Expr.Evaluate(row, conn)
			if err != nil {
				return err
			}
			row.Set(name, v)
			dataset.Put(id, row)
		}
	}
	return nil
}
