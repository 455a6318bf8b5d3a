package plan

import (
	"github.com/tuannm99/mimicsql/internal/expression"
	"github.com/tuannm99/mimicsql/internal/indexrefs"
	"github.com/tuannm99/mimicsql/internal/schema"
	"github.com/tuannm99/mimicsql/internal/sqltypes"
)

// FilterWithIndexes greedily narrows the dataset using index lookups for
// the equality conjuncts of the WHERE expression. The second return
// reports whether the whole predicate was discharged by index lookups,
// in which case the caller can skip the row scan.
func FilterWithIndexes(
	dataset *sqltypes.Dataset,
	refs indexrefs.Refs,
	columns []schema.Column,
	indexes []schema.Index,
	where expression.Expr,
) (*sqltypes.Dataset, bool) {
	conjuncts := splitConjuncts(where)

	// column -> literal value for every "col = literal" conjunct.
	eq := map[string]sqltypes.Value{}
	usable := 0
	for _, c := range conjuncts {
		if col, v, ok := eqCandidate(c, columns); ok {
			eq[col] = v
			usable++
		}
	}
	if usable == 0 {
		return dataset, false
	}

	// Prefer the index covering the longest prefix of candidate columns.
	var (
		best       *schema.Index
		bestPrefix int
	)
	for i := range indexes {
		ix := indexes[i]
		prefix := 0
		for _, f := range ix.Fields {
			if _, ok := eq[f]; !ok {
				break
			}
			prefix++
		}
		if prefix > bestPrefix {
			best = &indexes[i]
			bestPrefix = prefix
		}
	}
	if best == nil {
		return dataset, false
	}

	var ids []sqltypes.RowID
	if best.PrimarySingle() {
		// The dataset key is the primary key; no refs to walk.
		ids = []sqltypes.RowID{eq[best.Fields[0]]}
	} else {
		root, ok := refs[best.Name]
		if !ok {
			// Index declared but never populated: nothing can match it.
			root = indexrefs.Branch{}
		}
		path := make([]sqltypes.Value, bestPrefix)
		for i := 0; i < bestPrefix; i++ {
			path[i] = eq[best.Fields[i]]
		}
		ids = indexrefs.Collect(root, path)
	}

	keep := make(map[sqltypes.RowID]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	narrowed := sqltypes.NewDataset()
	dataset.Each(func(id sqltypes.RowID, row sqltypes.Row) bool {
		if _, ok := keep[id]; ok {
			narrowed.Put(id, row)
		}
		return true
	})

	allMatched := bestPrefix == len(conjuncts) && usable == len(conjuncts)
	return narrowed, allMatched
}

// splitConjuncts flattens an AND tree into its terms.
func splitConjuncts(e expression.Expr) []expression.Expr {
	if b, ok := e.(*expression.BinaryOp); ok && (b.Op == "AND" || b.Op == "and") {
		return append(splitConjuncts(b.Left), splitConjuncts(b.Right)...)
	}
	return []expression.Expr{e}
}

// eqCandidate matches "col = literal" (either side) against a declared
// column.
func eqCandidate(e expression.Expr, columns []schema.Column) (string, sqltypes.Value, bool) {
	b, ok := e.(*expression.BinaryOp)
	if !ok || b.Op != "=" {
		return "", sqltypes.Null(), false
	}

	col, lit := asColLit(b.Left, b.Right)
	if col == nil {
		col, lit = asColLit(b.Right, b.Left)
	}
	if col == nil || lit == nil || col.TableName() != "" {
		return "", sqltypes.Null(), false
	}
	for _, c := range columns {
		if c.Name == col.ColumnName() {
			return c.Name, lit.Val, true
		}
	}
	return "", sqltypes.Null(), false
}

func asColLit(l, r expression.Expr) (*expression.ColumnRef, *expression.Literal) {
	col, ok := l.(*expression.ColumnRef)
	if !ok {
		return nil, nil
	}
	lit, ok := r.(*expression.Literal)
	if !ok {
		return nil, nil
	}
	return col, lit
}
