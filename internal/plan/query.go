// Package plan is the query execution core: WHERE/ORDER BY/LIMIT
// application shared by every statement, and the SET mutation path shared
// by UPDATE and INSERT ... ON DUPLICATE KEY UPDATE.
package plan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tuannm99/mimicsql/internal/expression"
	"github.com/tuannm99/mimicsql/internal/indexrefs"
	"github.com/tuannm99/mimicsql/internal/schema"
	"github.com/tuannm99/mimicsql/internal/sqlerr"
	"github.com/tuannm99/mimicsql/internal/sqltypes"
)

// Query is the base every concrete statement embeds. It owns the clause
// application primitives; subclasses sequence them.
type Query struct {
	SQL string

	// IgnoreDupes makes unique-key violations skip the offending row
	// instead of failing the statement (INSERT IGNORE, UPDATE IGNORE).
	IgnoreDupes bool
}

// OrderByRule is one ORDER BY term.
type OrderByRule struct {
	Expr expression.Expr
	Desc bool
}

// Limit is a LIMIT/OFFSET clause.
type Limit struct {
	Offset   int
	RowCount int
}

// PlannerHints lets ApplyWhere try index narrowing before falling back
// to a row scan.
type PlannerHints struct {
	Columns []schema.Column
	Indexes []schema.Index
}

// ParseTableName resolves "db.table" or a bare "table" against the
// connection's current database.
func (q *Query) ParseTableName(conn Connection, name string) (string, string, error) {
	parts := strings.Split(name, ".")
	switch len(parts) {
	case 1:
		return conn.CurrentDatabase(), parts[0], nil
	case 2:
		return parts[0], parts[1], nil
	default:
		return "", "", sqlerr.ErrRuntime.New(
			fmt.Sprintf("table name %q has too many dotted parts", name))
	}
}

// ApplyWhere filters the dataset down to rows matching the WHERE
// expression. With planner hints it first lets index lookups narrow the
// dataset, skipping the row scan entirely when the predicate is fully
// discharged. Replica reads are then checked against the dirty-PK set.
func (q *Query) ApplyWhere(
	conn Connection,
	where expression.Expr,
	dataset *sqltypes.Dataset,
	refs indexrefs.Refs,
	hints *PlannerHints,
) (*sqltypes.Dataset, error) {
	out := dataset
	if where != nil {
		allMatched := false
		if hints != nil {
			out, allMatched = FilterWithIndexes(
				out, refs, hints.Columns, hints.Indexes, where)
		}
		if !allMatched {
			filtered := sqltypes.NewDataset()
			var evalErr error
			out.Each(func(id sqltypes.RowID, row sqltypes.Row) bool {
				v, err := where.Evaluate(row, conn)
				if err != nil {
					evalErr = err
					return false
				}
				if v.Truthy() {
					filtered.Put(id, row)
				}
				return true
			})
			if evalErr != nil {
				return nil, evalErr
			}
			out = filtered
		}
	}

	if qc := conn.QueryContext(); qc.replicaGuarded() {
		for _, id := range out.Keys() {
			if qc.IsDirty(id) {
				return nil, sqlerr.ErrReplicaAfterWrite.New(qc.Query)
			}
		}
	}
	return out, nil
}

// ApplyOrderBy sorts the dataset by the given rules. Sort keys are read
// from each row under the rule expression's name when the caller
// pre-materialized them, and evaluated on demand otherwise. Ties keep
// their pre-sort relative order.
func (q *Query) ApplyOrderBy(
	conn Connection,
	dataset *sqltypes.Dataset,
	rules []OrderByRule,
) (*sqltypes.Dataset, error) {
	if len(rules) == 0 || dataset.Len() < 2 {
		return dataset, nil
	}

	for _, rule := range rules {
		if cr, ok := rule.Expr.(*expression.ColumnRef); ok && cr.TableName() == "" {
			cr.MarkFallthrough()
		}
	}

	type entry struct {
		id   sqltypes.RowID
		keys []sqltypes.Value
	}
	entries := make([]entry, 0, dataset.Len())
	var evalErr error
	dataset.Each(func(id sqltypes.RowID, row sqltypes.Row) bool {
		keys := make([]sqltypes.Value, len(rules))
		for i, rule := range rules {
			if v, ok := row.Get(rule.Expr.Name()); ok {
				keys[i] = v
				continue
			}
			v, err := rule.Expr.Evaluate(row, conn)
			if err != nil {
				evalErr = err
				return false
			}
			keys[i] = v
		}
		entries = append(entries, entry{id: id, keys: keys})
		return true
	})
	if evalErr != nil {
		return nil, evalErr
	}

	sort.SliceStable(entries, func(i, j int) bool {
		for r := range rules {
			c := entries[i].keys[r].Compare(entries[j].keys[r])
			if rules[r].Desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})

	ids := make([]sqltypes.RowID, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return dataset.Reorder(ids), nil
}

// ApplyLimit slices the dataset's keys to [offset, offset+rowcount) in
// current order.
func (q *Query) ApplyLimit(dataset *sqltypes.Dataset, limit *Limit) *sqltypes.Dataset {
	if limit == nil {
		return dataset
	}
	keys := dataset.Keys()
	start := limit.Offset
	if start > len(keys) {
		start = len(keys)
	}
	end := start + limit.RowCount
	if end > len(keys) {
		end = len(keys)
	}
	return dataset.Reorder(keys[start:end])
}

// hintsFor derives planner hints from a table schema, nil without one.
func hintsFor(ts *schema.TableSchema) *PlannerHints {
	if ts == nil {
		return nil
	}
	return &PlannerHints{Columns: ts.Fields, Indexes: ts.Indexes}
}

// allIndexes lists every index of the table, sharding synthetic included.
func allIndexes(ts *schema.TableSchema) []schema.Index {
	if ts == nil {
		return nil
	}
	out := make([]schema.Index, 0, len(ts.Indexes)+1)
	out = append(out, ts.Indexes...)
	if sh := ts.ShardingIndex(); sh != nil {
		out = append(out, *sh)
	}
	return out
}
