package plan

import (
	"github.com/tuannm99/mimicsql/internal/expression"
	"github.com/tuannm99/mimicsql/internal/indexrefs"
)

// DeleteQuery removes rows and their entries from every secondary index.
type DeleteQuery struct {
	Query

	Table   string
	Where   expression.Expr
	OrderBy []OrderByRule
	Limit   *Limit
}

func (d *DeleteQuery) Execute(conn Connection) (*Result, error) {
	db, table, err := d.ParseTableName(conn, d.Table)
	if err != nil {
		return nil, err
	}
	data, refs, ts, err := conn.Server().Table(db, table)
	if err != nil {
		return nil, err
	}

	filtered, err := d.ApplyWhere(conn, d.Where, data, refs, hintsFor(ts))
	if err != nil {
		return nil, err
	}
	filtered, err = d.ApplyOrderBy(conn, filtered, d.OrderBy)
	if err != nil {
		return nil, err
	}
	filtered = d.ApplyLimit(filtered, d.Limit)

	qc := conn.QueryContext()
	indexes := allIndexes(ts)

	count := 0
	for _, id := range filtered.Keys() {
		row, ok := data.Get(id)
		if !ok {
			continue
		}
		for _, k := range indexrefs.ComputeKeys(indexes, row) {
			indexrefs.Remove(refs.Root(k.Index), k.Path, k.StoreUnique, id)
		}
		data.Delete(id)
		if qc.InRequest {
			qc.MarkDirty(id)
		}
		count++
	}

	if err := conn.Server().SaveTable(db, table, data, refs, qc.DirtyPKs); err != nil {
		return nil, err
	}
	return &Result{AffectedRows: int64(count)}, nil
}
