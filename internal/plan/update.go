package plan

import (
	"github.com/tuannm99/mimicsql/internal/expression"
)

// UpdateQuery mutates rows in place: WHERE, ORDER BY, LIMIT select the
// victims, ApplySet rewrites them.
type UpdateQuery struct {
	Query

	Table       string
	Assignments []Assignment
	Where       expression.Expr
	OrderBy     []OrderByRule
	Limit       *Limit
}

func (u *UpdateQuery) Execute(conn Connection) (*Result, error) {
	db, table, err := u.ParseTableName(conn, u.Table)
	if err != nil {
		return nil, err
	}
	data, refs, ts, err := conn.Server().Table(db, table)
	if err != nil {
		return nil, err
	}

	filtered, err := u.ApplyWhere(conn, u.Where, data, refs, hintsFor(ts))
	if err != nil {
		return nil, err
	}
	filtered, err = u.ApplyOrderBy(conn, filtered, u.OrderBy)
	if err != nil {
		return nil, err
	}
	filtered = u.ApplyLimit(filtered, u.Limit)

	count, _, _, err := u.ApplySet(
		conn, db, table, filtered, data, refs, u.Assignments, ts, nil)
	if err != nil {
		return nil, err
	}
	return &Result{AffectedRows: int64(count)}, nil
}
