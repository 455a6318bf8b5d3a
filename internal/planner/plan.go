// Package planner lowers parsed statements into executable query plans.
package planner

import (
	"fmt"
	"strings"

	"github.com/tuannm99/mimicsql/internal/expression"
	"github.com/tuannm99/mimicsql/internal/parser"
	"github.com/tuannm99/mimicsql/internal/plan"
	"github.com/tuannm99/mimicsql/internal/schema"
	"github.com/tuannm99/mimicsql/internal/sqlerr"
	"github.com/tuannm99/mimicsql/internal/sqltypes"
)

// BuildPlan lowers a DML statement into its executable plan. DDL
// statements have no plan; the engine dispatches them directly.
func BuildPlan(sql string, stmt parser.Statement) (plan.Executable, error) {
	switch s := stmt.(type) {
	case *parser.SelectStmt:
		return buildSelect(sql, s)
	case *parser.InsertStmt:
		return buildInsert(sql, s)
	case *parser.UpdateStmt:
		return buildUpdate(sql, s)
	case *parser.DeleteStmt:
		return buildDelete(sql, s)
	default:
		return nil, sqlerr.ErrRuntime.New(
			fmt.Sprintf("no plan for statement %T", stmt))
	}
}

func buildSelect(sql string, s *parser.SelectStmt) (plan.Executable, error) {
	where, err := lowerOptionalExpr(s.Where)
	if err != nil {
		return nil, err
	}
	orderBy, err := lowerOrderBy(s.OrderBy)
	if err != nil {
		return nil, err
	}
	return &plan.SelectQuery{
		Query:      plan.Query{SQL: sql},
		Table:      s.TableName,
		Projection: s.Projection,
		Where:      where,
		OrderBy:    orderBy,
		Limit:      lowerLimit(s.Limit),
	}, nil
}

func buildInsert(sql string, s *parser.InsertStmt) (plan.Executable, error) {
	rows := make([][]expression.Expr, 0, len(s.Rows))
	for _, raw := range s.Rows {
		row := make([]expression.Expr, 0, len(raw))
		for _, e := range raw {
			le, err := LowerExpr(e)
			if err != nil {
				return nil, err
			}
			row = append(row, le)
		}
		rows = append(rows, row)
	}

	update, err := lowerAssignments(s.OnDupUpdate)
	if err != nil {
		return nil, err
	}

	return &plan.InsertQuery{
		Query:   plan.Query{SQL: sql, IgnoreDupes: s.Ignore},
		Table:   s.TableName,
		Columns: s.Columns,
		Values:  rows,
		Update:  update,
	}, nil
}

func buildUpdate(sql string, s *parser.UpdateStmt) (plan.Executable, error) {
	set, err := lowerAssignments(s.Set)
	if err != nil {
		return nil, err
	}
	where, err := lowerOptionalExpr(s.Where)
	if err != nil {
		return nil, err
	}
	orderBy, err := lowerOrderBy(s.OrderBy)
	if err != nil {
		return nil, err
	}
	return &plan.UpdateQuery{
		Query:       plan.Query{SQL: sql, IgnoreDupes: s.Ignore},
		Table:       s.TableName,
		Assignments: set,
		Where:       where,
		OrderBy:     orderBy,
		Limit:       lowerLimit(s.Limit),
	}, nil
}

func buildDelete(sql string, s *parser.DeleteStmt) (plan.Executable, error) {
	where, err := lowerOptionalExpr(s.Where)
	if err != nil {
		return nil, err
	}
	orderBy, err := lowerOrderBy(s.OrderBy)
	if err != nil {
		return nil, err
	}
	return &plan.DeleteQuery{
		Query:   plan.Query{SQL: sql},
		Table:   s.TableName,
		Where:   where,
		OrderBy: orderBy,
		Limit:   lowerLimit(s.Limit),
	}, nil
}

// LowerExpr converts a parsed expression into its evaluatable form.
func LowerExpr(e parser.Expr) (expression.Expr, error) {
	switch x := e.(type) {
	case *parser.LiteralExpr:
		return &expression.Literal{Val: sqltypes.FromAny(x.Value)}, nil

	case *parser.ColumnRefExpr:
		parts := strings.Split(x.Name, ".")
		switch len(parts) {
		case 1:
			return &expression.ColumnRef{Column: parts[0]}, nil
		case 2:
			return &expression.ColumnRef{Table: parts[0], Column: parts[1]}, nil
		default:
			return nil, sqlerr.ErrRuntime.New(
				fmt.Sprintf("column reference %q has too many dotted parts", x.Name))
		}

	case *parser.ValuesFuncExpr:
		return &expression.ValuesRef{Column: x.Column}, nil

	case *parser.BinaryExpr:
		left, err := LowerExpr(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := LowerExpr(x.Right)
		if err != nil {
			return nil, err
		}
		return &expression.BinaryOp{Op: x.Op, Left: left, Right: right}, nil

	default:
		return nil, sqlerr.ErrRuntime.New(
			fmt.Sprintf("unsupported expression %T", e))
	}
}

func lowerOptionalExpr(e parser.Expr) (expression.Expr, error) {
	if e == nil {
		return nil, nil
	}
	return LowerExpr(e)
}

func lowerOrderBy(rules []parser.OrderBy) ([]plan.OrderByRule, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	out := make([]plan.OrderByRule, 0, len(rules))
	for _, r := range rules {
		e, err := LowerExpr(r.Expr)
		if err != nil {
			return nil, err
		}
		out = append(out, plan.OrderByRule{Expr: e, Desc: r.Desc})
	}
	return out, nil
}

func lowerLimit(l *parser.Limit) *plan.Limit {
	if l == nil {
		return nil
	}
	return &plan.Limit{Offset: int(l.Offset), RowCount: int(l.RowCount)}
}

func lowerAssignments(as []parser.Assignment) ([]plan.Assignment, error) {
	if len(as) == 0 {
		return nil, nil
	}
	out := make([]plan.Assignment, 0, len(as))
	for _, a := range as {
		e, err := LowerExpr(a.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, plan.Assignment{
			Column: &expression.ColumnRef{Column: a.Column},
			Expr:   e,
		})
	}
	return out, nil
}

// BuildTableSchema converts a CREATE TABLE statement into the table
// schema the executor works with.
func BuildTableSchema(s *parser.CreateTableStmt) (*schema.TableSchema, error) {
	name := s.TableName
	if idx := strings.Index(name, "."); idx >= 0 {
		name = name[idx+1:]
	}

	ts := &schema.TableSchema{Name: name}
	for _, c := range s.Columns {
		ct, err := columnType(c.Type)
		if err != nil {
			return nil, err
		}
		ts.Fields = append(ts.Fields, schema.Column{Name: c.Name, Type: ct})
	}

	for _, ix := range s.Indexes {
		for _, f := range ix.Columns {
			if !ts.HasField(f) {
				return nil, sqlerr.ErrUnknownColumn.New(f)
			}
		}
		var kind schema.IndexKind
		switch ix.Kind {
		case "PRIMARY":
			kind = schema.IndexPrimary
		case "UNIQUE":
			kind = schema.IndexUnique
		default:
			kind = schema.IndexPlain
		}
		ts.Indexes = append(ts.Indexes, schema.Index{
			Name:   ix.Name,
			Kind:   kind,
			Fields: ix.Columns,
		})
	}

	return ts, nil
}

func columnType(t string) (schema.ColumnType, error) {
	switch t {
	case "INT", "INTEGER", "BIGINT":
		return schema.ColInt64, nil
	case "FLOAT", "DOUBLE", "REAL":
		return schema.ColFloat64, nil
	case "TEXT", "VARCHAR", "CHAR", "STRING":
		return schema.ColText, nil
	case "BOOL", "BOOLEAN":
		return schema.ColBool, nil
	default:
		return 0, sqlerr.ErrRuntime.New(fmt.Sprintf("unsupported column type %q", t))
	}
}
