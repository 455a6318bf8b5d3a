// Package expression defines the expression tree evaluated against rows.
package expression

import (
	"fmt"
	"strings"

	"github.com/tuannm99/mimicsql/internal/sqlerr"
	"github.com/tuannm99/mimicsql/internal/sqltypes"
)

// InsertValuesPrefix shadows the would-be-inserted row inside an
// ON DUPLICATE KEY UPDATE evaluation. Columns under this prefix are
// transient and never persisted.
const InsertValuesPrefix = "sql_fake_values."

// Connection is the slice of the session an expression may consult.
type Connection interface {
	CurrentDatabase() string
}

// Expr is the root interface for all expressions.
type Expr interface {
	// Name identifies the expression; ORDER BY key materialization stores
	// pre-evaluated results on rows under this name.
	Name() string
	Evaluate(row sqltypes.Row, conn Connection) (sqltypes.Value, error)
	exprNode()
}

// ----- literal -----

type Literal struct {
	Val sqltypes.Value
}

func (*Literal) exprNode() {}

func (l *Literal) Name() string { return l.Val.String() }

func (l *Literal) Evaluate(sqltypes.Row, Connection) (sqltypes.Value, error) {
	return l.Val, nil
}

// ----- column reference -----

// ColumnRef resolves a column against the current row. A bare reference
// (no table qualifier) can be marked fallthrough-allowed so ORDER BY can
// reach across joined tables without a schema lookup; an allowed miss
// evaluates to NULL instead of failing.
type ColumnRef struct {
	Table  string
	Column string

	fallthroughOK bool
}

func (*ColumnRef) exprNode() {}

func (c *ColumnRef) Name() string {
	if c.Table != "" {
		return c.Table + "." + c.Column
	}
	return c.Column
}

func (c *ColumnRef) ColumnName() string { return c.Column }
func (c *ColumnRef) TableName() string  { return c.Table }

func (c *ColumnRef) MarkFallthrough()       { c.fallthroughOK = true }
func (c *ColumnRef) AllowFallthrough() bool { return c.fallthroughOK }

func (c *ColumnRef) Evaluate(row sqltypes.Row, _ Connection) (sqltypes.Value, error) {
	if v, ok := row.Get(c.Name()); ok {
		return v, nil
	}
	if v, ok := row.Get(c.Column); ok {
		return v, nil
	}
	if c.fallthroughOK {
		return sqltypes.Null(), nil
	}
	return sqltypes.Null(), sqlerr.ErrUnknownColumn.New(c.Name())
}

// ----- VALUES(col) -----

// ValuesRef reads the shadow copy of the row an INSERT would have written,
// available only inside ON DUPLICATE KEY UPDATE.
type ValuesRef struct {
	Column string
}

func (*ValuesRef) exprNode() {}

func (v *ValuesRef) Name() string { return "VALUES(" + v.Column + ")" }

func (v *ValuesRef) Evaluate(row sqltypes.Row, _ Connection) (sqltypes.Value, error) {
	return row.GetOrNull(InsertValuesPrefix + v.Column), nil
}

// ----- binary operators -----

type BinaryOp struct {
	Op    string // "=", "!=", "<", "<=", ">", ">=", "+", "-", "*", "/", "AND", "OR"
	Left  Expr
	Right Expr
}

func (*BinaryOp) exprNode() {}

func (b *BinaryOp) Name() string {
	return b.Left.Name() + " " + b.Op + " " + b.Right.Name()
}

func (b *BinaryOp) Evaluate(row sqltypes.Row, conn Connection) (sqltypes.Value, error) {
	lv, err := b.Left.Evaluate(row, conn)
	if err != nil {
		return sqltypes.Null(), err
	}

	// AND short-circuits before the right side is touched.
	switch strings.ToUpper(b.Op) {
	case "AND":
		if !lv.Truthy() {
			return sqltypes.NewBool(false), nil
		}
		rv, err := b.Right.Evaluate(row, conn)
		if err != nil {
			return sqltypes.Null(), err
		}
		return sqltypes.NewBool(rv.Truthy()), nil
	case "OR":
		if lv.Truthy() {
			return sqltypes.NewBool(true), nil
		}
		rv, err := b.Right.Evaluate(row, conn)
		if err != nil {
			return sqltypes.Null(), err
		}
		return sqltypes.NewBool(rv.Truthy()), nil
	}

	rv, err := b.Right.Evaluate(row, conn)
	if err != nil {
		return sqltypes.Null(), err
	}

	switch b.Op {
	case "=":
		return sqltypes.NewBool(lv.Compare(rv) == 0), nil
	case "!=", "<>":
		return sqltypes.NewBool(lv.Compare(rv) != 0), nil
	case "<":
		return sqltypes.NewBool(lv.Compare(rv) < 0), nil
	case "<=":
		return sqltypes.NewBool(lv.Compare(rv) <= 0), nil
	case ">":
		return sqltypes.NewBool(lv.Compare(rv) > 0), nil
	case ">=":
		return sqltypes.NewBool(lv.Compare(rv) >= 0), nil
	case "+", "-", "*", "/":
		return arith(b.Op, lv, rv)
	default:
		return sqltypes.Null(), sqlerr.ErrRuntime.New(
			fmt.Sprintf("unsupported operator %q", b.Op))
	}
}

// arith follows MySQL numeric promotion: two ints stay int except for
// division, anything else computes in floats. NULL poisons the result.
func arith(op string, l, r sqltypes.Value) (sqltypes.Value, error) {
	if l.IsNull() || r.IsNull() {
		return sqltypes.Null(), nil
	}
	lf := l.Float()
	rf := r.Float()

	intMath := l.Kind() == sqltypes.KindInt && r.Kind() == sqltypes.KindInt && op != "/"

	var out float64
	switch op {
	case "+":
		out = lf + rf
	case "-":
		out = lf - rf
	case "*":
		out = lf * rf
	case "/":
		if rf == 0 {
			return sqltypes.Null(), nil
		}
		out = lf / rf
	}
	if intMath {
		return sqltypes.NewInt(int64(out)), nil
	}
	return sqltypes.NewFloat(out), nil
}
