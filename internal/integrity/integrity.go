// Package integrity enforces schema conformance and unique constraints
// on rows about to be written.
package integrity

import (
	"github.com/spf13/cast"

	"github.com/tuannm99/mimicsql/internal/schema"
	"github.com/tuannm99/mimicsql/internal/sqlerr"
	"github.com/tuannm99/mimicsql/internal/sqltypes"
)

// CoerceToSchema conforms a row's declared columns to their column types.
// Strict mode rejects any kind mismatch; otherwise values are coerced
// best-effort. NULLs pass through untouched, as do columns the schema
// does not declare.
func CoerceToSchema(row sqltypes.Row, ts *schema.TableSchema, strict bool) (sqltypes.Row, error) {
	out := sqltypes.NewRow()
	for _, col := range row.Columns() {
		v := row.GetOrNull(col)
		field, ok := ts.Field(col)
		if !ok || v.IsNull() {
			out.Set(col, v)
			continue
		}
		cv, err := coerceValue(v, field, strict)
		if err != nil {
			return sqltypes.Row{}, err
		}
		out.Set(col, cv)
	}
	return out, nil
}

func coerceValue(v sqltypes.Value, field schema.Column, strict bool) (sqltypes.Value, error) {
	switch field.Type {
	case schema.ColInt64:
		if v.Kind() == sqltypes.KindInt {
			return v, nil
		}
		if strict {
			return sqltypes.Null(), coercionErr(field, v)
		}
		i, err := cast.ToInt64E(v.Any())
		if err != nil {
			i = 0
		}
		return sqltypes.NewInt(i), nil

	case schema.ColFloat64:
		switch v.Kind() {
		case sqltypes.KindFloat:
			return v, nil
		case sqltypes.KindInt:
			return sqltypes.NewFloat(float64(v.Int())), nil
		}
		if strict {
			return sqltypes.Null(), coercionErr(field, v)
		}
		f, err := cast.ToFloat64E(v.Any())
		if err != nil {
			f = 0
		}
		return sqltypes.NewFloat(f), nil

	case schema.ColText:
		if v.Kind() == sqltypes.KindString {
			return v, nil
		}
		if strict {
			return sqltypes.Null(), coercionErr(field, v)
		}
		return sqltypes.NewString(v.String()), nil

	case schema.ColBool:
		if v.Kind() == sqltypes.KindBool {
			return v, nil
		}
		if v.Kind() == sqltypes.KindInt && (v.Int() == 0 || v.Int() == 1) {
			return sqltypes.NewBool(v.Int() == 1), nil
		}
		if strict {
			return sqltypes.Null(), coercionErr(field, v)
		}
		return sqltypes.NewBool(v.Truthy()), nil

	default:
		return v, nil
	}
}

func coercionErr(field schema.Column, v sqltypes.Value) error {
	return sqlerr.ErrSchemaCoercion.New(field.Name, field.Type.String(), v.Kind().String())
}

// Violation names a broken unique constraint and the row id holding the
// conflicting entry.
type Violation struct {
	Constraint string
	ConflictID sqltypes.RowID
}

// CheckUniqueConstraints scans the table for a row other than excludeID
// that collides with row on any PRIMARY or UNIQUE index. Rows carrying a
// NULL in an indexed field never conflict.
func CheckUniqueConstraints(
	table *sqltypes.Dataset,
	row sqltypes.Row,
	ts *schema.TableSchema,
	excludeID *sqltypes.RowID,
) *Violation {
	for _, ix := range ts.Indexes {
		if ix.Kind != schema.IndexPrimary && ix.Kind != schema.IndexUnique {
			continue
		}

		vals := make([]sqltypes.Value, 0, len(ix.Fields))
		sparse := false
		for _, f := range ix.Fields {
			v := row.GetOrNull(f)
			if v.IsNull() {
				sparse = true
				break
			}
			vals = append(vals, v)
		}
		if sparse {
			continue
		}

		var hit *Violation
		table.Each(func(id sqltypes.RowID, existing sqltypes.Row) bool {
			if excludeID != nil && id == *excludeID {
				return true
			}
			for i, f := range ix.Fields {
				ev := existing.GetOrNull(f)
				if ev.IsNull() || ev.Compare(vals[i]) != 0 {
					return true
				}
			}
			hit = &Violation{Constraint: ix.Name, ConflictID: id}
			return false
		})
		if hit != nil {
			return hit
		}
	}
	return nil
}
