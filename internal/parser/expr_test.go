package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpr_Literals(t *testing.T) {
	cases := map[string]any{
		"1":       int64(1),
		"-5":      int64(-5),
		"1.5":     float64(1.5),
		"'a''b'":  "a'b",
		"NULL":    nil,
		"true":    true,
		"FALSE":   false,
		"'WHERE'": "WHERE",
	}
	for in, want := range cases {
		e, err := ParseExpr(in)
		require.NoError(t, err, in)
		require.Equal(t, &LiteralExpr{Value: want}, e, in)
	}
}

func TestParseExpr_ColumnRef(t *testing.T) {
	e, err := ParseExpr("users.name")
	require.NoError(t, err)
	assert.Equal(t, &ColumnRefExpr{Name: "users.name"}, e)
}

func TestParseExpr_Precedence(t *testing.T) {
	// a = 1 OR b = 2 AND c = 3  parses as  a = 1 OR ((b = 2) AND (c = 3))
	e, err := ParseExpr("a = 1 OR b = 2 AND c = 3")
	require.NoError(t, err)

	or, ok := e.(*BinaryExpr)
	require.True(t, ok)
	require.Equal(t, "OR", or.Op)

	and, ok := or.Right.(*BinaryExpr)
	require.True(t, ok)
	require.Equal(t, "AND", and.Op)
}

func TestParseExpr_ArithmeticPrecedence(t *testing.T) {
	// 1 + 2 * 3 parses as 1 + (2 * 3)
	e, err := ParseExpr("1 + 2 * 3")
	require.NoError(t, err)

	add := e.(*BinaryExpr)
	require.Equal(t, "+", add.Op)
	mul, ok := add.Right.(*BinaryExpr)
	require.True(t, ok)
	require.Equal(t, "*", mul.Op)
}

func TestParseExpr_Parens(t *testing.T) {
	// (1 + 2) * 3 parses as (1 + 2) * 3
	e, err := ParseExpr("(1 + 2) * 3")
	require.NoError(t, err)

	mul := e.(*BinaryExpr)
	require.Equal(t, "*", mul.Op)
	add, ok := mul.Left.(*BinaryExpr)
	require.True(t, ok)
	require.Equal(t, "+", add.Op)
}

func TestParseExpr_NotEqualsForms(t *testing.T) {
	for _, in := range []string{"a != 1", "a <> 1"} {
		e, err := ParseExpr(in)
		require.NoError(t, err, in)
		require.Equal(t, "!=", e.(*BinaryExpr).Op, in)
	}
}

func TestParseExpr_ValuesFunc(t *testing.T) {
	e, err := ParseExpr("count + VALUES(count)")
	require.NoError(t, err)

	sum := e.(*BinaryExpr)
	assert.Equal(t, &ColumnRefExpr{Name: "count"}, sum.Left)
	assert.Equal(t, &ValuesFuncExpr{Column: "count"}, sum.Right)
}

func TestParseExpr_Invalid(t *testing.T) {
	for _, in := range []string{"", "1 +", "(1", "'oops", "a ! b", "1 2"} {
		_, err := ParseExpr(in)
		require.Error(t, err, "%q should not parse", in)
	}
}
