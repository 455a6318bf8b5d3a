package sqltypes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompare_NumericPairsCompareAsFloats(t *testing.T) {
	require.Equal(t, 0, NewInt(1).Compare(NewFloat(1.0)))
	require.Equal(t, -1, NewInt(2).Compare(NewFloat(2.5)))
	require.Equal(t, 1, NewFloat(3.5).Compare(NewInt(3)))
	require.Equal(t, 0, NewBool(true).Compare(NewInt(1)))
}

func TestCompare_MixedFallsBackToStrings(t *testing.T) {
	// "125" < "5" because '1' < '5'.
	require.Equal(t, -1, NewString("125").Compare(NewString("5")))
	require.Equal(t, -1, NewString("125").Compare(NewString("50")))
	// On a shared prefix the shorter string sorts last: "50" < "5".
	require.Equal(t, -1, NewString("50").Compare(NewString("5")))
	require.Equal(t, 1, NewString("5").Compare(NewString("50")))
	// int vs string: both rendered and compared as strings.
	require.Equal(t, -1, NewInt(125).Compare(NewString("5")))
}

func TestStrictEqual_DistinguishesKinds(t *testing.T) {
	require.True(t, NewInt(1).StrictEqual(NewInt(1)))
	require.False(t, NewInt(1).StrictEqual(NewFloat(1)))
	require.False(t, NewInt(1).StrictEqual(NewString("1")))
	require.True(t, Null().StrictEqual(Null()))
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Null(), false},
		{NewInt(0), false},
		{NewInt(-3), true},
		{NewFloat(0.0), false},
		{NewFloat(0.1), true},
		{NewBool(true), true},
		{NewBool(false), false},
		{NewString(""), false},
		{NewString("abc"), false},
		{NewString("0"), false},
		{NewString("2"), true},
		{NewString(" 2 "), true},
	}
	for _, c := range cases {
		require.Equal(t, c.want, c.v.Truthy(), "value %v", c.v)
	}
}

func TestFromAny(t *testing.T) {
	require.Equal(t, NewInt(7), FromAny(7))
	require.Equal(t, NewInt(7), FromAny(int64(7)))
	require.Equal(t, NewFloat(1.5), FromAny(1.5))
	require.Equal(t, NewString("x"), FromAny("x"))
	require.Equal(t, NewBool(true), FromAny(true))
	require.Equal(t, Null(), FromAny(nil))
	require.Equal(t, NewInt(7), FromAny(NewInt(7)))
}

func TestValueString(t *testing.T) {
	require.Equal(t, "125", NewInt(125).String())
	require.Equal(t, "1.5", NewFloat(1.5).String())
	require.Equal(t, "1", NewBool(true).String())
	require.Equal(t, "NULL", Null().String())
}
