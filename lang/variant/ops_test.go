package variant

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/burdockcascade/bytevm/lang/token"
)

func TestAdd(t *testing.T) {
	cases := []struct {
		desc    string
		a, b    Value
		want    Value
		wantErr bool
	}{
		{"int+int", Integer(1), Integer(2), Integer(3), false},
		{"float+float", Float(1.5), Float(2.5), Float(4), false},
		{"string+int stringifies right", Str("n="), Integer(3), Str("n=3"), false},
		{"bool+bool is and", True, False, False, false},
		{"int+string fails", Integer(1), Str("x"), nil, true},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			got, err := Binary(token.PLUS, c.a, c.b)
			if c.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, c.want, got)
		})
	}
}

func TestAddArrayConcatenatesWithFreshIdentity(t *testing.T) {
	a := NewArray([]Value{Integer(1)})
	b := NewArray([]Value{Integer(2)})
	got, err := Binary(token.PLUS, a, b)
	require.NoError(t, err)
	arr, ok := got.(*Array)
	require.True(t, ok)
	require.NotSame(t, a, arr)
	require.NotSame(t, b, arr)
	require.Equal(t, 2, arr.Len())
}

func TestDivisionAndModByZero(t *testing.T) {
	_, err := Binary(token.SLASH, Integer(1), Integer(0))
	require.ErrorIs(t, err, ErrDivisionByZero)

	_, err = Binary(token.PCT, Integer(1), Integer(0))
	require.ErrorIs(t, err, ErrDivisionByZero)
}

func TestPowNegativeExponentFails(t *testing.T) {
	_, err := Binary(token.CARET, Integer(2), Integer(-1))
	require.Error(t, err)
}

func TestPow(t *testing.T) {
	got, err := Binary(token.CARET, Integer(2), Integer(10))
	require.NoError(t, err)
	require.Equal(t, Integer(1024), got)
}

func TestNegate(t *testing.T) {
	got, err := Negate(Integer(5))
	require.NoError(t, err)
	require.Equal(t, Integer(-5), got)

	got, err = Negate(True)
	require.NoError(t, err)
	require.Equal(t, False, got)
}

func TestNot(t *testing.T) {
	cases := []struct {
		v    Value
		want Boolean
	}{
		{Integer(0), True},
		{Integer(1), False},
		{Str(""), True},
		{Str("x"), False},
		{False, True},
	}
	for _, c := range cases {
		got, err := Not(c.v)
		require.NoError(t, err)
		require.Equal(t, c.want, got)
	}
}

func TestCompareOnlyNumeric(t *testing.T) {
	ok, err := Compare(token.LT, Integer(1), Integer(2))
	require.NoError(t, err)
	require.True(t, ok)

	_, err = Compare(token.LT, Str("a"), Str("b"))
	require.Error(t, err)
}

func TestEqualStructural(t *testing.T) {
	a := NewArray([]Value{Integer(1), Str("x")})
	b := NewArray([]Value{Integer(1), Str("x")})
	eq, err := Equal(a, b)
	require.NoError(t, err)
	require.True(t, eq)

	eq, err = Equal(Integer(1), Str("1"))
	require.NoError(t, err)
	require.False(t, eq)
}

func TestTruth(t *testing.T) {
	require.Equal(t, False, Truth(Null{}))
	require.Equal(t, False, Truth(Integer(0)))
	require.Equal(t, True, Truth(Integer(1)))
	require.Equal(t, True, Truth(NewArray(nil)))
}
