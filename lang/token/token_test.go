package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenString(t *testing.T) {
	for tok := PLUS; tok <= NOT; tok++ {
		require.NotEqual(t, "illegal token", tok.String(), "token %d", tok)
	}
	require.Equal(t, "illegal token", ILLEGAL.String())
	require.Equal(t, "illegal token", maxToken.String())
}

func TestIsComparison(t *testing.T) {
	cases := []struct {
		tok  Token
		want bool
	}{
		{EQL, true},
		{NEQ, true},
		{LT, true},
		{LE, true},
		{GT, true},
		{GE, true},
		{PLUS, false},
		{AND, false},
		{NOT, false},
	}
	for _, c := range cases {
		require.Equal(t, c.want, c.tok.IsComparison(), c.tok.String())
	}
}
