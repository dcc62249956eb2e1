package token_test

import (
	"testing"

	"github.com/mna/loxvm/lang/token"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	require.Equal(t, "+", token.PLUS.String())
	require.Equal(t, "class", token.CLASS.String())
	require.Equal(t, "end of file", token.EOF.String())
}

func TestKeywords(t *testing.T) {
	k, ok := token.Keywords["while"]
	require.True(t, ok)
	require.Equal(t, token.WHILE, k)

	_, ok = token.Keywords["notakeyword"]
	require.False(t, ok)
}

func TestPosRoundtrip(t *testing.T) {
	p := token.MakePos(12, 34)
	line, col := p.LineCol()
	require.Equal(t, 12, line)
	require.Equal(t, 34, col)
	require.False(t, p.Unknown())

	require.True(t, token.Pos(0).Unknown())
}
