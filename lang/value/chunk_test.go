package value_test

import (
	"testing"

	"github.com/mna/loxvm/lang/bytecode"
	"github.com/mna/loxvm/lang/value"
	"github.com/stretchr/testify/require"
)

func TestChunkLineRLE(t *testing.T) {
	c := &value.Chunk{}
	c.Write(byte(bytecode.NIL), 1)
	c.Write(byte(bytecode.POP), 1)
	c.Write(byte(bytecode.NIL), 2)

	require.Equal(t, 1, c.Line(0))
	require.Equal(t, 1, c.Line(1))
	require.Equal(t, 2, c.Line(2))
}

func TestAddConstantDedupesInternedStrings(t *testing.T) {
	c := &value.Chunk{}
	s := value.NewString("hello", value.FNV1a64("hello"))
	i1 := c.AddConstant(s)
	i2 := c.AddConstant(s)
	require.Equal(t, i1, i2)
	require.Len(t, c.Constants, 1)

	i3 := c.AddConstant(value.Int(42))
	require.NotEqual(t, i1, i3)
	require.Len(t, c.Constants, 2)
}
