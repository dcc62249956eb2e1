package value_test

import (
	"testing"

	"github.com/mna/loxvm/lang/value"
	"github.com/stretchr/testify/require"
)

func TestTruthiness(t *testing.T) {
	require.False(t, value.IsTruthy(value.Nil))
	require.False(t, value.IsTruthy(value.Bool(false)))
	require.True(t, value.IsTruthy(value.Bool(true)))
	require.True(t, value.IsTruthy(value.Int(0)))
	require.True(t, value.IsTruthy(value.NewString("", 0)))
}

func TestNumberFormatting(t *testing.T) {
	require.Equal(t, "4", value.Int(4).String())
	require.Equal(t, "4", value.Float(4).String())
	require.Equal(t, "3.14", value.Float(3.14).String())
}

func TestEqualCrossTag(t *testing.T) {
	require.True(t, value.Equal(value.Int(8), value.Float(8)))
	require.False(t, value.Equal(value.Int(8), value.Bool(true)))
	require.False(t, value.Equal(value.Nil, value.Bool(false)))
}

func TestStringEqualityByIdentity(t *testing.T) {
	s1 := value.NewString("abc", value.FNV1a64("abc"))
	s2 := value.NewString("abc", value.FNV1a64("abc"))
	// not interned here, so distinct objects with equal content are *not*
	// Equal: interning is lang/heap's responsibility.
	require.False(t, value.Equal(s1, s2))
	require.True(t, value.Equal(s1, s1))
}

func TestListString(t *testing.T) {
	l := value.NewList([]value.Value{value.Int(1), value.NewString("a", 0), value.Bool(true)})
	require.Equal(t, "[1, a, true]", l.String())
}

func TestMapHashability(t *testing.T) {
	require.True(t, value.IsHashable(value.Int(1)))
	require.True(t, value.IsHashable(value.NewString("x", 0)))
	require.False(t, value.IsHashable(value.NewList(nil)))
	require.False(t, value.IsHashable(value.NewMap(0)))
}

func TestInstanceString(t *testing.T) {
	cls := value.NewClass("Foo")
	inst := value.NewInstance(cls)
	require.Contains(t, inst.String(), "Foo")
	require.Contains(t, inst.String(), "instance")
}
