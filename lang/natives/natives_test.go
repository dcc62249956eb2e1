package natives_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/loxvm/lang/heap"
	"github.com/mna/loxvm/lang/natives"
	"github.com/mna/loxvm/lang/value"
	"github.com/mna/loxvm/lang/vm"
)

func newCtx(t *testing.T) (value.Context, *heap.Heap, *strings.Builder) {
	t.Helper()
	h := heap.New(0, false)
	var out strings.Builder
	th := vm.New(h, &out)
	return th, h, &out
}

func find(t *testing.T, name string) *value.NativeFunction {
	t.Helper()
	for _, nf := range natives.All() {
		if nf.Name == name {
			return nf
		}
	}
	t.Fatalf("no native named %q", name)
	return nil
}

func call(t *testing.T, ctx value.Context, name string, args ...value.Value) (value.Value, error) {
	t.Helper()
	return find(t, name).Fn(ctx, args)
}

func TestSqrt(t *testing.T) {
	ctx, _, _ := newCtx(t)
	v, err := call(t, ctx, "sqrt", value.Float(9))
	require.NoError(t, err)
	assert.Equal(t, value.Float(3), v)
}

func TestSqrtRejectsNonNumber(t *testing.T) {
	ctx, _, _ := newCtx(t)
	_, err := call(t, ctx, "sqrt", ctx.NewString("x"))
	require.Error(t, err)
}

func TestRandIsWithinUnitInterval(t *testing.T) {
	ctx, _, _ := newCtx(t)
	v, err := call(t, ctx, "rand")
	require.NoError(t, err)
	f := float64(v.(value.Float))
	assert.GreaterOrEqual(t, f, 0.0)
	assert.Less(t, f, 1.0)
}

func TestRandintIsWithinBounds(t *testing.T) {
	ctx, _, _ := newCtx(t)
	for i := 0; i < 50; i++ {
		v, err := call(t, ctx, "randint", value.Int(3), value.Int(5))
		require.NoError(t, err)
		n := int64(v.(value.Int))
		assert.True(t, n >= 3 && n <= 5)
	}
}

func TestRandintRejectsInvertedRange(t *testing.T) {
	ctx, _, _ := newCtx(t)
	_, err := call(t, ctx, "randint", value.Int(5), value.Int(3))
	require.Error(t, err)
}

func TestLenOfStringListMap(t *testing.T) {
	ctx, _, _ := newCtx(t)
	l := ctx.NewList([]value.Value{value.Int(1), value.Int(2)})
	m := ctx.NewMap()
	require.NoError(t, m.Set(value.Int(1), value.Int(2)))

	lv, err := call(t, ctx, "len", ctx.NewString("abcd"))
	require.NoError(t, err)
	assert.Equal(t, value.Int(4), lv)

	lv, err = call(t, ctx, "len", l)
	require.NoError(t, err)
	assert.Equal(t, value.Int(2), lv)

	lv, err = call(t, ctx, "len", m)
	require.NoError(t, err)
	assert.Equal(t, value.Int(1), lv)
}

func TestListAppendPop(t *testing.T) {
	ctx, _, _ := newCtx(t)
	l, err := call(t, ctx, "list", value.Int(1), value.Int(2))
	require.NoError(t, err)

	_, err = call(t, ctx, "append", l, value.Int(3))
	require.NoError(t, err)
	assert.Equal(t, 3, l.(*value.List).Len())

	popped, err := call(t, ctx, "pop", l)
	require.NoError(t, err)
	assert.Equal(t, value.Int(3), popped)
	assert.Equal(t, 2, l.(*value.List).Len())
}

func TestPopFromEmptyListErrors(t *testing.T) {
	ctx, _, _ := newCtx(t)
	l, err := call(t, ctx, "list")
	require.NoError(t, err)
	_, err = call(t, ctx, "pop", l)
	require.Error(t, err)
}

func TestMapKeysValuesHasClearDeleteGet(t *testing.T) {
	ctx, _, _ := newCtx(t)
	m, err := call(t, ctx, "map", ctx.NewString("a"), value.Int(1), ctx.NewString("b"), value.Int(2))
	require.NoError(t, err)

	hasV, err := call(t, ctx, "has", m, ctx.NewString("a"))
	require.NoError(t, err)
	assert.Equal(t, value.Bool(true), hasV)

	keysV, err := call(t, ctx, "keys", m)
	require.NoError(t, err)
	assert.Equal(t, 2, keysV.(*value.List).Len())

	valuesV, err := call(t, ctx, "values", m)
	require.NoError(t, err)
	assert.Equal(t, 2, valuesV.(*value.List).Len())

	gotV, err := call(t, ctx, "get", m, ctx.NewString("a"), value.Int(-1))
	require.NoError(t, err)
	assert.Equal(t, value.Int(1), gotV)

	missingV, err := call(t, ctx, "get", m, ctx.NewString("nope"), value.Int(-1))
	require.NoError(t, err)
	assert.Equal(t, value.Int(-1), missingV)

	delV, err := call(t, ctx, "delete", m, ctx.NewString("a"))
	require.NoError(t, err)
	assert.Equal(t, value.Bool(true), delV)

	_, err = call(t, ctx, "clear", m)
	require.NoError(t, err)
	assert.Equal(t, 0, m.(*value.Map).Len())
}

func TestMapRejectsOddArgCount(t *testing.T) {
	ctx, _, _ := newCtx(t)
	_, err := call(t, ctx, "map", ctx.NewString("a"))
	require.Error(t, err)
}

func TestDeleteRejectsUnhashableKey(t *testing.T) {
	ctx, _, _ := newCtx(t)
	m, err := call(t, ctx, "map")
	require.NoError(t, err)
	l, err := call(t, ctx, "list")
	require.NoError(t, err)
	_, err = call(t, ctx, "delete", m, l)
	require.Error(t, err)
}

func TestToStringAndType(t *testing.T) {
	ctx, _, _ := newCtx(t)
	sv, err := call(t, ctx, "to_string", value.Int(42))
	require.NoError(t, err)
	assert.Equal(t, "42", sv.(*value.String).Chars)

	tv, err := call(t, ctx, "type", value.Float(1.5))
	require.NoError(t, err)
	assert.Equal(t, "double", tv.(*value.String).Chars)
}

func TestHashMatchesInternedStringHash(t *testing.T) {
	ctx, _, _ := newCtx(t)
	s := ctx.NewString("hello")
	hv, err := call(t, ctx, "hash", s)
	require.NoError(t, err)
	assert.Equal(t, value.Int(s.Hash), hv)
}

func TestHashRejectsUnhashable(t *testing.T) {
	ctx, _, _ := newCtx(t)
	l, err := call(t, ctx, "list")
	require.NoError(t, err)
	_, err = call(t, ctx, "hash", l)
	require.Error(t, err)
}

func TestPrintHasNoTrailingNewlineAndPrintlnDoes(t *testing.T) {
	ctx, _, out := newCtx(t)
	_, err := call(t, ctx, "print", value.Int(1), value.Int(2))
	require.NoError(t, err)
	assert.Equal(t, "1 2", out.String())

	out.Reset()
	_, err = call(t, ctx, "println", value.Int(1), value.Int(2))
	require.NoError(t, err)
	assert.Equal(t, "1 2\n", out.String())
}

func TestAssertPassesOnTruthyCondition(t *testing.T) {
	ctx, _, _ := newCtx(t)
	_, err := call(t, ctx, "assert", value.Bool(true))
	require.NoError(t, err)
}

func TestAssertFailsWithMessage(t *testing.T) {
	ctx, _, _ := newCtx(t)
	_, err := call(t, ctx, "assert", value.Bool(false), ctx.NewString("oops"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oops")
}

func TestPropertyNatives(t *testing.T) {
	ctx, h, _ := newCtx(t)
	cls := h.NewClass("Point")
	inst := h.NewInstance(cls)

	_, err := call(t, ctx, "set_property", inst, ctx.NewString("x"), value.Int(5))
	require.NoError(t, err)

	hasV, err := call(t, ctx, "has_property", inst, ctx.NewString("x"))
	require.NoError(t, err)
	assert.Equal(t, value.Bool(true), hasV)

	getV, err := call(t, ctx, "get_property", inst, ctx.NewString("x"))
	require.NoError(t, err)
	assert.Equal(t, value.Int(5), getV)

	_, err = call(t, ctx, "get_property", inst, ctx.NewString("nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined key")

	delV, err := call(t, ctx, "del_property", inst, ctx.NewString("x"))
	require.NoError(t, err)
	assert.Equal(t, value.Bool(true), delV)
}

func TestMemStatsNatives(t *testing.T) {
	ctx, _, _ := newCtx(t)
	_, err := call(t, ctx, "list", value.Int(1))
	require.NoError(t, err)

	v, err := call(t, ctx, "sys__mem_get_objects_created")
	require.NoError(t, err)
	assert.Greater(t, int64(v.(value.Int)), int64(0))

	v, err = call(t, ctx, "sys__mem_get_live_objects")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, int64(v.(value.Int)), int64(0))
}
