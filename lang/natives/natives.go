// Package natives implements the concrete native functions spec.md §1
// leaves as an external collaborator, specified only by calling
// convention (§6 "Native calling convention"): each receives a read-only
// slice of argument Values and returns either a result or an error
// describing an argc/type mismatch.
//
// Grounded on kristofer-smog's pkg/vm/primitives.go: natives as ordinary
// Go functions, one per host capability, rather than opcodes of their
// own. That file registers its primitives through a selector switch in
// the VM's method-dispatch path; this package instead returns a
// name-keyed table of *value.NativeFunction, since Lox natives are called
// through the same global-variable/CALL path as any other function
// (spec.md §4.4.3) rather than through a method selector.
package natives

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/mna/loxvm/lang/value"
)

// exitFunc is os.Exit, indirected so tests can observe an exit() call
// without killing the test process.
var exitFunc = os.Exit

// All returns every native function spec.md §1 names, ready to be
// registered into a Thread with Thread.DefineNative.
func All() []*value.NativeFunction {
	fns := []struct {
		name  string
		arity int
		fn    value.NativeFn
	}{
		{"sqrt", 1, natSqrt},
		{"rand", 0, natRand},
		{"randint", 2, natRandint},
		{"len", 1, natLen},
		{"cap", 1, natCap},
		{"list", -1, natList},
		{"append", 2, natAppend},
		{"pop", 1, natPop},
		{"delete", 2, natDelete},
		{"map", -1, natMap},
		{"keys", 1, natKeys},
		{"values", 1, natValues},
		{"has", 2, natHas},
		{"clear", 1, natClear},
		{"get", 3, natGet},
		{"to_string", 1, natToString},
		{"type", 1, natType},
		{"hash", 1, natHash},
		{"print", -1, natPrint},
		{"println", -1, natPrintln},
		{"exit", 1, natExit},
		{"assert", -1, natAssert},
		{"has_property", 2, natHasProperty},
		{"get_property", 2, natGetProperty},
		{"set_property", 3, natSetProperty},
		{"del_property", 2, natDelProperty},
		{"sys__mem_get_bytes_allocated", 0, memStat(func(s value.MemStats) uint64 { return s.BytesAllocated })},
		{"sys__mem_get_bytes_freed", 0, memStat(func(s value.MemStats) uint64 { return s.BytesFreed })},
		{"sys__mem_get_net_bytes", 0, memStat(func(s value.MemStats) uint64 { return s.NetBytes })},
		{"sys__mem_get_objects_created", 0, memStat(func(s value.MemStats) uint64 { return s.ObjectsCreated })},
		{"sys__mem_get_live_objects", 0, memStat(func(s value.MemStats) uint64 { return s.LiveObjects })},
		{"sys__mem_get_next_gc", 0, memStat(func(s value.MemStats) uint64 { return s.NextGC })},
	}
	out := make([]*value.NativeFunction, len(fns))
	for i, f := range fns {
		out[i] = value.NewNativeFunction(f.name, f.arity, f.fn)
	}
	return out
}

func arityError(name string, want, got int) error {
	return fmt.Errorf("%s expects %d argument(s), got %d.", name, want, got)
}

func asNumber(name string, v value.Value) (float64, error) {
	switch v := v.(type) {
	case value.Int:
		return float64(v), nil
	case value.Float:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%s expects a number, got %s.", name, v.Type())
	}
}

func asInt(name string, v value.Value) (int64, error) {
	i, ok := v.(value.Int)
	if !ok {
		return 0, fmt.Errorf("%s expects an int, got %s.", name, v.Type())
	}
	return int64(i), nil
}

func asList(name string, v value.Value) (*value.List, error) {
	l, ok := v.(*value.List)
	if !ok {
		return nil, fmt.Errorf("%s expects a list, got %s.", name, v.Type())
	}
	return l, nil
}

func asMap(name string, v value.Value) (*value.Map, error) {
	m, ok := v.(*value.Map)
	if !ok {
		return nil, fmt.Errorf("%s expects a map, got %s.", name, v.Type())
	}
	return m, nil
}

func asInstance(name string, v value.Value) (*value.Instance, error) {
	inst, ok := v.(*value.Instance)
	if !ok {
		return nil, fmt.Errorf("%s expects an instance, got %s.", name, v.Type())
	}
	return inst, nil
}

func asString(name string, v value.Value) (string, error) {
	s, ok := v.(*value.String)
	if !ok {
		return "", fmt.Errorf("%s expects a string, got %s.", name, v.Type())
	}
	return s.Chars, nil
}

func natSqrt(_ value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, arityError("sqrt", 1, len(args))
	}
	n, err := asNumber("sqrt", args[0])
	if err != nil {
		return nil, err
	}
	return value.Float(math.Sqrt(n)), nil
}

func natRand(_ value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return nil, arityError("rand", 0, len(args))
	}
	return value.Float(rand.Float64()), nil
}

func natRandint(_ value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, arityError("randint", 2, len(args))
	}
	lo, err := asInt("randint", args[0])
	if err != nil {
		return nil, err
	}
	hi, err := asInt("randint", args[1])
	if err != nil {
		return nil, err
	}
	if hi < lo {
		return nil, fmt.Errorf("randint expects low <= high, got %d > %d.", lo, hi)
	}
	return value.Int(lo + rand.Int63n(hi-lo+1)), nil
}

func natLen(_ value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, arityError("len", 1, len(args))
	}
	switch v := args[0].(type) {
	case *value.List:
		return value.Int(v.Len()), nil
	case *value.Map:
		return value.Int(v.Len()), nil
	case *value.String:
		return value.Int(len(v.Chars)), nil
	default:
		return nil, fmt.Errorf("len expects a list, map or string, got %s.", v.Type())
	}
}

func natCap(_ value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, arityError("cap", 1, len(args))
	}
	l, err := asList("cap", args[0])
	if err != nil {
		return nil, err
	}
	return value.Int(cap(l.Elems)), nil
}

func natList(ctx value.Context, args []value.Value) (value.Value, error) {
	elems := append([]value.Value(nil), args...)
	return ctx.NewList(elems), nil
}

func natAppend(_ value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, arityError("append", 2, len(args))
	}
	l, err := asList("append", args[0])
	if err != nil {
		return nil, err
	}
	l.Elems = append(l.Elems, args[1])
	return l, nil
}

func natPop(_ value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, arityError("pop", 1, len(args))
	}
	l, err := asList("pop", args[0])
	if err != nil {
		return nil, err
	}
	if len(l.Elems) == 0 {
		return nil, errors.New("pop from an empty list.")
	}
	last := l.Elems[len(l.Elems)-1]
	l.Elems = l.Elems[:len(l.Elems)-1]
	return last, nil
}

func natDelete(_ value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, arityError("delete", 2, len(args))
	}
	m, err := asMap("delete", args[0])
	if err != nil {
		return nil, err
	}
	if !value.IsHashable(args[1]) {
		return nil, fmt.Errorf("Unhashable type: %s.", args[1].Type())
	}
	return value.Bool(m.Delete(args[1])), nil
}

func natMap(ctx value.Context, args []value.Value) (value.Value, error) {
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("map expects an even number of key/value arguments, got %d.", len(args))
	}
	m := ctx.NewMap()
	for i := 0; i < len(args); i += 2 {
		k, v := args[i], args[i+1]
		if !value.IsHashable(k) {
			return nil, fmt.Errorf("Unhashable type: %s.", k.Type())
		}
		m.Set(k, v)
	}
	return m, nil
}

func natKeys(ctx value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, arityError("keys", 1, len(args))
	}
	m, err := asMap("keys", args[0])
	if err != nil {
		return nil, err
	}
	return ctx.NewList(m.Keys()), nil
}

func natValues(ctx value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, arityError("values", 1, len(args))
	}
	m, err := asMap("values", args[0])
	if err != nil {
		return nil, err
	}
	return ctx.NewList(m.Values()), nil
}

func natHas(_ value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, arityError("has", 2, len(args))
	}
	switch c := args[0].(type) {
	case *value.Map:
		if !value.IsHashable(args[1]) {
			return value.Bool(false), nil
		}
		return value.Bool(c.Has(args[1])), nil
	case *value.List:
		for _, e := range c.Elems {
			if value.Equal(e, args[1]) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	default:
		return nil, fmt.Errorf("has expects a list or map, got %s.", c.Type())
	}
}

func natClear(_ value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, arityError("clear", 1, len(args))
	}
	switch c := args[0].(type) {
	case *value.Map:
		c.Clear()
	case *value.List:
		c.Elems = c.Elems[:0]
	default:
		return nil, fmt.Errorf("clear expects a list or map, got %s.", c.Type())
	}
	return value.Nil, nil
}

func natGet(_ value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 3 {
		return nil, arityError("get", 3, len(args))
	}
	m, err := asMap("get", args[0])
	if err != nil {
		return nil, err
	}
	if !value.IsHashable(args[1]) {
		return args[2], nil
	}
	if v, ok := m.Get(args[1]); ok {
		return v, nil
	}
	return args[2], nil
}

func natToString(ctx value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, arityError("to_string", 1, len(args))
	}
	return ctx.NewString(args[0].String()), nil
}

func natType(ctx value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, arityError("type", 1, len(args))
	}
	return ctx.NewString(args[0].Type()), nil
}

func natHash(_ value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, arityError("hash", 1, len(args))
	}
	if !value.IsHashable(args[0]) {
		return nil, fmt.Errorf("Unhashable type: %s.", args[0].Type())
	}
	if s, ok := args[0].(*value.String); ok {
		return value.Int(s.Hash), nil
	}
	return value.Int(value.FNV1a64(args[0].String())), nil
}

func natPrint(ctx value.Context, args []value.Value) (value.Value, error) {
	ctx.Print(args, false)
	return value.Nil, nil
}

func natPrintln(ctx value.Context, args []value.Value) (value.Value, error) {
	ctx.Print(args, true)
	return value.Nil, nil
}

func natExit(_ value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, arityError("exit", 1, len(args))
	}
	code, err := asInt("exit", args[0])
	if err != nil {
		return nil, err
	}
	exitFunc(int(code))
	return value.Nil, nil
}

// natAssert implements assert(cond) or assert(cond, msg): a falsy cond is
// a runtime error, carrying msg if one was given (spec.md §7 "failed
// assert(cond, msg)").
func natAssert(ctx value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 && len(args) != 2 {
		return nil, fmt.Errorf("assert expects 1 or 2 argument(s), got %d.", len(args))
	}
	if value.IsTruthy(args[0]) {
		return value.Nil, nil
	}
	if len(args) == 2 {
		return nil, ctx.RuntimeErrorf("Assertion failed: %s", args[1].String())
	}
	return nil, ctx.RuntimeErrorf("Assertion failed.")
}

func natHasProperty(_ value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, arityError("has_property", 2, len(args))
	}
	inst, err := asInstance("has_property", args[0])
	if err != nil {
		return nil, err
	}
	name, err := asString("has_property", args[1])
	if err != nil {
		return nil, err
	}
	if _, ok := inst.Fields[name]; ok {
		return value.Bool(true), nil
	}
	_, ok := inst.Class.Methods[name]
	return value.Bool(ok), nil
}

// natGetProperty implements get_property, which errors on an undefined
// key rather than returning nil (spec.md §7: "get_property of an
// undefined key" is its own named runtime error, distinct from the
// INDEX_GET opcode's nil-on-missing-map-key behavior).
func natGetProperty(_ value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, arityError("get_property", 2, len(args))
	}
	inst, err := asInstance("get_property", args[0])
	if err != nil {
		return nil, err
	}
	name, err := asString("get_property", args[1])
	if err != nil {
		return nil, err
	}
	if v, ok := inst.Fields[name]; ok {
		return v, nil
	}
	if m, ok := inst.Class.Methods[name]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("get_property of an undefined key '%s'.", name)
}

func natSetProperty(_ value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 3 {
		return nil, arityError("set_property", 3, len(args))
	}
	inst, err := asInstance("set_property", args[0])
	if err != nil {
		return nil, err
	}
	name, err := asString("set_property", args[1])
	if err != nil {
		return nil, err
	}
	inst.Fields[name] = args[2]
	return args[2], nil
}

func natDelProperty(_ value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, arityError("del_property", 2, len(args))
	}
	inst, err := asInstance("del_property", args[0])
	if err != nil {
		return nil, err
	}
	name, err := asString("del_property", args[1])
	if err != nil {
		return nil, err
	}
	_, existed := inst.Fields[name]
	delete(inst.Fields, name)
	return value.Bool(existed), nil
}

func memStat(get func(value.MemStats) uint64) value.NativeFn {
	return func(ctx value.Context, args []value.Value) (value.Value, error) {
		if len(args) != 0 {
			return nil, arityError("sys__mem_*", 0, len(args))
		}
		return value.Int(get(ctx.MemStats())), nil
	}
}
