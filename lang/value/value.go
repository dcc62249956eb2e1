// Package value implements the tagged Value representation described in
// spec.md §3: a small union of primitive variants (nil, bool, number, int)
// plus an opaque handle to a heap-allocated Obj for everything else
// (strings, functions, closures, classes, instances, lists, maps, ...).
//
// This mirrors the teacher's (github.com/mna/nenuphar) lang/machine value
// family: Value is a Go interface implemented by a handful of small
// concrete types, rather than a hand-rolled tagged union/NaN-box as in a
// systems language — the Go compiler already gives every Value a type tag
// for free via its interface representation.
//
// Heap object types additionally embed Obj, which carries the bookkeeping
// the garbage collector (package github.com/mna/loxvm/lang/heap) needs:
// a mark bit and the intrusive singly-linked "all objects" list pointer
// from spec.md §3 Heap Object.
package value

import "fmt"

// Value is implemented by every runtime value the VM can hold on its stack,
// in a local, global, field or list/map slot.
type Value interface {
	// String formats the value the way spec.md §6 "Printing format" requires.
	String() string
	// Type returns the name reported by the type() native (e.g. "nil",
	// "bool", "int", "double", "string", "function", ...).
	Type() string
}

// Nil is the singular value of type NilType, the type of the literal nil.
type NilType struct{}

// Nil is the only value of type NilType.
var Nil = NilType{}

func (NilType) String() string { return "nil" }
func (NilType) Type() string   { return "nil" }

// Bool is the type of true and false.
type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) Type() string { return "bool" }

// Int is a 64-bit signed integer value. type(Int(0)) is "int" per spec.md §3.
type Int int64

func (i Int) String() string { return fmt.Sprintf("%d", int64(i)) }
func (Int) Type() string     { return "int" }

// Float is an IEEE-754 double value. type(Float(0)) is "double" per
// spec.md §3.
type Float float64

func (f Float) String() string { return formatFloat(float64(f)) }
func (Float) Type() string     { return "double" }

// IsTruthy implements spec.md §3's truthiness rule: only false and nil are
// falsy, everything else (0, "", empty containers included) is truthy.
func IsTruthy(v Value) bool {
	switch v := v.(type) {
	case NilType:
		return false
	case Bool:
		return bool(v)
	default:
		return true
	}
}
