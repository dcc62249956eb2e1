package value

import (
	"fmt"
	"strings"

	"github.com/dolthub/swiss"
)

// Map is a hash table from Value to Value, spec.md §3. Keys are restricted
// to primitives, strings, and object-identity for instances; lists and maps
// are rejected as keys (both because they are mutable, and because nothing
// in this VM gives them a content hash).
//
// Grounded on the teacher's lang/machine/map.go: a *swiss.Map[Value,Value],
// generalized with the key-hashability check spec.md requires and with the
// Delete/Has/Keys/Values/Clear operations the map() native family needs.
type Map struct {
	Obj
	m *swiss.Map[Value, Value]
}

var (
	_ Value  = (*Map)(nil)
	_ Object = (*Map)(nil)
)

// NewMap returns an empty map with initial capacity for at least size
// entries.
func NewMap(size int) *Map {
	if size < 0 {
		size = 0
	}
	return &Map{Obj: Obj{Kind: ObjMap}, m: swiss.NewMap[Value, Value](uint32(size))}
}

func (*Map) Type() string   { return "map" }
func (m *Map) Header() *Obj { return &m.Obj }

func (m *Map) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	m.m.Iter(func(k, v Value) bool {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&sb, "%s: %s", k.String(), v.String())
		return false
	})
	sb.WriteByte('}')
	return sb.String()
}

// IsHashable reports whether v may be used as a map key: primitives and
// strings compare/hash by value, instances by identity; lists and maps are
// rejected (spec.md §3).
func IsHashable(v Value) bool {
	switch v.(type) {
	case *List, *Map:
		return false
	default:
		return true
	}
}

// Get returns the value for k, or !found if absent.
func (m *Map) Get(k Value) (Value, bool) { return m.m.Get(k) }

// Set stores v under k. It returns an error if k is not hashable.
func (m *Map) Set(k, v Value) error {
	if !IsHashable(k) {
		return fmt.Errorf("unhashable type: %s", k.Type())
	}
	m.m.Put(k, v)
	return nil
}

// Has reports whether k is present.
func (m *Map) Has(k Value) bool { return m.m.Has(k) }

// Delete removes k, reporting whether it was present.
func (m *Map) Delete(k Value) bool { return m.m.Delete(k) }

// Len returns the number of entries.
func (m *Map) Len() int { return m.m.Count() }

// Clear removes every entry.
func (m *Map) Clear() { m.m.Clear() }

// Keys returns every key, in unspecified order.
func (m *Map) Keys() []Value {
	keys := make([]Value, 0, m.Len())
	m.m.Iter(func(k, _ Value) bool {
		keys = append(keys, k)
		return false
	})
	return keys
}

// Values returns every value, in unspecified order (matching Keys' order
// for the same map generation).
func (m *Map) Values() []Value {
	vals := make([]Value, 0, m.Len())
	m.m.Iter(func(_, v Value) bool {
		vals = append(vals, v)
		return false
	})
	return vals
}

// Each calls fn for every key/value pair, stopping early if fn returns
// false. Used by the garbage collector to trace a Map's contents.
func (m *Map) Each(fn func(k, v Value) bool) {
	m.m.Iter(func(k, v Value) bool {
		return !fn(k, v)
	})
}
