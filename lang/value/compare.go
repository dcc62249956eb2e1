package value

// Equal implements spec.md §3 equality: same-tag value equality; cross-tag
// comparisons are false except that int/double may compare equal when
// mathematically equal. Strings compare by content (pointer identity,
// since they are interned). Other heap objects compare by identity.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case NilType:
		_, ok := b.(NilType)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Int:
		switch y := b.(type) {
		case Int:
			return x == y
		case Float:
			return Float(x) == y
		}
		return false
	case Float:
		switch y := b.(type) {
		case Float:
			return x == y
		case Int:
			return x == Float(y)
		}
		return false
	case *String:
		y, ok := b.(*String)
		return ok && x == y
	default:
		return a == b
	}
}

// Less reports whether a < b for two numeric values (int or double, mixed
// freely). Non-numeric operands are the caller's responsibility to reject
// before calling Less (spec.md §4.4.5).
func Less(a, b Value) (bool, bool) {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return false, false
	}
	return af < bf, true
}

// Greater reports whether a > b, with the same numeric-only contract as
// Less.
func Greater(a, b Value) (bool, bool) {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return false, false
	}
	return af > bf, true
}

func asFloat(v Value) (float64, bool) {
	switch v := v.(type) {
	case Int:
		return float64(v), true
	case Float:
		return float64(v), true
	default:
		return 0, false
	}
}
