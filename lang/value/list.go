package value

import "strings"

// List is a dynamic array of Value, spec.md §3.
type List struct {
	Obj
	Elems []Value
}

var (
	_ Value  = (*List)(nil)
	_ Object = (*List)(nil)
)

func NewList(elems []Value) *List {
	return &List{Obj: Obj{Kind: ObjList}, Elems: elems}
}

// String implements spec.md §6: "list → [e1, e2, ...] using the same rules
// on each element (strings unquoted inside lists too)".
func (l *List) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, e := range l.Elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

func (*List) Type() string   { return "list" }
func (l *List) Header() *Obj { return &l.Obj }

// Len returns the number of elements, backing the len()/cap() natives.
func (l *List) Len() int { return len(l.Elems) }
