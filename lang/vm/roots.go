package vm

import "github.com/mna/loxvm/lang/value"

// MarkRoots implements heap.RootSource: every value stack slot up to the
// current top, every call frame's closure, every open upvalue, and every
// key/value in the globals table are live roots (spec.md §4.5 "Roots").
func (th *Thread) MarkRoots(mark func(value.Value)) {
	for _, v := range th.stack {
		mark(v)
	}
	for _, fr := range th.frames {
		mark(fr.closure)
	}
	for uv := th.openUpvalues; uv != nil; uv = uv.Next {
		mark(uv)
	}
	// globals is keyed by plain Go string, not *value.String, so only the
	// values need marking; each key's interned String is independently
	// reachable from the DEFINE_GLOBAL site's constant pool.
	for _, v := range th.globals {
		mark(v)
	}
}
