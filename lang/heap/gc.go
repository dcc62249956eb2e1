package heap

import (
	"github.com/mna/loxvm/lang/value"
	"golang.org/x/exp/maps"
)

// Collect runs one full mark-sweep cycle: mark every reachable object gray,
// drain the gray worklist to black (tracing each object's children), prune
// the weak string-intern table, then sweep the object list, freeing
// anything left unmarked (spec.md §4.5).
func (h *Heap) Collect() {
	h.markRoots()
	h.traceGray()
	h.pruneInternTable()
	h.sweep()

	net := h.netBytes()
	threshold := net * h.growthFactor
	if threshold < h.initialThreshold {
		threshold = h.initialThreshold
	}
	h.nextGC = threshold
}

func (h *Heap) markRoots() {
	if h.root != nil {
		h.root.MarkRoots(h.mark)
	}
	for _, v := range h.compilerRoots {
		h.mark(v)
	}
}

// mark is the gray-the-root half of the tri-color discipline: marking a
// fresh Object transitions it white->gray by adding it to the worklist;
// traceGray later transitions gray->black by scanning its children.
func (h *Heap) mark(v value.Value) {
	obj, ok := v.(value.Object)
	if !ok {
		return // primitive (nil, bool, int, double): nothing to trace
	}
	hdr := obj.Header()
	if hdr.Marked {
		return
	}
	hdr.Marked = true
	h.gray = append(h.gray, obj)
}

func (h *Heap) traceGray() {
	for len(h.gray) > 0 {
		n := len(h.gray) - 1
		obj := h.gray[n]
		h.gray = h.gray[:n]
		h.traceChildren(obj)
	}
}

// traceChildren marks every Value obj directly references, per the
// per-object tracing rules of spec.md §4.5.
func (h *Heap) traceChildren(obj value.Object) {
	switch o := obj.(type) {
	case *value.String:
		// no outgoing references
	case *value.Function:
		for _, c := range o.Chunk.Constants {
			h.mark(c)
		}
	case *value.NativeFunction:
		// no outgoing references
	case *value.Closure:
		h.mark(o.Function)
		for _, uv := range o.Upvalues {
			if uv != nil {
				h.mark(uv)
			}
		}
	case *value.Upvalue:
		if o.Closed {
			h.mark(o.Value)
		}
	case *value.Class:
		for _, m := range o.Methods {
			h.mark(m)
		}
		if o.Superclass != nil {
			h.mark(o.Superclass)
		}
	case *value.Instance:
		h.mark(o.Class)
		for _, f := range o.Fields {
			h.mark(f)
		}
	case *value.BoundMethod:
		h.mark(o.Receiver)
		h.mark(o.Method)
	case *value.List:
		for _, e := range o.Elems {
			h.mark(e)
		}
	case *value.Map:
		o.Each(func(k, v value.Value) bool {
			h.mark(k)
			h.mark(v)
			return true
		})
	}
}

// pruneInternTable removes intern-table entries whose *String did not
// survive the mark phase: the intern table is a weak reference (spec.md §3
// invariant, §4.5), so an otherwise-unreached string must not resurrect it.
//
// Keys are snapshotted with x/exp/maps.Keys before any deletion, the same
// "copy then mutate" idiom the teacher's resolver package uses when it
// needs a stable view of a map it is about to change.
func (h *Heap) pruneInternTable() {
	for _, k := range maps.Keys(h.strings) {
		if s := h.strings[k]; !s.Marked {
			delete(h.strings, k)
		}
	}
}

func (h *Heap) sweep() {
	var prev value.Object
	obj := h.objects
	for obj != nil {
		hdr := obj.Header()
		next := hdr.Next
		if hdr.Marked {
			hdr.Marked = false
			prev = obj
		} else {
			if prev == nil {
				h.objects = next
			} else {
				prev.Header().Next = next
			}
			h.bytesFreed += sizeOf(obj)
			h.liveObjects--
		}
		obj = next
	}
}
