package vm

import (
	"io"

	"github.com/mna/loxvm/lang/value"
)

// The remaining methods of value.Context — NewString, NewList, NewMap,
// Print, MemStats — let native functions (package lang/natives) allocate
// and report through the same heap and stdout the VM itself uses,
// without lang/value importing lang/vm or lang/heap (see function.go's
// Context doc comment).

func (th *Thread) NewString(s string) *value.String { return th.heap.NewString(s) }

func (th *Thread) NewList(elems []value.Value) *value.List { return th.heap.NewList(elems) }

func (th *Thread) NewMap() *value.Map { return th.heap.NewMap(0) }

func (th *Thread) Print(args []value.Value, newline bool) {
	for i, a := range args {
		if i > 0 {
			io.WriteString(th.stdout, " ")
		}
		io.WriteString(th.stdout, a.String())
	}
	if newline {
		io.WriteString(th.stdout, "\n")
	}
}

func (th *Thread) MemStats() value.MemStats {
	s := th.heap.Stats()
	return value.MemStats{
		BytesAllocated: s.BytesAllocated,
		BytesFreed:     s.BytesFreed,
		NetBytes:       s.NetBytes,
		ObjectsCreated: s.ObjectsCreated,
		LiveObjects:    s.LiveObjects,
		NextGC:         s.NextGC,
	}
}
