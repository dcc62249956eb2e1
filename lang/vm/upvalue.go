package vm

import "github.com/mna/loxvm/lang/value"

// captureUpvalue finds (reusing an already-open upvalue if one points at
// stackIndex) or creates an open Upvalue for the local at stackIndex,
// inserting it into th.openUpvalues, sorted by descending StackIndex
// (spec.md §4.4.4).
func (th *Thread) captureUpvalue(stackIndex int) *value.Upvalue {
	var prev *value.Upvalue
	uv := th.openUpvalues
	for uv != nil && uv.StackIndex > stackIndex {
		prev = uv
		uv = uv.Next
	}
	if uv != nil && uv.StackIndex == stackIndex {
		return uv
	}
	created := th.heap.NewOpenUpvalue(stackIndex)
	created.Next = uv
	if prev == nil {
		th.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue whose StackIndex is >= from,
// copying the live stack value into the upvalue's own storage so it
// survives the stack slot being popped or reused (spec.md §4.4.4).
func (th *Thread) closeUpvalues(from int) {
	for th.openUpvalues != nil && th.openUpvalues.StackIndex >= from {
		uv := th.openUpvalues
		uv.Value = th.stack[uv.StackIndex]
		uv.Closed = true
		th.openUpvalues = uv.Next
		uv.Next = nil
	}
}

func (th *Thread) upvalueValue(uv *value.Upvalue) value.Value {
	if uv.Closed {
		return uv.Value
	}
	return th.stack[uv.StackIndex]
}

func (th *Thread) setUpvalueValue(uv *value.Upvalue, v value.Value) {
	if uv.Closed {
		uv.Value = v
	} else {
		th.stack[uv.StackIndex] = v
	}
}
