package heap

import "github.com/mna/loxvm/lang/value"

// sizeOf approximates the number of bytes obj occupies, for the byte
// counters the sys__mem_* natives expose (spec.md §4.5) and for the sweep
// phase's bytesFreed accounting. These are bookkeeping estimates, not
// exact Go runtime sizes: Go's own allocator already manages real memory,
// so the numbers only need to be consistent enough for the collector's
// threshold math and for tests to observe growth and shrinkage.
func sizeOf(obj value.Object) uint64 {
	switch o := obj.(type) {
	case *value.String:
		return stringSize(len(o.Chars))
	case *value.Function:
		return 48
	case *value.NativeFunction:
		return 32
	case *value.Closure:
		return closureSize(len(o.Upvalues))
	case *value.Upvalue:
		return 32
	case *value.Class:
		return classSize(len(o.Methods))
	case *value.Instance:
		return instanceSize(len(o.Fields))
	case *value.BoundMethod:
		return 24
	case *value.List:
		return listSize(len(o.Elems))
	case *value.Map:
		return mapSize(o.Len())
	default:
		return 16
	}
}

func stringSize(n int) uint64   { return 24 + uint64(n) }
func closureSize(n int) uint64  { return 24 + 8*uint64(n) }
func classSize(n int) uint64    { return 40 + 16*uint64(n) }
func instanceSize(n int) uint64 { return 24 + 16*uint64(n) }
func listSize(n int) uint64     { return 24 + 16*uint64(n) }
func mapSize(n int) uint64      { return 32 + 32*uint64(n) }

// Every allocator below follows the same order as the teacher's reallocate
// idiom (and clox's ALLOCATE_OBJ): account for the new bytes, which may run
// a collection, strictly BEFORE constructing and linking the new object.
// Doing it the other way around would let the very object just linked (and
// not yet reachable from any root, since the caller hasn't stored it
// anywhere) be swept by the collection its own allocation triggered.

// NewString interns s: a prior String with the same content is reused,
// otherwise a fresh one is allocated, linked into the heap and inserted
// into the weak intern table (spec.md §3: "at most one String object per
// distinct byte sequence").
func (h *Heap) NewString(s string) *value.String {
	if existing, ok := h.strings[s]; ok {
		return existing
	}
	h.account(stringSize(len(s)))
	str := value.NewString(s, value.FNV1a64(s))
	h.strings[s] = str
	h.link(str)
	return str
}

// NewFunction allocates a fresh, empty Function shell for the compiler to
// fill in as it compiles a function body.
func (h *Heap) NewFunction(name string, arity int) *value.Function {
	h.account(48)
	fn := value.NewFunction(name, arity)
	h.link(fn)
	return fn
}

// NewNativeFunction allocates a NativeFunction wrapping fn.
func (h *Heap) NewNativeFunction(name string, arity int, fn value.NativeFn) *value.NativeFunction {
	h.account(32)
	nf := value.NewNativeFunction(name, arity, fn)
	h.link(nf)
	return nf
}

// NewClosure allocates a Closure over fn, with an empty upvalue array
// sized to fn's upvalue count; the caller fills each slot in as it
// resolves the function's captured variables (spec.md §4.3.4).
func (h *Heap) NewClosure(fn *value.Function) *value.Closure {
	h.account(closureSize(fn.UpvalueCount))
	cl := value.NewClosure(fn)
	h.link(cl)
	return cl
}

// NewOpenUpvalue allocates an upvalue still pointing into the stack at
// stackIndex.
func (h *Heap) NewOpenUpvalue(stackIndex int) *value.Upvalue {
	h.account(32)
	uv := value.NewOpenUpvalue(stackIndex)
	h.link(uv)
	return uv
}

// NewClass allocates an empty class named name.
func (h *Heap) NewClass(name string) *value.Class {
	h.account(classSize(0))
	cls := value.NewClass(name)
	h.link(cls)
	return cls
}

// NewInstance allocates a fresh instance of class with an empty field
// table.
func (h *Heap) NewInstance(class *value.Class) *value.Instance {
	h.account(instanceSize(0))
	inst := value.NewInstance(class)
	h.link(inst)
	return inst
}

// NewBoundMethod allocates a BoundMethod pairing receiver with method.
func (h *Heap) NewBoundMethod(receiver value.Value, method *value.Closure) *value.BoundMethod {
	h.account(24)
	bm := value.NewBoundMethod(receiver, method)
	h.link(bm)
	return bm
}

// NewList allocates a fresh List containing elems (elems is taken by
// reference, not copied).
func (h *Heap) NewList(elems []value.Value) *value.List {
	h.account(listSize(len(elems)))
	l := value.NewList(elems)
	h.link(l)
	return l
}

// NewMap allocates a fresh, empty Map with initial capacity for size
// entries.
func (h *Heap) NewMap(size int) *value.Map {
	h.account(mapSize(0))
	m := value.NewMap(size)
	h.link(m)
	return m
}
