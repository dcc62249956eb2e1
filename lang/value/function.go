package value

import "fmt"

// Function is a compiled function body: its name (for diagnostics and
// stack traces), its parameter count, how many upvalues its closures
// capture, and its compiled Chunk. spec.md §3.
type Function struct {
	Obj
	Name          string
	Arity         int
	UpvalueCount  int
	Chunk         *Chunk
	IsInitializer bool // true for a class's init method, see spec.md §4.3.5
}

var (
	_ Value  = (*Function)(nil)
	_ Object = (*Function)(nil)
)

func NewFunction(name string, arity int) *Function {
	return &Function{Obj: Obj{Kind: ObjFunction}, Name: name, Arity: arity, Chunk: &Chunk{}}
}

func (f *Function) String() string {
	if f.Name == "" {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name)
}
func (*Function) Type() string   { return "function" }
func (f *Function) Header() *Obj { return &f.Obj }

// Context is the host-facing surface a NativeFn needs: enough of the VM and
// heap to allocate new values, report errors and write program output,
// without lang/value importing either lang/vm or lang/heap (which both
// import lang/value already). Package lang/vm's Thread implements Context.
type Context interface {
	// NewString interns s and returns the (possibly shared) *String.
	NewString(s string) *String
	// NewList allocates a fresh *List containing elems.
	NewList(elems []Value) *List
	// NewMap allocates a fresh, empty *Map.
	NewMap() *Map
	// Print writes args to the program's standard output, space-separated,
	// optionally followed by a newline (the print()/println() natives'
	// only difference, spec.md §6).
	Print(args []Value, newline bool)
	// MemStats reports the heap's current allocation counters, for the
	// sys__mem_* introspection natives (spec.md §4.5).
	MemStats() MemStats
	// RuntimeErrorf builds a runtime error the VM will report with a stack
	// trace, per spec.md §7.
	RuntimeErrorf(format string, args ...any) error
}

// MemStats snapshots the heap's allocation counters (spec.md §4.5).
type MemStats struct {
	BytesAllocated uint64
	BytesFreed     uint64
	NetBytes       uint64
	ObjectsCreated uint64
	LiveObjects    uint64
	NextGC         uint64
}

// NativeFn is the Go function backing a NativeFunction value. It receives a
// read-only slice of the call's arguments and returns either a result value
// or an error describing an argc/type mismatch (spec.md §6 "Native calling
// convention").
type NativeFn func(ctx Context, args []Value) (Value, error)

// NativeFunction is a host function invoked through the same CALL opcode as
// a Closure (spec.md §3, §4.4.3).
type NativeFunction struct {
	Obj
	Name string
	// Arity is the required argument count, or -1 if the native accepts a
	// variable number of arguments and checks arity itself.
	Arity int
	Fn    NativeFn
}

var (
	_ Value  = (*NativeFunction)(nil)
	_ Object = (*NativeFunction)(nil)
)

func NewNativeFunction(name string, arity int, fn NativeFn) *NativeFunction {
	return &NativeFunction{Obj: Obj{Kind: ObjNative}, Name: name, Arity: arity, Fn: fn}
}

func (n *NativeFunction) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }
func (*NativeFunction) Type() string     { return "native" }
func (n *NativeFunction) Header() *Obj   { return &n.Obj }

// Upvalue is the runtime cell that lets a closure see an enclosing
// function's local. It is "open" while the enclosing frame is live (Closed
// is false and StackIndex names the slot in the value stack) and "closed"
// after (Closed is true and Value holds the value directly). spec.md §3.
type Upvalue struct {
	Obj
	StackIndex int // valid only while Closed == false
	Closed     bool
	Value      Value
	// Next links open upvalues together, sorted by descending StackIndex, per
	// spec.md §3's invariant. Only meaningful while Closed == false.
	Next *Upvalue
}

var (
	_ Value  = (*Upvalue)(nil)
	_ Object = (*Upvalue)(nil)
)

// const-ness of an upvalue-captured local is enforced entirely at compile
// time (lang/compiler/resolve.go's upvalueDesc.isConst, checked in
// expr.go's assignment handling) since the compiler already knows, for
// every read of a captured name, whether the originating declaration was
// const. There is no runtime check left for this Upvalue to carry.
func NewOpenUpvalue(stackIndex int) *Upvalue {
	return &Upvalue{Obj: Obj{Kind: ObjUpvalue}, StackIndex: stackIndex}
}

func (u *Upvalue) String() string { return "<upvalue>" }
func (*Upvalue) Type() string     { return "upvalue" }
func (u *Upvalue) Header() *Obj   { return &u.Obj }

// Closure pairs a Function with the upvalues its closures captured
// (spec.md §3).
type Closure struct {
	Obj
	Function *Function
	Upvalues []*Upvalue
}

var (
	_ Value  = (*Closure)(nil)
	_ Object = (*Closure)(nil)
)

func NewClosure(fn *Function) *Closure {
	return &Closure{Obj: Obj{Kind: ObjClosure}, Function: fn, Upvalues: make([]*Upvalue, fn.UpvalueCount)}
}

func (c *Closure) String() string { return c.Function.String() }
func (*Closure) Type() string     { return "closure" }
func (c *Closure) Header() *Obj   { return &c.Obj }
