package value

import "fmt"

// Class is a heap object naming a set of methods and, optionally, a
// superclass (spec.md §3, §4.3.5).
type Class struct {
	Obj
	Name       string
	Methods    map[string]*Closure
	Init       *Closure // the "init" method, if any; see spec.md §3 invariants
	Superclass *Class
}

var (
	_ Value  = (*Class)(nil)
	_ Object = (*Class)(nil)
)

func NewClass(name string) *Class {
	return &Class{Obj: Obj{Kind: ObjClass}, Name: name, Methods: make(map[string]*Closure)}
}

func (c *Class) String() string { return c.Name }
func (*Class) Type() string     { return "class" }
func (c *Class) Header() *Obj   { return &c.Obj }

// Instance is a heap object holding a Class reference and a field table
// (spec.md §3).
type Instance struct {
	Obj
	Class  *Class
	Fields map[string]Value
}

var (
	_ Value  = (*Instance)(nil)
	_ Object = (*Instance)(nil)
)

func NewInstance(class *Class) *Instance {
	return &Instance{Obj: Obj{Kind: ObjInstance}, Class: class, Fields: make(map[string]Value)}
}

// String implements spec.md §6: "instance → contains class name and the
// word 'instance' in some order".
func (i *Instance) String() string { return fmt.Sprintf("%s instance", i.Class.Name) }
func (*Instance) Type() string     { return "instance" }
func (i *Instance) Header() *Obj   { return &i.Obj }

// BoundMethod pairs a receiver value with the Closure to invoke when it is
// called, supplying "this" implicitly (spec.md §3, glossary "Bound
// method").
type BoundMethod struct {
	Obj
	Receiver Value
	Method   *Closure
}

var (
	_ Value  = (*BoundMethod)(nil)
	_ Object = (*BoundMethod)(nil)
)

func NewBoundMethod(receiver Value, method *Closure) *BoundMethod {
	return &BoundMethod{Obj: Obj{Kind: ObjBoundMethod}, Receiver: receiver, Method: method}
}

func (b *BoundMethod) String() string { return b.Method.String() }
func (*BoundMethod) Type() string     { return "bound method" }
func (b *BoundMethod) Header() *Obj   { return &b.Obj }
