package vm

import "github.com/mna/loxvm/lang/value"

// getProperty implements GET_PROPERTY (spec.md §4.4.2): an instance field
// wins over a method of the same name; a method hit is wrapped in a
// BoundMethod so it can be called (or merely stored) independently of its
// receiver.
func (th *Thread) getProperty(name string) error {
	inst, ok := th.peek(0).(*value.Instance)
	if !ok {
		return th.runtimeErrorf("Only instances have properties.")
	}
	if field, ok := inst.Fields[name]; ok {
		th.pop()
		th.push(field)
		return nil
	}
	method, ok := inst.Class.Methods[name]
	if !ok {
		return th.runtimeErrorf("Undefined property '%s'.", name)
	}
	th.pop()
	th.push(th.heap.NewBoundMethod(inst, method))
	return nil
}

// setProperty implements SET_PROPERTY: stack holds [instance, value];
// assignment always targets the field table and never replaces the class's
// method; a field set under a method's name is what getProperty then
// returns for that name (spec.md §4.3.5).
func (th *Thread) setProperty(name string) error {
	val := th.pop()
	inst, ok := th.pop().(*value.Instance)
	if !ok {
		return th.runtimeErrorf("Only instances have properties.")
	}
	inst.Fields[name] = val
	th.push(val)
	return nil
}

// getSuper implements GET_SUPER: stack holds [this, superclass]. The
// method is looked up directly in the superclass (not through the
// subclass's already-flattened Methods table), then bound to "this"
// (spec.md §4.3.5, §4.4.3).
func (th *Thread) getSuper(name string) error {
	super := th.pop().(*value.Class)
	this := th.pop()
	method, ok := super.Methods[name]
	if !ok {
		return th.runtimeErrorf("Undefined property '%s'.", name)
	}
	th.push(th.heap.NewBoundMethod(this, method))
	return nil
}

// inherit implements OP_INHERIT: stack holds [superclass, subclass].
// Every superclass method (including its "init", if any) is copied into
// the subclass's own Methods table — a flattened, table-add-all model, so
// later method lookups on the subclass never need to walk the
// Superclass chain (spec.md §4.3.5). Only the subclass slot is popped;
// the superclass slot remains, aliased by the compiler's synthetic
// "super" local.
func (th *Thread) inherit() error {
	super, ok := th.peek(1).(*value.Class)
	if !ok {
		return th.runtimeErrorf("Superclass must be a class.")
	}
	sub := th.peek(0).(*value.Class)
	for name, method := range super.Methods {
		sub.Methods[name] = method
	}
	if super.Init != nil {
		sub.Init = super.Init
	}
	sub.Superclass = super
	th.pop()
	return nil
}

// method implements OP_METHOD: stack holds [..., class, closure] (class
// stays for the next method or the closing POP, per the compiler's class
// body loop in lang/compiler/stmt.go).
func (th *Thread) method(name string) {
	closure := th.pop().(*value.Closure)
	cls := th.peek(0).(*value.Class)
	cls.Methods[name] = closure
	if name == "init" {
		cls.Init = closure
	}
}

// closure implements OP_CLOSURE: allocate a Closure over the function
// constant at idx, then resolve each upvalue descriptor that follows it
// (spec.md §4.4.4). The closure is pushed before its upvalues are filled
// in so it stays heap-reachable if capturing one triggers a collection.
func (th *Thread) closure(fr *CallFrame, idx int) {
	fn := th.readConstant(fr, idx).(*value.Function)
	cl := th.heap.NewClosure(fn)
	th.push(cl)
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := th.readByte(fr) != 0
		index := int(th.readByte(fr))
		if isLocal {
			cl.Upvalues[i] = th.captureUpvalue(fr.slotBase + index)
		} else {
			cl.Upvalues[i] = fr.closure.Upvalues[index]
		}
	}
}

func (th *Thread) buildMap(n int) error {
	m := th.heap.NewMap(n)
	pairs := th.stack[len(th.stack)-2*n:]
	for i := 0; i < n; i++ {
		k, v := pairs[2*i], pairs[2*i+1]
		if !value.IsHashable(k) {
			return th.runtimeErrorf("Unhashable type: %s.", k.Type())
		}
		m.Set(k, v)
	}
	th.stack = th.stack[:len(th.stack)-2*n]
	th.push(m)
	return nil
}

func (th *Thread) indexGet() error {
	index := th.pop()
	container := th.pop()
	switch c := container.(type) {
	case *value.List:
		i, ok := index.(value.Int)
		if !ok {
			return th.runtimeErrorf("List index must be an int.")
		}
		if int(i) < 0 || int(i) >= len(c.Elems) {
			return th.runtimeErrorf("List index out of range.")
		}
		th.push(c.Elems[i])
	case *value.Map:
		if !value.IsHashable(index) {
			return th.runtimeErrorf("Unhashable type: %s.", index.Type())
		}
		v, ok := c.Get(index)
		if !ok {
			th.push(value.Nil)
		} else {
			th.push(v)
		}
	default:
		return th.runtimeErrorf("Can only index lists and maps.")
	}
	return nil
}

func (th *Thread) indexSet() error {
	val := th.pop()
	index := th.pop()
	container := th.pop()
	switch c := container.(type) {
	case *value.List:
		i, ok := index.(value.Int)
		if !ok {
			return th.runtimeErrorf("List index must be an int.")
		}
		if int(i) < 0 || int(i) >= len(c.Elems) {
			return th.runtimeErrorf("List index out of range.")
		}
		c.Elems[i] = val
	case *value.Map:
		if err := c.Set(index, val); err != nil {
			return th.runtimeErrorf("Unhashable type: %s.", index.Type())
		}
	default:
		return th.runtimeErrorf("Can only index lists and maps.")
	}
	th.push(val)
	return nil
}
