package vm

import "github.com/mna/loxvm/lang/value"

// calleeIndex returns the stack index of the callee itself (or, for a
// method invocation, the receiver), given that argc argument values sit
// above it. This is CallFrame.slotBase for whichever call the caller is
// about to make (spec.md §4.4.3).
func (th *Thread) calleeIndex(argc int) int { return len(th.stack) - argc - 1 }

// callValue dispatches CALL argc on whatever kind of value sits at the
// callee slot, per spec.md §4.4.3's four cases.
func (th *Thread) callValue(callee value.Value, argc int) error {
	switch c := callee.(type) {
	case *value.Closure:
		return th.callClosure(c, argc)
	case *value.NativeFunction:
		return th.callNative(c, argc)
	case *value.Class:
		return th.callClass(c, argc)
	case *value.BoundMethod:
		th.stack[th.calleeIndex(argc)] = c.Receiver
		return th.callClosure(c.Method, argc)
	default:
		return th.runtimeErrorf("Can only call functions and classes.")
	}
}

// callClosure pushes a new CallFrame over cl, with slotBase pointing at
// the callee's own stack slot — slot 0 of the callee's locals, which the
// compiler reserves for "this" in methods and leaves unnamed otherwise
// (spec.md §4.4.1, §4.4.3).
func (th *Thread) callClosure(cl *value.Closure, argc int) error {
	if argc != cl.Function.Arity {
		return th.runtimeErrorf("Expected %d arguments but got %d.", cl.Function.Arity, argc)
	}
	if len(th.frames) >= MaxCallStackDepth {
		return th.runtimeErrorf("Stack overflow.")
	}
	th.frames = append(th.frames, CallFrame{closure: cl, slotBase: th.calleeIndex(argc)})
	return nil
}

func (th *Thread) callNative(nf *value.NativeFunction, argc int) error {
	idx := th.calleeIndex(argc)
	args := th.stack[idx+1 : idx+1+argc]
	result, err := nf.Fn(th, args)
	if err != nil {
		return th.runtimeErrorf("%s", err.Error())
	}
	th.stack = th.stack[:idx]
	th.push(result)
	return nil
}

func (th *Thread) callClass(cls *value.Class, argc int) error {
	idx := th.calleeIndex(argc)
	inst := th.heap.NewInstance(cls)
	th.stack[idx] = inst
	if cls.Init != nil {
		return th.callClosure(cls.Init, argc)
	}
	if argc != 0 {
		return th.runtimeErrorf("Expected 0 arguments but got %d.", argc)
	}
	return nil
}

// invoke implements the fused GET_PROPERTY+CALL of INVOKE (spec.md
// §4.4.3): a field holding a callable is called via the ordinary two-step
// path; a method is called directly, with the receiver already sitting at
// the new frame's slot 0.
func (th *Thread) invoke(name string, argc int) error {
	idx := th.calleeIndex(argc)
	inst, ok := th.stack[idx].(*value.Instance)
	if !ok {
		return th.runtimeErrorf("Only instances have properties.")
	}
	if field, ok := inst.Fields[name]; ok {
		th.stack[idx] = field
		return th.callValue(field, argc)
	}
	return th.invokeFromClass(inst.Class, name, argc)
}

func (th *Thread) invokeFromClass(cls *value.Class, name string, argc int) error {
	method, ok := cls.Methods[name]
	if !ok {
		return th.runtimeErrorf("Undefined property '%s'.", name)
	}
	return th.callClosure(method, argc)
}

func (th *Thread) comparison(cmp func(a, b value.Value) (bool, bool)) error {
	b, a := th.pop(), th.pop()
	res, ok := cmp(a, b)
	if !ok {
		return th.runtimeErrorf("Operands must be numbers.")
	}
	th.push(value.Bool(res))
	return nil
}

// add implements spec.md §4.4.5: numeric addition, or string
// concatenation when both operands are strings.
func (th *Thread) add() error {
	b, a := th.pop(), th.pop()
	if as, ok := a.(*value.String); ok {
		if bs, ok := b.(*value.String); ok {
			th.push(th.NewString(as.Chars + bs.Chars))
			return nil
		}
	}
	ai, aIsInt := a.(value.Int)
	bi, bIsInt := b.(value.Int)
	if aIsInt && bIsInt {
		th.push(ai + bi)
		return nil
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		th.push(value.Float(af + bf))
		return nil
	}
	return th.runtimeErrorf("Operands must be two numbers or two strings.")
}

// arith implements SUB and MUL (spec.md §4.4.5): integer arithmetic when
// both operands are int, float arithmetic (with an int/float mix
// promoted to float) otherwise.
func (th *Thread) arith(op byte) error {
	b, a := th.pop(), th.pop()
	ai, aIsInt := a.(value.Int)
	bi, bIsInt := b.(value.Int)
	if aIsInt && bIsInt {
		switch op {
		case '-':
			th.push(ai - bi)
		case '*':
			th.push(ai * bi)
		}
		return nil
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return th.runtimeErrorf("Operands must be numbers.")
	}
	switch op {
	case '-':
		th.push(value.Float(af - bf))
	case '*':
		th.push(value.Float(af * bf))
	}
	return nil
}

// div implements DIV (spec.md §4.4.5, §9 Open Questions): the result is
// always a double, even for two int operands — spec.md §3 is explicit
// that "division of two ints whose result is exact stays int in output
// formatting" (e.g. 8/2 prints "4"), which is the double-printing rule
// doing the work, not a separate int-division opcode. Division of two
// ints by zero is a runtime error; double division by zero yields IEEE
// infinity/NaN with no special handling.
func (th *Thread) div() error {
	b, a := th.pop(), th.pop()
	if _, aIsInt := a.(value.Int); aIsInt {
		if bi, bIsInt := b.(value.Int); bIsInt && bi == 0 {
			return th.runtimeErrorf("Division by zero.")
		}
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return th.runtimeErrorf("Operands must be numbers.")
	}
	th.push(value.Float(af / bf))
	return nil
}

func (th *Thread) negate() error {
	switch v := th.pop().(type) {
	case value.Int:
		th.push(-v)
	case value.Float:
		th.push(-v)
	default:
		return th.runtimeErrorf("Operand must be a number.")
	}
	return nil
}

func asFloat(v value.Value) (float64, bool) {
	switch v := v.(type) {
	case value.Int:
		return float64(v), true
	case value.Float:
		return float64(v), true
	default:
		return 0, false
	}
}
