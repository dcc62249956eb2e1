package compiler

import (
	"github.com/mna/loxvm/lang/bytecode"
	"github.com/mna/loxvm/lang/token"
)

// resolveLocal searches fr's locals innermost-first for name, matching
// spec.md §4.3.2's resolution order. Returns -1 if not found. Reading a
// local still mid-initialization (depth == -1, i.e. "var x = x;") is a
// compile error.
func (c *Compiler) resolveLocal(fr *frame, name string) int {
	for i := len(fr.locals) - 1; i >= 0; i-- {
		if fr.locals[i].name == name {
			if fr.locals[i].depth == -1 {
				c.errorAtPrevious("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue implements spec.md §4.3.2's upvalue chain: a hit in the
// immediately enclosing frame's locals adds a direct {is_local: true}
// upvalue and marks that local captured; a hit further out cascades a
// {is_local: false} upvalue through every intermediate frame.
func (c *Compiler) resolveUpvalue(fr *frame, name string) int {
	if fr.enclosing == nil {
		return -1
	}
	if i := c.resolveLocal(fr.enclosing, name); i != -1 {
		fr.enclosing.locals[i].isCaptured = true
		return c.addUpvalue(fr, i, true, fr.enclosing.locals[i].isConst)
	}
	if i := c.resolveUpvalue(fr.enclosing, name); i != -1 {
		return c.addUpvalue(fr, i, false, fr.enclosing.upvalues[i].isConst)
	}
	return -1
}

func (c *Compiler) addUpvalue(fr *frame, index int, isLocal, isConst bool) int {
	for i, uv := range fr.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fr.upvalues) >= 256 {
		c.errorAtPrevious("Too many closure variables in function.")
		return 0
	}
	fr.upvalues = append(fr.upvalues, upvalueDesc{index: index, isLocal: isLocal, isConst: isConst})
	fr.function.UpvalueCount = len(fr.upvalues)
	return len(fr.upvalues) - 1
}

func (c *Compiler) addLocal(name string, isConst bool) {
	if len(c.frame.locals) >= 256 {
		c.errorAtPrevious("Too many local variables in function.")
		return
	}
	c.frame.locals = append(c.frame.locals, localVar{name: name, depth: -1, isConst: isConst})
}

// declareVariable registers name as a new local in the current scope,
// rejecting a duplicate declaration at the same depth (spec.md §4.3.2). At
// global scope (depth 0) it is a no-op: globals resolve dynamically by
// name, not by slot.
func (c *Compiler) declareVariable(name string, isConst bool) {
	if c.frame.scopeDepth == 0 {
		return
	}
	for i := len(c.frame.locals) - 1; i >= 0; i-- {
		l := c.frame.locals[i]
		if l.depth != -1 && l.depth < c.frame.scopeDepth {
			break
		}
		if l.name == name {
			c.errorAtPrevious("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name, isConst)
}

func (c *Compiler) markInitialized() {
	if c.frame.scopeDepth == 0 {
		return
	}
	c.frame.locals[len(c.frame.locals)-1].depth = c.frame.scopeDepth
}

// parseVariable consumes an identifier token and declares it (as a local,
// if inside a scope), returning its lexeme for the caller to pass to
// defineVariable once the initializer has been compiled.
func (c *Compiler) parseVariable(msg string, isConst bool) string {
	c.consume(token.IDENT, msg)
	name := c.previous.Lexeme
	c.declareVariable(name, isConst)
	return name
}

// checkGlobalConstCollision enforces spec.md §4.3.2's global const rule: a
// name already bound const may not be redeclared, with var or const.
func (c *Compiler) checkGlobalConstCollision(name string, isConst bool) {
	if c.globalConsts[name] {
		c.errorAtPrevious("Cannot redeclare constant '" + name + "'.")
		return
	}
	if isConst {
		c.globalConsts[name] = true
	}
}

// defineVariable finishes a var/const/fun/class declaration: for a local
// it marks the most recently declared local initialized (its value is
// already sitting in the right stack slot); for a global it emits the
// appropriate DEFINE_GLOBAL[_CONST] instruction.
func (c *Compiler) defineVariable(name string, isConst bool) {
	if c.frame.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	idx := c.identifierConstant(name)
	c.checkGlobalConstCollision(name, isConst)
	if isConst {
		c.emitIndexedOp(bytecode.DEFINE_GLOBAL_CONST, idx)
	} else {
		c.emitIndexedOp(bytecode.DEFINE_GLOBAL, idx)
	}
}
