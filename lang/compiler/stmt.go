package compiler

import (
	"github.com/mna/loxvm/lang/bytecode"
	"github.com/mna/loxvm/lang/token"
)

func (c *Compiler) declaration() {
	switch {
	case c.match(token.CLASS):
		c.classDeclaration()
	case c.match(token.FUN):
		c.funDeclaration()
	case c.match(token.VAR):
		c.varOrConstDeclaration(false)
	case c.match(token.CONST):
		c.varOrConstDeclaration(true)
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varOrConstDeclaration(isConst bool) {
	name := c.parseVariable("Expect variable name.", isConst)
	if c.match(token.EQ) {
		c.expression()
	} else {
		if isConst {
			c.errorAtPrevious("Const declaration requires an initializer.")
		}
		c.emitOp(bytecode.NIL)
	}
	c.consume(token.SEMI, "Expect ';' after variable declaration.")
	c.defineVariable(name, isConst)
}

func (c *Compiler) funDeclaration() {
	name := c.parseVariable("Expect function name.", false)
	c.markInitialized()
	c.function(namedFunc, name)
	c.defineVariable(name, false)
}

// function compiles one function body in a fresh frame, then emits CLOSURE
// with the upvalue descriptors the frame accumulated while compiling it
// (spec.md §4.3.4, §4.4.4). CLOSURE's function-constant index is always
// encoded as a fixed u24, unlike CONST/GET_GLOBAL/etc which only widen past
// a byte (see lang/value/disasm.go, which reads it unconditionally as u24).
func (c *Compiler) function(kind funcKind, name string) {
	fn := c.heap.NewFunction(name, 0)
	fn.IsInitializer = kind == initializerFunc
	c.heap.PushCompilerRoot(fn)

	enclosing := c.frame
	c.frame = &frame{enclosing: enclosing, function: fn, kind: kind}

	slot0 := ""
	if kind == methodFunc || kind == initializerFunc {
		slot0 = "this"
	}
	c.frame.locals = append(c.frame.locals, localVar{name: slot0, depth: 0})

	c.beginScope()
	c.consume(token.LPAREN, "Expect '(' after function name.")
	if !c.check(token.RPAREN) {
		for {
			fn.Arity++
			if fn.Arity > 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			paramName := c.parseVariable("Expect parameter name.", false)
			c.defineVariable(paramName, false)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after parameters.")
	c.consume(token.LBRACE, "Expect '{' before function body.")
	c.block()

	upvalues := c.frame.upvalues
	compiled := c.endCompiler()
	c.heap.PopCompilerRoot()

	idx := c.chunk().AddConstant(compiled)
	c.emitOp(bytecode.CLOSURE)
	c.writeU24(idx)
	for _, uv := range upvalues {
		c.emitByte(boolByte(uv.isLocal))
		c.emitByte(byte(uv.index))
	}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// classDeclaration compiles `class Name [: Super] { methods... }`
// (spec.md §4.3.5). The class value is bound to its name before any method
// body is compiled, so methods may reference the class recursively.
func (c *Compiler) classDeclaration() {
	c.consume(token.IDENT, "Expect class name.")
	name := c.previous.Lexeme
	nameIdx := c.identifierConstant(name)
	c.declareVariable(name, false)

	c.emitIndexedOp(bytecode.CLASS, nameIdx)
	c.defineVariable(name, false)

	cc := &classContext{enclosing: c.class}
	c.class = cc

	if c.match(token.COLON) {
		c.consume(token.IDENT, "Expect superclass name.")
		superTok := c.previous
		if superTok.Lexeme == name {
			c.errorAtPrevious("A class can't inherit from itself.")
		}
		c.namedVariable(superTok, false)

		c.beginScope()
		c.addLocal("super", true)
		c.markInitialized()

		c.pushNamedVariable(name)
		c.emitOp(bytecode.INHERIT)
		cc.hasSuperclass = true
	}

	c.pushNamedVariable(name)
	c.consume(token.LBRACE, "Expect '{' before class body.")
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RBRACE, "Expect '}' after class body.")
	c.emitOp(bytecode.POP)

	if cc.hasSuperclass {
		c.endScope()
	}
	c.class = cc.enclosing
}

func (c *Compiler) method() {
	c.consume(token.IDENT, "Expect method name.")
	name := c.previous.Lexeme
	nameIdx := c.identifierConstant(name)

	kind := methodFunc
	if name == "init" {
		kind = initializerFunc
	}
	c.function(kind, name)
	c.emitIndexedOp(bytecode.METHOD, nameIdx)
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.ECHO), c.match(token.PRINT):
		c.printStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.SWITCH):
		c.switchStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.CONTINUE):
		c.continueStatement()
	case c.match(token.BREAK):
		c.breakStatement()
	case c.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMI, "Expect ';' after value.")
	c.emitOp(bytecode.PRINT)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMI, "Expect ';' after expression.")
	c.emitOp(bytecode.POP)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LPAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(bytecode.JUMP_IF_FALSE)
	c.emitOp(bytecode.POP)
	c.statement()

	elseJump := c.emitJump(bytecode.JUMP)
	c.patchJump(thenJump)
	c.emitOp(bytecode.POP)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) pushLoop() *loopContext {
	lc := &loopContext{enclosing: c.loop, scopeDepthAtStart: c.frame.scopeDepth}
	c.loop = lc
	return lc
}

func (c *Compiler) popLoop() { c.loop = c.loop.enclosing }

func (c *Compiler) whileStatement() {
	lc := c.pushLoop()
	loopStart := len(c.chunk().Code)
	lc.continueTarget = loopStart

	c.consume(token.LPAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(bytecode.JUMP_IF_FALSE)
	c.emitOp(bytecode.POP)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(bytecode.POP)
	for _, j := range lc.breakJumps {
		c.patchJump(j)
	}
	c.popLoop()
}

// forStatement desugars the C-style for loop into the equivalent while loop
// (clox's classic desugaring): init; loopStart: [cond; exitJump];
// [bodyJump; incrementStart: increment; LOOP loopStart; patch bodyJump;
// loopStart = incrementStart]; body; LOOP loopStart; patch exitJump.
func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LPAREN, "Expect '(' after 'for'.")

	switch {
	case c.match(token.SEMI):
		// no initializer
	case c.match(token.VAR):
		c.varOrConstDeclaration(false)
	default:
		c.expressionStatement()
	}

	lc := c.pushLoop()
	loopStart := len(c.chunk().Code)

	exitJump := -1
	if !c.match(token.SEMI) {
		c.expression()
		c.consume(token.SEMI, "Expect ';' after loop condition.")
		exitJump = c.emitJump(bytecode.JUMP_IF_FALSE)
		c.emitOp(bytecode.POP)
	}

	if !c.check(token.RPAREN) {
		bodyJump := c.emitJump(bytecode.JUMP)
		incrementStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(bytecode.POP)
		c.consume(token.RPAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	} else {
		c.consume(token.RPAREN, "Expect ')' after for clauses.")
	}
	lc.continueTarget = loopStart

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(bytecode.POP)
	}
	for _, j := range lc.breakJumps {
		c.patchJump(j)
	}
	c.popLoop()
	c.endScope()
}

// switchStatement implements the "crafting interpreters switch extension"
// pattern (spec.md §4.3.3): the discriminant is evaluated once and kept on
// the stack under each per-case comparison.
func (c *Compiler) switchStatement() {
	c.consume(token.LPAREN, "Expect '(' after 'switch'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after switch value.")
	c.consume(token.LBRACE, "Expect '{' before switch body.")

	// The discriminant occupies a stack slot for the whole switch body, so
	// it is tracked as an unnamed local: case-body locals then resolve to
	// the slots above it, and break/continue pop it like any other local.
	c.beginScope()
	c.addLocal("", false)
	c.markInitialized()

	var endJumps []int

	for c.match(token.CASE) {
		c.emitOp(bytecode.DUP)
		c.expression()
		c.consume(token.COLON, "Expect ':' after case value.")
		c.emitOp(bytecode.EQUAL)
		elseJump := c.emitJump(bytecode.JUMP_IF_FALSE)
		c.emitOp(bytecode.POP)

		c.beginScope()
		for !c.check(token.CASE) && !c.check(token.DEFAULT) && !c.check(token.RBRACE) && !c.check(token.EOF) {
			c.declaration()
		}
		c.endScope()
		endJumps = append(endJumps, c.emitJump(bytecode.JUMP))

		c.patchJump(elseJump)
		c.emitOp(bytecode.POP)
	}

	if c.match(token.DEFAULT) {
		c.consume(token.COLON, "Expect ':' after 'default'.")
		c.beginScope()
		for !c.check(token.RBRACE) && !c.check(token.EOF) {
			c.declaration()
		}
		c.endScope()
	}

	c.consume(token.RBRACE, "Expect '}' after switch body.")
	for _, j := range endJumps {
		c.patchJump(j)
	}
	c.endScope()
}

// popLocalsToDepth emits the CLOSE_UPVALUE/POP cleanup for every local
// declared deeper than depth, without removing them from the compiler's
// own bookkeeping (the enclosing block's ordinary endScope() still runs
// along the non-jumping control path). Used by continue/break (spec.md
// §4.3.3).
func (c *Compiler) popLocalsToDepth(depth int) {
	locals := c.frame.locals
	for i := len(locals) - 1; i >= 0 && locals[i].depth > depth; i-- {
		if locals[i].isCaptured {
			c.emitOp(bytecode.CLOSE_UPVALUE)
		} else {
			c.emitOp(bytecode.POP)
		}
	}
}

func (c *Compiler) continueStatement() {
	if c.loop == nil {
		c.errorAtPrevious("Can't use 'continue' outside of a loop.")
		c.consume(token.SEMI, "Expect ';' after 'continue'.")
		return
	}
	c.popLocalsToDepth(c.loop.scopeDepthAtStart)
	c.emitLoop(c.loop.continueTarget)
	c.consume(token.SEMI, "Expect ';' after 'continue'.")
}

func (c *Compiler) breakStatement() {
	if c.loop == nil {
		c.errorAtPrevious("Can't use 'break' outside of a loop.")
		c.consume(token.SEMI, "Expect ';' after 'break'.")
		return
	}
	c.popLocalsToDepth(c.loop.scopeDepthAtStart)
	j := c.emitJump(bytecode.JUMP)
	c.loop.breakJumps = append(c.loop.breakJumps, j)
	c.consume(token.SEMI, "Expect ';' after 'break'.")
}

func (c *Compiler) returnStatement() {
	if c.frame.kind == scriptFunc {
		c.errorAtPrevious("Can't return from top-level code.")
	}
	if c.match(token.SEMI) {
		c.emitReturn()
		return
	}
	if c.frame.kind == initializerFunc {
		c.errorAtPrevious("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(token.SEMI, "Expect ';' after return value.")
	c.emitOp(bytecode.RETURN)
}
