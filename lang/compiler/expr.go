package compiler

import (
	"strconv"

	"github.com/mna/loxvm/lang/bytecode"
	"github.com/mna/loxvm/lang/token"
	"github.com/mna/loxvm/lang/value"
)

// precedence mirrors spec.md §4.3.1's climbing order exactly.
type precedence int

const (
	precNone precedence = iota
	precAssignment
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix parseFn
	infix  parseFn
	prec   precedence
}

var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LPAREN: {prefix: grouping, infix: call, prec: precCall},
		token.LBRACK: {prefix: listLiteral, infix: index, prec: precCall},
		token.LBRACE: {prefix: mapLiteral},
		token.DOT:    {infix: dot, prec: precCall},

		token.MINUS: {prefix: unary, infix: binary, prec: precTerm},
		token.PLUS:  {infix: binary, prec: precTerm},
		token.SLASH: {infix: binary, prec: precFactor},
		token.STAR:  {infix: binary, prec: precFactor},

		token.BANG: {prefix: unary},
		token.NOT:  {prefix: unary},

		token.BANG_EQ: {infix: binary, prec: precEquality},
		token.EQ_EQ:   {infix: binary, prec: precEquality},
		token.GT:      {infix: binary, prec: precComparison},
		token.GT_EQ:   {infix: binary, prec: precComparison},
		token.LT:      {infix: binary, prec: precComparison},
		token.LT_EQ:   {infix: binary, prec: precComparison},

		token.IDENT:  {prefix: variable},
		token.STRING: {prefix: stringLiteral},
		token.INT:    {prefix: number},
		token.FLOAT:  {prefix: number},

		token.AND: {infix: and_, prec: precAnd},
		token.OR:  {infix: or_, prec: precOr},

		token.FALSE:  {prefix: literal},
		token.TRUE:   {prefix: literal},
		token.NIL:    {prefix: literal},
		token.THIS:   {prefix: this_},
		token.SUPER:  {prefix: super_},
	}
}

func (c *Compiler) rule(k token.Kind) parseRule { return rules[k] }

func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }

func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefix := c.rule(c.previous.Kind).prefix
	if prefix == nil {
		c.errorAtPrevious("Expect expression.")
		return
	}
	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for prec <= c.rule(c.current.Kind).prec {
		c.advance()
		infix := c.rule(c.previous.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.EQ) {
		c.errorAtPrevious("Invalid assignment target.")
	}
}

func number(c *Compiler, _ bool) {
	lex := c.previous.Lexeme
	if c.previous.Kind == token.INT {
		n, err := strconv.ParseInt(lex, 10, 64)
		if err != nil {
			c.errorAtPrevious("Invalid integer literal.")
			return
		}
		c.emitConstant(value.Int(n))
		return
	}
	f, err := strconv.ParseFloat(lex, 64)
	if err != nil {
		c.errorAtPrevious("Invalid floating-point literal.")
		return
	}
	c.emitConstant(value.Float(f))
}

func stringLiteral(c *Compiler, _ bool) {
	c.emitConstant(c.heap.NewString(c.previous.Lexeme))
}

func literal(c *Compiler, _ bool) {
	switch c.previous.Kind {
	case token.NIL:
		c.emitOp(bytecode.NIL)
	case token.TRUE:
		c.emitOp(bytecode.TRUE)
	case token.FALSE:
		c.emitOp(bytecode.FALSE)
	}
}

func grouping(c *Compiler, _ bool) {
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after expression.")
}

func unary(c *Compiler, _ bool) {
	opKind := c.previous.Kind
	c.parsePrecedence(precUnary)
	switch opKind {
	case token.MINUS:
		c.emitOp(bytecode.NEGATE)
	case token.BANG, token.NOT:
		c.emitOp(bytecode.NOT)
	}
}

func binary(c *Compiler, _ bool) {
	opKind := c.previous.Kind
	r := rules[opKind]
	c.parsePrecedence(r.prec + 1)
	switch opKind {
	case token.PLUS:
		c.emitOp(bytecode.ADD)
	case token.MINUS:
		c.emitOp(bytecode.SUB)
	case token.STAR:
		c.emitOp(bytecode.MUL)
	case token.SLASH:
		c.emitOp(bytecode.DIV)
	case token.EQ_EQ:
		c.emitOp(bytecode.EQUAL)
	case token.BANG_EQ:
		c.emitOp(bytecode.EQUAL)
		c.emitOp(bytecode.NOT)
	case token.GT:
		c.emitOp(bytecode.GREATER)
	case token.GT_EQ:
		c.emitOp(bytecode.LESS)
		c.emitOp(bytecode.NOT)
	case token.LT:
		c.emitOp(bytecode.LESS)
	case token.LT_EQ:
		c.emitOp(bytecode.GREATER)
		c.emitOp(bytecode.NOT)
	}
}

// and_/or_ compile short-circuit jumps over the right operand, leaving the
// left operand's value on the stack when it alone decides the result
// (spec.md §4.3.1).
func and_(c *Compiler, _ bool) {
	endJump := c.emitJump(bytecode.JUMP_IF_FALSE)
	c.emitOp(bytecode.POP)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func or_(c *Compiler, _ bool) {
	elseJump := c.emitJump(bytecode.JUMP_IF_FALSE)
	endJump := c.emitJump(bytecode.JUMP)
	c.patchJump(elseJump)
	c.emitOp(bytecode.POP)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) argumentList() int {
	argc := 0
	if !c.check(token.RPAREN) {
		for {
			c.expression()
			if argc == 255 {
				c.errorAtPrevious("Can't have more than 255 arguments.")
			}
			argc++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after arguments.")
	return argc
}

func call(c *Compiler, _ bool) {
	argc := c.argumentList()
	c.emitOp(bytecode.CALL)
	c.emitByte(byte(argc))
}

func dot(c *Compiler, canAssign bool) {
	c.consume(token.IDENT, "Expect property name after '.'.")
	name := c.previous.Lexeme
	idx := c.identifierConstant(name)

	switch {
	case canAssign && c.match(token.EQ):
		c.expression()
		c.emitIndexedOp(bytecode.SET_PROPERTY, idx)
	case c.match(token.LPAREN):
		argc := c.argumentList()
		c.emitInvoke(bytecode.INVOKE, idx, argc)
	default:
		c.emitIndexedOp(bytecode.GET_PROPERTY, idx)
	}
}

// index compiles `a[i]` / `a[i] = v`; the right-hand side of an index
// assignment is itself parsed via expression(), so chained assignments
// like `x[0] = x[1] = 5` are right-associative for free (spec.md §4.3.6).
func index(c *Compiler, canAssign bool) {
	c.expression()
	c.consume(token.RBRACK, "Expect ']' after index.")
	if canAssign && c.match(token.EQ) {
		c.expression()
		c.emitOp(bytecode.INDEX_SET)
	} else {
		c.emitOp(bytecode.INDEX_GET)
	}
}

func listLiteral(c *Compiler, _ bool) {
	n := 0
	if !c.check(token.RBRACK) {
		for {
			c.expression()
			n++
			if n > 255 {
				c.errorAtPrevious("Too many elements in list literal.")
			}
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RBRACK, "Expect ']' after list elements.")
	c.emitOp(bytecode.BUILD_LIST)
	c.emitByte(byte(n))
}

func mapLiteral(c *Compiler, _ bool) {
	n := 0
	if !c.check(token.RBRACE) {
		for {
			c.expression()
			c.consume(token.COLON, "Expect ':' after map key.")
			c.expression()
			n++
			if n > 255 {
				c.errorAtPrevious("Too many entries in map literal.")
			}
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RBRACE, "Expect '}' after map entries.")
	c.emitOp(bytecode.BUILD_MAP)
	c.emitByte(byte(n))
}

// pushNamedVariable resolves and pushes name's value, reusing the normal
// local/upvalue/global resolution order for the synthetic "this"/"super"
// references methods compile (spec.md §4.3.5).
func (c *Compiler) pushNamedVariable(name string) {
	c.namedVariable(token.Token{Kind: token.IDENT, Lexeme: name}, false)
}

func variable(c *Compiler, canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func (c *Compiler) namedVariable(tok token.Token, canAssign bool) {
	name := tok.Lexeme
	var getOp, setOp bytecode.Opcode
	var idx int
	var isConst, isGlobal bool

	if i := c.resolveLocal(c.frame, name); i != -1 {
		idx, getOp, setOp = i, bytecode.GET_LOCAL, bytecode.SET_LOCAL
		isConst = c.frame.locals[i].isConst
	} else if i := c.resolveUpvalue(c.frame, name); i != -1 {
		idx, getOp, setOp = i, bytecode.GET_UPVALUE, bytecode.SET_UPVALUE
		isConst = c.frame.upvalues[i].isConst
	} else {
		idx = c.identifierConstant(name)
		getOp, setOp = bytecode.GET_GLOBAL, bytecode.SET_GLOBAL
		isGlobal = true
		isConst = c.globalConsts[name]
	}

	if canAssign && c.match(token.EQ) {
		if isConst {
			c.errorAtPrevious("Cannot assign to constant '" + name + "'.")
		}
		c.expression()
		if isGlobal {
			c.emitIndexedOp(setOp, idx)
		} else {
			c.emitOp(setOp)
			c.emitByte(byte(idx))
		}
		return
	}

	if isGlobal {
		c.emitIndexedOp(getOp, idx)
	} else {
		c.emitOp(getOp)
		c.emitByte(byte(idx))
	}
}

func this_(c *Compiler, _ bool) {
	if c.class == nil {
		c.errorAtPrevious("Can't use 'this' outside of a class.")
		return
	}
	c.pushNamedVariable("this")
}

func super_(c *Compiler, _ bool) {
	switch {
	case c.class == nil:
		c.errorAtPrevious("Can't use 'super' outside of a class.")
		return
	case !c.class.hasSuperclass:
		c.errorAtPrevious("Can't use 'super' in a class with no superclass.")
		return
	}
	c.consume(token.DOT, "Expect '.' after 'super'.")
	c.consume(token.IDENT, "Expect superclass method name.")
	name := c.previous.Lexeme
	idx := c.identifierConstant(name)

	c.pushNamedVariable("this")
	if c.match(token.LPAREN) {
		argc := c.argumentList()
		c.pushNamedVariable("super")
		c.emitInvoke(bytecode.SUPER_INVOKE, idx, argc)
	} else {
		c.pushNamedVariable("super")
		c.emitIndexedOp(bytecode.GET_SUPER, idx)
	}
}
