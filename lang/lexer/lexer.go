// Package lexer implements the lexer for the language: a pure, lazy
// tokenizer that turns source bytes into a stream of token.Token values.
//
// The lexer is deliberately simple: it has no knowledge of grammar, only of
// lexemes. It is driven one token at a time by the compiler (package
// github.com/mna/loxvm/lang/compiler), which is what makes the overall
// compilation pipeline single-pass: there is no intermediate token slice or
// AST, just a cursor advancing through the source as the compiler consumes
// tokens.
package lexer

import (
	"fmt"
	"strings"

	"github.com/mna/loxvm/lang/token"
)

// Lexer scans a source string into token.Token values. It is single-use:
// create a new Lexer for each source string.
type Lexer struct {
	src   string
	start int // start offset of the lexeme being scanned
	cur   int // offset of the next unread byte
	line  int
}

// New returns a Lexer ready to scan src, starting at line 1.
func New(src string) *Lexer {
	return &Lexer{src: src, line: 1}
}

// Next scans and returns the next token.Token in the source. Once it returns
// a token of kind token.EOF, every subsequent call returns the same EOF
// token again.
func (l *Lexer) Next() token.Token {
	l.skipWhitespaceAndComments()
	l.start = l.cur

	if l.atEnd() {
		return l.make(token.EOF)
	}

	c := l.advance()

	switch {
	case isDigit(c):
		return l.number()
	case isAlpha(c):
		return l.identifier()
	}

	switch c {
	case '(':
		return l.make(token.LPAREN)
	case ')':
		return l.make(token.RPAREN)
	case '{':
		return l.make(token.LBRACE)
	case '}':
		return l.make(token.RBRACE)
	case '[':
		return l.make(token.LBRACK)
	case ']':
		return l.make(token.RBRACK)
	case ',':
		return l.make(token.COMMA)
	case '.':
		return l.make(token.DOT)
	case '-':
		return l.make(token.MINUS)
	case '+':
		return l.make(token.PLUS)
	case ';':
		return l.make(token.SEMI)
	case ':':
		return l.make(token.COLON)
	case '*':
		return l.make(token.STAR)
	case '/':
		return l.make(token.SLASH)
	case '!':
		if l.match('=') {
			return l.make(token.BANG_EQ)
		}
		return l.make(token.BANG)
	case '=':
		if l.match('=') {
			return l.make(token.EQ_EQ)
		}
		return l.make(token.EQ)
	case '<':
		if l.match('=') {
			return l.make(token.LT_EQ)
		}
		return l.make(token.LT)
	case '>':
		if l.match('=') {
			return l.make(token.GT_EQ)
		}
		return l.make(token.GT)
	case '"':
		return l.string()
	}

	return l.errorf("unexpected character %q", c)
}

func (l *Lexer) atEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) advance() byte {
	c := l.src[l.cur]
	l.cur++
	return c
}

func (l *Lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.src[l.cur]
}

func (l *Lexer) peekNext() byte {
	if l.cur+1 >= len(l.src) {
		return 0
	}
	return l.src[l.cur+1]
}

func (l *Lexer) match(want byte) bool {
	if l.atEnd() || l.src[l.cur] != want {
		return false
	}
	l.cur++
	return true
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.atEnd() {
		switch l.peek() {
		case ' ', '\r', '\t':
			l.cur++
		case '\n':
			l.line++
			l.cur++
		case '/':
			if l.peekNext() == '/' {
				for !l.atEnd() && l.peek() != '\n' {
					l.cur++
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) make(k token.Kind) token.Token {
	return token.Token{Kind: k, Line: l.line, Lexeme: l.src[l.start:l.cur]}
}

func (l *Lexer) errorf(format string, args ...any) token.Token {
	return token.Token{Kind: token.ILLEGAL, Line: l.line, Lexeme: fmt.Sprintf(format, args...)}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphaNumeric(c byte) bool { return isAlpha(c) || isDigit(c) }

// number scans an integer or floating-point literal. No leading '+', no
// hex/binary forms, no exponent: spec.md §6 requires only decimal integers
// and decimals with an optional fractional part.
func (l *Lexer) number() token.Token {
	for isDigit(l.peek()) {
		l.cur++
	}

	isFloat := false
	if l.peek() == '.' && isDigit(l.peekNext()) {
		isFloat = true
		l.cur++ // consume '.'
		for isDigit(l.peek()) {
			l.cur++
		}
	}

	if isFloat {
		return l.make(token.FLOAT)
	}
	return l.make(token.INT)
}

func (l *Lexer) identifier() token.Token {
	for !l.atEnd() && isAlphaNumeric(l.peek()) {
		l.cur++
	}
	text := l.src[l.start:l.cur]
	if k, ok := token.Keywords[text]; ok {
		return l.make(k)
	}
	return l.make(token.IDENT)
}

// string scans a double-quoted string literal, decoding the \n \t \r \" \\
// escapes named in spec.md §6. The returned token's Lexeme holds the decoded
// contents, not the raw quoted source text.
func (l *Lexer) string() token.Token {
	var sb strings.Builder
	for !l.atEnd() && l.peek() != '"' {
		c := l.advance()
		if c == '\n' {
			l.line++
			sb.WriteByte(c)
			continue
		}
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		if l.atEnd() {
			break
		}
		esc := l.advance()
		switch esc {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '"':
			sb.WriteByte('"')
		case '\\':
			sb.WriteByte('\\')
		default:
			return l.errorf("invalid escape sequence '\\%c'", esc)
		}
	}

	if l.atEnd() {
		return l.errorf("unterminated string")
	}
	l.cur++ // consume closing '"'

	return token.Token{Kind: token.STRING, Line: l.line, Lexeme: sb.String()}
}
