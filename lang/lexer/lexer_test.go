package lexer_test

import (
	"testing"

	"github.com/mna/loxvm/lang/lexer"
	"github.com/mna/loxvm/lang/token"
	"github.com/stretchr/testify/require"
)

func allTokens(src string) []token.Token {
	l := lexer.New(src)
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func TestBasicPunctuationAndKeywords(t *testing.T) {
	toks := allTokens(`var x = 1 + 2; while (x < 3) { echo x; }`)
	kinds := make([]token.Kind, len(toks))
	for i, tk := range toks {
		kinds[i] = tk.Kind
	}
	require.Equal(t, []token.Kind{
		token.VAR, token.IDENT, token.EQ, token.INT, token.PLUS, token.INT, token.SEMI,
		token.WHILE, token.LPAREN, token.IDENT, token.LT, token.INT, token.RPAREN,
		token.LBRACE, token.ECHO, token.IDENT, token.SEMI, token.RBRACE, token.EOF,
	}, kinds)
}

func TestLineComments(t *testing.T) {
	toks := allTokens("var x = 1; // this is a comment\nvar y = 2;")
	require.Equal(t, token.VAR, toks[0].Kind)
	// the second "var" should be on line 2
	var secondVarLine int
	count := 0
	for _, tk := range toks {
		if tk.Kind == token.VAR {
			count++
			if count == 2 {
				secondVarLine = tk.Line
			}
		}
	}
	require.Equal(t, 2, secondVarLine)
}

func TestStringEscapes(t *testing.T) {
	toks := allTokens(`"a\nb\tc\\d\"e"`)
	require.Equal(t, token.STRING, toks[0].Kind)
	require.Equal(t, "a\nb\tc\\d\"e", toks[0].Lexeme)
}

func TestUnterminatedString(t *testing.T) {
	toks := allTokens(`"abc`)
	require.Equal(t, token.ILLEGAL, toks[0].Kind)
}

func TestIntVsFloat(t *testing.T) {
	toks := allTokens(`42 3.14 8`)
	require.Equal(t, token.INT, toks[0].Kind)
	require.Equal(t, "42", toks[0].Lexeme)
	require.Equal(t, token.FLOAT, toks[1].Kind)
	require.Equal(t, "3.14", toks[1].Lexeme)
	require.Equal(t, token.INT, toks[2].Kind)
}

func TestTwoCharOperators(t *testing.T) {
	toks := allTokens(`== != <= >= < > = !`)
	kinds := make([]token.Kind, 0, len(toks)-1)
	for _, tk := range toks[:len(toks)-1] {
		kinds = append(kinds, tk.Kind)
	}
	require.Equal(t, []token.Kind{
		token.EQ_EQ, token.BANG_EQ, token.LT_EQ, token.GT_EQ, token.LT, token.GT, token.EQ, token.BANG,
	}, kinds)
}

func TestStrayCharacter(t *testing.T) {
	toks := allTokens("@")
	require.Equal(t, token.ILLEGAL, toks[0].Kind)
}

func TestEOFIsStable(t *testing.T) {
	l := lexer.New("")
	tok1 := l.Next()
	tok2 := l.Next()
	require.Equal(t, token.EOF, tok1.Kind)
	require.Equal(t, token.EOF, tok2.Kind)
}
