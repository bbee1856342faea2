package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeModuleHeader(t *testing.T) {
	toks, err := Tokenize(`module Maybe exports (Maybe(..), map);`, "M.ditto")
	require.NoError(t, err)

	types := []TokenType{}
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	assert.Equal(t, []TokenType{
		MODULE, UIDENT, EXPORTS, LPAREN, UIDENT, LPAREN, DOTDOT, RPAREN, COMMA, IDENT, RPAREN, SEMICOLON, EOF,
	}, types)
}

func TestNumberLiteralsWithUnderscores(t *testing.T) {
	toks, err := Tokenize(`1_000 1_000.25`, "N.ditto")
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, INT, toks[0].Type)
	assert.Equal(t, "1000", toks[0].Literal)
	assert.Equal(t, FLOAT, toks[1].Type)
	assert.Equal(t, "1000.25", toks[1].Literal)
}

func TestStringEscapeIsRejected(t *testing.T) {
	_, err := Tokenize(`"a\nb"`, "S.ditto")
	require.Error(t, err)
}

func TestNonASCIIInStringIsRejected(t *testing.T) {
	_, err := Tokenize("\"café\"", "S.ditto")
	require.Error(t, err)
}

func TestLowerVsUpperIdent(t *testing.T) {
	toks, err := Tokenize(`foo Bar`, "I.ditto")
	require.NoError(t, err)
	assert.Equal(t, IDENT, toks[0].Type)
	assert.Equal(t, UIDENT, toks[1].Type)
}

func TestLeadingTriviaPreserved(t *testing.T) {
	toks, err := Tokenize("  -- a comment\nfoo", "T.ditto")
	require.NoError(t, err)
	assert.Contains(t, toks[0].LeadingTrivia, "a comment")
}
