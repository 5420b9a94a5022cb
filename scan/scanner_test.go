package scan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbarrick/poqer/scan"
	"github.com/cbarrick/poqer/token"
)

func tokens(t *testing.T, src string) []token.Token {
	t.Helper()
	s := scan.New()
	s.SetBuffer([]byte(src))
	var out []token.Token
	for {
		tok, err := s.NextToken()
		require.NoError(t, err)
		out = append(out, tok)
		if tok.Type == token.EOF {
			return out
		}
	}
}

func TestPunctuationAndSolo(t *testing.T) {
	toks := tokens(t, "( ) [ ] { } | , ; !")
	types := make([]token.Type, 0, len(toks))
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	assert.Equal(t, []token.Type{
		token.LPAR, token.RPAR, token.LBRACK, token.RBRACK,
		token.LBRACE, token.RBRACE, token.BAR, token.COMMA,
		token.NAME, token.NAME, token.EOF,
	}, types)
}

func TestAlphaGraphicAndVariable(t *testing.T) {
	toks := tokens(t, "foo +- X _bar")
	require.Len(t, toks, 5)
	assert.Equal(t, token.NAME, toks[0].Type)
	assert.Equal(t, "foo", toks[0].Text)
	assert.Equal(t, token.NAME, toks[1].Type)
	assert.Equal(t, "+-", toks[1].Text)
	assert.Equal(t, token.VARIABLE, toks[2].Type)
	assert.Equal(t, "X", toks[2].Text)
	assert.Equal(t, token.VARIABLE, toks[3].Type)
	assert.Equal(t, "_bar", toks[3].Text)
}

func TestEndVsFloatVsGraphicDot(t *testing.T) {
	toks := tokens(t, "1.")
	require.Len(t, toks, 3)
	assert.Equal(t, token.INTEGER, toks[0].Type)
	assert.Equal(t, int64(1), toks[0].Int)
	assert.Equal(t, token.END, toks[1].Type)

	toks = tokens(t, "1.5.")
	require.Len(t, toks, 3)
	assert.Equal(t, token.FLOAT, toks[0].Type)
	assert.Equal(t, 1.5, toks[0].Float)
	assert.Equal(t, token.END, toks[1].Type)
}

func TestIntegerLiterals(t *testing.T) {
	toks := tokens(t, "0 0b101 0o17 0xFF 42")
	want := []int64{0, 5, 15, 255, 42}
	require.Len(t, toks, 6)
	for i, w := range want {
		assert.Equal(t, token.INTEGER, toks[i].Type)
		assert.Equal(t, w, toks[i].Int)
	}
}

func TestFloatLiterals(t *testing.T) {
	toks := tokens(t, "3.14 2.5e10 2.5e+3 2.5e-3")
	want := []float64{3.14, 2.5e10, 2.5e3, 2.5e-3}
	require.Len(t, toks, 5)
	for i, w := range want {
		assert.Equal(t, token.FLOAT, toks[i].Type)
		assert.InDelta(t, w, toks[i].Float, 1e-9)
	}
}

func TestRadixIntRewindFallback(t *testing.T) {
	toks := tokens(t, "0b foo")
	require.Len(t, toks, 4)
	assert.Equal(t, token.INTEGER, toks[0].Type)
	assert.Equal(t, int64(0), toks[0].Int)
	assert.Equal(t, token.NAME, toks[1].Type)
	assert.Equal(t, "b", toks[1].Text)
}

func TestFloatExpRewindFallback(t *testing.T) {
	toks := tokens(t, "1.5e foo")
	require.Len(t, toks, 4)
	assert.Equal(t, token.FLOAT, toks[0].Type)
	assert.Equal(t, 1.5, toks[0].Float)
	assert.Equal(t, "e", toks[1].Text)

	toks = tokens(t, "1.5e+ foo")
	require.Len(t, toks, 5)
	assert.Equal(t, token.FLOAT, toks[0].Type)
	assert.Equal(t, 1.5, toks[0].Float)
	assert.Equal(t, "e", toks[1].Text)
}

func TestQuotedAtomDoubledQuote(t *testing.T) {
	toks := tokens(t, `'it''s'.`)
	require.Len(t, toks, 3)
	assert.Equal(t, token.NAME, toks[0].Type)
	assert.Equal(t, "it's", toks[0].Text)
}

func TestQuotedAtomEscapes(t *testing.T) {
	toks := tokens(t, `'a\tb\101\c'.`)
	require.Len(t, toks, 3)
	assert.Equal(t, "a\tbAc", toks[0].Text)
}

func TestUnterminatedQuote(t *testing.T) {
	s := scan.New()
	s.SetBuffer([]byte("'unterminated"))
	_, err := s.NextToken()
	require.Error(t, err)
	serr, ok := err.(*scan.Error)
	require.True(t, ok)
	assert.Equal(t, scan.UnterminatedQuote, serr.Kind)
}

func TestComments(t *testing.T) {
	toks := tokens(t, "foo % a comment\nbar")
	require.Len(t, toks, 3)
	assert.Equal(t, "foo", toks[0].Text)
	assert.Equal(t, "bar", toks[1].Text)

	toks = tokens(t, "/* block\ncomment */ baz")
	require.Len(t, toks, 2)
	assert.Equal(t, "baz", toks[0].Text)
}

func TestUnterminatedBlockComment(t *testing.T) {
	s := scan.New()
	s.SetBuffer([]byte("/* never closed"))
	_, err := s.NextToken()
	require.Error(t, err)
	serr, ok := err.(*scan.Error)
	require.True(t, ok)
	assert.Equal(t, scan.UnterminatedMComment, serr.Kind)
}

func TestEndFollowedByComment(t *testing.T) {
	toks := tokens(t, "foo.%comment\n")
	require.Len(t, toks, 3)
	assert.Equal(t, token.NAME, toks[0].Type)
	assert.Equal(t, token.END, toks[1].Type)
}

func TestFirstTokenPosition(t *testing.T) {
	s := scan.New()
	s.SetBuffer([]byte("foo"))
	first, err := s.NextToken()
	require.NoError(t, err)
	assert.Equal(t, "foo", first.Text)
	assert.Equal(t, 1, first.Line)
	assert.Equal(t, 1, first.Col)
}
