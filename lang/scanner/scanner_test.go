package scanner_test

import (
	"testing"

	"github.com/mna/saffron/lang/scanner"
	"github.com/mna/saffron/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) ([]token.Token, []scanner.TokenValue) {
	t.Helper()
	fs := token.NewFileSet()
	f := fs.AddFile("test.lua", -1, len(src))

	var (
		s    scanner.Scanner
		el   scanner.ErrorList
		toks []token.Token
		vals []scanner.TokenValue
		val  scanner.TokenValue
	)
	s.Init(f, []byte(src), el.Add)
	for {
		tok := s.Scan(&val)
		toks = append(toks, tok)
		vals = append(vals, val)
		if tok == token.EOF {
			break
		}
	}
	require.NoError(t, el.Err())
	return toks, vals
}

func TestScanKeywordsAndIdents(t *testing.T) {
	toks, _ := scanAll(t, "local x = foo")
	require.Equal(t, []token.Token{token.LOCAL, token.IDENT, token.ASSIGN, token.IDENT, token.EOF}, toks)
}

func TestScanOperators(t *testing.T) {
	toks, _ := scanAll(t, "+ - * / // % ^ # & ~ | << >> == ~= <= >= < > = :: .. ...")
	require.Equal(t, []token.Token{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.SLASH2, token.PERCENT,
		token.CARET, token.HASH, token.AMP, token.TILDE, token.PIPE, token.SHL, token.SHR,
		token.EQ, token.NE, token.LE, token.GE, token.LT, token.GT, token.ASSIGN,
		token.DBCOLON, token.CONCAT, token.ELLIPSIS, token.EOF,
	}, toks)
}

func TestScanIntAndFloatLiterals(t *testing.T) {
	toks, vals := scanAll(t, "123 0x7b 1.5 1e10")
	require.Equal(t, []token.Token{token.INT, token.INT, token.FLOAT, token.FLOAT, token.EOF}, toks)
	require.Equal(t, int64(123), vals[0].Int)
	require.Equal(t, int64(123), vals[1].Int)
	require.Equal(t, 1.5, vals[2].Float)
	require.Equal(t, 1e10, vals[3].Float)
}

func TestScanShortString(t *testing.T) {
	toks, vals := scanAll(t, `"hello\nworld"`)
	require.Equal(t, []token.Token{token.STRING, token.EOF}, toks)
	require.Equal(t, "hello\nworld", vals[0].String)
}

func TestScanLongString(t *testing.T) {
	toks, vals := scanAll(t, "[==[ raw ]] text ]==]")
	require.Equal(t, []token.Token{token.STRING, token.EOF}, toks)
	require.Equal(t, " raw ]] text ", vals[0].String)
}

func TestScanLongStringStripsLeadingNewline(t *testing.T) {
	toks, vals := scanAll(t, "[[\nfirst line]]")
	require.Equal(t, []token.Token{token.STRING, token.EOF}, toks)
	require.Equal(t, "first line", vals[0].String)
}

func TestScanShortStringEscapes(t *testing.T) {
	toks, vals := scanAll(t, `"\x41\65\u{42}"`)
	require.Equal(t, []token.Token{token.STRING, token.EOF}, toks)
	require.Equal(t, "AAB", vals[0].String)
}

func TestScanShortStringZSkipsWhitespace(t *testing.T) {
	toks, vals := scanAll(t, "\"a\\z\n  \tb\"")
	require.Equal(t, []token.Token{token.STRING, token.EOF}, toks)
	require.Equal(t, "ab", vals[0].String)
}

func TestScanShortStringMalformedEscapeErrors(t *testing.T) {
	fs := token.NewFileSet()
	src := `"\q"`
	f := fs.AddFile("test.lua", -1, len(src))
	var (
		s   scanner.Scanner
		el  scanner.ErrorList
		val scanner.TokenValue
	)
	s.Init(f, []byte(src), el.Add)
	for {
		tok := s.Scan(&val)
		if tok == token.EOF {
			break
		}
	}
	require.Error(t, el.Err())
}

func TestScanLineCommentSkipped(t *testing.T) {
	toks, _ := scanAll(t, "x -- a comment\n= 1")
	require.Equal(t, []token.Token{token.IDENT, token.ASSIGN, token.INT, token.EOF}, toks)
}

func TestScanLongCommentSkipped(t *testing.T) {
	toks, _ := scanAll(t, "x --[[ long\ncomment ]] = 1")
	require.Equal(t, []token.Token{token.IDENT, token.ASSIGN, token.INT, token.EOF}, toks)
}

func TestScanIllegalCharacter(t *testing.T) {
	fs := token.NewFileSet()
	src := "x @ y"
	f := fs.AddFile("test.lua", -1, len(src))
	var (
		s   scanner.Scanner
		el  scanner.ErrorList
		val scanner.TokenValue
	)
	s.Init(f, []byte(src), el.Add)
	for {
		tok := s.Scan(&val)
		if tok == token.EOF {
			break
		}
	}
	require.Error(t, el.Err())
	require.Contains(t, el.Err().Error(), "illegal character")
}
