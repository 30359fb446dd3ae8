// Package parser implements the parser that transforms source code into an
// abstract syntax tree (AST).
package parser

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/mna/saffron/lang/ast"
	"github.com/mna/saffron/lang/scanner"
	"github.com/mna/saffron/lang/token"
)

// ParseFiles parses the source files and returns the fileset along with
// the ASTs and any error encountered. The error, if non-nil, is
// guaranteed to be a scanner.ErrorList.
func ParseFiles(ctx context.Context, files ...string) (*token.FileSet, []*ast.Chunk, error) {
	if len(files) == 0 {
		return nil, nil, nil
	}

	var p parser
	res := make([]*ast.Chunk, 0, len(files))
	fs := token.NewFileSet()

	for _, file := range files {
		b, err := os.ReadFile(file)
		if err != nil {
			p.errors.Add(token.Position{Filename: file}, err.Error())
			continue
		}

		p.init(fs, file, b)
		ch := p.parseChunk()
		ch.Name = file
		res = append(res, ch)
	}
	p.errors.Sort()
	return fs, res, p.errors.Err()
}

// ParseChunk parses a single chunk from a slice of bytes and returns the
// AST and any error encountered. The chunk is added to fset for position
// reporting under the name filename. The error, if non-nil, is
// guaranteed to be a scanner.ErrorList.
func ParseChunk(ctx context.Context, fset *token.FileSet, filename string, src []byte) (*ast.Chunk, error) {
	var p parser
	p.init(fset, filename, src)
	ch := p.parseChunk()
	ch.Name = filename
	return ch, p.errors.Err()
}

// parser parses a single source file into an AST, recovering at the
// statement level on syntax errors.
type parser struct {
	scanner scanner.Scanner
	errors  scanner.ErrorList
	file    *token.File

	tok token.Token
	val scanner.TokenValue

	// prevEnd is the end position of the most recently consumed token,
	// used to compute the End field of nodes whose last component is a
	// keyword or punctuation rather than a sub-expression.
	prevEnd token.Pos

	havePeek bool
	peekTok  token.Token
	peekVal  scanner.TokenValue
}

func (p *parser) init(fset *token.FileSet, filename string, src []byte) {
	p.file = fset.AddFile(filename, -1, len(src))
	p.scanner.Init(p.file, src, p.errors.Add)
	p.advance()
}

func (p *parser) advance() {
	p.prevEnd = p.val.Pos + token.Pos(len(p.val.Raw))
	if p.havePeek {
		p.tok, p.val = p.peekTok, p.peekVal
		p.havePeek = false
		return
	}
	p.tok = p.scanner.Scan(&p.val)
}

// peekAhead returns the token following the current one, scanning it
// without consuming the current token.
func (p *parser) peekAhead() token.Token {
	if !p.havePeek {
		p.peekTok = p.scanner.Scan(&p.peekVal)
		p.havePeek = true
	}
	return p.peekTok
}

// errPanicMode is the panic value used to unwind out of a broken
// statement; parseStmtRecover recovers it and continues at the next
// statement boundary.
var errPanicMode = errors.New("panic")

// expect consumes the current token if it matches one of toks and
// returns its position; otherwise it records an error and panics with
// errPanicMode.
func (p *parser) expect(toks ...token.Token) token.Pos {
	pos := p.val.Pos
	for _, tok := range toks {
		if p.tok == tok {
			p.advance()
			return pos
		}
	}

	var buf strings.Builder
	for i, tok := range toks {
		if i > 0 {
			buf.WriteString(" or ")
		}
		buf.WriteString("'" + tok.String() + "'")
	}
	p.errorExpected(pos, buf.String())
	panic(errPanicMode)
}

// accept consumes and reports true if the current token is tok,
// otherwise it leaves the scanner untouched and reports false.
func (p *parser) accept(tok token.Token) bool {
	if p.tok == tok {
		p.advance()
		return true
	}
	return false
}

func (p *parser) name() (string, token.Pos) {
	if p.tok != token.IDENT {
		p.errorExpected(p.val.Pos, "a name")
		panic(errPanicMode)
	}
	n, pos := p.val.Raw, p.val.Pos
	p.advance()
	return n, pos
}

func (p *parser) error(pos token.Pos, msg string) {
	p.errors.Add(p.file.Position(pos), msg)
}

func (p *parser) errorExpected(pos token.Pos, msg string) {
	msg = "expected " + msg
	if pos == p.val.Pos {
		lit := p.val.Raw
		if lit == "" {
			lit = p.tok.String()
		}
		msg += ", found " + lit
	}
	p.error(pos, msg)
}

// syncToStmtBoundary advances past tokens until one that can plausibly
// start (or end) a statement, so that parsing can resume after a syntax
// error instead of cascading into unrelated failures.
func (p *parser) syncToStmtBoundary() {
	for {
		switch p.tok {
		case token.EOF, token.SEMI, token.END, token.ELSE, token.ELSEIF, token.UNTIL,
			token.IF, token.WHILE, token.DO, token.FOR, token.REPEAT, token.FUNCTION,
			token.LOCAL, token.RETURN, token.BREAK, token.GOTO, token.DBCOLON:
			return
		}
		p.advance()
	}
}
