package parser

import (
	"github.com/mna/saffron/lang/ast"
	"github.com/mna/saffron/lang/token"
)

// parseChunk parses a whole source file as a single top-level block.
func (p *parser) parseChunk() *ast.Chunk {
	block := p.parseBlock()
	p.expect(token.EOF)
	return &ast.Chunk{Block: block}
}

// blockFollow reports whether tok can follow (close) a block.
func blockFollow(tok token.Token) bool {
	switch tok {
	case token.EOF, token.END, token.ELSE, token.ELSEIF, token.UNTIL:
		return true
	}
	return false
}

// parseBlock parses statements until a block-ending token is reached.
// A return statement, if present, must be the last statement of the
// block.
func (p *parser) parseBlock() *ast.Block {
	start := p.val.Pos
	block := &ast.Block{StartPos: start}

	for !blockFollow(p.tok) {
		if p.tok == token.RETURN {
			block.Stmts = append(block.Stmts, p.parseReturnStmt())
			break
		}
		if stmt := p.parseStmtRecover(); stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
	}

	block.EndPos = p.val.Pos
	return block
}

// parseStmtRecover parses a single statement, recovering to the next
// statement boundary on a syntax error instead of propagating the panic.
func (p *parser) parseStmtRecover() (stmt ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if r != errPanicMode {
				panic(r)
			}
			p.syncToStmtBoundary()
			stmt = nil
		}
	}()
	return p.parseStmt()
}
