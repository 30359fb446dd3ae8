// Package ast defines the abstract syntax tree produced by the parser and
// consumed by the compiler. The node set is closed: every concrete type
// implementing Expr or Stmt is declared in this package, and lowering code
// in lang/compiler is expected to exhaustively switch over it.
package ast

import "github.com/mna/saffron/lang/token"

// Node is implemented by every AST node. Span reports the half-open source
// range the node occupies, for diagnostics.
type Node interface {
	Span() (start, end token.Pos)
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	expr()
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmt()
}

// Chunk is the top-level compilation unit: a single block, compiled as the
// body of the implicit $main function.
type Chunk struct {
	Block *Block
	Name  string // source file name, for diagnostics; may be empty
}

func (c *Chunk) Span() (token.Pos, token.Pos) { return c.Block.Span() }

// Block is an ordered list of statements forming a lexical scope.
type Block struct {
	Stmts    []Stmt
	StartPos token.Pos
	EndPos   token.Pos
}

func (b *Block) Span() (token.Pos, token.Pos) { return b.StartPos, b.EndPos }
