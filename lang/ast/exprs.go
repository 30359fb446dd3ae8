package ast

import "github.com/mna/saffron/lang/token"

// LiteralKind distinguishes the constant-literal variants. Integer and
// fractional floating-point literals are kept distinct all the way through
// lowering: the distinction is semantic, not merely a matter of encoding.
type LiteralKind int

const (
	IntLit LiteralKind = iota
	FloatLit
	StringLit
	TrueLit
	FalseLit
	NilLit
)

// LiteralExpr is a constant literal: integer, float, string, true, false or
// nil. All literals are compile-time constants.
type LiteralExpr struct {
	Kind     LiteralKind
	Int      int64
	Float    float64
	Str      string // decoded byte content, for StringLit
	Pos, End token.Pos
}

func (e *LiteralExpr) Span() (token.Pos, token.Pos) { return e.Pos, e.End }
func (*LiteralExpr) expr()                          {}

// NameExpr is a reference to a name, resolved at lowering time to a local,
// an upvalue, or a key on the global environment. It is an assignable
// target.
type NameExpr struct {
	Name     string
	Pos, End token.Pos
}

func (e *NameExpr) Span() (token.Pos, token.Pos) { return e.Pos, e.End }
func (*NameExpr) expr()                          {}

// DotExpr is `Expr.Name` field access. It is an assignable target.
type DotExpr struct {
	X        Expr
	Name     string
	Pos, End token.Pos
}

func (e *DotExpr) Span() (token.Pos, token.Pos) { return e.Pos, e.End }
func (*DotExpr) expr()                          {}

// IndexExpr is `Expr[Expr]` indexing. It is an assignable target.
type IndexExpr struct {
	X, Index Expr
	Pos, End token.Pos
}

func (e *IndexExpr) Span() (token.Pos, token.Pos) { return e.Pos, e.End }
func (*IndexExpr) expr()                          {}

// UnaryOp identifies a unary operator.
type UnaryOp int

const (
	UnaryMinus UnaryOp = iota
	UnaryNot
	UnaryLen
	UnaryBNot
)

// UnaryExpr is a unary operator applied to an operand.
type UnaryExpr struct {
	Op       UnaryOp
	X        Expr
	Pos, End token.Pos
}

func (e *UnaryExpr) Span() (token.Pos, token.Pos) { return e.Pos, e.End }
func (*UnaryExpr) expr()                          {}

// BinOp identifies a binary operator.
type BinOp int

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinIDiv
	BinMod
	BinPow
	BinBAnd
	BinBOr
	BinBXor
	BinShl
	BinShr
	BinConcat
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
	BinAnd // short-circuit
	BinOr  // short-circuit
)

// BinExpr is a binary operator expression. And/Or are modeled here too,
// even though they short-circuit, since at the AST level they are
// syntactically indistinguishable from other binary expressions; lowering
// gives them their own branch.
type BinExpr struct {
	Op          BinOp
	Left, Right Expr
	Pos, End    token.Pos
}

func (e *BinExpr) Span() (token.Pos, token.Pos) { return e.Pos, e.End }
func (*BinExpr) expr()                          {}

// VarargExpr is the `...` marker, valid only inside a variadic function
// body. It is a multi-result expression.
type VarargExpr struct {
	Pos, End token.Pos
}

func (e *VarargExpr) Span() (token.Pos, token.Pos) { return e.Pos, e.End }
func (*VarargExpr) expr()                          {}

// CallExpr is `Callee(Args...)`. It is a multi-result expression.
type CallExpr struct {
	Callee   Expr
	Args     []Expr
	Pos, End token.Pos
}

func (e *CallExpr) Span() (token.Pos, token.Pos) { return e.Pos, e.End }
func (*CallExpr) expr()                          {}

// MethodCallExpr is `Receiver:Method(Args...)`. It is a multi-result
// expression. Method is looked up as a field, then invoked with Receiver
// prepended as the first argument.
type MethodCallExpr struct {
	Receiver Expr
	Method   string
	Args     []Expr
	Pos, End token.Pos
}

func (e *MethodCallExpr) Span() (token.Pos, token.Pos) { return e.Pos, e.End }
func (*MethodCallExpr) expr()                          {}

// FuncBody is a parameter list and block shared by function expressions,
// function-definition statements, and local-function-definition
// statements.
type FuncBody struct {
	Params     []string
	IsVariadic bool
	Block      *Block
	Pos, End   token.Pos
}

func (b *FuncBody) Span() (token.Pos, token.Pos) { return b.Pos, b.End }

// FuncExpr is an (optionally named, for diagnostics) function definition
// used as an expression.
type FuncExpr struct {
	Name     string // diagnostic name only; empty for anonymous functions
	Body     *FuncBody
	Pos, End token.Pos
}

func (e *FuncExpr) Span() (token.Pos, token.Pos) { return e.Pos, e.End }
func (*FuncExpr) expr()                          {}

// TableField is one field of a table constructor: `[Key] = Value`,
// `Name = Value` (Key nil, Name set), or a plain positional `Value`
// (both Key and Name zero).
type TableField struct {
	Key   Expr // non-nil for `[expr] = value` fields
	Name  string
	Value Expr
}

// TableExpr is a table constructor `{ ... }`. A multi-result expression
// (see IsMultiResult) in the last positional field contributes all of its results;
// everywhere else only its first result is used.
type TableExpr struct {
	Fields   []TableField
	Pos, End token.Pos
}

func (e *TableExpr) Span() (token.Pos, token.Pos) { return e.Pos, e.End }
func (*TableExpr) expr()                          {}

// IsAssignable reports whether e is a valid assignment target: a plain
// name, a dot access, or an index access.
func IsAssignable(e Expr) bool {
	switch e.(type) {
	case *NameExpr, *DotExpr, *IndexExpr:
		return true
	}
	return false
}

// IsMultiResult reports whether e may push a variable number of results
// (function/method calls and the vararg marker).
func IsMultiResult(e Expr) bool {
	switch e.(type) {
	case *CallExpr, *MethodCallExpr, *VarargExpr:
		return true
	}
	return false
}
