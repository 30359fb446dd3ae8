package ast

import "github.com/mna/saffron/lang/token"

// EmptyStmt is a bare `;`.
type EmptyStmt struct {
	Pos, End token.Pos
}

func (s *EmptyStmt) Span() (token.Pos, token.Pos) { return s.Pos, s.End }
func (*EmptyStmt) stmt()                          {}

// AssignStmt is `Targets = Values`. Each target must satisfy
// IsAssignable.
type AssignStmt struct {
	Targets  []Expr
	Values   []Expr
	Pos, End token.Pos
}

func (s *AssignStmt) Span() (token.Pos, token.Pos) { return s.Pos, s.End }
func (*AssignStmt) stmt()                          {}

// Attrib is the optional attribute on a local-declaration name.
type Attrib int

const (
	NoAttrib Attrib = iota
	ConstAttrib
	CloseAttrib
)

// LocalStmt is `local <attnamelist> = Values`.
type LocalStmt struct {
	Names    []string
	Attribs  []Attrib // same length as Names
	Values   []Expr
	Pos, End token.Pos
}

func (s *LocalStmt) Span() (token.Pos, token.Pos) { return s.Pos, s.End }
func (*LocalStmt) stmt()                          {}

// IfBranch is one `if`/`elseif` condition-and-body pair.
type IfBranch struct {
	Cond Expr
	Body *Block
}

// IfStmt is `if Cond then Body {elseif Cond then Body} [else Body] end`.
type IfStmt struct {
	Branches []IfBranch // first entry is the `if` branch
	Else     *Block     // nil if no `else`
	Pos, End token.Pos
}

func (s *IfStmt) Span() (token.Pos, token.Pos) { return s.Pos, s.End }
func (*IfStmt) stmt()                          {}

// WhileStmt is `while Cond do Body end`.
type WhileStmt struct {
	Cond     Expr
	Body     *Block
	Pos, End token.Pos
}

func (s *WhileStmt) Span() (token.Pos, token.Pos) { return s.Pos, s.End }
func (*WhileStmt) stmt()                          {}

// RepeatStmt is `repeat Body until Cond`. Cond is evaluated in the scope
// of Body, so locals declared in Body are visible to it.
type RepeatStmt struct {
	Body     *Block
	Cond     Expr
	Pos, End token.Pos
}

func (s *RepeatStmt) Span() (token.Pos, token.Pos) { return s.Pos, s.End }
func (*RepeatStmt) stmt()                          {}

// NumForStmt is `for Name = Start, Limit [, Step] do Body end`.
type NumForStmt struct {
	Name         string
	Start, Limit Expr
	Step         Expr // nil means default step of integer 1
	Body         *Block
	Pos, End     token.Pos
}

func (s *NumForStmt) Span() (token.Pos, token.Pos) { return s.Pos, s.End }
func (*NumForStmt) stmt()                          {}

// GenForStmt is `for Names in Exprs do Body end`.
type GenForStmt struct {
	Names    []string
	Exprs    []Expr
	Body     *Block
	Pos, End token.Pos
}

func (s *GenForStmt) Span() (token.Pos, token.Pos) { return s.Pos, s.End }
func (*GenForStmt) stmt()                          {}

// BreakStmt is `break`.
type BreakStmt struct {
	Pos, End token.Pos
}

func (s *BreakStmt) Span() (token.Pos, token.Pos) { return s.Pos, s.End }
func (*BreakStmt) stmt()                          {}

// GotoStmt is `goto Label`.
type GotoStmt struct {
	Label    string
	Pos, End token.Pos
}

func (s *GotoStmt) Span() (token.Pos, token.Pos) { return s.Pos, s.End }
func (*GotoStmt) stmt()                          {}

// LabelStmt is `::Name::`.
type LabelStmt struct {
	Name     string
	Pos, End token.Pos
}

func (s *LabelStmt) Span() (token.Pos, token.Pos) { return s.Pos, s.End }
func (*LabelStmt) stmt()                          {}

// ReturnStmt is `return [Values]`.
type ReturnStmt struct {
	Values   []Expr
	Pos, End token.Pos
}

func (s *ReturnStmt) Span() (token.Pos, token.Pos) { return s.Pos, s.End }
func (*ReturnStmt) stmt()                          {}

// FuncName is the possibly-dotted, possibly-method name in a
// function-definition statement: `a.b.c` or `a.b:m`.
type FuncName struct {
	Path      []string // a, b, c
	IsMethod  bool      // true if declared with `:`, in which case the last
	// Path element is the method name and `self` is implicitly prepended
	// to the function body's parameter list.
}

// FuncStmt is `function FuncName FuncBody`.
type FuncStmt struct {
	Name     FuncName
	Body     *FuncBody
	Pos, End token.Pos
}

func (s *FuncStmt) Span() (token.Pos, token.Pos) { return s.Pos, s.End }
func (*FuncStmt) stmt()                          {}

// LocalFuncStmt is `local function Name FuncBody`.
type LocalFuncStmt struct {
	Name     string
	Body     *FuncBody
	Pos, End token.Pos
}

func (s *LocalFuncStmt) Span() (token.Pos, token.Pos) { return s.Pos, s.End }
func (*LocalFuncStmt) stmt()                          {}

// CallStmt is a function or method call used as a statement; all results
// are discarded.
type CallStmt struct {
	Call     Expr // *CallExpr or *MethodCallExpr
	Pos, End token.Pos
}

func (s *CallStmt) Span() (token.Pos, token.Pos) { return s.Pos, s.End }
func (*CallStmt) stmt()                          {}

// BlockStmt wraps a nested `do ... end` block as a statement.
type BlockStmt struct {
	Body     *Block
	Pos, End token.Pos
}

func (s *BlockStmt) Span() (token.Pos, token.Pos) { return s.Pos, s.End }
func (*BlockStmt) stmt()                          {}
