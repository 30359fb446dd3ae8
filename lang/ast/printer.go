package ast

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes a compact, re-parseable-ish rendering of a chunk to w, for
// diagnostics and golden-file tests. It is not a formatter: spacing is not
// normative.
func Fprint(w io.Writer, chunk *Chunk) error {
	p := &printer{w: w}
	p.block(chunk.Block, 0)
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(indent int, format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, err := fmt.Fprint(p.w, strings.Repeat("  ", indent))
	if err == nil {
		_, err = fmt.Fprintf(p.w, format, args...)
	}
	if err != nil {
		p.err = err
	}
}

func (p *printer) block(b *Block, indent int) {
	for _, s := range b.Stmts {
		p.stmt(s, indent)
	}
}

func (p *printer) stmt(s Stmt, indent int) {
	switch n := s.(type) {
	case *EmptyStmt:
		p.printf(indent, ";\n")
	case *AssignStmt:
		p.printf(indent, "%s = %s\n", p.exprList(n.Targets), p.exprList(n.Values))
	case *LocalStmt:
		p.printf(indent, "local %s = %s\n", strings.Join(n.Names, ", "), p.exprList(n.Values))
	case *IfStmt:
		for i, b := range n.Branches {
			kw := "if"
			if i > 0 {
				kw = "elseif"
			}
			p.printf(indent, "%s %s then\n", kw, p.expr(b.Cond))
			p.block(b.Body, indent+1)
		}
		if n.Else != nil {
			p.printf(indent, "else\n")
			p.block(n.Else, indent+1)
		}
		p.printf(indent, "end\n")
	case *WhileStmt:
		p.printf(indent, "while %s do\n", p.expr(n.Cond))
		p.block(n.Body, indent+1)
		p.printf(indent, "end\n")
	case *RepeatStmt:
		p.printf(indent, "repeat\n")
		p.block(n.Body, indent+1)
		p.printf(indent, "until %s\n", p.expr(n.Cond))
	case *NumForStmt:
		p.printf(indent, "for %s = ... do\n", n.Name)
		p.block(n.Body, indent+1)
		p.printf(indent, "end\n")
	case *GenForStmt:
		p.printf(indent, "for %s in %s do\n", strings.Join(n.Names, ", "), p.exprList(n.Exprs))
		p.block(n.Body, indent+1)
		p.printf(indent, "end\n")
	case *BreakStmt:
		p.printf(indent, "break\n")
	case *GotoStmt:
		p.printf(indent, "goto %s\n", n.Label)
	case *LabelStmt:
		p.printf(indent, "::%s::\n", n.Name)
	case *ReturnStmt:
		p.printf(indent, "return %s\n", p.exprList(n.Values))
	case *FuncStmt:
		p.printf(indent, "function %s(...)\n", strings.Join(n.Name.Path, "."))
		p.block(n.Body.Block, indent+1)
		p.printf(indent, "end\n")
	case *LocalFuncStmt:
		p.printf(indent, "local function %s(...)\n", n.Name)
		p.block(n.Body.Block, indent+1)
		p.printf(indent, "end\n")
	case *CallStmt:
		p.printf(indent, "%s\n", p.expr(n.Call))
	case *BlockStmt:
		p.printf(indent, "do\n")
		p.block(n.Body, indent+1)
		p.printf(indent, "end\n")
	default:
		p.printf(indent, "<?%T>\n", n)
	}
}

func (p *printer) exprList(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = p.expr(e)
	}
	return strings.Join(parts, ", ")
}

func (p *printer) expr(e Expr) string {
	switch n := e.(type) {
	case *LiteralExpr:
		switch n.Kind {
		case IntLit:
			return fmt.Sprintf("%d", n.Int)
		case FloatLit:
			return fmt.Sprintf("%g", n.Float)
		case StringLit:
			return fmt.Sprintf("%q", n.Str)
		case TrueLit:
			return "true"
		case FalseLit:
			return "false"
		case NilLit:
			return "nil"
		}
	case *NameExpr:
		return n.Name
	case *DotExpr:
		return p.expr(n.X) + "." + n.Name
	case *IndexExpr:
		return p.expr(n.X) + "[" + p.expr(n.Index) + "]"
	case *UnaryExpr:
		return unaryOpStr(n.Op) + p.expr(n.X)
	case *BinExpr:
		return p.expr(n.Left) + " " + binOpStr(n.Op) + " " + p.expr(n.Right)
	case *VarargExpr:
		return "..."
	case *CallExpr:
		return p.expr(n.Callee) + "(" + p.exprList(n.Args) + ")"
	case *MethodCallExpr:
		return p.expr(n.Receiver) + ":" + n.Method + "(" + p.exprList(n.Args) + ")"
	case *FuncExpr:
		return "function(...) ... end"
	case *TableExpr:
		parts := make([]string, len(n.Fields))
		for i, f := range n.Fields {
			switch {
			case f.Key != nil:
				parts[i] = "[" + p.expr(f.Key) + "] = " + p.expr(f.Value)
			case f.Name != "":
				parts[i] = f.Name + " = " + p.expr(f.Value)
			default:
				parts[i] = p.expr(f.Value)
			}
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprintf("<?%T>", e)
}

func unaryOpStr(op UnaryOp) string {
	switch op {
	case UnaryMinus:
		return "-"
	case UnaryNot:
		return "not "
	case UnaryLen:
		return "#"
	case UnaryBNot:
		return "~"
	}
	return "?"
}

func binOpStr(op BinOp) string {
	names := map[BinOp]string{
		BinAdd: "+", BinSub: "-", BinMul: "*", BinDiv: "/", BinIDiv: "//",
		BinMod: "%", BinPow: "^", BinBAnd: "&", BinBOr: "|", BinBXor: "~",
		BinShl: "<<", BinShr: ">>", BinConcat: "..", BinEq: "==", BinNe: "~=",
		BinLt: "<", BinLe: "<=", BinGt: ">", BinGe: ">=", BinAnd: "and", BinOr: "or",
	}
	if s, ok := names[op]; ok {
		return s
	}
	return "?"
}
