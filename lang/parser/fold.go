package parser

import (
	"math"
	"strconv"
	"strings"

	"github.com/mna/saffron/lang/ast"
	"github.com/mna/saffron/lang/token"
)

// foldBinExpr folds a binary expression whose operands are both literal
// constants into a single ast.LiteralExpr, when doing so cannot change
// the expression's observable behavior at runtime. It returns nil when
// the expression is not foldable, leaving the caller to build the plain
// ast.BinExpr node instead.
//
// Comparisons and the short-circuiting and/or are never folded here:
// and/or have side-effect-relevant short-circuit semantics even when
// both operands happen to be literals, and comparisons are left as
// ast.BinExpr nodes even though ast.TrueLit/FalseLit could hold their
// result.
func foldBinExpr(op ast.BinOp, left, right ast.Expr, pos, end token.Pos) ast.Expr {
	ll, lok := left.(*ast.LiteralExpr)
	rl, rok := right.(*ast.LiteralExpr)
	if !lok || !rok {
		return nil
	}

	switch op {
	case ast.BinConcat:
		return foldConcat(ll, rl, pos, end)
	case ast.BinAdd, ast.BinSub, ast.BinMul, ast.BinMod, ast.BinIDiv:
		return foldArith(op, ll, rl, pos, end)
	case ast.BinDiv, ast.BinPow:
		return foldFloatArith(op, ll, rl, pos, end)
	case ast.BinBAnd, ast.BinBOr, ast.BinBXor, ast.BinShl, ast.BinShr:
		return foldBitwise(op, ll, rl, pos, end)
	}
	return nil
}

func literalToFloat(l *ast.LiteralExpr) (float64, bool) {
	switch l.Kind {
	case ast.IntLit:
		return float64(l.Int), true
	case ast.FloatLit:
		return l.Float, true
	}
	return 0, false
}

// foldArith folds +, -, *, % and // (floored division/modulo). Integer
// operands stay integer, except when the literal divisor is zero: Lua
// raises a runtime error for integer division or modulo by zero, so
// folding is skipped and the error is left to surface at run time.
func foldArith(op ast.BinOp, l, r *ast.LiteralExpr, pos, end token.Pos) ast.Expr {
	if l.Kind == ast.IntLit && r.Kind == ast.IntLit {
		a, b := l.Int, r.Int
		switch op {
		case ast.BinAdd:
			return intLit(a+b, pos, end)
		case ast.BinSub:
			return intLit(a-b, pos, end)
		case ast.BinMul:
			return intLit(a*b, pos, end)
		case ast.BinMod:
			if b == 0 {
				return nil
			}
			return intLit(floorModInt(a, b), pos, end)
		case ast.BinIDiv:
			if b == 0 {
				return nil
			}
			return intLit(floorDivInt(a, b), pos, end)
		}
	}

	af, aok := literalToFloat(l)
	bf, bok := literalToFloat(r)
	if !aok || !bok {
		return nil
	}
	switch op {
	case ast.BinAdd:
		return floatLit(af+bf, pos, end)
	case ast.BinSub:
		return floatLit(af-bf, pos, end)
	case ast.BinMul:
		return floatLit(af*bf, pos, end)
	case ast.BinMod:
		return floatLit(floorModFloat(af, bf), pos, end)
	case ast.BinIDiv:
		return floatLit(math.Floor(af/bf), pos, end)
	}
	return nil
}

// foldFloatArith folds / and ^, which always produce a float result and
// never raise an error in Lua (division by zero yields +-inf or NaN).
func foldFloatArith(op ast.BinOp, l, r *ast.LiteralExpr, pos, end token.Pos) ast.Expr {
	af, aok := literalToFloat(l)
	bf, bok := literalToFloat(r)
	if !aok || !bok {
		return nil
	}
	switch op {
	case ast.BinDiv:
		return floatLit(af/bf, pos, end)
	case ast.BinPow:
		return floatLit(math.Pow(af, bf), pos, end)
	}
	return nil
}

// foldBitwise folds bitwise operators, only when both operands are
// already integer literals: a float literal without an exact integer
// representation raises a runtime error in Lua, which folding must not
// pre-empt.
func foldBitwise(op ast.BinOp, l, r *ast.LiteralExpr, pos, end token.Pos) ast.Expr {
	if l.Kind != ast.IntLit || r.Kind != ast.IntLit {
		return nil
	}
	a, b := l.Int, r.Int
	switch op {
	case ast.BinBAnd:
		return intLit(a&b, pos, end)
	case ast.BinBOr:
		return intLit(a|b, pos, end)
	case ast.BinBXor:
		return intLit(a^b, pos, end)
	case ast.BinShl:
		return intLit(shiftLeft(a, b), pos, end)
	case ast.BinShr:
		return intLit(shiftLeft(a, -b), pos, end)
	}
	return nil
}

// shiftLeft implements Lua's shift semantics: shift counts of 64 or more
// (in either direction) always produce 0, and a negative count shifts
// the other way.
func shiftLeft(a, n int64) int64 {
	switch {
	case n <= -64 || n >= 64:
		return 0
	case n >= 0:
		return int64(uint64(a) << uint(n))
	default:
		return int64(uint64(a) >> uint(-n))
	}
}

func floorDivInt(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorModInt(a, b int64) int64 {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func floorModFloat(a, b float64) float64 {
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

// foldConcat folds string concatenation of two literals, coercing
// integer and float operands to their textual form the way Lua's
// concatenation operator does.
func foldConcat(l, r *ast.LiteralExpr, pos, end token.Pos) ast.Expr {
	ls, ok := literalToConcatString(l)
	if !ok {
		return nil
	}
	rs, ok := literalToConcatString(r)
	if !ok {
		return nil
	}
	return &ast.LiteralExpr{Kind: ast.StringLit, Str: ls + rs, Pos: pos, End: end}
}

func literalToConcatString(l *ast.LiteralExpr) (string, bool) {
	switch l.Kind {
	case ast.StringLit:
		return l.Str, true
	case ast.IntLit:
		return strconv.FormatInt(l.Int, 10), true
	case ast.FloatLit:
		return formatLuaFloat(l.Float), true
	}
	return "", false
}

func formatLuaFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', 14, 64)
	if !strings.ContainsAny(s, ".eEnI") {
		s += ".0"
	}
	return s
}

func intLit(v int64, pos, end token.Pos) ast.Expr {
	return &ast.LiteralExpr{Kind: ast.IntLit, Int: v, Pos: pos, End: end}
}

func floatLit(v float64, pos, end token.Pos) ast.Expr {
	return &ast.LiteralExpr{Kind: ast.FloatLit, Float: v, Pos: pos, End: end}
}
