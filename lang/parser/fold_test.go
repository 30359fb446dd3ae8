package parser_test

import (
	"testing"

	"github.com/mna/saffron/lang/ast"
	"github.com/stretchr/testify/require"
)

func localValue(t *testing.T, chunk *ast.Chunk) ast.Expr {
	t.Helper()
	local := chunk.Block.Stmts[0].(*ast.LocalStmt)
	require.Len(t, local.Values, 1)
	return local.Values[0]
}

func TestFoldIntArith(t *testing.T) {
	chunk := parseOne(t, `local x = 2 + 3 * 4`)
	lit := localValue(t, chunk).(*ast.LiteralExpr)
	require.Equal(t, ast.IntLit, lit.Kind)
	require.Equal(t, int64(14), lit.Int)
}

func TestFoldFloatDivIsAlwaysFloat(t *testing.T) {
	chunk := parseOne(t, `local x = 7 / 2`)
	lit := localValue(t, chunk).(*ast.LiteralExpr)
	require.Equal(t, ast.FloatLit, lit.Kind)
	require.Equal(t, 3.5, lit.Float)
}

func TestFoldFloorDivAndMod(t *testing.T) {
	chunk := parseOne(t, `local x = (0 - 7) // 2`)
	lit := localValue(t, chunk).(*ast.LiteralExpr)
	require.Equal(t, ast.IntLit, lit.Kind)
	require.Equal(t, int64(-4), lit.Int)

	chunk = parseOne(t, `local x = (0 - 7) % 2`)
	lit = localValue(t, chunk).(*ast.LiteralExpr)
	require.Equal(t, ast.IntLit, lit.Kind)
	require.Equal(t, int64(1), lit.Int)
}

func TestFoldIntDivByLiteralZeroNotFolded(t *testing.T) {
	chunk := parseOne(t, `local x = 1 // 0`)
	_, ok := localValue(t, chunk).(*ast.BinExpr)
	require.True(t, ok, "division by a literal zero must be left for the runtime to reject")
}

func TestFoldBitwiseRequiresIntOperands(t *testing.T) {
	chunk := parseOne(t, `local x = 6 & 3`)
	lit := localValue(t, chunk).(*ast.LiteralExpr)
	require.Equal(t, ast.IntLit, lit.Kind)
	require.Equal(t, int64(2), lit.Int)

	chunk = parseOne(t, `local x = 1.5 & 1`)
	_, ok := localValue(t, chunk).(*ast.BinExpr)
	require.True(t, ok, "a non-integral float operand must not be folded into a bitwise op")
}

func TestFoldShift(t *testing.T) {
	chunk := parseOne(t, `local x = 1 << 4`)
	lit := localValue(t, chunk).(*ast.LiteralExpr)
	require.Equal(t, int64(16), lit.Int)

	chunk = parseOne(t, `local x = 256 >> 4`)
	lit = localValue(t, chunk).(*ast.LiteralExpr)
	require.Equal(t, int64(16), lit.Int)
}

func TestFoldStringConcat(t *testing.T) {
	chunk := parseOne(t, `local x = "a" .. "b" .. "c"`)
	lit := localValue(t, chunk).(*ast.LiteralExpr)
	require.Equal(t, ast.StringLit, lit.Kind)
	require.Equal(t, "abc", lit.Str)
}

func TestFoldConcatCoercesNumbers(t *testing.T) {
	chunk := parseOne(t, `local x = "n=" .. 42`)
	lit := localValue(t, chunk).(*ast.LiteralExpr)
	require.Equal(t, ast.StringLit, lit.Kind)
	require.Equal(t, "n=42", lit.Str)
}

func TestFoldDoesNotApplyToNonLiteralOperands(t *testing.T) {
	chunk := parseOne(t, `local x = y + 1`)
	_, ok := localValue(t, chunk).(*ast.BinExpr)
	require.True(t, ok)
}

func TestFoldDoesNotApplyToAndOr(t *testing.T) {
	chunk := parseOne(t, `local x = 1 and 2`)
	_, ok := localValue(t, chunk).(*ast.BinExpr)
	require.True(t, ok, "and/or keep their short-circuit BinExpr shape even with literal operands")
}
