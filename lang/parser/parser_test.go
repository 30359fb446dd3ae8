package parser_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/mna/saffron/lang/ast"
	"github.com/mna/saffron/lang/parser"
	"github.com/mna/saffron/lang/token"
	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, src string) *ast.Chunk {
	t.Helper()
	fset := token.NewFileSet()
	chunk, err := parser.ParseChunk(context.Background(), fset, "test.lua", []byte(src))
	require.NoError(t, err)
	return chunk
}

func render(t *testing.T, chunk *ast.Chunk) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, ast.Fprint(&buf, chunk))
	return buf.String()
}

func TestParseLocalAndAssign(t *testing.T) {
	chunk := parseOne(t, `local x, y = 1, 2
x = y
`)
	require.Equal(t, "local x, y = 1, 2\nx = y\n", render(t, chunk))
}

func TestParseLocalAttribs(t *testing.T) {
	chunk := parseOne(t, `local x <const> = 1`)
	local := chunk.Block.Stmts[0].(*ast.LocalStmt)
	require.Equal(t, []string{"x"}, local.Names)
	require.Equal(t, []ast.Attrib{ast.ConstAttrib}, local.Attribs)
}

func TestParseIfElseif(t *testing.T) {
	chunk := parseOne(t, `
if a then
  x = 1
elseif b then
  x = 2
else
  x = 3
end
`)
	require.Equal(t, "if a then\n  x = 1\nelseif b then\n  x = 2\nelse\n  x = 3\nend\n", render(t, chunk))
}

func TestParseWhileAndBreak(t *testing.T) {
	chunk := parseOne(t, `
while x do
  break
end
`)
	require.Equal(t, "while x do\n  break\nend\n", render(t, chunk))
}

func TestParseRepeat(t *testing.T) {
	chunk := parseOne(t, `
repeat
  x = x + 1
until x > 10
`)
	require.Equal(t, "repeat\n  x = x + 1\nuntil x > 10\n", render(t, chunk))
}

func TestParseNumericFor(t *testing.T) {
	chunk := parseOne(t, `
for i = 1, 10, 2 do
  print(i)
end
`)
	forStmt := chunk.Block.Stmts[0].(*ast.NumForStmt)
	require.Equal(t, "i", forStmt.Name)
	require.NotNil(t, forStmt.Step)
}

func TestParseGenericFor(t *testing.T) {
	chunk := parseOne(t, `
for k, v in pairs(t) do
  print(k, v)
end
`)
	forStmt := chunk.Block.Stmts[0].(*ast.GenForStmt)
	require.Equal(t, []string{"k", "v"}, forStmt.Names)
}

func TestParseFunctionDecl(t *testing.T) {
	chunk := parseOne(t, `
function foo.bar:baz(a, b, ...)
  return a
end
`)
	fn := chunk.Block.Stmts[0].(*ast.FuncStmt)
	require.Equal(t, []string{"foo", "bar", "baz"}, fn.Name.Path)
	require.True(t, fn.Name.IsMethod)
	require.Equal(t, []string{"self", "a", "b"}, fn.Body.Params)
	require.True(t, fn.Body.IsVariadic)
}

func TestParseLocalFunction(t *testing.T) {
	chunk := parseOne(t, `
local function f(x)
  return x
end
`)
	fn := chunk.Block.Stmts[0].(*ast.LocalFuncStmt)
	require.Equal(t, "f", fn.Name)
}

func TestParseCallStmtAndMethodCall(t *testing.T) {
	chunk := parseOne(t, `obj:method(1, 2)`)
	call := chunk.Block.Stmts[0].(*ast.CallStmt)
	_, ok := call.Call.(*ast.MethodCallExpr)
	require.True(t, ok)
}

func TestParseTableConstructor(t *testing.T) {
	chunk := parseOne(t, `local t = {1, 2, x = 3, [k] = 4}`)
	local := chunk.Block.Stmts[0].(*ast.LocalStmt)
	tbl := local.Values[0].(*ast.TableExpr)
	require.Len(t, tbl.Fields, 4)
	require.Equal(t, "x", tbl.Fields[2].Name)
	require.NotNil(t, tbl.Fields[3].Key)
}

func TestParseOperatorPrecedence(t *testing.T) {
	chunk := parseOne(t, `x = a + b * c`)
	require.Equal(t, "x = a + b * c\n", render(t, chunk))

	assign := chunk.Block.Stmts[0].(*ast.AssignStmt)
	bin := assign.Values[0].(*ast.BinExpr)
	require.Equal(t, ast.BinAdd, bin.Op)
	rhs := bin.Right.(*ast.BinExpr)
	require.Equal(t, ast.BinMul, rhs.Op)
}

func TestParseConcatRightAssoc(t *testing.T) {
	chunk := parseOne(t, `x = a .. b .. c`)
	assign := chunk.Block.Stmts[0].(*ast.AssignStmt)
	bin := assign.Values[0].(*ast.BinExpr)
	require.Equal(t, ast.BinConcat, bin.Op)
	_, ok := bin.Left.(*ast.NameExpr)
	require.True(t, ok, "concat is right-associative, so the left operand of the outer node should be a plain name")
	_, ok = bin.Right.(*ast.BinExpr)
	require.True(t, ok)
}

func TestParseReturnMustBeLast(t *testing.T) {
	chunk := parseOne(t, `
function f()
  return 1
end
`)
	fn := chunk.Block.Stmts[0].(*ast.FuncStmt)
	require.Len(t, fn.Body.Block.Stmts, 1)
	_, ok := fn.Body.Block.Stmts[0].(*ast.ReturnStmt)
	require.True(t, ok)
}

func TestParseGotoAndLabel(t *testing.T) {
	chunk := parseOne(t, `
::top::
goto top
`)
	_, ok := chunk.Block.Stmts[0].(*ast.LabelStmt)
	require.True(t, ok)
	_, ok = chunk.Block.Stmts[1].(*ast.GotoStmt)
	require.True(t, ok)
}

func TestParseSyntaxErrorRecovers(t *testing.T) {
	fset := token.NewFileSet()
	_, err := parser.ParseChunk(context.Background(), fset, "test.lua", []byte(`
local x = 1 +
local y = 2
`))
	require.Error(t, err)
}
