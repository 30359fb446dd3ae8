package compiler_test

import (
	"testing"

	"github.com/mna/saffron/lang/ast"
	"github.com/mna/saffron/lang/compiler"
	"github.com/stretchr/testify/require"
)

func TestResolveGlobalFallsBackToEnv(t *testing.T) {
	// return x, with x never declared local, resolves through the
	// guaranteed _ENV upvalue.
	chunk := chunkOf(
		&ast.ReturnStmt{Values: []ast.Expr{&ast.NameExpr{Name: "x"}}},
	)
	prog, err := compiler.CompileChunk(chunk)
	require.NoError(t, err)
	main := prog.Prototypes[0]

	require.Equal(t,
		[]compiler.Opcode{compiler.LoadUpvalue, compiler.PushConst, compiler.GetTable, compiler.Return},
		opcodes(main.Code),
	)
	require.Equal(t, 0, main.Code[0].A) // _ENV is always upvalue 0 in $main
}

func TestResolveUpvalueChainThroughTwoLevels(t *testing.T) {
	// local x = 1
	// local function outer()
	//   local function inner()
	//     return x
	//   end
	// end
	inner := &ast.FuncBody{Block: &ast.Block{Stmts: []ast.Stmt{
		&ast.ReturnStmt{Values: []ast.Expr{&ast.NameExpr{Name: "x"}}},
	}}}
	outer := &ast.FuncBody{Block: &ast.Block{Stmts: []ast.Stmt{
		&ast.LocalFuncStmt{Name: "inner", Body: inner},
	}}}
	chunk := chunkOf(
		&ast.LocalStmt{Names: []string{"x"}, Values: []ast.Expr{lit(1)}},
		&ast.LocalFuncStmt{Name: "outer", Body: outer},
	)
	prog, err := compiler.CompileChunk(chunk)
	require.NoError(t, err)
	require.Len(t, prog.Prototypes, 3)

	outerProto, innerProto := prog.Prototypes[1], prog.Prototypes[2]

	// outer captures x directly off $main's stack.
	require.Len(t, outerProto.Upvalues, 1)
	require.Equal(t, "x", outerProto.Upvalues[0].Name)
	require.True(t, outerProto.Upvalues[0].OnStack)

	// inner never sees x as a local of outer, so it forwards outer's
	// upvalue rather than opening a new on-stack capture.
	require.Len(t, innerProto.Upvalues, 1)
	require.Equal(t, "x", innerProto.Upvalues[0].Name)
	require.False(t, innerProto.Upvalues[0].OnStack)
	require.Equal(t, 0, innerProto.Upvalues[0].Index) // outer's own upvalue index for x
}

func TestResolveConstLocalNeverOccupiesASlot(t *testing.T) {
	// local x <const> = 5; return x, x -- two reads of the same folded
	// const-local binding, neither touching a stack slot.
	chunk := chunkOf(
		&ast.LocalStmt{
			Names:   []string{"x"},
			Attribs: []ast.Attrib{ast.ConstAttrib},
			Values:  []ast.Expr{lit(5)},
		},
		&ast.ReturnStmt{Values: []ast.Expr{
			&ast.NameExpr{Name: "x"},
			&ast.NameExpr{Name: "x"},
		}},
	)
	prog, err := compiler.CompileChunk(chunk)
	require.NoError(t, err)
	main := prog.Prototypes[0]

	require.Equal(t,
		[]compiler.Opcode{compiler.PushInt, compiler.PushInt, compiler.Return},
		opcodes(main.Code),
	)
	require.Empty(t, main.Locals)
}

func TestResolveLocalShadowsOuterBlock(t *testing.T) {
	// local x = 1
	// do
	//   local x = 2
	//   return x -- must resolve to the inner x, not the outer one
	// end
	chunk := chunkOf(
		&ast.LocalStmt{Names: []string{"x"}, Values: []ast.Expr{lit(1)}},
		&ast.BlockStmt{Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.LocalStmt{Names: []string{"x"}, Values: []ast.Expr{lit(2)}},
			&ast.ReturnStmt{Values: []ast.Expr{&ast.NameExpr{Name: "x"}}},
		}}},
	)
	prog, err := compiler.CompileChunk(chunk)
	require.NoError(t, err)
	main := prog.Prototypes[0]
	require.Len(t, main.Locals, 2)

	// the inner x gets slot 1, distinct from the outer's slot 0: find the
	// LoadLocal feeding the return and confirm it targets the inner slot.
	var loadSlot int
	for _, in := range main.Code {
		if in.Op == compiler.LoadLocal {
			loadSlot = in.A
		}
	}
	require.Equal(t, 1, loadSlot)
}
