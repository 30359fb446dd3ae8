package compiler_test

import (
	"errors"
	"testing"

	"github.com/mna/saffron/lang/ast"
	"github.com/mna/saffron/lang/compiler"
	"github.com/stretchr/testify/require"
)

func chunkOf(stmts ...ast.Stmt) *ast.Chunk {
	return &ast.Chunk{Block: &ast.Block{Stmts: stmts}}
}

func lit(i int64) *ast.LiteralExpr { return &ast.LiteralExpr{Kind: ast.IntLit, Int: i} }

func opcodes(code []compiler.Instr) []compiler.Opcode {
	ops := make([]compiler.Opcode, len(code))
	for i, in := range code {
		ops[i] = in.Op
	}
	return ops
}

func TestCompileLocalAssignment(t *testing.T) {
	chunk := chunkOf(
		&ast.LocalStmt{Names: []string{"x"}, Values: []ast.Expr{lit(1)}},
		&ast.AssignStmt{Targets: []ast.Expr{&ast.NameExpr{Name: "x"}}, Values: []ast.Expr{lit(2)}},
	)
	prog, err := compiler.CompileChunk(chunk)
	require.NoError(t, err)
	require.Len(t, prog.Prototypes, 1)

	main := prog.Prototypes[0]
	require.Equal(t, "$main", main.Name)
	require.Equal(t,
		[]compiler.Opcode{compiler.PushInt, compiler.StoreLocal, compiler.PushInt, compiler.StoreLocal, compiler.Return},
		opcodes(main.Code),
	)
}

func TestCompileGlobalAssignment(t *testing.T) {
	// x = 1, with x never declared local, resolves through _ENV.
	chunk := chunkOf(
		&ast.AssignStmt{Targets: []ast.Expr{&ast.NameExpr{Name: "x"}}, Values: []ast.Expr{lit(1)}},
	)
	prog, err := compiler.CompileChunk(chunk)
	require.NoError(t, err)
	main := prog.Prototypes[0]
	require.Equal(t,
		[]compiler.Opcode{compiler.PushInt, compiler.LoadUpvalue, compiler.PushConst, compiler.SetTable, compiler.Return},
		opcodes(main.Code),
	)
	require.Len(t, main.Upvalues, 1)
	require.Equal(t, "_ENV", main.Upvalues[0].Name)
}

func TestCompileClosureCapturesOuterLocal(t *testing.T) {
	// local x = 1; local function f() return x end
	inner := &ast.FuncBody{Block: &ast.Block{Stmts: []ast.Stmt{
		&ast.ReturnStmt{Values: []ast.Expr{&ast.NameExpr{Name: "x"}}},
	}}}
	chunk := chunkOf(
		&ast.LocalStmt{Names: []string{"x"}, Values: []ast.Expr{lit(1)}},
		&ast.LocalFuncStmt{Name: "f", Body: inner},
	)
	prog, err := compiler.CompileChunk(chunk)
	require.NoError(t, err)
	require.Len(t, prog.Prototypes, 2)

	f := prog.Prototypes[1]
	require.Len(t, f.Upvalues, 1)
	require.Equal(t, "x", f.Upvalues[0].Name)
	require.True(t, f.Upvalues[0].OnStack)
	require.Equal(t,
		[]compiler.Opcode{compiler.LoadUpvalue, compiler.Return},
		opcodes(f.Code),
	)
}

func TestCompileConstFolding(t *testing.T) {
	// local x <const> = 2 + 3; return x
	chunk := chunkOf(
		&ast.LocalStmt{
			Names:   []string{"x"},
			Attribs: []ast.Attrib{ast.ConstAttrib},
			Values:  []ast.Expr{lit(5)},
		},
		&ast.ReturnStmt{Values: []ast.Expr{&ast.NameExpr{Name: "x"}}},
	)
	prog, err := compiler.CompileChunk(chunk)
	require.NoError(t, err)
	main := prog.Prototypes[0]

	// a folded const local never occupies a slot or emits a store; x
	// resolves directly to a pushed literal.
	require.Equal(t,
		[]compiler.Opcode{compiler.PushInt, compiler.Return},
		opcodes(main.Code),
	)
	require.Empty(t, main.Locals)
}

func TestCompileBreakPatchesToEndOfLoop(t *testing.T) {
	chunk := chunkOf(
		&ast.WhileStmt{
			Cond: lit(1),
			Body: &ast.Block{Stmts: []ast.Stmt{&ast.BreakStmt{}}},
		},
	)
	prog, err := compiler.CompileChunk(chunk)
	require.NoError(t, err)
	main := prog.Prototypes[0]

	// the break's jump (index 3) must land past the loop, at the final
	// Return instruction (index 5):
	// PushInt(cond) Test Jmp(escape) Jmp(break) Jmp(back) Return
	require.Len(t, main.Code, 6)
	breakJmp := main.Code[3]
	require.Equal(t, compiler.Jmp, breakJmp.Op)
	require.Equal(t, 5-3, breakJmp.A)
}

func TestCompileBreakOutsideLoop(t *testing.T) {
	chunk := chunkOf(&ast.BreakStmt{})
	_, err := compiler.CompileChunk(chunk)
	require.Error(t, err)
	var cerr *compiler.Error
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, compiler.ErrBreakOutsideLoop, cerr.Kind)
}

func TestCompileConstReassignmentRejected(t *testing.T) {
	chunk := chunkOf(
		&ast.LocalStmt{
			Names:   []string{"x"},
			Attribs: []ast.Attrib{ast.ConstAttrib},
			Values:  []ast.Expr{&ast.NameExpr{Name: "y"}}, // not a literal: stays a runtime local
		},
		&ast.AssignStmt{Targets: []ast.Expr{&ast.NameExpr{Name: "x"}}, Values: []ast.Expr{lit(1)}},
	)
	_, err := compiler.CompileChunk(chunk)
	require.Error(t, err)
	var cerr *compiler.Error
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, compiler.ErrConstReassignment, cerr.Kind)
}
