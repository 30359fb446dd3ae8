package compiler_test

import (
	"testing"

	"github.com/mna/saffron/lang/ast"
	"github.com/mna/saffron/lang/compiler"
	"github.com/stretchr/testify/require"
)

func TestAdjustPadsWithNilWhenTooFewValues(t *testing.T) {
	// local a, b, c = 1
	chunk := chunkOf(
		&ast.LocalStmt{Names: []string{"a", "b", "c"}, Values: []ast.Expr{lit(1)}},
	)
	prog, err := compiler.CompileChunk(chunk)
	require.NoError(t, err)
	main := prog.Prototypes[0]

	require.Equal(t,
		[]compiler.Opcode{compiler.PushInt, compiler.PushNil, compiler.PushNil, compiler.StoreLocal, compiler.StoreLocal, compiler.StoreLocal, compiler.Return},
		opcodes(main.Code),
	)
	require.Len(t, main.Locals, 3)
}

func TestAdjustPadsFromZeroValues(t *testing.T) {
	// local a, b with no values at all: every slot just gets nil.
	chunk := chunkOf(
		&ast.LocalStmt{Names: []string{"a", "b"}},
	)
	prog, err := compiler.CompileChunk(chunk)
	require.NoError(t, err)
	main := prog.Prototypes[0]

	require.Equal(t,
		[]compiler.Opcode{compiler.PushNil, compiler.PushNil, compiler.StoreLocal, compiler.StoreLocal, compiler.Return},
		opcodes(main.Code),
	)
}

func TestAdjustTruncatesSurplusValues(t *testing.T) {
	// local a = 1, 2, 3: only the first value is kept, the rest are
	// evaluated (for their side effects) and then discarded.
	chunk := chunkOf(
		&ast.LocalStmt{Names: []string{"a"}, Values: []ast.Expr{lit(1), lit(2), lit(3)}},
	)
	prog, err := compiler.CompileChunk(chunk)
	require.NoError(t, err)
	main := prog.Prototypes[0]

	require.Equal(t,
		[]compiler.Opcode{compiler.PushInt, compiler.PushInt, compiler.PushInt, compiler.Pop, compiler.Pop, compiler.StoreLocal, compiler.Return},
		opcodes(main.Code),
	)
	require.Len(t, main.Locals, 1)
}

func TestAdjustMultiResultExpandsToRequestedCount(t *testing.T) {
	// local a, b, c = f(): the call is asked for exactly 3 results
	// (n+1-encoded as 4), not truncated to 1 the way a non-last-position
	// call would be.
	chunk := chunkOf(
		&ast.LocalStmt{
			Names:  []string{"a", "b", "c"},
			Values: []ast.Expr{&ast.CallExpr{Callee: &ast.NameExpr{Name: "f"}}},
		},
	)
	prog, err := compiler.CompileChunk(chunk)
	require.NoError(t, err)
	main := prog.Prototypes[0]

	var call compiler.Instr
	for _, in := range main.Code {
		if in.Op == compiler.Call {
			call = in
		}
	}
	require.Equal(t, compiler.Call, call.Op)
	require.Equal(t, 4, call.B)
}

func TestAdjustMultiResultTruncatedWhenNotLast(t *testing.T) {
	// local a, b = f(), 1: f() is not in last position, so it contributes
	// only its first result (n+1-encoded as 2), same as any other
	// single-value expression in that position.
	chunk := chunkOf(
		&ast.LocalStmt{
			Names: []string{"a", "b"},
			Values: []ast.Expr{
				&ast.CallExpr{Callee: &ast.NameExpr{Name: "f"}},
				lit(1),
			},
		},
	)
	prog, err := compiler.CompileChunk(chunk)
	require.NoError(t, err)
	main := prog.Prototypes[0]

	var call compiler.Instr
	for _, in := range main.Code {
		if in.Op == compiler.Call {
			call = in
		}
	}
	require.Equal(t, 2, call.B)
}
