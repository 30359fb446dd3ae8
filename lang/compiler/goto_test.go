package compiler_test

import (
	"errors"
	"testing"

	"github.com/mna/saffron/lang/ast"
	"github.com/mna/saffron/lang/compiler"
	"github.com/stretchr/testify/require"
)

func TestGotoForwardWithinSameBlock(t *testing.T) {
	chunk := chunkOf(
		&ast.GotoStmt{Label: "skip"},
		&ast.AssignStmt{Targets: []ast.Expr{&ast.NameExpr{Name: "x"}}, Values: []ast.Expr{lit(1)}},
		&ast.LabelStmt{Name: "skip"},
		&ast.ReturnStmt{},
	)
	prog, err := compiler.CompileChunk(chunk)
	require.NoError(t, err)
	main := prog.Prototypes[0]

	// goto at pc 0 must land on the label's pc (5): Jmp, then the global
	// store PushInt LoadUpvalue PushConst SetTable, then Return at the
	// label -- the label itself emits no instruction.
	require.Equal(t, compiler.Jmp, main.Code[0].Op)
	require.Equal(t, 5, main.Code[0].A)
}

func TestGotoAcrossBlockBoundaryRejected(t *testing.T) {
	chunk := chunkOf(
		&ast.BlockStmt{Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.LocalStmt{Names: []string{"x"}, Values: []ast.Expr{lit(1)}},
			&ast.LabelStmt{Name: "inner"},
		}}},
		&ast.GotoStmt{Label: "inner"},
	)
	_, err := compiler.CompileChunk(chunk)
	require.Error(t, err)
	var cerr *compiler.Error
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, compiler.ErrLabelNotVisible, cerr.Kind)
}

func TestGotoTrailingLabelExemptFromLocalScopeCheck(t *testing.T) {
	// "done" is the last statement of its block, so the goto is exempt
	// from the jump-into-local-scope check even though x is declared
	// between it and the label.
	chunk := chunkOf(
		&ast.GotoStmt{Label: "done"},
		&ast.LocalStmt{Names: []string{"x"}, Values: []ast.Expr{lit(1)}},
		&ast.LabelStmt{Name: "done"},
	)
	_, err := compiler.CompileChunk(chunk)
	require.NoError(t, err)
}

func TestGotoIntoLocalScopeRejectedWhenNotTrailing(t *testing.T) {
	// the label is followed by another statement, so it is not exempt:
	// a goto landing here would observe x's slot before it's initialized.
	chunk := chunkOf(
		&ast.GotoStmt{Label: "mid"},
		&ast.LocalStmt{Names: []string{"x"}, Values: []ast.Expr{lit(1)}},
		&ast.LabelStmt{Name: "mid"},
		&ast.ReturnStmt{Values: []ast.Expr{&ast.NameExpr{Name: "x"}}},
	)
	_, err := compiler.CompileChunk(chunk)
	require.Error(t, err)
	var cerr *compiler.Error
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, compiler.ErrJumpIntoLocalScope, cerr.Kind)
}

func TestGotoBackwardIntoLoop(t *testing.T) {
	// ::top:: goto top is an infinite loop; it compiles to a single
	// backward jump with no local-scope concerns, since nothing is
	// declared between the label and the goto.
	chunk := chunkOf(
		&ast.LabelStmt{Name: "top"},
		&ast.GotoStmt{Label: "top"},
	)
	prog, err := compiler.CompileChunk(chunk)
	require.NoError(t, err)
	main := prog.Prototypes[0]

	require.Equal(t, []compiler.Opcode{compiler.Jmp, compiler.Return}, opcodes(main.Code))
	require.Equal(t, 0, main.Code[0].A)
}
