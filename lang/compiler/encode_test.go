package compiler_test

import (
	"testing"

	"github.com/mna/saffron/lang/compiler"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	prog := &compiler.Program{
		Prototypes: []*compiler.Prototype{
			{
				Name:        "$main",
				MaxStack:    2,
				FixedParams: 0,
				IsVariadic:  true,
				Consts: []compiler.Const{
					{Kind: compiler.ConstString, String: "abc"},
				},
				Upvalues: []compiler.Upvalue{
					{Name: "_ENV", Index: 0, OnStack: false},
				},
				Code: []compiler.Instr{
					{Op: compiler.PushConst, A: 0},
					{Op: compiler.Return, A: 2},
				},
			},
		},
	}

	b, err := compiler.Encode(prog)
	require.NoError(t, err)
	require.NotEmpty(t, b)

	got, err := compiler.Decode(b)
	require.NoError(t, err)
	require.Equal(t, prog, got)
}

func TestDecodeInvalid(t *testing.T) {
	_, err := compiler.Decode([]byte("not a gob stream"))
	require.Error(t, err)
}
