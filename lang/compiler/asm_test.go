package compiler_test

import (
	"testing"

	"github.com/mna/saffron/lang/compiler"
	"github.com/stretchr/testify/require"
)

func TestAsm(t *testing.T) {
	cases := []struct {
		desc string
		in   string
		err  string // error "contains" this err string, no error if empty
	}{
		{"empty", ``, "expected program section"},
		{"not program", `function:`, "expected program section"},
		{"program only", `program:`, "missing at least one function"},

		{"invalid function", `
				program:
					function: MissingStack
			`, "invalid function: want at least"},

		{"minimally valid", `
				program:
					function: top 0 0
						code:
							pop
			`, ""},

		{"unexpected section", `
				program:
					function: top 0 0
						code:
							pop
				locals:
			`, "unexpected section: locals:"},

		{"invalid opcode", `
				program:
					function: top 0 0
						code:
							bogus_op
			`, "invalid opcode: bogus_op"},

		{"missing opcode arg", `
				program:
					function: top 0 0
						code:
							load_local
			`, "expected 2 fields, got 1"},

		{"extra opcode arg", `
				program:
					function: top 0 0
						code:
							pop 1
			`, "expected 1 fields, got 2"},

		{"invalid jump index", `
				program:
					function: top 0 0
						code:
							pop
							jmp 5
			`, "invalid jump index 5"},

		{"invalid const type", `
				program:
					function: top 0 0
						consts:
							bogus 1
						code:
							pop
			`, "invalid const type: bogus"},
	}

	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			prog, err := compiler.Asm([]byte(c.in))
			if c.err == "" {
				require.NoError(t, err)
				require.NotNil(t, prog)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), c.err)
		})
	}
}

func TestAsmDasmRoundTrip(t *testing.T) {
	prog := &compiler.Program{
		Prototypes: []*compiler.Prototype{
			{
				Name:        "$main",
				MaxStack:    3,
				FixedParams: 0,
				IsVariadic:  true,
				Consts: []compiler.Const{
					{Kind: compiler.ConstInt, Int: 42},
					{Kind: compiler.ConstFloat, Float: 3.5},
					{Kind: compiler.ConstString, String: "hello world"},
				},
				Locals: []compiler.Local{
					{Index: 0, Name: "x", StartPC: 0, EndPC: 4},
				},
				Upvalues: []compiler.Upvalue{
					{Name: "_ENV", Index: 0, OnStack: false},
				},
				Code: []compiler.Instr{
					{Op: compiler.PushInt, Int: 1},
					{Op: compiler.StoreLocal, A: 0},
					{Op: compiler.LoadLocal, A: 0},
					{Op: compiler.Test},
					{Op: compiler.Jmp, A: 2},
					{Op: compiler.Pop},
					{Op: compiler.Return, A: 1},
				},
			},
		},
	}

	text, err := compiler.Dasm(prog)
	require.NoError(t, err)

	got, err := compiler.Asm(text)
	require.NoError(t, err)
	require.Equal(t, prog, got)
}
