// Much of the compiler package's instruction encoding follows the shape of
// the Starlark compiler's opcode set:
// https://github.com/google/starlark-go/tree/ee8ed142361c69d52fe8e9fb5e311d2a0a7c02de
//
// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

// Opcode identifies one stack-machine instruction. The set is closed;
// lowering and the assembler/disassembler exhaustively switch over it.
type Opcode uint8

const (
	// Stack-push opcodes.
	PushNil Opcode = iota
	PushTrue
	PushFalse
	PushConst   // A = constant pool index
	PushInt     // A = int64 immediate, stored out-of-band in Instr.Int
	PushVarargs // A = count (n+1/0=all); only valid in a variadic prototype

	// Locals and upvalues.
	LoadLocal    // A = local slot
	StoreLocal   // A = local slot
	LoadUpvalue  // A = upvalue index
	StoreUpvalue // A = upvalue index
	CloseUpvalue // A = local slot to close from

	// Tables.
	GetTable
	SetTable
	CreateTable
	MarkStack // marks the current stack depth as the start of a variadic span
	StoreList // A = count; 0 means "every value back to the last MarkStack"
	MarkTBC   // A = local slot, flagged to-be-closed

	// Calls and returns.
	Call    // A = param count (n+1/0=all), B = return count (n+1/0=all)
	Return  // A = count (n+1/0=all)
	Closure // A = prototype index

	// Control flow.
	Jmp           // A = relative offset from this instruction's pc
	Test          // pops a value; if truthy, skip the next instruction
	TestNil       // pops a value; if not nil, skip the next instruction
	TestFor       // A = control slot; if the numeric for loop should continue, skip next instruction
	PrepareForNum // A = control slot; pops step, limit, initial (pushed in the reverse order) and stores the 3-slot group
	PrepareForGen // A = iterator slot; pops closing, control, state, iterator (pushed in the reverse order) and stores the 4-slot group

	Pop // discard the top of stack

	// Unary operators.
	UnaryMinus
	UnaryNot
	UnaryLen
	UnaryBNot

	// Binary operators.
	Add
	Sub
	Mul
	Div
	IDiv
	Mod
	Pow
	BAnd
	BOr
	BXor
	Shl
	Shr
	Concat
	Eq
	Ne
	Lt
	Le
	Gt
	Ge

	opcodeMax
)

var opcodeNames = [...]string{
	PushNil:       "push_nil",
	PushTrue:      "push_true",
	PushFalse:     "push_false",
	PushConst:     "push_const",
	PushInt:       "push_int",
	PushVarargs:   "push_varargs",
	LoadLocal:     "load_local",
	StoreLocal:    "store_local",
	LoadUpvalue:   "load_upvalue",
	StoreUpvalue:  "store_upvalue",
	CloseUpvalue:  "close_upvalue",
	GetTable:      "get_table",
	SetTable:      "set_table",
	CreateTable:   "create_table",
	MarkStack:     "mark_stack",
	StoreList:     "store_list",
	MarkTBC:       "mark_tbc",
	Call:          "call",
	Return:        "return",
	Closure:       "closure",
	Jmp:           "jmp",
	Test:          "test",
	TestNil:       "test_nil",
	TestFor:       "test_for",
	PrepareForNum: "prepare_for_num",
	PrepareForGen: "prepare_for_gen",
	Pop:           "pop",
	UnaryMinus:    "unm",
	UnaryNot:      "not",
	UnaryLen:      "len",
	UnaryBNot:     "bnot",
	Add:           "add",
	Sub:           "sub",
	Mul:           "mul",
	Div:           "div",
	IDiv:          "idiv",
	Mod:           "mod",
	Pow:           "pow",
	BAnd:          "band",
	BOr:           "bor",
	BXor:          "bxor",
	Shl:           "shl",
	Shr:           "shr",
	Concat:        "concat",
	Eq:            "eq",
	Ne:            "ne",
	Lt:            "lt",
	Le:            "le",
	Gt:            "gt",
	Ge:            "ge",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "opcode(?)"
}

var reverseOpcode map[string]Opcode

func init() {
	reverseOpcode = make(map[string]Opcode, len(opcodeNames))
	for op, name := range opcodeNames {
		if name != "" {
			reverseOpcode[name] = Opcode(op)
		}
	}
}

// lookupOpcode returns the opcode named name, or false if name is not a
// known mnemonic.
func lookupOpcode(name string) (Opcode, bool) {
	op, ok := reverseOpcode[name]
	return op, ok
}

// hasOperandA reports whether op carries a single integer operand (A) in
// its textual and binary encodings. PushInt additionally carries a raw
// int64 (see Instr.Int); Call carries a second operand (B).
func (op Opcode) hasOperandA() bool {
	switch op {
	case PushNil, PushTrue, PushFalse, GetTable, SetTable, CreateTable,
		MarkStack, Pop, UnaryMinus, UnaryNot, UnaryLen, UnaryBNot,
		Add, Sub, Mul, Div, IDiv, Mod, Pow, BAnd, BOr, BXor, Shl, Shr,
		Concat, Eq, Ne, Lt, Le, Gt, Ge, Test, TestNil:
		return false
	default:
		return true
	}
}

// hasOperandB reports whether op carries a second integer operand (B).
func (op Opcode) hasOperandB() bool {
	return op == Call
}
