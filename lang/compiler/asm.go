package compiler

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// This file implements a human-readable/writable form of a compiled
// program, to support testing the lowering and (eventually) the VM
// without going through the scanner/parser. A disassembler is also
// implemented, so any compiled Program can be dumped and, for the
// prototypes it can express, round-tripped back through Asm.
//
// The format looks like this (indentation is arbitrary, section order
// is not):
//
// 	program:
//
// 	function: NAME <maxstack> <fixedparams> [+varargs]
// 		consts:
// 			int    1234
// 			float  1.34
// 			string "abc"
// 		locals:
// 			x 0 10
// 		upvalues:
// 			_ENV onstack 0
// 		code:
// 			push_int 1234
// 			jmp 3                # index into this function's code, not a pc offset
// 			call 2 1

var sections = map[string]bool{
	"program:":   true,
	"function:":  true,
	"consts:":    true,
	"locals:":    true,
	"upvalues:":  true,
	"code:":      true,
}

// Asm loads a compiled program from its assembler textual form.
func Asm(b []byte) (*Program, error) {
	a := asm{s: bufio.NewScanner(bytes.NewReader(b))}

	fields := a.next()
	if len(fields) == 0 || !strings.EqualFold(fields[0], "program:") {
		return nil, errors.New("expected program section")
	}
	fields = a.next()

	prog := &Program{}
	for a.err == nil && len(fields) > 0 && strings.EqualFold(fields[0], "function:") {
		var proto *Prototype
		proto, fields = a.function(fields)
		if a.err != nil {
			break
		}
		prog.Prototypes = append(prog.Prototypes, proto)
	}

	if a.err == nil && len(fields) > 0 {
		a.err = fmt.Errorf("unexpected section: %s", fields[0])
	}
	if a.err == nil && len(prog.Prototypes) == 0 {
		a.err = errors.New("missing at least one function")
	}
	return prog, a.err
}

type asm struct {
	s       *bufio.Scanner
	rawLine string
	err     error
}

func (a *asm) function(fields []string) (*Prototype, []string) {
	if len(fields) < 3 {
		a.err = fmt.Errorf("invalid function: want at least 'function: NAME <maxstack> <fixedparams>', got %d fields", len(fields))
		return nil, a.next()
	}
	rest := restFields(fields, 3)
	var fixedParams int
	if len(rest) > 0 {
		fixedParams = int(a.int(rest[0]))
		rest = rest[1:]
	}
	p := &Prototype{
		Name:        fields[1],
		MaxStack:    int(a.int(fields[2])),
		FixedParams: fixedParams,
		IsVariadic:  a.option(rest, "varargs"),
	}

	fields = a.next()
	fields = a.consts(p, fields)
	fields = a.locals(p, fields)
	fields = a.upvalues(p, fields)
	fields = a.code(p, fields)
	return p, fields
}

// restFields returns fields[i:], or an empty slice if fields is shorter
// than i (plain slicing would panic in that case).
func restFields(fields []string, i int) []string {
	if i >= len(fields) {
		return nil
	}
	return fields[i:]
}

func (a *asm) consts(p *Prototype, fields []string) []string {
	if a.err != nil || len(fields) == 0 || !strings.EqualFold(fields[0], "consts:") {
		return fields
	}
	for fields = a.next(); len(fields) > 0 && !sections[fields[0]]; fields = a.next() {
		if len(fields) < 2 {
			a.err = fmt.Errorf("invalid const: expected type and value, got %d fields", len(fields))
			return fields
		}
		switch fields[0] {
		case "int":
			p.Consts = append(p.Consts, Const{Kind: ConstInt, Int: a.int(fields[1])})
		case "float":
			f, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				a.err = fmt.Errorf("invalid float: %s: %w", fields[1], err)
				return fields
			}
			p.Consts = append(p.Consts, Const{Kind: ConstFloat, Float: f})
		case "string":
			strVal := rxConstLineString.FindStringSubmatch(a.rawLine)
			if strVal == nil {
				a.err = fmt.Errorf("invalid string constant: %s", a.rawLine)
				return fields
			}
			qs, err := strconv.QuotedPrefix(strVal[1])
			if err != nil {
				a.err = fmt.Errorf("invalid string: %q: %w", strVal[1], err)
				return fields
			}
			s, err := strconv.Unquote(qs)
			if err != nil {
				a.err = fmt.Errorf("invalid string: %q: %w", qs, err)
				return fields
			}
			p.Consts = append(p.Consts, Const{Kind: ConstString, String: s})
		default:
			a.err = fmt.Errorf("invalid const type: %s", fields[0])
			return fields
		}
	}
	return fields
}

func (a *asm) locals(p *Prototype, fields []string) []string {
	if a.err != nil || len(fields) == 0 || !strings.EqualFold(fields[0], "locals:") {
		return fields
	}
	for fields = a.next(); len(fields) > 0 && !sections[fields[0]]; fields = a.next() {
		if len(fields) != 3 {
			a.err = fmt.Errorf("invalid local: expected name, startpc, endpc, got %d fields", len(fields))
			return fields
		}
		p.Locals = append(p.Locals, Local{
			Index:   len(p.Locals),
			Name:    fields[0],
			StartPC: int(a.int(fields[1])),
			EndPC:   int(a.int(fields[2])),
		})
	}
	return fields
}

func (a *asm) upvalues(p *Prototype, fields []string) []string {
	if a.err != nil || len(fields) == 0 || !strings.EqualFold(fields[0], "upvalues:") {
		return fields
	}
	for fields = a.next(); len(fields) > 0 && !sections[fields[0]]; fields = a.next() {
		if len(fields) != 3 {
			a.err = fmt.Errorf("invalid upvalue: expected name, onstack|forwarding, index, got %d fields", len(fields))
			return fields
		}
		onStack := fields[1] == "onstack"
		if !onStack && fields[1] != "forwarding" {
			a.err = fmt.Errorf("invalid upvalue kind: %s", fields[1])
			return fields
		}
		p.Upvalues = append(p.Upvalues, Upvalue{
			Name:    fields[0],
			OnStack: onStack,
			Index:   int(a.int(fields[2])),
		})
	}
	return fields
}

// code parses the code section, translating instruction-index jump
// targets (as written by Dasm) to the pc-relative offsets Instr.A
// carries at runtime.
func (a *asm) code(p *Prototype, fields []string) []string {
	if a.err != nil || len(fields) == 0 || !strings.EqualFold(fields[0], "code:") {
		return fields
	}

	type raw struct {
		op     Opcode
		a, b   int
		intArg int64
	}
	var insns []raw
	for fields = a.next(); len(fields) > 0 && !sections[fields[0]]; fields = a.next() {
		op, ok := lookupOpcode(fields[0])
		if !ok {
			a.err = fmt.Errorf("invalid opcode: %s", fields[0])
			return fields
		}
		r := raw{op: op}
		want := 1
		if op.hasOperandA() {
			want++
		}
		if op.hasOperandB() {
			want++
		}
		if len(fields) != want {
			a.err = fmt.Errorf("opcode %s: expected %d fields, got %d", op, want, len(fields))
			return fields
		}
		idx := 1
		if op.hasOperandA() {
			if op == PushInt {
				r.intArg = a.int(fields[idx])
			} else {
				r.a = int(a.int(fields[idx]))
			}
			idx++
		}
		if op.hasOperandB() {
			r.b = int(a.int(fields[idx]))
		}
		insns = append(insns, r)
	}

	p.Code = make([]Instr, len(insns))
	for i, r := range insns {
		in := Instr{Op: r.op, A: r.a, B: r.b, Int: r.intArg}
		if isJump(r.op) {
			if r.a < 0 || r.a >= len(insns) {
				a.err = fmt.Errorf("invalid jump index %d at instruction %d", r.a, i)
				return fields
			}
			in.A = r.a - i
		}
		p.Code[i] = in
	}
	return fields
}

// isJump reports whether op's A operand is a jump target. Test/TestNil
// carry no operand at all (they unconditionally skip the next
// instruction); TestFor's A is a control slot, not a jump target. Only
// Jmp itself needs index/offset translation.
func isJump(op Opcode) bool {
	return op == Jmp
}

var rxConstLineString = regexp.MustCompile(`^\s*(?:string)\s+(.+)$`)

func (a *asm) option(fields []string, opt string) bool {
	for _, fld := range fields {
		if fld == "+"+opt {
			return true
		}
	}
	return false
}

func (a *asm) int(s string) int64 {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		a.err = fmt.Errorf("invalid integer: %s: %w", s, err)
	}
	return i
}

// next returns the fields of the next non-empty, non-comment-only line,
// stripping trailing comments so fields[0] identifies the line.
func (a *asm) next() []string {
	a.rawLine = ""
	if a.err != nil {
		return nil
	}
	for a.s.Scan() {
		line := a.s.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		for i, fld := range fields {
			if strings.HasPrefix(fld, "#") {
				fields = fields[:i]
				break
			}
		}
		a.rawLine = line
		return fields
	}
	a.err = a.s.Err()
	return nil
}

// Dasm writes a compiled program to its assembler textual form.
func Dasm(p *Program) ([]byte, error) {
	d := dasm{buf: new(bytes.Buffer)}
	d.write("program:\n")
	for i, fn := range p.Prototypes {
		if i > 0 {
			d.write("\n")
		}
		d.function(fn)
	}
	if d.err == nil && len(p.Prototypes) == 0 {
		d.err = errors.New("missing at least one function")
	}
	return d.buf.Bytes(), d.err
}

type dasm struct {
	buf *bytes.Buffer
	err error
}

func (d *dasm) function(fn *Prototype) {
	if d.err != nil {
		return
	}
	d.writef("function: %s %d %d", fn.Name, fn.MaxStack, fn.FixedParams)
	if fn.IsVariadic {
		d.write(" +varargs")
	}
	d.write("\n")

	if len(fn.Consts) > 0 {
		d.write("\tconsts:\n")
		for i, c := range fn.Consts {
			switch c.Kind {
			case ConstInt:
				d.writef("\t\tint\t%d\t# %03d\n", c.Int, i)
			case ConstFloat:
				d.writef("\t\tfloat\t%g\t# %03d\n", c.Float, i)
			case ConstString:
				d.writef("\t\tstring\t%q\t# %03d\n", c.String, i)
			default:
				d.err = fmt.Errorf("unsupported const kind: %d", c.Kind)
				return
			}
		}
	}
	if len(fn.Locals) > 0 {
		d.write("\tlocals:\n")
		for i, l := range fn.Locals {
			d.writef("\t\t%s %d %d\t# %03d\n", l.Name, l.StartPC, l.EndPC, i)
		}
	}
	if len(fn.Upvalues) > 0 {
		d.write("\tupvalues:\n")
		for i, u := range fn.Upvalues {
			kind := "forwarding"
			if u.OnStack {
				kind = "onstack"
			}
			d.writef("\t\t%s %s %d\t# %03d\n", u.Name, kind, u.Index, i)
		}
	}
	if len(fn.Code) > 0 {
		d.write("\tcode:\n")
		for i, in := range fn.Code {
			op := in.Op
			switch {
			case isJump(op):
				d.writef("\t\t%s %03d\t# %03d\n", op, i+in.A, i)
			case op == PushInt:
				d.writef("\t\t%s %d\t# %03d\n", op, in.Int, i)
			case op.hasOperandB():
				d.writef("\t\t%s %d %d\t# %03d\n", op, in.A, in.B, i)
			case op.hasOperandA():
				d.writef("\t\t%s %d\t# %03d\n", op, in.A, i)
			default:
				d.writef("\t\t%s\t# %03d\n", op, i)
			}
		}
	}
}

func (d *dasm) writef(s string, args ...any) {
	d.write(fmt.Sprintf(s, args...))
}

func (d *dasm) write(s string) {
	if d.err != nil {
		return
	}
	_, d.err = d.buf.WriteString(s)
}
