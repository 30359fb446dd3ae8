package compiler

import (
	"github.com/mna/saffron/lang/ast"
)

func init() {
	lowerMultiResultFn = lowerMultiResultImpl
}

// CompileChunk lowers a parsed chunk into a Program whose prototype 0 is
// the chunk's implicit $main function, variadic and carrying the single
// guaranteed "_ENV" upvalue at index 0. A returned *Error describes a
// problem with the input program; a returned *InternalError describes a
// bug in this package.
func CompileChunk(chunk *ast.Chunk) (prog *Program, err error) {
	defer recoverInternal(&err)

	ps := newProgramState()
	main, _ := ps.beginProto("$main")
	main.isVariadic = true
	main.upvalues = append(main.upvalues, Upvalue{Name: envName, Index: 0, OnStack: false})
	main.upvalueIndex.Put(envName, 0)

	main.beginBlock()
	lowerStmts(ps, chunk.Block.Stmts)
	if !endsInReturn(chunk.Block) {
		main.addOpcode(Instr{Op: Return, A: 1})
	}
	main.endBlock()
	ps.endProto()

	prototypes := make([]*Prototype, len(ps.protos))
	for i, p := range ps.protos {
		prototypes[i] = p.finish()
	}
	return &Program{Prototypes: prototypes}, nil
}

func endsInReturn(b *ast.Block) bool {
	if len(b.Stmts) == 0 {
		return false
	}
	_, ok := b.Stmts[len(b.Stmts)-1].(*ast.ReturnStmt)
	return ok
}

// lowerBlock pushes a fresh lexical block, lowers its statements, and
// pops it. Used for every nested block (do/if/while/repeat/for bodies);
// a function's own top block is handled directly by its caller since it
// also owns the parameter bindings.
func lowerBlock(ps *programState, b *ast.Block) {
	p := ps.proto()
	p.beginBlock()
	lowerStmts(ps, b.Stmts)
	p.endBlock()
}

func lowerStmts(ps *programState, stmts []ast.Stmt) {
	for _, s := range stmts {
		lowerStmt(ps, s)
	}
	// A label that is the last statement of its block closes the block
	// immediately behind it, so it cannot actually observe any local
	// declared earlier in that same block.
	if len(stmts) > 0 {
		if lbl, ok := stmts[len(stmts)-1].(*ast.LabelStmt); ok {
			ps.proto().markTrailingLabel(lbl.Name)
		}
	}
}

func lowerStmt(ps *programState, s ast.Stmt) {
	p := ps.proto()
	switch n := s.(type) {
	case *ast.EmptyStmt:
		// no-op
	case *ast.AssignStmt:
		lowerAssign(ps, n)
	case *ast.LocalStmt:
		lowerLocal(ps, n)
	case *ast.IfStmt:
		lowerIf(ps, n)
	case *ast.WhileStmt:
		lowerWhile(ps, n)
	case *ast.RepeatStmt:
		lowerRepeat(ps, n)
	case *ast.NumForStmt:
		lowerNumFor(ps, n)
	case *ast.GenForStmt:
		lowerGenFor(ps, n)
	case *ast.BreakStmt:
		p.addBreak(n.Pos)
	case *ast.GotoStmt:
		p.addGoto(n.Label, n.Pos)
	case *ast.LabelStmt:
		p.addLabel(n.Name, n.Pos)
	case *ast.ReturnStmt:
		lowerReturn(ps, n)
	case *ast.FuncStmt:
		lowerFuncStmt(ps, n)
	case *ast.LocalFuncStmt:
		lowerLocalFuncStmt(ps, n)
	case *ast.CallStmt:
		lowerExpr(ps, n.Call)
		p.addOpcode(Instr{Op: Pop})
	case *ast.BlockStmt:
		lowerBlock(ps, n.Body)
	default:
		internal("lowerStmt: unhandled statement type %T", s)
	}
}

// lowerExpr evaluates e for exactly one resulting value.
func lowerExpr(ps *programState, e ast.Expr) {
	p := ps.proto()
	switch n := e.(type) {
	case *ast.LiteralExpr:
		lowerLiteral(p, n)
	case *ast.NameExpr:
		p.emitLoad(ps.resolveVariable(n.Name))
	case *ast.DotExpr:
		lowerExpr(ps, n.X)
		idx := p.getConstIndex(Const{Kind: ConstString, String: n.Name})
		p.addOpcode(Instr{Op: PushConst, A: idx})
		p.addOpcode(Instr{Op: GetTable})
	case *ast.IndexExpr:
		lowerExpr(ps, n.X)
		lowerExpr(ps, n.Index)
		p.addOpcode(Instr{Op: GetTable})
	case *ast.UnaryExpr:
		lowerExpr(ps, n.X)
		p.addOpcode(Instr{Op: unaryOpcode(n.Op)})
	case *ast.BinExpr:
		lowerBin(ps, n)
	case *ast.VarargExpr:
		lowerMultiResultImpl(ps, e, 2)
	case *ast.CallExpr:
		lowerMultiResultImpl(ps, e, 2)
	case *ast.MethodCallExpr:
		lowerMultiResultImpl(ps, e, 2)
	case *ast.FuncExpr:
		lowerFuncExpr(ps, n)
	case *ast.TableExpr:
		lowerTable(ps, n)
	default:
		internal("lowerExpr: unhandled expression type %T", e)
	}
}

func unaryOpcode(op ast.UnaryOp) Opcode {
	switch op {
	case ast.UnaryMinus:
		return UnaryMinus
	case ast.UnaryNot:
		return UnaryNot
	case ast.UnaryLen:
		return UnaryLen
	case ast.UnaryBNot:
		return UnaryBNot
	}
	internal("unaryOpcode: unknown unary operator %d", op)
	return 0
}

var binOpcodes = map[ast.BinOp]Opcode{
	ast.BinAdd: Add, ast.BinSub: Sub, ast.BinMul: Mul, ast.BinDiv: Div,
	ast.BinIDiv: IDiv, ast.BinMod: Mod, ast.BinPow: Pow,
	ast.BinBAnd: BAnd, ast.BinBOr: BOr, ast.BinBXor: BXor,
	ast.BinShl: Shl, ast.BinShr: Shr, ast.BinConcat: Concat,
	ast.BinEq: Eq, ast.BinNe: Ne, ast.BinLt: Lt, ast.BinLe: Le,
	ast.BinGt: Gt, ast.BinGe: Ge,
}

// lowerBin lowers a binary expression. And/Or short-circuit: the right
// operand is only evaluated when the left doesn't already decide the
// result, via a Test skip-next-instruction followed by a jump
// past the right-hand evaluation.
func lowerBin(ps *programState, n *ast.BinExpr) {
	p := ps.proto()
	switch n.Op {
	case ast.BinAnd:
		lowerShortCircuit(ps, n.Left, n.Right, false)
		return
	case ast.BinOr:
		lowerShortCircuit(ps, n.Left, n.Right, true)
		return
	}
	lowerExpr(ps, n.Left)
	lowerExpr(ps, n.Right)
	op, ok := binOpcodes[n.Op]
	if !ok {
		internal("lowerBin: unknown binary operator %d", n.Op)
	}
	p.addOpcode(Instr{Op: op})
}

// lowerShortCircuit lowers `and`/`or`. Since the instruction set has no
// duplicate-top-of-stack opcode, left is stashed in a temporary so its
// value survives the truthiness test and can be reloaded as the result
// without re-evaluating it. truthyUsesLeft is false for `and` (a truthy
// left defers to right) and true for `or` (a truthy left is itself the
// result).
func lowerShortCircuit(ps *programState, left, right ast.Expr, truthyUsesLeft bool) {
	p := ps.proto()
	lowerExpr(ps, left)
	tmp := p.newTemporary()
	p.addOpcode(Instr{Op: StoreLocal, A: tmp})
	p.addOpcode(Instr{Op: LoadLocal, A: tmp})
	p.addOpcode(Instr{Op: Test}) // pops; truthy left skips the next instruction

	toFalsyPath := p.reserveOpcode()
	// truthy path
	if truthyUsesLeft {
		p.addOpcode(Instr{Op: LoadLocal, A: tmp})
	} else {
		lowerExpr(ps, right)
	}
	toEnd := p.reserveOpcode()
	p.setJump(toFalsyPath)
	// falsy path
	if truthyUsesLeft {
		lowerExpr(ps, right)
	} else {
		p.addOpcode(Instr{Op: LoadLocal, A: tmp})
	}
	p.setJump(toEnd)
	p.releaseLocal(tmp)
}

func lowerLiteral(p *protoState, n *ast.LiteralExpr) {
	switch n.Kind {
	case ast.NilLit:
		p.addOpcode(Instr{Op: PushNil})
	case ast.TrueLit:
		p.addOpcode(Instr{Op: PushTrue})
	case ast.FalseLit:
		p.addOpcode(Instr{Op: PushFalse})
	case ast.IntLit:
		p.addOpcode(Instr{Op: PushInt, Int: n.Int})
	case ast.FloatLit:
		idx := p.getConstIndex(Const{Kind: ConstFloat, Float: n.Float})
		p.addOpcode(Instr{Op: PushConst, A: idx})
	case ast.StringLit:
		idx := p.getConstIndex(Const{Kind: ConstString, String: n.Str})
		p.addOpcode(Instr{Op: PushConst, A: idx})
	default:
		internal("lowerLiteral: unknown literal kind %d", n.Kind)
	}
}

// lowerMultiResultImpl lowers a call, method call, or vararg expression
// requesting resultCount results under the n+1/0=all convention.
func lowerMultiResultImpl(ps *programState, e ast.Expr, resultCount int) {
	p := ps.proto()
	switch n := e.(type) {
	case *ast.VarargExpr:
		if !p.isVariadic {
			fail(newError(ErrVarargsInNonVariadic, n.Pos, "cannot use '...' outside a variadic function"))
		}
		p.addOpcode(Instr{Op: PushVarargs, A: resultCount})
	case *ast.CallExpr:
		lowerCallArgs(ps, n.Callee, n.Args)
		p.addOpcode(Instr{Op: Call, A: paramCount(n.Args), B: resultCount})
	case *ast.MethodCallExpr:
		lowerMethodCallArgs(ps, n)
		p.addOpcode(Instr{Op: Call, A: methodParamCount(n.Args), B: resultCount})
	default:
		internal("lowerMultiResultImpl: unexpected expression type %T", e)
	}
}

func paramCount(args []ast.Expr) int {
	if len(args) > 0 && ast.IsMultiResult(args[len(args)-1]) {
		return 0 // 0 = all, the last arg's multi-result span extends it
	}
	return 1 + len(args)
}

func methodParamCount(args []ast.Expr) int {
	if len(args) > 0 && ast.IsMultiResult(args[len(args)-1]) {
		return 0
	}
	return 2 + len(args) // self + args
}

// lowerCallArgs evaluates callee then args, left to right; if the last
// argument is multi-result, it contributes all of its results.
func lowerCallArgs(ps *programState, callee ast.Expr, args []ast.Expr) {
	lowerExpr(ps, callee)
	lowerArgList(ps, args)
}

func lowerArgList(ps *programState, args []ast.Expr) {
	if len(args) == 0 {
		return
	}
	head, last := args[:len(args)-1], args[len(args)-1]
	for _, a := range head {
		lowerExpr(ps, a)
	}
	if ast.IsMultiResult(last) {
		lowerMultiResultImpl(ps, last, 0)
	} else {
		lowerExpr(ps, last)
	}
}

// lowerMethodCallArgs evaluates the receiver once into a temporary,
// fetches the bound method off it by name, pushes the receiver as the
// first argument (`self`), then the rest of the argument list.
func lowerMethodCallArgs(ps *programState, n *ast.MethodCallExpr) {
	p := ps.proto()
	lowerExpr(ps, n.Receiver)
	selfSlot := p.newTemporary()
	p.addOpcode(Instr{Op: StoreLocal, A: selfSlot})

	p.addOpcode(Instr{Op: LoadLocal, A: selfSlot})
	idx := p.getConstIndex(Const{Kind: ConstString, String: n.Method})
	p.addOpcode(Instr{Op: PushConst, A: idx})
	p.addOpcode(Instr{Op: GetTable}) // the bound function to call

	p.addOpcode(Instr{Op: LoadLocal, A: selfSlot})
	lowerArgList(ps, n.Args)
	p.releaseLocal(selfSlot)
}

// lowerTable lowers a table constructor. Positional fields are appended
// with store_list; a multi-result expression in the final positional
// field contributes all of its results (store_list 0), everywhere else
// only its first result is used.
func lowerTable(ps *programState, n *ast.TableExpr) {
	p := ps.proto()
	p.addOpcode(Instr{Op: CreateTable})
	tableSlot := p.newTemporary()
	p.addOpcode(Instr{Op: StoreLocal, A: tableSlot})

	lastPositional := -1
	for i, f := range n.Fields {
		if f.Key == nil && f.Name == "" {
			lastPositional = i
		}
	}

	for i, f := range n.Fields {
		switch {
		case f.Key != nil:
			lowerExpr(ps, f.Value)
			p.addOpcode(Instr{Op: LoadLocal, A: tableSlot})
			lowerExpr(ps, f.Key)
			p.addOpcode(Instr{Op: SetTable})
		case f.Name != "":
			lowerExpr(ps, f.Value)
			p.addOpcode(Instr{Op: LoadLocal, A: tableSlot})
			idx := p.getConstIndex(Const{Kind: ConstString, String: f.Name})
			p.addOpcode(Instr{Op: PushConst, A: idx})
			p.addOpcode(Instr{Op: SetTable})
		default:
			if i == lastPositional && ast.IsMultiResult(f.Value) {
				p.addOpcode(Instr{Op: MarkStack})
				lowerMultiResultImpl(ps, f.Value, 0)
				p.addOpcode(Instr{Op: LoadLocal, A: tableSlot})
				p.addOpcode(Instr{Op: StoreList, A: 0})
			} else {
				lowerExpr(ps, f.Value)
				p.addOpcode(Instr{Op: LoadLocal, A: tableSlot})
				p.addOpcode(Instr{Op: StoreList, A: 1})
			}
		}
	}

	p.addOpcode(Instr{Op: LoadLocal, A: tableSlot})
	p.releaseLocal(tableSlot)
}

// lowerAssign lowers `Targets = Values`. DotExpr/IndexExpr targets have
// their base (and, for IndexExpr, a non-literal key) cached into
// temporaries in source order before the values are adjusted, then
// targets are written back in reverse order, mirroring evaluation order
// for any side effects in the target expressions.
func lowerAssign(ps *programState, n *ast.AssignStmt) {
	p := ps.proto()
	type cached struct {
		has      bool
		baseSlot int
		keySlot  int
		hasKey   bool
	}
	caches := make([]cached, len(n.Targets))
	for i, t := range n.Targets {
		switch tn := t.(type) {
		case *ast.DotExpr:
			lowerExpr(ps, tn.X)
			slot := p.newTemporary()
			p.addOpcode(Instr{Op: StoreLocal, A: slot})
			caches[i] = cached{has: true, baseSlot: slot}
		case *ast.IndexExpr:
			lowerExpr(ps, tn.X)
			baseSlot := p.newTemporary()
			p.addOpcode(Instr{Op: StoreLocal, A: baseSlot})
			c := cached{has: true, baseSlot: baseSlot}
			if _, isLit := tn.Index.(*ast.LiteralExpr); !isLit {
				lowerExpr(ps, tn.Index)
				c.keySlot = p.newTemporary()
				p.addOpcode(Instr{Op: StoreLocal, A: c.keySlot})
				c.hasKey = true
			}
			caches[i] = c
		}
	}

	adjustStatic(p, func(e ast.Expr) { lowerExpr(ps, e) }, len(n.Targets), n.Values)

	for i := len(n.Targets) - 1; i >= 0; i-- {
		switch tn := n.Targets[i].(type) {
		case *ast.NameExpr:
			p.emitStore(ps.resolveVariable(tn.Name), tn.Pos)
		case *ast.DotExpr:
			c := caches[i]
			p.addOpcode(Instr{Op: LoadLocal, A: c.baseSlot})
			idx := p.getConstIndex(Const{Kind: ConstString, String: tn.Name})
			p.addOpcode(Instr{Op: PushConst, A: idx})
			p.addOpcode(Instr{Op: SetTable})
		case *ast.IndexExpr:
			c := caches[i]
			p.addOpcode(Instr{Op: LoadLocal, A: c.baseSlot})
			if c.hasKey {
				p.addOpcode(Instr{Op: LoadLocal, A: c.keySlot})
			} else {
				lowerExpr(ps, tn.Index)
			}
			p.addOpcode(Instr{Op: SetTable})
		default:
			internal("lowerAssign: unassignable target %T", tn)
		}
	}

	for i := len(caches) - 1; i >= 0; i-- {
		c := caches[i]
		if !c.has {
			continue
		}
		if c.hasKey {
			p.releaseLocal(c.keySlot)
		}
		p.releaseLocal(c.baseSlot)
	}
}

// lowerLocal lowers `local <attnamelist> = Values`. A name is folded
// into a slot-free compile-time constant only in the unambiguous case
// of exactly as many values as names, with a literal directly in that
// name's position; this sidesteps having to reason about which name an
// adjusted (padded or truncated) value list "belongs" to. Every other
// `<const>` name still gets a slot and is simply marked const on store.
func lowerLocal(ps *programState, n *ast.LocalStmt) {
	p := ps.proto()
	b := p.curBlock()
	exact := len(n.Values) == len(n.Names)

	var runtimeNames []string
	var runtimeAttribs []ast.Attrib
	var runtimeValues []ast.Expr
	tbcName := ""

	for i, name := range n.Names {
		attrib := ast.NoAttrib
		if i < len(n.Attribs) {
			attrib = n.Attribs[i]
		}
		if attrib == ast.ConstAttrib && exact {
			if lit, ok := n.Values[i].(*ast.LiteralExpr); ok {
				b.constLocals[name] = literalToConstBinding(lit)
				continue
			}
		}
		runtimeNames = append(runtimeNames, name)
		runtimeAttribs = append(runtimeAttribs, attrib)
		if exact {
			runtimeValues = append(runtimeValues, n.Values[i])
		}
		if attrib == ast.CloseAttrib {
			if tbcName != "" || b.tbcIndex != -1 {
				fail(newError(ErrTBCDuplication, n.Pos, "a block may have at most one to-be-closed variable"))
			}
			tbcName = name
		}
	}
	if !exact {
		runtimeValues = n.Values
	}

	if len(runtimeNames) > 0 {
		adjustStatic(p, func(e ast.Expr) { lowerExpr(ps, e) }, len(runtimeNames), runtimeValues)
		for i := len(runtimeNames) - 1; i >= 0; i-- {
			idx := p.newLocal(runtimeNames[i])
			p.addOpcode(Instr{Op: StoreLocal, A: idx})
			if runtimeAttribs[i] == ast.ConstAttrib {
				p.markConst(idx)
			}
		}
	}
	if tbcName != "" {
		ol, _ := b.findLocal(tbcName)
		b.tbcIndex = ol.local.Index
		p.addOpcode(Instr{Op: MarkTBC, A: ol.local.Index})
	}
}

func literalToConstBinding(lit *ast.LiteralExpr) constLocalBinding {
	switch lit.Kind {
	case ast.NilLit:
		return constLocalBinding{kind: constLocalNil}
	case ast.TrueLit:
		return constLocalBinding{kind: constLocalTrue}
	case ast.FalseLit:
		return constLocalBinding{kind: constLocalFalse}
	case ast.IntLit:
		return constLocalBinding{kind: constLocalInt, int_: lit.Int}
	case ast.FloatLit:
		return constLocalBinding{kind: constLocalFloat, float: lit.Float}
	case ast.StringLit:
		return constLocalBinding{kind: constLocalString, str: lit.Str}
	}
	internal("literalToConstBinding: unknown literal kind %d", lit.Kind)
	return constLocalBinding{}
}

func lowerIf(ps *programState, n *ast.IfStmt) {
	p := ps.proto()
	var endJumps []int
	for i, br := range n.Branches {
		lowerExpr(ps, br.Cond)
		p.addOpcode(Instr{Op: Test}) // truthy: skip the following jump, enter the branch
		skip := p.reserveOpcode()
		lowerBlock(ps, br.Body)
		hasMore := i < len(n.Branches)-1 || n.Else != nil
		if hasMore {
			endJumps = append(endJumps, p.reserveOpcode())
		}
		p.setJump(skip)
	}
	if n.Else != nil {
		lowerBlock(ps, n.Else)
	}
	for _, pc := range endJumps {
		p.setJump(pc)
	}
}

func lowerWhile(ps *programState, n *ast.WhileStmt) {
	p := ps.proto()
	start := p.pc()
	lowerExpr(ps, n.Cond)
	p.addOpcode(Instr{Op: Test})
	escape := p.reserveOpcode()
	p.beginLoop()
	lowerBlock(ps, n.Body)
	p.addJump(start)
	p.setJump(escape)
	p.endLoop()
}

// lowerRepeat lowers `repeat Body until Cond`; Cond is evaluated in the
// scope of Body, so the block closes only after Cond is tested.
func lowerRepeat(ps *programState, n *ast.RepeatStmt) {
	p := ps.proto()
	start := p.pc()
	p.beginLoop()
	p.beginBlock()
	lowerStmts(ps, n.Body.Stmts)
	lowerExpr(ps, n.Cond)
	p.addOpcode(Instr{Op: Test}) // truthy: done, fall through past the backward jump
	p.addJump(start)
	p.endBlock()
	p.endLoop()
}

// lowerNumFor lowers `for Name = Start, Limit [, Step] do Body end`. The
// control/limit/step group occupies three contiguous slots in linear
// mode, as required by prepare_for_num/test_for.
func lowerNumFor(ps *programState, n *ast.NumForStmt) {
	p := ps.proto()
	p.beginBlock()
	prevLinear := p.linearMode
	p.linearMode = true

	controlSlot := p.newLocal(n.Name)
	_ = p.newTemporary() // limit
	_ = p.newTemporary() // step

	lowerExpr(ps, n.Start)
	lowerExpr(ps, n.Limit)
	if n.Step != nil {
		lowerExpr(ps, n.Step)
	} else {
		p.addOpcode(Instr{Op: PushInt, Int: 1})
	}

	p.linearMode = prevLinear
	// pops step, limit, initial (in that order) and stores the 3-slot
	// group starting at controlSlot.
	p.addOpcode(Instr{Op: PrepareForNum, A: controlSlot})

	loopStart := p.pc()
	p.addOpcode(Instr{Op: TestFor, A: controlSlot})
	escape := p.reserveOpcode()
	p.beginLoop()
	lowerBlock(ps, n.Body)
	p.addJump(loopStart)
	p.setJump(escape)
	p.endLoop()
	p.endBlock()
}

// lowerGenFor lowers `for Names in Exprs do Body end`. The
// iterator/state/control/closing group occupies four contiguous slots
// in linear mode, as required by prepare_for_gen.
func lowerGenFor(ps *programState, n *ast.GenForStmt) {
	p := ps.proto()
	p.beginBlock()
	prevLinear := p.linearMode
	p.linearMode = true

	iterSlot := p.newTemporary()
	stateSlot := p.newTemporary()
	controlSlot := p.newLocal(n.Names[0])
	closingSlot := p.newTemporary()
	p.addOpcode(Instr{Op: MarkTBC, A: closingSlot})

	adjustStatic(p, func(e ast.Expr) { lowerExpr(ps, e) }, 4, n.Exprs)

	p.linearMode = prevLinear
	// pops closing, control, state, iterator (in that order) and stores
	// the 4-slot group starting at iterSlot.
	p.addOpcode(Instr{Op: PrepareForGen, A: iterSlot})

	loopStart := p.pc()
	p.addOpcode(Instr{Op: LoadLocal, A: iterSlot})
	p.addOpcode(Instr{Op: LoadLocal, A: stateSlot})
	p.addOpcode(Instr{Op: LoadLocal, A: controlSlot})
	p.addOpcode(Instr{Op: Call, A: 3, B: 1 + len(n.Names)})

	for i := len(n.Names) - 1; i >= 1; i-- {
		idx := p.getLocalIndex(n.Names[i])
		p.addOpcode(Instr{Op: StoreLocal, A: idx})
	}
	p.addOpcode(Instr{Op: StoreLocal, A: controlSlot})

	p.addOpcode(Instr{Op: LoadLocal, A: controlSlot})
	p.addOpcode(Instr{Op: TestNil})
	escape := p.reserveOpcode()
	p.beginLoop()
	lowerBlock(ps, n.Body)
	p.addJump(loopStart)
	p.setJump(escape)
	p.endLoop()
	p.endBlock()
}

// lowerReturn lowers `return [Values]`. A trailing multi-result
// expression contributes all of its results (return 0 = all); otherwise
// the count is exact (n+1 convention).
func lowerReturn(ps *programState, n *ast.ReturnStmt) {
	p := ps.proto()
	if len(n.Values) == 0 {
		p.addOpcode(Instr{Op: Return, A: 1})
		return
	}
	head, last := n.Values[:len(n.Values)-1], n.Values[len(n.Values)-1]
	for _, e := range head {
		lowerExpr(ps, e)
	}
	if ast.IsMultiResult(last) {
		lowerMultiResultImpl(ps, last, 0)
		p.addOpcode(Instr{Op: Return, A: 0})
		return
	}
	lowerExpr(ps, last)
	p.addOpcode(Instr{Op: Return, A: 1 + len(n.Values)})
}

// lowerFuncExpr compiles a function literal into a new prototype and
// emits a closure instruction in the enclosing prototype referencing it.
func lowerFuncExpr(ps *programState, n *ast.FuncExpr) {
	name := n.Name
	if name == "" {
		name = ps.nextLambdaName()
	}
	idx := lowerFuncBody(ps, name, n.Body)
	ps.proto().addOpcode(Instr{Op: Closure, A: idx})
}

func lowerFuncBody(ps *programState, name string, body *ast.FuncBody) int {
	fp, idx := ps.beginProto(name)
	fp.fixedParams = len(body.Params)
	fp.isVariadic = body.IsVariadic
	fp.beginBlock()
	// Params are pushed by the caller left to right (the first param
	// deepest, the last param on top), so slots are allocated in
	// declaration order but stored off the stack in reverse.
	slots := make([]int, len(body.Params))
	for i, param := range body.Params {
		slots[i] = fp.newLocal(param)
	}
	for i := len(slots) - 1; i >= 0; i-- {
		fp.addOpcode(Instr{Op: StoreLocal, A: slots[i]})
	}
	lowerStmts(ps, body.Block.Stmts)
	if !endsInReturn(body.Block) {
		fp.addOpcode(Instr{Op: Return, A: 1})
	}
	fp.endBlock()
	ps.endProto()
	return idx
}

func funcNameToLValue(fn ast.FuncName) ast.Expr {
	var e ast.Expr = &ast.NameExpr{Name: fn.Path[0]}
	for _, part := range fn.Path[1:] {
		e = &ast.DotExpr{X: e, Name: part}
	}
	return e
}

// lowerFuncStmt lowers `function FuncName FuncBody`, rewriting a method
// definition (`function a.b:m(...)`) into a plain function with an
// implicit leading `self` parameter, then storing the resulting closure
// at the (possibly dotted) target, exactly as a plain assignment would.
func lowerFuncStmt(ps *programState, n *ast.FuncStmt) {
	body := n.Body
	if n.Name.IsMethod {
		params := make([]string, 0, len(body.Params)+1)
		params = append(params, "self")
		params = append(params, body.Params...)
		body = &ast.FuncBody{Params: params, IsVariadic: body.IsVariadic, Block: body.Block, Pos: body.Pos, End: body.End}
	}
	diagName := n.Name.Path[len(n.Name.Path)-1]
	idx := lowerFuncBody(ps, diagName, body)

	p := ps.proto()
	target := funcNameToLValue(n.Name)
	if base, ok := target.(*ast.DotExpr); ok {
		lowerExpr(ps, base.X)
		baseSlot := p.newTemporary()
		p.addOpcode(Instr{Op: StoreLocal, A: baseSlot})
		p.addOpcode(Instr{Op: Closure, A: idx})
		p.addOpcode(Instr{Op: LoadLocal, A: baseSlot})
		nameIdx := p.getConstIndex(Const{Kind: ConstString, String: base.Name})
		p.addOpcode(Instr{Op: PushConst, A: nameIdx})
		p.addOpcode(Instr{Op: SetTable})
		p.releaseLocal(baseSlot)
		return
	}
	p.addOpcode(Instr{Op: Closure, A: idx})
	p.emitStore(ps.resolveVariable(target.(*ast.NameExpr).Name), n.Pos)
}

func lowerLocalFuncStmt(ps *programState, n *ast.LocalFuncStmt) {
	p := ps.proto()
	// the name is in scope inside its own body, to support recursion
	slot := p.newLocal(n.Name)
	idx := lowerFuncBody(ps, n.Name, n.Body)
	p.addOpcode(Instr{Op: Closure, A: idx})
	p.addOpcode(Instr{Op: StoreLocal, A: slot})
}
