package compiler

import (
	"github.com/dolthub/swiss"
	"github.com/mna/saffron/lang/token"
)

// openLocal is a local binding currently in scope, owned by exactly one
// block. Its Local.EndPC is filled in when the owning block closes.
type openLocal struct {
	local Local
}

// labelEntry records where a label was defined and how many locals had
// been declared in the owning prototype by that point (see
// protoState.declaredLocals).
type labelEntry struct {
	pc             int
	declaredLocals int
	// trailing is true when the label is the last statement of its
	// block: nothing after it can observe a local declared earlier in
	// the same block, so a goto reaching it is exempt from the
	// jump-into-local-scope check even if locals were declared between
	// the goto and the label.
	trailing bool
}

// gotoRec records a pending goto awaiting resolution in finish.
type gotoRec struct {
	label          string
	pc             int
	pos            token.Pos
	ancestors      []int // block ids, innermost (the goto's own block) first
	declaredLocals int
}

// blockInfo is one lexical block's bookkeeping. Blocks are never reused:
// each begin_block call allocates a fresh one, kept around (even after
// end_block) so that goto resolution in finish can still see labels
// defined in blocks that have since closed.
type blockInfo struct {
	id     int
	parent int // -1 for a prototype's outermost block

	locals      []*openLocal       // declared directly in this block, newest last
	constLocals map[string]constLocalBinding
	labels      map[string]labelEntry
	tbcIndex    int // -1 if no to-be-closed local in this block

	openedUpvalues []int // local slots promoted to upvalues while this block was open
}

// constLocalBinding is a name bound to a compile-time constant expression
// by a `local <name> <const> = expr` declaration; it consumes no slot.
type constLocalBinding struct {
	kind  constLocalKind
	int_  int64
	float float64
	str   string
}

type constLocalKind int

const (
	constLocalInt constLocalKind = iota
	constLocalFloat
	constLocalString
	constLocalTrue
	constLocalFalse
	constLocalNil
)

// protoState is the per-prototype compiler frame: §4.1's "prototype
// stack" entry. It owns the instruction stream, constant pool, locals,
// upvalues and pending control-flow bookkeeping for one function.
type protoState struct {
	name        string
	fixedParams int
	isVariadic  bool

	code     []Instr
	reserved []bool // parallel to code; true until the slot is patched

	consts     []Const
	constIndex *swiss.Map[Const, int]

	upvalues     []Upvalue
	upvalueIndex *swiss.Map[string, int]

	numLocals      int // next fresh slot index when not reusing the pool
	maxLocals      int // high-water mark of numLocals
	localsPool     []int
	linearMode     bool
	declaredLocals int // monotonic count of named locals declared so far

	completedLocals []Local // locals whose owning block has already closed

	blocks      []*blockInfo
	blockStack  []int
	nextBlockID int

	breaks [][]int // stack of break-collector lists, one per active loop

	gotos []gotoRec
}

func newProtoState(name string) *protoState {
	return &protoState{
		name:         name,
		constIndex:   swiss.NewMap[Const, int](8),
		upvalueIndex: swiss.NewMap[string, int](4),
	}
}

func (p *protoState) pc() int { return len(p.code) }

func (p *protoState) curBlock() *blockInfo {
	return p.blocks[p.blockStack[len(p.blockStack)-1]]
}

// beginBlock pushes a new lexical block.
func (p *protoState) beginBlock() *blockInfo {
	b := &blockInfo{
		id:          p.nextBlockID,
		constLocals: make(map[string]constLocalBinding),
		labels:      make(map[string]labelEntry),
		tbcIndex:    -1,
	}
	if len(p.blockStack) > 0 {
		b.parent = p.blockStack[len(p.blockStack)-1]
	} else {
		b.parent = -1
	}
	p.nextBlockID++
	p.blocks = append(p.blocks, b)
	p.blockStack = append(p.blockStack, b.id)
	return b
}

// endBlock stamps end_pc on the block's locals, emits close_upvalue for
// every upvalue opened in it (_ENV is never opened, so it is never
// closed here), releases its slots, and merges its locals into the
// prototype's completed-locals list.
func (p *protoState) endBlock() {
	b := p.curBlock()
	end := p.pc()

	for _, slot := range b.openedUpvalues {
		p.addOpcode(Instr{Op: CloseUpvalue, A: slot})
	}

	for _, ol := range b.locals {
		ol.local.EndPC = end
		p.completedLocals = append(p.completedLocals, ol.local)
		p.releaseLocal(ol.local.Index)
	}

	p.blockStack = p.blockStack[:len(p.blockStack)-1]
}

// beginLoop pushes a break-collector list.
func (p *protoState) beginLoop() {
	p.breaks = append(p.breaks, nil)
}

// endLoop patches every collected break to the current PC and pops the
// collector.
func (p *protoState) endLoop() {
	target := p.pc()
	list := p.breaks[len(p.breaks)-1]
	for _, pc := range list {
		p.setJump(pc, target)
	}
	p.breaks = p.breaks[:len(p.breaks)-1]
}

func (p *protoState) addOpcode(in Instr) int {
	pc := len(p.code)
	p.code = append(p.code, in)
	p.reserved = append(p.reserved, false)
	return pc
}

// reserveOpcode appends a placeholder instruction; the caller must patch
// it (directly or via setJump) before finish.
func (p *protoState) reserveOpcode() int {
	pc := len(p.code)
	p.code = append(p.code, Instr{})
	p.reserved = append(p.reserved, true)
	return pc
}

// patch fills in a previously reserved slot.
func (p *protoState) patch(pc int, in Instr) {
	if pc < 0 || pc >= len(p.code) {
		internal("patch: pc %d out of range", pc)
	}
	p.code[pc] = in
	p.reserved[pc] = false
}

// addJump emits an unconditional jump to target (an absolute PC already
// known, e.g. a loop's start).
func (p *protoState) addJump(target int) {
	from := p.pc()
	p.addOpcode(Instr{Op: Jmp, A: target - from})
}

// setJump patches a previously reserved jump slot to target (defaulting
// to the current PC).
func (p *protoState) setJump(pc int, target ...int) {
	t := p.pc()
	if len(target) > 0 {
		t = target[0]
	}
	p.patch(pc, Instr{Op: Jmp, A: t - pc})
}

// addBreak reserves a jump and registers it with the innermost loop's
// break collector; it fails if no loop is active.
func (p *protoState) addBreak(pos token.Pos) int {
	if len(p.breaks) == 0 {
		fail(newError(ErrBreakOutsideLoop, pos, "break outside a loop"))
	}
	pc := p.reserveOpcode()
	top := len(p.breaks) - 1
	p.breaks[top] = append(p.breaks[top], pc)
	return pc
}

// getConstIndex returns the deduplicated constant-pool index for c,
// inserting it if this is the first occurrence.
func (p *protoState) getConstIndex(c Const) int {
	if idx, ok := p.constIndex.Get(c); ok {
		return idx
	}
	idx := len(p.consts)
	p.consts = append(p.consts, c)
	p.constIndex.Put(c, idx)
	return idx
}

func (p *protoState) getUpvalueIndex(name string) int {
	if idx, ok := p.upvalueIndex.Get(name); ok {
		return idx
	}
	idx := len(p.upvalues)
	p.upvalues = append(p.upvalues, Upvalue{Name: name})
	p.upvalueIndex.Put(name, idx)
	return idx
}

func (p *protoState) nextLocalIndex() int {
	var idx int
	if p.linearMode || len(p.localsPool) == 0 {
		idx = p.numLocals
		p.numLocals++
		if p.numLocals > p.maxLocals {
			p.maxLocals = p.numLocals
		}
	} else {
		idx = p.localsPool[len(p.localsPool)-1]
		p.localsPool = p.localsPool[:len(p.localsPool)-1]
	}
	return idx
}

// newLocal declares a fresh named slot in the current block.
func (p *protoState) newLocal(name string) int {
	idx := p.nextLocalIndex()
	b := p.curBlock()
	b.locals = append(b.locals, &openLocal{local: Local{Index: idx, Name: name, StartPC: p.pc()}})
	p.declaredLocals++
	return idx
}

// newTemporary declares a fresh unnamed slot in the current block.
func (p *protoState) newTemporary() int {
	idx := p.nextLocalIndex()
	b := p.curBlock()
	b.locals = append(b.locals, &openLocal{local: Local{Index: idx, StartPC: p.pc()}})
	return idx
}

// releaseLocal returns a slot to the reuse pool.
func (p *protoState) releaseLocal(idx int) {
	p.localsPool = append(p.localsPool, idx)
}

// findLocal looks up name in block b's own bindings only (innermost
// lexical binding wins, since later declarations are appended last).
func (b *blockInfo) findLocal(name string) (*openLocal, bool) {
	for i := len(b.locals) - 1; i >= 0; i-- {
		if b.locals[i].local.Name == name {
			return b.locals[i], true
		}
	}
	return nil, false
}

// getLocalIndex returns the slot for name in the current block,
// declaring it if this is its first mention (used by for-loop control
// variables, which may be declared on first use inside a linear group).
func (p *protoState) getLocalIndex(name string) int {
	if ol, ok := p.curBlock().findLocal(name); ok {
		return ol.local.Index
	}
	return p.newLocal(name)
}

func (p *protoState) markConst(idx int) {
	for _, id := range p.blockStack {
		if ol, ok := findLocalBySlot(p.blocks[id], idx); ok {
			ol.local.IsConst = true
			return
		}
	}
	internal("markConst: slot %d not found in any open block", idx)
}

func findLocalBySlot(b *blockInfo, idx int) (*openLocal, bool) {
	for i := len(b.locals) - 1; i >= 0; i-- {
		if b.locals[i].local.Index == idx {
			return b.locals[i], true
		}
	}
	return nil, false
}

// addLabel records a label in the current block. It is a
// label-duplicate error if the same name is already visible anywhere in
// the chain of currently open ancestor blocks.
func (p *protoState) addLabel(name string, pos token.Pos) {
	for i := len(p.blockStack) - 1; i >= 0; i-- {
		if _, ok := p.blocks[p.blockStack[i]].labels[name]; ok {
			fail(newError(ErrLabelDuplicate, pos, "label %q already defined in this scope", name))
		}
	}
	p.curBlock().labels[name] = labelEntry{pc: p.pc(), declaredLocals: p.declaredLocals}
}

// markTrailingLabel marks name, just recorded by addLabel in the
// current block, as the last statement of that block.
func (p *protoState) markTrailingLabel(name string) {
	b := p.curBlock()
	e := b.labels[name]
	e.trailing = true
	b.labels[name] = e
}

// addGoto reserves a jump and records it for resolution in finish.
func (p *protoState) addGoto(label string, pos token.Pos) {
	ancestors := make([]int, len(p.blockStack))
	for i, id := range p.blockStack {
		ancestors[len(ancestors)-1-i] = id
	}
	pc := p.reserveOpcode()
	p.gotos = append(p.gotos, gotoRec{
		label:          label,
		pc:             pc,
		pos:            pos,
		ancestors:      ancestors,
		declaredLocals: p.declaredLocals,
	})
}

// resolveGotos matches every pending goto against a visible label,
// enforcing the jump-into-local-scope invariant, and patches its jump.
// Called once per prototype, from finish.
func (p *protoState) resolveGotos() {
	for _, g := range p.gotos {
		var (
			found bool
			entry labelEntry
		)
		for _, id := range g.ancestors {
			if e, ok := p.blocks[id].labels[g.label]; ok {
				entry, found = e, true
				break
			}
		}
		if !found {
			fail(newError(ErrLabelNotVisible, g.pos, "no visible label %q", g.label))
		}
		if !entry.trailing && entry.declaredLocals > g.declaredLocals {
			fail(newError(ErrJumpIntoLocalScope, g.pos, "goto %q jumps into the scope of a local variable", g.label))
		}
		p.patch(g.pc, Instr{Op: Jmp, A: entry.pc - g.pc})
	}
}

// finish validates that every reservation has been patched (invariant 1)
// and assembles the Prototype.
func (p *protoState) finish() *Prototype {
	p.resolveGotos()
	for pc, r := range p.reserved {
		if r {
			internal("unpatched instruction reservation at pc %d in %s", pc, p.name)
		}
	}
	return &Prototype{
		Name:        p.name,
		FixedParams: p.fixedParams,
		IsVariadic:  p.isVariadic,
		Code:        p.code,
		Consts:      p.consts,
		Locals:      p.completedLocals,
		Upvalues:    p.upvalues,
		MaxStack:    p.maxLocals,
	}
}

// programState is the compiler's top-level state: the stack of prototype
// frames (§4.1's "prototype stack"). One programState compiles exactly
// one source chunk; distinct source files use distinct programStates
// (§5).
type programState struct {
	protos    []*protoState // completed and in-progress, in push order
	protoStack []*protoState
	numLambdas int
}

func newProgramState() *programState {
	return &programState{}
}

func (s *programState) proto() *protoState {
	if len(s.protoStack) == 0 {
		return nil
	}
	return s.protoStack[len(s.protoStack)-1]
}

// beginProto pushes a new prototype frame and returns it with its index
// in the eventual Program.
func (s *programState) beginProto(name string) (*protoState, int) {
	p := newProtoState(name)
	idx := len(s.protos)
	s.protos = append(s.protos, p)
	s.protoStack = append(s.protoStack, p)
	return p, idx
}

func (s *programState) endProto() {
	s.protoStack = s.protoStack[:len(s.protoStack)-1]
}

func (s *programState) nextLambdaName() string {
	n := s.numLambdas
	s.numLambdas++
	return fmtLambda(n)
}

func fmtLambda(n int) string {
	return "<lambda#" + itoaState(n) + ">"
}

func itoaState(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
