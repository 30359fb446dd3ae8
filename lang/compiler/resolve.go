package compiler

import "github.com/mna/saffron/lang/token"

// refKind discriminates the four ways a name can resolve, per the
// lookup order: a block-local compile-time constant, an ordinary (or
// runtime-const) local slot in the current prototype, a captured
// upvalue, or a field on the global environment.
type refKind int

const (
	refConstLocal refKind = iota
	refLocal
	refUpvalue
	refGlobal
)

// varRef is the result of resolving a name reference: enough
// information for the caller to emit either a load or a store.
type varRef struct {
	kind       refKind
	constBind  constLocalBinding // refConstLocal
	localSlot  int               // refLocal
	localConst bool              // refLocal
	upvalIndex int               // refUpvalue
	upvalConst bool              // refUpvalue
	envIndex   int               // refGlobal: upvalue index of _ENV in the current proto
	nameConst  int               // refGlobal: const-pool index of the name string
}

// resolveVariable implements the name-resolution algorithm: current
// prototype's own blocks (innermost out), then the enclosing-prototype
// chain (building forwarding upvalues as it goes), then the global
// environment via _ENV.
func (ps *programState) resolveVariable(name string) varRef {
	cur := ps.proto()

	if kind, data, ok := searchOwnScope(cur, name); ok {
		return fromOwnScope(kind, data)
	}

	if len(ps.protoStack) > 1 {
		if kind, data, ok := ps.resolveUpvalueChain(len(ps.protoStack)-1, name); ok {
			switch kind {
			case refConstLocal:
				return varRef{kind: refConstLocal, constBind: data.constBind}
			case refUpvalue:
				return varRef{kind: refUpvalue, upvalIndex: data.index, upvalConst: data.isConst}
			}
		}
	}

	envIdx := ps.ensureEnvChain(len(ps.protoStack) - 1)
	nameIdx := cur.getConstIndex(Const{Kind: ConstString, String: name})
	return varRef{kind: refGlobal, envIndex: envIdx, nameConst: nameIdx}
}

type scopeResult struct {
	constBind constLocalBinding
	localSlot int
	isConst   bool
	index     int // upvalue index, when relevant
}

// searchOwnScope looks only at p's own currently open blocks (innermost
// first), never at enclosing prototypes.
func searchOwnScope(p *protoState, name string) (refKind, scopeResult, bool) {
	for i := len(p.blockStack) - 1; i >= 0; i-- {
		b := p.blocks[p.blockStack[i]]
		if cb, ok := b.constLocals[name]; ok {
			return refConstLocal, scopeResult{constBind: cb}, true
		}
		if ol, ok := b.findLocal(name); ok {
			return refLocal, scopeResult{localSlot: ol.local.Index, isConst: ol.local.IsConst}, true
		}
	}
	return 0, scopeResult{}, false
}

func fromOwnScope(kind refKind, data scopeResult) varRef {
	if kind == refConstLocal {
		return varRef{kind: refConstLocal, constBind: data.constBind}
	}
	return varRef{kind: refLocal, localSlot: data.localSlot, localConst: data.isConst}
}

// resolveUpvalueChain resolves name as seen from protoStack[protoIdx],
// searching its immediately enclosing prototype's own scope first, then
// recursing outward. A find in an enclosing prototype's locals is
// captured as a fresh on-stack upvalue in every prototype along the way
// back to protoIdx; a find already captured as an upvalue further out is
// forwarded the same way.
func (ps *programState) resolveUpvalueChain(protoIdx int, name string) (refKind, scopeResult, bool) {
	if protoIdx == 0 {
		return 0, scopeResult{}, false
	}
	enclosing := ps.protoStack[protoIdx-1]
	cur := ps.protoStack[protoIdx]

	if idx, ok := cur.upvalueIndex.Get(name); ok {
		return refUpvalue, scopeResult{index: idx, isConst: cur.upvalues[idx].Const}, true
	}

	if kind, data, ok := searchOwnScope(enclosing, name); ok {
		switch kind {
		case refConstLocal:
			return refConstLocal, data, true
		case refLocal:
			idx := cur.addUpvalueOnStack(name, data.localSlot, data.isConst)
			for i := len(enclosing.blockStack) - 1; i >= 0; i-- {
				b := enclosing.blocks[enclosing.blockStack[i]]
				if _, ok := b.findLocal(name); ok {
					markOpenedUpvalue(b, data.localSlot)
					break
				}
			}
			return refUpvalue, scopeResult{index: idx, isConst: data.isConst}, true
		}
	}

	if kind, data, ok := ps.resolveUpvalueChain(protoIdx-1, name); ok {
		switch kind {
		case refConstLocal:
			return refConstLocal, data, true
		case refUpvalue:
			idx := cur.addUpvalueForwarding(name, data.index, data.isConst)
			return refUpvalue, scopeResult{index: idx, isConst: data.isConst}, true
		}
	}
	return 0, scopeResult{}, false
}

// markOpenedUpvalue records that slot was captured from b, so end_block
// knows to emit close_upvalue for it.
func markOpenedUpvalue(b *blockInfo, slot int) {
	for _, s := range b.openedUpvalues {
		if s == slot {
			return
		}
	}
	b.openedUpvalues = append(b.openedUpvalues, slot)
}

func (p *protoState) addUpvalueOnStack(name string, slot int, isConst bool) int {
	idx := len(p.upvalues)
	p.upvalues = append(p.upvalues, Upvalue{Name: name, Index: slot, OnStack: true, Const: isConst})
	p.upvalueIndex.Put(name, idx)
	return idx
}

func (p *protoState) addUpvalueForwarding(name string, parentUpvalIndex int, isConst bool) int {
	idx := len(p.upvalues)
	p.upvalues = append(p.upvalues, Upvalue{Name: name, Index: parentUpvalIndex, OnStack: false, Const: isConst})
	p.upvalueIndex.Put(name, idx)
	return idx
}

// ensureEnvChain guarantees that every prototype from index 1 up to
// protoIdx (inclusive) has an "_ENV" upvalue forwarding back to
// prototype 0, where it is supplied externally by the host. It returns
// protoStack[protoIdx]'s "_ENV" upvalue index.
func (ps *programState) ensureEnvChain(protoIdx int) int {
	if protoIdx == 0 {
		idx, ok := ps.protoStack[0].upvalueIndex.Get(envName)
		if !ok {
			internal("prototype 0 is missing its guaranteed _ENV upvalue")
		}
		return idx
	}
	cur := ps.protoStack[protoIdx]
	if idx, ok := cur.upvalueIndex.Get(envName); ok {
		return idx
	}
	parentIdx := ps.ensureEnvChain(protoIdx - 1)
	return cur.addUpvalueForwarding(envName, parentIdx, false)
}

const envName = "_ENV"

// emitConst pushes a compile-time-constant binding's value inline; it
// never touches a slot.
func (p *protoState) emitConst(c constLocalBinding) {
	switch c.kind {
	case constLocalNil:
		p.addOpcode(Instr{Op: PushNil})
	case constLocalTrue:
		p.addOpcode(Instr{Op: PushTrue})
	case constLocalFalse:
		p.addOpcode(Instr{Op: PushFalse})
	case constLocalInt:
		p.addOpcode(Instr{Op: PushInt, Int: c.int_})
	case constLocalFloat:
		idx := p.getConstIndex(Const{Kind: ConstFloat, Float: c.float})
		p.addOpcode(Instr{Op: PushConst, A: idx})
	case constLocalString:
		idx := p.getConstIndex(Const{Kind: ConstString, String: c.str})
		p.addOpcode(Instr{Op: PushConst, A: idx})
	default:
		internal("emitConst: unknown const-local kind %d", c.kind)
	}
}

// emitLoad pushes the value referenced by ref.
func (p *protoState) emitLoad(ref varRef) {
	switch ref.kind {
	case refConstLocal:
		p.emitConst(ref.constBind)
	case refLocal:
		p.addOpcode(Instr{Op: LoadLocal, A: ref.localSlot})
	case refUpvalue:
		p.addOpcode(Instr{Op: LoadUpvalue, A: ref.upvalIndex})
	case refGlobal:
		p.addOpcode(Instr{Op: LoadUpvalue, A: ref.envIndex})
		p.addOpcode(Instr{Op: PushConst, A: ref.nameConst})
		p.addOpcode(Instr{Op: GetTable})
	}
}

// emitStore pops a value and stores it where ref refers, failing if ref
// names a const binding.
func (p *protoState) emitStore(ref varRef, pos token.Pos) {
	switch ref.kind {
	case refConstLocal:
		fail(newError(ErrConstReassignment, pos, "assignment to a <const> name"))
	case refLocal:
		if ref.localConst {
			fail(newError(ErrConstReassignment, pos, "assignment to a <const> name"))
		}
		p.addOpcode(Instr{Op: StoreLocal, A: ref.localSlot})
	case refUpvalue:
		if ref.upvalConst {
			fail(newError(ErrConstReassignment, pos, "assignment to a <const> name"))
		}
		p.addOpcode(Instr{Op: StoreUpvalue, A: ref.upvalIndex})
	case refGlobal:
		p.addOpcode(Instr{Op: LoadUpvalue, A: ref.envIndex})
		p.addOpcode(Instr{Op: PushConst, A: ref.nameConst})
		p.addOpcode(Instr{Op: SetTable})
	}
}
