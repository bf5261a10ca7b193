package ir

import "github.com/loopjit/ssacore/internal/ssaerr"

// This file implements the IR construction API of spec section 6:
// push_back<Kind>(BB, fields...) -> Instruction*, plus link_succ.
// Grounded on the teacher's BasicBlock.InsertInstruction / builder
// constructors (internal/_teacherref/ssa/basic_block.go), generalized
// from wazero's variable-resolution SSA construction to direct
// push_back of pre-formed SSA instructions (phi nodes explicit) per
// the spec's non-goal "no SSA construction from non-SSA input".

func (b *Block) assertNotTerminated(site string) {
	if t := b.Terminator(); t != nil {
		ssaerr.Fatalf(site, "block %d already terminated by %s", b.id, t.op)
	}
}

func (f *Func) addUser(v Value, user InstructionID) {
	if !v.Valid() {
		return
	}
	vi := f.Instr(InstructionID(v))
	if vi.users == nil {
		vi.users = make(map[InstructionID]struct{})
	}
	vi.users[user] = struct{}{}
}

func (f *Func) removeUser(v Value, user InstructionID) {
	if !v.Valid() {
		return
	}
	vi := f.Instr(InstructionID(v))
	delete(vi.users, user)
}

// PushConst appends a Const instruction.
func (b *Block) PushConst(typ Type, val uint64) *Instruction {
	b.assertNotTerminated("ir.PushConst")
	inst := b.fn.allocateInstruction()
	inst.op, inst.typ, inst.constVal = OpConst, typ, val
	b.append(inst)
	return inst
}

// PushConstBefore inserts a Const instruction immediately before pos,
// rather than at the block's tail. Used by passes that rewrite an
// already-terminated function in place — spec section 4.8's constant
// folding "splices the new Const in place of the original
// instruction" — where PushConst's assertNotTerminated would reject an
// append to a block that already has its terminator.
func (b *Block) PushConstBefore(pos InstructionID, typ Type, val uint64) *Instruction {
	inst := b.fn.allocateInstruction()
	inst.op, inst.typ, inst.constVal = OpConst, typ, val
	inst.blk = b.id
	b.instrs.InsertBefore(pos, inst.id)
	return inst
}

// PushBinOp appends a BinOp instruction. Operand types must match
// (spec section 3: "Arithmetic operations require matching operand
// types"); the result type is the operand type, except comparisons
// (LE, EQ) which always yield I1.
func (b *Block) PushBinOp(op BinOpKind, lhs, rhs Value) *Instruction {
	b.assertNotTerminated("ir.PushBinOp")
	lhsTy, rhsTy := b.fn.TypeOf(lhs), b.fn.TypeOf(rhs)
	if lhsTy != rhsTy {
		ssaerr.Fatalf("ir.PushBinOp", "operand type mismatch: %s vs %s", lhsTy, rhsTy)
	}
	resultTy := lhsTy
	if op.IsComparison() {
		resultTy = TypeI1
	}
	inst := b.fn.allocateInstruction()
	inst.op, inst.typ, inst.binOp = OpBinOp, resultTy, op
	inst.inputs = []Value{lhs, rhs}
	b.fn.addUser(lhs, inst.id)
	b.fn.addUser(rhs, inst.id)
	b.append(inst)
	return inst
}

// PushUnaryOp appends a UnaryOp instruction; its result type passes
// the operand type through unchanged (ZeroCheck is a guard, not a
// conversion).
func (b *Block) PushUnaryOp(op UnaryOpKind, val Value) *Instruction {
	b.assertNotTerminated("ir.PushUnaryOp")
	inst := b.fn.allocateInstruction()
	inst.op, inst.typ, inst.unaryOp = OpUnaryOp, b.fn.TypeOf(val), op
	inst.inputs = []Value{val}
	b.fn.addUser(val, inst.id)
	b.append(inst)
	return inst
}

// PushCast appends a Cast instruction, truncating or sign-extending
// src to dstTy (numeric semantics live in internal/passes/foldconst).
func (b *Block) PushCast(dstTy Type, src Value) *Instruction {
	b.assertNotTerminated("ir.PushCast")
	inst := b.fn.allocateInstruction()
	inst.op, inst.typ = OpCast, dstTy
	inst.inputs = []Value{src}
	b.fn.addUser(src, inst.id)
	b.append(inst)
	return inst
}

// PushIf appends an If terminator and links the two successor edges
// symmetrically (spec section 3 invariant (b): "If contributes two").
func (b *Block) PushIf(cond Value, trueBlk, falseBlk BlockID) *Instruction {
	b.assertNotTerminated("ir.PushIf")
	if b.fn.TypeOf(cond) != TypeI1 {
		ssaerr.Fatalf("ir.PushIf", "condition must be I1, got %s", b.fn.TypeOf(cond))
	}
	inst := b.fn.allocateInstruction()
	inst.op, inst.typ = OpIf, TypeNone
	inst.inputs = []Value{cond}
	inst.trueBlk, inst.falseBlk = trueBlk, falseBlk
	b.fn.addUser(cond, inst.id)
	b.append(inst)
	b.fn.LinkSucc(b.id, trueBlk)
	b.fn.LinkSucc(b.id, falseBlk)
	return inst
}

// PushJump appends a Jump terminator and links its single successor
// edge.
func (b *Block) PushJump(target BlockID) *Instruction {
	b.assertNotTerminated("ir.PushJump")
	inst := b.fn.allocateInstruction()
	inst.op, inst.typ, inst.jumpBlk = OpJump, TypeNone, target
	b.append(inst)
	b.fn.LinkSucc(b.id, target)
	return inst
}

// PushRet appends a Ret terminator. Pass val == InvalidValue for a
// function returning no value. Ret contributes zero successor edges.
func (b *Block) PushRet(val Value) *Instruction {
	b.assertNotTerminated("ir.PushRet")
	inst := b.fn.allocateInstruction()
	inst.op, inst.typ = OpRet, TypeNone
	if val.Valid() {
		inst.inputs = []Value{val}
		b.fn.addUser(val, inst.id)
	}
	b.append(inst)
	return inst
}

// PushParam appends a Param instruction; conventionally pushed in the
// entry block only, one per formal parameter, but the construction
// API does not itself enforce placement.
func (b *Block) PushParam(idx int, typ Type) *Instruction {
	b.assertNotTerminated("ir.PushParam")
	inst := b.fn.allocateInstruction()
	inst.op, inst.typ, inst.paramIdx = OpParam, typ, idx
	b.append(inst)
	return inst
}

// PushCall appends a Call instruction invoking callee with args. Arity
// and type checking against the callee's signature is inlining's job
// (spec section 4.11 step 1), not construction's: a Call instruction
// is well-formed IR on its own regardless of whether it is ever
// inlined.
func (b *Block) PushCall(callee *Func, args []Value) *Instruction {
	b.assertNotTerminated("ir.PushCall")
	inst := b.fn.allocateInstruction()
	inst.op, inst.typ, inst.callee = OpCall, callee.RetTy, callee
	inst.inputs = append([]Value(nil), args...)
	for _, a := range inst.inputs {
		b.fn.addUser(a, inst.id)
	}
	b.append(inst)
	return inst
}

// PushPhi appends a Phi instruction. Arity and per-entry typing must
// exactly match the block's current predecessor set (spec section 3's
// Phi invariant); a mismatch is a programmer-bug fatal error, not a
// recoverable one, because it can only arise from a front-end bug.
//
// Phis are kept grouped at the head of the block's instruction list,
// in push order, regardless of how many ordinary instructions already
// follow — liveness numbering (internal/liveness) identifies phis by
// Op, not by position, so this is a readability convention, not a
// correctness requirement.
func (b *Block) PushPhi(typ Type, entries []PhiEntry) *Instruction {
	b.assertNotTerminated("ir.PushPhi")
	if len(entries) != len(b.preds) {
		ssaerr.Fatalf("ir.PushPhi", "phi arity %d does not match block %d's %d predecessors", len(entries), b.id, len(b.preds))
	}
	seen := make(map[BlockID]bool, len(entries))
	for _, e := range entries {
		if b.fn.TypeOf(e.Val) != typ {
			ssaerr.Fatalf("ir.PushPhi", "phi entry for pred %d has type %s, want %s", e.Pred, b.fn.TypeOf(e.Val), typ)
		}
		seen[e.Pred] = true
	}
	for _, p := range b.preds {
		if !seen[p] {
			ssaerr.Fatalf("ir.PushPhi", "phi is missing an entry for predecessor %d", p)
		}
	}

	inst := b.fn.allocateInstruction()
	inst.op, inst.typ = OpPhi, typ
	inst.phiEntries = append([]PhiEntry(nil), entries...)
	inst.inputs = make([]Value, len(entries))
	for i, e := range entries {
		inst.inputs[i] = e.Val
		b.fn.addUser(e.Val, inst.id)
	}

	pos := b.firstNonPhi()
	inst.blk = b.id
	b.instrs.InsertBefore(pos, inst.id)
	return inst
}

// firstNonPhi returns the id of the first non-Phi instruction in the
// block, or End() if every instruction so far is a Phi (including the
// empty-block case).
func (b *Block) firstNonPhi() InstructionID {
	cur := b.First()
	for cur != b.End() && b.fn.Instr(cur).op == OpPhi {
		cur = b.fn.Instr(cur).next
	}
	return cur
}

// append is the shared tail of every PushXxx helper except PushPhi,
// which has its own head-of-block placement.
func (b *Block) append(inst *Instruction) {
	inst.blk = b.id
	b.instrs.PushBack(inst.id)
}
