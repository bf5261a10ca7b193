package ir

import "github.com/loopjit/ssacore/internal/ssaerr"

// This file implements spec section 4.11's call-expansion primitive.
// It lives in package ir, unlike the other optimization passes, for
// one structural reason: ids in this IR are arena offsets private to
// one Func (the "stable handles" of spec section 9), so moving a
// callee block into the caller cannot be a pointer relink — it must
// reallocate every migrated instruction in the caller's own arena and
// rewrite every internal reference through a remap table. That
// bookkeeping needs the unexported Instruction fields build.go/edit.go
// already manipulate, so it is grounded here rather than reimplemented
// against the package's exported surface from internal/passes/inline.

// VerifyCall checks spec section 4.11 step 1: argument arity and types
// must match the callee's parameters, and the callee's result type
// must equal the Call's own type. Returns a combined
// *ssaerr.VerificationError naming every mismatch at once, or nil if
// the call site is inlinable as-is.
func (f *Func) VerifyCall(call *Instruction) error {
	mustOp(call, OpCall)
	callee := call.Callee()
	var problems []error

	if call.Type() != callee.RetTy {
		problems = append(problems, ssaerr.Problemf("call v%d: result type %s does not match callee %q's return type %s", call.id, call.Type(), callee.Name, callee.RetTy))
	}

	args := call.Args()
	if len(args) != len(callee.ParamTys) {
		problems = append(problems, ssaerr.Problemf("call v%d: %d argument(s) given, callee %q expects %d", call.id, len(args), callee.Name, len(callee.ParamTys)))
	} else {
		for i, a := range args {
			if got, want := f.TypeOf(a), callee.ParamTys[i]; got != want {
				problems = append(problems, ssaerr.Problemf("call v%d: argument %d has type %s, callee %q's parameter %d wants %s", call.id, i, got, callee.Name, i, want))
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return ssaerr.NewVerification(problems...)
}

// InlineCall expands call in place per spec section 4.11 steps 2-6.
// The caller must have already verified the call site with VerifyCall;
// InlineCall itself only asserts (fatal on violation) rather than
// re-deriving a recoverable error, since by this point a mismatch can
// only be a programmer bug in the pass driving it.
//
// callee is consumed: its blocks are migrated into f and it must not
// be used again afterward (spec section 4.11: "the callee Function
// object is consumed").
func (f *Func) InlineCall(call *Instruction) {
	mustOp(call, OpCall)
	callee := call.Callee()
	callBlk := f.Block(call.blk)

	pre, after := f.splitAfter(callBlk, call.id)

	entryRemap, restRemap := f.migrateCalleeBlocks(callee)
	entryID := entryRemap[callee.EntryID()]

	wireParams(f, callee, entryRemap, call.Args())
	retVal := wireReturns(f, callee, entryRemap, restRemap, after.id)

	if retVal.Valid() {
		f.Replace(Value(call.id), retVal)
	}
	f.Erase(call)

	// The callee's entry block, now fully migrated and wired, takes the
	// Call's old position in control flow: pre falls through to it via
	// an ordinary Jump, exactly the edge a caller would have taken into
	// the callee before inlining (spec section 4.11 step 5's "splice"
	// realized as a control-flow edge rather than a physical content
	// merge, which keeps the migrated entry block's own identity intact
	// for anything — a Phi among them — that references it by block id).
	pre.PushJump(entryID)
}

// splitAfter splits blk immediately after pos (spec section 4.11 step
// 2): pos and everything before it stays in blk (the *pre* block,
// still unterminated once pos — the Call — is erased by the caller);
// everything after pos moves into a new *after* block, which inherits
// blk's terminator and successor edges.
func (f *Func) splitAfter(blk *Block, pos InstructionID) (pre, after *Block) {
	after = f.AppendBB()
	after.succs = blk.succs
	blk.succs = nil
	for _, s := range after.succs {
		succ := f.Block(s)
		for i, p := range succ.preds {
			if p == blk.id {
				succ.preds[i] = after.id
			}
		}
	}

	tailFirst := blk.fn.Instr(pos).next
	if tailFirst != blk.instrs.End() {
		f.Splice(after.id, after.instrs.End(), blk, tailFirst, blk.Last())
	}
	return blk, after
}

// migrateCalleeBlocks reallocates every block and instruction of
// callee into f's own arena, remapping every internal reference
// (phi-entry predecessors/values, terminator targets, Call args) as
// it goes. Returns two block remaps: one holding only the callee
// entry block's new id, and one for every other (non-entry) callee
// block.
func (f *Func) migrateCalleeBlocks(callee *Func) (entryRemap map[BlockID]BlockID, restRemap map[BlockID]BlockID) {
	blockRemap := make(map[BlockID]BlockID, len(callee.Blocks()))
	for _, bid := range callee.Blocks() {
		nb := f.AppendBB()
		blockRemap[bid] = nb.id
	}

	instRemap := make(map[InstructionID]InstructionID)
	for _, bid := range callee.Blocks() {
		oldBlk := callee.Block(bid)
		newBlk := f.Block(blockRemap[bid])
		oldBlk.Each(func(inst *Instruction) bool {
			clone := f.allocateInstruction()
			clone.op, clone.typ = inst.op, inst.typ
			clone.constVal, clone.binOp, clone.unaryOp = inst.constVal, inst.binOp, inst.unaryOp
			clone.paramIdx, clone.callee = inst.paramIdx, inst.callee
			clone.blk = newBlk.id
			newBlk.instrs.PushBack(clone.id)
			instRemap[inst.id] = clone.id
			return true
		})
	}

	remapVal := func(v Value) Value {
		if !v.Valid() {
			return v
		}
		if nv, ok := instRemap[InstructionID(v)]; ok {
			return Value(nv)
		}
		return v
	}
	remapBlk := func(b BlockID) BlockID {
		if nb, ok := blockRemap[b]; ok {
			return nb
		}
		return b
	}

	for _, bid := range callee.Blocks() {
		oldBlk := callee.Block(bid)
		oldBlk.Each(func(inst *Instruction) bool {
			clone := f.Instr(instRemap[inst.id])
			if len(inst.inputs) > 0 {
				clone.inputs = make([]Value, len(inst.inputs))
				for i, in := range inst.inputs {
					clone.inputs[i] = remapVal(in)
				}
			}
			if inst.op == OpPhi {
				clone.phiEntries = make([]PhiEntry, len(inst.phiEntries))
				for i, e := range inst.phiEntries {
					clone.phiEntries[i] = PhiEntry{Pred: remapBlk(e.Pred), Val: remapVal(e.Val)}
				}
			}
			switch inst.op {
			case OpIf:
				clone.trueBlk, clone.falseBlk = remapBlk(inst.trueBlk), remapBlk(inst.falseBlk)
			case OpJump:
				clone.jumpBlk = remapBlk(inst.jumpBlk)
			}
			for _, in := range clone.inputs {
				f.addUser(in, clone.id)
			}
			return true
		})

		newBlk := f.Block(blockRemap[bid])
		if len(oldBlk.preds) > 0 {
			newBlk.preds = make([]BlockID, len(oldBlk.preds))
			for i, p := range oldBlk.preds {
				newBlk.preds[i] = remapBlk(p)
			}
		}
		if len(oldBlk.succs) > 0 {
			newBlk.succs = make([]BlockID, len(oldBlk.succs))
			for i, s := range oldBlk.succs {
				newBlk.succs[i] = remapBlk(s)
			}
		}
	}

	restRemap = make(map[BlockID]BlockID, len(blockRemap)-1)
	for old, new := range blockRemap {
		if old != callee.EntryID() {
			restRemap[old] = new
		}
	}
	return map[BlockID]BlockID{callee.EntryID(): blockRemap[callee.EntryID()]}, restRemap
}

// wireParams implements spec section 4.11 step 3: every migrated Param
// in the callee's entry block is replaced by the corresponding
// argument value, then erased.
func wireParams(f *Func, callee *Func, entryRemap map[BlockID]BlockID, args []Value) {
	entryBlk := f.Block(entryRemap[callee.EntryID()])
	var params []*Instruction
	entryBlk.Each(func(inst *Instruction) bool {
		if inst.op == OpParam {
			params = append(params, inst)
		}
		return true
	})
	for _, p := range params {
		f.Replace(Value(p.id), args[p.paramIdx])
		f.Erase(p)
	}
}

// wireReturns implements spec section 4.11 step 4. Every migrated Ret
// becomes a Jump to after; if the callee returns a value, either the
// sole Ret's operand is used directly (single-exit case) or a Phi is
// inserted at after's head with one entry per returning block
// (multi-exit case). Returns the value the Call's own users should be
// migrated to, or InvalidValue if the callee returns nothing.
func wireReturns(f *Func, callee *Func, entryRemap, restRemap map[BlockID]BlockID, afterID BlockID) Value {
	allRemap := make(map[BlockID]BlockID, len(entryRemap)+len(restRemap))
	for k, v := range entryRemap {
		allRemap[k] = v
	}
	for k, v := range restRemap {
		allRemap[k] = v
	}

	type ret struct {
		blk BlockID
		val Value
	}
	var rets []ret
	for _, oldBid := range callee.Blocks() {
		blk := f.Block(allRemap[oldBid])
		var retInst *Instruction
		blk.Each(func(inst *Instruction) bool {
			if inst.op == OpRet {
				retInst = inst
			}
			return true
		})
		if retInst == nil {
			continue
		}
		var val Value
		if len(retInst.inputs) > 0 {
			val = retInst.inputs[0]
			f.removeUser(val, retInst.id)
		}
		rets = append(rets, ret{blk: blk.id, val: val})

		retInst.op, retInst.typ = OpJump, TypeNone
		retInst.inputs, retInst.jumpBlk = nil, afterID
		f.LinkSucc(blk.id, afterID)
	}

	after := f.Block(afterID)
	if callee.RetTy == TypeNone {
		return InvalidValue
	}
	if len(rets) == 1 {
		return rets[0].val
	}

	entries := make([]PhiEntry, len(rets))
	for i, r := range rets {
		entries[i] = PhiEntry{Pred: r.blk, Val: r.val}
	}
	phi := after.fn.allocateInstruction()
	phi.op, phi.typ = OpPhi, callee.RetTy
	phi.blk = after.id
	phi.phiEntries = entries
	phi.inputs = make([]Value, len(entries))
	for i, e := range entries {
		phi.inputs[i] = e.Val
		f.addUser(e.Val, phi.id)
	}
	pos := after.firstNonPhi()
	after.instrs.InsertBefore(pos, phi.id)
	return Value(phi.id)
}

