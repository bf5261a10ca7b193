package ir

import "github.com/loopjit/ssacore/internal/ssaerr"

// This file implements the IR editing API of spec section 6: replace,
// erase, swap_inputs, splice. Grounded on the teacher's
// ssa.Instruction.Insert / alive-set bookkeeping
// (internal/_teacherref/ssa/instructions.go) but generalized: the
// teacher never deletes instructions in place (it rebuilds), whereas
// the spec requires O(1) Erase with live users() bookkeeping.

// Replace rewrites every use of old's produced value to use new's
// instead, updating both instructions' users sets. old is left in
// place (still linked into its block) but with no remaining users;
// callers that also want it physically removed should follow with
// Erase(old). This two-step split mirrors spec section 6's
// replace/erase being distinct primitives: replace never risks
// invalidating an iterator over a block's instruction list, Erase
// always might.
func (f *Func) Replace(old, new Value) {
	if !old.Valid() {
		ssaerr.Fatal("ir.Replace", "old value is invalid")
	}
	oldInst := f.Instr(InstructionID(old))
	// Snapshot first per spec section 9's iterator-invalidation
	// caution: the loop body deletes from oldInst.users as it goes.
	users := oldInst.Users()
	for _, uid := range users {
		user := f.Instr(uid)
		for i, in := range user.inputs {
			if in == old {
				user.inputs[i] = new
			}
		}
		// Phi entries duplicate the value in phiEntries[i].Val; keep
		// them in lockstep with inputs.
		if user.op == OpPhi {
			for i := range user.phiEntries {
				if user.phiEntries[i].Val == old {
					user.phiEntries[i].Val = new
				}
			}
		}
		f.addUser(new, uid)
		delete(oldInst.users, uid)
	}
}

// Erase removes inst from its owning block's instruction list and
// drops its back-reference from every operand's users set. It is a
// programmer-bug (fatal) to Erase an instruction that still has
// users: callers must Replace first (spec section 7: "erasing an
// instruction that still has recorded users").
func (f *Func) Erase(inst *Instruction) {
	if inst.erased {
		ssaerr.Fatalf("ir.Erase", "instruction v%d already erased", inst.id)
	}
	if len(inst.users) != 0 {
		ssaerr.Fatalf("ir.Erase", "instruction v%d still has %d user(s)", inst.id, len(inst.users))
	}
	for _, in := range inst.inputs {
		f.removeUser(in, inst.id)
	}
	blk := f.Block(inst.blk)
	blk.instrs.Remove(inst.id)
	inst.erased = true
}

// SwapInputs exchanges the operands at positions i and j of inst.
// Used by peephole to canonicalize commutative BinOps before pattern
// matching.
func (f *Func) SwapInputs(inst *Instruction, i, j int) {
	if i < 0 || j < 0 || i >= len(inst.inputs) || j >= len(inst.inputs) {
		ssaerr.Fatalf("ir.SwapInputs", "index out of range for v%d", inst.id)
	}
	inst.inputs[i], inst.inputs[j] = inst.inputs[j], inst.inputs[i]
	if inst.op == OpPhi {
		inst.phiEntries[i].Val, inst.phiEntries[j].Val = inst.phiEntries[j].Val, inst.phiEntries[i].Val
	}
}

// Splice moves the contiguous instruction run [first, last] (in src's
// current order) out of src and into dst, immediately before pos.
// Only instruction placement changes: block successor/predecessor
// edges are left as they were, even when the moved run carries a
// terminator, so a caller that moves one updates the edges itself
// (splitAfter in inline.go does). Grounded on internal/intrusive's
// O(1) SpliceRange.
func (f *Func) Splice(dstID BlockID, pos InstructionID, src *Block, first, last InstructionID) {
	dst := f.Block(dstID)
	for h := first; ; {
		inst := f.Instr(h)
		inst.blk = dstID
		if h == last {
			break
		}
		h = inst.next
	}
	dst.instrs.SpliceRange(pos, src.instrs, first, last)
}
