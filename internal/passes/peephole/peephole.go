// Package peephole implements spec section 4.9: local algebraic
// simplifications driven by use-def, needing no global analysis.
//
// Grounded on internal/passes/foldconst's own shape (RPO candidate
// collection, Replace-then-Erase rewrite) generalized to patterns that
// span two instructions (Shr-of-Shr) rather than folding a single one.
package peephole

import (
	"github.com/loopjit/ssacore/internal/cfg"
	"github.com/loopjit/ssacore/internal/ir"
)

// Run applies every covered pattern once per candidate, processing
// blocks in RPO and instructions forward within a block (spec section
// 4.9: "processes blocks in RPO and instructions forward").
func Run(fn *ir.Func) {
	order := cfg.ReversePostorder(fn).RPO
	for _, bid := range order {
		var ids []ir.InstructionID
		fn.Block(bid).Each(func(inst *ir.Instruction) bool {
			ids = append(ids, inst.ID())
			return true
		})
		for _, id := range ids {
			inst := fn.Instr(id)
			if inst.Erased() || inst.Op() != ir.OpBinOp {
				continue
			}
			normalizeCommutative(fn, inst)
			rewrite(fn, inst)
		}
	}
}

// normalizeCommutative puts a constant operand on the right for the
// commutative operators this pass matches on (spec section 4.9:
// "operand normalization puts constants on the right where
// commutative: Add, Or"). When both operands are constants, a pattern
// constant (0, or all-ones for Or) on the left is moved to the right
// so the rewrites below still match it.
func normalizeCommutative(fn *ir.Func, inst *ir.Instruction) {
	switch inst.BinOpKind() {
	case ir.BinOpAdd, ir.BinOpOr:
	default:
		return
	}
	in := inst.Inputs()
	if !isConst(fn, in[0]) {
		return
	}
	if !isConst(fn, in[1]) {
		fn.SwapInputs(inst, 0, 1)
		return
	}
	pattern := func(v ir.Value) bool {
		return isConstVal(fn, v, 0) ||
			inst.BinOpKind() == ir.BinOpOr && isConstVal(fn, v, allOnesMask(fn.TypeOf(v).Bits()))
	}
	if pattern(in[0]) && !pattern(in[1]) {
		fn.SwapInputs(inst, 0, 1)
	}
}

func rewrite(fn *ir.Func, inst *ir.Instruction) {
	switch inst.BinOpKind() {
	case ir.BinOpAdd:
		rewriteAddZero(fn, inst)
	case ir.BinOpShr:
		if rewriteShrZero(fn, inst) {
			return
		}
		rewriteShrOfShr(fn, inst)
	case ir.BinOpOr:
		rewriteOrZero(fn, inst)
		rewriteOrAllOnes(fn, inst)
	}
}

// rewriteAddZero folds `Add x, 0 → x`.
func rewriteAddZero(fn *ir.Func, inst *ir.Instruction) {
	in := inst.Inputs()
	if isConstVal(fn, in[1], 0) {
		replaceWith(fn, inst, in[0])
	}
}

// rewriteShrZero folds `Shr x, 0 → x`.
func rewriteShrZero(fn *ir.Func, inst *ir.Instruction) bool {
	in := inst.Inputs()
	if isConstVal(fn, in[1], 0) {
		replaceWith(fn, inst, in[0])
		return true
	}
	return false
}

// rewriteShrOfShr folds `Shr (Shr x, c1), c2 → Shr x, (Add c1, c2)`,
// only when the inner Shr has exactly one user (itself): widening the
// shift amount past the inner Shr's single consumer is safe, but if
// anything else still reads the intermediate result, the inner Shr
// must stay alive and the fold does not apply.
func rewriteShrOfShr(fn *ir.Func, outer *ir.Instruction) {
	in := outer.Inputs()
	inner := fn.Instr(ir.InstructionID(in[0]))
	if inner.Op() != ir.OpBinOp || inner.BinOpKind() != ir.BinOpShr {
		return
	}
	if len(inner.Users()) != 1 {
		return
	}
	innerIn := inner.Inputs()
	x, c1, c2 := innerIn[0], innerIn[1], in[1]

	// PushBinOp only appends to an unterminated block: park the
	// terminator at the block's head while the Add and Shr are
	// appended, then move them in front of outer and the terminator
	// back to the tail.
	blk := fn.Block(outer.Block())
	term := blk.Terminator()
	if term != nil {
		fn.Splice(blk.ID(), blk.First(), blk, term.ID(), term.ID())
	}
	add := blk.PushBinOp(ir.BinOpAdd, c1, c2)
	shr := blk.PushBinOp(ir.BinOpShr, x, ir.Value(add.ID()))
	fn.Splice(blk.ID(), outer.ID(), blk, add.ID(), shr.ID())
	if term != nil {
		fn.Splice(blk.ID(), blk.End(), blk, term.ID(), term.ID())
	}

	replaceWith(fn, outer, ir.Value(shr.ID()))
	fn.Erase(inner)
}

// rewriteOrZero folds `Or x, 0 → x`.
func rewriteOrZero(fn *ir.Func, inst *ir.Instruction) {
	if inst.Erased() {
		return
	}
	in := inst.Inputs()
	if isConstVal(fn, in[1], 0) {
		replaceWith(fn, inst, in[0])
	}
}

// rewriteOrAllOnes folds `Or x, -1 → -1` (all-ones of the operand
// type).
func rewriteOrAllOnes(fn *ir.Func, inst *ir.Instruction) {
	if inst.Erased() {
		return
	}
	in := inst.Inputs()
	bits := fn.TypeOf(in[0]).Bits()
	allOnes := allOnesMask(bits)
	if isConstVal(fn, in[1], allOnes) {
		blk := fn.Block(inst.Block())
		replacement := blk.PushConstBefore(inst.ID(), inst.Type(), allOnes)
		replaceWith(fn, inst, ir.Value(replacement.ID()))
	}
}

// replaceWith migrates inst's users to repl, then erases inst: spec
// section 4.9's "migrate users of the folded instruction to its
// replacement value, then remove the now-dead instruction".
func replaceWith(fn *ir.Func, inst *ir.Instruction, repl ir.Value) {
	fn.Replace(ir.Value(inst.ID()), repl)
	fn.Erase(inst)
}

func isConst(fn *ir.Func, v ir.Value) bool {
	return v.Valid() && fn.Instr(ir.InstructionID(v)).Op() == ir.OpConst
}

func isConstVal(fn *ir.Func, v ir.Value, want uint64) bool {
	if !isConst(fn, v) {
		return false
	}
	inst := fn.Instr(ir.InstructionID(v))
	return maskToBits(inst.ConstValue(), inst.Type().Bits()) == maskToBits(want, inst.Type().Bits())
}

func allOnesMask(bits int) uint64 {
	if bits <= 0 || bits >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<uint(bits) - 1
}

func maskToBits(v uint64, bits int) uint64 {
	if bits <= 0 || bits >= 64 {
		return v
	}
	return v & (uint64(1)<<uint(bits) - 1)
}
