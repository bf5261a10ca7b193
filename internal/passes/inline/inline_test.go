package inline_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loopjit/ssacore/internal/cfg"
	"github.com/loopjit/ssacore/internal/ir"
	"github.com/loopjit/ssacore/internal/passes/inline"
)

// buildCallee builds: returns v0*1 if v0==v1, else v1-1 — scenario
// S8's callee, three blocks (entry, true-exit, false-exit), two Rets.
func buildCallee(t *testing.T) *ir.Func {
	fn := ir.NewFunction("callee", ir.TypeI64, []ir.Type{ir.TypeI64, ir.TypeI64})
	entry := fn.AppendBB()
	v0 := entry.PushParam(0, ir.TypeI64)
	v1 := entry.PushParam(1, ir.TypeI64)
	cond := entry.PushBinOp(ir.BinOpEQ, ir.Value(v0.ID()), ir.Value(v1.ID()))

	trueBlk := fn.AppendBB()
	falseBlk := fn.AppendBB()
	entry.PushIf(ir.Value(cond.ID()), trueBlk.ID(), falseBlk.ID())

	one := trueBlk.PushConst(ir.TypeI64, 1)
	mul := trueBlk.PushBinOp(ir.BinOpMul, ir.Value(v0.ID()), ir.Value(one.ID()))
	trueBlk.PushRet(ir.Value(mul.ID()))

	oneF := falseBlk.PushConst(ir.TypeI64, 1)
	sub := falseBlk.PushBinOp(ir.BinOpSub, ir.Value(v1.ID()), ir.Value(oneF.ID()))
	falseBlk.PushRet(ir.Value(sub.ID()))

	return fn
}

// buildCaller reproduces scenario S8's caller shape: entry block with
// two consts and a jump, a second block computing v2, calling callee,
// multiplying the result by 5, then returning. Returns the caller and
// the id of the Call instruction to inline.
func buildCaller(t *testing.T, callee *ir.Func) (*ir.Func, ir.InstructionID) {
	fn := ir.NewFunction("caller", ir.TypeI64, nil)
	entry := fn.AppendBB()
	one := entry.PushConst(ir.TypeI64, 1)
	five := entry.PushConst(ir.TypeI64, 5)

	body := fn.AppendBB()
	entry.PushJump(body.ID())

	v2 := body.PushBinOp(ir.BinOpAdd, ir.Value(one.ID()), ir.Value(one.ID()))
	call := body.PushCall(callee, []ir.Value{ir.Value(v2.ID()), ir.Value(one.ID())})
	v3 := body.PushBinOp(ir.BinOpMul, ir.Value(call.ID()), ir.Value(five.ID()))
	body.PushRet(ir.Value(v3.ID()))

	return fn, call.ID()
}

func TestRun_S8_SixBlocksPhiMergesCalleeExits(t *testing.T) {
	callee := buildCallee(t)
	fn, callID := buildCaller(t, callee)

	require.NoError(t, inline.Run(fn))

	order := cfg.ReversePostorder(fn).RPO
	require.Len(t, order, 6, "caller-entry, pre, callee-entry, true, false, after")

	call := fn.Instr(callID)
	require.True(t, call.Erased())

	// The pre block (body, post-split) now ends in a Jump straight into
	// the migrated callee entry block, not a graft of its contents.
	preID := order[1]
	pre := fn.Block(preID)
	term := pre.Terminator()
	require.Equal(t, ir.OpJump, term.Op())

	entryID := term.JumpTarget()
	entry := fn.Block(entryID)
	var ifInst *ir.Instruction
	entry.Each(func(inst *ir.Instruction) bool {
		if inst.Op() == ir.OpIf {
			ifInst = inst
		}
		return true
	})
	require.NotNil(t, ifInst, "migrated callee entry should still end in its If")

	// Both callee exits jump to one shared after block whose head is a
	// Phi merging the two returned values, feeding the caller's Mul.
	trueID, falseID := ifInst.IfTargets()
	trueTerm := fn.Block(trueID).Terminator()
	falseTerm := fn.Block(falseID).Terminator()
	require.Equal(t, ir.OpJump, trueTerm.Op())
	require.Equal(t, ir.OpJump, falseTerm.Op())
	afterID := trueTerm.JumpTarget()
	require.Equal(t, afterID, falseTerm.JumpTarget())

	after := fn.Block(afterID)
	phi := fn.Instr(after.First())
	require.Equal(t, ir.OpPhi, phi.Op())

	var mul *ir.Instruction
	after.Each(func(inst *ir.Instruction) bool {
		if inst.Op() == ir.OpBinOp && inst.BinOpKind() == ir.BinOpMul {
			mul = inst
		}
		return true
	})
	require.NotNil(t, mul)
	require.Equal(t, ir.Value(phi.ID()), mul.Inputs()[0])
}

func TestRun_ArityMismatchIsAggregatedAndLeavesCallUninlined(t *testing.T) {
	callee := buildCallee(t)
	fn := ir.NewFunction("caller", ir.TypeI64, nil)
	bb := fn.AppendBB()
	one := bb.PushConst(ir.TypeI64, 1)
	call := bb.PushCall(callee, []ir.Value{ir.Value(one.ID())})
	bb.PushRet(ir.Value(call.ID()))

	err := inline.Run(fn)
	require.Error(t, err)
	require.False(t, fn.Instr(call.ID()).Erased())
}
