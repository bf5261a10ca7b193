package checkelim_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loopjit/ssacore/internal/domtree"
	"github.com/loopjit/ssacore/internal/ir"
	"github.com/loopjit/ssacore/internal/passes/checkelim"
)

func TestRun_SameBlockRedundantZeroCheck(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI64, nil)
	bb := fn.AppendBB()
	v := bb.PushConst(ir.TypeI64, 5)
	first := bb.PushUnaryOp(ir.UnaryOpZeroCheck, ir.Value(v.ID()))
	second := bb.PushUnaryOp(ir.UnaryOpZeroCheck, ir.Value(v.ID()))
	bb.PushRet(ir.InvalidValue)

	tree := domtree.Build(fn)
	checkelim.Run(fn, tree)

	require.False(t, fn.Instr(ir.InstructionID(first.ID())).Erased())
	require.True(t, fn.Instr(ir.InstructionID(second.ID())).Erased())
}

func TestRun_DominatingBlockRedundantBoundsCheck(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI64, nil)
	entry := fn.AppendBB()
	body := fn.AppendBB()

	idx := entry.PushConst(ir.TypeI64, 3)
	bound := entry.PushConst(ir.TypeI64, 10)
	first := entry.PushBinOp(ir.BinOpBoundsCheck, ir.Value(idx.ID()), ir.Value(bound.ID()))
	entry.PushJump(body.ID())

	second := body.PushBinOp(ir.BinOpBoundsCheck, ir.Value(idx.ID()), ir.Value(bound.ID()))
	body.PushRet(ir.InvalidValue)

	tree := domtree.Build(fn)
	checkelim.Run(fn, tree)

	require.False(t, fn.Instr(ir.InstructionID(first.ID())).Erased())
	require.True(t, fn.Instr(ir.InstructionID(second.ID())).Erased())
}

func TestRun_DifferentBoundNotRedundant(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI64, nil)
	bb := fn.AppendBB()
	idx := bb.PushConst(ir.TypeI64, 3)
	bound1 := bb.PushConst(ir.TypeI64, 10)
	bound2 := bb.PushConst(ir.TypeI64, 20)
	first := bb.PushBinOp(ir.BinOpBoundsCheck, ir.Value(idx.ID()), ir.Value(bound1.ID()))
	second := bb.PushBinOp(ir.BinOpBoundsCheck, ir.Value(idx.ID()), ir.Value(bound2.ID()))
	bb.PushRet(ir.InvalidValue)

	tree := domtree.Build(fn)
	checkelim.Run(fn, tree)

	require.False(t, fn.Instr(ir.InstructionID(first.ID())).Erased())
	require.False(t, fn.Instr(ir.InstructionID(second.ID())).Erased())
}

func TestRun_SiblingBlocksNeitherDominates(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI64, nil)
	entry := fn.AppendBB()
	left := fn.AppendBB()
	right := fn.AppendBB()
	join := fn.AppendBB()

	v := entry.PushConst(ir.TypeI64, 5)
	cond := entry.PushBinOp(ir.BinOpEQ, ir.Value(v.ID()), ir.Value(v.ID()))
	entry.PushIf(ir.Value(cond.ID()), left.ID(), right.ID())

	leftCheck := left.PushUnaryOp(ir.UnaryOpZeroCheck, ir.Value(v.ID()))
	left.PushJump(join.ID())
	rightCheck := right.PushUnaryOp(ir.UnaryOpZeroCheck, ir.Value(v.ID()))
	right.PushJump(join.ID())

	join.PushRet(ir.InvalidValue)

	tree := domtree.Build(fn)
	checkelim.Run(fn, tree)

	require.False(t, fn.Instr(ir.InstructionID(leftCheck.ID())).Erased())
	require.False(t, fn.Instr(ir.InstructionID(rightCheck.ID())).Erased())
}
