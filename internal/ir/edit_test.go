package ir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loopjit/ssacore/internal/ir"
)

func TestReplace_RewritesUsersAndPhiEntries(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI32, nil)
	entry := fn.AppendBB()
	thenBlk := fn.AppendBB()
	elseBlk := fn.AppendBB()
	join := fn.AppendBB()

	cond := entry.PushConst(ir.TypeI1, 1)
	entry.PushIf(ir.Value(cond.ID()), thenBlk.ID(), elseBlk.ID())

	oldConst := thenBlk.PushConst(ir.TypeI32, 1)
	replacement := thenBlk.PushConst(ir.TypeI32, 42)
	thenBlk.PushJump(join.ID())

	two := elseBlk.PushConst(ir.TypeI32, 2)
	elseBlk.PushJump(join.ID())

	phi := join.PushPhi(ir.TypeI32, []ir.PhiEntry{
		{Pred: thenBlk.ID(), Val: ir.Value(oldConst.ID())},
		{Pred: elseBlk.ID(), Val: ir.Value(two.ID())},
	})
	join.PushRet(ir.Value(phi.ID()))

	fn.Replace(ir.Value(oldConst.ID()), ir.Value(replacement.ID()))

	found := false
	for _, e := range phi.PhiEntries() {
		if e.Pred == thenBlk.ID() {
			require.Equal(t, ir.Value(replacement.ID()), e.Val)
			found = true
		}
	}
	require.True(t, found)
	require.Empty(t, oldConst.Users())
}

func TestErase_PanicsWithLiveUsers(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI32, nil)
	entry := fn.AppendBB()
	a := entry.PushConst(ir.TypeI32, 1)
	b := entry.PushConst(ir.TypeI32, 2)
	entry.PushBinOp(ir.BinOpAdd, ir.Value(a.ID()), ir.Value(b.ID()))

	require.Panics(t, func() {
		fn.Erase(a)
	})
}

func TestErase_RemovesFromBlockAndClearsBackrefs(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI32, nil)
	entry := fn.AppendBB()
	a := entry.PushConst(ir.TypeI32, 1)
	b := entry.PushConst(ir.TypeI32, 2)
	dead := entry.PushConst(ir.TypeI32, 99) // never consumed
	sum := entry.PushBinOp(ir.BinOpAdd, ir.Value(a.ID()), ir.Value(b.ID()))
	entry.PushRet(ir.Value(sum.ID()))

	fn.Erase(dead)
	require.True(t, dead.Erased())

	count := 0
	entry.Each(func(inst *ir.Instruction) bool {
		require.NotEqual(t, dead.ID(), inst.ID())
		count++
		return true
	})
	require.Equal(t, 4, count) // a, b, sum, ret — dead removed
}

func TestSwapInputs(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI32, nil)
	entry := fn.AppendBB()
	a := entry.PushConst(ir.TypeI32, 1)
	b := entry.PushConst(ir.TypeI32, 2)
	add := entry.PushBinOp(ir.BinOpAdd, ir.Value(a.ID()), ir.Value(b.ID()))

	fn.SwapInputs(add, 0, 1)
	require.Equal(t, ir.Value(b.ID()), add.Inputs()[0])
	require.Equal(t, ir.Value(a.ID()), add.Inputs()[1])
}
