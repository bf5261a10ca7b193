package linorder_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loopjit/ssacore/internal/domtree"
	"github.com/loopjit/ssacore/internal/ir"
	"github.com/loopjit/ssacore/internal/linorder"
	"github.com/loopjit/ssacore/internal/loops"
)

func TestBuild_LoopBodyIsContiguous(t *testing.T) {
	fn := ir.NewFunction("loop", ir.TypeNone, nil)
	entry := fn.AppendBB()
	header := fn.AppendBB()
	body := fn.AppendBB()
	exit := fn.AppendBB()

	entry.PushJump(header.ID())
	cond := header.PushConst(ir.TypeI1, 1)
	header.PushIf(ir.Value(cond.ID()), body.ID(), exit.ID())
	body.PushJump(header.ID())
	exit.PushRet(ir.InvalidValue)

	tree := domtree.Build(fn)
	forest := loops.Build(fn, tree)
	order := linorder.Build(fn, forest)

	require.Len(t, order.Blocks, 4)
	require.Equal(t, entry.ID(), order.Blocks[0])
	require.Equal(t, header.ID(), order.Blocks[1])
	require.Equal(t, body.ID(), order.Blocks[2])
	require.Equal(t, exit.ID(), order.Blocks[3])
	require.Less(t, order.Index[header.ID()], order.Index[body.ID()])
}

// buildSpecExample1 reproduces the original analysis test suite's
// "example1" graph verbatim (original_source's
// test/unit/graph/graph_test_builder.hh buildExample1): 7 blocks,
// edges 0->1, 1->2, 1->5, 2->3, 5->4, 5->6, 4->3, 6->3. It is a DAG:
// no back edges, so its linear order is plain reverse postorder.
func buildSpecExample1(t *testing.T) (*ir.Func, [7]ir.BlockID) {
	t.Helper()
	fn := ir.NewFunction("example1", ir.TypeNone, nil)
	var b [7]*ir.Block
	for i := range b {
		b[i] = fn.AppendBB()
	}

	b[0].PushJump(b[1].ID())
	cond1 := b[1].PushConst(ir.TypeI1, 1)
	b[1].PushIf(ir.Value(cond1.ID()), b[5].ID(), b[2].ID())
	b[2].PushJump(b[3].ID())
	cond5 := b[5].PushConst(ir.TypeI1, 1)
	b[5].PushIf(ir.Value(cond5.ID()), b[6].ID(), b[4].ID())
	b[4].PushJump(b[3].ID())
	b[6].PushJump(b[3].ID())
	b[3].PushRet(ir.InvalidValue)

	var ids [7]ir.BlockID
	for i, blk := range b {
		ids[i] = blk.ID()
	}
	return fn, ids
}

func TestBuild_SpecExample1LinearOrder(t *testing.T) {
	fn, b := buildSpecExample1(t)
	tree := domtree.Build(fn)
	forest := loops.Build(fn, tree)
	order := linorder.Build(fn, forest)

	require.Equal(t, []ir.BlockID{b[0], b[1], b[2], b[5], b[4], b[6], b[3]}, order.Blocks)
}

func TestBuild_NoLoopsIsPlainRPO(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeNone, nil)
	a := fn.AppendBB()
	b := fn.AppendBB()
	a.PushJump(b.ID())
	b.PushRet(ir.InvalidValue)

	tree := domtree.Build(fn)
	forest := loops.Build(fn, tree)
	order := linorder.Build(fn, forest)

	require.Equal(t, []ir.BlockID{a.ID(), b.ID()}, order.Blocks)
}
