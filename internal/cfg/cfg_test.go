package cfg_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loopjit/ssacore/internal/cfg"
	"github.com/loopjit/ssacore/internal/ir"
)

// buildLoop builds a single natural loop:
//
//	entry -> header -> body -> header (back edge)
//	header -> exit
func buildLoop(t *testing.T) (*ir.Func, ir.BlockID, ir.BlockID, ir.BlockID, ir.BlockID) {
	t.Helper()
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

	return fn, entry.ID(), header.ID(), body.ID(), exit.ID()
}

func TestWalk_ReversePostorderIsTopological(t *testing.T) {
	fn, entryID, headerID, bodyID, exitID := buildLoop(t)
	order := cfg.Walk(fn, nil)

	require.Equal(t, entryID, order.RPO[0])
	require.Less(t, order.Index[entryID], order.Index[headerID])
	require.Less(t, order.Index[headerID], order.Index[bodyID])
	require.Less(t, order.Index[headerID], order.Index[exitID])
}

func TestWalk_DetectsBackEdge(t *testing.T) {
	fn, _, headerID, bodyID, _ := buildLoop(t)

	var backEdges [][2]ir.BlockID
	cfg.Walk(fn, func(from, to ir.BlockID) {
		backEdges = append(backEdges, [2]ir.BlockID{from, to})
	})

	require.Len(t, backEdges, 1)
	require.Equal(t, bodyID, backEdges[0][0])
	require.Equal(t, headerID, backEdges[0][1])
}

func TestWalk_UnreachableBlockOmitted(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeNone, nil)
	entry := fn.AppendBB()
	entry.PushRet(ir.InvalidValue)
	unreachable := fn.AppendBB()
	unreachable.PushRet(ir.InvalidValue)

	order := cfg.Walk(fn, nil)
	require.Equal(t, -1, order.Index[unreachable.ID()])
	require.NotContains(t, order.RPO, unreachable.ID())
}
