package irtext_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loopjit/ssacore/internal/ir"
	"github.com/loopjit/ssacore/internal/irtext"
)

func TestParse_DumpRoundTrip_Straightline(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI64, nil)
	bb := fn.AppendBB()
	lhs := bb.PushConst(ir.TypeI64, 32)
	rhs := bb.PushConst(ir.TypeI64, 10)
	add := bb.PushBinOp(ir.BinOpAdd, ir.Value(lhs.ID()), ir.Value(rhs.ID()))
	bb.PushRet(ir.Value(add.ID()))

	text := irtext.Dump(fn)

	parsed, err := irtext.Parse(strings.NewReader(text))
	require.NoError(t, err)
	require.Equal(t, text, irtext.Dump(parsed))
}

func TestParse_DumpRoundTrip_Branches(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI64, []ir.Type{ir.TypeI64})
	entry := fn.AppendBB()
	left := fn.AppendBB()
	right := fn.AppendBB()
	join := fn.AppendBB()

	p := entry.PushParam(0, ir.TypeI64)
	zero := entry.PushConst(ir.TypeI64, 0)
	cond := entry.PushBinOp(ir.BinOpEQ, ir.Value(p.ID()), ir.Value(zero.ID()))
	entry.PushIf(ir.Value(cond.ID()), left.ID(), right.ID())

	one := left.PushConst(ir.TypeI64, 1)
	left.PushJump(join.ID())

	two := right.PushConst(ir.TypeI64, 2)
	right.PushJump(join.ID())

	phi := join.PushPhi(ir.TypeI64, []ir.PhiEntry{
		{Pred: left.ID(), Val: ir.Value(one.ID())},
		{Pred: right.ID(), Val: ir.Value(two.ID())},
	})
	join.PushRet(ir.Value(phi.ID()))

	text := irtext.Dump(fn)

	parsed, err := irtext.Parse(strings.NewReader(text))
	require.NoError(t, err)
	require.Equal(t, text, irtext.Dump(parsed))
}

func TestParseProgram_ResolvesCallAcrossFunctions(t *testing.T) {
	program := `
func callee(i64) i64 {
block0:
  v0 = param.i64 0
  v1 = const.i64 1
  v2 = binop.i64 add v0, v1
  ret v2
}

func caller() i64 {
block0:
  v0 = const.i64 41
  v1 = call.i64 callee(v0)
  ret v1
}
`
	funcs, order, err := irtext.ParseProgram(strings.NewReader(program))
	require.NoError(t, err)
	require.Equal(t, []string{"callee", "caller"}, order)

	caller := funcs["caller"]
	require.NotNil(t, caller)

	var call *ir.Instruction
	caller.Block(caller.EntryID()).Each(func(inst *ir.Instruction) bool {
		if inst.Op() == ir.OpCall {
			call = inst
		}
		return true
	})
	require.NotNil(t, call)
	require.Equal(t, funcs["callee"], call.Callee())
}

func TestDOT_ListsBlocksAndEdges(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI64, nil)
	entry := fn.AppendBB()
	body := fn.AppendBB()
	c := entry.PushConst(ir.TypeI64, 1)
	entry.PushJump(body.ID())
	body.PushRet(ir.Value(c.ID()))

	dot := irtext.DOT(fn)
	require.True(t, strings.HasPrefix(dot, "digraph f {"))
	require.Contains(t, dot, "block0 -> block1;")
	require.Contains(t, dot, "const.i64 1")
}
