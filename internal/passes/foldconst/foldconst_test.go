package foldconst_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loopjit/ssacore/internal/ir"
	"github.com/loopjit/ssacore/internal/passes/foldconst"
	"github.com/loopjit/ssacore/internal/ssaerr"
)

func TestRun_AddSimple(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI64, nil)
	bb := fn.AppendBB()
	lhs := bb.PushConst(ir.TypeI64, 32)
	rhs := bb.PushConst(ir.TypeI64, 10)
	add := bb.PushBinOp(ir.BinOpAdd, ir.Value(lhs.ID()), ir.Value(rhs.ID()))
	bb.PushRet(ir.Value(add.ID()))

	require.NoError(t, foldconst.Run(fn))

	var ops []ir.Op
	var last *ir.Instruction
	var folded42 *ir.Instruction
	bb.Each(func(inst *ir.Instruction) bool {
		ops = append(ops, inst.Op())
		last = inst
		if inst.Op() == ir.OpConst && inst.ConstValue() == 42 {
			folded42 = inst
		}
		return true
	})
	require.Equal(t, []ir.Op{ir.OpConst, ir.OpConst, ir.OpConst, ir.OpRet}, ops)
	require.NotNil(t, folded42, "folded Const(42) should be present")
	require.Equal(t, ir.TypeI64, folded42.Type())
	require.Equal(t, ir.Value(folded42.ID()), last.Inputs()[0])
}

func TestRun_ShrAndOr(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI64, nil)
	bb := fn.AppendBB()
	l1 := bb.PushConst(ir.TypeI64, 32)
	r1 := bb.PushConst(ir.TypeI64, 2)
	shr := bb.PushBinOp(ir.BinOpShr, ir.Value(l1.ID()), ir.Value(r1.ID()))
	l2 := bb.PushConst(ir.TypeI64, 32)
	r2 := bb.PushConst(ir.TypeI64, 2)
	or := bb.PushBinOp(ir.BinOpOr, ir.Value(l2.ID()), ir.Value(r2.ID()))
	bb.PushRet(ir.Value(or.ID()))

	require.NoError(t, foldconst.Run(fn))

	shrInst := fn.Instr(ir.InstructionID(shr.ID()))
	require.True(t, shrInst.Erased())
	orInst := fn.Instr(ir.InstructionID(or.ID()))
	require.True(t, orInst.Erased())

	var foldedVals []uint64
	bb.Each(func(inst *ir.Instruction) bool {
		if inst.Op() == ir.OpConst {
			foldedVals = append(foldedVals, inst.ConstValue())
		}
		return true
	})
	require.Contains(t, foldedVals, uint64(8))
	require.Contains(t, foldedVals, uint64(34))
}

func TestRun_ShrOutOfRangeIsArithmeticError(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI8, nil)
	bb := fn.AppendBB()
	val := bb.PushConst(ir.TypeI8, 10)
	amt := bb.PushConst(ir.TypeI8, 8)
	shr := bb.PushBinOp(ir.BinOpShr, ir.Value(val.ID()), ir.Value(amt.ID()))
	bb.PushRet(ir.Value(shr.ID()))

	err := foldconst.Run(fn)
	require.Error(t, err)
	var arithErr *ssaerr.ArithmeticError
	require.ErrorAs(t, err, &arithErr)
	require.False(t, fn.Instr(ir.InstructionID(shr.ID())).Erased())
}

func TestRun_ShrNegativeAmountIsArithmeticError(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI8, nil)
	bb := fn.AppendBB()
	val := bb.PushConst(ir.TypeI8, 10)
	amt := bb.PushConst(ir.TypeI8, 0xFF) // -1 as a signed I8
	shr := bb.PushBinOp(ir.BinOpShr, ir.Value(val.ID()), ir.Value(amt.ID()))
	bb.PushRet(ir.Value(shr.ID()))

	err := foldconst.Run(fn)
	require.Error(t, err)
	var arithErr *ssaerr.ArithmeticError
	require.ErrorAs(t, err, &arithErr)
}

func TestRun_DivAndBoundsCheckNeverFold(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI64, nil)
	bb := fn.AppendBB()
	l := bb.PushConst(ir.TypeI64, 10)
	r := bb.PushConst(ir.TypeI64, 2)
	div := bb.PushBinOp(ir.BinOpDiv, ir.Value(l.ID()), ir.Value(r.ID()))
	bb.PushRet(ir.Value(div.ID()))

	require.NoError(t, foldconst.Run(fn))
	require.False(t, fn.Instr(ir.InstructionID(div.ID())).Erased())
}
