// Package foldconst implements spec section 4.8: replace every
// BinOp/Cast whose operands are all Const with a single folded Const.
//
// Grounded directly on original_source's opt/constant_folding.hh:
// findFoldable collects candidates in reverse postorder, fold
// evaluates each operand as a signed integer of its own width
// (ConstVal<T> instantiated over int8_t/int16_t/int32_t/int64_t, bool
// for I1), and the original instruction is replaced in place rather
// than rebuilt from scratch.
package foldconst

import (
	"fmt"

	"github.com/loopjit/ssacore/internal/cfg"
	"github.com/loopjit/ssacore/internal/ir"
	"github.com/loopjit/ssacore/internal/ssaerr"
)

// Run folds every foldable BinOp/Cast in fn. BoundsCheck and Div are
// never foldable (spec section 4.8), regardless of their operands.
func Run(fn *ir.Func) error {
	order := cfg.ReversePostorder(fn).RPO

	var toFold []ir.InstructionID
	for _, bid := range order {
		fn.Block(bid).Each(func(inst *ir.Instruction) bool {
			if foldable(fn, inst) {
				toFold = append(toFold, inst.ID())
			}
			return true
		})
	}

	for _, id := range toFold {
		inst := fn.Instr(id)
		result, err := fold(fn, inst)
		if err != nil {
			return err
		}
		blk := fn.Block(inst.Block())
		newConst := blk.PushConstBefore(inst.ID(), inst.Type(), result)
		fn.Replace(ir.Value(inst.ID()), ir.Value(newConst.ID()))
		fn.Erase(inst)
	}
	return nil
}

func foldable(fn *ir.Func, inst *ir.Instruction) bool {
	switch inst.Op() {
	case ir.OpBinOp:
		switch inst.BinOpKind() {
		case ir.BinOpBoundsCheck, ir.BinOpDiv:
			return false
		}
		in := inst.Inputs()
		return isConst(fn, in[0]) && isConst(fn, in[1])
	case ir.OpCast:
		return isConst(fn, inst.Inputs()[0])
	default:
		return false
	}
}

func isConst(fn *ir.Func, v ir.Value) bool {
	return v.Valid() && fn.Instr(ir.InstructionID(v)).Op() == ir.OpConst
}

func fold(fn *ir.Func, inst *ir.Instruction) (uint64, error) {
	switch inst.Op() {
	case ir.OpBinOp:
		return foldBinOp(fn, inst)
	case ir.OpCast:
		return foldCast(fn, inst)
	default:
		panic("BUG: fold called on a non-foldable instruction")
	}
}

func foldBinOp(fn *ir.Func, inst *ir.Instruction) (uint64, error) {
	in := inst.Inputs()
	lhs, rhs := fn.Instr(ir.InstructionID(in[0])), fn.Instr(ir.InstructionID(in[1]))
	bits := lhs.Type().Bits()
	lv, rv := signExtend(lhs.ConstValue(), bits), signExtend(rhs.ConstValue(), bits)

	switch inst.BinOpKind() {
	case ir.BinOpAdd:
		return truncate(lv+rv, bits), nil
	case ir.BinOpSub:
		return truncate(lv-rv, bits), nil
	case ir.BinOpMul:
		// Mul of two I1 operands is logical AND (spec section 4.8):
		// truncate already maps a nonzero product to 1.
		return truncate(lv*rv, bits), nil
	case ir.BinOpLE:
		return boolVal(lv <= rv), nil
	case ir.BinOpEQ:
		return boolVal(lv == rv), nil
	case ir.BinOpShr:
		if rv < 0 {
			return 0, ssaerr.NewArithmetic("shr", fmt.Sprintf("v%d: shift amount is negative", inst.ID()))
		}
		if rv >= int64(bits) {
			return 0, ssaerr.NewArithmetic("shr", fmt.Sprintf("v%d: shift amount %d exceeds the width of type (%d)", inst.ID(), rv, bits))
		}
		return truncate(lv>>uint(rv), bits), nil
	case ir.BinOpOr:
		return truncate(lv|rv, bits), nil
	default:
		panic("BUG: unfoldable BinOpKind reached foldBinOp")
	}
}

func foldCast(fn *ir.Func, inst *ir.Instruction) (uint64, error) {
	src := fn.Instr(ir.InstructionID(inst.Inputs()[0]))
	v := signExtend(src.ConstValue(), src.Type().Bits())
	return truncate(v, inst.Type().Bits()), nil
}

func boolVal(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// signExtend interprets raw's low bits bits as a two's complement
// integer. I1 is the one exception: it maps to the original's C++
// bool rather than a literal 1-bit two's complement value, so any
// nonzero bit reads as 1, never as -1.
func signExtend(raw uint64, bits int) int64 {
	if bits <= 1 {
		if raw&1 != 0 {
			return 1
		}
		return 0
	}
	if bits >= 64 {
		return int64(raw)
	}
	mask := uint64(1)<<uint(bits) - 1
	v := raw & mask
	signBit := uint64(1) << uint(bits-1)
	if v&signBit != 0 {
		v |= ^mask
	}
	return int64(v)
}

// truncate masks val back down to bits width, mirroring the original's
// static_cast<T> truncation — and, for I1, C++'s nonzero-is-true bool
// conversion rather than a 1-bit mask.
func truncate(val int64, bits int) uint64 {
	if bits <= 1 {
		if val != 0 {
			return 1
		}
		return 0
	}
	if bits >= 64 {
		return uint64(val)
	}
	mask := uint64(1)<<uint(bits) - 1
	return uint64(val) & mask
}
