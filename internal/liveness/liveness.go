// Package liveness implements spec section 4.6: program-point
// numbering (linear numbers and live numbers), block live intervals,
// and per-value live ranges computed by a single reverse walk over the
// linear order.
//
// There is no teacher analogue for this pass — wazero's backend
// (deleted, see DESIGN.md) computed liveness for its own register
// allocator, but that code never made it into internal/_teacherref/ssa
// since it lived under the backend directory out of this exercise's
// scope. This package is grounded directly on the spec's own
// algorithm description (section 4.6) and on xyproto-vibe67's
// register_allocator.go for the surrounding Interval/Location
// vocabulary internal/regalloc (C7) consumes downstream.
package liveness

import (
	"github.com/loopjit/ssacore/internal/ir"
	"github.com/loopjit/ssacore/internal/linorder"
	"github.com/loopjit/ssacore/internal/loops"
	"github.com/loopjit/ssacore/internal/ssaerr"
)

const liveStep = 2

// Liveness is the result of running the numbering and live-ranges
// passes over one function. It does not copy state out of the IR —
// Instruction.LiveNumber/LinearNumber/Interval and Block.LiveInterval
// are the source of truth — it only remembers the linear order the
// numbers were computed against, for callers that need to relate two
// numbers back to block placement.
type Liveness struct {
	fn    *ir.Func
	order linorder.Order
}

// Compute numbers every instruction of fn and derives every
// value-producing instruction's live range, given fn's linear order and
// loop forest (spec section 2: "liveness depends on linear order").
func Compute(fn *ir.Func, order linorder.Order, forest *loops.Forest) *Liveness {
	numberBlocks(fn, order)
	computeLiveRanges(fn, order, forest)
	return &Liveness{fn: fn, order: order}
}

// Interval returns v's live range, or ok=false if v does not identify
// a value-producing instruction. Mirrors spec section 6's
// `Liveness.interval(value) -> Option<LiveInterval>`.
func (lv *Liveness) Interval(v ir.Value) (ir.Interval, bool) {
	if !v.Valid() {
		return ir.Interval{}, false
	}
	inst := lv.fn.Instr(ir.InstructionID(v))
	if !inst.Op().ProducesValue() {
		return ir.Interval{}, false
	}
	return inst.Interval(), true
}

// numberBlocks is spec section 4.6's numbering pass: walk blocks in
// linear order; within each block, assign a linear number (step 1) to
// every instruction, and a live number (step 2) to every non-phi
// instruction, with all phis of a block sharing its block-start live
// number.
//
// Per-block live numbers are counted from a reserved block-start slot,
// advanced unconditionally at every block boundary — including the
// first block, whose reserved slot is simply 0 — rather than carried
// over unchanged from the previous block's last number. This gives
// every block's phis (if any) a number strictly greater than the
// previous block's terminator, which the spec's own worked example
// (S4) depends on: block boundaries with no phis still "waste" the
// reserved slot instead of letting the first real instruction reuse
// it.
func numberBlocks(fn *ir.Func, order linorder.Order) {
	liveCounter := -liveStep
	linearCounter := -1
	for _, bid := range order.Blocks {
		blk := fn.Block(bid)
		liveCounter += liveStep
		blockStart := liveCounter

		blk.Each(func(inst *ir.Instruction) bool {
			linearCounter++
			inst.SetLinearNumber(linearCounter)
			if inst.Op() == ir.OpPhi {
				inst.SetLiveNumber(blockStart)
			} else {
				liveCounter += liveStep
				inst.SetLiveNumber(liveCounter)
			}
			return true
		})

		blk.LiveInterval = ir.Interval{Start: blockStart, End: liveCounter}
	}
}

// computeLiveRanges is spec section 4.6's live-ranges pass, run over
// blocks in reverse linear order.
func computeLiveRanges(fn *ir.Func, order linorder.Order, forest *loops.Forest) {
	liveIn := make(map[ir.BlockID]map[ir.Value]struct{}, len(order.Blocks))

	for i := len(order.Blocks) - 1; i >= 0; i-- {
		bid := order.Blocks[i]
		blk := fn.Block(bid)
		liveSet := make(map[ir.Value]struct{})

		// Step 1: union of successors' live-in sets, corrected so a phi
		// in a successor contributes only the entry for this block.
		for _, succID := range blk.Succs() {
			for v := range liveIn[succID] {
				liveSet[v] = struct{}{}
			}
			fn.Block(succID).Each(func(inst *ir.Instruction) bool {
				if inst.Op() != ir.OpPhi {
					return true
				}
				for _, e := range inst.PhiEntries() {
					if e.Pred == bid {
						liveSet[e.Val] = struct{}{}
						// The entry is used at the phi itself, whose live
						// number may be lower than this block's own
						// numbers on a back edge — touch narrowly here
						// rather than waiting for step 2's coarser,
						// whole-block widen.
						touch(fn.Instr(ir.InstructionID(e.Val)), ir.Interval{Start: blk.LiveInterval.Start, End: inst.LiveNumber()})
					}
				}
				return true
			})
		}

		// Step 2: widen every value already live across the whole block.
		for v := range liveSet {
			touch(fn.Instr(ir.InstructionID(v)), blk.LiveInterval)
		}

		// Step 3: walk instructions in reverse.
		blk.EachReverse(func(inst *ir.Instruction) bool {
			if inst.Op() == ir.OpPhi {
				return true
			}
			if inst.Op().ProducesValue() {
				setDefStart(inst, inst.LiveNumber())
				delete(liveSet, ir.Value(inst.ID()))
			}
			for _, in := range inst.Inputs() {
				if !in.Valid() {
					continue
				}
				liveSet[in] = struct{}{}
				touch(fn.Instr(ir.InstructionID(in)), ir.Interval{Start: blk.LiveInterval.Start, End: inst.LiveNumber()})
			}
			return true
		})

		// Step 4: a block's own phis never propagate past it as "live".
		blk.Each(func(inst *ir.Instruction) bool {
			if inst.Op() == ir.OpPhi {
				delete(liveSet, ir.Value(inst.ID()))
			}
			return true
		})

		// Step 5: a reducible loop header widens every value still live
		// at that point to span the whole loop, compensating for this
		// single reverse walk never seeing the loop's back edge before
		// its header (spec section 4.6, step 5).
		if l := forest.LoopFor(bid); l != nil && l.Reducible && l.Header == bid {
			span := loopSpan(fn, order, l)
			for v := range liveSet {
				touch(fn.Instr(ir.InstructionID(v)), span)
			}
		}

		if _, dup := liveIn[bid]; dup {
			ssaerr.Fatalf("liveness.computeLiveRanges", "block %d already has a live set", bid)
		}
		liveIn[bid] = liveSet
	}
}

// loopSpan covers the whole loop, up to but not including the block
// that follows it in linear order. Using the loop's last body block's
// own terminator number as the upper bound would leave that block's
// own reserved boundary slot (the next block's block-start) outside
// the widened interval, which undercounts any value that is carried
// out of the loop and immediately consumed by the following block —
// spec scenario S4's v0 depends on this one-step extension.
func loopSpan(fn *ir.Func, order linorder.Order, l *loops.Loop) ir.Interval {
	last := l.Header
	for b := range l.Body {
		if order.Index[b] > order.Index[last] {
			last = b
		}
	}
	return ir.Interval{Start: fn.Block(l.Header).LiveInterval.Start, End: fn.Block(last).LiveInterval.End + liveStep}
}

// touch widens inst's interval to cover iv, or initializes it directly
// on first touch: Interval{0,0} is never a live value's genuine
// interval (the first live number any instruction can receive is 2),
// so treating Empty() as "untouched" is safe and avoids Interval.Update
// spuriously pinning a real interval's start at 0.
func touch(inst *ir.Instruction, iv ir.Interval) {
	if inst.Interval().Empty() {
		inst.SetInterval(iv)
	} else {
		inst.WidenInterval(iv)
	}
}

// setDefStart pins inst's interval start to its own live number — the
// earliest point a value can be live — overwriting any provisional
// lower bound a downstream use may have speculatively widened it to,
// while keeping whatever end a downstream use already established (or
// at least live-number + step, per spec section 4.6 step 3).
func setDefStart(inst *ir.Instruction, liveNum int) {
	end := inst.Interval().End
	if end < liveNum+liveStep {
		end = liveNum + liveStep
	}
	inst.SetInterval(ir.Interval{Start: liveNum, End: end})
}
