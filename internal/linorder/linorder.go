// Package linorder computes the linear block order used by
// internal/liveness and internal/regalloc: reverse postorder, with
// every reducible loop's body kept contiguous so a single forward scan
// sees a loop's blocks back-to-back (spec section 4.5).
//
// Grounded on the teacher's block-layout pass
// (internal/_teacherref/ssa/pass_block_layout.go), which also walks
// loop nesting to decide block placement for machine-code layout; this
// package keeps that "loops stay contiguous" goal but drops the
// teacher's machine-code-specific cold/hot splitting, since nothing in
// the spec's analysis core needs it.
package linorder

import (
	"github.com/loopjit/ssacore/internal/cfg"
	"github.com/loopjit/ssacore/internal/ir"
	"github.com/loopjit/ssacore/internal/loops"
)

// Order is a total order over fn's reachable blocks such that every
// reducible loop's body occupies a contiguous run.
type Order struct {
	Blocks []ir.BlockID
	Index  map[ir.BlockID]int
}

// Build computes the linear order for fn given its loop forest, per
// spec section 4.5's algorithm: iterate RPO, skip blocks already
// emitted; for a reducible loop header, emit the loop's own
// LinearOrder (spec section 4.4's "header first, then, in reverse of
// body-insertion order, each body item") and mark all of its blocks
// visited; otherwise emit the block alone.
//
// Irreducible loops cannot be laid out contiguously by construction
// (spec section 4.4's Non-goal); Build still places every block
// exactly once, in RPO, but callers should treat an irreducible
// region's liveness/regalloc results as best-effort, per spec section
// 4.5's note.
func Build(fn *ir.Func, forest *loops.Forest) Order {
	rpo := cfg.ReversePostorder(fn).RPO

	placed := make(map[ir.BlockID]bool, len(rpo))
	var out []ir.BlockID

	for _, blk := range rpo {
		if placed[blk] {
			continue
		}
		l := forest.LoopFor(blk)
		if l == nil || !l.Reducible || l.Header != blk {
			placed[blk] = true
			out = append(out, blk)
			continue
		}
		for _, b := range l.LinearOrder() {
			if !placed[b] {
				placed[b] = true
				out = append(out, b)
			}
		}
	}

	index := make(map[ir.BlockID]int, len(out))
	for i, b := range out {
		index[b] = i
	}
	return Order{Blocks: out, Index: index}
}
