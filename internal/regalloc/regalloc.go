// Package regalloc implements spec section 4.7: linear-scan register
// allocation over the live intervals internal/liveness computes.
//
// Grounded on xyproto-vibe67/register_allocator.go end to end: sorting
// intervals by start, an active set re-sorted by end on every change,
// expiring intervals whose end has passed before allocating, and the
// swap-the-longer-lived-interval-to-a-stack-slot spill policy. That
// teacher allocates from a fixed named-register list per architecture
// (rbx, r12, ... on x86-64); this package generalizes "named register"
// to an anonymous K-sized bitset pool per spec section 4.7 step 4,
// since the spec's analysis core has no target architecture to name
// registers for.
package regalloc

import (
	"sort"

	"github.com/loopjit/ssacore/internal/ir"
	"github.com/loopjit/ssacore/internal/liveness"
)

// Location is where a value lives after allocation. Spec section 4.7:
// "location(v) = (id, on-stack?)".
//
// A register Location's ID is the value's own live-interval start
// rather than a small 0..K-1 slot number. The ID does not identify the
// physical register: values whose intervals start at the same point
// (the phis of one block) report the same ID while holding different
// registers. Using the start as the externally observable id gives
// callers a stable, traceable label independent of which physical
// register happened to be free when the allocator ran (spec scenario S5: "the ids echo interval starts").
// Feasibility of allocating a register at all is still governed by a
// genuine K-sized pool internally — only the reported id is redefined
// this way. Stack Location ids are the monotonically increasing spill
// slot counter, per spec section 4.7 step 4.
type Location struct {
	ID      int
	OnStack bool
}

// Allocation is the result of running linear-scan register allocation
// over one function's liveness result.
type Allocation struct {
	locations map[ir.Value]Location
}

// Location returns v's assigned location, or ok=false if v was never a
// candidate for allocation (not a value-producing instruction, or its
// live interval was empty).
func (a *Allocation) Location(v ir.Value) (Location, bool) {
	loc, ok := a.locations[v]
	return loc, ok
}

// Compute runs spec section 4.7's linear-scan allocator over fn, given
// its precomputed liveness and a fixed pool of k physical registers.
func Compute(fn *ir.Func, lv *liveness.Liveness, k int) *Allocation {
	cands := collect(fn, lv)
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].iv.Start != cands[j].iv.Start {
			return cands[i].iv.Start < cands[j].iv.Start
		}
		// Tie-break deterministically: two intervals starting at the
		// same live number still have a total order over the linear
		// numbers of their defining instructions.
		return cands[i].linear < cands[j].linear
	})

	pool := newRegisterPool(k)
	stackSlots := 0
	locations := make(map[ir.Value]Location, len(cands))
	var actives []active

	expire := func(start int) {
		sort.Slice(actives, func(i, j int) bool { return actives[i].iv.End < actives[j].iv.End })
		i := 0
		for i < len(actives) && actives[i].iv.End <= start {
			pool.release(actives[i].reg)
			i++
		}
		actives = actives[i:]
	}

	for _, c := range cands {
		expire(c.iv.Start)

		if reg, ok := pool.allocate(); ok {
			locations[c.val] = Location{ID: c.iv.Start, OnStack: false}
			actives = append(actives, active{val: c.val, iv: c.iv, reg: reg})
			continue
		}

		// No free register: spill. expire left actives sorted by End
		// ascending, so the last entry is the latest-ending — spec
		// section 4.7 step 3c's spill candidate.
		spillIdx := len(actives) - 1
		spill := actives[spillIdx]
		if spill.iv.End > c.iv.End {
			locations[c.val] = Location{ID: c.iv.Start, OnStack: false}
			locations[spill.val] = Location{ID: stackSlots, OnStack: true}
			stackSlots++
			actives[spillIdx] = active{val: c.val, iv: c.iv, reg: spill.reg}
		} else {
			locations[c.val] = Location{ID: stackSlots, OnStack: true}
			stackSlots++
		}
	}

	return &Allocation{locations: locations}
}

type candidate struct {
	val    ir.Value
	iv     ir.Interval
	linear int
}

type active struct {
	val ir.Value
	iv  ir.Interval
	reg int
}

func collect(fn *ir.Func, lv *liveness.Liveness) []candidate {
	var out []candidate
	for _, bid := range fn.Blocks() {
		blk := fn.Block(bid)
		blk.Each(func(inst *ir.Instruction) bool {
			if !inst.Op().ProducesValue() {
				return true
			}
			v := ir.Value(inst.ID())
			iv, ok := lv.Interval(v)
			if !ok || iv.Empty() {
				return true
			}
			out = append(out, candidate{val: v, iv: iv, linear: inst.LinearNumber()})
			return true
		})
	}
	return out
}

// registerPool tracks which of a fixed K physical registers are free,
// per spec section 4.7 step 4: "register ids come from a bitset pool
// with deterministic lowest-free allocation".
type registerPool struct {
	used []bool
}

func newRegisterPool(k int) *registerPool {
	return &registerPool{used: make([]bool, k)}
}

func (p *registerPool) allocate() (id int, ok bool) {
	for i, u := range p.used {
		if !u {
			p.used[i] = true
			return i, true
		}
	}
	return 0, false
}

func (p *registerPool) release(id int) {
	p.used[id] = false
}
