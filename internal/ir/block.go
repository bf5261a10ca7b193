package ir

import "github.com/loopjit/ssacore/internal/intrusive"

// Interval is a half-open numeric range over linearized program
// points (spec section 3's LiveInterval, restricted here to the
// plain [start,end) pair the data model needs before a Location is
// assigned by regalloc).
type Interval struct {
	Start, End int
}

// Empty reports whether the interval is empty (start == end).
func (iv Interval) Empty() bool { return iv.Start == iv.End }

// Update widens iv to (min start, max end) per spec section 3.
func (iv Interval) Update(other Interval) Interval {
	start, end := iv.Start, iv.End
	if other.Start < start {
		start = other.Start
	}
	if other.End > end {
		end = other.End
	}
	return Interval{Start: start, End: end}
}

// Block is a basic block: an ordered instruction sequence plus the
// predecessor/successor lists the spec's BasicBlock invariants are
// stated over (section 3).
type Block struct {
	id BlockID
	fn *Func

	instrs *intrusive.List[InstructionID]

	preds []BlockID
	succs []BlockID

	// LiveInterval is populated by internal/liveness; it lives here
	// because spec section 3 places it directly on BasicBlock.
	LiveInterval Interval
}

// ID returns the block's stable handle.
func (b *Block) ID() BlockID { return b.id }

// Preds returns the predecessor blocks, in the order edges were
// added.
func (b *Block) Preds() []BlockID { return b.preds }

// Succs returns the successor blocks, derived from the terminator
// (spec section 3 invariant (b)).
func (b *Block) Succs() []BlockID { return b.succs }

// Empty reports whether the block has no instructions yet.
func (b *Block) Empty() bool { return b.instrs.Empty() }

// First returns the first instruction id, or InvalidInstructionID if
// empty.
func (b *Block) First() InstructionID { return b.instrs.Front() }

// Last returns the last instruction id, or InvalidInstructionID if
// empty.
func (b *Block) Last() InstructionID { return b.instrs.Back() }

// End returns the stable sentinel for this block's instruction list.
func (b *Block) End() InstructionID { return b.instrs.End() }

// Terminator returns the block's terminator instruction, or nil if
// the block has not been terminated yet.
func (b *Block) Terminator() *Instruction {
	if b.Empty() {
		return nil
	}
	last := b.fn.Instr(b.Last())
	if !last.op.IsTerminator() {
		return nil
	}
	return last
}

// Each calls yield for every instruction in the block, forward, in the
// order they are laid out. Iteration stops early if yield returns
// false.
func (b *Block) Each(yield func(*Instruction) bool) {
	b.instrs.Iterate(func(id InstructionID) bool {
		return yield(b.fn.Instr(id))
	})
}

// EachReverse calls yield for every instruction back-to-front.
func (b *Block) EachReverse(yield func(*Instruction) bool) {
	b.instrs.IterateReverse(func(id InstructionID) bool {
		return yield(b.fn.Instr(id))
	})
}

// instrStore adapts Func's instruction arena to intrusive.Store so a
// single generic list implementation backs every block's instruction
// sequence (C12 in service of C1).
type instrStore struct{ f *Func }

func (s instrStore) Prev(h InstructionID) InstructionID { return s.f.Instr(h).prev }
func (s instrStore) Next(h InstructionID) InstructionID { return s.f.Instr(h).next }
func (s instrStore) SetPrev(h, p InstructionID)          { s.f.Instr(h).prev = p }
func (s instrStore) SetNext(h, n InstructionID)          { s.f.Instr(h).next = n }
