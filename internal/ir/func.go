package ir

import "github.com/loopjit/ssacore/internal/intrusive"

// Func is a single SSA-form function: a return type, parameter types,
// and an ordered list of basic blocks with the first block as entry
// (spec section 3's Function invariant).
type Func struct {
	Name     string
	RetTy    Type
	ParamTys []Type

	blocks     pool[Block]
	instrs     pool[Instruction]
	blockOrder []BlockID
}

// NewFunction creates an empty function. Corresponds to the IR
// construction API's new_function (spec section 6).
func NewFunction(name string, retTy Type, paramTys []Type) *Func {
	return &Func{
		Name:     name,
		RetTy:    retTy,
		ParamTys: append([]Type(nil), paramTys...),
		blocks:   newPool[Block](),
		instrs:   newPool[Instruction](),
	}
}

// Block returns the block identified by id. Panics (programmer-bug
// class) if id is out of range.
func (f *Func) Block(id BlockID) *Block {
	if int(id) >= f.blocks.len() {
		panic("BUG: Block() called with out-of-range BlockID")
	}
	return f.blocks.view(int(id))
}

// Instr returns the instruction identified by id. Panics if id is out
// of range; returns the (tombstoned) record unchanged if the
// instruction was erased — callers that dereference a stale handle
// after Erase are the programmer bug, not Instr itself (spec section
// 7: "referring to a value whose owning instruction was erased").
func (f *Func) Instr(id InstructionID) *Instruction {
	if int(id) >= f.instrs.len() {
		panic("BUG: Instr() called with out-of-range InstructionID")
	}
	return f.instrs.view(int(id))
}

// Valid reports whether id still refers to a live (non-erased)
// instruction.
func (f *Func) Valid(id InstructionID) bool {
	return int(id) < f.instrs.len() && !f.instrs.view(int(id)).erased
}

// Blocks returns every block id in creation order. The entry block is
// always Blocks()[0].
func (f *Func) Blocks() []BlockID {
	return f.blockOrder
}

// EntryID returns the entry block's id.
func (f *Func) EntryID() BlockID {
	if len(f.blockOrder) == 0 {
		panic("BUG: EntryID() called on a function with no blocks")
	}
	return f.blockOrder[0]
}

// Entry returns the entry block.
func (f *Func) Entry() *Block { return f.Block(f.EntryID()) }

// AppendBB allocates a new, unterminated basic block and appends it to
// the function. Corresponds to the IR construction API's append_bb
// (spec section 6).
func (f *Func) AppendBB() *Block {
	id, blk := f.blocks.allocate()
	blk.id = BlockID(id)
	blk.fn = f
	blk.instrs = intrusive.New[InstructionID](instrStore{f}, InvalidInstructionID, false, nil)
	f.blockOrder = append(f.blockOrder, blk.id)
	return blk
}

// allocateInstruction reserves a new instruction record without
// linking it anywhere; build.go's push_back<Kind> family is
// responsible for filling in fields and inserting into a block.
func (f *Func) allocateInstruction() *Instruction {
	id, inst := f.instrs.allocate()
	inst.id = InstructionID(id)
	inst.prev, inst.next = InvalidInstructionID, InvalidInstructionID
	return inst
}

// LinkSucc links pred -> succ symmetrically, appending succ to pred's
// successor list and pred to succ's predecessor list. Exposed per
// spec section 6 ("rarely needed — terminators auto-link"); used
// directly only by passes that graft blocks together outside of
// pushing a terminator (e.g. inlining's rewrite of each callee Ret
// into a Jump to the after block).
func (f *Func) LinkSucc(pred, succ BlockID) {
	p, s := f.Block(pred), f.Block(succ)
	p.succs = append(p.succs, succ)
	s.preds = append(s.preds, pred)
}

// UnlinkSucc removes a single pred->succ edge, used when a terminator
// is replaced and the old edge must be dropped before a new one is
// added.
func (f *Func) UnlinkSucc(pred, succ BlockID) {
	p, s := f.Block(pred), f.Block(succ)
	p.succs = removeOneBlockID(p.succs, succ)
	s.preds = removeOneBlockID(s.preds, pred)
}

func removeOneBlockID(ids []BlockID, target BlockID) []BlockID {
	for i, id := range ids {
		if id == target {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
