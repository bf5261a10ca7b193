package ir

// PhiEntry is one predecessor-block/value pair of a Phi instruction.
// Spec section 3: "one entry per predecessor basic block of its
// owning block; entry's value has matching type."
type PhiEntry struct {
	Pred BlockID
	Val  Value
}

// Instruction is a single flattened struct for every instruction
// variant, keyed by Op. This mirrors the teacher's ssa.Instruction
// (internal/_teacherref/ssa/instructions.go): "Since Go doesn't have
// union type, we use this flattened type for all instructions."
type Instruction struct {
	id  InstructionID
	op  Op
	typ Type
	blk BlockID

	// intrusive doubly-linked list pointers within blk's instruction
	// sequence (C12); managed exclusively through internal/intrusive.
	prev, next InstructionID

	// inputs holds, in order, the operand values: BinOp = [lhs, rhs],
	// UnaryOp = [val], Cast = [src], If = [cond], Ret = [val] (or
	// empty), Call = args, Phi = one value per entry (kept in lockstep
	// with phiEntries so SwapInputs/replace-in-place stay O(1)).
	inputs []Value

	// users is the back-reference set required by the Value invariant
	// in spec section 3: "for every (v, u) in (value.users x
	// use-edges), u's input list contains v". Only meaningful when
	// op.ProducesValue().
	users map[InstructionID]struct{}

	// live and linear are the two program-point numbers internal/liveness
	// assigns during its numbering pass (spec section 4.6); interval is
	// the live range internal/liveness widens as it walks blocks in
	// reverse linear order. All three are zero-valued (and interval
	// empty) until that pass runs.
	live     int
	linear   int
	interval Interval

	// opcode-specific payload; only the fields relevant to op are set.
	constVal   uint64      // Const
	binOp      BinOpKind   // BinOp
	unaryOp    UnaryOpKind // UnaryOp
	trueBlk    BlockID     // If
	falseBlk   BlockID     // If
	jumpBlk    BlockID     // Jump
	phiEntries []PhiEntry  // Phi (Pred fields; Val duplicated in inputs)
	paramIdx   int         // Param
	callee     *Func       // Call: the fully-resolved callee, already in SSA form

	erased bool
}

// ID returns the instruction's stable handle.
func (i *Instruction) ID() InstructionID { return i.id }

// Op returns the instruction's variant.
func (i *Instruction) Op() Op { return i.op }

// Type returns the type of the value this instruction produces, or
// TypeNone if it produces none.
func (i *Instruction) Type() Type { return i.typ }

// Block returns the id of the basic block that owns this instruction.
func (i *Instruction) Block() BlockID { return i.blk }

// Inputs returns the ordered operand list. Callers must not retain the
// returned slice across a mutation of this instruction.
func (i *Instruction) Inputs() []Value { return i.inputs }

// Erased reports whether Erase has already been called on this
// instruction; using an erased handle is a programmer-bug per spec
// section 7.
func (i *Instruction) Erased() bool { return i.erased }

// ConstValue returns the raw payload of a Const instruction,
// interpreted according to Type().
func (i *Instruction) ConstValue() uint64 {
	mustOp(i, OpConst)
	return i.constVal
}

// BinOpKind returns the operator of a BinOp instruction.
func (i *Instruction) BinOpKind() BinOpKind {
	mustOp(i, OpBinOp)
	return i.binOp
}

// UnaryOpKind returns the operator of a UnaryOp instruction.
func (i *Instruction) UnaryOpKind() UnaryOpKind {
	mustOp(i, OpUnaryOp)
	return i.unaryOp
}

// IfTargets returns the true/false successor blocks of an If.
func (i *Instruction) IfTargets() (trueBlk, falseBlk BlockID) {
	mustOp(i, OpIf)
	return i.trueBlk, i.falseBlk
}

// JumpTarget returns the successor block of a Jump.
func (i *Instruction) JumpTarget() BlockID {
	mustOp(i, OpJump)
	return i.jumpBlk
}

// PhiEntries returns the predecessor/value pairs of a Phi, in the same
// order as Inputs().
func (i *Instruction) PhiEntries() []PhiEntry {
	mustOp(i, OpPhi)
	return i.phiEntries
}

// ParamIndex returns the formal-parameter index of a Param.
func (i *Instruction) ParamIndex() int {
	mustOp(i, OpParam)
	return i.paramIdx
}

// Callee returns the resolved callee Function of a Call.
func (i *Instruction) Callee() *Func {
	mustOp(i, OpCall)
	return i.callee
}

// Args returns the argument values of a Call; identical to Inputs()
// but named for readability at call sites.
func (i *Instruction) Args() []Value {
	mustOp(i, OpCall)
	return i.inputs
}

// Users returns a snapshot slice of every instruction id that consumes
// this instruction's produced value. A snapshot, not a live view, is
// returned deliberately: spec section 9 flags "for(it; it !=
// users.end(); ++it) while erasing from users" as a bug class; every
// caller in this module is expected to collect first, then mutate.
func (i *Instruction) Users() []InstructionID {
	out := make([]InstructionID, 0, len(i.users))
	for u := range i.users {
		out = append(out, u)
	}
	return out
}

// LiveNumber returns the program point assigned by internal/liveness's
// numbering pass (spec section 4.6, step 2); zero before that pass has
// run.
func (i *Instruction) LiveNumber() int { return i.live }

// SetLiveNumber is called only by internal/liveness.
func (i *Instruction) SetLiveNumber(n int) { i.live = n }

// LinearNumber returns the monotonically increasing per-instruction
// number assigned by internal/liveness's numbering pass (spec section
// 4.6, step 1); zero before that pass has run.
func (i *Instruction) LinearNumber() int { return i.linear }

// SetLinearNumber is called only by internal/liveness.
func (i *Instruction) SetLinearNumber(n int) { i.linear = n }

// Interval returns this instruction's live range, as widened by
// internal/liveness's live-ranges pass. Empty (Start == End == 0)
// before that pass has run, and always empty for terminators (spec
// section 4.6: "instructions that do not produce a value have empty
// intervals").
func (i *Instruction) Interval() Interval { return i.interval }

// SetInterval is called only by internal/liveness, to initialize an
// instruction's interval to its live number before widening begins.
func (i *Instruction) SetInterval(iv Interval) { i.interval = iv }

// WidenInterval widens this instruction's interval to cover iv,
// called by internal/liveness each time a use is discovered further
// along in the reverse walk.
func (i *Instruction) WidenInterval(iv Interval) { i.interval = i.interval.Update(iv) }

func mustOp(i *Instruction, want Op) {
	if i.op != want {
		panic("BUG: " + want.String() + " accessor called on " + i.op.String() + " instruction")
	}
}
