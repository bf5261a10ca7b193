package ir

import (
	"fmt"
	"math"
)

// InstructionID is a stable handle into a Func's instruction arena.
type InstructionID uint32

// InvalidInstructionID is the designated sentinel: it never identifies
// a real instruction and doubles as the intrusive instruction list's
// end() marker (internal/intrusive.List).
const InvalidInstructionID InstructionID = math.MaxUint32

// BlockID is a stable handle into a Func's basic-block arena.
type BlockID uint32

// InvalidBlockID never identifies a real block.
const InvalidBlockID BlockID = math.MaxUint32

// Value is an abstract SSA producer (spec section 3). Every producing
// Instruction (Const, BinOp, UnaryOp, Cast, Phi, Call, Param) yields
// exactly one Value, and — since Go has no separate "SSA value" object
// distinct from its defining instruction here — a Value and the
// InstructionID of the instruction that produces it share the same
// underlying id. The distinct type exists so a compile error, not a
// silent bug, results from mixing up "an operand" with "any
// instruction id" (e.g. a terminator's id, which is never a valid
// operand).
type Value InstructionID

// InvalidValue never identifies a real value.
const InvalidValue Value = Value(InvalidInstructionID)

// Valid reports whether v could possibly reference a live value. It
// does not by itself prove the referenced instruction hasn't been
// erased; see Func.Valid for that.
func (v Value) Valid() bool { return v != InvalidValue }

// Category classifies a Value's producer per spec section 3.
type Category byte

const (
	CategoryInstruction Category = iota
	CategoryParameter
)

// String implements fmt.Stringer.
func (c Category) String() string {
	if c == CategoryParameter {
		return "parameter"
	}
	return "instruction"
}

// Category returns the category of the value produced by v's defining
// instruction.
func (f *Func) Category(v Value) Category {
	if f.Instr(InstructionID(v)).op == OpParam {
		return CategoryParameter
	}
	return CategoryInstruction
}

// TypeOf returns the type of v as recorded on its defining
// instruction.
func (f *Func) TypeOf(v Value) Type {
	return f.Instr(InstructionID(v)).typ
}

// String renders v the way the teacher's Value.format does, i.e.
// "v<id>" (internal/_teacherref/ssa/vs.go).
func (v Value) String() string {
	if !v.Valid() {
		return "v<invalid>"
	}
	return fmt.Sprintf("v%d", InstructionID(v))
}
