package ir

// Op identifies the variant of an Instruction. Go has no tagged union,
// so — following the teacher's ssa.Instruction (internal/_teacherref/
// ssa/instructions.go) — every Instruction is one flattened struct and
// Op says which of its fields are meaningful.
type Op byte

const (
	OpInvalid Op = iota
	OpConst
	OpBinOp
	OpUnaryOp
	OpCast
	OpIf
	OpJump
	OpPhi
	OpRet
	OpParam
	OpCall
)

// String implements fmt.Stringer.
func (o Op) String() string {
	switch o {
	case OpConst:
		return "const"
	case OpBinOp:
		return "binop"
	case OpUnaryOp:
		return "unaryop"
	case OpCast:
		return "cast"
	case OpIf:
		return "if"
	case OpJump:
		return "jump"
	case OpPhi:
		return "phi"
	case OpRet:
		return "ret"
	case OpParam:
		return "param"
	case OpCall:
		return "call"
	default:
		return "invalid"
	}
}

// ProducesValue reports whether an instruction of this Op yields a
// Value that other instructions may consume. Mirrors spec section 3:
// "{Const, BinOp, UnaryOp, Cast, Phi, Call, Param}" produce a value;
// "{Jump, Ret, If}" do not.
func (o Op) ProducesValue() bool {
	switch o {
	case OpConst, OpBinOp, OpUnaryOp, OpCast, OpPhi, OpCall, OpParam:
		return true
	default:
		return false
	}
}

// IsTerminator reports whether an instruction of this Op may only
// appear as the last instruction of a basic block.
func (o Op) IsTerminator() bool {
	switch o {
	case OpIf, OpJump, OpRet:
		return true
	default:
		return false
	}
}

// BinOpKind enumerates the binary operators of spec section 3.
type BinOpKind byte

const (
	BinOpInvalid BinOpKind = iota
	BinOpAdd
	BinOpSub
	BinOpMul
	BinOpLE
	BinOpEQ
	BinOpShr
	BinOpOr
	BinOpBoundsCheck
	BinOpDiv
)

// String implements fmt.Stringer.
func (b BinOpKind) String() string {
	switch b {
	case BinOpAdd:
		return "add"
	case BinOpSub:
		return "sub"
	case BinOpMul:
		return "mul"
	case BinOpLE:
		return "le"
	case BinOpEQ:
		return "eq"
	case BinOpShr:
		return "shr"
	case BinOpOr:
		return "or"
	case BinOpBoundsCheck:
		return "bounds_check"
	case BinOpDiv:
		return "div"
	default:
		return "invalid"
	}
}

// IsComparison reports whether the result type of this operator is
// always TypeI1, regardless of operand type.
func (b BinOpKind) IsComparison() bool {
	return b == BinOpLE || b == BinOpEQ
}

// UnaryOpKind enumerates the unary operators of spec section 3.
type UnaryOpKind byte

const (
	UnaryOpInvalid UnaryOpKind = iota
	UnaryOpZeroCheck
)

// String implements fmt.Stringer.
func (u UnaryOpKind) String() string {
	switch u {
	case UnaryOpZeroCheck:
		return "zero_check"
	default:
		return "invalid"
	}
}
