// Package irtext implements spec section 4.13: a minimal, explicitly
// non-normative textual front-end for internal/ir, built entirely on
// top of the C1 construction API (push_back<Kind>, link_succ) so it
// doubles as an exerciser of that surface rather than a second way to
// build IR.
//
// Grounded on the teacher's own textual instruction formatting
// (internal/_teacherref/ssa/instructions.go's Instruction.Format,
// basic_block.go's basicBlock.String): "vN = kind.type args" per
// instruction, a "blockN:" label per block. internal/ir/dump.go
// already speaks this dialect on the write side (Func.Dump); this
// package adds the read side, plus a DOT dump of the CFG.
package irtext

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/loopjit/ssacore/internal/ir"
)

// Dump renders fn in the textual dialect Parse reads back. A thin
// wrapper over Func.Dump, kept here so callers needing a round trip
// only ever import one package.
func Dump(fn *ir.Func) string {
	return fn.Dump()
}

// Parse reads exactly one function (spec section 4.13: "one function
// per file"). It is a convenience wrapper over ParseProgram for the
// common case where the input's Call instructions, if any, are all
// self-recursive or absent — a Call naming another function requires
// that function's body to be resolvable, which single-function Parse
// cannot do; use ParseProgram for that.
func Parse(r io.Reader) (*ir.Func, error) {
	funcs, order, err := ParseProgram(r)
	if err != nil {
		return nil, err
	}
	if len(order) != 1 {
		return nil, fmt.Errorf("irtext: Parse expects exactly one function, got %d", len(order))
	}
	return funcs[order[0]], nil
}

// ParseProgram reads a sequence of zero or more "func ... { ... }"
// blocks from r. A Call instruction's callee is resolved against
// functions already defined earlier in the same stream (so a callee
// must be written before its first caller) — the extension Parse
// itself cannot express, needed to round-trip a Dump of any program
// that contains a Call, including internal/passes/inline's own
// fixtures. Returns the parsed functions keyed by name, plus the
// order they were declared in (map iteration order is not stable).
func ParseProgram(r io.Reader) (map[string]*ir.Func, []string, error) {
	lines, err := readNonBlankLines(r)
	if err != nil {
		return nil, nil, err
	}

	funcs := make(map[string]*ir.Func)
	var order []string
	for i := 0; i < len(lines); {
		if !strings.HasPrefix(lines[i], "func ") {
			return nil, nil, fmt.Errorf("irtext: line %q: expected \"func\"", lines[i])
		}
		end := i
		for end < len(lines) && lines[end] != "}" {
			end++
		}
		if end == len(lines) {
			return nil, nil, fmt.Errorf("irtext: unterminated function starting at %q", lines[i])
		}
		fn, name, err := parseFunc(lines[i:end+1], funcs)
		if err != nil {
			return nil, nil, err
		}
		funcs[name] = fn
		order = append(order, name)
		i = end + 1
	}
	return funcs, order, nil
}

func readNonBlankLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, sc.Err()
}

// parseFunc parses one "func name(types...) retty { ... }" block.
// lines[0] is the header, lines[len-1] is the closing "}".
func parseFunc(lines []string, known map[string]*ir.Func) (*ir.Func, string, error) {
	name, paramTys, retTy, err := parseHeader(lines[0])
	if err != nil {
		return nil, "", err
	}
	fn := ir.NewFunction(name, retTy, paramTys)

	body := lines[1 : len(lines)-1]

	// Pass 1: register every block label in textual order, so forward
	// branch targets (blockN appearing in an If/Jump before blockN's
	// own header line) resolve correctly.
	blocks := make(map[string]ir.BlockID)
	for _, line := range body {
		if label, ok := blockLabel(line); ok {
			blocks[label] = fn.AppendBB().ID()
		}
	}

	// Pass 2: walk instructions, emitting via the construction API in
	// file order (which is also push order, so Parse needs no id
	// remapping: each "vN" token is just a symbolic name resolved
	// through vals, not assumed to equal the arena id Push returns).
	vals := make(map[string]ir.Value)
	var curBlock *ir.Block
	for _, line := range body {
		if label, ok := blockLabel(line); ok {
			curBlock = fn.Block(blocks[label])
			continue
		}
		if curBlock == nil {
			return nil, "", fmt.Errorf("irtext: instruction %q before any block label", line)
		}
		if err := parseInstruction(fn, curBlock, line, vals, blocks, known); err != nil {
			return nil, "", err
		}
	}
	return fn, name, nil
}

// parseHeader parses "func name(t1, t2) retty {".
func parseHeader(line string) (name string, paramTys []ir.Type, retTy ir.Type, err error) {
	line = strings.TrimSuffix(strings.TrimSpace(line), "{")
	line = strings.TrimSpace(line)
	open := strings.IndexByte(line, '(')
	close := strings.IndexByte(line, ')')
	if !strings.HasPrefix(line, "func ") || open < 0 || close < open {
		return "", nil, ir.TypeNone, fmt.Errorf("irtext: malformed function header %q", line)
	}
	name = strings.TrimSpace(line[len("func "):open])
	paramsRaw := strings.TrimSpace(line[open+1 : close])
	if paramsRaw != "" {
		for _, p := range strings.Split(paramsRaw, ",") {
			ty, err := parseType(strings.TrimSpace(p))
			if err != nil {
				return "", nil, ir.TypeNone, err
			}
			paramTys = append(paramTys, ty)
		}
	}
	retRaw := strings.TrimSpace(line[close+1:])
	retTy, err = parseType(retRaw)
	if err != nil {
		return "", nil, ir.TypeNone, err
	}
	return name, paramTys, retTy, nil
}

// blockLabel reports whether line is a "blockN:" header and, if so,
// returns "blockN".
func blockLabel(line string) (string, bool) {
	if strings.HasPrefix(line, "block") && strings.HasSuffix(line, ":") {
		return strings.TrimSuffix(line, ":"), true
	}
	return "", false
}

func parseType(s string) (ir.Type, error) {
	switch s {
	case "none":
		return ir.TypeNone, nil
	case "i1":
		return ir.TypeI1, nil
	case "i8":
		return ir.TypeI8, nil
	case "i16":
		return ir.TypeI16, nil
	case "i32":
		return ir.TypeI32, nil
	case "i64":
		return ir.TypeI64, nil
	default:
		return ir.TypeNone, fmt.Errorf("irtext: unknown type %q", s)
	}
}

func parseBinOp(s string) (ir.BinOpKind, error) {
	switch s {
	case "add":
		return ir.BinOpAdd, nil
	case "sub":
		return ir.BinOpSub, nil
	case "mul":
		return ir.BinOpMul, nil
	case "le":
		return ir.BinOpLE, nil
	case "eq":
		return ir.BinOpEQ, nil
	case "shr":
		return ir.BinOpShr, nil
	case "or":
		return ir.BinOpOr, nil
	case "bounds_check":
		return ir.BinOpBoundsCheck, nil
	case "div":
		return ir.BinOpDiv, nil
	default:
		return ir.BinOpInvalid, fmt.Errorf("irtext: unknown binop %q", s)
	}
}

func parseUnaryOp(s string) (ir.UnaryOpKind, error) {
	if s == "zero_check" {
		return ir.UnaryOpZeroCheck, nil
	}
	return ir.UnaryOpInvalid, fmt.Errorf("irtext: unknown unaryop %q", s)
}

// parseInstruction parses and emits a single non-label line.
func parseInstruction(fn *ir.Func, blk *ir.Block, line string, vals map[string]ir.Value, blocks map[string]ir.BlockID, known map[string]*ir.Func) error {
	dst := ""
	rhs := line
	if eq := strings.Index(line, " = "); eq >= 0 {
		dst = strings.TrimSpace(line[:eq])
		rhs = strings.TrimSpace(line[eq+3:])
	}

	head, rest := splitFirstToken(rhs)
	kind, typS := splitKindType(head)

	resolve := func(tok string) (ir.Value, error) {
		v, ok := vals[tok]
		if !ok {
			return ir.InvalidValue, fmt.Errorf("irtext: undefined value %q", tok)
		}
		return v, nil
	}
	resolveBlk := func(tok string) (ir.BlockID, error) {
		b, ok := blocks[tok]
		if !ok {
			return ir.InvalidBlockID, fmt.Errorf("irtext: undefined block %q", tok)
		}
		return b, nil
	}

	switch kind {
	case "const":
		ty, err := parseType(typS)
		if err != nil {
			return err
		}
		n, err := strconv.ParseUint(strings.TrimSpace(rest), 10, 64)
		if err != nil {
			return fmt.Errorf("irtext: bad const literal %q: %w", rest, err)
		}
		inst := blk.PushConst(ty, n)
		vals[dst] = ir.Value(inst.ID())

	case "binop":
		op, args, err := splitOpAndArgs(rest)
		if err != nil {
			return err
		}
		binOp, err := parseBinOp(op)
		if err != nil {
			return err
		}
		if len(args) != 2 {
			return fmt.Errorf("irtext: binop %q expects 2 operands, got %d", op, len(args))
		}
		lhs, err := resolve(args[0])
		if err != nil {
			return err
		}
		rhsV, err := resolve(args[1])
		if err != nil {
			return err
		}
		inst := blk.PushBinOp(binOp, lhs, rhsV)
		vals[dst] = ir.Value(inst.ID())

	case "unaryop":
		op, args, err := splitOpAndArgs(rest)
		if err != nil {
			return err
		}
		unOp, err := parseUnaryOp(op)
		if err != nil {
			return err
		}
		if len(args) != 1 {
			return fmt.Errorf("irtext: unaryop %q expects 1 operand, got %d", op, len(args))
		}
		v, err := resolve(args[0])
		if err != nil {
			return err
		}
		inst := blk.PushUnaryOp(unOp, v)
		vals[dst] = ir.Value(inst.ID())

	case "cast":
		ty, err := parseType(typS)
		if err != nil {
			return err
		}
		v, err := resolve(strings.TrimSpace(rest))
		if err != nil {
			return err
		}
		inst := blk.PushCast(ty, v)
		vals[dst] = ir.Value(inst.ID())

	case "if":
		fields := splitCommaArgs(rest)
		if len(fields) != 3 {
			return fmt.Errorf("irtext: if expects 3 operands, got %d", len(fields))
		}
		cond, err := resolve(fields[0])
		if err != nil {
			return err
		}
		trueBlk, err := resolveBlk(fields[1])
		if err != nil {
			return err
		}
		falseBlk, err := resolveBlk(fields[2])
		if err != nil {
			return err
		}
		blk.PushIf(cond, trueBlk, falseBlk)

	case "jump":
		target, err := resolveBlk(strings.TrimSpace(rest))
		if err != nil {
			return err
		}
		blk.PushJump(target)

	case "phi":
		ty, err := parseType(typS)
		if err != nil {
			return err
		}
		entries, err := parsePhiEntries(rest, vals, blocks)
		if err != nil {
			return err
		}
		inst := blk.PushPhi(ty, entries)
		vals[dst] = ir.Value(inst.ID())

	case "ret":
		rest = strings.TrimSpace(rest)
		if rest == "" {
			blk.PushRet(ir.InvalidValue)
			return nil
		}
		v, err := resolve(rest)
		if err != nil {
			return err
		}
		blk.PushRet(v)

	case "param":
		ty, err := parseType(typS)
		if err != nil {
			return err
		}
		idx, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return fmt.Errorf("irtext: bad param index %q: %w", rest, err)
		}
		inst := blk.PushParam(idx, ty)
		vals[dst] = ir.Value(inst.ID())

	case "call":
		name, args, err := splitCallNameAndArgs(rest)
		if err != nil {
			return err
		}
		callee, ok := known[name]
		if !ok {
			return fmt.Errorf("irtext: call to undefined function %q (define it earlier in the stream)", name)
		}
		var argVals []ir.Value
		for _, a := range args {
			v, err := resolve(a)
			if err != nil {
				return err
			}
			argVals = append(argVals, v)
		}
		inst := blk.PushCall(callee, argVals)
		vals[dst] = ir.Value(inst.ID())

	default:
		return fmt.Errorf("irtext: unknown instruction kind %q", kind)
	}
	return nil
}

// splitFirstToken splits "kind rest..." into its first whitespace-
// delimited token and the remainder.
func splitFirstToken(s string) (head, rest string) {
	fields := strings.SplitN(s, " ", 2)
	if len(fields) == 1 {
		return fields[0], ""
	}
	return fields[0], strings.TrimSpace(fields[1])
}

// splitKindType splits "kind.type" (e.g. "binop.i64") into ("binop",
// "i64"); kinds with no result (if, jump, ret) have no dot and are
// returned verbatim with an empty type.
func splitKindType(head string) (kind, typ string) {
	if dot := strings.IndexByte(head, '.'); dot >= 0 {
		return head[:dot], head[dot+1:]
	}
	return head, ""
}

// splitOpAndArgs splits "op a, b" into ("op", ["a", "b"]).
func splitOpAndArgs(s string) (op string, args []string, err error) {
	op, rest := splitFirstToken(s)
	if op == "" {
		return "", nil, fmt.Errorf("irtext: missing operator in %q", s)
	}
	return op, splitCommaArgs(rest), nil
}

func splitCommaArgs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

// splitCallNameAndArgs parses "name(a, b)".
func splitCallNameAndArgs(s string) (name string, args []string, err error) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return "", nil, fmt.Errorf("irtext: malformed call %q", s)
	}
	name = strings.TrimSpace(s[:open])
	inner := s[open+1 : len(s)-1]
	return name, splitCommaArgs(inner), nil
}

// parsePhiEntries parses "[blockA: vX], [blockB: vY]".
func parsePhiEntries(s string, vals map[string]ir.Value, blocks map[string]ir.BlockID) ([]ir.PhiEntry, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var entries []ir.PhiEntry
	for _, raw := range strings.Split(s, "], [") {
		raw = strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
		parts := strings.SplitN(raw, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("irtext: malformed phi entry %q", raw)
		}
		pred := strings.TrimSpace(parts[0])
		valTok := strings.TrimSpace(parts[1])
		b, ok := blocks[pred]
		if !ok {
			return nil, fmt.Errorf("irtext: phi entry references undefined block %q", pred)
		}
		v, ok := vals[valTok]
		if !ok {
			return nil, fmt.Errorf("irtext: phi entry references undefined value %q", valTok)
		}
		entries = append(entries, ir.PhiEntry{Pred: b, Val: v})
	}
	return entries, nil
}
