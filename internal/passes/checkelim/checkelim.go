// Package checkelim implements spec section 4.10: remove a redundant
// guard check when an equivalent earlier check already dominates it.
//
// Grounded on original_source's opt/checks_elimination.hh: candidates
// are collected once in RPO, each checked input's users are scanned
// for a matching guard, and a dominance test via the dominator tree
// decides redundancy. That original never migrates a check's own
// users before erasing it — ZeroCheck/BoundsCheck are guards whose
// produced value nothing in this IR actually consumes — so this
// package follows suit: no Replace step, only detach-and-erase.
package checkelim

import (
	"github.com/loopjit/ssacore/internal/cfg"
	"github.com/loopjit/ssacore/internal/domtree"
	"github.com/loopjit/ssacore/internal/ir"
)

// Run removes every redundant ZeroCheck/BoundsCheck in fn, given its
// precomputed dominator tree.
func Run(fn *ir.Func, tree *domtree.Tree) {
	order := cfg.ReversePostorder(fn).RPO

	pos := make(map[ir.InstructionID]int)
	var candidates []ir.InstructionID
	for _, bid := range order {
		i := 0
		fn.Block(bid).Each(func(inst *ir.Instruction) bool {
			pos[inst.ID()] = i
			i++
			if isCheck(inst) {
				candidates = append(candidates, inst.ID())
			}
			return true
		})
	}

	for _, id := range candidates {
		c := fn.Instr(id)
		if c.Erased() {
			continue
		}
		if dominatingCheckExists(fn, tree, pos, c) {
			fn.Erase(c)
		}
	}
}

func isCheck(inst *ir.Instruction) bool {
	switch inst.Op() {
	case ir.OpUnaryOp:
		return inst.UnaryOpKind() == ir.UnaryOpZeroCheck
	case ir.OpBinOp:
		return inst.BinOpKind() == ir.BinOpBoundsCheck
	default:
		return false
	}
}

// dominatingCheckExists reports whether some other, not-yet-erased
// check of matching shape on c's checked value dominates c.
func dominatingCheckExists(fn *ir.Func, tree *domtree.Tree, pos map[ir.InstructionID]int, c *ir.Instruction) bool {
	v := c.Inputs()[0]
	checkedVal := fn.Instr(ir.InstructionID(v))

	for _, uid := range checkedVal.Users() {
		if uid == c.ID() {
			continue
		}
		cand := fn.Instr(uid)
		if cand.Erased() || !sameShape(c, cand) {
			continue
		}
		if dominatesInst(fn, tree, pos, cand, c) {
			return true
		}
	}
	return false
}

// sameShape reports whether cand is a check of the same kind as c,
// and — for BoundsCheck — checks against the same bound value.
func sameShape(c, cand *ir.Instruction) bool {
	if cand.Op() != c.Op() {
		return false
	}
	switch c.Op() {
	case ir.OpUnaryOp:
		return cand.UnaryOpKind() == c.UnaryOpKind()
	case ir.OpBinOp:
		return cand.BinOpKind() == c.BinOpKind() && cand.Inputs()[1] == c.Inputs()[1]
	default:
		return false
	}
}

// dominatesInst reports whether earlier dominates later at the
// instruction level: either it sits in a block that strictly
// dominates later's block, or the two share a block and earlier
// precedes later in program order (block-level dominance alone is
// reflexive and would otherwise treat same-block instructions as
// mutually dominating regardless of position).
func dominatesInst(fn *ir.Func, tree *domtree.Tree, pos map[ir.InstructionID]int, earlier, later *ir.Instruction) bool {
	eb, lb := earlier.Block(), later.Block()
	if eb == lb {
		return pos[earlier.ID()] < pos[later.ID()]
	}
	return tree.StrictlyDominates(eb, lb)
}
