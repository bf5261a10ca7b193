// Package cfg implements control-flow graph traversal over an
// internal/ir function: preorder, postorder, and reverse-postorder
// numbering, plus back-edge detection, all from one iterative
// explicit-stack depth-first search (spec section 4.2).
//
// Grounded on the teacher's passCalculateImmediateDominators
// (internal/_teacherref/ssa/pass_cfg.go), which walks successors with
// an explicit stack and a three-state visited array instead of
// recursion "so we could potentially handle arbitrarily complex CFGs".
// This package generalizes that one-shot walk (which only produced a
// reverse-postorder array for dominator calculation) into a reusable
// traversal that additionally reports preorder, true postorder, and
// back edges, since internal/domtree, internal/loops, and
// internal/linorder each need a different view of the same walk.
package cfg

import "github.com/loopjit/ssacore/internal/ir"

const (
	stateUnseen = iota
	stateOnStack
	stateDone
)

// Order is the result of one depth-first walk from fn's entry block.
type Order struct {
	// Pre lists every reachable block in the order DFS first visits it.
	Pre []ir.BlockID
	// Post lists every reachable block in the order DFS finishes it
	// (all descendants visited first).
	Post []ir.BlockID
	// RPO is Post reversed: a valid topological order for any acyclic
	// sub-DAG of the CFG, and the numbering internal/domtree and
	// internal/linorder both build on.
	RPO []ir.BlockID
	// Index maps a block id to its position in RPO, or -1 if
	// unreachable from the entry block.
	Index map[ir.BlockID]int
}

// frame is one explicit-stack activation: blk is being visited, and
// nextSucc is the index of the next successor edge to explore.
type frame struct {
	blk      ir.BlockID
	nextSucc int
}

// Walk runs one iterative DFS from fn's entry block. onBackEdge, if
// non-nil, is called once for every edge (from, to) where to is
// already on the current DFS stack (state stateOnStack) when from
// explores it — exactly the definition of a back edge the spec's
// natural-loop analysis (section 4.4) needs.
//
// Unreachable blocks (no path from entry) are omitted from every
// field of Order, matching the spec's "CFG traversal only visits
// reachable blocks" note.
func Walk(fn *ir.Func, onBackEdge func(from, to ir.BlockID)) Order {
	state := make(map[ir.BlockID]int, len(fn.Blocks()))
	for _, b := range fn.Blocks() {
		state[b] = stateUnseen
	}

	var pre, post []ir.BlockID
	stack := []frame{{blk: fn.EntryID()}}
	state[fn.EntryID()] = stateOnStack
	pre = append(pre, fn.EntryID())

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		succs := fn.Block(top.blk).Succs()
		if top.nextSucc >= len(succs) {
			state[top.blk] = stateDone
			post = append(post, top.blk)
			stack = stack[:len(stack)-1]
			continue
		}
		succ := succs[top.nextSucc]
		top.nextSucc++
		switch state[succ] {
		case stateUnseen:
			state[succ] = stateOnStack
			pre = append(pre, succ)
			stack = append(stack, frame{blk: succ})
		case stateOnStack:
			if onBackEdge != nil {
				onBackEdge(top.blk, succ)
			}
		case stateDone:
			// Forward or cross edge; nothing to record.
		}
	}

	rpo := make([]ir.BlockID, len(post))
	for i, b := range post {
		rpo[len(post)-1-i] = b
	}
	index := make(map[ir.BlockID]int, len(rpo))
	for _, b := range fn.Blocks() {
		index[b] = -1
	}
	for i, b := range rpo {
		index[b] = i
	}

	return Order{Pre: pre, Post: post, RPO: rpo, Index: index}
}

// ReversePostorder is a convenience wrapper around Walk for callers
// that only need the RPO numbering (internal/domtree, internal/linorder).
func ReversePostorder(fn *ir.Func) Order {
	return Walk(fn, nil)
}
