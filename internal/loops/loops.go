// Package loops classifies natural loops from back edges and a
// dominator tree, building the loop forest of spec section 4.4.
//
// Grounded on the teacher's subPassLoopDetection
// (internal/_teacherref/ssa/pass_cfg.go), which flags a block as a
// loop header whenever one of its predecessors is dominated by it —
// exactly the back-edge test this package uses — generalized from a
// boolean per-block flag into the full Loop structure (header, ordered
// body, nesting, reducible/irreducible classification, and a synthetic
// root loop for free blocks) the spec requires.
package loops

import (
	"github.com/loopjit/ssacore/internal/cfg"
	"github.com/loopjit/ssacore/internal/domtree"
	"github.com/loopjit/ssacore/internal/ir"
)

// BodyItem is one entry of a Loop's ordered body: either a plain block
// or a token standing in for an entire nested loop (spec section 4.4's
// "body (blocks plus inner-loop tokens)").
type BodyItem struct {
	Block ir.BlockID
	Inner *Loop
}

// IsLoop reports whether this item is an inner-loop token rather than
// a plain block.
func (b BodyItem) IsLoop() bool { return b.Inner != nil }

// Loop is one natural loop: a header block plus every block in its
// body, discovered by walking predecessors backward from a back
// edge's tail until the header is reached (spec section 4.4).
type Loop struct {
	Header          ir.BlockID
	Body            map[ir.BlockID]bool
	BodyOrder       []BodyItem
	BackEdgeSources []ir.BlockID
	Parent          *Loop
	Children        []*Loop
	Reducible       bool
}

// LinearOrder is the loop's linear body order (spec section 4.4's
// final paragraph, used by C5/internal/linorder): header first, then,
// in reverse of body-insertion order, each body item — a block is
// emitted directly, an inner-loop token recursively expands to that
// loop's own linear order.
func (l *Loop) LinearOrder() []ir.BlockID {
	out := make([]ir.BlockID, 0, len(l.Body))
	out = append(out, l.Header)
	for i := len(l.BodyOrder) - 1; i >= 0; i-- {
		item := l.BodyOrder[i]
		if item.IsLoop() {
			out = append(out, item.Inner.LinearOrder()...)
		} else {
			out = append(out, item.Block)
		}
	}
	return out
}

// Forest is the set of top-level loops discovered in one function,
// plus a lookup from block to its innermost containing loop, plus a
// synthetic Root loop gathering every block outside any real loop
// (spec section 4.4: "only created when free nodes exist outside any
// loop"). Root is nil when every reachable block belongs to some loop.
type Forest struct {
	Top       []*Loop
	Root      *Loop
	Innermost map[ir.BlockID]*Loop
}

// Build discovers fn's natural loops. A back edge h->t (where t
// dominates h, "a head block h jumps to a target t that dominates it")
// is reducible; a back edge whose target does not dominate its head is
// irreducible, per spec section 4.4 — this package still records it as
// a loop whose body is only its back-edge sources (step 4), marked
// Reducible=false. internal/linorder does not reject such loops: it
// places their blocks one at a time in reverse postorder.
func Build(fn *ir.Func, tree *domtree.Tree) *Forest {
	type backEdge struct{ head, target ir.BlockID }
	var backEdges []backEdge
	cfg.Walk(fn, func(from, to ir.BlockID) {
		backEdges = append(backEdges, backEdge{head: from, target: to})
	})

	headerLoop := make(map[ir.BlockID]*Loop)
	var order []ir.BlockID // headers in discovery order, for deterministic Top ordering
	for _, be := range backEdges {
		l, ok := headerLoop[be.target]
		if !ok {
			l = &Loop{Header: be.target, Body: map[ir.BlockID]bool{be.target: true}, Reducible: true}
			headerLoop[be.target] = l
			order = append(order, be.target)
		}
		l.BackEdgeSources = append(l.BackEdgeSources, be.head)
		if !tree.Dominates(be.target, be.head) {
			l.Reducible = false
		}
	}

	for _, h := range order {
		l := headerLoop[h]
		if l.Reducible {
			for _, src := range l.BackEdgeSources {
				collectBody(fn, src, l)
			}
		} else {
			// Step 4: irreducible loops receive only the set of
			// back-edge sources as body, no predecessor closure.
			for _, src := range l.BackEdgeSources {
				l.Body[src] = true
			}
		}
	}

	// Nest loops: a loop A is nested inside B if A's header is in B's
	// body (and A != B). Each loop gets exactly one parent — the
	// smallest enclosing body — since natural loops of a reducible CFG
	// nest properly.
	var top []*Loop
	for _, h := range order {
		l := headerLoop[h]
		var parent *Loop
		for _, h2 := range order {
			if h2 == h {
				continue
			}
			cand := headerLoop[h2]
			if cand.Body[h] && (parent == nil || len(cand.Body) < len(parent.Body)) {
				parent = cand
			}
		}
		l.Parent = parent
		if parent != nil {
			parent.Children = append(parent.Children, l)
		} else {
			top = append(top, l)
		}
	}

	innermost := make(map[ir.BlockID]*Loop)
	for _, h := range order {
		l := headerLoop[h]
		for blk := range l.Body {
			cur, ok := innermost[blk]
			if !ok || len(l.Body) < len(cur.Body) {
				innermost[blk] = l
			}
		}
	}

	for _, h := range order {
		buildBodyOrder(fn, headerLoop[h])
	}

	root := buildRoot(fn, top, innermost)

	return &Forest{Top: top, Root: root, Innermost: innermost}
}

// buildBodyOrder populates l.BodyOrder: for a reducible loop, a
// backward walk from every back-edge source, collapsing any block
// that belongs to one of l's direct children into a single inner-loop
// token (spec section 4.4 step 3's "the owner... becomes an inner of
// this loop") and continuing the walk past that child's external
// entry edges rather than into its body. An irreducible loop's body
// order is just its back-edge sources (step 4).
func buildBodyOrder(fn *ir.Func, l *Loop) {
	if !l.Reducible {
		for _, src := range l.BackEdgeSources {
			l.BodyOrder = append(l.BodyOrder, BodyItem{Block: src})
		}
		return
	}

	childOf := make(map[ir.BlockID]*Loop)
	for _, c := range l.Children {
		for b := range c.Body {
			childOf[b] = c
		}
	}

	visited := map[ir.BlockID]bool{l.Header: true}
	seenChild := map[*Loop]bool{}
	stack := append([]ir.BlockID(nil), l.BackEdgeSources...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[n] {
			continue
		}
		if c, ok := childOf[n]; ok {
			if !seenChild[c] {
				seenChild[c] = true
				l.BodyOrder = append(l.BodyOrder, BodyItem{Inner: c})
			}
			for b := range c.Body {
				visited[b] = true
			}
			for _, p := range fn.Block(c.Header).Preds() {
				if !c.Body[p] {
					stack = append(stack, p)
				}
			}
			continue
		}
		visited[n] = true
		l.BodyOrder = append(l.BodyOrder, BodyItem{Block: n})
		for _, p := range fn.Block(n).Preds() {
			if p != l.Header {
				stack = append(stack, p)
			}
		}
	}
}

// buildRoot gathers every block reachable in fn but never bound to any
// loop into a synthetic root loop (spec section 4.4 step 5), or
// returns nil if no such free block exists.
func buildRoot(fn *ir.Func, top []*Loop, innermost map[ir.BlockID]*Loop) *Loop {
	rpo := cfg.ReversePostorder(fn).RPO

	free := map[ir.BlockID]bool{}
	for _, bid := range rpo {
		if _, ok := innermost[bid]; !ok {
			free[bid] = true
		}
	}
	if len(free) == 0 {
		return nil
	}

	root := &Loop{Header: ir.InvalidBlockID, Body: free, Children: top}
	for _, blk := range rpo {
		if free[blk] {
			root.BodyOrder = append(root.BodyOrder, BodyItem{Block: blk})
		}
	}
	for _, t := range top {
		t.Parent = root
	}
	return root
}

// collectBody walks predecessors backward from head until it reaches
// l's header, adding every block it passes through to l.Body. This is
// the standard natural-loop body construction: the header plus every
// block that can reach the back edge's head without going back through
// the header.
func collectBody(fn *ir.Func, head ir.BlockID, l *Loop) {
	if l.Body[head] {
		return
	}
	var stack []ir.BlockID
	l.Body[head] = true
	stack = append(stack, head)
	for len(stack) > 0 {
		n := len(stack) - 1
		blk := stack[n]
		stack = stack[:n]
		for _, pred := range fn.Block(blk).Preds() {
			if !l.Body[pred] {
				l.Body[pred] = true
				stack = append(stack, pred)
			}
		}
	}
}

// LoopFor returns the innermost loop containing blk, or nil if blk is
// not part of any loop. Free blocks gathered under Forest.Root are
// deliberately excluded from this lookup: Root is a structural anchor
// for the forest, not itself "a loop" a consumer like
// internal/linorder/internal/liveness should treat as one.
func (f *Forest) LoopFor(blk ir.BlockID) *Loop { return f.Innermost[blk] }
