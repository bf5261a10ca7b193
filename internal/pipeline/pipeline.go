// Package pipeline implements spec section 4.14: a pass manager that
// holds one function plus a set of lazily-computed, wholesale-
// invalidated analyses, and wires internal/ssalog/internal/ssaerr
// around every pass boundary the way section 5 specifies ("analyses
// are invalidated wholesale when an optimization mutates the IR; the
// pipeline must re-run an analysis before the next consumer").
//
// Grounded on the teacher's own top-level optimize() driver
// (internal/_teacherref/ssa/opt.go), which runs a fixed sequence of
// passes over one *builder and recomputes CFG-derived state (RPO,
// dominators) between passes rather than trusting stale state;
// generalized here into an explicit cache-and-invalidate object since
// this module's analyses (DomTree, Forest, linorder.Order, Liveness,
// regalloc.Allocation) are separate types a front-end driver needs to
// hold onto, not just transient builder-local slices.
package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/loopjit/ssacore/internal/domtree"
	"github.com/loopjit/ssacore/internal/ir"
	"github.com/loopjit/ssacore/internal/liveness"
	"github.com/loopjit/ssacore/internal/linorder"
	"github.com/loopjit/ssacore/internal/loops"
	"github.com/loopjit/ssacore/internal/passes/checkelim"
	"github.com/loopjit/ssacore/internal/passes/foldconst"
	"github.com/loopjit/ssacore/internal/passes/inline"
	"github.com/loopjit/ssacore/internal/passes/peephole"
	"github.com/loopjit/ssacore/internal/regalloc"
	"github.com/loopjit/ssacore/internal/ssaerr"
	"github.com/loopjit/ssacore/internal/ssalog"
)

// Pipeline owns fn exclusively for the duration of its use (spec
// section 5: "the IR graph is exclusively owned by the pass manager
// running the pipeline"), plus a cache of derived analyses.
type Pipeline struct {
	fn     *ir.Func
	logger *zap.Logger

	domTree  *domtree.Tree
	forest   *loops.Forest
	order    *linorder.Order
	liveness *liveness.Liveness
	regK     int
	regMap   *regalloc.Allocation
}

// New wraps fn. logger may be nil, in which case pass boundaries are
// not logged (useful for tests that don't want zap's output).
func New(fn *ir.Func, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{fn: fn, logger: ssalog.Component(logger, "pipeline")}
}

// Func returns the function the pipeline operates on.
func (p *Pipeline) Func() *ir.Func { return p.fn }

// DomTree returns the cached dominator tree, computing it on cache
// miss only.
func (p *Pipeline) DomTree() *domtree.Tree {
	if p.domTree == nil {
		p.domTree = domtree.Build(p.fn)
	}
	return p.domTree
}

// Loops returns the cached loop forest, computing it (and its
// dependency, DomTree) on cache miss only.
func (p *Pipeline) Loops() *loops.Forest {
	if p.forest == nil {
		p.forest = loops.Build(p.fn, p.DomTree())
	}
	return p.forest
}

// LinOrder returns the cached linear order, computing it (and its
// dependency, Loops) on cache miss only.
func (p *Pipeline) LinOrder() linorder.Order {
	if p.order == nil {
		o := linorder.Build(p.fn, p.Loops())
		p.order = &o
	}
	return *p.order
}

// Liveness returns the cached liveness result, computing it (and its
// dependencies, LinOrder and Loops) on cache miss only.
func (p *Pipeline) Liveness() *liveness.Liveness {
	if p.liveness == nil {
		p.liveness = liveness.Compute(p.fn, p.LinOrder(), p.Loops())
	}
	return p.liveness
}

// RegAlloc returns the cached register allocation for k physical
// registers, recomputing it whenever k changes from the last call or
// the cache has been invalidated.
func (p *Pipeline) RegAlloc(k int) *regalloc.Allocation {
	if p.regMap == nil || p.regK != k {
		p.regMap = regalloc.Compute(p.fn, p.Liveness(), k)
		p.regK = k
	}
	return p.regMap
}

// invalidate drops every cached analysis. Called after every pass
// Run executes, regardless of whether that pass actually changed
// anything — spec section 5's "wholesale" invalidation, not a
// mutation-tracking one, matching the original's practice of simply
// recomputing RPO/dominators fresh before every pass that needs them.
func (p *Pipeline) invalidate() {
	p.domTree = nil
	p.forest = nil
	p.order = nil
	p.liveness = nil
	p.regMap = nil
	p.regK = 0
}

// Run executes one named pass against the pipeline's function,
// logging its name, duration, and whether the dump changed, then
// invalidates every cached analysis (spec section 4.14). A returned
// *ssaerr.ArithmeticError or *ssaerr.VerificationError is logged at
// warn level and returned unchanged — never swallowed (spec section
// 7) — while every other error is logged at error level.
func (p *Pipeline) Run(name string, pass func(*ir.Func) error) error {
	before := p.fn.Dump()
	start := time.Now()
	err := pass(p.fn)
	dur := time.Since(start)
	p.invalidate()

	mutated := before != p.fn.Dump()
	fields := []zap.Field{
		zap.String("pass", name),
		zap.Duration("duration", dur),
		zap.Bool("mutated", mutated),
	}

	switch {
	case err == nil:
		p.logger.Info("pass complete", fields...)
	case ssaerr.IsRecoverable(err):
		p.logger.Warn("pass returned a recoverable error", append(fields, zap.Error(err))...)
	default:
		p.logger.Error("pass failed", append(fields, zap.Error(err))...)
	}
	return err
}

// FoldConst runs internal/passes/foldconst (spec section 4.8).
func (p *Pipeline) FoldConst() error {
	return p.Run("foldconst", foldconst.Run)
}

// Peephole runs internal/passes/peephole (spec section 4.9).
func (p *Pipeline) Peephole() error {
	return p.Run("peephole", func(fn *ir.Func) error {
		peephole.Run(fn)
		return nil
	})
}

// CheckElim runs internal/passes/checkelim (spec section 4.10),
// supplying it the pipeline's own cached dominator tree.
func (p *Pipeline) CheckElim() error {
	tree := p.DomTree()
	return p.Run("checkelim", func(fn *ir.Func) error {
		checkelim.Run(fn, tree)
		return nil
	})
}

// Inline runs internal/passes/inline (spec section 4.11).
func (p *Pipeline) Inline() error {
	return p.Run("inline", inline.Run)
}

// ByName dispatches to one of the four named passes above, for a
// driver (cmd/ssaopt) that takes a pass list as a flag value rather
// than a compiled-in call sequence.
func (p *Pipeline) ByName(name string) error {
	switch name {
	case "foldconst":
		return p.FoldConst()
	case "peephole":
		return p.Peephole()
	case "checkelim":
		return p.CheckElim()
	case "inline":
		return p.Inline()
	default:
		return ssaerr.Problemf("pipeline: unknown pass %q", name)
	}
}
