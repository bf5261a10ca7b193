// Package inline implements spec section 4.11's pass boundary: collect
// every Call site in fn, verify it, and expand it in place.
//
// The mechanical expansion itself (block split, clone+remap migration
// of the callee's blocks, param/return wiring, CFG grafting) lives in
// internal/ir/inline.go — it needs unexported Instruction/Block fields
// that only package ir can touch (see DESIGN.md). This package is the
// thin RPO driver foldconst/peephole/checkelim also use, narrowed to
// the one candidate shape: OpCall.
package inline

import (
	"github.com/loopjit/ssacore/internal/cfg"
	"github.com/loopjit/ssacore/internal/ir"
	"github.com/loopjit/ssacore/internal/ssaerr"
)

// Run expands every Call in fn, processing call sites in RPO (spec
// section 5: "RPO for C8/C9/C10/C11"). A call site whose arguments
// don't match the callee's signature is left un-inlined and its
// problem is aggregated into the returned error; every other call
// site is still expanded, so one bad call site doesn't block the
// whole pass.
func Run(fn *ir.Func) error {
	order := cfg.ReversePostorder(fn).RPO

	var candidates []ir.InstructionID
	for _, bid := range order {
		fn.Block(bid).Each(func(inst *ir.Instruction) bool {
			if inst.Op() == ir.OpCall {
				candidates = append(candidates, inst.ID())
			}
			return true
		})
	}

	var problems []error
	for _, id := range candidates {
		call := fn.Instr(id)
		if call.Erased() {
			continue
		}
		if err := fn.VerifyCall(call); err != nil {
			problems = append(problems, err)
			continue
		}
		fn.InlineCall(call)
	}

	if len(problems) == 0 {
		return nil
	}
	return ssaerr.NewVerification(problems...)
}
