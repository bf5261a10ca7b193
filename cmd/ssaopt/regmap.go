package main

import (
	"fmt"
	"io"

	"github.com/loopjit/ssacore/internal/ir"
	"github.com/loopjit/ssacore/internal/regalloc"
)

// printRegMap prints one "vN: regK" or "vN: stackK" line per
// value-producing instruction the allocator assigned a location to,
// walking fn in block order so the output is deterministic run to run.
func printRegMap(cmd cmdOut, fn *ir.Func, alloc *regalloc.Allocation) {
	out := cmd.OutOrStdout()
	for _, bid := range fn.Blocks() {
		fn.Block(bid).Each(func(inst *ir.Instruction) bool {
			if !inst.Op().ProducesValue() {
				return true
			}
			v := ir.Value(inst.ID())
			loc, ok := alloc.Location(v)
			if !ok {
				return true
			}
			if loc.OnStack {
				fmt.Fprintf(out, "%s: stack%d\n", v, loc.ID)
			} else {
				fmt.Fprintf(out, "%s: reg%d\n", v, loc.ID)
			}
			return true
		})
	}
}

// cmdOut narrows *cobra.Command to the one method printRegMap needs,
// so it stays trivially testable without constructing a real Command.
type cmdOut interface {
	OutOrStdout() io.Writer
}
