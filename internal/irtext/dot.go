package irtext

import (
	"fmt"
	"strings"

	"github.com/loopjit/ssacore/internal/ir"
)

// DOT renders fn's control-flow graph in Graphviz's dot language (spec
// section 6: "the CFG supports a DOT dump"). Grounded on the teacher's
// own graphviz-first debug output (internal/_teacherref/ssa's
// dumper, referenced from internal/ir/dump.go's doc comment) — this is
// the CFG-shaped counterpart to Dump's linear instruction listing:
// nodes are blocks labelled with their instructions, edges are
// successor links.
func DOT(fn *ir.Func) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph %s {\n", fn.Name)
	sb.WriteString("  node [shape=box, fontname=monospace];\n")

	for _, bid := range fn.Blocks() {
		blk := fn.Block(bid)
		var lines []string
		blk.Each(func(inst *ir.Instruction) bool {
			lines = append(lines, inst.DumpLine())
			return true
		})
		label := fmt.Sprintf("block%d", bid)
		if len(lines) > 0 {
			label += "\\l" + strings.Join(lines, "\\l") + "\\l"
		}
		fmt.Fprintf(&sb, "  block%d [label=\"%s\"];\n", bid, escapeDOT(label))
		for _, s := range blk.Succs() {
			fmt.Fprintf(&sb, "  block%d -> block%d;\n", bid, s)
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

func escapeDOT(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}
