// Command ssaopt is the CLI driver of spec section 4.17: a thin
// wrapper that parses textual IR, runs a requested pass list through
// internal/pipeline, and dumps the result — "the sanctioned way to
// exercise the whole pipeline without a real front-end."
//
// Grounded on kubernetes-kubernetes's cobra/pflag command wiring
// (cmd/kubeadm/app/cmd/init.go's NewCmdInit): one constructor per
// command returning a *cobra.Command, flags bound onto cmd.Flags()
// (a *pflag.FlagSet) by a small helper rather than inline in Run.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.uber.org/zap/zapcore"
)

// NewRootCommand builds the "ssaopt" root command and its "run"
// subcommand.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ssaopt",
		Short:         "Exercise the ssacore optimization pipeline over textual IR",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand())
	return root
}

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ssaopt:", err)
		os.Exit(1)
	}
}

// parseLevel maps a CLI string onto zapcore.Level the way kubeadm's
// own flag helpers map a string flag onto a typed value before
// handing it to the rest of the program.
func parseLevel(s string) (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid --log-level %q: %w", s, err)
	}
	return lvl, nil
}
