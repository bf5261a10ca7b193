package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/loopjit/ssacore/internal/irtext"
	"github.com/loopjit/ssacore/internal/pipeline"
	"github.com/loopjit/ssacore/internal/ssalog"
)

type runOptions struct {
	input     string
	passes    string
	format    string
	regallocK string
	logLevel  string
}

// addRunFlags binds runOptions onto flags, grounded on kubeadm's
// AddInitOtherFlags shape: one function, one *pflag.FlagSet parameter,
// flag names matching the option's field by intent rather than name.
func addRunFlags(flags *pflag.FlagSet, o *runOptions) {
	flags.StringVar(&o.input, "input", "-", "path to a textual IR file (\"-\" for stdin)")
	flags.StringVar(&o.passes, "passes", "", "comma-separated pass list, run in the order given (foldconst, peephole, checkelim, inline)")
	flags.StringVar(&o.format, "format", "text", "output format: text or dot")
	flags.StringVar(&o.regallocK, "regalloc-k", "", "if set, run register allocation with this many physical registers and print the resulting map")
	flags.StringVar(&o.logLevel, "log-level", "info", "zap log level for pass-boundary logging (debug, info, warn, error)")
}

func newRunCommand() *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Parse textual IR, run the given passes, and dump the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, o)
		},
	}
	addRunFlags(cmd.Flags(), o)
	return cmd
}

func runRun(cmd *cobra.Command, o *runOptions) error {
	level, err := parseLevel(o.logLevel)
	if err != nil {
		return err
	}
	logger, err := ssalog.New(level)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	var src io.Reader = cmd.InOrStdin()
	if o.input != "-" {
		f, err := os.Open(o.input)
		if err != nil {
			return fmt.Errorf("opening %s: %w", o.input, err)
		}
		defer f.Close()
		src = f
	}

	fn, err := irtext.Parse(src)
	if err != nil {
		return fmt.Errorf("parsing IR: %w", err)
	}

	p := pipeline.New(fn, logger)

	if o.passes != "" {
		for _, name := range strings.Split(o.passes, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if err := p.ByName(name); err != nil {
				return fmt.Errorf("pass %q: %w", name, err)
			}
		}
	}

	switch o.format {
	case "text":
		fmt.Fprint(cmd.OutOrStdout(), irtext.Dump(fn))
	case "dot":
		fmt.Fprint(cmd.OutOrStdout(), irtext.DOT(fn))
	default:
		return fmt.Errorf("unknown --format %q (want text or dot)", o.format)
	}

	if o.regallocK != "" {
		k, err := strconv.Atoi(o.regallocK)
		if err != nil {
			return fmt.Errorf("invalid --regalloc-k %q: %w", o.regallocK, err)
		}
		alloc := p.RegAlloc(k)
		printRegMap(cmd, fn, alloc)
	}
	return nil
}
