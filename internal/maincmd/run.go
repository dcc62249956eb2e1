package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/loxvm/lang/compiler"
	"github.com/mna/loxvm/lang/heap"
	"github.com/mna/loxvm/lang/natives"
	"github.com/mna/loxvm/lang/vm"
)

// Run executes the run command: read a Lox source (from -c or a file
// path), compile it and interpret the result. Compile errors and runtime
// errors are reported on stdio.Stderr and cause a non-zero exit (spec.md
// §6 "CLI"); ctx carries no cancellation into the interpreter itself,
// since the VM has no step-limit or cooperative-cancellation machinery
// (lang/vm's own doc comment) — it is threaded through only because
// buildCmds requires this exact method shape.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var source, name string
	if c.Source != "" {
		source, name = c.Source, "-c"
	} else {
		path := args[0]
		b, err := os.ReadFile(path)
		if err != nil {
			return printError(stdio, fmt.Errorf("run: %w", err))
		}
		source, name = string(b), path
	}
	return RunSource(ctx, stdio, source, name, c.StressGC, c.GCInitialThreshold)
}

// RunSource compiles source (named only for diagnostics) and, on success,
// interprets it on a fresh Thread backed by a fresh Heap configured with
// gcInitialThreshold and stressGC (spec.md §6's --gc-initial-collection-
// threshold and --stress-gc flags). Every function package lang/natives
// registers is defined as a const global before the script's first
// instruction runs, the same way the teacher's ParseFiles/TokenizeFiles
// helpers are the reusable core behind their one-line Cmd methods.
func RunSource(_ context.Context, stdio mainer.Stdio, source, name string, stressGC bool, gcInitialThreshold uint64) error {
	h := heap.New(gcInitialThreshold, stressGC)
	fn, errs := compiler.Compile(source, h)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", name, err)
		}
		return errs[0]
	}

	th := vm.New(h, stdio.Stdout)
	for _, nf := range natives.All() {
		th.DefineNative(nf)
	}

	if err := th.Interpret(fn); err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return err
	}
	return nil
}
