package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/loxvm/lang/compiler"
	"github.com/mna/loxvm/lang/heap"
	"github.com/mna/loxvm/lang/value"
)

// Disassemble executes the disassemble command: compile a script the same
// way Run does, but print its bytecode listing instead of interpreting it.
func (c *Cmd) Disassemble(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var source, name string
	if c.Source != "" {
		source, name = c.Source, "-c"
	} else {
		path := args[0]
		b, err := os.ReadFile(path)
		if err != nil {
			return printError(stdio, fmt.Errorf("disassemble: %w", err))
		}
		source, name = string(b), path
	}
	return DisassembleSource(ctx, stdio, source, name)
}

// DisassembleSource compiles source and writes a listing of its top-level
// chunk and every nested function's chunk to stdio.Stdout, depth-first,
// the way kristofer-smog's disassembler walks a chunk's constant pool for
// nested function prototypes.
func DisassembleSource(_ context.Context, stdio mainer.Stdio, source, name string) error {
	h := heap.New(0, false)
	fn, errs := compiler.Compile(source, h)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", name, err)
		}
		return errs[0]
	}
	disassembleFunction(stdio, fn, name)
	return nil
}

func disassembleFunction(stdio mainer.Stdio, fn *value.Function, name string) {
	value.Disassemble(stdio.Stdout, fn.Chunk, name)
	for _, k := range fn.Chunk.Constants {
		if nested, ok := k.(*value.Function); ok {
			nestedName := nested.Name
			if nestedName == "" {
				nestedName = "<script>"
			}
			disassembleFunction(stdio, nested, nestedName)
		}
	}
}
