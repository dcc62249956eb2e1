package maincmd_test

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/loxvm/internal/filetest"
	"github.com/mna/loxvm/internal/maincmd"
)

var testUpdateRunTests = flag.Bool("test.update-run-tests", false, "If set, replace expected run test results with actual results.")

// TestRun runs every fixture under testdata/in against RunSource and diffs
// stdout against the matching testdata/out/<name>.want golden file — the
// end-to-end scenarios (while loop, closures, inheritance, list/map
// natives) straight from spec.md §8.
func TestRun(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")
	ctx := context.Background()

	for _, fi := range filetest.SourceFiles(t, srcDir, ".lox") {
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join(srcDir, fi.Name()))
			require.NoError(t, err)

			var buf, ebuf bytes.Buffer
			stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}
			err = maincmd.RunSource(ctx, stdio, string(src), fi.Name(), false, 0)
			require.NoError(t, err, "stderr: %s", ebuf.String())

			filetest.DiffOutput(t, fi, buf.String(), resultDir, testUpdateRunTests)
		})
	}
}

// TestRunStressGC re-runs every fixture with --stress-gc and a tiny initial
// threshold, asserting byte-identical stdout to the default run: spec.md
// §8's "Stress tests" invariant that a collection between any two
// allocations never changes a program's observable output.
func TestRunStressGC(t *testing.T) {
	srcDir := filepath.Join("testdata", "in")
	ctx := context.Background()

	for _, fi := range filetest.SourceFiles(t, srcDir, ".lox") {
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join(srcDir, fi.Name()))
			require.NoError(t, err)

			var buf, ebuf bytes.Buffer
			stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}
			err = maincmd.RunSource(ctx, stdio, string(src), fi.Name(), true, 1024)
			require.NoError(t, err, "stderr: %s", ebuf.String())

			wantb, err := os.ReadFile(filepath.Join("testdata", "out", fi.Name()+".want"))
			require.NoError(t, err)
			assert.Equal(t, string(wantb), buf.String())
		})
	}
}

// TestConstGlobalReassignmentIsCompileError covers spec.md §8 scenario 6:
// `const x = 10; x = 20;` never produces an executable.
func TestConstGlobalReassignmentIsCompileError(t *testing.T) {
	var buf, ebuf bytes.Buffer
	stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}
	err := maincmd.RunSource(context.Background(), stdio, "const x = 10; x = 20;", "-c", false, 0)
	require.Error(t, err)
	assert.Empty(t, buf.String())
	assert.Contains(t, ebuf.String(), "const")
}

// TestDisassembleSource covers the disassemble command: it must print the
// top-level chunk plus every nested function's chunk, never execute the
// script (no stdout from a print/echo in the source would otherwise leak
// in), and surface compile errors the same way run does.
func TestDisassembleSource(t *testing.T) {
	var buf, ebuf bytes.Buffer
	stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}
	err := maincmd.DisassembleSource(context.Background(), stdio, `
		fun greet() { echo "hi"; }
		greet();
	`, "-c")
	require.NoError(t, err, "stderr: %s", ebuf.String())

	out := buf.String()
	assert.Contains(t, out, "== -c ==")
	assert.Contains(t, out, "== greet ==")
	assert.Contains(t, out, "PRINT")
	assert.NotContains(t, out, "hi\n")
}

func TestDisassembleSourceReportsCompileErrors(t *testing.T) {
	var buf, ebuf bytes.Buffer
	stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}
	err := maincmd.DisassembleSource(context.Background(), stdio, "const x;", "-c")
	require.Error(t, err)
	assert.Empty(t, buf.String())
	assert.NotEmpty(t, ebuf.String())
}
