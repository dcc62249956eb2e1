package vm

import (
	"fmt"
	"strings"
)

// StackFrame is one entry in a RuntimeError's trace: the function name
// and source line active at the time of the error (spec.md §7: "prints
// the message plus a stack trace, innermost frame first with source
// line").
//
// Grounded on kristofer-smog's pkg/vm/errors.go StackFrame/RuntimeError
// shape, trimmed to the fields spec.md's trace format actually needs.
type StackFrame struct {
	Name string
	Line int
}

// RuntimeError is a Lox runtime error: a message plus the call stack
// active when it was raised, innermost frame first.
type RuntimeError struct {
	Message string
	Trace   []StackFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, fr := range e.Trace {
		fmt.Fprintf(&b, "\n[line %d] in %s", fr.Line, fr.Name)
	}
	return b.String()
}

// runtimeErrorf builds a RuntimeError from the current call stack,
// innermost frame first (spec.md §7).
func (th *Thread) runtimeErrorf(format string, args ...any) error {
	trace := make([]StackFrame, 0, len(th.frames))
	for i := len(th.frames) - 1; i >= 0; i-- {
		fr := th.frames[i]
		name := fr.closure.Function.Name
		if name == "" {
			name = "script"
		} else {
			name += "()"
		}
		line := fr.closure.Function.Chunk.Line(fr.ip - 1)
		trace = append(trace, StackFrame{Name: name, Line: line})
	}
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Trace: trace}
}

// RuntimeErrorf implements value.Context, letting native functions raise
// the same kind of error the VM itself does (spec.md §6 "Native calling
// convention").
func (th *Thread) RuntimeErrorf(format string, args ...any) error {
	return th.runtimeErrorf(format, args...)
}
