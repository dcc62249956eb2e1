package value

import (
	"fmt"
	"io"

	"github.com/mna/loxvm/lang/bytecode"
)

// Disassemble writes a human-readable listing of chunk to w, labeled name.
// It mirrors kristofer-smog's pkg/bytecode/format.go disassembler: one line
// per instruction, byte offset, source line (a "|" marker when unchanged
// from the previous instruction) and decoded operand.
func Disassemble(w io.Writer, chunk *Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(chunk.Code); {
		offset = disassembleInstruction(w, chunk, offset)
	}
}

func disassembleInstruction(w io.Writer, chunk *Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	line := chunk.Line(offset)
	if offset > 0 && line == chunk.Line(offset-1) {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", line)
	}

	op := bytecode.Opcode(chunk.Code[offset])
	switch op {
	case bytecode.NIL, bytecode.TRUE, bytecode.FALSE, bytecode.POP, bytecode.DUP,
		bytecode.EQUAL, bytecode.GREATER, bytecode.LESS, bytecode.ADD, bytecode.SUB,
		bytecode.MUL, bytecode.DIV, bytecode.NEGATE, bytecode.NOT, bytecode.RETURN,
		bytecode.INHERIT, bytecode.CLOSE_UPVALUE, bytecode.INDEX_GET, bytecode.INDEX_SET,
		bytecode.PRINT:
		fmt.Fprintln(w, op)
		return offset + 1

	case bytecode.CONST, bytecode.DEFINE_GLOBAL, bytecode.DEFINE_GLOBAL_CONST,
		bytecode.GET_GLOBAL, bytecode.SET_GLOBAL, bytecode.GET_PROPERTY,
		bytecode.SET_PROPERTY, bytecode.GET_SUPER, bytecode.CLASS, bytecode.METHOD:
		idx := int(chunk.Code[offset+1])
		fmt.Fprintf(w, "%-18s %4d '%s'\n", op, idx, constantRepr(chunk, idx))
		return offset + 2

	case bytecode.CONST_LONG, bytecode.DEFINE_GLOBAL_LONG, bytecode.DEFINE_GLOBAL_CONST_LONG,
		bytecode.GET_GLOBAL_LONG, bytecode.SET_GLOBAL_LONG, bytecode.GET_PROPERTY_LONG,
		bytecode.SET_PROPERTY_LONG, bytecode.GET_SUPER_LONG, bytecode.CLASS_LONG, bytecode.METHOD_LONG:
		idx := readU24(chunk.Code, offset+1)
		fmt.Fprintf(w, "%-18s %4d '%s'\n", op, idx, constantRepr(chunk, idx))
		return offset + 4

	case bytecode.GET_LOCAL, bytecode.SET_LOCAL, bytecode.GET_UPVALUE, bytecode.SET_UPVALUE,
		bytecode.CALL, bytecode.BUILD_LIST, bytecode.BUILD_MAP:
		fmt.Fprintf(w, "%-18s %4d\n", op, chunk.Code[offset+1])
		return offset + 2

	case bytecode.INVOKE, bytecode.SUPER_INVOKE:
		idx := readU24(chunk.Code, offset+1)
		argc := chunk.Code[offset+4]
		fmt.Fprintf(w, "%-18s %4d '%s' (%d args)\n", op, idx, constantRepr(chunk, idx), argc)
		return offset + 5

	case bytecode.JUMP, bytecode.JUMP_IF_FALSE:
		off := readU16(chunk.Code, offset+1)
		fmt.Fprintf(w, "%-18s %4d -> %d\n", op, offset, offset+3+int(off))
		return offset + 3

	case bytecode.LOOP:
		off := readU16(chunk.Code, offset+1)
		fmt.Fprintf(w, "%-18s %4d -> %d\n", op, offset, offset+3-int(off))
		return offset + 3

	case bytecode.CLOSURE:
		idx := readU24(chunk.Code, offset+1)
		fmt.Fprintf(w, "%-18s %4d '%s'\n", op, idx, constantRepr(chunk, idx))
		pos := offset + 4
		if fn, ok := chunk.Constants[idx].(*Function); ok {
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := chunk.Code[pos]
				index := chunk.Code[pos+1]
				kind := "upvalue"
				if isLocal != 0 {
					kind = "local"
				}
				fmt.Fprintf(w, "%04d      |                     %s %d\n", pos, kind, index)
				pos += 2
			}
		}
		return pos

	default:
		fmt.Fprintf(w, "unknown opcode %d\n", op)
		return offset + 1
	}
}

func constantRepr(chunk *Chunk, idx int) string {
	if idx < 0 || idx >= len(chunk.Constants) {
		return "?"
	}
	return chunk.Constants[idx].String()
}

func readU16(code []byte, offset int) uint16 {
	return uint16(code[offset])<<8 | uint16(code[offset+1])
}

func readU24(code []byte, offset int) int {
	return int(code[offset])<<16 | int(code[offset+1])<<8 | int(code[offset+2])
}
