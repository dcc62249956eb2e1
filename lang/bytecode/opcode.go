// Package bytecode defines the instruction set executed by the virtual
// machine (package github.com/mna/loxvm/lang/vm): the Opcode enumeration and
// the fixed operand widths each opcode is encoded with.
//
// Unlike the teacher's LEB128-varint operand encoding, operands here use
// clox's fixed widths: most opcodes take a single-byte operand, jump
// offsets are always 2 bytes, and constant/name indices that overflow a
// byte fall back to a "_LONG" variant with a 3-byte (u24) operand. This
// follows spec.md §4.3.7 exactly, which specifies those widths.
package bytecode

import "fmt"

// Opcode identifies a single VM instruction.
type Opcode byte

//nolint:revive
const (
	CONST      Opcode = iota // u8  index into the constant pool
	CONST_LONG               // u24 index into the constant pool
	NIL
	TRUE
	FALSE

	POP
	DUP

	DEFINE_GLOBAL
	DEFINE_GLOBAL_LONG
	DEFINE_GLOBAL_CONST
	DEFINE_GLOBAL_CONST_LONG
	GET_GLOBAL
	GET_GLOBAL_LONG
	SET_GLOBAL
	SET_GLOBAL_LONG

	GET_LOCAL // u8 slot
	SET_LOCAL // u8 slot

	GET_UPVALUE // u8 index
	SET_UPVALUE // u8 index
	CLOSE_UPVALUE

	GET_PROPERTY // u8/u24 name index, see _LONG variant
	GET_PROPERTY_LONG
	SET_PROPERTY
	SET_PROPERTY_LONG
	GET_SUPER
	GET_SUPER_LONG
	INVOKE      // u24 name index + argc (u8)
	SUPER_INVOKE

	EQUAL
	GREATER
	LESS

	ADD
	SUB
	MUL
	DIV
	NEGATE
	NOT

	JUMP          // u16 forward offset
	JUMP_IF_FALSE // u16 forward offset
	LOOP          // u16 backward offset
	CALL          // u8 argc
	RETURN

	CLASS // u8/u24 name index
	CLASS_LONG
	INHERIT
	METHOD // u8/u24 name index
	METHOD_LONG
	CLOSURE // u24 function-constant index, followed by (is_local u8, index u8) pairs

	BUILD_LIST // u8 element count
	BUILD_MAP  // u8 pair count
	INDEX_GET
	INDEX_SET

	PRINT
)

var names = [...]string{
	CONST:                    "CONST",
	CONST_LONG:               "CONST_LONG",
	NIL:                      "NIL",
	TRUE:                     "TRUE",
	FALSE:                    "FALSE",
	POP:                      "POP",
	DUP:                      "DUP",
	DEFINE_GLOBAL:            "DEFINE_GLOBAL",
	DEFINE_GLOBAL_LONG:       "DEFINE_GLOBAL_LONG",
	DEFINE_GLOBAL_CONST:      "DEFINE_GLOBAL_CONST",
	DEFINE_GLOBAL_CONST_LONG: "DEFINE_GLOBAL_CONST_LONG",
	GET_GLOBAL:               "GET_GLOBAL",
	GET_GLOBAL_LONG:          "GET_GLOBAL_LONG",
	SET_GLOBAL:               "SET_GLOBAL",
	SET_GLOBAL_LONG:          "SET_GLOBAL_LONG",
	GET_LOCAL:                "GET_LOCAL",
	SET_LOCAL:                "SET_LOCAL",
	GET_UPVALUE:              "GET_UPVALUE",
	SET_UPVALUE:              "SET_UPVALUE",
	CLOSE_UPVALUE:            "CLOSE_UPVALUE",
	GET_PROPERTY:             "GET_PROPERTY",
	GET_PROPERTY_LONG:        "GET_PROPERTY_LONG",
	SET_PROPERTY:             "SET_PROPERTY",
	SET_PROPERTY_LONG:        "SET_PROPERTY_LONG",
	GET_SUPER:                "GET_SUPER",
	GET_SUPER_LONG:           "GET_SUPER_LONG",
	INVOKE:                   "INVOKE",
	SUPER_INVOKE:             "SUPER_INVOKE",
	EQUAL:                    "EQUAL",
	GREATER:                  "GREATER",
	LESS:                     "LESS",
	ADD:                      "ADD",
	SUB:                      "SUB",
	MUL:                      "MUL",
	DIV:                      "DIV",
	NEGATE:                   "NEGATE",
	NOT:                      "NOT",
	JUMP:                     "JUMP",
	JUMP_IF_FALSE:            "JUMP_IF_FALSE",
	LOOP:                     "LOOP",
	CALL:                     "CALL",
	RETURN:                   "RETURN",
	CLASS:                    "CLASS",
	CLASS_LONG:               "CLASS_LONG",
	INHERIT:                  "INHERIT",
	METHOD:                   "METHOD",
	METHOD_LONG:              "METHOD_LONG",
	CLOSURE:                  "CLOSURE",
	BUILD_LIST:               "BUILD_LIST",
	BUILD_MAP:                "BUILD_MAP",
	INDEX_GET:                "INDEX_GET",
	INDEX_SET:                "INDEX_SET",
	PRINT:                    "PRINT",
}

func (op Opcode) String() string {
	if int(op) < len(names) && names[op] != "" {
		return names[op]
	}
	return fmt.Sprintf("OP<%d>", byte(op))
}

// jumpOpcodes are the opcodes whose operand is a fixed 2-byte jump offset.
var jumpOpcodes = map[Opcode]bool{JUMP: true, JUMP_IF_FALSE: true, LOOP: true}

// IsJump reports whether op's operand is a 2-byte jump offset.
func IsJump(op Opcode) bool { return jumpOpcodes[op] }

// longVariant maps an opcode with a u8 index operand to its u24 "_LONG"
// counterpart, used once the constant/name pool index no longer fits in a
// byte (spec.md §4.3.7).
var longVariant = map[Opcode]Opcode{
	CONST:               CONST_LONG,
	DEFINE_GLOBAL:       DEFINE_GLOBAL_LONG,
	DEFINE_GLOBAL_CONST: DEFINE_GLOBAL_CONST_LONG,
	GET_GLOBAL:          GET_GLOBAL_LONG,
	SET_GLOBAL:          SET_GLOBAL_LONG,
	GET_PROPERTY:        GET_PROPERTY_LONG,
	SET_PROPERTY:        SET_PROPERTY_LONG,
	GET_SUPER:           GET_SUPER_LONG,
	CLASS:               CLASS_LONG,
	METHOD:              METHOD_LONG,
}

// LongVariant returns op's u24-operand counterpart and true, or (op, false)
// if op has no such variant.
func LongVariant(op Opcode) (Opcode, bool) {
	lv, ok := longVariant[op]
	return lv, ok
}
