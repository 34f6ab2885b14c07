// Package ir includes the operation model consumed by the encoders.
//
// Operations are plain data: an IR producer builds them, and an encoder consumes each exactly once in
// program order. Nothing in this package has behavior beyond rendering values for diagnostics.
package ir

import (
	"fmt"
	"strings"
)

// Address is a position in the guest address space.
type Address = uint64

// MaxOperands is the number of operand slots in an Operation.
const MaxOperands = 3

// Opcode is the closed set of IR operations.
type Opcode byte

const (
	OpcodeXchg Opcode = iota
	OpcodeStr
	OpcodeLdr
	OpcodeAdd
	OpcodeSub
	OpcodeMul
	OpcodeDiv
	OpcodeMod
	OpcodeNeg
	OpcodeAnd
	OpcodeOr
	OpcodeXor
	OpcodeNot
	OpcodeShl
	OpcodeShr
	OpcodeRol
	OpcodeRor
	OpcodeJump
	OpcodeJumpIf
	OpcodeCall
	OpcodeRet
	OpcodeTrap
	OpcodeHalt
	OpcodeFAdd
	OpcodeFSub
	OpcodeFMul
	OpcodeFDiv
	OpcodeSignExtend
	OpcodeZeroExtend
	OpcodeTruncate
	OpcodeFence
	OpcodeAtomicAdd
	OpcodeAtomicCmpXchg
	// OpcodeVShuffle permutes elements.
	OpcodeVShuffle
	// OpcodeVBlend is a masked merge.
	OpcodeVBlend
	// OpcodeVExtract extracts a lane.
	OpcodeVExtract
	// OpcodeVInsert inserts a lane.
	OpcodeVInsert
	// OpcodeVReduceAdd is a horizontal add reduction.
	OpcodeVReduceAdd
	opcodeEnd
)

var opcodeNames = [opcodeEnd]string{
	OpcodeXchg:          "xchg",
	OpcodeStr:           "str",
	OpcodeLdr:           "ldr",
	OpcodeAdd:           "add",
	OpcodeSub:           "sub",
	OpcodeMul:           "mul",
	OpcodeDiv:           "div",
	OpcodeMod:           "mod",
	OpcodeNeg:           "neg",
	OpcodeAnd:           "and",
	OpcodeOr:            "or",
	OpcodeXor:           "xor",
	OpcodeNot:           "not",
	OpcodeShl:           "shl",
	OpcodeShr:           "shr",
	OpcodeRol:           "rol",
	OpcodeRor:           "ror",
	OpcodeJump:          "jump",
	OpcodeJumpIf:        "jumpif",
	OpcodeCall:          "call",
	OpcodeRet:           "ret",
	OpcodeTrap:          "trap",
	OpcodeHalt:          "halt",
	OpcodeFAdd:          "fadd",
	OpcodeFSub:          "fsub",
	OpcodeFMul:          "fmul",
	OpcodeFDiv:          "fdiv",
	OpcodeSignExtend:    "sext",
	OpcodeZeroExtend:    "zext",
	OpcodeTruncate:      "trunc",
	OpcodeFence:         "fence",
	OpcodeAtomicAdd:     "atomic_add",
	OpcodeAtomicCmpXchg: "atomic_cmpxchg",
	OpcodeVShuffle:      "vshuffle",
	OpcodeVBlend:        "vblend",
	OpcodeVExtract:      "vextract",
	OpcodeVInsert:       "vinsert",
	OpcodeVReduceAdd:    "vreduce.add",
}

// String implements fmt.Stringer.
func (o Opcode) String() string {
	if o < opcodeEnd {
		return opcodeNames[o]
	}
	return "unknown_op"
}

// ElementType is the per-lane numeric type of an Operation. Integer types carry no signedness.
type ElementType byte

const (
	TypeI8 ElementType = iota
	TypeI16
	TypeI32
	TypeI64
	TypeF16
	TypeF32
	TypeF64
)

// String implements fmt.Stringer.
func (t ElementType) String() (ret string) {
	switch t {
	case TypeI8:
		ret = "i8"
	case TypeI16:
		ret = "i16"
	case TypeI32:
		ret = "i32"
	case TypeI64:
		ret = "i64"
	case TypeF16:
		ret = "f16"
	case TypeF32:
		ret = "f32"
	case TypeF64:
		ret = "f64"
	default:
		ret = "opaque"
	}
	return
}

// Bits returns the width of the type in bits.
func (t ElementType) Bits() int {
	switch t {
	case TypeI8:
		return 8
	case TypeI16, TypeF16:
		return 16
	case TypeI32, TypeF32:
		return 32
	case TypeI64, TypeF64:
		return 64
	}
	return 0
}

// IsFloat returns true if the type is a floating point type.
func (t ElementType) IsFloat() bool {
	return t == TypeF16 || t == TypeF32 || t == TypeF64
}

// LaneCount is the vector width of an Operation.
type LaneCount byte

const (
	Scalar LaneCount = 1
	V2     LaneCount = 2
	V4     LaneCount = 4
	V8     LaneCount = 8
	V16    LaneCount = 16
)

// Operation is one IR instruction.
//
// Only the first OperandCount entries of Operands are inspected. The zero value of Lanes is
// treated as Scalar.
type Operation struct {
	// Address is the logical program position assigned by the producer. Encoders never derive
	// instruction placement from it; it only identifies the operation as a branch target.
	Address Address
	Opcode  Opcode
	Lanes   LaneCount
	Type    ElementType

	Operands     [MaxOperands]Access
	OperandCount int

	// Predicate is the optional guard condition. Nil means the operation is unconditional.
	Predicate Access
}

// NewOperation returns a scalar Operation with the given operands.
func NewOperation(addr Address, opcode Opcode, typ ElementType, operands ...Access) Operation {
	if len(operands) > MaxOperands {
		panic(fmt.Errorf("BUG: %d operands given to %s but at most %d are allowed", len(operands), opcode, MaxOperands))
	}
	op := Operation{Address: addr, Opcode: opcode, Lanes: Scalar, Type: typ, OperandCount: len(operands)}
	copy(op.Operands[:], operands)
	return op
}

// LaneCount returns Lanes, mapping the zero value to Scalar.
func (o *Operation) LaneCount() LaneCount {
	if o.Lanes == 0 {
		return Scalar
	}
	return o.Lanes
}

// Operand returns the i-th operand, or nil if i is not below OperandCount.
func (o *Operation) Operand(i int) Access {
	if i < 0 || i >= o.OperandCount || i >= MaxOperands {
		return nil
	}
	return o.Operands[i]
}

// String implements fmt.Stringer.
//
// The format is "[@pred ]opcode.type[xN] op0, op1, op2", for diagnostics only.
func (o *Operation) String() string {
	var b strings.Builder
	if o.Predicate != nil {
		b.WriteByte('@')
		b.WriteString(o.Predicate.String())
		b.WriteByte(' ')
	}
	b.WriteString(o.Opcode.String())
	b.WriteByte('.')
	b.WriteString(o.Type.String())
	if lanes := o.LaneCount(); lanes > Scalar {
		fmt.Fprintf(&b, "x%d", lanes)
	}
	for i := 0; i < o.OperandCount && i < MaxOperands; i++ {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}
		if a := o.Operands[i]; a != nil {
			b.WriteString(a.String())
		} else {
			b.WriteString("<nil>")
		}
	}
	return b.String()
}
