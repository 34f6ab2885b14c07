package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpcode_String(t *testing.T) {
	for o := OpcodeXchg; o < opcodeEnd; o++ {
		require.NotEmpty(t, o.String(), "opcode %d has no name", o)
	}
	require.Equal(t, "vreduce.add", OpcodeVReduceAdd.String())
	require.Equal(t, "atomic_cmpxchg", OpcodeAtomicCmpXchg.String())
	require.Equal(t, "unknown_op", opcodeEnd.String())
}

func TestElementType(t *testing.T) {
	tests := []struct {
		typ   ElementType
		name  string
		bits  int
		float bool
	}{
		{typ: TypeI8, name: "i8", bits: 8},
		{typ: TypeI16, name: "i16", bits: 16},
		{typ: TypeI32, name: "i32", bits: 32},
		{typ: TypeI64, name: "i64", bits: 64},
		{typ: TypeF16, name: "f16", bits: 16, float: true},
		{typ: TypeF32, name: "f32", bits: 32, float: true},
		{typ: TypeF64, name: "f64", bits: 64, float: true},
		{typ: ElementType(100), name: "opaque"},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.name, tc.typ.String())
			require.Equal(t, tc.bits, tc.typ.Bits())
			require.Equal(t, tc.float, tc.typ.IsFloat())
		})
	}
}

func TestOperation_String(t *testing.T) {
	pred := Standard{Register: PC}
	tests := []struct {
		name string
		op   Operation
		exp  string
	}{
		{
			name: "three registers",
			op:   NewOperation(0x1000, OpcodeAdd, TypeI64, X(7), X(1), X(2)),
			exp:  "add.i64 r7, r1, r2",
		},
		{
			name: "vector with predicate",
			op: Operation{
				Address: 0x1008, Opcode: OpcodeAdd, Lanes: V4, Type: TypeF32,
				Operands: [MaxOperands]Access{X(5), X(6), X(7)}, OperandCount: 3,
				Predicate: pred,
			},
			exp: "@pc add.f32x4 r5, r6, r7",
		},
		{
			name: "zero lanes is scalar",
			op:   Operation{Opcode: OpcodeNeg, Type: TypeI32, Operands: [MaxOperands]Access{W(1), W(2)}, OperandCount: 2},
			exp:  "neg.i32 r1, r2",
		},
		{
			name: "no operands",
			op:   NewOperation(0, OpcodeRet, TypeI64),
			exp:  "ret.i64",
		},
		{
			name: "unused slots are not rendered",
			op: Operation{
				Opcode: OpcodeLdr, Type: TypeI64, Lanes: Scalar,
				Operands: [MaxOperands]Access{X(4), Mem(X(1), 0x10), Imm(0xff)}, OperandCount: 2,
			},
			exp: "ldr.i64 r4, [r1 + 0x10]",
		},
		{
			name: "immediate and standard",
			op:   NewOperation(0, OpcodeStr, TypeI64, Imm(0xdeadbeef), Standard{Register: SP}),
			exp:  "str.i64 0xdeadbeef, sp",
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.exp, tc.op.String())
		})
	}
}

func TestNewOperation(t *testing.T) {
	op := NewOperation(0x20, OpcodeSub, TypeI64, X(3), X(1), X(2))
	require.Equal(t, Address(0x20), op.Address)
	require.Equal(t, Scalar, op.LaneCount())
	require.Equal(t, 3, op.OperandCount)
	require.Equal(t, X(2), op.Operand(2))
	require.Nil(t, op.Operand(3))
	require.Nil(t, op.Operand(-1))

	t.Run("too many operands", func(t *testing.T) {
		require.PanicsWithError(t, "BUG: 4 operands given to add but at most 3 are allowed", func() {
			NewOperation(0, OpcodeAdd, TypeI64, X(1), X(2), X(3), X(4))
		})
	})
}

func TestMemoryAddressing_String(t *testing.T) {
	r1, r2 := X(1), X(2)
	tests := []struct {
		mem MemoryAddressing
		exp string
	}{
		{mem: MemoryAddressing{Base: &r1, Index: &r2, Offset: 0x10}, exp: "[r1 + r2 + 0x10]"},
		{mem: MemoryAddressing{Base: &r1, Offset: 0x10}, exp: "[r1 + 0x10]"},
		{mem: MemoryAddressing{Index: &r2, Offset: 0x10}, exp: "[r2 + 0x10]"},
		{mem: MemoryAddressing{Base: &r1, Index: &r2}, exp: "[r1 + r2]"},
		{mem: MemoryAddressing{Base: &r1}, exp: "[r1]"},
		{mem: MemoryAddressing{Offset: 0x2000}, exp: "[0x2000]"},
		{mem: MemoryAddressing{}, exp: "[0x0]"},
		{mem: MemoryAddressing{Base: &r1, Offset: -8}, exp: "[r1 - 0x8]"},
		{mem: MemoryAddressing{Offset: -8}, exp: "[-0x8]"},
	}

	for _, tc := range tests {
		require.Equal(t, tc.exp, tc.mem.String())
	}
}

func TestAccess_Kind(t *testing.T) {
	tests := []struct {
		a    Access
		kind Kind
		name string
	}{
		{a: X(3), kind: KindRegister, name: "register"},
		{a: Mem(X(3), 8), kind: KindMemory, name: "memory"},
		{a: Imm(1), kind: KindImmediate, name: "immediate"},
		{a: Standard{Register: SP}, kind: KindStandard, name: "standard"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.kind, tc.a.Kind())
		require.Equal(t, tc.name, tc.kind.String())
	}
	require.Equal(t, "unknown", Kind(42).String())
}

func TestRegister(t *testing.T) {
	require.Equal(t, Register{Encoding: 3, Size: RegisterSize64}, X(3))
	require.Equal(t, Register{Encoding: 3, Size: RegisterSize32}, W(3))
	// Both views render the same.
	require.Equal(t, X(3).String(), W(3).String())
	require.Equal(t, "s7", Standard{Register: 7}.String())
}
