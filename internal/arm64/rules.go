package arm64

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/qream/qream/internal/match"
	"github.com/qream/qream/ir"
	"github.com/qream/qream/status"
)

// rules lists the encodings of each opcode, most specific first. Opcodes without an entry are not
// implemented.
var rules = [...][]match.Rule[*Encoder]{
	ir.OpcodeAdd: aluRules(opcodeAdd),
	ir.OpcodeSub: aluRules(opcodeSub),
	ir.OpcodeMul: aluRules(opcodeMul),
	ir.OpcodeAnd: aluRules(opcodeAnd),
	ir.OpcodeOr:  aluRules(opcodeOrr),
	ir.OpcodeXor: aluRules(opcodeEor),
	ir.OpcodeNeg: unaryRules(opcodeSub),
	ir.OpcodeNot: unaryRules(opcodeOrn),
	ir.OpcodeShl: shiftRules(lslv),
	ir.OpcodeShr: shiftRules(lsrv),
	ir.OpcodeRor: shiftRules(rorv),

	ir.OpcodeLdr: append(
		loadStoreRules(func(op loadStoreOp) match.Rule[*Encoder] {
			return match.Rule2(op.typ, ir.Scalar, func(e *Encoder, rt ir.Register, m ir.MemoryAddressing) error {
				return e.emitLoadOrStore(op.ldr, op.ldrRegister, op.typ, rt, m)
			})
		}),
		match.Rule2(ir.TypeI64, ir.Scalar, func(e *Encoder, rt ir.Register, imm ir.Immediate) error {
			return e.emitLoadLiteral(rt, imm.Value)
		}),
		match.Rule2(ir.TypeI64, ir.Scalar, func(e *Encoder, imm ir.Immediate, rt ir.Register) error {
			return e.emitLoadLiteral(rt, imm.Value)
		}),
	),
	ir.OpcodeStr: loadStoreRules(func(op loadStoreOp) match.Rule[*Encoder] {
		return match.Rule2(op.typ, ir.Scalar, func(e *Encoder, m ir.MemoryAddressing, rt ir.Register) error {
			return e.emitLoadOrStore(op.str, op.strRegister, op.typ, rt, m)
		})
	}),

	ir.OpcodeJump: typeless(func(typ ir.ElementType) []match.Rule[*Encoder] {
		return []match.Rule[*Encoder]{
			match.Rule1(typ, ir.Scalar, func(e *Encoder, target ir.Immediate) error {
				return e.emitBranch(encodeUnconditionalBranch(false, 0), target.Value, branchImm26)
			}),
			match.Rule1(typ, ir.Scalar, func(e *Encoder, rn ir.Register) error {
				return e.emitBranchRegister(insnBR, rn)
			}),
		}
	}),
	ir.OpcodeJumpIf: {
		match.Rule2(ir.TypeI64, ir.Scalar, func(e *Encoder, cond ir.Register, target ir.Immediate) error {
			return e.emitCBNZ(cond, target.Value, true)
		}),
		match.Rule2(ir.TypeI32, ir.Scalar, func(e *Encoder, cond ir.Register, target ir.Immediate) error {
			return e.emitCBNZ(cond, target.Value, false)
		}),
	},
	ir.OpcodeCall: typeless(func(typ ir.ElementType) []match.Rule[*Encoder] {
		return []match.Rule[*Encoder]{
			match.Rule1(typ, ir.Scalar, func(e *Encoder, target ir.Immediate) error {
				return e.emitBranch(encodeUnconditionalBranch(true, 0), target.Value, branchImm26)
			}),
			match.Rule1(typ, ir.Scalar, func(e *Encoder, rn ir.Register) error {
				return e.emitBranchRegister(insnBLR, rn)
			}),
		}
	}),
	ir.OpcodeRet:   typeless(fixed(encodeBranchRegister(insnRET, uint32(linkRegister)))),
	ir.OpcodeTrap:  typeless(fixed(insnBRK0)),
	ir.OpcodeFence: typeless(fixed(insnDMBISH)),
}

// typeless instantiates rules for operations whose element type does not change the encoding.
func typeless(f func(typ ir.ElementType) []match.Rule[*Encoder]) []match.Rule[*Encoder] {
	return lo.FlatMap([]ir.ElementType{ir.TypeI64, ir.TypeI32}, func(typ ir.ElementType, _ int) []match.Rule[*Encoder] {
		return f(typ)
	})
}

func fixed(word uint32) func(typ ir.ElementType) []match.Rule[*Encoder] {
	return func(typ ir.ElementType) []match.Rule[*Encoder] {
		return []match.Rule[*Encoder]{
			match.Rule0(typ, ir.Scalar, func(e *Encoder) error {
				e.emit(word)
				return nil
			}),
		}
	}
}

// aluRules returns the rules of dst = lhs op rhs.
func aluRules(opcode21 uint32) []match.Rule[*Encoder] {
	return intRules(func(typ ir.ElementType) match.Rule[*Encoder] {
		return match.Rule3(typ, ir.Scalar, func(e *Encoder, rd, rn, rm ir.Register) error {
			d, n, m, err := registerBits3(rd, rn, rm)
			if err != nil {
				return err
			}
			e.emit(encodeRegisterToRegister(opcode21, d, n, m, typ == ir.TypeI64))
			return nil
		})
	})
}

// unaryRules returns the rules of dst = op src, encoded as dst = zr op src.
func unaryRules(opcode21 uint32) []match.Rule[*Encoder] {
	return intRules(func(typ ir.ElementType) match.Rule[*Encoder] {
		return match.Rule2(typ, ir.Scalar, func(e *Encoder, rd, rm ir.Register) error {
			d, err := registerBits(rd)
			if err != nil {
				return err
			}
			m, err := registerBits(rm)
			if err != nil {
				return err
			}
			e.emit(encodeRegisterToRegister(opcode21, d, uint32(zeroRegister), m, typ == ir.TypeI64))
			return nil
		})
	})
}

// shiftRules returns the rules of dst = lhs shifted by rhs.
func shiftRules(base uint32) []match.Rule[*Encoder] {
	return intRules(func(typ ir.ElementType) match.Rule[*Encoder] {
		return match.Rule3(typ, ir.Scalar, func(e *Encoder, rd, rn, rm ir.Register) error {
			d, n, m, err := registerBits3(rd, rn, rm)
			if err != nil {
				return err
			}
			e.emit(encodeDataProcessing2(base, d, n, m, typ == ir.TypeI64))
			return nil
		})
	})
}

func intRules(f func(typ ir.ElementType) match.Rule[*Encoder]) []match.Rule[*Encoder] {
	return []match.Rule[*Encoder]{f(ir.TypeI64), f(ir.TypeI32)}
}

type loadStoreOp struct {
	typ                      ir.ElementType
	ldr, str                 uint32
	ldrRegister, strRegister uint32
}

var loadStoreOps = [...]loadStoreOp{
	{typ: ir.TypeI64, ldr: opcodeLdr, str: opcodeStr, ldrRegister: ldrRegister, strRegister: strRegister},
	{typ: ir.TypeI32, ldr: opcodeLdrw, str: opcodeStrw, ldrRegister: ldrwRegister, strRegister: strwRegister},
	{typ: ir.TypeI16, ldr: opcodeLdrh, str: opcodeStrh, ldrRegister: ldrhRegister, strRegister: strhRegister},
	{typ: ir.TypeI8, ldr: opcodeLdrb, str: opcodeStrb, ldrRegister: ldrbRegister, strRegister: strbRegister},
}

func loadStoreRules(f func(op loadStoreOp) match.Rule[*Encoder]) []match.Rule[*Encoder] {
	return lo.Map(loadStoreOps[:], func(op loadStoreOp, _ int) match.Rule[*Encoder] {
		return f(op)
	})
}

func registerBits3(rd, rn, rm ir.Register) (d, n, m uint32, err error) {
	if d, err = registerBits(rd); err != nil {
		return
	}
	if n, err = registerBits(rn); err != nil {
		return
	}
	m, err = registerBits(rm)
	return
}

// emitLoadOrStore emits a load or store of rt at m. Memory operands without a base register, and
// those with both an index and an offset, are declined.
func (e *Encoder) emitLoadOrStore(opcode10, registerOffset uint32, typ ir.ElementType, rt ir.Register, m ir.MemoryAddressing) error {
	if m.Base == nil || (m.Index != nil && m.Offset != 0) {
		return match.ErrNotMatched
	}
	t, err := registerBits(rt)
	if err != nil {
		return err
	}
	n, err := registerBits(*m.Base)
	if err != nil {
		return err
	}

	if m.Index != nil {
		idx, err := registerBits(*m.Index)
		if err != nil {
			return err
		}
		e.emit(encodeLoadOrStoreRegisterOffset(registerOffset, t, n, idx))
		return nil
	}

	width := int64(typ.Bits() / 8)
	if m.Offset%width != 0 {
		return fmt.Errorf("%w: offset %d of %d-byte access", status.ErrMisaligned, m.Offset, width)
	}
	imm12 := m.Offset / width
	if imm12 < 0 || imm12 > maxImm12 {
		return fmt.Errorf("%w: offset %d not in [0, %d]", status.ErrOutOfRange, m.Offset, maxImm12*width)
	}
	e.emit(encodeLoadOrStoreImm12(opcode10, t, n, uint32(imm12)))
	return nil
}

// emitLoadLiteral places value in the constant pool and emits a PC-relative load of it into rt.
//
// The pool entry is kept when the load cannot reach it.
func (e *Encoder) emitLoadLiteral(rt ir.Register, value uint64) error {
	t, err := registerBits(rt)
	if err != nil {
		return err
	}
	off, err := e.env.Pool.AddUint64(value)
	if err != nil {
		return err
	}
	addr := e.env.Pool.GuestBase() + off
	imm19 := int64(addr-e.env.PC) / 4
	if imm19 < imm19Min || imm19 > imm19Max {
		return fmt.Errorf("%w: literal at %#x is %d words away from %#x", status.ErrOutOfRange, addr, imm19, e.env.PC)
	}
	e.emit(encodeLoadLiteral(t, imm19))
	return nil
}

func (e *Encoder) emitCBNZ(cond ir.Register, target ir.Address, _64bit bool) error {
	t, err := registerBits(cond)
	if err != nil {
		return err
	}
	return e.emitBranch(encodeCBNZ(t, 0, _64bit), target, branchImm19)
}

func (e *Encoder) emitBranchRegister(base uint32, rn ir.Register) error {
	n, err := registerBits(rn)
	if err != nil {
		return err
	}
	e.emit(encodeBranchRegister(base, n))
	return nil
}
