package ir

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Kind identifies which variant an Access holds.
type Kind byte

const (
	KindRegister Kind = iota
	KindMemory
	KindImmediate
	KindStandard
)

// String implements fmt.Stringer.
func (k Kind) String() (ret string) {
	switch k {
	case KindRegister:
		ret = "register"
	case KindMemory:
		ret = "memory"
	case KindImmediate:
		ret = "immediate"
	case KindStandard:
		ret = "standard"
	default:
		ret = "unknown"
	}
	return
}

// Access is an operand value: exactly one of Register, MemoryAddressing, Immediate or Standard.
//
// The set of implementations is closed; a type switch over these four types is exhaustive.
type Access interface {
	fmt.Stringer
	// Kind returns the variant tag.
	Kind() Kind

	access()
}

// RegisterSize distinguishes views of the same physical register.
type RegisterSize byte

const (
	// RegisterSize64 is the full 64-bit view (x<n> on arm64). This is the zero value.
	RegisterSize64 RegisterSize = iota
	// RegisterSize32 is the low 32-bit view (w<n> on arm64).
	RegisterSize32
)

// Register is a general purpose register operand.
type Register struct {
	// Encoding is the register number as placed in instruction fields (0-31).
	Encoding uint8
	Size     RegisterSize
}

// X returns the 64-bit view of register n.
func X(n uint8) Register { return Register{Encoding: n, Size: RegisterSize64} }

// W returns the 32-bit view of register n.
func W(n uint8) Register { return Register{Encoding: n, Size: RegisterSize32} }

// Kind implements Access.Kind.
func (Register) Kind() Kind { return KindRegister }

// String implements fmt.Stringer.
func (r Register) String() string { return fmt.Sprintf("r%d", r.Encoding) }

func (Register) access() {}

// MemoryAddressing is a memory operand. The effective address is Base + Index + Offset, where an absent
// register contributes zero.
type MemoryAddressing struct {
	Base, Index *Register
	Offset      int64
}

// Mem returns a MemoryAddressing of base + offset.
func Mem(base Register, offset int64) MemoryAddressing {
	return MemoryAddressing{Base: &base, Offset: offset}
}

// MemIndexed returns a MemoryAddressing of base + index.
func MemIndexed(base, index Register) MemoryAddressing {
	return MemoryAddressing{Base: &base, Index: &index}
}

// Kind implements Access.Kind.
func (MemoryAddressing) Kind() Kind { return KindMemory }

// String implements fmt.Stringer.
func (m MemoryAddressing) String() string {
	var base, index string
	if m.Base != nil {
		base = m.Base.String()
	}
	if m.Index != nil {
		index = m.Index.String()
	}
	parts := lo.Compact([]string{base, index})
	switch {
	case m.Offset < 0:
		// Render as "[r1 - 0x8]" rather than a signed hex literal.
		if len(parts) == 0 {
			return fmt.Sprintf("[-0x%x]", uint64(-m.Offset))
		}
		return fmt.Sprintf("[%s - 0x%x]", strings.Join(parts, " + "), uint64(-m.Offset))
	case m.Offset > 0 || len(parts) == 0:
		parts = append(parts, fmt.Sprintf("0x%x", m.Offset))
	}
	return "[" + strings.Join(parts, " + ") + "]"
}

func (MemoryAddressing) access() {}

// Immediate is a 64-bit constant operand.
type Immediate struct {
	Value uint64
}

// Imm returns an Immediate holding v.
func Imm(v uint64) Immediate { return Immediate{Value: v} }

// Kind implements Access.Kind.
func (Immediate) Kind() Kind { return KindImmediate }

// String implements fmt.Stringer.
func (i Immediate) String() string { return fmt.Sprintf("0x%x", i.Value) }

func (Immediate) access() {}

// StandardRegister names an architectural register that is not a general purpose register.
type StandardRegister byte

const (
	// PC is the program counter.
	PC StandardRegister = iota
	// SP is the stack pointer.
	SP
)

// Standard is a named architectural register operand.
type Standard struct {
	Register StandardRegister
}

// Kind implements Access.Kind.
func (Standard) Kind() Kind { return KindStandard }

// String implements fmt.Stringer.
func (s Standard) String() string {
	switch s.Register {
	case PC:
		return "pc"
	case SP:
		return "sp"
	}
	return fmt.Sprintf("s%d", s.Register)
}

func (Standard) access() {}
