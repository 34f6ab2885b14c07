package main

import (
	"sort"

	"github.com/samber/lo"

	"github.com/qream/qream/ir"
)

// programs are the built-in programs, keyed by name.
var programs = map[string]func() []ir.Operation{
	"arithmetic": arithmeticProgram,
	"shift":      shiftProgram,
}

func programNames() []string {
	names := lo.Keys(programs)
	sort.Strings(names)
	return names
}

// arithmeticProgram computes x7 = x1 + x2, x3 = x1 - x2, x4 = x1 * x2, x5 = x1 ^ x2 and x6 = -x1.
//
// The product is accumulated onto x0.
func arithmeticProgram() []ir.Operation {
	r1, r2 := ir.X(1), ir.X(2)
	return []ir.Operation{
		ir.NewOperation(0x1000, ir.OpcodeAdd, ir.TypeI64, ir.X(7), r1, r2),
		ir.NewOperation(0x1004, ir.OpcodeSub, ir.TypeI64, ir.X(3), r1, r2),
		ir.NewOperation(0x1008, ir.OpcodeMul, ir.TypeI64, ir.X(4), r1, r2),
		ir.NewOperation(0x100c, ir.OpcodeXor, ir.TypeI64, ir.X(5), r1, r2),
		ir.NewOperation(0x1010, ir.OpcodeNeg, ir.TypeI64, ir.X(6), r1),
	}
}

// shiftProgram doubles x1, x2 times, with x3 holding the decrement.
func shiftProgram() []ir.Operation {
	r1, r2, r3 := ir.X(1), ir.X(2), ir.X(3)
	return []ir.Operation{
		ir.NewOperation(0x1000, ir.OpcodeLdr, ir.TypeI64, r3, ir.Imm(1)),
		ir.NewOperation(0x1004, ir.OpcodeJump, ir.TypeI64, ir.Imm(0x1010)),
		ir.NewOperation(0x1008, ir.OpcodeAdd, ir.TypeI64, r1, r1, r1),
		ir.NewOperation(0x100c, ir.OpcodeSub, ir.TypeI64, r2, r2, r3),
		ir.NewOperation(0x1010, ir.OpcodeJumpIf, ir.TypeI64, r2, ir.Imm(0x1008)),
	}
}
