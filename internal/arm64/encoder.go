// Package arm64 lowers IR operations to ARM64 machine code.
//
// An Encoder appends the words of each operation, in program order, to a single flat buffer whose
// first word sits at the entry point of its Environment. Constants which do not fit an instruction
// are placed in the constant pool and loaded PC-relative.
package arm64

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/qream/qream/internal/asm"
	"github.com/qream/qream/internal/match"
	"github.com/qream/qream/ir"
	"github.com/qream/qream/status"
)

// Encoder encodes the operations of one translation.
type Encoder struct {
	env    *Environment
	buf    *asm.Buffer
	logger *slog.Logger

	// labels maps the address of each encoded operation to the PC of its first word.
	labels map[ir.Address]uint64
	// fixups are the branches whose target was not encoded yet when they were.
	fixups []branchFixup
	// finished is set by Finish.
	finished bool
}

type branchFixup struct {
	target ir.Address
	// offset is the position of the branch word in the buffer.
	offset int
	pc     uint64
	kind   branchKind
}

// branchKind is the width of the PC-relative immediate of a branch word.
type branchKind byte

const (
	branchImm26 branchKind = iota
	branchImm19
)

// apply sets the immediate of word to the distance from pc to target.
func (k branchKind) apply(word uint32, pc, target uint64) (uint32, error) {
	dist := int64(target - pc)
	if dist%4 != 0 {
		return 0, fmt.Errorf("%w: branch from %#x to %#x", status.ErrMisaligned, pc, target)
	}
	dist /= 4
	switch k {
	case branchImm26:
		if dist < imm26Min || dist > imm26Max {
			return 0, fmt.Errorf("%w: branch from %#x to %#x exceeds 26 bits", status.ErrOutOfRange, pc, target)
		}
		return word&^0x3ffffff | uint32(dist&0x3ffffff), nil
	case branchImm19:
		if dist < imm19Min || dist > imm19Max {
			return 0, fmt.Errorf("%w: branch from %#x to %#x exceeds 19 bits", status.ErrOutOfRange, pc, target)
		}
		return word&^(0x7ffff<<5) | uint32(dist&0x7ffff)<<5, nil
	}
	panic(fmt.Errorf("BUG: unknown branch kind %d", k))
}

// NewEncoder returns an Encoder writing at env.PC. A nil logger discards.
func NewEncoder(env *Environment, logger *slog.Logger) *Encoder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Encoder{
		env:    env,
		buf:    asm.NewBuffer(256),
		logger: logger,
		labels: map[ir.Address]uint64{},
	}
}

// Bytes returns the code encoded so far. Forward branches are only valid after Finish.
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

// PC returns the guest address of the next word.
func (e *Encoder) PC() uint64 {
	return e.env.PC
}

// Encode appends the words of op.
//
// On error, nothing of op is left in the buffer and the PC is unchanged. Errors wrap one of the
// status values; status.ErrUnimplemented when no encoding applies to op.
func (e *Encoder) Encode(op *ir.Operation) error {
	if e.finished {
		return fmt.Errorf("%s: encoder is finished", op)
	}
	mark, pc, fixups := e.buf.Len(), e.env.PC, len(e.fixups)
	_, labeled := e.labels[op.Address]
	if !labeled {
		// The first operation at an address is the branch target of that address.
		e.labels[op.Address] = pc
	}

	err := match.ErrNotMatched
	if int(op.Opcode) < len(rules) {
		err = match.First(op, e, rules[op.Opcode])
	}
	if err != nil {
		e.buf.Truncate(mark)
		e.env.PC = pc
		e.fixups = e.fixups[:fixups]
		if !labeled {
			delete(e.labels, op.Address)
		}
		if errors.Is(err, match.ErrNotMatched) {
			return fmt.Errorf("%w: %s", status.ErrUnimplemented, op)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if e.logger.Enabled(context.Background(), slog.LevelDebug) {
		e.logger.Debug("encoded",
			slog.String("op", op.String()),
			slog.String("pc", fmt.Sprintf("%#x", pc)),
			slog.Int("words", (e.buf.Len()-mark)/4))
	}
	return nil
}

// Finish resolves forward branches and seals the constant pool. Encode fails afterwards.
func (e *Encoder) Finish() error {
	e.finished = true
	for _, f := range e.fixups {
		target, ok := e.labels[f.target]
		if !ok {
			return fmt.Errorf("%w: %#x referenced at %#x", status.ErrUndefinedLabel, f.target, f.pc)
		}
		word, err := f.kind.apply(e.buf.Uint32At(f.offset), f.pc, target)
		if err != nil {
			return err
		}
		e.buf.PatchUint32(f.offset, word)
	}
	e.fixups = nil
	return e.env.Pool.Seal()
}

func (e *Encoder) emit(word uint32) {
	e.buf.WriteUint32(word)
	e.env.PC += 4
}

// emitBranch emits word with its immediate pointing at target, deferring to Finish if target is not
// encoded yet.
func (e *Encoder) emitBranch(word uint32, target ir.Address, kind branchKind) error {
	if pc, ok := e.labels[target]; ok {
		w, err := kind.apply(word, e.env.PC, pc)
		if err != nil {
			return err
		}
		e.emit(w)
		return nil
	}
	e.fixups = append(e.fixups, branchFixup{target: target, offset: e.buf.Len(), pc: e.env.PC, kind: kind})
	e.emit(word)
	return nil
}

// registerBits returns the encoding of r, which must fit the 5-bit register fields.
func registerBits(r ir.Register) (uint32, error) {
	if r.Encoding > zeroRegister {
		return 0, fmt.Errorf("%w: register %s", status.ErrOutOfRange, r)
	}
	return uint32(r.Encoding), nil
}
