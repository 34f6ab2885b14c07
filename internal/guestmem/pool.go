package guestmem

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/qream/qream/status"
)

// ConstantPool is an append-only region of guest memory holding values which generated code loads
// PC-relative. Entries are never moved once added.
type ConstantPool struct {
	seg    *Segment
	cursor uint64
	sealed bool
}

// NewConstantPool returns a ConstantPool filling seg from its start.
func NewConstantPool(seg *Segment) (*ConstantPool, error) {
	if seg.Flags.ReadOnly {
		return nil, fmt.Errorf("%w: constant pool segment at %#x is read-only", status.ErrInvalidMapping, seg.GuestBase)
	}
	return &ConstantPool{seg: seg}, nil
}

// GuestBase returns the guest address of the first byte of the pool.
func (p *ConstantPool) GuestBase() uint64 {
	return p.seg.GuestBase
}

// Len returns the number of bytes used so far, including alignment padding.
func (p *ConstantPool) Len() int {
	return int(p.cursor)
}

// Cap returns the number of bytes the pool can hold.
func (p *ConstantPool) Cap() int {
	return len(p.seg.mem)
}

// Bytes returns the used part of the pool. The slice aliases the backing memory.
func (p *ConstantPool) Bytes() []byte {
	return p.seg.mem[:p.cursor]
}

// AddBytes copies b into the pool and returns its byte offset from GuestBase.
func (p *ConstantPool) AddBytes(b []byte) (uint64, error) {
	return p.add(p.cursor, b)
}

// AddUint64 stores v little-endian at the next 8-byte aligned offset and returns that offset.
func (p *ConstantPool) AddUint64(v uint64) (uint64, error) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return p.add((p.cursor+7)&^7, b[:])
}

func (p *ConstantPool) add(off uint64, b []byte) (uint64, error) {
	if p.sealed {
		return 0, errors.New("constant pool is sealed")
	}
	end := off + uint64(len(b))
	if end > uint64(len(p.seg.mem)) {
		return 0, fmt.Errorf("%w: constant pool full: %d bytes at offset %d exceed %d",
			status.ErrOutOfRange, len(b), off, len(p.seg.mem))
	}
	copy(p.seg.mem[off:end], b)
	p.cursor = end
	return off, nil
}

// Seal makes the pool read-only. Entries cannot be added afterwards.
func (p *ConstantPool) Seal() error {
	if p.sealed {
		return nil
	}
	flags := p.seg.Flags
	flags.ReadOnly = true
	if err := p.seg.Protect(flags); err != nil {
		return err
	}
	p.sealed = true
	return nil
}
