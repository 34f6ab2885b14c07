// Package guestmem models the guest address space being generated into: segments of real memory
// standing in for guest address ranges, and the constant pool that PC-relative literals live in.
package guestmem

import (
	"errors"
	"fmt"

	"github.com/qream/qream/internal/platform"
	"github.com/qream/qream/status"
)

// Flags tag a Segment.
type Flags struct {
	// Cachable means the guest range has a direct, stable mapping which ResolveStatic may return.
	Cachable bool
	// ReadOnly drops write permission from the backing memory.
	ReadOnly bool
	// Executable adds execute permission to the backing memory.
	Executable bool
	// DeviceMapped marks ranges with side effects on access. It does not change the protection.
	DeviceMapped bool
}

func (f Flags) protection() platform.Protection {
	prot := platform.ProtRead | platform.ProtWrite
	if f.ReadOnly {
		prot = platform.ProtRead
	}
	if f.Executable {
		prot |= platform.ProtExec
	}
	return prot
}

// Segment is a contiguous guest range [GuestBase, GuestBase+Len()) backed by mapped memory.
type Segment struct {
	GuestBase uint64
	Flags     Flags
	mem       []byte
}

// Len returns the length of the segment in bytes, always a multiple of the page size.
func (s *Segment) Len() uint64 {
	return uint64(len(s.mem))
}

// Contains returns true if GuestBase <= addr < GuestBase+Len().
func (s *Segment) Contains(addr uint64) bool {
	return addr >= s.GuestBase && addr-s.GuestBase < s.Len()
}

// Bytes returns the whole backing memory of the segment.
func (s *Segment) Bytes() []byte {
	return s.mem
}

// View returns the n bytes of backing memory at guest address addr.
func (s *Segment) View(addr uint64, n int) ([]byte, error) {
	if n < 0 || !s.Contains(addr) || addr-s.GuestBase+uint64(n) > s.Len() {
		return nil, fmt.Errorf("%w: %d bytes at %#x outside segment [%#x, %#x)",
			status.ErrOutOfRange, n, addr, s.GuestBase, s.GuestBase+s.Len())
	}
	off := addr - s.GuestBase
	return s.mem[off : off+uint64(n) : off+uint64(n)], nil
}

// Protect re-protects the backing memory according to flags, which then replace Flags.
func (s *Segment) Protect(flags Flags) error {
	if err := platform.Mprotect(s.mem, flags.protection()); err != nil {
		return fmt.Errorf("%w: mprotect %s of segment at %#x: %v", status.ErrInvalidMapping, flags.protection(), s.GuestBase, err)
	}
	s.Flags = flags
	return nil
}

// Memory owns a set of Segments. Segments are assumed, not checked, to be disjoint.
//
// Instances hold memory which is NOT managed by the garbage collector and must be released by Close.
type Memory struct {
	segments []*Segment
}

// MapSegment reserves length bytes, rounded up to the page size, for the guest range starting at
// guestBase and registers the resulting Segment.
func (m *Memory) MapSegment(guestBase uint64, length int, flags Flags) (*Segment, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: segment at %#x has length %d", status.ErrInvalidMapping, guestBase, length)
	}
	mem, err := platform.Mmap(platform.AlignToPage(length), flags.protection())
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %d bytes for segment at %#x: %v", status.ErrInvalidMapping, length, guestBase, err)
	}
	seg := &Segment{GuestBase: guestBase, Flags: flags, mem: mem}
	m.segments = append(m.segments, seg)
	return seg, nil
}

// Segments returns the mapped segments in mapping order.
func (m *Memory) Segments() []*Segment {
	return m.segments
}

// Segment returns the segment containing addr, or nil.
func (m *Memory) Segment(addr uint64) *Segment {
	for _, seg := range m.segments {
		if seg.Contains(addr) {
			return seg
		}
	}
	return nil
}

// ResolveStatic returns the backing memory from addr to the end of its segment, if that segment is
// cachable. Otherwise, false is returned: the address has no static mapping.
//
// This never allocates or maps memory.
func (m *Memory) ResolveStatic(addr uint64) ([]byte, bool) {
	seg := m.Segment(addr)
	if seg == nil || !seg.Flags.Cachable {
		return nil, false
	}
	return seg.mem[addr-seg.GuestBase:], true
}

// Close unmaps all segments. The Memory is empty afterwards, even on error.
func (m *Memory) Close() (err error) {
	for _, seg := range m.segments {
		if e := platform.Munmap(seg.mem); e != nil {
			err = errors.Join(err, fmt.Errorf("%w: munmap segment at %#x: %v", status.ErrInvalidMapping, seg.GuestBase, e))
		}
		seg.mem = nil
	}
	m.segments = nil
	return
}
