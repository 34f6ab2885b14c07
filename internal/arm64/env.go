package arm64

import (
	"fmt"

	"github.com/qream/qream/internal/guestmem"
	"github.com/qream/qream/status"
)

// Environment is the state an Encoder threads through one translation: the guest program counter of
// the next instruction and the guest memory holding the constant pool.
//
// An Environment belongs to a single translation and must be released by Close.
type Environment struct {
	// PC is the guest address the next emitted word will occupy.
	PC uint64

	Memory *guestmem.Memory
	Pool   *guestmem.ConstantPool
}

// NewEnvironment maps a writable constant pool of poolSize bytes at guest address poolBase and returns
// an Environment starting at entry.
func NewEnvironment(entry, poolBase uint64, poolSize int) (*Environment, error) {
	if entry%4 != 0 {
		return nil, fmt.Errorf("%w: entry point %#x is not 4-byte aligned", status.ErrMisaligned, entry)
	}
	if poolBase%8 != 0 {
		return nil, fmt.Errorf("%w: constant pool at %#x is not 8-byte aligned", status.ErrMisaligned, poolBase)
	}
	mem := &guestmem.Memory{}
	seg, err := mem.MapSegment(poolBase, poolSize, guestmem.Flags{Cachable: true})
	if err != nil {
		return nil, err
	}
	pool, err := guestmem.NewConstantPool(seg)
	if err != nil {
		_ = mem.Close()
		return nil, err
	}
	return &Environment{PC: entry, Memory: mem, Pool: pool}, nil
}

// Close unmaps all guest memory. The pool must not be used afterwards.
func (e *Environment) Close() error {
	return e.Memory.Close()
}
