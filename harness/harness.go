// Package harness loads translated code into executable memory and calls it in-process.
//
// This is the minimal collaborator needed to observe the effect of generated code, not a runtime:
// there is no isolation, no stack switching and no trap handling. A fault in generated code
// crashes the process.
package harness

import (
	"encoding/binary"
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/qream/qream/internal/platform"
	"github.com/qream/qream/status"
)

// ErrUnsupported is returned by Executable.Call when the host cannot run ARM64 code in-process.
var ErrUnsupported = fmt.Errorf("calling native code is unsupported on GOOS=%s GOARCH=%s", runtime.GOOS, runtime.GOARCH)

// insnRET is "ret x30", appended so that the code returns to the trampoline.
const insnRET = 0xd65f03c0

// Registers are the values of x0 to x7 passed into, and read back from, generated code.
type Registers [8]uint64

// Executable is code in read+exec memory.
//
// Instances hold memory which is NOT managed by the garbage collector and must be released by Close.
type Executable struct {
	mem []byte
	// codeLen includes the appended return.
	codeLen int
}

// Load maps code, followed by a return, into a fresh region and copies literals at literalsOffset
// from its start. The region is writable while filled and read+exec afterwards.
func Load(code, literals []byte, literalsOffset int) (*Executable, error) {
	if len(code)%4 != 0 {
		return nil, fmt.Errorf("%w: code of %d bytes is not a sequence of words", status.ErrMisaligned, len(code))
	}
	codeLen := len(code) + 4
	size := codeLen
	if len(literals) > 0 {
		if literalsOffset < codeLen || literalsOffset%8 != 0 {
			return nil, fmt.Errorf("%w: literals at offset %d must be 8-byte aligned and follow %d bytes of code", status.ErrOutOfRange, literalsOffset, codeLen)
		}
		size = literalsOffset + len(literals)
	}

	mem, err := platform.Mmap(platform.AlignToPage(size), platform.ProtRead|platform.ProtWrite)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrInvalidMapping, err)
	}
	copy(mem, code)
	binary.LittleEndian.PutUint32(mem[len(code):], insnRET)
	if len(literals) > 0 {
		copy(mem[literalsOffset:], literals)
	}

	if err = platform.Mprotect(mem, platform.ProtRead|platform.ProtExec); err != nil {
		_ = platform.Munmap(mem)
		return nil, fmt.Errorf("%w: %v", status.ErrInvalidMapping, err)
	}
	return &Executable{mem: mem, codeLen: codeLen}, nil
}

// Code returns the loaded code including the appended return.
func (e *Executable) Code() []byte {
	return e.mem[:e.codeLen]
}

// Call runs the code from its first instruction with x0 to x7 set from regs, and stores x0 to x7
// back into regs when it returns.
//
// The generated code must preserve x18 to x29 and the stack pointer.
func (e *Executable) Call(regs *Registers) error {
	if e.mem == nil {
		return errors.New("executable is closed")
	}
	if !callSupported {
		return ErrUnsupported
	}
	callNative(uintptr(unsafe.Pointer(&e.mem[0])), regs)
	return nil
}

// Close unmaps the code. It is safe to call Close more than once.
func (e *Executable) Close() error {
	if e.mem == nil {
		return nil
	}
	err := platform.Munmap(e.mem)
	e.mem = nil
	return err
}
