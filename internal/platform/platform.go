// Package platform includes the operating system memory primitives used to back guest segments and
// executable code.
//
// Note: memory returned here is NOT managed by the garbage collector and must be released with Munmap.
package platform

import (
	"errors"
	"fmt"
	"runtime"
)

// Protection is the access permitted on a mapping.
type Protection byte

const (
	ProtRead Protection = 1 << iota
	ProtWrite
	ProtExec
)

// String implements fmt.Stringer.
func (p Protection) String() string {
	b := []byte("---")
	if p&ProtRead != 0 {
		b[0] = 'r'
	}
	if p&ProtWrite != 0 {
		b[1] = 'w'
	}
	if p&ProtExec != 0 {
		b[2] = 'x'
	}
	return string(b)
}

var errUnsupported = fmt.Errorf("mmap unsupported on GOOS=%s", runtime.GOOS)

// PageSize returns the size of a memory page.
func PageSize() int {
	return pageSize()
}

// AlignToPage rounds size up to a multiple of PageSize.
func AlignToPage(size int) int {
	ps := PageSize()
	return (size + ps - 1) &^ (ps - 1)
}

// Mmap reserves an anonymous private mapping of size bytes with the given protection.
//
// See https://man7.org/linux/man-pages/man2/mmap.2.html for mmap API and flags.
func Mmap(size int, prot Protection) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mmap of %d bytes", size)
	}
	return mmap(size, prot)
}

// Mprotect changes the protection of a region previously returned by Mmap.
//
// See https://man7.org/linux/man-pages/man2/mprotect.2.html
func Mprotect(b []byte, prot Protection) error {
	if len(b) == 0 {
		panic(errors.New("BUG: Mprotect with zero length"))
	}
	return mprotect(b, prot)
}

// Munmap releases a region previously returned by Mmap.
func Munmap(b []byte) error {
	if len(b) == 0 {
		panic(errors.New("BUG: Munmap with zero length"))
	}
	return munmap(b)
}
