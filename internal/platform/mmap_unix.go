//go:build unix

package platform

import "golang.org/x/sys/unix"

func pageSize() int {
	return unix.Getpagesize()
}

func unixProt(prot Protection) int {
	var p int
	if prot&ProtRead != 0 {
		p |= unix.PROT_READ
	}
	if prot&ProtWrite != 0 {
		p |= unix.PROT_WRITE
	}
	if prot&ProtExec != 0 {
		p |= unix.PROT_EXEC
	}
	return p
}

func mmap(size int, prot Protection) ([]byte, error) {
	// Anonymous as this is not an actual file, but a memory,
	// Private as this is in-process memory region.
	return unix.Mmap(-1, 0, size, unixProt(prot), unix.MAP_ANON|unix.MAP_PRIVATE)
}

func mprotect(b []byte, prot Protection) error {
	return unix.Mprotect(b, unixProt(prot))
}

func munmap(b []byte) error {
	return unix.Munmap(b)
}
