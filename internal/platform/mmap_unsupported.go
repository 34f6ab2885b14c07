//go:build !unix

package platform

import "os"

func pageSize() int {
	return os.Getpagesize()
}

func mmap(int, Protection) ([]byte, error) {
	return nil, errUnsupported
}

func mprotect([]byte, Protection) error {
	return errUnsupported
}

func munmap([]byte) error {
	return errUnsupported
}
