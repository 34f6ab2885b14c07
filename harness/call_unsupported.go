//go:build !(arm64 && (linux || darwin))

package harness

import "runtime"

const callSupported = false

func callNative(uintptr, *Registers) {
	panic(runtime.GOARCH)
}
