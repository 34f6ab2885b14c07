//go:build arm64 && (linux || darwin)

package harness

const callSupported = true

// callNative is implemented in call_arm64.s.
//
//go:noescape
func callNative(code uintptr, regs *Registers)
