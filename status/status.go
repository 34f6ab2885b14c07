// Package status includes the errors surfaced by a translation.
//
// Errors returned by this module wrap one of these values with context; test them with errors.Is.
// A translation stops at the first such error and its partial output must be discarded.
package status

import "errors"

var (
	// ErrOutOfRange is returned when a computed value does not fit its encodable field, e.g. a
	// PC-relative literal distance wider than 19 signed bits.
	ErrOutOfRange = errors.New("out of range")

	// ErrUnimplemented is returned when no encoding rule applies to an operation.
	ErrUnimplemented = errors.New("unimplemented")

	// ErrInvalidMapping is returned when the operating system refuses to reserve or re-protect memory.
	ErrInvalidMapping = errors.New("invalid mapping")

	// ErrMisaligned is returned when a memory offset is not a multiple of the access width.
	ErrMisaligned = errors.New("misaligned")

	// ErrUndefinedLabel is returned when a branch targets an address no operation was encoded at.
	ErrUndefinedLabel = errors.New("undefined label")
)
