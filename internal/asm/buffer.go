// Package asm includes the architecture independent pieces shared by instruction encoders.
package asm

import (
	"encoding/binary"
	"fmt"
)

// Buffer is the append-only byte sequence machine code is written to.
//
// Instructions are appended in program order. Bytes already written are only ever rewritten in place
// through PatchUint32, or dropped through Truncate when an instruction fails to encode.
//
// The zero value is a valid, empty buffer.
type Buffer struct {
	code []byte
}

// NewBuffer returns a Buffer with room for size bytes before growing.
func NewBuffer(size int) *Buffer {
	return &Buffer{code: make([]byte, 0, size)}
}

// Len returns the number of bytes written.
func (buf *Buffer) Len() int {
	return len(buf.code)
}

// Bytes returns the bytes written so far.
//
// The returned slice remains valid until more bytes are written to the buffer.
func (buf *Buffer) Bytes() []byte {
	return buf.code
}

// Truncate drops everything past the first n bytes.
func (buf *Buffer) Truncate(n int) {
	if n < 0 || n > len(buf.code) {
		panic(fmt.Errorf("BUG: truncate to %d bytes of a %d bytes buffer", n, len(buf.code)))
	}
	buf.code = buf.code[:n]
}

// WriteUint32 appends u in little-endian byte order.
func (buf *Buffer) WriteUint32(u uint32) {
	buf.code = binary.LittleEndian.AppendUint32(buf.code, u)
}

// Uint32At returns the little-endian word at byte offset off.
func (buf *Buffer) Uint32At(off int) uint32 {
	return binary.LittleEndian.Uint32(buf.code[off : off+4])
}

// PatchUint32 overwrites the word at byte offset off with u.
func (buf *Buffer) PatchUint32(off int, u uint32) {
	binary.LittleEndian.PutUint32(buf.code[off:off+4], u)
}
