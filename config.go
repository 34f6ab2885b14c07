package qream

import (
	"io"
	"log/slog"
)

const (
	// DefaultEntryPoint is the guest address of the first generated instruction.
	DefaultEntryPoint = 0x1000
	// DefaultCodeRegionSize is the number of bytes reserved for code ahead of the constant pool.
	DefaultCodeRegionSize = 64 * 1024
	// DefaultConstantPoolSize is the minimum number of bytes of the constant pool.
	DefaultConstantPoolSize = 1024
)

// Config controls translation, with the default implementation as NewConfig.
//
// Config is immutable: each WithXxx method returns a new instance including the corresponding change.
type Config struct {
	entryPoint       uint64
	codeRegionSize   uint64
	constantPoolSize int
	logger           *slog.Logger
}

// defaultConfig helps avoid copy/pasting the wrong defaults.
var defaultConfig = &Config{
	entryPoint:       DefaultEntryPoint,
	codeRegionSize:   DefaultCodeRegionSize,
	constantPoolSize: DefaultConstantPoolSize,
	logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
}

// NewConfig returns a Config with the defaults: entry point 0x1000, a 64 KiB code region and a
// 1 KiB constant pool.
func NewConfig() *Config {
	return defaultConfig.clone()
}

// clone ensures all fields are copied even if nil.
func (c *Config) clone() *Config {
	ret := *c
	return &ret
}

// WithEntryPoint sets the guest address of the first instruction. It must be a multiple of 4, which
// Translate checks.
func (c *Config) WithEntryPoint(pc uint64) *Config {
	ret := c.clone()
	ret.entryPoint = pc
	return ret
}

// WithCodeRegionSize sets how many bytes of code may follow the entry point, including the return
// appended by Translation.Load. The constant pool starts right after, so this bounds both the size of
// the code and the distance of its literals.
//
// Note: literals are loaded PC-relative within +/-1MiB, so regions larger than that fail to reach the
// pool from their first instructions.
func (c *Config) WithCodeRegionSize(size uint64) *Config {
	ret := c.clone()
	ret.codeRegionSize = size
	return ret
}

// WithConstantPoolSize sets the minimum size of the constant pool in bytes. It is rounded up to the
// page size.
func (c *Config) WithConstantPoolSize(size int) *Config {
	ret := c.clone()
	ret.constantPoolSize = size
	return ret
}

// WithLogger sets the logger translation details are written to at debug level. Defaults to discard
// if nil.
func (c *Config) WithLogger(logger *slog.Logger) *Config {
	if logger == nil {
		logger = defaultConfig.logger
	}
	ret := c.clone()
	ret.logger = logger
	return ret
}

// poolBase returns the guest address of the constant pool.
func (c *Config) poolBase() uint64 {
	return c.entryPoint + c.codeRegionSize
}
