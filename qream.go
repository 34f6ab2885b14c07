// Package qream translates IR operations to ARM64 machine code which can be loaded and run in-process.
//
// A translation lays out guest memory as follows: code starts at the entry point, and the constant
// pool holding the literals the code loads PC-relative starts Config.WithCodeRegionSize bytes after.
// Both keep this layout when loaded, so the code has no relocations.
package qream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/qream/qream/harness"
	"github.com/qream/qream/internal/arm64"
	"github.com/qream/qream/ir"
	"github.com/qream/qream/status"
)

// Translation is the output of Translate.
type Translation struct {
	// EntryPoint is the guest address of Code[0].
	EntryPoint uint64
	// Code is a sequence of little-endian ARM64 instruction words.
	Code []byte
	// Literals is the used part of the constant pool.
	Literals []byte
	// LiteralsOffset is the distance in bytes from Code[0] to Literals[0].
	LiteralsOffset int
}

// Translate encodes ops, in order, into a single flat buffer of ARM64 code.
//
// Translation stops at the first operation which cannot be encoded, and the partial output is discarded.
// Errors wrap one of the status values. A nil cfg is the same as NewConfig.
func Translate(cfg *Config, ops []ir.Operation) (_ *Translation, err error) {
	if cfg == nil {
		cfg = defaultConfig
	}
	poolBase := cfg.poolBase()
	if poolBase < cfg.entryPoint {
		return nil, fmt.Errorf("%w: code region of %d bytes at %#x wraps around", status.ErrOutOfRange, cfg.codeRegionSize, cfg.entryPoint)
	}

	env, err := arm64.NewEnvironment(cfg.entryPoint, poolBase, cfg.constantPoolSize)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := env.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	enc := arm64.NewEncoder(env, cfg.logger)
	for i := range ops {
		if err = enc.Encode(&ops[i]); err != nil {
			return nil, err
		}
		// The last word of the region is kept for the return Load appends.
		if enc.PC()+4 > poolBase {
			return nil, fmt.Errorf("%w: code ending at %#x leaves no room for the return before the constant pool at %#x", status.ErrOutOfRange, enc.PC(), poolBase)
		}
	}
	if err = enc.Finish(); err != nil {
		return nil, err
	}

	// The pool is unmapped on return.
	ret := &Translation{
		EntryPoint:     cfg.entryPoint,
		Code:           append([]byte(nil), enc.Bytes()...),
		Literals:       append([]byte(nil), env.Pool.Bytes()...),
		LiteralsOffset: int(cfg.codeRegionSize),
	}
	if cfg.logger.Enabled(context.Background(), slog.LevelDebug) {
		cfg.logger.Debug("translated",
			slog.Int("operations", len(ops)),
			slog.Int("code_bytes", len(ret.Code)),
			slog.Int("literal_bytes", len(ret.Literals)))
	}
	return ret, nil
}

// Load maps the translation into executable memory. The caller must Close the result.
func (t *Translation) Load() (*harness.Executable, error) {
	return harness.Load(t.Code, t.Literals, t.LiteralsOffset)
}
