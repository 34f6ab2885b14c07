package qream

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"math"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qream/qream/harness"
	"github.com/qream/qream/ir"
	"github.com/qream/qream/status"
)

func requireSupportedOS(t *testing.T) {
	switch runtime.GOOS {
	case "linux", "darwin", "freebsd", "netbsd", "openbsd", "dragonfly", "solaris", "illumos", "aix":
	default:
		t.Skip()
	}
}

// arithmetic is x7 = x1 + x2, x3 = x1 - x2, x4 = x1 * x2, x5 = x1 ^ x2, x6 = -x1.
func arithmetic() []ir.Operation {
	r1, r2 := ir.X(1), ir.X(2)
	return []ir.Operation{
		ir.NewOperation(0x1000, ir.OpcodeAdd, ir.TypeI64, ir.X(7), r1, r2),
		ir.NewOperation(0x1004, ir.OpcodeSub, ir.TypeI64, ir.X(3), r1, r2),
		ir.NewOperation(0x1008, ir.OpcodeMul, ir.TypeI64, ir.X(4), r1, r2),
		ir.NewOperation(0x100c, ir.OpcodeXor, ir.TypeI64, ir.X(5), r1, r2),
		ir.NewOperation(0x1010, ir.OpcodeNeg, ir.TypeI64, ir.X(6), r1),
	}
}

func TestTranslate(t *testing.T) {
	requireSupportedOS(t)

	tr, err := Translate(nil, arithmetic())
	require.NoError(t, err)
	require.Equal(t, uint64(DefaultEntryPoint), tr.EntryPoint)
	require.Equal(t, "2700028b"+"230002cb"+"2400029b"+"250002ca"+"e60301cb", hex.EncodeToString(tr.Code))
	require.Empty(t, tr.Literals)
	require.Equal(t, DefaultCodeRegionSize, tr.LiteralsOffset)
}

func TestTranslate_literals(t *testing.T) {
	requireSupportedOS(t)

	ops := []ir.Operation{
		ir.NewOperation(0, ir.OpcodeLdr, ir.TypeI64, ir.X(1), ir.Imm(0xcafe)),
		ir.NewOperation(1, ir.OpcodeLdr, ir.TypeI64, ir.X(2), ir.Imm(0xf00d)),
	}
	tr, err := Translate(NewConfig().WithCodeRegionSize(0x1000), ops)
	require.NoError(t, err)
	// 0x1000 bytes, then 0x1000-4+8 bytes ahead.
	require.Equal(t, "01800058"+"22800058", hex.EncodeToString(tr.Code))
	require.Equal(t, 0x1000, tr.LiteralsOffset)
	require.Equal(t, uint64(0xcafe), binary.LittleEndian.Uint64(tr.Literals))
	require.Equal(t, uint64(0xf00d), binary.LittleEndian.Uint64(tr.Literals[8:]))
}

func TestTranslate_codeRegionFull(t *testing.T) {
	requireSupportedOS(t)

	ops := []ir.Operation{
		ir.NewOperation(0, ir.OpcodeLdr, ir.TypeI64, ir.X(1), ir.Imm(7)),
		ir.NewOperation(1, ir.OpcodeAdd, ir.TypeI64, ir.X(2), ir.X(1), ir.X(1)),
		ir.NewOperation(2, ir.OpcodeAdd, ir.TypeI64, ir.X(2), ir.X(2), ir.X(1)),
	}
	// Three words and the return fill the 16 bytes ahead of the pool.
	cfg := NewConfig().WithCodeRegionSize(16)
	tr, err := Translate(cfg, ops)
	require.NoError(t, err)
	require.Equal(t, "81000058"+"2200018b"+"4200018b", hex.EncodeToString(tr.Code))

	exe, err := tr.Load()
	require.NoError(t, err)
	require.Equal(t, 16, len(exe.Code()))
	require.NoError(t, exe.Close())

	_, err = Translate(cfg, append(ops, ir.NewOperation(3, ir.OpcodeRet, ir.TypeI64)))
	require.ErrorIs(t, err, status.ErrOutOfRange)
}

func TestTranslate_errors(t *testing.T) {
	requireSupportedOS(t)

	t.Run("unimplemented discards output", func(t *testing.T) {
		ops := append(arithmetic(), ir.NewOperation(0x1014, ir.OpcodeDiv, ir.TypeI64, ir.X(1), ir.X(2), ir.X(3)))
		tr, err := Translate(nil, ops)
		require.ErrorIs(t, err, status.ErrUnimplemented)
		require.Nil(t, tr)
	})

	t.Run("code overlapping the pool", func(t *testing.T) {
		_, err := Translate(NewConfig().WithCodeRegionSize(16), arithmetic())
		require.ErrorIs(t, err, status.ErrOutOfRange)
	})

	t.Run("no room for the return", func(t *testing.T) {
		ops := []ir.Operation{
			ir.NewOperation(0, ir.OpcodeLdr, ir.TypeI64, ir.X(1), ir.Imm(7)),
			ir.NewOperation(1, ir.OpcodeAdd, ir.TypeI64, ir.X(2), ir.X(1), ir.X(1)),
		}
		_, err := Translate(NewConfig().WithCodeRegionSize(8), ops)
		require.ErrorIs(t, err, status.ErrOutOfRange)
	})

	t.Run("code region wraps", func(t *testing.T) {
		_, err := Translate(NewConfig().WithCodeRegionSize(math.MaxUint64), arithmetic())
		require.ErrorIs(t, err, status.ErrOutOfRange)
	})

	t.Run("misaligned entry", func(t *testing.T) {
		_, err := Translate(NewConfig().WithEntryPoint(0x1002), arithmetic())
		require.ErrorIs(t, err, status.ErrMisaligned)
	})

	t.Run("undefined label", func(t *testing.T) {
		_, err := Translate(nil, []ir.Operation{ir.NewOperation(0, ir.OpcodeJump, ir.TypeI64, ir.Imm(8))})
		require.ErrorIs(t, err, status.ErrUndefinedLabel)
	})
}

func TestTranslate_logger(t *testing.T) {
	requireSupportedOS(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	_, err := Translate(NewConfig().WithLogger(logger), arithmetic()[:1])
	require.NoError(t, err)
	require.Contains(t, buf.String(), `msg=encoded op="add.i64 r7, r1, r2" pc=0x1000 words=1`)
	require.Contains(t, buf.String(), `msg=translated operations=1 code_bytes=4 literal_bytes=0`)
}

func TestTranslation_Load(t *testing.T) {
	requireSupportedOS(t)
	if runtime.GOARCH != "arm64" || (runtime.GOOS != "linux" && runtime.GOOS != "darwin") {
		t.Skip()
	}

	t.Run("arithmetic", func(t *testing.T) {
		tr, err := Translate(nil, arithmetic())
		require.NoError(t, err)
		exe, err := tr.Load()
		require.NoError(t, err)
		defer func() { require.NoError(t, exe.Close()) }()

		// x0 is the accumulator of mul.
		regs := harness.Registers{1: 10, 2: 3}
		require.NoError(t, exe.Call(&regs))
		require.Equal(t, uint64(13), regs[7])
		require.Equal(t, uint64(7), regs[3])
		require.Equal(t, uint64(30), regs[4])
		require.Equal(t, uint64(10^3), regs[5])
		require.Equal(t, uint64(math.MaxUint64-9), regs[6])
	})

	t.Run("literals and branches", func(t *testing.T) {
		// x1 = 0xcafe; x2 = 3; loop: x1 = x1 + x1; x2 = x2 - x3; if x2 != 0 goto loop
		ops := []ir.Operation{
			ir.NewOperation(0, ir.OpcodeLdr, ir.TypeI64, ir.X(1), ir.Imm(0xcafe)),
			ir.NewOperation(1, ir.OpcodeLdr, ir.TypeI64, ir.X(2), ir.Imm(3)),
			ir.NewOperation(2, ir.OpcodeLdr, ir.TypeI64, ir.X(3), ir.Imm(1)),
			ir.NewOperation(3, ir.OpcodeAdd, ir.TypeI64, ir.X(1), ir.X(1), ir.X(1)),
			ir.NewOperation(4, ir.OpcodeSub, ir.TypeI64, ir.X(2), ir.X(2), ir.X(3)),
			ir.NewOperation(5, ir.OpcodeJumpIf, ir.TypeI64, ir.X(2), ir.Imm(3)),
		}
		tr, err := Translate(nil, ops)
		require.NoError(t, err)
		exe, err := tr.Load()
		require.NoError(t, err)
		defer func() { require.NoError(t, exe.Close()) }()

		var regs harness.Registers
		require.NoError(t, exe.Call(&regs))
		require.Equal(t, uint64(0xcafe*8), regs[1])
		require.Equal(t, uint64(0), regs[2])
	})
}
