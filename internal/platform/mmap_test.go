package platform

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProtection_String(t *testing.T) {
	require.Equal(t, "---", Protection(0).String())
	require.Equal(t, "rw-", (ProtRead | ProtWrite).String())
	require.Equal(t, "r-x", (ProtRead | ProtExec).String())
	require.Equal(t, "rwx", (ProtRead | ProtWrite | ProtExec).String())
}

func TestAlignToPage(t *testing.T) {
	ps := PageSize()
	require.True(t, ps > 0 && ps&(ps-1) == 0, "page size %d is not a power of two", ps)

	require.Equal(t, 0, AlignToPage(0))
	require.Equal(t, ps, AlignToPage(1))
	require.Equal(t, ps, AlignToPage(ps))
	require.Equal(t, 2*ps, AlignToPage(ps+1))
}

func TestMmap(t *testing.T) {
	requireSupportedOS(t)

	b, err := Mmap(PageSize(), ProtRead|ProtWrite)
	require.NoError(t, err)
	require.Equal(t, PageSize(), len(b))

	// Fresh anonymous memory is zeroed and writable.
	require.Equal(t, make([]byte, len(b)), b)
	copy(b, "qream")
	require.Equal(t, "qream", string(b[:5]))

	require.NoError(t, Mprotect(b, ProtRead))
	require.Equal(t, "qream", string(b[:5]))

	require.NoError(t, Munmap(b))
	// Double munmap should fail.
	require.Error(t, Munmap(b))

	t.Run("invalid size", func(t *testing.T) {
		_, err := Mmap(0, ProtRead)
		require.EqualError(t, err, "mmap of 0 bytes")
	})

	t.Run("panic on zero length", func(t *testing.T) {
		require.PanicsWithError(t, "BUG: Munmap with zero length", func() {
			_ = Munmap(nil)
		})
		require.PanicsWithError(t, "BUG: Mprotect with zero length", func() {
			_ = Mprotect(nil, ProtRead)
		})
	})
}

func requireSupportedOS(t *testing.T) {
	switch runtime.GOOS {
	case "linux", "darwin", "freebsd", "netbsd", "openbsd", "dragonfly", "solaris", "illumos", "aix":
	default:
		t.Skip()
	}
}
