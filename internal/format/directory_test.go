package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntryPos(t *testing.T) {
	require.Equal(t, 4, EntryPos(0))
	require.Equal(t, 20, EntryPos(1))
	require.Equal(t, 4+16*3, DirectoryEnd(3))
	require.Equal(t, 4, DirectoryEnd(0))
}

func TestEntryRoundTrip(t *testing.T) {
	b := make([]byte, DirectoryEnd(2))
	require.NoError(t, PutEntry(b, 1, Entry{Offset: 0x40, Size: 12}))

	e, ok := ReadEntry(b, 1)
	require.True(t, ok)
	require.Equal(t, Entry{Offset: 0x40, Size: 12}, e)
	require.True(t, e.Live())

	// Bit-exact placement: offset at 4+16, size 8 bytes later.
	require.Equal(t, byte(0x40), b[20])
	require.Equal(t, byte(12), b[28])

	e, ok = ReadEntry(b, 0)
	require.True(t, ok)
	require.False(t, e.Live())
}

func TestEntryTruncated(t *testing.T) {
	b := make([]byte, DirectoryEnd(1)-1)
	_, ok := ReadEntry(b, 0)
	require.False(t, ok)
	require.ErrorIs(t, PutEntry(b, 0, Entry{}), ErrTruncated)

	_, ok = ReadEntry(b, -1)
	require.False(t, ok)
}

func TestEntryEndOverflow(t *testing.T) {
	_, ok := Entry{Offset: ^uint64(0), Size: 2}.End()
	require.False(t, ok)

	end, ok := Entry{Offset: 8, Size: 4}.End()
	require.True(t, ok)
	require.Equal(t, uint64(12), end)
}

func TestVersion(t *testing.T) {
	b := make([]byte, 4)
	require.NoError(t, PutVersion(b))
	v, err := ReadVersion(b)
	require.NoError(t, err)
	require.Equal(t, ABIVersion, v)

	_, err = ReadVersion(b[:3])
	require.ErrorIs(t, err, ErrTruncated)
	require.ErrorIs(t, PutVersion(nil), ErrTruncated)
}
