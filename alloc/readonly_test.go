package alloc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joshuapare/zerobuf/internal/format"
	"github.com/stretchr/testify/require"
)

func sampleBuffer(t *testing.T) []byte {
	t.Helper()
	a := NewOwning(format.DirectoryEnd(2), 2)
	fill(t, a, 0, 8, 1)
	fill(t, a, 1, 3, 2)
	return a.Bytes()
}

func TestDecode(t *testing.T) {
	data := sampleBuffer(t)
	r, err := Decode(data, format.DirectoryEnd(2), 2)
	require.NoError(t, err)
	require.Equal(t, data, r.Bytes())
	require.Equal(t, repeat(2, 3), Dynamic(r, 1))
	require.False(t, r.Mutable())
	require.False(t, r.Movable())
}

func TestReadOnlyRejectsMutation(t *testing.T) {
	r := NewReadOnly(sampleBuffer(t), format.DirectoryEnd(2), 2)

	_, err := r.MutableBytes()
	require.ErrorIs(t, err, ErrImmutable)
	require.ErrorIs(t, r.CopyFrom(nil), ErrImmutable)
	_, err = r.UpdateAllocation(0, true, 16)
	require.ErrorIs(t, err, ErrImmutable)
	_, err = r.UpdateAllocation(99, true, 16)
	require.ErrorIs(t, err, ErrImmutable, "immutability is reported before argument errors")
	require.ErrorIs(t, r.Compact(0), ErrImmutable)
	require.ErrorIs(t, SetItem[uint32](r, 0, 1), ErrImmutable)
	_, err = MutableDynamic(r, 0)
	require.ErrorIs(t, err, ErrImmutable)
}

func TestDecodeFailsClosed(t *testing.T) {
	static := format.DirectoryEnd(2)

	t.Run("version", func(t *testing.T) {
		data := sampleBuffer(t)
		format.PutU32(data, 0, format.ABIVersion+1)
		_, err := Decode(data, static, 2)
		require.ErrorIs(t, err, ErrVersionMismatch)
		var ve *VersionError
		require.ErrorAs(t, err, &ve)
		require.Equal(t, format.ABIVersion+1, ve.Got)
		require.Equal(t, format.ABIVersion, ve.Want)
	})

	t.Run("too short for tag", func(t *testing.T) {
		_, err := Decode([]byte{1, 0}, static, 2)
		require.ErrorIs(t, err, ErrCorruptLayout)
	})

	t.Run("truncated static section", func(t *testing.T) {
		data := sampleBuffer(t)
		_, err := Decode(data[:static-1], static, 2)
		require.ErrorIs(t, err, ErrCorruptLayout)
	})

	t.Run("truncated heap", func(t *testing.T) {
		data := sampleBuffer(t)
		_, err := Decode(data[:len(data)-1], static, 2)
		require.ErrorIs(t, err, ErrCorruptLayout)
	})

	t.Run("shape", func(t *testing.T) {
		_, err := Decode(sampleBuffer(t), 8, 2)
		require.ErrorIs(t, err, ErrInvalidShape)
	})
}

func TestOpenMapped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obj.zb")
	data := sampleBuffer(t)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	m, err := OpenMapped(path, format.DirectoryEnd(2), 2)
	require.NoError(t, err)
	require.Equal(t, data, m.Bytes())
	require.Equal(t, repeat(1, 8), Dynamic(m, 0))
	require.False(t, m.Mutable())

	require.NoError(t, m.Close())
	require.Zero(t, m.Size())
	require.NoError(t, m.Close())
}

func TestOpenMappedRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.zb")
	data := sampleBuffer(t)
	format.PutU32(data, 0, 0xFFFF)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err := OpenMapped(path, format.DirectoryEnd(2), 2)
	require.ErrorIs(t, err, ErrVersionMismatch)
	require.ErrorContains(t, err, path)

	_, err = OpenMapped(filepath.Join(t.TempDir(), "missing"), 20, 1)
	require.ErrorIs(t, err, os.ErrNotExist)
}
