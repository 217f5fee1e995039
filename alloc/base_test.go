package alloc

import (
	"errors"
	"testing"

	"github.com/joshuapare/zerobuf/internal/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOwning(t *testing.T) {
	a := NewOwning(format.DirectoryEnd(2)+8, 2)
	require.Equal(t, 44, a.Size())
	require.Equal(t, 44, a.StaticSize())
	require.Equal(t, 2, a.NumDynamic())
	require.True(t, a.Movable())
	require.True(t, a.Mutable())
	require.NoError(t, CheckVersion(a))
	requireSound(t, a)

	require.Panics(t, func() { NewOwning(8, 1) })
	require.Panics(t, func() { NewOwning(4, -1) })
}

// Elements of 4 bytes pushed one at a time land contiguously at the start of
// the heap, and shrinking keeps the offset.
func TestPushThenShrinkKeepsOffset(t *testing.T) {
	static := format.DirectoryEnd(1)
	a := NewOwning(static, 1)

	for i := range 3 {
		b, err := a.UpdateAllocation(0, true, (i+1)*4)
		require.NoError(t, err)
		b[i*4] = byte(i + 1)
	}
	require.Equal(t, format.Entry{Offset: uint64(static), Size: 12}, entry(t, a, 0))

	b, err := a.UpdateAllocation(0, true, 4)
	require.NoError(t, err)
	require.Equal(t, format.Entry{Offset: uint64(static), Size: 4}, entry(t, a, 0))
	require.Equal(t, byte(1), b[0])
	requireSound(t, a)
}

func TestFreeThenGrowReusesFreedSpace(t *testing.T) {
	static := format.DirectoryEnd(2)
	a := NewOwning(static, 2)
	fill(t, a, 0, 8, 0xAA)
	fill(t, a, 1, 8, 0xBB)
	formerA := entry(t, a, 0).Offset

	_, err := a.UpdateAllocation(0, false, 0)
	require.NoError(t, err)
	require.Equal(t, format.Entry{}, entry(t, a, 0))

	b, err := a.UpdateAllocation(1, true, 16)
	require.NoError(t, err)
	require.Equal(t, formerA, entry(t, a, 1).Offset)
	require.Equal(t, repeat(0xBB, 8), b[:8])
	require.Equal(t, make([]byte, 8), b[8:])
	requireSound(t, a)
}

func TestHoleIsFirstFit(t *testing.T) {
	static := format.DirectoryEnd(5)
	rec := &recorder{}
	a := NewOwning(static, 5, WithObserver(rec))
	fill(t, a, 0, 8, 0xA0)  // [s, s+8)
	fill(t, a, 1, 4, 0xB0)  // [s+8, s+12)
	fill(t, a, 2, 16, 0xC0) // [s+12, s+28)
	fill(t, a, 3, 8, 0xD0)  // [s+28, s+36)
	fill(t, a, 4, 4, 0xE0)  // [s+36, s+40)

	// Holes: 8 bytes at s, 16 bytes at s+12 (adjacent to field 3).
	_, err := a.UpdateAllocation(0, false, 0)
	require.NoError(t, err)
	_, err = a.UpdateAllocation(2, false, 0)
	require.NoError(t, err)

	// 12 bytes do not fit the first hole, so the second one is used.
	b, err := a.UpdateAllocation(3, true, 12)
	require.NoError(t, err)
	require.Equal(t, PathHole, rec.lastPath(t))
	require.Equal(t, uint64(static+12), entry(t, a, 3).Offset)
	require.Equal(t, repeat(0xD0, 8), b[:8])

	// 8 bytes fit the first hole exactly.
	_, err = a.UpdateAllocation(0, false, 8)
	require.NoError(t, err)
	require.Equal(t, PathHole, rec.lastPath(t))
	require.Equal(t, uint64(static), entry(t, a, 0).Offset)
	require.Equal(t, repeat(0xB0, 4), Dynamic(a, 1))
	require.Equal(t, repeat(0xE0, 4), Dynamic(a, 4))
	requireSound(t, a)
}

func TestShrinkThenGrowIsStable(t *testing.T) {
	static := format.DirectoryEnd(2)
	rec := &recorder{}
	a := NewOwning(static, 2, WithObserver(rec))
	fill(t, a, 0, 8, 1)
	fill(t, a, 1, 8, 2)
	before := entry(t, a, 0).Offset

	_, err := a.UpdateAllocation(0, true, 3)
	require.NoError(t, err)
	require.Equal(t, PathShrink, rec.lastPath(t))

	b, err := a.UpdateAllocation(0, true, 8)
	require.NoError(t, err)
	require.Equal(t, PathInPlace, rec.lastPath(t))
	require.Equal(t, before, entry(t, a, 0).Offset)
	require.Equal(t, []byte{1, 1, 1, 0, 0, 0, 0, 0}, b, "regrown bytes must be zero")
}

func TestGrowthPreservesContent(t *testing.T) {
	static := format.DirectoryEnd(3)

	tests := []struct {
		name  string
		setup func(t *testing.T, a *Owning)
		index int
		size  int
		path  Path
	}{
		{
			name: "last field grows the buffer",
			setup: func(t *testing.T, a *Owning) {
				fill(t, a, 0, 8, 7)
			},
			index: 0, size: 24, path: PathGrow,
		},
		{
			name: "in place before neighbour",
			setup: func(t *testing.T, a *Owning) {
				fill(t, a, 0, 16, 7)
				fill(t, a, 1, 4, 9)
				_, err := a.UpdateAllocation(0, true, 8)
				require.NoError(t, err)
			},
			index: 0, size: 16, path: PathInPlace,
		},
		{
			name: "hole",
			setup: func(t *testing.T, a *Owning) {
				fill(t, a, 1, 16, 9) // becomes the hole
				fill(t, a, 0, 8, 7)
				fill(t, a, 2, 4, 5)
				_, err := a.UpdateAllocation(1, false, 0)
				require.NoError(t, err)
			},
			index: 0, size: 12, path: PathHole,
		},
		{
			name: "append",
			setup: func(t *testing.T, a *Owning) {
				fill(t, a, 0, 8, 7)
				fill(t, a, 1, 8, 9)
				fill(t, a, 2, 16, 5)
				// 15 bytes of slack remain at the end.
				_, err := a.UpdateAllocation(2, true, 1)
				require.NoError(t, err)
			},
			index: 0, size: 9, path: PathAppend,
		},
		{
			name: "grow buffer",
			setup: func(t *testing.T, a *Owning) {
				fill(t, a, 0, 8, 7)
				fill(t, a, 1, 8, 9)
			},
			index: 0, size: 32, path: PathGrow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			a := NewOwning(static, 3, WithObserver(rec))
			tt.setup(t, a)
			old := append([]byte(nil), Dynamic(a, tt.index)...)
			require.NotEmpty(t, old)

			b, err := a.UpdateAllocation(tt.index, true, tt.size)
			require.NoError(t, err)
			assert.Equal(t, tt.path, rec.lastPath(t))
			require.Len(t, b, tt.size)
			require.Equal(t, old, b[:len(old)])
			require.Equal(t, make([]byte, tt.size-len(old)), b[len(old):])
			require.Equal(t, b, Dynamic(a, tt.index))
			requireSound(t, a)
		})
	}
}

func TestGrowBufferPlacesAfterLastEntry(t *testing.T) {
	static := format.DirectoryEnd(2)
	a := NewOwning(static, 2)
	fill(t, a, 0, 8, 1)
	fill(t, a, 1, 8, 2)

	_, err := a.UpdateAllocation(0, true, 10)
	require.NoError(t, err)
	e := entry(t, a, 0)
	require.Equal(t, uint64(static+16), e.Offset)
	require.Equal(t, static+16+10, a.Size())
}

func TestUpdateAllocationErrors(t *testing.T) {
	a := NewOwning(format.DirectoryEnd(1), 1)

	_, err := a.UpdateAllocation(1, false, 4)
	var be *BoundsError
	require.ErrorAs(t, err, &be)
	require.Equal(t, 1, be.Index)
	require.ErrorIs(t, err, ErrOutOfBounds)

	_, err = a.UpdateAllocation(-1, false, 4)
	require.ErrorIs(t, err, ErrOutOfBounds)

	_, err = a.UpdateAllocation(0, false, -4)
	require.ErrorIs(t, err, ErrOutOfBounds)

	// Freeing an unallocated field is a no-op.
	b, err := a.UpdateAllocation(0, false, 0)
	require.NoError(t, err)
	require.Empty(t, b)
}

func TestUpdateAllocationRejectsCorruptEntry(t *testing.T) {
	a := NewOwning(format.DirectoryEnd(2), 2)
	fill(t, a, 0, 4, 1)
	data, err := a.MutableBytes()
	require.NoError(t, err)
	require.NoError(t, format.PutEntry(data, 1, format.Entry{Offset: 1000, Size: 4}))

	_, err = a.UpdateAllocation(0, true, 64)
	require.ErrorIs(t, err, ErrCorruptLayout)
}

func TestCompactThresholdCutoff(t *testing.T) {
	static := format.DirectoryEnd(3)
	rec := &recorder{}
	a := NewOwning(static, 3, WithObserver(rec))
	fill(t, a, 0, 8, 1)
	fill(t, a, 1, 400, 2)
	fill(t, a, 2, 8, 3)
	_, err := a.UpdateAllocation(1, false, 0)
	require.NoError(t, err)
	size := static + 416

	// waste is 400/(static+16), well above 1, yet thresholds >= 1 stay no-ops
	for _, th := range []float32{1, 1.5, 5} {
		require.NoError(t, a.Compact(th))
		require.Equal(t, size, a.Size())
	}
	require.Empty(t, rec.compacts)

	require.NoError(t, a.Compact(0.99))
	require.Equal(t, static+16, a.Size())
	require.Equal(t, [][2]int{{size, static + 16}}, rec.compacts)
}

func TestCompact(t *testing.T) {
	static := format.DirectoryEnd(3)
	rec := &recorder{}
	a := NewOwning(static, 3, WithObserver(rec))
	fill(t, a, 0, 8, 1)
	fill(t, a, 1, 32, 2)
	fill(t, a, 2, 8, 3)
	_, err := a.UpdateAllocation(1, false, 0)
	require.NoError(t, err)
	require.Equal(t, static+48, a.Size())

	// Unreachable threshold never compacts.
	require.NoError(t, a.Compact(1.0))
	require.Equal(t, static+48, a.Size())
	require.Empty(t, rec.compacts)

	require.NoError(t, a.Compact(0))
	require.Equal(t, static+16, a.Size())
	require.Equal(t, [][2]int{{static + 48, static + 16}}, rec.compacts)
	require.Equal(t, format.Entry{Offset: uint64(static), Size: 8}, entry(t, a, 0))
	require.Equal(t, format.Entry{}, entry(t, a, 1))
	require.Equal(t, format.Entry{Offset: uint64(static + 8), Size: 8}, entry(t, a, 2))
	require.Equal(t, repeat(1, 8), Dynamic(a, 0))
	require.Equal(t, repeat(3, 8), Dynamic(a, 2))
	requireSound(t, a)

	// Second pass is a no-op.
	require.NoError(t, a.Compact(0))
	require.Equal(t, static+16, a.Size())
	require.Len(t, rec.compacts, 1)
}

func TestCompactPacksInDirectoryOrder(t *testing.T) {
	static := format.DirectoryEnd(2)
	a := NewOwning(static, 2)
	fill(t, a, 1, 4, 0xB)
	fill(t, a, 0, 32, 0xA)
	_, err := a.UpdateAllocation(0, true, 4)
	require.NoError(t, err)

	require.NoError(t, a.Compact(0))
	require.Equal(t, uint64(static), entry(t, a, 0).Offset)
	require.Equal(t, uint64(static+4), entry(t, a, 1).Offset)
	require.Equal(t, repeat(0xA, 4), Dynamic(a, 0))
	require.Equal(t, repeat(0xB, 4), Dynamic(a, 1))
}

func TestCompactThreshold(t *testing.T) {
	static := format.DirectoryEnd(2)
	a := NewOwning(static, 2)
	fill(t, a, 0, 100, 1)
	fill(t, a, 1, 4, 2)
	_, err := a.UpdateAllocation(1, false, 0)
	require.NoError(t, err)
	size := a.Size()

	// 4 wasted bytes over a minimum of static+100 is below 10%.
	require.NoError(t, a.Compact(0.1))
	require.Equal(t, size, a.Size())

	require.NoError(t, a.Compact(0.01))
	require.Equal(t, static+100, a.Size())
}

func TestCheck(t *testing.T) {
	static := format.DirectoryEnd(3) + 4

	tests := []struct {
		name   string
		index  int
		entry  format.Entry
		reason string
	}{
		{"inside directory", 0, format.Entry{Offset: 8, Size: 4}, "directory"},
		{"inside static", 1, format.Entry{Offset: uint64(static - 2), Size: 4}, "static"},
		{"past end", 2, format.Entry{Offset: uint64(static), Size: 1 << 20}, "bounds"},
		{"size without offset", 0, format.Entry{Size: 4}, "nonzero size"},
		{"offset overflow", 1, format.Entry{Offset: ^uint64(0), Size: 4}, "overflow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewOwning(static, 3)
			fill(t, a, 2, 8, 1)
			data, err := a.MutableBytes()
			require.NoError(t, err)
			require.NoError(t, format.PutEntry(data, tt.index, tt.entry))

			err = a.Check(3)
			require.ErrorIs(t, err, ErrCorruptLayout)
			var le *LayoutError
			require.ErrorAs(t, err, &le)
			require.Equal(t, tt.index, le.Index)
			require.Equal(t, tt.entry.Offset, le.Offset)
			require.Equal(t, a.Size(), le.BufferSize)
			require.Contains(t, le.Error(), tt.reason)
		})
	}
}

func TestCheckOverlap(t *testing.T) {
	static := format.DirectoryEnd(2)
	a := NewOwning(static, 2)
	fill(t, a, 0, 8, 1)
	fill(t, a, 1, 8, 2)
	data, err := a.MutableBytes()
	require.NoError(t, err)
	require.NoError(t, format.PutEntry(data, 1, format.Entry{Offset: uint64(static + 4), Size: 8}))

	err = a.Check(2)
	var le *LayoutError
	require.ErrorAs(t, err, &le)
	require.Equal(t, 1, le.Index)
	require.Contains(t, le.Error(), "overlaps entry 0")
}

func TestCheckShortBuffer(t *testing.T) {
	data := make([]byte, format.DirectoryEnd(2)-1)
	r := NewReadOnly(data, format.DirectoryEnd(2), 2)
	err := r.Check(2)
	require.True(t, errors.Is(err, ErrCorruptLayout))

	require.ErrorIs(t, NewOwning(format.DirectoryEnd(1), 1).Check(2), ErrCorruptLayout)
}

func TestOwningCopyFrom(t *testing.T) {
	static := format.DirectoryEnd(1)
	src := NewOwning(static, 1)
	fill(t, src, 0, 5, 9)

	dst := NewOwning(static, 1)
	require.NoError(t, dst.CopyFrom(src.Bytes()))
	require.Equal(t, src.Bytes(), dst.Bytes())

	src.Bytes()[static] = 0
	require.Equal(t, byte(9), dst.Bytes()[static], "copy must not alias")

	require.ErrorIs(t, dst.CopyFrom(make([]byte, static-1)), ErrSizeMismatch)

	own, err := NewOwningFrom(dst.Bytes(), static, 1)
	require.NoError(t, err)
	require.Equal(t, dst.Bytes(), own.Bytes())

	_, err = NewOwningFrom(nil, 3, 1)
	require.ErrorIs(t, err, ErrInvalidShape)
}

func TestPathString(t *testing.T) {
	require.Equal(t, "hole", PathHole.String())
	require.Equal(t, "in_place", PathInPlace.String())
	require.Equal(t, "unknown", Path(0).String())
	require.Equal(t, "unknown", Path(99).String())
}
