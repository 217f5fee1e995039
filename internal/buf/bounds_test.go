package buf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddOverflowSafe(t *testing.T) {
	sum, ok := AddOverflowSafe(10, 5)
	require.True(t, ok)
	require.Equal(t, 15, sum)

	_, ok = AddOverflowSafe(math.MaxInt, 1)
	require.False(t, ok, "adding to MaxInt must overflow")

	_, ok = AddOverflowSafe(math.MinInt, -1)
	require.False(t, ok, "subtracting from MinInt must underflow")
}

func TestMulOverflowSafe(t *testing.T) {
	tests := []struct {
		name string
		a, b int
		want int
		ok   bool
	}{
		{"zero", 0, math.MaxInt, 0, true},
		{"small", 12, 4, 48, true},
		{"overflow", math.MaxInt/2 + 1, 2, 0, false},
		{"negative", -1, 4, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MulOverflowSafe(tt.a, tt.b)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRange(t *testing.T) {
	off, n, err := Range(32, 8, 12)
	require.NoError(t, err)
	require.Equal(t, 8, off)
	require.Equal(t, 12, n)

	_, _, err = Range(32, 24, 12)
	require.ErrorContains(t, err, "bounds")

	_, _, err = Range(32, math.MaxUint64, 1)
	require.ErrorContains(t, err, "overflow")

	_, _, err = Range(32, math.MaxInt, math.MaxInt)
	require.ErrorContains(t, err, "overflow")
}

func TestSliceAndHas(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4}
	got, ok := Slice(data, 1, 3)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3}, got)
	require.Equal(t, 3, cap(got), "capacity must be clipped")

	_, ok = Slice(data, 4, 2)
	require.False(t, ok)
	require.False(t, Has(data, 2, 4))
	require.True(t, Has(data, 2, 1))

	_, ok = Slice(data, -1, 1)
	require.False(t, ok)
	_, ok = Slice(data, 1, -1)
	require.False(t, ok)
}
