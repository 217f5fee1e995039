package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies two non-negative ints, returning ok = false on
// overflow or when either operand is negative. Used for count*elementSize.
func MulOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// ToInt converts a decoded u64 to int, failing when it does not fit.
func ToInt(v uint64) (int, bool) {
	if v > math.MaxInt {
		return 0, false
	}
	return int(v), true
}

// Range converts a decoded (offset, size) pair into ints and checks that
// [offset, offset+size) lies inside a buffer of bufLen bytes.
//
//	off, n, err := buf.Range(len(data), e.Offset, e.Size)
//	if err != nil {
//	    return fmt.Errorf("entry: %w", err)
//	}
func Range(bufLen int, offset, size uint64) (int, int, error) {
	off, ok := ToInt(offset)
	if !ok {
		return 0, 0, fmt.Errorf("overflow: offset=%d", offset)
	}
	n, ok := ToInt(size)
	if !ok {
		return 0, 0, fmt.Errorf("overflow: size=%d", size)
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok {
		return 0, 0, fmt.Errorf("overflow: offset=%d + size=%d", off, n)
	}
	if end > bufLen {
		return 0, 0, fmt.Errorf("bounds: end=%d > len=%d", end, bufLen)
	}
	return off, n, nil
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b). The
// capacity of the result is clipped so appends never spill into b.
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}
