package alloc

import (
	"errors"
	"fmt"
)

var (
	// ErrImmutable indicates a mutation was attempted on a read-only allocator or view.
	ErrImmutable = errors.New("zerobuf: allocator is read-only")

	// ErrOutOfBounds indicates an index or byte range outside the valid range.
	ErrOutOfBounds = errors.New("zerobuf: out of bounds")

	// ErrSizeMismatch indicates a fixed-size copy received the wrong byte count.
	ErrSizeMismatch = errors.New("zerobuf: size mismatch")

	// ErrTypeMismatch indicates assignment or comparison across different schemas.
	ErrTypeMismatch = errors.New("zerobuf: type mismatch")

	// ErrCorruptLayout indicates a directory entry violates the layout rules.
	ErrCorruptLayout = errors.New("zerobuf: corrupt layout")

	// ErrVersionMismatch indicates the ABI version tag differs from ABIVersion.
	ErrVersionMismatch = errors.New("zerobuf: ABI version mismatch")

	// ErrMisaligned indicates a typed slice alias was requested over unaligned bytes.
	ErrMisaligned = errors.New("zerobuf: misaligned typed view")

	// ErrInvalidShape indicates a static size too small for its own directory.
	ErrInvalidShape = errors.New("zerobuf: invalid allocator shape")
)

// LayoutError describes a directory entry or buffer that breaks the layout
// invariants. Index is -1 when the problem is not tied to one entry.
type LayoutError struct {
	Index      int
	Offset     uint64
	Size       uint64
	BufferSize int
	Reason     string
}

func (e *LayoutError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("zerobuf: corrupt layout: %s (buffer size %d)", e.Reason, e.BufferSize)
	}
	return fmt.Sprintf("zerobuf: corrupt layout: entry %d offset=0x%X size=%d buffer size=%d: %s",
		e.Index, e.Offset, e.Size, e.BufferSize, e.Reason)
}

func (e *LayoutError) Unwrap() error { return ErrCorruptLayout }

// VersionError reports a buffer written by a different layout generation.
type VersionError struct {
	Got  uint32
	Want uint32
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("zerobuf: ABI version mismatch: got %d, want %d", e.Got, e.Want)
}

func (e *VersionError) Unwrap() error { return ErrVersionMismatch }

// BoundsError reports an index outside [0, Len).
type BoundsError struct {
	Index int
	Len   int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("zerobuf: index %d out of bounds (len %d)", e.Index, e.Len)
}

func (e *BoundsError) Unwrap() error { return ErrOutOfBounds }
