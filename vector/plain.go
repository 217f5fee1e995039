// Package vector provides typed arrays over one dynamic field of an
// allocator.
//
// Plain vectors reinterpret the slot bytes as a contiguous []T of a
// fixed-layout type. Nested vectors hold fixed-size objects and hand out a
// sub-view per element instead of a slice. The choice is made by the
// constructor the caller uses, never by inspecting T at run time.
//
// Vectors keep only the allocator and slot index, so they stay valid across
// reallocation, but slices returned by Data, MutableData and Bytes do not.
package vector

import (
	"bytes"
	"fmt"
	"iter"

	"github.com/joshuapare/zerobuf/alloc"
	"github.com/joshuapare/zerobuf/internal/buf"
	"github.com/joshuapare/zerobuf/internal/plain"
)

// Plain is a vector of fixed-layout values stored in directory slot index.
type Plain[T any] struct {
	a     alloc.Allocator
	index int
	size  int
}

// NewPlain binds a vector of T to dynamic field index of a.
func NewPlain[T any](a alloc.Allocator, index int) (*Plain[T], error) {
	if err := plain.Check[T](); err != nil {
		return nil, err
	}
	if index < 0 || index >= a.NumDynamic() {
		return nil, &alloc.BoundsError{Index: index, Len: a.NumDynamic()}
	}
	return &Plain[T]{a: a, index: index, size: plain.Size[T]()}, nil
}

// Len returns the number of whole elements in the slot.
func (v *Plain[T]) Len() int { return len(v.Bytes()) / v.size }

func (v *Plain[T]) Empty() bool { return v.Len() == 0 }

// Bytes returns the slot payload, nil when unallocated.
func (v *Plain[T]) Bytes() []byte { return alloc.Dynamic(v.a, v.index) }

// Clear frees the slot.
func (v *Plain[T]) Clear() error {
	_, err := v.a.UpdateAllocation(v.index, false, 0)
	return err
}

// Resize sets the length to n, keeping existing elements. New elements are
// zero.
func (v *Plain[T]) Resize(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative length %d", alloc.ErrOutOfBounds, n)
	}
	total, ok := buf.MulOverflowSafe(n, v.size)
	if !ok {
		return fmt.Errorf("%w: length %d overflows", alloc.ErrOutOfBounds, n)
	}
	_, err := v.a.UpdateAllocation(v.index, true, total)
	return err
}

// Push appends x.
func (v *Plain[T]) Push(x T) error {
	n := v.Len()
	total, ok := buf.MulOverflowSafe(n+1, v.size)
	if !ok {
		return fmt.Errorf("%w: length %d overflows", alloc.ErrOutOfBounds, n+1)
	}
	b, err := v.a.UpdateAllocation(v.index, true, total)
	if err != nil {
		return err
	}
	plain.Encode(b[n*v.size:], x)
	return nil
}

func (v *Plain[T]) bounds(i int) error {
	if n := v.Len(); i < 0 || i >= n {
		return &alloc.BoundsError{Index: i, Len: n}
	}
	return nil
}

// At returns element i.
func (v *Plain[T]) At(i int) (T, error) {
	if err := v.bounds(i); err != nil {
		var zero T
		return zero, err
	}
	return plain.Decode[T](v.Bytes()[i*v.size:]), nil
}

// Set overwrites element i.
func (v *Plain[T]) Set(i int, x T) error {
	if err := v.bounds(i); err != nil {
		return err
	}
	b, err := alloc.MutableDynamic(v.a, v.index)
	if err != nil {
		return err
	}
	plain.Encode(b[i*v.size:], x)
	return nil
}

// Data returns the elements as a slice. It aliases the buffer when the slot
// is suitably aligned and is a copy otherwise; do not write through it.
func (v *Plain[T]) Data() []T {
	b := v.Bytes()
	b = b[:len(b)/v.size*v.size]
	if vs, ok := plain.View[T](b); ok {
		return vs
	}
	return v.Values()
}

// MutableData returns the elements as a slice aliasing the buffer. It fails
// with ErrMisaligned when the slot offset is not aligned for T.
func (v *Plain[T]) MutableData() ([]T, error) {
	b, err := alloc.MutableDynamic(v.a, v.index)
	if err != nil {
		return nil, err
	}
	b = b[:len(b)/v.size*v.size]
	vs, ok := plain.View[T](b)
	if !ok {
		return nil, fmt.Errorf("%w: slot %d for a %d-byte aligned element", alloc.ErrMisaligned, v.index, plain.Align[T]())
	}
	return vs, nil
}

// Values returns a copy of the elements.
func (v *Plain[T]) Values() []T {
	b := v.Bytes()
	out := make([]T, len(b)/v.size)
	for i := range out {
		out[i] = plain.Decode[T](b[i*v.size:])
	}
	return out
}

// SetValues replaces the contents with xs.
func (v *Plain[T]) SetValues(xs []T) error {
	b, err := v.a.UpdateAllocation(v.index, false, len(xs)*v.size)
	if err != nil {
		return err
	}
	copy(b, plain.Bytes(xs))
	return nil
}

// All iterates over index and value pairs.
func (v *Plain[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		b := v.Bytes()
		for i := range len(b) / v.size {
			if !yield(i, plain.Decode[T](b[i*v.size:])) {
				return
			}
		}
	}
}

// Equal compares the live bytes of both vectors.
func (v *Plain[T]) Equal(other *Plain[T]) bool {
	return bytes.Equal(v.Bytes(), other.Bytes())
}

// String returns the contents of a byte vector as text.
func String(v *Plain[byte]) string { return string(v.Bytes()) }

// SetString replaces the contents of a byte vector with s.
func SetString(v *Plain[byte], s string) error {
	return v.SetValues([]byte(s))
}
