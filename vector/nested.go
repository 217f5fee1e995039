package vector

import (
	"bytes"
	"fmt"
	"iter"

	"github.com/joshuapare/zerobuf/alloc"
	"github.com/joshuapare/zerobuf/internal/buf"
	"github.com/joshuapare/zerobuf/internal/format"
	"github.com/joshuapare/zerobuf/object"
	"github.com/joshuapare/zerobuf/schema"
)

// Nested is a vector of fixed-size objects of schema elem stored
// back to back in directory slot index. Each access builds a sub-view at
// i*elem.StaticSize and passes the bound object through bind, which is
// where generated code wraps it in its typed accessor.
type Nested[O any] struct {
	a     alloc.Allocator
	index int
	elem  *schema.Schema
	bind  func(*object.Object) O
}

// NewNested binds a vector of elem objects to dynamic field index of a.
func NewNested[O any](a alloc.Allocator, index int, elem *schema.Schema, bind func(*object.Object) O) (*Nested[O], error) {
	if index < 0 || index >= a.NumDynamic() {
		return nil, &alloc.BoundsError{Index: index, Len: a.NumDynamic()}
	}
	if elem.StaticSize <= 0 {
		return nil, fmt.Errorf("%w: element schema %s has no static size", alloc.ErrInvalidShape, elem.Name)
	}
	return &Nested[O]{a: a, index: index, elem: elem, bind: bind}, nil
}

// NewObjects is NewNested returning the untyped objects.
func NewObjects(a alloc.Allocator, index int, elem *schema.Schema) (*Nested[*object.Object], error) {
	return NewNested(a, index, elem, func(o *object.Object) *object.Object { return o })
}

func (v *Nested[O]) Len() int    { return len(v.Bytes()) / v.elem.StaticSize }
func (v *Nested[O]) Empty() bool { return v.Len() == 0 }

// Bytes returns the slot payload, nil when unallocated.
func (v *Nested[O]) Bytes() []byte { return alloc.Dynamic(v.a, v.index) }

// Clear frees the slot.
func (v *Nested[O]) Clear() error {
	_, err := v.a.UpdateAllocation(v.index, false, 0)
	return err
}

// Resize sets the length to n. New elements are empty objects.
func (v *Nested[O]) Resize(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative length %d", alloc.ErrOutOfBounds, n)
	}
	size := v.elem.StaticSize
	total, ok := buf.MulOverflowSafe(n, size)
	if !ok {
		return fmt.Errorf("%w: length %d overflows", alloc.ErrOutOfBounds, n)
	}
	old := v.Len()
	b, err := v.a.UpdateAllocation(v.index, true, total)
	if err != nil {
		return err
	}
	for i := old; i < n; i++ {
		_ = format.PutVersion(b[i*size:])
	}
	return nil
}

// At returns element i. The element is read-only when the vector's
// allocator is.
func (v *Nested[O]) At(i int) (O, error) {
	var zero O
	if n := v.Len(); i < 0 || i >= n {
		return zero, &alloc.BoundsError{Index: i, Len: n}
	}
	var (
		view *alloc.NestedSubView
		err  error
	)
	if v.a.Mutable() {
		view, err = alloc.NewNestedElement(v.a, v.index, i, v.elem.StaticSize, v.elem.NumDynamic)
	} else {
		view, err = alloc.NewConstNestedElement(v.a, v.index, i, v.elem.StaticSize, v.elem.NumDynamic)
	}
	if err != nil {
		return zero, err
	}
	o, err := object.Wrap(v.elem, view)
	if err != nil {
		return zero, err
	}
	return v.bind(o), nil
}

func (v *Nested[O]) element(o *object.Object) ([]byte, error) {
	if o.Type() != v.elem.Type {
		return nil, fmt.Errorf("%w: %s element for a vector of %s", alloc.ErrTypeMismatch, o.Schema().Name, v.elem.Name)
	}
	if o.Size() != v.elem.StaticSize {
		return nil, fmt.Errorf("%w: element is %d bytes, vector elements are %d",
			alloc.ErrSizeMismatch, o.Size(), v.elem.StaticSize)
	}
	// o may be an element of this vector.
	return bytes.Clone(o.Bytes()), nil
}

// Push appends a copy of o.
func (v *Nested[O]) Push(o *object.Object) error {
	src, err := v.element(o)
	if err != nil {
		return err
	}
	size := v.elem.StaticSize
	n := v.Len()
	total, ok := buf.MulOverflowSafe(n+1, size)
	if !ok {
		return fmt.Errorf("%w: length %d overflows", alloc.ErrOutOfBounds, n+1)
	}
	b, err := v.a.UpdateAllocation(v.index, true, total)
	if err != nil {
		return err
	}
	copy(b[n*size:], src)
	return nil
}

// Set overwrites element i with a copy of o.
func (v *Nested[O]) Set(i int, o *object.Object) error {
	if n := v.Len(); i < 0 || i >= n {
		return &alloc.BoundsError{Index: i, Len: n}
	}
	src, err := v.element(o)
	if err != nil {
		return err
	}
	b, err := alloc.MutableDynamic(v.a, v.index)
	if err != nil {
		return err
	}
	copy(b[i*v.elem.StaticSize:], src)
	return nil
}

// All iterates over the elements. It stops early if an element cannot be
// bound.
func (v *Nested[O]) All() iter.Seq2[int, O] {
	return func(yield func(int, O) bool) {
		for i := range v.Len() {
			o, err := v.At(i)
			if err != nil || !yield(i, o) {
				return
			}
		}
	}
}

// Equal compares the live bytes of both vectors.
func (v *Nested[O]) Equal(other *Nested[O]) bool {
	return bytes.Equal(v.Bytes(), other.Bytes())
}
