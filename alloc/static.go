package alloc

import (
	"fmt"

	"github.com/joshuapare/zerobuf/internal/buf"
)

// StaticSubView is a fixed window into a parent's static section. It has no
// directory of its own and never changes size.
type StaticSubView struct {
	parent   Allocator
	offset   int
	size     int
	readOnly bool
}

// NewStaticSubView returns a mutable window of size bytes at offset.
func NewStaticSubView(parent Allocator, offset, size int) (*StaticSubView, error) {
	return newStaticSubView(parent, offset, size, false)
}

// NewConstStaticSubView returns a window that rejects every mutation.
func NewConstStaticSubView(parent Allocator, offset, size int) (*StaticSubView, error) {
	return newStaticSubView(parent, offset, size, true)
}

func newStaticSubView(parent Allocator, offset, size int, readOnly bool) (*StaticSubView, error) {
	end, ok := buf.AddOverflowSafe(offset, size)
	if offset < 0 || size < 0 || !ok || end > parent.StaticSize() {
		return nil, fmt.Errorf("%w: window [%d,+%d) outside static section of %d bytes",
			ErrOutOfBounds, offset, size, parent.StaticSize())
	}
	return &StaticSubView{parent: parent, offset: offset, size: size, readOnly: readOnly}, nil
}

func (v *StaticSubView) Bytes() []byte {
	b, _ := buf.Slice(v.parent.Bytes(), v.offset, v.size)
	return b
}

func (v *StaticSubView) MutableBytes() ([]byte, error) {
	if v.readOnly {
		return nil, ErrImmutable
	}
	pb, err := v.parent.MutableBytes()
	if err != nil {
		return nil, err
	}
	b, ok := buf.Slice(pb, v.offset, v.size)
	if !ok {
		return nil, &LayoutError{Index: -1, BufferSize: len(pb), Reason: "static window outside parent"}
	}
	return b, nil
}

func (v *StaticSubView) Size() int       { return v.size }
func (v *StaticSubView) StaticSize() int { return v.size }
func (v *StaticSubView) NumDynamic() int { return 0 }
func (v *StaticSubView) Movable() bool   { return false }
func (v *StaticSubView) Mutable() bool   { return !v.readOnly && v.parent.Mutable() }

func (v *StaticSubView) observer() Observer { return ObserverOf(v.parent) }

// CopyFrom overwrites the window. data must be exactly Size bytes.
func (v *StaticSubView) CopyFrom(data []byte) error {
	b, err := v.MutableBytes()
	if err != nil {
		return err
	}
	if len(data) != v.size {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(data), v.size)
	}
	copy(b, data)
	return nil
}

// UpdateAllocation always fails: a static view has no directory.
func (v *StaticSubView) UpdateAllocation(index int, _ bool, _ int) ([]byte, error) {
	if v.readOnly {
		return nil, ErrImmutable
	}
	return nil, &BoundsError{Index: index, Len: 0}
}

// Compact is a no-op on a mutable view.
func (v *StaticSubView) Compact(float32) error {
	if v.readOnly {
		return ErrImmutable
	}
	return nil
}

func (v *StaticSubView) Check(numDynamic int) error {
	if numDynamic != 0 {
		return &LayoutError{Index: -1, BufferSize: v.size, Reason: "static view has no directory"}
	}
	if v.Bytes() == nil {
		return &LayoutError{Index: -1, BufferSize: v.parent.Size(), Reason: "static window outside parent"}
	}
	return nil
}
