package alloc

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/zerobuf/internal/format"
)

// NestedSubView presents the payload of one parent directory slot as a
// standalone object with its own directory. Growth beyond the slot is
// requested from the parent with copyExisting set, so the nested content
// survives whatever move the parent makes.
//
// An element view covers one fixed-size element of an array stored in the
// slot instead of the whole slot. Its size is fixed at staticSize.
type NestedSubView struct {
	base
	parent   Allocator
	slot     int
	element  int // -1 for a whole-slot view
	readOnly bool
}

// NewNestedSubView returns a mutable view of slot. An unallocated slot is
// allocated to staticSize bytes and stamped with the ABI version tag.
func NewNestedSubView(parent Allocator, slot, staticSize, numDynamic int) (*NestedSubView, error) {
	v, err := newNestedSubView(parent, slot, -1, staticSize, numDynamic, false)
	if err != nil {
		return nil, err
	}
	if n := len(v.window()); n < staticSize {
		if _, err := parent.UpdateAllocation(slot, true, staticSize); err != nil {
			return nil, err
		}
		if n == 0 {
			w, err := v.mutableWindow()
			if err != nil {
				return nil, err
			}
			_ = format.PutVersion(w)
		}
	}
	return v, nil
}

// NewConstNestedSubView returns a view of slot that rejects every mutation.
// An unallocated slot reads as empty.
func NewConstNestedSubView(parent Allocator, slot, staticSize, numDynamic int) (*NestedSubView, error) {
	return newNestedSubView(parent, slot, -1, staticSize, numDynamic, true)
}

// NewNestedElement returns a mutable view of element i of the array in slot,
// positioned at i*staticSize.
func NewNestedElement(parent Allocator, slot, i, staticSize, numDynamic int) (*NestedSubView, error) {
	return newNestedSubView(parent, slot, i, staticSize, numDynamic, false)
}

// NewConstNestedElement is the read-only variant of NewNestedElement.
func NewConstNestedElement(parent Allocator, slot, i, staticSize, numDynamic int) (*NestedSubView, error) {
	return newNestedSubView(parent, slot, i, staticSize, numDynamic, true)
}

func newNestedSubView(parent Allocator, slot, element, staticSize, numDynamic int, readOnly bool) (*NestedSubView, error) {
	if err := validShape(staticSize, numDynamic); err != nil {
		return nil, err
	}
	if slot < 0 || slot >= parent.NumDynamic() {
		return nil, &BoundsError{Index: slot, Len: parent.NumDynamic()}
	}
	v := &NestedSubView{parent: parent, slot: slot, element: element, readOnly: readOnly}
	v.base = base{r: v, staticSize: staticSize, numDynamic: numDynamic, obs: ObserverOf(parent)}
	if element != -1 {
		count := len(Dynamic(parent, slot)) / staticSize
		if element < 0 || element >= count {
			return nil, &BoundsError{Index: element, Len: count}
		}
	}
	return v, nil
}

// Slot returns the parent directory index the view is bound to.
func (v *NestedSubView) Slot() int { return v.slot }

func (v *NestedSubView) Bytes() []byte                 { return v.window() }
func (v *NestedSubView) MutableBytes() ([]byte, error) { return v.mutableWindow() }
func (v *NestedSubView) Size() int                     { return len(v.window()) }
func (v *NestedSubView) Movable() bool                 { return false }
func (v *NestedSubView) Mutable() bool                 { return !v.readOnly && v.parent.Mutable() }

// CopyFrom replaces the nested object. A whole-slot view reallocates the
// parent slot to len(data); an element view requires exactly staticSize bytes.
func (v *NestedSubView) CopyFrom(data []byte) error {
	if v.readOnly {
		return ErrImmutable
	}
	if v.element >= 0 {
		w, err := v.mutableWindow()
		if err != nil {
			return err
		}
		if len(data) != len(w) {
			return fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(data), len(w))
		}
		copy(w, data)
		return nil
	}
	if len(data) < v.staticSize {
		return fmt.Errorf("%w: %d bytes cannot hold a static section of %d",
			ErrSizeMismatch, len(data), v.staticSize)
	}
	// data may alias the parent buffer, which the update can move.
	src := bytes.Clone(data)
	out, err := v.parent.UpdateAllocation(v.slot, false, len(src))
	if err != nil {
		return err
	}
	copy(out, src)
	return nil
}

func (v *NestedSubView) window() []byte {
	return v.slice(v.parent.Bytes())
}

func (v *NestedSubView) mutableWindow() ([]byte, error) {
	if v.readOnly {
		return nil, ErrImmutable
	}
	pb, err := v.parent.MutableBytes()
	if err != nil {
		return nil, err
	}
	w := v.slice(pb)
	if w == nil {
		return nil, &LayoutError{Index: v.slot, BufferSize: len(pb), Reason: "nested slot unallocated or outside parent"}
	}
	return w, nil
}

// slice locates the view inside the parent bytes pb.
func (v *NestedSubView) slice(pb []byte) []byte {
	s, live, err := entrySpan(pb, v.parent.StaticSize(), v.parent.NumDynamic(), v.slot)
	if err != nil || !live {
		return nil
	}
	w := pb[s.Offset:s.End():s.End()]
	if v.element < 0 {
		return w
	}
	start := v.element * v.staticSize
	if start+v.staticSize > len(w) {
		return nil
	}
	return w[start : start+v.staticSize : start+v.staticSize]
}

func (v *NestedSubView) resize(n int) error {
	if v.readOnly {
		return ErrImmutable
	}
	if v.element >= 0 {
		return fmt.Errorf("%w: element view is fixed at %d bytes, need %d", ErrSizeMismatch, v.staticSize, n)
	}
	_, err := v.parent.UpdateAllocation(v.slot, true, n)
	return err
}
