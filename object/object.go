// Package object binds a schema to an allocator. An Object is the value
// type generated accessors wrap: it carries the type identity used to guard
// assignment and comparison, and owns exactly one allocator at all times.
package object

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/zerobuf/alloc"
	"github.com/joshuapare/zerobuf/internal/format"
	"github.com/joshuapare/zerobuf/schema"
)

// DefaultCompactThreshold is the wasted-space fraction CompactDefault uses.
const DefaultCompactThreshold = 0.1

// Object is one zerobuf object of a known schema.
//
// Methods that may move the buffer (SetDynamic, SetBytes, CopyFrom, MoveFrom,
// Compact) invalidate slices obtained from Bytes and from child objects.
type Object struct {
	s *schema.Schema
	a alloc.Allocator
}

// New returns an empty object of schema s backed by an owning allocator.
func New(s *schema.Schema, opts ...alloc.Option) *Object {
	return &Object{s: s, a: alloc.NewOwning(s.StaticSize, s.NumDynamic, opts...)}
}

// Wrap binds s to an existing allocator. A mutable allocator whose version
// tag differs from the running ABI version is re-stamped.
func Wrap(s *schema.Schema, a alloc.Allocator) (*Object, error) {
	if a.StaticSize() != s.StaticSize || a.NumDynamic() != s.NumDynamic {
		return nil, fmt.Errorf("%w: allocator shape (%d, %d) does not match %s (%d, %d)",
			alloc.ErrInvalidShape, a.StaticSize(), a.NumDynamic(), s.Name, s.StaticSize, s.NumDynamic)
	}
	if a.Mutable() && alloc.CheckVersion(a) != nil {
		if b, err := a.MutableBytes(); err == nil {
			_ = format.PutVersion(b)
		}
	}
	return &Object{s: s, a: a}, nil
}

// Decode returns a read-only object over data without copying it. The
// version tag and directory are validated first.
func Decode(s *schema.Schema, data []byte, opts ...alloc.Option) (*Object, error) {
	a, err := alloc.Decode(data, s.StaticSize, s.NumDynamic, opts...)
	if err != nil {
		return nil, err
	}
	return &Object{s: s, a: a}, nil
}

// FromBytes returns a mutable object holding a validated copy of data.
func FromBytes(s *schema.Schema, data []byte, opts ...alloc.Option) (*Object, error) {
	a, err := alloc.NewOwningFrom(data, s.StaticSize, s.NumDynamic, opts...)
	if err != nil {
		return nil, err
	}
	o := &Object{s: s, a: a}
	if err := o.CheckVersion(); err != nil {
		return nil, err
	}
	if err := o.Check(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Object) Schema() *schema.Schema     { return o.s }
func (o *Object) Type() schema.TypeID        { return o.s.Type }
func (o *Object) Allocator() alloc.Allocator { return o.a }
func (o *Object) Bytes() []byte              { return o.a.Bytes() }
func (o *Object) Size() int                  { return o.a.Size() }
func (o *Object) Mutable() bool              { return o.a.Mutable() }

// Binary returns a copy of the serialized bytes.
func (o *Object) Binary() []byte {
	return bytes.Clone(o.a.Bytes())
}

// Clone returns a mutable deep copy on an owning allocator, reporting to the
// same observer as o.
func (o *Object) Clone() (*Object, error) {
	a, err := alloc.NewOwningFrom(o.a.Bytes(), o.s.StaticSize, o.s.NumDynamic,
		alloc.WithObserver(alloc.ObserverOf(o.a)))
	if err != nil {
		return nil, err
	}
	return &Object{s: o.s, a: a}, nil
}

func (o *Object) sameType(src *Object) error {
	if o.s.Type != src.s.Type {
		return fmt.Errorf("%w: cannot assign %s to %s", alloc.ErrTypeMismatch, src.s.Name, o.s.Name)
	}
	return nil
}

// CopyFrom replaces o's contents with a deep copy of src.
func (o *Object) CopyFrom(src *Object) error {
	if err := o.sameType(src); err != nil {
		return err
	}
	if o.a == src.a {
		return nil
	}
	return o.a.CopyFrom(src.a.Bytes())
}

// MoveFrom transfers src's contents to o. When both allocators are movable
// o takes over src's allocator; otherwise the bytes are copied. src is left
// holding a fresh empty allocator of its schema.
func (o *Object) MoveFrom(src *Object) error {
	if o == src {
		return nil
	}
	if err := o.sameType(src); err != nil {
		return err
	}
	obs := alloc.ObserverOf(src.a)
	if o.a.Movable() && src.a.Movable() {
		o.a = src.a
	} else if err := o.a.CopyFrom(src.a.Bytes()); err != nil {
		return err
	}
	src.a = alloc.NewOwning(src.s.StaticSize, src.s.NumDynamic, alloc.WithObserver(obs))
	return nil
}

// Equal reports whether o and other are the same type and hold the same
// content. Identical bytes are equal; otherwise the objects are compared
// field by field, so hole placement does not matter.
func (o *Object) Equal(other *Object) bool {
	if o.s.Type != other.s.Type {
		return false
	}
	if o.a == other.a || bytes.Equal(o.a.Bytes(), other.a.Bytes()) {
		return true
	}
	return schema.Equal(o.s, o.a, other.a)
}

// Compact removes heap holes when the wasted fraction reaches threshold.
// Objects without dynamic fields have nothing to compact.
func (o *Object) Compact(threshold float32) error {
	if o.s.NumDynamic == 0 {
		return nil
	}
	return o.a.Compact(threshold)
}

// CompactDefault is Compact(DefaultCompactThreshold).
func (o *Object) CompactDefault() error {
	return o.Compact(DefaultCompactThreshold)
}

// CheckVersion verifies the ABI version tag.
func (o *Object) CheckVersion() error {
	return alloc.CheckVersion(o.a)
}

// Check validates the directory and, recursively, the directories of every
// allocated nested object.
func (o *Object) Check() error {
	if err := o.a.Check(o.s.NumDynamic); err != nil {
		return err
	}
	return schema.Walk(o.a, o.s, func(string, schema.Field, []byte) error { return nil })
}

// SetBytes replaces the whole buffer with a copy of data after validating it.
func (o *Object) SetBytes(data []byte) error {
	if !o.a.Mutable() {
		return alloc.ErrImmutable
	}
	in, err := alloc.Decode(data, o.s.StaticSize, o.s.NumDynamic)
	if err != nil {
		return err
	}
	if err := schema.Walk(in, o.s, func(string, schema.Field, []byte) error { return nil }); err != nil {
		return err
	}
	return o.a.CopyFrom(data)
}

// Dynamic returns the bytes of dynamic field index, nil when unallocated.
func (o *Object) Dynamic(index int) []byte {
	return alloc.Dynamic(o.a, index)
}

// SetDynamic replaces the bytes of dynamic field index. An empty data frees
// the field.
func (o *Object) SetDynamic(index int, data []byte) error {
	// data may alias the buffer, which the update can move.
	src := bytes.Clone(data)
	out, err := o.a.UpdateAllocation(index, false, len(src))
	if err != nil {
		return err
	}
	copy(out, src)
	return nil
}
