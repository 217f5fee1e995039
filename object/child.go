package object

import (
	"fmt"

	"github.com/joshuapare/zerobuf/alloc"
	"github.com/joshuapare/zerobuf/schema"
)

// Static returns the inline object of schema s at offset. The child is
// read-only when o is.
func (o *Object) Static(offset int, s *schema.Schema) (*Object, error) {
	if s.NumDynamic != 0 {
		return nil, fmt.Errorf("%w: %s has dynamic fields and cannot be inline", alloc.ErrInvalidShape, s.Name)
	}
	var (
		v   *alloc.StaticSubView
		err error
	)
	if o.a.Mutable() {
		v, err = alloc.NewStaticSubView(o.a, offset, s.StaticSize)
	} else {
		v, err = alloc.NewConstStaticSubView(o.a, offset, s.StaticSize)
	}
	if err != nil {
		return nil, err
	}
	return &Object{s: s, a: v}, nil
}

// Nested returns the object of schema s stored in dynamic slot. On a mutable
// object an unallocated slot is allocated to a default value; on a read-only
// object it reads as a default value.
func (o *Object) Nested(slot int, s *schema.Schema) (*Object, error) {
	if o.a.Mutable() {
		v, err := alloc.NewNestedSubView(o.a, slot, s.StaticSize, s.NumDynamic)
		if err != nil {
			return nil, err
		}
		return &Object{s: s, a: v}, nil
	}
	if alloc.DynamicSize(o.a, slot) == 0 {
		empty := New(s).Bytes()
		return &Object{s: s, a: alloc.NewReadOnly(empty, s.StaticSize, s.NumDynamic)}, nil
	}
	v, err := alloc.NewConstNestedSubView(o.a, slot, s.StaticSize, s.NumDynamic)
	if err != nil {
		return nil, err
	}
	if err := v.Check(s.NumDynamic); err != nil {
		return nil, err
	}
	return &Object{s: s, a: v}, nil
}

// Child returns the inline or nested object field called name.
func (o *Object) Child(name string) (*Object, error) {
	f, ok := o.s.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no field %q", alloc.ErrTypeMismatch, o.s.Name, name)
	}
	if f.Kind != schema.Object {
		return nil, fmt.Errorf("%w: %s.%s is %s, not an object", alloc.ErrTypeMismatch, o.s.Name, name, f.Kind)
	}
	switch f.Storage {
	case schema.Inline:
		return o.Static(f.Offset, f.Schema)
	case schema.Nested:
		return o.Nested(f.Slot, f.Schema)
	default:
		return nil, fmt.Errorf("%w: %s.%s is a vector", alloc.ErrTypeMismatch, o.s.Name, name)
	}
}
