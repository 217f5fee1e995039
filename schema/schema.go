// Package schema describes zerobuf object layouts at runtime: the field list
// that code generators emit as typed accessors, and that generic tooling
// (dumps, structural comparison) uses to walk a buffer it knows nothing else
// about.
package schema

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/joshuapare/zerobuf/internal/format"
)

// ErrInvalidSchema reports a field list that does not describe a valid layout.
var ErrInvalidSchema = errors.New("schema: invalid")

// TypeID identifies a schema. Objects may only be assigned or compared
// across equal type identifiers.
type TypeID uint64

func (t TypeID) String() string { return fmt.Sprintf("%016x", uint64(t)) }

// TypeOf derives the identifier of the schema named name.
func TypeOf(name string) TypeID {
	return TypeID(xxhash.Sum64String(name))
}

// Storage says where a field's bytes live.
type Storage uint8

const (
	// Inline fields occupy Elements*ElementSize bytes at Offset in the static section.
	Inline Storage = iota
	// Vector fields are a dynamic array in directory slot Slot.
	Vector
	// Nested fields are one variable-size object owning directory slot Slot.
	Nested
)

func (s Storage) String() string {
	switch s {
	case Inline:
		return "inline"
	case Vector:
		return "vector"
	case Nested:
		return "nested"
	default:
		return "invalid"
	}
}

// Field describes one member of a schema.
type Field struct {
	Name        string
	Kind        Kind
	Storage     Storage
	Offset      int // Inline only
	Slot        int // Vector and Nested only
	ElementSize int
	Elements    int     // Inline only; 1 for a single value
	Schema      *Schema // Kind == Object
}

// Size returns the inline byte size of the field, 0 for dynamic fields.
func (f Field) Size() int {
	if f.Storage != Inline {
		return 0
	}
	return f.ElementSize * f.Elements
}

// Dynamic reports whether the field lives in the dynamic heap.
func (f Field) Dynamic() bool { return f.Storage != Inline }

// Schema is the layout of one object type.
type Schema struct {
	Name       string
	Type       TypeID
	StaticSize int
	NumDynamic int
	Fields     []Field
}

// Lookup returns the field called name.
func (s *Schema) Lookup(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Align returns the alignment the schema needs when embedded inline.
func (s *Schema) Align() int {
	a := format.VersionSize
	for _, f := range s.Fields {
		if f.Storage == Inline {
			a = max(a, fieldAlign(f.Kind, f.Schema))
		}
	}
	return a
}

func fieldAlign(k Kind, s *Schema) int {
	if k == Object {
		return s.Align()
	}
	return k.Size()
}

// Validate checks that the field list fits the static size and directory,
// recursively for nested schemas.
func (s *Schema) Validate() error {
	return s.validate(map[*Schema]bool{})
}

func (s *Schema) validate(seen map[*Schema]bool) error {
	if seen[s] {
		return nil
	}
	seen[s] = true

	fail := func(msg string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidSchema, s.Name, fmt.Sprintf(msg, args...))
	}
	dirEnd := format.DirectoryEnd(s.NumDynamic)
	if s.NumDynamic < 0 || s.StaticSize < dirEnd {
		return fail("static size %d cannot hold %d directory entries", s.StaticSize, s.NumDynamic)
	}

	slots := make([]bool, s.NumDynamic)
	names := map[string]bool{}
	var inline []Field
	for _, f := range s.Fields {
		if f.Name == "" || names[f.Name] {
			return fail("missing or duplicate field name %q", f.Name)
		}
		names[f.Name] = true

		switch {
		case f.Kind == Object && f.Schema == nil:
			return fail("field %s: object without schema", f.Name)
		case f.Kind == Object:
			if f.ElementSize != f.Schema.StaticSize {
				return fail("field %s: element size %d, schema %s has static size %d",
					f.Name, f.ElementSize, f.Schema.Name, f.Schema.StaticSize)
			}
			if err := f.Schema.validate(seen); err != nil {
				return err
			}
		case !f.Kind.Scalar():
			return fail("field %s: invalid kind", f.Name)
		case f.ElementSize != f.Kind.Size():
			return fail("field %s: element size %d, kind %s has %d", f.Name, f.ElementSize, f.Kind, f.Kind.Size())
		}

		switch f.Storage {
		case Inline:
			if f.Elements < 1 {
				return fail("field %s: inline field needs at least one element", f.Name)
			}
			if f.Kind == Object && f.Schema.NumDynamic > 0 {
				return fail("field %s: schema %s has dynamic fields and cannot be inline", f.Name, f.Schema.Name)
			}
			if f.Offset < dirEnd || f.Offset+f.Size() > s.StaticSize {
				return fail("field %s: [%d,+%d) outside static section [%d,%d)", f.Name, f.Offset, f.Size(), dirEnd, s.StaticSize)
			}
			inline = append(inline, f)
		case Vector, Nested:
			if f.Storage == Nested && f.Kind != Object {
				return fail("field %s: nested storage needs an object kind", f.Name)
			}
			if f.Slot < 0 || f.Slot >= s.NumDynamic || slots[f.Slot] {
				return fail("field %s: slot %d invalid or reused", f.Name, f.Slot)
			}
			slots[f.Slot] = true
		default:
			return fail("field %s: invalid storage", f.Name)
		}
	}
	for i, used := range slots {
		if !used {
			return fail("directory slot %d has no field", i)
		}
	}
	for i := range inline {
		for _, g := range inline[i+1:] {
			f := inline[i]
			if f.Offset < g.Offset+g.Size() && g.Offset < f.Offset+f.Size() {
				return fail("fields %s and %s overlap", f.Name, g.Name)
			}
		}
	}
	return nil
}
