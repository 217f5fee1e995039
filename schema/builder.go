package schema

import (
	"fmt"

	"github.com/joshuapare/zerobuf/internal/format"
)

// Builder lays out a schema from a field list. Dynamic fields get directory
// slots in declaration order; inline fields follow the directory in
// declaration order, each aligned to its natural alignment.
type Builder struct {
	name   string
	fields []Field
	err    error
}

// NewBuilder starts a schema called name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// Scalar adds one inline value of kind k.
func (b *Builder) Scalar(name string, k Kind) *Builder {
	return b.Array(name, k, 1)
}

// Array adds n inline values of kind k.
func (b *Builder) Array(name string, k Kind, n int) *Builder {
	if !k.Scalar() {
		b.fail("field %s: %s is not a scalar kind", name, k)
	}
	return b.add(Field{Name: name, Kind: k, Storage: Inline, ElementSize: k.Size(), Elements: n})
}

// Vector adds a dynamic array of kind k.
func (b *Builder) Vector(name string, k Kind) *Builder {
	if !k.Scalar() {
		b.fail("field %s: %s is not a scalar kind", name, k)
	}
	return b.add(Field{Name: name, Kind: k, Storage: Vector, ElementSize: k.Size()})
}

// String adds a dynamic text field.
func (b *Builder) String(name string) *Builder {
	return b.Vector(name, Char)
}

// Struct embeds s inline. s must not have dynamic fields.
func (b *Builder) Struct(name string, s *Schema) *Builder {
	return b.object(name, s, Inline)
}

// ObjectVector adds a dynamic array of s elements.
func (b *Builder) ObjectVector(name string, s *Schema) *Builder {
	return b.object(name, s, Vector)
}

// Object adds one nested s occupying its own directory slot.
func (b *Builder) Object(name string, s *Schema) *Builder {
	return b.object(name, s, Nested)
}

func (b *Builder) object(name string, s *Schema, st Storage) *Builder {
	if s == nil {
		b.fail("field %s: nil schema", name)
		return b
	}
	return b.add(Field{Name: name, Kind: Object, Storage: st, ElementSize: s.StaticSize, Elements: 1, Schema: s})
}

func (b *Builder) add(f Field) *Builder {
	if f.Storage != Inline {
		f.Elements = 0
	}
	b.fields = append(b.fields, f)
	return b
}

func (b *Builder) fail(msg string, args ...any) {
	if b.err == nil {
		b.err = fmt.Errorf("%w: %s: %s", ErrInvalidSchema, b.name, fmt.Sprintf(msg, args...))
	}
}

// Build computes offsets and validates the result.
func (b *Builder) Build() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}
	s := &Schema{Name: b.name, Type: TypeOf(b.name)}
	for _, f := range b.fields {
		if f.Dynamic() {
			s.NumDynamic++
		}
	}
	offset := format.DirectoryEnd(s.NumDynamic)
	slot := 0
	for _, f := range b.fields {
		if f.Dynamic() {
			f.Slot = slot
			slot++
		} else {
			offset = alignUp(offset, fieldAlign(f.Kind, f.Schema))
			f.Offset = offset
			offset += f.Size()
		}
		s.Fields = append(s.Fields, f)
	}
	s.StaticSize = offset
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// MustBuild is Build for package-level schema definitions.
func (b *Builder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

func alignUp(n, a int) int {
	if a <= 1 {
		return n
	}
	return (n + a - 1) &^ (a - 1)
}
