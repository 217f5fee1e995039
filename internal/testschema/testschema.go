// Package testschema defines the schemas used across the test suites, with
// typed accessors in the shape a code generator emits for them.
package testschema

import (
	"github.com/joshuapare/zerobuf/alloc"
	"github.com/joshuapare/zerobuf/object"
	"github.com/joshuapare/zerobuf/schema"
	"github.com/joshuapare/zerobuf/vector"
)

var (
	// TestNestedSchema is a fixed-size struct: version, int32, uint32.
	TestNestedSchema = schema.NewBuilder("test.TestNested").
				Scalar("intvalue", schema.Int32).
				Scalar("uintvalue", schema.Uint32).
				MustBuild()

	// TestNestedZerobufSchema mixes every storage class.
	TestNestedZerobufSchema = schema.NewBuilder("test.TestNestedZerobuf").
				ObjectVector("nested", TestNestedSchema).
				String("name").
				Vector("values", schema.Uint32).
				Struct("inner", TestNestedSchema).
				Scalar("id", schema.Uint64).
				MustBuild()

	// LabelSchema has a dynamic field, so it can only be nested.
	LabelSchema = schema.NewBuilder("test.Label").
			String("text").
			Scalar("weight", schema.Float32).
			MustBuild()

	// DocumentSchema nests a Label with its own directory.
	DocumentSchema = schema.NewBuilder("test.Document").
			Object("title", LabelSchema).
			String("body").
			Scalar("revision", schema.Uint32).
			MustBuild()
)

const (
	testNestedIntvalue  = 4
	testNestedUintvalue = 8

	nestedSlot       = 0
	nameSlot         = 1
	valuesSlot       = 2
	innerOffset      = 52
	idOffset         = 64
	labelTextSlot    = 0
	labelWeight      = 20
	documentTitle    = 0
	documentBody     = 1
	documentRevision = 36
)

// Registry returns all test schemas by name.
func Registry() *schema.Registry {
	r := schema.NewRegistry()
	for _, s := range []*schema.Schema{TestNestedSchema, TestNestedZerobufSchema, LabelSchema, DocumentSchema} {
		if err := r.Add(s); err != nil {
			panic(err)
		}
	}
	return r
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// TestNested wraps a test.TestNested object.
type TestNested struct{ *object.Object }

func NewTestNested(intvalue int32, uintvalue uint32) TestNested {
	t := TestNested{object.New(TestNestedSchema)}
	_ = t.SetIntvalue(intvalue)
	_ = t.SetUintvalue(uintvalue)
	return t
}

func (t TestNested) Intvalue() int32 { return alloc.Item[int32](t.Allocator(), testNestedIntvalue) }
func (t TestNested) SetIntvalue(v int32) error {
	return alloc.SetItem(t.Allocator(), testNestedIntvalue, v)
}
func (t TestNested) Uintvalue() uint32 { return alloc.Item[uint32](t.Allocator(), testNestedUintvalue) }
func (t TestNested) SetUintvalue(v uint32) error {
	return alloc.SetItem(t.Allocator(), testNestedUintvalue, v)
}

func bindTestNested(o *object.Object) TestNested { return TestNested{o} }

// TestNestedZerobuf wraps a test.TestNestedZerobuf object.
type TestNestedZerobuf struct{ *object.Object }

func NewTestNestedZerobuf(opts ...alloc.Option) TestNestedZerobuf {
	return TestNestedZerobuf{object.New(TestNestedZerobufSchema, opts...)}
}

func (t TestNestedZerobuf) Nested() *vector.Nested[TestNested] {
	return must(vector.NewNested(t.Allocator(), nestedSlot, TestNestedSchema, bindTestNested))
}

func (t TestNestedZerobuf) SetNested(vs ...TestNested) error {
	n := t.Nested()
	if err := n.Clear(); err != nil {
		return err
	}
	for _, v := range vs {
		if err := n.Push(v.Object); err != nil {
			return err
		}
	}
	return nil
}

func (t TestNestedZerobuf) NameVector() *vector.Plain[byte] {
	return must(vector.NewPlain[byte](t.Allocator(), nameSlot))
}
func (t TestNestedZerobuf) Name() string { return vector.String(t.NameVector()) }
func (t TestNestedZerobuf) SetName(s string) error {
	return vector.SetString(t.NameVector(), s)
}

func (t TestNestedZerobuf) Values() *vector.Plain[uint32] {
	return must(vector.NewPlain[uint32](t.Allocator(), valuesSlot))
}

func (t TestNestedZerobuf) Inner() TestNested {
	return TestNested{must(t.Static(innerOffset, TestNestedSchema))}
}

func (t TestNestedZerobuf) ID() uint64 { return alloc.Item[uint64](t.Allocator(), idOffset) }
func (t TestNestedZerobuf) SetID(v uint64) error {
	return alloc.SetItem(t.Allocator(), idOffset, v)
}

// Label wraps a test.Label object.
type Label struct{ *object.Object }

func (l Label) TextVector() *vector.Plain[byte] {
	return must(vector.NewPlain[byte](l.Allocator(), labelTextSlot))
}
func (l Label) Text() string { return vector.String(l.TextVector()) }
func (l Label) SetText(s string) error {
	return vector.SetString(l.TextVector(), s)
}
func (l Label) Weight() float32 { return alloc.Item[float32](l.Allocator(), labelWeight) }
func (l Label) SetWeight(v float32) error {
	return alloc.SetItem(l.Allocator(), labelWeight, v)
}

// Document wraps a test.Document object.
type Document struct{ *object.Object }

func NewDocument(opts ...alloc.Option) Document {
	return Document{object.New(DocumentSchema, opts...)}
}

// Title returns the nested label. It fails when the stored label is corrupt.
func (d Document) Title() (Label, error) {
	o, err := d.Nested(documentTitle, LabelSchema)
	if err != nil {
		return Label{}, err
	}
	return Label{o}, nil
}

func (d Document) BodyVector() *vector.Plain[byte] {
	return must(vector.NewPlain[byte](d.Allocator(), documentBody))
}
func (d Document) Body() string { return vector.String(d.BodyVector()) }
func (d Document) SetBody(s string) error {
	return vector.SetString(d.BodyVector(), s)
}

func (d Document) Revision() uint32 { return alloc.Item[uint32](d.Allocator(), documentRevision) }
func (d Document) SetRevision(v uint32) error {
	return alloc.SetItem(d.Allocator(), documentRevision, v)
}
