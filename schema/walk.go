package schema

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/joshuapare/zerobuf/alloc"
	"github.com/joshuapare/zerobuf/internal/buf"
	"github.com/joshuapare/zerobuf/internal/format"
)

// VisitFunc receives one leaf field: every non-object field, including the
// leaves of nested objects. path is dotted, with [i] for vector elements.
// raw is nil for an unallocated dynamic field.
type VisitFunc func(path string, f Field, raw []byte) error

// Walk visits the leaf fields of the object s stored in a, in field order,
// using read-only views. An unallocated nested object is visited as if it held
// default values.
func Walk(a alloc.Allocator, s *Schema, fn VisitFunc) error {
	return walk(a, s, "", fn)
}

func walk(a alloc.Allocator, s *Schema, prefix string, fn VisitFunc) error {
	for _, f := range s.Fields {
		path := f.Name
		if prefix != "" {
			path = prefix + "." + f.Name
		}
		if f.Kind != Object {
			var raw []byte
			if f.Storage == Inline {
				raw, _ = buf.Slice(a.Bytes(), f.Offset, f.Size())
			} else {
				raw = alloc.Dynamic(a, f.Slot)
			}
			if err := fn(path, f, raw); err != nil {
				return err
			}
			continue
		}

		es := f.Schema
		switch f.Storage {
		case Inline:
			v, err := alloc.NewConstStaticSubView(a, f.Offset, es.StaticSize)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if err := walk(v, es, path, fn); err != nil {
				return err
			}
		case Nested:
			var v alloc.Allocator
			if alloc.DynamicSize(a, f.Slot) == 0 {
				v = alloc.NewOwning(es.StaticSize, es.NumDynamic)
			} else {
				nv, err := alloc.NewConstNestedSubView(a, f.Slot, es.StaticSize, es.NumDynamic)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if err := nv.Check(es.NumDynamic); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				v = nv
			}
			if err := walk(v, es, path, fn); err != nil {
				return err
			}
		case Vector:
			n := len(alloc.Dynamic(a, f.Slot)) / es.StaticSize
			for i := range n {
				v, err := alloc.NewConstNestedElement(a, f.Slot, i, es.StaticSize, es.NumDynamic)
				if err != nil {
					return fmt.Errorf("%s[%d]: %w", path, i, err)
				}
				if err := walk(v, es, fmt.Sprintf("%s[%d]", path, i), fn); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

type leaf struct {
	path string
	raw  []byte
}

func leaves(a alloc.Allocator, s *Schema) ([]leaf, error) {
	var out []leaf
	err := Walk(a, s, func(path string, _ Field, raw []byte) error {
		out = append(out, leaf{path: path, raw: raw})
		return nil
	})
	return out, err
}

// Equal compares two objects of schema s field by field, independent of
// where their dynamic payloads sit in the heap. Buffers that cannot be walked
// compare unequal.
func Equal(s *Schema, a, b alloc.Allocator) bool {
	la, err := leaves(a, s)
	if err != nil {
		return false
	}
	lb, err := leaves(b, s)
	if err != nil || len(la) != len(lb) {
		return false
	}
	for i := range la {
		if la[i].path != lb[i].path || !bytes.Equal(la[i].raw, lb[i].raw) {
			return false
		}
	}
	return true
}

// Format renders the raw bytes of a leaf field for display.
func Format(f Field, raw []byte) string {
	switch f.Kind {
	case Char:
		return strconv.Quote(string(raw))
	case Byte:
		return hex.EncodeToString(raw)
	}
	size := f.Kind.Size()
	if size == 0 {
		return "?"
	}
	n := len(raw) / size
	if f.Storage == Inline && f.Elements == 1 && n == 1 {
		return formatScalar(f.Kind, raw)
	}
	parts := make([]string, n)
	for i := range n {
		parts[i] = formatScalar(f.Kind, raw[i*size:(i+1)*size])
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func formatScalar(k Kind, b []byte) string {
	switch k {
	case Bool:
		return strconv.FormatBool(b[0] != 0)
	case Int8:
		return strconv.FormatInt(int64(int8(b[0])), 10)
	case Uint8:
		return strconv.FormatUint(uint64(b[0]), 10)
	case Int16:
		return strconv.FormatInt(int64(int16(format.ReadU16(b, 0))), 10)
	case Uint16:
		return strconv.FormatUint(uint64(format.ReadU16(b, 0)), 10)
	case Int32:
		return strconv.FormatInt(int64(int32(format.ReadU32(b, 0))), 10)
	case Uint32:
		return strconv.FormatUint(uint64(format.ReadU32(b, 0)), 10)
	case Int64:
		return strconv.FormatInt(int64(format.ReadU64(b, 0)), 10)
	case Uint64:
		return strconv.FormatUint(format.ReadU64(b, 0), 10)
	case Float32:
		return strconv.FormatFloat(float64(math.Float32frombits(format.ReadU32(b, 0))), 'g', -1, 32)
	case Float64:
		return strconv.FormatFloat(math.Float64frombits(format.ReadU64(b, 0)), 'g', -1, 64)
	default:
		return "?"
	}
}
