package alloc

import (
	"fmt"

	"github.com/joshuapare/zerobuf/internal/buf"
	"github.com/joshuapare/zerobuf/internal/format"
	"github.com/joshuapare/zerobuf/internal/plain"
)

// Item reads the fixed-layout value at offset. A range outside the buffer
// reads as the zero value. T must be a plain type (see SetItem); Item panics
// otherwise.
func Item[T any](a Allocator, offset int) T {
	if err := plain.Check[T](); err != nil {
		panic(err)
	}
	var zero T
	b, ok := buf.Slice(a.Bytes(), offset, plain.Size[T]())
	if !ok {
		return zero
	}
	return plain.Decode[T](b)
}

// SetItem writes v at offset. T must be a fixed-width number or an array or
// struct of them.
func SetItem[T any](a Allocator, offset int, v T) error {
	if err := plain.Check[T](); err != nil {
		return err
	}
	data, err := a.MutableBytes()
	if err != nil {
		return err
	}
	b, ok := buf.Slice(data, offset, plain.Size[T]())
	if !ok {
		return fmt.Errorf("%w: item [%d,+%d) outside %d bytes",
			ErrOutOfBounds, offset, plain.Size[T](), len(data))
	}
	plain.Encode(b, v)
	return nil
}

// DynamicOffset returns the raw directory offset of index, 0 when the entry
// is unallocated or outside the directory.
func DynamicOffset(a Allocator, index int) uint64 {
	if index < 0 || index >= a.NumDynamic() {
		return 0
	}
	e, _ := format.ReadEntry(a.Bytes(), index)
	return e.Offset
}

// DynamicSize returns the raw directory size of index.
func DynamicSize(a Allocator, index int) uint64 {
	if index < 0 || index >= a.NumDynamic() {
		return 0
	}
	e, _ := format.ReadEntry(a.Bytes(), index)
	return e.Size
}

// Dynamic returns the payload of field index. It is nil when the field is
// unallocated or its entry does not describe a valid range.
func Dynamic(a Allocator, index int) []byte {
	if index < 0 || index >= a.NumDynamic() {
		return nil
	}
	data := a.Bytes()
	s, live, err := entrySpan(data, a.StaticSize(), a.NumDynamic(), index)
	if err != nil || !live {
		return nil
	}
	return data[s.Offset:s.End():s.End()]
}

// MutableDynamic returns the payload of field index for writing.
func MutableDynamic(a Allocator, index int) ([]byte, error) {
	data, err := a.MutableBytes()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= a.NumDynamic() {
		return nil, &BoundsError{Index: index, Len: a.NumDynamic()}
	}
	s, live, err := entrySpan(data, a.StaticSize(), a.NumDynamic(), index)
	if err != nil {
		return nil, err
	}
	if !live {
		return []byte{}, nil
	}
	return data[s.Offset:s.End():s.End()], nil
}
