// Package plain copies fixed-layout Go values in and out of byte buffers
// without a per-field encode step. A plain type is a fixed-width integer or
// float, or an array or struct built only from those. Values are copied in
// host byte order, which matches the little-endian wire layout on every
// supported host.
package plain

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

// ErrNotPlain reports a type that cannot be copied byte-wise.
var ErrNotPlain = errors.New("plain: type is not a fixed-layout value")

var verified sync.Map // reflect.Type -> error (nil when plain)

// Check reports whether T may be stored byte-wise.
func Check[T any]() error {
	t := reflect.TypeFor[T]()
	if v, ok := verified.Load(t); ok {
		if v == nil {
			return nil
		}
		return v.(error)
	}
	err := check(t)
	if err == nil && t.Size() == 0 {
		err = fmt.Errorf("%s has no size", t)
	}
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrNotPlain, err)
		verified.Store(t, err)
		return err
	}
	verified.Store(t, nil)
	return nil
}

func check(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Int8, reflect.Uint8, reflect.Int16, reflect.Uint16,
		reflect.Int32, reflect.Uint32, reflect.Int64, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return nil
	case reflect.Array:
		return check(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if err := check(t.Field(i).Type); err != nil {
				return fmt.Errorf("%s.%s: %w", t.Name(), t.Field(i).Name, err)
			}
		}
		return nil
	default:
		// bool is excluded: a byte other than 0 or 1 is not a valid Go bool.
		return fmt.Errorf("%s", t)
	}
}

// Size returns the byte width of T.
func Size[T any]() int {
	var v T
	return int(unsafe.Sizeof(v))
}

// Align returns the alignment T needs for a typed slice alias.
func Align[T any]() int {
	var v T
	return int(unsafe.Alignof(v))
}

func asBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// Decode copies a T out of the front of b. A short b yields the zero value.
func Decode[T any](b []byte) T {
	var v T
	dst := asBytes(&v)
	if len(b) < len(dst) {
		return v
	}
	copy(dst, b)
	return v
}

// Encode copies v into the front of b and reports whether it fit.
func Encode[T any](b []byte, v T) bool {
	src := asBytes(&v)
	if len(b) < len(src) {
		return false
	}
	copy(b, src)
	return true
}

// View reinterprets b as a []T without copying. ok is false when b is not
// aligned for T or its length is not a multiple of Size[T].
func View[T any](b []byte) ([]T, bool) {
	size := Size[T]()
	if size == 0 || len(b)%size != 0 {
		return nil, false
	}
	if len(b) == 0 {
		return []T{}, true
	}
	if uintptr(unsafe.Pointer(&b[0]))%uintptr(Align[T]()) != 0 {
		return nil, false
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), len(b)/size), true
}

// Bytes reinterprets vs as its backing bytes without copying.
func Bytes[T any](vs []T) []byte {
	if len(vs) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&vs[0])), len(vs)*Size[T]())
}
