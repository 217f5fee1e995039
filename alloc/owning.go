package alloc

import (
	"fmt"
	"slices"

	"github.com/joshuapare/zerobuf/internal/format"
)

// Owning owns a heap buffer and grows it by reallocation. It is movable and
// mutable.
type Owning struct {
	base
	data []byte
}

// NewOwning allocates a zero-filled buffer of staticSize bytes and stamps the
// ABI version tag. It panics if staticSize cannot hold numDynamic directory
// entries.
func NewOwning(staticSize, numDynamic int, opts ...Option) *Owning {
	if err := validShape(staticSize, numDynamic); err != nil {
		panic(err)
	}
	o := newOwning(staticSize, numDynamic, opts)
	o.data = make([]byte, staticSize)
	_ = format.PutVersion(o.data)
	return o
}

// NewOwningFrom returns an Owning holding a copy of data. The bytes are not
// validated; call Check or CheckVersion when they come from outside.
func NewOwningFrom(data []byte, staticSize, numDynamic int, opts ...Option) (*Owning, error) {
	if err := validShape(staticSize, numDynamic); err != nil {
		return nil, err
	}
	o := newOwning(staticSize, numDynamic, opts)
	if err := o.CopyFrom(data); err != nil {
		return nil, err
	}
	return o, nil
}

func newOwning(staticSize, numDynamic int, opts []Option) *Owning {
	o := &Owning{}
	o.base = base{r: o, staticSize: staticSize, numDynamic: numDynamic}
	for _, opt := range opts {
		opt(&o.base)
	}
	return o
}

func (o *Owning) Bytes() []byte                 { return o.data }
func (o *Owning) MutableBytes() ([]byte, error) { return o.data, nil }
func (o *Owning) Size() int                     { return len(o.data) }
func (o *Owning) Movable() bool                 { return true }
func (o *Owning) Mutable() bool                 { return true }

// CopyFrom replaces the buffer with a copy of data, which must at least cover
// the static section.
func (o *Owning) CopyFrom(data []byte) error {
	if len(data) < o.staticSize {
		return fmt.Errorf("%w: %d bytes cannot hold a static section of %d",
			ErrSizeMismatch, len(data), o.staticSize)
	}
	o.data = append(make([]byte, 0, len(data)), data...)
	return nil
}

func (o *Owning) window() []byte                 { return o.data }
func (o *Owning) mutableWindow() ([]byte, error) { return o.data, nil }

func (o *Owning) resize(n int) error {
	switch {
	case n > len(o.data):
		o.data = append(o.data, make([]byte, n-len(o.data))...)
	case n < len(o.data):
		if cap(o.data) > 2*n {
			o.data = slices.Clone(o.data[:n])
		} else {
			o.data = o.data[:n]
		}
	}
	return nil
}
