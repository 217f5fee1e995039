package alloc

import (
	"fmt"

	"github.com/joshuapare/zerobuf/internal/mmfile"
)

// ReadOnly wraps memory it does not own. Every mutator fails with
// ErrImmutable.
type ReadOnly struct {
	base
	data []byte
}

// NewReadOnly wraps data without copying or validating it. It panics if
// staticSize cannot hold numDynamic directory entries.
func NewReadOnly(data []byte, staticSize, numDynamic int, opts ...Option) *ReadOnly {
	if err := validShape(staticSize, numDynamic); err != nil {
		panic(err)
	}
	r := &ReadOnly{data: data}
	r.base = base{r: r, staticSize: staticSize, numDynamic: numDynamic}
	for _, opt := range opts {
		opt(&r.base)
	}
	return r
}

// Decode wraps received bytes after verifying the ABI version tag and every
// directory entry, so later field reads stay inside the buffer.
func Decode(data []byte, staticSize, numDynamic int, opts ...Option) (*ReadOnly, error) {
	if err := validShape(staticSize, numDynamic); err != nil {
		return nil, err
	}
	r := NewReadOnly(data, staticSize, numDynamic, opts...)
	if err := CheckVersion(r); err != nil {
		return nil, err
	}
	if err := r.Check(numDynamic); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *ReadOnly) Bytes() []byte                 { return r.data }
func (r *ReadOnly) MutableBytes() ([]byte, error) { return nil, ErrImmutable }
func (r *ReadOnly) Size() int                     { return len(r.data) }
func (r *ReadOnly) CopyFrom([]byte) error         { return ErrImmutable }
func (r *ReadOnly) Movable() bool                 { return false }
func (r *ReadOnly) Mutable() bool                 { return false }

func (r *ReadOnly) window() []byte                 { return r.data }
func (r *ReadOnly) mutableWindow() ([]byte, error) { return nil, ErrImmutable }
func (r *ReadOnly) resize(int) error               { return ErrImmutable }

// Mapped is a ReadOnly over a memory-mapped file.
type Mapped struct {
	*ReadOnly
	release func() error
}

// OpenMapped maps path and decodes it like Decode. Close releases the mapping.
func OpenMapped(path string, staticSize, numDynamic int, opts ...Option) (*Mapped, error) {
	data, release, err := mmfile.Map(path)
	if err != nil {
		return nil, err
	}
	r, err := Decode(data, staticSize, numDynamic, opts...)
	if err != nil {
		_ = release()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Mapped{ReadOnly: r, release: release}, nil
}

// Close unmaps the file. Every slice obtained from m is invalid afterwards
// and m reads as empty.
func (m *Mapped) Close() error {
	m.data = nil
	return m.release()
}
