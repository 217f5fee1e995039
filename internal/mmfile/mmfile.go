// Package mmfile maps zerobuf files read-only so they can be decoded in place.
package mmfile

import (
	"errors"
	"sync"
)

// ErrTooLarge is returned for files that do not fit in the address space.
var ErrTooLarge = errors.New("mmfile: file too large to map")

func noop() error { return nil }

// once wraps release so a second call is a no-op.
func once(release func() error) func() error {
	var (
		o   sync.Once
		err error
	)
	return func() error {
		o.Do(func() { err = release() })
		return err
	}
}
