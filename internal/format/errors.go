package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrBadMagic indicates a framed file did not start with the expected magic.
	ErrBadMagic = errors.New("format: bad magic")
)
