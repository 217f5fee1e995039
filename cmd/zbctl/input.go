package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joshuapare/zerobuf/alloc"
	"github.com/joshuapare/zerobuf/internal/format"
	"github.com/joshuapare/zerobuf/schema"
	"github.com/joshuapare/zerobuf/snapshot"
)

// shape is the layout zbctl assumes for a buffer.
type shape struct {
	schema     *schema.Schema // nil without --type
	staticSize int
	numDynamic int
}

func resolveShape() (shape, error) {
	if typeName != "" {
		s, ok := registry.Lookup(typeName)
		if !ok {
			return shape{}, fmt.Errorf("unknown type %q (load it with --schema)", typeName)
		}
		return shape{schema: s, staticSize: s.StaticSize, numDynamic: s.NumDynamic}, nil
	}
	if numDynamic < 0 {
		return shape{}, fmt.Errorf("--num-dynamic must not be negative")
	}
	st := staticSize
	if st == 0 {
		st = format.DirectoryEnd(numDynamic)
	}
	return shape{staticSize: st, numDynamic: numDynamic}, nil
}

// input is an opened buffer: a raw file mapped read-only, or the payload of
// a snapshot frame.
type input struct {
	path  string
	shape shape
	a     alloc.Allocator
	frame *snapshot.Frame
	close func() error
}

func (in *input) Close() error { return in.close() }

func isSnapshotFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	magic := make([]byte, len(snapshot.Magic))
	if _, err := io.ReadFull(f, magic); err != nil {
		return false, nil
	}
	return snapshot.IsSnapshot(magic), nil
}

// openInput opens path and validates its version tag and directory.
func openInput(path string) (*input, error) {
	sh, err := resolveShape()
	if err != nil {
		return nil, err
	}
	snap, err := isSnapshotFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if !snap {
		printVerbose("Mapping %s (static %d, %d dynamic)\n", path, sh.staticSize, sh.numDynamic)
		m, err := alloc.OpenMapped(path, sh.staticSize, sh.numDynamic)
		if err != nil {
			return nil, err
		}
		return &input{path: path, shape: sh, a: m, close: m.Close}, nil
	}

	f, err := snapshot.Load(path)
	if err != nil {
		return nil, err
	}
	if sh.schema == nil {
		if s, ok := registry.ByType(f.Type); ok {
			sh = shape{schema: s, staticSize: s.StaticSize, numDynamic: s.NumDynamic}
		}
	} else if f.Type != sh.schema.Type {
		return nil, fmt.Errorf("%s: %w: snapshot type %s is not %s",
			path, alloc.ErrTypeMismatch, f.Type, sh.schema.Name)
	}
	printVerbose("Loaded snapshot %s (type %s, compressed %v)\n", path, f.Type, f.Compressed())
	a, err := alloc.Decode(f.Data, sh.staticSize, sh.numDynamic)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &input{path: path, shape: sh, a: a, frame: f, close: func() error { return nil }}, nil
}
