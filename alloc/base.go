package alloc

import (
	"cmp"
	"fmt"
	"os"
	"slices"

	"github.com/joshuapare/zerobuf/internal/buf"
	"github.com/joshuapare/zerobuf/internal/format"
	"github.com/joshuapare/zerobuf/internal/logger"
)

var logAlloc = os.Getenv(logger.EnvAllocTrace) != ""

// region is the storage a base allocates in: an owned buffer, or a window
// re-derived from an ancestor on each call.
type region interface {
	window() []byte
	mutableWindow() ([]byte, error)
	// resize sets the window length to n, preserving the common prefix and
	// zero-filling any added bytes. It may move the window.
	resize(n int) error
}

// base implements the non-moving allocation policy over a region.
type base struct {
	r          region
	staticSize int
	numDynamic int
	obs        Observer
}

func validShape(staticSize, numDynamic int) error {
	if numDynamic < 0 || staticSize < format.DirectoryEnd(numDynamic) {
		return fmt.Errorf("%w: static size %d cannot hold %d directory entries",
			ErrInvalidShape, staticSize, numDynamic)
	}
	return nil
}

func (b *base) StaticSize() int    { return b.staticSize }
func (b *base) NumDynamic() int    { return b.numDynamic }
func (b *base) observer() Observer { return b.obs }

// Check validates the directory against the current buffer.
func (b *base) Check(numDynamic int) error {
	return checkLayout(b.r.window(), b.staticSize, numDynamic)
}

// UpdateAllocation implements the Allocator contract; see the package
// documentation for the policy order.
func (b *base) UpdateAllocation(index int, copyExisting bool, newSize int) ([]byte, error) {
	data, err := b.r.mutableWindow()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= b.numDynamic {
		return nil, &BoundsError{Index: index, Len: b.numDynamic}
	}
	if newSize < 0 {
		return nil, fmt.Errorf("%w: negative size %d for entry %d", ErrOutOfBounds, newSize, index)
	}
	if len(data) < b.staticSize {
		return nil, &LayoutError{Index: -1, BufferSize: len(data), Reason: "buffer shorter than static section"}
	}
	cur, live, err := entrySpan(data, b.staticSize, b.numDynamic, index)
	if err != nil {
		return nil, err
	}

	// Shrink in place.
	if newSize <= cur.Size {
		if newSize == 0 {
			if !live {
				return []byte{}, nil
			}
			if err := format.PutEntry(data, index, format.Entry{}); err != nil {
				return nil, err
			}
			b.notify(Event{Index: index, Path: PathFree, OldSize: cur.Size, BufferSize: len(data)})
			return []byte{}, nil
		}
		if err := putSpan(data, index, cur.Offset, newSize); err != nil {
			return nil, err
		}
		b.notify(Event{Index: index, Path: PathShrink, Offset: cur.Offset, OldSize: cur.Size, NewSize: newSize, BufferSize: len(data)})
		return data[cur.Offset : cur.Offset+newSize : cur.Offset+newSize], nil
	}

	others, err := liveSpans(data, b.staticSize, b.numDynamic, index)
	if err != nil {
		return nil, err
	}
	keep := 0
	if copyExisting {
		keep = cur.Size
	}

	// Grow in place up to the nearest following allocation.
	if live {
		limit := len(data)
		for _, s := range others {
			if s.Offset >= cur.Offset {
				limit = s.Offset
				break
			}
		}
		if end, ok := buf.AddOverflowSafe(cur.Offset, newSize); ok && end <= limit {
			return b.place(data, index, cur, cur.Offset, newSize, keep, PathInPlace)
		}
	}

	// First-fit hole, then append.
	cursor := b.staticSize
	for _, s := range others {
		if s.Offset-cursor >= newSize {
			return b.place(data, index, cur, cursor, newSize, keep, PathHole)
		}
		cursor = max(cursor, s.End())
	}
	if len(data)-cursor >= newSize {
		return b.place(data, index, cur, cursor, newSize, keep, PathAppend)
	}

	end, ok := buf.AddOverflowSafe(cursor, newSize)
	if !ok {
		return nil, fmt.Errorf("%w: entry %d size %d overflows buffer", ErrOutOfBounds, index, newSize)
	}
	if err := b.r.resize(end); err != nil {
		return nil, err
	}
	if data, err = b.r.mutableWindow(); err != nil {
		return nil, err
	}
	if len(data) < end {
		return nil, &LayoutError{Index: index, BufferSize: len(data), Reason: "buffer did not grow"}
	}
	return b.place(data, index, cur, cursor, newSize, keep, PathGrow)
}

// place moves the first keep bytes of cur to off, zeroes the rest of the new
// range and then publishes the directory entry.
func (b *base) place(data []byte, index int, cur Span, off, newSize, keep int, path Path) ([]byte, error) {
	out := data[off : off+newSize : off+newSize]
	if keep > 0 && off != cur.Offset {
		copy(out[:keep], data[cur.Offset:cur.Offset+keep])
	}
	clear(out[keep:])
	if err := putSpan(data, index, off, newSize); err != nil {
		return nil, err
	}
	b.notify(Event{Index: index, Path: path, Offset: off, OldSize: cur.Size, NewSize: newSize, BufferSize: len(data)})
	return out, nil
}

// Compact packs every live payload in directory order directly after the
// static section and shrinks the buffer to staticSize + sum(live sizes).
// A threshold of 1 or more never compacts.
func (b *base) Compact(threshold float32) error {
	data, err := b.r.mutableWindow()
	if err != nil {
		return err
	}
	if len(data) < b.staticSize {
		return &LayoutError{Index: -1, BufferSize: len(data), Reason: "buffer shorter than static section"}
	}
	spans, err := liveSpans(data, b.staticSize, b.numDynamic, -1)
	if err != nil {
		return err
	}
	minSize := b.staticSize
	for _, s := range spans {
		minSize += s.Size
	}
	size := len(data)
	if threshold >= 1 || size <= minSize {
		return nil
	}
	if float32(size-minSize)/float32(minSize) < threshold {
		return nil
	}

	slices.SortFunc(spans, func(x, y Span) int { return cmp.Compare(x.Index, y.Index) })
	packed := make([]byte, 0, minSize-b.staticSize)
	entries := make([]format.Entry, b.numDynamic)
	cursor := b.staticSize
	for _, s := range spans {
		packed = append(packed, data[s.Offset:s.End()]...)
		entries[s.Index] = format.Entry{Offset: uint64(cursor), Size: uint64(s.Size)}
		cursor += s.Size
	}
	for i, e := range entries {
		if err := format.PutEntry(data, i, e); err != nil {
			return err
		}
	}
	if err := b.r.resize(minSize); err != nil {
		return err
	}
	if data, err = b.r.mutableWindow(); err != nil {
		return err
	}
	copy(data[b.staticSize:], packed)

	if b.obs != nil {
		b.obs.OnCompact(size, minSize)
	}
	if logAlloc {
		logger.Debug("zerobuf: compact", "before", size, "after", minSize)
	}
	return nil
}

func (b *base) notify(ev Event) {
	if b.obs != nil {
		b.obs.OnAllocation(ev)
	}
	if logAlloc {
		logger.Debug("zerobuf: update allocation",
			"index", ev.Index,
			"path", ev.Path.String(),
			"offset", ev.Offset,
			"old_size", ev.OldSize,
			"new_size", ev.NewSize,
			"buffer_size", ev.BufferSize,
		)
	}
}

func putSpan(data []byte, index, off, size int) error {
	return format.PutEntry(data, index, format.Entry{Offset: uint64(off), Size: uint64(size)})
}
