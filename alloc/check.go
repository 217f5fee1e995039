package alloc

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/joshuapare/zerobuf/internal/buf"
	"github.com/joshuapare/zerobuf/internal/format"
)

// Span is one live dynamic allocation.
type Span struct {
	Index  int
	Offset int
	Size   int
}

// End returns the first byte past the allocation.
func (s Span) End() int { return s.Offset + s.Size }

// Spans returns the live, non-empty allocations of a sorted by offset.
func Spans(a Allocator) ([]Span, error) {
	return liveSpans(a.Bytes(), a.StaticSize(), a.NumDynamic(), -1)
}

// entrySpan decodes directory entry index and validates it against data.
// live is false for unallocated entries.
func entrySpan(data []byte, staticSize, numDynamic, index int) (s Span, live bool, err error) {
	e, ok := format.ReadEntry(data, index)
	if !ok {
		return Span{}, false, &LayoutError{Index: index, BufferSize: len(data), Reason: "directory entry truncated"}
	}
	fail := func(reason string) error {
		return &LayoutError{Index: index, Offset: e.Offset, Size: e.Size, BufferSize: len(data), Reason: reason}
	}
	if !e.Live() {
		if e.Size != 0 {
			return Span{}, false, fail("unallocated entry has nonzero size")
		}
		return Span{Index: index}, false, nil
	}
	if e.Offset >= format.DirectoryOffset && e.Offset < uint64(format.DirectoryEnd(numDynamic)) {
		return Span{}, false, fail("offset inside directory")
	}
	if e.Offset < uint64(staticSize) {
		return Span{}, false, fail("offset inside static section")
	}
	off, n, rerr := buf.Range(len(data), e.Offset, e.Size)
	if rerr != nil {
		return Span{}, false, fail(rerr.Error())
	}
	return Span{Index: index, Offset: off, Size: n}, true, nil
}

// liveSpans validates every directory entry and returns the non-empty live
// ones except skip, sorted by offset.
func liveSpans(data []byte, staticSize, numDynamic, skip int) ([]Span, error) {
	spans := make([]Span, 0, numDynamic)
	for i := range numDynamic {
		s, live, err := entrySpan(data, staticSize, numDynamic, i)
		if err != nil {
			return nil, err
		}
		if i == skip || !live || s.Size == 0 {
			continue
		}
		spans = append(spans, s)
	}
	slices.SortFunc(spans, func(x, y Span) int { return cmp.Compare(x.Offset, y.Offset) })
	return spans, nil
}

func checkLayout(data []byte, staticSize, numDynamic int) error {
	if numDynamic < 0 || format.DirectoryEnd(numDynamic) > staticSize {
		return &LayoutError{Index: -1, BufferSize: len(data),
			Reason: fmt.Sprintf("%d directory entries do not fit a static size of %d", numDynamic, staticSize)}
	}
	if len(data) < staticSize {
		return &LayoutError{Index: -1, BufferSize: len(data), Reason: "buffer shorter than static section"}
	}
	spans, err := liveSpans(data, staticSize, numDynamic, -1)
	if err != nil {
		return err
	}
	for i := 1; i < len(spans); i++ {
		prev, s := spans[i-1], spans[i]
		if s.Offset < prev.End() {
			return &LayoutError{
				Index:      s.Index,
				Offset:     uint64(s.Offset),
				Size:       uint64(s.Size),
				BufferSize: len(data),
				Reason:     fmt.Sprintf("overlaps entry %d", prev.Index),
			}
		}
	}
	return nil
}

// CheckVersion verifies the ABI version tag of a.
func CheckVersion(a Allocator) error {
	v, err := format.ReadVersion(a.Bytes())
	if err != nil {
		return &LayoutError{Index: -1, BufferSize: a.Size(), Reason: "buffer too short for version tag"}
	}
	if v != format.ABIVersion {
		return &VersionError{Got: v, Want: format.ABIVersion}
	}
	return nil
}

// ABIVersion is the layout generation this package reads and writes.
const ABIVersion = format.ABIVersion
