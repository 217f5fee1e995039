package format

import "github.com/joshuapare/zerobuf/internal/buf"

// Entry is one decoded directory entry.
type Entry struct {
	Offset uint64
	Size   uint64
}

// Live reports whether the entry points at storage.
func (e Entry) Live() bool { return e.Offset != Unallocated }

// End returns Offset+Size and false when the sum overflows.
func (e Entry) End() (uint64, bool) {
	end := e.Offset + e.Size
	return end, end >= e.Offset
}

// ReadEntry decodes directory entry index from b. ok is false when the
// directory entry does not fit in b.
func ReadEntry(b []byte, index int) (e Entry, ok bool) {
	if index < 0 {
		return Entry{}, false
	}
	raw, ok := buf.Slice(b, EntryPos(index), EntrySize)
	if !ok {
		return Entry{}, false
	}
	return Entry{
		Offset: buf.U64LE(raw[EntryOffsetField:]),
		Size:   buf.U64LE(raw[EntrySizeField:]),
	}, true
}

// PutEntry encodes e into directory entry index of b.
func PutEntry(b []byte, index int, e Entry) error {
	if index < 0 || !buf.Has(b, EntryPos(index), EntrySize) {
		return ErrTruncated
	}
	pos := EntryPos(index)
	PutU64(b, pos+EntryOffsetField, e.Offset)
	PutU64(b, pos+EntrySizeField, e.Size)
	return nil
}

// ReadVersion returns the ABI version tag stored in b.
func ReadVersion(b []byte) (uint32, error) {
	if !buf.Has(b, VersionOffset, VersionSize) {
		return 0, ErrTruncated
	}
	return ReadU32(b, VersionOffset), nil
}

// PutVersion stamps the running ABI version into b.
func PutVersion(b []byte) error {
	if !buf.Has(b, VersionOffset, VersionSize) {
		return ErrTruncated
	}
	PutU32(b, VersionOffset, ABIVersion)
	return nil
}
