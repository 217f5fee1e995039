// Package format describes the zerobuf buffer layout. It knows where the ABI
// version tag and the dynamic directory live and how to encode them, and
// nothing about allocation policy, so the allocators and the tooling can share
// one definition of the wire shape.
//
// Layout (little-endian):
//
//	0x00                      u32  ABI version tag
//	0x04 + i*16               u64  offset of dynamic field i (0 = unallocated)
//	0x04 + i*16 + 8           u64  size of dynamic field i
//	0x04 + n*16 .. static     remaining fixed-size fields
//	static ..                 dynamic heap
package format

const (
	// ABIVersion is the layout generation written at offset 0 of every buffer.
	// Decoding rejects any buffer carrying a different tag.
	ABIVersion uint32 = 1

	// VersionOffset is the offset of the ABI version tag.
	VersionOffset = 0

	// VersionSize is the width of the ABI version tag.
	VersionSize = 4

	// DirectoryOffset is where the first directory entry begins.
	DirectoryOffset = VersionOffset + VersionSize

	// EntrySize is the width of one directory entry (offset + size).
	EntrySize = 16

	// EntryOffsetField and EntrySizeField are the field positions inside an entry.
	EntryOffsetField = 0
	EntrySizeField   = 8

	// Unallocated is the offset value of a dynamic field with no storage.
	Unallocated = 0
)

// EntryPos returns the byte offset of directory entry index.
func EntryPos(index int) int {
	return DirectoryOffset + index*EntrySize
}

// DirectoryEnd returns the first byte after a directory of numDynamic entries.
// A static section always covers at least this much.
func DirectoryEnd(numDynamic int) int {
	return EntryPos(numDynamic)
}
