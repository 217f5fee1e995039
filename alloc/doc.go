// Package alloc implements zerobuf buffer management: one contiguous byte
// buffer per object holding a fixed static section and a heap of
// variable-length dynamic fields, addressed through a directory of
// (offset, size) entries.
//
// # Allocators
//
// Every view of a buffer implements Allocator.
//
//   - Owning owns a growable heap buffer. It is the root of a mutable object.
//   - ReadOnly wraps bytes it does not own. Every mutator fails with ErrImmutable.
//   - Mapped is a ReadOnly over a memory-mapped file.
//   - StaticSubView is a fixed window into a parent's static section, used for
//     nested structs without dynamic fields.
//   - NestedSubView presents one parent directory slot as a standalone object
//     with its own directory. Growth of the nested object is satisfied by the
//     parent's UpdateAllocation on that slot, so nesting composes to any depth.
//
// # Allocation Policy
//
// UpdateAllocation never moves a field unless it has to. In order it tries:
//
//  1. Shrink in place (size 0 frees the field).
//  2. Grow in place up to the next live allocation, or the end of the buffer.
//  3. First-fit reuse of a hole between live allocations.
//  4. Append into unused space at the end of the buffer.
//  5. Grow the buffer to end-of-last-allocation + newSize.
//
// Bytes exposed by growth are zero-filled. The directory entry is written
// after any data move. Holes are only reclaimed by Compact.
//
// # Invalidation
//
// Any call that may reallocate or relocate a buffer (UpdateAllocation,
// Compact, CopyFrom, moving an object) invalidates every slice previously
// returned by Bytes, MutableBytes or UpdateAllocation for that buffer and its
// ancestors. Sub-views hold a slot index, not a slice, and re-derive their
// window from the parent on every call, so a sub-view itself stays usable as
// long as its slot is not freed.
//
// None of the types are safe for concurrent use.
//
// Setting ZEROBUF_LOG_ALLOC traces every allocation decision to stderr.
package alloc
