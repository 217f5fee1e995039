package alloc

import (
	"testing"

	"github.com/joshuapare/zerobuf/internal/format"
	"github.com/stretchr/testify/require"
)

// recorder captures observer callbacks.
type recorder struct {
	events   []Event
	compacts [][2]int
}

func (r *recorder) OnAllocation(ev Event)       { r.events = append(r.events, ev) }
func (r *recorder) OnCompact(before, after int) { r.compacts = append(r.compacts, [2]int{before, after}) }

func (r *recorder) lastPath(t *testing.T) Path {
	t.Helper()
	require.NotEmpty(t, r.events, "no allocation events recorded")
	return r.events[len(r.events)-1].Path
}

// entry reads directory entry i of a.
func entry(t *testing.T, a Allocator, i int) format.Entry {
	t.Helper()
	e, ok := format.ReadEntry(a.Bytes(), i)
	require.True(t, ok, "entry %d not readable", i)
	return e
}

// fill allocates field i with n bytes of value v.
func fill(t *testing.T, a Allocator, i, n int, v byte) []byte {
	t.Helper()
	b, err := a.UpdateAllocation(i, false, n)
	require.NoError(t, err)
	require.Len(t, b, n)
	for j := range b {
		b[j] = v
	}
	return b
}

func repeat(v byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// requireSound asserts the directory invariants and pairwise non-overlap.
func requireSound(t *testing.T, a Allocator) {
	t.Helper()
	require.NoError(t, a.Check(a.NumDynamic()))
	spans, err := Spans(a)
	require.NoError(t, err)
	for i := 1; i < len(spans); i++ {
		require.LessOrEqual(t, spans[i-1].End(), spans[i].Offset, "spans %v overlap", spans)
	}
	for _, s := range spans {
		require.GreaterOrEqual(t, s.Offset, a.StaticSize())
		require.LessOrEqual(t, s.End(), a.Size())
	}
}
