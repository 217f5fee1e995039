package buf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEndianShortReads(t *testing.T) {
	require.Zero(t, U64LE(nil))
	require.Zero(t, U64LE(make([]byte, 7)))
	require.Equal(t, uint64(0x0807060504030201), U64LE([]byte{1, 2, 3, 4, 5, 6, 7, 8}))
	require.Equal(t, uint64(0x0807060504030201), U64LE([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9}))
}
