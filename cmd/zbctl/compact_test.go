package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/zerobuf/alloc"
	"github.com/joshuapare/zerobuf/internal/testschema"
	"github.com/joshuapare/zerobuf/schema"
	"github.com/joshuapare/zerobuf/snapshot"
)

func TestCompactCommand(t *testing.T) {
	t.Run("reclaims hole into output", func(t *testing.T) {
		resetFlags()
		typeName = "test.Document"
		in := fragmentedFile(t)
		compactOutput = filepath.Join(t.TempDir(), "packed.zb")

		output, err := captureOutput(t, func() error { return runCompact([]string{in}) })
		require.NoError(t, err, output)
		assertContains(t, output, []string{"109 bytes -> 69 bytes", "reclaimed 40 bytes", "Written to " + compactOutput})

		data, err := os.ReadFile(compactOutput)
		require.NoError(t, err)
		require.Len(t, data, 69)
		a, err := alloc.Decode(data, testschema.DocumentSchema.StaticSize, testschema.DocumentSchema.NumDynamic)
		require.NoError(t, err)
		require.Equal(t, uint64(40), alloc.DynamicOffset(a, 0))

		orig, err := os.ReadFile(in)
		require.NoError(t, err)
		require.Len(t, orig, 109, "input must be untouched")
	})

	t.Run("rewrites input in place", func(t *testing.T) {
		resetFlags()
		staticSize, numDynamic = 40, 2
		in := fragmentedFile(t)

		_, err := captureOutput(t, func() error { return runCompact([]string{in}) })
		require.NoError(t, err)
		info, err := os.Stat(in)
		require.NoError(t, err)
		require.EqualValues(t, 69, info.Size())
	})

	t.Run("threshold above waste", func(t *testing.T) {
		resetFlags()
		staticSize, numDynamic = 40, 2
		in := fragmentedFile(t)
		compactThreshold = 1

		output, err := captureOutput(t, func() error { return runCompact([]string{in}) })
		require.NoError(t, err)
		assertContains(t, output, []string{"nothing to compact (109 bytes)"})
	})

	t.Run("config threshold", func(t *testing.T) {
		resetFlags()
		staticSize, numDynamic = 40, 2
		cfg.Compact.Threshold = 0.9
		in := fragmentedFile(t)

		output, err := captureOutput(t, func() error { return runCompact([]string{in}) })
		require.NoError(t, err)
		assertContains(t, output, []string{"nothing to compact"})
	})

	t.Run("dry run", func(t *testing.T) {
		resetFlags()
		staticSize, numDynamic = 40, 2
		compactDryRun = true
		jsonOut = true
		in := fragmentedFile(t)

		output, err := captureOutput(t, func() error { return runCompact([]string{in}) })
		require.NoError(t, err)
		assertJSON(t, output)
		assertContains(t, output, []string{`"compacted": true`, `"after": 69`})
		assertNotContains(t, output, []string{`"output"`})
		info, err := os.Stat(in)
		require.NoError(t, err)
		require.EqualValues(t, 109, info.Size())
	})

	t.Run("metrics", func(t *testing.T) {
		resetFlags()
		staticSize, numDynamic = 40, 2
		compactMetrics = true
		compactOutput = filepath.Join(t.TempDir(), "packed.zb")

		output, err := captureOutput(t, func() error { return runCompact([]string{fragmentedFile(t)}) })
		require.NoError(t, err)
		assertContains(t, output, []string{
			"Metrics:",
			"zerobuf_compactions_total 1",
			"zerobuf_compaction_reclaimed_bytes_total 40",
		})
	})

	t.Run("snapshot stays a snapshot", func(t *testing.T) {
		resetFlags()
		typeName = "test.Document"
		frag := fragmentedFile(t)
		data, err := os.ReadFile(frag)
		require.NoError(t, err)
		in := writeSnapshot(t, data)

		_, err = captureOutput(t, func() error { return runCompact([]string{in}) })
		require.NoError(t, err)

		f, err := snapshot.Load(in)
		require.NoError(t, err)
		require.Len(t, f.Data, 69)
	})

	t.Run("snapshot without schema", func(t *testing.T) {
		resetFlags()
		in := writeSnapshot(t, testschema.NewDocument().Binary())
		registry = schema.NewRegistry()

		_, err := captureOutput(t, func() error { return runCompact([]string{in}) })
		require.Error(t, err)
	})
}
