package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/zerobuf/internal/config"
)

const testSchemaYAML = `schemas:
  - name: cli.Point
    fields:
      - {name: x, type: int32}
      - {name: y, type: int32}
`

func TestSetupLoadsConfigAndSchemas(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "point.yaml"), []byte(testSchemaYAML), 0o644))

	c := config.Default()
	c.Compact.Threshold = 0.5
	c.Schemas = []string{"point.yaml"}
	configPath = filepath.Join(dir, "zbctl.yaml")
	require.NoError(t, config.Save(c, configPath))

	require.NoError(t, setup())
	require.InDelta(t, 0.5, cfg.Compact.Threshold, 1e-6)
	s, ok := registry.Lookup("cli.Point")
	require.True(t, ok)
	require.Equal(t, 12, s.StaticSize)
}

func TestSetupErrors(t *testing.T) {
	t.Run("bad log level", func(t *testing.T) {
		resetFlags()
		logLevel = "loud"
		require.Error(t, setup())
	})

	t.Run("missing schema file", func(t *testing.T) {
		resetFlags()
		schemaFiles = []string{filepath.Join(t.TempDir(), "missing.yaml")}
		require.Error(t, setup())
	})

	t.Run("duplicate schema", func(t *testing.T) {
		resetFlags()
		path := filepath.Join(t.TempDir(), "point.yaml")
		require.NoError(t, os.WriteFile(path, []byte(testSchemaYAML), 0o644))
		schemaFiles = []string{path, path}
		require.Error(t, setup())
	})
}

func TestFormatBytes(t *testing.T) {
	require.Equal(t, "1 byte", formatBytes(1))
	require.Equal(t, "40 bytes", formatBytes(40))
	require.Equal(t, "1,048,576 bytes", formatBytes(1<<20))
}
