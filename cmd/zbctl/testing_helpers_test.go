package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/zerobuf/internal/config"
	"github.com/joshuapare/zerobuf/internal/format"
	"github.com/joshuapare/zerobuf/internal/testschema"
	"github.com/joshuapare/zerobuf/object"
	"github.com/joshuapare/zerobuf/snapshot"
)

// resetFlags restores every global to its default and loads the test
// schemas.
func resetFlags() {
	verbose = false
	quiet = false
	jsonOut = false
	configPath = ""
	logLevel = ""
	schemaFiles = nil
	typeName = ""
	staticSize = 0
	numDynamic = 0
	cfg = config.Default()
	registry = testschema.Registry()

	dumpMaxBytes = 256
	compactOutput = ""
	compactThreshold = -1
	compactMetrics = false
	compactDryRun = false
	packOutput = ""
	packCompression = ""
	unpackOutput = ""
	storeDir = ""
	storeOutput = ""
}

// newDocument builds the standard test document.
func newDocument(t *testing.T) testschema.Document {
	t.Helper()
	d := testschema.NewDocument()
	title, err := d.Title()
	require.NoError(t, err)
	require.NoError(t, title.SetText("Intro"))
	require.NoError(t, title.SetWeight(1.5))
	require.NoError(t, d.SetBody("hello world"))
	require.NoError(t, d.SetRevision(3))
	return d
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// docFile writes the standard document as a raw buffer.
func docFile(t *testing.T) string {
	t.Helper()
	return writeFile(t, "doc.zb", newDocument(t).Binary())
}

// snapshotFile writes the standard document as a snapshot.
func snapshotFile(t *testing.T, compression string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.zbs")
	require.NoError(t, snapshot.Save(path, newDocument(t).Object, snapshot.Options{Compression: compression}))
	return path
}

// writeSnapshot packs a raw document buffer into a snapshot file.
func writeSnapshot(t *testing.T, data []byte) string {
	t.Helper()
	o, err := object.Decode(testschema.DocumentSchema, data)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "doc.zbs")
	require.NoError(t, snapshot.Save(path, o, snapshot.Options{}))
	return path
}

// fragmentedFile writes a document whose body was freed after the title was
// appended behind it, leaving a 40-byte hole.
func fragmentedFile(t *testing.T) string {
	t.Helper()
	d := testschema.NewDocument()
	require.NoError(t, d.SetBody(strings.Repeat("x", 40)))
	title, err := d.Title()
	require.NoError(t, err)
	require.NoError(t, title.SetText("Intro"))
	require.NoError(t, d.SetBody(""))
	return writeFile(t, "frag.zb", d.Binary())
}

// corruptTitleFile writes a document whose nested title has a directory
// entry pointing far outside the title.
func corruptTitleFile(t *testing.T) string {
	t.Helper()
	data := newDocument(t).Binary()
	e, ok := format.ReadEntry(data, 0)
	require.True(t, ok)
	format.PutU64(data, int(e.Offset)+format.EntryPos(0), 1<<40)
	return writeFile(t, "corrupt.zb", data)
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	return buf.String(), fnErr
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) {
	t.Helper()
	var result interface{}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Errorf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}

// assertNotContains checks that output doesn't contain unwanted strings
func assertNotContains(t *testing.T, output string, unwanted []string) {
	t.Helper()
	for _, dont := range unwanted {
		if strings.Contains(output, dont) {
			t.Errorf("output contains unwanted string %q\nGot: %s", dont, output)
		}
	}
}
