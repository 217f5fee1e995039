package main

import (
	"testing"
)

func TestDumpCommand(t *testing.T) {
	doc := docFile(t)
	snap := snapshotFile(t, "none")

	tests := []struct {
		name           string
		file           string
		typeName       string
		dynamic        int
		maxBytes       int
		wantJSON       bool
		wantErr        bool
		wantContain    []string
		wantNotContain []string
	}{
		{
			name:     "fields through schema",
			file:     doc,
			typeName: "test.Document",
			wantContain: []string{
				`title.text (vector<char>): "Intro"`,
				"title.weight (float32): 1.5",
				`body (vector<char>): "hello world"`,
				"revision (uint32): 3",
			},
		},
		{
			name:        "snapshot",
			file:        snap,
			wantContain: []string{`body (vector<char>): "hello world"`},
		},
		{
			name:        "json",
			file:        doc,
			typeName:    "test.Document",
			wantJSON:    true,
			wantContain: []string{`"path": "title.text"`, `"value": "3"`},
		},
		{
			name:           "hex without schema",
			file:           doc,
			dynamic:        2,
			maxBytes:       256,
			wantContain:    []string{"[1] 11 bytes", "hello world"},
			wantNotContain: []string{"revision"},
		},
		{
			name:        "hex truncated",
			file:        doc,
			dynamic:     2,
			maxBytes:    4,
			wantContain: []string{"... 7 bytes more"},
		},
		{
			name:     "corrupt nested title",
			file:     corruptTitleFile(t),
			typeName: "test.Document",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			typeName = tt.typeName
			numDynamic = tt.dynamic
			if tt.dynamic > 0 {
				staticSize = 40
			}
			dumpMaxBytes = tt.maxBytes
			jsonOut = tt.wantJSON

			output, err := captureOutput(t, func() error {
				return runDump([]string{tt.file})
			})

			if (err != nil) != tt.wantErr {
				t.Errorf("runDump() error = %v, wantErr %v\nOutput: %s", err, tt.wantErr, output)
				return
			}
			if tt.wantJSON && !tt.wantErr {
				assertJSON(t, output)
			}
			assertContains(t, output, tt.wantContain)
			assertNotContains(t, output, tt.wantNotContain)
		})
	}
}
