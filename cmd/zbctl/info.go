package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/zerobuf/internal/format"
	"github.com/joshuapare/zerobuf/schema"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Validate a buffer and report its layout",
		Long: `The info command validates a zerobuf buffer or snapshot and displays its
size, ABI version, static section and directory entries.

Example:
  zbctl info doc.zb --type test.Document --schema schemas.yaml
  zbctl info doc.zbs --json
  zbctl info raw.zb --static-size 36 --num-dynamic 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
	return cmd
}

type entryInfo struct {
	Index  int    `json:"index"`
	Field  string `json:"field,omitempty"`
	Offset uint64 `json:"offset"`
	Size   uint64 `json:"size"`
}

type bufferInfo struct {
	File       string      `json:"file"`
	Container  string      `json:"container"`
	Compressed bool        `json:"compressed,omitempty"`
	Schema     string      `json:"schema,omitempty"`
	Type       string      `json:"type,omitempty"`
	Size       int         `json:"size"`
	Version    uint32      `json:"version"`
	StaticSize int         `json:"static_size"`
	NumDynamic int         `json:"num_dynamic"`
	Entries    []entryInfo `json:"entries"`
}

// slotName returns the name of the dynamic field stored in slot.
func slotName(s *schema.Schema, slot int) string {
	if s == nil {
		return ""
	}
	for _, f := range s.Fields {
		if f.Dynamic() && f.Slot == slot {
			return f.Name
		}
	}
	return ""
}

func describe(in *input) (*bufferInfo, error) {
	b := in.a.Bytes()
	v, err := format.ReadVersion(b)
	if err != nil {
		return nil, err
	}
	info := &bufferInfo{
		File:       in.path,
		Container:  "raw",
		Size:       len(b),
		Version:    v,
		StaticSize: in.shape.staticSize,
		NumDynamic: in.shape.numDynamic,
		Entries:    make([]entryInfo, 0, in.shape.numDynamic),
	}
	if in.frame != nil {
		info.Container = "snapshot"
		info.Compressed = in.frame.Compressed()
		info.Type = in.frame.Type.String()
	}
	if s := in.shape.schema; s != nil {
		info.Schema = s.Name
		info.Type = s.Type.String()
	}
	for i := range in.shape.numDynamic {
		e, _ := format.ReadEntry(b, i)
		info.Entries = append(info.Entries, entryInfo{
			Index:  i,
			Field:  slotName(in.shape.schema, i),
			Offset: e.Offset,
			Size:   e.Size,
		})
	}
	return info, nil
}

func runInfo(args []string) error {
	in, err := openInput(args[0])
	if err != nil {
		return fmt.Errorf("failed to open buffer: %w", err)
	}
	defer in.Close()

	info, err := describe(in)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(info)
	}

	printInfo("\nBuffer Information:\n")
	printInfo("  File: %s\n", info.File)
	printInfo("  Container: %s", info.Container)
	if info.Compressed {
		printInfo(" (zstd)")
	}
	printInfo("\n")
	if info.Schema != "" {
		printInfo("  Schema: %s\n", info.Schema)
	}
	if info.Type != "" {
		printInfo("  Type: %s\n", info.Type)
	}
	printInfo("  Size: %s\n", formatBytes(info.Size))
	printInfo("  ABI version: %d\n", info.Version)
	printInfo("  Static section: %s\n", formatBytes(info.StaticSize))
	printInfo("  Dynamic fields: %d\n", info.NumDynamic)

	if len(info.Entries) > 0 {
		printInfo("\nDirectory:\n")
		for _, e := range info.Entries {
			name := e.Field
			if name == "" {
				name = "-"
			}
			if e.Offset == format.Unallocated {
				printInfo("  [%d] %-16s unallocated\n", e.Index, name)
				continue
			}
			printInfo("  [%d] %-16s offset %d, %s\n", e.Index, name, e.Offset, formatBytes(int(e.Size)))
		}
	}
	return nil
}
