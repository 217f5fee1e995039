package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/zerobuf/alloc"
	"github.com/joshuapare/zerobuf/schema"
)

var dumpMaxBytes int

func init() {
	cmd := newDumpCmd()
	cmd.Flags().IntVar(&dumpMaxBytes, "max-bytes", 256, "Maximum bytes per field in hex dumps (0 for no limit)")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print the fields of a buffer",
		Long: `The dump command prints every field of a buffer. With --type the fields
are decoded through the schema, including nested objects and vectors.
Without it each allocated dynamic field is shown as a hex dump.

Example:
  zbctl dump doc.zb --type test.Document --schema schemas.yaml
  zbctl dump doc.zb --type test.Document --json
  zbctl dump raw.zb --num-dynamic 3 --max-bytes 64`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args)
		},
	}
	return cmd
}

type fieldValue struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

func collectFields(a alloc.Allocator, s *schema.Schema) ([]fieldValue, error) {
	var out []fieldValue
	err := schema.Walk(a, s, func(path string, f schema.Field, raw []byte) error {
		kind := f.Kind.String()
		if f.Storage != schema.Inline {
			kind = f.Storage.String() + "<" + kind + ">"
		} else if f.Elements > 1 {
			kind = fmt.Sprintf("%s[%d]", kind, f.Elements)
		}
		out = append(out, fieldValue{Path: path, Kind: kind, Value: schema.Format(f, raw)})
		return nil
	})
	return out, err
}

func printFields(fields []fieldValue) {
	for _, fv := range fields {
		printInfo("  %s (%s): %s\n", fv.Path, fv.Kind, fv.Value)
	}
}

func runDump(args []string) error {
	in, err := openInput(args[0])
	if err != nil {
		return fmt.Errorf("failed to open buffer: %w", err)
	}
	defer in.Close()

	if s := in.shape.schema; s != nil {
		fields, err := collectFields(in.a, s)
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", s.Name, err)
		}
		if jsonOut {
			return printJSON(fields)
		}
		printInfo("%s (%s):\n", in.path, s.Name)
		printFields(fields)
		return nil
	}

	printInfo("%s: static section %s\n", in.path, formatBytes(in.shape.staticSize))
	for i := range in.shape.numDynamic {
		data := alloc.Dynamic(in.a, i)
		if data == nil {
			printInfo("\n[%d] unallocated\n", i)
			continue
		}
		printInfo("\n[%d] %s\n", i, formatBytes(len(data)))
		shown := data
		if dumpMaxBytes > 0 && len(shown) > dumpMaxBytes {
			shown = shown[:dumpMaxBytes]
		}
		printInfo("%s", hex.Dump(shown))
		if len(shown) < len(data) {
			printInfo("  ... %s more\n", formatBytes(len(data)-len(shown)))
		}
	}
	return nil
}
