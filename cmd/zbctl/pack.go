package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/zerobuf/object"
	"github.com/joshuapare/zerobuf/snapshot"
)

const snapshotExt = ".zbs"

var (
	packOutput      string
	packCompression string
	unpackOutput    string
)

func init() {
	pack := newPackCmd()
	pack.Flags().StringVarP(&packOutput, "output", "o", "", "Output snapshot (default: <file>"+snapshotExt+")")
	pack.Flags().StringVar(&packCompression, "compression", "", "none or zstd (default from config)")
	rootCmd.AddCommand(pack)

	unpack := newUnpackCmd()
	unpack.Flags().StringVarP(&unpackOutput, "output", "o", "", "Output buffer (default: <file> without "+snapshotExt+")")
	rootCmd.AddCommand(unpack)
}

func newPackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack <file>",
		Short: "Wrap a buffer in a typed, checksummed snapshot",
		Long: `The pack command validates a raw buffer against its schema and writes it
as a snapshot frame carrying the type identifier, payload length and
checksum. The payload is zstd compressed unless --compression none.

Example:
  zbctl pack doc.zb --type test.Document --schema schemas.yaml
  zbctl pack doc.zb --type test.Document -o doc.zbs --compression none`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPack(args)
		},
	}
	return cmd
}

func newUnpackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unpack <snapshot>",
		Short: "Extract the raw buffer from a snapshot",
		Long: `The unpack command verifies a snapshot and writes its payload as a raw
buffer that can be memory-mapped directly.

Example:
  zbctl unpack doc.zbs --num-dynamic 2 --static-size 36
  zbctl unpack doc.zbs --type test.Document -o doc.zb`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnpack(args)
		},
	}
	return cmd
}

func snapshotOptions(compression string) snapshot.Options {
	opts := snapshot.Options{Compression: cfg.Snapshot.Compression, Level: cfg.Snapshot.Level}
	if compression != "" {
		opts.Compression = compression
	}
	return opts
}

func runPack(args []string) error {
	in, err := openInput(args[0])
	if err != nil {
		return fmt.Errorf("failed to open buffer: %w", err)
	}
	defer in.Close()
	s := in.shape.schema
	if s == nil {
		return fmt.Errorf("pack needs --type")
	}

	o, err := object.Wrap(s, in.a)
	if err != nil {
		return err
	}
	if err := o.Check(); err != nil {
		return fmt.Errorf("refusing to pack invalid buffer: %w", err)
	}

	out := packOutput
	if out == "" {
		out = args[0] + snapshotExt
	}
	opts := snapshotOptions(packCompression)
	if err := snapshot.Save(out, o, opts); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	printVerbose("Compression: %s\n", opts.Compression)
	printInfo("Packed %s (%s) into %s\n", args[0], s.Name, out)
	return nil
}

func runUnpack(args []string) error {
	in, err := openInput(args[0])
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer in.Close()
	if in.frame == nil {
		return fmt.Errorf("%s is not a snapshot", args[0])
	}

	out := unpackOutput
	if out == "" {
		out = strings.TrimSuffix(args[0], snapshotExt)
		if out == args[0] {
			out += ".zb"
		}
	}
	if err := writeFileAtomic(out, in.frame.Data); err != nil {
		return err
	}
	printInfo("Unpacked %s into %s (%s)\n", args[0], out, formatBytes(len(in.frame.Data)))
	return nil
}
