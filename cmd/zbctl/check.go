package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/zerobuf/alloc"
	"github.com/joshuapare/zerobuf/object"
)

func init() {
	rootCmd.AddCommand(newCheckCmd())
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Validate the version tag and directory of a buffer",
		Long: `The check command verifies the ABI version tag and every directory
entry of a buffer. With --type, nested objects are validated recursively.
The command exits non-zero on the first violation.

Example:
  zbctl check doc.zb --static-size 36 --num-dynamic 2
  zbctl check doc.zbs --type test.Document --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(args)
		},
	}
	return cmd
}

type checkResult struct {
	File    string `json:"file"`
	Valid   bool   `json:"valid"`
	Version uint32 `json:"version"`
	Entries int    `json:"entries"`
	Nested  bool   `json:"nested_checked"`
}

func runCheck(args []string) error {
	in, err := openInput(args[0])
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}
	defer in.Close()

	res := checkResult{File: in.path, Version: alloc.ABIVersion, Entries: in.shape.numDynamic}
	if s := in.shape.schema; s != nil {
		o, err := object.Wrap(s, in.a)
		if err != nil {
			return fmt.Errorf("check failed: %w", err)
		}
		if err := o.Check(); err != nil {
			return fmt.Errorf("check failed: %w", err)
		}
		res.Nested = true
	}
	res.Valid = true

	if jsonOut {
		return printJSON(res)
	}
	printInfo("%s:\n", in.path)
	printInfo("  ✓ ABI version %d\n", res.Version)
	printInfo("  ✓ Directory valid (%d entries)\n", res.Entries)
	if res.Nested {
		printInfo("  ✓ Nested objects valid\n")
	}
	return nil
}
