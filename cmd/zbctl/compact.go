package main

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/joshuapare/zerobuf/alloc"
	"github.com/joshuapare/zerobuf/metrics"
	"github.com/joshuapare/zerobuf/object"
	"github.com/joshuapare/zerobuf/snapshot"
)

var (
	compactOutput    string
	compactThreshold float32
	compactMetrics   bool
	compactDryRun    bool
)

func init() {
	cmd := newCompactCmd()
	cmd.Flags().StringVarP(&compactOutput, "output", "o", "", "Output file (default: rewrite the input)")
	cmd.Flags().
		Float32Var(&compactThreshold, "threshold", -1, "Minimum waste ratio that triggers compaction (default from config)")
	cmd.Flags().BoolVar(&compactMetrics, "metrics", false, "Print allocator metrics after compacting")
	cmd.Flags().BoolVarP(&compactDryRun, "dry-run", "n", false, "Report the result without writing")
	rootCmd.AddCommand(cmd)
}

func newCompactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compact <file>",
		Short: "Remove holes from a buffer's dynamic heap",
		Long: `The compact command packs all live dynamic fields directly after the
static section, in directory order, when the wasted fraction of the buffer
is at least the threshold. Snapshots are rewritten as snapshots.

Example:
  zbctl compact doc.zb --static-size 36 --num-dynamic 2
  zbctl compact doc.zb -o packed.zb --threshold 0
  zbctl compact doc.zbs --type test.Document --metrics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompact(args)
		},
	}
	return cmd
}

type compactResult struct {
	File      string  `json:"file"`
	Output    string  `json:"output,omitempty"`
	Before    int     `json:"before"`
	After     int     `json:"after"`
	Threshold float32 `json:"threshold"`
	Compacted bool    `json:"compacted"`
}

func runCompact(args []string) error {
	in, err := openInput(args[0])
	if err != nil {
		return fmt.Errorf("failed to open buffer: %w", err)
	}
	data := bytes.Clone(in.a.Bytes())
	sh, frame := in.shape, in.frame
	if err := in.Close(); err != nil {
		return err
	}
	if frame != nil && sh.schema == nil {
		return fmt.Errorf("compacting snapshot %s needs its schema (type %s)", args[0], frame.Type)
	}

	var opts []alloc.Option
	var reg *prometheus.Registry
	if compactMetrics {
		reg = prometheus.NewRegistry()
		opts = append(opts, alloc.WithObserver(metrics.NewRecorder(reg)))
	}
	a, err := alloc.NewOwningFrom(data, sh.staticSize, sh.numDynamic, opts...)
	if err != nil {
		return err
	}

	threshold := cfg.Compact.Threshold
	if compactThreshold >= 0 {
		threshold = compactThreshold
	}
	printVerbose("Compacting %s at threshold %v\n", args[0], threshold)
	if err := a.Compact(threshold); err != nil {
		return fmt.Errorf("compaction failed: %w", err)
	}

	res := compactResult{
		File:      args[0],
		Before:    len(data),
		After:     a.Size(),
		Threshold: threshold,
		Compacted: a.Size() < len(data),
	}
	if res.Compacted && !compactDryRun {
		res.Output = compactOutput
		if res.Output == "" {
			res.Output = args[0]
		}
		if err := writeCompacted(res.Output, a, sh, frame != nil); err != nil {
			return err
		}
	}

	if jsonOut {
		return printJSON(res)
	}
	if !res.Compacted {
		printInfo("%s: nothing to compact (%s)\n", res.File, formatBytes(res.Before))
	} else {
		printInfo("%s: %s -> %s (reclaimed %s)\n", res.File,
			formatBytes(res.Before), formatBytes(res.After), formatBytes(res.Before-res.After))
		if res.Output != "" {
			printInfo("  Written to %s\n", res.Output)
		}
	}
	if reg != nil {
		return printMetrics(reg)
	}
	return nil
}

func writeCompacted(path string, a *alloc.Owning, sh shape, snap bool) error {
	if !snap {
		return writeFileAtomic(path, a.Bytes())
	}
	o, err := object.Wrap(sh.schema, a)
	if err != nil {
		return err
	}
	return snapshot.Save(path, o, snapshotOptions(""))
}

// printMetrics prints every sample gathered from reg in name order.
func printMetrics(reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
	printInfo("\nMetrics:\n")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := ""
			for _, lp := range m.GetLabel() {
				labels += fmt.Sprintf("{%s=%q}", lp.GetName(), lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				printInfo("  %s%s %v\n", mf.GetName(), labels, m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				printInfo("  %s%s count=%d sum=%v\n", mf.GetName(), labels, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
	return nil
}
