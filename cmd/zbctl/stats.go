package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/zerobuf/alloc"
)

func init() {
	rootCmd.AddCommand(newStatsCmd())
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <file>",
		Short: "Report heap usage and fragmentation",
		Long: `The stats command reports how the dynamic heap of a buffer is used: live
allocations, holes left by freed or relocated fields, and the waste ratio
compared against the compaction threshold.

Example:
  zbctl stats doc.zb --static-size 36 --num-dynamic 2
  zbctl stats doc.zbs --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(args)
		},
	}
	return cmd
}

type heapStats struct {
	Size         int     `json:"size"`
	StaticSize   int     `json:"static_size"`
	Live         int     `json:"live"`
	LiveBytes    int     `json:"live_bytes"`
	Holes        int     `json:"holes"`
	HoleBytes    int     `json:"hole_bytes"`
	LargestHole  int     `json:"largest_hole"`
	TailBytes    int     `json:"tail_bytes"`
	MinSize      int     `json:"min_size"`
	Waste        float64 `json:"waste"`
	Threshold    float32 `json:"threshold"`
	WouldCompact bool    `json:"would_compact"`
}

func computeStats(a alloc.Allocator, threshold float32) (*heapStats, error) {
	spans, err := alloc.Spans(a)
	if err != nil {
		return nil, err
	}
	st := &heapStats{Size: a.Size(), StaticSize: a.StaticSize(), Live: len(spans), Threshold: threshold}
	cursor := a.StaticSize()
	for _, s := range spans {
		st.LiveBytes += s.Size
		if gap := s.Offset - cursor; gap > 0 {
			st.Holes++
			st.HoleBytes += gap
			st.LargestHole = max(st.LargestHole, gap)
		}
		cursor = max(cursor, s.End())
	}
	st.TailBytes = st.Size - cursor
	st.MinSize = st.StaticSize + st.LiveBytes
	if st.MinSize > 0 {
		st.Waste = float64(st.Size-st.MinSize) / float64(st.MinSize)
	}
	st.WouldCompact = threshold < 1 && st.Size > st.MinSize && float32(st.Waste) >= threshold
	return st, nil
}

func runStats(args []string) error {
	in, err := openInput(args[0])
	if err != nil {
		return fmt.Errorf("failed to open buffer: %w", err)
	}
	defer in.Close()

	st, err := computeStats(in.a, cfg.Compact.Threshold)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(st)
	}

	printInfo("\nHeap Statistics:\n")
	printInfo("  Buffer size: %s\n", formatBytes(st.Size))
	printInfo("  Static section: %s\n", formatBytes(st.StaticSize))
	printInfo("  Live allocations: %d (%s)\n", st.Live, formatBytes(st.LiveBytes))
	printInfo("  Holes: %d (%s, largest %s)\n", st.Holes, formatBytes(st.HoleBytes), formatBytes(st.LargestHole))
	printInfo("  Unused tail: %s\n", formatBytes(st.TailBytes))
	printInfo("  Minimum size: %s\n", formatBytes(st.MinSize))
	printInfo("  Waste: %.1f%%\n", st.Waste*100)
	if st.WouldCompact {
		printInfo("  Compaction: due at threshold %v\n", st.Threshold)
	} else {
		printInfo("  Compaction: not needed at threshold %v\n", st.Threshold)
	}
	return nil
}
