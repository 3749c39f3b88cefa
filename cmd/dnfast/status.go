package main

import (
	"errors"
	"fmt"

	"github.com/dnfast/dnfast/internal/store"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last mirror fetch run",
		Long: `Show when mirrors were last probed, how many passed the quality
thresholds, and the per-mirror measurements of that run.`,
		Example: `  dnfast status`,
		RunE:    statusRunCmd,
	}
}

func statusRunCmd(cmd *cobra.Command, args []string) error {
	if globalStore == nil {
		fmt.Println("No fetch run store available (run 'dnfast fetch' first)")
		return nil
	}

	run, err := globalStore.LatestFetchRun()
	if errors.Is(err, store.ErrNoRuns) {
		fmt.Println("No fetch runs recorded yet (run 'dnfast fetch' first)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading fetch runs: %w", err)
	}

	fmt.Println("Last mirror fetch")
	fmt.Println("=================")
	fmt.Println("")
	fmt.Printf("%-12s %s\n", "When:", run.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Printf("%-12s Fedora %s (%s)\n", "Target:", run.Release, run.Arch)
	fmt.Printf("%-12s %d probed, %d viable\n", "Mirrors:", run.Candidates, run.Viable)
	fmt.Printf("%-12s %s\n", "Status:", run.Status)
	if run.ErrorMsg != "" {
		fmt.Printf("%-12s %s\n", "Error:", run.ErrorMsg)
	}
	fmt.Printf("%-12s %s\n", "Repo file:", run.RepoFile)

	records, err := globalStore.MirrorRecordsForRun(run.ID)
	if err != nil {
		return fmt.Errorf("reading mirror records: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	urlWidth := len("MIRROR")
	for _, r := range records {
		if w := len(r.URL); w > urlWidth {
			urlWidth = w
		}
	}

	fmt.Println("")
	fmt.Printf("%4s  %-*s  %-16s  %8s  %12s\n", "RANK", urlWidth, "MIRROR", "OUTCOME", "LATENCY", "SPEED")
	for _, r := range records {
		rank := "-"
		if r.Position > 0 {
			rank = fmt.Sprintf("%d", r.Position)
		}
		speed := "-"
		if r.ThroughputBps > 0 {
			speed = humanize.Bytes(uint64(r.ThroughputBps)) + "/s"
		}
		latency := "-"
		if r.Outcome == "success" {
			latency = fmt.Sprintf("%d ms", r.LatencyMs)
		}
		fmt.Printf("%4s  %-*s  %-16s  %8s  %12s\n", rank, urlWidth, r.URL, r.Outcome, latency, speed)
	}

	return nil
}
