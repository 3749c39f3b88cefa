package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dnfast/dnfast/internal/dnf"
	"github.com/dnfast/dnfast/internal/mirror"
	"github.com/dnfast/dnfast/internal/safety"
	"github.com/dnfast/dnfast/internal/store"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	fetchRelease     string
	fetchArch        string
	fetchExtra       []string
	fetchTimeout     int
	fetchConcurrency int
	fetchMaxMirrors  int
	fetchMinKBps     float64
	fetchMaxLatency  int
	fetchOutput      string
	fetchNoMetalink  bool
	fetchDryRun      bool
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Find the fastest Fedora mirrors and write them to a repo file",
		Long: `Probe candidate Fedora mirrors for latency and throughput, rank the
survivors, and write the fastest ones into a yum repo configuration file.

Candidates come from the Fedora metalink service, merged with any extra
mirrors from configuration or --mirror flags and a built-in fallback list.
Each mirror is probed once with a bounded-time download of a small
metadata file; mirrors that time out, refuse connections, or miss the
quality thresholds are excluded. Nothing is retried automatically - the
operation is idempotent and safe to re-run.`,
		Example: `  dnfast fetch
  dnfast fetch --dry-run
  dnfast fetch --max-mirrors 3 --max-latency-ms 500
  dnfast fetch --mirror https://mirror.example.org/fedora/linux/
  dnfast fetch --output ./fastmirrors.repo`,
		RunE: fetchRun,
	}

	cmd.Flags().StringVar(&fetchRelease, "release", "", "Fedora release to probe for (default: detected)")
	cmd.Flags().StringVar(&fetchArch, "arch", "", "architecture to probe for")
	cmd.Flags().StringSliceVar(&fetchExtra, "mirror", nil, "extra mirror base URL to include (repeatable)")
	cmd.Flags().IntVar(&fetchTimeout, "timeout", 0, "per-mirror probe timeout in seconds")
	cmd.Flags().IntVar(&fetchConcurrency, "concurrency", 0, "maximum concurrent probes")
	cmd.Flags().IntVar(&fetchMaxMirrors, "max-mirrors", 0, "number of mirrors to keep in the repo file")
	cmd.Flags().Float64Var(&fetchMinKBps, "min-throughput", 0, "minimum acceptable throughput in KB/s")
	cmd.Flags().IntVar(&fetchMaxLatency, "max-latency-ms", 0, "maximum acceptable latency in milliseconds")
	cmd.Flags().StringVar(&fetchOutput, "output", "", "repo file to write (default from config)")
	cmd.Flags().BoolVar(&fetchNoMetalink, "no-metalink", false, "skip metalink discovery, use configured and fallback mirrors only")
	cmd.Flags().BoolVar(&fetchDryRun, "dry-run", false, "probe and rank but do not write the repo file")

	return cmd
}

func fetchRun(cmd *cobra.Command, args []string) error {
	if globalCfg == nil {
		return fmt.Errorf("config not loaded")
	}
	cfg := globalCfg
	ctx := cmd.Context()

	applyFetchFlags(cmd)

	release := cfg.Mirrors.Release
	if release == "" {
		release = dnf.DetectRelease(ctx, logger)
	}
	arch := cfg.Mirrors.Arch

	metalinkBase := cfg.Mirrors.MetalinkBase
	if fetchNoMetalink {
		metalinkBase = ""
	}

	fmt.Printf("Probing Fedora %s (%s) mirrors...\n", release, arch)

	startTime := time.Now()
	client := safety.NewHTTPClient(cfg.ProbeTimeout())
	loader := mirror.NewLoader(client, metalinkBase, cfg.Mirrors.Extra, logger)

	candidates, err := loader.LoadCandidates(ctx, release, arch)
	if err != nil {
		if errors.Is(err, mirror.ErrNoCandidates) {
			return fmt.Errorf("%w: configure mirrors.extra or enable metalink discovery", err)
		}
		return err
	}

	probePath := mirror.ProbePath(cfg.Mirrors.TestFile, release, arch)
	prober := mirror.NewProber(client, cfg.ProbeTimeout(), cfg.Fetch.Concurrency, probePath, logger)
	results := prober.ProbeAll(ctx, candidates)

	ranked, rankErr := mirror.Rank(results, cfg.Thresholds())

	if !quiet {
		fmt.Println(mirror.RenderReport(results, ranked))
	}

	recordFetchRun(startTime, release, arch, results, ranked, rankErr)

	if rankErr != nil {
		return fmt.Errorf("%w (%.0f KB/s minimum, %d ms maximum); try lowering fetch.min_throughput_kbps or raising fetch.max_latency_ms",
			rankErr, cfg.Fetch.MinThroughputKBps, cfg.Fetch.MaxLatencyMs)
	}

	if fetchDryRun {
		fmt.Printf("Dry run: %d viable mirrors found, repo file not written\n", len(ranked))
		return nil
	}

	if err := mirror.WriteRepoFile(afero.NewOsFs(), cfg.Mirrors.RepoFile, ranked); err != nil {
		return err
	}

	fmt.Printf("Wrote %d mirrors to %s\n", len(ranked), cfg.Mirrors.RepoFile)
	fmt.Println("Run 'dnf makecache' to refresh metadata from the new mirrors.")
	return nil
}

// applyFetchFlags overlays explicitly-set command flags onto the config,
// so CLI always wins over file values.
func applyFetchFlags(cmd *cobra.Command) {
	cfg := globalCfg
	if cmd.Flags().Changed("release") {
		cfg.Mirrors.Release = fetchRelease
	}
	if cmd.Flags().Changed("arch") {
		cfg.Mirrors.Arch = fetchArch
	}
	if cmd.Flags().Changed("mirror") {
		cfg.Mirrors.Extra = append(cfg.Mirrors.Extra, fetchExtra...)
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Fetch.TimeoutSeconds = fetchTimeout
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Fetch.Concurrency = fetchConcurrency
	}
	if cmd.Flags().Changed("max-mirrors") {
		cfg.Fetch.MaxMirrors = fetchMaxMirrors
	}
	if cmd.Flags().Changed("min-throughput") {
		cfg.Fetch.MinThroughputKBps = fetchMinKBps
	}
	if cmd.Flags().Changed("max-latency-ms") {
		cfg.Fetch.MaxLatencyMs = fetchMaxLatency
	}
	if cmd.Flags().Changed("output") {
		cfg.Mirrors.RepoFile = fetchOutput
	}
}

// recordFetchRun persists the run and its per-mirror results. Recording is
// best effort: a missing store never fails the fetch.
func recordFetchRun(startTime time.Time, release, arch string, results []mirror.ProbeResult, ranked []mirror.RankedMirror, rankErr error) {
	if globalStore == nil {
		return
	}

	run := &store.FetchRun{
		StartTime:  startTime,
		EndTime:    time.Now(),
		Release:    release,
		Arch:       arch,
		Candidates: len(results),
		Viable:     len(ranked),
		RepoFile:   globalCfg.Mirrors.RepoFile,
		Status:     "success",
	}
	if rankErr != nil {
		run.Status = "failed"
		run.ErrorMsg = rankErr.Error()
	}

	if err := globalStore.CreateFetchRun(run); err != nil {
		logger.Warn("failed to record fetch run", "error", err)
		return
	}

	position := make(map[string]int, len(ranked))
	score := make(map[string]float64, len(ranked))
	for i, m := range ranked {
		position[m.Candidate.URL] = i + 1
		score[m.Candidate.URL] = m.Score
	}

	records := make([]store.MirrorRecord, 0, len(results))
	for _, r := range results {
		records = append(records, store.MirrorRecord{
			RunID:         run.ID,
			URL:           r.Candidate.URL,
			Origin:        r.Candidate.Origin.String(),
			Outcome:       r.Outcome.String(),
			LatencyMs:     r.Latency.Milliseconds(),
			ThroughputBps: r.ThroughputBps,
			Score:         score[r.Candidate.URL],
			Position:      position[r.Candidate.URL],
		})
	}

	if err := globalStore.AddMirrorRecords(run.ID, records); err != nil {
		logger.Warn("failed to record mirror results", "error", err)
	}
}
