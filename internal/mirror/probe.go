package mirror

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"
)

const (
	// DefaultProbeTimeout bounds a single mirror probe.
	DefaultProbeTimeout = 10 * time.Second
	// DefaultProbeWorkers is the number of concurrent in-flight probes.
	DefaultProbeWorkers = 10
)

// Prober measures mirror responsiveness. Probes run concurrently through a
// bounded worker pool; each probe is independently time-limited and its
// failure never aborts or delays the others.
type Prober struct {
	client    *http.Client
	logger    *slog.Logger
	timeout   time.Duration
	workers   int
	probePath string
}

// NewProber creates a probe engine. probePath is the small well-known
// object fetched from every mirror, relative to the mirror base.
func NewProber(client *http.Client, timeout time.Duration, workers int, probePath string, logger *slog.Logger) *Prober {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if workers <= 0 {
		workers = DefaultProbeWorkers
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Prober{
		client:    client,
		logger:    logger,
		timeout:   timeout,
		workers:   workers,
		probePath: probePath,
	}
}

// candidateWithIndex pairs a candidate with its input position so the
// result slice can be assembled without shared mutable state.
type candidateWithIndex struct {
	candidate Candidate
	index     int
}

// ProbeAll probes every candidate and returns exactly one ProbeResult per
// input candidate, even when every probe fails. Result order carries no
// meaning; the ranker sorts on its own.
func (p *Prober) ProbeAll(ctx context.Context, candidates []Candidate) []ProbeResult {
	if len(candidates) == 0 {
		return []ProbeResult{}
	}

	jobsChan := make(chan candidateWithIndex, len(candidates))
	results := make([]ProbeResult, len(candidates))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobsChan {
				// Each slot is written by exactly one worker and read
				// only after the join below.
				results[job.index] = p.probeOne(ctx, job.candidate)
			}
		}()
	}

	for i, c := range candidates {
		jobsChan <- candidateWithIndex{candidate: c, index: i}
	}
	close(jobsChan)

	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].Candidate.URL < results[j].Candidate.URL
	})
	return results
}

// probeOne performs a single bounded-time probe: one GET of the probe
// object, recording time to response headers as latency and bytes/sec over
// the whole transfer as throughput.
func (p *Prober) probeOne(ctx context.Context, c Candidate) ProbeResult {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	target := c.URL + "/" + p.probePath

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, target, nil)
	if err != nil {
		return ProbeResult{Candidate: c, Outcome: OutcomeConnError, Err: err.Error()}
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		outcome := classifyProbeError(probeCtx, err)
		p.logger.Debug("mirror probe failed", "url", c.URL, "outcome", outcome.String(), "error", err)
		return ProbeResult{Candidate: c, Outcome: outcome, Err: err.Error()}
	}
	latency := time.Since(start)
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.logger.Debug("mirror probe got bad status", "url", c.URL, "status", resp.StatusCode)
		return ProbeResult{
			Candidate:  c,
			Outcome:    OutcomeHTTPError,
			StatusCode: resp.StatusCode,
			Latency:    latency,
		}
	}

	bytes, err := io.Copy(io.Discard, resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		outcome := classifyProbeError(probeCtx, err)
		p.logger.Debug("mirror probe transfer failed", "url", c.URL, "outcome", outcome.String(), "error", err)
		return ProbeResult{Candidate: c, Outcome: outcome, Latency: latency, Err: err.Error()}
	}

	result := ProbeResult{
		Candidate: c,
		Outcome:   OutcomeSuccess,
		Latency:   latency,
	}
	if elapsed.Seconds() > 0 {
		result.ThroughputBps = float64(bytes) / elapsed.Seconds()
	}

	p.logger.Debug("mirror probe completed",
		"url", c.URL,
		"latency_ms", latency.Milliseconds(),
		"throughput_bps", result.ThroughputBps,
	)
	return result
}

// classifyProbeError maps a transport error to a probe outcome. Deadline
// expiry (per-probe or caller-wide) is a timeout; everything else is a
// connection error.
func classifyProbeError(probeCtx context.Context, err error) Outcome {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(probeCtx.Err(), context.DeadlineExceeded) {
		return OutcomeTimeout
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return OutcomeTimeout
	}
	return OutcomeConnError
}
