package mirror

import (
	"sort"
	"time"
)

// Thresholds are the acceptance criteria applied before ranking.
type Thresholds struct {
	// MinThroughputBps drops mirrors slower than this, in bytes/sec.
	MinThroughputBps float64
	// MaxLatency drops mirrors that took longer than this to answer.
	MaxLatency time.Duration
	// MaxMirrors caps the ranked list; 0 means no cap.
	MaxMirrors int
}

// Score combines latency and throughput into one scalar. Throughput
// dominates, since mirrors serve bulk downloads; latency discounts it.
// Monotonically increasing in throughput, decreasing in latency.
func Score(r ProbeResult) float64 {
	latencySeconds := float64(r.Latency.Milliseconds()) / 1000.0
	return r.ThroughputBps / (1.0 + latencySeconds)
}

// Rank filters probe results against the thresholds and orders survivors
// by descending score, ties broken by URL so the output is deterministic.
// Returns ErrNoViableMirrors when nothing survives.
func Rank(results []ProbeResult, t Thresholds) ([]RankedMirror, error) {
	var ranked []RankedMirror
	for _, r := range results {
		if r.Outcome != OutcomeSuccess {
			continue
		}
		if t.MaxLatency > 0 && r.Latency > t.MaxLatency {
			continue
		}
		if r.ThroughputBps < t.MinThroughputBps {
			continue
		}
		ranked = append(ranked, RankedMirror{
			Candidate: r.Candidate,
			Result:    r,
			Score:     Score(r),
		})
	}

	if len(ranked) == 0 {
		return nil, ErrNoViableMirrors
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Candidate.URL < ranked[j].Candidate.URL
	})

	if t.MaxMirrors > 0 && len(ranked) > t.MaxMirrors {
		ranked = ranked[:t.MaxMirrors]
	}

	return ranked, nil
}
