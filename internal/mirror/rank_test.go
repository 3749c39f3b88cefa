package mirror

import (
	"errors"
	"testing"
	"time"
)

func successResult(url string, latency time.Duration, throughputBps float64) ProbeResult {
	return ProbeResult{
		Candidate:     Candidate{URL: url},
		Outcome:       OutcomeSuccess,
		Latency:       latency,
		ThroughputBps: throughputBps,
	}
}

func TestRankScenario(t *testing.T) {
	// A: 50ms / 10 MB/s, B: 500ms / 1 MB/s, C: timed out.
	results := []ProbeResult{
		successResult("https://b.example/fedora", 500*time.Millisecond, 1*1024*1024),
		successResult("https://a.example/fedora", 50*time.Millisecond, 10*1024*1024),
		{Candidate: Candidate{URL: "https://c.example/fedora"}, Outcome: OutcomeTimeout},
	}

	ranked, err := Rank(results, Thresholds{
		MinThroughputBps: 0.5 * 1024 * 1024,
		MaxLatency:       1000 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}

	if len(ranked) != 2 {
		t.Fatalf("expected [A, B], got %d entries", len(ranked))
	}
	if ranked[0].Candidate.URL != "https://a.example/fedora" {
		t.Errorf("expected A first, got %s", ranked[0].Candidate.URL)
	}
	if ranked[1].Candidate.URL != "https://b.example/fedora" {
		t.Errorf("expected B second, got %s", ranked[1].Candidate.URL)
	}
}

func TestRankStrictlySortedWithLexicalTieBreak(t *testing.T) {
	results := []ProbeResult{
		successResult("https://z.example", 100*time.Millisecond, 1000),
		successResult("https://a.example", 100*time.Millisecond, 1000),
		successResult("https://m.example", 100*time.Millisecond, 2000),
	}

	ranked, err := Rank(results, Thresholds{})
	if err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}

	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Errorf("scores not descending at %d: %f > %f", i, ranked[i].Score, ranked[i-1].Score)
		}
		if ranked[i].Score == ranked[i-1].Score && ranked[i].Candidate.URL < ranked[i-1].Candidate.URL {
			t.Errorf("equal scores not in lexical URL order: %s before %s",
				ranked[i-1].Candidate.URL, ranked[i].Candidate.URL)
		}
	}
	if ranked[0].Candidate.URL != "https://m.example" {
		t.Errorf("highest throughput should rank first, got %s", ranked[0].Candidate.URL)
	}
	if ranked[1].Candidate.URL != "https://a.example" {
		t.Errorf("tie should break lexically, got %s", ranked[1].Candidate.URL)
	}
}

func TestRankThresholds(t *testing.T) {
	results := []ProbeResult{
		successResult("https://slow.example", 100*time.Millisecond, 100),
		successResult("https://laggy.example", 5*time.Second, 1_000_000),
		successResult("https://good.example", 100*time.Millisecond, 1_000_000),
	}

	ranked, err := Rank(results, Thresholds{
		MinThroughputBps: 1000,
		MaxLatency:       time.Second,
	})
	if err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}

	if len(ranked) != 1 || ranked[0].Candidate.URL != "https://good.example" {
		t.Fatalf("expected only the good mirror to survive, got %+v", ranked)
	}
	for _, m := range ranked {
		if m.Result.Latency > time.Second {
			t.Errorf("latency threshold violated: %v", m.Result.Latency)
		}
		if m.Result.ThroughputBps < 1000 {
			t.Errorf("throughput threshold violated: %f", m.Result.ThroughputBps)
		}
	}
}

func TestRankAllFailed(t *testing.T) {
	results := []ProbeResult{
		{Candidate: Candidate{URL: "https://a.example"}, Outcome: OutcomeTimeout},
		{Candidate: Candidate{URL: "https://b.example"}, Outcome: OutcomeConnError},
		{Candidate: Candidate{URL: "https://c.example"}, Outcome: OutcomeHTTPError, StatusCode: 503},
	}

	_, err := Rank(results, Thresholds{})
	if !errors.Is(err, ErrNoViableMirrors) {
		t.Fatalf("expected ErrNoViableMirrors, got %v", err)
	}
}

func TestRankMaxMirrorsCap(t *testing.T) {
	results := []ProbeResult{
		successResult("https://a.example", 10*time.Millisecond, 3000),
		successResult("https://b.example", 10*time.Millisecond, 2000),
		successResult("https://c.example", 10*time.Millisecond, 1000),
	}

	ranked, err := Rank(results, Thresholds{MaxMirrors: 2})
	if err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected cap at 2, got %d", len(ranked))
	}
	if ranked[0].Candidate.URL != "https://a.example" || ranked[1].Candidate.URL != "https://b.example" {
		t.Errorf("cap should keep the best mirrors, got %+v", ranked)
	}
}

func TestScoreMonotonicity(t *testing.T) {
	base := successResult("https://x.example", 100*time.Millisecond, 1000)

	faster := base
	faster.ThroughputBps = 2000
	if Score(faster) <= Score(base) {
		t.Error("score must increase with throughput")
	}

	laggier := base
	laggier.Latency = 500 * time.Millisecond
	if Score(laggier) >= Score(base) {
		t.Error("score must decrease with latency")
	}
}
