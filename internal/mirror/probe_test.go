package mirror

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const probeTestPath = "releases/42/Everything/x86_64/os/repodata/repomd.xml"

func TestProbeAllOneResultPerCandidate(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "repomd.xml") {
			t.Errorf("unexpected probe path: %q", r.URL.Path)
		}
		w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer ok.Close()

	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer notFound.Close()

	// A closed server yields connection refused.
	refused := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	refusedURL := refused.URL
	refused.Close()

	candidates := []Candidate{
		{URL: ok.URL, Origin: OriginMetalink},
		{URL: notFound.URL, Origin: OriginConfigured},
		{URL: refusedURL, Origin: OriginFallback},
	}

	p := NewProber(nil, 5*time.Second, 2, probeTestPath, discardLogger())
	results := p.ProbeAll(context.Background(), candidates)

	if len(results) != len(candidates) {
		t.Fatalf("expected %d results, got %d", len(candidates), len(results))
	}

	byURL := make(map[string]ProbeResult, len(results))
	for _, r := range results {
		if _, dup := byURL[r.Candidate.URL]; dup {
			t.Errorf("duplicate result for %s", r.Candidate.URL)
		}
		byURL[r.Candidate.URL] = r
	}

	if r := byURL[ok.URL]; r.Outcome != OutcomeSuccess {
		t.Errorf("healthy mirror outcome = %v (%s)", r.Outcome, r.Err)
	} else {
		if r.Latency <= 0 {
			t.Errorf("successful probe should record latency, got %v", r.Latency)
		}
		if r.ThroughputBps <= 0 {
			t.Errorf("successful probe should record throughput, got %f", r.ThroughputBps)
		}
	}

	if r := byURL[notFound.URL]; r.Outcome != OutcomeHTTPError || r.StatusCode != http.StatusNotFound {
		t.Errorf("404 mirror outcome = %v status %d", r.Outcome, r.StatusCode)
	}

	if r := byURL[refusedURL]; r.Outcome != OutcomeConnError {
		t.Errorf("refused mirror outcome = %v", r.Outcome)
	}
}

func TestProbeAllAllFailuresStillComplete(t *testing.T) {
	var candidates []Candidate
	for i := 0; i < 5; i++ {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()
		candidates = append(candidates, Candidate{URL: url})
	}

	p := NewProber(nil, 2*time.Second, 3, probeTestPath, discardLogger())
	results := p.ProbeAll(context.Background(), candidates)

	if len(results) != len(candidates) {
		t.Fatalf("expected %d results even on total failure, got %d", len(candidates), len(results))
	}
	for _, r := range results {
		if r.Outcome == OutcomeSuccess {
			t.Errorf("closed server %s reported success", r.Candidate.URL)
		}
	}
}

func TestProbeTimeoutBounded(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer slow.Close()

	timeout := 200 * time.Millisecond
	p := NewProber(nil, timeout, 1, probeTestPath, discardLogger())

	start := time.Now()
	results := p.ProbeAll(context.Background(), []Candidate{{URL: slow.URL}})
	elapsed := time.Since(start)

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Outcome != OutcomeTimeout {
		t.Errorf("expected timeout outcome, got %v (%s)", results[0].Outcome, results[0].Err)
	}
	// Generous margin for scheduler noise; the point is it doesn't wait
	// for the server's full delay.
	if elapsed > timeout+time.Second {
		t.Errorf("probe took %v, exceeds timeout bound", elapsed)
	}
}

func TestProbeAllConcurrencyBounded(t *testing.T) {
	const workers = 3

	var inflight, peak, mu = 0, 0, make(chan struct{}, 1)
	mu <- struct{}{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-mu
		inflight++
		if inflight > peak {
			peak = inflight
		}
		mu <- struct{}{}

		time.Sleep(50 * time.Millisecond)

		<-mu
		inflight--
		mu <- struct{}{}

		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var candidates []Candidate
	for i := 0; i < 12; i++ {
		// Distinct identities pointing at the same test server.
		candidates = append(candidates, Candidate{URL: srv.URL + "/" + string(rune('a'+i))})
	}

	p := NewProber(nil, 5*time.Second, workers, probeTestPath, discardLogger())
	results := p.ProbeAll(context.Background(), candidates)

	if len(results) != len(candidates) {
		t.Fatalf("expected %d results, got %d", len(candidates), len(results))
	}
	if peak > workers {
		t.Errorf("observed %d concurrent probes, limit is %d", peak, workers)
	}
}

func TestProbeAllEmpty(t *testing.T) {
	p := NewProber(nil, time.Second, 2, probeTestPath, discardLogger())
	results := p.ProbeAll(context.Background(), nil)
	if len(results) != 0 {
		t.Fatalf("expected no results for empty input, got %d", len(results))
	}
}
