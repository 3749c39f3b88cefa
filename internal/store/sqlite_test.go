package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRun() *FetchRun {
	start := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	return &FetchRun{
		StartTime:  start,
		EndTime:    start.Add(4 * time.Second),
		Release:    "42",
		Arch:       "x86_64",
		Candidates: 12,
		Viable:     5,
		RepoFile:   "/etc/yum.repos.d/dnfast-fastmirrors.repo",
		Status:     "success",
	}
}

func TestCreateFetchRun(t *testing.T) {
	s := newTestStore(t)

	run := sampleRun()
	require.NoError(t, s.CreateFetchRun(run))
	require.NotZero(t, run.ID)

	got, err := s.LatestFetchRun()
	require.NoError(t, err)
	require.Equal(t, run.ID, got.ID)
	require.Equal(t, "42", got.Release)
	require.Equal(t, "x86_64", got.Arch)
	require.Equal(t, 12, got.Candidates)
	require.Equal(t, 5, got.Viable)
	require.Equal(t, "success", got.Status)
}

func TestUpdateFetchRun(t *testing.T) {
	s := newTestStore(t)

	run := sampleRun()
	require.NoError(t, s.CreateFetchRun(run))

	run.Status = "failed"
	run.ErrorMsg = "no mirrors met the quality thresholds"
	run.Viable = 0
	require.NoError(t, s.UpdateFetchRun(run))

	got, err := s.LatestFetchRun()
	require.NoError(t, err)
	require.Equal(t, "failed", got.Status)
	require.Equal(t, "no mirrors met the quality thresholds", got.ErrorMsg)
	require.Equal(t, 0, got.Viable)
}

func TestUpdateFetchRunNotFound(t *testing.T) {
	s := newTestStore(t)

	run := sampleRun()
	run.ID = 9999
	err := s.UpdateFetchRun(run)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestLatestFetchRunEmpty(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LatestFetchRun()
	require.ErrorIs(t, err, ErrNoRuns)
}

func TestLatestFetchRunPicksNewest(t *testing.T) {
	s := newTestStore(t)

	first := sampleRun()
	require.NoError(t, s.CreateFetchRun(first))

	second := sampleRun()
	second.Release = "43"
	require.NoError(t, s.CreateFetchRun(second))

	got, err := s.LatestFetchRun()
	require.NoError(t, err)
	require.Equal(t, second.ID, got.ID)
	require.Equal(t, "43", got.Release)
}

func TestMirrorRecordsForRun(t *testing.T) {
	s := newTestStore(t)

	run := sampleRun()
	require.NoError(t, s.CreateFetchRun(run))

	records := []MirrorRecord{
		{URL: "https://z-unranked.example/fedora", Origin: "fallback", Outcome: "timeout"},
		{URL: "https://second.example/fedora", Origin: "metalink", Outcome: "success", LatencyMs: 120, ThroughputBps: 2 << 20, Score: 1871000, Position: 2},
		{URL: "https://a-unranked.example/fedora", Origin: "configured", Outcome: "http 503"},
		{URL: "https://first.example/fedora", Origin: "metalink", Outcome: "success", LatencyMs: 40, ThroughputBps: 8 << 20, Score: 8065970, Position: 1},
	}
	require.NoError(t, s.AddMirrorRecords(run.ID, records))

	got, err := s.MirrorRecordsForRun(run.ID)
	require.NoError(t, err)
	require.Len(t, got, 4)

	// Ranked mirrors come first in rank order, then unranked by URL.
	require.Equal(t, "https://first.example/fedora", got[0].URL)
	require.Equal(t, 1, got[0].Position)
	require.Equal(t, "https://second.example/fedora", got[1].URL)
	require.Equal(t, 2, got[1].Position)
	require.Equal(t, "https://a-unranked.example/fedora", got[2].URL)
	require.Equal(t, "https://z-unranked.example/fedora", got[3].URL)

	require.Equal(t, run.ID, got[0].RunID)
	require.Equal(t, int64(40), got[0].LatencyMs)
	require.InDelta(t, float64(8<<20), got[0].ThroughputBps, 0.1)
}

func TestAddMirrorRecordsDuplicateURL(t *testing.T) {
	s := newTestStore(t)

	run := sampleRun()
	require.NoError(t, s.CreateFetchRun(run))

	records := []MirrorRecord{
		{URL: "https://dup.example/fedora", Origin: "metalink", Outcome: "success"},
		{URL: "https://dup.example/fedora", Origin: "fallback", Outcome: "success"},
	}
	err := s.AddMirrorRecords(run.ID, records)
	require.Error(t, err, "duplicate URLs within a run must be rejected")

	// The failed transaction must not leave partial rows behind.
	got, err := s.MirrorRecordsForRun(run.ID)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMirrorRecordsForRunScopedByRun(t *testing.T) {
	s := newTestStore(t)

	first := sampleRun()
	require.NoError(t, s.CreateFetchRun(first))
	second := sampleRun()
	require.NoError(t, s.CreateFetchRun(second))

	require.NoError(t, s.AddMirrorRecords(first.ID, []MirrorRecord{
		{URL: "https://only-first.example/fedora", Origin: "metalink", Outcome: "success", Position: 1},
	}))

	got, err := s.MirrorRecordsForRun(second.ID)
	require.NoError(t, err)
	require.Empty(t, got)
}
