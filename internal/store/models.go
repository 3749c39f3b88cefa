package store

import "time"

// FetchRun records one execution of the mirror optimization pipeline.
type FetchRun struct {
	ID         int64
	StartTime  time.Time
	EndTime    time.Time
	Release    string
	Arch       string
	Candidates int
	Viable     int
	RepoFile   string
	Status     string // "success", "failed"
	ErrorMsg   string
}

// MirrorRecord is one probed mirror within a fetch run. Position is the
// 1-based rank for mirrors that made the final list, 0 for the rest.
type MirrorRecord struct {
	ID            int64
	RunID         int64
	URL           string
	Origin        string
	Outcome       string
	LatencyMs     int64
	ThroughputBps float64
	Score         float64
	Position      int
}
