package mirror

import "time"

// Origin identifies where a candidate mirror came from.
type Origin int

const (
	// OriginMetalink marks mirrors discovered from the Fedora metalink service.
	OriginMetalink Origin = iota
	// OriginConfigured marks mirrors supplied by the user's configuration.
	OriginConfigured
	// OriginFallback marks mirrors from the built-in fallback list.
	OriginFallback
)

func (o Origin) String() string {
	switch o {
	case OriginMetalink:
		return "metalink"
	case OriginConfigured:
		return "configured"
	case OriginFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Candidate is a single mirror to be probed. URL is the normalized mirror
// base (no trailing slash) and serves as the candidate's identity: the
// loader deduplicates by it before any probing happens.
type Candidate struct {
	URL    string `json:"url"`
	Origin Origin `json:"origin"`
}

// Outcome classifies how a single mirror probe ended.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeTimeout
	OutcomeConnError
	OutcomeHTTPError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeConnError:
		return "connection error"
	case OutcomeHTTPError:
		return "http error"
	default:
		return "unknown"
	}
}

// ProbeResult holds the measured outcome of probing one candidate. The probe
// engine produces exactly one per input candidate; failures are recorded
// here rather than returned as errors. Latency and ThroughputBps are only
// meaningful when Outcome is OutcomeSuccess.
type ProbeResult struct {
	Candidate     Candidate     `json:"candidate"`
	Outcome       Outcome       `json:"outcome"`
	StatusCode    int           `json:"status_code,omitempty"`
	Latency       time.Duration `json:"latency"`
	ThroughputBps float64       `json:"throughput_bps"`
	Err           string        `json:"error,omitempty"`
}

// RankedMirror is a surviving candidate annotated with its score.
type RankedMirror struct {
	Candidate Candidate   `json:"candidate"`
	Result    ProbeResult `json:"result"`
	Score     float64     `json:"score"`
}
