package mirror

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	reportTitleStyle  = lipgloss.NewStyle().Bold(true)
	reportHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	outcomeOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	outcomeBadStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	rankStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	dimStyle          = lipgloss.NewStyle().Faint(true)
)

// RenderReport formats probe results and the final ranked order as a
// human-readable, colorized table.
func RenderReport(results []ProbeResult, ranked []RankedMirror) string {
	var b strings.Builder

	b.WriteString(reportTitleStyle.Render("Mirror probe results"))
	b.WriteString("\n\n")

	hostWidth := len("MIRROR")
	for _, r := range results {
		if w := len(hostOf(r.Candidate.URL)); w > hostWidth {
			hostWidth = w
		}
	}

	header := fmt.Sprintf("%-*s  %-10s  %-16s  %8s  %12s", hostWidth, "MIRROR", "ORIGIN", "OUTCOME", "LATENCY", "SPEED")
	b.WriteString(reportHeaderStyle.Render(header))
	b.WriteString("\n")

	for _, r := range results {
		outcome := fmt.Sprintf("%-16s", outcomeLabel(r))
		if r.Outcome == OutcomeSuccess {
			outcome = outcomeOKStyle.Render(outcome)
		} else {
			outcome = outcomeBadStyle.Render(outcome)
		}

		latency := "-"
		throughput := "-"
		if r.Outcome == OutcomeSuccess {
			latency = fmt.Sprintf("%d ms", r.Latency.Milliseconds())
			throughput = formatRate(r.ThroughputBps)
		}

		fmt.Fprintf(&b, "%-*s  %-10s  %s  %8s  %12s\n",
			hostWidth, hostOf(r.Candidate.URL),
			r.Candidate.Origin.String(),
			outcome,
			latency,
			throughput,
		)
	}

	b.WriteString("\n")
	b.WriteString(reportTitleStyle.Render("Ranked mirrors (best first)"))
	b.WriteString("\n\n")

	for i, m := range ranked {
		fmt.Fprintf(&b, "%s %s %s\n",
			rankStyle.Render(fmt.Sprintf("%2d.", i+1)),
			m.Candidate.URL,
			dimStyle.Render(fmt.Sprintf("(score %.0f, %d ms, %s)",
				m.Score, m.Result.Latency.Milliseconds(), formatRate(m.Result.ThroughputBps))),
		)
	}

	return b.String()
}

func outcomeLabel(r ProbeResult) string {
	if r.Outcome == OutcomeHTTPError {
		return fmt.Sprintf("http %d", r.StatusCode)
	}
	return r.Outcome.String()
}

func formatRate(bps float64) string {
	if bps <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(bps)) + "/s"
}
