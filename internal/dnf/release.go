package dnf

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

const fedoraReleaseFile = "/etc/fedora-release"

// fallbackRelease is used when neither the release file nor rpm can tell
// us the running Fedora version.
const fallbackRelease = "40"

var releasePattern = regexp.MustCompile(`Fedora\D*(\d+)`)

// DetectRelease determines the running Fedora release number. It reads
// /etc/fedora-release first, falls back to querying rpm, and finally to a
// hardcoded default so mirror probing can still proceed.
func DetectRelease(ctx context.Context, logger *slog.Logger) string {
	if data, err := os.ReadFile(fedoraReleaseFile); err == nil {
		if m := releasePattern.FindSubmatch(data); m != nil {
			return string(m[1])
		}
	}

	if path, err := exec.LookPath("rpm"); err == nil {
		cmd := exec.CommandContext(ctx, path, "-q", "--queryformat", "%{VERSION}", "fedora-release")
		var stdout bytes.Buffer
		cmd.Stdout = &stdout
		if err := cmd.Run(); err == nil {
			if v := strings.TrimSpace(stdout.String()); v != "" {
				return v
			}
		}
	}

	logger.Warn("could not detect Fedora release, using fallback", "release", fallbackRelease)
	return fallbackRelease
}
