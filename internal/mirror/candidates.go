package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/dnfast/dnfast/internal/safety"
)

// DefaultMetalinkBase is the Fedora metalink endpoint. The two verbs are
// release and architecture.
const DefaultMetalinkBase = "https://mirrors.fedoraproject.org/metalink?repo=fedora-%s&arch=%s"

const maxMetalinkResponseBytes int64 = 8 * 1024 * 1024

const userAgent = "dnfast/0.1"

// FallbackMirrors is the built-in mirror list used when the metalink
// service is unreachable and no mirrors are configured. Entries are distro
// roots; the release path is appended at probe time.
var FallbackMirrors = []string{
	"https://download.fedoraproject.org/pub/fedora/linux/",
	"https://mirror.karneval.cz/pub/linux/fedora/linux/",
	"https://ftp.halifax.rwth-aachen.de/fedora/linux/",
	"https://mirror.23m.com/fedora/linux/",
	"https://fedora.ip-connect.info/",
	"https://mirror.init7.net/fedora/",
	"https://mirror.netcologne.de/fedora/linux/",
	"https://ftp.fau.de/fedora/linux/",
	"http://ftp.nluug.nl/pub/os/Linux/distr/fedora/",
}

// Loader builds the candidate mirror set for one fetch run. It merges
// metalink-discovered mirrors with user-configured extras and the built-in
// fallback list, normalizes every URL, and deduplicates by normalized form.
type Loader struct {
	client       *http.Client
	logger       *slog.Logger
	metalinkBase string
	extra        []string
}

// NewLoader creates a Loader. metalinkBase may be empty to skip metalink
// discovery entirely (configured and fallback mirrors only).
func NewLoader(client *http.Client, metalinkBase string, extra []string, logger *slog.Logger) *Loader {
	if client == nil {
		client = safety.NewHTTPClient(0)
	}
	return &Loader{
		client:       client,
		logger:       logger,
		metalinkBase: metalinkBase,
		extra:        extra,
	}
}

// LoadCandidates returns the deduplicated candidate set for the given
// release and architecture. A metalink failure is logged and degrades to
// configured plus fallback mirrors; ErrNoCandidates is returned only when
// the merged set is empty.
func (l *Loader) LoadCandidates(ctx context.Context, release, arch string) ([]Candidate, error) {
	var candidates []Candidate
	seen := make(map[string]bool)

	add := func(raw string, origin Origin) {
		normalized, err := NormalizeURL(raw)
		if err != nil {
			l.logger.Warn("skipping invalid mirror URL", "url", raw, "origin", origin.String(), "error", err)
			return
		}
		if seen[normalized] {
			return
		}
		seen[normalized] = true
		candidates = append(candidates, Candidate{URL: normalized, Origin: origin})
	}

	if l.metalinkBase != "" {
		discovered, err := l.fetchMetalinkMirrors(ctx, release, arch)
		if err != nil {
			l.logger.Warn("metalink discovery failed, falling back to static mirrors", "error", err)
		}
		for _, m := range discovered {
			add(trimReleasePath(m.URL, release, arch), OriginMetalink)
		}
	}

	for _, m := range l.extra {
		add(m, OriginConfigured)
	}

	for _, m := range FallbackMirrors {
		add(m, OriginFallback)
	}

	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	l.logger.Info("loaded mirror candidates", "count", len(candidates), "release", release, "arch", arch)
	return candidates, nil
}

// fetchMetalinkMirrors downloads and parses the metalink document for the
// given release and architecture.
func (l *Loader) fetchMetalinkMirrors(ctx context.Context, release, arch string) ([]metalinkMirror, error) {
	target := fmt.Sprintf(l.metalinkBase, release, arch)
	if _, err := safety.ValidateHTTPURL(target); err != nil {
		return nil, fmt.Errorf("invalid metalink URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, target)
	}

	body, err := safety.ReadAllWithLimit(resp.Body, maxMetalinkResponseBytes)
	if err != nil {
		if errors.Is(err, safety.ErrBodyTooLarge) {
			return nil, fmt.Errorf("metalink response exceeded %d bytes: %w", maxMetalinkResponseBytes, err)
		}
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	mirrors, err := parseMetalink(body)
	if err != nil {
		return nil, fmt.Errorf("parsing metalink: %w", err)
	}
	return mirrors, nil
}

// NormalizeURL canonicalizes a mirror URL: scheme and host lowercased,
// default ports stripped, query/fragment dropped, trailing slashes removed.
// Two spellings of the same mirror normalize to the same string.
func NormalizeURL(raw string) (string, error) {
	u, err := safety.ValidateHTTPURL(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	if scheme == "http" {
		host = strings.TrimSuffix(host, ":80")
	} else if scheme == "https" {
		host = strings.TrimSuffix(host, ":443")
	}

	path := strings.TrimRight(u.EscapedPath(), "/")
	return scheme + "://" + host + path, nil
}

// trimReleasePath strips the release-specific repository path that metalink
// URLs carry, leaving the mirror's distro root so all candidates share one
// shape. URLs without the expected suffix are returned unchanged.
func trimReleasePath(raw, release, arch string) string {
	suffix := fmt.Sprintf("/releases/%s/Everything/%s/os", release, arch)
	trimmed := strings.TrimSuffix(strings.TrimRight(raw, "/"), suffix)
	return trimmed
}

// ReleasePath returns the repository path for a release/arch pair, relative
// to a mirror's distro root.
func ReleasePath(release, arch string) string {
	return fmt.Sprintf("releases/%s/Everything/%s/os", release, arch)
}

// ProbePath returns the well-known small object fetched by the probe
// engine, relative to a mirror's distro root. template may contain
// {release} and {arch} placeholders; empty means the default repomd.xml
// location.
func ProbePath(template, release, arch string) string {
	if template == "" {
		return ReleasePath(release, arch) + "/repodata/repomd.xml"
	}
	s := strings.ReplaceAll(template, "{release}", release)
	s = strings.ReplaceAll(s, "{arch}", arch)
	return strings.TrimLeft(s, "/")
}

// hostOf extracts the host portion of a mirror URL for display.
func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
