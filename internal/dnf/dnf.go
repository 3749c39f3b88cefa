// Package dnf shells out to the system package manager for read-only
// queries. It never runs a transaction: installs, removals, and upgrades
// stay dnf's job.
package dnf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Package is one entry from a dnf query.
type Package struct {
	Name    string `json:"name"`
	Arch    string `json:"arch"`
	Version string `json:"version"`
	Repo    string `json:"repo,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// Info is the detailed view of a single package.
type Info struct {
	Package
	Description string `json:"description,omitempty"`
	License     string `json:"license,omitempty"`
	Size        string `json:"size,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Client runs dnf queries.
type Client struct {
	bin    string
	logger *slog.Logger
}

// NewClient creates a dnf client. bin may be empty for the default binary.
func NewClient(bin string, logger *slog.Logger) *Client {
	if bin == "" {
		bin = "dnf"
	}
	return &Client{bin: bin, logger: logger}
}

// run executes the dnf binary with quiet, uncolored output and returns
// stdout. A non-zero exit includes stderr in the error.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	path, err := exec.LookPath(c.bin)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH: %w", c.bin, err)
	}

	full := append([]string{"-q", "--color=never"}, args...)
	cmd := exec.CommandContext(ctx, path, full...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug("running dnf", "args", full)
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("%s %s: %w", c.bin, strings.Join(args, " "), err)
		}
		return "", fmt.Errorf("%s %s: %s: %w", c.bin, strings.Join(args, " "), msg, err)
	}

	return stdout.String(), nil
}

// Search queries available packages matching term.
func (c *Client) Search(ctx context.Context, term string) ([]Package, error) {
	out, err := c.run(ctx, "search", term)
	if err != nil {
		return nil, err
	}
	return parseSearch(out), nil
}

// Info returns details for a single package by name.
func (c *Client) Info(ctx context.Context, name string) (*Info, error) {
	out, err := c.run(ctx, "info", name)
	if err != nil {
		return nil, err
	}
	info := parseInfo(out)
	if info.Name == "" {
		return nil, fmt.Errorf("package %q not found", name)
	}
	return info, nil
}

// List returns installed or available packages.
func (c *Client) List(ctx context.Context, installed bool) ([]Package, error) {
	scope := "--available"
	if installed {
		scope = "--installed"
	}
	out, err := c.run(ctx, "list", scope)
	if err != nil {
		return nil, err
	}
	return parseList(out), nil
}

// parseSearch reads "name.arch : summary" lines, skipping the section
// banners dnf prints between match groups.
func parseSearch(out string) []Package {
	var pkgs []Package
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "=") {
			continue
		}
		nameArch, summary, found := strings.Cut(line, " : ")
		if !found {
			continue
		}
		name, arch := splitNameArch(strings.TrimSpace(nameArch))
		pkgs = append(pkgs, Package{
			Name:    name,
			Arch:    arch,
			Summary: strings.TrimSpace(summary),
		})
	}
	return pkgs
}

// parseInfo reads "Key : Value" lines; indented continuation lines extend
// the description.
func parseInfo(out string) *Info {
	info := &Info{}
	var lastKey string
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		trimmedKey := strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if trimmedKey == "" {
			// Continuation of the previous multi-line value.
			if lastKey == "description" && value != "" {
				info.Description += " " + value
			}
			continue
		}

		switch strings.ToLower(trimmedKey) {
		case "name":
			info.Name = value
		case "version":
			info.Version = value
		case "release":
			if info.Version != "" && value != "" {
				info.Version += "-" + value
			}
		case "architecture":
			info.Arch = value
		case "size":
			info.Size = value
		case "repository", "from repo":
			info.Repo = value
		case "summary":
			info.Summary = value
		case "url":
			info.URL = value
		case "license":
			info.License = value
		case "description":
			info.Description = value
		}
		lastKey = strings.ToLower(trimmedKey)
	}
	return info
}

// parseList reads dnf list's three-column output.
func parseList(out string) []Package {
	var pkgs []Package
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasSuffix(line, "Packages") || strings.HasPrefix(line, "Last metadata") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		name, arch := splitNameArch(fields[0])
		pkgs = append(pkgs, Package{
			Name:    name,
			Arch:    arch,
			Version: fields[1],
			Repo:    fields[2],
		})
	}
	return pkgs
}

// splitNameArch splits "curl.x86_64" on the final dot. Package names may
// themselves contain dots.
func splitNameArch(s string) (string, string) {
	idx := strings.LastIndex(s, ".")
	if idx <= 0 || idx == len(s)-1 {
		return s, ""
	}
	return s[:idx], s[idx+1:]
}
