package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dnfast/dnfast/internal/mirror"
	"github.com/dnfast/dnfast/internal/safety"
)

// Config is the top-level configuration. It is built once at startup and
// passed explicitly into the components that need it; nothing reads
// configuration through globals.
type Config struct {
	Mirrors MirrorsConfig `yaml:"mirrors"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Store   StoreConfig   `yaml:"store"`
	DNF     DNFConfig     `yaml:"dnf"`
}

// MirrorsConfig holds mirror source settings
type MirrorsConfig struct {
	// MetalinkBase is the metalink endpoint template; empty disables
	// metalink discovery.
	MetalinkBase string `yaml:"metalink_base"`
	// Release overrides Fedora release detection (e.g. "42").
	Release string `yaml:"release"`
	Arch    string `yaml:"arch"`
	// Extra lists user-supplied mirror base URLs merged into the
	// candidate set.
	Extra []string `yaml:"extra"`
	// RepoFile is the repository configuration file owned by dnfast.
	RepoFile string `yaml:"repo_file"`
	// TestFile is the probe object path relative to a mirror base;
	// {release} and {arch} placeholders are expanded.
	TestFile string `yaml:"test_file"`
}

// FetchConfig holds probe and ranking settings
type FetchConfig struct {
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	Concurrency       int     `yaml:"concurrency"`
	MaxMirrors        int     `yaml:"max_mirrors"`
	MinThroughputKBps float64 `yaml:"min_throughput_kbps"`
	MaxLatencyMs      int     `yaml:"max_latency_ms"`
}

// StoreConfig holds fetch-run record settings
type StoreConfig struct {
	DBPath string `yaml:"db_path"`
}

// DNFConfig holds backend package manager settings
type DNFConfig struct {
	Binary string `yaml:"binary"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mirrors: MirrorsConfig{
			MetalinkBase: mirror.DefaultMetalinkBase,
			Arch:         "x86_64",
			RepoFile:     mirror.DefaultRepoFilePath,
		},
		Fetch: FetchConfig{
			TimeoutSeconds:    10,
			Concurrency:       10,
			MaxMirrors:        5,
			MinThroughputKBps: 100,
			MaxLatencyMs:      2000,
		},
		Store: StoreConfig{
			DBPath: "",
		},
		DNF: DNFConfig{
			Binary: "dnf",
		},
	}
}

// Load reads a config file from the given path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() (string, error) {
	searchPaths := []string{
		"dnfast.yaml",
		"/etc/dnfast/dnfast.yaml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths,
			filepath.Join(home, ".config", "dnfast", "dnfast.yaml"),
		)
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", searchPaths)
}

// Validate checks values a bad config file could break the pipeline with.
func (c *Config) Validate() error {
	if c.Mirrors.RepoFile == "" {
		return fmt.Errorf("mirrors.repo_file must not be empty")
	}
	if c.Mirrors.TestFile != "" {
		if _, err := safety.CleanRelativePath(c.Mirrors.TestFile); err != nil {
			return fmt.Errorf("mirrors.test_file: %w", err)
		}
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be positive")
	}
	if c.Fetch.Concurrency <= 0 {
		return fmt.Errorf("fetch.concurrency must be positive")
	}
	if c.Fetch.MinThroughputKBps < 0 {
		return fmt.Errorf("fetch.min_throughput_kbps must not be negative")
	}
	if c.Fetch.MaxLatencyMs < 0 {
		return fmt.Errorf("fetch.max_latency_ms must not be negative")
	}
	return nil
}

// ProbeTimeout returns the per-probe time limit.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// Thresholds returns the ranking acceptance criteria.
func (c *Config) Thresholds() mirror.Thresholds {
	return mirror.Thresholds{
		MinThroughputBps: c.Fetch.MinThroughputKBps * 1024,
		MaxLatency:       time.Duration(c.Fetch.MaxLatencyMs) * time.Millisecond,
		MaxMirrors:       c.Fetch.MaxMirrors,
	}
}
