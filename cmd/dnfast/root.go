package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dnfast/dnfast/internal/config"
	"github.com/dnfast/dnfast/internal/dnf"
	"github.com/dnfast/dnfast/internal/store"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgPath   string
	logLevel  string
	logFormat string
	quiet     bool
	globalCfg *config.Config
	logger    *slog.Logger

	// Global components
	globalStore *store.Store
	globalDNF   *dnf.Client
)

const defaultDBPath = "/var/lib/dnfast/dnfast.db"

// initializeComponents initializes the dnf client and, for commands that
// record or read fetch runs, the store. A store that cannot be opened is a
// warning, not a failure: fetch still works, it just isn't recorded.
func initializeComponents(cmdName string) error {
	if globalCfg == nil {
		return fmt.Errorf("config not loaded")
	}

	globalDNF = dnf.NewClient(globalCfg.DNF.Binary, logger)

	if !commandNeedsStore(cmdName) {
		return nil
	}

	dbPath := globalCfg.Store.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		logger.Warn("cannot create store directory, fetch runs will not be recorded", "path", dbPath, "error", err)
		return nil
	}
	st, err := store.New(dbPath, logger)
	if err != nil {
		logger.Warn("cannot open store, fetch runs will not be recorded", "path", dbPath, "error", err)
		return nil
	}
	globalStore = st

	return nil
}

// commandNeedsStore reports whether a command touches fetch run records
func commandNeedsStore(cmdName string) bool {
	needsStore := map[string]bool{
		"fetch":  true,
		"status": true,
	}
	return needsStore[cmdName]
}

// closeStore closes the global store connection
func closeStore() {
	if globalStore != nil {
		if err := globalStore.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dnfast",
		Short: "A friendlier frontend for DNF with fast mirror selection",
		Long: `dnfast is a colorized command-line frontend for the DNF package manager.
Its fetch command probes Fedora mirrors for latency and throughput, ranks
them, and writes the fastest ones into a yum repo configuration file.
Package queries (search, info, list) are delegated read-only to dnf;
installs, removals, and upgrades remain dnf's job.`,
		Example: `  dnfast fetch
  dnfast fetch --dry-run --max-mirrors 3
  dnfast search curl
  dnfast info curl
  dnfast list --installed
  dnfast status`,
		Version: "0.1.0",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()

			if shouldSkipConfig(cmd.Name()) {
				return nil
			}

			if cfgPath == "" {
				var err error
				cfgPath, err = config.FindConfigFile()
				if err != nil {
					logger.Debug("config file not found, using defaults", "error", err)
				}
			}

			if cfgPath != "" {
				var err error
				globalCfg, err = config.Load(cfgPath)
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
			} else {
				globalCfg = config.DefaultConfig()
			}

			if !quiet {
				logger.Debug("config loaded", "path", cfgPath)
			}

			if err := initializeComponents(cmd.Name()); err != nil {
				return fmt.Errorf("failed to initialize components: %w", err)
			}

			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeStore()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (auto-discovered if not specified)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text or json)")
	cmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress non-error output")

	cmd.AddCommand(
		newFetchCmd(),
		newSearchCmd(),
		newInfoCmd(),
		newListCmd(),
		newStatusCmd(),
		newConfigCmd(),
	)

	return cmd
}

// setupLogging initializes the slog logger based on flags
func setupLogging() {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	if quiet {
		level = slog.LevelError
	}

	var handler slog.Handler
	if strings.ToLower(logFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// shouldSkipConfig checks if a command should skip config loading
func shouldSkipConfig(cmdName string) bool {
	skipConfigCmds := map[string]bool{
		"help":    true,
		"version": true,
	}
	return skipConfigCmds[cmdName]
}
