package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/auracli/aura/internal/api"
	"github.com/auracli/aura/internal/catalog"
	"github.com/auracli/aura/internal/config"
	"github.com/auracli/aura/internal/domain"
	"github.com/auracli/aura/internal/log"
	"github.com/auracli/aura/internal/store"
	"github.com/spf13/cobra"
)

// Exit codes
const (
	exitGeneric       = 1
	exitInvalidConfig = 2
	exitNotConfigured = 3
)

var (
	jsonOutput  bool
	plainOutput bool
	quietMode   bool
	verbose     bool
	noCache     bool
	noInput     bool
	configDir   string
	serverFlag  string
	timeout     time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "aura",
	Short:         "Browse and cache your media server libraries from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       Version,
	RunE:          runBrowse,
}

// Execute runs the root command and exits with the mapped status code
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		handleError(err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&plainOutput, "plain", false, "Plain text output, even on a terminal")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Also log to stderr")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Keep the section cache in memory only")
	rootCmd.PersistentFlags().BoolVar(&noInput, "no-input", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Config directory (default: ~/.config/aura)")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Override the aura server URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "API request timeout (default from config)")

	cobra.OnInitialize(func() {
		if jsonOutput && plainOutput {
			plainOutput = false
		}
	})
}

// ExitError carries the process exit code for err
type ExitError struct {
	Code int
	Err  error
}

func (e ExitError) Error() string {
	return e.Err.Error()
}

func (e ExitError) Unwrap() error {
	return e.Err
}

func exitError(code int, err error) error {
	return ExitError{Code: code, Err: err}
}

// exitCode maps err to a process exit status
func exitCode(err error) int {
	var exit ExitError
	switch {
	case errors.As(err, &exit):
		return exit.Code
	case errors.Is(err, domain.ErrNotConfigured), errors.Is(err, domain.ErrAuthFailed):
		return exitNotConfigured
	default:
		return exitGeneric
	}
}

func handleError(err error) {
	printError("Error: %v\n", err)
	os.Exit(exitCode(err))
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printInfo(format string, args ...any) {
	if !quietMode {
		fmt.Printf(format, args...)
	}
}

func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
}

func resolveConfigDir() string {
	if configDir != "" {
		return configDir
	}
	return config.DefaultConfigPath()
}

// loadConfig reads and validates the configuration. A newly generated client
// id is the only value written back to disk.
func loadConfig() (*config.Config, error) {
	dir := resolveConfigDir()
	cfg, err := config.LoadConfigFrom(dir, ".")
	if err != nil {
		return nil, exitError(exitInvalidConfig, err)
	}
	if cfg.EnsureClientID() {
		if err := config.PersistClientID(dir, cfg.Server.ClientID); err != nil {
			return nil, err
		}
	}

	if serverFlag != "" {
		cfg.Server.URL = serverFlag
	}
	if timeout > 0 {
		cfg.Fetch.Timeout = timeout
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, exitError(exitInvalidConfig, err)
	}
	return cfg, nil
}

// setupLogger opens the log file, falling back to a null logger.
// The stderr copy for -v is skipped while a TUI owns the terminal.
func setupLogger(cfg *config.Config, interactive bool) (*slog.Logger, func()) {
	logger, closer, err := log.SetupLogger(cfg.Logging)
	cleanup := func() {}
	if err != nil {
		logger = log.NullLogger()
	} else {
		cleanup = func() { closer.Close() }
	}
	if verbose && !interactive {
		logger = log.Verbose(logger)
	}
	slog.SetDefault(logger)
	return logger, cleanup
}

// app holds the wired ingestion pipeline for one command run
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	client *api.Client
	cache  *store.SectionStore
	loader *catalog.Loader
	close  func()
}

// newApp loads the configuration and wires client, cache and loader.
// Set interactive when a TUI will own the terminal. Callers must call close.
func newApp(requireServer, interactive bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, closeLog := setupLogger(cfg, interactive)

	if requireServer && !cfg.IsConfigured() {
		closeLog()
		return nil, exitError(exitNotConfigured,
			fmt.Errorf("%w: run `aura` on a terminal or set AURA_SERVER_URL", domain.ErrNotConfigured))
	}

	cache, err := openCache(cfg, logger)
	if err != nil {
		closeLog()
		return nil, err
	}

	client := api.NewClient(cfg.Server.URL, cfg.Server.Token, cfg.Server.ClientID, api.Options{
		Timeout:           cfg.Fetch.Timeout,
		RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
	}, logger)

	loader := catalog.NewLoader(client, cache, catalog.NewState(), catalog.Options{
		PageSize:      cfg.Fetch.PageSize,
		Concurrency:   cfg.Fetch.Concurrency,
		CacheDuration: cfg.Cache.Duration,
	}, logger)

	return &app{
		cfg:    cfg,
		logger: logger,
		client: client,
		cache:  cache,
		loader: loader,
		close: func() {
			cache.Close()
			closeLog()
		},
	}, nil
}

// openCache opens the persistent section cache. When the database cannot be
// opened (another aura process holds its lock, or the disk fails) the run
// continues on a memory-only cache, so every load is a cache miss.
func openCache(cfg *config.Config, logger *slog.Logger) (*store.SectionStore, error) {
	cache, err := store.NewSectionStore(cfg.CacheDir(), cfg.Server.URL, logger)
	if err == nil {
		return cache, nil
	}
	logger.Warn("cache unavailable, continuing without persistence", "error", err, "dir", cfg.CacheDir())
	if !quietMode {
		printError("warning: cache unavailable, fetching from the server: %v\n", err)
	}
	return store.NewSectionStore("", cfg.Server.URL, logger)
}
