package main

import (
	"fmt"
	"io"
	"time"

	"github.com/auracli/aura/internal/catalog"
	"github.com/auracli/aura/internal/domain"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the section cache",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show cached sections and whether the cache is usable",
	Args:  cobra.NoArgs,
	RunE:  runCacheInfo,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached section",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheInfoCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

type cacheEntry struct {
	Title    string    `json:"title"`
	Items    int       `json:"items"`
	CachedAt time.Time `json:"cached_at"`
	Age      string    `json:"age"`
	Fresh    bool      `json:"fresh"`
}

type cacheReport struct {
	Path     string       `json:"path,omitempty"`
	Duration string       `json:"duration"`
	Usable   bool         `json:"usable"`
	Entries  []cacheEntry `json:"entries"`
}

func runCacheInfo(cmd *cobra.Command, args []string) error {
	a, err := newApp(false, false)
	if err != nil {
		return err
	}
	defer a.close()

	envs, err := a.cache.GetAll()
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	report := buildCacheReport(envs, time.Now(), a.cfg.Cache.Duration)
	report.Path = a.cache.Path()

	if jsonOutput {
		return outputJSON(cmd.OutOrStdout(), report)
	}
	renderCacheReport(cmd.OutOrStdout(), report)
	return nil
}

func buildCacheReport(envs []domain.CacheEnvelope, now time.Time, duration time.Duration) cacheReport {
	report := cacheReport{
		Duration: duration.String(),
		Usable:   catalog.AllValid(envs, now, duration),
		Entries:  make([]cacheEntry, 0, len(envs)),
	}
	for _, env := range envs {
		report.Entries = append(report.Entries, cacheEntry{
			Title:    env.Data.Title,
			Items:    len(env.Data.MediaItems),
			CachedAt: time.UnixMilli(env.Timestamp),
			Age:      env.Age(now).Round(time.Second).String(),
			Fresh:    catalog.IsValid(env, now, duration),
		})
	}
	return report
}

func renderCacheReport(w io.Writer, r cacheReport) {
	if r.Path == "" {
		fmt.Fprintln(w, "cache: memory only")
	} else {
		fmt.Fprintf(w, "cache: %s\n", r.Path)
	}
	if len(r.Entries) == 0 {
		fmt.Fprintln(w, "no cached sections")
		return
	}
	for _, e := range r.Entries {
		state := "fresh"
		if !e.Fresh {
			state = "stale"
		}
		fmt.Fprintf(w, "%s\t%d items\t%s old\t%s\n", e.Title, e.Items, e.Age, state)
	}
	if r.Usable {
		fmt.Fprintf(w, "usable: every section is younger than %s\n", r.Duration)
	} else {
		fmt.Fprintln(w, "stale: the next browse fetches every section")
	}
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	a, err := newApp(false, false)
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.CacheDir() != "" && a.cache.Path() == "" {
		return fmt.Errorf("cache in %s is in use by another aura process", a.cfg.CacheDir())
	}
	if err := a.cache.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	a.logger.Info("cache cleared", "path", a.cache.Path())
	printInfo("Cache cleared\n")
	return nil
}
