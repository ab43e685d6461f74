package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/auracli/aura/internal/catalog"
	"github.com/auracli/aura/internal/domain"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var syncSchedule string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch every library section and refresh the cache",
	Long: `Fetch every library section from the server, bypassing the cache, and
store the results so the next browse starts from a fresh cache.

With --schedule the sync repeats on a cron schedule until interrupted, for
example --schedule "@every 6h" or --schedule "0 4 * * *".`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncSchedule, "schedule", "", "Cron expression to repeat the sync on")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	var sched cron.Schedule
	if syncSchedule != "" {
		var err error
		if sched, err = cron.ParseStandard(syncSchedule); err != nil {
			return exitError(exitInvalidConfig, fmt.Errorf("invalid --schedule: %w", err))
		}
	}

	a, err := newApp(true, false)
	if err != nil {
		return err
	}
	defer a.close()

	if !quietMode && !jsonOutput {
		a.loader.SetObserver(progressPrinter(cmd.ErrOrStderr()))
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if sched == nil {
		return syncOnce(ctx, a, out)
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(sched, cron.FuncJob(func() {
		if err := syncOnce(ctx, a, out); err != nil && ctx.Err() == nil {
			a.logger.Error("scheduled sync failed", "error", err)
			printError("sync failed: %v\n", err)
		}
	}))

	if err := syncOnce(ctx, a, out); err != nil && ctx.Err() == nil {
		printError("sync failed: %v\n", err)
	}

	a.logger.Info("sync scheduled", "schedule", syncSchedule)
	printInfo("Next sync at %s\n", sched.Next(time.Now()).Format(time.RFC1123))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	a.logger.Info("sync scheduler stopped")
	return nil
}

type sectionSummary struct {
	Title      string `json:"title"`
	Items      int    `json:"items"`
	TotalSize  int    `json:"total_size"`
	Incomplete bool   `json:"incomplete,omitempty"`
	Error      string `json:"error,omitempty"`
}

type syncSummary struct {
	Started  time.Time        `json:"started"`
	Duration string           `json:"duration"`
	Sections []sectionSummary `json:"sections"`
}

// syncOnce refreshes every section and prints a per-section summary
func syncOnce(ctx context.Context, a *app, w io.Writer) error {
	start := time.Now()
	if err := a.loader.Refresh(ctx); err != nil {
		return err
	}

	summary := summarize(a.loader.State().Sections())
	summary.Started = start
	summary.Duration = time.Since(start).Round(time.Millisecond).String()

	incomplete := 0
	for _, s := range summary.Sections {
		if s.Incomplete {
			incomplete++
		}
	}
	a.logger.Info("sync finished", "sections", len(summary.Sections), "incomplete", incomplete,
		"duration", summary.Duration)

	if jsonOutput {
		return outputJSON(w, summary)
	}
	for _, s := range summary.Sections {
		line := fmt.Sprintf("%s\t%d/%d", s.Title, s.Items, s.TotalSize)
		if s.Incomplete {
			line += "\tincomplete: " + s.Error
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func summarize(sections []catalog.SectionState) syncSummary {
	out := syncSummary{Sections: make([]sectionSummary, 0, len(sections))}
	for _, sec := range sections {
		s := sectionSummary{
			Title:     sec.Section.Title,
			Items:     len(sec.Section.MediaItems),
			TotalSize: sec.Section.TotalSize,
		}
		if sec.Err != nil {
			s.Incomplete = true
			s.Error = sec.Err.Error()
		}
		out.Sections = append(out.Sections, s)
	}
	return out
}

// progressPrinter writes one line per finished section
func progressPrinter(w io.Writer) domain.SyncObserver {
	var mu sync.Mutex
	return domain.ObserverFunc(func(p domain.SectionProgress) {
		if !p.Done {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		switch {
		case p.Err != nil:
			fmt.Fprintf(w, "! %s stopped at %d/%d: %v\n", p.Section, p.Loaded, p.Total, p.Err)
		case p.FromCache:
			fmt.Fprintf(w, "= %s (%d, cached)\n", p.Section, p.Loaded)
		default:
			fmt.Fprintf(w, "✓ %s (%d)\n", p.Section, p.Loaded)
		}
	})
}
