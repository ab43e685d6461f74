package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/auracli/aura/internal/catalog"
	"github.com/auracli/aura/internal/config"
	"github.com/auracli/aura/internal/domain"
	"github.com/auracli/aura/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	browseQuery     string
	browseLibraries []string
	browseHideInDB  bool
	browseSort      string
	browsePage      int
	browseRefresh   bool
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the library catalog (interactive on a terminal)",
	Long: `Browse the library catalog.

On a terminal this opens the interactive browser. Otherwise, or with --plain
or --json, one page of the filtered catalog is printed.

Search grammar: free text matches titles, year:<n> pins the year and
library:<name> (or lib:) pins the library. Quote values with spaces.`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, browseCmd} {
		c.Flags().StringVar(&browseQuery, "query", "", "Search query")
		c.Flags().StringSliceVar(&browseLibraries, "library", nil, "Only show these libraries (repeatable)")
		c.Flags().BoolVar(&browseHideInDB, "hide-in-db", false, "Hide items already in the database")
		c.Flags().StringVar(&browseSort, "sort", "", "Sort by library, title, year, added or relevance")
		c.Flags().IntVar(&browsePage, "page", 1, "Page to print")
		c.Flags().BoolVar(&browseRefresh, "refresh", false, "Ignore the cache and fetch every section")
	}
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	interactive := !jsonOutput && !plainOutput &&
		term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))

	a, err := newApp(false, interactive)
	if err != nil {
		return err
	}

	if !a.cfg.IsConfigured() {
		if !interactive || noInput {
			a.close()
			return exitError(exitNotConfigured,
				fmt.Errorf("%w: run `aura` on a terminal or set AURA_SERVER_URL", domain.ErrNotConfigured))
		}
		err := runSetup(cmd.Context(), cmd.InOrStdin(), cmd.ErrOrStderr(), a.logger)
		a.close()
		if err != nil {
			return err
		}
		if a, err = newApp(true, interactive); err != nil {
			return err
		}
	}
	defer a.close()

	if interactive {
		return runTUI(cmd.Context(), a)
	}
	return runPlainBrowse(cmd.Context(), a, cmd.OutOrStdout())
}

func runTUI(ctx context.Context, a *app) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := tui.NewModel(ctx, a.loader, tui.Options{
		PageSize:       a.cfg.UI.PageSize,
		Sort:           catalog.SortMode(a.cfg.UI.DefaultSort),
		HideInDatabase: a.cfg.UI.HideInDatabase || browseHideInDB,
	}, a.logger)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	a.logger.Info("starting TUI", "version", Version)
	if _, err := p.Run(); err != nil {
		a.logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}
	a.logger.Info("shutting down")
	return nil
}

func runPlainBrowse(ctx context.Context, a *app, w io.Writer) error {
	var err error
	if browseRefresh {
		err = a.loader.Refresh(ctx)
	} else {
		err = a.loader.Load(ctx, true)
	}
	if err != nil {
		return err
	}

	view, err := buildView(a.cfg, a.loader.State().Catalog())
	if err != nil {
		return err
	}
	for _, sec := range a.loader.State().Sections() {
		if sec.Err != nil {
			printError("warning: %s is incomplete (%d of %d items): %v\n",
				sec.Section.Title, len(sec.Section.MediaItems), sec.Section.TotalSize, sec.Err)
		}
	}
	if jsonOutput {
		return outputJSON(w, newPageOutput(view))
	}
	renderPage(w, view)
	return nil
}

// buildView applies the configured preferences and the browse flags
func buildView(cfg *config.Config, items []*domain.MediaItem) (*catalog.View, error) {
	sortName := cfg.UI.DefaultSort
	if browseSort != "" {
		sortName = browseSort
	}
	mode, err := catalog.ParseSortMode(sortName)
	if err != nil {
		return nil, exitError(exitInvalidConfig, err)
	}

	view := catalog.NewView(cfg.UI.PageSize, mode)
	view.SetCatalog(items)
	view.SetLibraries(browseLibraries)
	view.SetHideInDatabase(cfg.UI.HideInDatabase || browseHideInDB)
	view.SetQuery(browseQuery)
	view.SetPage(browsePage)
	return view, nil
}

type pageOutput struct {
	Page        int                 `json:"page"`
	TotalPages  int                 `json:"total_pages"`
	TotalItems  int                 `json:"total_items"`
	Items       []*domain.MediaItem `json:"items"`
	Suggestions []string            `json:"suggestions,omitempty"`
}

func newPageOutput(view *catalog.View) pageOutput {
	return pageOutput{
		Page:        view.Page(),
		TotalPages:  view.TotalPages(),
		TotalItems:  view.Len(),
		Items:       view.Items(),
		Suggestions: view.Suggestions(5),
	}
}

func renderPage(w io.Writer, view *catalog.View) {
	items := view.Items()
	if len(items) == 0 {
		fmt.Fprintln(w, "No items match")
		if s := view.Suggestions(5); len(s) > 0 {
			fmt.Fprintf(w, "Did you mean: %s\n", strings.Join(s, ", "))
		}
		return
	}
	for _, item := range items {
		inDB := ""
		if item.ExistInDatabase {
			inDB = "in database"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.Title, item.Description(), item.LibraryTitle, inDB)
	}
	fmt.Fprintf(w, "page %d/%d, %d items\n", view.Page(), view.TotalPages(), view.Len())
}
