package tui

import (
	"context"
	"time"

	"github.com/auracli/aura/internal/catalog"
	"github.com/auracli/aura/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
)

// Command factories for async operations

// LoadCmd populates the catalog, from cache when it is fresh
func LoadCmd(ctx context.Context, loader *catalog.Loader) tea.Cmd {
	return func() tea.Msg {
		return LoadDoneMsg{Err: loader.Load(ctx, true)}
	}
}

// RefreshCmd re-fetches every section, superseding any run in flight
func RefreshCmd(ctx context.Context, loader *catalog.Loader) tea.Cmd {
	return func() tea.Msg {
		return LoadDoneMsg{Refresh: true, Err: loader.Refresh(ctx)}
	}
}

// listenProgressCmd waits for the next progress update.
// Re-issued after every SectionProgressMsg to keep the pump going.
func listenProgressCmd(ch <-chan domain.SectionProgress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return SectionProgressMsg{Progress: p}
	}
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
