package tui

import "github.com/auracli/aura/internal/domain"

// Message types for the TUI

// SectionProgressMsg carries one progress update from the loader
type SectionProgressMsg struct {
	Progress domain.SectionProgress
}

// LoadDoneMsg signals that a Load or Refresh run returned
type LoadDoneMsg struct {
	Refresh bool
	Err     error
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}
