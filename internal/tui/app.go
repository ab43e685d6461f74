package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/auracli/aura/internal/catalog"
	"github.com/auracli/aura/internal/domain"
	"github.com/auracli/aura/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateSearching
	StateGotoPage
	StateHelp
)

const (
	statusTimeout   = 3 * time.Second
	suggestionCount = 5
	progressBuffer  = 256
)

// Options configures the browser
type Options struct {
	PageSize       int
	Sort           catalog.SortMode
	HideInDatabase bool
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State ApplicationState
	Ready bool

	// Ingestion
	ctx          context.Context
	loader       *catalog.Loader
	catalogState *catalog.State
	view         *catalog.View
	progressCh   chan domain.SectionProgress
	logger       *slog.Logger

	// UI Components
	search    textinput.Model
	pageInput textinput.Model
	spinner spinner.Model
	bar     progress.Model
	help    help.Model

	// Dimensions
	Width  int
	Height int

	// UI state
	Cursor      int // row within the current page
	StatusMsg   string
	StatusIsErr bool
}

// NewModel creates the browser over loader. It registers itself as the
// loader's progress observer.
func NewModel(ctx context.Context, loader *catalog.Loader, opts Options, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	ch := make(chan domain.SectionProgress, progressBuffer)
	loader.SetObserver(NewChannelObserver(ch))

	view := catalog.NewView(opts.PageSize, opts.Sort)
	view.SetHideInDatabase(opts.HideInDatabase)

	ti := textinput.New()
	ti.Placeholder = `title, year:2008, lib:"TV Shows"`
	ti.CharLimit = 100
	ti.Width = 40
	ti.Prompt = "/ "
	ti.PromptStyle = styles.SearchPromptStyle
	ti.TextStyle = styles.SearchTextStyle
	ti.PlaceholderStyle = styles.DimStyle

	pi := textinput.New()
	pi.Placeholder = "page"
	pi.CharLimit = 6
	pi.Width = 8
	pi.Prompt = ": "
	pi.PromptStyle = styles.SearchPromptStyle
	pi.TextStyle = styles.SearchTextStyle
	pi.PlaceholderStyle = styles.DimStyle

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	return Model{
		State:        StateBrowsing,
		ctx:          ctx,
		loader:       loader,
		catalogState: loader.State(),
		view:         view,
		progressCh:   ch,
		logger:       logger,
		search:       ti,
		pageInput:    pi,
		spinner:      sp,
		bar: progress.New(
			progress.WithSolidFill(string(styles.AuraViolet)),
			progress.WithoutPercentage(),
			progress.WithWidth(30),
		),
		help: help.New(),
	}
}

// Init starts the first load
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		LoadCmd(m.ctx, m.loader),
		listenProgressCmd(m.progressCh),
		m.spinner.Tick,
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.help.Width = msg.Width
		m.bar.Width = min(40, max(10, msg.Width/3))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SectionProgressMsg:
		// Settled sections become browsable before the whole run finishes
		if msg.Progress.Done {
			m.syncCatalog()
		}
		return m, listenProgressCmd(m.progressCh)

	case LoadDoneMsg:
		return m.handleLoadDone(msg)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	return m, nil
}

func (m Model) handleLoadDone(msg LoadDoneMsg) (tea.Model, tea.Cmd) {
	if errors.Is(msg.Err, context.Canceled) {
		// Superseded; the run that replaced it reports on its own
		return m, nil
	}
	m.syncCatalog()
	if catalog.IsFatal(msg.Err) {
		// The banner renders state.Err()
		return m, nil
	}

	degraded := 0
	for _, sec := range m.catalogState.Sections() {
		if sec.Err != nil {
			degraded++
		}
	}
	switch {
	case degraded > 0:
		m.setStatus(fmt.Sprintf("%d libraries incomplete, press r to retry", degraded), true)
	case msg.Refresh:
		m.setStatus(fmt.Sprintf("Refreshed %d items", len(m.catalogState.Catalog())), false)
	default:
		m.setStatus(fmt.Sprintf("Loaded %d items", len(m.catalogState.Catalog())), false)
	}
	return m, ClearStatusCmd(statusTimeout)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.State {
	case StateSearching:
		return m.handleSearchKey(msg)
	case StateGotoPage:
		return m.handleGotoKey(msg)
	case StateHelp:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		m.State = StateBrowsing
		return m, nil
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp

	case key.Matches(msg, Keys.Search):
		m.State = StateSearching
		m.search.SetValue(m.view.Query())
		m.search.CursorEnd()
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, Keys.Escape):
		if m.view.Query() != "" {
			m.view.SetQuery("")
			m.Cursor = 0
		}

	case key.Matches(msg, Keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}

	case key.Matches(msg, Keys.Down):
		if m.Cursor < len(m.view.Items())-1 {
			m.Cursor++
		}

	case key.Matches(msg, Keys.PrevPage):
		if m.view.PrevPage() {
			m.Cursor = 0
		}

	case key.Matches(msg, Keys.NextPage):
		if m.view.NextPage() {
			m.Cursor = 0
		}

	case key.Matches(msg, Keys.FirstPage):
		m.view.SetPage(1)
		m.Cursor = 0

	case key.Matches(msg, Keys.LastPage):
		m.view.SetPage(m.view.TotalPages())
		m.Cursor = 0

	case key.Matches(msg, Keys.GotoPage):
		m.State = StateGotoPage
		m.pageInput.SetValue("")
		cmd := m.pageInput.Focus()
		return m, cmd

	case key.Matches(msg, Keys.Library):
		idx := int(msg.String()[0] - '1')
		if titles := m.catalogState.LibraryTitles(); idx < len(titles) {
			m.view.ToggleLibrary(titles[idx])
			m.clampCursor()
		}

	case key.Matches(msg, Keys.AllLibraries):
		m.view.SetLibraries(nil)
		m.clampCursor()

	case key.Matches(msg, Keys.HideInDB):
		m.view.SetHideInDatabase(!m.view.HideInDatabase())
		m.clampCursor()

	case key.Matches(msg, Keys.Sort):
		m.view.SetSort(m.view.Sort().Next())
		m.Cursor = 0
		m.setStatus("Sort: "+string(m.view.Sort()), false)
		return m, ClearStatusCmd(statusTimeout)

	case key.Matches(msg, Keys.Refresh):
		m.logger.Info("refresh requested")
		m.setStatus("Refreshing...", false)
		return m, RefreshCmd(m.ctx, m.loader)
	}

	return m, nil
}

// handleSearchKey routes keys to the search box. The query is applied on
// every keystroke.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, Keys.Escape):
		m.search.SetValue("")
		m.view.SetQuery("")
		m.exitSearch()
		return m, nil

	case key.Matches(msg, Keys.Accept):
		m.exitSearch()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if q := m.search.Value(); q != m.view.Query() {
		m.view.SetQuery(q)
		m.Cursor = 0
	}
	return m, cmd
}

// handleGotoKey routes keys to the page prompt. Enter jumps to the typed
// page, clamped into range.
func (m Model) handleGotoKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, Keys.Escape):
		m.State = StateBrowsing
		m.pageInput.Blur()
		return m, nil

	case key.Matches(msg, Keys.Accept):
		m.State = StateBrowsing
		m.pageInput.Blur()
		if page, err := strconv.Atoi(m.pageInput.Value()); err == nil {
			m.view.SetPage(page)
			m.Cursor = 0
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.pageInput, cmd = m.pageInput.Update(msg)
	return m, cmd
}

func (m *Model) exitSearch() {
	m.State = StateBrowsing
	m.search.Blur()
	m.Cursor = 0
}

// syncCatalog pulls the current catalog out of the shared state
func (m *Model) syncCatalog() {
	m.view.SetCatalog(m.catalogState.Catalog())
	m.clampCursor()
}

func (m *Model) clampCursor() {
	m.Cursor = max(0, min(m.Cursor, len(m.view.Items())-1))
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.StatusMsg = msg
	m.StatusIsErr = isErr
}
