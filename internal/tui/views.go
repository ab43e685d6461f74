package tui

import (
	"fmt"
	"strings"

	"github.com/auracli/aura/internal/domain"
	"github.com/auracli/aura/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

const progressLabelWidth = 20

// View renders the whole screen
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}
	if m.State == StateHelp {
		return m.renderHelp()
	}

	parts := []string{m.renderHeader(), m.renderLibraries()}
	if err := m.catalogState.Err(); err != nil {
		parts = append(parts, RenderError(err, m.Width))
	}
	if m.catalogState.Loading() {
		if progress := m.renderProgress(); progress != "" {
			parts = append(parts, progress)
		}
	}
	switch {
	case m.State == StateGotoPage:
		parts = append(parts, m.pageInput.View()+styles.DimStyle.Render(fmt.Sprintf(" of %d", m.view.TotalPages())))
	case m.State == StateSearching:
		parts = append(parts, m.search.View())
	case m.view.Query() != "":
		q := m.view.Query()
		parts = append(parts, styles.SearchPromptStyle.Render("/ ")+styles.SearchTextStyle.Render(q))
	}
	parts = append(parts, "", m.renderItems(), "", m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	title := styles.TitleStyle.Render("aura")
	info := fmt.Sprintf("%d items · page %d/%d · sort %s",
		m.view.Len(), m.view.Page(), m.view.TotalPages(), m.view.Sort())
	if m.view.HideInDatabase() {
		info += " · hiding items in database"
	}
	return title + "  " + styles.SubtitleStyle.Render(info)
}

// renderLibraries draws one chip per section: number key, title, item count,
// and a marker for sections still loading or cut short.
func (m Model) renderLibraries() string {
	sections := m.catalogState.Sections()
	if len(sections) == 0 {
		return styles.DimStyle.Render("No libraries")
	}

	chips := make([]string, 0, len(sections))
	for i, sec := range sections {
		label := sec.Section.Title
		if i < 9 {
			label = fmt.Sprintf("%d %s", i+1, label)
		}
		switch {
		case !sec.Settled:
			label += " " + m.spinner.View()
		case sec.Err != nil:
			label += fmt.Sprintf(" %d/%d !", len(sec.Section.MediaItems), sec.Section.TotalSize)
		default:
			label += fmt.Sprintf(" %d", len(sec.Section.MediaItems))
		}

		style := styles.ChipStyle
		if m.view.LibrarySelected(sec.Section.Title) {
			style = styles.ChipSelectedStyle
		}
		if sec.Err != nil {
			style = style.Foreground(styles.Amber)
		}
		chips = append(chips, style.Render(label))
	}
	return lipgloss.NewStyle().Width(m.Width).Render(strings.Join(chips, " "))
}

// renderProgress draws a bar per section still being fetched
func (m Model) renderProgress() string {
	var lines []string
	for _, p := range m.catalogState.Progress() {
		percent := 0.0
		if p.Total > 0 {
			percent = float64(p.Loaded) / float64(p.Total)
		}
		label := styles.Pad(styles.Truncate(p.Section, progressLabelWidth), progressLabelWidth)
		counts := styles.DimStyle.Render(fmt.Sprintf("%d/%d", p.Loaded, p.Total))
		lines = append(lines, fmt.Sprintf("%s %s %s", label, m.bar.ViewAs(percent), counts))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderItems() string {
	items := m.view.Items()
	if len(items) == 0 {
		return m.renderEmpty()
	}

	rows := make([]string, len(items))
	for i, item := range items {
		rows[i] = RenderMediaItem(item, i == m.Cursor, m.Width)
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderEmpty() string {
	if m.catalogState.Loading() && len(m.catalogState.Catalog()) == 0 {
		return m.spinner.View() + " " + styles.DimStyle.Render("Fetching libraries...")
	}
	if m.catalogState.Err() != nil {
		return styles.DimStyle.Render("Press r to retry")
	}

	msg := styles.DimStyle.Render("No items match")
	if suggestions := m.view.Suggestions(suggestionCount); len(suggestions) > 0 {
		msg += "\n" + styles.SubtitleStyle.Render("Did you mean: ") +
			styles.AccentStyle.Render(strings.Join(suggestions, ", "))
	}
	return msg
}

func (m Model) renderFooter() string {
	var left string
	switch {
	case m.catalogState.Loading():
		left = m.spinner.View() + " " + styles.DimStyle.Render(m.loadingText())
	case m.StatusMsg != "" && m.StatusIsErr:
		left = styles.WarnStyle.Render(m.StatusMsg)
	case m.StatusMsg != "":
		left = styles.DimStyle.Render(m.StatusMsg)
	}

	right := m.help.View(Keys)
	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) loadingText() string {
	sections := m.catalogState.Sections()
	if len(sections) == 0 {
		return "Loading..."
	}
	done := 0
	for _, sec := range sections {
		if sec.Settled {
			done++
		}
	}
	return fmt.Sprintf("Syncing %d/%d libraries...", done, len(sections))
}

func (m Model) renderHelp() string {
	grammar := []string{
		styles.TitleStyle.Render("Search"),
		styles.HelpKeyStyle.Render("alien") + styles.HelpDescStyle.Render("            title contains"),
		styles.HelpKeyStyle.Render("year:1979") + styles.HelpDescStyle.Render("        release year (y:)"),
		styles.HelpKeyStyle.Render(`lib:"TV Shows"`) + styles.HelpDescStyle.Render("   library title (library:)"),
	}
	h := m.help
	h.ShowAll = true
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("Keys"),
		h.View(Keys),
		"",
		strings.Join(grammar, "\n"),
		"",
		styles.DimStyle.Render("press any key to close"),
	)
}

// RenderMediaItem renders one catalog row
func RenderMediaItem(item *domain.MediaItem, selected bool, width int) string {
	dim := styles.DimGray
	accent := styles.AuraViolet

	parts := []styles.RowPart{{Text: styles.Truncate(item.Title, max(10, width/2))}}
	if desc := item.Description(); desc != "" {
		parts = append(parts, styles.RowPart{Text: "  " + desc, Foreground: &dim})
	}
	if item.LibraryTitle != "" {
		parts = append(parts, styles.RowPart{Text: "  " + item.LibraryTitle, Foreground: &dim})
	}
	if item.ExistInDatabase {
		parts = append(parts, styles.RowPart{Text: "  ● in database", Foreground: &accent})
	}
	return styles.RenderListRow(parts, selected, width)
}

// RenderError renders the page-level error banner
func RenderError(err error, width int) string {
	return styles.BannerStyle.Width(max(0, width)).Render("Error: " + err.Error())
}
