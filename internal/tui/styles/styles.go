package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	AuraViolet = lipgloss.Color("#8B5CF6")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Amber      = lipgloss.Color("#F59E0B")
	Red        = lipgloss.Color("#EF4444")
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(AuraViolet)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	WarnStyle = lipgloss.NewStyle().
			Foreground(Amber)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)
)

// Error banner shown when the section list cannot be fetched
var BannerStyle = lipgloss.NewStyle().
	Foreground(White).
	Background(Red).
	Bold(true).
	Padding(0, 1)

// Library selector chips
var (
	ChipStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Background(SlateDark).
			Padding(0, 1)

	ChipSelectedStyle = lipgloss.NewStyle().
				Foreground(White).
				Background(AuraViolet).
				Bold(true).
				Padding(0, 1)
)

// Badge marks items already in the database
var BadgeStyle = lipgloss.NewStyle().
	Foreground(LightGray).
	Background(SlateLight).
	Padding(0, 1)

// Help styles
var (
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(AuraViolet)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

var SpinnerStyle = lipgloss.NewStyle().
	Foreground(AuraViolet)

// Search box
var (
	SearchPromptStyle = lipgloss.NewStyle().
				Foreground(AuraViolet).
				Bold(true)

	SearchTextStyle = lipgloss.NewStyle().
			Foreground(White)
)

// Truncate shortens s to width cells, ending in an ellipsis when cut
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if width <= 1 {
		return string(runes[:width])
	}
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// Pad pads s with spaces to width cells
func Pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// RenderListRow renders a row with a uniform background when selected.
// Each part is styled separately so inner resets don't break the highlight.
func RenderListRow(parts []RowPart, selected bool, width int) string {
	bg := SlateLight

	var b strings.Builder
	visible := 0
	for _, part := range parts {
		style := lipgloss.NewStyle()
		switch {
		case part.Foreground != nil:
			style = style.Foreground(*part.Foreground)
		case selected:
			style = style.Foreground(White)
		default:
			style = style.Foreground(LightGray)
		}
		if selected {
			style = style.Background(bg)
		}
		b.WriteString(style.Render(part.Text))
		visible += lipgloss.Width(part.Text)
	}

	// 2 cells of margin
	if pad := width - visible - 2; pad > 0 {
		padStyle := lipgloss.NewStyle()
		if selected {
			padStyle = padStyle.Background(bg)
		}
		b.WriteString(padStyle.Render(strings.Repeat(" ", pad)))
	}

	marginStyle := lipgloss.NewStyle()
	if selected {
		marginStyle = marginStyle.Background(bg)
	}
	margin := marginStyle.Render(" ")
	return margin + b.String() + margin
}

// RowPart is one segment of a list row with an optional foreground color
type RowPart struct {
	Text       string
	Foreground *lipgloss.Color
}
