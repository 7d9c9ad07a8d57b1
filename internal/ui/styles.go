package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Layout constants - single source of truth for viewport dimensions
const (
	MinViewportWidth  = 80
	MaxViewportWidth  = 140
	DefaultWidth      = 100 // used until the first WindowSizeMsg
	DefaultHeight     = 30
	MinTableHeight    = 5
	chromeHeight      = 12 // title, tabs, toggles, dividers, footer box
	footerBoxHeight   = 3
)

// Layout holds computed dimensions for the current terminal size
type Layout struct {
	ViewportWidth  int
	ViewportHeight int
	InnerWidth     int // exact width for content inside the borders
	TableWidth     int // sum of column widths
	TableHeight    int // visible data rows
}

// NewLayout creates a Layout from the terminal size, clamping the width
func NewLayout(terminalWidth, terminalHeight int) Layout {
	width := clamp(terminalWidth, MinViewportWidth, MaxViewportWidth)
	if terminalHeight <= 0 {
		terminalHeight = DefaultHeight
	}
	return Layout{
		ViewportWidth:  width,
		ViewportHeight: terminalHeight,
		InnerWidth:     width - 2,
		TableWidth:     width - 4,
		TableHeight:    max(terminalHeight-chromeHeight, MinTableHeight),
	}
}

// DefaultLayout returns a layout using the default size
func DefaultLayout() Layout {
	return NewLayout(DefaultWidth, DefaultHeight)
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// Color palette
var (
	ColorBorder    = lipgloss.Color("39")  // blue
	ColorHighlight = lipgloss.Color("24")  // dark blue background
	ColorText      = lipgloss.Color("15")  // bright white
	ColorAccent    = lipgloss.Color("226") // bright yellow
	ColorProgress  = lipgloss.Color("220") // yellow
	ColorTextDim   = lipgloss.Color("241") // gray
	ColorSuccess   = lipgloss.Color("42")  // green
	ColorWarning   = lipgloss.Color("208") // orange
	ColorError     = lipgloss.Color("196") // red
)

var (
	// Content inside BorderStyle must use Layout.InnerWidth
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	FooterStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorText)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(ColorHighlight).
			Bold(true)

	NormalStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	HintStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Italic(true)

	AccentStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	MajorStyle = lipgloss.NewStyle().Bold(true)

	ProgressStyle = lipgloss.NewStyle().
			Foreground(ColorProgress)

	TabActiveStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(ColorHighlight).
			Bold(true).
			Padding(0, 2)

	TabInactiveStyle = lipgloss.NewStyle().
				Foreground(ColorText).
				Padding(0, 2)

	ToggleOnStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	ToggleOffStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// levelStyles colors status-bar notifications
var levelStyles = map[string]lipgloss.Style{
	"success": lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true),
	"info":    lipgloss.NewStyle().Foreground(ColorText),
	"warning": lipgloss.NewStyle().Foreground(ColorWarning).Bold(true),
	"error":   lipgloss.NewStyle().Foreground(ColorError).Bold(true),
}

func RenderTitle(s string) string       { return TitleStyle.Render(s) }
func RenderDim(s string) string         { return DimStyle.Render(s) }
func RenderTabActive(s string) string   { return TabActiveStyle.Render(s) }
func RenderTabInactive(s string) string { return TabInactiveStyle.Render(s) }

// RenderToggle renders "[x] label" or "[ ] label"
func RenderToggle(key, label string, on bool) string {
	if on {
		return ToggleOnStyle.Render("[x] " + label + " (" + key + ")")
	}
	return ToggleOffStyle.Render("[ ] " + label + " (" + key + ")")
}

// StringWidth is the printable width of s, ignoring escape codes
func StringWidth(s string) int {
	return ansi.StringWidth(s)
}

func truncateToWidth(s string, width int) string {
	return ansi.Truncate(s, width, "…")
}

func stripEscapeCodes(s string) string {
	return ansi.Strip(s)
}

// PadContentToHeight appends blank lines until content has targetHeight lines
func PadContentToHeight(content string, targetHeight int) string {
	lines := strings.Count(content, "\n") + 1
	if lines >= targetHeight {
		return content
	}
	return content + strings.Repeat("\n", targetHeight-lines)
}

// BuildTwoBoxView renders the main bordered box with a one-line footer box below it
func BuildTwoBoxView(content, helpText string, layout Layout) string {
	mainHeight := max(layout.ViewportHeight-footerBoxHeight-2, MinTableHeight)
	main := BorderStyle.
		Width(layout.InnerWidth).
		Render(PadContentToHeight(content, mainHeight))
	footer := FooterStyle.
		Width(layout.InnerWidth).
		Render(CenterText(truncateToWidth(helpText, layout.InnerWidth), layout.InnerWidth))
	return lipgloss.JoinVertical(lipgloss.Left, main, footer)
}

// ApplyTableStyles sets the table styles. The selected row is left neutral;
// RenderTableWithSelection paints the highlight across the full width.
func ApplyTableStyles(t *table.Model) {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorText).
		BorderBottom(false).
		Bold(true).
		Foreground(ColorText)
	s.Selected = lipgloss.NewStyle()
	s.Cell = s.Cell.Foreground(ColorText)
	t.SetStyles(s)
}

// NewAppSpinner returns the spinner used while the catalog loads
func NewAppSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorText)
	return s
}

// NewAppTheme creates a huh theme matching the app's colors
func NewAppTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().
		Foreground(ColorText).
		Bold(true)
	t.Blurred.Title = t.Focused.Title

	t.Focused.Description = lipgloss.NewStyle().
		Foreground(ColorText)
	t.Blurred.Description = t.Focused.Description

	t.Focused.Base = lipgloss.NewStyle().
		Foreground(ColorText)
	t.Blurred.Base = t.Focused.Base

	t.Focused.FocusedButton = lipgloss.NewStyle().
		Foreground(ColorText).
		Background(ColorBorder).
		Bold(true).
		Padding(0, 1)

	t.Focused.BlurredButton = lipgloss.NewStyle().
		Foreground(ColorText).
		Padding(0, 1)

	return t
}
