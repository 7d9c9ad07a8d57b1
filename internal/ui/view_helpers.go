package ui

// view_helpers.go provides common View() rendering helpers.

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
)

// RenderTableWithSelection renders a bubbles table with a full-width
// selection highlight.
//
// bubbles/table View() output is the header on line 0 followed by the
// visible data rows only; the visible cursor row is derived from the
// table's own scrolling rule.
func RenderTableWithSelection(t table.Model, layout Layout) string {
	lines := strings.Split(t.View(), "\n")
	cursor := t.Cursor()
	height := t.Height()
	total := len(t.Rows())

	start := 0
	if total > height {
		if cursor >= height {
			start = cursor - height + 1
		}
		start = min(start, total-height)
	}
	visibleCursor := cursor - start

	result := make([]string, 0, len(lines)+1)
	for i, line := range lines {
		if i == 0 {
			result = append(result, NormalStyle.Render(line), strings.Repeat("─", layout.InnerWidth))
			continue
		}
		if i-1 == visibleCursor {
			// embedded resets would cut the background short
			clean := stripEscapeCodes(line)
			if w := StringWidth(clean); w < layout.InnerWidth {
				clean += strings.Repeat(" ", layout.InnerWidth-w)
			} else if w > layout.InnerWidth {
				clean = truncateToWidth(clean, layout.InnerWidth)
			}
			result = append(result, SelectedStyle.Render(clean))
			continue
		}
		result = append(result, line)
	}
	return strings.Join(result, "\n")
}

// ViewHeader renders title + full-width divider + spacing
func ViewHeader(title string, innerWidth int) string {
	var b strings.Builder
	b.WriteString(RenderTitle(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", innerWidth))
	b.WriteString("\n\n")
	return b.String()
}

// CenterText centers text within width
func CenterText(text string, width int) string {
	w := StringWidth(text)
	if w >= width {
		return text
	}
	return strings.Repeat(" ", (width-w)/2) + text
}
