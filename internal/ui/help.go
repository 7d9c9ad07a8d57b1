package ui

import (
	"strings"
)

const runCommand = "docker run --name iris --detach --publish 1972:1972 --publish 52773:52773 "

// Links shown in the help overlay
const (
	PortalURL     = "http://localhost:52773/csp/sys/UtilHome.csp"
	DocsURL       = "https://docs.intersystems.com/"
	RegistryURL   = "https://containers.intersystems.com/"
	EvaluationURL = "https://evaluation.intersystems.com/"
)

type helpItem struct {
	label string
	value string
	url   bool
}

// helpOverlay lists copyable snippets and links
type helpOverlay struct {
	items  []helpItem
	cursor int
}

// newHelpOverlay builds the overlay; runRef is the image the run example
// uses and may be empty when the catalog has no public community image
func newHelpOverlay(runRef string) *helpOverlay {
	var items []helpItem
	if runRef != "" {
		items = append(items, helpItem{label: "Run", value: runCommand + runRef})
	}
	items = append(items,
		helpItem{label: "Management portal", value: PortalURL, url: true},
		helpItem{label: "Documentation", value: DocsURL, url: true},
		helpItem{label: "Registry", value: RegistryURL, url: true},
		helpItem{label: "Evaluation", value: EvaluationURL, url: true},
	)
	return &helpOverlay{items: items}
}

func (h *helpOverlay) move(delta int) {
	h.cursor = clamp(h.cursor+delta, 0, len(h.items)-1)
}

func (h *helpOverlay) selected() helpItem {
	return h.items[h.cursor]
}

var browserKeys = [][2]string{
	{"tab / ←→", "switch tab"},
	{"↑↓ / j k", "move"},
	{"enter", "pull, delete or expand"},
	{"p / d", "pull / delete the selected tag"},
	{"e", "show all tags of the image"},
	{"y", "copy image:tag"},
	{"c / a / m", "community / arm64 / major versions"},
	{"/ , t", "filter by name, by tag"},
	{"r", "reload the registry listing"},
	{"?", "this help"},
	{"q", "quit"},
}

func (h *helpOverlay) view(width int) string {
	var b strings.Builder
	b.WriteString(ViewHeader("Getting started", width))
	for i, item := range h.items {
		line := item.label + ": " + item.value
		if StringWidth(line) > width-2 {
			line = truncateToWidth(line, width-2)
		}
		if i == h.cursor {
			b.WriteString(SelectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + NormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(RenderTitle("Keys"))
	b.WriteString("\n")
	for _, k := range browserKeys {
		b.WriteString("  " + AccentStyle.Render(padRight(k[0], 12)) + " " + k[1] + "\n")
	}
	return b.String()
}

func padRight(s string, width int) string {
	if w := StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
