package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/thesavant42/icr-browser/internal/catalog"
	"github.com/thesavant42/icr-browser/internal/models"
	"github.com/thesavant42/icr-browser/internal/pullstate"
)

// collapsedTags is how many tags an image shows until it is expanded
const collapsedTags = 3

type rowKind int

const (
	rowTag   rowKind = iota // one image tag
	rowMore                 // "N more" placeholder of a collapsed image
	rowEmpty                // image without any tag for the criteria
)

// rowRef ties a table row back to the image and tag it shows
type rowRef struct {
	kind   rowKind
	image  models.Image
	tag    string
	first  bool // first row of its image
	hidden int  // tags behind a rowMore
}

// buildRows lays out images as table rows. Each image shows at most
// collapsedTags tags unless its FullName is in expanded.
func buildRows(images []models.Image, expanded map[string]bool) []rowRef {
	var refs []rowRef
	for _, img := range images {
		if len(img.Tags) == 0 {
			refs = append(refs, rowRef{kind: rowEmpty, image: img, first: true})
			continue
		}
		tags := img.Tags
		hidden := 0
		if !expanded[img.FullName] && len(tags) > collapsedTags {
			hidden = len(tags) - collapsedTags
			tags = tags[:collapsedTags]
		}
		for i, tag := range tags {
			refs = append(refs, rowRef{kind: rowTag, image: img, tag: tag, first: i == 0})
		}
		if hidden > 0 {
			refs = append(refs, rowRef{kind: rowMore, image: img, hidden: hidden})
		}
	}
	return refs
}

// StatusFunc looks up the pull state of an image tag
type StatusFunc func(fullName, tag string) pullstate.Status

// renderRows turns row refs into table cells
func renderRows(refs []rowRef, status StatusFunc, majorWidth int, canExecute bool) []table.Row {
	rows := make([]table.Row, len(refs))
	for i, ref := range refs {
		access, name := "", ""
		if ref.first {
			access = accessMarker(ref.image.PublicAccess)
			name = ref.image.Name
		}
		switch ref.kind {
		case rowEmpty:
			rows[i] = table.Row{access, name, RenderDim("no tags"), ""}
		case rowMore:
			rows[i] = table.Row{"", "", RenderDim(fmt.Sprintf("… %d more (e)", ref.hidden)), ""}
		default:
			s := status(ref.image.FullName, ref.tag)
			rows[i] = table.Row{access, name, renderTag(ref.tag, majorWidth), actionLabel(s, canExecute)}
		}
	}
	return rows
}

func accessMarker(public bool) string {
	if public {
		return "open"
	}
	return "lock"
}

// renderTag bolds the major part of year-versioned tags
func renderTag(tag string, majorWidth int) string {
	major, rest, ok := catalog.SplitYearVersion(tag, majorWidth)
	if !ok {
		return tag
	}
	if rest == "" {
		return MajorStyle.Render(major)
	}
	return MajorStyle.Render(major) + "." + rest
}

// actionLabel names what enter does for a tag in state s
func actionLabel(s pullstate.Status, canExecute bool) string {
	switch s.Phase() {
	case pullstate.StatusPull:
		if percent, ok := s.Percent(); ok {
			return ProgressStyle.Render(fmt.Sprintf("%d%%", percent))
		}
		return ProgressStyle.Render("pulling")
	case pullstate.StatusRemove:
		return ProgressStyle.Render("removing")
	case pullstate.StatusIdle:
		if !canExecute {
			return "pulled"
		}
		return "Delete"
	default:
		if !canExecute {
			return ""
		}
		return "Pull"
	}
}
