package ui

import (
	"runtime"

	"github.com/thesavant42/icr-browser/internal/catalog"
	"github.com/thesavant42/icr-browser/internal/models"
)

// Tab is one fixed view over the catalog
type Tab struct {
	Name string
	Kind models.Kind
	Root string
}

// Tabs of the browser, in display order
var Tabs = []Tab{
	{Name: "IRIS", Kind: models.KindPrimary, Root: catalog.PublicRoot},
	{Name: "TOOLS", Kind: models.KindTools, Root: catalog.PublicRoot},
	{Name: "INTERNAL", Kind: models.KindPrimary, Root: catalog.InternalRoot},
}

// HasEditions reports whether the community toggle applies to the tab
func (t Tab) HasEditions() bool {
	return t.Kind == models.KindPrimary
}

// Criteria is the user-controlled part of the filter
type Criteria struct {
	Tab         int
	Community   bool
	ARM64       bool
	UniqueMajor bool
	MajorWidth  int
	Name        string
	Tag         string
}

// DefaultCriteria selects the first tab, community images and one tag per
// major version for the architecture the program runs on
func DefaultCriteria(majorWidth int) Criteria {
	return Criteria{
		Community:   true,
		ARM64:       runtime.GOARCH == models.ArchARM64,
		UniqueMajor: true,
		MajorWidth:  majorWidth,
	}
}

// Arch returns the selected architecture key
func (c Criteria) Arch() string {
	if c.ARM64 {
		return models.ArchARM64
	}
	return models.ArchAMD64
}

// Filter converts the criteria into filter engine input
func (c Criteria) Filter() models.ImageFilter {
	tab := Tabs[c.Tab]
	return models.ImageFilter{
		Kind:        tab.Kind,
		Root:        tab.Root,
		Community:   c.Community,
		Arch:        c.Arch(),
		UniqueMajor: c.UniqueMajor,
		MajorWidth:  c.MajorWidth,
		Name:        c.Name,
		Tag:         c.Tag,
	}
}
