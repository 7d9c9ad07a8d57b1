package ui

// columns.go computes column widths for bubbles/table.

import (
	"github.com/charmbracelet/bubbles/table"
)

// ColumnSpec defines a table column with flexible or fixed width.
// FlexRatio columns share what the FixedWidth columns leave over.
type ColumnSpec struct {
	Title      string
	MinWidth   int
	FixedWidth int // if > 0, use this exact width
	FlexRatio  int
}

// CalculateColumns computes column widths from specs.
//
// Example:
//
//	columns := CalculateColumns([]ColumnSpec{
//	    {Title: "Image", FlexRatio: 60, MinWidth: 20},
//	    {Title: "Tag", FlexRatio: 40, MinWidth: 14},
//	    {Title: "Status", FixedWidth: 12},
//	}, layout.TableWidth)
func CalculateColumns(specs []ColumnSpec, totalWidth int) []table.Column {
	if totalWidth < 40 {
		totalWidth = 40
	}

	fixedTotal, flexTotal := 0, 0
	for _, s := range specs {
		if s.FixedWidth > 0 {
			fixedTotal += s.FixedWidth
		} else {
			flexTotal += s.FlexRatio
		}
	}
	// bubbles/table pads every cell by one column on each side
	remaining := max(totalWidth-fixedTotal-2*len(specs), 0)

	columns := make([]table.Column, len(specs))
	for i, s := range specs {
		width := s.FixedWidth
		if width == 0 && flexTotal > 0 {
			width = remaining * s.FlexRatio / flexTotal
		}
		if s.MinWidth > 0 && width < s.MinWidth {
			width = s.MinWidth
		}
		columns[i] = table.Column{Title: s.Title, Width: width}
	}
	return columns
}

// ImageColumns returns the column specs of the browser table
func ImageColumns() []ColumnSpec {
	return []ColumnSpec{
		{Title: "Access", FixedWidth: 6},
		{Title: "Image", FlexRatio: 55, MinWidth: 20},
		{Title: "Tag", FlexRatio: 45, MinWidth: 16},
		{Title: "Action", FixedWidth: 10},
	}
}
