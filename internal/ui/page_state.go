package ui

import (
	"time"
)

// page_state.go provides the status line and layout state of a page.

// PageState contains common state that every page needs
type PageState struct {
	Layout       Layout
	StatusMsg    string
	StatusLevel  string
	StatusExpiry time.Time
	Quitting     bool
}

// NewPageState creates a PageState with the given layout
func NewPageState(layout Layout) PageState {
	return PageState{Layout: layout}
}

// SetStatus sets a status message that expires after duration.
// A zero duration keeps it until replaced.
func (p *PageState) SetStatus(level, msg string, duration time.Duration) {
	p.StatusMsg = msg
	p.StatusLevel = level
	if duration > 0 {
		p.StatusExpiry = time.Now().Add(duration)
	} else {
		p.StatusExpiry = time.Time{}
	}
}

// ClearExpiredStatus drops the status message once it has expired
func (p *PageState) ClearExpiredStatus(now time.Time) {
	if !p.StatusExpiry.IsZero() && now.After(p.StatusExpiry) {
		p.StatusMsg = ""
		p.StatusLevel = ""
		p.StatusExpiry = time.Time{}
	}
}

func (p *PageState) HasStatus() bool {
	return p.StatusMsg != ""
}

// RenderStatus renders the status line in the color of its level
func (p *PageState) RenderStatus() string {
	if !p.HasStatus() {
		return ""
	}
	style, ok := levelStyles[p.StatusLevel]
	if !ok {
		style = NormalStyle
	}
	return style.Render(p.StatusMsg)
}

// UpdateLayout updates the layout and reports whether it changed
func (p *PageState) UpdateLayout(width, height int) bool {
	next := NewLayout(width, height)
	if next == p.Layout {
		return false
	}
	p.Layout = next
	return true
}
