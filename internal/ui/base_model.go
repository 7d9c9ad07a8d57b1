package ui

// base_model.go provides table setup and key helpers shared by the pages.

import (
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

// InitTable creates a styled, focused table sized for layout
func InitTable(columns []table.Column, rows []table.Row, layout Layout) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(layout.TableHeight),
	)
	ApplyTableStyles(&t)
	t.GotoTop()
	return t
}

// HandleQuitKeys reports whether key quits the program
func HandleQuitKeys(key string) (bool, tea.Cmd) {
	switch key {
	case "q", "ctrl+c":
		return true, tea.Quit
	}
	return false, nil
}

// HandleNavigationKeys moves the table cursor for the usual movement keys
// and reports whether key was one of them
func HandleNavigationKeys(t *table.Model, key string) bool {
	switch key {
	case "up", "k":
		t.MoveUp(1)
	case "down", "j":
		t.MoveDown(1)
	case "home", "g":
		t.GotoTop()
	case "end", "G":
		t.GotoBottom()
	case "pgup", "ctrl+u":
		t.MoveUp(max(t.Height()/2, 1))
	case "pgdown", "ctrl+d":
		t.MoveDown(max(t.Height()/2, 1))
	default:
		return false
	}
	return true
}
