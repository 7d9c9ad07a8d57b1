package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/thesavant42/icr-browser/internal/app"
	"github.com/thesavant42/icr-browser/internal/pullstate"
)

// RunBrowser runs the browser TUI over c until the user quits.
// notifier must be the one c was created with.
func RunBrowser(ctx context.Context, c *app.Coordinator, notifier *ProgramNotifier, opts BrowserOptions) error {
	model := NewBrowserModel(ctx, c, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	notifier.Attach(p)
	c.OnCatalog(func(generation uint64) {
		p.Send(CatalogMsg{Generation: generation})
	})
	c.Tracker().OnChange(func(key string, status pullstate.Status) {
		p.Send(StatusMsg{Key: key, Status: status})
	})
	defer func() {
		notifier.Attach(nil)
		c.OnCatalog(nil)
		c.Tracker().OnChange(nil)
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browser error: %w", err)
	}
	return nil
}
