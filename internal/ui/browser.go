package ui

// browser.go is the interactive registry browser: one table of image tags
// per tab, filter toggles, and pull/delete actions on the selected tag.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/thesavant42/icr-browser/internal/host"
	"github.com/thesavant42/icr-browser/internal/models"
	"github.com/thesavant42/icr-browser/internal/pullstate"
)

const (
	statusDuration = 5 * time.Second
	loadedAtFormat = "2006-01-02 15:04"
)

// Catalog is what the browser needs from the application layer
type Catalog interface {
	Registry() string
	LoadedAt() time.Time
	Load(ctx context.Context) error
	Refresh(ctx context.Context) error
	Filter(filter models.ImageFilter) []models.Image
	LatestRef(name, arch string) string
	Status(fullName, tag string) pullstate.Status
	CanExecute() bool
	Pull(ctx context.Context, fullName, tag string) error
	Delete(ctx context.Context, fullName, tag string) error
}

// CatalogMsg reports that a new catalog generation was published
type CatalogMsg struct {
	Generation uint64
}

// StatusMsg reports a pull state change of one image tag
type StatusMsg struct {
	Key    string
	Status pullstate.Status
}

type loadDoneMsg struct{ err error }

type actionErrMsg struct{ err error }

type clearStatusMsg time.Time

type inputTarget int

const (
	inputNone inputTarget = iota
	inputName
	inputTag
)

// BrowserOptions configures a BrowserModel
type BrowserOptions struct {
	MajorWidth int
	Clipboard  host.Clipboard
	Opener     host.Opener
}

// BrowserModel is the bubbletea model of the registry browser
type BrowserModel struct {
	PageState

	ctx       context.Context
	catalog   Catalog
	clipboard host.Clipboard
	opener    host.Opener

	criteria Criteria
	expanded map[string]bool
	refs     []rowRef
	table    table.Model

	loading bool
	spinner spinner.Model

	input  textinput.Model
	target inputTarget

	form    *huh.Form
	confirm *bool
	pending rowRef

	help *helpOverlay
}

// NewBrowserModel creates the browser; the catalog is loaded by Init
func NewBrowserModel(ctx context.Context, c Catalog, opts BrowserOptions) BrowserModel {
	layout := DefaultLayout()
	if opts.Clipboard == nil {
		opts.Clipboard = host.SystemClipboard{}
	}
	if opts.Opener == nil {
		opts.Opener = host.BrowserOpener{}
	}

	input := textinput.New()
	input.CharLimit = 64

	m := BrowserModel{
		PageState: NewPageState(layout),
		ctx:       ctx,
		catalog:   c,
		clipboard: opts.Clipboard,
		opener:    opts.Opener,
		criteria:  DefaultCriteria(opts.MajorWidth),
		expanded:  make(map[string]bool),
		table:     InitTable(CalculateColumns(ImageColumns(), layout.TableWidth), nil, layout),
		loading:   true,
		spinner:   NewAppSpinner(),
		input:     input,
	}
	return m
}

func (m BrowserModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m BrowserModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		return loadDoneMsg{err: m.catalog.Load(m.ctx)}
	}
}

func (m BrowserModel) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		return loadDoneMsg{err: m.catalog.Refresh(m.ctx)}
	}
}

// Pull and Delete run outside Update: they report state changes
// synchronously and those are sent back into the program.
func (m BrowserModel) pullCmd(ref rowRef) tea.Cmd {
	return func() tea.Msg {
		if err := m.catalog.Pull(m.ctx, ref.image.FullName, ref.tag); err != nil {
			return actionErrMsg{err: err}
		}
		return nil
	}
}

func (m BrowserModel) deleteCmd(ref rowRef) tea.Cmd {
	return func() tea.Msg {
		if err := m.catalog.Delete(m.ctx, ref.image.FullName, ref.tag); err != nil {
			return actionErrMsg{err: err}
		}
		return nil
	}
}

func (m *BrowserModel) setStatus(level host.Level, msg string) tea.Cmd {
	m.SetStatus(string(level), msg, statusDuration)
	return tea.Tick(statusDuration, func(t time.Time) tea.Msg { return clearStatusMsg(t) })
}

func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if m.UpdateLayout(msg.Width, msg.Height) {
			m.table.SetColumns(CalculateColumns(ImageColumns(), m.Layout.TableWidth))
			m.table.SetHeight(m.Layout.TableHeight)
		}
		if m.form != nil {
			m.form = m.form.WithWidth(m.Layout.InnerWidth)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadDoneMsg:
		m.loading = false
		m.reload()
		if msg.err != nil {
			cmd := m.setStatus(host.LevelError, msg.err.Error())
			return m, cmd
		}
		return m, nil

	case CatalogMsg, StatusMsg:
		m.reload()
		return m, nil

	case NotifyMsg:
		cmd := m.setStatus(msg.Level, msg.Message)
		return m, cmd

	case actionErrMsg:
		cmd := m.setStatus(host.LevelError, msg.err.Error())
		return m, cmd

	case clearStatusMsg:
		m.ClearExpiredStatus(time.Time(msg))
		return m, nil
	}

	if m.form != nil {
		return m.updateForm(msg)
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch {
		case m.help != nil:
			return m.handleHelpKey(key)
		case m.target != inputNone:
			return m.handleInputKey(key)
		default:
			return m.handleKey(key)
		}
	}
	return m, nil
}

func (m BrowserModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if quit, cmd := HandleQuitKeys(key); quit {
		m.Quitting = true
		return m, cmd
	}
	if HandleNavigationKeys(&m.table, key) {
		return m, nil
	}

	switch key {
	case "tab", "right", "l":
		m.switchTab((m.criteria.Tab + 1) % len(Tabs))
	case "shift+tab", "left", "h":
		m.switchTab((m.criteria.Tab + len(Tabs) - 1) % len(Tabs))
	case "c":
		if Tabs[m.criteria.Tab].HasEditions() {
			m.criteria.Community = !m.criteria.Community
			m.reloadTop()
		}
	case "a":
		m.criteria.ARM64 = !m.criteria.ARM64
		m.reloadTop()
	case "m":
		m.criteria.UniqueMajor = !m.criteria.UniqueMajor
		m.reloadTop()
	case "/":
		return m.openInput(inputName, m.criteria.Name)
	case "t":
		return m.openInput(inputTag, m.criteria.Tag)
	case "esc":
		if m.criteria.Name != "" || m.criteria.Tag != "" {
			m.criteria.Name, m.criteria.Tag = "", ""
			m.reloadTop()
		}
	case "e":
		if ref, ok := m.selected(); ok {
			m.expanded[ref.image.FullName] = !m.expanded[ref.image.FullName]
			m.reload()
		}
	case "enter":
		return m.activate()
	case "p":
		if ref, ok := m.selectedTag(); ok {
			return m, m.pullCmd(ref)
		}
	case "d":
		if ref, ok := m.selectedTag(); ok {
			return m.openConfirm(ref)
		}
	case "y":
		if ref, ok := m.selectedTag(); ok {
			cmd := m.copyText(pullstate.Key(ref.image.FullName, ref.tag))
			return m, cmd
		}
	case "r":
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.refreshCmd())
	case "?":
		m.help = newHelpOverlay(m.catalog.LatestRef("iris-community", m.criteria.Arch()))
	}
	return m, nil
}

// activate runs the action the selected row offers
func (m BrowserModel) activate() (tea.Model, tea.Cmd) {
	ref, ok := m.selected()
	if !ok {
		return m, nil
	}
	switch ref.kind {
	case rowMore:
		m.expanded[ref.image.FullName] = true
		m.reload()
		return m, nil
	case rowEmpty:
		return m, nil
	}
	if !m.catalog.CanExecute() {
		cmd := m.setStatus(host.LevelWarning, "No container runtime available")
		return m, cmd
	}
	switch m.catalog.Status(ref.image.FullName, ref.tag).Phase() {
	case pullstate.StatusNope:
		return m, m.pullCmd(ref)
	case pullstate.StatusIdle:
		return m.openConfirm(ref)
	}
	return m, nil
}

func (m *BrowserModel) copyText(text string) tea.Cmd {
	if err := m.clipboard.Copy(text); err != nil {
		return m.setStatus(host.LevelError, "Copy failed: "+err.Error())
	}
	return m.setStatus(host.LevelInfo, "Copied "+text)
}

func (m BrowserModel) openConfirm(ref rowRef) (tea.Model, tea.Cmd) {
	confirmed := false
	m.confirm = &confirmed
	m.pending = ref
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Delete " + pullstate.Key(ref.image.FullName, ref.tag) + "?").
				Description("The image is removed from the local container runtime.").
				Affirmative("Delete").
				Negative("Cancel").
				Value(m.confirm),
		),
	).WithTheme(NewAppTheme()).WithShowHelp(false).WithWidth(m.Layout.InnerWidth)
	return m, m.form.Init()
}

func (m BrowserModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		m.form = nil
		return m, nil
	}

	model, cmd := m.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		ref, confirmed := m.pending, *m.confirm
		m.form, m.confirm = nil, nil
		if confirmed {
			return m, m.deleteCmd(ref)
		}
		return m, nil
	case huh.StateAborted:
		m.form, m.confirm = nil, nil
		return m, nil
	}
	return m, cmd
}

func (m BrowserModel) openInput(target inputTarget, value string) (tea.Model, tea.Cmd) {
	m.target = target
	m.input.Prompt = "name: "
	if target == inputTag {
		m.input.Prompt = "tag: "
	}
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m BrowserModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.target = inputNone
		m.input.Blur()
		return m, nil
	case "esc":
		m.setFilterText("")
		m.target = inputNone
		m.input.Blur()
		m.reloadTop()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.setFilterText(m.input.Value())
	m.reloadTop()
	return m, cmd
}

func (m *BrowserModel) setFilterText(value string) {
	switch m.target {
	case inputName:
		m.criteria.Name = value
	case inputTag:
		m.criteria.Tag = value
	}
}

func (m BrowserModel) handleHelpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "?", "q":
		m.help = nil
	case "up", "k":
		m.help.move(-1)
	case "down", "j":
		m.help.move(1)
	case "y", "enter":
		cmd := m.copyText(m.help.selected().value)
		return m, cmd
	case "o":
		item := m.help.selected()
		if !item.url {
			return m, nil
		}
		if err := m.opener.Open(item.value); err != nil {
			cmd := m.setStatus(host.LevelError, "Failed to open browser: "+err.Error())
			return m, cmd
		}
		cmd := m.setStatus(host.LevelInfo, "Opened "+item.value)
		return m, cmd
	}
	return m, nil
}

func (m *BrowserModel) switchTab(tab int) {
	m.criteria.Tab = tab
	m.reloadTop()
}

func (m *BrowserModel) reloadTop() {
	m.reload()
	m.table.GotoTop()
}

// reload rebuilds the rows from the catalog, keeping the cursor in range
func (m *BrowserModel) reload() {
	images := m.catalog.Filter(m.criteria.Filter())
	m.refs = buildRows(images, m.expanded)
	rows := renderRows(m.refs, m.catalog.Status, m.criteria.MajorWidth, m.catalog.CanExecute())

	cursor := m.table.Cursor()
	m.table.SetRows(rows)
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}
	m.table.SetCursor(max(cursor, 0))
}

func (m BrowserModel) selected() (rowRef, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.refs) {
		return rowRef{}, false
	}
	return m.refs[i], true
}

func (m BrowserModel) selectedTag() (rowRef, bool) {
	ref, ok := m.selected()
	if !ok || ref.kind != rowTag {
		return rowRef{}, false
	}
	return ref, true
}

// Criteria returns the current filter criteria
func (m BrowserModel) Criteria() Criteria {
	return m.criteria
}

func (m BrowserModel) View() string {
	if m.Quitting {
		return ""
	}
	width := m.Layout.InnerWidth

	if m.help != nil {
		return BuildTwoBoxView(m.help.view(width), "↑/↓: select | y: copy | o: open | esc: close", m.Layout)
	}

	var b strings.Builder
	b.WriteString(RenderTitle("ICR Browser"))
	b.WriteString("  ")
	b.WriteString(RenderDim(m.catalog.Registry()))
	if at := m.catalog.LoadedAt(); !at.IsZero() {
		b.WriteString(RenderDim("  as of " + at.Local().Format(loadedAtFormat)))
	}
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.renderToggles())
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", width))
	b.WriteString("\n")

	switch {
	case m.form != nil:
		b.WriteString("\n")
		b.WriteString(m.form.View())
	case m.loading && len(m.refs) == 0:
		b.WriteString("\n")
		b.WriteString(m.spinner.View() + " Loading images from " + m.catalog.Registry() + "...")
	case len(m.refs) == 0:
		b.WriteString("\n")
		b.WriteString(HintStyle.Render("No images match the current filters"))
	default:
		b.WriteString(RenderTableWithSelection(m.table, m.Layout))
	}

	b.WriteString("\n\n")
	switch {
	case m.target != inputNone:
		b.WriteString(m.input.View())
	case m.loading && len(m.refs) > 0:
		b.WriteString(m.spinner.View() + " Refreshing...")
	default:
		b.WriteString(m.RenderStatus())
	}

	return BuildTwoBoxView(b.String(), m.helpText(), m.Layout)
}

func (m BrowserModel) renderTabs() string {
	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		if i == m.criteria.Tab {
			parts[i] = RenderTabActive(tab.Name)
		} else {
			parts[i] = RenderTabInactive(tab.Name)
		}
	}
	return strings.Join(parts, " ") + "  " + RenderDim("(Tab/←/→)")
}

func (m BrowserModel) renderToggles() string {
	var parts []string
	if Tabs[m.criteria.Tab].HasEditions() {
		parts = append(parts, RenderToggle("c", "community", m.criteria.Community))
	}
	parts = append(parts,
		RenderToggle("a", "arm64", m.criteria.ARM64),
		RenderToggle("m", "major versions", m.criteria.UniqueMajor),
	)
	if m.criteria.Name != "" {
		parts = append(parts, AccentStyle.Render(fmt.Sprintf("name~%q", m.criteria.Name)))
	}
	if m.criteria.Tag != "" {
		parts = append(parts, AccentStyle.Render(fmt.Sprintf("tag~%q", m.criteria.Tag)))
	}
	return strings.Join(parts, "  ")
}

func (m BrowserModel) helpText() string {
	switch {
	case m.form != nil:
		return "←/→: choose | enter: confirm | esc: cancel"
	case m.target != inputNone:
		return "type to filter | enter: keep | esc: clear"
	}
	return "enter: pull/delete | y: copy | e: expand | c/a/m: toggles | /,t: filter | r: reload | ?: help | q: quit"
}
