package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
	"github.com/thesavant42/icr-browser/internal/catalog"
	"github.com/thesavant42/icr-browser/internal/models"
	"github.com/thesavant42/icr-browser/internal/pullstate"
)

const reg = catalog.DefaultRegistry

type fakeCatalog struct {
	images   []models.Image
	statuses map[string]pullstate.Status
	canExec  bool
	loadErr  error
	loadedAt time.Time

	mu      sync.Mutex
	pulls   []string
	deletes []string
}

func newFakeCatalog(t *testing.T) *fakeCatalog {
	t.Helper()
	images, err := catalog.Normalize(models.Listing{Repositories: []models.Repository{
		{Repository: "intersystems/iris-community", Tags: []string{"2023.1.0.1", "2023.1.0.2", "2024.1.0.1", "2024.2.0.1", "2025.1.0.1", "latest"}},
		{Repository: "intersystems/iris", Tags: []string{"2024.1"}},
		{Repository: "intersystems/webgateway", Tags: []string{"2024.1"}},
		{Repository: "iscinternal/iris-community", Tags: []string{"2024.1"}},
	}}, catalog.DefaultRules())
	require.NoError(t, err)
	return &fakeCatalog{images: images, statuses: map[string]pullstate.Status{}, canExec: true}
}

func (f *fakeCatalog) Registry() string              { return reg }
func (f *fakeCatalog) LoadedAt() time.Time           { return f.loadedAt }
func (f *fakeCatalog) Load(context.Context) error    { return f.loadErr }
func (f *fakeCatalog) Refresh(context.Context) error { return f.loadErr }
func (f *fakeCatalog) CanExecute() bool              { return f.canExec }

func (f *fakeCatalog) LatestRef(name, arch string) string {
	return catalog.LatestRef(f.images, name, arch)
}

func (f *fakeCatalog) Filter(filter models.ImageFilter) []models.Image {
	return catalog.FilterImages(f.images, filter)
}

func (f *fakeCatalog) Status(fullName, tag string) pullstate.Status {
	if s, ok := f.statuses[pullstate.Key(fullName, tag)]; ok {
		return s
	}
	return pullstate.StatusNope
}

func (f *fakeCatalog) Pull(_ context.Context, fullName, tag string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulls = append(f.pulls, pullstate.Key(fullName, tag))
	return nil
}

func (f *fakeCatalog) Delete(_ context.Context, fullName, tag string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, pullstate.Key(fullName, tag))
	return nil
}

type fakeClipboard struct{ text string }

func (c *fakeClipboard) Copy(text string) error {
	c.text = text
	return nil
}

type fakeOpener struct{ urls []string }

func (o *fakeOpener) Open(url string) error {
	o.urls = append(o.urls, url)
	return nil
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func update(t *testing.T, m BrowserModel, msg tea.Msg) (BrowserModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	bm, ok := next.(BrowserModel)
	require.True(t, ok)
	return bm, cmd
}

func press(t *testing.T, m BrowserModel, keys ...string) BrowserModel {
	t.Helper()
	for _, k := range keys {
		m, _ = update(t, m, keyMsg(k))
	}
	return m
}

func newLoadedBrowser(t *testing.T, fc *fakeCatalog) (BrowserModel, *fakeClipboard, *fakeOpener) {
	t.Helper()
	clip, opener := &fakeClipboard{}, &fakeOpener{}
	m := NewBrowserModel(context.Background(), fc, BrowserOptions{MajorWidth: 2, Clipboard: clip, Opener: opener})
	m.criteria.ARM64 = false
	m, _ = update(t, m, loadDoneMsg{})
	require.False(t, m.loading)
	return m, clip, opener
}

func tagsOf(refs []rowRef) []string {
	var tags []string
	for _, r := range refs {
		if r.kind == rowTag {
			tags = append(tags, r.tag)
		}
	}
	return tags
}

func TestBrowserCollapsesAndExpands(t *testing.T) {
	m, _, _ := newLoadedBrowser(t, newFakeCatalog(t))

	require.Len(t, m.refs, 4)
	require.Equal(t, []string{"latest", "2025.1.0.1", "2024.2.0.1"}, tagsOf(m.refs))
	require.Equal(t, rowMore, m.refs[3].kind)
	require.Equal(t, 2, m.refs[3].hidden)

	m = press(t, m, "j", "j", "j", "enter")
	require.Equal(t, []string{"latest", "2025.1.0.1", "2024.2.0.1", "2024.1.0.1", "2023.1.0.2"}, tagsOf(m.refs))

	m = press(t, m, "m")
	require.False(t, m.criteria.UniqueMajor)
	require.Len(t, tagsOf(m.refs), 6)
	require.Equal(t, 0, m.table.Cursor())
}

func TestBrowserTabsAndToggles(t *testing.T) {
	m, _, _ := newLoadedBrowser(t, newFakeCatalog(t))

	m = press(t, m, "c")
	require.False(t, m.criteria.Community)
	require.Equal(t, "iris", m.refs[0].image.Name)
	m = press(t, m, "c")

	m = press(t, m, "tab")
	require.Equal(t, 1, m.criteria.Tab)
	require.Len(t, m.refs, 1)
	require.Equal(t, "webgateway", m.refs[0].image.Name)

	// no edition toggle on the tools tab
	m = press(t, m, "c")
	require.True(t, m.criteria.Community)

	m = press(t, m, "tab")
	require.Equal(t, "INTERNAL", Tabs[m.criteria.Tab].Name)
	require.Equal(t, catalog.InternalRoot, m.refs[0].image.Root)

	m = press(t, m, "tab")
	require.Equal(t, 0, m.criteria.Tab)
}

func TestBrowserNameFilter(t *testing.T) {
	m, _, _ := newLoadedBrowser(t, newFakeCatalog(t))
	m = press(t, m, "tab", "/", "x")
	require.Equal(t, "x", m.criteria.Name)
	require.Empty(t, m.refs)
	require.Contains(t, ansi.Strip(m.View()), "No images match")

	m = press(t, m, "esc")
	require.Equal(t, inputNone, m.target)
	require.Empty(t, m.criteria.Name)
	require.Len(t, m.refs, 1)
}

func TestBrowserPull(t *testing.T) {
	fc := newFakeCatalog(t)
	m, _, _ := newLoadedBrowser(t, fc)
	m = press(t, m, "tab")

	m, cmd := update(t, m, keyMsg("enter"))
	require.NotNil(t, cmd)
	require.Nil(t, cmd())
	require.Equal(t, []string{reg + "/intersystems/webgateway:2024.1"}, fc.pulls)

	fc.statuses[reg+"/intersystems/webgateway:2024.1"] = pullstate.Pulling(40)
	m, _ = update(t, m, StatusMsg{Key: reg + "/intersystems/webgateway:2024.1", Status: pullstate.Pulling(40)})
	require.Equal(t, "40%", ansi.Strip(m.table.Rows()[0][3]))
}

func TestBrowserDeleteConfirmCancelled(t *testing.T) {
	fc := newFakeCatalog(t)
	fc.statuses[reg+"/intersystems/webgateway:2024.1"] = pullstate.StatusIdle
	m, _, _ := newLoadedBrowser(t, fc)
	m = press(t, m, "tab")
	require.Equal(t, "Delete", m.table.Rows()[0][3])

	m = press(t, m, "enter")
	require.NotNil(t, m.form)
	require.Equal(t, "webgateway", m.pending.image.Name)

	m = press(t, m, "esc")
	require.Nil(t, m.form)
	require.Empty(t, fc.deletes)
}

func TestBrowserWithoutRuntime(t *testing.T) {
	fc := newFakeCatalog(t)
	fc.canExec = false
	m, _, _ := newLoadedBrowser(t, fc)
	m = press(t, m, "tab")
	require.Equal(t, "", m.table.Rows()[0][3])

	m, cmd := update(t, m, keyMsg("enter"))
	require.NotNil(t, cmd)
	require.Equal(t, "warning", m.StatusLevel)
	require.Empty(t, fc.pulls)
}

func TestBrowserCopy(t *testing.T) {
	m, clip, _ := newLoadedBrowser(t, newFakeCatalog(t))
	m = press(t, m, "tab", "y")
	require.Equal(t, reg+"/intersystems/webgateway:2024.1", clip.text)
	require.Equal(t, "Copied "+clip.text, m.StatusMsg)
}

func TestBrowserHelpOverlay(t *testing.T) {
	m, clip, opener := newLoadedBrowser(t, newFakeCatalog(t))
	m = press(t, m, "?")
	require.NotNil(t, m.help)

	run := m.help.selected()
	require.Equal(t, runCommand+reg+"/intersystems/iris-community:2025.1.0.1", run.value)

	m = press(t, m, "o")
	require.Empty(t, opener.urls)
	m = press(t, m, "y")
	require.Equal(t, run.value, clip.text)

	m = press(t, m, "j", "o")
	require.Equal(t, []string{PortalURL}, opener.urls)

	m = press(t, m, "esc")
	require.Nil(t, m.help)
}

func TestBrowserShowsListingAge(t *testing.T) {
	fc := newFakeCatalog(t)
	m, _, _ := newLoadedBrowser(t, fc)
	require.NotContains(t, ansi.Strip(m.View()), "as of")

	fc.loadedAt = time.Date(2026, 10, 1, 9, 30, 0, 0, time.Local)
	view := ansi.Strip(m.View())
	require.Contains(t, view, "as of")
	require.Contains(t, view, "2026-10-01")
}

func TestBrowserLoadError(t *testing.T) {
	fc := newFakeCatalog(t)
	fc.loadErr = errors.New("registry unreachable")
	m := NewBrowserModel(context.Background(), fc, BrowserOptions{Clipboard: &fakeClipboard{}, Opener: &fakeOpener{}})
	m, cmd := update(t, m, loadDoneMsg{err: fc.loadErr})
	require.NotNil(t, cmd)
	require.Equal(t, "error", m.StatusLevel)
	require.Contains(t, ansi.Strip(m.View()), "registry unreachable")
}

func TestRenderTag(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"2024.1.0.123.0", "2024.1.0.123.0"},
		{"2024.1", "2024.1"},
		{"latest", "latest"},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			require.Equal(t, tt.want, ansi.Strip(renderTag(tt.tag, 2)))
		})
	}
}

func TestActionLabel(t *testing.T) {
	tests := []struct {
		status  pullstate.Status
		canExec bool
		want    string
	}{
		{pullstate.StatusNope, true, "Pull"},
		{pullstate.StatusNope, false, ""},
		{pullstate.StatusIdle, true, "Delete"},
		{pullstate.StatusIdle, false, "pulled"},
		{pullstate.StatusPull, true, "pulling"},
		{pullstate.Pulling(7), true, "7%"},
		{pullstate.StatusRemove, true, "removing"},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			require.Equal(t, tt.want, ansi.Strip(actionLabel(tt.status, tt.canExec)))
		})
	}
}

func TestCriteriaFilter(t *testing.T) {
	c := DefaultCriteria(2)
	c.Tab = 2
	c.ARM64 = true
	f := c.Filter()
	require.Equal(t, models.KindPrimary, f.Kind)
	require.Equal(t, catalog.InternalRoot, f.Root)
	require.Equal(t, models.ArchARM64, f.Arch)
	require.True(t, f.Community)
	require.True(t, f.UniqueMajor)
	require.Equal(t, 2, f.MajorWidth)
}

func TestBuildRowsEmptyImage(t *testing.T) {
	refs := buildRows([]models.Image{{Name: "sam", FullName: reg + "/intersystems/sam"}}, nil)
	require.Len(t, refs, 1)
	require.Equal(t, rowEmpty, refs[0].kind)
	rows := renderRows(refs, func(string, string) pullstate.Status { return pullstate.StatusNope }, 2, true)
	require.Equal(t, "sam", rows[0][1])
	require.True(t, strings.Contains(ansi.Strip(rows[0][2]), "no tags"))
}
