package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/consolelens/internal/prefs"
	"github.com/five82/consolelens/internal/render"
	"github.com/five82/consolelens/internal/search"
	"github.com/five82/consolelens/internal/session"
	"github.com/five82/consolelens/internal/severity"
	"github.com/five82/consolelens/internal/source"
	"github.com/five82/consolelens/internal/state"
)

type fakeProvider struct {
	content   string
	streamErr error
}

func (f *fakeProvider) Content(context.Context) (string, error) { return f.content, nil }

func (f *fakeProvider) Stream(context.Context) (io.ReadCloser, error) {
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return io.NopCloser(strings.NewReader(f.content)), nil
}

func (f *fakeProvider) Describe() string { return "fake" }
func (f *fakeProvider) Fallback() string { return "https://ci.example/job/app/1/consoleText" }

func newTestModel(t *testing.T, provider source.Provider) (Model, *state.Store) {
	t.Helper()
	store := &state.Store{}
	m := New(Options{
		Store:     store,
		Provider:  provider,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	})
	m = drive(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	return m, store
}

// drive delivers msg and every message produced by the resulting commands.
// Ticks are not followed.
func drive(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	queue := []tea.Msg{msg}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 10000 {
			t.Fatal("message loop did not settle")
		}
		next := queue[0]
		queue = queue[1:]

		switch next := next.(type) {
		case nil, tickMsg:
			continue
		case tea.BatchMsg:
			for _, cmd := range next {
				if cmd != nil {
					queue = append(queue, cmd())
				}
			}
			continue
		}

		updated, cmd := m.Update(next)
		m = updated.(Model)
		if cmd != nil {
			queue = append(queue, cmd())
		}
	}
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+down":
		return tea.KeyMsg{Type: tea.KeyShiftDown}
	case "shift+up":
		return tea.KeyMsg{Type: tea.KeyShiftUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func typeKeys(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		m = drive(t, m, keyMsg(k))
	}
	return m
}

func consoleLines(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		switch {
		case i == 700:
			b.WriteString("ERROR: compilation failed\n")
		case i%10 == 0:
			b.WriteString(fmt.Sprintf("[INFO] step %d\n", i))
		default:
			b.WriteString(fmt.Sprintf("plain output %d\n", i))
		}
	}
	return b.String()
}

func TestSnapshotRendersInUnits(t *testing.T) {
	m, store := newTestModel(t, nil)

	store.Update(consoleLines(1200), nil, nil)
	m = drive(t, m, snapshotMsg(store.Snapshot()))

	if got := m.session.Len(); got != 1200 {
		t.Fatalf("session.Len() = %d, want 1200", got)
	}
	if got := m.session.Pending(); got != 0 {
		t.Fatalf("session.Pending() = %d, want 0", got)
	}
	if got := m.logState.cursor; got != 1199 {
		t.Fatalf("cursor = %d, want 1199 (followed to end)", got)
	}
	if got := m.stats.Count(severity.Error); got != 1 {
		t.Fatalf("error count = %d, want 1", got)
	}

	// Same version is not ingested twice.
	m = drive(t, m, snapshotMsg(store.Snapshot()))
	if got := m.session.Len(); got != 1200 {
		t.Fatalf("session.Len() after repeat = %d, want 1200", got)
	}
}

func TestLogWindowRendersOnlyShownRows(t *testing.T) {
	m, store := newTestModel(t, nil)
	store.Update(consoleLines(1200), nil, nil)
	m = drive(t, m, snapshotMsg(store.Snapshot()))

	height := m.logHeight()
	content := m.renderLogContent()
	if got := strings.Count(content, "\n") + 1; got != height {
		t.Fatalf("rendered %d rows, want %d", got, height)
	}
	if !strings.Contains(content, render.LineNumber(1199)+" │") {
		t.Fatal("followed window should end at the last line")
	}
	if !m.nearEnd() {
		t.Fatal("followed window should be at the end")
	}

	m = typeKeys(t, m, "E")
	content = m.renderLogContent()
	if !strings.Contains(content, render.LineNumber(700)+" │") {
		t.Fatal("window should contain the first error after E")
	}
	if got := strings.Count(content, "\n") + 1; got != height {
		t.Fatalf("rendered %d rows after E, want %d", got, height)
	}
	if m.nearEnd() {
		t.Fatal("jumping to the error should leave the end")
	}

	m = typeKeys(t, m, "g")
	if m.logState.offset != 0 {
		t.Fatalf("offset after g = %d, want 0", m.logState.offset)
	}
	if content = m.renderLogContent(); strings.Contains(content, render.LineNumber(700)+" │") {
		t.Fatal("window at the top should not contain line 701")
	}
}

func TestStaleRenderUnitIgnored(t *testing.T) {
	m, store := newTestModel(t, nil)

	store.Update(consoleLines(10), nil, nil)
	snap := store.Snapshot()
	updated, cmd := m.Update(snapshotMsg(snap))
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected a render unit to be scheduled")
	}
	stale := cmd()

	m.resetView()
	m = drive(t, m, stale)
	if got := m.session.Len(); got != 0 {
		t.Fatalf("stale unit rendered %d records, want 0", got)
	}
}

func TestSearchAndMatchNavigation(t *testing.T) {
	m, store := newTestModel(t, nil)
	store.Update("alpha one\nbeta\nalpha two\ngamma\nalpha three\n", nil, nil)
	m = drive(t, m, snapshotMsg(store.Snapshot()))

	m = typeKeys(t, m, "/", "a", "l", "p", "enter")
	if m.logState.searchActive {
		t.Fatal("search prompt still open after enter")
	}
	if got := m.session.Query(); got != "alp" {
		t.Fatalf("query = %q, want alp", got)
	}
	if got := len(m.session.Matches()); got != 3 {
		t.Fatalf("matches = %d, want 3", got)
	}
	if m.logState.cursor != 0 {
		t.Fatalf("cursor = %d, want 0", m.logState.cursor)
	}
	if m.session.Follow() {
		t.Fatal("jumping to a match should pause follow")
	}

	m = typeKeys(t, m, "n")
	if m.logState.cursor != 2 {
		t.Fatalf("after n cursor = %d, want 2", m.logState.cursor)
	}
	m = typeKeys(t, m, "N", "N")
	if m.logState.cursor != 4 {
		t.Fatalf("after N N cursor = %d, want 4 (wrapped)", m.logState.cursor)
	}

	status := m.renderLogStatus(m.theme.Styles(), NewBgStyle(m.theme.FocusBg))
	if !strings.Contains(status, "3/3") {
		t.Fatalf("status %q missing match position", status)
	}

	m = typeKeys(t, m, "esc")
	if m.session.Query() != "" {
		t.Fatalf("query = %q after esc, want empty", m.session.Query())
	}
}

func TestShortQueryMatchesNothing(t *testing.T) {
	m, store := newTestModel(t, nil)
	store.Update("a\nb\n", nil, nil)
	m = drive(t, m, snapshotMsg(store.Snapshot()))

	m = typeKeys(t, m, "/", "a", "enter")
	if m.session.Searching() {
		t.Fatal("single character query should not search")
	}
	status := m.renderLogStatus(m.theme.Styles(), NewBgStyle(m.theme.FocusBg))
	if !strings.Contains(status, "2+ characters") {
		t.Fatalf("status %q missing minimum length hint", status)
	}
}

func TestLevelTogglesSavePrefs(t *testing.T) {
	m, store := newTestModel(t, nil)
	store.Update("ERROR one\n[INFO] two\n[DEBUG] three\nplain\n", nil, nil)
	m = drive(t, m, snapshotMsg(store.Snapshot()))

	m = typeKeys(t, m, "-")
	if got := len(m.session.Visible()); got != 2 {
		t.Fatalf("visible after collapse = %d, want 2", got)
	}

	saved, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if got := saved.Levels(); got.Has(severity.Info) || got.Has(severity.Debug) {
		t.Fatalf("saved levels = %s, want INFO and DEBUG hidden", got)
	}

	m = typeKeys(t, m, "+", "1")
	if got := m.session.Levels(); got.Has(severity.Error) {
		t.Fatalf("levels = %s, want ERROR hidden", got)
	}
	if got := len(m.session.Visible()); got != 3 {
		t.Fatalf("visible = %d, want 3", got)
	}
	if m.session.Levels() == search.AllLevels() {
		t.Fatal("levels should not be all after toggling ERROR off")
	}
}

func TestLandmarkNavigation(t *testing.T) {
	m, store := newTestModel(t, nil)
	content := strings.Join([]string{
		"[Pipeline] stage",
		"[Pipeline] { (Build)",
		"compiling",
		"ERROR: broke",
		"[Pipeline] }",
		"done",
	}, "\n") + "\n"
	store.Update(content, nil, nil)
	m = drive(t, m, snapshotMsg(store.Snapshot()))

	m = typeKeys(t, m, "E")
	if m.logState.cursor != 3 {
		t.Fatalf("first error cursor = %d, want 3", m.logState.cursor)
	}
	if m.session.Follow() {
		t.Fatal("jump should pause follow")
	}

	m = typeKeys(t, m, "G")
	if !m.session.Follow() {
		t.Fatal("G should resume follow")
	}
	if m.logState.cursor != 5 {
		t.Fatalf("cursor after G = %d, want 5", m.logState.cursor)
	}
}

func TestReloadStreamsFromProvider(t *testing.T) {
	provider := &fakeProvider{content: consoleLines(50)}
	m, store := newTestModel(t, provider)
	store.Update("stale\n", nil, nil)
	m = drive(t, m, snapshotMsg(store.Snapshot()))

	m = typeKeys(t, m, "R")
	if m.session.Reloading() {
		t.Fatal("reload still in progress after stream EOF")
	}
	if got := m.session.Len(); got != 50 {
		t.Fatalf("session.Len() = %d, want 50", got)
	}
	if m.session.Finished() {
		t.Fatal("reload alone should not finish a live stream")
	}

	done := false
	store.Update(provider.content, &done, nil)
	m = drive(t, m, snapshotMsg(store.Snapshot()))
	if !m.session.Finished() {
		t.Fatal("session should finish once the source reports done")
	}
	if got := m.session.Len(); got != 50 {
		t.Fatalf("session.Len() after finish = %d, want 50", got)
	}
}

func TestFinishedFileReleasesLastLine(t *testing.T) {
	m, store := newTestModel(t, nil)
	store.Update("one\ntwo", nil, nil)
	m = drive(t, m, snapshotMsg(store.Snapshot()))
	if got := m.session.Len(); got != 1 {
		t.Fatalf("session.Len() = %d, want 1 while the last line is partial", got)
	}

	settled := false
	store.Update("one\ntwo", &settled, nil)
	m = drive(t, m, snapshotMsg(store.Snapshot()))
	if got := m.session.Len(); got != 2 {
		t.Fatalf("session.Len() = %d, want 2 after the source settled", got)
	}

	growing := true
	store.Update("one\ntwo\nthree\n", &growing, nil)
	m = drive(t, m, snapshotMsg(store.Snapshot()))
	if got := m.session.Len(); got != 3 {
		t.Fatalf("session.Len() = %d, want 3 after growth", got)
	}
	if rec, _ := m.session.Record(1); rec.Text != "two" {
		t.Fatalf("record 1 = %q, want two", rec.Text)
	}
}

func TestSelectionCopiesInLogOrder(t *testing.T) {
	m, store := newTestModel(t, nil)
	store.Update("zero\none\ntwo\nthree\nfour\nfive\n", nil, nil)
	m = drive(t, m, snapshotMsg(store.Snapshot()))

	// Select line 1, then extend from it to line 3.
	m = typeKeys(t, m, "g", "j", "v", "j", "j", "V")
	if got := m.logState.selected.Indices(); !slices.Equal(got, []int{1, 2, 3}) {
		t.Fatalf("selected = %v, want [1 2 3]", got)
	}

	m = typeKeys(t, m, "j", "j", "v")
	text, n := m.selectedText()
	if n != 4 || text != "one\ntwo\nthree\nfive" {
		t.Fatalf("selectedText() = %q, %d", text, n)
	}

	// Toggling again removes a line.
	m = typeKeys(t, m, "v")
	if m.logState.selected.Has(5) {
		t.Fatal("second v should unselect the line")
	}

	m = typeKeys(t, m, "esc")
	if got := m.logState.selected.Len(); got != 0 {
		t.Fatalf("selection after esc = %d lines, want 0", got)
	}

	// Picked out of order, copied in order.
	m = typeKeys(t, m, "v", "k", "k", "k", "k", "v")
	if text, _ := m.selectedText(); text != "one\nfive" {
		t.Fatalf("selectedText() = %q, want one then five", text)
	}

	m = typeKeys(t, m, "esc", "shift+down", "shift+down")
	if got := m.logState.selected.Indices(); !slices.Equal(got, []int{1, 2, 3}) {
		t.Fatalf("shift range = %v, want [1 2 3]", got)
	}
	if m.logState.cursor != 3 {
		t.Fatalf("cursor = %d, want 3", m.logState.cursor)
	}
}

func TestSelectionExtendSkipsHiddenLines(t *testing.T) {
	s := newSelection()
	s.Toggle(2)
	s.Extend([]int{0, 2, 5, 7, 9}, 8)
	if got := s.Indices(); !slices.Equal(got, []int{2, 5, 7}) {
		t.Fatalf("Indices() = %v, want [2 5 7]", got)
	}

	s.Clear()
	s.Extend([]int{0, 2, 5}, 5)
	if got := s.Indices(); !slices.Equal(got, []int{5}) {
		t.Fatalf("Extend without anchor = %v, want [5]", got)
	}
}

func TestCopySelectionWithNothingSelected(t *testing.T) {
	m, store := newTestModel(t, nil)
	store.Update("one\n", nil, nil)
	m = drive(t, m, snapshotMsg(store.Snapshot()))

	m = typeKeys(t, m, "Y")
	if m.notice != "Nothing selected" {
		t.Fatalf("notice = %q, want Nothing selected", m.notice)
	}
}

func TestReloadFailureKeepsFallback(t *testing.T) {
	provider := &fakeProvider{streamErr: errors.New("dial tcp: connection refused")}
	m, _ := newTestModel(t, provider)
	m.session = session.New(session.Options{Source: "fake", Fallback: provider.Fallback()})

	m = typeKeys(t, m, "R")
	if m.reloadErr == nil {
		t.Fatal("expected reload error")
	}
	if m.reloadErr.Fallback != provider.Fallback() {
		t.Fatalf("fallback = %q", m.reloadErr.Fallback)
	}
	status := m.renderLogStatus(m.theme.Styles(), NewBgStyle(m.theme.FocusBg))
	if !strings.Contains(status, "OFFLINE") {
		t.Fatalf("status %q missing classified error", status)
	}
}

func TestNavigatorJumpsToRegion(t *testing.T) {
	m, store := newTestModel(t, nil)
	content := strings.Join([]string{
		"noise",
		"[Pipeline] { (Build)",
		"building",
		"[Pipeline] }",
		"[Pipeline] { (Test)",
		"testing",
		"[Pipeline] }",
	}, "\n") + "\n"
	store.Update(content, nil, nil)
	m = drive(t, m, snapshotMsg(store.Snapshot()))

	if got := len(m.session.Regions()); got < 2 {
		t.Fatalf("regions = %d, want at least 2", got)
	}

	m = typeKeys(t, m, "tab")
	if m.currentView != ViewNavigator {
		t.Fatal("tab should open the navigator")
	}
	m = typeKeys(t, m, "g", "j", "enter")
	if m.currentView != ViewLog {
		t.Fatal("enter should return to the log")
	}
	want := m.session.Regions()[1].Start
	if m.logState.cursor != want {
		t.Fatalf("cursor = %d, want region start %d", m.logState.cursor, want)
	}
}

func TestViewRendersWithoutPanicking(t *testing.T) {
	m, store := newTestModel(t, &fakeProvider{})
	if out := m.View(); !strings.Contains(out, "consolelens") {
		t.Fatalf("View() missing logo: %q", out)
	}
	store.Update(consoleLines(20), nil, nil)
	m = drive(t, m, snapshotMsg(store.Snapshot()))
	m = typeKeys(t, m, "tab")
	if out := m.View(); !strings.Contains(out, "Regions") {
		t.Fatalf("navigator View() missing title")
	}
	m = typeKeys(t, m, "?")
	if out := m.View(); !strings.Contains(out, "Keyboard Shortcuts") {
		t.Fatalf("help View() missing title")
	}
}
