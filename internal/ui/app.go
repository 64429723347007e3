package ui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/consolelens/internal/prefs"
	"github.com/five82/consolelens/internal/session"
	"github.com/five82/consolelens/internal/severity"
	"github.com/five82/consolelens/internal/source"
	"github.com/five82/consolelens/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewLog View = iota
	ViewNavigator
)

// Options configures the UI.
type Options struct {
	Context    context.Context
	Session    *session.Session
	Store      *state.Store
	Provider   source.Provider
	Classifier *severity.Classifier
	// UnitBudget is the time slice hint passed to each render unit; zero
	// uses the scheduler's configured budget.
	UnitBudget time.Duration
	PollTick   time.Duration
	Prefs      prefs.Prefs
	PrefsPath  string
	Logger     *slog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx        context.Context
	session    *session.Session
	store      *state.Store
	provider   source.Provider
	classifier *severity.Classifier
	prefs      prefs.Prefs
	savedPrefs prefs.Prefs
	prefsPath  string
	pollTick   time.Duration
	unitBudget time.Duration
	logger     *slog.Logger
	keys       keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time
	ingested    uint64         // snapshot version last fed to the session
	stats       severity.Stats // published by the scheduler, throttled

	// Log state
	logViewport viewport.Model
	logState    logState

	// Navigator state
	navViewport viewport.Model
	navSelected int

	// Overlays and messages
	showHelp  bool
	reloadErr *session.ReloadError
	notice    string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = DefaultUIInterval
	}

	sess := opts.Session
	if sess == nil {
		sess = session.New(session.Options{Classifier: opts.Classifier})
	}
	classifier := opts.Classifier
	if classifier == nil {
		classifier = severity.DefaultClassifier()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := Model{
		ctx:         ctx,
		session:     sess,
		store:       opts.Store,
		provider:    opts.Provider,
		classifier:  classifier,
		prefs:       opts.Prefs,
		savedPrefs:  opts.Prefs,
		prefsPath:   prefsPath,
		pollTick:    pollTick,
		unitBudget:  opts.UnitBudget,
		logger:      logger,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(opts.Prefs.Theme),
		currentView: ViewLog,
		stats:       sess.Stats(),
	}
	m.initLogState()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
	}
	// Fetch snapshot immediately on start
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.logState.invalidate()
		m.updateLogViewport()
		m.updateNavViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		return m.handleSnapshot(state.Snapshot(msg))

	case renderUnitMsg:
		return m.handleRenderUnit(msg)

	case reloadChunkMsg:
		return m.handleReloadChunk(msg)

	case noticeMsg:
		m.notice = string(msg)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key closes help
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	// The search prompt owns the keyboard while open.
	if m.logState.searchActive {
		return m.handleLogSearchInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.logState.invalidate()
		m.updateLogViewport()
		m.updateNavViewport()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		m.toggleView()
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		cmd := m.startReload()
		return m, cmd

	case key.Matches(msg, m.keys.Reset):
		m.resetView()
		return m, nil
	}

	switch m.currentView {
	case ViewNavigator:
		return m.handleNavigatorKey(msg)
	default:
		return m.handleLogsKey(msg)
	}
}

// toggleView switches between the log and the region navigator.
func (m *Model) toggleView() {
	if m.currentView == ViewLog {
		m.currentView = ViewNavigator
		m.selectRegionAtCursor()
		m.updateNavViewport()
		return
	}
	m.currentView = ViewLog
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}

	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

// handleSnapshot feeds new content into the session. Units are scheduled
// as separate messages so the event loop stays responsive between them.
func (m Model) handleSnapshot(snap state.Snapshot) (tea.Model, tea.Cmd) {
	m.snapshot = snap
	m.lastUpdated = time.Now()

	if m.session.Reloading() || !snap.HasContent {
		return m, nil
	}

	schedule := false
	if snap.Version != m.ingested {
		m.ingested = snap.Version
		schedule = m.session.Ingest(snap.Content, m.nearEnd())
	}
	if snap.Finished() && !m.session.Finished() {
		if m.session.Finish() {
			schedule = true
		}
	}
	if schedule {
		return m, renderUnitCmd(m.session.Epoch())
	}
	return m, nil
}

// handleRenderUnit runs one work unit and schedules the next while the
// backlog is non-empty. Units from before a reset are dropped.
func (m Model) handleRenderUnit(msg renderUnitMsg) (tea.Model, tea.Cmd) {
	if msg.epoch != m.session.Epoch() {
		return m, nil
	}

	unit := m.session.RunUnit(m.unitBudget)
	if len(unit.Records) > 0 || len(unit.Regions) > 0 {
		m.logState.contentVersion++
	}
	if unit.StatsDue {
		m.stats = m.session.Stats()
	}
	m.updateLogViewport()
	if unit.ScrollToEnd {
		m.followToEnd()
	}
	if m.currentView == ViewNavigator && len(unit.Regions) > 0 {
		m.updateNavViewport()
	}

	if unit.More {
		return m, renderUnitCmd(msg.epoch)
	}
	return m, nil
}

// resetView clears the session. The next snapshot is ingested from scratch.
func (m *Model) resetView() {
	m.session.Reset()
	m.ingested = 0
	m.stats = m.session.Stats()
	m.reloadErr = nil
	m.notice = ""
	m.navSelected = 0
	m.logState.cursor = 0
	m.logState.offset = 0
	m.logState.selected.Clear()
	m.logState.matchIdx = 0
	m.logState.invalidate()
	m.updateLogViewport()
	m.updateNavViewport()
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" || prefs.Equal(m.prefs, m.savedPrefs) {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save prefs failed", "path", m.prefsPath, "error", err)
		return
	}
	m.savedPrefs = m.prefs
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	// Header line 1: logo + status
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Header line 2: command bar
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	// Main content
	switch m.currentView {
	case ViewNavigator:
		b.WriteString(m.renderNavigator())
	default:
		b.WriteString(m.renderLogs())
	}

	return b.String()
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// renderUnitMsg asks for the next work unit of the session epoch it was
// scheduled in.
type renderUnitMsg struct {
	epoch int
}

type noticeMsg string

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func renderUnitCmd(epoch int) tea.Cmd {
	return func() tea.Msg {
		return renderUnitMsg{epoch: epoch}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	// Cancellation from the signal handler is a normal exit.
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
