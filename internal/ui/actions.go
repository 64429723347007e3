package ui

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/consolelens/internal/session"
	"github.com/five82/consolelens/internal/source"
)

// reloadChunkMsg carries one read of a streamed reload. rc stays open
// until EOF or an error.
type reloadChunkMsg struct {
	epoch int
	rc    io.ReadCloser
	chunk string
	err   error
}

// startReload clears the session and streams the full log from the
// provider in chunks.
func (m *Model) startReload() tea.Cmd {
	if m.provider == nil {
		return nil
	}
	m.session.BeginReload()
	m.reloadErr = nil
	m.notice = ""
	m.logState.cursor = 0
	m.logState.matchIdx = 0
	m.logState.invalidate()
	m.updateLogViewport()

	ctx := m.ctx
	provider := m.provider
	epoch := m.session.Epoch()
	return func() tea.Msg {
		rc, err := provider.Stream(ctx)
		if err != nil {
			return reloadChunkMsg{epoch: epoch, err: err}
		}
		return readChunk(epoch, rc)
	}
}

func readChunkCmd(epoch int, rc io.ReadCloser) tea.Cmd {
	return func() tea.Msg {
		return readChunk(epoch, rc)
	}
}

func readChunk(epoch int, rc io.ReadCloser) reloadChunkMsg {
	buf := make([]byte, ReloadChunkSize)
	n, err := rc.Read(buf)
	return reloadChunkMsg{epoch: epoch, rc: rc, chunk: string(buf[:n]), err: err}
}

// handleReloadChunk feeds a streamed chunk and asks for the next one.
func (m Model) handleReloadChunk(msg reloadChunkMsg) (tea.Model, tea.Cmd) {
	if msg.epoch != m.session.Epoch() || !m.session.Reloading() {
		if msg.rc != nil {
			_ = msg.rc.Close()
		}
		return m, nil
	}

	var cmds []tea.Cmd
	schedule := false
	if msg.chunk != "" && m.session.ReloadChunk(msg.chunk) {
		schedule = true
	}

	if msg.err != nil {
		if msg.rc != nil {
			_ = msg.rc.Close()
		}
		var streamErr error
		if !errors.Is(msg.err, io.EOF) {
			streamErr = msg.err
		}
		more, err := m.session.EndReload(streamErr)
		if more {
			schedule = true
		}
		var reloadErr *session.ReloadError
		if errors.As(err, &reloadErr) {
			m.reloadErr = reloadErr
			m.logState.invalidate()
			m.updateLogViewport()
			// The failed reload cleared the session; the next snapshot
			// starts it over from the polled content.
			m.ingested = 0
		} else if m.snapshot.Finished() && m.session.Finish() {
			// The body ending is not the log ending; only a source that
			// stopped producing output finishes the stream.
			schedule = true
		}
		// EndReload on failure bumps the epoch.
		if schedule && err == nil {
			cmds = append(cmds, renderUnitCmd(m.session.Epoch()))
		}
		m.stats = m.session.Stats()
		return m, tea.Batch(cmds...)
	}

	if schedule {
		cmds = append(cmds, renderUnitCmd(m.session.Epoch()))
	}
	cmds = append(cmds, readChunkCmd(msg.epoch, msg.rc))
	return m, tea.Batch(cmds...)
}

// copyCursorLine copies the line under the cursor to the clipboard.
func (m *Model) copyCursorLine() tea.Cmd {
	rec, ok := m.session.Record(m.logState.cursor)
	if !ok {
		return nil
	}
	text := rec.Text
	line := rec.Index + 1
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return noticeMsg("Copy failed: " + err.Error())
		}
		return noticeMsg(fmt.Sprintf("Copied line %d", line))
	}
}

// copySelection copies the selected lines, in log order, to the clipboard.
func (m *Model) copySelection() tea.Cmd {
	text, n := m.selectedText()
	if n == 0 {
		m.notice = "Nothing selected"
		return nil
	}
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return noticeMsg("Copy failed: " + err.Error())
		}
		return noticeMsg(fmt.Sprintf("Copied %d lines", n))
	}
}

// saveLog writes the current console text to a file in the working
// directory.
func (m *Model) saveLog() tea.Cmd {
	content := m.snapshot.Content
	if content == "" {
		var b strings.Builder
		for _, rec := range m.session.Records() {
			b.WriteString(rec.Text)
			b.WriteByte('\n')
		}
		content = b.String()
	}
	if content == "" {
		m.notice = "Nothing to save"
		return nil
	}
	name := logFileName(m.provider)
	logger := m.logger
	return func() tea.Msg {
		if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
			logger.Warn("save log failed", "path", name, "error", err)
			return noticeMsg("Save failed: " + err.Error())
		}
		return noticeMsg("Saved " + name)
	}
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// logFileName derives a file name from the source: job path segments for
// Jenkins builds, the base name for files.
func logFileName(p source.Provider) string {
	var name string
	switch src := p.(type) {
	case *source.File:
		base := filepath.Base(src.Path())
		name = strings.TrimSuffix(base, filepath.Ext(base))
	case *source.Jenkins:
		if u, err := url.Parse(src.Describe()); err == nil {
			var segments []string
			for _, seg := range strings.Split(u.Path, "/") {
				if seg == "" || seg == "job" {
					continue
				}
				segments = append(segments, seg)
			}
			name = strings.Join(segments, "-")
		}
	}
	name = strings.Trim(unsafeFileChars.ReplaceAllString(name, "_"), "._-")
	if name == "" {
		name = "console"
	}
	return name + ".log"
}
