// Package session composes the console pipeline for a single log stream:
// ingestion, classification, region tracking, chunked rendering and the
// filtered view. All methods must be called from one goroutine, usually
// the UI update loop or the scan loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/five82/consolelens/internal/ingest"
	"github.com/five82/consolelens/internal/metrics"
	"github.com/five82/consolelens/internal/navigation"
	"github.com/five82/consolelens/internal/render"
	"github.com/five82/consolelens/internal/search"
	"github.com/five82/consolelens/internal/severity"
)

// reloadChunkSize is the read size used by Reload.
const reloadChunkSize = 32 * 1024

// Options configure a Session. Zero values take the defaults.
type Options struct {
	Classifier *severity.Classifier
	Table      *navigation.Table
	Render     render.Options
	// NoFollow starts the session with auto-follow disabled.
	NoFollow bool
	// Levels is the initial visible level set; nil shows every level. An
	// empty set hides everything.
	Levels *search.LevelSet
	// Source describes where the content comes from, for logs and errors.
	Source string
	// Fallback is offered to the user when a bulk reload fails.
	Fallback string
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// ReloadError reports a failed bulk reload. The session is left empty.
type ReloadError struct {
	Source   string
	Fallback string
	Err      error
}

func (e *ReloadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("reload: %v", e.Err)
	}
	return fmt.Sprintf("reload %s: %v", e.Source, e.Err)
}

func (e *ReloadError) Unwrap() error {
	return e.Err
}

// Unit is a render unit plus the regions it completed.
type Unit struct {
	render.Unit
	Regions []navigation.Region
}

// Session is the pipeline state for one stream.
type Session struct {
	id      string
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics

	tracker    ingest.Tracker
	classifier *severity.Classifier
	machine    *navigation.Machine
	scheduler  *render.Scheduler
	index      *search.Index

	stats     severity.Stats
	history   []render.Record
	regions   []navigation.Region
	closed    []navigation.Region
	landmarks []int
	firstErr  int

	epoch     int
	finished  bool
	flushed   bool
	reloading bool
	// flushedRegion is the region Finish force-closed, kept so it can be
	// reopened if the stream resumes.
	flushedRegion *navigation.Region
}

// New returns an empty session.
func New(opts Options) *Session {
	if opts.Classifier == nil {
		opts.Classifier = severity.DefaultClassifier()
	}
	levels := search.AllLevels()
	if opts.Levels != nil {
		levels = *opts.Levels
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		id:         uuid.NewString(),
		opts:       opts,
		metrics:    opts.Metrics,
		classifier: opts.Classifier,
		machine:    navigation.NewMachine(opts.Table),
		index:      search.NewIndex(),
		firstErr:   -1,
	}
	s.logger = logger.With("session", s.id, "source", opts.Source)
	s.scheduler = render.NewScheduler(opts.Render, s.process)
	s.scheduler.SetFollow(!opts.NoFollow)
	s.index.SetLevels(levels)
	return s
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id
}

// Epoch changes on every reset. Hosts tag scheduled units with it and drop
// units from an older epoch.
func (s *Session) Epoch() int {
	return s.epoch
}

// Ingest accepts the full current content. It returns true when the host
// must schedule a render unit. Ingests are ignored during a bulk reload.
func (s *Session) Ingest(content string, nearEnd bool) bool {
	if s.reloading {
		return false
	}
	return s.accept(s.tracker.Ingest(content), nearEnd, "content")
}

// Finish marks the end of the stream. The held-back partial line is
// released and the open region is closed once the backlog drains.
func (s *Session) Finish() bool {
	s.finished = true
	schedule := s.scheduler.Enqueue(s.tracker.Finish(), false)
	if s.scheduler.Pending() == 0 {
		s.flush()
	}
	return schedule
}

func (s *Session) accept(d ingest.Delta, nearEnd bool, reason string) bool {
	if d.Reset {
		s.logger.Warn("content no longer extends previous content; re-ingesting",
			"lines_before", len(s.history))
		s.clear(reason)
	}
	if len(d.Lines) > 0 && s.finished {
		s.resume()
	}
	return s.scheduler.Enqueue(d.Lines, nearEnd)
}

func (s *Session) process(line ingest.Line) render.Record {
	lvl, color := s.classifier.Classify(line.Text)
	s.stats.Add(lvl)
	s.metrics.ObserveLine(lvl.String())

	step := s.machine.Feed(line.Text, line.Index)
	for _, r := range step.Closed {
		s.closeRegion(r)
	}

	if lvl == severity.Error && s.firstErr < 0 {
		s.firstErr = line.Index
	}
	if step.Opened || lvl == severity.Error {
		s.landmarks = append(s.landmarks, line.Index)
	}

	return render.Record{
		Index:     line.Index,
		Text:      line.Text,
		Level:     lvl,
		Color:     color,
		Region:    step.Current,
		Boundary:  step.Boundary(),
		ElementID: render.ElementID(line.Index, step.Opened),
	}
}

func (s *Session) closeRegion(r navigation.Region) {
	s.regions = append(s.regions, r)
	s.closed = append(s.closed, r)
	s.metrics.ObserveRegion(string(r.Kind), r.Outcome.String())
}

// RunUnit runs one render unit and folds its records into the history.
func (s *Session) RunUnit(hint time.Duration) Unit {
	u := s.scheduler.RunUnit(hint)
	s.history = append(s.history, u.Records...)
	s.index.Update(s.history)
	if !u.More && s.finished {
		s.flush()
	}
	s.metrics.ObserveUnit(u.Elapsed, s.scheduler.Pending())

	out := Unit{Unit: u, Regions: s.closed}
	s.closed = nil
	return out
}

// Drain runs units until the backlog is empty.
func (s *Session) Drain(ctx context.Context, hint time.Duration, yield func(Unit)) error {
	for s.scheduler.Pending() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		u := s.RunUnit(hint)
		if yield != nil {
			yield(u)
		}
	}
	return nil
}

func (s *Session) flush() {
	if s.flushed || len(s.history) == 0 {
		return
	}
	s.flushed = true
	if r, ok := s.machine.Flush(len(s.history) - 1); ok {
		s.closeRegion(r)
		s.flushedRegion = &r
	}
}

// resume reopens a stream that was marked finished because new output
// arrived. A region closed by the end of input becomes open again so its
// end marker can still match.
func (s *Session) resume() {
	s.finished = false
	s.flushed = false
	r := s.flushedRegion
	s.flushedRegion = nil
	if r == nil || len(s.regions) == 0 {
		return
	}
	last := s.regions[len(s.regions)-1]
	if last.Start != r.Start || !last.Forced {
		return
	}
	if s.machine.Reopen(last) {
		s.regions = s.regions[:len(s.regions)-1]
		s.logger.Debug("stream resumed; region reopened", "region", last.Name, "start", last.Start)
	}
}

// SetFollow toggles auto-follow.
func (s *Session) SetFollow(on bool) {
	s.scheduler.SetFollow(on)
}

// Follow reports whether auto-follow is enabled.
func (s *Session) Follow() bool {
	return s.scheduler.Follow()
}

// SetLevels changes which levels are visible.
func (s *Session) SetLevels(levels search.LevelSet) {
	s.index.SetLevels(levels)
	s.index.Update(s.history)
}

// Levels returns the visible level set.
func (s *Session) Levels() search.LevelSet {
	return s.index.Levels()
}

// SetQuery changes the search query.
func (s *Session) SetQuery(query string) {
	s.index.SetQuery(query)
	s.index.Update(s.history)
}

// Query returns the current search query.
func (s *Session) Query() string {
	return s.index.Query()
}

// Reset clears the tracker and all derived state. Controls survive.
func (s *Session) Reset() {
	s.tracker.Reset()
	s.clear("manual")
}

func (s *Session) clear(reason string) {
	s.machine.Reset()
	s.scheduler.Reset()
	s.index.Reset()
	s.stats.Reset()
	s.history = nil
	s.regions = nil
	s.closed = nil
	s.landmarks = nil
	s.firstErr = -1
	s.finished = false
	s.flushed = false
	s.flushedRegion = nil
	s.epoch++
	s.metrics.ObserveReset(reason)
	s.logger.Debug("session cleared", "reason", reason, "epoch", s.epoch)
}

// BeginReload clears the session and starts a bulk reload. Ordinary
// ingests are ignored until EndReload. Auto-follow is switched on so the
// view lands on the end of the reloaded log.
func (s *Session) BeginReload() {
	s.tracker.Reset()
	s.clear("reload")
	s.scheduler.SetFollow(true)
	s.reloading = true
	s.logger.Info("bulk reload started")
}

// ReloadChunk feeds the next piece of a bulk reload.
func (s *Session) ReloadChunk(chunk string) bool {
	if !s.reloading {
		return false
	}
	return s.accept(s.tracker.Append(chunk), true, "reload")
}

// EndReload completes a bulk reload. With a nil err the reloaded content
// stays open: a held-back partial line and the open region wait for more
// content or Finish. Otherwise the session is cleared and a *ReloadError
// returned.
func (s *Session) EndReload(err error) (bool, error) {
	if !s.reloading {
		return false, nil
	}
	s.reloading = false
	if err != nil {
		s.tracker.Reset()
		s.clear("reload_failed")
		s.logger.Error("bulk reload failed", "error", err, "fallback", s.opts.Fallback)
		return false, &ReloadError{Source: s.opts.Source, Fallback: s.opts.Fallback, Err: err}
	}
	s.logger.Info("bulk reload complete", "lines", s.tracker.Lines(), "held_back", len(s.tracker.Pending()))
	return false, nil
}

// Reload streams r through a bulk reload. The backlog is left for the
// caller to drain, and the stream is not finished.
func (s *Session) Reload(ctx context.Context, r io.Reader) error {
	s.BeginReload()
	buf := make([]byte, reloadChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			_, rerr := s.EndReload(err)
			return rerr
		}
		n, err := r.Read(buf)
		if n > 0 {
			s.ReloadChunk(string(buf[:n]))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_, rerr := s.EndReload(fmt.Errorf("read stream: %w", err))
			return rerr
		}
	}
	_, err := s.EndReload(nil)
	return err
}

// Reloading reports whether a bulk reload is in progress.
func (s *Session) Reloading() bool {
	return s.reloading
}

// Finished reports whether the stream was marked finished.
func (s *Session) Finished() bool {
	return s.finished
}

// Stats returns a snapshot of the severity counts.
func (s *Session) Stats() severity.Stats {
	return s.stats
}

// Records returns the rendered history. The slice must not be modified.
func (s *Session) Records() []render.Record {
	return s.history
}

// Record returns the record at index.
func (s *Session) Record(index int) (render.Record, bool) {
	if index < 0 || index >= len(s.history) {
		return render.Record{}, false
	}
	return s.history[index], true
}

// Len returns the number of rendered records.
func (s *Session) Len() int {
	return len(s.history)
}

// Pending returns the number of lines awaiting render.
func (s *Session) Pending() int {
	return s.scheduler.Pending()
}

// Regions returns completed regions followed by the open one, if any,
// which has End -1.
func (s *Session) Regions() []navigation.Region {
	out := make([]navigation.Region, len(s.regions), len(s.regions)+1)
	copy(out, s.regions)
	if r, ok := s.machine.Open(); ok {
		out = append(out, r)
	}
	return out
}

// Visible returns the indices of records passing the level filter.
func (s *Session) Visible() []int {
	return s.index.Visible()
}

// Matches returns the indices of visible records matching the query.
func (s *Session) Matches() []int {
	return s.index.Matches()
}

// Searching reports whether the query is long enough to produce matches.
func (s *Session) Searching() bool {
	return s.index.Searching()
}

// Position maps a record index to its row among the visible records.
func (s *Session) Position(index int) int {
	return s.index.Position(index)
}

// FirstError returns the index of the first ERROR line.
func (s *Session) FirstError() (int, bool) {
	return s.firstErr, s.firstErr >= 0
}

// NextLandmark returns the first region start or ERROR line after from.
func (s *Session) NextLandmark(from int) (int, bool) {
	i := sort.SearchInts(s.landmarks, from+1)
	if i >= len(s.landmarks) {
		return 0, false
	}
	return s.landmarks[i], true
}

// PrevLandmark returns the last region start or ERROR line before from.
func (s *Session) PrevLandmark(from int) (int, bool) {
	i := sort.SearchInts(s.landmarks, from)
	if i == 0 {
		return 0, false
	}
	return s.landmarks[i-1], true
}
