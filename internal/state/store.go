package state

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Snapshot represents the latest source data available to the UI.
type Snapshot struct {
	Content string
	// Version increases every time Content changes.
	Version uint64
	// Lines counts the newline-terminated lines in Content.
	Lines int
	// Live reports whether the source is still producing output. It is
	// only meaningful when HasLive is set.
	Live                bool
	HasLive             bool
	HasContent          bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the source has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Finished reports whether the source said it stopped producing output.
func (s Snapshot) Finished() bool {
	return s.HasLive && !s.Live
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update records a poll result. When err is non-nil the previous data is
// kept but the error is recorded for visibility. A nil live leaves the
// liveness unknown.
func (s *Store) Update(content string, live *bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	if !s.snapshot.HasContent || content != s.snapshot.Content {
		s.snapshot.Content = content
		s.snapshot.Lines = strings.Count(content, "\n")
		s.snapshot.Version++
	}
	s.snapshot.HasContent = true
	if live != nil {
		s.snapshot.Live = *live
		s.snapshot.HasLive = true
	}
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
