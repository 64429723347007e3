package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/five82/consolelens/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	// Verify that backoff never exceeds maxBackoff regardless of input
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type fakeSource struct {
	mu      sync.Mutex
	calls   int
	content string
	err     error
	live    *bool
}

func (f *fakeSource) Content(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.content, f.err
}

func (f *fakeSource) Stream(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(f.content)), nil
}

func (f *fakeSource) Describe() string { return "fake" }
func (f *fakeSource) Fallback() string { return "" }

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type liveSource struct {
	*fakeSource
}

func (l liveSource) Live(context.Context) (bool, error) {
	return *l.live, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestRefresh_RecordsContentAndErrors(t *testing.T) {
	store := &state.Store{}
	src := &fakeSource{content: "line\n"}

	refresh(context.Background(), store, src, nil, slog.Default())
	snap := store.Snapshot()
	if snap.Content != "line\n" || !snap.HasContent {
		t.Fatalf("snapshot = %+v, want content", snap)
	}
	if snap.HasLive {
		t.Fatal("file-like source should not report liveness")
	}

	src.err = errors.New("boom")
	refresh(context.Background(), store, src, nil, slog.Default())
	refresh(context.Background(), store, src, nil, slog.Default())
	snap = store.Snapshot()
	if snap.Content != "line\n" {
		t.Fatalf("content = %q, want previous content kept", snap.Content)
	}
	if snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("failures = %d, want 2 and offline", snap.ConsecutiveFailures)
	}
}

func TestRefresh_ReadsLiveness(t *testing.T) {
	store := &state.Store{}
	building := true
	src := liveSource{&fakeSource{content: "x\n", live: &building}}

	refresh(context.Background(), store, src, nil, slog.Default())
	snap := store.Snapshot()
	if !snap.HasLive || !snap.Live {
		t.Fatalf("snapshot live = %v/%v, want true/true", snap.HasLive, snap.Live)
	}
}

func TestStartPoller_StopsAfterFinished(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	building := false
	src := liveSource{&fakeSource{content: "done\n", live: &building}}
	store := &state.Store{}

	StartPoller(ctx, PollerOptions{Store: store, Provider: src, Interval: time.Millisecond})

	waitFor(t, func() bool { return src.Calls() >= finishedPolls })
	time.Sleep(50 * time.Millisecond)
	if got := src.Calls(); got != finishedPolls {
		t.Fatalf("polls = %d, want %d", got, finishedPolls)
	}
}

func TestStartPoller_TriggerPollsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &fakeSource{content: "a\n"}
	trigger := make(chan struct{}, 1)
	StartPoller(ctx, PollerOptions{Store: &state.Store{}, Provider: src, Interval: time.Hour, Trigger: trigger})

	waitFor(t, func() bool { return src.Calls() == 1 })
	trigger <- struct{}{}
	waitFor(t, func() bool { return src.Calls() == 2 })
}

func TestStartPoller_ResumableIdlesUntilTriggered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	settled := false
	src := liveSource{&fakeSource{content: "done\n", live: &settled}}
	trigger := make(chan struct{}, 1)
	StartPoller(ctx, PollerOptions{
		Store:     &state.Store{},
		Provider:  src,
		Interval:  time.Millisecond,
		Trigger:   trigger,
		Resumable: true,
	})

	waitFor(t, func() bool { return src.Calls() >= finishedPolls })
	time.Sleep(50 * time.Millisecond)
	if got := src.Calls(); got != finishedPolls {
		t.Fatalf("polls while idle = %d, want %d", got, finishedPolls)
	}

	trigger <- struct{}{}
	waitFor(t, func() bool { return src.Calls() == finishedPolls+1 })
}

func TestPollInterval(t *testing.T) {
	base := 2 * time.Second
	if got := pollInterval(base, largeLogLines); got != base {
		t.Fatalf("pollInterval at limit = %v, want %v", got, base)
	}
	if got := pollInterval(base, largeLogLines+1); got != 2*base {
		t.Fatalf("pollInterval for large log = %v, want %v", got, 2*base)
	}
}
