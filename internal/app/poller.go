package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/consolelens/internal/metrics"
	"github.com/five82/consolelens/internal/source"
	"github.com/five82/consolelens/internal/state"
)

const (
	defaultPollInterval = 2 * time.Second
	maxBackoff          = 30 * time.Second
	// finishedPolls is how many more polls run after a source reports it
	// stopped, to pick up output written while the build was wrapping up.
	finishedPolls = 3
	// Logs longer than largeLogLines are polled half as often; every poll
	// copies the whole content.
	largeLogLines = 10000
	// idleInterval paces polls of a settled source that may resume.
	idleInterval = maxBackoff
)

// PollerOptions configure StartPoller.
type PollerOptions struct {
	Store    *state.Store
	Provider source.Provider
	Interval time.Duration
	// Trigger requests an immediate poll, typically from a file watcher.
	Trigger <-chan struct{}
	// Resumable sources, such as local files, can grow again after they
	// report finished. They idle instead of stopping.
	Resumable bool
	Metrics   *metrics.Metrics
	Logger  *slog.Logger
}

// StartPoller launches a background goroutine that refreshes the store.
// It backs off while the source is failing and slows down for large logs.
// Shortly after the source reports it finished, polling stops, or for a
// resumable source drops to the trigger plus an idle interval. It returns
// immediately.
func StartPoller(ctx context.Context, opts PollerOptions) {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	trigger := opts.Trigger

	go func() {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		remaining := finishedPolls
		for {
			refresh(ctx, opts.Store, opts.Provider, opts.Metrics, logger)

			snap := opts.Store.Snapshot()
			idle := false
			if snap.Finished() {
				remaining--
				if remaining <= 0 {
					if !opts.Resumable {
						logger.Info("source finished; polling stopped", "source", opts.Provider.Describe())
						return
					}
					if remaining == 0 {
						logger.Debug("source settled; idling until it changes", "source", opts.Provider.Describe())
					}
					idle = true
				}
			} else {
				remaining = finishedPolls
			}

			wait := calculateBackoff(snap.ConsecutiveFailures, pollInterval(interval, snap.Lines))
			if idle {
				wait = idleInterval
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(wait)

			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			case _, ok := <-trigger:
				if !ok {
					trigger = nil
				}
			}
		}
	}()
}

// pollInterval stretches the base interval for large logs.
func pollInterval(base time.Duration, lines int) time.Duration {
	if lines > largeLogLines {
		return base * 2
	}
	return base
}

// calculateBackoff doubles the base interval for every consecutive
// failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

func refresh(ctx context.Context, store *state.Store, provider source.Provider, m *metrics.Metrics, logger *slog.Logger) {
	content, err := provider.Content(ctx)
	if err != nil {
		store.Update("", nil, err)
		m.ObservePoll(err)
		logger.Warn("content poll failed", "source", provider.Describe(), "error", err)
		return
	}

	var live *bool
	if checker, ok := provider.(source.LiveChecker); ok {
		building, err := checker.Live(ctx)
		if err != nil {
			logger.Debug("live check failed", "source", provider.Describe(), "error", err)
		} else {
			live = &building
		}
	}

	store.Update(content, live, nil)
	m.ObservePoll(nil)
}
