package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/five82/consolelens/internal/config"
	"github.com/five82/consolelens/internal/metrics"
	"github.com/five82/consolelens/internal/prefs"
	"github.com/five82/consolelens/internal/session"
	"github.com/five82/consolelens/internal/source"
	"github.com/five82/consolelens/internal/state"
	"github.com/five82/consolelens/internal/ui"
)

// Options configure the viewer.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/consolelens/prefs.toml
	Target     string // file path or Jenkins build URL
	PollEvery  time.Duration
	// NoFollow starts with auto-follow off, overriding config and prefs.
	NoFollow bool
	// MetricsAddr serves /metrics when set.
	MetricsAddr string
	Logger      *slog.Logger
}

// Run boots the viewer TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		logger.Warn("load prefs failed; using defaults", "error", err)
	}

	provider, err := source.Open(opts.Target, cfg.SourceOptions())
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	table, err := cfg.Table()
	if err != nil {
		return fmt.Errorf("navigation table: %w", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if opts.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, opts.MetricsAddr, reg, logger); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	follow := cfg.Render.Follow
	if userPrefs.Follow != nil {
		follow = *userPrefs.Follow
	}
	if opts.NoFollow {
		follow = false
	}

	classifier := cfg.Classifier()
	levels := userPrefs.Levels()
	sess := session.New(session.Options{
		Classifier: classifier,
		Table:      table,
		Render:     cfg.RenderOptions(),
		NoFollow:   !follow,
		Levels:     &levels,
		Source:     provider.Describe(),
		Fallback:   provider.Fallback(),
		Metrics:    m,
		Logger:     logger,
	})

	store := &state.Store{}

	interval := cfg.Source.PollInterval
	if opts.PollEvery > 0 {
		interval = opts.PollEvery
	}

	// Local files are re-read as soon as they change; polling stays on as
	// a fallback for filesystems without notifications.
	var trigger <-chan struct{}
	file, resumable := provider.(*source.File)
	if resumable {
		watcher, err := source.NewWatcher(file.Path(), cfg.Source.Debounce, logger)
		if err != nil {
			logger.Warn("file watcher unavailable; polling only", "error", err)
		} else if err := watcher.Start(ctx); err != nil {
			logger.Warn("file watcher unavailable; polling only", "error", err)
			_ = watcher.Stop()
		} else {
			defer func() { _ = watcher.Stop() }()
			trigger = watcher.Events()
		}
	}

	// Do initial refresh to populate store before UI starts
	refresh(ctx, store, provider, m, logger)

	StartPoller(ctx, PollerOptions{
		Store:     store,
		Provider:  provider,
		Interval:  interval,
		Trigger:   trigger,
		Resumable: resumable,
		Metrics:   m,
		Logger:    logger,
	})

	logger.Info("viewer started", "source", provider.Describe(), "session", sess.ID(), "interval", interval)

	return ui.Run(ui.Options{
		Context:    ctx,
		Session:    sess,
		Store:      store,
		Provider:   provider,
		Classifier: classifier,
		UnitBudget: cfg.Render.Budget,
		Prefs:      userPrefs,
		PrefsPath:  opts.PrefsPath,
		Logger:     logger,
	})
}
