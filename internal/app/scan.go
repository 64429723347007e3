package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/five82/consolelens/internal/config"
	"github.com/five82/consolelens/internal/navigation"
	"github.com/five82/consolelens/internal/render"
	"github.com/five82/consolelens/internal/report"
	"github.com/five82/consolelens/internal/search"
	"github.com/five82/consolelens/internal/session"
	"github.com/five82/consolelens/internal/source"
)

// ScanOptions configure a headless scan.
type ScanOptions struct {
	ConfigPath string
	// Targets are file paths, doublestar globs or Jenkins build URLs.
	Targets []string
	// Query collects matching lines per source when at least two
	// characters long.
	Query string
	// Levels restricts which lines the query sees; empty means all.
	Levels []string
	// ErrorsOnly drops sources that have no errors or failed regions.
	ErrorsOnly bool
	Logger     *slog.Logger
}

// Scan runs every target through the pipeline to completion and returns
// one result per source. Sources that cannot be read produce a result
// with Error set instead of failing the scan.
func Scan(ctx context.Context, opts ScanOptions) ([]report.Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	table, err := cfg.Table()
	if err != nil {
		return nil, fmt.Errorf("navigation table: %w", err)
	}

	targets, err := expandTargets(opts.Targets)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no sources match %s", strings.Join(opts.Targets, " "))
	}

	levels := search.AllLevels()
	if len(opts.Levels) > 0 {
		levels = search.ParseLevelSet(opts.Levels)
	}

	classifier := cfg.Classifier()
	results := make([]report.Result, 0, len(targets))
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		sess := session.New(session.Options{
			Classifier: classifier,
			Table:      table,
			Render:     cfg.RenderOptions(),
			NoFollow:   true,
			Levels:     &levels,
			Source:     target,
			Logger:     logger,
		})
		result, err := scanTarget(ctx, sess, target, cfg.SourceOptions(), opts.Query)
		if err != nil {
			logger.Warn("scan failed", "source", target, "error", err)
			result = report.Result{Source: target, Error: err.Error()}
		}
		if opts.ErrorsOnly && !result.Failed() {
			continue
		}
		results = append(results, result)
	}

	logger.Debug("scan complete", "sources", len(targets), "reported", len(results))
	return results, nil
}

func scanTarget(ctx context.Context, sess *session.Session, target string, srcOpts source.Options, query string) (report.Result, error) {
	provider, err := source.Open(target, srcOpts)
	if err != nil {
		return report.Result{}, err
	}
	// File sources read a missing file as empty; a scan reports it.
	if file, ok := provider.(*source.File); ok {
		if _, err := os.Stat(file.Path()); err != nil {
			return report.Result{}, err
		}
	}
	content, err := provider.Content(ctx)
	if err != nil {
		return report.Result{}, err
	}

	sess.Ingest(content, false)
	sess.Finish()
	if err := sess.Drain(ctx, 0, nil); err != nil {
		return report.Result{}, err
	}

	stats := sess.Stats()
	result := report.Result{
		Source:  provider.Describe(),
		Lines:   stats.Total,
		Counts:  stats.Map(),
		Regions: sess.Regions(),
	}
	if result.Regions == nil {
		result.Regions = []navigation.Region{}
	}
	if idx, ok := sess.FirstError(); ok {
		if rec, ok := sess.Record(idx); ok {
			result.FirstError = &rec
		}
	}

	if strings.TrimSpace(query) != "" {
		sess.SetQuery(query)
		result.Query = sess.Query()
		for _, idx := range sess.Matches() {
			if rec, ok := sess.Record(idx); ok {
				result.Matches = append(result.Matches, rec)
			}
		}
		if result.Matches == nil {
			result.Matches = []render.Record{}
		}
	}
	return result, nil
}

// expandTargets resolves globs. URLs and plain paths pass through so a
// missing file is reported against its own name.
func expandTargets(targets []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(t string) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	for _, target := range targets {
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if strings.Contains(target, "://") || !strings.ContainsAny(target, "*?[{") {
			add(target)
			continue
		}
		matches, err := doublestar.FilepathGlob(target, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", target, err)
		}
		sort.Strings(matches)
		for _, match := range matches {
			add(match)
		}
	}
	return out, nil
}
