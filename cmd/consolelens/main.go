// Package main provides the consolelens binary entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/five82/consolelens/internal/app"
	"github.com/five82/consolelens/internal/config"
	"github.com/five82/consolelens/internal/report"
)

// Set with -ldflags at build time.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const appName = "consolelens"

// errFailures makes scan exit non-zero without printing an error.
var errFailures = errors.New("failures found")

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errFailures) {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		}
		return 1
	}
	return 0
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Navigate build and CI console logs",
		Long: `consolelens follows a build console, colors lines by severity and
indexes the tests, stages and steps it finds so failures are one key away.

Sources are local log files or Jenkins build URLs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "config file path (default ~/.config/consolelens/config.toml)")
	flags.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(newViewCmd(&configPath, &logLevel))
	cmd.AddCommand(newScanCmd(&configPath, &logLevel))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func newViewCmd(configPath, logLevel *string) *cobra.Command {
	var (
		logFile     string
		prefsPath   string
		metricsAddr string
		noFollow    bool
		poll        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "view <file|url>",
		Short: "Open a console log in the interactive viewer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if logFile == "" {
				cfg, err := config.Load(*configPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				logFile = cfg.LogFile
			}

			// The TUI owns the terminal, so logs go to a file.
			out, err := openLogFile(logFile)
			if err != nil {
				return err
			}
			defer func() { _ = out.Close() }()
			logger := newLogger(out, *logLevel)
			slog.SetDefault(logger)

			return app.Run(cmd.Context(), app.Options{
				ConfigPath:  *configPath,
				PrefsPath:   prefsPath,
				Target:      args[0],
				PollEvery:   poll,
				NoFollow:    noFollow,
				MetricsAddr: metricsAddr,
				Logger:      logger,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&logFile, "log-file", "", "write logs to this file (default from config)")
	flags.StringVar(&prefsPath, "prefs", "", "UI preferences file (default ~/.config/consolelens/prefs.toml)")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	flags.BoolVar(&noFollow, "no-follow", false, "start with auto-follow off")
	flags.DurationVar(&poll, "poll", 0, "source poll interval (default from config, 2s)")

	return cmd
}

func newScanCmd(configPath, logLevel *string) *cobra.Command {
	var (
		formatFlag   string
		errorsOnly   bool
		query        string
		levels       []string
		regions      bool
		forceColor   bool
		forceNoColor bool
		failExit     bool
	)

	cmd := &cobra.Command{
		Use:   "scan <file|glob|url>...",
		Short: "Summarize console logs without the viewer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if forceColor && forceNoColor {
				return errors.New("--color and --no-color cannot be used together")
			}

			logger := newLogger(cmd.ErrOrStderr(), *logLevel)
			slog.SetDefault(logger)

			results, err := app.Scan(cmd.Context(), app.ScanOptions{
				ConfigPath: *configPath,
				Targets:    args,
				Query:      query,
				Levels:     levels,
				ErrorsOnly: errorsOnly,
				Logger:     logger,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			file, _ := out.(*os.File)
			opts := report.Options{
				Format:  strings.ToLower(formatFlag),
				Color:   resolveColorChoice(out, forceColor, forceNoColor),
				Width:   determineWidth(file),
				Regions: regions,
			}
			if err := report.Write(out, results, opts); err != nil {
				return err
			}

			if failExit {
				for _, r := range results {
					if r.Failed() {
						return errFailures
					}
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&formatFlag, "format", "f", "table", "output format: table, plain, json, or yaml")
	flags.BoolVar(&errorsOnly, "errors-only", false, "only report sources with errors or failed regions")
	flags.StringVarP(&query, "query", "q", "", "list lines containing this text (2+ characters)")
	flags.StringSliceVar(&levels, "levels", nil, "levels the query searches, e.g. error,warn (default all)")
	flags.BoolVar(&regions, "regions", false, "list every region below the summary")
	flags.BoolVar(&forceColor, "color", false, "force colored output")
	flags.BoolVar(&forceNoColor, "no-color", false, "disable colored output")
	flags.BoolVar(&failExit, "fail", false, "exit 1 when any source has errors or failed regions")

	return cmd
}

func parseLogLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLogLevel(level)}))
}

func openLogFile(path string) (*os.File, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve log file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(expanded, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

func determineWidth(out *os.File) int {
	if out != nil {
		if w, _, err := term.GetSize(int(out.Fd())); err == nil && w > 0 {
			return w
		}
	}
	if colsStr := os.Getenv("COLUMNS"); colsStr != "" {
		if v, err := strconv.Atoi(colsStr); err == nil && v > 0 {
			return v
		}
	}
	return 0
}

func resolveColorChoice(out io.Writer, forceColor, forceNoColor bool) bool {
	if forceColor {
		return true
	}
	if forceNoColor {
		return false
	}
	return shouldUseColorAuto(out)
}

func shouldUseColorAuto(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
