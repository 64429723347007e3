// Package report renders scan results for the terminal and for machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/five82/consolelens/internal/navigation"
	"github.com/five82/consolelens/internal/render"
	"github.com/five82/consolelens/internal/severity"
)

// Result summarizes one scanned console log.
type Result struct {
	Source     string              `json:"source" yaml:"source"`
	Lines      int                 `json:"lines" yaml:"lines"`
	Counts     map[string]int      `json:"counts" yaml:"counts"`
	Regions    []navigation.Region `json:"regions" yaml:"regions"`
	FirstError *render.Record      `json:"first_error,omitempty" yaml:"first_error,omitempty"`
	Query      string              `json:"query,omitempty" yaml:"query,omitempty"`
	Matches    []render.Record     `json:"matches,omitempty" yaml:"matches,omitempty"`
	Error      string              `json:"error,omitempty" yaml:"error,omitempty"`
}

// FailedRegions returns the regions that closed with a failure.
func (r Result) FailedRegions() []navigation.Region {
	var out []navigation.Region
	for _, reg := range r.Regions {
		if reg.Outcome == navigation.Failed {
			out = append(out, reg)
		}
	}
	return out
}

// Failed reports whether the log has errors, failed regions, or could not
// be read at all.
func (r Result) Failed() bool {
	return r.Error != "" || r.Counts[severity.Error.String()] > 0 || len(r.FailedRegions()) > 0
}

// Options control Write.
type Options struct {
	// Format is one of table, plain, json or yaml. Empty means table.
	Format string
	Color  bool
	// Width caps table rows; zero leaves them unbounded.
	Width int
	// Regions lists every region below the summary table.
	Regions bool
}

// Write renders results to w in the requested format.
func Write(w io.Writer, results []Result, opts Options) error {
	switch strings.ToLower(opts.Format) {
	case "", "table":
		return writeTable(w, results, opts)
	case "plain":
		return writePlain(w, results)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format: %s", opts.Format)
	}
}

var countColumns = []severity.Level{severity.Error, severity.Warn, severity.Info, severity.Debug}

func writePlain(w io.Writer, results []Result) error {
	for _, r := range results {
		fields := []string{r.Source, strconv.Itoa(r.Lines)}
		for _, lvl := range countColumns {
			fields = append(fields, strconv.Itoa(r.Counts[lvl.String()]))
		}
		fields = append(fields, strconv.Itoa(len(r.Regions)), strconv.Itoa(len(r.FailedRegions())))
		if r.FirstError != nil {
			fields = append(fields, strconv.Itoa(r.FirstError.Index+1))
		} else {
			fields = append(fields, "-")
		}
		if r.Error != "" {
			fields = append(fields, "error: "+r.Error)
		}
		if _, err := fmt.Fprintln(w, strings.Join(fields, "\t")); err != nil {
			return err
		}
		for _, m := range r.Matches {
			if _, err := fmt.Fprintf(w, "%s:%d:%s\n", r.Source, m.Index+1, m.Text); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeTable(w io.Writer, results []Result, opts Options) error {
	tw := newTable(w, opts)
	tw.AppendHeader(table.Row{"Source", "Lines", "Error", "Warn", "Info", "Debug", "Regions", "Failed", "First Error"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 60},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignCenter, Colors: levelColors(opts, severity.Error)},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignCenter, Colors: levelColors(opts, severity.Warn)},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 6, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 7, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 8, Align: text.AlignRight, AlignHeader: text.AlignCenter, Colors: levelColors(opts, severity.Error)},
		{Number: 9, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 80},
	})

	for _, r := range results {
		row := table.Row{r.Source, r.Lines}
		for _, lvl := range countColumns {
			row = append(row, r.Counts[lvl.String()])
		}
		row = append(row, len(r.Regions), len(r.FailedRegions()), firstErrorCell(r))
		tw.AppendRow(row)
	}
	if len(results) == 0 {
		tw.AppendRow(table.Row{"(no sources)", 0, 0, 0, 0, 0, 0, 0, "-"})
	}
	_ = tw.Render()

	if opts.Regions {
		for _, r := range results {
			if len(r.Regions) == 0 {
				continue
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
			writeRegions(w, r, opts)
		}
	}
	for _, r := range results {
		if len(r.Matches) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n%s: %d matches for %q\n", r.Source, len(r.Matches), r.Query); err != nil {
			return err
		}
		for _, m := range r.Matches {
			if _, err := fmt.Fprintf(w, "%s │ %s\n", render.LineNumber(m.Index), m.Text); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeRegions(w io.Writer, r Result, opts Options) {
	tw := newTable(w, opts)
	tw.SetTitle(r.Source)
	tw.AppendHeader(table.Row{"Kind", "Name", "Start", "End", "Outcome"})
	for _, reg := range r.Regions {
		end := "open"
		if !reg.IsOpen() {
			end = strconv.Itoa(reg.End + 1)
		}
		outcome := reg.Outcome.String()
		if opts.Color {
			outcome = outcomeColors(reg.Outcome).Sprint(outcome)
		}
		tw.AppendRow(table.Row{string(reg.Kind), reg.Name, reg.Start + 1, end, outcome})
	}
	_ = tw.Render()
}

func newTable(w io.Writer, opts Options) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateHeader = true
	tw.Style().Options.DrawBorder = true
	if opts.Width > 0 {
		tw.SetAllowedRowLength(opts.Width)
	}
	return tw
}

func firstErrorCell(r Result) string {
	if r.Error != "" {
		return "error: " + r.Error
	}
	if r.FirstError == nil {
		return "-"
	}
	return fmt.Sprintf("%d: %s", r.FirstError.Index+1, strings.TrimSpace(r.FirstError.Text))
}

func levelColors(opts Options, lvl severity.Level) text.Colors {
	if !opts.Color {
		return nil
	}
	switch lvl {
	case severity.Error:
		return text.Colors{text.FgHiRed}
	case severity.Warn:
		return text.Colors{text.FgYellow}
	default:
		return nil
	}
}

func outcomeColors(o navigation.Outcome) text.Colors {
	switch o {
	case navigation.Passed:
		return text.Colors{text.FgGreen}
	case navigation.Failed:
		return text.Colors{text.FgHiRed}
	default:
		return text.Colors{text.FgHiBlack}
	}
}
