package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/consolelens/internal/navigation"
)

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScanCollectsStatsAndRegions(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "build.log",
		"Starting TestCase: login\n"+
			"INFO connecting\n"+
			"ERROR timeout talking to db\n"+
			"SUMMARY of TestCase [login]: FAILED\n"+
			"trailing partial")

	results, err := Scan(context.Background(), ScanOptions{
		ConfigPath: filepath.Join(dir, "missing.toml"),
		Targets:    []string{path},
		Query:      "db",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, 5, res.Lines)
	assert.Equal(t, 1, res.Counts["ERROR"])
	assert.Equal(t, 1, res.Counts["INFO"])
	assert.Equal(t, 3, res.Counts["OTHER"])
	require.Len(t, res.Regions, 1)
	assert.Equal(t, "login", res.Regions[0].Name)
	assert.Equal(t, navigation.Failed, res.Regions[0].Outcome)
	require.NotNil(t, res.FirstError)
	assert.Equal(t, 2, res.FirstError.Index)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, 2, res.Matches[0].Index)
	assert.True(t, res.Failed())
}

func TestScanExpandsGlobsAndFiltersErrors(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "a/ok.log", "all good\n")
	writeLog(t, dir, "b/bad.log", "ERROR broken\n")
	writeLog(t, dir, "b/notes.txt", "ERROR ignored\n")

	results, err := Scan(context.Background(), ScanOptions{
		ConfigPath: filepath.Join(dir, "missing.toml"),
		Targets:    []string{filepath.Join(dir, "**", "*.log")},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	results, err = Scan(context.Background(), ScanOptions{
		ConfigPath: filepath.Join(dir, "missing.toml"),
		Targets:    []string{filepath.Join(dir, "**", "*.log")},
		ErrorsOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join(dir, "b", "bad.log"), results[0].Source)
}

func TestScanReportsUnreadableSource(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "nope.log")

	results, err := Scan(context.Background(), ScanOptions{
		ConfigPath: filepath.Join(dir, "missing.toml"),
		Targets:    []string{missing},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, missing, results[0].Source)
	assert.NotEmpty(t, results[0].Error)
	assert.True(t, results[0].Failed())
}

func TestScanNoMatches(t *testing.T) {
	dir := t.TempDir()
	_, err := Scan(context.Background(), ScanOptions{
		ConfigPath: filepath.Join(dir, "missing.toml"),
		Targets:    []string{filepath.Join(dir, "*.log")},
	})
	require.Error(t, err)
}

func TestScanLevelsLimitQuery(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "x.log", "INFO needle\nERROR needle\n")

	results, err := Scan(context.Background(), ScanOptions{
		ConfigPath: filepath.Join(dir, "missing.toml"),
		Targets:    []string{path},
		Query:      "needle",
		Levels:     []string{"error"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Matches, 1)
	assert.Equal(t, 1, results[0].Matches[0].Index)
}
