package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workcal/availability/internal/calendar"
	"github.com/workcal/availability/internal/config"
	"github.com/workcal/availability/internal/store/sqlite"
	"github.com/workcal/availability/pkg/dateutil"
	"go.uber.org/zap"
)

const sampleData = `{
  "developers": [{"id": 1, "birthday": "1990-01-03"}],
  "local_holidays": [{"day": "2017-01-02"}],
  "periods": [{"id": 1, "since": "2017-01-01", "until": "2017-01-08"}],
  "projects": [{"id": 1, "since": "2017-01-01", "until": "2017-01-08", "effort_days": 4}]
}`

func TestBuildCalendarSource(t *testing.T) {
	nop := zap.NewNop()

	t.Run("static only", func(t *testing.T) {
		src, err := buildCalendarSource(config.CalendarConfig{Dates: []string{"2017-01-01"}}, nop)
		require.NoError(t, err)
		assert.IsType(t, &calendar.StaticSource{}, src)
	})

	t.Run("xmlcalendar with file fallback", func(t *testing.T) {
		src, err := buildCalendarSource(config.CalendarConfig{
			XMLCalendarURL: "http://127.0.0.1:1/{year}.json",
			File:           "holidays.txt",
			Years:          []int{2017},
		}, nop)
		require.NoError(t, err)
		assert.IsType(t, &calendar.CompositeSource{}, src)
	})

	t.Run("several sources are merged", func(t *testing.T) {
		src, err := buildCalendarSource(config.CalendarConfig{
			Dates:   []string{"2017-08-14"},
			Country: "it",
			Years:   []int{2017},
		}, nop)
		require.NoError(t, err)
		require.IsType(t, &calendar.UnionSource{}, src)

		national, err := src.Load(context.Background())
		require.NoError(t, err)
		assert.True(t, national.Contains(mustDate(t, "2017-08-14")))
		assert.True(t, national.Contains(mustDate(t, "2017-08-15")))
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := buildCalendarSource(config.CalendarConfig{}, nop)
		assert.Error(t, err)
	})
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "data.json")
	output := filepath.Join(dir, "output.json")
	dbPath := filepath.Join(dir, "runs.db")
	cfgPath := filepath.Join(dir, "config.yaml")

	require.NoError(t, os.WriteFile(input, []byte(sampleData), 0o644))
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
calendar:
  dates: ["2017-01-01"]
store:
  path: `+dbPath+`
`), 0o644))

	var buf bytes.Buffer
	out = &buf
	t.Cleanup(func() { out = os.Stdout })

	root := newRootCmd()
	root.SetArgs([]string{"run", "-c", cfgPath, "--mode", "projects", "-i", input, "-o", output})
	require.NoError(t, root.Execute())

	written, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.JSONEq(t, `{"availabilities": [
		{"project_id": 1, "total_days": 8, "workdays": 4, "weekend_days": 3, "holidays": 1, "feasibility": false}
	]}`, string(written))

	summary := buf.String()
	assert.Contains(t, summary, "Project 1: 3 of 4 day(s), coverage 75.0%, short by 1")
	assert.Contains(t, summary, "Run recorded as")

	store, err := sqlite.New(dbPath)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].RecordCount)
}

func TestRunCommandDryRun(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "data.json")
	output := filepath.Join(dir, "output.json")
	cfgPath := filepath.Join(dir, "config.yaml")

	require.NoError(t, os.WriteFile(input, []byte(sampleData), 0o644))
	require.NoError(t, os.WriteFile(cfgPath, []byte("engine:\n  mode: developer-periods\n"), 0o644))

	var buf bytes.Buffer
	out = &buf
	t.Cleanup(func() { out = os.Stdout })

	root := newRootCmd()
	root.SetArgs([]string{"run", "-c", cfgPath, "-i", input, "-o", output, "--dry-run"})
	require.NoError(t, root.Execute())

	assert.NoFileExists(t, output)
	assert.Contains(t, buf.String(), "developer-periods")
	assert.Contains(t, buf.String(), "[DRY RUN]")
}

func TestRunCommandRejectsUnknownMode(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("{}\n"), 0o644))

	root := newRootCmd()
	root.SetArgs([]string{"run", "-c", cfgPath, "--mode", "weekly"})
	root.SetErr(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}

func TestHolidaysCommand(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("{}\n"), 0o644))

	var buf bytes.Buffer
	out = &buf
	t.Cleanup(func() { out = os.Stdout })

	root := newRootCmd()
	root.SetArgs([]string{"holidays", "-c", cfgPath})
	require.NoError(t, root.Execute())

	assert.Contains(t, buf.String(), "12 national holiday(s)")
	assert.Contains(t, buf.String(), "2017-12-26  Tuesday")
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := dateutil.ParseDate(s)
	require.NoError(t, err)
	return d
}
