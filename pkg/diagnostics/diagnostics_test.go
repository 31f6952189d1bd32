package diagnostics

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestLog_LevelsAndEcho(t *testing.T) {
	var buf bytes.Buffer
	echo := zerolog.New(&buf).Level(zerolog.DebugLevel)

	l := New("run-1", &echo)
	l.Info(ActionProcessStart, "Starting substitute assignment", model.JSONMap{"absent": 2})
	done := l.Timed(ActionDataLoading)
	done("Loaded roster", StatusInfo, nil)
	l.Warning(ActionPeriodsFound, "No periods found for X on monday", nil)
	l.Error(ActionDataSave, "write failed", nil)

	entries := l.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, ActionProcessStart, entries[0].Action)
	assert.Equal(t, StatusInfo, entries[0].Status)
	assert.Equal(t, StatusWarning, entries[2].Status)
	assert.Equal(t, StatusError, entries[3].Status)
	assert.GreaterOrEqual(t, entries[1].DurationMs, int64(0))
	assert.Equal(t, 4, l.Len())

	assert.Contains(t, buf.String(), `"action":"PeriodsFound"`)
}

func TestLog_TimedRecordsDuration(t *testing.T) {
	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	ticks := []time.Time{start, start.Add(250 * time.Millisecond), start.Add(250 * time.Millisecond)}
	l := New("run-1", nil)
	l.now = func() time.Time {
		next := ticks[0]
		if len(ticks) > 1 {
			ticks = ticks[1:]
		}
		return next
	}

	done := l.Timed(ActionDataSave)
	done("Saved assignment document", StatusInfo, model.JSONMap{"assignments": 2})

	entries := l.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, ActionDataSave, entries[0].Action)
	assert.Equal(t, int64(250), entries[0].DurationMs)
}

func TestFileSink_PersistArchivesPrevious(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	sink := NewFileSink(dir)
	sink.now = fixedClock(time.Date(2025, 3, 3, 9, 15, 0, 0, time.UTC))

	first := New("run-1", nil)
	first.Info(ActionProcessStart, "first", nil)
	archived, err := sink.Persist(ctx, "2025-03-03", first)
	require.NoError(t, err)
	assert.Empty(t, archived)

	second := New("run-2", nil)
	second.Info(ActionProcessStart, "second", nil)
	archived, err = sink.Persist(ctx, "2025-03-03", second)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ArchiveDir, "substitute_logs_20250303_091500.json"), archived)

	// 归档的是第一次运行的日志
	data, err := os.ReadFile(archived)
	require.NoError(t, err)
	var old Document
	require.NoError(t, json.Unmarshal(data, &old))
	assert.Equal(t, "run-1", old.RunID)

	doc, warnings, err := sink.Load(ctx, "2025-03-03")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "run-2", doc.RunID)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, "second", doc.Entries[0].Detail)

	// 同一秒内再次运行不会覆盖已归档文件
	third := New("run-3", nil)
	_, err = sink.Persist(ctx, "2025-03-03", third)
	require.NoError(t, err)
	files, err := sink.Archived("2025-03-03")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestFileSink_LoadMissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	sink := NewFileSink(dir)

	doc, warnings, err := sink.Load(ctx, "2025-03-04")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Empty(t, doc.Entries)

	require.NoError(t, os.WriteFile(sink.PathFor("2025-03-04"), []byte("{not json"), 0o644))
	doc, warnings, err = sink.Load(ctx, "2025-03-04")
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.True(t, strings.Contains(warnings[0], "corrupted"))
	assert.Empty(t, doc.Entries)

	files, err := sink.Archived("2025-03-04")
	require.NoError(t, err)
	assert.Len(t, files, 1)
}
