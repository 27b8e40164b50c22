package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/webeval/pkg/config"
	"github.com/entrhq/webeval/pkg/evalstore"
	"github.com/entrhq/webeval/pkg/report"
	"github.com/entrhq/webeval/pkg/trajectory"
)

func writeTrajectory(t *testing.T, root, name, answer string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0755))

	events := `{"source":"WebSurfer","action":"click","arguments":{"action":"click","thoughts":"press it","id":"1"}}` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "web_surfer.log"), []byte(events), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "task_answer.json"), []byte(`{"final_answer":"`+answer+`"}`), 0644))
	return dir
}

func TestFindCommand(t *testing.T) {
	for _, name := range []string{"browse", "inspect", "batch", "index", "view", "export"} {
		c, ok := findCommand(name)
		assert.True(t, ok, name)
		assert.Equal(t, name, c.name)
		assert.NotNil(t, c.run)
	}

	_, ok := findCommand("serve")
	assert.False(t, ok)
}

func TestParseFlagsUsageErrors(t *testing.T) {
	fs := newFlagSet("inspect", "<trajectory-dir>")
	fs.SetOutput(io.Discard)

	err := parseFlags(fs, []string{"-nope"})
	assert.ErrorIs(t, err, errUsage)

	fs = newFlagSet("inspect", "<trajectory-dir>")
	fs.SetOutput(io.Discard)
	require.NoError(t, parseFlags(fs, []string{"a", "b"}))
	_, err = singleDir(fs)
	assert.ErrorIs(t, err, errUsage)
}

func TestRunInspect(t *testing.T) {
	dir := writeTrajectory(t, t.TempDir(), "task-1", "done")
	assert.NoError(t, runInspect(context.Background(), config.DefaultConfig(), []string{dir}))
}

func TestRunInspectMissingAnswer(t *testing.T) {
	dir := writeTrajectory(t, t.TempDir(), "task-1", "done")
	require.NoError(t, os.Remove(filepath.Join(dir, "task_answer.json")))

	err := runInspect(context.Background(), config.DefaultConfig(), []string{dir})
	assert.Error(t, err)
}

func TestRunBatchWritesReport(t *testing.T) {
	root := t.TempDir()
	writeTrajectory(t, root, "a", "yes")
	writeTrajectory(t, root, "b", "no")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0755))
	out := filepath.Join(t.TempDir(), "report")

	err := runBatch(context.Background(), config.DefaultConfig(), []string{"-verbosity", "quiet", "-output", out, root})
	require.NoError(t, err)

	for _, name := range []string{report.ReportFile, report.SummaryFile, report.TotalsFile} {
		assert.FileExists(t, filepath.Join(out, name))
	}
}

func TestRunBatchIndexesInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	root := t.TempDir()
	writeTrajectory(t, root, "a", "yes")

	cfg := config.DefaultConfig()
	cfg.Redis.Addr = mr.Addr()

	require.NoError(t, runBatch(context.Background(), cfg, []string{"-verbosity", "quiet", "-index", root}))

	idx, err := evalstore.New(context.Background(), evalstore.Options{Addr: mr.Addr(), KeyPrefix: cfg.Redis.KeyPrefix})
	require.NoError(t, err)
	defer idx.Close()

	s, err := idx.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "yes", s.FinalAnswer)
	assert.Equal(t, 1, s.Actions)

	require.NoError(t, runIndex(context.Background(), cfg, []string{"list"}))
	require.NoError(t, runIndex(context.Background(), cfg, []string{"delete", "a"}))
	assert.Error(t, runIndex(context.Background(), cfg, []string{"get", "a"}))
}

func TestRunIndexRequiresRedis(t *testing.T) {
	cfg := config.DefaultConfig()
	err := runIndex(context.Background(), cfg, []string{"list"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.EnvRedisAddr)
}

func TestRunExportWithoutScreenshots(t *testing.T) {
	dir := writeTrajectory(t, t.TempDir(), "task-1", "done")
	err := runExport(context.Background(), config.DefaultConfig(), []string{dir})
	assert.Error(t, err)
}

func TestDefaultExportPathStaysOutOfTrajectoryDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "task-7")
	path := defaultExportPath(&trajectory.Trajectory{Dir: dir})

	assert.Equal(t, "task-7-screenshots.pdf", path)
	assert.False(t, filepath.IsAbs(path))
	assert.Equal(t, ".", filepath.Dir(path))
}

func TestRunExportWritesToWorkingDir(t *testing.T) {
	dir := writeTrajectory(t, t.TempDir(), "task-1", "done")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "screenshot1.png"), pngBytes(t), 0644))
	answer := `{"final_answer":"done","screenshots":["screenshot1.png"],"is_rel_paths":true}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "task_answer.json"), []byte(answer), 0644))
	work := t.TempDir()
	t.Chdir(work)

	require.NoError(t, runExport(context.Background(), config.DefaultConfig(), []string{dir}))

	assert.FileExists(t, filepath.Join(work, "task-1-screenshots.pdf"))
	assert.NoFileExists(t, filepath.Join(dir, "screenshots.pdf"))
	assert.NoFileExists(t, filepath.Join(dir, "task-1-screenshots.pdf"))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}
