package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/webeval/pkg/trajectory"
)

func loadedTrajectory(name, answer string, aborted bool, actions int, usage trajectory.Usage) *trajectory.Trajectory {
	a := trajectory.NewFinalAnswer()
	a.FinalAnswer = answer
	a.IsAborted = aborted
	a.AddTokenUsage("orchestrator", usage)

	t := &trajectory.Trajectory{
		Dir:         filepath.Join("/runs", name),
		Answer:      a,
		Screenshots: []string{"a.png"},
	}
	for i := 0; i < actions; i++ {
		t.Actions = append(t.Actions, `{"action":"click"}`)
		t.Thoughts = append(t.Thoughts, "")
	}
	return t
}

func sampleReport() *Report {
	dirs := []string{"/runs/a", "/runs/broken", "/runs/c"}
	results := []*trajectory.Trajectory{
		loadedTrajectory("a", "42", false, 3, trajectory.Usage{PromptTokens: 1000, CompletionTokens: 200}),
		nil,
		loadedTrajectory("c", trajectory.NoAnswer, true, 1, trajectory.Usage{PromptTokens: 500}),
	}
	return Build("/runs", dirs, results)
}

func TestBuild(t *testing.T) {
	r := sampleReport()

	assert.Equal(t, "/runs", r.Root)
	require.Len(t, r.Trajectories, 2)
	assert.Equal(t, "a", r.Trajectories[0].Name)
	assert.Equal(t, "c", r.Trajectories[1].Name)
	assert.Equal(t, []string{"/runs/broken"}, r.Failed)

	assert.Equal(t, Totals{
		Loaded:           2,
		Failed:           1,
		Aborted:          1,
		Answered:         1,
		Actions:          4,
		Screenshots:      2,
		PromptTokens:     1500,
		CompletionTokens: 200,
	}, r.Totals)
}

func TestBuildEmpty(t *testing.T) {
	r := Build("/runs", nil, nil)
	assert.NotNil(t, r.Trajectories)
	assert.NotNil(t, r.Failed)
	assert.Equal(t, Totals{}, r.Totals)
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	r := sampleReport()

	require.NoError(t, NewArtifactWriter(dir).WriteAll(r))

	data, err := os.ReadFile(filepath.Join(dir, ReportFile))
	require.NoError(t, err)
	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, r.Totals, decoded.Totals)
	assert.Equal(t, r.Failed, decoded.Failed)
	assert.Len(t, decoded.Trajectories, 2)

	data, err = os.ReadFile(filepath.Join(dir, TotalsFile))
	require.NoError(t, err)
	var totals Totals
	require.NoError(t, json.Unmarshal(data, &totals))
	assert.Equal(t, r.Totals, totals)

	data, err = os.ReadFile(filepath.Join(dir, SummaryFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Trajectory Report")
}

func TestMarkdown(t *testing.T) {
	r := sampleReport()
	r.Trajectories[0].FinalAnswer = "a | b\nc"

	md := Markdown(r)
	assert.Contains(t, md, "- **Loaded:** 2")
	assert.Contains(t, md, "- **Failed:** 1")
	assert.Contains(t, md, "| a | 3 | 1 | ✅ | a \\| b c |")
	assert.Contains(t, md, "❌ aborted")
	assert.Contains(t, md, "## Failed to Load")
	assert.Contains(t, md, "- `/runs/broken`")
}

func TestConsoleNormal(t *testing.T) {
	var buf bytes.Buffer
	c := NewPlainConsole(VerbosityNormal, &buf)
	r := sampleReport()

	for _, s := range r.Trajectories {
		c.Trajectory(s)
	}
	c.Summary(r)

	out := buf.String()
	assert.Contains(t, out, "✓ a  3 actions, 1 screenshots")
	assert.Contains(t, out, "✗ c  1 actions, 1 screenshots")
	assert.NotContains(t, out, "answer:")
	assert.Contains(t, out, "Loaded: 2  Failed: 1")
	assert.Contains(t, out, "Tokens: 1,500 prompt / 200 completion")
	assert.Contains(t, out, "/runs/broken")
	assert.NotContains(t, out, "\033[", "plain console must not emit colors")
}

func TestConsoleQuiet(t *testing.T) {
	var buf bytes.Buffer
	c := NewPlainConsole(VerbosityQuiet, &buf)
	r := sampleReport()

	c.Header("Batch")
	c.Trajectory(r.Trajectories[0])
	c.Infof("loading")
	assert.Empty(t, buf.String())

	c.Warningf("careful")
	c.Summary(r)
	out := buf.String()
	assert.Contains(t, out, "⚠ Warning: careful")
	assert.Contains(t, out, "BATCH SUMMARY")
	assert.NotContains(t, out, "Failed to load:")
}

func TestConsoleVerbose(t *testing.T) {
	var buf bytes.Buffer
	c := NewPlainConsole(VerbosityVerbose, &buf)

	c.Trajectory(sampleReport().Trajectories[0])
	c.Verbosef("detail %d", 7)

	out := buf.String()
	assert.Contains(t, out, "answer: 42")
	assert.Contains(t, out, "tokens: 1,000 prompt / 200 completion")
	assert.Contains(t, out, "→ detail 7")
}

func TestParseVerbosity(t *testing.T) {
	assert.Equal(t, VerbosityQuiet, ParseVerbosity("quiet"))
	assert.Equal(t, VerbosityVerbose, ParseVerbosity("verbose"))
	assert.Equal(t, VerbosityNormal, ParseVerbosity("normal"))
	assert.Equal(t, VerbosityNormal, ParseVerbosity("whatever"))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,000", formatNumber(1000))
	assert.Equal(t, "12,345,678", formatNumber(12345678))
}
