// Package report aggregates trajectory summaries from a batch run and
// writes them out as JSON and markdown artifacts.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/webeval/pkg/trajectory"
)

// Artifact file names written by ArtifactWriter.
const (
	ReportFile  = "report.json"
	SummaryFile = "summary.md"
	TotalsFile  = "totals.json"
)

// Report is the outcome of loading a directory of trajectories.
type Report struct {
	Root         string               `json:"root"`
	GeneratedAt  time.Time            `json:"generated_at"`
	Trajectories []trajectory.Summary `json:"trajectories"`

	// Failed lists the directories that could not be loaded
	Failed []string `json:"failed"`

	Totals Totals `json:"totals"`
}

// Totals are aggregate counts over the loaded trajectories.
type Totals struct {
	Loaded           int `json:"loaded"`
	Failed           int `json:"failed"`
	Aborted          int `json:"aborted"`
	Answered         int `json:"answered"`
	Actions          int `json:"actions"`
	Screenshots      int `json:"screenshots"`
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Build summarizes the results of trajectory.LoadAll. results[i] belongs to
// dirs[i]; a nil result marks a directory that failed to load.
func Build(root string, dirs []string, results []*trajectory.Trajectory) *Report {
	r := &Report{
		Root:         root,
		GeneratedAt:  time.Now().UTC(),
		Trajectories: []trajectory.Summary{},
		Failed:       []string{},
	}

	for i, t := range results {
		if t == nil {
			r.Failed = append(r.Failed, dirs[i])
			continue
		}
		r.Add(trajectory.Summarize(t))
	}
	r.Totals.Failed = len(r.Failed)
	return r
}

// Add appends s and updates the totals.
func (r *Report) Add(s trajectory.Summary) {
	r.Trajectories = append(r.Trajectories, s)

	r.Totals.Loaded++
	if s.IsAborted {
		r.Totals.Aborted++
	}
	if s.FinalAnswer != "" && s.FinalAnswer != trajectory.NoAnswer {
		r.Totals.Answered++
	}
	r.Totals.Actions += s.Actions
	r.Totals.Screenshots += s.Screenshots
	r.Totals.PromptTokens += s.PromptTokens
	r.Totals.CompletionTokens += s.CompletionTokens
}

// ArtifactWriter handles writing report artifacts
type ArtifactWriter struct {
	outputDir string
}

// NewArtifactWriter creates a new artifact writer
func NewArtifactWriter(outputDir string) *ArtifactWriter {
	return &ArtifactWriter{
		outputDir: outputDir,
	}
}

// WriteAll writes every artifact format
func (w *ArtifactWriter) WriteAll(r *Report) error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := w.WriteReportJSON(r); err != nil {
		return fmt.Errorf("failed to write report JSON: %w", err)
	}
	if err := w.WriteSummaryMarkdown(r); err != nil {
		return fmt.Errorf("failed to write summary markdown: %w", err)
	}
	if err := w.WriteTotalsJSON(r); err != nil {
		return fmt.Errorf("failed to write totals JSON: %w", err)
	}
	return nil
}

// WriteReportJSON writes the full report as JSON
func (w *ArtifactWriter) WriteReportJSON(r *Report) error {
	return writeJSON(filepath.Join(w.outputDir, ReportFile), r)
}

// WriteTotalsJSON writes only the aggregate counts
func (w *ArtifactWriter) WriteTotalsJSON(r *Report) error {
	return writeJSON(filepath.Join(w.outputDir, TotalsFile), r.Totals)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), writeErr)
	}
	return nil
}

// WriteSummaryMarkdown writes a human-readable markdown summary
func (w *ArtifactWriter) WriteSummaryMarkdown(r *Report) error {
	path := filepath.Join(w.outputDir, SummaryFile)
	if writeErr := os.WriteFile(path, []byte(Markdown(r)), 0600); writeErr != nil {
		return fmt.Errorf("failed to write summary markdown: %w", writeErr)
	}
	return nil
}

// Markdown renders r as a markdown document.
func Markdown(r *Report) string {
	var md strings.Builder

	md.WriteString("# Trajectory Report\n\n")
	md.WriteString(fmt.Sprintf("**Root:** %s\n\n", r.Root))
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	md.WriteString("## Totals\n\n")
	md.WriteString(fmt.Sprintf("- **Loaded:** %d\n", r.Totals.Loaded))
	md.WriteString(fmt.Sprintf("- **Failed:** %d\n", r.Totals.Failed))
	md.WriteString(fmt.Sprintf("- **Answered:** %d\n", r.Totals.Answered))
	md.WriteString(fmt.Sprintf("- **Aborted:** %d\n", r.Totals.Aborted))
	md.WriteString(fmt.Sprintf("- **Actions:** %d\n", r.Totals.Actions))
	md.WriteString(fmt.Sprintf("- **Screenshots:** %d\n", r.Totals.Screenshots))
	md.WriteString(fmt.Sprintf("- **Tokens:** %d prompt / %d completion\n\n",
		r.Totals.PromptTokens, r.Totals.CompletionTokens))

	if len(r.Trajectories) > 0 {
		md.WriteString("## Trajectories\n\n")
		md.WriteString("| Name | Actions | Screenshots | Status | Answer |\n")
		md.WriteString("|------|---------|-------------|--------|--------|\n")
		for _, s := range r.Trajectories {
			status := "✅"
			if s.IsAborted {
				status = "❌ aborted"
			}
			md.WriteString(fmt.Sprintf("| %s | %d | %d | %s | %s |\n",
				s.Name, s.Actions, s.Screenshots, status, markdownCell(s.FinalAnswer)))
		}
		md.WriteString("\n")
	}

	if len(r.Failed) > 0 {
		md.WriteString("## Failed to Load\n\n")
		for _, dir := range r.Failed {
			md.WriteString(fmt.Sprintf("- `%s`\n", dir))
		}
		md.WriteString("\n")
	}

	return md.String()
}

func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
