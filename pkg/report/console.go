package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/entrhq/webeval/pkg/trajectory"
)

// Verbosity controls how much the console prints
type Verbosity int

const (
	// VerbosityQuiet shows only warnings, errors and the final totals
	VerbosityQuiet Verbosity = iota
	// VerbosityNormal shows one line per trajectory (default)
	VerbosityNormal
	// VerbosityVerbose also shows answers and token usage
	VerbosityVerbose
)

// ParseVerbosity converts a flag value to a Verbosity. Unknown values mean
// normal.
func ParseVerbosity(v string) Verbosity {
	switch v {
	case "quiet":
		return VerbosityQuiet
	case "verbose":
		return VerbosityVerbose
	default:
		return VerbosityNormal
	}
}

// Console prints batch progress for people watching a terminal
type Console struct {
	level  Verbosity
	writer io.Writer

	// ANSI color codes, empty when color is off
	colorReset     string
	colorCyan      string
	colorSalmon    string
	colorYellow    string
	colorGray      string
	colorBoldGreen string
	colorBoldRed   string
	colorBoldWhite string
}

// NewConsole creates a console writing to stdout with colors
func NewConsole(level Verbosity) *Console {
	c := NewPlainConsole(level, os.Stdout)
	c.colorReset = "\033[0m"
	c.colorCyan = "\033[36m"
	c.colorSalmon = "\033[38;5;217m" // Salmon pink #FFB3BA
	c.colorYellow = "\033[33m"
	c.colorGray = "\033[90m"
	c.colorBoldGreen = "\033[1;32m"
	c.colorBoldRed = "\033[1;31m"
	c.colorBoldWhite = "\033[1;37m"
	return c
}

// NewPlainConsole creates a console without colors writing to w
func NewPlainConsole(level Verbosity, w io.Writer) *Console {
	return &Console{level: level, writer: w}
}

// Header prints a prominent header message
func (c *Console) Header(message string) {
	if c.level >= VerbosityNormal {
		fmt.Fprintf(c.writer, "\n%s%s%s\n", c.colorBoldWhite, strings.Repeat("=", 70), c.colorReset)
		fmt.Fprintf(c.writer, "%s  %s%s\n", c.colorBoldWhite, message, c.colorReset)
		fmt.Fprintf(c.writer, "%s%s%s\n", c.colorBoldWhite, strings.Repeat("=", 70), c.colorReset)
	}
}

// Section prints a section divider
func (c *Console) Section(title string) {
	if c.level >= VerbosityNormal {
		fmt.Fprintln(c.writer)
		fmt.Fprintf(c.writer, "%s▶ %s%s\n", c.colorCyan, title, c.colorReset)
		fmt.Fprintf(c.writer, "%s%s%s\n", c.colorGray, strings.Repeat("─", 50), c.colorReset)
	}
}

// Successf prints a success message with checkmark
func (c *Console) Successf(format string, args ...interface{}) {
	if c.level >= VerbosityNormal {
		fmt.Fprintf(c.writer, "%s✓ %s%s\n", c.colorBoldGreen, fmt.Sprintf(format, args...), c.colorReset)
	}
}

// Infof prints an informational message
func (c *Console) Infof(format string, args ...interface{}) {
	if c.level >= VerbosityNormal {
		fmt.Fprintf(c.writer, "%s%s%s\n", c.colorSalmon, fmt.Sprintf(format, args...), c.colorReset)
	}
}

// Warningf prints a warning message
func (c *Console) Warningf(format string, args ...interface{}) {
	fmt.Fprintf(c.writer, "%s⚠ Warning: %s%s\n", c.colorYellow, fmt.Sprintf(format, args...), c.colorReset)
}

// Errorf prints an error message
func (c *Console) Errorf(format string, args ...interface{}) {
	fmt.Fprintf(c.writer, "%s✗ Error: %s%s\n", c.colorBoldRed, fmt.Sprintf(format, args...), c.colorReset)
}

// Verbosef prints detailed information (only in verbose mode)
func (c *Console) Verbosef(format string, args ...interface{}) {
	if c.level >= VerbosityVerbose {
		fmt.Fprintf(c.writer, "%s→ %s%s\n", c.colorGray, fmt.Sprintf(format, args...), c.colorReset)
	}
}

// Trajectory prints one loaded trajectory
func (c *Console) Trajectory(s trajectory.Summary) {
	if c.level < VerbosityNormal {
		return
	}

	mark := c.colorBoldGreen + "✓"
	if s.IsAborted {
		mark = c.colorBoldRed + "✗"
	}
	fmt.Fprintf(c.writer, "%s %s%s  %d actions, %d screenshots\n",
		mark, s.Name, c.colorReset, s.Actions, s.Screenshots)

	if c.level >= VerbosityVerbose {
		fmt.Fprintf(c.writer, "%s    answer: %s%s\n", c.colorGray, s.FinalAnswer, c.colorReset)
		fmt.Fprintf(c.writer, "%s    tokens: %s prompt / %s completion%s\n", c.colorGray,
			formatNumber(s.PromptTokens), formatNumber(s.CompletionTokens), c.colorReset)
	}
}

// Summary prints the report totals
func (c *Console) Summary(r *Report) {
	fmt.Fprintln(c.writer)
	fmt.Fprintf(c.writer, "%s%s%s\n", c.colorBoldWhite, strings.Repeat("=", 70), c.colorReset)
	fmt.Fprintf(c.writer, "%s  BATCH SUMMARY%s\n", c.colorBoldWhite, c.colorReset)
	fmt.Fprintf(c.writer, "%s%s%s\n", c.colorBoldWhite, strings.Repeat("=", 70), c.colorReset)

	fmt.Fprintf(c.writer, "  Root: %s\n", r.Root)
	fmt.Fprintf(c.writer, "  Loaded: %d  Failed: %d\n", r.Totals.Loaded, r.Totals.Failed)
	fmt.Fprintf(c.writer, "  Answered: %d  Aborted: %d\n", r.Totals.Answered, r.Totals.Aborted)
	fmt.Fprintf(c.writer, "  Actions: %d  Screenshots: %d\n", r.Totals.Actions, r.Totals.Screenshots)
	if r.Totals.PromptTokens > 0 || r.Totals.CompletionTokens > 0 {
		fmt.Fprintf(c.writer, "  Tokens: %s prompt / %s completion\n",
			formatNumber(r.Totals.PromptTokens), formatNumber(r.Totals.CompletionTokens))
	}

	if len(r.Failed) > 0 && c.level >= VerbosityNormal {
		fmt.Fprintf(c.writer, "\n%s  Failed to load:%s\n", c.colorBoldRed, c.colorReset)
		for _, dir := range r.Failed {
			fmt.Fprintf(c.writer, "    • %s\n", dir)
		}
	}

	fmt.Fprintf(c.writer, "%s%s%s\n", c.colorBoldWhite, strings.Repeat("=", 70), c.colorReset)
	fmt.Fprintln(c.writer)
}

// formatNumber formats large numbers with commas for readability
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%d,%03d", n/1000, n%1000)
	}
	return fmt.Sprintf("%d,%03d,%03d", n/1000000, (n/1000)%1000, n%1000)
}
