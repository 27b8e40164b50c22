// Package replay is a terminal viewer that steps through a recorded
// trajectory one action at a time.
package replay

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/webeval/pkg/trajectory"
)

const (
	defaultWidth  = 80
	defaultHeight = 24

	// header and status bar lines around the viewport
	chromeHeight = 4
)

type keyMap struct {
	Next  key.Binding
	Prev  key.Binding
	First key.Binding
	Last  key.Binding
	Copy  key.Binding
	Quit  key.Binding
}

var keys = keyMap{
	Next: key.NewBinding(
		key.WithKeys("n", "right", "l"),
		key.WithHelp("n/→", "next"),
	),
	Prev: key.NewBinding(
		key.WithKeys("p", "left", "h"),
		key.WithHelp("p/←", "previous"),
	),
	First: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "first"),
	),
	Last: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "last"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy action"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Option customizes a Model.
type Option func(*Model)

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		m.copy = write
	}
}

// WithHighlighting turns JSON syntax highlighting on or off. It is on by
// default.
func WithHighlighting(enabled bool) Option {
	return func(m *Model) {
		m.highlight = enabled
	}
}

// Model is the bubbletea model of the viewer.
type Model struct {
	traj      *trajectory.Trajectory
	steps     []Step
	index     int
	viewport  viewport.Model
	width     int
	height    int
	status    string
	highlight bool
	copy      func(string) error
}

// New creates a viewer positioned on the first step of t.
func New(t *trajectory.Trajectory, opts ...Option) *Model {
	vp := viewport.New(defaultWidth, defaultHeight-chromeHeight)
	vp.Style = lipgloss.NewStyle()

	m := &Model{
		traj:      t,
		steps:     Steps(t),
		viewport:  vp,
		width:     defaultWidth,
		height:    defaultHeight,
		highlight: true,
		copy:      clipboard.WriteAll,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.refresh()
	return m
}

// Run shows the viewer until the user quits or ctx is canceled.
func Run(ctx context.Context, t *trajectory.Trajectory, opts ...Option) error {
	program := tea.NewProgram(
		New(t, opts...),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := program.Run()
	return err
}

// Index returns the position of the current step.
func (m *Model) Index() int {
	return m.index
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 1)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Next):
			m.goTo(m.index + 1)
			return m, nil
		case key.Matches(msg, keys.Prev):
			m.goTo(m.index - 1)
			return m, nil
		case key.Matches(msg, keys.First):
			m.goTo(0)
			return m, nil
		case key.Matches(msg, keys.Last):
			m.goTo(len(m.steps) - 1)
			return m, nil
		case key.Matches(msg, keys.Copy):
			m.copyAction()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) goTo(i int) {
	if len(m.steps) == 0 {
		return
	}
	i = min(max(i, 0), len(m.steps)-1)
	if i == m.index {
		return
	}
	m.index = i
	m.status = ""
	m.refresh()
	m.viewport.GotoTop()
}

func (m *Model) copyAction() {
	if len(m.steps) == 0 {
		m.status = "nothing to copy"
		return
	}
	if err := m.copy(m.steps[m.index].Action); err != nil {
		m.status = fmt.Sprintf("copy failed: %v", err)
		return
	}
	m.status = fmt.Sprintf("copied action %d", m.index+1)
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderStep())
}

func (m *Model) renderStep() string {
	if len(m.steps) == 0 {
		return helpStyle.Render("This trajectory has no actions.")
	}

	step := m.steps[m.index]
	var b strings.Builder

	if step.Thought != "" {
		b.WriteString(labelStyle.Render("Thought"))
		b.WriteString("\n")
		b.WriteString(thoughtStyle.Width(max(m.width-2, 10)).Render(step.Thought))
		b.WriteString("\n\n")
	}

	b.WriteString(labelStyle.Render("Action"))
	b.WriteString("\n")
	b.WriteString(m.renderAction(step.Action))
	b.WriteString("\n")

	if step.Screenshot != "" {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Screenshot"))
		b.WriteString(" ")
		b.WriteString(step.Screenshot)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderAction(action string) string {
	pretty := indentJSON(action)
	if !m.highlight {
		return actionStyle.Render(pretty)
	}

	var out strings.Builder
	if err := quick.Highlight(&out, pretty, "json", "terminal256", "monokai"); err != nil {
		return actionStyle.Render(pretty)
	}
	return out.String()
}

func (m *Model) renderHeader() string {
	title := headerStyle.Render(m.traj.Name())
	position := fmt.Sprintf("step %d/%d", m.index+1, len(m.steps))
	if len(m.steps) == 0 {
		position = "no steps"
	}
	if step := m.currentStep(); step != nil && step.Name != "" {
		position += " · " + step.Name
	}

	answer := trajectory.NoAnswer
	if m.traj.Answer != nil {
		answer = m.traj.Answer.FinalAnswer
	}
	line := answerStyle.Render("answer: " + answer)
	if m.traj.IsAborted() {
		line += " " + abortedStyle.Render("[aborted]")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title+"  "+statusBarStyle.Render(position),
		line,
	)
}

func (m *Model) currentStep() *Step {
	if len(m.steps) == 0 {
		return nil
	}
	return &m.steps[m.index]
}

func (m *Model) renderFooter() string {
	help := helpStyle.Render("n/p step · g/G first/last · ↑/↓ scroll · y copy · q quit")
	if m.status != "" {
		return statusBarStyle.Render(m.status) + "  " + help
	}
	return help
}

// View implements tea.Model.
func (m *Model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		"",
		m.viewport.View(),
		m.renderFooter(),
	)
}
