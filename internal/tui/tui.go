// Package tui runs one submission under an interactive terminal view: a
// spinner follows the controller's state until the outcome arrives.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JaimeStill/docriver/internal/render"
	"github.com/JaimeStill/docriver/pkg/submission"
)

// StateMsg reports a controller state transition.
type StateMsg submission.State

// DoneMsg carries the result of Controller.Submit.
type DoneMsg struct {
	Outcome submission.Outcome
	Err     error
}

// Model is the bubbletea model of a running submission.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	ctrl   *submission.Controller
	form   *submission.Form

	styles  render.Styles
	hint    lipgloss.Style
	spinner spinner.Model

	label string
	files []string
	state submission.State

	done    bool
	outcome submission.Outcome
	err     error
}

// NewModel prepares a model that submits form through ctrl when started.
// Canceling from the keyboard cancels the submission context.
func NewModel(ctx context.Context, ctrl *submission.Controller, form *submission.Form, styles render.Styles) Model {
	ctx, cancel := context.WithCancel(ctx)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#00BFFF"))

	var files []string
	for _, a := range form.Attachments() {
		files = append(files, a.Filename)
	}

	return Model{
		ctx:     ctx,
		cancel:  cancel,
		ctrl:    ctrl,
		form:    form,
		styles:  styles,
		hint:    lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		spinner: s,
		label:   submission.RenderLabel(ctrl.Config().Label, form.Metadata().Values()),
		files:   files,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.submit())
}

func (m Model) submit() tea.Cmd {
	return func() tea.Msg {
		o, err := m.ctrl.Submit(m.ctx, m.form)
		return DoneMsg{Outcome: o, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.cancel()
		}
		return m, nil

	case StateMsg:
		m.state = submission.State(msg)
		return m, nil

	case DoneMsg:
		m.done = true
		m.outcome, m.err = msg.Outcome, msg.Err
		m.cancel()
		return m, tea.Quit

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	if m.label != "" {
		b.WriteString(m.styles.Label.Render(m.label))
		b.WriteString("\n")
	}
	for _, f := range m.files {
		b.WriteString(m.styles.Line.Render(f))
		b.WriteString("\n")
	}

	switch {
	case m.done && m.err != nil:
		b.WriteString(m.styles.Alert.Render(m.err.Error()))
	case m.done:
		b.WriteString(render.Outcome(m.styles, m.outcome))
	default:
		fmt.Fprintf(&b, "%s %s", m.spinner.View(), m.state)
		b.WriteString("\n")
		b.WriteString(m.hint.Render("q to cancel"))
	}
	b.WriteString("\n")
	return b.String()
}

// Done reports whether the submission has finished.
func (m Model) Done() bool {
	return m.done
}

// Result returns the outcome and error of a finished submission.
func (m Model) Result() (submission.Outcome, error) {
	return m.outcome, m.err
}

// Run submits form under an interactive view and returns the outcome once
// the program exits.
func Run(ctx context.Context, ctrl *submission.Controller, form *submission.Form, styles render.Styles, opts ...tea.ProgramOption) (submission.Outcome, error) {
	m := NewModel(ctx, ctrl, form, styles)
	p := tea.NewProgram(m, opts...)

	ctrl.Observe(func(s submission.State) {
		p.Send(StateMsg(s))
	})

	final, err := p.Run()
	if err != nil {
		m.cancel()
		return submission.Outcome{}, fmt.Errorf("run terminal view: %w", err)
	}

	fm := final.(Model)
	if !fm.Done() {
		return submission.Outcome{}, errors.New("terminal view exited before the submission finished")
	}
	return fm.Result()
}
