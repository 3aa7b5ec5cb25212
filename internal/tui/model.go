// Package tui is the terminal front end of a questionnaire run. It renders
// the controller's current question and maps key presses to controller
// operations; every decision stays in the controller.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/petrijr/surveyflow/internal/session"
	"github.com/petrijr/surveyflow/pkg/api"
)

// Outcome tells the caller how the program ended.
type Outcome int

const (
	OutcomeQuit Outcome = iota
	OutcomeCompleted
	OutcomeExited
	OutcomeFailed
)

// startMsg asks the model to start the controller.
type startMsg struct{}

// Model is the bubbletea model driving one Controller.
type Model struct {
	ctx  context.Context
	ctrl *session.Controller
	keys keyMap
	help help.Model
	bar  progress.Model

	title   string
	start   session.StartResult
	cursor  int
	status  string
	outcome Outcome
	err     error
	width   int
}

// Option customizes a Model.
type Option func(*Model)

// WithTitle sets the heading shown above every question.
func WithTitle(title string) Option {
	return func(m *Model) {
		if title != "" {
			m.title = title
		}
	}
}

// New returns a model for ctrl. ctrl must be in PhaseIdle; the model calls
// Start itself.
func New(ctx context.Context, ctrl *session.Controller, opts ...Option) *Model {
	m := &Model{
		ctx:   ctx,
		ctrl:  ctrl,
		keys:  defaultKeyMap(),
		help:  help.New(),
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		title: "🎮 Game preferences",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Outcome reports how the run ended once the program has quit.
func (m *Model) Outcome() Outcome { return m.outcome }

// Err returns the error that stopped the run, if any.
func (m *Model) Err() error { return m.err }

// Init starts the controller on the first update.
func (m *Model) Init() tea.Cmd {
	return func() tea.Msg { return startMsg{} }
}

// Update handles messages for the questionnaire.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(20, min(60, msg.Width-10))
		return m, nil

	case startMsg:
		res, err := m.ctrl.Start(m.ctx)
		if err != nil {
			m.err = err
			m.outcome = OutcomeFailed
			return m, tea.Quit
		}
		m.start = res
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		switch m.ctrl.Phase() {
		case session.PhaseAwaitingResume:
			return m, m.handleResumeKey(msg)
		case session.PhaseInProgress:
			return m, m.handleQuestionKey(msg)
		case session.PhaseComplete, session.PhaseExited:
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m *Model) handleResumeKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = 0
	case key.Matches(msg, m.keys.Down):
		m.cursor = 1
	case key.Matches(msg, m.keys.Resume):
		m.apply(m.ctrl.Resume(m.ctx))
	case key.Matches(msg, m.keys.Fresh):
		m.apply(m.ctrl.Restart(m.ctx))
	case key.Matches(msg, m.keys.Select):
		if m.cursor == 0 {
			m.apply(m.ctrl.Resume(m.ctx))
		} else {
			m.apply(m.ctrl.Restart(m.ctx))
		}
	}
	return nil
}

func (m *Model) handleQuestionKey(msg tea.KeyMsg) tea.Cmd {
	q, ok := m.ctrl.Current()
	if !ok {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(q.Options)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Toggle):
		if q.Type != api.MultipleChoice {
			return nil
		}
		m.status = ""
		if err := m.ctrl.Toggle(m.ctx, q.Options[m.cursor].Value); err != nil {
			m.status = err.Error()
		}

	case key.Matches(msg, m.keys.Select):
		var err error
		if q.Type == api.MultipleChoice {
			err = m.ctrl.Confirm(m.ctx)
		} else {
			err = m.ctrl.Answer(m.ctx, api.Single(q.Options[m.cursor].Value))
		}
		if errors.Is(err, api.ErrInvalidState) && q.Type == api.MultipleChoice {
			m.status = "Select at least one option first."
			return nil
		}
		m.apply(err)

	case key.Matches(msg, m.keys.Skip):
		if !m.ctrl.CanSkip() {
			return nil
		}
		m.apply(m.ctrl.Skip(m.ctx))

	case key.Matches(msg, m.keys.Back):
		exit, err := m.ctrl.Back(m.ctx)
		if err != nil {
			m.status = err.Error()
			return nil
		}
		if exit {
			m.outcome = OutcomeExited
			return tea.Quit
		}
		m.cursor = 0
		m.status = ""
	}

	if m.ctrl.Phase() == session.PhaseComplete {
		m.outcome = OutcomeCompleted
		return tea.Quit
	}
	return nil
}

// apply resets per-question view state after a controller transition, or
// shows err.
func (m *Model) apply(err error) {
	if err != nil {
		m.status = err.Error()
		return
	}
	m.cursor = 0
	m.status = ""
}

// View renders the current screen.
func (m *Model) View() string {
	var body string
	switch m.ctrl.Phase() {
	case session.PhaseIdle:
		if m.err != nil {
			body = statusStyle.Render("Error: " + m.err.Error())
		} else {
			body = dimStyle.Render("Loading…")
		}
	case session.PhaseAwaitingResume:
		body = m.resumeView()
	case session.PhaseInProgress:
		body = m.questionView()
	case session.PhaseComplete:
		body = m.doneView()
	case session.PhaseExited:
		body = dimStyle.Render("Your answers are saved. Come back any time to continue.")
	}

	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(m.title), body)
}

func (m *Model) resumeView() string {
	var b strings.Builder
	b.WriteString(questionStyle.Render("You have an unfinished questionnaire."))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d answers, last updated %s",
		m.start.AnsweredCount, m.start.LastUpdated.Local().Format("2006-01-02 15:04"))))
	b.WriteString("\n\n")

	for i, label := range []string{"Continue where I left off", "Start over"} {
		b.WriteString(m.optionLine(i == m.cursor, false, false, label))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{
		m.keys.Up, m.keys.Down, m.keys.Select, m.keys.Resume, m.keys.Fresh, m.keys.Quit,
	}))
	return b.String()
}

func (m *Model) questionView() string {
	q, ok := m.ctrl.Current()
	if !ok {
		return ""
	}
	state := m.ctrl.State()
	pending, _ := state.Answers.Get(q.ID)
	multi := q.Type == api.MultipleChoice

	var b strings.Builder
	p := m.ctrl.Progress()
	b.WriteString(dimStyle.Render(fmt.Sprintf("Question %d of %d", p.Index, p.Total)))
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(float64(p.Percent) / 100))
	b.WriteString("\n\n")
	b.WriteString(questionStyle.Render(q.Text))
	if multi {
		b.WriteString(dimStyle.Render("  (choose one or more)"))
	}
	b.WriteString("\n\n")

	options := make([]string, len(q.Options))
	for i, o := range q.Options {
		label := o.Label
		if label == "" {
			label = o.Value
		}
		options[i] = m.optionLine(i == m.cursor, multi, multi && pending.Contains(o.Value), label)
	}
	b.WriteString(boxStyle.Render(strings.Join(options, "\n")))
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	back := m.keys.Back
	if state.Position == 0 {
		back.SetHelp("b", "back to start")
	}
	bindings := []key.Binding{m.keys.Up, m.keys.Down}
	if multi {
		bindings = append(bindings, m.keys.Toggle)
	}
	bindings = append(bindings, m.keys.Select)
	if m.ctrl.CanSkip() {
		bindings = append(bindings, m.keys.Skip)
	}
	bindings = append(bindings, back, m.keys.Quit)

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(bindings))
	return b.String()
}

func (m *Model) doneView() string {
	state := m.ctrl.State()
	answered := 0
	for _, a := range state.Answers {
		if !a.IsSkipped() {
			answered++
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.bar.ViewAs(1),
		"",
		selectedStyle.Render("✔ All done, thanks!"),
		dimStyle.Render(fmt.Sprintf("%d questions answered, %d skipped.", answered, len(state.Answers)-answered)),
	)
}

func (m *Model) optionLine(focused, multi, checked bool, label string) string {
	cursor := "  "
	if focused {
		cursor = cursorStyle.Render(">") + " "
	}
	if !multi {
		return cursor + label
	}
	box := "[ ]"
	if checked {
		box = selectedStyle.Render("[x]")
	}
	return cursor + box + " " + label
}
