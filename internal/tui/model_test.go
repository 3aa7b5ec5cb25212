package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/petrijr/surveyflow/internal/catalog"
	"github.com/petrijr/surveyflow/internal/engine"
	"github.com/petrijr/surveyflow/internal/persistence"
	"github.com/petrijr/surveyflow/internal/session"
	"github.com/petrijr/surveyflow/pkg/api"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]api.QuestionDefinition{
		{
			ID: "platform", Text: "Which platforms?", Type: api.MultipleChoice, Importance: api.ImportanceHigh,
			Options: []api.Option{{Value: "pc", Label: "PC"}, {Value: "console", Label: "Console"}},
		},
		{
			ID: "console", Text: "Which consoles?", Type: api.MultipleChoice, Importance: api.ImportanceHigh,
			Options:   []api.Option{{Value: "xbox", Label: "Xbox"}, {Value: "switch", Label: "Switch"}},
			Branching: &api.BranchingCondition{Question: "platform", Includes: "console"},
		},
		{
			ID: "mood", Text: "What mood?", Type: api.SingleChoice, Importance: api.ImportanceMedium,
			Options: []api.Option{{Value: "relaxed", Label: "Relaxed"}, {Value: "competitive", Label: "Competitive"}},
		},
	})
	require.NoError(t, err)
	return cat
}

func newController(t *testing.T, backend persistence.Backend) *session.Controller {
	t.Helper()
	eng, err := engine.New(testCatalog(t))
	require.NoError(t, err)
	return session.New(eng, persistence.NewSessionStore(backend))
}

// startModel builds a model over ctrl and delivers the start message.
func startModel(t *testing.T, ctrl *session.Controller) *Model {
	t.Helper()
	m := New(context.Background(), ctrl)
	msg := m.Init()()
	_, cmd := m.Update(msg)
	require.Nil(t, cmd)
	return m
}

func press(t *testing.T, m *Model, keys ...string) tea.Cmd {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(keyMsg(k))
	}
	return cmd
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func requireQuit(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	require.True(t, ok, "expected tea.Quit")
}

func TestFreshRunShowsFirstQuestion(t *testing.T) {
	ctrl := newController(t, persistence.NewInMemoryBackend())
	m := startModel(t, ctrl)

	require.Equal(t, session.PhaseInProgress, ctrl.Phase())
	view := m.View()
	require.Contains(t, view, "Question 1 of 3")
	require.Contains(t, view, "Which platforms?")
	require.Contains(t, view, "back to start")
	require.NotContains(t, view, "skip", "the first question cannot be skipped")
}

func TestMultiChoiceToggleAndConfirm(t *testing.T) {
	ctrl := newController(t, persistence.NewInMemoryBackend())
	m := startModel(t, ctrl)

	press(t, m, "enter")
	require.Contains(t, m.View(), "Select at least one option first.")
	require.Equal(t, 0, ctrl.State().Position)

	press(t, m, "space", "down", "space", "space")
	require.Contains(t, m.View(), "[x] PC")
	require.Equal(t, api.Multi("pc"), ctrl.State().Answers["platform"])

	press(t, m, "enter")
	q, ok := ctrl.Current()
	require.True(t, ok)
	require.Equal(t, "mood", q.ID, "console question is hidden without console")
	require.Contains(t, m.View(), "Question 3 of 3")
	require.Contains(t, m.View(), "skip")
}

func TestSingleChoiceCompletes(t *testing.T) {
	ctrl := newController(t, persistence.NewInMemoryBackend())
	m := startModel(t, ctrl)

	press(t, m, "space", "enter")
	cmd := press(t, m, "j", "enter")

	requireQuit(t, cmd)
	require.Equal(t, OutcomeCompleted, m.Outcome())
	require.Equal(t, session.PhaseComplete, ctrl.Phase())
	require.Equal(t, api.Single("competitive"), ctrl.State().Answers["mood"])
	require.Contains(t, m.View(), "All done")
}

func TestSkipIgnoredOnFirstQuestion(t *testing.T) {
	ctrl := newController(t, persistence.NewInMemoryBackend())
	m := startModel(t, ctrl)

	press(t, m, "s")
	require.Equal(t, 0, ctrl.State().Position)
	require.Empty(t, ctrl.State().Answers)

	press(t, m, "space", "enter", "s")
	require.Equal(t, session.PhaseComplete, ctrl.Phase())
	require.True(t, ctrl.State().Answers["mood"].IsSkipped())
}

func TestBackNavigatesThenExits(t *testing.T) {
	ctrl := newController(t, persistence.NewInMemoryBackend())
	m := startModel(t, ctrl)

	press(t, m, "space", "enter")
	require.Equal(t, 2, ctrl.State().Position)

	cmd := press(t, m, "b")
	require.Nil(t, cmd)
	require.Equal(t, 0, ctrl.State().Position)
	require.Contains(t, m.View(), "[x] PC", "answers survive going back")

	cmd = press(t, m, "b")
	requireQuit(t, cmd)
	require.Equal(t, OutcomeExited, m.Outcome())
	require.Equal(t, session.PhaseExited, ctrl.Phase())
}

func TestResumePrompt(t *testing.T) {
	backend := persistence.NewInMemoryBackend()

	first := newController(t, backend)
	m1 := startModel(t, first)
	press(t, m1, "down", "space", "enter")
	require.Equal(t, 1, first.State().Position)
	requireQuit(t, press(t, m1, "q"))
	require.Equal(t, OutcomeQuit, m1.Outcome())

	t.Run("resume", func(t *testing.T) {
		ctrl := newController(t, backend)
		m := startModel(t, ctrl)

		require.Equal(t, session.PhaseAwaitingResume, ctrl.Phase())
		require.Contains(t, m.View(), "unfinished questionnaire")
		require.Contains(t, m.View(), "1 answers")

		press(t, m, "enter")
		require.Equal(t, session.PhaseInProgress, ctrl.Phase())
		require.Equal(t, 1, ctrl.State().Position)
		require.Contains(t, m.View(), "Which consoles?")
	})

	t.Run("start over", func(t *testing.T) {
		ctrl := newController(t, backend)
		m := startModel(t, ctrl)
		require.Equal(t, session.PhaseAwaitingResume, ctrl.Phase())

		press(t, m, "down", "enter")
		require.Equal(t, session.PhaseInProgress, ctrl.Phase())
		require.Equal(t, 0, ctrl.State().Position)
		require.Empty(t, ctrl.State().Answers)
	})
}

func TestStartFailureQuits(t *testing.T) {
	cat, err := catalog.New(nil)
	require.NoError(t, err)
	eng, err := engine.New(cat)
	require.NoError(t, err)
	ctrl := session.New(eng, persistence.NewSessionStore(persistence.NewInMemoryBackend()))

	m := New(context.Background(), ctrl)
	_, cmd := m.Update(m.Init()())

	requireQuit(t, cmd)
	require.Equal(t, OutcomeFailed, m.Outcome())
	require.ErrorIs(t, m.Err(), api.ErrNoQuestions)
	require.Contains(t, m.View(), "Error:")
}
