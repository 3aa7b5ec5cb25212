// Package engine holds the questionnaire decision logic: which question is
// shown next, how answers mutate a session, and how back navigation works.
//
// Every operation takes a session by value and returns a new one; the input
// is never modified, so a rejected call leaves the caller's state intact.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/petrijr/surveyflow/internal/catalog"
	"github.com/petrijr/surveyflow/pkg/api"
)

// Engine evaluates questionnaire transitions for one catalog.
type Engine struct {
	questions map[string]api.QuestionDefinition
	active    []string
	rules     *ruleRegistry
	now       func() time.Time

	extra map[string]Predicate
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRule adds a visibility predicate for a question that has no branching
// condition in the catalog.
func WithRule(questionID string, p Predicate) Option {
	return func(e *Engine) {
		e.extra[questionID] = p
	}
}

// WithClock overrides the time source used to stamp UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New builds an engine over cat. The predicate table is filled from the
// catalog's branching conditions plus any WithRule options.
func New(cat *catalog.Catalog, opts ...Option) (*Engine, error) {
	if cat == nil {
		return nil, errors.New("engine: catalog is required")
	}

	e := &Engine{
		questions: make(map[string]api.QuestionDefinition, cat.Len()),
		active:    cat.ActiveQuestionIDs(),
		rules:     newRuleRegistry(),
		now:       time.Now,
		extra:     make(map[string]Predicate),
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, q := range cat.Questions() {
		e.questions[q.ID] = q
		if b := q.Branching; b != nil {
			if err := e.rules.Register(q.ID, AnswerIncludes(b.Question, b.Includes)); err != nil {
				return nil, fmt.Errorf("engine: %w", err)
			}
		}
	}
	for id, p := range e.extra {
		if _, ok := e.questions[id]; !ok {
			return nil, fmt.Errorf("engine: rule for unknown question %q", id)
		}
		if err := e.rules.Register(id, p); err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
	}
	e.extra = nil

	return e, nil
}

// ActiveQuestionIDs returns a copy of the active question list.
func (e *Engine) ActiveQuestionIDs() []string {
	out := make([]string, len(e.active))
	copy(out, e.active)
	return out
}

// Question returns the definition for id.
func (e *Engine) Question(id string) (api.QuestionDefinition, bool) {
	q, ok := e.questions[id]
	return q, ok
}

// NewSession returns an empty in-progress session positioned on the first
// active question.
func (e *Engine) NewSession(sessionID, schemaVersion string) api.SessionState {
	return api.SessionState{
		SessionID:         sessionID,
		Answers:           api.Answers{},
		ActiveQuestionIDs: e.ActiveQuestionIDs(),
		Position:          0,
		History:           []int{0},
		SchemaVersion:     schemaVersion,
		UpdatedAt:         e.now(),
	}
}

// Visible reports whether questionID should be shown given answers.
func (e *Engine) Visible(questionID string, answers api.Answers) bool {
	return e.rules.Visible(questionID, answers)
}

// NextPosition returns the first index after current whose question is
// visible, or len(ids) when none is left.
func (e *Engine) NextPosition(current int, ids []string, answers api.Answers) int {
	next := current + 1
	for next < len(ids) {
		if e.Visible(ids[next], answers) {
			return next
		}
		next++
	}
	return len(ids)
}

// RecordAnswer stores answer for the current question and moves to the next
// visible one. When none is left the session is marked completed and
// Position is left at len(ActiveQuestionIDs).
func (e *Engine) RecordAnswer(s api.SessionState, answer api.Answer) (api.SessionState, error) {
	q, err := e.current(s)
	if err != nil {
		return s, err
	}
	if answer.IsSkipped() && s.Position == 0 {
		return s, fmt.Errorf("%w: the first question cannot be skipped", api.ErrInvalidState)
	}
	if err := checkAnswer(q, answer); err != nil {
		return s, err
	}

	out := s.Clone()
	if out.Answers == nil {
		out.Answers = api.Answers{}
	}
	out.Answers[q.ID] = answer.Clone()

	next := e.NextPosition(out.Position, out.ActiveQuestionIDs, out.Answers)
	if next >= len(out.ActiveQuestionIDs) {
		out.Completed = true
		out.Position = next
	} else {
		out.Position = next
		out.History = append(out.History, next)
	}
	out.UpdatedAt = e.stamp(s.UpdatedAt)

	return out, nil
}

// Skip records an explicit skip for the current question.
func (e *Engine) Skip(s api.SessionState) (api.SessionState, error) {
	return e.RecordAnswer(s, api.Skipped())
}

// ToggleMultiChoice adds option to the pending selection of the current
// multiple-choice question, or removes it when already selected. Position
// does not change.
func (e *Engine) ToggleMultiChoice(s api.SessionState, option string) (api.SessionState, error) {
	q, err := e.current(s)
	if err != nil {
		return s, err
	}
	if q.Type != api.MultipleChoice {
		return s, fmt.Errorf("%w: %q is not a multiple-choice question", api.ErrInvalidState, q.ID)
	}
	if !q.HasOption(option) {
		return s, fmt.Errorf("%w: %q is not an option of %q", api.ErrInvalidAnswer, option, q.ID)
	}

	var selected []string
	if prev, ok := s.Answers.Get(q.ID); ok && prev.Kind == api.AnswerMulti {
		selected = prev.Values
	}

	values := make([]string, 0, len(selected)+1)
	removed := false
	for _, v := range selected {
		if v == option {
			removed = true
			continue
		}
		values = append(values, v)
	}
	if !removed {
		values = append(values, option)
	}

	out := s.Clone()
	if out.Answers == nil {
		out.Answers = api.Answers{}
	}
	out.Answers[q.ID] = api.Multi(values...)
	out.UpdatedAt = e.stamp(s.UpdatedAt)

	return out, nil
}

// ConfirmMultiChoice submits the pending selection of the current
// multiple-choice question. The selection must not be empty.
func (e *Engine) ConfirmMultiChoice(s api.SessionState) (api.SessionState, error) {
	q, err := e.current(s)
	if err != nil {
		return s, err
	}
	if q.Type != api.MultipleChoice {
		return s, fmt.Errorf("%w: %q is not a multiple-choice question", api.ErrInvalidState, q.ID)
	}

	pending, ok := s.Answers.Get(q.ID)
	if !ok || pending.Kind != api.AnswerMulti || len(pending.Values) == 0 {
		return s, fmt.Errorf("%w: no option selected for %q", api.ErrInvalidState, q.ID)
	}

	return e.RecordAnswer(s, pending)
}

// GoBack returns to the previously visited question. Answers are kept.
//
// When the session is on its first visited question, GoBack leaves the
// state unchanged and reports exit == true: the caller should leave the
// questionnaire.
func (e *Engine) GoBack(s api.SessionState) (out api.SessionState, exit bool, err error) {
	if s.Completed {
		return s, false, fmt.Errorf("%w: session is complete", api.ErrInvalidState)
	}
	if len(s.History) <= 1 {
		return s, true, nil
	}

	out = s.Clone()
	out.History = out.History[:len(out.History)-1]
	out.Position = out.History[len(out.History)-1]
	out.UpdatedAt = e.stamp(s.UpdatedAt)

	return out, false, nil
}

func (e *Engine) current(s api.SessionState) (api.QuestionDefinition, error) {
	if s.Completed {
		return api.QuestionDefinition{}, fmt.Errorf("%w: session is complete", api.ErrInvalidState)
	}
	id, ok := s.CurrentQuestionID()
	if !ok {
		return api.QuestionDefinition{}, fmt.Errorf("%w: position %d out of range", api.ErrInvalidState, s.Position)
	}
	q, ok := e.questions[id]
	if !ok {
		return api.QuestionDefinition{}, fmt.Errorf("%w: unknown question %q", api.ErrInvalidState, id)
	}
	return q, nil
}

// stamp returns the current time, never earlier than prev.
func (e *Engine) stamp(prev time.Time) time.Time {
	now := e.now()
	if now.Before(prev) {
		return prev
	}
	return now
}

func checkAnswer(q api.QuestionDefinition, a api.Answer) error {
	switch a.Kind {
	case api.AnswerSkipped:
		return nil
	case api.AnswerSingle:
		if q.Type != api.SingleChoice {
			return fmt.Errorf("%w: %q expects a selection of options", api.ErrInvalidAnswer, q.ID)
		}
		if !q.HasOption(a.Value) {
			return fmt.Errorf("%w: %q is not an option of %q", api.ErrInvalidAnswer, a.Value, q.ID)
		}
	case api.AnswerMulti:
		if q.Type != api.MultipleChoice {
			return fmt.Errorf("%w: %q expects a single option", api.ErrInvalidAnswer, q.ID)
		}
		if len(a.Values) == 0 {
			return fmt.Errorf("%w: empty selection for %q", api.ErrInvalidAnswer, q.ID)
		}
		for _, v := range a.Values {
			if !q.HasOption(v) {
				return fmt.Errorf("%w: %q is not an option of %q", api.ErrInvalidAnswer, v, q.ID)
			}
		}
	default:
		return fmt.Errorf("%w: unknown answer kind %d", api.ErrInvalidAnswer, a.Kind)
	}
	return nil
}
