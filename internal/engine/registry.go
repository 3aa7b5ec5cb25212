package engine

import (
	"fmt"

	"github.com/petrijr/surveyflow/pkg/api"
)

// Predicate decides from the answers given so far whether a question is shown.
type Predicate func(answers api.Answers) bool

// AnswerIncludes returns a predicate that holds when questionID was answered
// with value, or with a selection containing value. Absent and skipped
// answers never match.
func AnswerIncludes(questionID, value string) Predicate {
	return func(answers api.Answers) bool {
		a, ok := answers.Get(questionID)
		return ok && a.Contains(value)
	}
}

// ruleRegistry maps question ids to their visibility predicate. Questions
// without an entry are always visible.
type ruleRegistry struct {
	byQuestion map[string]Predicate
}

func newRuleRegistry() *ruleRegistry {
	return &ruleRegistry{
		byQuestion: make(map[string]Predicate),
	}
}

func (r *ruleRegistry) Register(questionID string, p Predicate) error {
	if p == nil {
		return fmt.Errorf("rule for %q: nil predicate", questionID)
	}
	if _, exists := r.byQuestion[questionID]; exists {
		return fmt.Errorf("rule for %q already registered", questionID)
	}
	r.byQuestion[questionID] = p
	return nil
}

func (r *ruleRegistry) Visible(questionID string, answers api.Answers) bool {
	p, ok := r.byQuestion[questionID]
	if !ok {
		return true
	}
	return p(answers)
}
