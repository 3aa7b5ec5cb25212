package api

import (
	"context"
	"time"
)

// SessionState is one questionnaire run.
//
// Invariants while the session is in progress:
//   - History[0] == 0 and History[len(History)-1] == Position.
//   - ActiveQuestionIDs never changes after the session is created.
//
// Once Completed is set, Position == len(ActiveQuestionIDs).
type SessionState struct {
	SessionID         string
	Answers           Answers
	ActiveQuestionIDs []string
	Position          int
	History           []int
	Completed         bool
	SchemaVersion     string
	UpdatedAt         time.Time
}

// CurrentQuestionID returns the id at Position, or false when the session
// is complete.
func (s SessionState) CurrentQuestionID() (string, bool) {
	if s.Completed || s.Position < 0 || s.Position >= len(s.ActiveQuestionIDs) {
		return "", false
	}
	return s.ActiveQuestionIDs[s.Position], true
}

// Clone returns a deep copy of s.
func (s SessionState) Clone() SessionState {
	out := s
	out.Answers = s.Answers.Clone()
	out.ActiveQuestionIDs = cloneStrings(s.ActiveQuestionIDs)
	out.History = cloneInts(s.History)
	return out
}

// ResultsHandler receives the final answers once a session completes.
type ResultsHandler interface {
	HandleResults(ctx context.Context, answers Answers) error
}

// ResultsHandlerFunc adapts a function to ResultsHandler.
type ResultsHandlerFunc func(ctx context.Context, answers Answers) error

func (f ResultsHandlerFunc) HandleResults(ctx context.Context, answers Answers) error {
	return f(ctx, answers)
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func cloneInts(values []int) []int {
	if values == nil {
		return nil
	}
	out := make([]int, len(values))
	copy(out, values)
	return out
}
