// Package session drives one questionnaire run: it offers resume or restart
// on start, persists every mutation through the session store and hands the
// final answers to a ResultsHandler on completion.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/petrijr/surveyflow/internal/engine"
	"github.com/petrijr/surveyflow/internal/persistence"
	"github.com/petrijr/surveyflow/pkg/api"
)

// Phase is the controller's position in the run lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingResume
	PhaseInProgress
	PhaseComplete
	PhaseExited
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingResume:
		return "awaiting_resume"
	case PhaseInProgress:
		return "in_progress"
	case PhaseComplete:
		return "complete"
	case PhaseExited:
		return "exited"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// StartResult describes what Start found in storage.
type StartResult struct {
	// ResumeAvailable is true when an unfinished session was found; the
	// caller must then choose Resume or Restart.
	ResumeAvailable bool
	AnsweredCount   int
	LastUpdated     time.Time
}

// Progress reports how far the run has come.
type Progress struct {
	// Index is the 1-based number of the current question.
	Index   int
	Total   int
	Percent int
}

// Controller orchestrates the engine and the session store for a single
// actor. It is not safe for concurrent use.
type Controller struct {
	engine   *engine.Engine
	store    *persistence.SessionStore
	observer api.Observer
	results  api.ResultsHandler
	logger   *slog.Logger
	newID    func() string

	phase   Phase
	state   api.SessionState
	pending persistence.Record
}

// Option customizes a Controller.
type Option func(*Controller)

// WithObserver sets the observer notified of session events.
func WithObserver(o api.Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithResultsHandler sets the receiver of the final answers.
func WithResultsHandler(h api.ResultsHandler) Option {
	return func(c *Controller) {
		c.results = h
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithIDGenerator overrides how session ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// New returns a controller in PhaseIdle.
func New(e *engine.Engine, store *persistence.SessionStore, opts ...Option) *Controller {
	c := &Controller{
		engine:   e,
		store:    store,
		observer: api.NoopObserver{},
		logger:   slog.Default(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins a run. When storage holds an unfinished session the
// controller waits in PhaseAwaitingResume for Resume or Restart; otherwise a
// fresh session starts immediately and replaces any stored record.
func (c *Controller) Start(ctx context.Context) (StartResult, error) {
	if c.phase == PhaseAwaitingResume || c.phase == PhaseInProgress {
		return StartResult{}, fmt.Errorf("%w: run already started (%s)", api.ErrInvalidState, c.phase)
	}
	if len(c.engine.ActiveQuestionIDs()) == 0 {
		return StartResult{}, api.ErrNoQuestions
	}

	if rec, ok := c.store.Load(ctx); ok && !rec.IsCompleted {
		c.pending = rec
		c.phase = PhaseAwaitingResume
		c.logger.Info("resume_available",
			slog.Int("answers", len(rec.Answers)),
			slog.Time("last_updated", rec.UpdatedAt()),
		)
		return StartResult{
			ResumeAvailable: true,
			AnsweredCount:   len(rec.Answers),
			LastUpdated:     rec.UpdatedAt(),
		}, nil
	}

	c.begin(ctx)
	return StartResult{}, nil
}

// Resume continues the stored session. A stored position that no longer
// fits the active question list starts a fresh session instead.
func (c *Controller) Resume(ctx context.Context) error {
	if c.phase != PhaseAwaitingResume {
		return fmt.Errorf("%w: no resume choice pending", api.ErrInvalidState)
	}

	s, ok := c.restore(c.pending)
	c.pending = persistence.Record{}
	if !ok {
		c.logger.Warn("resume_discarded", slog.String("reason", "position out of range"))
		c.begin(ctx)
		return nil
	}

	c.state = s
	c.phase = PhaseInProgress
	c.observer.OnSessionStart(ctx, c.snapshot(), true)
	return nil
}

// Restart discards the stored session and starts a fresh one.
func (c *Controller) Restart(ctx context.Context) error {
	if c.phase != PhaseAwaitingResume {
		return fmt.Errorf("%w: no resume choice pending", api.ErrInvalidState)
	}

	c.pending = persistence.Record{}
	c.store.Clear(ctx)
	c.begin(ctx)
	return nil
}

// Answer records answer for the current question and advances.
func (c *Controller) Answer(ctx context.Context, answer api.Answer) error {
	qid, err := c.currentID()
	if err != nil {
		return err
	}
	next, err := c.engine.RecordAnswer(c.state, answer)
	if err != nil {
		return err
	}
	c.commit(ctx, next, qid)
	return nil
}

// Skip skips the current question. The first question cannot be skipped.
func (c *Controller) Skip(ctx context.Context) error {
	return c.Answer(ctx, api.Skipped())
}

// Toggle flips option in the pending selection of the current
// multiple-choice question.
func (c *Controller) Toggle(ctx context.Context, option string) error {
	if _, err := c.currentID(); err != nil {
		return err
	}
	next, err := c.engine.ToggleMultiChoice(c.state, option)
	if err != nil {
		return err
	}
	c.state = next
	c.merge(ctx)
	return nil
}

// Confirm submits the pending selection of the current multiple-choice
// question.
func (c *Controller) Confirm(ctx context.Context) error {
	qid, err := c.currentID()
	if err != nil {
		return err
	}
	next, err := c.engine.ConfirmMultiChoice(c.state)
	if err != nil {
		return err
	}
	c.commit(ctx, next, qid)
	return nil
}

// Back returns to the previously visited question. On the first question it
// reports exit == true and moves the controller to PhaseExited; the stored
// session stays available for a later resume.
func (c *Controller) Back(ctx context.Context) (exit bool, err error) {
	if c.phase != PhaseInProgress {
		return false, fmt.Errorf("%w: no session in progress", api.ErrInvalidState)
	}

	from := c.state.Position
	next, exit, err := c.engine.GoBack(c.state)
	if err != nil {
		return false, err
	}
	if exit {
		c.phase = PhaseExited
		c.logger.Info("session_exited", slog.String("session_id", c.state.SessionID))
		return true, nil
	}

	c.state = next
	c.merge(ctx)
	c.observer.OnNavigateBack(ctx, c.snapshot(), from, next.Position)
	return false, nil
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase { return c.phase }

// State returns a copy of the in-memory session.
func (c *Controller) State() api.SessionState { return c.state.Clone() }

// Current returns the question to show, if any.
func (c *Controller) Current() (api.QuestionDefinition, bool) {
	if c.phase != PhaseInProgress {
		return api.QuestionDefinition{}, false
	}
	id, ok := c.state.CurrentQuestionID()
	if !ok {
		return api.QuestionDefinition{}, false
	}
	return c.engine.Question(id)
}

// CanSkip reports whether the current question may be skipped.
func (c *Controller) CanSkip() bool {
	return c.phase == PhaseInProgress && c.state.Position > 0
}

// Progress reports the current question number and completion percentage.
func (c *Controller) Progress() Progress {
	total := len(c.state.ActiveQuestionIDs)
	if total == 0 {
		return Progress{}
	}
	if c.state.Completed {
		return Progress{Index: total, Total: total, Percent: 100}
	}
	idx := c.state.Position + 1
	return Progress{
		Index:   idx,
		Total:   total,
		Percent: (idx*100 + total/2) / total,
	}
}

func (c *Controller) begin(ctx context.Context) {
	c.state = c.engine.NewSession(c.newID(), c.store.SchemaVersion())
	c.phase = PhaseInProgress

	// A plain save replaces a completed record that a merge would keep.
	c.store.Save(ctx, recordOf(c.state))
	c.observer.OnSessionStart(ctx, c.snapshot(), false)
}

func (c *Controller) commit(ctx context.Context, next api.SessionState, questionID string) {
	c.state = next
	answer := next.Answers[questionID]

	if !next.Completed {
		c.merge(ctx)
		c.observer.OnAnswerRecorded(ctx, c.snapshot(), questionID, answer)
		return
	}

	c.phase = PhaseComplete
	c.store.MarkCompleted(ctx, next.Answers, next.SessionID)
	c.observer.OnAnswerRecorded(ctx, c.snapshot(), questionID, answer)
	c.observer.OnSessionCompleted(ctx, c.snapshot())

	if c.results == nil {
		return
	}
	if err := c.results.HandleResults(ctx, next.Answers.Clone()); err != nil {
		c.logger.Warn("results_handler_failed",
			slog.String("session_id", next.SessionID),
			slog.Any("error", err),
		)
	}
}

func (c *Controller) merge(ctx context.Context) {
	pos := c.state.Position
	c.store.Merge(ctx, persistence.Patch{
		Answers:   c.state.Answers,
		Position:  &pos,
		History:   c.state.History,
		SessionID: c.state.SessionID,
	})
}

func (c *Controller) currentID() (string, error) {
	if c.phase != PhaseInProgress {
		return "", fmt.Errorf("%w: no session in progress", api.ErrInvalidState)
	}
	id, ok := c.state.CurrentQuestionID()
	if !ok {
		return "", fmt.Errorf("%w: no current question", api.ErrInvalidState)
	}
	return id, nil
}

// restore rebuilds a session from a stored record. Answers for questions
// the catalog no longer has are dropped.
func (c *Controller) restore(rec persistence.Record) (api.SessionState, bool) {
	ids := c.engine.ActiveQuestionIDs()
	pos, _ := rec.Position()
	if pos < 0 || pos >= len(ids) {
		return api.SessionState{}, false
	}

	answers := make(api.Answers, len(rec.Answers))
	for id, a := range rec.Answers {
		if _, ok := c.engine.Question(id); ok {
			answers[id] = a.Clone()
		}
	}

	history := rec.History
	if !validHistory(history, pos, len(ids)) {
		history = contiguousHistory(pos)
	}

	id := rec.SessionID
	if id == "" {
		id = c.newID()
	}

	return api.SessionState{
		SessionID:         id,
		Answers:           answers,
		ActiveQuestionIDs: ids,
		Position:          pos,
		History:           append([]int(nil), history...),
		SchemaVersion:     rec.Version,
		UpdatedAt:         rec.UpdatedAt(),
	}, true
}

// validHistory reports whether h is a usable back stack ending at pos.
func validHistory(h []int, pos, n int) bool {
	if len(h) == 0 || h[0] != 0 || h[len(h)-1] != pos {
		return false
	}
	for i := 1; i < len(h); i++ {
		if h[i] <= h[i-1] || h[i] >= n {
			return false
		}
	}
	return true
}

func contiguousHistory(pos int) []int {
	h := make([]int, pos+1)
	for i := range h {
		h[i] = i
	}
	return h
}

func recordOf(s api.SessionState) persistence.Record {
	return persistence.Record{
		Answers:              s.Answers.Clone(),
		IsCompleted:          s.Completed,
		CurrentQuestionIndex: persistence.IntPtr(s.Position),
		History:              append([]int(nil), s.History...),
		SessionID:            s.SessionID,
	}
}

func (c *Controller) snapshot() *api.SessionState {
	s := c.state.Clone()
	return &s
}
