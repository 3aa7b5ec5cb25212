package api

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Observer receives callbacks from the session controller for logging and metrics.
//
// Implementations should be fast and non-blocking; they run inline with the
// user's action.
type Observer interface {
	// OnSessionStart is called once a session becomes active, either fresh
	// (resumed == false) or restored from storage.
	OnSessionStart(ctx context.Context, s *SessionState, resumed bool)

	// OnAnswerRecorded is called after an answer (or skip) moved the session
	// forward. s is the state after the transition.
	OnAnswerRecorded(ctx context.Context, s *SessionState, questionID string, answer Answer)

	// OnNavigateBack is called after a successful back transition.
	OnNavigateBack(ctx context.Context, s *SessionState, from, to int)

	// OnSessionCompleted is called when the last visible question is answered.
	OnSessionCompleted(ctx context.Context, s *SessionState)

	// OnStorageError is called when a best-effort store operation failed.
	// op names the store operation ("save", "load", "clear").
	OnStorageError(ctx context.Context, op string, err error)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnSessionStart(ctx context.Context, s *SessionState, resumed bool) {}
func (NoopObserver) OnAnswerRecorded(ctx context.Context, s *SessionState, questionID string, answer Answer) {
}
func (NoopObserver) OnNavigateBack(ctx context.Context, s *SessionState, from, to int) {}
func (NoopObserver) OnSessionCompleted(ctx context.Context, s *SessionState)             {}
func (NoopObserver) OnStorageError(ctx context.Context, op string, err error)           {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnSessionStart(ctx context.Context, s *SessionState, resumed bool) {
	for _, o := range c.observers {
		o.OnSessionStart(ctx, s, resumed)
	}
}

func (c *CompositeObserver) OnAnswerRecorded(ctx context.Context, s *SessionState, questionID string, answer Answer) {
	for _, o := range c.observers {
		o.OnAnswerRecorded(ctx, s, questionID, answer)
	}
}

func (c *CompositeObserver) OnNavigateBack(ctx context.Context, s *SessionState, from, to int) {
	for _, o := range c.observers {
		o.OnNavigateBack(ctx, s, from, to)
	}
}

func (c *CompositeObserver) OnSessionCompleted(ctx context.Context, s *SessionState) {
	for _, o := range c.observers {
		o.OnSessionCompleted(ctx, s)
	}
}

func (c *CompositeObserver) OnStorageError(ctx context.Context, op string, err error) {
	for _, o := range c.observers {
		o.OnStorageError(ctx, op, err)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs session lifecycle
// events using the provided slog.Logger. If logger is nil, slog.Default()
// is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnSessionStart(ctx context.Context, s *SessionState, resumed bool) {
	o.Logger.InfoContext(ctx, "session_start",
		slog.String("session_id", s.SessionID),
		slog.Bool("resumed", resumed),
		slog.Int("position", s.Position),
		slog.Int("questions", len(s.ActiveQuestionIDs)),
	)
}

func (o *LoggingObserver) OnAnswerRecorded(ctx context.Context, s *SessionState, questionID string, answer Answer) {
	o.Logger.DebugContext(ctx, "answer_recorded",
		slog.String("session_id", s.SessionID),
		slog.String("question", questionID),
		slog.String("answer", answer.String()),
		slog.Int("position", s.Position),
	)
}

func (o *LoggingObserver) OnNavigateBack(ctx context.Context, s *SessionState, from, to int) {
	o.Logger.DebugContext(ctx, "navigate_back",
		slog.String("session_id", s.SessionID),
		slog.Int("from", from),
		slog.Int("to", to),
	)
}

func (o *LoggingObserver) OnSessionCompleted(ctx context.Context, s *SessionState) {
	o.Logger.InfoContext(ctx, "session_completed",
		slog.String("session_id", s.SessionID),
		slog.Int("answers", len(s.Answers)),
	)
}

func (o *LoggingObserver) OnStorageError(ctx context.Context, op string, err error) {
	o.Logger.WarnContext(ctx, "storage_error",
		slog.String("op", op),
		slog.Any("error", err),
	)
}

// BasicMetrics collects simple counters.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	sessionsStarted   atomic.Int64
	sessionsResumed   atomic.Int64
	sessionsCompleted atomic.Int64
	answersRecorded   atomic.Int64
	skips             atomic.Int64
	backNavigations   atomic.Int64
	storageErrors     atomic.Int64
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	SessionsStarted   int64
	SessionsResumed   int64
	SessionsCompleted int64
	OpenSessions      int64

	AnswersRecorded int64
	Skips           int64
	BackNavigations int64
	StorageErrors   int64
}

func (m *BasicMetrics) OnSessionStart(ctx context.Context, s *SessionState, resumed bool) {
	m.sessionsStarted.Add(1)
	if resumed {
		m.sessionsResumed.Add(1)
	}
}

func (m *BasicMetrics) OnAnswerRecorded(ctx context.Context, s *SessionState, questionID string, answer Answer) {
	m.answersRecorded.Add(1)
	if answer.IsSkipped() {
		m.skips.Add(1)
	}
}

func (m *BasicMetrics) OnNavigateBack(ctx context.Context, s *SessionState, from, to int) {
	m.backNavigations.Add(1)
}

func (m *BasicMetrics) OnSessionCompleted(ctx context.Context, s *SessionState) {
	m.sessionsCompleted.Add(1)
}

func (m *BasicMetrics) OnStorageError(ctx context.Context, op string, err error) {
	m.storageErrors.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.sessionsStarted.Load()
	completed := m.sessionsCompleted.Load()

	return BasicMetricsSnapshot{
		SessionsStarted:   started,
		SessionsResumed:   m.sessionsResumed.Load(),
		SessionsCompleted: completed,
		OpenSessions:      started - completed,
		AnswersRecorded:   m.answersRecorded.Load(),
		Skips:             m.skips.Load(),
		BackNavigations:   m.backNavigations.Load(),
		StorageErrors:     m.storageErrors.Load(),
	}
}
