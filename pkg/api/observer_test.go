package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
)

//
// Helpers
//

// testObserver is a simple Observer implementation used to verify fan-out behavior.
type testObserver struct {
	mu sync.Mutex

	starts    int
	answers   int
	backs     int
	completes int
	storage   int

	lastStart struct {
		State   *SessionState
		Resumed bool
	}
	lastAnswer struct {
		QuestionID string
		Answer     Answer
	}
	lastBack struct {
		From, To int
	}
	lastStorage struct {
		Op  string
		Err error
	}
}

func (o *testObserver) OnSessionStart(ctx context.Context, s *SessionState, resumed bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.starts++
	o.lastStart.State = s
	o.lastStart.Resumed = resumed
}

func (o *testObserver) OnAnswerRecorded(ctx context.Context, s *SessionState, questionID string, answer Answer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.answers++
	o.lastAnswer.QuestionID = questionID
	o.lastAnswer.Answer = answer
}

func (o *testObserver) OnNavigateBack(ctx context.Context, s *SessionState, from, to int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.backs++
	o.lastBack.From = from
	o.lastBack.To = to
}

func (o *testObserver) OnSessionCompleted(ctx context.Context, s *SessionState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completes++
}

func (o *testObserver) OnStorageError(ctx context.Context, op string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.storage++
	o.lastStorage.Op = op
	o.lastStorage.Err = err
}

// recordingHandler is a minimal slog.Handler that just records log records.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

func (h *recordingHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	// Copy to avoid reuse issues.
	cpy := slog.Record{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
	}
	r.Attrs(func(a slog.Attr) bool {
		cpy.AddAttrs(a)
		return true
	})
	h.records = append(h.records, cpy)
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *recordingHandler) WithGroup(name string) slog.Handler {
	return h
}

func attrsToMap(r slog.Record) map[string]any {
	m := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		m[a.Key] = a.Value.Any()
		return true
	})
	return m
}

func newTestSession() *SessionState {
	return &SessionState{
		SessionID:         "sess-123",
		ActiveQuestionIDs: []string{"q1", "q2"},
		Answers:           Answers{"q1": Single("a")},
		Position:          1,
		History:           []int{0, 1},
	}
}

//
// NoopObserver
//

func TestNoopObserver_DoesNotPanic(t *testing.T) {
	ctx := context.Background()
	s := newTestSession()
	var o Observer = NoopObserver{}

	o.OnSessionStart(ctx, s, false)
	o.OnAnswerRecorded(ctx, s, "q1", Single("a"))
	o.OnNavigateBack(ctx, s, 1, 0)
	o.OnSessionCompleted(ctx, s)
	o.OnStorageError(ctx, "save", errors.New("boom"))
}

//
// CompositeObserver
//

func TestNewCompositeObserver_EmptyReturnsNoop(t *testing.T) {
	o := NewCompositeObserver()
	if _, ok := o.(NoopObserver); !ok {
		t.Fatalf("expected NewCompositeObserver() to return NoopObserver, got %T", o)
	}
}

func TestNewCompositeObserver_SingleReturnsThatObserver(t *testing.T) {
	single := &testObserver{}
	o := NewCompositeObserver(single, nil) // include a nil to ensure it is filtered

	if got, ok := o.(*testObserver); !ok || got != single {
		t.Fatalf("expected the single non-nil observer to be returned, got %T (%p)", o, o)
	}
}

func TestCompositeObserver_ForwardsAllEvents(t *testing.T) {
	ctx := context.Background()
	s := newTestSession()

	o1 := &testObserver{}
	o2 := &testObserver{}
	co, ok := NewCompositeObserver(o1, o2).(*CompositeObserver)
	if !ok {
		t.Fatalf("expected *CompositeObserver")
	}

	err := errors.New("disk full")
	co.OnSessionStart(ctx, s, true)
	co.OnAnswerRecorded(ctx, s, "q1", Multi("x", "y"))
	co.OnNavigateBack(ctx, s, 1, 0)
	co.OnSessionCompleted(ctx, s)
	co.OnStorageError(ctx, "save", err)

	for i, o := range []*testObserver{o1, o2} {
		if o.starts != 1 || o.answers != 1 || o.backs != 1 || o.completes != 1 || o.storage != 1 {
			t.Fatalf("observer %d did not receive all calls: %+v", i+1, o)
		}
		if o.lastStart.State != s || !o.lastStart.Resumed {
			t.Fatalf("observer %d start mismatch: %+v", i+1, o.lastStart)
		}
		if o.lastAnswer.QuestionID != "q1" || !o.lastAnswer.Answer.Equal(Multi("x", "y")) {
			t.Fatalf("observer %d answer mismatch: %+v", i+1, o.lastAnswer)
		}
		if o.lastBack.From != 1 || o.lastBack.To != 0 {
			t.Fatalf("observer %d back mismatch: %+v", i+1, o.lastBack)
		}
		if o.lastStorage.Op != "save" || o.lastStorage.Err != err {
			t.Fatalf("observer %d storage mismatch: %+v", i+1, o.lastStorage)
		}
	}
}

//
// LoggingObserver
//

func TestNewLoggingObserver_NilLoggerUsesDefault(t *testing.T) {
	o := NewLoggingObserver(nil)
	lo, ok := o.(*LoggingObserver)
	if !ok {
		t.Fatalf("expected *LoggingObserver, got %T", o)
	}
	if lo.Logger == nil {
		t.Fatalf("expected non-nil Logger when created with nil")
	}
}

func TestLoggingObserver_OnSessionStart_EmitsInfoLog(t *testing.T) {
	ctx := context.Background()
	s := newTestSession()

	h := &recordingHandler{}
	o := NewLoggingObserver(slog.New(h))

	o.OnSessionStart(ctx, s, true)

	if len(h.records) != 1 {
		t.Fatalf("expected 1 log record, got %d", len(h.records))
	}

	rec := h.records[0]
	if rec.Level != slog.LevelInfo {
		t.Fatalf("expected LevelInfo, got %v", rec.Level)
	}
	if rec.Message != "session_start" {
		t.Fatalf("expected message session_start, got %q", rec.Message)
	}

	attrs := attrsToMap(rec)
	if attrs["session_id"] != s.SessionID {
		t.Fatalf("expected session_id=%q, got %v", s.SessionID, attrs["session_id"])
	}
	if attrs["resumed"] != true {
		t.Fatalf("expected resumed=true, got %v", attrs["resumed"])
	}
}

func TestLoggingObserver_OnStorageError_EmitsWarning(t *testing.T) {
	ctx := context.Background()

	h := &recordingHandler{}
	o := NewLoggingObserver(slog.New(h))

	o.OnStorageError(ctx, "save", errors.New("boom"))

	if len(h.records) != 1 {
		t.Fatalf("expected 1 log record, got %d", len(h.records))
	}
	rec := h.records[0]
	if rec.Level != slog.LevelWarn {
		t.Fatalf("expected LevelWarn, got %v", rec.Level)
	}
	attrs := attrsToMap(rec)
	if attrs["op"] != "save" {
		t.Fatalf("expected op=save, got %v", attrs["op"])
	}
	if attrs["error"] == nil {
		t.Fatalf("expected error attribute, got nil")
	}
}

//
// BasicMetrics
//

func TestBasicMetrics_CountersAndSnapshot(t *testing.T) {
	var m BasicMetrics

	ctx := context.Background()
	s := newTestSession()

	// 2 started (one resumed), 1 completed -> open = 1
	m.OnSessionStart(ctx, s, false)
	m.OnSessionStart(ctx, s, true)
	m.OnAnswerRecorded(ctx, s, "q1", Single("a"))
	m.OnAnswerRecorded(ctx, s, "q2", Skipped())
	m.OnNavigateBack(ctx, s, 1, 0)
	m.OnSessionCompleted(ctx, s)
	m.OnStorageError(ctx, "save", errors.New("fail"))

	snap := m.Snapshot()

	if snap.SessionsStarted != 2 {
		t.Fatalf("SessionsStarted=%d, want 2", snap.SessionsStarted)
	}
	if snap.SessionsResumed != 1 {
		t.Fatalf("SessionsResumed=%d, want 1", snap.SessionsResumed)
	}
	if snap.OpenSessions != 1 {
		t.Fatalf("OpenSessions=%d, want 1", snap.OpenSessions)
	}
	if snap.AnswersRecorded != 2 || snap.Skips != 1 {
		t.Fatalf("AnswersRecorded=%d Skips=%d, want 2 and 1", snap.AnswersRecorded, snap.Skips)
	}
	if snap.BackNavigations != 1 || snap.StorageErrors != 1 {
		t.Fatalf("BackNavigations=%d StorageErrors=%d, want 1 and 1", snap.BackNavigations, snap.StorageErrors)
	}
}

func TestBasicMetrics_ZeroSnapshot(t *testing.T) {
	var m BasicMetrics
	if snap := m.Snapshot(); snap != (BasicMetricsSnapshot{}) {
		t.Fatalf("expected zero snapshot, got %+v", snap)
	}
}
