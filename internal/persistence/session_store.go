package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/petrijr/surveyflow/pkg/api"
)

// DefaultSchemaVersion is the record version written by this package.
const DefaultSchemaVersion = "1.0"

// SessionStore keeps a single versioned session record in a Backend.
//
// Storage failures never propagate to the caller: they are logged and
// passed to the error handler, and reads report the record as absent.
type SessionStore struct {
	backend Backend
	key     string
	version string
	logger  *slog.Logger
	onError func(ctx context.Context, op string, err error)
	now     func() time.Time

	mu   sync.Mutex
	last int64
}

// StoreOption customizes a SessionStore.
type StoreOption func(*SessionStore)

// WithKey sets the record key. Defaults to DefaultKey.
func WithKey(key string) StoreOption {
	return func(s *SessionStore) {
		if key != "" {
			s.key = key
		}
	}
}

// WithSchemaVersion sets the expected record version.
func WithSchemaVersion(v string) StoreOption {
	return func(s *SessionStore) {
		if v != "" {
			s.version = v
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *SessionStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithErrorHandler registers fn to be called on every storage failure.
func WithErrorHandler(fn func(ctx context.Context, op string, err error)) StoreOption {
	return func(s *SessionStore) {
		s.onError = fn
	}
}

// WithStoreClock overrides the time source used for record timestamps.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *SessionStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSessionStore returns a SessionStore over backend.
func NewSessionStore(backend Backend, opts ...StoreOption) *SessionStore {
	s := &SessionStore{
		backend: backend,
		key:     DefaultKey,
		version: DefaultSchemaVersion,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the record key.
func (s *SessionStore) Key() string { return s.key }

// SchemaVersion returns the version stamped on saved records.
func (s *SessionStore) SchemaVersion() string { return s.version }

// Save stamps rec with the schema version and a fresh timestamp and
// overwrites the stored record.
func (s *SessionStore) Save(ctx context.Context, rec Record) {
	_ = s.save(ctx, rec)
}

func (s *SessionStore) save(ctx context.Context, rec Record) error {
	rec = rec.Clone()
	rec.Version = s.version
	rec.Timestamp = s.stamp()

	data, err := EncodeRecord(rec)
	if err != nil {
		s.fail(ctx, "save", err)
		return err
	}
	if err := s.backend.Put(ctx, s.key, data); err != nil {
		s.fail(ctx, "save", err)
		return err
	}

	s.logger.Debug("record_saved",
		slog.String("key", s.key),
		slog.Int("answers", len(rec.Answers)),
		slog.Bool("completed", rec.IsCompleted),
	)
	return nil
}

// Load returns the stored record. It reports false when the record is
// missing, unreadable or written by another schema version; a record with
// another version is deleted.
func (s *SessionStore) Load(ctx context.Context) (Record, bool) {
	data, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			s.fail(ctx, "load", err)
		}
		return Record{}, false
	}

	rec, err := DecodeRecord(data)
	if err != nil {
		s.fail(ctx, "decode", err)
		return Record{}, false
	}

	if rec.Version != s.version {
		s.logger.Warn("record_version_mismatch",
			slog.String("key", s.key),
			slog.String("found", rec.Version),
			slog.String("expected", s.version),
			slog.Any("error", api.ErrSchemaVersionMismatch),
		)
		s.Clear(ctx)
		return Record{}, false
	}

	s.observe(rec.Timestamp)
	return rec, true
}

// Patch is a partial update applied by Merge. Nil fields keep the stored
// value.
type Patch struct {
	Answers  api.Answers
	Position *int
	History  []int
	// SessionID is used only when the stored record has none.
	SessionID string
}

// Merge overlays patch onto the stored record and saves the result.
// Completion status and session id of the stored record are preserved.
func (s *SessionStore) Merge(ctx context.Context, patch Patch) {
	existing, _ := s.Load(ctx)

	updated := Record{
		Answers:              existing.Answers.Merge(patch.Answers),
		IsCompleted:          existing.IsCompleted,
		CurrentQuestionIndex: existing.CurrentQuestionIndex,
		History:              existing.History,
		SessionID:            existing.SessionID,
	}
	if patch.Position != nil {
		updated.CurrentQuestionIndex = IntPtr(*patch.Position)
	}
	if patch.History != nil {
		updated.History = append([]int(nil), patch.History...)
	}
	if updated.SessionID == "" {
		updated.SessionID = patch.SessionID
	}

	s.Save(ctx, updated)
}

// MarkCompleted writes a terminal record holding answers.
func (s *SessionStore) MarkCompleted(ctx context.Context, answers api.Answers, sessionID string) {
	s.Save(ctx, Record{
		Answers:     answers.Clone(),
		IsCompleted: true,
		SessionID:   sessionID,
	})
}

// Clear removes the stored record.
func (s *SessionStore) Clear(ctx context.Context) {
	if err := s.backend.Delete(ctx, s.key); err != nil {
		s.fail(ctx, "clear", err)
		return
	}
	s.logger.Debug("record_cleared", slog.String("key", s.key))
}

// HasInProgress reports whether a readable, unfinished record exists.
func (s *SessionStore) HasInProgress(ctx context.Context) bool {
	rec, ok := s.Load(ctx)
	return ok && !rec.IsCompleted
}

// HasCompleted reports whether a readable, finished record exists.
func (s *SessionStore) HasCompleted(ctx context.Context) bool {
	rec, ok := s.Load(ctx)
	return ok && rec.IsCompleted
}

// Export returns the stored record as indented JSON.
func (s *SessionStore) Export(ctx context.Context) ([]byte, bool) {
	rec, ok := s.Load(ctx)
	if !ok {
		return nil, false
	}
	data, err := EncodeRecordIndent(rec)
	if err != nil {
		s.fail(ctx, "export", err)
		return nil, false
	}
	return data, true
}

// Import parses data as a record and saves it under the current schema
// version. The stored record is left untouched when data is not a valid
// record or the write fails.
func (s *SessionStore) Import(ctx context.Context, data []byte) error {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	if rec.Answers == nil {
		return fmt.Errorf("import: %w: missing answers", errMalformedRecord)
	}
	if rec.CurrentQuestionIndex != nil && *rec.CurrentQuestionIndex < 0 {
		return fmt.Errorf("import: %w: negative question index", errMalformedRecord)
	}
	if err := s.save(ctx, rec); err != nil {
		return fmt.Errorf("import: %w: %v", api.ErrStorage, err)
	}
	return nil
}

// Stats summarizes the stored record.
type Stats struct {
	HasData      bool
	IsCompleted  bool
	AnswersCount int
	// LastUpdated is zero when HasData is false.
	LastUpdated time.Time
}

// Stats describes the stored record.
func (s *SessionStore) Stats(ctx context.Context) Stats {
	rec, ok := s.Load(ctx)
	if !ok {
		return Stats{}
	}
	return Stats{
		HasData:      true,
		IsCompleted:  rec.IsCompleted,
		AnswersCount: len(rec.Answers),
		LastUpdated:  rec.UpdatedAt(),
	}
}

// stamp returns the current time in milliseconds, never earlier than the
// last timestamp seen.
func (s *SessionStore) stamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UnixMilli()
	if ts < s.last {
		ts = s.last
	}
	s.last = ts
	return ts
}

func (s *SessionStore) observe(ts int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ts > s.last {
		s.last = ts
	}
}

func (s *SessionStore) fail(ctx context.Context, op string, err error) {
	wrapped := fmt.Errorf("%w: %s %q: %v", api.ErrStorage, op, s.key, err)
	s.logger.Error("storage_error",
		slog.String("op", op),
		slog.String("key", s.key),
		slog.Any("error", err),
	)
	if s.onError != nil {
		s.onError(ctx, op, wrapped)
	}
}
