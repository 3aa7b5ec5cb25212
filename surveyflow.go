package surveyflow

import (
	"database/sql"

	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/petrijr/surveyflow/internal/catalog"
	"github.com/petrijr/surveyflow/internal/config"
	"github.com/petrijr/surveyflow/internal/engine"
	"github.com/petrijr/surveyflow/internal/persistence"
	"github.com/petrijr/surveyflow/internal/session"
	"github.com/petrijr/surveyflow/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api or internal packages.

type (
	QuestionDefinition   = api.QuestionDefinition
	QuestionType         = api.QuestionType
	Importance           = api.Importance
	Option               = api.Option
	BranchingCondition   = api.BranchingCondition
	Answer               = api.Answer
	Answers              = api.Answers
	SessionState         = api.SessionState
	ResultsHandler       = api.ResultsHandler
	ResultsHandlerFunc   = api.ResultsHandlerFunc
	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver

	Catalog      = catalog.Catalog
	Engine       = engine.Engine
	EngineOption = engine.Option
	Predicate    = engine.Predicate
	Controller   = session.Controller
	Phase        = session.Phase
	Progress     = session.Progress
	StartResult  = session.StartResult

	Backend      = persistence.Backend
	SessionStore = persistence.SessionStore
	StoreOption  = persistence.StoreOption
	Record       = persistence.Record
	Patch        = persistence.Patch
	Stats        = persistence.Stats
	RetryPolicy  = persistence.RetryPolicy

	Config        = config.Config
	ConfigOptions = config.Options
)

// Re-export constructors and helpers.

var (
	Single  = api.Single
	Multi   = api.Multi
	Skipped = api.Skipped

	NewQuestionCatalog = catalog.New
	LoadCatalog        = catalog.Load
	LoadCatalogFile    = catalog.LoadFile
	DefaultCatalog     = catalog.Default

	WithRule       = engine.WithRule
	WithClock      = engine.WithClock
	AnswerIncludes = engine.AnswerIncludes

	WithKey           = persistence.WithKey
	WithSchemaVersion = persistence.WithSchemaVersion
	WithLogger        = persistence.WithLogger
	WithErrorHandler  = persistence.WithErrorHandler

	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver

	LoadConfig = config.Load
)

// Re-export sentinel errors.

var (
	ErrInvalidState          = api.ErrInvalidState
	ErrInvalidAnswer         = api.ErrInvalidAnswer
	ErrNoQuestions           = api.ErrNoQuestions
	ErrInvalidCatalog        = api.ErrInvalidCatalog
	ErrStorage               = api.ErrStorage
	ErrSchemaVersionMismatch = api.ErrSchemaVersionMismatch
	ErrRecordNotFound        = persistence.ErrRecordNotFound
)

// Re-export enum values for convenience.

const (
	SingleChoice   = api.SingleChoice
	MultipleChoice = api.MultipleChoice

	ImportanceHigh   = api.ImportanceHigh
	ImportanceMedium = api.ImportanceMedium
	ImportanceLow    = api.ImportanceLow

	PhaseIdle           = session.PhaseIdle
	PhaseAwaitingResume = session.PhaseAwaitingResume
	PhaseInProgress     = session.PhaseInProgress
	PhaseComplete       = session.PhaseComplete
	PhaseExited         = session.PhaseExited

	DefaultKey           = persistence.DefaultKey
	DefaultSchemaVersion = persistence.DefaultSchemaVersion
)

// Engine and store constructors.
// These wrap the internal packages so external callers
// never need to import them.

// NewEngine builds a questionnaire engine over cat.
func NewEngine(cat *Catalog, opts ...EngineOption) (*Engine, error) {
	return engine.New(cat, opts...)
}

// NewSessionStore returns a versioned session store over backend.
func NewSessionStore(backend Backend, opts ...StoreOption) *SessionStore {
	return persistence.NewSessionStore(backend, opts...)
}

// NewInMemoryBackend returns a non-durable backend, best for tests.
func NewInMemoryBackend() Backend {
	return persistence.NewInMemoryBackend()
}

// NewFileBackend stores records as JSON files in dir.
func NewFileBackend(dir string) (Backend, error) {
	return persistence.NewFileBackend(dir)
}

// NewSQLiteBackend stores records in a SQLite database.
func NewSQLiteBackend(db *sql.DB) (Backend, error) {
	return persistence.NewSQLiteBackend(db)
}

// NewPostgresBackend stores records in PostgreSQL.
func NewPostgresBackend(db *sql.DB) (Backend, error) {
	return persistence.NewPostgresBackend(db)
}

// NewRedisBackend stores records in Redis under prefix.
func NewRedisBackend(client *redis.Client, prefix string) Backend {
	return persistence.NewRedisBackend(client, prefix)
}

// NewMongoBackend stores records in a MongoDB collection.
func NewMongoBackend(client *mongo.Client, dbName, collName string) Backend {
	return persistence.NewMongoBackend(client, dbName, collName)
}

// NewBadgerBackend stores records in an embedded BadgerDB.
func NewBadgerBackend(db *badger.DB) Backend {
	return persistence.NewBadgerBackend(db, "")
}

// NewRetryingBackend retries failed calls of inner according to policy.
func NewRetryingBackend(inner Backend, policy RetryPolicy) Backend {
	return persistence.NewRetryingBackend(inner, policy)
}
