package surveyflow

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/surveyflow/internal/config"
	"github.com/petrijr/surveyflow/internal/persistence"
)

func testConfig(t *testing.T, backend string) *Config {
	t.Helper()
	return &config.Config{
		Storage: config.StorageConfig{
			Backend: backend,
			Path:    filepath.Join(t.TempDir(), "sessions.db"),
			Key:     persistence.DefaultKey,
		},
		Schema: config.SchemaConfig{Version: DefaultSchemaVersion},
		Log:    config.LogConfig{Level: "info", Format: "text"},
	}
}

// answerFirstOption answers the current question with its first option.
func answerFirstOption(t *testing.T, ctx context.Context, ctrl *Controller) {
	t.Helper()

	q, ok := ctrl.Current()
	require.True(t, ok)
	if q.Type == MultipleChoice {
		require.NoError(t, ctrl.Toggle(ctx, q.Options[0].Value))
		require.NoError(t, ctrl.Confirm(ctx))
		return
	}
	require.NoError(t, ctrl.Answer(ctx, Single(q.Options[0].Value)))
}

// TestSQLiteBundle_ResumesAcrossRestart shows that a session answered part
// way is offered for resume by a new bundle over the same database file.
func TestSQLiteBundle_ResumesAcrossRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, persistence.KindSQLite)

	// --- Phase 1: answer two questions, then "crash".
	b1, err := OpenBundle(ctx, cfg, BundleOptions{})
	require.NoError(t, err)

	res, err := b1.Controller.Start(ctx)
	require.NoError(t, err)
	require.False(t, res.ResumeAvailable)

	answerFirstOption(t, ctx, b1.Controller)
	answerFirstOption(t, ctx, b1.Controller)
	before := b1.Controller.State()
	require.NoError(t, b1.Close())

	// --- Phase 2: a new process resumes where the first one stopped.
	b2, err := OpenBundle(ctx, cfg, BundleOptions{})
	require.NoError(t, err)
	defer b2.Close()

	res, err = b2.Controller.Start(ctx)
	require.NoError(t, err)
	require.True(t, res.ResumeAvailable)
	require.Equal(t, 2, res.AnsweredCount)

	require.NoError(t, b2.Controller.Resume(ctx))
	after := b2.Controller.State()
	require.Equal(t, before.Position, after.Position)
	require.Equal(t, before.History, after.History)
	require.Equal(t, before.SessionID, after.SessionID)
	require.Equal(t, int64(1), b2.Metrics.Snapshot().SessionsResumed)
}

func TestNewBundle_RunsToCompletion(t *testing.T) {
	ctx := context.Background()

	var got Answers
	b, err := NewBundle(NewInMemoryBackend(), BundleOptions{
		Results: ResultsHandlerFunc(func(_ context.Context, answers Answers) error {
			got = answers
			return nil
		}),
	})
	require.NoError(t, err)
	require.NoError(t, b.Close())

	_, err = b.Controller.Start(ctx)
	require.NoError(t, err)

	for b.Controller.Phase() == PhaseInProgress {
		answerFirstOption(t, ctx, b.Controller)
	}

	require.Equal(t, PhaseComplete, b.Controller.Phase())
	require.NotEmpty(t, got)
	require.True(t, got["platform_preference"].Contains("pc"))
	require.NotContains(t, got, "console_type", "console_type is hidden unless console was picked")
	require.True(t, b.Store.HasCompleted(ctx))

	snap := b.Metrics.Snapshot()
	require.Equal(t, int64(1), snap.SessionsCompleted)
	require.Equal(t, int64(len(got)), snap.AnswersRecorded)
}

func TestOpenBundle_CustomCatalogAndKey(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, persistence.KindMemory)
	cfg.Storage.Key = "custom"
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := OpenBundle(ctx, cfg, BundleOptions{})
	require.Error(t, err, "a configured catalog path must exist")

	cat, err := NewQuestionCatalog([]QuestionDefinition{{
		ID: "only", Text: "Only?", Type: SingleChoice, Importance: ImportanceHigh,
		Options: []Option{{Value: "yes", Label: "Yes"}},
	}})
	require.NoError(t, err)

	b, err := OpenBundle(ctx, cfg, BundleOptions{Catalog: cat})
	require.NoError(t, err)
	defer b.Close()

	require.Equal(t, "custom", b.Store.Key())
	_, err = b.Controller.Start(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Controller.Answer(ctx, Single("yes")))
	require.Equal(t, PhaseComplete, b.Controller.Phase())
}

func TestNewBundle_EmptyCatalog(t *testing.T) {
	cat, err := NewQuestionCatalog(nil)
	require.NoError(t, err)

	b, err := NewBundle(NewInMemoryBackend(), BundleOptions{Catalog: cat})
	require.NoError(t, err)

	_, err = b.Controller.Start(context.Background())
	require.ErrorIs(t, err, ErrNoQuestions)
}
