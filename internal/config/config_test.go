package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/surveyflow/internal/persistence"
)

// chdir moves into an empty directory so no stray surveyflow.yaml or .env
// is picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := Load(Options{})
	require.NoError(t, err)

	require.Equal(t, persistence.KindSQLite, cfg.Storage.Backend)
	require.Equal(t, persistence.DefaultKey, cfg.Storage.Key)
	require.Equal(t, "1.0", cfg.Schema.Version)
	require.Equal(t, 3, cfg.Storage.RetryAttempts)
	require.Equal(t, 50*time.Millisecond, cfg.Storage.RetryBackoff)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "text", cfg.Log.Format)
	require.Empty(t, cfg.Catalog.Path)
}

func TestLoad_FileThenEnvOverrides(t *testing.T) {
	dir := chdir(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "surveyflow.yaml"), []byte(`
storage:
  backend: redis
  redis_addr: cache:6379
  retry_backoff: 1s
log:
  level: debug
`), 0o644))
	t.Setenv("SURVEYFLOW_STORAGE_REDIS_ADDR", "override:6380")

	cfg, err := Load(Options{})
	require.NoError(t, err)

	require.Equal(t, persistence.KindRedis, cfg.Storage.Backend)
	require.Equal(t, "override:6380", cfg.Storage.RedisAddr)
	require.Equal(t, time.Second, cfg.Storage.RetryBackoff)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := chdir(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("SURVEYFLOW_STORAGE_BACKEND=badger\nSURVEYFLOW_LOG_FORMAT=json\n"), 0o644))
	t.Cleanup(func() {
		_ = os.Unsetenv("SURVEYFLOW_STORAGE_BACKEND")
		_ = os.Unsetenv("SURVEYFLOW_LOG_FORMAT")
	})

	cfg, err := Load(Options{})
	require.NoError(t, err)
	require.Equal(t, persistence.KindBadger, cfg.Storage.Backend)
	require.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	dir := chdir(t)

	_, err := Load(Options{ConfigFile: filepath.Join(dir, "missing.yaml")})
	require.Error(t, err)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"SURVEYFLOW_STORAGE_BACKEND": "floppy",
		"SURVEYFLOW_LOG_LEVEL":       "chatty",
		"SURVEYFLOW_LOG_FORMAT":      "xml",
	}
	for env, value := range cases {
		t.Run(env, func(t *testing.T) {
			chdir(t)
			t.Setenv(env, value)

			_, err := Load(Options{})
			require.Error(t, err)
		})
	}
}

func TestPersistenceOptions(t *testing.T) {
	opts := StorageConfig{Backend: persistence.KindFile, RetryAttempts: 5, RetryBackoff: time.Second}.PersistenceOptions()
	require.Equal(t, "surveyflow-sessions", opts.Path)
	require.Equal(t, 5, opts.Retry.MaxAttempts)
	require.Equal(t, time.Second, opts.Retry.InitialBackoff)

	opts = StorageConfig{Backend: persistence.KindSQLite, Path: "/tmp/x.db"}.PersistenceOptions()
	require.Equal(t, "/tmp/x.db", opts.Path)

	opts = StorageConfig{Backend: persistence.KindMemory}.PersistenceOptions()
	require.Empty(t, opts.Path)
}
