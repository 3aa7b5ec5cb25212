package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/surveyflow/internal/config"
)

func TestNew_WritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "surveyflow.log")

	logger, closer, err := New(config.LogConfig{File: path, Level: "debug", Format: "json", MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Debug("record_saved", slog.String("key", "survey_data"))
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	require.Equal(t, "record_saved", entry["msg"])
	require.Equal(t, "survey_data", entry["key"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "text", slog.LevelWarn))

	logger.Info("session_start")
	logger.Warn("storage_error")

	require.NotContains(t, buf.String(), "session_start")
	require.Contains(t, buf.String(), "storage_error")
}

func TestNew_EmptyFileDiscards(t *testing.T) {
	logger, closer, err := New(config.LogConfig{Level: "info", Format: "text"})
	require.NoError(t, err)
	logger.Info("nothing")
	require.NoError(t, closer.Close())
}

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New(config.LogConfig{Level: "loud"})
	require.Error(t, err)
}
