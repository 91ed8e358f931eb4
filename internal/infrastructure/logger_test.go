package infrastructure

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"effortcli/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}

func TestRunIDHandlerStampsRecords(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewJSONHandler(&buf, nil)
	logger := slog.New(&runIDHandler{Handler: base, runID: "run-42"})

	logger.Info("fit completed", "loglik", -1234.5)

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "run-42", record["run_id"])
	assert.Equal(t, "fit completed", record["msg"])
}

func TestInitializeLoggerFileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "estimator.log")

	logger, cleanup, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logPath,
	}, "run-file")
	require.NoError(t, err)

	logger.Info("panel loaded", "rows", 100)
	cleanup()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "panel loaded")
	assert.Contains(t, string(data), "run-file")
}
