package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.NotEmpty(t, cfg.TimeFormat)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"default config", DefaultConfig()},
		{"debug console", &Config{Level: "debug", Format: "console", Output: "stdout", TimeFormat: "2006-01-02T15:04:05Z07:00"}},
		{"info json", &Config{Level: "info", Format: "json", Output: "stderr", TimeFormat: "2006-01-02T15:04:05Z07:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.level))
		})
	}
}

func TestNew_JSONFileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "relist.log")

	logger, err := New(&Config{
		Level:      "info",
		Format:     "json",
		Output:     logPath,
		TimeFormat: "2006-01-02T15:04:05Z07:00",
	})
	require.NoError(t, err)

	logger.Info("classification finished", zap.String("seller_id", "s-1"))
	require.NoError(t, Sync(logger))

	raw, err := os.ReadFile(logPath)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(raw, &entry))
	assert.Equal(t, "classification finished", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "s-1", entry["seller_id"])
}

func TestNew_LevelFiltersDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "relist.log")

	logger, err := New(&Config{
		Level:      "info",
		Format:     "json",
		Output:     logPath,
		TimeFormat: "2006-01-02T15:04:05Z07:00",
	})
	require.NoError(t, err)

	logger.Debug("page cursor state")
	logger.Info("sync complete")
	require.NoError(t, Sync(logger))

	raw, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "page cursor state")
	assert.Contains(t, string(raw), "sync complete")
}

func TestOpenSink_FallsBackToStdout(t *testing.T) {
	// Unwritable path: the directory does not exist.
	sink := openSink(filepath.Join(t.TempDir(), "missing", "relist.log"))
	assert.NotNil(t, sink)
}
