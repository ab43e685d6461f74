package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/auracli/aura/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"Error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "WARN")

	logger.Info("hidden")
	logger.Warn("shown", "section", "Movies")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "Movies", rec["section"])
}

func TestSetupLogger_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "aura.log")

	logger, closer, err := SetupLogger(config.LoggingConfig{File: path, Level: "DEBUG"})
	require.NoError(t, err)
	logger.Debug("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestTeeHandler_WritesToAll(t *testing.T) {
	var a, b bytes.Buffer
	logger := slog.New(teeHandler{
		slog.NewJSONHandler(&a, nil),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	})

	logger.Info("info only")
	logger.Error("both")

	assert.Contains(t, a.String(), "info only")
	assert.Contains(t, a.String(), "both")
	assert.NotContains(t, b.String(), "info only")
	assert.Contains(t, b.String(), "both")
}
