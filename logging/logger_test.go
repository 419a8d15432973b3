package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"":        LevelInfo,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: LevelInfo, Format: "json", Output: &buf, Component: "routing"})

	l.Debug("hidden")
	l.Info("path changed", "entrance", 2)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "path changed", rec["msg"])
	assert.Equal(t, "routing", rec["component"])
	assert.EqualValues(t, 2, rec["entrance"])
}

func TestWithAttachesFields(t *testing.T) {
	var buf bytes.Buffer
	l := With(NewLogger(Config{Format: "text", Output: &buf}), "field", "default")
	l.Warn("reload rejected")
	assert.Contains(t, buf.String(), "field=default")
	assert.Contains(t, buf.String(), "reload rejected")

	assert.Equal(t, NoOpLogger{}, With(NoOpLogger{}, "k", "v"))
}

func TestNewSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, nil)))
	l.Error("engine stopped", "pending", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "engine stopped", rec["msg"])
	assert.Equal(t, "ERROR", rec["level"])
	assert.EqualValues(t, 3, rec["pending"])

	fallback, ok := NewSlogAdapter(nil).(*SlogAdapter)
	require.True(t, ok)
	assert.Same(t, slog.Default(), fallback.Logger)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, LevelInfo, cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, os.Stderr, cfg.Output)
	assert.Empty(t, cfg.Component)
}
