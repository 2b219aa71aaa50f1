package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapAdapter(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	var l Logger = NewZapAdapter(zap.New(core))

	l.Debug("debug message", "table", "users")
	l.Info("query executed", "sql", "SELECT 1", "rows", 1)
	l.Warn("relation failed", "relation", "posts")
	l.Error("query failed", "error", "boom")

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, "query executed", entries[1].Message)
	assert.Equal(t, "SELECT 1", entries[1].ContextMap()["sql"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, "boom", entries[3].ContextMap()["error"])
}

func TestZerologAdapter(t *testing.T) {
	var buf bytes.Buffer
	var l Logger = NewZerologAdapter(zerolog.New(&buf).Level(zerolog.DebugLevel))

	l.Info("query executed", "sql", "SELECT 1", "rows", 2)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "query executed", line["message"])
	assert.Equal(t, "SELECT 1", line["sql"])
	assert.EqualValues(t, 2, line["rows"])
}

func TestZerologAdapter_Levels(t *testing.T) {
	var buf bytes.Buffer
	var l Logger = NewZerologAdapter(zerolog.New(&buf).Level(zerolog.WarnLevel))

	l.Debug("hidden")
	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("shown")
	l.Error("shown")
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestLogrusAdapter(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.JSONFormatter{})
	base.SetLevel(logrus.DebugLevel)

	var l Logger = NewLogrusAdapter(base)
	l.Error("query failed", "sql", "DELETE FROM users", "error", "locked")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "query failed", line["msg"])
	assert.Equal(t, "DELETE FROM users", line["sql"])
	assert.Equal(t, "locked", line["error"])
}

func TestLogrusAdapter_Entry(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.JSONFormatter{})

	l := NewLogrusAdapter(base.WithField("component", "orm"))
	l.Warn("slow query", "duration_ms", 900)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "orm", line["component"])
	assert.EqualValues(t, 900, line["duration_ms"])
}
