package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func TestNew_JSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, Environment: "production", Level: slog.LevelInfo})

	logger.Info("test message", "id", 7)

	assert.Contains(t, buf.String(), `"msg":"test message"`)
	assert.Contains(t, buf.String(), `"level":"INFO"`)
	assert.Contains(t, buf.String(), `"id":7`)
}

func TestNew_PrettyInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, Environment: "development", Color: boolPtr(false)})

	logger.Info("book created", "id", 3, "title", "Dune Messiah")

	line := buf.String()
	assert.Contains(t, line, "INF book created")
	assert.Contains(t, line, "id=3")
	assert.Contains(t, line, `title="Dune Messiah"`)
	assert.NotContains(t, line, "\x1b[")
}

func TestPrettyHandler_Colors(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, Format: "pretty", Color: boolPtr(true)})

	logger.Warn("careful")
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestPrettyHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, Format: "pretty", Level: slog.LevelWarn, Color: boolPtr(false)})

	logger.Info("hidden")
	logger.Error("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "ERR shown")
}

func TestPrettyHandler_GroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, Format: "pretty", Color: boolPtr(false)})

	logger.With("component", "store").WithGroup("req").Info("done", "status", 200)

	line := buf.String()
	assert.Contains(t, line, "component=store")
	assert.Contains(t, line, "req.status=200")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, Format: "pretty", Color: boolPtr(false)})

	logger.WithError(errors.New("boom")).Error("failed")
	assert.Contains(t, buf.String(), "error=boom")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestPrettyHandler_OneLinePerRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, Format: "pretty", Color: boolPtr(false)})

	logger.Info("a")
	logger.Info("b")
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}
