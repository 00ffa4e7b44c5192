package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newBufferedLogger(t *testing.T, level LogLevel) (*PlaygroundLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: level, Format: "json", Output: &buf})
	return l, &buf
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestInfoEmitsKeyValueAttrs(t *testing.T) {
	l, buf := newBufferedLogger(t, LogLevelInfo)

	l.Info("Generation completed", "provider", "openai", "model", "gpt-4")

	entry := decodeEntry(t, buf)
	assert.Equal(t, "Generation completed", entry["msg"])
	assert.Equal(t, "openai", entry["provider"])
	assert.Equal(t, "gpt-4", entry["model"])
	assert.NotContains(t, buf.String(), "%!")
}

func TestLevelGatesOutput(t *testing.T) {
	l, buf := newBufferedLogger(t, LogLevelWarn)

	l.Info("dropped")
	assert.Zero(t, buf.Len())

	l.Warn("kept", "reason", "threshold")
	entry := decodeEntry(t, buf)
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "threshold", entry["reason"])
}

func TestWithContextAttachesAttrs(t *testing.T) {
	l, buf := newBufferedLogger(t, LogLevelInfo)

	l.WithComponent("server").WithSession("s-1").WithContext("request_id", "r-1").Info("handled")

	entry := decodeEntry(t, buf)
	assert.Equal(t, "server", entry["component"])
	assert.Equal(t, "s-1", entry["session_id"])
	assert.Equal(t, "r-1", entry["request_id"])
}

func TestLogGeneration(t *testing.T) {
	l, buf := newBufferedLogger(t, LogLevelInfo)

	l.LogGeneration("anthropic", "claude-3-opus-20240229", 1500, 0.0425, 2*time.Second, true, nil)

	entry := decodeEntry(t, buf)
	assert.Equal(t, "Generation completed", entry["msg"])
	assert.Equal(t, "anthropic", entry["provider"])
	assert.Equal(t, "claude-3-opus-20240229", entry["model"])
	assert.Equal(t, float64(1500), entry["token_count"])
	assert.Equal(t, 0.0425, entry["total_cost"])
	assert.Equal(t, true, entry["success"])
}

func TestLogGenerationFailure(t *testing.T) {
	l, buf := newBufferedLogger(t, LogLevelInfo)

	l.LogGeneration("grok", "grok-1", 0, 0, time.Second, false, errors.New("connection refused"))

	entry := decodeEntry(t, buf)
	assert.Equal(t, "Generation failed", entry["msg"])
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "connection refused", entry["error"])
}

func TestLogActionCall(t *testing.T) {
	l, buf := newBufferedLogger(t, LogLevelInfo)

	l.LogActionCall("greeting", 10*time.Millisecond, false, "missing name parameter")

	entry := decodeEntry(t, buf)
	assert.Equal(t, "Action execution failed", entry["msg"])
	assert.Equal(t, "greeting", entry["action_name"])
	assert.Equal(t, false, entry["success"])
	assert.Equal(t, "missing name parameter", entry["error"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LogLevelError, ParseLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLevel("anything else"))
}
