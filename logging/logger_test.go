package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertion)
var (
	_ Logger = (*SlogAdapter)(nil)
	_ Logger = (*MeetingLogger)(nil)
	_ Logger = NoOpLogger{}
)

func newBufferedLogger(level LogLevel) (*MeetingLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLogger(&LoggerConfig{Level: level, Format: "json", Output: &buf}), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warn"))
	assert.Equal(t, LogLevelError, ParseLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLevel("info"))
	assert.Equal(t, LogLevelInfo, ParseLevel("bogus"))
}

func TestMeetingLogger_ContextualAttributes(t *testing.T) {
	logger, buf := newBufferedLogger(LogLevelInfo)

	logger.WithMeeting("mtg1").WithComponent("runner").WithContext("topic", "pricing").
		Info("meeting advanced", "step_index", 2)

	entry := decodeLine(t, buf)
	assert.Equal(t, "meeting advanced", entry["msg"])
	assert.Equal(t, "mtg1", entry["meeting_id"])
	assert.Equal(t, "runner", entry["component"])
	assert.Equal(t, "pricing", entry["topic"])
	assert.Equal(t, float64(2), entry["step_index"])
}

func TestMeetingLogger_WithCloningDoesNotMutateParent(t *testing.T) {
	logger, buf := newBufferedLogger(LogLevelInfo)

	_ = logger.WithMeeting("mtg1").WithContext("k", "v")
	logger.Info("plain")

	entry := decodeLine(t, buf)
	assert.NotContains(t, entry, "meeting_id")
	assert.NotContains(t, entry, "k")
}

func TestMeetingLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferedLogger(LogLevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestMeetingLogger_LogModelCall(t *testing.T) {
	logger, buf := newBufferedLogger(LogLevelInfo)

	logger.LogModelCall("openai", "gpt-4o", 128, 50*time.Millisecond, true, nil)
	entry := decodeLine(t, buf)
	assert.Equal(t, "Model call completed", entry["msg"])
	assert.Equal(t, "openai", entry["provider"])
	assert.Equal(t, "gpt-4o", entry["model"])
	assert.Equal(t, float64(128), entry["token_count"])
	assert.Equal(t, true, entry["success"])

	buf.Reset()
	logger.LogModelCall("openai", "gpt-4o", 0, time.Millisecond, false, errors.New("overloaded"))
	entry = decodeLine(t, buf)
	assert.Equal(t, "Model call failed", entry["msg"])
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "overloaded", entry["error"])
}

func TestMeetingLogger_LogStepExecution(t *testing.T) {
	logger, buf := newBufferedLogger(LogLevelInfo)

	logger.LogStepExecution("parallel_speak", 1, 3, 20*time.Millisecond, true, nil)
	entry := decodeLine(t, buf)
	assert.Equal(t, "Step execution completed", entry["msg"])
	assert.Equal(t, "parallel_speak", entry["step_type"])
	assert.Equal(t, float64(1), entry["step_index"])
	assert.Equal(t, float64(3), entry["message_count"])

	buf.Reset()
	logger.LogStepExecution("speak", 0, 0, time.Millisecond, false, errors.New("agent not found"))
	entry = decodeLine(t, buf)
	assert.Equal(t, "Step execution failed", entry["msg"])
	assert.Equal(t, "agent not found", entry["error"])
}
