package debug

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerBasics(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "TEST", FlagLevel|FlagPrefix)
	l.SetLevel(LogLevelDebug)

	l.Info("hello %s", "world")
	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "[TEST]")
	assert.Contains(t, out, "hello world")
	assert.Equal(t, byte('\n'), out[len(out)-1], "messages end with a newline")
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "", FlagLevel)
	l.SetLevel(LogLevelWarn)

	l.Debug("debug message")
	l.Info("info message")
	assert.Empty(t, buf.String(), "below-threshold messages are dropped")

	l.Warn("warn message")
	l.Error("error message")
	out := buf.String()
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestLoggerDisabled(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "", FlagLevel)
	require.True(t, l.IsEnabled())

	l.SetEnabled(false)
	l.Error("should not appear")
	assert.Empty(t, buf.String())

	l.SetEnabled(true)
	l.Error("should appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestLoggerFatalPanics(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "", FlagLevel)

	assert.Panics(t, func() {
		l.Fatal("fatal %d", 42)
	})
	assert.Contains(t, buf.String(), "fatal 42")
}

func TestLoggerLevelStrings(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "INFO", LogLevelInfo.String())
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
	assert.Equal(t, "FATAL", LogLevelFatal.String())
}

func TestConditionalHelpers(t *testing.T) {
	var buf bytes.Buffer
	old := defaultLogger
	defer func() { defaultLogger = old }()
	defaultLogger = New(&buf, "", FlagLevel)
	defaultLogger.SetLevel(LogLevelDebug)

	DebugIf(false, "hidden")
	assert.Empty(t, buf.String())

	WarnIf(true, "shown")
	assert.Contains(t, buf.String(), "shown")
}
