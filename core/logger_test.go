package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(false, &buf)

	l.Debug("hidden %d", 1)
	assert.Empty(t, buf.String(), "debug suppressed at info level")

	l.Info("shown %s", "message")
	assert.Contains(t, buf.String(), "shown message")

	l.Warn("warned")
	l.Error("errored")
	assert.Contains(t, buf.String(), "warned")
	assert.Contains(t, buf.String(), "errored")
}

func TestLoggerDebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(true, &buf)

	l.Debug("probe %s fired", "VMID")
	assert.Contains(t, buf.String(), "probe VMID fired")
}

func TestNewLoggerDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		NewLogger(true).Debug("startup")
	})
}
