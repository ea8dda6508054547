package vmdetect

import (
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunCommandCapturesStdout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on unix echo")
	}
	out, ok := runCommand("echo", "hello")
	assert.True(t, ok)
	assert.Equal(t, "hello", strings.TrimSpace(out))
}

func TestRunCommandMissingBinary(t *testing.T) {
	out, ok := runCommand("definitely-not-a-real-binary-kqz")
	assert.False(t, ok)
	assert.Empty(t, out)
}

func TestRunCommandTimesOut(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on unix sleep")
	}
	start := time.Now()
	_, ok := runCommand("sleep", "30")
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 10*time.Second)
}
