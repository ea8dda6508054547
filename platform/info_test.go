package platform

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHostname(t *testing.T) {
	assert.NotPanics(t, func() {
		Hostname()
	})
}

func TestUsernameHasNoDomainPrefix(t *testing.T) {
	name := Username()
	assert.NotContains(t, name, `\`)
}

func TestOSAndArch(t *testing.T) {
	assert.Equal(t, runtime.GOOS, OS())
	assert.Equal(t, runtime.GOARCH, Arch())
}

func TestIsElevatedDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		IsElevated()
	})
}
