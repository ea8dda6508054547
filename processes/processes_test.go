package processes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamesListsSomething(t *testing.T) {
	names, err := Names()
	require.NoError(t, err)
	assert.NotEmpty(t, names, "at least this test process is running")
}

func TestAnyRunningMiss(t *testing.T) {
	assert.False(t, AnyRunning("definitely-not-a-process-kqz.exe"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "vboxservice", normalize("VBoxService.EXE"))
	assert.Equal(t, "vmtoolsd", normalize("vmtoolsd"))
}
