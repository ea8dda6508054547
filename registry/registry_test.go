package registry

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupported(t *testing.T) {
	assert.Equal(t, runtime.GOOS == "windows", Supported())
}

func TestMissingKey(t *testing.T) {
	assert.False(t, KeyExists(`HKLM\SOFTWARE\vmtell-does-not-exist`))
}

func TestReadStringOffWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("covered by the Windows path")
	}
	_, err := ReadString(`HKLM\SOFTWARE\Microsoft\Windows NT\CurrentVersion`, "ProductId")
	assert.Error(t, err)

	_, err = SubKeys(`HKLM\HARDWARE\ACPI\DSDT`)
	assert.Error(t, err)
}

func TestMalformedPath(t *testing.T) {
	assert.False(t, KeyExists(""))
	assert.False(t, KeyExists(`NOPE\SOFTWARE`))
}
