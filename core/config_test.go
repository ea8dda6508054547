package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmtell/vmtell/vmdetect"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	flags, err := cfg.Flags()
	require.NoError(t, err)
	assert.Equal(t, vmdetect.DEFAULT, flags)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/profile.yaml")
	assert.Error(t, err)
}

func TestLoadConfigParsesProfile(t *testing.T) {
	path := writeConfig(t, `
scan:
  all: true
  extreme: true
  no_memo: true
  disable: [CURSOR, RDTSC]
history:
  record: true
  path: /tmp/history.db
logging:
  debug: true
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.History.Record)
	assert.True(t, cfg.Logging.Debug)

	flags, err := cfg.Flags()
	require.NoError(t, err)
	assert.Zero(t, flags&vmdetect.CURSOR)
	assert.Zero(t, flags&vmdetect.RDTSC)
	assert.NotZero(t, flags&vmdetect.EXTREME)
	assert.NotZero(t, flags&vmdetect.NO_MEMO)
	assert.NotZero(t, flags&vmdetect.SYSTEMD)
}

func TestConfigEnableAddsTechniques(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scan.Enable = []string{"cursor"}

	flags, err := cfg.Flags()
	require.NoError(t, err)
	assert.Equal(t, vmdetect.ALL, flags)
}

func TestConfigRejectsUnknownTechnique(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scan.Disable = []string{"WARP_DRIVE"}

	_, err := cfg.Flags()
	assert.Error(t, err)
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "scan: [not a map")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
