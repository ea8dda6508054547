package vmdetect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCoversEveryTechniqueOnce(t *testing.T) {
	seen := make(map[Flag]string, len(techniques))
	var union Flag
	for i := range techniques {
		tc := &techniques[i]
		if prev, dup := seen[tc.flag]; dup {
			t.Fatalf("flag of %s already registered by %s", tc.name, prev)
		}
		seen[tc.flag] = tc.name
		union |= tc.flag
	}
	assert.Len(t, techniques, techniqueCount)
	assert.Equal(t, ALL, union, "registry must cover exactly the technique bit space")
}

func TestRegistryDescriptorInvariants(t *testing.T) {
	for i := range techniques {
		tc := &techniques[i]
		assert.LessOrEqual(t, tc.weight, uint8(100), tc.name)
		assert.NotZero(t, tc.platforms, "%s has an empty platform set", tc.name)
		assert.NotEmpty(t, tc.name)
		assert.NotNil(t, tc.run, tc.name)
		assert.Equal(t, tc.inDefault, DEFAULT&tc.flag != 0,
			"%s default membership disagrees with the DEFAULT mask", tc.name)
	}
}

func TestRegistryLookup(t *testing.T) {
	for i := range techniques {
		tc, ok := lookup(techniques[i].flag)
		require.True(t, ok)
		assert.Equal(t, techniques[i].name, tc.name)
	}
	_, ok := lookup(VMID | BRAND)
	assert.False(t, ok)
}

func TestCursorIsTheOnlyNonDefaultTechnique(t *testing.T) {
	for i := range techniques {
		tc := &techniques[i]
		if tc.flag == CURSOR {
			assert.False(t, tc.inDefault)
			continue
		}
		assert.True(t, tc.inDefault, tc.name)
	}
}

func TestOnlyElevatedLinuxToolsRequireRoot(t *testing.T) {
	for i := range techniques {
		tc := &techniques[i]
		switch tc.flag {
		case DMIDECODE, DMESG:
			assert.True(t, tc.requiresRoot, tc.name)
		default:
			assert.False(t, tc.requiresRoot, tc.name)
		}
	}
}

func TestHostnameRowIsWindowsAt25(t *testing.T) {
	tc, ok := lookup(HOSTNAME)
	require.True(t, ok)
	assert.Equal(t, uint8(25), tc.weight)
	assert.Equal(t, pWindows, tc.platforms)
}

func TestTechniqueInfo(t *testing.T) {
	info, ok := TechniqueInfo(CURSOR)
	require.True(t, ok)
	assert.Equal(t, "CURSOR", info.Name)
	assert.Equal(t, uint8(5), info.Weight)
	assert.False(t, info.InDefault)
	assert.Equal(t, "windows", info.Platforms)

	_, ok = TechniqueInfo(NO_MEMO)
	assert.False(t, ok)
}

func TestPlatformSetString(t *testing.T) {
	assert.Equal(t, "linux,windows,macos", pAny.String())
	assert.Equal(t, "linux", pLinux.String())
	assert.Equal(t, "linux,windows", (pLinux | pWindows).String())
}

func TestPlatformSetMatches(t *testing.T) {
	assert.True(t, pLinux.matches("linux"))
	assert.False(t, pLinux.matches("windows"))
	assert.True(t, pAny.matches("darwin"))
	assert.False(t, pAny.matches("plan9"))
}
