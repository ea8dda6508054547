package vmdetect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportListsEveryEnabledTechnique(t *testing.T) {
	stubRegistry(t, []technique{
		stubTechnique(VMID, "VMID", 60, hitAlways),
		stubTechnique(BRAND, "BRAND", 50, hitNever),
	})

	readings, res, err := Report()
	require.NoError(t, err)
	require.Len(t, readings, 2)

	assert.Equal(t, "VMID", readings[0].Name)
	assert.True(t, readings[0].Fired)
	assert.Equal(t, "BRAND", readings[1].Name)
	assert.False(t, readings[1].Fired)

	assert.Equal(t, uint8(60), res.Percentage)
	assert.False(t, res.Verdict)
}

func TestReportMarksPlatformSkips(t *testing.T) {
	foreign := stubTechnique(VMID, "VMID", 60, hitAlways)
	foreign.platforms = 0 // matches nothing
	stubRegistry(t, []technique{foreign})

	readings, res, err := Report()
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.True(t, readings[0].Skipped)
	assert.Equal(t, "platform", readings[0].SkipReason)
	assert.Zero(t, res.Percentage)
}

func TestReportNeverTouchesMemo(t *testing.T) {
	calls := 0
	stubRegistry(t, []technique{
		stubTechnique(VMID, "VMID", 100, func(_ *tally) bool {
			calls++
			return true
		}),
	})

	_, _, err := Report()
	require.NoError(t, err)
	_, _, err = Report()
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "Report must not memoize")

	// And it must not have seeded the cache for Detect either.
	_, err = Detect()
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestReportRejectsUnknownBits(t *testing.T) {
	_, _, err := Report(1 << 59)
	assert.Error(t, err)
}
