package vmdetect

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The probe smoke tests assert behavior that holds on any host: probes
// return without panicking, and the techniques runnable here answer the
// same way twice on a stable machine.

func TestProbesDoNotPanic(t *testing.T) {
	for i := range techniques {
		tc := &techniques[i]
		if tc.flag == CURSOR {
			continue // 5-second wait, exercised via Check in ALL-mode runs
		}
		if !tc.runnable() {
			continue
		}
		t.Run(tc.name, func(t *testing.T) {
			var tl tally
			assert.NotPanics(t, func() {
				tc.invoke(&tl)
			})
		})
	}
}

func TestCheckIsStablePerTechnique(t *testing.T) {
	for i := range techniques {
		tc := &techniques[i]
		switch tc.flag {
		case CURSOR, RDTSC, RDTSC_VMEXIT:
			// Cursor waits for input; the timing probes legitimately
			// sample runtime-variable state.
			continue
		}
		t.Run(tc.name, func(t *testing.T) {
			first, err := Check(tc.flag)
			require.NoError(t, err)
			second, err := Check(tc.flag)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestHypervisorVendorTable(t *testing.T) {
	var tl tally
	assert.True(t, matchHvVendor("KVMKVMKVM\x00\x00\x00", &tl))
	assert.Equal(t, uint32(1), tl.votes[BrandKVM])

	assert.True(t, matchHvVendor("VMwareVMware", &tl))
	assert.Equal(t, uint32(1), tl.votes[BrandVMware])

	assert.False(t, matchHvVendor("GenuineIntel", &tl))
	assert.False(t, matchHvVendor("", &tl))
}

func TestDMIMarkerTable(t *testing.T) {
	var tl tally
	assert.True(t, matchDMI("Oracle Corporation", &tl))
	assert.Equal(t, uint32(1), tl.votes[BrandVirtualBox])

	assert.True(t, matchDMI("QEMU Standard PC", &tl))
	assert.Equal(t, uint32(1), tl.votes[BrandQEMU])

	assert.False(t, matchDMI("Dell Inc.", &tl))
	assert.False(t, matchDMI("", &tl))
}

func TestOUITableShape(t *testing.T) {
	for _, e := range ouiBrands {
		assert.Len(t, e.prefix, 3)
		assert.NotEqual(t, BrandUnknown, e.brand)
	}
}

func TestPlatformGatedProbesDeclineElsewhere(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("only meaningful off Windows")
	}
	// Windows-only techniques run through Check on the wrong platform
	// and must simply answer false.
	for _, f := range []Flag{VMWARE_REG, HYPERV_WMI, GAMARUE, CURSOR} {
		hit, err := Check(f)
		require.NoError(t, err)
		assert.False(t, hit)
	}
}

func TestVBoxDefaultVotesOnlyOnHit(t *testing.T) {
	var tl tally
	// Whatever the host geometry, the probe must not panic and must
	// only vote when it hits.
	before := tl.votes[BrandVirtualBox]
	hit := probeVBoxDefault(&tl)
	if !hit {
		assert.Equal(t, before, tl.votes[BrandVirtualBox])
	}
}
