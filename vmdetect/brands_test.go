package vmdetect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrandStrings(t *testing.T) {
	// These literals are the external contract.
	want := map[BrandID]string{
		BrandUnknown:        "Unknown",
		BrandVMware:         "VMware",
		BrandVirtualBox:     "VirtualBox",
		BrandBhyve:          "bhyve",
		BrandKVM:            "KVM",
		BrandQEMU:           "QEMU",
		BrandQEMUKVM:        "QEMU/KVM",
		BrandHyperV:         "Microsoft Hyper-V",
		BrandMSXTA:          "Microsoft x86-to-ARM",
		BrandParallels:      "Parallels",
		BrandXenHVM:         "Xen HVM",
		BrandACRN:           "ACRN",
		BrandQNX:            "QNX hypervisor",
		BrandHybridAnalysis: "Hybrid Analysis",
		BrandSandboxie:      "Sandboxie",
		BrandDocker:         "Docker",
		BrandWine:           "Wine",
		BrandVirtualApple:   "Virtual Apple",
		BrandVPC:            "Virtual PC",
		BrandAnubis:         "Anubis",
		BrandJoeBox:         "JoeBox",
		BrandThreadExpert:   "Thread Expert",
		BrandCWSandbox:      "CW Sandbox",
		BrandSunBelt:        "SunBelt",
		BrandComodo:         "Comodo",
		BrandBochs:          "Bochs",
	}
	assert.Len(t, want, brandCount)
	for b, s := range want {
		assert.Equal(t, s, b.String())
	}
	assert.Equal(t, "Unknown", BrandID(-1).String())
	assert.Equal(t, "Unknown", BrandID(brandCount).String())
}

func TestTallyWinner(t *testing.T) {
	var tl tally
	assert.Equal(t, BrandUnknown, tl.winner(), "empty tally")

	tl.add(BrandKVM, 1)
	tl.add(BrandKVM, 1)
	tl.add(BrandQEMU, 1)
	assert.Equal(t, BrandKVM, tl.winner())

	tl.add(BrandQEMU, 1)
	assert.Equal(t, BrandUnknown, tl.winner(), "tie at the top")

	tl.add(BrandQEMU, 1)
	assert.Equal(t, BrandQEMU, tl.winner())
}

func TestTallyIgnoresBogusVotes(t *testing.T) {
	var tl tally
	tl.add(BrandUnknown, 1)
	tl.add(BrandID(-3), 1)
	tl.add(BrandID(brandCount+7), 1)
	assert.Equal(t, BrandUnknown, tl.winner())

	var nilTally *tally
	assert.NotPanics(t, func() {
		nilTally.add(BrandKVM, 1)
	})
}
