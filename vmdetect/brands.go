package vmdetect

// BrandID identifies the suspected hypervisor, emulator, or sandbox product.
type BrandID int

const (
	BrandUnknown BrandID = iota
	BrandVMware
	BrandVirtualBox
	BrandBhyve
	BrandKVM
	BrandQEMU
	BrandQEMUKVM
	BrandHyperV
	BrandMSXTA
	BrandParallels
	BrandXenHVM
	BrandACRN
	BrandQNX
	BrandHybridAnalysis
	BrandSandboxie
	BrandDocker
	BrandWine
	BrandVirtualApple
	BrandVPC
	BrandAnubis
	BrandJoeBox
	BrandThreadExpert
	BrandCWSandbox
	BrandSunBelt
	BrandComodo
	BrandBochs

	brandCount = iota
)

// brandNames are the stable report strings. They are part of the external
// contract and must not be reworded.
var brandNames = [brandCount]string{
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

// String returns the report literal for the brand.
func (b BrandID) String() string {
	if b < 0 || int(b) >= brandCount {
		return brandNames[BrandUnknown]
	}
	return brandNames[b]
}

// tally accumulates brand votes during a single aggregator walk. It is
// stack-local to the run, so concurrent detections cannot race on it.
type tally struct {
	votes [brandCount]uint32
}

// add casts n votes for a brand. Probes call this when their evidence
// points at a specific product.
func (t *tally) add(b BrandID, n uint32) {
	if t == nil || b <= BrandUnknown || int(b) >= brandCount {
		return
	}
	t.votes[b] += n
}

// winner returns the brand with the strictly highest vote count. A tie at
// the top, or an empty tally, yields BrandUnknown.
func (t *tally) winner() BrandID {
	best, max, tied := BrandUnknown, uint32(0), false
	for b := BrandUnknown + 1; int(b) < brandCount; b++ {
		switch v := t.votes[b]; {
		case v > max:
			best, max, tied = b, v, false
		case v == max && v > 0:
			tied = true
		}
	}
	if max == 0 || tied {
		return BrandUnknown
	}
	return best
}
