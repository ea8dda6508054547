package vmdetect

import (
	"encoding/binary"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// Hypervisor CPUID leaves. A hypervisor answers leaf 0x40000000 with its
// maximum leaf in EAX and a 12-byte vendor signature in EBX:ECX:EDX.
const (
	hvLeafBase = 0x40000000
	hvLeafMax  = 0x400000ff
)

var hvVendorBrands = []struct {
	signature string
	brand     BrandID
}{
	{"KVMKVMKVM", BrandKVM},
	{"Microsoft Hv", BrandHyperV},
	{"MicrosoftXTA", BrandMSXTA},
	{"VMwareVMware", BrandVMware},
	{"XenVMMXenVMM", BrandXenHVM},
	{"prl hyperv", BrandParallels},
	{"lrpepyh vr", BrandParallels},
	{"VBoxVBoxVBox", BrandVirtualBox},
	{"TCGTCGTCGTCG", BrandQEMU},
	{"bhyve bhyve", BrandBhyve},
	{"BHyVE", BrandBhyve},
	{"ACRNACRNACRN", BrandACRN},
	{"QNXQVMBSQG", BrandQNX},
}

// hvVendorAt reads the 12-byte vendor signature at a hypervisor leaf.
func hvVendorAt(leaf uint32) string {
	_, b, c, d := cpuidRaw(leaf, 0)
	if b == 0 && c == 0 && d == 0 {
		return ""
	}
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf, b)
	binary.LittleEndian.PutUint32(buf[4:], c)
	binary.LittleEndian.PutUint32(buf[8:], d)
	return strings.TrimRight(string(buf), "\x00 ")
}

// hvPresent reports whether leaf 0x40000000 answers like a hypervisor.
// Out-of-range CPUID leaves on bare metal echo the highest basic leaf, so
// the EAX range check is what separates a real answer from the echo.
func hvPresent() bool {
	a, _, _, _ := cpuidRaw(hvLeafBase, 0)
	return a >= hvLeafBase && a <= hvLeafMax
}

func matchHvVendor(vendor string, tl *tally) bool {
	for _, v := range hvVendorBrands {
		if strings.Contains(vendor, v.signature) {
			tl.add(v.brand, 1)
			return true
		}
	}
	return false
}

// probeVMID matches the leaf 0x40000000 vendor signature against the
// known hypervisor table.
func probeVMID(tl *tally) bool {
	if !hasCPUPrimitives {
		return false
	}
	return matchHvVendor(hvVendorAt(hvLeafBase), tl)
}

// probeVMID0x4 repeats the vendor match at leaf 0x40000004, where some
// hypervisors (notably QEMU's TCG) repeat or first expose the signature.
func probeVMID0x4(tl *tally) bool {
	if !hasCPUPrimitives {
		return false
	}
	return matchHvVendor(hvVendorAt(hvLeafBase+4), tl)
}

// probeHypervisorBit checks ECX bit 31 of CPUID leaf 1, reserved by both
// Intel and AMD to mean "running under a hypervisor".
func probeHypervisorBit(_ *tally) bool {
	if cpuid.CPU.Has(cpuid.HYPERVISOR) {
		return true
	}
	if !hasCPUPrimitives {
		return false
	}
	_, _, c, _ := cpuidRaw(1, 0)
	return c&(1<<31) != 0
}

// probeCPUIDLeaf4 checks whether the hypervisor leaf range answers at
// all.
func probeCPUIDLeaf4(_ *tally) bool {
	if !hasCPUPrimitives {
		return false
	}
	return hvPresent()
}

// probeHypervisorStr checks for a non-empty vendor signature at leaf
// 0x40000000.
func probeHypervisorStr(_ *tally) bool {
	if !hasCPUPrimitives || !hvPresent() {
		return false
	}
	return hvVendorAt(hvLeafBase) != ""
}

// probeBrandString scans the CPU brand string for virtualization
// keywords.
func probeBrandString(tl *tally) bool {
	brand := strings.ToLower(cpuid.CPU.BrandName)
	if brand == "" {
		return false
	}
	keywords := []struct {
		word  string
		brand BrandID
	}{
		{"qemu", BrandQEMU},
		{"kvm", BrandKVM},
		{"vbox", BrandVirtualBox},
		{"virtualbox", BrandVirtualBox},
		{"vmware", BrandVMware},
		{"bhyve", BrandBhyve},
		{"hvisor", BrandUnknown},
		{"hypervisor", BrandUnknown},
		{"parallels", BrandParallels},
		{"monitor", BrandUnknown},
	}
	for _, k := range keywords {
		if strings.Contains(brand, k.word) {
			tl.add(k.brand, 1)
			return true
		}
	}
	return false
}

// probeQEMUBrand looks for QEMU's synthetic TCG brand string. When the
// hypervisor vendor underneath is KVM, the pair is reported as QEMU/KVM.
func probeQEMUBrand(tl *tally) bool {
	brand := strings.ToLower(cpuid.CPU.BrandName)
	if !strings.Contains(brand, "qemu virtual cpu") {
		return false
	}
	if hasCPUPrimitives && strings.Contains(hvVendorAt(hvLeafBase), "KVMKVMKVM") {
		tl.add(BrandQEMUKVM, 1)
	} else {
		tl.add(BrandQEMU, 1)
	}
	return true
}

// probeBochsCPU looks for the malformed brand strings Bochs ships: legacy
// model names without the trademark glyphs or a frequency suffix a real
// part always carries.
func probeBochsCPU(tl *tally) bool {
	vendor := cpuid.CPU.VendorString
	brand := cpuid.CPU.BrandName
	if brand == "" {
		return false
	}
	suspicious := false
	switch vendor {
	case "GenuineIntel":
		suspicious = strings.Contains(brand, "Pentium") && !strings.Contains(brand, "GHz")
	case "AuthenticAMD":
		suspicious = strings.Contains(brand, "Athlon") && !strings.Contains(brand, "GHz") &&
			!strings.Contains(brand, "(tm)")
	}
	if suspicious {
		tl.add(BrandBochs, 1)
	}
	return suspicious
}

const timingRounds = 10

// probeRDTSC samples back-to-back TSC reads. Emulated or trapped
// counters show deltas far above the handful of cycles two adjacent
// RDTSCs cost on silicon. Power-throttled physical CPUs can trip this
// too, which is why its weight is low.
func probeRDTSC(_ *tally) bool {
	if !hasCPUPrimitives {
		return false
	}
	var total uint64
	for i := 0; i < timingRounds; i++ {
		a := rdtsc()
		b := rdtsc()
		total += b - a
	}
	return total/timingRounds > 750
}

// probeRDTSCVMExit times a CPUID between two TSC reads. CPUID forces a
// vm-exit, so under a hypervisor the round trip costs thousands of
// cycles instead of a few hundred.
func probeRDTSCVMExit(_ *tally) bool {
	if !hasCPUPrimitives {
		return false
	}
	var total uint64
	for i := 0; i < timingRounds; i++ {
		a := rdtsc()
		cpuidRaw(0, 0)
		b := rdtsc()
		total += b - a
	}
	return total/timingRounds > 1750
}

// probeSIDT5 reads the IDT descriptor. On bare-metal 64-bit kernels the
// table lives in the canonical high half, so the top base byte is 0xff;
// relocated descriptor tables are a hypervisor tell.
func probeSIDT5(_ *tally) bool {
	if !hasCPUPrimitives {
		return false
	}
	var idtr [10]byte
	sidt(&idtr)
	if idtr[0] == 0 && idtr[1] == 0 {
		return false
	}
	return idtr[9] != 0xff
}
