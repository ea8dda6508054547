//go:build amd64

package vmdetect

// Raw CPU reads live in cpu_amd64.s. The feature-level view comes from
// klauspost/cpuid; these shims exist for the hypervisor leaves and timing
// primitives that no library exposes.

func cpuidRaw(leaf, sub uint32) (eax, ebx, ecx, edx uint32)

func rdtsc() uint64

func sidt(buf *[10]byte)

const hasCPUPrimitives = true
