//go:build !amd64

package vmdetect

// Non-x86 builds have no CPUID/RDTSC/SIDT. The dependent probes read
// zeros and decline.

func cpuidRaw(leaf, sub uint32) (eax, ebx, ecx, edx uint32) {
	return 0, 0, 0, 0
}

func rdtsc() uint64 { return 0 }

func sidt(buf *[10]byte) {}

const hasCPUPrimitives = false
