package vmdetect

import (
	"os"
	"strings"
)

// Linux sensors. All of them read /sys and /proc surfaces or shell out to
// the usual diagnostic tools; the registry gates them to Linux so they
// never execute elsewhere.

func readSys(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// dmiBrands maps DMI vendor/product strings to products. Substring match
// over lowercase input.
var dmiBrands = []struct {
	marker string
	brand  BrandID
}{
	{"vmware", BrandVMware},
	{"virtualbox", BrandVirtualBox},
	{"oracle", BrandVirtualBox},
	{"innotek", BrandVirtualBox},
	{"qemu", BrandQEMU},
	{"kvm", BrandKVM},
	{"xen", BrandXenHVM},
	{"parallels", BrandParallels},
	{"microsoft corporation", BrandHyperV},
	{"bhyve", BrandBhyve},
	{"bochs", BrandBochs},
	{"apple virtualization", BrandVirtualApple},
}

func matchDMI(s string, tl *tally) bool {
	s = strings.ToLower(s)
	if s == "" {
		return false
	}
	for _, d := range dmiBrands {
		if strings.Contains(s, d.marker) {
			tl.add(d.brand, 1)
			return true
		}
	}
	return false
}

// probeTemperature checks for the thermal zones every physical machine
// exposes. Hypervisors rarely bother emulating them.
func probeTemperature(_ *tally) bool {
	entries, err := os.ReadDir("/sys/class/thermal")
	if err != nil {
		return true
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "thermal_zone") {
			return false
		}
	}
	return true
}

// systemdVirtBrands translates systemd-detect-virt answers.
var systemdVirtBrands = map[string]BrandID{
	"vmware":         BrandVMware,
	"oracle":         BrandVirtualBox,
	"kvm":            BrandKVM,
	"qemu":           BrandQEMU,
	"microsoft":      BrandHyperV,
	"xen":            BrandXenHVM,
	"parallels":      BrandParallels,
	"bhyve":          BrandBhyve,
	"bochs":          BrandBochs,
	"acrn":           BrandACRN,
	"qnx":            BrandQNX,
	"docker":         BrandDocker,
	"podman":         BrandDocker,
	"apple":          BrandVirtualApple,
	"powervm":        BrandUnknown,
	"zvm":            BrandUnknown,
	"lxc":            BrandUnknown,
	"systemd-nspawn": BrandUnknown,
}

// probeSystemd asks systemd-detect-virt, which answers "none" (and exits
// non-zero) on bare metal.
func probeSystemd(tl *tally) bool {
	out, ok := runCommand("systemd-detect-virt")
	if !ok {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(out))
	if answer == "" || answer == "none" {
		return false
	}
	if b, known := systemdVirtBrands[answer]; known {
		tl.add(b, 1)
	}
	return true
}

// probeChassisVendor reads the DMI chassis vendor.
func probeChassisVendor(tl *tally) bool {
	return matchDMI(readSys("/sys/devices/virtual/dmi/id/chassis_vendor"), tl)
}

// probeChassisType checks for chassis type 1 ("Other"), the value most
// hypervisors leave in place.
func probeChassisType(_ *tally) bool {
	return readSys("/sys/devices/virtual/dmi/id/chassis_type") == "1"
}

// probeDockerEnv checks the container marker files Docker leaves at the
// filesystem root, then the cgroup membership as a fallback.
func probeDockerEnv(tl *tally) bool {
	for _, marker := range []string{"/.dockerenv", "/.dockerinit"} {
		if _, err := os.Stat(marker); err == nil {
			tl.add(BrandDocker, 1)
			return true
		}
	}
	if cg, err := os.ReadFile("/proc/1/cgroup"); err == nil {
		if strings.Contains(string(cg), "docker") {
			tl.add(BrandDocker, 1)
			return true
		}
	}
	return false
}

// probeDmidecode runs dmidecode and matches the system strings. Needs
// root, which the registry enforces.
func probeDmidecode(tl *tally) bool {
	out, ok := runCommand("dmidecode", "-t", "system")
	if !ok {
		return false
	}
	return matchDMI(out, tl)
}

// probeDmesg greps the kernel ring buffer for the hypervisor
// announcement. Needs root on locked-down kernels.
func probeDmesg(tl *tally) bool {
	out, ok := runCommand("dmesg")
	if !ok {
		return false
	}
	low := strings.ToLower(out)
	if !strings.Contains(low, "hypervisor detected") &&
		!strings.Contains(low, "booting paravirtualized kernel") {
		return false
	}
	matchDMI(low, tl)
	return true
}

// probeHwmon checks for hardware monitoring devices; an empty
// /sys/class/hwmon is typical of guests.
func probeHwmon(_ *tally) bool {
	entries, err := os.ReadDir("/sys/class/hwmon")
	if err != nil {
		return true
	}
	return len(entries) == 0
}
