package vmdetect

import (
	"strconv"
	"strings"
)

// macOS sensors. They shell out to sysctl, ioreg, and csrutil; the
// registry gates them to darwin.

func sysctlValue(name string) string {
	out, ok := runCommand("sysctl", "-n", name)
	if !ok {
		return ""
	}
	return strings.TrimSpace(out)
}

// probeHWModel inspects hw.model. Every physical Mac reports a Mac*
// model; virtualized guests report VirtualMac, VMware, or QEMU strings.
func probeHWModel(tl *tally) bool {
	model := sysctlValue("hw.model")
	if model == "" {
		return false
	}
	low := strings.ToLower(model)
	switch {
	case strings.Contains(low, "virtualmac"):
		tl.add(BrandVirtualApple, 1)
		return true
	case strings.Contains(low, "vmware"):
		tl.add(BrandVMware, 1)
		return true
	case strings.Contains(low, "parallels"):
		tl.add(BrandParallels, 1)
		return true
	case strings.Contains(low, "qemu"):
		tl.add(BrandQEMU, 1)
		return true
	}
	return !strings.HasPrefix(model, "Mac")
}

// probeMacHyperthread flags Intel Macs whose thread count equals the
// core count; shipping Intel parts in Macs were SMT-capable, and
// hypervisors usually expose single-thread cores.
func probeMacHyperthread(_ *tally) bool {
	if !strings.Contains(sysctlValue("machdep.cpu.brand_string"), "Intel") {
		return false
	}
	cores, err1 := strconv.Atoi(sysctlValue("machdep.cpu.core_count"))
	threads, err2 := strconv.Atoi(sysctlValue("machdep.cpu.thread_count"))
	if err1 != nil || err2 != nil || cores <= 0 || threads <= 0 {
		return false
	}
	return threads == cores
}

// probeMacMemsize flags memory sizes no Mac ever shipped with: not a
// whole GiB multiple, or below the smallest configuration sold.
func probeMacMemsize(_ *tally) bool {
	total, err := strconv.ParseUint(sysctlValue("hw.memsize"), 10, 64)
	if err != nil || total == 0 {
		return false
	}
	if total < 4*gib {
		return true
	}
	return total%gib != 0
}

// probeMacIOKit walks the IOKit registry for guest-additions device
// names.
func probeMacIOKit(tl *tally) bool {
	out, ok := runCommand("ioreg", "-l")
	if !ok {
		return false
	}
	low := strings.ToLower(out)
	markers := []struct {
		marker string
		brand  BrandID
	}{
		{"virtualbox", BrandVirtualBox},
		{"vboxguest", BrandVirtualBox},
		{"innotek", BrandVirtualBox},
		{"vmware", BrandVMware},
		{"prl_hypervisor", BrandParallels},
		{"parallels", BrandParallels},
	}
	for _, m := range markers {
		if strings.Contains(low, m.marker) {
			tl.add(m.brand, 1)
			return true
		}
	}
	return false
}

// probeIoregGrep inspects the platform expert device, where the board
// and manufacturer of the virtual platform leak through.
func probeIoregGrep(tl *tally) bool {
	out, ok := runCommand("ioreg", "-rd1", "-c", "IOPlatformExpertDevice")
	if !ok {
		return false
	}
	return matchDMI(out, tl)
}

// probeMacSIP checks System Integrity Protection. Disabled SIP is the
// norm on instrumented analysis machines and rare everywhere else.
func probeMacSIP(_ *tally) bool {
	out, ok := runCommand("csrutil", "status")
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(out), "disabled")
}
