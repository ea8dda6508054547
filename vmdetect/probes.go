package vmdetect

import (
	"bytes"
	"net"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/vmtell/vmtell/platform"
	"github.com/vmtell/vmtell/processes"
)

const gib = 1024 * 1024 * 1024

func isElevated() bool {
	return platform.IsElevated()
}

// probeThreadCount flags single-threaded machines; nothing physical has
// shipped with one logical CPU in a long time, sandbox images still do.
func probeThreadCount(_ *tally) bool {
	n, err := cpu.Counts(true)
	return err == nil && n > 0 && n < 2
}

// ouiBrands maps the locally famous virtual NIC OUI prefixes to their
// products.
var ouiBrands = []struct {
	prefix []byte
	brand  BrandID
}{
	{[]byte{0x00, 0x05, 0x69}, BrandVMware},
	{[]byte{0x00, 0x0c, 0x29}, BrandVMware},
	{[]byte{0x00, 0x1c, 0x14}, BrandVMware},
	{[]byte{0x00, 0x50, 0x56}, BrandVMware},
	{[]byte{0x08, 0x00, 0x27}, BrandVirtualBox},
	{[]byte{0x0a, 0x00, 0x27}, BrandVirtualBox},
	{[]byte{0x00, 0x16, 0x3e}, BrandXenHVM},
	{[]byte{0x00, 0x1c, 0x42}, BrandParallels},
}

// probeMAC scans NIC hardware addresses for hypervisor OUI prefixes.
func probeMAC(tl *tally) bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	hit := false
	for _, ifc := range ifaces {
		if len(ifc.HardwareAddr) < 3 {
			continue
		}
		for _, oui := range ouiBrands {
			if bytes.Equal([]byte(ifc.HardwareAddr[:3]), oui.prefix) {
				tl.add(oui.brand, 1)
				hit = true
			}
		}
	}
	return hit
}

// probeMemory flags machines with less than 4 GiB of RAM, the ceiling of
// most stock analysis images.
func probeMemory(_ *tally) bool {
	vm, err := mem.VirtualMemory()
	return err == nil && vm.Total > 0 && vm.Total < 4*gib
}

// probeDiskSize flags a root volume of 80 GiB or less.
func probeDiskSize(_ *tally) bool {
	du, err := disk.Usage("/")
	return err == nil && du.Total > 0 && du.Total <= 80*gib
}

// probeVBoxDefault matches the geometry of an untouched VirtualBox
// guest: 1 or 2 GiB of RAM on a disk of at most 80 GiB.
func probeVBoxDefault(tl *tally) bool {
	vm, err := mem.VirtualMemory()
	if err != nil || vm.Total == 0 {
		return false
	}
	ramGiB := (vm.Total + gib/2) / gib
	if ramGiB != 1 && ramGiB != 2 {
		return false
	}
	root := "/"
	if platform.OS() == "windows" {
		root = `C:\`
	}
	du, err := disk.Usage(root)
	if err != nil || du.Total == 0 || du.Total > 80*gib {
		return false
	}
	tl.add(BrandVirtualBox, 1)
	return true
}

// analysisUsers are account names shipped by sandbox vendors or used by
// throwaway analysis rigs.
var analysisUsers = []struct {
	name  string
	brand BrandID
}{
	{"hapubws", BrandHybridAnalysis},
	{"sandbox", BrandUnknown},
	{"virus", BrandUnknown},
	{"malware", BrandUnknown},
	{"maltest", BrandUnknown},
	{"currentuser", BrandUnknown},
	{"test user", BrandUnknown},
	{"john doe", BrandUnknown},
	{"emily", BrandUnknown},
	{"hong lee", BrandUnknown},
	{"milozs", BrandUnknown},
	{"wdagutilityaccount", BrandUnknown},
}

func probeUser(tl *tally) bool {
	user := strings.ToLower(platform.Username())
	if user == "" {
		return false
	}
	for _, u := range analysisUsers {
		if user == u.name {
			tl.add(u.brand, 1)
			return true
		}
	}
	return false
}

// analysisHosts are machine names observed on public analysis services.
var analysisHosts = []struct {
	name  string
	brand BrandID
}{
	{"insidetm", BrandThreadExpert},
	{"tu-4nh09smcg1hc", BrandAnubis},
	{"klone_x64-pc", BrandUnknown},
	{"tequilaboomboom", BrandUnknown},
	{"sandbox", BrandUnknown},
	{"malware", BrandUnknown},
	{"virus", BrandUnknown},
}

func probeComputerName(tl *tally) bool {
	host := strings.ToLower(platform.Hostname())
	if host == "" {
		return false
	}
	for _, h := range analysisHosts {
		if host == h.name {
			tl.add(h.brand, 1)
			return true
		}
	}
	return false
}

// probeHostname checks the narrower list of hostnames tied to specific
// sandbox appliances.
func probeHostname(_ *tally) bool {
	host := strings.ToLower(platform.Hostname())
	switch host {
	case "systemit", "compname_4047", "mueller-pc":
		return true
	}
	return false
}

// probeLinuxUserHost matches the liveuser@localhost-live pair of
// unconfigured live images, a common base for throwaway analysis VMs.
func probeLinuxUserHost(_ *tally) bool {
	user := strings.ToLower(platform.Username())
	host := strings.ToLower(platform.Hostname())
	if user == "liveuser" && strings.Contains(host, "localhost-live") {
		return true
	}
	return user == "sandbox" || user == "vmuser"
}

// guestToolProcs are the resident guest-additions daemons of the major
// hypervisors.
var guestToolProcs = []struct {
	name  string
	brand BrandID
}{
	{"vmtoolsd", BrandVMware},
	{"vmwaretray", BrandVMware},
	{"vmwareuser", BrandVMware},
	{"vgauthservice", BrandVMware},
	{"vmacthlp", BrandVMware},
	{"vboxservice", BrandVirtualBox},
	{"vboxtray", BrandVirtualBox},
	{"prl_cc", BrandParallels},
	{"prl_tools", BrandParallels},
	{"qemu-ga", BrandQEMU},
	{"vdagent", BrandQEMU},
	{"vdservice", BrandQEMU},
	{"xenservice", BrandXenHVM},
	{"joeboxserver", BrandJoeBox},
	{"joeboxcontrol", BrandJoeBox},
}

// probeVMProcesses looks for running guest-tool daemons.
func probeVMProcesses(tl *tally) bool {
	names, err := processes.Names()
	if err != nil {
		return false
	}
	running := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSuffix(strings.ToLower(n), ".exe")
		running[n] = true
	}
	hit := false
	for _, p := range guestToolProcs {
		if running[p.name] {
			tl.add(p.brand, 1)
			hit = true
		}
	}
	return hit
}
