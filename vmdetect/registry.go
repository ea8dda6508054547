package vmdetect

import "runtime"

// platformSet says which operating systems a technique can run on. On any
// other OS the registry short-circuits the probe to false without calling
// it.
type platformSet uint8

const (
	pLinux platformSet = 1 << iota
	pWindows
	pMacOS

	pAny = pLinux | pWindows | pMacOS
)

func (p platformSet) matches(goos string) bool {
	switch goos {
	case "linux":
		return p&pLinux != 0
	case "windows":
		return p&pWindows != 0
	case "darwin":
		return p&pMacOS != 0
	}
	return false
}

func (p platformSet) String() string {
	names := ""
	add := func(s string) {
		if names != "" {
			names += ","
		}
		names += s
	}
	if p&pLinux != 0 {
		add("linux")
	}
	if p&pWindows != 0 {
		add("windows")
	}
	if p&pMacOS != 0 {
		add("macos")
	}
	return names
}

// technique describes one registered probe: its flag bit, stable external
// name, certainty weight, the platforms it can run on, whether it needs
// elevation, whether it is part of the default set, and the function that
// realizes it.
type technique struct {
	flag         Flag
	name         string
	weight       uint8
	platforms    platformSet
	requiresRoot bool
	inDefault    bool
	run          func(*tally) bool
}

// techniques is the probe registry: the single source of truth for
// weights, platform gating, and default membership. Order is stable and
// semantically significant (probes execute in this order). No probe is
// ever invoked outside this table, except through Check.
var techniques = []technique{
	{VMID, "VMID", 100, pAny, false, true, probeVMID},
	{BRAND, "BRAND", 50, pAny, false, true, probeBrandString},
	{HYPERVISOR_BIT, "HYPERVISOR_BIT", 100, pAny, false, true, probeHypervisorBit},
	{CPUID_0X4, "CPUID_0X4", 70, pAny, false, true, probeCPUIDLeaf4},
	{HYPERVISOR_STR, "HYPERVISOR_STR", 45, pAny, false, true, probeHypervisorStr},
	{RDTSC, "RDTSC", 10, pLinux | pWindows, false, true, probeRDTSC},
	{SIDT5, "SIDT5", 45, pLinux, false, true, probeSIDT5},
	{THREADCOUNT, "THREADCOUNT", 35, pAny, false, true, probeThreadCount},
	{MAC, "MAC", 60, pLinux | pWindows, false, true, probeMAC},
	{TEMPERATURE, "TEMPERATURE", 15, pLinux, false, true, probeTemperature},
	{SYSTEMD, "SYSTEMD", 70, pLinux, false, true, probeSystemd},
	{CVENDOR, "CVENDOR", 65, pLinux, false, true, probeChassisVendor},
	{CTYPE, "CTYPE", 10, pLinux, false, true, probeChassisType},
	{DOCKERENV, "DOCKERENV", 80, pLinux, false, true, probeDockerEnv},
	{DMIDECODE, "DMIDECODE", 55, pLinux, true, true, probeDmidecode},
	{DMESG, "DMESG", 55, pLinux, true, true, probeDmesg},
	{HWMON, "HWMON", 75, pLinux, false, true, probeHwmon},
	{CURSOR, "CURSOR", 5, pWindows, false, false, probeCursor},
	{VMWARE_REG, "VMWARE_REG", 65, pWindows, false, true, probeVMwareReg},
	{VBOX_REG, "VBOX_REG", 65, pWindows, false, true, probeVBoxReg},
	{USER, "USER", 35, pWindows, false, true, probeUser},
	{DLL, "DLL", 50, pWindows, false, true, probeDLL},
	{REGISTRY, "REGISTRY", 75, pWindows, false, true, probeRegistrySweep},
	{SUNBELT_VM, "SUNBELT_VM", 10, pWindows, false, true, probeSunBelt},
	{WINE_CHECK, "WINE_CHECK", 85, pWindows, false, true, probeWine},
	{VM_FILES, "VM_FILES", 60, pWindows, false, true, probeVMFiles},
	{HWMODEL, "HWMODEL", 75, pMacOS, false, true, probeHWModel},
	{DISK_SIZE, "DISK_SIZE", 60, pLinux, false, true, probeDiskSize},
	{VBOX_DEFAULT, "VBOX_DEFAULT", 55, pLinux | pWindows, false, true, probeVBoxDefault},
	{VBOX_NETWORK, "VBOX_NETWORK", 70, pWindows, false, true, probeVBoxNetwork},
	{COMPUTER_NAME, "COMPUTER_NAME", 40, pWindows, false, true, probeComputerName},
	{HOSTNAME, "HOSTNAME", 25, pWindows, false, true, probeHostname},
	{MEMORY, "MEMORY", 35, pWindows, false, true, probeMemory},
	{VM_PROCESSES, "VM_PROCESSES", 30, pWindows, false, true, probeVMProcesses},
	{LINUX_USER_HOST, "LINUX_USER_HOST", 25, pLinux, false, true, probeLinuxUserHost},
	{VBOX_WINDOW_CLASS, "VBOX_WINDOW_CLASS", 10, pWindows, false, true, probeVBoxWindowClass},
	{WMIC, "WMIC", 20, pWindows, false, true, probeWMIC},
	{GAMARUE, "GAMARUE", 40, pWindows, false, true, probeGamarue},
	{VMID_0X4, "VMID_0X4", 90, pAny, false, true, probeVMID0x4},
	{PARALLELS_VM, "PARALLELS_VM", 50, pWindows, false, true, probeParallels},
	{RDTSC_VMEXIT, "RDTSC_VMEXIT", 25, pLinux | pWindows, false, true, probeRDTSCVMExit},
	{LOADED_DLLS, "LOADED_DLLS", 75, pWindows, false, true, probeLoadedDLLs},
	{QEMU_BRAND, "QEMU_BRAND", 100, pAny, false, true, probeQEMUBrand},
	{BOCHS_CPU, "BOCHS_CPU", 95, pAny, false, true, probeBochsCPU},
	{VPC_BOARD, "VPC_BOARD", 20, pWindows, false, true, probeVPCBoard},
	{HYPERV_WMI, "HYPERV_WMI", 80, pWindows, false, true, probeHyperVWMI},
	{HYPERV_REG, "HYPERV_REG", 80, pWindows, false, true, probeHyperVReg},
	{BIOS_SERIAL, "BIOS_SERIAL", 60, pWindows, false, true, probeBIOSSerial},
	{VBOX_FOLDERS, "VBOX_FOLDERS", 45, pWindows, false, true, probeVBoxFolders},
	{VBOX_MSSMBIOS, "VBOX_MSSMBIOS", 90, pWindows, false, true, probeVBoxMSSMBIOS},
	{MAC_HYPERTHREAD, "MAC_HYPERTHREAD", 10, pMacOS, false, true, probeMacHyperthread},
	{MAC_MEMSIZE, "MAC_MEMSIZE", 30, pMacOS, false, true, probeMacMemsize},
	{MAC_IOKIT, "MAC_IOKIT", 80, pMacOS, false, true, probeMacIOKit},
	{IOREG_GREP, "IOREG_GREP", 75, pMacOS, false, true, probeIoregGrep},
	{MAC_SIP, "MAC_SIP", 85, pMacOS, false, true, probeMacSIP},
	{KVM_REG, "KVM_REG", 75, pWindows, false, true, probeKVMReg},
	{KVM_DRIVERS, "KVM_DRIVERS", 55, pWindows, false, true, probeKVMDrivers},
	{KVM_DIRS, "KVM_DIRS", 55, pWindows, false, true, probeKVMDirs},
}

// Info is the public view of one registry entry.
type Info struct {
	Name         string
	Flag         Flag
	Weight       uint8
	Platforms    string
	RequiresRoot bool
	InDefault    bool
}

// TechniqueInfo describes a registered technique. It fails for anything
// that is not exactly one technique bit.
func TechniqueInfo(f Flag) (Info, bool) {
	tc, ok := lookup(f)
	if !ok {
		return Info{}, false
	}
	return Info{
		Name:         tc.name,
		Flag:         tc.flag,
		Weight:       tc.weight,
		Platforms:    tc.platforms.String(),
		RequiresRoot: tc.requiresRoot,
		InDefault:    tc.inDefault,
	}, true
}

// lookup returns the descriptor for a single technique bit.
func lookup(f Flag) (*technique, bool) {
	for i := range techniques {
		if techniques[i].flag == f {
			return &techniques[i], true
		}
	}
	return nil, false
}

// runnable reports whether the descriptor may execute in the current
// process: right platform, and elevation present when required.
func (tc *technique) runnable() bool {
	if !tc.platforms.matches(runtime.GOOS) {
		return false
	}
	if tc.requiresRoot && !isElevated() {
		return false
	}
	return true
}

// invoke executes the probe, converting any panic into a negative reading.
// Probes never surface errors; a fault is absence of evidence.
func (tc *technique) invoke(tl *tally) (hit bool) {
	defer func() {
		if recover() != nil {
			hit = false
		}
	}()
	return tc.run(tl)
}
