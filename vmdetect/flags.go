package vmdetect

import (
	"math/bits"
	"strings"
)

// Flag is a bit-mask over detection techniques plus the modifier bits
// NO_MEMO and EXTREME. Technique bits occupy positions 0..57; the modifier
// bits live at the top of the mask so that DEFAULT &^ X stays meaningful
// arithmetic over the technique space.
type Flag uint64

// Technique flags. The bit positions are stable: persisted flag masks and
// config files depend on them.
const (
	VMID Flag = 1 << iota
	BRAND
	HYPERVISOR_BIT
	CPUID_0X4
	HYPERVISOR_STR
	RDTSC
	SIDT5
	THREADCOUNT
	MAC
	TEMPERATURE
	SYSTEMD
	CVENDOR
	CTYPE
	DOCKERENV
	DMIDECODE
	DMESG
	HWMON
	CURSOR
	VMWARE_REG
	VBOX_REG
	USER
	DLL
	REGISTRY
	SUNBELT_VM
	WINE_CHECK
	VM_FILES
	HWMODEL
	DISK_SIZE
	VBOX_DEFAULT
	VBOX_NETWORK
	COMPUTER_NAME
	HOSTNAME
	MEMORY
	VM_PROCESSES
	LINUX_USER_HOST
	VBOX_WINDOW_CLASS
	WMIC
	GAMARUE
	VMID_0X4
	PARALLELS_VM
	RDTSC_VMEXIT
	LOADED_DLLS
	QEMU_BRAND
	BOCHS_CPU
	VPC_BOARD
	HYPERV_WMI
	HYPERV_REG
	BIOS_SERIAL
	VBOX_FOLDERS
	VBOX_MSSMBIOS
	MAC_HYPERTHREAD
	MAC_MEMSIZE
	MAC_IOKIT
	IOREG_GREP
	MAC_SIP
	KVM_REG
	KVM_DRIVERS
	KVM_DIRS

	techniqueCount = iota
)

// Modifier flags. NO_MEMO disables the result cache for one call, EXTREME
// lowers the verdict threshold to "any probe fired".
const (
	NO_MEMO Flag = 1 << 62
	EXTREME Flag = 1 << 63
)

// ALL enables every technique, including the ones kept out of the default
// set. DEFAULT is every technique except CURSOR, whose 5-second wait makes
// it opt-in only.
const (
	ALL     Flag = 1<<techniqueCount - 1
	DEFAULT Flag = ALL &^ CURSOR

	techniqueMask = ALL
	modifierMask  = NO_MEMO | EXTREME
)

// combine folds a variadic flag list into a single mask. An empty list
// selects the default technique set.
func combine(flags []Flag) Flag {
	var f Flag
	for _, fl := range flags {
		f |= fl
	}
	if f&techniqueMask == 0 {
		f |= DEFAULT
	}
	return f
}

// valid reports whether the mask contains only known technique and
// modifier bits.
func (f Flag) valid() bool {
	return f&^(techniqueMask|modifierMask) == 0
}

// singleTechnique reports whether exactly one technique bit is set and no
// modifier bits are present.
func (f Flag) singleTechnique() bool {
	return f&modifierMask == 0 && f.valid() && bits.OnesCount64(uint64(f)) == 1
}

// TechniqueNames returns the external identifiers of the technique bits
// set in f, in registry order.
func (f Flag) TechniqueNames() []string {
	var names []string
	for i := range techniques {
		if f&techniques[i].flag != 0 {
			names = append(names, techniques[i].name)
		}
	}
	return names
}

// FlagFromName resolves a stable technique identifier (for example
// "DOCKERENV") or one of the modifier names to its flag bit. Lookup is
// case-insensitive.
func FlagFromName(name string) (Flag, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	switch name {
	case "ALL":
		return ALL, true
	case "DEFAULT":
		return DEFAULT, true
	case "NO_MEMO":
		return NO_MEMO, true
	case "EXTREME":
		return EXTREME, true
	}
	for i := range techniques {
		if techniques[i].name == name {
			return techniques[i].flag, true
		}
	}
	return 0, false
}
