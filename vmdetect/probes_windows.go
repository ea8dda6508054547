//go:build windows

package vmdetect

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unsafe"

	"github.com/google/uuid"
	"github.com/yusufpapurcu/wmi"
	"golang.org/x/sys/windows"
	"golang.org/x/text/encoding/unicode"

	"github.com/vmtell/vmtell/registry"
)

var (
	modKernel32 = windows.NewLazySystemDLL("kernel32.dll")
	modUser32   = windows.NewLazySystemDLL("user32.dll")

	procGetModuleHandleW      = modKernel32.NewProc("GetModuleHandleW")
	procK32EnumProcessModules = modKernel32.NewProc("K32EnumProcessModules")
	procK32GetModuleBaseNameW = modKernel32.NewProc("K32GetModuleBaseNameW")
	procWineGetUnixFileName   = modKernel32.NewProc("wine_get_unix_file_name")
	procFindWindowW           = modUser32.NewProc("FindWindowW")
	procGetCursorPos          = modUser32.NewProc("GetCursorPos")
)

func system32Dir() string {
	root := os.Getenv("SYSTEMROOT")
	if root == "" {
		root = `C:\Windows`
	}
	return filepath.Join(root, "System32")
}

func anyKeyExists(tl *tally, brand BrandID, keys ...string) bool {
	for _, k := range keys {
		if registry.KeyExists(k) {
			tl.add(brand, 1)
			return true
		}
	}
	return false
}

// probeVMwareReg checks the registry footprint of VMware Tools and the
// VMware virtual hardware services.
func probeVMwareReg(tl *tally) bool {
	return anyKeyExists(tl, BrandVMware,
		`HKLM\SOFTWARE\VMware, Inc.\VMware Tools`,
		`HKLM\SYSTEM\ControlSet001\Services\vmdebug`,
		`HKLM\SYSTEM\ControlSet001\Services\vmmouse`,
		`HKLM\SYSTEM\ControlSet001\Services\VMTools`,
		`HKLM\SYSTEM\ControlSet001\Services\vmhgfs`,
		`HKLM\SYSTEM\ControlSet001\Services\vmci`,
	)
}

// probeVBoxReg checks the ACPI tables and services VirtualBox installs.
func probeVBoxReg(tl *tally) bool {
	return anyKeyExists(tl, BrandVirtualBox,
		`HKLM\HARDWARE\ACPI\DSDT\VBOX__`,
		`HKLM\HARDWARE\ACPI\FADT\VBOX__`,
		`HKLM\HARDWARE\ACPI\RSDT\VBOX__`,
		`HKLM\SOFTWARE\Oracle\VirtualBox Guest Additions`,
		`HKLM\SYSTEM\ControlSet001\Services\VBoxGuest`,
		`HKLM\SYSTEM\ControlSet001\Services\VBoxMouse`,
		`HKLM\SYSTEM\ControlSet001\Services\VBoxService`,
		`HKLM\SYSTEM\ControlSet001\Services\VBoxSF`,
		`HKLM\SYSTEM\ControlSet001\Services\VBoxVideo`,
	)
}

func moduleLoaded(name string) bool {
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return false
	}
	h, _, _ := procGetModuleHandleW.Call(uintptr(unsafe.Pointer(p)))
	return h != 0
}

// sandboxDLLs are the injection DLLs of user-mode sandboxes.
var sandboxDLLs = []struct {
	name  string
	brand BrandID
}{
	{"sbiedll.dll", BrandSandboxie},
	{"cmdvrt32.dll", BrandComodo},
	{"cmdvrt64.dll", BrandComodo},
	{"pstorec.dll", BrandSunBelt},
	{"vmcheck.dll", BrandVPC},
	{"api_log.dll", BrandUnknown},
	{"dir_watch.dll", BrandUnknown},
	{"wpespy.dll", BrandUnknown},
}

// probeDLL asks the loader whether any sandbox hook DLL sits in this
// process.
func probeDLL(tl *tally) bool {
	hit := false
	for _, d := range sandboxDLLs {
		if moduleLoaded(d.name) {
			tl.add(d.brand, 1)
			hit = true
		}
	}
	return hit
}

// registrySweep is the broad artifact list: one representative key per
// product family.
var registrySweep = []struct {
	key   string
	brand BrandID
}{
	{`HKLM\SOFTWARE\VMware, Inc.\VMware Tools`, BrandVMware},
	{`HKLM\SOFTWARE\Oracle\VirtualBox Guest Additions`, BrandVirtualBox},
	{`HKLM\HARDWARE\ACPI\DSDT\VBOX__`, BrandVirtualBox},
	{`HKLM\SOFTWARE\Wine`, BrandWine},
	{`HKCU\SOFTWARE\Wine`, BrandWine},
	{`HKLM\HARDWARE\ACPI\DSDT\xen`, BrandXenHVM},
	{`HKLM\SYSTEM\ControlSet001\Services\xenevtchn`, BrandXenHVM},
	{`HKLM\SYSTEM\ControlSet001\Services\xennet`, BrandXenHVM},
	{`HKLM\SYSTEM\ControlSet001\Services\xensvc`, BrandXenHVM},
	{`HKLM\SOFTWARE\Microsoft\Hyper-V`, BrandHyperV},
	{`HKLM\SOFTWARE\Microsoft\VirtualMachine`, BrandHyperV},
	{`HKLM\SYSTEM\ControlSet001\Services\vpcbus`, BrandVPC},
	{`HKLM\SYSTEM\ControlSet001\Services\vpc-s3`, BrandVPC},
	{`HKLM\SYSTEM\ControlSet001\Services\msvmmouf`, BrandVPC},
	{`HKLM\SYSTEM\CurrentControlSet\Services\SbieDrv`, BrandSandboxie},
	{`HKLM\SOFTWARE\Sandboxie`, BrandSandboxie},
	{`HKLM\SOFTWARE\Parallels\Parallels Tools`, BrandParallels},
}

// probeRegistrySweep scans the whole artifact list, casting one vote per
// matching product.
func probeRegistrySweep(tl *tally) bool {
	hit := false
	for _, e := range registrySweep {
		if registry.KeyExists(e.key) {
			tl.add(e.brand, 1)
			hit = true
		}
	}
	return hit
}

// probeSunBelt looks for the analysis directory the SunBelt/GFI sandbox
// runs samples out of.
func probeSunBelt(tl *tally) bool {
	if _, err := os.Stat(`C:\analysis`); err != nil {
		return false
	}
	tl.add(BrandSunBelt, 1)
	return true
}

// probeWine checks kernel32 for the exports Wine adds to it.
func probeWine(tl *tally) bool {
	if procWineGetUnixFileName.Find() != nil {
		return false
	}
	tl.add(BrandWine, 1)
	return true
}

// guestDriverFiles are the virtual-hardware drivers guest additions drop
// into System32\drivers.
var guestDriverFiles = []struct {
	name  string
	brand BrandID
}{
	{"VBoxMouse.sys", BrandVirtualBox},
	{"VBoxGuest.sys", BrandVirtualBox},
	{"VBoxSF.sys", BrandVirtualBox},
	{"VBoxVideo.sys", BrandVirtualBox},
	{"vmmouse.sys", BrandVMware},
	{"vmhgfs.sys", BrandVMware},
	{"vmci.sys", BrandVMware},
	{"vmusbmouse.sys", BrandVMware},
	{"vmx_svga.sys", BrandVMware},
	{"vmxnet.sys", BrandVMware},
	{"vmmemctl.sys", BrandVMware},
	{"vmsrvc.sys", BrandVPC},
	{"vpc-s3.sys", BrandVPC},
}

func probeVMFiles(tl *tally) bool {
	drivers := filepath.Join(system32Dir(), "drivers")
	hit := false
	for _, f := range guestDriverFiles {
		if _, err := os.Stat(filepath.Join(drivers, f.name)); err == nil {
			tl.add(f.brand, 1)
			hit = true
		}
	}
	return hit
}

// probeVBoxNetwork scans the registered network cards for the VirtualBox
// adapter description.
func probeVBoxNetwork(tl *tally) bool {
	const cards = `HKLM\SOFTWARE\Microsoft\Windows NT\CurrentVersion\NetworkCards`
	subs, err := registry.SubKeys(cards)
	if err != nil {
		return false
	}
	for _, sub := range subs {
		desc, err := registry.ReadString(cards+`\`+sub, "Description")
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(desc), "virtualbox") {
			tl.add(BrandVirtualBox, 1)
			return true
		}
	}
	return false
}

// probeVBoxWindowClass looks for the VirtualBox tray tool window.
func probeVBoxWindowClass(tl *tally) bool {
	for _, class := range []string{"VBoxTrayToolWndClass", "VBoxTrayToolWnd"} {
		cls, err := windows.UTF16PtrFromString(class)
		if err != nil {
			continue
		}
		if h, _, _ := procFindWindowW.Call(uintptr(unsafe.Pointer(cls)), 0); h != 0 {
			tl.add(BrandVirtualBox, 1)
			return true
		}
	}
	return false
}

// decodeConsoleOutput turns the UTF-16 output of wmic and friends into
// UTF-8. Plain ASCII output passes through untouched.
func decodeConsoleOutput(s string) string {
	if !strings.HasPrefix(s, "\xff\xfe") && !strings.ContainsRune(s, 0) {
		return s
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	out, err := dec.String(s)
	if err != nil {
		return s
	}
	return out
}

// probeWMIC shells out to wmic the way the older sandbox checks did and
// greps the computer-system strings.
func probeWMIC(tl *tally) bool {
	out, ok := runCommand("wmic", "computersystem", "get", "manufacturer,model")
	if !ok {
		return false
	}
	low := strings.ToLower(decodeConsoleOutput(out))
	if matchDMI(low, tl) {
		return true
	}
	return strings.Contains(low, "virtual")
}

// sandboxProductIDs are the Windows ProductId values burned into public
// sandbox images, famously checked by the Gamarue family.
var sandboxProductIDs = map[string]BrandID{
	"76487-337-8429955-22614": BrandAnubis,
	"76487-644-3177037-23510": BrandCWSandbox,
	"55274-640-2673064-23950": BrandJoeBox,
}

func probeGamarue(tl *tally) bool {
	id, err := registry.ReadString(`HKLM\SOFTWARE\Microsoft\Windows NT\CurrentVersion`, "ProductId")
	if err != nil {
		return false
	}
	if b, known := sandboxProductIDs[strings.TrimSpace(id)]; known {
		tl.add(b, 1)
		return true
	}
	return false
}

type win32ComputerSystem struct {
	Manufacturer string
	Model        string
}

type win32BIOS struct {
	SerialNumber string
}

type win32BaseBoard struct {
	Manufacturer string
	Product      string
}

type win32ComputerSystemProduct struct {
	UUID string
}

// probeParallels matches the Parallels virtual platform strings.
func probeParallels(tl *tally) bool {
	var cs []win32ComputerSystem
	if err := wmi.Query("SELECT Manufacturer, Model FROM Win32_ComputerSystem", &cs); err != nil || len(cs) == 0 {
		return false
	}
	s := strings.ToLower(cs[0].Manufacturer + " " + cs[0].Model)
	if strings.Contains(s, "parallels") {
		tl.add(BrandParallels, 1)
		return true
	}
	return false
}

// probeVPCBoard matches the Microsoft baseboard Virtual PC exposes. Low
// weight: Hyper-V reports the same manufacturer and is caught by its own
// probes.
func probeVPCBoard(tl *tally) bool {
	var bb []win32BaseBoard
	if err := wmi.Query("SELECT Manufacturer, Product FROM Win32_BaseBoard", &bb); err != nil || len(bb) == 0 {
		return false
	}
	if strings.Contains(strings.ToLower(bb[0].Manufacturer), "microsoft corporation") {
		tl.add(BrandVPC, 1)
		return true
	}
	return false
}

// probeHyperVWMI matches the Hyper-V computer-system identity.
func probeHyperVWMI(tl *tally) bool {
	var cs []win32ComputerSystem
	if err := wmi.Query("SELECT Manufacturer, Model FROM Win32_ComputerSystem", &cs); err != nil || len(cs) == 0 {
		return false
	}
	man := strings.ToLower(cs[0].Manufacturer)
	model := strings.ToLower(cs[0].Model)
	if strings.Contains(man, "microsoft") && strings.Contains(model, "virtual machine") {
		tl.add(BrandHyperV, 1)
		return true
	}
	return false
}

// probeHyperVReg checks the guest parameter keys the Hyper-V integration
// services publish.
func probeHyperVReg(tl *tally) bool {
	return anyKeyExists(tl, BrandHyperV,
		`HKLM\SOFTWARE\Microsoft\Virtual Machine\Guest\Parameters`,
		`HKLM\SYSTEM\ControlSet001\Services\vmicheartbeat`,
		`HKLM\SYSTEM\ControlSet001\Services\vmicvss`,
		`HKLM\SYSTEM\ControlSet001\Services\vmicshutdown`,
	)
}

// knownSandboxMachineUUIDs are SMBIOS machine UUIDs of public analysis
// services.
var knownSandboxMachineUUIDs = []uuid.UUID{
	uuid.MustParse("bb926e54-e3ca-40fd-ae90-2764341e7792"),
	uuid.MustParse("90059c37-1320-41a4-b58d-2b75a9850d2f"),
}

// probeBIOSSerial checks the BIOS serial and the SMBIOS machine UUID for
// hypervisor markers, null values, and known sandbox identities.
func probeBIOSSerial(tl *tally) bool {
	var bios []win32BIOS
	if err := wmi.Query("SELECT SerialNumber FROM Win32_BIOS", &bios); err == nil && len(bios) > 0 {
		serial := strings.ToLower(strings.TrimSpace(bios[0].SerialNumber))
		switch {
		case strings.HasPrefix(serial, "vmware-"):
			tl.add(BrandVMware, 1)
			return true
		case strings.Contains(serial, "parallels"):
			tl.add(BrandParallels, 1)
			return true
		case serial == "0" || serial == "none" || serial == "to be filled by o.e.m.":
			return true
		}
	}

	var prod []win32ComputerSystemProduct
	if err := wmi.Query("SELECT UUID FROM Win32_ComputerSystemProduct", &prod); err != nil || len(prod) == 0 {
		return false
	}
	id, err := uuid.Parse(strings.TrimSpace(prod[0].UUID))
	if err != nil {
		return false
	}
	if id == uuid.Nil || id.String() == "ffffffff-ffff-ffff-ffff-ffffffffffff" {
		return true
	}
	for _, known := range knownSandboxMachineUUIDs {
		if id == known {
			return true
		}
	}
	return false
}

// probeVBoxFolders checks for the Guest Additions install directories.
func probeVBoxFolders(tl *tally) bool {
	dirs := []string{
		`C:\Program Files\Oracle\VirtualBox Guest Additions`,
		`C:\Program Files\innotek\VirtualBox Guest Additions`,
	}
	for _, d := range dirs {
		if fi, err := os.Stat(d); err == nil && fi.IsDir() {
			tl.add(BrandVirtualBox, 1)
			return true
		}
	}
	return false
}

// probeVBoxMSSMBIOS reads the firmware version strings mirrored into the
// registry; VirtualBox stamps VBOX into all of them.
func probeVBoxMSSMBIOS(tl *tally) bool {
	const sysDesc = `HKLM\HARDWARE\DESCRIPTION\System`
	for _, value := range []string{"SystemBiosVersion", "VideoBiosVersion"} {
		v, err := registry.ReadString(sysDesc, value)
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToUpper(v), "VBOX") {
			tl.add(BrandVirtualBox, 1)
			return true
		}
	}
	subs, err := registry.SubKeys(`HKLM\HARDWARE\ACPI\DSDT`)
	if err != nil {
		return false
	}
	for _, s := range subs {
		if strings.Contains(strings.ToUpper(s), "VBOX") {
			tl.add(BrandVirtualBox, 1)
			return true
		}
	}
	return false
}

// probeKVMReg checks for the virtio service keys the KVM guest drivers
// register.
func probeKVMReg(tl *tally) bool {
	return anyKeyExists(tl, BrandKVM,
		`HKLM\SYSTEM\ControlSet001\Services\vioscsi`,
		`HKLM\SYSTEM\ControlSet001\Services\viostor`,
		`HKLM\SYSTEM\ControlSet001\Services\VirtioSerial`,
		`HKLM\SYSTEM\ControlSet001\Services\BALLOON`,
		`HKLM\SYSTEM\ControlSet001\Services\netkvm`,
	)
}

var kvmDriverFiles = []string{
	"balloon.sys",
	"netkvm.sys",
	"vioinput.sys",
	"viofs.sys",
	"vioser.sys",
	"viostor.sys",
	"vioscsi.sys",
	"viorng.sys",
	"pvpanic.sys",
}

// probeKVMDrivers checks System32\drivers for the virtio driver set.
func probeKVMDrivers(tl *tally) bool {
	drivers := filepath.Join(system32Dir(), "drivers")
	for _, f := range kvmDriverFiles {
		if _, err := os.Stat(filepath.Join(drivers, f)); err == nil {
			tl.add(BrandKVM, 1)
			return true
		}
	}
	return false
}

// probeKVMDirs checks for KVM/QEMU guest tool install directories.
func probeKVMDirs(tl *tally) bool {
	dirs := []string{
		`C:\Program Files\Virtio-Win`,
		`C:\Program Files\qemu-ga`,
		`C:\Program Files\SPICE Guest Tools`,
	}
	for _, d := range dirs {
		if fi, err := os.Stat(d); err == nil && fi.IsDir() {
			tl.add(BrandKVM, 1)
			return true
		}
	}
	return false
}

// analysisHookDLLs are monitoring DLLs AV sandboxes and hook engines
// inject into every process they watch.
var analysisHookDLLs = []struct {
	name  string
	brand BrandID
}{
	{"avghookx.dll", BrandUnknown},
	{"avghooka.dll", BrandUnknown},
	{"snxhk.dll", BrandUnknown},
	{"sbiedll.dll", BrandSandboxie},
	{"cmdvrt32.dll", BrandComodo},
	{"cmdvrt64.dll", BrandComodo},
	{"sxin.dll", BrandUnknown},
	{"dbghelp.dll", BrandUnknown},
}

// probeLoadedDLLs enumerates the modules actually mapped into this
// process and matches them against the hook list. Unlike probeDLL this
// sees DLLs loaded under a different name resolution path.
func probeLoadedDLLs(tl *tally) bool {
	var (
		mods   [1024]windows.Handle
		needed uint32
	)
	proc := windows.CurrentProcess()
	r, _, _ := procK32EnumProcessModules.Call(
		uintptr(proc),
		uintptr(unsafe.Pointer(&mods[0])),
		unsafe.Sizeof(mods),
		uintptr(unsafe.Pointer(&needed)),
	)
	if r == 0 {
		return false
	}
	count := int(needed / uint32(unsafe.Sizeof(mods[0])))
	if count > len(mods) {
		count = len(mods)
	}

	loaded := make(map[string]bool, count)
	for i := 0; i < count; i++ {
		var buf [windows.MAX_PATH]uint16
		n, _, _ := procK32GetModuleBaseNameW.Call(
			uintptr(proc),
			uintptr(mods[i]),
			uintptr(unsafe.Pointer(&buf[0])),
			uintptr(len(buf)),
		)
		if n == 0 {
			continue
		}
		loaded[strings.ToLower(windows.UTF16ToString(buf[:n]))] = true
	}

	hit := false
	for _, d := range analysisHookDLLs {
		if loaded[d.name] {
			tl.add(d.brand, 1)
			hit = true
		}
	}
	return hit
}

type cursorPoint struct {
	x int32
	y int32
}

// probeCursor watches the cursor for five seconds. A cursor that never
// moves is typical of unattended analysis VMs. The wait is why this
// technique sits outside the default set.
func probeCursor(_ *tally) bool {
	var p1, p2 cursorPoint
	if r, _, _ := procGetCursorPos.Call(uintptr(unsafe.Pointer(&p1))); r == 0 {
		return false
	}
	time.Sleep(5 * time.Second)
	if r, _, _ := procGetCursorPos.Call(uintptr(unsafe.Pointer(&p2))); r == 0 {
		return false
	}
	return p1 == p2
}
