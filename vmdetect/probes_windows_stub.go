//go:build !windows

package vmdetect

// The Windows sensors are compiled out elsewhere; the registry already
// gates them to Windows, so these stubs are never reached through a
// detection run.

func probeVMwareReg(_ *tally) bool { return false }
func probeVBoxReg(_ *tally) bool { return false }
func probeDLL(_ *tally) bool { return false }
func probeRegistrySweep(_ *tally) bool { return false }
func probeSunBelt(_ *tally) bool { return false }
func probeWine(_ *tally) bool { return false }
func probeVMFiles(_ *tally) bool { return false }
func probeVBoxNetwork(_ *tally) bool { return false }
func probeVBoxWindowClass(_ *tally) bool { return false }
func probeWMIC(_ *tally) bool { return false }
func probeGamarue(_ *tally) bool { return false }
func probeParallels(_ *tally) bool { return false }
func probeVPCBoard(_ *tally) bool { return false }
func probeHyperVWMI(_ *tally) bool { return false }
func probeHyperVReg(_ *tally) bool { return false }
func probeBIOSSerial(_ *tally) bool { return false }
func probeVBoxFolders(_ *tally) bool { return false }
func probeVBoxMSSMBIOS(_ *tally) bool { return false }
func probeKVMReg(_ *tally) bool { return false }
func probeKVMDrivers(_ *tally) bool { return false }
func probeKVMDirs(_ *tally) bool { return false }
func probeLoadedDLLs(_ *tally) bool { return false }
func probeCursor(_ *tally) bool { return false }
