// Package registry provides read-only access to the Windows registry for
// artifact scanning. All operations fail cleanly on other platforms.
package registry

import "runtime"

// Supported reports whether registry access works on this platform.
func Supported() bool {
	return runtime.GOOS == "windows"
}

// KeyExists reports whether a key such as
// `HKLM\SOFTWARE\Oracle\VirtualBox Guest Additions` can be opened.
func KeyExists(keyPath string) bool {
	return keyExists(keyPath)
}

// ReadString reads a string value from a key. An empty valueName reads
// the key's default value.
func ReadString(keyPath, valueName string) (string, error) {
	return readString(keyPath, valueName)
}

// SubKeys enumerates the child key names of a key.
func SubKeys(keyPath string) ([]string, error) {
	return subKeys(keyPath)
}
