//go:build windows

package registry

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows/registry"
)

// parseKeyPath splits `HIVE\sub\key` into the hive handle and subkey.
func parseKeyPath(keyPath string) (registry.Key, string, error) {
	parts := strings.SplitN(keyPath, `\`, 2)
	if len(parts) == 0 || parts[0] == "" {
		return 0, "", errors.New("empty registry path")
	}

	var hive registry.Key
	switch strings.ToUpper(parts[0]) {
	case "HKLM", "HKEY_LOCAL_MACHINE":
		hive = registry.LOCAL_MACHINE
	case "HKCU", "HKEY_CURRENT_USER":
		hive = registry.CURRENT_USER
	case "HKCR", "HKEY_CLASSES_ROOT":
		hive = registry.CLASSES_ROOT
	case "HKU", "HKEY_USERS":
		hive = registry.USERS
	case "HKCC", "HKEY_CURRENT_CONFIG":
		hive = registry.CURRENT_CONFIG
	default:
		return 0, "", errors.Errorf("unknown registry hive %q", parts[0])
	}

	path := ""
	if len(parts) > 1 {
		path = parts[1]
	}
	return hive, path, nil
}

func keyExists(keyPath string) bool {
	hive, path, err := parseKeyPath(keyPath)
	if err != nil {
		return false
	}
	k, err := registry.OpenKey(hive, path, registry.READ)
	if err != nil {
		return false
	}
	k.Close()
	return true
}

func readString(keyPath, valueName string) (string, error) {
	hive, path, err := parseKeyPath(keyPath)
	if err != nil {
		return "", err
	}
	k, err := registry.OpenKey(hive, path, registry.QUERY_VALUE)
	if err != nil {
		return "", errors.Wrapf(err, "open %s", keyPath)
	}
	defer k.Close()

	val, _, err := k.GetStringValue(valueName)
	if err != nil {
		return "", errors.Wrapf(err, "read %s\\%s", keyPath, valueName)
	}
	return val, nil
}

func subKeys(keyPath string) ([]string, error) {
	hive, path, err := parseKeyPath(keyPath)
	if err != nil {
		return nil, err
	}
	k, err := registry.OpenKey(hive, path, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", keyPath)
	}
	defer k.Close()

	return k.ReadSubKeyNames(-1)
}
