//go:build !windows

package registry

import "github.com/pkg/errors"

var errUnsupported = errors.New("registry access only supported on Windows")

func keyExists(keyPath string) bool {
	return false
}

func readString(keyPath, valueName string) (string, error) {
	return "", errUnsupported
}

func subKeys(keyPath string) ([]string, error) {
	return nil, errUnsupported
}
