// Package platform answers small questions about the host the process
// runs on: names, OS, and whether the process is elevated.
package platform

import (
	"os"
	"os/user"
	"runtime"
	"strings"
)

// Hostname returns the machine name, or "" when it cannot be read.
func Hostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}
	return hostname
}

// Username returns the name of the current user without any domain
// prefix, or "" when it cannot be read.
func Username() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}
	name := u.Username
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// OS returns the runtime operating system name.
func OS() string {
	return runtime.GOOS
}

// Arch returns the runtime architecture.
func Arch() string {
	return runtime.GOARCH
}

// IsElevated reports whether the process runs as root (unix) or with an
// elevated token (Windows).
func IsElevated() bool {
	return isElevated()
}
