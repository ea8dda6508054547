// Package processes enumerates running process names. It is read-only;
// the detection probes only ever look, never touch.
package processes

import (
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// Names returns the executable names of all visible processes. Processes
// that disappear mid-walk are skipped, not errors.
func Names() ([]string, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil || name == "" {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// AnyRunning reports whether any of the given executable names (compared
// case-insensitively, with or without an .exe suffix) is currently
// running.
func AnyRunning(wanted ...string) bool {
	names, err := Names()
	if err != nil {
		return false
	}
	running := make(map[string]bool, len(names))
	for _, n := range names {
		running[normalize(n)] = true
	}
	for _, w := range wanted {
		if running[normalize(w)] {
			return true
		}
	}
	return false
}

func normalize(name string) string {
	return strings.TrimSuffix(strings.ToLower(name), ".exe")
}
