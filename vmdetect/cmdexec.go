package vmdetect

import (
	"strings"
	"time"

	gocmd "github.com/go-cmd/cmd"
)

// cmdTimeout bounds every external tool a probe shells out to. A probe is
// allowed to block, but never indefinitely.
const cmdTimeout = 3 * time.Second

// runCommand executes an external tool and returns its stdout. Exit codes
// are not treated as failure (systemd-detect-virt exits non-zero on bare
// metal); only a spawn error or the timeout yields ok=false.
func runCommand(name string, args ...string) (string, bool) {
	c := gocmd.NewCmd(name, args...)
	select {
	case st := <-c.Start():
		if st.Error != nil {
			return "", false
		}
		return strings.Join(st.Stdout, "\n"), true
	case <-time.After(cmdTimeout):
		_ = c.Stop()
		return "", false
	}
}
