//go:build unix

package codegen

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// configureProcess runs a stage in its own process group so that a timeout
// also kills whatever the tool spawned.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
}
