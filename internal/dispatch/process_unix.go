//go:build unix

package dispatch

import (
	"os/exec"
	"syscall"
)

// configureProcess places the worker in its own process group so that
// cancellation also kills any children it spawned.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
