//go:build !unix

package dispatch

import "os/exec"

func configureProcess(cmd *exec.Cmd) {}
