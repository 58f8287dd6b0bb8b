//go:build linux

package superdoc

import (
	"os/exec"
	"syscall"
)

// setSpawnAttrs asks the kernel to deliver SIGTERM to the runtime if the
// host process dies without running its shutdown path, so the child is not
// orphaned on abnormal exit.
func setSpawnAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Pdeathsig: syscall.SIGTERM}
}
