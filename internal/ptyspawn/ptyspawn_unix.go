//go:build unix

package ptyspawn

import (
	"os/exec"
	"syscall"
)

// configurePlatform puts the child in its own process group (PGID == its
// own PID) so procgroup.Guard can later kill(-pid, SIGKILL) the whole
// group. Setsid is deliberately not also set: calling setpgid() on a
// session leader returns EPERM on macOS.
func configurePlatform(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
