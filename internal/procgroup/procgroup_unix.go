//go:build unix

package procgroup

import "syscall"

// unixGuard kills a POSIX process group. The child must already have been
// started with SysProcAttr.Setpgid so that its PGID equals its own PID
// (see internal/ptyspawn); Assign just records that PID.
//
// Do not also Setsid the child: calling setpgid() on a session leader
// returns EPERM on macOS. Setpgid alone gives kill(-pid, SIGKILL) semantics
// without that interaction.
type unixGuard struct {
	pid int
}

// New returns a guard with no process assigned; Terminate does nothing
// until Assign records the child's pid.
func New() (Guard, error) {
	return &unixGuard{}, nil
}

func (g *unixGuard) Assign(pid int) error {
	g.pid = pid
	return nil
}

func (g *unixGuard) Terminate() error {
	if g.pid == 0 {
		return nil
	}
	return syscall.Kill(-g.pid, syscall.SIGKILL)
}

func (g *unixGuard) Close() error {
	return g.Terminate()
}
