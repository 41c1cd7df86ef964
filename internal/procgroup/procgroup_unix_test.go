//go:build unix

package procgroup

import (
	"os/exec"
	"syscall"
	"testing"
)

func TestAssignAndTerminate(t *testing.T) {
	g, err := New()
	if err != nil {
		t.Fatal(err)
	}
	cmd := exec.Command("sleep", "5")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		t.Skipf("could not start sleep: %v", err)
	}
	if err := g.Assign(cmd.Process.Pid); err != nil {
		t.Fatal(err)
	}
	if err := g.Terminate(); err != nil {
		t.Fatal(err)
	}
	_ = cmd.Wait()
}
