//go:build !unix

package ptyspawn

import "os/exec"

// configurePlatform is a no-op on platforms without POSIX process groups;
// procgroup.Guard (a Job Object on Windows) provides the kill-on-close
// guarantee there instead.
func configurePlatform(cmd *exec.Cmd) {}
