// Package ptyspawn opens a pseudo-terminal pair and launches a command
// attached to the slave side, handing the caller back the master's
// reader/writer/resize handles and the child's process handle.
package ptyspawn

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/creack/pty"

	"github.com/den-labs/termhub/internal/procgroup"
)

// ErrorKind classifies why Spawn failed, mirroring the registry's
// SpawnFailed{cause} error kind.
type ErrorKind int

const (
	ErrIO ErrorKind = iota
	ErrPtyOpen
	ErrCommandStart
)

// SpawnError wraps the underlying error with a kind so callers (and the
// registry) can surface it verbatim while still branching on cause.
type SpawnError struct {
	Kind  ErrorKind
	Cause error
}

func (e *SpawnError) Error() string { return e.Cause.Error() }
func (e *SpawnError) Unwrap() error { return e.Cause }

// Session is the result of a successful Spawn: independent reader/writer
// handles into the PTY master, the master itself (used only for resize),
// the child process handle (used only for kill/wait), and a process-group
// guard populated on platforms that need one.
type Session struct {
	Reader *os.File
	Writer *os.File
	Master *os.File
	Cmd    *exec.Cmd
	Guard  procgroup.Guard
}

// Spawn opens a PTY of the given size and starts command/argv attached to
// its slave, with the current user's home directory as cwd (falling back
// to root if unset). The slave is never exposed to the caller. Reader,
// Writer and Master are the same *os.File returned by pty (no fd is
// duplicated), so callers must not independently Close more than one of
// them.
func Spawn(command string, argv []string, cols, rows uint16) (*Session, error) {
	if command == "" {
		command = defaultShell()
	}

	cmd := exec.Command(command, argv...)
	cmd.Dir = homeOrRoot()
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	configurePlatform(cmd)

	guard, err := procgroup.New()
	if err != nil {
		return nil, &SpawnError{Kind: ErrIO, Cause: fmt.Errorf("process group guard: %w", err)}
	}

	master, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: cols, Rows: rows})
	if err != nil {
		guard.Close()
		return nil, &SpawnError{Kind: ErrPtyOpen, Cause: err}
	}

	if cmd.Process != nil {
		if err := guard.Assign(cmd.Process.Pid); err != nil {
			// Non-fatal: the session still runs, just without group-kill
			// guarantees on this process. The error is not reported.
		}
	}

	return &Session{
		Reader: master,
		Writer: master,
		Master: master,
		Cmd:    cmd,
		Guard:  guard,
	}, nil
}

func defaultShell() string {
	if runtime.GOOS == "windows" {
		if shell := os.Getenv("COMSPEC"); shell != "" {
			return shell
		}
		return "cmd.exe"
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return "/bin/sh"
}

func homeOrRoot() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}
	if runtime.GOOS == "windows" {
		return `C:\`
	}
	return "/"
}

// Resize applies a new size to the PTY master.
func (s *Session) Resize(cols, rows uint16) error {
	return pty.Setsize(s.Master, &pty.Winsize{Cols: cols, Rows: rows})
}
