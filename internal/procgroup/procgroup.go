// Package procgroup gives each PTY child a kill-on-close process group so
// that destroying a session cannot leak helper processes.
//
// On POSIX the child is already placed in its own process group at spawn
// time (see internal/ptyspawn); Guard here just remembers the PGID and
// issues the group kill. On Windows, creack/pty spawns an out-of-process
// conhost/OpenConsole helper alongside the shell; Guard binds both into a
// Job Object with JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE so that closing the
// guard (or calling Terminate) is hermetic.
package procgroup

// Guard binds one or more processes into a kill-on-close group.
type Guard interface {
	// Assign adds a process, by pid, to the group.
	Assign(pid int) error

	// Terminate kills every process currently assigned to the group.
	Terminate() error

	// Close releases the guard's own resources. On the primary platform
	// this also terminates any remaining members.
	Close() error
}
