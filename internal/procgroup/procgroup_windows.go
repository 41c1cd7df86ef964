//go:build windows

package procgroup

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// windowsGuard wraps a Win32 Job Object with
// JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE. creack/pty spawns an out-of-process
// console helper (conhost/OpenConsole) alongside the shell on this
// platform; killing only the shell leaks the helper. Assigning both the
// shell and the helper to this job means closing the job handle (or
// calling Terminate) takes down the whole group.
type windowsGuard struct {
	handle windows.Handle
}

// New creates a Job Object with kill-on-close semantics.
func New() (Guard, error) {
	handle, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		return nil, err
	}

	info := windows.JOBOBJECT_EXTENDED_LIMIT_INFORMATION{
		BasicLimitInformation: windows.JOBOBJECT_BASIC_LIMIT_INFORMATION{
			LimitFlags: windows.JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE,
		},
	}
	_, err = windows.SetInformationJobObject(
		handle,
		windows.JobObjectExtendedLimitInformation,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)),
	)
	if err != nil {
		windows.CloseHandle(handle)
		return nil, err
	}

	return &windowsGuard{handle: handle}, nil
}

// Assign adds a process, by pid, to the job object.
func (g *windowsGuard) Assign(pid int) error {
	process, err := windows.OpenProcess(windows.PROCESS_SET_QUOTA|windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return err
	}
	defer windows.CloseHandle(process)

	return windows.AssignProcessToJobObject(g.handle, process)
}

// Terminate kills every process currently assigned to the job.
func (g *windowsGuard) Terminate() error {
	return windows.TerminateJobObject(g.handle, 1)
}

// Close releases the job handle. Job Objects with
// JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE terminate their remaining members
// when the last handle closes, so this is itself a termination.
func (g *windowsGuard) Close() error {
	return windows.CloseHandle(g.handle)
}
