//go:build unix

package interp

import (
	"os/exec"
	"syscall"
)

// prepareCommand places cmd in its own process group before it starts, the
// same way the teacher's handler_unix.go does, so that the child (and its
// own descendants) can be signaled as a unit, as killPID does. The group is
// not made the terminal's foreground process group, so the terminal's
// SIGINT/SIGQUIT are not delivered to it.
func prepareCommand(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// killPID sends SIGKILL to the process group led by pid, used by the
// bjobs -k built-in against tracked background jobs.
func killPID(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}
