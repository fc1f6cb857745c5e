//go:build unix

package interp

import (
	"os/signal"
	"syscall"
)

// InstallSignalPolicy sets the shell's process-wide signal dispositions.
// It must be called once, before the REPL starts reading commands. The
// returned func restores default dispositions; callers normally defer it.
//
// SIGINT and SIGQUIT are ignored at the shell process level so that Ctrl-C
// and Ctrl-\ at the prompt do not kill the shell itself. Children run in
// their own process group (see prepareCommand), which is not the
// terminal's foreground group, so those terminal signals do not reach them
// either.
//
// Deliberately not handled here: SIGCHLD. spec.md's reaper is a
// waitpid(-1, WNOHANG) loop run from a signal handler, needed because the
// original C shell has no other thread of control waiting on background
// children. Our executor instead starts a dedicated goroutine per
// background job that blocks in Wait (see runBack), which is the
// goroutine doing the job the C signal handler did. Installing our own
// wildcard reap on top of that would race os/exec's own pid-specific
// wait4 call for the same child — the kernel only delivers one process's
// exit status once, so whichever caller's wait4 runs first "steals" it
// and the other blocks forever. Leaving SIGCHLD's disposition untouched
// (not even ignored: SIG_IGN on SIGCHLD triggers Linux's auto-reap
// behavior, which has the identical stealing problem against cmd.Wait)
// is the correct choice given that reaping already happens per job.
func InstallSignalPolicy() (stop func()) {
	signal.Ignore(syscall.SIGINT, syscall.SIGQUIT)
	return func() {
		signal.Reset(syscall.SIGINT, syscall.SIGQUIT)
	}
}
