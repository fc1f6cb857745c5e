package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/creack/pty"
	qt "github.com/frankban/quicktest"
	"golang.org/x/term"
)

// TestTerminalDetection grounds main's term.IsTerminal(os.Stdin.Fd()) check
// against a real pty, the same way the teacher's terminal tests avoid
// mocking terminal state.
func TestTerminalDetection(t *testing.T) {
	c := qt.New(t)
	ptmx, tty, err := pty.Open()
	c.Assert(err, qt.IsNil)
	defer ptmx.Close()
	defer tty.Close()

	c.Assert(term.IsTerminal(int(tty.Fd())), qt.IsTrue)

	f, err := os.CreateTemp(t.TempDir(), "not-a-tty")
	c.Assert(err, qt.IsNil)
	defer f.Close()
	c.Assert(term.IsTerminal(int(f.Fd())), qt.IsFalse)
}

// TestRunNonInteractive exercises the whole run() entry point against a
// plain (non-terminal) stdin, the common case for scripted/piped input.
func TestRunNonInteractive(t *testing.T) {
	c := qt.New(t)

	origStdin, origStdout := os.Stdin, os.Stdout
	defer func() { os.Stdin, os.Stdout = origStdin, origStdout }()

	r, w, err := os.Pipe()
	c.Assert(err, qt.IsNil)
	os.Stdin = r

	outR, outW, err := os.Pipe()
	c.Assert(err, qt.IsNil)
	os.Stdout = outW

	go func() {
		w.Write([]byte("cwd\nexit\n"))
		w.Close()
	}()

	done := make(chan int, 1)
	go func() { done <- run(nil) }()

	code := <-done
	outW.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	buf.ReadFrom(outR)

	c.Assert(code, qt.Equals, 0)
	c.Assert(strings.Contains(buf.String(), "cwd: "), qt.IsTrue)
}
