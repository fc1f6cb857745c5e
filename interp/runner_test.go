package interp

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"simplesh/syntax"
)

func mustRunner(t *testing.T) (*Runner, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	r := New()
	r.Dir = t.TempDir()
	r.Env = os.Environ()
	r.Stdin = strings.NewReader("")
	r.Stdout = &stdout
	r.Stderr = &stderr
	return r, &stdout, &stderr
}

func runLine(t *testing.T, r *Runner, line string) error {
	t.Helper()
	cmd, err := syntax.Parse(line)
	qt.New(t).Assert(err, qt.IsNil, qt.Commentf("parsing %q", line))
	r.Line = line
	return r.Run(cmd)
}

func TestRunnerCwdBuiltin(t *testing.T) {
	c := qt.New(t)
	r, stdout, _ := mustRunner(t)

	err := runLine(t, r, "cwd")
	c.Assert(err, qt.IsNil)
	c.Assert(stdout.String(), qt.Equals, "cwd: "+r.Dir+"\n")
}

func TestRunnerRedirectionRoundTrip(t *testing.T) {
	c := qt.New(t)
	r, stdout, _ := mustRunner(t)

	err := runLine(t, r, "echo hello > out.txt")
	c.Assert(err, qt.IsNil)

	stdout.Reset()
	err = runLine(t, r, "cat out.txt")
	c.Assert(err, qt.IsNil)
	c.Assert(stdout.String(), qt.Equals, "hello\n")
}

func TestRunnerRedirectionIdempotenceForBuiltins(t *testing.T) {
	c := qt.New(t)
	r, stdout, _ := mustRunner(t)

	err := runLine(t, r, "cwd > f")
	c.Assert(err, qt.IsNil)
	c.Assert(stdout.String(), qt.Equals, "")

	stdout.Reset()
	err = runLine(t, r, "cwd")
	c.Assert(err, qt.IsNil)
	c.Assert(stdout.String(), qt.Equals, "cwd: "+r.Dir+"\n")

	got, err := os.ReadFile(r.Dir + "/f")
	c.Assert(err, qt.IsNil)
	c.Assert(string(got), qt.Equals, "cwd: "+r.Dir+"\n")
}

// TestRunnerRedirectionOutermostWins exercises spec.md §4.2's rule for
// chained same-direction redirections: "a" is the inner (first, source-order)
// node and "b" the outer (last) one, so the write goes to "b", while "a" is
// still truncated by its own open.
func TestRunnerRedirectionOutermostWins(t *testing.T) {
	c := qt.New(t)
	r, _, stderr := mustRunner(t)

	err := os.WriteFile(r.Dir+"/a", []byte("stale"), 0o600)
	c.Assert(err, qt.IsNil)

	err = runLine(t, r, "echo hello > a > b")
	c.Assert(err, qt.IsNil)
	c.Assert(stderr.String(), qt.Equals, "")

	gotA, err := os.ReadFile(r.Dir + "/a")
	c.Assert(err, qt.IsNil)
	c.Assert(string(gotA), qt.Equals, "")

	gotB, err := os.ReadFile(r.Dir + "/b")
	c.Assert(err, qt.IsNil)
	c.Assert(string(gotB), qt.Equals, "hello\n")
}

// TestRunnerSpawnErrorIsFatal checks spec.md §7's classification of
// SpawnError as fatal: a failed fork/exec must surface as a *FatalError so
// the REPL driver aborts the shell rather than printing and continuing.
func TestRunnerSpawnErrorIsFatal(t *testing.T) {
	c := qt.New(t)
	r, _, _ := mustRunner(t)

	r.Execer = ExecerFunc(func(_ context.Context, _ ExecContext) (Proc, error) {
		return nil, &SpawnError{Err: errors.New("fork failed")}
	})

	err := runLine(t, r, "somecmd")
	var fatal *FatalError
	c.Assert(err, qt.ErrorAs, &fatal)
}

func TestRunnerPipeline(t *testing.T) {
	c := qt.New(t)
	r, stdout, _ := mustRunner(t)

	err := runLine(t, r, "echo one two three | wc -w")
	c.Assert(err, qt.IsNil)
	c.Assert(strings.TrimSpace(stdout.String()), qt.Equals, "3")
}

func TestRunnerListRunsBothRegardlessOfOutcome(t *testing.T) {
	c := qt.New(t)
	r, stdout, _ := mustRunner(t)

	err := runLine(t, r, "false ; echo still-here")
	c.Assert(err, qt.IsNil)
	c.Assert(strings.TrimSpace(stdout.String()), qt.Equals, "still-here")
}

func TestRunnerCdDashRestoresPreviousDir(t *testing.T) {
	c := qt.New(t)
	r, stdout, _ := mustRunner(t)
	start := r.Dir

	err := runLine(t, r, "cd /tmp ; cd - ; cwd")
	c.Assert(err, qt.IsNil)
	c.Assert(stdout.String(), qt.Equals, "cwd: "+start+"\n")
}

func TestRunnerCdNoArgsGoesHome(t *testing.T) {
	c := qt.New(t)
	r, stdout, _ := mustRunner(t)
	home, err := os.UserHomeDir()
	c.Assert(err, qt.IsNil)

	err = runLine(t, r, "cd")
	c.Assert(err, qt.IsNil)

	stdout.Reset()
	err = runLine(t, r, "cwd")
	c.Assert(err, qt.IsNil)
	c.Assert(stdout.String(), qt.Equals, "cwd: "+home+"\n")
}

func TestRunnerCdDashWithoutOldpwd(t *testing.T) {
	c := qt.New(t)
	r, _, stderr := mustRunner(t)

	err := runLine(t, r, "cd -")
	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(stderr.String(), qt.Contains, "OLDPWD")
}

func TestRunnerExitStopsExecution(t *testing.T) {
	c := qt.New(t)
	r, stdout, _ := mustRunner(t)

	err := runLine(t, r, "exit ; echo should-not-print")
	c.Assert(IsExit(err), qt.IsTrue)
	c.Assert(stdout.String(), qt.Equals, "")
}

func TestRunnerSubshellIsolatesCd(t *testing.T) {
	c := qt.New(t)
	r, stdout, _ := mustRunner(t)
	start := r.Dir

	err := runLine(t, r, "(cd /tmp) ; cwd")
	c.Assert(err, qt.IsNil)
	c.Assert(stdout.String(), qt.Equals, "cwd: "+start+"\n")
}

func TestRunnerBackgroundJobLifecycle(t *testing.T) {
	c := qt.New(t)
	r, stdout, _ := mustRunner(t)
	stop := InstallSignalPolicy()
	defer stop()

	err := runLine(t, r, "sleep 0.2 &")
	c.Assert(err, qt.IsNil)
	c.Assert(stdout.String(), qt.Matches, `\[\d+\]\n`)
	c.Assert(r.Jobs.List(), qt.HasLen, 1)

	deadline := time.Now().Add(2 * time.Second)
	for len(r.Jobs.List()) != 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	c.Assert(r.Jobs.List(), qt.HasLen, 0)
}

func TestRunnerBjobsList(t *testing.T) {
	c := qt.New(t)
	r, stdout, _ := mustRunner(t)
	stop := InstallSignalPolicy()
	defer stop()

	err := runLine(t, r, "sleep 1 &")
	c.Assert(err, qt.IsNil)
	stdout.Reset()

	err = runLine(t, r, "bjobs")
	c.Assert(err, qt.IsNil)
	c.Assert(stdout.String(), qt.Matches, `\[\d+\]\n`)

	err = runLine(t, r, "bjobs -k")
	c.Assert(err, qt.IsNil)

	deadline := time.Now().Add(2 * time.Second)
	for len(r.Jobs.List()) != 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	c.Assert(r.Jobs.List(), qt.HasLen, 0)
}
