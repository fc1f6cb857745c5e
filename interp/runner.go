// Package interp implements the simplesh executor: it walks a parsed
// command tree, runs built-ins in-process, forks external commands via an
// Execer, wires pipes and redirections, and maintains the background-job
// registry together with the process's signal policy.
package interp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"simplesh/syntax"
)

// errExit is returned by the exit built-in and propagated up through run
// without being masked by List's "run regardless of outcome" semantics: once
// exit has been invoked, no further command on the same line runs.
var errExit = errors.New("interp: exit requested")

// IsExit reports whether err is (or wraps) the sentinel returned by the
// exit built-in, the signal the REPL driver uses to terminate its loop.
func IsExit(err error) bool {
	return errors.Is(err, errExit)
}

// Tracer receives executor entry/exit notifications for "-d" bit 1.
type Tracer interface {
	Enter(desc string)
	Exit(desc string, err error)
}

// Runner executes one parsed command tree. Dir and Env are virtual: the
// executor never calls os.Chdir on the real process, so that Back and
// Subshell can isolate their cd's by simply running against a copy of the
// Runner, exactly mirroring fork's address-space copy without needing a
// real OS chdir per goroutine (which Go has no way to express; chdir is
// process-wide).
type Runner struct {
	Line string // the source line, for Word.Lit lookups

	Dir string
	Env []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Execer Execer
	Jobs   *JobRegistry
	Tracer Tracer

	// Kill sends a fatal signal to the process group led by pid. Defaults
	// to SIGKILL via the platform's process-group kill.
	Kill func(pid int) error

	// announce is where "[<pid>]" is written for a new background job. Run
	// defaults it to Stdout when unset, and fork copies it unchanged, so
	// the announcement reaches the original shell's stdout even from a
	// copied Runner whose Stdout was redirected.
	announce io.Writer
}

// New returns a Runner with the default Execer, an empty job registry and
// the process-group kill. Callers fill in Line, Dir, Env and
// Stdin/Stdout/Stderr before calling Run, or use NewDefault.
func New() *Runner {
	return &Runner{
		Execer: DefaultExecer,
		Jobs:   NewJobRegistry(),
		Kill:   killPID,
	}
}

// NewDefault returns a Runner wired to the real process: current working
// directory, process environment, and the process's own stdio.
func NewDefault() (*Runner, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	r := New()
	r.Dir = dir
	r.Env = os.Environ()
	r.Stdin = os.Stdin
	r.Stdout = os.Stdout
	r.Stderr = os.Stderr
	r.announce = os.Stdout
	return r, nil
}

// Run parses nothing itself; it walks an already-parsed tree (built from
// the line r.Line refers to) and executes it. A nil cmd (blank input line)
// is a no-op.
func (r *Runner) Run(cmd syntax.Command) error {
	if r.announce == nil {
		r.announce = r.Stdout
	}
	return r.run(cmd)
}

func (r *Runner) run(cmd syntax.Command) error {
	if r.Tracer != nil {
		desc := syntax.Print(cmd, r.Line)
		r.Tracer.Enter(desc)
		err := r.dispatch(cmd)
		r.Tracer.Exit(desc, err)
		return err
	}
	return r.dispatch(cmd)
}

func (r *Runner) dispatch(cmd syntax.Command) error {
	switch c := cmd.(type) {
	case nil:
		return nil
	case *syntax.Exec:
		return r.runExec(c)
	case *syntax.Redir:
		return r.runRedir(c)
	case *syntax.Pipe:
		return r.runPipe(c)
	case *syntax.List:
		return r.runList(c)
	case *syntax.Back:
		return r.runBack(c)
	case *syntax.Subshell:
		return r.runSubshell(c)
	default:
		return fmt.Errorf("interp: unhandled command node %T", cmd)
	}
}

func (r *Runner) argv(e *syntax.Exec) []string {
	argv := make([]string, len(e.Argv))
	for i, w := range e.Argv {
		argv[i] = w.Lit(r.Line)
	}
	return argv
}

// resolvePath joins a relative path against the Runner's virtual working
// directory, since built-ins that touch the filesystem directly (psplit,
// redirection targets) cannot rely on the real process cwd tracking a
// per-goroutine Dir the way os/exec's cmd.Dir does for external commands.
func (r *Runner) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.Dir, path)
}

func (r *Runner) runExec(e *syntax.Exec) error {
	if len(e.Argv) == 0 {
		return nil
	}
	argv := r.argv(e)
	if IsBuiltin(argv[0]) {
		return r.runBuiltin(argv[0], argv[1:])
	}
	return r.runExternal(argv)
}

// runExternal forks+execs argv, waiting for it to complete in the
// foreground.
func (r *Runner) runExternal(argv []string) error {
	proc, err := r.Execer.Start(context.Background(), ExecContext{
		Argv:   argv,
		Dir:    r.Dir,
		Env:    r.Env,
		Stdin:  r.Stdin,
		Stdout: r.Stdout,
		Stderr: r.Stderr,
	})
	if err != nil {
		var notFound *ExecNotFound
		if errors.As(err, &notFound) {
			fmt.Fprintf(r.Stderr, "%s: command not found\n", notFound.Name)
			return nil
		}
		// A failed fork/exec (spec.md §7's SpawnError) is always fatal:
		// the shell has no way to know what state the attempted fork left
		// behind, so it aborts rather than continuing to the next line.
		var spawnErr *SpawnError
		if errors.As(err, &spawnErr) {
			return &FatalError{Err: spawnErr}
		}
		return err
	}
	_, err = proc.Wait()
	return err
}

// runRedir implements spec.md §4.3's Redir case uniformly for both
// built-in and external inner commands: it swaps the Runner's relevant
// stream(s) for the open file(s), runs Inner, and restores the streams on
// every exit path. When Inner is a built-in this is exactly "duplicate, run
// synchronously, restore"; when Inner is external or compound, the same
// swapped fields are what runExternal/runPipe read when building the
// ExecContext or the next pipe stage, giving identical wiring without a
// separate forked-child code path.
//
// A chain of consecutive Redir nodes (e.g. "> a > b", parsed as
// Redir_b{Inner: Redir_a{Inner: Exec}}) is flattened and opened in source
// (left-to-right) order, so every target file is still created/truncated
// as a real shell would, but per spec.md §4.2 the outermost node of a
// given direction — here Redir_b, opened last — is the one whose file
// Inner actually sees.
func (r *Runner) runRedir(top *syntax.Redir) error {
	var chain []*syntax.Redir
	var inner syntax.Command = top
	for {
		rd, ok := inner.(*syntax.Redir)
		if !ok {
			break
		}
		chain = append(chain, rd)
		inner = rd.Inner
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	origStdin, origStdout := r.Stdin, r.Stdout
	defer func() {
		r.Stdin = origStdin
		r.Stdout = origStdout
	}()

	for _, rd := range chain {
		path := r.resolvePath(rd.Path.Lit(r.Line))

		var flag int
		switch rd.Op {
		case syntax.RedirIn:
			flag = os.O_RDONLY
		case syntax.RedirOut:
			flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		case syntax.RedirAppend:
			flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
		}

		f, err := os.OpenFile(path, flag, 0o700)
		if err != nil {
			fmt.Fprintf(r.Stderr, "%s: %v\n", path, err)
			return nil
		}
		defer f.Close()

		// Later entries in source order are outer nodes; overwriting the
		// assignment on each iteration means the last one (outermost)
		// stands once the loop finishes.
		switch rd.TargetFD {
		case 0:
			r.Stdin = f
		default:
			r.Stdout = f
		}
	}

	return r.run(inner)
}

// runPipe connects Left's stdout to Right's stdin through an os.Pipe,
// starting both sides before waiting on either so they run concurrently,
// matching spec.md's pipe-ordering guarantee.
func (r *Runner) runPipe(p *syntax.Pipe) error {
	pr, pw, err := os.Pipe()
	if err != nil {
		// A failed os.Pipe means the shell's own fd table is in an unknown
		// state; there is no safe way to keep running the rest of the line.
		return &FatalError{Err: &IOError{Op: "pipe", Err: err, Shell: true}}
	}

	left := r.fork()
	left.Stdout = pw
	right := r.fork()
	right.Stdin = pr

	type result struct {
		err error
	}
	leftDone := make(chan result, 1)
	go func() {
		err := left.run(p.Left)
		pw.Close()
		leftDone <- result{err}
	}()

	rightErr := right.run(p.Right)
	pr.Close()
	leftRes := <-leftDone

	if IsExit(leftRes.err) {
		return leftRes.err
	}
	if IsExit(rightErr) {
		return rightErr
	}
	if leftRes.err != nil {
		return leftRes.err
	}
	return rightErr
}

// runList runs Left to completion, then Right, regardless of Left's
// outcome, unless Left invoked exit.
func (r *Runner) runList(l *syntax.List) error {
	leftErr := r.run(l.Left)
	if IsExit(leftErr) {
		return leftErr
	}
	return r.run(l.Right)
}

// runBack starts Inner as a background job: a goroutine running a forked
// copy of the Runner, which is the Go-native rendition of "fork; child
// runs; parent records the PID and returns immediately" (spec.md §4.3).
// Because real PIDs only exist for external commands, a bare built-in run
// in the background still completes synchronously inside the goroutine;
// what gets announced and tracked is the PID of the first external
// process it forks, discovered through a one-shot channel threaded
// through the forked Runner's Execer.
func (r *Runner) runBack(b *syntax.Back) error {
	child := r.fork()
	pidCh := make(chan int, 1)
	child.Execer = announcingExecer{inner: r.Execer, pidCh: pidCh}

	done := make(chan struct{})
	go func() {
		defer close(done)
		err := child.run(b.Inner)
		if err != nil && !IsExit(err) {
			fmt.Fprintf(r.Stderr, "%v\n", err)
		}
	}()

	// pidCh is written (buffered, capacity 1) strictly before done is
	// closed whenever Inner spawns an external process, since the write
	// happens right after Start() and done only closes once run() (which
	// waits for that process) returns. So if the done case fires first in
	// the select below, pidCh is already holding its value and a
	// non-blocking read picks it up.
	var pid int
	select {
	case pid = <-pidCh:
	case <-done:
		select {
		case pid = <-pidCh:
		default:
			// Inner was a built-in with no external process to track; per
			// spec.md there is simply nothing to register.
		}
	}

	if pid != 0 {
		r.Jobs.Insert(pid)
		fmt.Fprintf(r.announce, "[%d]\n", pid)
		// The goroutine above already blocks in Wait for this pid; once
		// it finishes the process is reaped, so drop it from the
		// registry instead of waiting on a separate SIGCHLD-driven
		// reaper (see InstallSignalPolicy for why there isn't one).
		go func() {
			<-done
			r.Jobs.Remove(pid)
		}()
	}
	return nil
}

// announcingExecer wraps an Execer so the first process it starts can be
// reported back to the Back node that spawned it.
type announcingExecer struct {
	inner Execer
	pidCh chan int
}

func (a announcingExecer) Start(ctx context.Context, ec ExecContext) (Proc, error) {
	proc, err := a.inner.Start(ctx, ec)
	if err == nil {
		select {
		case a.pidCh <- proc.PID():
		default:
		}
	}
	return proc, err
}

// runSubshell runs Inner in an isolated copy of the Runner and waits for
// it to finish before returning, so that any cd performed inside Inner
// never affects the parent's Dir/Env.
func (r *Runner) runSubshell(s *syntax.Subshell) error {
	child := r.fork()
	return child.run(s.Inner)
}

// fork returns a Runner sharing this one's streams, Execer, Jobs, and
// Tracer, but with its own copy of Dir/Env so a cd performed through the
// copy is invisible to the original, the Go-native analogue of a forked
// address space.
func (r *Runner) fork() *Runner {
	envCopy := make([]string, len(r.Env))
	copy(envCopy, r.Env)
	return &Runner{
		Line:     r.Line,
		Dir:      r.Dir,
		Env:      envCopy,
		Stdin:    r.Stdin,
		Stdout:   r.Stdout,
		Stderr:   r.Stderr,
		Execer:   r.Execer,
		Jobs:     r.Jobs,
		Tracer:   r.Tracer,
		Kill:     r.Kill,
		announce: r.announce,
	}
}
