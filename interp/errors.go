package interp

import "fmt"

// BuiltinUsageError is returned by a built-in for a bad flag combination or
// an invalid numeric argument. The built-in has already reported Msg to
// stderr by the time this is returned; callers only need it to decide that
// the built-in performed no side effects beyond what it already did.
type BuiltinUsageError struct {
	Builtin string
	Msg     string
}

func (e *BuiltinUsageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Builtin, e.Msg)
}

// IOError wraps an open/read/write/dup/close/pipe failure encountered while
// the executor or a psplit worker was wiring file descriptors. Shell is set
// when the failure landed on the shell's own fd table (e.g. a failed
// os.Pipe while wiring a pipeline) rather than on a child's; in that
// case the caller must treat the shell's fd table as being in an unknown
// state.
type IOError struct {
	Op    string
	Path  string
	Err   error
	Shell bool
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// SpawnError wraps a fork/exec failure. It is always fatal: by the time a
// fork has failed partway through wiring a pipeline or redirection, there
// is no safe way to unwind what has already been connected.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string { return fmt.Sprintf("spawn: %v", e.Err) }
func (e *SpawnError) Unwrap() error { return e.Err }

// ExecNotFound records that execvp (os/exec's Start) could not find or run
// the named program. The shell prints the command name and treats this as
// a non-zero exit status for that child; it is not propagated as a Go
// error to the parent's caller.
type ExecNotFound struct {
	Name string
	Err  error
}

func (e *ExecNotFound) Error() string { return fmt.Sprintf("%s: %v", e.Name, e.Err) }
func (e *ExecNotFound) Unwrap() error { return e.Err }

// FatalError wraps an internal failure that forces the whole shell to
// abort: a failed fork/exec (SpawnError) or a failed os.Pipe on the shell's
// own fd table. The REPL driver checks for this with errors.As and returns
// exit code 1.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }
func (e *FatalError) Unwrap() error { return e.Err }
