// Package repl drives the read-parse-execute loop: it reads one line at a
// time through a LineReader, parses it with package syntax, and runs the
// resulting tree through an interp.Runner, exactly the data flow spec.md
// §2 describes. Line editing/history and the prompt formatter are external
// collaborators consumed through the narrow interfaces below, per spec.md's
// "Out of scope"; the shell's own flag parsing and help text live in
// cmd/simplesh.
package repl

import (
	"errors"
	"fmt"
	"io"

	"simplesh/interp"
	"simplesh/syntax"
)

// LineReader supplies one command line per call. ReadLine returns io.EOF
// once no more input is available.
type LineReader interface {
	ReadLine(prompt string) (line string, err error)
}

// Prompter formats the prompt shown before reading the next line.
type Prompter interface {
	Prompt(dir string) string
}

// REPL owns the debug bitmask (CFG) and drives Runner across successive
// lines.
type REPL struct {
	Lines  LineReader
	Prompt Prompter
	Runner *interp.Runner
	Out    io.Writer

	// Debug is the bitmask parsed from "-d": bit 0 traces the parsed tree,
	// bit 1 traces executor entry/exit via interp.Tracer.
	Debug int
}

// Run executes the read-parse-execute loop until EOF, a fatal error, or
// the exit built-in. It returns the process exit code.
func (rp *REPL) Run() int {
	if rp.Debug&2 != 0 {
		rp.Runner.Tracer = &interp.WriterTracer{W: rp.Out}
	}

	for {
		prompt := ""
		if rp.Prompt != nil {
			prompt = rp.Prompt.Prompt(rp.Runner.Dir)
		}

		line, err := rp.Lines.ReadLine(prompt)
		if errors.Is(err, io.EOF) {
			return 0
		}
		if err != nil {
			fmt.Fprintln(rp.Out, err)
			return 0
		}

		cmd, perr := syntax.Parse(line)
		if perr != nil {
			fmt.Fprintln(rp.Out, perr)
			continue
		}
		if cmd == nil {
			continue
		}
		if rp.Debug&1 != 0 {
			fmt.Fprintln(rp.Out, syntax.Print(cmd, line))
		}

		rp.Runner.Line = line
		runErr := rp.Runner.Run(cmd)
		if interp.IsExit(runErr) {
			return 0
		}

		var fatal *interp.FatalError
		if errors.As(runErr, &fatal) {
			fmt.Fprintln(rp.Out, fatal)
			return 1
		}
		if runErr != nil {
			fmt.Fprintln(rp.Out, runErr)
		}
	}
}
