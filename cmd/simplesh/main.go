// Command simplesh is an interactive POSIX-like shell: it reads one
// command line at a time, parses it with package syntax, and executes it
// with package interp.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/user"

	"golang.org/x/term"

	"simplesh/interp"
	"simplesh/repl"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("simplesh", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)
	debug := fs.Int("d", 0, "debug bitmask: bit 0 traces the parsed tree, bit 1 traces executor entry/exit")

	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 0
	}

	r, err := interp.NewDefault()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	stop := interp.InstallSignalPolicy()
	defer stop()

	var prompter repl.Prompter
	if term.IsTerminal(int(os.Stdin.Fd())) {
		name := "user"
		if u, err := user.Current(); err == nil {
			name = u.Username
		}
		prompter = repl.DefaultPrompter{User: name}
	}

	rp := &repl.REPL{
		Lines:  repl.NewScannerLineReader(os.Stdin, os.Stdout),
		Prompt: prompter,
		Runner: r,
		Out:    os.Stdout,
		Debug:  *debug,
	}
	return rp.Run()
}
