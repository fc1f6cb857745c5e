package interp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/renameio/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

type psplitMode int

const (
	modeBytes psplitMode = iota
	modeLines
)

type psplitConfig struct {
	mode    psplitMode
	n       int
	bufSize int
	procs   int
}

// builtinPsplit parses flags and dispatches to one worker per input, the
// way simplesh.c forks one child per file and rings them through PROCS
// slots. Here the ring is a semaphore.Weighted bounding a goroutine per
// file, joined by an errgroup so one worker's failure never stops the
// others (spec.md §4.5).
func (r *Runner) builtinPsplit(args []string) error {
	cfg := psplitConfig{bufSize: 1024, procs: 1}
	haveL, haveB := false, false
	var files []string

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch a {
		case "-h":
			fmt.Fprintln(r.Stdout, "usage: psplit [-l N] [-b N] [-s N] [-p N] [file...]")
			return nil
		case "-l", "-b", "-s", "-p":
			i++
			if i >= len(args) {
				return r.usageErr("psplit", fmt.Sprintf("%s requires an argument", a))
			}
			n, err := atoi("psplit", args[i])
			if err != nil {
				return r.usageErr("psplit", err.Error())
			}
			switch a {
			case "-l":
				cfg.mode, cfg.n, haveL = modeLines, n, true
			case "-b":
				cfg.mode, cfg.n, haveB = modeBytes, n, true
			case "-s":
				cfg.bufSize = n
			case "-p":
				cfg.procs = n
			}
		default:
			if strings.HasPrefix(a, "-") {
				return r.usageErr("psplit", fmt.Sprintf("unknown option %q", a))
			}
			files = append(files, a)
		}
	}

	if haveL == haveB {
		return r.usageErr("psplit", "exactly one of -l or -b is required")
	}
	if cfg.bufSize <= 0 || cfg.bufSize > 1<<20 {
		return r.usageErr("psplit", "-s must be between 1 and 1048576")
	}
	if cfg.n <= 0 {
		return r.usageErr("psplit", "-l/-b argument must be positive")
	}
	if cfg.procs <= 0 {
		cfg.procs = 1
	}

	if len(files) == 0 {
		return r.psplitOne(context.Background(), "stdin", r.Stdin, cfg)
	}

	sem := semaphore.NewWeighted(int64(cfg.procs))
	var g errgroup.Group
	ctx := context.Background()
	for _, name := range files {
		name := name
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			f, err := os.Open(r.resolvePath(name))
			if err != nil {
				fmt.Fprintf(r.Stderr, "psplit: %s: %v\n", name, err)
				return nil
			}
			defer f.Close()
			return r.psplitOne(ctx, name, f, cfg)
		})
	}
	return g.Wait()
}

// psplitOne splits one input into <name>0, <name>1, … according to cfg.
// Each output file is written through renameio so it is fsync'd and
// atomically renamed into place before the next one is opened, giving the
// "flush to durable storage before closing" guarantee structurally rather
// than by hand-rolled fsync calls.
func (r *Runner) psplitOne(_ context.Context, name string, in io.Reader, cfg psplitConfig) error {
	var (
		idx  int
		cur  *renameio.PendingFile
		curN int
	)

	openNext := func() error {
		path := r.resolvePath(fmt.Sprintf("%s%d", name, idx))
		pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o700))
		if err != nil {
			return &IOError{Op: "open", Path: path, Err: err}
		}
		cur = pf
		curN = 0
		idx++
		return nil
	}
	closeCur := func() error {
		if cur == nil {
			return nil
		}
		err := cur.CloseAtomicallyReplace()
		cur = nil
		if err != nil {
			return &IOError{Op: "close", Path: name, Err: err}
		}
		return nil
	}
	abort := func() {
		if cur != nil {
			cur.Cleanup()
			cur = nil
		}
	}

	switch cfg.mode {
	case modeBytes:
		buf := make([]byte, cfg.bufSize)
		for {
			n, rerr := in.Read(buf)
			if n > 0 {
				chunk := buf[:n]
				for len(chunk) > 0 {
					if cur == nil {
						if err := openNext(); err != nil {
							abort()
							fmt.Fprintf(r.Stderr, "psplit: %v\n", err)
							return nil
						}
					}
					take := cfg.n - curN
					if take > len(chunk) {
						take = len(chunk)
					}
					if _, werr := cur.Write(chunk[:take]); werr != nil {
						abort()
						fmt.Fprintf(r.Stderr, "psplit: %s: %v\n", name, werr)
						return nil
					}
					curN += take
					chunk = chunk[take:]
					if curN >= cfg.n {
						if err := closeCur(); err != nil {
							fmt.Fprintf(r.Stderr, "psplit: %v\n", err)
							return nil
						}
					}
				}
			}
			if rerr == io.EOF {
				break
			}
			if rerr != nil {
				abort()
				fmt.Fprintf(r.Stderr, "psplit: %s: %v\n", name, rerr)
				return nil
			}
		}
	case modeLines:
		br := bufio.NewReaderSize(in, cfg.bufSize)
		for {
			line, rerr := br.ReadBytes('\n')
			if len(line) > 0 {
				if cur == nil {
					if err := openNext(); err != nil {
						abort()
						fmt.Fprintf(r.Stderr, "psplit: %v\n", err)
						return nil
					}
				}
				if _, werr := cur.Write(line); werr != nil {
					abort()
					fmt.Fprintf(r.Stderr, "psplit: %s: %v\n", name, werr)
					return nil
				}
				if line[len(line)-1] == '\n' {
					curN++
					if curN >= cfg.n {
						if err := closeCur(); err != nil {
							fmt.Fprintf(r.Stderr, "psplit: %v\n", err)
							return nil
						}
					}
				}
			}
			if rerr == io.EOF {
				break
			}
			if rerr != nil {
				abort()
				fmt.Fprintf(r.Stderr, "psplit: %s: %v\n", name, rerr)
				return nil
			}
		}
	}
	return closeCur()
}
