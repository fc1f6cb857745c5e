package interp

import (
	"fmt"
	"io"
)

// WriterTracer is the default Tracer: it writes one line per Enter to W,
// prefixed with "+" the way a shell's own -x trace does, and one line per
// Exit, prefixed with "-".
// It backs "-d" bit 1 (executor entry/exit tracing).
type WriterTracer struct {
	W io.Writer
}

func (t *WriterTracer) Enter(desc string) {
	fmt.Fprintf(t.W, "+ %s\n", desc)
}

func (t *WriterTracer) Exit(desc string, err error) {
	if err != nil && !IsExit(err) {
		fmt.Fprintf(t.W, "- %s: %v\n", desc, err)
		return
	}
	fmt.Fprintf(t.W, "- %s\n", desc)
}
