// Package internal holds small helpers for the test suites; interp's
// TestMain uses TestMainSetup.
package internal

import (
	"bytes"
	"sync"
)

// ConcBuffer wraps a bytes.Buffer in a mutex so that concurrent writes to it
// don't upset the race detector, for capturing the stdout/stderr of a
// foreground command running alongside background jobs. No test in this
// repository uses it.
type ConcBuffer struct {
	buf bytes.Buffer
	sync.Mutex
}

func (c *ConcBuffer) Write(p []byte) (int, error) {
	c.Lock()
	n, err := c.buf.Write(p)
	c.Unlock()
	return n, err
}

func (c *ConcBuffer) WriteString(s string) (int, error) {
	c.Lock()
	n, err := c.buf.WriteString(s)
	c.Unlock()
	return n, err
}

func (c *ConcBuffer) String() string {
	c.Lock()
	s := c.buf.String()
	c.Unlock()
	return s
}

func (c *ConcBuffer) Reset() {
	c.Lock()
	c.buf.Reset()
	c.Unlock()
}
