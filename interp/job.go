package interp

import "sync"

// maxJobs is the fixed capacity of the background-job registry.
const maxJobs = 8

// JobRegistry tracks the PIDs of background jobs ("&"). Insert runs on the
// goroutine that spawned the job; Remove runs on the per-job waiter
// goroutine once that job's process has exited (see Runner.runBack). Both
// take the same mutex, which stands in for the shell's SIGCHLD-blocking
// critical section in the original design: a waiter can never remove a PID
// before Insert has recorded it.
type JobRegistry struct {
	mu   sync.Mutex
	pids [maxJobs]int // 0 means empty
}

// NewJobRegistry returns an empty registry.
func NewJobRegistry() *JobRegistry {
	return &JobRegistry{}
}

// Insert records pid in the first empty slot. If the registry is already
// full, the job still exists at the OS level; the registry simply stops
// tracking it, matching spec.md §4.6.
func (r *JobRegistry) Insert(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.pids {
		if p == 0 {
			r.pids[i] = pid
			return
		}
	}
}

// Remove clears the slot holding pid, if any.
func (r *JobRegistry) Remove(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.pids {
		if p == pid {
			r.pids[i] = 0
			return
		}
	}
}

// List returns the live PIDs in slot order.
func (r *JobRegistry) List() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, p := range r.pids {
		if p != 0 {
			out = append(out, p)
		}
	}
	return out
}

// KillAll sends kill to every tracked PID. Slots are left in place; each
// job's own waiter goroutine removes its slot once the killed process has
// actually exited and been waited on.
func (r *JobRegistry) KillAll(kill func(pid int) error) []error {
	r.mu.Lock()
	pids := make([]int, 0, maxJobs)
	for _, p := range r.pids {
		if p != 0 {
			pids = append(pids, p)
		}
	}
	r.mu.Unlock()

	var errs []error
	for _, pid := range pids {
		if err := kill(pid); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
