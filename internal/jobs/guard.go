package jobs

import "sync/atomic"

// RunGuard is the process-wide single-flight flag for full pipeline runs.
// Acquisition is compare-and-set, so two concurrent callers can never both
// win; a loser is rejected, not queued.
type RunGuard struct {
	active atomic.Bool
}

func NewRunGuard() *RunGuard {
	return &RunGuard{}
}

// TryAcquire returns true when the caller may proceed with a run.
func (g *RunGuard) TryAcquire() bool {
	return g.active.CompareAndSwap(false, true)
}

// Release clears the flag. Idempotent; safe to call from deferred cleanup on
// every exit path.
func (g *RunGuard) Release() {
	g.active.Store(false)
}

// Running is a lock-free best-effort read for status probes.
func (g *RunGuard) Running() bool {
	return g.active.Load()
}
