// Package del implements parallel directory tree deletion. A fixed pool of
// workers drains a single job queue of filesystem entries; a per-node atomic
// child counter turns the top-down discovery order into bottom-up removal
// without a global lock, without recursion, and without holding the whole
// tree in memory.
package del

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrFailures is wrapped by Run when at least one entry could not be removed.
var ErrFailures = errors.New("some entries could not be removed")

// joinTimeout bounds how long Run waits for each worker after broadcasting
// terminators. A worker wedged inside a filesystem call is abandoned rather
// than deadlocking the run.
const joinTimeout = 500 * time.Millisecond

// Deleter orchestrates one deletion run. A Deleter is single-use: construct,
// Run once, discard. Progress is safe to call concurrently with Run.
type Deleter struct {
	opts *Options
	c    counters
}

// New creates a Deleter with the given options (nil means defaults).
func New(opts *Options) *Deleter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Deleter{opts: opts}
}

// Progress returns the current counter values.
func (d *Deleter) Progress() Snapshot {
	return d.c.snapshot()
}

// Run deletes the tree rooted at root and blocks until the root is gone or
// ctx is cancelled. Per-entry failures never abort the run; they are counted
// and the final snapshot carries the totals. The returned error is the
// initial path inspection failure, ctx.Err() on cancellation, or ErrFailures
// when the run completed with a nonzero failed count.
func (d *Deleter) Run(ctx context.Context, root string) (Snapshot, error) {
	info, err := os.Lstat(root)
	if err != nil {
		return Snapshot{}, fmt.Errorf("inspect %s: %w", root, err)
	}

	q := newJobQueue()
	term := newLatch()

	d.c.queued.Add(1)
	q.push(newRoot(root, info.Mode()))

	workers := d.opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if d.opts.Verbose {
		fmt.Fprintf(os.Stderr, "[deleter] root=%s workers=%d period=%s\n", root, workers, d.opts.ReportPeriod)
	}

	joined := make([]chan struct{}, workers)
	for i := range joined {
		joined[i] = make(chan struct{})
		w := &worker{id: i, q: q, c: &d.c, opts: d.opts, term: term}
		go func(w *worker, done chan struct{}) {
			defer close(done)
			w.run()
		}(w, joined[i])
	}

	ticker := time.NewTicker(d.opts.ReportPeriod)
	defer ticker.Stop()
	interrupted := false
wait:
	for {
		select {
		case <-term.done():
			break wait
		case <-ctx.Done():
			interrupted = true
			term.set()
			break wait
		case <-ticker.C:
			if d.opts.OnStatus != nil {
				d.opts.OnStatus(d.c.snapshot())
			}
		}
	}

	// One terminator per worker releases exactly one worker each. Workers
	// keep draining real entries queued ahead of the terminators, so an
	// interrupted run still finishes best-effort work already discovered.
	for range joined {
		d.c.queued.Add(1)
		q.push(nil)
	}
	for i, done := range joined {
		select {
		case <-done:
		case <-time.After(joinTimeout):
			if d.opts.Verbose {
				fmt.Fprintf(os.Stderr, "[deleter] worker %d did not drain, abandoning\n", i)
			}
		}
	}

	snap := d.c.snapshot()
	if d.opts.OnStatus != nil {
		d.opts.OnStatus(snap)
	}
	if interrupted {
		return snap, ctx.Err()
	}
	if snap.Failed > 0 {
		return snap, fmt.Errorf("%w: %d entries", ErrFailures, snap.Failed)
	}
	return snap, nil
}
