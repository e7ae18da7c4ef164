package del

import (
	"fmt"
	"os"
)

// worker drains the job queue until it pops a terminator. Workers hold no
// state beyond their loop variables; any worker can claim any pending entry.
type worker struct {
	id   int
	q    *jobQueue
	c    *counters
	opts *Options
	term *latch
}

func (w *worker) run() {
	for {
		n := w.q.pop()
		w.c.queued.Add(-1)
		if n == nil {
			if w.opts.Verbose {
				fmt.Fprintf(os.Stderr, "[W%d] TERMINATOR\n", w.id)
			}
			return
		}
		w.process(n)
	}
}

func (w *worker) process(n *node) {
	if w.opts.Verbose {
		fmt.Fprintf(os.Stderr, "[W%d] POP %s\n", w.id, n.path)
	}

	clearReadOnly(n)

	if n.mode.IsDir() {
		w.c.enumerating.Add(1)
		w.enumerate(n)
		w.c.enumerating.Add(-1)
		// Pays the directory's own tick: the directory is never observed
		// empty before its enumeration has finished.
		w.ascend(n)
		return
	}

	if err := os.Remove(n.path); err != nil {
		w.fail("unlink", n.path, err)
	} else {
		w.c.deleted.Add(1)
	}
	w.ascend(n.release())
}

// ascend is the counter-walk: pay one tick to cur, and if that was the last,
// remove the directory and keep climbing. Exactly one worker observes each
// transition to zero, so removal and release have a single owner. Iterative
// on purpose: recursion would track tree depth on the goroutine stack.
func (w *worker) ascend(cur *node) {
	for cur != nil {
		if cur.remaining.Add(-1) > 0 {
			// A sibling subtree is still live; removal of cur is the last
			// sibling's job.
			return
		}
		if err := os.Remove(cur.path); err != nil {
			w.fail("rmdir", cur.path, err)
		} else {
			w.c.deleted.Add(1)
		}
		cur = cur.release()
	}
	// The root paid its last tick: the tree is done.
	w.term.set()
}

// submit hands a node to the queue. The producer-side queued increment
// precedes the push, mirroring the consumer-side decrement after pop.
func (w *worker) submit(n *node) {
	w.c.queued.Add(1)
	w.q.push(n)
}

// fail counts one failure and reports the first errorReportLimit of them.
func (w *worker) fail(op, path string, err error) {
	count := w.c.failed.Add(1)
	f := Failure{Op: op, Path: path, Err: err}
	if w.opts.OnFailure != nil {
		w.opts.OnFailure(f)
	}
	if count <= errorReportLimit && w.opts.OnError != nil {
		w.opts.OnError(f)
	}
}

// clearReadOnly best-effort restores owner write (and traverse, for
// directories) when the mode captured at discovery lacks it, so the
// following delete succeeds on otherwise-deletable read-only entries.
func clearReadOnly(n *node) {
	if n.mode&os.ModeSymlink != 0 {
		// Chmod would operate on the link target.
		return
	}
	perm := n.mode.Perm()
	if perm&0o200 != 0 {
		return
	}
	want := perm | 0o200
	if n.mode.IsDir() {
		want |= 0o100
	}
	_ = os.Chmod(n.path, want)
}
