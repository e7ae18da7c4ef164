package del

import "sync/atomic"

// counters back the status line and the exit status. The engine never
// branches on them; reads are relaxed snapshots for reporting only.
type counters struct {
	queued      atomic.Int64
	enumerating atomic.Int64
	failed      atomic.Int64
	deleted     atomic.Int64
}

// Snapshot is a point-in-time read of the progress counters.
type Snapshot struct {
	Deleted     int64
	Queued      int64
	Enumerating int64
	Failed      int64
}

func (c *counters) snapshot() Snapshot {
	return Snapshot{
		Deleted:     c.deleted.Load(),
		Queued:      c.queued.Load(),
		Enumerating: c.enumerating.Load(),
		Failed:      c.failed.Load(),
	}
}
