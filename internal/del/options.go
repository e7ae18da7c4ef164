package del

import "time"

const (
	// DefaultWorkers is the worker count when THREADS is unset.
	DefaultWorkers = 64

	// DefaultReportPeriod is the status interval when REPORT_PERIOD_MS is
	// unset.
	DefaultReportPeriod = time.Second

	// errorReportLimit caps how many failures reach OnError; the rest are
	// counted silently.
	errorReportLimit = 10
)

// Failure describes one failed filesystem operation.
type Failure struct {
	Op   string // "opendir", "readdir", "unlink", "rmdir"
	Path string
	Err  error
}

// Options configures a deletion run.
type Options struct {
	// Workers is the number of goroutines draining the job queue.
	Workers int

	// ReportPeriod is the interval between OnStatus calls.
	ReportPeriod time.Duration

	// OnStatus, when set, receives a counter snapshot every ReportPeriod
	// and once more after the run ends.
	OnStatus func(Snapshot)

	// OnError, when set, receives the first errorReportLimit failures.
	OnError func(Failure)

	// OnFailure, when set, receives every failure. Callers that retain them
	// are expected to apply their own cap.
	OnFailure func(Failure)

	// Verbose enables debug lines on stderr.
	Verbose bool
}

// DefaultOptions returns the tuning the environment variables default to.
func DefaultOptions() *Options {
	return &Options{
		Workers:      DefaultWorkers,
		ReportPeriod: DefaultReportPeriod,
	}
}

// WithWorkers sets the worker count. Non-positive values are ignored.
func (o *Options) WithWorkers(n int) *Options {
	if n > 0 {
		o.Workers = n
	}
	return o
}

// WithReportPeriod sets the status interval. Non-positive values are ignored.
func (o *Options) WithReportPeriod(d time.Duration) *Options {
	if d > 0 {
		o.ReportPeriod = d
	}
	return o
}

// WithVerbose toggles debug logging.
func (o *Options) WithVerbose(v bool) *Options {
	o.Verbose = v
	return o
}
