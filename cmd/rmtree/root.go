package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fjell-io/rmtree/internal/del"
	"github.com/fjell-io/rmtree/internal/pathutil"
	"github.com/fjell-io/rmtree/internal/report"
)

var rootCmd = &cobra.Command{
	Use:   "rmtree <path>",
	Short: "Delete a directory tree in parallel",
	Long: `rmtree removes a directory tree (or a single file) as fast as the
filesystem allows, using a pool of workers that delete entries in parallel
and remove each directory the moment its last descendant is gone.

Tuning can also come from the environment: THREADS sets the worker count and
REPORT_PERIOD_MS the status interval; flags win over the environment.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

var (
	flagWorkers      int
	flagReportPeriod time.Duration
	flagForce        bool
	flagReport       string
	flagPlain        bool
	flagVerbose      bool
)

func init() {
	rootCmd.Version = version
	rootCmd.Flags().IntVarP(&flagWorkers, "workers", "w", del.DefaultWorkers, "Number of deletion workers (overrides THREADS)")
	rootCmd.Flags().DurationVar(&flagReportPeriod, "report-period", del.DefaultReportPeriod, "Status line interval (overrides REPORT_PERIOD_MS)")
	rootCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "Allow deleting a filesystem or volume root")
	rootCmd.Flags().StringVar(&flagReport, "report", "", "Write a SQLite failure report to this path")
	rootCmd.Flags().BoolVar(&flagPlain, "plain", false, "Print status lines instead of the live dashboard")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose debug logging")
}

func runDelete(cmd *cobra.Command, args []string) error {
	// Argument-count errors above still print usage; failures from here on
	// are operational and print only the error.
	cmd.SilenceUsage = true

	root, err := pathutil.Normalize(args[0])
	if err != nil {
		return &exitError{exitPathError, fmt.Errorf("resolve path: %w", err)}
	}
	if pathutil.IsRoot(root) && !flagForce {
		return &exitError{exitPathError, fmt.Errorf("refusing to delete %s without --force", root)}
	}

	opts := del.OptionsFromEnv().WithVerbose(flagVerbose)
	if cmd.Flags().Changed("workers") {
		opts.WithWorkers(flagWorkers)
	}
	if cmd.Flags().Changed("report-period") {
		opts.WithReportPeriod(flagReportPeriod)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		warnf("\nCanceling... (press Ctrl+C again to force)")
		cancel()
		<-sigCh
		os.Exit(130)
	}()

	var rec *report.Recorder
	if flagReport != "" {
		rec = report.NewRecorder()
		opts.OnFailure = func(f del.Failure) {
			rec.Record(f.Op, f.Path, f.Err.Error())
		}
	}

	start := time.Now()
	var snap del.Snapshot
	var runErr error
	if !flagPlain && isTerminal() {
		snap, runErr = runWithDashboard(ctx, cancel, root, opts)
	} else {
		opts.OnStatus = func(s del.Snapshot) {
			fmt.Fprintf(os.Stderr, "deleted=%d queued=%d enumerating=%d failed=%d\n",
				s.Deleted, s.Queued, s.Enumerating, s.Failed)
		}
		opts.OnError = func(f del.Failure) {
			warnf("%s %s: %v", f.Op, f.Path, f.Err)
		}
		snap, runErr = del.New(opts).Run(ctx, root)
	}
	elapsed := time.Since(start).Round(time.Millisecond)

	if runErr != nil && !errors.Is(runErr, del.ErrFailures) && !errors.Is(runErr, context.Canceled) {
		return &exitError{exitPathError, runErr}
	}

	fmt.Printf("Deleted %s entries in %s\n", humanize.Comma(snap.Deleted), elapsed)
	if snap.Failed > 0 {
		fmt.Printf("Failed: %s entries\n", humanize.Comma(snap.Failed))
	}

	if rec != nil {
		sum := report.Summary{
			Root:    root,
			Start:   start,
			End:     time.Now(),
			Deleted: snap.Deleted,
			Failed:  snap.Failed,
		}
		if err := rec.Write(context.Background(), flagReport, sum); err != nil {
			warnf("report: %v", err)
		} else {
			fmt.Printf("Report: %s\n", flagReport)
		}
	}

	switch {
	case errors.Is(runErr, context.Canceled):
		return &exitError{exitInterrupted, runErr}
	case snap.Failed > 0:
		return &exitError{exitFailures, fmt.Errorf("%s entries could not be removed", humanize.Comma(snap.Failed))}
	}
	return nil
}
