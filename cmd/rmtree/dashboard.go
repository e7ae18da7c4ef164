package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fjell-io/rmtree/internal/del"
	"github.com/fjell-io/rmtree/internal/tui"
)

// runWithDashboard drives the engine underneath a live bubbletea dashboard.
// The model polls counters straight off the Deleter; error lines and run
// completion arrive through Program.Send.
func runWithDashboard(ctx context.Context, cancel context.CancelFunc, root string, opts *del.Options) (del.Snapshot, error) {
	d := del.New(opts)
	m := tui.NewModel(root, d.Progress, cancel)
	// No WithContext: ctrl+c arrives as a KeyMsg while the terminal is in
	// raw mode, and the model cancels cooperatively so the final counters
	// still render before the program quits on DoneMsg.
	p := tea.NewProgram(m, tea.WithOutput(os.Stderr))

	opts.OnError = func(f del.Failure) {
		p.Send(tui.ErrorMsg{Op: f.Op, Path: f.Path, Err: f.Err.Error()})
	}

	var snap del.Snapshot
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		snap, runErr = d.Run(ctx, root)
		p.Send(tui.DoneMsg{Final: snap, Err: runErr})
	}()

	if _, err := p.Run(); err != nil {
		// Dashboard failure must not orphan the run; cancel and drain.
		cancel()
	}
	<-done
	return snap, runErr
}
