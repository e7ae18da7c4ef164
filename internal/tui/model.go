// Package tui renders live progress of a deletion run on a terminal.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fjell-io/rmtree/internal/del"
)

// maxErrorLines bounds the error tail kept on screen.
const maxErrorLines = 5

// ErrorMsg carries one reported failure into the program via Send.
type ErrorMsg struct {
	Op   string
	Path string
	Err  string
}

// DoneMsg ends the program when the run completes.
type DoneMsg struct {
	Final del.Snapshot
	Err   error
}

type tickMsg time.Time

// Model holds the dashboard state. Counter values are polled from the engine
// on every animation tick; error lines and completion arrive as messages.
type Model struct {
	root     string
	start    time.Time
	progress func() del.Snapshot
	cancel   func()

	snap      del.Snapshot
	errs      []ErrorMsg
	width     int
	spinIdx   int
	canceling bool
	done      bool
	runErr    error
}

// NewModel creates the dashboard for a run on root. progress is polled for
// counter snapshots; cancel is invoked when the user asks to stop.
func NewModel(root string, progress func() del.Snapshot, cancel func()) *Model {
	return &Model{
		root:     root,
		start:    time.Now(),
		progress: progress,
		cancel:   cancel,
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tick()
}
