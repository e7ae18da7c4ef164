package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("rmtree"))
	b.WriteString("\n")
	b.WriteString(pathStyle.Render(m.root))
	b.WriteString("\n")

	elapsed := time.Since(m.start).Round(100 * time.Millisecond)
	rate := float64(0)
	if secs := time.Since(m.start).Seconds(); secs > 0 {
		rate = float64(m.snap.Deleted) / secs
	}

	spinner := spinnerFrames[m.spinIdx%len(spinnerFrames)]
	switch {
	case m.done:
		spinner = "✓"
	case m.canceling:
		spinner = "✗"
	}

	b.WriteString(fmt.Sprintf("%s %s deleted  %s queued  %s enumerating  %s failed\n",
		spinner,
		deletedStyle.Render(humanize.Comma(m.snap.Deleted)),
		queuedStyle.Render(humanize.Comma(m.snap.Queued)),
		enumStyle.Render(humanize.Comma(m.snap.Enumerating)),
		failedStyle.Render(humanize.Comma(m.snap.Failed)),
	))
	b.WriteString(statsStyle.Render(fmt.Sprintf("%.0f/sec  %s", rate, elapsed)))
	b.WriteString("\n")

	if m.canceling && !m.done {
		b.WriteString(statsStyle.Render("canceling, draining workers..."))
		b.WriteString("\n")
	}
	if m.done && m.runErr != nil {
		b.WriteString(errorStyle.Render(m.runErr.Error()))
		b.WriteString("\n")
	}

	for _, e := range m.errs {
		line := fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Err)
		if m.width > 4 && len(line) > m.width-2 {
			line = line[:m.width-2] + "…"
		}
		b.WriteString(errorStyle.Render(line))
		b.WriteString("\n")
	}

	if !m.done {
		b.WriteString(helpStyle.Render("q: cancel"))
		b.WriteString("\n")
	}

	return b.String()
}
