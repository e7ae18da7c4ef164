package tui

import tea "github.com/charmbracelet/bubbletea"

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			// Cooperative: the engine drains and sends DoneMsg, which quits.
			m.canceling = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		m.spinIdx++
		if m.progress != nil {
			m.snap = m.progress()
		}
		return m, tick()

	case ErrorMsg:
		m.errs = append(m.errs, msg)
		if len(m.errs) > maxErrorLines {
			m.errs = m.errs[len(m.errs)-maxErrorLines:]
		}
		return m, nil

	case DoneMsg:
		m.done = true
		m.snap = msg.Final
		m.runErr = msg.Err
		return m, tea.Quit
	}

	return m, nil
}
