package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) updateSend(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.focusPath {
			m.startSend()
			return m, nil
		}
		// Address confirmed, move on to the paths.
		m.focusPath = true
		m.addrInput.Blur()
		m.pathInput.Focus()
		return m, nil
	case "esc":
		if m.focusPath {
			m.focusPath = false
			m.pathInput.Blur()
			m.addrInput.Focus()
		}
		return m, nil
	}
	return m.updateSendInputs(msg)
}

func (m Model) updateSendInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focusPath {
		m.pathInput, cmd = m.pathInput.Update(msg)
		return m, cmd
	}
	before := m.addrInput.Value()
	m.addrInput, cmd = m.addrInput.Update(msg)
	if after := m.addrInput.Value(); after != before {
		// Every keystroke feeds the debouncer; it decides when to
		// actually resolve.
		m.app.setAddressInput(after)
	}
	return m, cmd
}

func (m *Model) startSend() {
	res := m.app.lastResolve
	if res == nil || !res.Success {
		m.app.status = "resolve a peer first"
		return
	}
	paths := strings.Fields(m.pathInput.Value())
	if len(paths) == 0 {
		m.app.status = "enter at least one path"
		return
	}
	m.app.sendFiles(res.PrimaryIP(), paths)
	m.app.status = fmt.Sprintf("sending %d file(s) to %s", len(paths), res.PrimaryIP())
	m.pathInput.SetValue("")
}

func (m Model) viewSend() string {
	var b strings.Builder

	addrBox := inputStyle
	pathBox := inputStyle
	if m.focusPath {
		pathBox = focusedInputStyle
	} else {
		addrBox = focusedInputStyle
	}

	b.WriteString("Peer\n")
	b.WriteString(addrBox.Render(m.addrInput.View()) + "\n")
	b.WriteString(m.resolveLine() + "\n\n")
	b.WriteString("Files\n")
	b.WriteString(pathBox.Render(m.pathInput.View()) + "\n")
	b.WriteString(helpStyle.Render("\nenter confirm · esc back to address"))
	return b.String()
}

// resolveLine renders the debounced resolver's latest word on the peer.
// Hostname, addresses and reachability always appear together.
func (m Model) resolveLine() string {
	switch {
	case m.app.resolving:
		return subtleStyle.Render("resolving...")
	case m.app.lastResolve == nil:
		return subtleStyle.Render("type a hostname or IP")
	case !m.app.lastResolve.Success:
		if m.app.lastResolve.Error != "" {
			return errorStyle.Render(m.app.lastResolve.Error)
		}
		return subtleStyle.Render("type a hostname or IP")
	}

	res := m.app.lastResolve
	line := res.PrimaryIP()
	if res.Hostname != "" && res.Hostname != res.Input {
		line = fmt.Sprintf("%s (%s)", res.Hostname, line)
	}
	if res.Reachable {
		return okStyle.Render("✓ " + line)
	}
	return warnStyle.Render("✗ " + line + " not answering")
}
