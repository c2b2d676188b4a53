package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type tab int

const (
	tabTransfers tab = iota
	tabSend
	tabHistory
	tabSettings
	tabCount
)

var tabNames = [tabCount]string{"Transfers", "Send", "History", "Settings"}

// Model is the root bubbletea model. It owns only view state; transfer
// state lives in the store and is re-read on every render.
type Model struct {
	app *App

	tab         tab
	width       int
	confirmExit bool

	// transfers tab
	cursor int

	// send tab
	addrInput textinput.Model
	pathInput textinput.Model
	focusPath bool
	bar       progress.Model

	// history tab
	histCursor int
}

func newModel(app *App) Model {
	addr := textinput.New()
	addr.Placeholder = "hostname or IP"
	addr.CharLimit = 253
	addr.Width = 40
	addr.TextStyle = lipgloss.NewStyle().Foreground(colorText)
	addr.Cursor.Style = lipgloss.NewStyle().Foreground(colorAccent)
	addr.Focus()

	path := textinput.New()
	path.Placeholder = "/path/to/file (space-separated for several)"
	path.CharLimit = 512
	path.Width = 40

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 36

	return Model{
		app:       app,
		addrInput: addr,
		pathInput: path,
		bar:       bar,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case applyMsg:
		msg.fn()
		return m.clampCursors(), nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.confirmExit {
				return m, tea.Quit
			}
			m.confirmExit = true
			return m, nil
		}
		m.confirmExit = false

		switch msg.String() {
		case "tab":
			m.tab = (m.tab + 1) % tabCount
			return m.onTabChange(), nil
		case "shift+tab":
			m.tab = (m.tab + tabCount - 1) % tabCount
			return m.onTabChange(), nil
		}

		switch m.tab {
		case tabTransfers:
			return m.updateTransfers(msg)
		case tabSend:
			return m.updateSend(msg)
		case tabHistory:
			return m.updateHistory(msg)
		case tabSettings:
			return m.updateSettings(msg)
		}
	}

	if m.tab == tabSend {
		return m.updateSendInputs(msg)
	}
	return m, nil
}

func (m Model) onTabChange() Model {
	m.app.status = ""
	if m.tab == tabSend && !m.focusPath {
		m.addrInput.Focus()
	} else {
		m.addrInput.Blur()
		m.pathInput.Blur()
	}
	return m
}

// clampCursors keeps list cursors valid after the store changes under
// them.
func (m Model) clampCursors() Model {
	snap := m.app.Store.Snapshot()
	rows := len(snap.Pending) + len(snap.Active)
	if m.cursor >= rows {
		m.cursor = rows - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if n := len(m.app.History.Records()); m.histCursor >= n {
		m.histCursor = max(0, n-1)
	}
	return m
}

func (m Model) View() string {
	var body string
	switch m.tab {
	case tabTransfers:
		body = m.viewTransfers()
	case tabSend:
		body = m.viewSend()
	case tabHistory:
		body = m.viewHistory()
	case tabSettings:
		body = m.viewSettings()
	}

	out := titleStyle.Render("Gosh Transfer") + "  " + m.serverLine() + "\n"
	out += m.tabBar() + "\n\n"
	out += body
	if m.app.status != "" {
		out += "\n" + warnStyle.Render(m.app.status)
	}
	if m.confirmExit {
		out += "\n\n" + errorStyle.Render("Press Ctrl+C again to exit")
	}
	return appStyle.Render(out)
}

func (m Model) tabBar() string {
	badge := m.app.Store.Badge()
	parts := make([]string, 0, int(tabCount))
	for i := tab(0); i < tabCount; i++ {
		label := tabNames[i]
		if i == tabTransfers && badge > 0 {
			label = fmt.Sprintf("%s %s", label, badgeStyle.Render(fmt.Sprintf("%d", badge)))
		}
		if i == m.tab {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, tabStyle.Render(label))
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) serverLine() string {
	running, port := m.app.Store.ServerState()
	if running {
		return okStyle.Render(fmt.Sprintf("● receiving on :%d", port))
	}
	return subtleStyle.Render("○ server stopped")
}
