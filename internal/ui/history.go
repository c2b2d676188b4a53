package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/notify"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/transfer"
)

func (m Model) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	records := m.app.History.Records()
	switch msg.String() {
	case "up", "k":
		if m.histCursor > 0 {
			m.histCursor--
		}
	case "down", "j":
		if m.histCursor < len(records)-1 {
			m.histCursor++
		}
	case "x":
		if err := m.app.History.Clear(); err != nil {
			m.app.status = "could not clear history"
			m.app.Log.Error().Err(err).Msg("history clear failed")
		}
		m.histCursor = 0
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) viewHistory() string {
	records := m.app.History.Records()
	if len(records) == 0 {
		return subtleStyle.Render("No finished transfers yet.")
	}

	// Keep the viewport around the cursor.
	const window = 12
	start := 0
	if m.histCursor >= window {
		start = m.histCursor - window + 1
	}
	end := start + window
	if end > len(records) {
		end = len(records)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		rec := records[i]
		peer := rec.PeerHostname
		if peer == "" {
			peer = rec.PeerAddress
		}
		var status string
		switch rec.Status {
		case transfer.StatusCompleted:
			status = okStyle.Render("✓")
		case transfer.StatusCancelled:
			status = subtleStyle.Render("–")
		default:
			status = errorStyle.Render("✗")
		}
		line := fmt.Sprintf("%s %s %s  %d file(s), %s  %s",
			status, directionGlyph(rec.Direction), peer,
			len(rec.Files), notify.HumanBytes(rec.TotalBytes),
			subtleStyle.Render(rec.Timestamp.Format("Jan 2 15:04")))
		b.WriteString(m.markRow(line, i == m.histCursor) + "\n")
	}
	b.WriteString(helpStyle.Render(fmt.Sprintf("\n%d of %d · x clear history", m.histCursor+1, len(records))))
	return b.String()
}
