package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/notify"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/state"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/transfer"
)

func (m Model) updateTransfers(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.app.Store.Snapshot()
	rows := len(snap.Pending) + len(snap.Active)

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < rows-1 {
			m.cursor++
		}
	case "a":
		if t, pending := m.selected(snap); pending {
			m.app.accept(t.ID)
		}
	case "r":
		if t, pending := m.selected(snap); pending {
			m.app.reject(t.ID)
		}
	case "A":
		m.app.acceptAll()
	case "R":
		m.app.rejectAll()
	case "c":
		if t, pending := m.selected(snap); !pending && t.ID != "" && !t.Status.IsTerminal() {
			m.app.cancel(t.ID)
		}
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

// selected returns the transfer under the cursor and whether it is in the
// pending section.
func (m Model) selected(snap state.Snapshot) (transfer.Transfer, bool) {
	if m.cursor < len(snap.Pending) {
		return snap.Pending[m.cursor], true
	}
	idx := m.cursor - len(snap.Pending)
	if idx < len(snap.Active) {
		return snap.Active[idx].Transfer, false
	}
	return transfer.Transfer{}, false
}

func (m Model) viewTransfers() string {
	snap := m.app.Store.Snapshot()
	if len(snap.Pending) == 0 && len(snap.Active) == 0 {
		return subtleStyle.Render("No transfers. Incoming requests will appear here.") +
			helpStyle.Render("\ntab switch view · q quit")
	}

	var b strings.Builder
	row := 0
	if len(snap.Pending) > 0 {
		b.WriteString(selectedStyle.Render("Awaiting decision") + "\n")
		for _, t := range snap.Pending {
			b.WriteString(m.pendingRow(t, row == m.cursor))
			row++
		}
		b.WriteString("\n")
	}
	if len(snap.Active) > 0 {
		b.WriteString(selectedStyle.Render("Transfers") + "\n")
		for _, at := range snap.Active {
			b.WriteString(m.activeRow(at, row == m.cursor))
			row++
		}
	}
	b.WriteString(helpStyle.Render("\na accept · r reject · A/R all · c cancel · j/k move"))
	return b.String()
}

func (m Model) pendingRow(t transfer.Transfer, selected bool) string {
	peer := t.PeerHostname
	if peer == "" {
		peer = t.PeerAddress
	}
	line := fmt.Sprintf("%s %s  %d file(s), %s",
		directionGlyph(t.Direction), peer, len(t.Files), notify.HumanBytes(t.TotalBytes))
	return m.markRow(line, selected) + "\n"
}

func (m Model) activeRow(at state.ActiveTransfer, selected bool) string {
	t := at.Transfer
	peer := t.PeerHostname
	if peer == "" {
		peer = t.PeerAddress
	}
	head := fmt.Sprintf("%s %s", directionGlyph(t.Direction), peer)

	var detail string
	switch {
	case t.Status == transfer.StatusCompleted:
		detail = okStyle.Render("done")
	case t.Status == transfer.StatusFailed:
		detail = errorStyle.Render("failed: " + t.Error)
	case t.Status == transfer.StatusCancelled:
		detail = subtleStyle.Render("cancelled")
	case at.Retry != nil:
		detail = warnStyle.Render(fmt.Sprintf("retrying %d/%d: %s", at.Retry.Attempt, at.Retry.MaxAttempts, at.Retry.Error))
	case at.Progress != nil:
		p := at.Progress
		detail = fmt.Sprintf("%s  %s/%s  %s/s",
			m.bar.ViewAs(p.Fraction()),
			notify.HumanBytes(p.BytesTransferred), notify.HumanBytes(p.TotalBytes),
			notify.HumanBytes(int64(p.SpeedBps)))
		if p.CurrentFile != "" {
			detail += subtleStyle.Render(fmt.Sprintf("  %s (%d/%d)", p.CurrentFile, p.CurrentFileIndex+1, p.TotalFiles))
		}
	default:
		detail = subtleStyle.Render("starting...")
	}
	return m.markRow(head, selected) + "\n    " + detail + "\n"
}

func (m Model) markRow(line string, selected bool) string {
	if selected {
		return cursorStyle.Render("> ") + selectedStyle.Render(line)
	}
	return "  " + line
}
