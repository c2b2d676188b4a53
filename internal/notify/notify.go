// Package notify provides desktop notifications for transfer events.
// It uses github.com/gen2brain/beeep for cross-platform notification support.
package notify

import (
	"fmt"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/logging"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/transfer"
)

const appTitle = "Gosh Transfer"

// Notifier sends desktop notifications. The enabled flag follows the
// user's settings and can be flipped at runtime.
type Notifier struct {
	logger  *logging.Logger
	enabled bool
	mu      sync.RWMutex
}

// NewNotifier creates a notifier. A nil logger is replaced with a no-op.
func NewNotifier(enabled bool, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Notifier{logger: logger, enabled: enabled}
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// TransferRequest announces an incoming transfer awaiting a decision.
func (n *Notifier) TransferRequest(t transfer.Transfer) {
	if !n.IsEnabled() {
		return
	}
	peer := t.PeerHostname
	if peer == "" {
		peer = t.PeerAddress
	}
	message := fmt.Sprintf("%s wants to send %d file(s), %s", truncate(peer, 40), len(t.Files), HumanBytes(t.TotalBytes))
	if err := n.send("Incoming Transfer", message); err != nil {
		n.logger.Warn().Err(err).Str("transfer_id", t.ID).Msg("failed to send request notification")
	}
}

// TransferComplete announces a finished transfer.
func (n *Notifier) TransferComplete(t transfer.Transfer) {
	if !n.IsEnabled() {
		return
	}
	verb := "received"
	if t.Direction == transfer.DirectionSend {
		verb = "sent"
	}
	message := fmt.Sprintf("%d file(s) %s, %s", len(t.Files), verb, HumanBytes(t.TotalBytes))
	if err := n.send("Transfer Complete", message); err != nil {
		n.logger.Warn().Err(err).Str("transfer_id", t.ID).Msg("failed to send complete notification")
	}
}

// TransferFailed announces a failed transfer. Cancellations are the
// user's own doing and stay silent.
func (n *Notifier) TransferFailed(t transfer.Transfer, cancelled bool) {
	if !n.IsEnabled() || cancelled {
		return
	}
	message := fmt.Sprintf("Transfer from %s failed:\n%s", truncate(t.PeerAddress, 40), truncate(t.Error, 100))
	if err := n.send("Transfer Failed", message); err != nil {
		n.logger.Warn().Err(err).Str("transfer_id", t.ID).Msg("failed to send failure notification")
	}
}

func (n *Notifier) send(title, message string) error {
	return beeep.Notify(title, message, "")
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// HumanBytes renders a byte count for display.
func HumanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
