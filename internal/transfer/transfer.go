// Package transfer defines the transfer data model shared by the engine
// bridge and the UI state machine.
package transfer

import "time"

// Direction indicates whether a transfer is outbound or inbound.
type Direction string

const (
	DirectionSend    Direction = "send"
	DirectionReceive Direction = "receive"
)

// Status represents the lifecycle state of a transfer.
// Transitions are strictly forward-only: Pending < Active < terminal.
type Status string

const (
	StatusPending   Status = "pending"   // Awaiting user accept/reject
	StatusActive    Status = "active"    // Bytes are moving
	StatusCompleted Status = "completed" // Finished successfully
	StatusFailed    Status = "failed"    // Failed with an error
	StatusCancelled Status = "cancelled" // Rejected or cancelled by a user
)

// IsTerminal reports whether s is a terminal status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// rank orders statuses for the forward-only check. Terminal states share a
// rank: once terminal, nothing moves.
func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusActive:
		return 1
	case StatusCompleted, StatusFailed, StatusCancelled:
		return 2
	default:
		return -1
	}
}

// CanTransitionTo reports whether moving from s to next respects the
// forward-only ordering. Re-entering the same terminal state is allowed so
// duplicate terminal events stay no-ops.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return false
	}
	if s.IsTerminal() {
		return false
	}
	return next.rank() > s.rank()
}

// FileEntry describes one file in a transfer.
type FileEntry struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	IsDirectory bool   `json:"is_directory,omitempty"`
}

// Transfer is the canonical per-transfer record. IDs are opaque and unique
// for the lifetime of the process.
type Transfer struct {
	ID           string      `json:"transfer_id"`
	Direction    Direction   `json:"direction"`
	PeerAddress  string      `json:"peer_address"`
	PeerHostname string      `json:"peer_hostname,omitempty"`
	Files        []FileEntry `json:"files"`
	TotalBytes   int64       `json:"total_bytes"`
	Status       Status      `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// Clone returns a deep copy safe for handing to UI projections.
func (t Transfer) Clone() Transfer {
	cp := t
	cp.Files = make([]FileEntry, len(t.Files))
	copy(cp.Files, t.Files)
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		cp.CompletedAt = &at
	}
	return cp
}

// Progress is a point-in-time snapshot of an active transfer. It is never
// persisted; it exists only while the transfer is Active.
type Progress struct {
	TransferID       string  `json:"transfer_id"`
	CurrentFile      string  `json:"current_file"`
	CurrentFileIndex int     `json:"current_file_index"`
	TotalFiles       int     `json:"total_files"`
	BytesTransferred int64   `json:"bytes_transferred"`
	TotalBytes       int64   `json:"total_bytes"`
	SpeedBps         float64 `json:"speed_bps"`
}

// Fraction returns progress in [0,1], tolerating unknown totals.
func (p Progress) Fraction() float64 {
	if p.TotalBytes <= 0 {
		return 0
	}
	f := float64(p.BytesTransferred) / float64(p.TotalBytes)
	if f > 1 {
		f = 1
	}
	return f
}

// NetworkInterface describes a local interface as reported by the engine.
// Ephemeral: re-fetched on demand, never persisted.
type NetworkInterface struct {
	Name     string `json:"name"`
	IP       string `json:"ip"`
	Loopback bool   `json:"loopback"`
}
