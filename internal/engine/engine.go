// Package engine declares the interface of the external transfer engine
// collaborator. The wire protocol, chunk streaming, retry timing and path
// sanitization all live behind this boundary; the bridge only ever drives
// it through these methods and consumes its event stream.
package engine

import (
	"context"

	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/events"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/transfer"
)

// Config is the engine-side configuration derived from user settings.
type Config struct {
	Port           int
	DeviceName     string
	DownloadDir    string
	TrustedHosts   []string
	ReceiveOnly    bool
	MaxRetries     int
	RetryDelayMs   int
	BandwidthLimit int64 // bytes/sec, 0 means unlimited
}

// ResolveResult is the outcome of a hostname/IP resolution.
type ResolveResult struct {
	Success  bool     `json:"success"`
	Hostname string   `json:"hostname"`
	IPs      []string `json:"ips"`
	Error    string   `json:"error,omitempty"`
}

// PeerInfo describes a reachable peer as reported by its info endpoint.
type PeerInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	ReceiveOnly bool   `json:"receive_only,omitempty"`
}

// Engine is the command surface the bridge drives. Calls may block or await
// I/O freely; they are only ever made from the bridge's worker context,
// never from the UI context. Long-running work (sends, receives) is started
// by these calls but runs on the engine's own workers, so the calls
// themselves return promptly.
type Engine interface {
	StartServer(ctx context.Context) error
	StopServer(ctx context.Context) error

	ResolveAddress(ctx context.Context, address string) ResolveResult
	CheckPeer(ctx context.Context, address string, port int) bool
	GetPeerInfo(ctx context.Context, address string, port int) (PeerInfo, error)

	SendFiles(ctx context.Context, address string, port int, paths []string) error
	SendDirectory(ctx context.Context, address string, port int, path string) error

	AcceptTransfer(ctx context.Context, id string) error
	RejectTransfer(ctx context.Context, id string) error
	// AcceptAllTransfers and RejectAllTransfers act on exactly the given
	// ids, the caller's snapshot of the pending set, so requests that
	// arrive while the command is in flight are not swept up. Ids that
	// already left Pending are per-id no-ops.
	AcceptAllTransfers(ctx context.Context, ids []string) map[string]error
	RejectAllTransfers(ctx context.Context, ids []string) map[string]error
	CancelTransfer(ctx context.Context, id string) error

	GetPendingTransfers(ctx context.Context) []transfer.Transfer
	GetInterfaces(ctx context.Context) []transfer.NetworkInterface

	UpdateConfig(ctx context.Context, cfg Config)
	ChangePort(ctx context.Context, port int, rollbackOnFailure bool) error

	// Events returns the engine's event stream. The channel is owned by the
	// engine and closed when the engine shuts down.
	Events() <-chan events.Event
}
