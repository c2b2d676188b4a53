package bridge

import (
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/engine"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/transfer"
)

// Command is the closed union of UI-initiated requests. Commands carrying a
// Reply channel are request/response: the bridge sends exactly one value and
// closes the channel. Everything else is fire-and-forget.
type Command interface {
	name() string
}

// StartServer starts the engine's receive server.
type StartServer struct{}

// StopServer stops the engine's receive server.
type StopServer struct{}

// ResolveAddress resolves a hostname or IP address.
type ResolveAddress struct {
	Address string
	Reply   chan<- engine.ResolveResult
}

// CheckPeer probes whether a peer answers on the given address and port.
type CheckPeer struct {
	Address string
	Port    int
	Reply   chan<- bool
}

// PeerInfoResult carries the outcome of a GetPeerInfo command.
type PeerInfoResult struct {
	Info engine.PeerInfo
	Err  error
}

// GetPeerInfo fetches a reachable peer's advertised identity.
type GetPeerInfo struct {
	Address string
	Port    int
	Reply   chan<- PeerInfoResult
}

// SendFiles starts an outbound transfer of individual files.
type SendFiles struct {
	Address string
	Port    int
	Paths   []string
}

// SendDirectory starts an outbound transfer of a directory tree.
type SendDirectory struct {
	Address string
	Port    int
	Path    string
}

// AcceptTransfer accepts a single pending inbound transfer. Idempotent: a
// no-op if the transfer already left Pending on the engine side.
type AcceptTransfer struct {
	ID string
}

// RejectTransfer rejects a single pending inbound transfer. Idempotent like
// AcceptTransfer.
type RejectTransfer struct {
	ID string
}

// AcceptAll accepts the listed pending transfers. IDs is the caller's
// snapshot of the pending set at the moment of invocation, so requests that
// arrive while the command is in flight are untouched. Done, when non-nil,
// is invoked once with the per-id results after the engine returns; callers
// marshal it onto their own context.
type AcceptAll struct {
	IDs  []string
	Done func(results map[string]error)
}

// RejectAll rejects the listed pending transfers. Semantics mirror AcceptAll.
type RejectAll struct {
	IDs  []string
	Done func(results map[string]error)
}

// CancelTransfer asks the engine to stop a transfer. Advisory: the store
// does not record Cancelled until the terminal event arrives.
type CancelTransfer struct {
	ID string
}

// GetPendingTransfers snapshots the engine's pending set.
type GetPendingTransfers struct {
	Reply chan<- []transfer.Transfer
}

// GetInterfaces fetches the machine's network interfaces.
type GetInterfaces struct {
	Reply chan<- []transfer.NetworkInterface
}

// UpdateConfig pushes new settings into the engine.
type UpdateConfig struct {
	Config engine.Config
}

// ChangePort moves the receive server to a new port. With AllowRollback the
// engine restores the old port if the new one cannot be bound.
type ChangePort struct {
	Port          int
	AllowRollback bool
}

func (StartServer) name() string         { return "start_server" }
func (StopServer) name() string          { return "stop_server" }
func (ResolveAddress) name() string      { return "resolve_address" }
func (CheckPeer) name() string           { return "check_peer" }
func (GetPeerInfo) name() string         { return "get_peer_info" }
func (SendFiles) name() string           { return "send_files" }
func (SendDirectory) name() string       { return "send_directory" }
func (AcceptTransfer) name() string      { return "accept_transfer" }
func (RejectTransfer) name() string      { return "reject_transfer" }
func (AcceptAll) name() string           { return "accept_all" }
func (RejectAll) name() string           { return "reject_all" }
func (CancelTransfer) name() string      { return "cancel_transfer" }
func (GetPendingTransfers) name() string { return "get_pending_transfers" }
func (GetInterfaces) name() string       { return "get_interfaces" }
func (UpdateConfig) name() string        { return "update_config" }
func (ChangePort) name() string          { return "change_port" }
