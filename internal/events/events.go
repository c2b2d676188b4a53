// Package events defines the typed events the engine emits toward the UI.
package events

import (
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/transfer"
)

// Type tags an engine event.
type Type string

const (
	TypeTransferRequest  Type = "transfer_request"
	TypeTransferProgress Type = "transfer_progress"
	TypeTransferComplete Type = "transfer_complete"
	TypeTransferFailed   Type = "transfer_failed"
	TypeTransferRetry    Type = "transfer_retry"
	TypeServerStarted    Type = "server_started"
	TypeServerStopped    Type = "server_stopped"
	TypePortChanged      Type = "port_changed"
)

// Event is the closed union of engine notifications. Payloads cross the
// channel boundary as values; nothing here is shared with engine internals.
type Event interface {
	Type() Type
	// TransferID returns the referenced transfer id, or "" for server-level
	// events. The router keys its ordering guarantee on this.
	TransferID() string
}

// TransferRequest announces a new inbound transfer awaiting accept/reject.
type TransferRequest struct {
	Transfer transfer.Transfer `json:"transfer"`
}

func (e TransferRequest) Type() Type         { return TypeTransferRequest }
func (e TransferRequest) TransferID() string { return e.Transfer.ID }

// TransferProgress reports bytes moving for an active transfer.
type TransferProgress struct {
	Progress transfer.Progress `json:"progress"`
}

func (e TransferProgress) Type() Type         { return TypeTransferProgress }
func (e TransferProgress) TransferID() string { return e.Progress.TransferID }

// TransferComplete marks a transfer finished successfully.
type TransferComplete struct {
	ID string `json:"transfer_id"`
}

func (e TransferComplete) Type() Type         { return TypeTransferComplete }
func (e TransferComplete) TransferID() string { return e.ID }

// TransferFailed marks a transfer finished with an error. Rejection and
// cancellation also arrive through this event; the store maps them to
// Cancelled when a matching cancel intent was recorded.
type TransferFailed struct {
	ID    string `json:"transfer_id"`
	Error string `json:"error"`
}

func (e TransferFailed) Type() Type         { return TypeTransferFailed }
func (e TransferFailed) TransferID() string { return e.ID }

// TransferRetry reports an automatic retry attempt. May interleave between
// progress events but never after a terminal event for the same id.
type TransferRetry struct {
	ID          string `json:"transfer_id"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
	Error       string `json:"error"`
}

func (e TransferRetry) Type() Type         { return TypeTransferRetry }
func (e TransferRetry) TransferID() string { return e.ID }

// ServerStarted reports the receive server listening on a port.
type ServerStarted struct {
	Port int `json:"port"`
}

func (e ServerStarted) Type() Type         { return TypeServerStarted }
func (e ServerStarted) TransferID() string { return "" }

// ServerStopped reports the receive server shut down.
type ServerStopped struct{}

func (e ServerStopped) Type() Type         { return TypeServerStopped }
func (e ServerStopped) TransferID() string { return "" }

// PortChanged reports a successful (or rolled back) port change.
type PortChanged struct {
	OldPort int `json:"old_port"`
	NewPort int `json:"new_port"`
}

func (e PortChanged) Type() Type         { return TypePortChanged }
func (e PortChanged) TransferID() string { return "" }
