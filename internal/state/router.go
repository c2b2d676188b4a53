package state

import (
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/bridge"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/events"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/logging"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/transfer"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/uiloop"
)

// Hooks are optional reactions to routed events, used for desktop
// notifications and status line updates. All hooks run on the UI loop.
type Hooks struct {
	OnRequest  func(t transfer.Transfer)
	OnComplete func(t transfer.Transfer)
	OnFailed   func(t transfer.Transfer, cancelled bool)
	OnServer   func(running bool, port int)
}

// Router applies engine events to the store. Events for the same transfer
// are applied in arrival order; Route may be called from any goroutine and
// marshals each event onto the UI loop before touching the store.
type Router struct {
	store *Store
	loop  uiloop.Loop
	log   *logging.Logger
	hooks Hooks

	// submit hands a command to the bridge, used for trusted-host
	// auto-accept. Nil disables auto-accept.
	submit func(bridge.Command) error

	// trusted reports whether a peer address is on the trusted list.
	trusted func(addr string) bool
}

// NewRouter builds a router over the store. submit and trusted may be nil.
func NewRouter(store *Store, loop uiloop.Loop, log *logging.Logger, submit func(bridge.Command) error, trusted func(addr string) bool) *Router {
	if log == nil {
		log = logging.Nop()
	}
	return &Router{store: store, loop: loop, log: log, submit: submit, trusted: trusted}
}

// SetHooks installs event reaction hooks. Call before routing begins.
func (r *Router) SetHooks(h Hooks) { r.hooks = h }

// Route queues ev for application on the UI loop.
func (r *Router) Route(ev events.Event) {
	r.loop.Post(func() { r.Apply(ev) })
}

// Apply applies a single event to the store. Must run on the UI loop.
func (r *Router) Apply(ev events.Event) {
	switch e := ev.(type) {
	case events.TransferRequest:
		r.applyRequest(e)
	case events.TransferProgress:
		r.applyProgress(e)
	case events.TransferComplete:
		r.applyTerminal(e.ID, transfer.StatusCompleted, "")
	case events.TransferFailed:
		status := transfer.StatusFailed
		if r.store.HasCancelIntent(e.ID) {
			status = transfer.StatusCancelled
		}
		r.applyTerminal(e.ID, status, e.Error)
	case events.TransferRetry:
		if !r.store.SetRetry(e.ID, e.Attempt, e.MaxAttempts, e.Error) {
			r.log.Debug().Str("transfer_id", e.ID).Msg("retry for unknown or finished transfer, dropped")
		}
	case events.ServerStarted:
		r.store.SetServerState(true, e.Port)
		if r.hooks.OnServer != nil {
			r.hooks.OnServer(true, e.Port)
		}
	case events.ServerStopped:
		_, port := r.store.ServerState()
		r.store.SetServerState(false, port)
		if r.hooks.OnServer != nil {
			r.hooks.OnServer(false, port)
		}
	case events.PortChanged:
		r.store.SetServerState(true, e.NewPort)
		r.log.Info().Int("old_port", e.OldPort).Int("new_port", e.NewPort).Msg("server port changed")
	default:
		r.log.Warn().Str("event", string(ev.Type())).Msg("unhandled event type")
	}
}

func (r *Router) applyRequest(e events.TransferRequest) {
	t := e.Transfer
	if !r.store.AddPending(t) {
		r.log.Warn().Str("transfer_id", t.ID).Msg("duplicate transfer request, dropped")
		return
	}
	if t.Direction == transfer.DirectionSend {
		// Outgoing transfers never wait on a decision; they go straight
		// to the active list and stay out of the badge count.
		r.store.Promote(t.ID)
		return
	}
	if r.trusted != nil && r.submit != nil && r.trusted(t.PeerAddress) {
		// Auto-accept from trusted hosts. The transfer stays pending
		// until its first progress report arrives, same as a manual
		// accept, so the badge count never lies.
		r.log.Info().
			Str("transfer_id", t.ID).
			Str("peer", t.PeerAddress).
			Msg("auto-accepting transfer from trusted host")
		if err := r.submit(bridge.AcceptTransfer{ID: t.ID}); err != nil {
			r.log.Error().Err(err).Str("transfer_id", t.ID).Msg("auto-accept submit failed")
		}
		return
	}
	if r.hooks.OnRequest != nil {
		r.hooks.OnRequest(t)
	}
}

func (r *Router) applyProgress(e events.TransferProgress) {
	p := e.Progress
	status, known := r.store.Status(p.TransferID)
	if !known {
		if r.store.Tombstoned(p.TransferID) {
			// The row is gone because the transfer already finished; a
			// straggling progress event must not resurrect it.
			r.log.Debug().Str("transfer_id", p.TransferID).Msg("progress after terminal state, dropped")
			return
		}
		// The request event was lost or arrived out of order. Synthesise
		// a minimal transfer so the progress is not thrown away.
		r.log.Warn().Str("transfer_id", p.TransferID).Msg("progress for unknown transfer, synthesising entry")
		t := transfer.Transfer{
			ID:         p.TransferID,
			Direction:  transfer.DirectionReceive,
			TotalBytes: p.TotalBytes,
		}
		for i := 0; i < p.TotalFiles; i++ {
			t.Files = append(t.Files, transfer.FileEntry{})
		}
		r.store.AddPending(t)
		r.store.Promote(p.TransferID)
		r.store.UpdateProgress(p)
		return
	}
	switch {
	case status == transfer.StatusPending:
		// First progress is the signal that the engine started moving
		// bytes; promotion here is what clears the badge entry.
		r.store.Promote(p.TransferID)
		r.store.UpdateProgress(p)
	case status == transfer.StatusActive:
		r.store.UpdateProgress(p)
	default:
		r.log.Debug().Str("transfer_id", p.TransferID).Msg("progress after terminal state, dropped")
	}
}

func (r *Router) applyTerminal(id string, status transfer.Status, errText string) {
	// Snapshot the transfer before the store drops or reschedules it so
	// hooks see the finished row.
	var snap transfer.Transfer
	if e, ok := r.store.entries[id]; ok {
		snap = e.t.Clone()
	}
	if !r.store.Terminal(id, status, errText) {
		r.log.Warn().
			Str("transfer_id", id).
			Str("status", string(status)).
			Msg("terminal event for unknown or finished transfer, dropped")
		return
	}
	snap.Status = status
	snap.Error = errText
	switch status {
	case transfer.StatusCompleted:
		if r.hooks.OnComplete != nil {
			r.hooks.OnComplete(snap)
		}
	case transfer.StatusFailed, transfer.StatusCancelled:
		if r.hooks.OnFailed != nil {
			r.hooks.OnFailed(snap, status == transfer.StatusCancelled)
		}
	}
}
