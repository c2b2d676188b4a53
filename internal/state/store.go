// Package state holds the UI-side view of transfer lifecycles. A Store
// tracks pending and active transfers, a Router applies engine events to
// the store in a well-defined order, and a Coordinator runs batch
// accept/reject flows. All store mutation happens on the UI loop.
package state

import (
	"time"

	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/logging"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/transfer"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/uiloop"
)

// Grace periods before a finished transfer leaves the active list. Completed
// rows clear quickly; failed and cancelled rows linger so the error stays
// readable.
const (
	CompletedGrace = 3 * time.Second
	FailedGrace    = 5 * time.Second
)

// tombstoneCap bounds the set of remembered terminal ids. Old entries are
// evicted in recording order once the cap is reached.
const tombstoneCap = 256

// RetryState records the most recent retry announcement for a transfer.
type RetryState struct {
	Attempt     int
	MaxAttempts int
	Error       string
}

// ActiveTransfer is one row of the active list: the transfer plus its
// latest progress and, if the engine is retrying, the retry state.
type ActiveTransfer struct {
	Transfer transfer.Transfer
	Progress *transfer.Progress
	Retry    *RetryState
}

// Snapshot is an immutable copy of the store suitable for rendering.
type Snapshot struct {
	Pending       []transfer.Transfer
	Active        []ActiveTransfer
	Badge         int
	ServerRunning bool
	ServerPort    int
}

type entry struct {
	t        transfer.Transfer
	progress *transfer.Progress
	retry    *RetryState
}

// Store is the transfer lifecycle store. It is not internally locked:
// every method must be called from the UI loop, which serialises access.
type Store struct {
	log  *logging.Logger
	loop uiloop.Loop

	// after schedules fn once d elapses. Tests swap it out so grace
	// removal can be driven deterministically.
	after func(d time.Duration, fn func())

	entries      map[string]*entry
	pendingOrder []string
	activeOrder  []string

	cancelIntents map[string]struct{}

	// tombstones remember ids that reached a terminal state, so a stale
	// progress or replayed request after the row is gone cannot bring the
	// transfer back to life.
	tombstones     map[string]struct{}
	tombstoneOrder []string

	serverRunning bool
	serverPort    int

	onChange       func()
	historyChanged func()
}

// NewStore builds an empty store. loop is used to marshal grace-period
// removals back onto the UI thread.
func NewStore(log *logging.Logger, loop uiloop.Loop) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{
		log:           log,
		loop:          loop,
		after:         func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
		entries:       make(map[string]*entry),
		cancelIntents: make(map[string]struct{}),
		tombstones:    make(map[string]struct{}),
	}
}

// SetOnChange registers a callback fired after any mutation, typically a
// render request. Batch operations fire it once.
func (s *Store) SetOnChange(fn func()) { s.onChange = fn }

// SetHistoryChanged registers a callback fired when a transfer reaches a
// terminal state, signalling that the persisted history should be re-read.
func (s *Store) SetHistoryChanged(fn func()) { s.historyChanged = fn }

func (s *Store) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Badge returns the number of transfers awaiting a user decision. It is
// always exactly the size of the pending set.
func (s *Store) Badge() int { return len(s.pendingOrder) }

// PendingIDs returns the pending set in arrival order.
func (s *Store) PendingIDs() []string {
	ids := make([]string, len(s.pendingOrder))
	copy(ids, s.pendingOrder)
	return ids
}

// Status reports the transfer's current status and whether it is known.
func (s *Store) Status(id string) (transfer.Status, bool) {
	e, ok := s.entries[id]
	if !ok {
		return "", false
	}
	return e.t.Status, true
}

// Tombstoned reports whether id already reached a terminal state, even if
// its row has since been removed.
func (s *Store) Tombstoned(id string) bool {
	_, ok := s.tombstones[id]
	return ok
}

func (s *Store) tombstone(id string) {
	if _, ok := s.tombstones[id]; ok {
		return
	}
	s.tombstones[id] = struct{}{}
	s.tombstoneOrder = append(s.tombstoneOrder, id)
	if len(s.tombstoneOrder) > tombstoneCap {
		delete(s.tombstones, s.tombstoneOrder[0])
		s.tombstoneOrder = s.tombstoneOrder[1:]
	}
}

// AddPending registers a new incoming transfer. Duplicate ids are rejected
// so a replayed request event cannot inflate the badge, and ids that
// already finished stay finished.
func (s *Store) AddPending(t transfer.Transfer) bool {
	if _, exists := s.entries[t.ID]; exists {
		return false
	}
	if s.Tombstoned(t.ID) {
		return false
	}
	t.Status = transfer.StatusPending
	s.entries[t.ID] = &entry{t: t}
	s.pendingOrder = append(s.pendingOrder, t.ID)
	s.changed()
	return true
}

// Promote moves a pending transfer into the active set. This is the point
// where the badge decrements for individually accepted transfers. It is a
// no-op if the transfer is unknown or already past Pending.
func (s *Store) Promote(id string) bool {
	e, ok := s.entries[id]
	if !ok || e.t.Status != transfer.StatusPending {
		return false
	}
	e.t.Status = transfer.StatusActive
	s.removePendingID(id)
	s.activeOrder = append(s.activeOrder, id)
	s.changed()
	return true
}

// UpdateProgress applies a progress payload to an active transfer. The
// byte counter is monotonic: a regression is clamped to the previous value
// and logged rather than shown to the user.
func (s *Store) UpdateProgress(p transfer.Progress) bool {
	e, ok := s.entries[p.TransferID]
	if !ok || e.t.Status != transfer.StatusActive {
		return false
	}
	if e.progress != nil && p.BytesTransferred < e.progress.BytesTransferred {
		s.log.Warn().
			Str("transfer_id", p.TransferID).
			Int64("previous", e.progress.BytesTransferred).
			Int64("reported", p.BytesTransferred).
			Msg("progress went backwards, clamping")
		p.BytesTransferred = e.progress.BytesTransferred
	}
	cp := p
	e.progress = &cp
	// A progress report means the engine moved past whatever it was
	// retrying.
	e.retry = nil
	s.changed()
	return true
}

// SetRetry records a retry announcement for a live transfer.
func (s *Store) SetRetry(id string, attempt, maxAttempts int, errText string) bool {
	e, ok := s.entries[id]
	if !ok || e.t.Status.IsTerminal() {
		return false
	}
	e.retry = &RetryState{Attempt: attempt, MaxAttempts: maxAttempts, Error: errText}
	s.changed()
	return true
}

// MarkCancelIntent notes that the user asked to cancel or reject id. When
// the engine later reports the transfer as failed, the store records it as
// cancelled instead.
func (s *Store) MarkCancelIntent(id string) {
	s.cancelIntents[id] = struct{}{}
}

// HasCancelIntent reports whether a cancel or reject was requested for id.
func (s *Store) HasCancelIntent(id string) bool {
	_, ok := s.cancelIntents[id]
	return ok
}

// Terminal moves a transfer into a terminal status. Transitions are
// forward-only: a second terminal event for the same id is a no-op, as is
// any attempt to leave a terminal state. Transfers finishing out of the
// pending set are dropped immediately; active ones stay visible for a
// grace period.
func (s *Store) Terminal(id string, status transfer.Status, errText string) bool {
	e, ok := s.entries[id]
	if !ok {
		return false
	}
	if !e.t.Status.CanTransitionTo(status) {
		return false
	}
	wasPending := e.t.Status == transfer.StatusPending
	e.t.Status = status
	e.t.Error = errText
	now := time.Now()
	e.t.CompletedAt = &now
	e.progress = nil
	e.retry = nil
	delete(s.cancelIntents, id)
	s.tombstone(id)

	if wasPending {
		s.removePendingID(id)
		delete(s.entries, id)
	} else {
		s.scheduleRemoval(id, status)
	}
	if s.historyChanged != nil {
		s.historyChanged()
	}
	s.changed()
	return true
}

func (s *Store) scheduleRemoval(id string, status transfer.Status) {
	grace := FailedGrace
	if status == transfer.StatusCompleted {
		grace = CompletedGrace
	}
	s.after(grace, func() {
		s.loop.Post(func() { s.removeActive(id) })
	})
}

func (s *Store) removeActive(id string) {
	e, ok := s.entries[id]
	if !ok || !e.t.Status.IsTerminal() {
		return
	}
	delete(s.entries, id)
	for i, aid := range s.activeOrder {
		if aid == id {
			s.activeOrder = append(s.activeOrder[:i], s.activeOrder[i+1:]...)
			break
		}
	}
	s.changed()
}

// ResolveBatch settles a batch accept or reject for the given ids in a
// single update. Ids that already left the pending set are skipped; the
// remainder are either promoted (accept) or recorded as cancelled
// (reject). Fires onChange once, and historyChanged once if any transfer
// reached a terminal state.
func (s *Store) ResolveBatch(ids []string, accepted bool) {
	anyTerminal := false
	touched := false
	for _, id := range ids {
		e, ok := s.entries[id]
		if !ok || e.t.Status != transfer.StatusPending {
			continue
		}
		touched = true
		if accepted {
			e.t.Status = transfer.StatusActive
			s.removePendingID(id)
			s.activeOrder = append(s.activeOrder, id)
		} else {
			e.t.Status = transfer.StatusCancelled
			now := time.Now()
			e.t.CompletedAt = &now
			s.removePendingID(id)
			delete(s.entries, id)
			delete(s.cancelIntents, id)
			s.tombstone(id)
			anyTerminal = true
		}
	}
	if anyTerminal && s.historyChanged != nil {
		s.historyChanged()
	}
	if touched {
		s.changed()
	}
}

// SetServerState records server lifecycle events for rendering.
func (s *Store) SetServerState(running bool, port int) {
	s.serverRunning = running
	if port > 0 {
		s.serverPort = port
	}
	s.changed()
}

// ServerState returns whether the receive server is up and on which port.
func (s *Store) ServerState() (running bool, port int) {
	return s.serverRunning, s.serverPort
}

// Snapshot copies the store for rendering. The result shares nothing with
// the store's internals.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Pending:       make([]transfer.Transfer, 0, len(s.pendingOrder)),
		Active:        make([]ActiveTransfer, 0, len(s.activeOrder)),
		Badge:         len(s.pendingOrder),
		ServerRunning: s.serverRunning,
		ServerPort:    s.serverPort,
	}
	for _, id := range s.pendingOrder {
		if e, ok := s.entries[id]; ok {
			snap.Pending = append(snap.Pending, e.t.Clone())
		}
	}
	for _, id := range s.activeOrder {
		e, ok := s.entries[id]
		if !ok {
			continue
		}
		at := ActiveTransfer{Transfer: e.t.Clone()}
		if e.progress != nil {
			cp := *e.progress
			at.Progress = &cp
		}
		if e.retry != nil {
			cp := *e.retry
			at.Retry = &cp
		}
		snap.Active = append(snap.Active, at)
	}
	return snap
}

func (s *Store) removePendingID(id string) {
	for i, pid := range s.pendingOrder {
		if pid == id {
			s.pendingOrder = append(s.pendingOrder[:i], s.pendingOrder[i+1:]...)
			return
		}
	}
}
