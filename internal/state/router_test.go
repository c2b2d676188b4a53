package state

import (
	"testing"

	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/bridge"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/events"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/logging"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/transfer"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/uiloop"
)

type capturedSubmit struct {
	commands []bridge.Command
}

func (c *capturedSubmit) submit(cmd bridge.Command) error {
	c.commands = append(c.commands, cmd)
	return nil
}

func newTestRouter(trusted func(string) bool) (*Router, *Store, *capturedSubmit) {
	s, _ := newTestStore()
	sub := &capturedSubmit{}
	r := NewRouter(s, uiloop.Immediate{}, logging.Nop(), sub.submit, trusted)
	return r, s, sub
}

func TestRouterRequestThenProgressThenComplete(t *testing.T) {
	r, s, _ := newTestRouter(nil)

	r.Apply(events.TransferRequest{Transfer: incoming("t1")})
	if s.Badge() != 1 {
		t.Fatalf("badge after request = %d, want 1", s.Badge())
	}

	r.Apply(events.TransferProgress{Progress: transfer.Progress{
		TransferID: "t1", BytesTransferred: 1024, TotalBytes: 4096,
	}})
	if s.Badge() != 0 {
		t.Fatalf("badge after first progress = %d, want 0", s.Badge())
	}
	status, _ := s.Status("t1")
	if status != transfer.StatusActive {
		t.Fatalf("status = %s, want active", status)
	}

	r.Apply(events.TransferComplete{ID: "t1"})
	status, _ = s.Status("t1")
	if status != transfer.StatusCompleted {
		t.Fatalf("status = %s, want completed", status)
	}
}

func TestRouterOrphanProgressSynthesisesEntry(t *testing.T) {
	r, s, _ := newTestRouter(nil)

	r.Apply(events.TransferProgress{Progress: transfer.Progress{
		TransferID: "ghost", CurrentFileIndex: 1, TotalFiles: 3,
		BytesTransferred: 512, TotalBytes: 8192,
	}})

	status, known := s.Status("ghost")
	if !known {
		t.Fatal("orphan progress was dropped instead of synthesised")
	}
	if status != transfer.StatusActive {
		t.Fatalf("status = %s, want active", status)
	}
	if s.Badge() != 0 {
		t.Fatalf("badge = %d, want 0 (synthesised transfers skip the badge)", s.Badge())
	}
	snap := s.Snapshot()
	if got := snap.Active[0].Progress.BytesTransferred; got != 512 {
		t.Fatalf("bytes transferred = %d, want 512", got)
	}
}

func TestRouterOutgoingRequestSkipsBadge(t *testing.T) {
	r, s, _ := newTestRouter(nil)

	out := incoming("t1")
	out.Direction = transfer.DirectionSend
	r.Apply(events.TransferRequest{Transfer: out})

	if s.Badge() != 0 {
		t.Fatalf("badge = %d, want 0 for an outgoing transfer", s.Badge())
	}
	status, _ := s.Status("t1")
	if status != transfer.StatusActive {
		t.Fatalf("status = %s, want active immediately", status)
	}
}

func TestRouterDropsUnknownTerminal(t *testing.T) {
	r, s, _ := newTestRouter(nil)

	r.Apply(events.TransferComplete{ID: "never-seen"})
	if _, known := s.Status("never-seen"); known {
		t.Fatal("terminal event for unknown id created an entry")
	}
}

func TestRouterCancelIntentMapsFailedToCancelled(t *testing.T) {
	r, s, _ := newTestRouter(nil)

	r.Apply(events.TransferRequest{Transfer: incoming("t1")})
	r.Apply(events.TransferProgress{Progress: transfer.Progress{
		TransferID: "t1", BytesTransferred: 100, TotalBytes: 4096,
	}})

	// The user hit cancel; the engine reports the abort as a failure.
	s.MarkCancelIntent("t1")
	r.Apply(events.TransferFailed{ID: "t1", Error: "cancelled by user"})

	status, _ := s.Status("t1")
	if status != transfer.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", status)
	}
}

func TestRouterFailedWithoutIntentStaysFailed(t *testing.T) {
	r, s, _ := newTestRouter(nil)

	r.Apply(events.TransferRequest{Transfer: incoming("t1")})
	r.Apply(events.TransferProgress{Progress: transfer.Progress{TransferID: "t1"}})
	r.Apply(events.TransferFailed{ID: "t1", Error: "connection reset"})

	status, _ := s.Status("t1")
	if status != transfer.StatusFailed {
		t.Fatalf("status = %s, want failed", status)
	}
}

func TestRouterTrustedHostAutoAccepts(t *testing.T) {
	trusted := func(addr string) bool { return addr == "192.168.1.50" }
	r, s, sub := newTestRouter(trusted)

	r.Apply(events.TransferRequest{Transfer: incoming("t1")})

	if len(sub.commands) != 1 {
		t.Fatalf("submitted %d commands, want 1", len(sub.commands))
	}
	accept, ok := sub.commands[0].(bridge.AcceptTransfer)
	if !ok || accept.ID != "t1" {
		t.Fatalf("submitted %#v, want AcceptTransfer{t1}", sub.commands[0])
	}
	// Auto-accepted transfers still wait in pending until bytes move.
	if s.Badge() != 1 {
		t.Fatalf("badge = %d, want 1 until first progress", s.Badge())
	}

	r.Apply(events.TransferProgress{Progress: transfer.Progress{TransferID: "t1", BytesTransferred: 1}})
	if s.Badge() != 0 {
		t.Fatalf("badge = %d, want 0 after first progress", s.Badge())
	}
}

func TestRouterUntrustedHostNotAutoAccepted(t *testing.T) {
	trusted := func(addr string) bool { return false }
	r, _, sub := newTestRouter(trusted)

	requested := ""
	r.SetHooks(Hooks{OnRequest: func(tr transfer.Transfer) { requested = tr.ID }})
	r.Apply(events.TransferRequest{Transfer: incoming("t1")})

	if len(sub.commands) != 0 {
		t.Fatalf("submitted %d commands, want none", len(sub.commands))
	}
	if requested != "t1" {
		t.Fatalf("request hook saw %q, want t1", requested)
	}
}

func TestRouterRetryRecorded(t *testing.T) {
	r, s, _ := newTestRouter(nil)

	r.Apply(events.TransferRequest{Transfer: incoming("t1")})
	r.Apply(events.TransferProgress{Progress: transfer.Progress{TransferID: "t1", BytesTransferred: 10}})
	r.Apply(events.TransferRetry{ID: "t1", Attempt: 2, MaxAttempts: 3, Error: "timeout"})

	snap := s.Snapshot()
	retry := snap.Active[0].Retry
	if retry == nil || retry.Attempt != 2 || retry.MaxAttempts != 3 {
		t.Fatalf("retry state = %+v, want attempt 2 of 3", retry)
	}

	// Progress resuming clears the retry banner.
	r.Apply(events.TransferProgress{Progress: transfer.Progress{TransferID: "t1", BytesTransferred: 20}})
	if snap = s.Snapshot(); snap.Active[0].Retry != nil {
		t.Fatal("retry state survived a progress report")
	}
}

func TestRouterServerLifecycle(t *testing.T) {
	r, s, _ := newTestRouter(nil)

	r.Apply(events.ServerStarted{Port: 9742})
	running, port := s.ServerState()
	if !running || port != 9742 {
		t.Fatalf("server state = %v/%d, want running on 9742", running, port)
	}

	r.Apply(events.PortChanged{OldPort: 9742, NewPort: 9800})
	if _, port = s.ServerState(); port != 9800 {
		t.Fatalf("port = %d, want 9800", port)
	}

	r.Apply(events.ServerStopped{})
	if running, port = s.ServerState(); running {
		t.Fatal("server still marked running after stop")
	}
	if port != 9800 {
		t.Fatalf("port forgotten on stop: %d, want 9800", port)
	}
}

func TestRouterCompleteHookSeesFinishedTransfer(t *testing.T) {
	r, _, _ := newTestRouter(nil)

	var completed transfer.Transfer
	r.SetHooks(Hooks{OnComplete: func(tr transfer.Transfer) { completed = tr }})

	r.Apply(events.TransferRequest{Transfer: incoming("t1")})
	r.Apply(events.TransferProgress{Progress: transfer.Progress{TransferID: "t1"}})
	r.Apply(events.TransferComplete{ID: "t1"})

	if completed.ID != "t1" {
		t.Fatalf("complete hook saw %q, want t1", completed.ID)
	}
	if completed.PeerAddress != "192.168.1.50" {
		t.Fatalf("complete hook lost peer address: %q", completed.PeerAddress)
	}
}

func TestRouterStaleProgressAfterRowRemovalDropped(t *testing.T) {
	s, clock := newTestStore()
	r := NewRouter(s, uiloop.Immediate{}, logging.Nop(), nil, nil)

	r.Apply(events.TransferRequest{Transfer: incoming("t5")})
	r.Apply(events.TransferProgress{Progress: transfer.Progress{
		TransferID: "t5", BytesTransferred: 1024, TotalBytes: 4096,
	}})
	s.MarkCancelIntent("t5")
	r.Apply(events.TransferFailed{ID: "t5", Error: "cancelled by user"})
	clock.fire(t, 0)
	if _, known := s.Status("t5"); known {
		t.Fatal("row still present after grace removal")
	}

	// A progress event that was already in flight when the transfer was
	// cancelled arrives after the row is gone.
	r.Apply(events.TransferProgress{Progress: transfer.Progress{
		TransferID: "t5", BytesTransferred: 2048, TotalBytes: 4096,
	}})

	if _, known := s.Status("t5"); known {
		t.Fatal("stale progress resurrected a cancelled transfer")
	}
	snap := s.Snapshot()
	if len(snap.Pending) != 0 || len(snap.Active) != 0 || snap.Badge != 0 {
		t.Fatalf("snapshot not empty after stale progress: %+v", snap)
	}
}
