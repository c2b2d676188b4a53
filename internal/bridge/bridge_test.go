package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/engine"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/events"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/logging"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/transfer"
)

// mockEngine records calls and lets tests block execution to fill the
// command queue.
type mockEngine struct {
	mu       sync.Mutex
	calls    []string
	accepted []string
	eventsC  chan events.Event

	// block, when non-nil, stalls every call until closed.
	block chan struct{}
}

func newMockEngine() *mockEngine {
	return &mockEngine{eventsC: make(chan events.Event, 16)}
}

func (m *mockEngine) record(name string) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	m.calls = append(m.calls, name)
	m.mu.Unlock()
}

func (m *mockEngine) callNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockEngine) StartServer(ctx context.Context) error { m.record("start_server"); return nil }
func (m *mockEngine) StopServer(ctx context.Context) error  { m.record("stop_server"); return nil }

func (m *mockEngine) ResolveAddress(ctx context.Context, address string) engine.ResolveResult {
	m.record("resolve:" + address)
	return engine.ResolveResult{Success: true, Hostname: "deskbox", IPs: []string{"192.168.1.50"}}
}

func (m *mockEngine) CheckPeer(ctx context.Context, address string, port int) bool {
	m.record("check_peer")
	return true
}

func (m *mockEngine) GetPeerInfo(ctx context.Context, address string, port int) (engine.PeerInfo, error) {
	m.record("get_peer_info")
	return engine.PeerInfo{Name: "deskbox"}, nil
}

func (m *mockEngine) SendFiles(ctx context.Context, address string, port int, paths []string) error {
	m.record("send_files")
	return nil
}

func (m *mockEngine) SendDirectory(ctx context.Context, address string, port int, path string) error {
	m.record("send_directory")
	return nil
}

func (m *mockEngine) AcceptTransfer(ctx context.Context, id string) error {
	m.record("accept:" + id)
	m.mu.Lock()
	m.accepted = append(m.accepted, id)
	m.mu.Unlock()
	return nil
}

func (m *mockEngine) RejectTransfer(ctx context.Context, id string) error {
	m.record("reject:" + id)
	return nil
}

func (m *mockEngine) AcceptAllTransfers(ctx context.Context, ids []string) map[string]error {
	m.record("accept_all")
	results := make(map[string]error, len(ids))
	for _, id := range ids {
		results[id] = nil
	}
	return results
}

func (m *mockEngine) RejectAllTransfers(ctx context.Context, ids []string) map[string]error {
	m.record("reject_all")
	results := make(map[string]error, len(ids))
	for _, id := range ids {
		results[id] = nil
	}
	return results
}

func (m *mockEngine) CancelTransfer(ctx context.Context, id string) error {
	m.record("cancel:" + id)
	return nil
}

func (m *mockEngine) GetPendingTransfers(ctx context.Context) []transfer.Transfer {
	m.record("get_pending")
	return []transfer.Transfer{{ID: "t1"}}
}

func (m *mockEngine) GetInterfaces(ctx context.Context) []transfer.NetworkInterface {
	m.record("get_interfaces")
	return []transfer.NetworkInterface{{Name: "eth0", IP: "192.168.1.10"}}
}

func (m *mockEngine) UpdateConfig(ctx context.Context, cfg engine.Config) { m.record("update_config") }

func (m *mockEngine) ChangePort(ctx context.Context, port int, rollbackOnFailure bool) error {
	m.record("change_port")
	return nil
}

func (m *mockEngine) Events() <-chan events.Event { return m.eventsC }

func startedBridge(t *testing.T, eng engine.Engine) *Bridge {
	t.Helper()
	b := New(eng, logging.Nop())
	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(b.Stop)
	return b
}

func TestStartTwiceFails(t *testing.T) {
	b := startedBridge(t, newMockEngine())
	if err := b.Start(); err == nil {
		t.Fatal("second Start succeeded")
	}
}

func TestCommandsExecuteInSubmissionOrder(t *testing.T) {
	eng := newMockEngine()
	b := startedBridge(t, eng)

	for _, id := range []string{"t1", "t2", "t3"} {
		if err := b.Submit(AcceptTransfer{ID: id}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	// A reply-carrying command acts as a fence: once it answers, every
	// earlier command has executed.
	pending := make(chan []transfer.Transfer, 1)
	if err := b.Submit(GetPendingTransfers{Reply: pending}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	select {
	case <-pending:
	case <-time.After(2 * time.Second):
		t.Fatal("fence command never answered")
	}

	eng.mu.Lock()
	got := append([]string(nil), eng.accepted...)
	eng.mu.Unlock()
	if len(got) != 3 || got[0] != "t1" || got[1] != "t2" || got[2] != "t3" {
		t.Fatalf("accept order = %v, want [t1 t2 t3]", got)
	}
}

func TestReplySlotDeliversOnceAndCloses(t *testing.T) {
	b := startedBridge(t, newMockEngine())

	reply := make(chan engine.ResolveResult, 1)
	if err := b.Submit(ResolveAddress{Address: "deskbox", Reply: reply}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case res, ok := <-reply:
		if !ok {
			t.Fatal("reply channel closed before delivering")
		}
		if !res.Success || res.Hostname != "deskbox" {
			t.Fatalf("result = %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reply")
	}

	// The slot is closed after its single value.
	select {
	case _, ok := <-reply:
		if ok {
			t.Fatal("reply slot delivered a second value")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reply slot never closed")
	}
}

func TestSubmitRejectsWhenQueueFull(t *testing.T) {
	eng := newMockEngine()
	eng.block = make(chan struct{})
	b := startedBridge(t, eng)
	defer close(eng.block)

	// First command stalls inside the engine; fill the queue behind it.
	if err := b.Submit(StartServer{}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	// The dispatcher takes one command off the queue before blocking, so
	// allow a brief window for it to start executing.
	time.Sleep(20 * time.Millisecond)

	for i := 0; i < CommandQueueCapacity; i++ {
		if err := b.Submit(StopServer{}); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}
	if err := b.Submit(StopServer{}); err != ErrQueueFull {
		t.Fatalf("overflow Submit = %v, want ErrQueueFull", err)
	}
}

func TestBatchCommandsCarryIDsAndAck(t *testing.T) {
	b := startedBridge(t, newMockEngine())

	done := make(chan map[string]error, 1)
	cmd := AcceptAll{
		IDs:  []string{"t1", "t2"},
		Done: func(results map[string]error) { done <- results },
	}
	if err := b.Submit(cmd); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case results := <-done:
		if len(results) != 2 {
			t.Fatalf("results = %v, want entries for both ids", results)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("batch ack never arrived")
	}
}

func TestEventsForwardedFromEngine(t *testing.T) {
	eng := newMockEngine()
	b := startedBridge(t, eng)

	eng.eventsC <- events.ServerStarted{Port: 9742}
	select {
	case ev := <-b.Events():
		started, ok := ev.(events.ServerStarted)
		if !ok || started.Port != 9742 {
			t.Fatalf("event = %#v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event never forwarded")
	}
}

func TestSubmitAfterStopReturnsErrStopped(t *testing.T) {
	b := New(newMockEngine(), logging.Nop())
	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	b.Stop()

	if err := b.Submit(StartServer{}); err != ErrStopped {
		t.Fatalf("Submit after stop = %v, want ErrStopped", err)
	}
	// Event stream is closed on stop.
	if _, ok := <-b.Events(); ok {
		t.Fatal("event stream still open after stop")
	}
}

func TestStopClosesQueuedReplySlots(t *testing.T) {
	eng := newMockEngine()
	eng.block = make(chan struct{})
	b := startedBridge(t, eng)

	// First command stalls inside the engine so the next one stays queued.
	if err := b.Submit(StartServer{}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	reply := make(chan engine.ResolveResult, 1)
	if err := b.Submit(ResolveAddress{Address: "deskbox", Reply: reply}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// A caller blocked on the reply, the way the resolver waits for one.
	open := make(chan bool, 1)
	go func() {
		_, ok := <-reply
		if ok {
			// The command slipped through before shutdown; the slot must
			// still close after its single value.
			_, ok = <-reply
		}
		open <- ok
	}()

	close(eng.block)
	b.Stop()

	select {
	case ok := <-open:
		if ok {
			t.Fatal("reply slot still open after Stop")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reply reader still blocked after Stop")
	}
}
