// Package sim provides an in-process engine that fakes peers and
// transfers. It drives the UI and CLI end to end on machines with no
// second device on the network, and backs integration-style tests.
package sim

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/engine"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/events"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/history"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/logging"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/transfer"
)

// Peer is a fake device on the simulated network.
type Peer struct {
	Hostname    string
	IPs         []string
	Version     string
	ReceiveOnly bool
	// Unreachable makes resolution succeed but the peer check fail.
	Unreachable bool
	// FailTransfers makes every send to this peer fail after a few
	// chunks, exercising the retry path.
	FailTransfers bool
}

// Options tune the simulation speed. The zero value gets sane defaults.
type Options struct {
	ChunkInterval time.Duration
	ChunkBytes    int64
}

func (o *Options) fill() {
	if o.ChunkInterval == 0 {
		o.ChunkInterval = 150 * time.Millisecond
	}
	if o.ChunkBytes == 0 {
		o.ChunkBytes = 512 * 1024
	}
}

type liveTransfer struct {
	t      transfer.Transfer
	cancel chan struct{}
}

// Engine is a simulated transfer engine. It satisfies engine.Engine.
type Engine struct {
	log  *logging.Logger
	opts Options

	// hist, when set, receives a record for every terminal transfer.
	hist *history.FileStore

	eventsC chan events.Event

	mu      sync.Mutex
	cfg     engine.Config
	running bool
	peers   map[string]Peer // keyed by hostname and by each IP
	pending map[string]*liveTransfer
	active  map[string]*liveTransfer
}

var _ engine.Engine = (*Engine)(nil)

// New builds a simulated engine. hist may be nil.
func New(cfg engine.Config, hist *history.FileStore, log *logging.Logger, opts Options) *Engine {
	if log == nil {
		log = logging.Nop()
	}
	opts.fill()
	return &Engine{
		log:     log,
		opts:    opts,
		hist:    hist,
		cfg:     cfg,
		eventsC: make(chan events.Event, 64),
		peers:   make(map[string]Peer),
		pending: make(map[string]*liveTransfer),
		active:  make(map[string]*liveTransfer),
	}
}

// AddPeer seeds a fake device, addressable by hostname or any of its IPs.
func (e *Engine) AddPeer(p Peer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.peers[p.Hostname] = p
	for _, ip := range p.IPs {
		e.peers[ip] = p
	}
}

// Events returns the engine's event stream.
func (e *Engine) Events() <-chan events.Event { return e.eventsC }

func (e *Engine) emit(ev events.Event) {
	select {
	case e.eventsC <- ev:
	default:
		e.log.Warn().Str("event", string(ev.Type())).Msg("event channel full, dropping")
	}
}

// StartServer brings the simulated receive server up.
func (e *Engine) StartServer(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	e.running = true
	port := e.cfg.Port
	e.mu.Unlock()

	e.log.Info().Int("port", port).Msg("simulated server started")
	e.emit(events.ServerStarted{Port: port})
	return nil
}

// StopServer shuts the simulated receive server down.
func (e *Engine) StopServer(ctx context.Context) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return fmt.Errorf("server not running")
	}
	e.running = false
	e.mu.Unlock()

	e.emit(events.ServerStopped{})
	return nil
}

// ResolveAddress resolves a hostname against the seeded peers. IP
// literals resolve to themselves.
func (e *Engine) ResolveAddress(ctx context.Context, address string) engine.ResolveResult {
	if ip := net.ParseIP(address); ip != nil {
		return engine.ResolveResult{Success: true, IPs: []string{address}}
	}
	e.mu.Lock()
	p, ok := e.peers[address]
	e.mu.Unlock()
	if !ok {
		return engine.ResolveResult{Error: fmt.Sprintf("no such host: %s", address)}
	}
	return engine.ResolveResult{Success: true, Hostname: p.Hostname, IPs: append([]string(nil), p.IPs...)}
}

// CheckPeer reports whether a seeded peer answers on the address.
func (e *Engine) CheckPeer(ctx context.Context, address string, port int) bool {
	e.mu.Lock()
	p, ok := e.peers[address]
	e.mu.Unlock()
	return ok && !p.Unreachable
}

// GetPeerInfo returns the fake device's advertised details.
func (e *Engine) GetPeerInfo(ctx context.Context, address string, port int) (engine.PeerInfo, error) {
	e.mu.Lock()
	p, ok := e.peers[address]
	e.mu.Unlock()
	if !ok || p.Unreachable {
		return engine.PeerInfo{}, fmt.Errorf("peer %s:%d not reachable", address, port)
	}
	version := p.Version
	if version == "" {
		version = "1.0.0"
	}
	return engine.PeerInfo{Name: p.Hostname, Version: version, ReceiveOnly: p.ReceiveOnly}, nil
}

// SendFiles starts an outgoing transfer of the named paths.
func (e *Engine) SendFiles(ctx context.Context, address string, port int, paths []string) error {
	_, err := e.startSend(address, paths, false)
	return err
}

// SendDirectory starts an outgoing transfer of a directory tree.
func (e *Engine) SendDirectory(ctx context.Context, address string, port int, path string) error {
	_, err := e.startSend(address, []string{path}, true)
	return err
}

func (e *Engine) startSend(address string, paths []string, dir bool) (string, error) {
	e.mu.Lock()
	p, known := e.peers[address]
	cfg := e.cfg
	e.mu.Unlock()
	if !known {
		return "", fmt.Errorf("unknown peer %s", address)
	}
	if cfg.ReceiveOnly {
		return "", fmt.Errorf("sending disabled in receive-only mode")
	}

	t := transfer.Transfer{
		ID:           uuid.NewString(),
		Direction:    transfer.DirectionSend,
		PeerAddress:  address,
		PeerHostname: p.Hostname,
		Status:       transfer.StatusActive,
		CreatedAt:    time.Now(),
	}
	for _, path := range paths {
		t.Files = append(t.Files, transfer.FileEntry{Name: path, Size: 1 << 20, IsDirectory: dir})
		t.TotalBytes += 1 << 20
	}

	lt := &liveTransfer{t: t, cancel: make(chan struct{})}
	e.mu.Lock()
	e.active[t.ID] = lt
	e.mu.Unlock()

	// Outgoing transfers are announced too so the UI can show them from
	// the first byte.
	e.emit(events.TransferRequest{Transfer: t})
	go e.pump(lt, p.FailTransfers)
	return t.ID, nil
}

// InjectIncoming fabricates an incoming transfer request from a seeded
// peer, as if a remote device initiated a send.
func (e *Engine) InjectIncoming(peerAddress string, files []transfer.FileEntry) string {
	t := transfer.Transfer{
		ID:          uuid.NewString(),
		Direction:   transfer.DirectionReceive,
		PeerAddress: peerAddress,
		Status:      transfer.StatusPending,
		CreatedAt:   time.Now(),
	}
	e.mu.Lock()
	if p, ok := e.peers[peerAddress]; ok {
		t.PeerHostname = p.Hostname
	}
	for _, f := range files {
		t.Files = append(t.Files, f)
		t.TotalBytes += f.Size
	}
	e.pending[t.ID] = &liveTransfer{t: t, cancel: make(chan struct{})}
	e.mu.Unlock()

	e.emit(events.TransferRequest{Transfer: t})
	return t.ID
}

// AcceptTransfer begins receiving a pending transfer.
func (e *Engine) AcceptTransfer(ctx context.Context, id string) error {
	e.mu.Lock()
	lt, ok := e.pending[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("no pending transfer %s", id)
	}
	delete(e.pending, id)
	lt.t.Status = transfer.StatusActive
	e.active[id] = lt
	fail := false
	if p, known := e.peers[lt.t.PeerAddress]; known {
		fail = p.FailTransfers
	}
	e.mu.Unlock()

	go e.pump(lt, fail)
	return nil
}

// RejectTransfer declines a pending transfer.
func (e *Engine) RejectTransfer(ctx context.Context, id string) error {
	e.mu.Lock()
	lt, ok := e.pending[id]
	if ok {
		delete(e.pending, id)
	}
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("no pending transfer %s", id)
	}
	e.finish(lt, transfer.StatusCancelled, "rejected by user")
	return nil
}

// AcceptAllTransfers accepts exactly the listed ids.
func (e *Engine) AcceptAllTransfers(ctx context.Context, ids []string) map[string]error {
	results := make(map[string]error, len(ids))
	for _, id := range ids {
		results[id] = e.AcceptTransfer(ctx, id)
	}
	return results
}

// RejectAllTransfers rejects exactly the listed ids.
func (e *Engine) RejectAllTransfers(ctx context.Context, ids []string) map[string]error {
	results := make(map[string]error, len(ids))
	for _, id := range ids {
		results[id] = e.RejectTransfer(ctx, id)
	}
	return results
}

// CancelTransfer aborts a live transfer. The outcome surfaces as a
// failure event, which the UI records as cancelled.
func (e *Engine) CancelTransfer(ctx context.Context, id string) error {
	e.mu.Lock()
	if lt, ok := e.pending[id]; ok {
		delete(e.pending, id)
		e.mu.Unlock()
		e.finish(lt, transfer.StatusCancelled, "cancelled by user")
		return nil
	}
	lt, ok := e.active[id]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("no live transfer %s", id)
	}
	select {
	case <-lt.cancel:
	default:
		close(lt.cancel)
	}
	return nil
}

// GetPendingTransfers snapshots the pending set.
func (e *Engine) GetPendingTransfers(ctx context.Context) []transfer.Transfer {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]transfer.Transfer, 0, len(e.pending))
	for _, lt := range e.pending {
		out = append(out, lt.t.Clone())
	}
	return out
}

// GetInterfaces lists the simulated host's network interfaces.
func (e *Engine) GetInterfaces(ctx context.Context) []transfer.NetworkInterface {
	return []transfer.NetworkInterface{
		{Name: "lo", IP: "127.0.0.1", Loopback: true},
		{Name: "eth0", IP: "192.168.1.10"},
	}
}

// UpdateConfig replaces the engine configuration.
func (e *Engine) UpdateConfig(ctx context.Context, cfg engine.Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
}

// ChangePort rebinds the server to a new port. Ports below 1024 stand in
// for a bind failure; with rollback enabled the old port keeps serving.
func (e *Engine) ChangePort(ctx context.Context, port int, rollbackOnFailure bool) error {
	e.mu.Lock()
	old := e.cfg.Port
	running := e.running
	if port < 1024 || port > 65535 {
		e.mu.Unlock()
		if rollbackOnFailure {
			e.log.Warn().Int("port", port).Int("rollback_port", old).Msg("port change failed, keeping old port")
			return fmt.Errorf("cannot bind port %d, still serving on %d", port, old)
		}
		return fmt.Errorf("cannot bind port %d", port)
	}
	e.cfg.Port = port
	e.mu.Unlock()

	if running {
		e.emit(events.PortChanged{OldPort: old, NewPort: port})
	}
	return nil
}

// pump emits progress chunks for a live transfer until it completes,
// fails or is cancelled.
func (e *Engine) pump(lt *liveTransfer, failMidway bool) {
	t := lt.t
	var sent int64
	fileIdx := 0
	var fileBoundary int64
	if len(t.Files) > 0 {
		fileBoundary = t.Files[0].Size
	}
	ticker := time.NewTicker(e.opts.ChunkInterval)
	defer ticker.Stop()

	for sent < t.TotalBytes {
		select {
		case <-lt.cancel:
			e.finish(lt, transfer.StatusCancelled, "cancelled by user")
			return
		case <-ticker.C:
		}
		chunk := e.chunkSize()
		sent += chunk
		if sent > t.TotalBytes {
			sent = t.TotalBytes
		}
		for fileIdx < len(t.Files)-1 && sent >= fileBoundary {
			fileIdx++
			fileBoundary += t.Files[fileIdx].Size
		}
		if failMidway && sent >= t.TotalBytes/2 {
			e.failWithRetries(lt)
			return
		}
		current := ""
		if fileIdx < len(t.Files) {
			current = t.Files[fileIdx].Name
		}
		e.emit(events.TransferProgress{Progress: transfer.Progress{
			TransferID:       t.ID,
			CurrentFile:      current,
			CurrentFileIndex: fileIdx,
			TotalFiles:       len(t.Files),
			BytesTransferred: sent,
			TotalBytes:       t.TotalBytes,
			SpeedBps:         float64(chunk) / e.opts.ChunkInterval.Seconds(),
		}})
	}
	e.finish(lt, transfer.StatusCompleted, "")
}

// chunkSize returns the bytes to move this tick, capped so the transfer
// rate stays under the configured bandwidth limit. Re-read every tick so a
// limit change applies to transfers already in flight.
func (e *Engine) chunkSize() int64 {
	e.mu.Lock()
	limit := e.cfg.BandwidthLimit
	e.mu.Unlock()

	chunk := e.opts.ChunkBytes
	if limit <= 0 {
		return chunk
	}
	perTick := int64(float64(limit) * e.opts.ChunkInterval.Seconds())
	if perTick < 1 {
		perTick = 1
	}
	if perTick < chunk {
		chunk = perTick
	}
	return chunk
}

// failWithRetries announces the configured number of retries, then fails.
func (e *Engine) failWithRetries(lt *liveTransfer) {
	e.mu.Lock()
	retries := e.cfg.MaxRetries
	delay := time.Duration(e.cfg.RetryDelayMs) * time.Millisecond
	e.mu.Unlock()
	if delay == 0 {
		delay = e.opts.ChunkInterval
	}
	for attempt := 1; attempt <= retries; attempt++ {
		e.emit(events.TransferRetry{
			ID:          lt.t.ID,
			Attempt:     attempt,
			MaxAttempts: retries,
			Error:       "connection reset by peer",
		})
		select {
		case <-lt.cancel:
			e.finish(lt, transfer.StatusCancelled, "cancelled by user")
			return
		case <-time.After(delay):
		}
	}
	e.finish(lt, transfer.StatusFailed, "connection reset by peer")
}

// finish emits the terminal event, records history and drops the
// transfer from the live sets.
func (e *Engine) finish(lt *liveTransfer, status transfer.Status, errText string) {
	e.mu.Lock()
	delete(e.active, lt.t.ID)
	delete(e.pending, lt.t.ID)
	e.mu.Unlock()

	lt.t.Status = status
	lt.t.Error = errText
	now := time.Now()
	lt.t.CompletedAt = &now

	if e.hist != nil {
		if err := e.hist.Append(history.FromTransfer(lt.t)); err != nil {
			e.log.Error().Err(err).Str("transfer_id", lt.t.ID).Msg("history append failed")
		}
	}

	switch status {
	case transfer.StatusCompleted:
		e.emit(events.TransferComplete{ID: lt.t.ID})
	default:
		e.emit(events.TransferFailed{ID: lt.t.ID, Error: errText})
	}
}
