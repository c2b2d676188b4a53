// Package bridge carries UI commands into the engine's execution context
// and engine events back out, over two bounded FIFO channels. It is the only
// cross-context communication path in the application.
package bridge

import (
	"context"
	"errors"
	"sync"

	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/engine"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/events"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/logging"
)

const (
	// CommandQueueCapacity bounds the UI→engine queue. Small on purpose:
	// engine-side capacity dominates responsiveness, not queue depth.
	CommandQueueCapacity = 32

	// EventQueueCapacity bounds the engine→UI queue.
	EventQueueCapacity = 64
)

// ErrQueueFull is returned by Submit when the command queue is at capacity.
// The caller surfaces a transient busy condition instead of blocking.
var ErrQueueFull = errors.New("bridge: command queue full")

// ErrStopped is returned by Submit after the bridge has shut down.
var ErrStopped = errors.New("bridge: stopped")

// Bridge owns the command/event channel pair. Commands are executed against
// the engine in submission order by a single dispatch goroutine; parallelism
// for concurrent sends and receives lives inside the engine's own worker
// pool, behind the interface.
type Bridge struct {
	engine engine.Engine
	log    *logging.Logger

	commands  chan Command
	eventsOut chan events.Event

	stopC   chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	stopped bool
}

// New creates a bridge over the given engine. Call Start before Submit.
func New(eng engine.Engine, log *logging.Logger) *Bridge {
	if log == nil {
		log = logging.Nop()
	}
	return &Bridge{
		engine:    eng,
		log:       log,
		commands:  make(chan Command, CommandQueueCapacity),
		eventsOut: make(chan events.Event, EventQueueCapacity),
		stopC:     make(chan struct{}),
	}
}

// Start launches the dispatch loop and the event pump. Starting twice is an
// error; failure to establish the channel pair is the one fatal condition at
// application launch.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return ErrStopped
	}
	if b.started {
		return errors.New("bridge: already started")
	}
	if b.engine == nil {
		return errors.New("bridge: no engine")
	}
	b.started = true

	b.wg.Add(2)
	go b.dispatchLoop()
	go b.eventPump()

	b.log.Debug().Msg("bridge started")
	return nil
}

// Submit enqueues a command without ever blocking the caller. Returns
// ErrQueueFull when the queue is at capacity. The enqueue happens under
// the bridge lock so a command can never slip in behind Stop's drain.
func (b *Bridge) Submit(cmd Command) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return ErrStopped
	}

	select {
	case b.commands <- cmd:
		return nil
	default:
		b.log.Warn().Str("command", cmd.name()).Msg("command queue full, rejecting")
		return ErrQueueFull
	}
}

// Events returns the engine→UI event stream. Closed on Stop.
func (b *Bridge) Events() <-chan events.Event {
	return b.eventsOut
}

// Stop shuts the bridge down and closes the event stream. Queued commands
// that have not started executing are dropped, with their reply slots
// closed so no caller stays blocked on a reply that will never come.
func (b *Bridge) Stop() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	started := b.started
	b.mu.Unlock()

	if started {
		close(b.stopC)
		b.wg.Wait()
	}
	b.drainCommands()
	close(b.eventsOut)
	b.log.Debug().Msg("bridge stopped")
}

// drainCommands empties the command queue after the dispatch loop has
// exited. Safe without the lock: Submit refuses new commands once stopped.
func (b *Bridge) drainCommands() {
	for {
		select {
		case cmd := <-b.commands:
			b.log.Debug().Str("command", cmd.name()).Msg("dropping queued command at shutdown")
			closeReply(cmd)
		default:
			return
		}
	}
}

// closeReply closes a dropped command's reply slot, if it carries one.
func closeReply(cmd Command) {
	switch c := cmd.(type) {
	case ResolveAddress:
		if c.Reply != nil {
			close(c.Reply)
		}
	case CheckPeer:
		if c.Reply != nil {
			close(c.Reply)
		}
	case GetPeerInfo:
		if c.Reply != nil {
			close(c.Reply)
		}
	case GetPendingTransfers:
		if c.Reply != nil {
			close(c.Reply)
		}
	case GetInterfaces:
		if c.Reply != nil {
			close(c.Reply)
		}
	}
}

func (b *Bridge) dispatchLoop() {
	defer b.wg.Done()

	ctx := context.Background()
	for {
		select {
		case cmd := <-b.commands:
			b.execute(ctx, cmd)
		case <-b.stopC:
			return
		}
	}
}

// eventPump forwards engine events into the bounded event channel. The send
// blocks when the UI falls behind; that backpressure is intentional and
// never reaches the UI's own run loop.
func (b *Bridge) eventPump() {
	defer b.wg.Done()

	src := b.engine.Events()
	for {
		select {
		case ev, ok := <-src:
			if !ok {
				return
			}
			select {
			case b.eventsOut <- ev:
			case <-b.stopC:
				return
			}
		case <-b.stopC:
			return
		}
	}
}

func (b *Bridge) execute(ctx context.Context, cmd Command) {
	switch c := cmd.(type) {
	case StartServer:
		if err := b.engine.StartServer(ctx); err != nil {
			b.log.Error().Err(err).Msg("start server failed")
		}

	case StopServer:
		if err := b.engine.StopServer(ctx); err != nil {
			b.log.Error().Err(err).Msg("stop server failed")
		}

	case ResolveAddress:
		result := b.engine.ResolveAddress(ctx, c.Address)
		replyOnce(c.Reply, result)

	case CheckPeer:
		reachable := b.engine.CheckPeer(ctx, c.Address, c.Port)
		replyOnce(c.Reply, reachable)

	case GetPeerInfo:
		info, err := b.engine.GetPeerInfo(ctx, c.Address, c.Port)
		replyOnce(c.Reply, PeerInfoResult{Info: info, Err: err})

	case SendFiles:
		if err := b.engine.SendFiles(ctx, c.Address, c.Port, c.Paths); err != nil {
			b.log.Error().Err(err).Str("address", c.Address).Msg("send failed")
		}

	case SendDirectory:
		if err := b.engine.SendDirectory(ctx, c.Address, c.Port, c.Path); err != nil {
			b.log.Error().Err(err).Str("address", c.Address).Msg("send directory failed")
		}

	case AcceptTransfer:
		if err := b.engine.AcceptTransfer(ctx, c.ID); err != nil {
			b.log.Error().Err(err).Str("transfer_id", c.ID).Msg("accept failed")
		}

	case RejectTransfer:
		if err := b.engine.RejectTransfer(ctx, c.ID); err != nil {
			b.log.Error().Err(err).Str("transfer_id", c.ID).Msg("reject failed")
		}

	case AcceptAll:
		results := b.engine.AcceptAllTransfers(ctx, c.IDs)
		for id, err := range results {
			if err != nil {
				b.log.Error().Err(err).Str("transfer_id", id).Msg("accept failed")
			}
		}
		if c.Done != nil {
			c.Done(results)
		}

	case RejectAll:
		results := b.engine.RejectAllTransfers(ctx, c.IDs)
		for id, err := range results {
			if err != nil {
				b.log.Error().Err(err).Str("transfer_id", id).Msg("reject failed")
			}
		}
		if c.Done != nil {
			c.Done(results)
		}

	case CancelTransfer:
		if err := b.engine.CancelTransfer(ctx, c.ID); err != nil {
			b.log.Error().Err(err).Str("transfer_id", c.ID).Msg("cancel failed")
		}

	case GetPendingTransfers:
		replyOnce(c.Reply, b.engine.GetPendingTransfers(ctx))

	case GetInterfaces:
		replyOnce(c.Reply, b.engine.GetInterfaces(ctx))

	case UpdateConfig:
		b.engine.UpdateConfig(ctx, c.Config)

	case ChangePort:
		if err := b.engine.ChangePort(ctx, c.Port, c.AllowRollback); err != nil {
			b.log.Error().Err(err).Int("port", c.Port).Msg("change port failed")
		}

	default:
		b.log.Warn().Str("command", cmd.name()).Msg("unknown command dropped")
	}
}

// replyOnce delivers the single value of a reply slot, then closes it.
func replyOnce[T any](reply chan<- T, value T) {
	if reply == nil {
		return
	}
	reply <- value
	close(reply)
}
