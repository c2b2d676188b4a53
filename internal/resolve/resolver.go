// Package resolve debounces address input and turns it into resolved,
// reachability-checked peer details. Typing restarts a single-shot timer;
// only the text that survives the quiet period is resolved, and results
// for superseded input are discarded instead of shown.
package resolve

import (
	"strings"
	"sync"
	"time"

	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/bridge"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/engine"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/logging"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/uiloop"
)

// DefaultDebounce is the quiet period after the last keystroke before a
// resolve is attempted.
const DefaultDebounce = 300 * time.Millisecond

// Result is the atomic outcome of one resolve: hostname, addresses and
// reachability arrive together so the UI never renders a half-updated
// peer line.
type Result struct {
	Input     string
	Success   bool
	Hostname  string
	IPs       []string
	Reachable bool
	Error     string
}

// PrimaryIP returns the address the peer check ran against.
func (r Result) PrimaryIP() string {
	if len(r.IPs) > 0 {
		return r.IPs[0]
	}
	return r.Input
}

// Resolver owns the debounce timer and the resolve-then-check chain.
// SetInput must be called from the UI loop; results come back on it too.
type Resolver struct {
	loop     uiloop.Loop
	log      *logging.Logger
	submit   func(bridge.Command) error
	port     func() int
	debounce time.Duration

	onResult     func(Result)
	onResolvedIP func(input, ip string)

	// after starts a timer and returns its stop function. Swapped out
	// in tests.
	after func(d time.Duration, fn func()) func() bool

	mu     sync.Mutex
	gen    uint64
	cancel func() bool
}

// New builds a resolver. port supplies the transfer port for the
// reachability check at fire time, not at construction.
func New(loop uiloop.Loop, log *logging.Logger, submit func(bridge.Command) error, port func() int) *Resolver {
	if log == nil {
		log = logging.Nop()
	}
	return &Resolver{
		loop:     loop,
		log:      log,
		submit:   submit,
		port:     port,
		debounce: DefaultDebounce,
		after: func(d time.Duration, fn func()) func() bool {
			t := time.AfterFunc(d, fn)
			return t.Stop
		},
	}
}

// SetOnResult registers the callback receiving each surviving result.
func (r *Resolver) SetOnResult(fn func(Result)) { r.onResult = fn }

// SetOnResolvedIP registers a hook fired on successful resolves, used to
// refresh a favorite's cached address.
func (r *Resolver) SetOnResolvedIP(fn func(input, ip string)) { r.onResolvedIP = fn }

// SetInput restarts the debounce window for text. Each call supersedes
// every earlier one: in-flight resolves for older input deliver nothing.
func (r *Resolver) SetInput(text string) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		r.mu.Unlock()
		r.deliver(gen, Result{})
		return
	}
	r.cancel = r.after(r.debounce, func() { r.begin(gen, text) })
	r.mu.Unlock()
}

// begin runs when the debounce timer fires.
func (r *Resolver) begin(gen uint64, text string) {
	if !r.current(gen) {
		return
	}
	reply := make(chan engine.ResolveResult, 1)
	if err := r.submit(bridge.ResolveAddress{Address: text, Reply: reply}); err != nil {
		r.log.Warn().Err(err).Str("input", text).Msg("resolve submit failed")
		r.deliver(gen, Result{Input: text, Error: err.Error()})
		return
	}
	go r.await(gen, text, reply)
}

func (r *Resolver) await(gen uint64, text string, reply <-chan engine.ResolveResult) {
	res := <-reply
	if !r.current(gen) {
		r.log.Debug().Str("input", text).Msg("discarding stale resolve result")
		return
	}
	if !res.Success {
		r.deliver(gen, Result{Input: text, Error: res.Error})
		return
	}
	out := Result{
		Input:    text,
		Success:  true,
		Hostname: res.Hostname,
		IPs:      append([]string(nil), res.IPs...),
	}
	if r.onResolvedIP != nil {
		ip := out.PrimaryIP()
		r.loop.Post(func() { r.onResolvedIP(text, ip) })
	}

	check := make(chan bool, 1)
	if err := r.submit(bridge.CheckPeer{Address: out.PrimaryIP(), Port: r.port(), Reply: check}); err != nil {
		// Resolution still stands; the peer just shows as unreachable.
		r.log.Warn().Err(err).Str("input", text).Msg("peer check submit failed")
		r.deliver(gen, out)
		return
	}
	out.Reachable = <-check
	r.deliver(gen, out)
}

// deliver posts the result to the UI loop, unless newer input has arrived
// in the meantime.
func (r *Resolver) deliver(gen uint64, res Result) {
	r.loop.Post(func() {
		if !r.current(gen) {
			r.log.Debug().Str("input", res.Input).Msg("discarding stale resolve result")
			return
		}
		if r.onResult != nil {
			r.onResult(res)
		}
	})
}

func (r *Resolver) current(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return gen == r.gen
}
