// Package ui is the terminal frontend. A bubbletea program renders the
// transfer store; everything that happens off the program's goroutine is
// marshalled in through applyMsg, so store access stays single-threaded.
package ui

import (
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/bridge"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/engine"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/favorites"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/history"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/logging"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/notify"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/resolve"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/settings"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/state"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/transfer"
)

// applyMsg carries a function to run inside Update, on the program's
// goroutine. It is how the resolver, store timers and event router reach
// the UI.
type applyMsg struct {
	fn func()
}

// programLoop adapts a tea.Program to the Post interface. Posts made
// before the program starts are buffered and flushed on attach.
type programLoop struct {
	mu      sync.Mutex
	p       *tea.Program
	backlog []func()
}

func (l *programLoop) Post(fn func()) {
	l.mu.Lock()
	p := l.p
	if p == nil {
		l.backlog = append(l.backlog, fn)
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (l *programLoop) attach(p *tea.Program) {
	l.mu.Lock()
	l.p = p
	backlog := l.backlog
	l.backlog = nil
	l.mu.Unlock()
	for _, fn := range backlog {
		p.Send(applyMsg{fn: fn})
	}
}

// App bundles everything the model reads and drives. Fields mutated from
// Update only; the model itself stays a value type.
type App struct {
	Log       *logging.Logger
	Bridge    *bridge.Bridge
	Store     *state.Store
	Router    *state.Router
	Batch     *state.Coordinator
	Resolver  *resolve.Resolver
	History   *history.Log
	Favorites *favorites.Store
	Settings  *settings.Store
	Notifier  *notify.Notifier

	current     settings.Settings
	lastResolve *resolve.Result
	resolving   bool
	status      string
}

// Run wires the application together around eng and blocks until the user
// quits. The engine's server is started automatically when the settings
// ask for it.
func Run(eng engine.Engine, settingsStore *settings.Store, favStore *favorites.Store, histStore *history.FileStore, log *logging.Logger) error {
	loop := &programLoop{}
	current := settingsStore.Load()

	br := bridge.New(eng, log.Component("bridge"))
	store := state.NewStore(log.Component("store"), loop)
	histLog := history.NewLog(histStore, loop, log.Component("history"))
	notifier := notify.NewNotifier(current.Notifications, log.Component("notify"))

	app := &App{
		Log:       log,
		Bridge:    br,
		Store:     store,
		History:   histLog,
		Favorites: favStore,
		Settings:  settingsStore,
		Notifier:  notifier,
		current:   current,
	}

	trusted := func(addr string) bool { return app.current.IsTrusted(addr) }
	app.Router = state.NewRouter(store, loop, log.Component("router"), br.Submit, trusted)
	app.Router.SetHooks(state.Hooks{
		OnRequest:  notifier.TransferRequest,
		OnComplete: notifier.TransferComplete,
		OnFailed:   notifier.TransferFailed,
	})
	app.Batch = state.NewCoordinator(store, loop, log.Component("batch"), br.Submit)

	app.Resolver = resolve.New(loop, log.Component("resolve"), br.Submit, func() int {
		return app.current.Port
	})
	app.Resolver.SetOnResult(func(res resolve.Result) {
		app.resolving = false
		app.lastResolve = &res
	})
	app.Resolver.SetOnResolvedIP(func(input, ip string) {
		go func() {
			if err := favStore.UpdateResolvedIP(input, ip); err != nil {
				log.Error().Err(err).Str("address", input).Msg("favorite ip update failed")
			}
		}()
	})
	store.SetHistoryChanged(histLog.Refresh)

	if err := br.Start(); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer br.Stop()

	// Event pump: engine events reach the store only through the router,
	// which posts them onto the program loop.
	go func() {
		for ev := range br.Events() {
			app.Router.Route(ev)
		}
	}()

	if err := br.Submit(bridge.UpdateConfig{Config: current.ToEngineConfig()}); err != nil {
		return fmt.Errorf("pushing config: %w", err)
	}
	if current.StartServerOnBoot {
		if err := br.Submit(bridge.StartServer{}); err != nil {
			log.Error().Err(err).Msg("server autostart submit failed")
		}
	}
	histLog.Refresh()

	p := tea.NewProgram(newModel(app), tea.WithAltScreen())
	loop.attach(p)
	_, err := p.Run()
	return err
}

// submit pushes a command, surfacing queue-full as a status line message
// instead of an error dialog.
func (a *App) submit(cmd bridge.Command) {
	if err := a.Bridge.Submit(cmd); err != nil {
		a.status = "engine busy, try again"
		a.Log.Warn().Err(err).Msg("command rejected")
	}
}

// accept decides a single pending transfer. The row stays in the pending
// list until the engine starts moving bytes.
func (a *App) accept(id string) {
	a.submit(bridge.AcceptTransfer{ID: id})
}

func (a *App) reject(id string) {
	a.Store.MarkCancelIntent(id)
	a.submit(bridge.RejectTransfer{ID: id})
}

func (a *App) cancel(id string) {
	a.Store.MarkCancelIntent(id)
	a.submit(bridge.CancelTransfer{ID: id})
}

func (a *App) acceptAll() {
	if _, err := a.Batch.AcceptAll(); err != nil {
		a.status = "engine busy, try again"
	}
}

func (a *App) rejectAll() {
	ids, err := a.Batch.RejectAll()
	if err != nil {
		a.status = "engine busy, try again"
		return
	}
	for _, id := range ids {
		a.Store.MarkCancelIntent(id)
	}
}

// sendFiles starts an outbound transfer. A target matching a saved
// favorite by name or address goes to the favorite's endpoint and stamps
// its last_used.
func (a *App) sendFiles(address string, paths []string) {
	port := a.current.Port
	if fav, ok := a.Favorites.Use(address); ok {
		address = fav.Address
		if fav.Port != 0 {
			port = fav.Port
		}
	}
	a.submit(bridge.SendFiles{Address: address, Port: port, Paths: paths})
}

func (a *App) toggleNotifications() {
	a.current.Notifications = !a.current.Notifications
	a.Notifier.SetEnabled(a.current.Notifications)
	a.persistSettings()
}

func (a *App) cycleTheme() {
	a.current = a.current.CycleTheme()
	a.persistSettings()
}

func (a *App) toggleServer() {
	if running, _ := a.Store.ServerState(); running {
		a.submit(bridge.StopServer{})
	} else {
		a.submit(bridge.StartServer{})
	}
}

func (a *App) persistSettings() {
	s := a.current
	go func() {
		if err := a.Settings.Save(s); err != nil {
			a.Log.Error().Err(err).Msg("settings save failed")
		}
	}()
	a.submit(bridge.UpdateConfig{Config: s.ToEngineConfig()})
}

func (a *App) setAddressInput(text string) {
	a.resolving = text != ""
	a.lastResolve = nil
	a.Resolver.SetInput(text)
}

func directionGlyph(d transfer.Direction) string {
	if d == transfer.DirectionSend {
		return "↑"
	}
	return "↓"
}
