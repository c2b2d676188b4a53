package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/bridge"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/events"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/notify"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/state"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/transfer"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/uiloop"
)

func newServeCmd() *cobra.Command {
	var (
		port       int
		acceptAll  bool
		jsonEvents bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a headless receiver",
		Long: `Run the receive server without a UI.

Transfers from trusted hosts are accepted automatically. With
--accept-all every incoming transfer is accepted; otherwise untrusted
requests are rejected, since nobody is around to decide.

With --json every engine event is also written to stdout as one JSON
object per line, for supervising processes to consume.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port, acceptAll, jsonEvents)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (default from settings)")
	cmd.Flags().BoolVar(&acceptAll, "accept-all", false, "Accept every incoming transfer")
	cmd.Flags().BoolVar(&jsonEvents, "json", false, "Write engine events to stdout as JSON lines")
	return cmd
}

func runServe(port int, acceptAll, jsonEvents bool) error {
	d, err := buildDeps(logger)
	if err != nil {
		return err
	}
	current := d.current
	if port != 0 {
		current.Port = port
	}

	br := bridge.New(d.engine, logger.Component("bridge"))
	loop := uiloop.NewQueue()
	defer loop.Close()

	store := state.NewStore(logger.Component("store"), loop)
	notifier := notify.NewNotifier(current.Notifications, logger.Component("notify"))

	trusted := func(addr string) bool { return acceptAll || current.IsTrusted(addr) }
	router := state.NewRouter(store, loop, logger.Component("router"), br.Submit, trusted)
	router.SetHooks(state.Hooks{
		// Unattended mode: nobody can answer a prompt, so untrusted
		// requests are declined outright.
		OnRequest: func(t transfer.Transfer) {
			logger.Info().Str("transfer_id", t.ID).Str("peer", t.PeerAddress).Msg("rejecting untrusted transfer")
			store.MarkCancelIntent(t.ID)
			if err := br.Submit(bridge.RejectTransfer{ID: t.ID}); err != nil {
				logger.Error().Err(err).Str("transfer_id", t.ID).Msg("reject submit failed")
			}
		},
		OnComplete: func(t transfer.Transfer) {
			notifier.TransferComplete(t)
			logger.Info().Str("transfer_id", t.ID).Str("peer", t.PeerAddress).Msg("transfer complete")
		},
		OnFailed: func(t transfer.Transfer, cancelled bool) {
			notifier.TransferFailed(t, cancelled)
			logger.Warn().Str("transfer_id", t.ID).Str("error", t.Error).Msg("transfer failed")
		},
	})

	if err := br.Start(); err != nil {
		return err
	}
	defer br.Stop()

	go func() {
		for ev := range br.Events() {
			if jsonEvents {
				if err := writeEventJSON(os.Stdout, ev); err != nil {
					logger.Error().Err(err).Str("event", string(ev.Type())).Msg("event encode failed")
				}
			}
			router.Route(ev)
		}
	}()

	if err := br.Submit(bridge.UpdateConfig{Config: current.ToEngineConfig()}); err != nil {
		return err
	}
	if err := br.Submit(bridge.StartServer{}); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Receiving on port %d, Ctrl+C to stop\n", current.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	for {
		select {
		case <-loop.Wake():
			loop.Drain()
		case <-sig:
			logger.Info().Msg("shutting down")
			_ = br.Submit(bridge.StopServer{})
			return nil
		}
	}
}

// writeEventJSON writes one event in its wire form, one object per line.
func writeEventJSON(w io.Writer, ev events.Event) error {
	data, err := events.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
