package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/bridge"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/engine"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/events"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/progress"
)

func newSendCmd() *cobra.Command {
	var (
		port  int
		asDir bool
		quiet bool
	)

	cmd := &cobra.Command{
		Use:   "send ADDRESS PATH [PATH...]",
		Short: "Send files to a peer",
		Long: `Send files to a device on the local network.

ADDRESS is a hostname, an IP, or the name of a saved favorite. The address
is resolved and the peer checked before any bytes move; progress renders
on stderr so stdout stays clean.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(args[0], args[1:], port, asDir, quiet)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Peer port (default from settings)")
	cmd.Flags().BoolVarP(&asDir, "dir", "d", false, "Send a single directory tree")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "No progress output")
	return cmd
}

func runSend(address string, paths []string, port int, asDir, quiet bool) error {
	d, err := buildDeps(logger)
	if err != nil {
		return err
	}
	if fav, ok := d.favorites.Use(address); ok {
		logger.Info().Str("favorite", fav.Name).Str("address", fav.Address).Msg("sending to favorite")
		address = fav.Address
		if port == 0 && fav.Port != 0 {
			port = fav.Port
		}
	}
	if port == 0 {
		port = d.current.Port
	}
	if asDir && len(paths) != 1 {
		return fmt.Errorf("--dir takes exactly one path")
	}

	br := bridge.New(d.engine, logger.Component("bridge"))
	if err := br.Start(); err != nil {
		return err
	}
	defer br.Stop()

	// Resolve, then check, before committing to the send.
	resolveReply := make(chan engine.ResolveResult, 1)
	if err := br.Submit(bridge.ResolveAddress{Address: address, Reply: resolveReply}); err != nil {
		return err
	}
	res := <-resolveReply
	if !res.Success {
		return fmt.Errorf("cannot resolve %s: %s", address, res.Error)
	}
	target := address
	if len(res.IPs) > 0 {
		target = res.IPs[0]
	}
	if err := d.favorites.UpdateResolvedIP(address, target); err != nil {
		logger.Warn().Err(err).Msg("favorite ip update failed")
	}

	checkReply := make(chan bool, 1)
	if err := br.Submit(bridge.CheckPeer{Address: target, Port: port, Reply: checkReply}); err != nil {
		return err
	}
	if !<-checkReply {
		return fmt.Errorf("peer %s not answering on port %d", target, port)
	}

	var cmd bridge.Command
	if asDir {
		cmd = bridge.SendDirectory{Address: target, Port: port, Path: paths[0]}
	} else {
		cmd = bridge.SendFiles{Address: target, Port: port, Paths: paths}
	}
	if err := br.Submit(cmd); err != nil {
		return err
	}

	var bar progress.Reporter = progress.NewBar()
	if quiet {
		bar = progress.Quiet{}
	}
	return watchSend(br, bar)
}

// watchSend consumes the event stream until the transfer settles.
func watchSend(br *bridge.Bridge, bar progress.Reporter) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	var transferID string
	currentFile := ""
	for {
		select {
		case <-sig:
			if transferID != "" {
				_ = br.Submit(bridge.CancelTransfer{ID: transferID})
			}
			return fmt.Errorf("interrupted")

		case ev, ok := <-br.Events():
			if !ok {
				return fmt.Errorf("engine stopped unexpectedly")
			}
			switch e := ev.(type) {
			case events.TransferRequest:
				transferID = e.Transfer.ID
				bar.Start(e.Transfer.TotalBytes, "sending to "+peerLabel(e.Transfer))

			case events.TransferProgress:
				if e.Progress.TransferID != transferID {
					continue
				}
				bar.Update(e.Progress.BytesTransferred)
				if e.Progress.CurrentFile != currentFile && e.Progress.CurrentFile != "" {
					currentFile = e.Progress.CurrentFile
					bar.SetDescription(currentFile)
				}

			case events.TransferRetry:
				if e.ID == transferID {
					bar.SetDescription(fmt.Sprintf("retry %d/%d", e.Attempt, e.MaxAttempts))
				}

			case events.TransferComplete:
				if e.ID == transferID {
					bar.Finish()
					return nil
				}

			case events.TransferFailed:
				if e.ID == transferID {
					err := fmt.Errorf("transfer failed: %s", e.Error)
					bar.Error(err)
					return err
				}
			}
		}
	}
}
