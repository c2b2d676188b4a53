// Package cli provides the command-line interface for gosh-transfer.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/engine/sim"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/favorites"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/history"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/logging"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/settings"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/transfer"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/ui"
)

var (
	// Global flags
	configDir string
	verbose   bool
	debug     bool

	// Global logger, set in PersistentPreRun
	logger *logging.Logger
)

// Version information - set by main package at startup via LDFLAGS, with
// these as fallbacks for plain go build.
var (
	Version   = "v1.0.0-dev"
	BuildTime = "unknown"
)

// NewRootCmd creates the root command. Running it with no subcommand
// opens the terminal UI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gosh-transfer",
		Short: "LAN file transfer between your own devices",
		Long: `Gosh Transfer ` + Version + ` - Built: ` + BuildTime + `
Send and receive files between devices on the local network.

With no arguments the interactive terminal UI opens. Subcommands cover
scripted use: sending files, running a headless receiver, and managing
history and favorites.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			mode := "cli"
			if cmd.Name() == "gosh-transfer" {
				// The root command takes over the terminal.
				mode = "tui"
			}
			logger = logging.NewLogger(mode)
			if verbose || debug {
				logging.SetGlobalLevel(-1)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Config directory (default ~/.config/gosh-transfer)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")

	rootCmd.AddCommand(
		newSendCmd(),
		newServeCmd(),
		newHistoryCmd(),
		newFavoritesCmd(),
	)
	return rootCmd
}

// Execute runs the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// deps bundles the stores and engine a command needs.
type deps struct {
	settings  *settings.Store
	favorites *favorites.Store
	history   *history.FileStore
	engine    *sim.Engine
	current   settings.Settings
}

func buildDeps(log *logging.Logger) (*deps, error) {
	dir := configDir
	if dir == "" {
		var err error
		dir, err = settings.ConfigDir()
		if err != nil {
			return nil, err
		}
	}

	settingsStore := settings.NewStore(filepath.Join(dir, "settings.json"), log)
	current := settingsStore.Load()
	favStore := favorites.NewStore(filepath.Join(dir, "favorites.json"), log)
	histStore := history.NewFileStore(filepath.Join(dir, "history.json"), log)

	eng := sim.New(current.ToEngineConfig(), histStore, log.Component("engine"), sim.Options{})
	seedPeers(eng)

	return &deps{
		settings:  settingsStore,
		favorites: favStore,
		history:   histStore,
		engine:    eng,
		current:   current,
	}, nil
}

// seedPeers populates the simulated network.
func seedPeers(eng *sim.Engine) {
	eng.AddPeer(sim.Peer{Hostname: "deskbox", IPs: []string{"192.168.1.50"}, Version: "1.0.0"})
	eng.AddPeer(sim.Peer{Hostname: "laptop", IPs: []string{"192.168.1.51"}, Version: "1.0.0"})
	eng.AddPeer(sim.Peer{Hostname: "nas", IPs: []string{"192.168.1.10"}, Version: "0.9.2", ReceiveOnly: true})
	eng.AddPeer(sim.Peer{Hostname: "flaky", IPs: []string{"192.168.1.66"}, FailTransfers: true})
}

func runUI() error {
	d, err := buildDeps(logger)
	if err != nil {
		return err
	}
	return ui.Run(d.engine, d.settings, d.favorites, d.history, logger)
}

func peerLabel(t transfer.Transfer) string {
	if t.PeerHostname != "" {
		return t.PeerHostname
	}
	return t.PeerAddress
}
