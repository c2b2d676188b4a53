// Package settings loads and saves user preferences. The file lives at
// ~/.config/gosh-transfer/settings.json with camelCase keys; unknown or
// missing fields fall back to defaults rather than failing a load.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/engine"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/logging"
)

// DefaultPort is the transfer port used until the user changes it.
const DefaultPort = 53317

// Theme preference values.
const (
	ThemeSystem = "system"
	ThemeDark   = "dark"
	ThemeLight  = "light"
)

// InterfaceFilters selects which network interface categories the UI
// lists. Loopback interfaces are never shown regardless of these flags.
type InterfaceFilters struct {
	ShowWifi     bool `json:"showWifi"`
	ShowEthernet bool `json:"showEthernet"`
	ShowVpn      bool `json:"showVpn"`
	ShowDocker   bool `json:"showDocker"`
	ShowOther    bool `json:"showOther"`
}

// Settings mirrors settings.json.
type Settings struct {
	DeviceName        string           `json:"deviceName"`
	Port              int              `json:"port"`
	DownloadDir       string           `json:"downloadDir"`
	TrustedHosts      []string         `json:"trustedHosts"`
	ReceiveOnly       bool             `json:"receiveOnly"`
	Notifications     bool             `json:"notifications"`
	Theme             string           `json:"theme"`
	InterfaceFilters  InterfaceFilters `json:"interfaceFilters"`
	MaxRetries        int              `json:"maxRetries"`
	RetryDelayMs      int              `json:"retryDelayMs"`
	BandwidthLimit    int64            `json:"bandwidthLimit"`
	StartServerOnBoot bool             `json:"startServerOnBoot"`
}

// Default returns the settings used for a fresh install.
func Default() Settings {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "gosh-transfer"
	}
	home, _ := os.UserHomeDir()
	return Settings{
		DeviceName:    hostname,
		Port:          DefaultPort,
		DownloadDir:   filepath.Join(home, "Downloads"),
		Notifications: true,
		Theme:         ThemeSystem,
		InterfaceFilters: InterfaceFilters{
			ShowWifi:     true,
			ShowEthernet: true,
			ShowVpn:      true,
			ShowOther:    true,
		},
		MaxRetries:        3,
		RetryDelayMs:      1000,
		StartServerOnBoot: true,
	}
}

// CycleTheme returns the settings with the next theme preference.
func (s Settings) CycleTheme() Settings {
	switch s.Theme {
	case ThemeSystem:
		s.Theme = ThemeDark
	case ThemeDark:
		s.Theme = ThemeLight
	default:
		s.Theme = ThemeSystem
	}
	return s
}

// IsTrusted reports whether addr is on the trusted hosts list.
func (s Settings) IsTrusted(addr string) bool {
	return slices.Contains(s.TrustedHosts, addr)
}

// AddTrustedHost adds addr if not already present, returning the result.
func (s Settings) AddTrustedHost(addr string) Settings {
	if !s.IsTrusted(addr) {
		s.TrustedHosts = append(slices.Clone(s.TrustedHosts), addr)
	}
	return s
}

// RemoveTrustedHost removes addr if present, returning the result.
func (s Settings) RemoveTrustedHost(addr string) Settings {
	s.TrustedHosts = slices.DeleteFunc(slices.Clone(s.TrustedHosts), func(h string) bool {
		return h == addr
	})
	return s
}

// ToEngineConfig maps settings onto the engine's configuration.
func (s Settings) ToEngineConfig() engine.Config {
	return engine.Config{
		Port:           s.Port,
		DeviceName:     s.DeviceName,
		DownloadDir:    s.DownloadDir,
		TrustedHosts:   slices.Clone(s.TrustedHosts),
		ReceiveOnly:    s.ReceiveOnly,
		MaxRetries:     s.MaxRetries,
		RetryDelayMs:   s.RetryDelayMs,
		BandwidthLimit: s.BandwidthLimit,
	}
}

// ConfigDir returns the application's config directory.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(base, "gosh-transfer"), nil
}

// Store reads and writes the settings file.
type Store struct {
	path string
	log  *logging.Logger
	mu   sync.Mutex
}

// NewStore builds a store over an explicit path, mainly for tests.
func NewStore(path string, log *logging.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{path: path, log: log}
}

// OpenDefault builds a store over the standard config location.
func OpenDefault(log *logging.Logger) (*Store, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return NewStore(filepath.Join(dir, "settings.json"), log), nil
}

// Load reads settings, filling gaps with defaults. A missing file is not
// an error; a corrupt one is logged and replaced by defaults so the app
// can still start.
func (st *Store) Load() Settings {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := Default()
	data, err := os.ReadFile(st.path)
	if err != nil {
		if !os.IsNotExist(err) {
			st.log.Warn().Err(err).Str("path", st.path).Msg("settings unreadable, using defaults")
		}
		return s
	}
	if err := json.Unmarshal(data, &s); err != nil {
		st.log.Warn().Err(err).Str("path", st.path).Msg("settings corrupt, using defaults")
		return Default()
	}
	if s.Port <= 0 || s.Port > 65535 {
		s.Port = DefaultPort
	}
	if s.MaxRetries < 0 {
		s.MaxRetries = 0
	}
	switch s.Theme {
	case ThemeSystem, ThemeDark, ThemeLight:
	default:
		s.Theme = ThemeSystem
	}
	return s
}

// Save writes settings atomically.
func (st *Store) Save(s Settings) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(st.path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	tmp := st.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := os.Rename(tmp, st.path); err != nil {
		return fmt.Errorf("replacing settings: %w", err)
	}
	return nil
}
